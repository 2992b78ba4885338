package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idozri/vidto-listen/internal/config"
	"github.com/idozri/vidto-listen/internal/db"
	"github.com/idozri/vidto-listen/internal/db/models"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List finished projects from the dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.DBPath()
		if err != nil {
			return err
		}
		database, err := db.NewSQLite(path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer database.Close()

		projects, err := database.ListProjects()
		if err != nil {
			return err
		}
		return printProjects(cmd.OutOrStdout(), projects)
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

func printProjects(w io.Writer, projects []models.Project) error {
	fmt.Fprintln(w, bulletStyle.Render("┌")+titleStyle.Render("Projects"))
	if len(projects) == 0 {
		_, err := fmt.Fprintln(w, bulletStyle.Render("└")+dimStyle.Render("Nothing processed yet"))
		return err
	}
	for _, p := range projects {
		fmt.Fprintln(w, bulletStyle.Render("├")+textStyle.Render(p.Title))
		_, err := fmt.Fprintln(w, bulletStyle.Render("│")+dimStyle.Render(fmt.Sprintf("  %s  %d subtitles  %s  %s",
			p.DurationLabel, p.SubtitleCount, strings.Join(p.Languages, ", "), p.CreatedAt.Format("2006-01-02 15:04"))))
		if err != nil {
			return err
		}
	}
	noun := "projects"
	if len(projects) == 1 {
		noun = "project"
	}
	_, err := fmt.Fprintln(w, bulletStyle.Render("└")+dimStyle.Render(fmt.Sprintf("%d %s", len(projects), noun)))
	return err
}
