package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idozri/vidto-listen/internal/catalog"
)

var languagesCmd = &cobra.Command{
	Use:   "languages [query]",
	Short: "List or search the supported languages",
	Long: `List the language catalog offered by the language picker.

A query filters by name or code, ignoring case.

Examples:
  vidto-listen languages
  vidto-listen languages port`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		return printLanguages(cmd.OutOrStdout(), catalog.Search(query))
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

func printLanguages(w io.Writer, langs []catalog.Language) error {
	if len(langs) == 0 {
		_, err := fmt.Fprintln(w, bulletStyle.Render("└")+dimStyle.Render("No languages found"))
		return err
	}
	for i, l := range langs {
		bullet := "├"
		if i == len(langs)-1 {
			bullet = "└"
		}
		line := bulletStyle.Render(bullet) + textStyle.Render(fmt.Sprintf("%-4s %s %s", l.Code, l.Flag, l.Name))
		if len(l.Aliases) > 0 {
			line += dimStyle.Render("  " + strings.Join(l.Aliases, ", "))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
