// Package cli implements the vidto-listen command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/idozri/vidto-listen/internal/logging"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vidto-listen",
	Short: "Subtitle extraction workspace for video and audio files",
	Long: `vidto-listen serves the subtitle extraction API used by the web UI:
upload a media file, wait for its subtitle tracks, then play it back
with the tracks following the playback position.

It can also preview a local file in the terminal.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}
