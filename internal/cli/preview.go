package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/idozri/vidto-listen/internal/catalog"
	"github.com/idozri/vidto-listen/internal/ffmpeg"
	"github.com/idozri/vidto-listen/internal/logging"
	"github.com/idozri/vidto-listen/internal/preview"
	"github.com/idozri/vidto-listen/internal/processing"
	"github.com/idozri/vidto-listen/internal/upload"
)

var previewCmd = &cobra.Command{
	Use:   "preview [media_file]",
	Short: "Play a local file with its subtitle tracks in the terminal",
	Long: `Run a local video or audio file through subtitle extraction and play
it back on a simulated clock, with every track following the playback
position.

The real duration is read with ffprobe when available.

Examples:
  vidto-listen preview talk.mp4
  vidto-listen preview podcast.mp3 -l pt --translate --delay 1s`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().
		StringP("language", "l", catalog.AutoDetect, "Spoken language code, or auto")
	previewCmd.Flags().
		Bool("translate", false, "Also translate the subtitles to English")
	previewCmd.Flags().
		Duration("delay", processing.DefaultDelay, "Simulated processing time")
}

func runPreview(cmd *cobra.Command, args []string) error {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("preview needs an interactive terminal")
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		width = 0
	}

	rawLang, _ := cmd.Flags().GetString("language")
	translate, _ := cmd.Flags().GetBool("translate")
	delay, _ := cmd.Flags().GetDuration("delay")

	language, ok := catalog.Normalize(rawLang)
	if !ok {
		return fmt.Errorf("unknown language %q: run 'vidto-listen languages' for the list", rawLang)
	}

	file, err := upload.Local(args[0])
	if err != nil {
		return err
	}
	if info, err := ffmpeg.Probe(file.Path); err == nil {
		file.Duration = info.Duration
	} else {
		logger.Debugw("Probe failed, using fallback duration", "file", file.Path, "error", err)
	}

	logger.Debugw("Starting preview",
		"file", file.Name,
		"kind", file.Kind,
		"duration", file.Duration,
		"language", language,
		"delay", delay,
	)
	logger.Sync()

	// Log output would corrupt the alternate screen.
	return preview.Run(preview.Options{
		File:               file,
		Language:           language,
		TranslateToEnglish: translate,
		Delay:              delay,
		Width:              width,
		Logger:             logging.Nop(),
	})
}
