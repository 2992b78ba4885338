package ffmpeg

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// GenerateThumbnail writes a 320px-wide JPEG frame of inputPath to
// outputPath, seeking to 10% of duration for a more representative frame.
// An existing thumbnail is reused.
func GenerateThumbnail(inputPath, outputPath string, duration float64) error {
	if _, err := os.Stat(outputPath); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return err
	}

	var stderr bytes.Buffer
	err := ffmpeggo.Input(inputPath, ffmpeggo.KwArgs{"ss": thumbnailSeek(duration)}).
		Output(outputPath, ffmpeggo.KwArgs{
			"vframes":  1,
			"vf":       "scale=320:-1",
			"loglevel": "error",
		}).
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// thumbnailSeek picks the seek offset: 10% in, clamped to [1s, 5min], or 5s
// when the duration is unknown.
func thumbnailSeek(duration float64) string {
	if duration <= 0 {
		return "5"
	}
	seekTo := duration * 0.10
	if seekTo < 1 {
		seekTo = 1
	}
	if seekTo > 300 {
		seekTo = 300
	}
	return fmt.Sprintf("%.2f", seekTo)
}
