package preview

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idozri/vidto-listen/internal/logging"
	"github.com/idozri/vidto-listen/internal/playback"
	"github.com/idozri/vidto-listen/internal/processing"
	"github.com/idozri/vidto-listen/internal/session"
	"github.com/idozri/vidto-listen/internal/upload"
)

// FallbackDuration is the simulated length used when the file's real
// duration could not be read.
const FallbackDuration = 10.0

type Options struct {
	File               *upload.File
	Language           string
	TranslateToEnglish bool
	Delay              time.Duration
	Width              int
	Logger             *logging.Logger
}

// NewSession starts processing opts.File in a fresh session played by a
// simulated clock. The caller owns the session and must Close it.
func NewSession(opts Options) (*session.Session, *playback.Clock, error) {
	duration := opts.File.Duration
	if duration <= 0 {
		duration = FallbackDuration
	}
	clock := playback.NewClock(duration)

	sess := session.New("preview", session.Config{
		Extractor: processing.NewMock(opts.Delay),
		Element:   func(*upload.File) playback.Element { return clock },
		Logger:    opts.Logger,
	})
	err := sess.SelectFile(opts.File, session.Options{
		Language:           opts.Language,
		TranslateToEnglish: opts.TranslateToEnglish,
	})
	if err != nil {
		sess.Close()
		return nil, nil, err
	}
	return sess, clock, nil
}

// Run shows the preview until the user quits. The local file is never
// modified or removed.
func Run(opts Options) error {
	sess, clock, err := NewSession(opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	_, err = tea.NewProgram(NewModel(sess, clock, opts.Width), tea.WithAltScreen()).Run()
	return err
}
