// Package track holds per-language subtitle tracks and renders them against
// the current playback time.
package track

import (
	"errors"

	"github.com/idozri/vidto-listen/internal/catalog"
	"github.com/idozri/vidto-listen/internal/timeline"
)

// VisibleLimit caps how many entries a rendered timeline lists. Entries past
// the limit are never listed, whatever the playback position.
const VisibleLimit = 5

var (
	ErrUnknownTrack = errors.New("unknown track")
	ErrUnknownEntry = errors.New("unknown subtitle entry")
)

// Track is one language's subtitles plus its enabled flag.
type Track struct {
	Code      string              `json:"language_code"`
	Name      string              `json:"language"`
	Flag      string              `json:"flag"`
	Subtitles []timeline.Subtitle `json:"subtitles"`
	Enabled   bool                `json:"enabled"`
}

// New builds an enabled track, taking name and flag from the catalog when
// the code resolves.
func New(code string, subs []timeline.Subtitle) Track {
	t := Track{Code: code, Name: code, Subtitles: subs, Enabled: true}
	if l, ok := catalog.Find(code); ok {
		t.Name = l.Name
		t.Flag = l.Flag
	}
	return t
}

// Set is an ordered collection of tracks keyed by language code. It is not
// safe for concurrent use; the session owning it serializes access.
type Set struct {
	tracks []Track
}

// NewSet copies tracks into a new set, preserving order.
func NewSet(tracks []Track) *Set {
	s := &Set{tracks: make([]Track, len(tracks))}
	copy(s.tracks, tracks)
	return s
}

// Len returns the number of tracks.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tracks)
}

// Tracks returns a copy of the tracks in order.
func (s *Set) Tracks() []Track {
	if s == nil {
		return nil
	}
	out := make([]Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// Get returns the track with the given code.
func (s *Set) Get(code string) (Track, bool) {
	if s == nil {
		return Track{}, false
	}
	for _, t := range s.tracks {
		if t.Code == code {
			return t, true
		}
	}
	return Track{}, false
}

// SetEnabled toggles the matching track only. It reports whether a track
// matched; an unknown code changes nothing.
func (s *Set) SetEnabled(code string, enabled bool) bool {
	if s == nil {
		return false
	}
	for i := range s.tracks {
		if s.tracks[i].Code == code {
			s.tracks[i].Enabled = enabled
			return true
		}
	}
	return false
}

// SeekTarget returns the start time of entry id in track code. The track's
// enabled flag is neither checked nor changed.
func (s *Set) SeekTarget(code, id string) (float64, error) {
	t, ok := s.Get(code)
	if !ok {
		return 0, ErrUnknownTrack
	}
	for _, sub := range t.Subtitles {
		if sub.ID == id {
			return sub.Start, nil
		}
	}
	return 0, ErrUnknownEntry
}

// SubtitleCount sums the entries over all tracks.
func (s *Set) SubtitleCount() int {
	n := 0
	for _, t := range s.Tracks() {
		n += len(t.Subtitles)
	}
	return n
}
