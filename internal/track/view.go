package track

import "github.com/idozri/vidto-listen/internal/timeline"

// EntryStatus marks a listed entry relative to the playback time.
type EntryStatus string

const (
	StatusNone   EntryStatus = ""
	StatusActive EntryStatus = "active"
	StatusPast   EntryStatus = "past"
)

// EntryView is one row of a rendered timeline.
type EntryView struct {
	ID     string      `json:"id"`
	Text   string      `json:"text"`
	Start  float64     `json:"start"`
	End    float64     `json:"end"`
	Range  string      `json:"range"`
	Status EntryStatus `json:"status"`
}

// View is a track rendered at a given time.
type View struct {
	Code    string      `json:"language_code"`
	Name    string      `json:"language"`
	Flag    string      `json:"flag"`
	Enabled bool        `json:"enabled"`
	Current string      `json:"current,omitempty"`
	Matched bool        `json:"matched"`
	Clock   string      `json:"clock,omitempty"`
	Entries []EntryView `json:"entries,omitempty"`
	Total   int         `json:"total"`
}

// Render presents t at time now. A disabled track renders only its header.
func Render(t Track, now float64) View {
	v := View{
		Code:    t.Code,
		Name:    t.Name,
		Flag:    t.Flag,
		Enabled: t.Enabled,
		Total:   len(t.Subtitles),
	}
	if !t.Enabled {
		return v
	}

	active, ok := timeline.Active(t.Subtitles, now)
	v.Matched = ok
	v.Current = timeline.Placeholder
	if ok {
		v.Current = active.Text
	}
	v.Clock = timeline.FormatClock(now)

	visible := t.Subtitles
	if len(visible) > VisibleLimit {
		visible = visible[:VisibleLimit]
	}
	v.Entries = make([]EntryView, 0, len(visible))
	for _, s := range visible {
		v.Entries = append(v.Entries, EntryView{
			ID:     s.ID,
			Text:   s.Text,
			Start:  s.Start,
			End:    s.End,
			Range:  timeline.FormatRange(s),
			Status: status(s, now),
		})
	}
	return v
}

// RenderAll renders every track in the set at time now.
func (s *Set) RenderAll(now float64) []View {
	tracks := s.Tracks()
	views := make([]View, 0, len(tracks))
	for _, t := range tracks {
		views = append(views, Render(t, now))
	}
	return views
}

// status marks each listed entry independently, so with overlapping
// entries more than one row can be active even though Current shows only
// the first match.
func status(s timeline.Subtitle, now float64) EntryStatus {
	switch {
	case s.Covers(now):
		return StatusActive
	case s.Elapsed(now):
		return StatusPast
	default:
		return StatusNone
	}
}
