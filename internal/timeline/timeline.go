// Package timeline matches playback time against timed subtitle entries and
// formats times for display.
package timeline

import (
	"fmt"
	"math"
)

// Placeholder is shown when no subtitle covers the current time.
const Placeholder = "No subtitles at current time"

// Subtitle is a single timed text entry. Start and End are in seconds and
// both bounds are inclusive.
type Subtitle struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Covers reports whether t falls within [Start, End].
func (s Subtitle) Covers(t float64) bool {
	return t >= s.Start && t <= s.End
}

// Elapsed reports whether the entry ended strictly before t.
func (s Subtitle) Elapsed(t float64) bool {
	return t > s.End
}

// Active returns the first entry, in slice order, that covers t. Overlapping
// or unsorted input is resolved by position, not by start time, so two
// adjacent entries sharing a boundary resolve to the earlier one.
func Active(subs []Subtitle, t float64) (Subtitle, bool) {
	for _, s := range subs {
		if s.Covers(t) {
			return s, true
		}
	}
	return Subtitle{}, false
}

// CurrentText returns the text of the active entry or Placeholder.
func CurrentText(subs []Subtitle, t float64) string {
	if s, ok := Active(subs, t); ok {
		return s.Text
	}
	return Placeholder
}

// FormatClock renders seconds as zero-padded mm:ss. Both fields are floored
// and there is no hours field, so 3725s renders as "62:05".
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	minutes := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatRange renders "mm:ss - mm:ss" for a subtitle entry.
func FormatRange(s Subtitle) string {
	return FormatClock(s.Start) + " - " + FormatClock(s.End)
}
