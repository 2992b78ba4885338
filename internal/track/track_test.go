package track

import (
	"errors"
	"fmt"
	"testing"

	"github.com/idozri/vidto-listen/internal/timeline"
)

func subs(n int) []timeline.Subtitle {
	out := make([]timeline.Subtitle, n)
	for i := range out {
		out[i] = timeline.Subtitle{
			ID:    fmt.Sprint(i + 1),
			Start: float64(i * 2),
			End:   float64(i*2 + 2),
			Text:  fmt.Sprintf("line %d", i+1),
		}
	}
	return out
}

func TestNewUsesCatalog(t *testing.T) {
	tr := New("pt", subs(1))
	if tr.Name != "Portuguese" || tr.Flag != "🇧🇷" || !tr.Enabled {
		t.Errorf("New(pt) = %+v", tr)
	}
	unknown := New("xx", nil)
	if unknown.Name != "xx" || unknown.Flag != "" {
		t.Errorf("New(xx) = %+v", unknown)
	}
}

func TestSetEnabledOnlyTouchesMatchingTrack(t *testing.T) {
	set := NewSet([]Track{New("pt", subs(5)), New("en", subs(5))})

	if !set.SetEnabled("en", false) {
		t.Fatal("SetEnabled(en) reported no match")
	}
	en, _ := set.Get("en")
	pt, _ := set.Get("pt")
	if en.Enabled {
		t.Error("en still enabled")
	}
	if !pt.Enabled {
		t.Error("pt was changed by toggling en")
	}

	if set.SetEnabled("fr", false) {
		t.Error("SetEnabled(fr) matched a missing track")
	}
	for _, tr := range set.Tracks() {
		if tr.Code == "pt" && !tr.Enabled {
			t.Error("unknown code changed pt")
		}
	}
}

func TestNewSetCopiesInput(t *testing.T) {
	in := []Track{New("pt", nil)}
	set := NewSet(in)
	in[0].Enabled = false
	if tr, _ := set.Get("pt"); !tr.Enabled {
		t.Error("set shares storage with its input")
	}
}

func TestSeekTarget(t *testing.T) {
	set := NewSet([]Track{New("pt", subs(8))})
	set.SetEnabled("pt", false)

	got, err := set.SeekTarget("pt", "7")
	if err != nil {
		t.Fatalf("SeekTarget: %v", err)
	}
	if got != 12 {
		t.Errorf("SeekTarget(pt, 7) = %v, want 12", got)
	}
	if tr, _ := set.Get("pt"); tr.Enabled {
		t.Error("SeekTarget enabled a disabled track")
	}

	if _, err := set.SeekTarget("xx", "1"); !errors.Is(err, ErrUnknownTrack) {
		t.Errorf("unknown track err = %v", err)
	}
	if _, err := set.SeekTarget("pt", "99"); !errors.Is(err, ErrUnknownEntry) {
		t.Errorf("unknown entry err = %v", err)
	}
}

func TestNilSet(t *testing.T) {
	var set *Set
	if set.Len() != 0 || set.Tracks() != nil || set.SetEnabled("pt", true) {
		t.Error("nil set should behave as empty")
	}
	if _, ok := set.Get("pt"); ok {
		t.Error("nil set Get matched")
	}
}

func TestSubtitleCount(t *testing.T) {
	set := NewSet([]Track{New("pt", subs(5)), New("en", subs(3))})
	if got := set.SubtitleCount(); got != 8 {
		t.Errorf("SubtitleCount = %d, want 8", got)
	}
}
