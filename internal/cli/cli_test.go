package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/idozri/vidto-listen/internal/catalog"
	"github.com/idozri/vidto-listen/internal/db/models"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"serve": false, "languages": false, "projects": false, "preview": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestPrintLanguages(t *testing.T) {
	var buf bytes.Buffer
	if err := printLanguages(&buf, catalog.Search("port")); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "pt") || !strings.Contains(out, "Portuguese") || !strings.Contains(out, "pt-BR") {
		t.Errorf("output = %q", out)
	}
	if n := strings.Count(out, "\n"); n != 1 {
		t.Errorf("printed %d lines, want 1", n)
	}

	buf.Reset()
	printLanguages(&buf, nil)
	if !strings.Contains(buf.String(), "No languages found") {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestPrintProjects(t *testing.T) {
	var buf bytes.Buffer
	printProjects(&buf, []models.Project{{
		Title:         "holiday.mp4",
		DurationLabel: "01:05",
		SubtitleCount: 10,
		Languages:     []string{"pt", "en"},
		CreatedAt:     time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}})
	out := buf.String()
	for _, want := range []string{"holiday.mp4", "01:05", "10 subtitles", "pt, en", "2024-05-01 09:30", "1 project"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printProjects(&buf, nil)
	if !strings.Contains(buf.String(), "Nothing processed yet") {
		t.Errorf("empty output = %q", buf.String())
	}
}
