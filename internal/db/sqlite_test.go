package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/idozri/vidto-listen/internal/db/models"
	"github.com/idozri/vidto-listen/internal/settings"
)

var _ settings.Store = (*Database)(nil)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestSettings(t *testing.T) {
	d := openTestDB(t)

	if got := d.GetSetting(settings.KeyLastUsedLanguage, "auto"); got != "auto" {
		t.Errorf("unset setting = %q, want default", got)
	}
	if err := d.SetSetting(settings.KeyLastUsedLanguage, "pt"); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSetting(settings.KeyLastUsedLanguage, "fr"); err != nil {
		t.Fatal(err)
	}
	if got := d.GetSetting(settings.KeyLastUsedLanguage, "auto"); got != "fr" {
		t.Errorf("setting = %q, want fr", got)
	}
	all, err := d.GetAllSettings()
	if err != nil || len(all) != 1 {
		t.Errorf("GetAllSettings = %v, %v", all, err)
	}
}

func TestProjects(t *testing.T) {
	d := openTestDB(t)

	older := &models.Project{
		ID: "a", Title: "first.mp4", Duration: 125, SubtitleCount: 10,
		Languages: []string{"pt", "en"}, CreatedAt: time.Now().Add(-time.Hour).UTC(),
	}
	newer := &models.Project{ID: "b", Title: "second.mp3", Languages: []string{"en"}}
	for _, p := range []*models.Project{older, newer} {
		if err := d.CreateProject(p); err != nil {
			t.Fatalf("CreateProject(%s): %v", p.ID, err)
		}
	}

	list, err := d.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Fatalf("ListProjects order = %+v", list)
	}
	if list[1].DurationLabel != "02:05" || len(list[1].Languages) != 2 {
		t.Errorf("project a = %+v", list[1])
	}

	if err := d.SetProjectThumbnail("a", "/tmp/a.jpg"); err != nil {
		t.Fatal(err)
	}
	p, err := d.GetProject("a")
	if err != nil || !p.HasThumbnail || p.Thumbnail != "/tmp/a.jpg" {
		t.Errorf("GetProject = %+v, %v", p, err)
	}

	if _, err := d.GetProject("missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetProject(missing) err = %v", err)
	}
}
