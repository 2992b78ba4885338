package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/idozri/vidto-listen/internal/db/models"
	"github.com/idozri/vidto-listen/internal/timeline"
)

type Database struct {
	db *sql.DB
}

func NewSQLite(path string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	d := &Database{db: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		file_path TEXT NOT NULL,
		params TEXT NOT NULL,
		progress REAL DEFAULT 0,
		result TEXT,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		started_at DATETIME,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		duration REAL NOT NULL DEFAULT 0,
		subtitle_count INTEGER NOT NULL DEFAULT 0,
		languages TEXT NOT NULL DEFAULT '[]',
		thumbnail TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

// GetSetting returns a setting value by key, or defaultVal if not found
func (d *Database) GetSetting(key, defaultVal string) string {
	var val string
	err := d.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if err != nil {
		return defaultVal
	}
	return val
}

// SetSetting upserts a setting
func (d *Database) SetSetting(key, value string) error {
	_, err := d.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP`,
		key, value, value,
	)
	return err
}

// GetAllSettings returns all settings as a map
func (d *Database) GetAllSettings() (map[string]string, error) {
	rows, err := d.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, rows.Err()
}

// CreateProject records a finished session on the dashboard.
func (d *Database) CreateProject(p *models.Project) error {
	langs, err := json.Marshal(p.Languages)
	if err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err = d.db.Exec(
		`INSERT INTO projects (id, title, duration, subtitle_count, languages, thumbnail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Duration, p.SubtitleCount, string(langs), p.Thumbnail, p.CreatedAt,
	)
	return err
}

// SetProjectThumbnail attaches a generated thumbnail path to a project.
func (d *Database) SetProjectThumbnail(id, path string) error {
	_, err := d.db.Exec("UPDATE projects SET thumbnail = ? WHERE id = ?", path, id)
	return err
}

// ListProjects returns projects newest first.
func (d *Database) ListProjects() ([]models.Project, error) {
	rows, err := d.db.Query(
		"SELECT id, title, duration, subtitle_count, languages, thumbnail, created_at FROM projects ORDER BY created_at DESC, id ASC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// GetProject returns a single project, or sql.ErrNoRows.
func (d *Database) GetProject(id string) (*models.Project, error) {
	row := d.db.QueryRow(
		"SELECT id, title, duration, subtitle_count, languages, thumbnail, created_at FROM projects WHERE id = ?", id,
	)
	return scanProject(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*models.Project, error) {
	var p models.Project
	var langs string
	if err := s.Scan(&p.ID, &p.Title, &p.Duration, &p.SubtitleCount, &langs, &p.Thumbnail, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(langs), &p.Languages); err != nil {
		return nil, fmt.Errorf("project %s languages: %w", p.ID, err)
	}
	p.DurationLabel = timeline.FormatClock(p.Duration)
	p.HasThumbnail = p.Thumbnail != ""
	return &p, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// DB returns the underlying sql.DB for use by other packages (e.g., job queue)
func (d *Database) DB() *sql.DB {
	return d.db
}
