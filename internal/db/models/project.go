package models

import "time"

// Project is a dashboard entry written once a session's tracks are ready.
type Project struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Duration      float64   `json:"duration_seconds"`
	DurationLabel string    `json:"duration"`
	SubtitleCount int       `json:"subtitle_count"`
	Languages     []string  `json:"languages"`
	Thumbnail     string    `json:"-"`
	HasThumbnail  bool      `json:"has_thumbnail"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
