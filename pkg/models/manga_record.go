package models

import "time"

// MangaRecord is a stored row of the manga table.
type MangaRecord struct {
	ID         int64     `json:"id"`
	ProviderID string    `json:"providerId"`
	Title      string    `json:"title"`
	CoverURL   *string   `json:"coverUrl"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SaveResult is a MangaRecord annotated with how the upsert resolved.
type SaveResult struct {
	MangaRecord
	Created bool `json:"created,omitempty"`
	Updated bool `json:"updated,omitempty"`
}
