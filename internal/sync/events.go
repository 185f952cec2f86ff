package sync

import "time"

const (
	EventMangaCreated = "manga.created"
	EventMangaUpdated = "manga.updated"
)

type MangaEvent struct {
	Type       string    `json:"type"` // "manga.created" or "manga.updated"
	ProviderID string    `json:"provider_id"`
	Title      string    `json:"title"`
	At         time.Time `json:"at"`
}
