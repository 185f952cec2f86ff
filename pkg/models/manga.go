package models

// NormalizedManga is the internal form of a provider record. Every upstream
// record is mapped into this structure first, then written to the DB from it.
type NormalizedManga struct {
	ProviderID string  `json:"providerId"`
	Title      string  `json:"title"`
	Status     string  `json:"status"`
	CoverURL   *string `json:"coverUrl"` // nil when the provider has no cover file
}
