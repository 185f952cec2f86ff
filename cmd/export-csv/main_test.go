package main

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"mangacover/pkg/models"
)

func TestWriteManga(t *testing.T) {
	cover := "https://uploads.mangadex.org/covers/abc/x.jpg"
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	items := []models.MangaRecord{
		{ID: 1, ProviderID: "abc", Title: "Frieren, Beyond", Status: "ongoing", CoverURL: &cover, CreatedAt: at, UpdatedAt: at},
		{ID: 2, ProviderID: "def", Title: "No Cover", Status: "completed", CreatedAt: at, UpdatedAt: at},
	}

	var buf bytes.Buffer
	if err := writeManga(&buf, items); err != nil {
		t.Fatalf("writeManga: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[1][2] != "Frieren, Beyond" || rows[1][4] != cover || rows[1][5] != "2024-05-01T12:00:00Z" {
		t.Fatalf("row 1 = %v", rows[1])
	}
	if rows[2][4] != "" {
		t.Fatalf("missing cover should be empty: %v", rows[2])
	}
}
