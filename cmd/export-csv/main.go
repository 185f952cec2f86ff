package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"mangacover/internal/logging"
	"mangacover/internal/manga"
	"mangacover/pkg/database"
	"mangacover/pkg/models"
	"mangacover/pkg/utils"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("MANGACOVER_CONFIG"), "path to a TOML config file")
		mangaOut   = flag.String("manga", "data/manga.csv", "output CSV path for manga")
	)
	flag.Parse()

	cfg, err := utils.LoadAppConfig(*configPath)
	if err != nil {
		logging.Apply("info", "")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Apply(cfg.LogLevel, cfg.LogFile)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.Config{Path: cfg.DatabaseURL})
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	items, err := manga.NewRepo(db).ListAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list manga failed")
	}
	if err := exportFile(*mangaOut, items); err != nil {
		log.Fatal().Err(err).Str("path", *mangaOut).Msg("export manga failed")
	}

	log.Info().Int("rows", len(items)).Str("path", *mangaOut).Msg("exported manga")
}

func exportFile(outPath string, items []models.MangaRecord) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return writeManga(f, items)
}

func writeManga(out io.Writer, items []models.MangaRecord) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"id", "provider_id", "title", "status", "cover_url", "created_at", "updated_at"}); err != nil {
		return err
	}

	for _, m := range items {
		cover := ""
		if m.CoverURL != nil {
			cover = *m.CoverURL
		}
		if err := w.Write([]string{
			strconv.FormatInt(m.ID, 10),
			m.ProviderID,
			m.Title,
			m.Status,
			cover,
			m.CreatedAt.UTC().Format(time.RFC3339),
			m.UpdatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
