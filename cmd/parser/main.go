package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"mangacover/internal/logging"
	"mangacover/internal/manga"
	"mangacover/internal/mangadex"
	"mangacover/internal/scraper"
	"mangacover/pkg/database"
	"mangacover/pkg/utils"
)

type app struct {
	configPath string
	pipeline   *scraper.Pipeline
	close      func()
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:           "parser",
		Short:         "Fetch manga from MangaDex and store them locally",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.close != nil {
				a.close()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("MANGACOVER_CONFIG"), "path to a TOML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "random",
			Short: "Fetch and save one random manga",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := a.pipeline.FetchAndSaveRandom(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(res)
			},
		},
		&cobra.Command{
			Use:   "manga <id>",
			Short: "Fetch and save a manga by provider id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := a.pipeline.FetchAndSaveByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(res)
			},
		},
		popularCmd(a),
		&cobra.Command{
			Use:   "list",
			Short: "List stored manga",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				items, err := a.pipeline.ListAll(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(items)
			},
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(1)
	}
}

func popularCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "popular",
		Short: "Fetch and save the most followed manga",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.pipeline.FetchAndSavePopular(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", scraper.DefaultPopularLimit, "number of titles to fetch")
	return cmd
}

func (a *app) init() error {
	cfg, err := utils.LoadAppConfig(a.configPath)
	if err != nil {
		return err
	}
	logging.Apply(cfg.LogLevel, cfg.LogFile)

	db, err := database.Open(database.Config{Path: cfg.DatabaseURL})
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return fmt.Errorf("db migrate: %w", err)
	}
	a.close = func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("close db")
		}
	}

	a.pipeline = scraper.NewPipeline(
		mangadex.NewClient(cfg.APIBase, cfg.HTTPTimeout()),
		mangadex.NewNormalizer(cfg.UploadsBase),
		manga.NewRepo(db),
		nil,
	)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
