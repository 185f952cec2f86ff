package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"mangacover/internal/chat"
	"mangacover/internal/grpcserver"
	"mangacover/internal/logging"
	"mangacover/internal/manga"
	"mangacover/internal/mangadex"
	"mangacover/internal/scraper"
	"mangacover/internal/server"
	synchub "mangacover/internal/sync"
	"mangacover/internal/users"
	"mangacover/pkg/database"
	"mangacover/pkg/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv("MANGACOVER_CONFIG"), "path to a TOML config file")
	flag.Parse()

	cfg, err := utils.LoadAppConfig(*configPath)
	if err != nil {
		logging.Apply("info", "")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Apply(cfg.LogLevel, cfg.LogFile)
	gin.SetMode(gin.ReleaseMode)

	db := database.MustOpen(database.Config{Path: cfg.DatabaseURL})
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	client := mangadex.NewClient(cfg.APIBase, cfg.HTTPTimeout())
	normalizer := mangadex.NewNormalizer(cfg.UploadsBase)
	mangaRepo := manga.NewRepo(db)
	feed := synchub.NewHub()
	pipeline := scraper.NewPipeline(client, normalizer, mangaRepo, feed)

	router := server.NewRouter(server.Deps{
		Config: cfg,
		DB:     db,
		Manga:  manga.NewHandler(mangaRepo, manga.NewCoverService(client, normalizer)),
		Parser: scraper.NewHandler(pipeline),
		Users:  users.NewHandler(users.NewRepo()),
		Chat:   chat.NewHub(cfg.ChatHistorySize),
		Feed:   feed,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", httpSrv.Addr).Str("api_base", cfg.APIBase).Msg("HTTP API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("grpc listen failed")
		}
		health := grpcserver.NewServer(db)
		g.Go(func() error {
			return health.Serve(gctx, lis)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
		_ = db.Close()
		os.Exit(1)
	}
	log.Info().Msg("servers stopped")
}
