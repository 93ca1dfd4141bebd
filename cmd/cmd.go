package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"face-morph-bot/internal/artifacts"
	"face-morph-bot/internal/bot"
	"face-morph-bot/internal/config"
	"face-morph-bot/internal/gateway"
	"face-morph-bot/internal/handlers"
	"face-morph-bot/internal/middleware"
	"face-morph-bot/internal/repository"
	"face-morph-bot/internal/services"
	"face-morph-bot/internal/store"
	"face-morph-bot/internal/transform"
)

// Execute runs the CLI.
func Execute() {
	root := &cobra.Command{
		Use:   "face-morph-bot",
		Short: "Chat bot for GAN face transforms with group voting",
	}
	root.PersistentFlags().String("config", "config.yaml", "Config file path")

	root.AddCommand(newRunCmd())
	root.AddCommand(newResetCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot and the operator API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			return run(cfgPath)
		},
	}
}

func newResetCmd() *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear cache and/or data documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			return reset(cfgPath, scope)
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "all", "What to clear: cache, data or all")
	return cmd
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	setupLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	docs, closeDocs, err := openDocuments(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDocs()

	staging, err := openArtifacts(ctx, cfg)
	if err != nil {
		return err
	}

	tg, err := gateway.NewTelegram(cfg.Telegram.Token, seconds(cfg.Telegram.RequestTimeout))
	if err != nil {
		return err
	}
	log.Info().Str("bot", tg.Username()).Msg("Bot authorized")

	// Repositories
	photoIndex := repository.NewPhotoIndexRepository(docs)
	results := repository.NewResultRepository(docs)
	polls := repository.NewPollRepository(docs)

	// Services
	transformClient := transform.NewClient(cfg.Transform.Endpoint, seconds(cfg.Transform.TimeoutSeconds))
	pollSync := services.NewPollSyncService(polls, tg)
	hub := services.NewFeedHub()
	votes := services.NewVoteService(polls, pollSync, hub)
	coordinator := services.NewCoordinator(
		photoIndex, results, polls, staging,
		tg, transformClient, pollSync,
		cfg.Telegram.GroupChatID, seconds(cfg.Transform.TimeoutSeconds),
	)
	share := services.NewShareService(results, polls, pollSync, tg)
	reset := services.NewResetService(docs, staging)

	// Operator API
	adminHandler := handlers.NewAdminHandler(reset)
	feedHandler := handlers.NewFeedHandler(hub, cfg.JWT.Secret)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", handlers.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
			r.Post("/admin/reset", adminHandler.Reset)
		})
	})
	r.Get("/ws", feedHandler.HandleFeed)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting operator API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Operator API failed to start")
		}
	}()

	b := bot.New(tg, photoIndex, coordinator, votes, share, bot.Options{
		PollTimeout:    seconds(cfg.Telegram.PollTimeoutSec),
		TaskTimeout:    seconds(cfg.Telegram.TaskTimeoutSec),
		MaxConcurrency: cfg.Telegram.MaxConcurrency,
		AllowedUserIDs: cfg.Telegram.AllowedUserIDs,
	})
	b.Run(ctx)

	log.Info().Msg("Shutting down operator API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Operator API forced to shutdown")
	}

	log.Info().Msg("Bot exited")
	return nil
}

func reset(cfgPath, scopeStr string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	setupLogger(cfg.Log.Level)

	scope, err := services.ParseResetScope(scopeStr)
	if err != nil {
		return err
	}

	ctx := context.Background()
	docs, closeDocs, err := openDocuments(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDocs()

	staging, err := openArtifacts(ctx, cfg)
	if err != nil {
		return err
	}

	return services.NewResetService(docs, staging).Reset(ctx, scope)
}

// openDocuments builds the configured document store backend.
func openDocuments(ctx context.Context, cfg *config.Config) (store.Documents, func(), error) {
	switch cfg.Storage.Backend {
	case "file":
		docs, err := store.NewFileDocuments(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return docs, func() {}, nil
	case "postgres":
		db, err := pgxpool.New(ctx, cfg.Storage.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}
		log.Info().Msg("Database connection established")

		docs, err := store.NewPostgresDocuments(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return docs, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// openArtifacts builds the configured artifact store backend.
func openArtifacts(ctx context.Context, cfg *config.Config) (artifacts.Store, error) {
	switch cfg.Artifacts.Backend {
	case "local":
		return artifacts.NewLocalStore(cfg.Artifacts.Dir)
	case "s3":
		return artifacts.NewS3Store(ctx, artifacts.S3Options{
			Region:    cfg.Artifacts.AWS.Region,
			Bucket:    cfg.Artifacts.AWS.S3Bucket,
			Prefix:    cfg.Artifacts.AWS.S3Prefix,
			AccessKey: cfg.Artifacts.AWS.AccessKey,
			SecretKey: cfg.Artifacts.AWS.SecretKey,
			Endpoint:  cfg.Artifacts.AWS.Endpoint,
		})
	}
	return nil, fmt.Errorf("unknown artifacts backend %q", cfg.Artifacts.Backend)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
