package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quill/internal/api"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/github"
	"quill/internal/ingest"
	"quill/internal/logging"
	"quill/internal/middleware"
	"quill/internal/migrations"
	"quill/internal/repository/postgres"
	"quill/internal/service"
	"quill/internal/storage"
	"quill/internal/storage/local"
	"quill/internal/storage/s3"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
	logger.Info().Msg("服务已停止")
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		return err
	}

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}

	coordinator, err := newCoordinator(cfg, backend, postgres.NewFileRepository(db), logger)
	if err != nil {
		return err
	}

	ingest.NewSweeper(cfg.TempDir(), cfg.TempSweepTTL, logger).RunPeriodic(ctx, cfg.TempSweepInterval)

	handlers, err := newHandlers(cfg, db, backend, coordinator, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		ReadHeaderTimeout: 10 * time.Second,
		// 大批量上传需要较长的读取时间
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
		Handler:      api.NewRouter(cfg, handlers),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("storage", cfg.StorageDriver).
			Str("auth", authLabel(cfg)).
			Msg("服务开始监听")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("优雅关闭失败")
	}
	return nil
}

func newBackend(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	switch cfg.StorageDriver {
	case "s3":
		return s3.New(ctx, s3.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Prefix:    cfg.S3Prefix,
			UseSSL:    cfg.S3UseSSL,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return local.New(cfg.StorageDir)
	}
}

func newCoordinator(cfg *config.Config, backend storage.Backend, files *postgres.FileRepository, logger zerolog.Logger) (*ingest.Coordinator, error) {
	alg, err := ingest.ParseHashAlgorithm(cfg.IngestHash)
	if err != nil {
		return nil, err
	}
	mode, err := ingest.ParseBatchMode(cfg.IngestBatchMode)
	if err != nil {
		return nil, err
	}

	writer, err := ingest.NewStreamWriter(cfg.TempDir(), alg, ingest.NewTypePolicy(cfg.IngestAllowedTypes))
	if err != nil {
		return nil, err
	}

	return ingest.NewCoordinator(
		writer,
		ingest.NewResolver(backend, logger),
		service.NewRecordSink(files),
		ingest.Options{MaxConcurrency: cfg.IngestConcurrency, Mode: mode},
		logger,
	), nil
}

func newHandlers(cfg *config.Config, db *sql.DB, backend storage.Backend, coordinator *ingest.Coordinator, logger zerolog.Logger) (api.Handlers, error) {
	fileRepo := postgres.NewFileRepository(db)
	articleRepo := postgres.NewArticleRepository(db)
	essayRepo := postgres.NewEssayRepository(db)
	tokens := service.NewTokenService(postgres.NewTokenRepository(db))

	// 接口变量只在配置了 GitHub 时赋值，保持 nil 接口语义
	var (
		issues service.IssueTracker
		ghAPI  api.GitHubClient
	)
	if cfg.GitHubEnabled() {
		client, err := github.NewClient(github.Config{
			BaseURL: cfg.GitHubAPIURL,
			Token:   cfg.GitHubToken,
			Owner:   cfg.GitHubOwner,
			Repo:    cfg.GitHubRepo,
			Logger:  logger,
		})
		if err != nil {
			return api.Handlers{}, err
		}
		issues, ghAPI = client, client
	} else {
		logger.Info().Msg("GitHub 未配置，文章不会同步到 issue")
	}

	var auth func(http.Handler) http.Handler
	if cfg.AuthEnabled {
		switch cfg.AuthMode {
		case "jwt":
			mw, err := middleware.JWTAuth(middleware.JWTConfig{Secret: cfg.JWTSecret, JWKSURL: cfg.JWKSURL}, logger)
			if err != nil {
				return api.Handlers{}, err
			}
			auth = mw
		default:
			auth = middleware.BearerAuth(tokens, logger)
		}
	} else {
		logger.Warn().Msg("鉴权已关闭，写接口对所有人开放")
	}

	return api.Handlers{
		Files: api.NewFileHandler(service.NewFileService(fileRepo, coordinator), cfg.MaxUploadBytes, logger),
		Content: api.NewContentHandler(
			service.NewArticleService(articleRepo, issues, logger),
			service.NewEssayService(essayRepo),
			service.NewPhotoService(postgres.NewPhotoRepository(db), fileRepo),
			service.NewTimelineService(articleRepo, essayRepo),
		),
		Tokens: api.NewTokenHandler(tokens),
		GitHub: api.NewGitHubHandler(ghAPI),
		Static: api.NewStaticHandler(backend),
		Auth:   auth,
		Health: func(ctx context.Context) error { return database.Ping(ctx, db) },
		Logger: logger,
	}, nil
}

func authLabel(cfg *config.Config) string {
	if !cfg.AuthEnabled {
		return "disabled"
	}
	return cfg.AuthMode
}
