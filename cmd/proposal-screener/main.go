package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/incubatech/proposal-screener/internal/classify"
	"github.com/incubatech/proposal-screener/internal/common"
	"github.com/incubatech/proposal-screener/internal/extract"
	"github.com/incubatech/proposal-screener/internal/fetch"
	processor "github.com/incubatech/proposal-screener/internal/pipeline"
	"github.com/incubatech/proposal-screener/internal/repository"
	"github.com/incubatech/proposal-screener/internal/segment"
	"github.com/incubatech/proposal-screener/internal/server"
)

func main() {
	// Structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The database is optional: without it the tenant routes and the job
	// audit trail are off, everything else serves normally.
	var (
		tenants repository.TenantRepository
		jobs    repository.JobRepository
		db      server.Pinger
	)
	if cfg.Database.DSN != "" {
		pool, err := repository.Open(ctx, repository.Config{
			DSN:              cfg.Database.DSN,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer repository.Close(pool, logger)

		if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}

		tenants = repository.NewTenantRepository(pool, logger)
		jobs = repository.NewJobRepository(pool, logger)
		db = pool
	} else {
		logger.Warn("DB_URL not set, tenant registry and job audit disabled")
	}

	patterns := segment.DefaultPatterns()
	if cfg.Segment.PatternsPath != "" {
		loaded, err := segment.LoadPatterns(cfg.Segment.PatternsPath)
		if err != nil {
			logger.Error("failed to load section patterns", "path", cfg.Segment.PatternsPath, "error", err)
			os.Exit(1)
		}
		patterns = loaded
	}

	model := classify.NewService(classify.Config{
		ModelPath: cfg.Model.Path,
		Endpoint:  cfg.Model.Endpoint,
		MaxTokens: cfg.Model.MaxTokens,
		UseCPU:    cfg.Model.UseCPU,
		Timeout:   cfg.Model.Timeout,
	}, logger)

	pipe := processor.NewProcessor(
		fetch.NewFetcher(fetch.Config{Timeout: cfg.Fetch.Timeout, MaxBytes: cfg.Fetch.MaxBytes}, logger),
		extract.NewExtractor(extract.Config{MinChars: cfg.Extract.MinChars}, logger),
		segment.NewSegmenter(segment.Config{MinSectionChars: cfg.Segment.MinSectionChars, Patterns: patterns}, logger),
		model,
		logger,
	)
	pipe.Tenants = tenants
	pipe.Jobs = jobs

	srv := server.New(server.Config{RequestTimeout: cfg.Server.RequestTimeout}, pipe, model, tenants, jobs, db, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("proposal-screener listening", "addr", cfg.Server.HTTPAddr)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
}
