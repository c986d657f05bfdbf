package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/incubatech/proposal-screener/internal/classify"
	"github.com/incubatech/proposal-screener/internal/common"
)

// modelprobe classifies the same text N times against the configured backend.
// Run it before rollout to catch slow or flaky model servers.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: modelprobe <text-file> [times]")
		os.Exit(2)
	}
	text, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("failed to read text file", "path", os.Args[1], "error", err)
		os.Exit(2)
	}
	times := 10
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			times = n
		}
	}

	cfg := common.LoadConfig()
	if cfg.Model.Path == "" && cfg.Model.Endpoint == "" {
		logger.Error("MODEL_PATH or MODEL_ENDPOINT env var is required")
		os.Exit(2)
	}

	model := classify.NewService(classify.Config{
		ModelPath: cfg.Model.Path,
		Endpoint:  cfg.Model.Endpoint,
		MaxTokens: cfg.Model.MaxTokens,
		UseCPU:    cfg.Model.UseCPU,
		Timeout:   cfg.Model.Timeout,
	}, logger)

	for i := 1; i <= times; i++ {
		runCtx, cancelRun := context.WithTimeout(context.Background(), 2*time.Minute)
		start := time.Now()
		logger.Info("probe.run.start", "iter", i, "text_len", len(text))

		res, err := model.Classify(runCtx, string(text))
		cancelRun()

		if err != nil {
			logger.Error("probe.run.error", "iter", i, "err", err)
		} else {
			logger.Info("probe.run.ok",
				"iter", i,
				"prediction", res.Prediction,
				"confidence", res.Confidence,
				"elapsed_ms", time.Since(start).Milliseconds())
		}

		time.Sleep(750 * time.Millisecond)
	}

	logger.Info("done", "backend", model.BackendName(), "times", times)
}
