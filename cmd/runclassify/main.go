package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/incubatech/proposal-screener/internal/classify"
	"github.com/incubatech/proposal-screener/internal/common"
	"github.com/incubatech/proposal-screener/internal/extract"
	"github.com/incubatech/proposal-screener/internal/fetch"
	processor "github.com/incubatech/proposal-screener/internal/pipeline"
	"github.com/incubatech/proposal-screener/internal/segment"
)

// Logs go to stderr so stdout carries nothing but the verdict JSON.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "runclassify <proposal.pdf | https://...>")
		os.Exit(2)
	}
	arg := os.Args[1]

	cfg := common.LoadConfig()
	if cfg.Model.Path == "" && cfg.Model.Endpoint == "" {
		logger.Error("MODEL_PATH or MODEL_ENDPOINT env var is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	patterns := segment.DefaultPatterns()
	if cfg.Segment.PatternsPath != "" {
		loaded, err := segment.LoadPatterns(cfg.Segment.PatternsPath)
		if err != nil {
			logger.Error("failed to load section patterns", "path", cfg.Segment.PatternsPath, "error", err)
			os.Exit(1)
		}
		patterns = loaded
	}

	pipe := processor.NewProcessor(
		fetch.NewFetcher(fetch.Config{Timeout: cfg.Fetch.Timeout, MaxBytes: cfg.Fetch.MaxBytes}, logger),
		extract.NewExtractor(extract.Config{MinChars: cfg.Extract.MinChars}, logger),
		segment.NewSegmenter(segment.Config{MinSectionChars: cfg.Segment.MinSectionChars, Patterns: patterns}, logger),
		classify.NewService(classify.Config{
			ModelPath: cfg.Model.Path,
			Endpoint:  cfg.Model.Endpoint,
			MaxTokens: cfg.Model.MaxTokens,
			UseCPU:    cfg.Model.UseCPU,
			Timeout:   cfg.Model.Timeout,
		}, logger),
		logger,
	)

	start := time.Now()
	var (
		verdict *processor.Verdict
		err     error
	)
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		verdict, err = pipe.ClassifyURL(ctx, arg)
	} else {
		data, rerr := os.ReadFile(arg)
		if rerr != nil {
			logger.Error("failed to read file", "path", arg, "error", rerr)
			os.Exit(1)
		}
		verdict, err = pipe.ClassifyDocument(ctx, filepath.Base(arg), data)
	}
	dur := time.Since(start)

	if err != nil {
		logger.Error("classification failed", "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("classification OK",
		"prediction", verdict.Prediction,
		"confidence", verdict.Confidence,
		"extraction_path", verdict.ExtractionPath,
		"text_length", verdict.ProposalTextLength,
		"duration_ms", dur.Milliseconds(),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(verdict); err != nil {
		logger.Error("failed to encode verdict", "error", err)
		os.Exit(1)
	}
}
