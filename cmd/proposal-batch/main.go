package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"

	"github.com/incubatech/proposal-screener/internal/async"
	"github.com/incubatech/proposal-screener/internal/classify"
	"github.com/incubatech/proposal-screener/internal/common"
	"github.com/incubatech/proposal-screener/internal/export"
	"github.com/incubatech/proposal-screener/internal/extract"
	"github.com/incubatech/proposal-screener/internal/ingest"
	processor "github.com/incubatech/proposal-screener/internal/pipeline"
	"github.com/incubatech/proposal-screener/internal/repository"
	"github.com/incubatech/proposal-screener/internal/segment"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// fileClassifier adapts the screening pipeline to the worker queue: read the
// PDF, classify it, write the outcome to the history ledger. Every job leaves
// a history row, failed ones carry the error so the next run retries them.
type fileClassifier struct {
	pipeline *processor.Processor
	history  *repository.HistoryStore
	logger   *slog.Logger

	processed atomic.Int64
	failed    atomic.Int64
}

func (c *fileClassifier) ProcessFile(ctx context.Context, job async.Job) error {
	data, err := os.ReadFile(job.Path)
	if err != nil {
		err = fmt.Errorf("read file: %w", err)
		c.record(ctx, job, nil, err)
		return err
	}

	verdict, err := c.pipeline.ClassifyDocument(ctx, filepath.Base(job.Path), data)
	c.record(ctx, job, verdict, err)
	return err
}

func (c *fileClassifier) record(ctx context.Context, job async.Job, verdict *processor.Verdict, err error) {
	rec := repository.HistoryRecord{
		FilePath: job.Path,
		SHA256:   job.SHA256,
	}
	if err != nil {
		c.failed.Add(1)
		rec.Error = err.Error()
	} else {
		c.processed.Add(1)
		rec.Prediction = verdict.Prediction
		rec.Confidence = verdict.Confidence
		rec.Label = verdict.Label
		rec.Message = verdict.Message
		rec.ExtractionPath = verdict.ExtractionPath
		rec.TextLength = verdict.ProposalTextLength
	}
	if rerr := c.history.Record(ctx, rec); rerr != nil {
		c.logger.Error("failed to record history", "path", job.Path, "error", rerr)
	}
}

func main() {
	var (
		inmem   = flag.Bool("inmem", false, "use an in-memory history database")
		dir     = flag.String("dir", "", "directory to screen proposals from (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		history = flag.String("history", "", "history database path (optional, defaults to parent directory)")
		workers = flag.Int("workers", 4, "number of concurrent classification workers")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	parentDir := filepath.Dir(*dir)
	if *out == "" {
		*out = filepath.Join(parentDir, "classifications.xlsx")
	}
	historyPath := *history
	if *inmem {
		historyPath = ":memory:"
	} else if historyPath == "" {
		historyPath = filepath.Join(parentDir, "screener-history.db")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := common.LoadConfig()
	if cfg.Model.Path == "" && cfg.Model.Endpoint == "" {
		logger.Error("MODEL_PATH or MODEL_ENDPOINT env var is required")
		os.Exit(1)
	}

	store, err := repository.NewHistoryStore(historyPath, logger)
	if err != nil {
		logger.Error("failed to open history database", "path", historyPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close history database", "error", cerr)
		}
	}()

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

	// No fetcher: the batch path only ever classifies local files.
	pipe := processor.NewProcessor(
		nil,
		extract.NewExtractor(extract.Config{MinChars: cfg.Extract.MinChars}, logger),
		segment.NewSegmenter(segment.Config{MinSectionChars: cfg.Segment.MinSectionChars, Patterns: patterns}, logger),
		model,
		logger,
	)

	logger.Info("starting scan", "dir", *dir)
	files, stats, err := ingest.ScanDirectory(ctx, *dir, true, logger)
	if err != nil {
		logger.Error("failed to scan directory", "error", err)
		os.Exit(1)
	}
	logger.Info("scan finished",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	classifier := &fileClassifier{pipeline: pipe, history: store, logger: logger}
	queue := async.NewProcessorQueue(classifier, logger, async.WithWorkers(*workers))

	skipped := 0
	enqueued := 0
	for _, f := range files {
		seen, err := store.Seen(ctx, f.SHA256)
		if err != nil {
			logger.Warn("history lookup failed, classifying anyway", "path", f.Path, "error", err)
		}
		if seen {
			skipped++
			logger.Info("already classified, skipping", "path", f.Path)
			continue
		}
		if err := queue.Enqueue(ctx, async.Job{Path: f.Path, SHA256: f.SHA256}); err != nil {
			logger.Error("failed to enqueue file", "path", f.Path, "error", err)
		} else {
			enqueued++
		}
	}

	// Drain the queue before exporting so every verdict is in the ledger.
	queue.Shutdown(ctx)

	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := export.NewService(store, logger).ExportHistoryXLSX(ctx)
	if err != nil {
		logger.Error("failed to export classifications", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	processed := classifier.processed.Load()
	failures := classifier.failed.Load()
	logger.Info("batch screening complete",
		"files_enqueued", enqueued,
		"files_classified", processed,
		"skipped", skipped,
		"failures", failures,
		"output_file", *out)

	fmt.Printf("Batch screening complete!\n")
	fmt.Printf("- Files scanned: %d\n", stats.Scanned)
	fmt.Printf("- Files classified: %d\n", processed)
	fmt.Printf("- Skipped (already classified): %d\n", skipped)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
}
