package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// engine is one extraction strategy. Engines are tried in order; an engine
// fails by erroring or by producing less text than the configured minimum.
type engine interface {
	Name() string
	// ExtractPages returns per-page text plus page-level warnings.
	ExtractPages(data []byte) ([]string, []string, error)
}

// Config controls extraction policy.
type Config struct {
	// MinChars is the minimum total character count an engine must yield.
	// An absolute count, not a percentage: cover-sheet-only documents fall
	// under it, legitimately short proposals do not.
	MinChars int
}

// Extractor runs an ordered list of engines over a PDF byte stream.
type Extractor struct {
	engines  []engine
	minChars int
	logger   *slog.Logger
}

// NewExtractor builds the standard two-engine extractor: direct text-layer
// reading first, content-stream decoding as fallback.
func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if cfg.MinChars <= 0 {
		cfg.MinChars = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		engines:  []engine{pdfTextEngine{}, streamEngine{}},
		minChars: cfg.MinChars,
		logger:   logger,
	}
}

// headerWindow bounds the search for the %PDF- marker. PDF readers tolerate
// junk before the header within the first 1024 bytes.
const headerWindow = 1024

// Extract runs each engine in turn and returns the first document whose text
// clears the minimum-character gate. When every engine is exhausted the error
// reason distinguishes unreadable input, empty content, and encrypted files.
func (x *Extractor) Extract(ctx context.Context, data []byte) (Document, error) {
	start := time.Now()

	window := data
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}
	if !bytes.Contains(window, []byte("%PDF-")) {
		return Document{}, &Error{Reason: ReasonInvalid, Detail: "missing %PDF header"}
	}

	var (
		lastErr      error
		sawEncrypted bool
		parsedAny    bool
		bestLen      int
	)

	for _, eng := range x.engines {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}

		engStart := time.Now()
		pages, warnings, err := eng.ExtractPages(data)
		if err != nil {
			lastErr = err
			if looksEncrypted(err) {
				sawEncrypted = true
			}
			x.logger.Warn("extract.engine.failed",
				"engine", eng.Name(),
				"error", err,
				"elapsed_ms", time.Since(engStart).Milliseconds(),
			)
			continue
		}
		parsedAny = true

		pageChars := make([]int, len(pages))
		contentLen := 0
		for i, p := range pages {
			pageChars[i] = len(p)
			contentLen += len(p)
		}
		x.logger.Debug("extract.pages",
			"engine", eng.Name(),
			"page_count", len(pages),
			"page_chars", pageChars,
		)

		if contentLen < x.minChars {
			if contentLen > bestLen {
				bestLen = contentLen
			}
			x.logger.Warn("extract.engine.short",
				"engine", eng.Name(),
				"chars", contentLen,
				"min_chars", x.minChars,
			)
			continue
		}

		doc := Document{
			PageTexts: pages,
			Text:      strings.Join(pages, "\n"),
			PageCount: len(pages),
			Method:    eng.Name(),
			Duration:  time.Since(start),
			Warnings:  warnings,
		}
		q := measureQuality(doc)
		if q.Suspicious() {
			doc.Warnings = append(doc.Warnings, "extracted text looks degraded (broken font encoding or scanned source)")
			x.logger.Warn("extract.quality.low",
				"engine", eng.Name(),
				"printable_ratio", q.PrintableRatio,
				"wordlike_ratio", q.WordlikeRatio,
				"chars_per_page", q.CharsPerPage,
			)
		}
		x.logger.Info("extract.ok",
			"engine", eng.Name(),
			"pages", doc.PageCount,
			"chars", contentLen,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return doc, nil
	}

	switch {
	case sawEncrypted:
		return Document{}, &Error{Reason: ReasonEncrypted, Err: lastErr}
	case parsedAny:
		detail := fmt.Sprintf("extracted text below minimum length (%d < %d)", bestLen, x.minChars)
		return Document{}, &Error{Reason: ReasonEmpty, Detail: detail, Err: lastErr}
	default:
		return Document{}, &Error{Reason: ReasonInvalid, Err: lastErr}
	}
}

func looksEncrypted(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "encrypt") || strings.Contains(s, "password")
}
