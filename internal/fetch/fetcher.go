package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Reason distinguishes the download failure classes.
type Reason string

const (
	// ReasonNetwork covers DNS, dial, TLS, and timeout failures.
	ReasonNetwork Reason = "network"
	// ReasonStatus covers non-2xx responses.
	ReasonStatus Reason = "status"
	// ReasonTooLarge covers responses over the size cap.
	ReasonTooLarge Reason = "too_large"
)

// Error is returned when a proposal document could not be downloaded.
// Content that downloads fine but is not a PDF is not a fetch error; the
// extractor owns that verdict.
type Error struct {
	Reason Reason
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonStatus:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.Status)
	case ReasonTooLarge:
		return fmt.Sprintf("fetch %s: document exceeds size limit", e.URL)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Config controls download policy.
type Config struct {
	Timeout  time.Duration
	MaxBytes int64
}

// Fetcher downloads proposal documents over HTTP.
type Fetcher struct {
	http     *http.Client
	maxBytes int64
	log      *slog.Logger
}

func NewFetcher(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 25 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		http:     &http.Client{Timeout: cfg.Timeout},
		maxBytes: cfg.MaxBytes,
		log:      logger,
	}
}

// Fetch downloads url and returns the raw bytes. Responses over the size cap
// abort mid-stream instead of buffering without bound.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Reason: ReasonNetwork, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/pdf, */*")

	resp, err := f.http.Do(req)
	if err != nil {
		f.log.Error("fetch.http_error", "url", url, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, &Error{Reason: ReasonNetwork, URL: url, Err: err}
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			f.log.Warn("fetch response body close error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.log.Error("fetch.bad_status", "url", url, "status", resp.StatusCode)
		return nil, &Error{Reason: ReasonStatus, URL: url, Status: resp.StatusCode}
	}
	if resp.ContentLength > f.maxBytes {
		return nil, &Error{Reason: ReasonTooLarge, URL: url}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &Error{Reason: ReasonNetwork, URL: url, Err: err}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &Error{Reason: ReasonTooLarge, URL: url}
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "pdf") && !strings.Contains(ct, "octet-stream") {
		f.log.Warn("fetch.unexpected_content_type", "url", url, "content_type", ct)
	}
	if !bytes.Contains(head(data, 1024), []byte("%PDF-")) {
		f.log.Warn("fetch.no_pdf_magic", "url", url, "bytes", len(data))
	}

	f.log.Info("fetch.ok", "url", url, "bytes", len(data),
		"elapsed_ms", time.Since(start).Milliseconds())
	return data, nil
}

func head(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
