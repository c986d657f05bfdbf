package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// remoteBackend posts text to a standalone inference server. The response is
// validated against a JSON Schema before any field is used.
type remoteBackend struct {
	endpoint  string
	maxTokens int
	http      *http.Client
	log       *slog.Logger
}

func newRemoteBackend(cfg Config, log *slog.Logger) *remoteBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &remoteBackend{
		endpoint:  cfg.Endpoint,
		maxTokens: cfg.MaxTokens,
		http:      &http.Client{Timeout: timeout},
		log:       log,
	}
}

func (b *remoteBackend) Name() string { return "remote" }

func (b *remoteBackend) Score(ctx context.Context, text string) (Score, error) {
	rid := uuid.New().String()
	start := time.Now()

	b.log.Info("classify.remote.start",
		"req_id", rid,
		"endpoint", b.endpoint,
		"text_len", len(text),
		"max_length", b.maxTokens,
	)

	body := map[string]any{
		"text":       text,
		"max_length": b.maxTokens,
	}
	raw, err := b.post(ctx, b.endpoint, body)
	if err != nil {
		b.log.Error("classify.remote.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Score{}, err
	}

	if err := validateJSONAgainstSchema(buildScoreSchema(), raw); err != nil {
		b.log.Error("classify.remote.schema_validation_failed",
			"req_id", rid, "error", err, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Score{}, fmt.Errorf("inference response validation: %w", err)
	}

	var out struct {
		Label         int       `json:"label"`
		Probabilities []float64 `json:"probabilities"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Score{}, fmt.Errorf("decode inference response: %w", err)
	}

	sc := Score{Label: out.Label, Confidence: out.Probabilities[out.Label]}
	b.log.Info("classify.remote.ok",
		"req_id", rid,
		"label", sc.Label,
		"confidence", sc.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return sc, nil
}

func (b *remoteBackend) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			b.log.Warn("inference response body close error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(resp.Body)
		return nil, fmt.Errorf("inference status %d: %s", resp.StatusCode, buf.String())
	}

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	return buf.Bytes(), nil
}
