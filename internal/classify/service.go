package classify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls which backend serves inference and how.
type Config struct {
	// ModelPath is the artifact directory for in-process inference.
	ModelPath string
	// Endpoint, when set, routes inference to a remote server instead.
	Endpoint string
	// MaxTokens is the truncation boundary applied by the tokenizer.
	MaxTokens int
	// UseCPU skips GPU device selection for the local backend.
	UseCPU bool
	// Timeout bounds one remote inference call.
	Timeout time.Duration
}

// Service is the screening classifier. It owns the model behind an atomic
// pointer: the model loads lazily on first use and Reload swaps it without
// ever exposing partial state to concurrent callers.
type Service struct {
	cfg Config
	log *slog.Logger

	current atomic.Pointer[slot]
	// mu serializes load and reload; Classify never takes it once loaded.
	mu sync.Mutex
}

type slot struct {
	b backend
}

func NewService(cfg Config, logger *slog.Logger) *Service {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, log: logger}
}

// Classify scores proposal text. Blank input is rejected outright with full
// confidence and no model call; everything else goes through the backend.
func (s *Service) Classify(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		s.log.Info("classify.empty_input")
		return Result{
			Prediction: "reject",
			Confidence: 1.0,
			Label:      LabelReject,
			Message:    MsgEmptyInput,
		}, nil
	}

	b, err := s.backend(ctx)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	score, err := b.Score(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}

	res := resultFromScore(score)
	s.log.Info("classify.ok",
		"backend", b.Name(),
		"text_len", len(text),
		"label", res.Label,
		"confidence", res.Confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// Reload builds a fresh backend from the same config and swaps it in. On
// failure the previous backend keeps serving.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.build(ctx)
	if err != nil {
		s.log.Error("classify.reload.failed", "error", err)
		return fmt.Errorf("%w: %v", ErrModelNotLoaded, err)
	}
	// The FFI model registry is process global; the slot swap only orders
	// visibility for Go callers.
	s.current.Store(&slot{b: b})
	s.log.Info("classify.reload.ok", "backend", b.Name())
	return nil
}

// Loaded reports whether a backend is ready without triggering a load.
func (s *Service) Loaded() bool { return s.current.Load() != nil }

// BackendName names the active backend, or "" before the first load.
func (s *Service) BackendName() string {
	if cur := s.current.Load(); cur != nil {
		return cur.b.Name()
	}
	return ""
}

func (s *Service) backend(ctx context.Context) (backend, error) {
	if cur := s.current.Load(); cur != nil {
		return cur.b, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.current.Load(); cur != nil {
		return cur.b, nil
	}

	b, err := s.build(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelNotLoaded, err)
	}
	s.current.Store(&slot{b: b})
	return b, nil
}

func (s *Service) build(ctx context.Context) (backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.cfg.Endpoint != "" {
		return newRemoteBackend(s.cfg, s.log), nil
	}
	return newLocalBackend(s.cfg, s.log)
}

func resultFromScore(sc Score) Result {
	conf := math.Round(sc.Confidence*10000) / 10000
	if sc.Label == LabelPass {
		return Result{Prediction: "pass", Confidence: conf, Label: LabelPass, Message: MsgPass}
	}
	return Result{Prediction: "reject", Confidence: conf, Label: LabelReject, Message: MsgReject}
}
