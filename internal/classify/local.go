package classify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	candle_binding "github.com/vllm-project/semantic-router/candle-binding"
)

// localBackend runs BERT inference in-process through the candle FFI
// bindings, loading model artifacts from a directory on disk.
type localBackend struct {
	maxTokens  int
	modernBERT bool
	log        *slog.Logger
}

// newLocalBackend loads the model, preferring GPU and falling back to CPU
// when device init fails. Missing artifacts fail fast.
func newLocalBackend(cfg Config, log *slog.Logger) (*localBackend, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model artifacts at %s: %w", cfg.ModelPath, err)
	}

	b := &localBackend{maxTokens: cfg.MaxTokens, log: log}
	if err := b.init(cfg.ModelPath, cfg.UseCPU); err != nil {
		if cfg.UseCPU {
			return nil, err
		}
		log.Warn("classify.init.device_fallback", "error", err)
		if err := b.init(cfg.ModelPath, true); err != nil {
			return nil, err
		}
	}
	log.Info("classify.init.ok", "backend", b.Name(), "model_path", cfg.ModelPath, "use_cpu", cfg.UseCPU)
	return b, nil
}

// init tries the auto-detecting Candle BERT loader first, then the
// ModernBERT loader for models with incomplete configs.
func (b *localBackend) init(path string, useCPU bool) error {
	if candle_binding.InitCandleBertClassifier(path, numClasses, useCPU) {
		b.modernBERT = false
		return nil
	}
	b.log.Info("classify.init.modernbert_fallback", "model_path", path)
	if err := candle_binding.InitModernBertClassifier(path, useCPU); err != nil {
		return fmt.Errorf("init classifier (both candle and modernbert): %w", err)
	}
	b.modernBERT = true
	return nil
}

func (b *localBackend) Name() string {
	if b.modernBERT {
		return "modernbert"
	}
	return "candle-bert"
}

func (b *localBackend) Score(ctx context.Context, text string) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}
	// Bound the FFI payload. The tokenizer applies the exact token limit;
	// this cap only cuts text that is already far past it.
	text = capRunes(text, b.maxTokens*8)

	var (
		res candle_binding.ClassResult
		err error
	)
	if b.modernBERT {
		res, err = candle_binding.ClassifyModernBertText(text)
	} else {
		res, err = candle_binding.ClassifyCandleBertText(text)
		if err != nil {
			res, err = candle_binding.ClassifyModernBertText(text)
		}
	}
	if err != nil {
		return Score{}, fmt.Errorf("bert inference: %w", err)
	}
	return Score{Label: res.Class, Confidence: float64(res.Confidence)}, nil
}

func capRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
