package classify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scoreServer(t *testing.T, label int, probs []float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text      string `json:"text"`
			MaxLength int    `json:"max_length"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Text)
		assert.Equal(t, 512, req.MaxLength)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"label":         label,
			"probabilities": probs,
		})
	}))
}

func TestService_Classify_EmptyInputShortCircuits(t *testing.T) {
	// ModelPath does not exist: any backend load would error, so a clean
	// result proves no load was attempted.
	s := NewService(Config{ModelPath: filepath.Join(t.TempDir(), "absent")}, discardLogger())

	for _, text := range []string{"", "   ", "\n\t  \n"} {
		res, err := s.Classify(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, "reject", res.Prediction)
		assert.Equal(t, LabelReject, res.Label)
		assert.Equal(t, 1.0, res.Confidence)
		assert.Equal(t, MsgEmptyInput, res.Message)
	}
	assert.False(t, s.Loaded())
}

func TestService_Classify_MissingArtifacts(t *testing.T) {
	s := NewService(Config{ModelPath: filepath.Join(t.TempDir(), "absent")}, discardLogger())

	_, err := s.Classify(context.Background(), "Proposal usaha kuliner sehat")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelNotLoaded)
	assert.False(t, s.Loaded())
}

func TestService_Classify_RemotePass(t *testing.T) {
	srv := scoreServer(t, 1, []float64{0.1234, 0.87661})
	defer srv.Close()

	s := NewService(Config{Endpoint: srv.URL}, discardLogger())
	res, err := s.Classify(context.Background(), "Proposal lengkap dengan rencana anggaran")
	require.NoError(t, err)

	assert.Equal(t, "pass", res.Prediction)
	assert.Equal(t, LabelPass, res.Label)
	assert.Equal(t, 0.8766, res.Confidence, "confidence must round to 4 decimals")
	assert.Equal(t, MsgPass, res.Message)
	assert.True(t, s.Loaded())
	assert.Equal(t, "remote", s.BackendName())
}

func TestService_Classify_RemoteReject(t *testing.T) {
	srv := scoreServer(t, 0, []float64{0.91, 0.09})
	defer srv.Close()

	s := NewService(Config{Endpoint: srv.URL}, discardLogger())
	res, err := s.Classify(context.Background(), "isi proposal tidak jelas")
	require.NoError(t, err)

	assert.Equal(t, "reject", res.Prediction)
	assert.Equal(t, LabelReject, res.Label)
	assert.Equal(t, 0.91, res.Confidence)
	assert.Equal(t, MsgReject, res.Message)
}

func TestService_Classify_RemoteInvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"label": 7, "probabilities": [0.5]}`))
	}))
	defer srv.Close()

	s := NewService(Config{Endpoint: srv.URL}, discardLogger())
	_, err := s.Classify(context.Background(), "teks proposal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestService_Classify_RemoteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewService(Config{Endpoint: srv.URL}, discardLogger())
	_, err := s.Classify(context.Background(), "teks proposal")
	require.Error(t, err, "a backend failure must surface, never become a reject verdict")
	assert.Contains(t, err.Error(), "500")
}

func TestService_Classify_Concurrent(t *testing.T) {
	srv := scoreServer(t, 1, []float64{0.2, 0.8})
	defer srv.Close()

	s := NewService(Config{Endpoint: srv.URL}, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Classify(context.Background(), "Proposal usaha bersama")
			assert.NoError(t, err)
			assert.Equal(t, "pass", res.Prediction)
		}()
	}
	wg.Wait()
}

type stubBackend struct {
	score Score
}

func (stubBackend) Name() string { return "stub" }

func (b stubBackend) Score(ctx context.Context, text string) (Score, error) {
	return b.score, nil
}

func TestService_Reload_KeepsOldBackendOnFailure(t *testing.T) {
	s := NewService(Config{ModelPath: filepath.Join(t.TempDir(), "absent")}, discardLogger())
	s.current.Store(&slot{b: stubBackend{score: Score{Label: 1, Confidence: 0.75}}})

	err := s.Reload(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelNotLoaded)

	res, err := s.Classify(context.Background(), "masih melayani dengan model lama")
	require.NoError(t, err)
	assert.Equal(t, "pass", res.Prediction)
	assert.Equal(t, 0.75, res.Confidence)
}

func TestService_Reload_SwapsRemoteBackend(t *testing.T) {
	srv := scoreServer(t, 0, []float64{0.6, 0.4})
	defer srv.Close()

	s := NewService(Config{Endpoint: srv.URL}, discardLogger())
	s.current.Store(&slot{b: stubBackend{score: Score{Label: 1, Confidence: 0.99}}})

	require.NoError(t, s.Reload(context.Background()))
	assert.Equal(t, "remote", s.BackendName())

	res, err := s.Classify(context.Background(), "teks untuk model baru")
	require.NoError(t, err)
	assert.Equal(t, "reject", res.Prediction)
}

func TestResultFromScore_Rounding(t *testing.T) {
	tests := []struct {
		name  string
		score Score
		want  float64
	}{
		{"rounds down", Score{Label: 1, Confidence: 0.87654321}, 0.8765},
		{"rounds up", Score{Label: 0, Confidence: 0.99999}, 1.0},
		{"exact", Score{Label: 1, Confidence: 0.5}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resultFromScore(tt.score).Confidence)
		})
	}
}

func TestCapRunes(t *testing.T) {
	assert.Equal(t, "abc", capRunes("abc", 10))
	assert.Equal(t, "ab", capRunes("abcd", 2))
	assert.Equal(t, "héllo", capRunes("héllo", 5))
	assert.Equal(t, "hé", capRunes("héllo", 2))
	assert.Equal(t, "abc", capRunes("abc", 0), "zero cap means unlimited")
}
