package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetcher_Fetch_OK(t *testing.T) {
	payload := "%PDF-1.4\nsome pdf bytes"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, payload)
	}))
	defer srv.Close()

	f := NewFetcher(Config{}, testLogger())
	data, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}

func TestFetcher_Fetch_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(Config{}, testLogger())
	_, err := f.Fetch(context.Background(), srv.URL)

	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, ReasonStatus, ferr.Reason)
	assert.Equal(t, http.StatusNotFound, ferr.Status)
	assert.Contains(t, ferr.Error(), "404")
}

func TestFetcher_Fetch_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "%PDF-1.4\n")
		_, _ = io.WriteString(w, strings.Repeat("x", 4096))
	}))
	defer srv.Close()

	f := NewFetcher(Config{MaxBytes: 1024}, testLogger())
	_, err := f.Fetch(context.Background(), srv.URL)

	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, ReasonTooLarge, ferr.Reason)
}

func TestFetcher_Fetch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := NewFetcher(Config{}, testLogger())
	_, err := f.Fetch(context.Background(), srv.URL)

	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, ReasonNetwork, ferr.Reason)
}

func TestFetcher_Fetch_NonPDFContentStillReturned(t *testing.T) {
	// Wrong content is the extractor's verdict, not a fetch failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>maintenance page</html>")
	}))
	defer srv.Close()

	f := NewFetcher(Config{}, testLogger())
	data, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(data), "maintenance")
}

func TestFetcher_Fetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(Config{}, testLogger())
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
}
