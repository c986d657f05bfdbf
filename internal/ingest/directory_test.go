package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func scannedPaths(files []File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestScanDirectory_DeduplicatesByContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), []byte("%PDF-1.4 proposal A"))
	writeFile(t, filepath.Join(root, "copy-of-a.pdf"), []byte("%PDF-1.4 proposal A"))
	writeFile(t, filepath.Join(root, "sub", "b.pdf"), []byte("%PDF-1.4 proposal B"))
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("not a proposal"))

	files, stats, err := ScanDirectory(context.Background(), root, true, quietLogger())
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{filepath.Join(root, "a.pdf"), filepath.Join(root, "sub", "b.pdf")},
		scannedPaths(files))
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Zero(t, stats.Failed)

	for _, f := range files {
		assert.Len(t, f.SHA256, 64)
		assert.Equal(t, int64(19), f.Size)
	}
}

func TestScanDirectory_SkipsHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "visible.pdf"), []byte("%PDF-1.4 visible"))
	writeFile(t, filepath.Join(root, ".secret.pdf"), []byte("%PDF-1.4 hidden file"))
	writeFile(t, filepath.Join(root, ".archive", "old.pdf"), []byte("%PDF-1.4 hidden dir"))

	files, stats, err := ScanDirectory(context.Background(), root, true, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "visible.pdf")}, scannedPaths(files))
	assert.Equal(t, uint32(1), stats.Matched)

	files, _, err = ScanDirectory(context.Background(), root, false, quietLogger())
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestScanDirectory_UppercaseExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "LOUD.PDF"), []byte("%PDF-1.4 shouting"))

	files, _, err := ScanDirectory(context.Background(), root, true, quietLogger())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(root, "LOUD.PDF"), files[0].Path)
}

func TestScanDirectory_MissingRootIsCountedNotFatal(t *testing.T) {
	files, stats, err := ScanDirectory(context.Background(),
		filepath.Join(t.TempDir(), "does-not-exist"), true, quietLogger())
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Equal(t, uint32(1), stats.Failed)
}

func TestScanDirectory_EmptyRootRejected(t *testing.T) {
	_, _, err := ScanDirectory(context.Background(), "   ", true, quietLogger())
	require.Error(t, err)
}

func TestScanDirectory_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), []byte("%PDF-1.4 a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := ScanDirectory(ctx, root, true, quietLogger())
	require.ErrorIs(t, err, context.Canceled)
}
