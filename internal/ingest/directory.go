package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/incubatech/proposal-screener/constants"
)

// File is one proposal document discovered on disk.
type File struct {
	Path   string
	SHA256 string
	Size   int64
}

// Stats summarizes a directory scan.
type Stats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// ScanDirectory walks root and returns every readable proposal PDF exactly
// once: byte-identical copies collapse onto the first path seen. Unreadable
// entries are counted and skipped, never fatal. Hidden files and directories
// are left out when skipHidden is set.
func ScanDirectory(ctx context.Context, root string, skipHidden bool, logger *slog.Logger) ([]File, Stats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, Stats{}, errors.New("root path is required")
	}

	var (
		files []File
		stats Stats
		seen  = make(map[string]string) // sha256 hex -> first path
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			logger.Warn("scan error", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !constants.IsAllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		f, err := hashFile(path)
		if err != nil {
			logger.Warn("unreadable file skipped", "path", path, "error", err)
			stats.Failed++
			return nil
		}
		stats.Succeeded++

		if first, dup := seen[f.SHA256]; dup {
			logger.Info("duplicate content skipped", "path", path, "first_seen", first)
			stats.Deduplicated++
			return nil
		}
		seen[f.SHA256] = path
		files = append(files, f)
		return nil
	})
	if err != nil {
		return files, stats, fmt.Errorf("walk %s: %w", root, err)
	}

	logger.Info("scan complete", "root", root,
		"scanned", stats.Scanned, "matched", stats.Matched,
		"succeeded", stats.Succeeded, "deduplicated", stats.Deduplicated, "failed", stats.Failed)
	return files, stats, nil
}

func hashFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return File{}, err
	}
	return File{
		Path:   path,
		SHA256: hex.EncodeToString(h.Sum(nil)),
		Size:   n,
	}, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
