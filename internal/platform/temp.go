package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// TempFiles spools payloads under a namespaced directory in the system
// temp area. Files are removed after submission; Cleanup sweeps whatever
// a crash left behind.
type TempFiles struct {
	dir      string
	debugDir string
}

// NewTempFiles prepares the spool directory. debugDir, when non-empty,
// receives a copy of every written payload for troubleshooting.
func NewTempFiles(debugDir string) (*TempFiles, error) {
	dir := filepath.Join(os.TempDir(), "printbridge")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	if debugDir != "" {
		if err := os.MkdirAll(debugDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create debug directory: %w", err)
		}
	}
	return &TempFiles{dir: dir, debugDir: debugDir}, nil
}

func (t *TempFiles) Write(prefix, ext string, data []byte) (string, error) {
	name := fmt.Sprintf("%s-%d%s", prefix, time.Now().UnixNano(), ext)
	path := filepath.Join(t.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	if t.debugDir != "" {
		debugPath := filepath.Join(t.debugDir, name)
		if err := os.WriteFile(debugPath, data, 0o644); err != nil {
			log.Warn().Err(err).Str("path", debugPath).Msg("failed to write debug copy")
		}
	}
	return path, nil
}

// Remove is best effort; a leftover file is swept by the next Cleanup.
func (t *TempFiles) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Debug().Err(err).Str("path", path).Msg("failed to remove temp file")
	}
}

// Cleanup deletes spool files older than maxAge.
func (t *TempFiles) Cleanup(maxAge time.Duration) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		t.Remove(filepath.Join(t.dir, entry.Name()))
	}
}
