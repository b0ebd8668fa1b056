package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirSaver implements the save-to-file flow for a headless daemon: every
// document lands in a configured directory, so a save is never canceled.
type DirSaver struct {
	dir string
}

func NewDirSaver(dir string) (*DirSaver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &DirSaver{dir: dir}, nil
}

func (s *DirSaver) SavePDF(data []byte, suggestedName string) (string, bool, error) {
	name := sanitizeFileName(suggestedName)
	if name == "" {
		name = "document.pdf"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}

	path := s.uniquePath(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", false, fmt.Errorf("failed to save PDF: %w", err)
	}
	return path, false, nil
}

// uniquePath appends a counter until the name does not collide.
func (s *DirSaver) uniquePath(name string) string {
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		path = filepath.Join(s.dir, fmt.Sprintf("%s-%d%s", base, i, ext))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
	}
}

func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}
