package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"BioDigest/internal/domain"
	"BioDigest/internal/ports"
)

const (
	rawFile    = "raw.json"
	promptFile = "prompt.txt"
	reportFile = "report.md"
)

// FileStore writes the per-period artifacts under <root>/<period>/.
// Artifacts are write-once; the pipeline never reads them back.
type FileStore struct {
	root string
}

var _ ports.ArtifactStore = (*FileStore)(nil)

// NewFileStore anchors the store at the configured data directory.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// SaveRaw persists the prepared article batch as indented JSON.
func (s *FileStore) SaveRaw(period string, articles []domain.Article) error {
	return s.writeJSON(period, rawFile, articles)
}

// SavePrompt persists the conversation-context blob.
func (s *FileStore) SavePrompt(period, text string) error {
	return s.writeText(period, promptFile, text)
}

// SaveReport persists the generated report markdown.
func (s *FileStore) SaveReport(period, text string) error {
	return s.writeText(period, reportFile, text)
}

func (s *FileStore) writeJSON(period, name string, v any) error {
	path, err := s.preparePath(period, name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*.json")
	if err != nil {
		return fmt.Errorf("create temp json: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode json: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp json: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp json: %w", err)
	}
	return nil
}

func (s *FileStore) writeText(period, name, content string) error {
	path, err := s.preparePath(period, name)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*.txt")
	if err != nil {
		return fmt.Errorf("create temp text: %w", err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp text: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp text: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp text: %w", err)
	}
	return nil
}

func (s *FileStore) preparePath(period, name string) (string, error) {
	dir := filepath.Join(s.root, period)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create period dir: %w", err)
	}
	return filepath.Join(dir, name), nil
}
