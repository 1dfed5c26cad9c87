package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LocalStorage keeps export snapshots as flat files in one directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates baseDir if needed.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("snapshot directory is empty")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes data under name, replacing an older file of the same name. The
// file is written beside the target and renamed so readers never see a partial file.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(s.baseDir, ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("store snapshot: %w", err)
	}
	return path, nil
}

// List returns stored snapshot names, oldest name first.
func (s *LocalStorage) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Prune removes snapshots last modified before cutoff and returns their names.
func (s *LocalStorage) Prune(cutoff time.Time) ([]string, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, name := range names {
		path := filepath.Join(s.baseDir, name)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("stat snapshot: %w", err)
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove snapshot: %w", err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

func (s *LocalStorage) resolve(name string) (string, error) {
	clean := filepath.Base(filepath.Clean(name))
	if clean != name || clean == "." || strings.HasPrefix(clean, ".") {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	return filepath.Join(s.baseDir, clean), nil
}
