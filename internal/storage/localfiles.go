package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

// Store persists uploaded source files.
type Store interface {
	Save(topicID uuid.UUID, filename string, r io.Reader) (path string, size int64, err error)
	Remove(path string) error
}

// LocalStore writes uploads under a base directory, one subdirectory
// per topic. Stored names are random so uploads never collide.
type LocalStore struct {
	baseDir string
	log     *logger.Logger
}

func NewLocalStore(baseDir string, baseLog *logger.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{baseDir: baseDir, log: baseLog.With("component", "LocalStore")}, nil
}

func (s *LocalStore) Save(topicID uuid.UUID, filename string, r io.Reader) (string, int64, error) {
	dir := filepath.Join(s.baseDir, topicID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create topic dir: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(dir, uuid.NewString()+ext)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("write file: %w", err)
	}
	s.log.Debug("stored upload", "path", path, "bytes", size)
	return path, size, nil
}

func (s *LocalStore) Remove(path string) error {
	// Refuse paths outside the store.
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path %s is outside the upload dir", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
