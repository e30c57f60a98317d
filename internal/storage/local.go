package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yourusername/library-api/internal/pkg/errors"
)

// LocalStorage keeps uploads on local disk under a single root directory,
// one subdirectory per Kind.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates the root and per-kind directories if needed.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		root = "uploads"
	}
	for _, kind := range []Kind{KindCover, KindBook} {
		if err := os.MkdirAll(filepath.Join(root, string(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return &LocalStorage{root: root}, nil
}

func (s *LocalStorage) Save(ctx context.Context, kind Kind, filename string, r io.Reader) (string, error) {
	key := buildKey(kind, filename)

	f, err := os.Create(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return key, nil
}

func (s *LocalStorage) Resolve(ctx context.Context, key string) (Location, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Location{}, apperrors.ErrNotFound
		}
		return Location{}, err
	}
	return Location{Path: path}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// buildKey produces "<kind>/<kind>-<timestamp>-<uuid><ext>". The original
// filename contributes only its extension, so client-supplied names can
// never collide or escape the storage root.
func buildKey(kind Kind, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s-%d-%s%s",
		kind, kind, time.Now().UnixNano(), uuid.NewString(), ext)
}
