package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// IPhotoStore persists uploaded shopper photos and hands back a URL the
// generation service can fetch.
type IPhotoStore interface {
	Save(name string, r io.Reader) (string, error)
}

type localPhotoStore struct {
	dir     string
	baseURL string
}

// NewLocalPhotoStore stores photos on local disk under dir, served from
// baseURL + /uploads/. The directory is created on first use.
func NewLocalPhotoStore(dir, baseURL string) IPhotoStore {
	return &localPhotoStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *localPhotoStore) Save(name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	ext := filepath.Ext(name)
	if ext == "" {
		ext = ".jpg"
	}
	filename := uuid.New().String() + ext

	dst, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("write photo file: %w", err)
	}

	return s.baseURL + "/uploads/" + filename, nil
}
