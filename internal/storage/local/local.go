// Package local stores artifacts in a directory on the local filesystem,
// typically the artifacts directory the HTTP server serves downloads from.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"exporthub/internal/common/fsutil"
	"exporthub/internal/config"
	"exporthub/internal/storage"
)

func init() {
	storage.Register("local", func(cfg config.StorageConfig) (storage.Storage, error) {
		return New(cfg.Local)
	})
}

// LocalStorage implements storage.Storage on a base directory.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// New creates the base directory if needed.
func New(cfg config.LocalStorage) (*LocalStorage, error) {
	if strings.TrimSpace(cfg.BasePath) == "" {
		return nil, fmt.Errorf("local storage base_path is required")
	}
	base, err := fsutil.AbsPath(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(base, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: base, baseURL: strings.TrimRight(cfg.BaseURL, "/")}, nil
}

func (s *LocalStorage) fullPath(key string) (string, string, error) {
	k, err := storage.CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return k, filepath.Join(s.basePath, filepath.FromSlash(k)), nil
}

// Upload writes the artifact next to its final name and renames it into
// place once fully written and hashed.
func (s *LocalStorage) Upload(ctx context.Context, key string, r io.Reader, size int64) (*storage.UploadResult, error) {
	k, full, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), "."+filepath.Base(full)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if size >= 0 && written != size {
		return nil, fmt.Errorf("short write for %s: wrote %d of %d bytes", k, written, size)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return nil, fmt.Errorf("failed to move file into place: %w", err)
	}
	return &storage.UploadResult{
		Key:      k,
		URL:      s.URL(k),
		Size:     written,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Exists checks if a regular file is stored under key.
func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	_, full, err := s.fullPath(key)
	if err != nil {
		return false, err
	}
	st, err := os.Stat(full)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return st.Mode().IsRegular(), nil
}

// URL joins key onto base_url, or returns a file:// URL when none is set.
func (s *LocalStorage) URL(key string) string {
	k, full, err := s.fullPath(key)
	if err != nil {
		return ""
	}
	if s.baseURL != "" {
		return s.baseURL + "/" + escapeKey(k)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(full)}).String()
}

func escapeKey(k string) string {
	parts := strings.Split(k, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
