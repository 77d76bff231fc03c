// Package storage defines where published model artifacts are uploaded.
//
// Backends register themselves with the factory from an init function in
// their own package; cmd/exporthub blank-imports the ones it ships with.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// Storage is implemented by every artifact backend.
type Storage interface {
	// Upload stores size bytes from r under key.
	Upload(ctx context.Context, key string, r io.Reader, size int64) (*UploadResult, error)

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL is the public download location for key. It is computed, not
	// checked against the backend.
	URL(key string) string
}

// UploadResult describes a stored artifact.
type UploadResult struct {
	Key      string
	URL      string
	Size     int64
	Checksum string
}

// CleanKey normalises a slash-separated object key and rejects keys that
// would escape the backend root.
func CleanKey(key string) (string, error) {
	k := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(key, "\\", "/")), "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	for _, seg := range strings.Split(strings.ReplaceAll(key, "\\", "/"), "/") {
		if seg == ".." {
			return "", fmt.Errorf("invalid storage key %q", key)
		}
	}
	return k, nil
}
