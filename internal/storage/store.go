package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Object is a stored artifact with its associated metadata.
type Object struct {
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// ObjectStore is the artifact boundary for published results. The local
// filesystem implementation below is the default; remote backends satisfy the
// same interface.
type ObjectStore interface {
	Put(ctx context.Context, key string, obj Object) (string, error)
	Get(ctx context.Context, key string) (Object, error)
}

// LocalStore persists artifacts under a root directory, one file per key with
// a JSON sidecar for content type and metadata.
type LocalStore struct {
	root string
}

// NewLocalStore creates an artifact store rooted at dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("storage: root directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &LocalStore{root: dir}, nil
}

type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Put writes the object and returns the absolute path of the stored file.
func (s *LocalStore) Put(ctx context.Context, key string, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("storage: create parent: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, obj.Data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("storage: finalize %s: %w", key, err)
	}

	if obj.ContentType != "" || len(obj.Metadata) > 0 {
		meta, err := json.Marshal(sidecar{ContentType: obj.ContentType, Metadata: obj.Metadata})
		if err != nil {
			return "", fmt.Errorf("storage: encode metadata for %s: %w", key, err)
		}
		if err := os.WriteFile(sidecarPath(path), meta, 0o644); err != nil {
			return "", fmt.Errorf("storage: write metadata for %s: %w", key, err)
		}
	}
	return path, nil
}

// Get reads a previously stored object back, including sidecar metadata when
// present.
func (s *LocalStore) Get(ctx context.Context, key string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	path, err := s.resolve(key)
	if err != nil {
		return Object{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Object{}, fmt.Errorf("storage: read %s: %w", key, err)
	}
	obj := Object{Data: data}
	if meta, err := os.ReadFile(sidecarPath(path)); err == nil {
		var sc sidecar
		if err := json.Unmarshal(meta, &sc); err == nil {
			obj.ContentType = sc.ContentType
			obj.Metadata = sc.Metadata
		}
	}
	return obj, nil
}

// resolve maps a key to an on-disk path, rejecting traversal outside the root.
func (s *LocalStore) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("storage: object key required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: invalid object key %q", key)
	}
	return filepath.Join(s.root, cleaned), nil
}

func sidecarPath(path string) string {
	return path + ".meta.json"
}
