// Package gcs provides a kv.Store backed by Google Cloud Storage objects.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/JakeFAU/daily-supplications/internal/kv"
)

// Config captures the bucket layout.
type Config struct {
	Bucket string `mapstructure:"bucket"`
	// Prefix is prepended to every object name, e.g. "state/".
	Prefix string `mapstructure:"prefix"`
}

// Store writes each key to gs://<bucket>/<prefix><key>.json.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ kv.Store = (*Store)(nil)

// New creates a GCS-backed store. The caller owns the client.
func New(client *storage.Client, cfg Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *Store) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.prefix + key + ".json")
}

// Get downloads the object for key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	r, err := s.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("open object %s: %w", key, err)
	}
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read object %s: %w", key, err)
	}
	return string(data), nil
}

// Set uploads value as the object for key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	w := s.object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := io.WriteString(w, value); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			return fmt.Errorf("write object %s: %w (close writer: %v)", key, err, closeErr)
		}
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer %s: %w", key, err)
	}
	return nil
}
