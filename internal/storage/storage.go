// Package storage publishes analysis results: local directory trees
// for interactive use, Tencent COS for shared deployments.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/perf-attribution/pkg/config"
	"github.com/perf-attribution/pkg/errors"
	"github.com/perf-attribution/pkg/writer"
)

// Store is the publication backend.
type Store interface {
	// Upload writes data from reader to the specified key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// UploadFile uploads a local file to the specified key.
	UploadFile(ctx context.Context, key string, localPath string) error

	// Download opens the object at the specified key for reading.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns where the published object can be found.
	URL(key string) string
}

// Type represents the publication backend type.
type Type string

const (
	TypeLocal Type = "local"
	TypeCOS   Type = "cos"
)

// New creates a Store from configuration. An empty type defaults to
// local.
func New(cfg *config.StorageConfig) (Store, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeConfigError, "storage config is nil")
	}
	switch Type(cfg.Type) {
	case TypeLocal, Type(""):
		return NewLocalStore(cfg.LocalPath)
	case TypeCOS:
		return NewCOSStore(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return nil, errors.Newf(errors.CodeConfigError, "unsupported storage type: %s", cfg.Type)
	}
}

// ResultKey is the canonical layout for published round results.
func ResultKey(scene string, runID int64, roundIndex int) string {
	return fmt.Sprintf("%s/run-%d/round-%d/result.json", scene, runID, roundIndex)
}

// PublishJSON encodes v as indented JSON and uploads it under key.
func PublishJSON[T any](ctx context.Context, s Store, key string, v T) error {
	var buf bytes.Buffer
	if err := writer.NewPrettyJSONWriter[T]().Write(v, &buf); err != nil {
		return errors.Wrap(errors.CodeUploadError, "failed to encode result", err)
	}
	return s.Upload(ctx, key, &buf)
}
