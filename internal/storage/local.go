package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/perf-attribution/pkg/errors"
)

// LocalStore publishes results into a directory tree.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a LocalStore rooted at basePath.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if basePath == "" {
		basePath = "./results"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errors.Wrap(errors.CodeUploadError, "failed to create results directory", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Upload writes data from reader to the specified key.
func (s *LocalStore) Upload(ctx context.Context, key string, reader io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := s.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return errors.Wrap(errors.CodeUploadError, "failed to create directory", err)
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return errors.Wrap(errors.CodeUploadError, "failed to create file", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return errors.Wrap(errors.CodeUploadError, "failed to write file", err)
	}
	return nil
}

// UploadFile uploads a local file to the specified key.
func (s *LocalStore) UploadFile(ctx context.Context, key string, localPath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return errors.Wrap(errors.CodeUploadError, "failed to open source file", err)
	}
	defer src.Close()
	return s.Upload(ctx, key, src)
}

// Download opens the object at the specified key for reading.
func (s *LocalStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.CodeNotFound, "no published object at %s", key)
		}
		return nil, errors.Wrap(errors.CodeUploadError, "failed to open object", err)
	}
	return f, nil
}

// Exists checks if an object exists at the specified key.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(errors.CodeUploadError, "failed to stat object", err)
	}
	return true, nil
}

// URL returns the filesystem path of the published object.
func (s *LocalStore) URL(key string) string {
	return s.fullPath(key)
}

func (s *LocalStore) fullPath(key string) string {
	return filepath.Join(s.basePath, key)
}
