// Package storage writes API results (converted files, generated models,
// executor output) into a local directory through a blob bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"
)

type WriterOptions = blob.WriterOptions

type Storage struct {
	bucket *blob.Bucket
	dir    string
}

// Open creates dir if needed and opens it as a bucket.
func Open(dir string) (*Storage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, err
	}
	bucket, err := fileblob.OpenBucket(abs, &fileblob.Options{
		NoTempDir: true,
		Metadata:  fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage %s: %w", abs, err)
	}
	return &Storage{bucket: bucket, dir: abs}, nil
}

func (s *Storage) Dir() string {
	return s.dir
}

// Key joins path elements into a bucket key. Elements cannot climb out of the
// bucket.
func Key(elem ...string) (string, error) {
	parts := make([]string, len(elem))
	for i, e := range elem {
		parts[i] = filepath.ToSlash(e)
	}
	key := strings.TrimPrefix(path.Clean("/"+path.Join(parts...)), "/")
	if key == "" || key == "." {
		return "", errors.New("storage: empty key")
	}
	return key, nil
}

// LocalPath is where key lives on disk.
func (s *Storage) LocalPath(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

// WriteFile stores data under the joined key and returns its local path.
func (s *Storage) WriteFile(ctx context.Context, data []byte, elem ...string) (string, error) {
	key, err := Key(elem...)
	if err != nil {
		return "", err
	}
	if err := s.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return s.LocalPath(key), nil
}

// NewWriter streams into the joined key. The object appears on Close.
func (s *Storage) NewWriter(ctx context.Context, opts *WriterOptions, elem ...string) (*blob.Writer, error) {
	key, err := Key(elem...)
	if err != nil {
		return nil, err
	}
	return s.bucket.NewWriter(ctx, key, opts)
}

// ReadFile returns the contents of the joined key.
func (s *Storage) ReadFile(ctx context.Context, elem ...string) ([]byte, error) {
	key, err := Key(elem...)
	if err != nil {
		return nil, err
	}
	data, err := s.bucket.ReadAll(ctx, key)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, fmt.Errorf("read %s: %w", key, os.ErrNotExist)
	}
	return data, err
}

// List returns every key under prefix, in lexical order.
func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	var keys []string
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			return keys, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, err)
		}
		if !obj.IsDir {
			keys = append(keys, obj.Key)
		}
	}
}

func (s *Storage) Close() error {
	return s.bucket.Close()
}
