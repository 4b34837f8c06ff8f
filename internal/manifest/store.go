package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imamik/hdcluster/internal/platform/s3"
)

// Store loads and saves a whole manifest.
type Store interface {
	Load(ctx context.Context) (Manifest, error)
	Save(ctx context.Context, m Manifest) error
}

// FileStore keeps the manifest in a local JSON file.
type FileStore struct {
	Path string
}

// NewFileStore returns a store for the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the manifest. A missing file is an empty manifest.
func (s *FileStore) Load(_ context.Context) (Manifest, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, nil
		}
		return nil, fmt.Errorf("failed to read storage manifest %s: %w", s.Path, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return m, nil
}

// Save rewrites the file atomically, creating its directory if needed.
func (s *FileStore) Save(_ context.Context, m Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary manifest: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write storage manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write storage manifest: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to write storage manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("failed to replace storage manifest %s: %w", s.Path, err)
	}
	return nil
}

// ObjectClient is the subset of the S3 client used by S3Store.
type ObjectClient interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// S3Store keeps the manifest as one object in an S3-compatible bucket.
type S3Store struct {
	Client ObjectClient
	Bucket string
	Key    string
}

// NewS3Store returns a store for bucket/key.
func NewS3Store(client ObjectClient, bucket, key string) *S3Store {
	return &S3Store{Client: client, Bucket: bucket, Key: key}
}

// Load fetches the manifest. A missing object is an empty manifest.
func (s *S3Store) Load(ctx context.Context) (Manifest, error) {
	data, err := s.Client.GetObject(ctx, s.Bucket, s.Key)
	if err != nil {
		if errors.Is(err, s3.ErrObjectNotFound) {
			return Manifest{}, nil
		}
		return nil, fmt.Errorf("failed to load storage manifest: %w", err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	return m, nil
}

// Save uploads the full manifest.
func (s *S3Store) Save(ctx context.Context, m Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := s.Client.PutObject(ctx, s.Bucket, s.Key, data); err != nil {
		return fmt.Errorf("failed to save storage manifest: %w", err)
	}
	return nil
}

var (
	_ Store        = (*FileStore)(nil)
	_ Store        = (*S3Store)(nil)
	_ ObjectClient = (*s3.Client)(nil)
)
