package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hdcluster/internal/platform/s3"
)

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	t.Parallel()
	store := NewFileStore(filepath.Join(t.TempDir(), "storage-test.json"))

	m, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestFileStoreSaveCreatesDirectory(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "state", "storage-test.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(context.Background(), sampleManifest()))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleManifest(), got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStoreRejectsMalformed(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "storage-test.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"worker":[[{"volume_id":""}]]}`), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorIs(t, err, ErrInvalid)
}

type fakeObjects struct {
	objects map[string][]byte
	getErr  error
}

func (f *fakeObjects) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, s3.ErrObjectNotFound)
	}
	return data, nil
}

func (f *fakeObjects) PutObject(_ context.Context, bucket, key string, data []byte) error {
	f.objects[bucket+"/"+key] = data
	return nil
}

func TestS3Store(t *testing.T) {
	t.Parallel()
	objects := &fakeObjects{objects: map[string][]byte{}}
	store := NewS3Store(objects, "state", "clusters/storage-test.json")
	ctx := context.Background()

	m, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)

	require.NoError(t, store.Save(ctx, sampleManifest()))
	assert.Contains(t, objects.objects, "state/clusters/storage-test.json")

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleManifest(), got)
}

func TestS3StoreLoadError(t *testing.T) {
	t.Parallel()
	boom := errors.New("access denied")
	store := NewS3Store(&fakeObjects{getErr: boom}, "state", "k")

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, boom)
}
