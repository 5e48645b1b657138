package minio

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecsight/blobstore"
)

func TestStore_Keys(t *testing.T) {
	s := NewStore(nil, "bucket", "models/")
	assert.Equal(t, "models/reference.vsm", s.key("reference.vsm"))
	assert.Equal(t, "reference.vsm", s.name("models/reference.vsm"))
	assert.Equal(t, "reference.vsm", NewStore(nil, "bucket", "").key("reference.vsm"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
}

// TestMinioStore_Integration requires a MinIO server on localhost:9000.
func TestMinioStore_Integration(t *testing.T) {
	const bucket = "test-vecsight"

	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err = client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("reference model bytes")
	require.NoError(t, store.Put(ctx, "reference.vsm", data))

	info, err := client.StatObject(ctx, bucket, "test-prefix/reference.vsm", minio.StatObjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, blobstore.ContentTypeModel, info.ContentType)

	got, err := blobstore.ReadAll(ctx, store, "reference.vsm")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "reference.vsm")

	require.NoError(t, store.Delete(ctx, "reference.vsm"))
	_, err = store.Open(ctx, "reference.vsm")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
