package resultstore_test

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"

	"github.com/vishalbelsare/gosdt-guesses/resultstore"
)

// TestMinIOStore_Integration requires a running MinIO instance; it skips
// itself when one isn't reachable.
func TestMinIOStore_Integration(t *testing.T) {
	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	bucket := "test-gosdt-results"
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := resultstore.NewMinIOStore(client, bucket, "test-prefix/")

	body := []byte(`{"status":"CONVERGED"}`)
	require.NoError(t, store.Put(ctx, "run-1", body))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, body, got)
}
