package resultstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/vishalbelsare/gosdt-guesses/resultstore"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	client := s3.NewFromConfig(cfg)
	prefix := fmt.Sprintf("test-gosdt-%d/", time.Now().UnixNano())
	store := resultstore.NewS3Store(client, bucket, prefix)

	body := []byte(`{"status":"CONVERGED"}`)
	require.NoError(t, store.Put(ctx, "run-1", body))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)
	require.Equal(t, body, got)

	_, err = store.Get(ctx, "does-not-exist")
	require.ErrorIs(t, err, resultstore.ErrNotFound)
}
