package resultstore

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
)

// MinIOStore publishes results to a MinIO or other S3-compatible bucket,
// for self-hosted object storage where the AWS SDK's endpoint resolution
// and credential chain don't apply.
type MinIOStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinIOStore creates a result store backed by a MinIO bucket.
func NewMinIOStore(client *minio.Client, bucket, rootPrefix string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket, prefix: rootPrefix}
}

func (s *MinIOStore) Put(ctx context.Context, runID string, result []byte) error {
	key := objectKey(s.prefix, runID)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(result), int64(len(result)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func (s *MinIOStore) Get(ctx context.Context, runID string) ([]byte, error) {
	key := objectKey(s.prefix, runID)
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, ErrNotFound
		}
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	return io.ReadAll(obj)
}
