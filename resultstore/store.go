// Package resultstore publishes a finished Fit Result's JSON body to object
// storage, keyed by run id, so a caller does not have to hold the process
// alive to retrieve it later.
//
// Grounded on the teacher's blobstore/s3 and blobstore/minio packages:
// same bucket+prefix addressing, same NotFound sentinel, restructured
// around a single Put/Get pair instead of a full streaming Blob interface,
// since a Result is a single bounded JSON document rather than an
// arbitrarily large vector-index segment.
package resultstore

import (
	"context"
	"errors"
	"path"
)

// ErrNotFound is returned by Get when no result exists for the run id.
var ErrNotFound = errors.New("resultstore: not found")

// Store publishes and retrieves a run's result JSON by run id.
type Store interface {
	Put(ctx context.Context, runID string, result []byte) error
	Get(ctx context.Context, runID string) ([]byte, error)
}

// objectKey joins prefix and runID the way both backends address objects.
func objectKey(prefix, runID string) string {
	return path.Join(prefix, runID+".json")
}
