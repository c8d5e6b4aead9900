package resultstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vishalbelsare/gosdt-guesses/resultstore"
)

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Put(ctx context.Context, runID string, result []byte) error {
	m.data[runID] = result
	return nil
}

func (m *memStore) Get(ctx context.Context, runID string) ([]byte, error) {
	v, ok := m.data[runID]
	if !ok {
		return nil, resultstore.ErrNotFound
	}
	return v, nil
}

func TestRateLimitedStorePassesThrough(t *testing.T) {
	inner := newMemStore()
	limited := resultstore.NewRateLimited(inner, 1000, 10)

	require.NoError(t, limited.Put(context.Background(), "run-1", []byte("data")))
	got, err := limited.Get(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, []byte("data"), got)
}
