package queue_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vishalbelsare/gosdt-guesses/internal/queue"
)

func TestPopReturnsHighestPriorityFirst(t *testing.T) {
	q := queue.New(4)
	q.Push(queue.Message{Kind: queue.Exploration, Priority: 0.2})
	q.Push(queue.Message{Kind: queue.Exploitation, Priority: 0.9})
	q.Push(queue.Message{Kind: queue.Exploration, Priority: 0.5})

	m, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, 0.9, m.Priority)

	m, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, 0.5, m.Priority)

	m, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, 0.2, m.Priority)

	_, ok = q.Pop()
	require.False(t, ok)
}

func TestEmptyReflectsLen(t *testing.T) {
	q := queue.New(1)
	require.True(t, q.Empty())
	q.Push(queue.Message{Priority: 1})
	require.False(t, q.Empty())
	require.Equal(t, 1, q.Len())
}

func TestSignedFeatureRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		feature  uint
		positive bool
	}{
		{0, true}, {0, false}, {7, true}, {7, false},
	} {
		signed := queue.EncodeSignedFeature(tc.feature, tc.positive)
		f, pos := queue.DecodeSignedFeature(signed)
		require.Equal(t, tc.feature, f)
		require.Equal(t, tc.positive, pos)
	}
}
