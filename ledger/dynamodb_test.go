package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/vishalbelsare/gosdt-guesses/ledger"
)

// mockDDBClient is an in-memory DynamoDB mock for testing, in the style of
// the teacher's blobstore/s3 commit-store mock.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := params.Item["run_id"].(*types.AttributeValueMemberS).Value
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := params.Key["run_id"].(*types.AttributeValueMemberS).Value
	item, ok := m.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func TestDynamoDBLedgerRoundTrip(t *testing.T) {
	client := newMockDDBClient()
	l := ledger.NewDynamoDBLedger(client, "gosdt-runs")

	rec := ledger.Record{
		RunID:       "run-1",
		Status:      "CONVERGED",
		LowerBound:  0.04,
		UpperBound:  0.04,
		GraphSize:   7,
		NIterations: 42,
		TimeElapsed: 250 * time.Millisecond,
		StartedAt:   time.Now().Add(-time.Second),
		FinishedAt:  time.Now(),
	}

	require.NoError(t, l.RecordRun(context.Background(), rec))

	got, err := l.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, rec.RunID, got.RunID)
	require.Equal(t, rec.Status, got.Status)
	require.InDelta(t, rec.LowerBound, got.LowerBound, 1e-12)
	require.InDelta(t, rec.UpperBound, got.UpperBound, 1e-12)
	require.Equal(t, rec.GraphSize, got.GraphSize)
	require.Equal(t, rec.NIterations, got.NIterations)
	require.Equal(t, rec.TimeElapsed, got.TimeElapsed)
}

func TestDynamoDBLedgerGetRunMissing(t *testing.T) {
	client := newMockDDBClient()
	l := ledger.NewDynamoDBLedger(client, "gosdt-runs")

	_, err := l.GetRun(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ledger.ErrRunNotFound)
}
