package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrRunNotFound is returned by GetRun when no record exists for the id.
var ErrRunNotFound = errors.New("ledger: run not found")

// DDBClient is the subset of *dynamodb.Client the ledger needs, narrow
// enough to fake in tests without standing up a real table.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoDBLedger persists Records as items in a DynamoDB table keyed by
// run id.
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name gosdt-runs \
//	  --attribute-definitions AttributeName=run_id,AttributeType=S \
//	  --key-schema AttributeName=run_id,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
type DynamoDBLedger struct {
	client    DDBClient
	tableName string
}

// NewDynamoDBLedger creates a ledger backed by table.
func NewDynamoDBLedger(client DDBClient, table string) *DynamoDBLedger {
	return &DynamoDBLedger{client: client, tableName: table}
}

func (l *DynamoDBLedger) RecordRun(ctx context.Context, rec Record) error {
	item := map[string]types.AttributeValue{
		"run_id":       &types.AttributeValueMemberS{Value: rec.RunID},
		"status":       &types.AttributeValueMemberS{Value: rec.Status},
		"lower_bound":  &types.AttributeValueMemberN{Value: strconv.FormatFloat(rec.LowerBound, 'g', -1, 64)},
		"upper_bound":  &types.AttributeValueMemberN{Value: strconv.FormatFloat(rec.UpperBound, 'g', -1, 64)},
		"graph_size":   &types.AttributeValueMemberN{Value: strconv.Itoa(rec.GraphSize)},
		"n_iterations": &types.AttributeValueMemberN{Value: strconv.FormatUint(rec.NIterations, 10)},
		"time_elapsed": &types.AttributeValueMemberN{Value: strconv.FormatInt(int64(rec.TimeElapsed), 10)},
		"started_at":   &types.AttributeValueMemberS{Value: rec.StartedAt.Format(time.RFC3339Nano)},
		"finished_at":  &types.AttributeValueMemberS{Value: rec.FinishedAt.Format(time.RFC3339Nano)},
	}

	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("ledger: put run %s: %w", rec.RunID, err)
	}
	return nil
}

func (l *DynamoDBLedger) GetRun(ctx context.Context, runID string) (Record, error) {
	out, err := l.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(l.tableName),
		Key: map[string]types.AttributeValue{
			"run_id": &types.AttributeValueMemberS{Value: runID},
		},
	})
	if err != nil {
		return Record{}, fmt.Errorf("ledger: get run %s: %w", runID, err)
	}
	if len(out.Item) == 0 {
		return Record{}, ErrRunNotFound
	}
	return decodeRecord(runID, out.Item)
}

func decodeRecord(runID string, item map[string]types.AttributeValue) (Record, error) {
	rec := Record{RunID: runID}

	status, ok := item["status"].(*types.AttributeValueMemberS)
	if !ok {
		return Record{}, fmt.Errorf("ledger: item %s missing status", runID)
	}
	rec.Status = status.Value

	if v, ok := item["lower_bound"].(*types.AttributeValueMemberN); ok {
		rec.LowerBound, _ = strconv.ParseFloat(v.Value, 64)
	}
	if v, ok := item["upper_bound"].(*types.AttributeValueMemberN); ok {
		rec.UpperBound, _ = strconv.ParseFloat(v.Value, 64)
	}
	if v, ok := item["graph_size"].(*types.AttributeValueMemberN); ok {
		rec.GraphSize, _ = strconv.Atoi(v.Value)
	}
	if v, ok := item["n_iterations"].(*types.AttributeValueMemberN); ok {
		rec.NIterations, _ = strconv.ParseUint(v.Value, 10, 64)
	}
	if v, ok := item["time_elapsed"].(*types.AttributeValueMemberN); ok {
		ns, _ := strconv.ParseInt(v.Value, 10, 64)
		rec.TimeElapsed = time.Duration(ns)
	}
	if v, ok := item["started_at"].(*types.AttributeValueMemberS); ok {
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, v.Value)
	}
	if v, ok := item["finished_at"].(*types.AttributeValueMemberS); ok {
		rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, v.Value)
	}
	return rec, nil
}
