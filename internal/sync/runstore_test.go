package sync

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(item map[string]types.AttributeValue) string {
	if v, ok := item["runId"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key := itemKey(in.Item)
	if _, exists := f.items[key]; exists {
		return nil, &types.ConditionalCheckFailedException{}
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	key := itemKey(in.Key)
	item, exists := f.items[key]
	if !exists {
		return nil, &types.ConditionalCheckFailedException{}
	}
	item["status"] = in.ExpressionAttributeValues[":status"]
	item["errorMessage"] = in.ExpressionAttributeValues[":error"]
	item["updatedAt"] = in.ExpressionAttributeValues[":updated"]
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	item, exists := f.items[itemKey(in.Key)]
	if !exists {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func TestRunStoreLifecycle(t *testing.T) {
	db := newFakeDynamo()
	store := NewRunStore(db, "catalog_sync_runs", testLogger())
	ctx := context.Background()

	run := &RunRecord{RunID: "run-1", Kind: KindCatalogRefresh, RequestedBy: "admin"}
	require.NoError(t, store.PutPending(ctx, run))
	assert.Equal(t, RunStatusPending, run.Status)
	assert.NotZero(t, run.ExpiresAt)

	require.NoError(t, store.MarkCompleted(ctx, "run-1"))
	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.Equal(t, "admin", got.RequestedBy)
}

func TestRunStoreMarkFailed(t *testing.T) {
	db := newFakeDynamo()
	store := NewRunStore(db, "catalog_sync_runs", testLogger())
	ctx := context.Background()

	require.NoError(t, store.PutPending(ctx, &RunRecord{RunID: "run-1", Kind: KindScheduleSync}))
	require.NoError(t, store.MarkFailed(ctx, "run-1", "upstream unavailable"))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "upstream unavailable", got.ErrorMessage)
}

func TestRunStoreGetRunNotFound(t *testing.T) {
	store := NewRunStore(newFakeDynamo(), "catalog_sync_runs", testLogger())
	_, err := store.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunStoreDuplicatePut(t *testing.T) {
	db := newFakeDynamo()
	store := NewRunStore(db, "catalog_sync_runs", testLogger())
	ctx := context.Background()

	require.NoError(t, store.PutPending(ctx, &RunRecord{RunID: "run-1", Kind: KindCatalogRefresh}))
	assert.Error(t, store.PutPending(ctx, &RunRecord{RunID: "run-1", Kind: KindCatalogRefresh}))
}

func TestRunRecordRoundTrip(t *testing.T) {
	record := RunRecord{RunID: "run-9", Kind: KindScheduleSync, Status: RunStatusPending}
	item, err := attributevalue.MarshalMap(record)
	require.NoError(t, err)

	var decoded RunRecord
	require.NoError(t, attributevalue.UnmarshalMap(item, &decoded))
	assert.Equal(t, record, decoded)
}
