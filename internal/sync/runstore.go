package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/clinicbook/reservation-platform/pkg/logging"
)

const runTTL = 7 * 24 * time.Hour

// RunStatus represents the lifecycle of a sync run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ErrRunNotFound indicates the requested run ID does not exist.
var ErrRunNotFound = errors.New("sync: run not found")

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// RunRecord captures the persisted state of one sync run.
type RunRecord struct {
	RunID        string    `dynamodbav:"runId" json:"runId"`
	Kind         string    `dynamodbav:"kind" json:"kind"`
	Status       RunStatus `dynamodbav:"status" json:"status"`
	RequestedBy  string    `dynamodbav:"requestedBy,omitempty" json:"requestedBy,omitempty"`
	ErrorMessage string    `dynamodbav:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt    string    `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt    string    `dynamodbav:"updatedAt" json:"updatedAt"`
	ExpiresAt    int64     `dynamodbav:"expiresAt,omitempty" json:"-"`
}

// RunRecorder is the ledger surface the publisher and worker need.
type RunRecorder interface {
	PutPending(ctx context.Context, run *RunRecord) error
	MarkCompleted(ctx context.Context, runID string) error
	MarkFailed(ctx context.Context, runID string, errMsg string) error
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
}

// RunStore persists run records to DynamoDB.
type RunStore struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ RunRecorder = (*RunStore)(nil)

// NewRunStore builds a store backed by the provided DynamoDB client.
func NewRunStore(client dynamoAPI, tableName string, logger *logging.Logger) *RunStore {
	if client == nil {
		panic("sync: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("sync: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RunStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// PutPending inserts a new pending run record.
func (s *RunStore) PutPending(ctx context.Context, run *RunRecord) error {
	if run == nil {
		return errors.New("sync: run cannot be nil")
	}
	now := time.Now().UTC()
	run.Status = RunStatusPending
	run.CreatedAt = now.Format(time.RFC3339Nano)
	run.UpdatedAt = run.CreatedAt
	if run.ExpiresAt == 0 {
		run.ExpiresAt = now.Add(runTTL).Unix()
	}

	item, err := attributevalue.MarshalMap(run)
	if err != nil {
		return fmt.Errorf("sync: failed to marshal run: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(runId)"),
	})
	if err != nil {
		return fmt.Errorf("sync: failed to persist run: %w", err)
	}
	return nil
}

// MarkCompleted transitions a run to completed.
func (s *RunStore) MarkCompleted(ctx context.Context, runID string) error {
	if runID == "" {
		return errors.New("sync: runID required")
	}
	return s.updateRun(ctx, runID, RunStatusCompleted, "")
}

// MarkFailed transitions a run to failed with the cause.
func (s *RunStore) MarkFailed(ctx context.Context, runID string, errMsg string) error {
	if runID == "" {
		return errors.New("sync: runID required")
	}
	return s.updateRun(ctx, runID, RunStatusFailed, errMsg)
}

// GetRun fetches a run by ID.
func (s *RunStore) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, errors.New("sync: runID required")
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"runId": &types.AttributeValueMemberS{Value: runID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sync: failed to fetch run: %w", err)
	}
	if out.Item == nil {
		return nil, ErrRunNotFound
	}

	var run RunRecord
	if err := attributevalue.UnmarshalMap(out.Item, &run); err != nil {
		return nil, fmt.Errorf("sync: failed to decode run: %w", err)
	}
	return &run, nil
}

func (s *RunStore) updateRun(ctx context.Context, runID string, status RunStatus, errMsg string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"runId": &types.AttributeValueMemberS{Value: runID},
		},
		UpdateExpression: aws.String("SET #status = :status, #error = :error, #updated = :updated"),
		ExpressionAttributeNames: map[string]string{
			"#status":  "status",
			"#error":   "errorMessage",
			"#updated": "updatedAt",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(status)},
			":error":   &types.AttributeValueMemberS{Value: errMsg},
			":updated": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: aws.String("attribute_exists(runId)"),
	})
	if err != nil {
		return fmt.Errorf("sync: failed to update run %s: %w", runID, err)
	}
	return nil
}
