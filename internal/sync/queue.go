// Package sync runs background refresh jobs for the catalog snapshot and the
// upstream schedule shadow cache. Jobs travel over a queue (SQS in
// production, in-memory for local runs) and each run is recorded in a
// DynamoDB ledger so operators can audit refresh outcomes.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Job kinds.
const (
	KindCatalogRefresh = "catalog_refresh"
	KindScheduleSync   = "schedule_sync"
)

// Job is one queued refresh request.
type Job struct {
	RunID       string    `json:"run_id"`
	Kind        string    `json:"kind"`
	WindowDays  int       `json:"window_days,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// Message is one received queue entry.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Queue abstracts the transport between enqueuers and the worker.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

func encodeJob(job Job) (string, error) {
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("sync: encode job: %w", err)
	}
	return string(raw), nil
}

func decodeJob(body string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return Job{}, fmt.Errorf("sync: decode job: %w", err)
	}
	return job, nil
}
