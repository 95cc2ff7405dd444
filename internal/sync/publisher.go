package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/reservation-platform/pkg/logging"
)

// ErrUnknownKind is returned when an enqueue request names a job kind the
// worker does not handle.
var ErrUnknownKind = errors.New("sync: unknown job kind")

// Publisher records a pending run and enqueues the job for the worker.
type Publisher struct {
	queue  Queue
	runs   RunRecorder
	logger *logging.Logger
	now    func() time.Time
}

// NewPublisher builds a publisher. The run recorder is optional: without it
// jobs are enqueued with no ledger entry.
func NewPublisher(queue Queue, runs RunRecorder, logger *logging.Logger) (*Publisher, error) {
	if queue == nil {
		return nil, fmt.Errorf("sync: queue required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, runs: runs, logger: logger, now: time.Now}, nil
}

// Enqueue publishes one refresh job and returns its run id.
func (p *Publisher) Enqueue(ctx context.Context, kind string, windowDays int, requestedBy string) (string, error) {
	switch kind {
	case KindCatalogRefresh, KindScheduleSync:
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}

	job := Job{
		RunID:       uuid.NewString(),
		Kind:        kind,
		WindowDays:  windowDays,
		RequestedBy: requestedBy,
		EnqueuedAt:  p.now().UTC(),
	}

	if p.runs != nil {
		record := &RunRecord{RunID: job.RunID, Kind: kind, RequestedBy: requestedBy}
		if err := p.runs.PutPending(ctx, record); err != nil {
			return "", err
		}
	}

	body, err := encodeJob(job)
	if err != nil {
		return "", err
	}
	if err := p.queue.Send(ctx, body); err != nil {
		return "", err
	}

	p.logger.Info("sync job enqueued", "run_id", job.RunID, "kind", kind, "requested_by", requestedBy)
	return job.RunID, nil
}
