package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicbook/reservation-platform/internal/catalog"
	"github.com/clinicbook/reservation-platform/pkg/logging"
)

// CatalogRefresher reloads the catalog snapshot cache.
type CatalogRefresher interface {
	Refresh(ctx context.Context) (*catalog.Snapshot, error)
}

// ScheduleSyncer refreshes the shadow copy of the upstream schedule.
type ScheduleSyncer interface {
	SyncWindow(ctx context.Context, from, to time.Time) error
}

// WorkerConfig wires the worker's collaborators.
type WorkerConfig struct {
	Queue    Queue
	Runs     RunRecorder
	Catalogs CatalogRefresher
	Schedule ScheduleSyncer

	// WindowDays bounds schedule syncs when the job does not carry one.
	// Default 14.
	WindowDays int

	// ReceiveWait is the long-poll wait passed to the queue, in seconds.
	// Default 10.
	ReceiveWait int

	Logger *logging.Logger
	Now    func() time.Time
}

// Worker drains refresh jobs from the queue and applies them.
type Worker struct {
	queue       Queue
	runs        RunRecorder
	catalogs    CatalogRefresher
	schedule    ScheduleSyncer
	windowDays  int
	receiveWait int
	logger      *logging.Logger
	now         func() time.Time
}

// NewWorker validates the config and applies defaults.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("sync: queue required")
	}
	if cfg.Catalogs == nil && cfg.Schedule == nil {
		return nil, fmt.Errorf("sync: at least one refresh target required")
	}
	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 14
	}
	receiveWait := cfg.ReceiveWait
	if receiveWait <= 0 {
		receiveWait = 10
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Worker{
		queue:       cfg.Queue,
		runs:        cfg.Runs,
		catalogs:    cfg.Catalogs,
		schedule:    cfg.Schedule,
		windowDays:  windowDays,
		receiveWait: receiveWait,
		logger:      logger,
		now:         now,
	}, nil
}

// Run polls the queue until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("sync worker started")
	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("sync worker stopped")
			return err
		}

		messages, err := w.queue.Receive(ctx, 5, w.receiveWait)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("sync worker stopped")
				return ctx.Err()
			}
			w.logger.Error("queue receive failed", "error", err)
			continue
		}

		for _, msg := range messages {
			w.handle(ctx, msg)
		}
	}
}

// handle processes one message. Malformed payloads are deleted so they do not
// poison the queue.
func (w *Worker) handle(ctx context.Context, msg Message) {
	job, err := decodeJob(msg.Body)
	if err != nil {
		w.logger.Error("dropping malformed sync job", "message_id", msg.ID, "error", err)
		w.deleteMessage(ctx, msg)
		return
	}

	if err := w.execute(ctx, job); err != nil {
		w.logger.Error("sync job failed", "run_id", job.RunID, "kind", job.Kind, "error", err)
		w.markFailed(ctx, job.RunID, err)
		w.deleteMessage(ctx, msg)
		return
	}

	if w.runs != nil && job.RunID != "" {
		if err := w.runs.MarkCompleted(ctx, job.RunID); err != nil {
			w.logger.Error("failed to record run completion", "run_id", job.RunID, "error", err)
		}
	}
	w.logger.Info("sync job completed", "run_id", job.RunID, "kind", job.Kind)
	w.deleteMessage(ctx, msg)
}

func (w *Worker) execute(ctx context.Context, job Job) error {
	switch job.Kind {
	case KindCatalogRefresh:
		if w.catalogs == nil {
			return fmt.Errorf("sync: catalog refresher not configured")
		}
		if _, err := w.catalogs.Refresh(ctx); err != nil {
			return err
		}
		return nil
	case KindScheduleSync:
		if w.schedule == nil {
			return fmt.Errorf("sync: schedule syncer not configured")
		}
		windowDays := job.WindowDays
		if windowDays <= 0 {
			windowDays = w.windowDays
		}
		from := w.now().UTC().Truncate(24 * time.Hour)
		to := from.AddDate(0, 0, windowDays)
		return w.schedule.SyncWindow(ctx, from, to)
	default:
		return fmt.Errorf("sync: unknown job kind %q", job.Kind)
	}
}

func (w *Worker) markFailed(ctx context.Context, runID string, cause error) {
	if w.runs == nil || runID == "" {
		return
	}
	if err := w.runs.MarkFailed(ctx, runID, cause.Error()); err != nil {
		w.logger.Error("failed to record run failure", "run_id", runID, "error", err)
	}
}

func (w *Worker) deleteMessage(ctx context.Context, msg Message) {
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Error("failed to delete queue message", "message_id", msg.ID, "error", err)
	}
}
