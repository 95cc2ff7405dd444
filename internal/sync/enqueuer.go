package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicbook/reservation-platform/pkg/logging"
)

// EnqueuerConfig wires the periodic enqueuer.
type EnqueuerConfig struct {
	Publisher *Publisher
	Kind      string
	Interval  time.Duration

	// WindowDays is carried on schedule_sync jobs. Ignored for other kinds.
	WindowDays int

	// Tick and Stop override the internal ticker, mainly for tests.
	Tick <-chan time.Time
	Stop func()

	Logger *logging.Logger
}

// Enqueuer publishes one refresh job per interval so caches stay warm
// without an operator asking.
type Enqueuer struct {
	publisher  *Publisher
	kind       string
	windowDays int
	tick       <-chan time.Time
	stop       func()
	logger     *logging.Logger
}

// NewEnqueuer validates the config and applies defaults.
func NewEnqueuer(cfg EnqueuerConfig) (*Enqueuer, error) {
	if cfg.Publisher == nil {
		return nil, fmt.Errorf("sync: publisher required")
	}
	switch cfg.Kind {
	case KindCatalogRefresh, KindScheduleSync:
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, cfg.Kind)
	}
	tick := cfg.Tick
	stop := cfg.Stop
	if tick == nil {
		interval := cfg.Interval
		if interval <= 0 {
			interval = time.Hour
		}
		ticker := time.NewTicker(interval)
		tick = ticker.C
		stop = ticker.Stop
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Enqueuer{
		publisher:  cfg.Publisher,
		kind:       cfg.Kind,
		windowDays: cfg.WindowDays,
		tick:       tick,
		stop:       stop,
		logger:     logger,
	}, nil
}

// Start enqueues on every tick until ctx is canceled.
func (e *Enqueuer) Start(ctx context.Context) {
	if e.stop != nil {
		defer e.stop()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.tick:
			if _, err := e.publisher.Enqueue(ctx, e.kind, e.windowDays, "scheduler"); err != nil {
				e.logger.Error("periodic enqueue failed", "kind", e.kind, "error", err)
			}
		}
	}
}
