package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/clinicbook/reservation-platform/pkg/logging"
)

// SyncerConfig configures the periodic shadow-cache refresh.
type SyncerConfig struct {
	Provider *CachedProvider

	Interval   time.Duration
	WindowDays int

	// Tick and Stop override the internal ticker, mainly for tests.
	Tick <-chan time.Time
	Stop func()

	Now    func() time.Time
	Logger *logging.Logger
}

// Syncer periodically refreshes the shadow cache so availability evaluations
// stay inside their wall-clock budget even when the upstream is slow.
type Syncer struct {
	provider   *CachedProvider
	windowDays int
	tick       <-chan time.Time
	stop       func()
	now        func() time.Time
	logger     *logging.Logger
}

// NewSyncer validates the config and applies defaults.
func NewSyncer(cfg SyncerConfig) (*Syncer, error) {
	if cfg.Provider == nil {
		return nil, errors.New("scheduling: syncer requires a cached provider")
	}

	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 14
	}
	if windowDays > 60 {
		windowDays = 60
	}

	tick := cfg.Tick
	stop := cfg.Stop
	if tick == nil {
		interval := cfg.Interval
		if interval <= 0 {
			interval = 15 * time.Minute
		}
		ticker := time.NewTicker(interval)
		tick = ticker.C
		stop = ticker.Stop
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Syncer{
		provider:   cfg.Provider,
		windowDays: windowDays,
		tick:       tick,
		stop:       stop,
		now:        now,
		logger:     logger,
	}, nil
}

// Start runs an immediate sync and then one per tick until ctx is done.
func (s *Syncer) Start(ctx context.Context) {
	if s == nil {
		return
	}
	defer func() {
		if s.stop != nil {
			s.stop()
		}
	}()

	s.syncOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.tick:
			s.syncOnce(ctx)
		}
	}
}

func (s *Syncer) syncOnce(ctx context.Context) {
	from := s.now().UTC().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, s.windowDays)
	if err := s.provider.SyncWindow(ctx, from, to); err != nil {
		s.logger.Warn("shadow sync failed", "error", err, "from", from, "to", to)
		return
	}
	s.logger.Debug("shadow sync complete", "from", from, "to", to)
}
