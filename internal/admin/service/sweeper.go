package service

import (
	"log/slog"
	"time"

	"github.com/fernwebstudio/siteadmin/internal/admin/tokens"
)

// Sweeper periodically evicts expired reset tokens so the registry doesn't
// grow without bound. It is best-effort cleanup only: every token read
// checks expiry synchronously, since up to an interval can pass between
// sweeps.
type Sweeper struct {
	Registry *tokens.Registry
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeper creates a sweeper with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewSweeper(registry *tokens.Registry, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &Sweeper{
		Registry: registry,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *Sweeper) Start() {
	go s.run()
	s.Logger.Info("reset token sweeper started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until any in-progress sweep has finished.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("reset token sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	removed := s.Registry.DeleteExpired()
	if removed > 0 {
		s.Logger.Info("swept expired reset tokens", "removed", removed)
	} else {
		s.Logger.Debug("sweep found no expired reset tokens")
	}
}
