// Package cleanup provides the background retention loop that reaps
// abandoned ordering sessions.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/arborly/risklab/pkg/config"
	"github.com/arborly/risklab/pkg/session"
)

// Service periodically marks in-progress sessions whose last interaction
// predates the configured abandon timeout as StatusAbandoned. It never
// touches engine state directly and never blocks the session driver — see
// spec.md §5's "a session may be abandoned externally; on resume the
// engine resumes from its last persisted state with no penalty".
type Service struct {
	config *config.RetentionConfig
	store  session.Store
	now    func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a cleanup service backed by store.
func NewService(cfg *config.RetentionConfig, store session.Store) *Service {
	return &Service{
		config: cfg,
		store:  store,
		now:    time.Now,
	}
}

// Start launches the background cleanup loop. A no-op if already running.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"abandon_timeout", s.config.AbandonTimeout,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.reapAbandoned(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reapAbandoned(ctx)
		}
	}
}

// reapAbandoned marks every in-progress session whose last interaction is
// older than AbandonTimeout as abandoned. Each session is marked
// independently so one failure doesn't block the rest.
func (s *Service) reapAbandoned(ctx context.Context) {
	cutoff := s.now().Add(-s.config.AbandonTimeout)

	stale, err := s.store.ListAbandoned(ctx, cutoff)
	if err != nil {
		slog.Error("cleanup: list abandoned sessions failed", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	var marked int
	for _, rec := range stale {
		if err := s.store.MarkAbandoned(ctx, rec.ID); err != nil {
			slog.Error("cleanup: mark abandoned failed", "session_id", rec.ID, "error", err)
			continue
		}
		marked++
	}
	slog.Info("cleanup: marked sessions abandoned", "count", marked)
}
