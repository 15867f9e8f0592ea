package session

import (
	"context"
	"time"
)

// Store abstracts the persistence backing the driver. pkg/database provides
// the Postgres-backed implementation; tests use an in-memory fake (see
// newMemStore in driver_test.go) so the driver's control flow is exercised
// without a database.
type Store interface {
	Create(ctx context.Context, rec *Record) error

	// Get returns the session row for a read-only lookup, used by both Step
	// (which follows up with Update) and Resume (which never mutates). A
	// session only ever has one active participant, so Update is a plain
	// last-write-wins UPDATE rather than a lock held across the request —
	// see SPEC_FULL §5.
	Get(ctx context.Context, id string) (*Record, error)

	// Update persists rec as a plain last-write-wins write.
	Update(ctx context.Context, rec *Record) error

	AppendComparisonEvent(ctx context.Context, ev ComparisonEvent) error

	// ListAbandoned returns in-progress sessions whose LastInteractedAt is
	// older than cutoff, for pkg/cleanup to reap.
	ListAbandoned(ctx context.Context, cutoff time.Time) ([]*Record, error)

	// MarkAbandoned transitions an in-progress session to StatusAbandoned.
	// A no-op if the session has since completed.
	MarkAbandoned(ctx context.Context, id string) error
}

// InstrumentLookup resolves a named instrument to its parameter/element
// lists. pkg/config's registry satisfies this; defined locally to avoid
// session depending on config's full surface.
type InstrumentLookup interface {
	Lookup(name string) (parameters, elements []string, ok bool)
}

// EventPublisher is notified of each accepted comparison. pkg/events'
// Publisher satisfies this.
type EventPublisher interface {
	PublishComparison(ctx context.Context, ev ComparisonEvent) error
}
