package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/arborly/risklab/pkg/session"
)

// SessionStore implements pkg/session.Store against the sessions and
// comparison_events tables.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a SessionStore backed by db.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create inserts a new session row.
func (s *SessionStore) Create(ctx context.Context, rec *session.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions
			(id, instrument, participant_id, status, state, final_ordering,
			 num_comparisons, created_at, updated_at, last_interacted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.Instrument, rec.ParticipantID, string(rec.Status), rec.State,
		pq.Array(rec.FinalOrdering), rec.NumComparisons,
		rec.CreatedAt, rec.UpdatedAt, rec.LastInteractedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", rec.ID, err)
	}
	return nil
}

// Get reads the session row for id.
func (s *SessionStore) Get(ctx context.Context, id string) (*session.Record, error) {
	rec := &session.Record{ID: id}
	var status string
	var finalOrdering pq.Int64Array

	row := s.db.QueryRowContext(ctx,
		`SELECT instrument, participant_id, status, state, final_ordering,
				num_comparisons, created_at, updated_at, last_interacted_at
		 FROM sessions WHERE id = $1`, id)
	err := row.Scan(&rec.Instrument, &rec.ParticipantID, &status, &rec.State,
		&finalOrdering, &rec.NumComparisons, &rec.CreatedAt, &rec.UpdatedAt, &rec.LastInteractedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	rec.Status = session.Status(status)
	if len(finalOrdering) > 0 {
		rec.FinalOrdering = make([]int, len(finalOrdering))
		for i, v := range finalOrdering {
			rec.FinalOrdering[i] = int(v)
		}
	}
	return rec, nil
}

// Update persists rec as a last-write-wins UPDATE. A session has exactly
// one active participant, so no cross-request locking is needed.
func (s *SessionStore) Update(ctx context.Context, rec *session.Record) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET
			status = $2, state = $3, final_ordering = $4,
			num_comparisons = $5, updated_at = $6, last_interacted_at = $7
		 WHERE id = $1`,
		rec.ID, string(rec.Status), rec.State, pq.Array(rec.FinalOrdering),
		rec.NumComparisons, rec.UpdatedAt, rec.LastInteractedAt,
	)
	if err != nil {
		return fmt.Errorf("update session %s: %w", rec.ID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session %s: %w", rec.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", session.ErrNotFound, rec.ID)
	}
	return nil
}

// AppendComparisonEvent inserts one audit row for an accepted answer.
func (s *SessionStore) AppendComparisonEvent(ctx context.Context, ev session.ComparisonEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comparison_events (session_id, seq_no, elem_a, elem_b, param, choice, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.SessionID, ev.SeqNo, ev.ElemA, ev.ElemB, ev.Param, ev.Choice, ev.At,
	)
	if err != nil {
		return fmt.Errorf("append comparison event for session %s: %w", ev.SessionID, err)
	}
	return nil
}

// ListAbandoned returns in-progress sessions whose last interaction
// predates cutoff.
func (s *SessionStore) ListAbandoned(ctx context.Context, cutoff time.Time) ([]*session.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, instrument, participant_id, status, state, final_ordering,
				num_comparisons, created_at, updated_at, last_interacted_at
		 FROM sessions
		 WHERE status = $1 AND last_interacted_at < $2`,
		string(session.StatusInProgress), cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("list abandoned sessions: %w", err)
	}
	defer rows.Close()

	var result []*session.Record
	for rows.Next() {
		rec := &session.Record{}
		var status string
		var finalOrdering pq.Int64Array
		if err := rows.Scan(&rec.ID, &rec.Instrument, &rec.ParticipantID, &status, &rec.State,
			&finalOrdering, &rec.NumComparisons, &rec.CreatedAt, &rec.UpdatedAt, &rec.LastInteractedAt); err != nil {
			return nil, fmt.Errorf("scan abandoned session: %w", err)
		}
		rec.Status = session.Status(status)
		if len(finalOrdering) > 0 {
			rec.FinalOrdering = make([]int, len(finalOrdering))
			for i, v := range finalOrdering {
				rec.FinalOrdering[i] = int(v)
			}
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate abandoned sessions: %w", err)
	}
	return result, nil
}

// MarkAbandoned transitions an in-progress session to abandoned. A no-op
// if the session has since completed.
func (s *SessionStore) MarkAbandoned(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = $3`,
		id, string(session.StatusAbandoned), string(session.StatusInProgress),
	)
	if err != nil {
		return fmt.Errorf("mark session %s abandoned: %w", id, err)
	}
	return nil
}
