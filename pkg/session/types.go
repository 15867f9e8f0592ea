// Package session implements the Session Driver: the external contract a
// caller (typically pkg/api) uses to run an ordering engine across many
// independent HTTP requests. It owns no SQL — persistence is abstracted
// behind the Store interface so the driver's Start/Step/Resume logic stays
// testable against an in-memory fake, the way the teacher's service layer
// is tested against a fake ent client.
package session

import "time"

// Status is the lifecycle state of a participant session.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// IsValid reports whether s is one of the defined statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// Record is the persisted row for one ordering session. State carries the
// engine's encoded ordering.Record as opaque JSON from this package's point
// of view — only pkg/database needs to know it's JSONB.
type Record struct {
	ID               string
	Instrument       string
	ParticipantID    string
	Status           Status
	State            []byte
	FinalOrdering    []int
	NumComparisons   int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastInteractedAt time.Time
}

// ComparisonEvent is one accepted answer, persisted as an audit row and
// published for live subscribers. SeqNo is the comparison counter's value
// immediately after the answer was accepted.
type ComparisonEvent struct {
	SessionID string
	SeqNo     int
	ElemA     int
	ElemB     int
	Param     int
	Choice    string
	At        time.Time
}

// Answer is the caller-supplied response to the currently pending question.
// A and B must match the session's pending question's Elem and Comparand
// (in either order); C must match its Param. This lets Step reject a stale
// answer submitted against a question the session has already moved past.
type Answer struct {
	A      int
	B      int
	C      int
	Choice string
}
