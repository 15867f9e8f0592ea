package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arborly/risklab/pkg/ordering"
)

// Logger receives a human-readable trace of driver activity, mirroring
// ordering.Logger so both layers can share one sink.
type Logger interface {
	Logf(format string, args ...any)
}

// Driver is the external contract for running ordering engines across HTTP
// requests: Start creates a session, Step advances it by one answer, Resume
// re-reads its current question without mutating anything.
type Driver struct {
	store       Store
	instruments InstrumentLookup
	events      EventPublisher
	logger      Logger
	now         func() time.Time
}

// Option configures a Driver at construction time.
type Option func(*Driver)

// WithLogger attaches a trace sink. Omit it to log nothing.
func WithLogger(l Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithClock overrides the driver's time source. Tests use this to avoid
// depending on wall-clock time.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// NewDriver constructs a Driver.
func NewDriver(store Store, instruments InstrumentLookup, events EventPublisher, opts ...Option) *Driver {
	d := &Driver{
		store:       store,
		instruments: instruments,
		events:      events,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) log(format string, args ...any) {
	if d.logger != nil {
		d.logger.Logf(format, args...)
	}
}

// Outcome is what Start/Step/Resume hands back to the caller: either a
// pending question or, once the engine is done, the final ordering.
type Outcome struct {
	SessionID      string
	Done           bool
	Question       ordering.Question
	FinalOrdering  []int
	NumComparisons int
}

// Start creates a new session for the named instrument and returns its
// first question (or an immediately-final outcome for degenerate
// instruments — see ordering.Engine.Next on k=0/n=0/n=1).
func (d *Driver) Start(ctx context.Context, instrument, participantID string) (Outcome, error) {
	parameters, elements, ok := d.instruments.Lookup(instrument)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, instrument)
	}

	engine, err := ordering.New(parameters, elements)
	if err != nil {
		return Outcome{}, err
	}

	id := uuid.New().String()
	now := d.now()
	rec := &Record{
		ID:               id,
		Instrument:       instrument,
		ParticipantID:    participantID,
		Status:           StatusInProgress,
		CreatedAt:        now,
		UpdatedAt:        now,
		LastInteractedAt: now,
	}

	outcome := d.advance(engine, id)
	if err := encodeInto(rec, engine, outcome); err != nil {
		return Outcome{}, err
	}
	if outcome.Done {
		rec.Status = StatusCompleted
	}

	if err := d.store.Create(ctx, rec); err != nil {
		return Outcome{}, fmt.Errorf("create session: %w", err)
	}
	d.log("session %s started for instrument %q", id, instrument)
	return outcome, nil
}

// Step applies ans to the session's pending question and returns the next
// one, or the final ordering once the engine completes.
func (d *Driver) Step(ctx context.Context, sessionID string, ans Answer) (Outcome, error) {
	choice := ordering.Choice(ans.Choice)
	if !choice.IsValid() {
		return Outcome{}, ErrInvalidChoice
	}

	rec, err := d.store.Get(ctx, sessionID)
	if err != nil {
		return Outcome{}, err
	}
	if rec.Status == StatusCompleted {
		return Outcome{}, ErrAlreadyCompleted
	}

	parameters, elements, ok := d.instruments.Lookup(rec.Instrument)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, rec.Instrument)
	}

	var codecRec ordering.Record
	if err := decodeRecord(rec.State, &codecRec); err != nil {
		return Outcome{}, err
	}
	engine, err := ordering.Decode(codecRec, parameters, elements)
	if err != nil {
		return Outcome{}, err
	}

	q, ok := engine.Next()
	if !ok {
		return Outcome{}, ErrAlreadyCompleted
	}
	if q.Elem != ans.A && q.Elem != ans.B {
		return Outcome{}, ErrStaleAnswer
	}
	if q.Comparand != ans.A && q.Comparand != ans.B {
		return Outcome{}, ErrStaleAnswer
	}
	if q.Param != ans.C {
		return Outcome{}, ErrStaleAnswer
	}

	if err := engine.Answer(choice); err != nil {
		return Outcome{}, err
	}

	ev := ComparisonEvent{
		SessionID: sessionID,
		SeqNo:     engine.NumComparisons(),
		ElemA:     q.Elem,
		ElemB:     q.Comparand,
		Param:     q.Param,
		Choice:    ans.Choice,
		At:        d.now(),
	}
	if err := d.store.AppendComparisonEvent(ctx, ev); err != nil {
		return Outcome{}, fmt.Errorf("append comparison event: %w", err)
	}
	if d.events != nil {
		if err := d.events.PublishComparison(ctx, ev); err != nil {
			d.log("session %s: publish comparison failed: %v", sessionID, err)
		}
	}

	outcome := d.advance(engine, sessionID)
	if err := encodeInto(rec, engine, outcome); err != nil {
		return Outcome{}, err
	}
	rec.UpdatedAt = d.now()
	rec.LastInteractedAt = rec.UpdatedAt
	if outcome.Done {
		rec.Status = StatusCompleted
	}

	if err := d.store.Update(ctx, rec); err != nil {
		return Outcome{}, fmt.Errorf("update session: %w", err)
	}
	return outcome, nil
}

// Resume returns the session's current pending question (or final
// ordering) without mutating any state. Used when a participant reloads the
// page or switches device and needs to rejoin an in-flight session.
func (d *Driver) Resume(ctx context.Context, sessionID string) (Outcome, error) {
	rec, err := d.store.Get(ctx, sessionID)
	if err != nil {
		return Outcome{}, err
	}
	if rec.Status == StatusCompleted {
		return Outcome{
			SessionID:      sessionID,
			Done:           true,
			FinalOrdering:  rec.FinalOrdering,
			NumComparisons: rec.NumComparisons,
		}, nil
	}

	parameters, elements, ok := d.instruments.Lookup(rec.Instrument)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownInstrument, rec.Instrument)
	}

	var codecRec ordering.Record
	if err := decodeRecord(rec.State, &codecRec); err != nil {
		return Outcome{}, err
	}
	engine, err := ordering.Decode(codecRec, parameters, elements)
	if err != nil {
		return Outcome{}, err
	}

	q, ok := engine.Next()
	if !ok {
		return Outcome{
			SessionID:      sessionID,
			Done:           true,
			FinalOrdering:  engine.FinalOrdering(),
			NumComparisons: engine.NumComparisons(),
		}, nil
	}
	return Outcome{SessionID: sessionID, Question: q, NumComparisons: engine.NumComparisons()}, nil
}

// advance calls Next once more after a mutation and shapes the result into
// an Outcome, without persisting — callers encode and save the returned
// engine state themselves.
func (d *Driver) advance(engine *ordering.Engine, sessionID string) Outcome {
	q, ok := engine.Next()
	if !ok {
		return Outcome{
			SessionID:      sessionID,
			Done:           true,
			FinalOrdering:  engine.FinalOrdering(),
			NumComparisons: engine.NumComparisons(),
		}
	}
	return Outcome{SessionID: sessionID, Question: q, NumComparisons: engine.NumComparisons()}
}
