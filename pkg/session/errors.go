package session

import "errors"

var (
	// ErrNotFound is returned when a session ID has no matching record.
	ErrNotFound = errors.New("session: not found")

	// ErrUnknownInstrument is returned by Start when no instrument is
	// registered under the requested name.
	ErrUnknownInstrument = errors.New("session: unknown instrument")

	// ErrAlreadyCompleted is returned by Step when the session has already
	// produced a final ordering.
	ErrAlreadyCompleted = errors.New("session: already completed")

	// ErrStaleAnswer is returned by Step when the submitted answer's
	// (a, b, c) doesn't match the currently pending question.
	ErrStaleAnswer = errors.New("session: answer does not match pending question")

	// ErrInvalidChoice is returned by Step when Answer.Choice is neither
	// "lower" nor "higher".
	ErrInvalidChoice = errors.New("session: invalid choice")

	// ErrCorruptState is returned when a stored session's encoded engine
	// state fails to unmarshal.
	ErrCorruptState = errors.New("session: corrupt stored state")
)
