package ordering

import "errors"

// Sentinel errors returned by Engine operations. Editing operations
// (AddElement, RemoveElement, ...) never return these — they report
// failure as a bool, see editing.go.
var (
	// ErrDuplicateName is returned by New when the parameter or element
	// list contains a repeated name.
	ErrDuplicateName = errors.New("ordering: duplicate name")

	// ErrNoPendingQuestion is returned by Answer when Next has not produced
	// a question since the last insertion (or the engine was just created).
	ErrNoPendingQuestion = errors.New("ordering: no pending question")

	// ErrAlreadyDone is returned by Answer once the engine is done.
	ErrAlreadyDone = errors.New("ordering: engine already done")

	// ErrStateMismatch is returned by Decode when the record's names don't
	// match the parameter/element lists supplied by the caller.
	ErrStateMismatch = errors.New("ordering: state does not match supplied names")

	// ErrCorruptState is returned by Decode when the record's shape is
	// internally inconsistent (out-of-range indices, wrong lengths, ...).
	ErrCorruptState = errors.New("ordering: corrupt state record")
)
