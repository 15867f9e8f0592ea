// Package ordering implements the comparison-driven ordering engine: a
// stateful binary-insertion sort across one or more priority-ordered
// parameters, driven by a human answering "which is higher?" questions.
//
// An Engine owns no I/O. Callers drive it through Next/Answer and persist
// its state between calls via Encode/Decode (see codec.go). A single
// Engine value is not safe for concurrent use.
package ordering

// Choice is the answer to a pending Question: whether the candidate
// element ranks lower or higher than the element it was compared against.
type Choice string

const (
	// Lower means priority(question.Elem) < priority(question.Comparand).
	Lower Choice = "lower"
	// Higher means priority(question.Elem) > priority(question.Comparand).
	Higher Choice = "higher"
)

// IsValid reports whether c is one of the two defined choices.
func (c Choice) IsValid() bool {
	return c == Lower || c == Higher
}

// Question is a pending comparison: the engine wants to know how Elem
// ranks against Comparand under parameter Param.
type Question struct {
	Elem      int
	Comparand int
	Param     int
}

// Logger receives a human-readable trace of engine mutations. Engines log
// nothing by default; pass WithLogger to opt in. There is no global or
// process-wide logging state.
type Logger interface {
	Logf(format string, args ...any)
}

// cursorState tags the two shapes a cursor can take, replacing the
// source's three-nullable-fields representation (next_elem/next_parameter/
// next_range all nil, or all set) with a variant that can't be partially set.
type cursorState int

const (
	cursorIdle cursorState = iota
	cursorProbing
)

// cursor is the engine's record of the in-flight insertion. When idle, elem
// and param are meaningless and window is empty/nil.
type cursor struct {
	state  cursorState
	elem   int
	param  int
	window []int // contiguous subslice of order[param]; a private copy
}

// Engine drives a binary-insertion ordering under human comparison across
// k parameters ranked by importance. See New to construct one.
type Engine struct {
	pNames []string
	eNames []string
	order  [][]int // order[i] is the working order for parameter i

	numComparisons int
	cur            cursor

	logger Logger
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger attaches a sink for the engine's internal trace. Omit it (the
// default) to log nothing.
func WithLogger(l Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func (e *Engine) log(format string, args ...any) {
	if e.logger != nil {
		e.logger.Logf(format, args...)
	}
}

// New creates an Engine for the given parameter and element name lists.
// Parameters are ordered highest-priority first. Either list may be empty.
func New(parameters, elements []string, opts ...Option) (*Engine, error) {
	if hasDuplicate(parameters) || hasDuplicate(elements) {
		return nil, ErrDuplicateName
	}

	e := &Engine{
		pNames: append([]string(nil), parameters...),
		eNames: append([]string(nil), elements...),
		order:  make([][]int, len(parameters)),
	}
	for i := range e.order {
		e.order[i] = []int{}
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log("engine created: %d parameters, %d elements", len(e.pNames), len(e.eNames))
	return e, nil
}

// ParameterNames returns a copy of the current parameter list.
func (e *Engine) ParameterNames() []string {
	return append([]string(nil), e.pNames...)
}

// ElementNames returns a copy of the current element list.
func (e *Engine) ElementNames() []string {
	return append([]string(nil), e.eNames...)
}

// NumComparisons returns the number of answers accepted so far.
func (e *Engine) NumComparisons() int {
	return e.numComparisons
}

// IsDone reports whether every parameter's order contains every element.
func (e *Engine) IsDone() bool {
	total := len(e.pNames) * len(e.eNames)
	return e.totalOrdered() == total
}

func (e *Engine) totalOrdered() int {
	sum := 0
	for _, o := range e.order {
		sum += len(o)
	}
	return sum
}

// Progress returns the fraction of (parameter, element) slots filled, as a
// percentage in [0, 100]. Zero when there are no parameters or no elements.
func (e *Engine) Progress() float64 {
	total := len(e.pNames) * len(e.eNames)
	if total == 0 {
		return 0
	}
	return 100 * float64(e.totalOrdered()) / float64(total)
}

func hasDuplicate(names []string) bool {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return true
		}
		seen[n] = struct{}{}
	}
	return false
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
