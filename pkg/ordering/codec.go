package ordering

// Record is the flat, serialization-friendly snapshot of an Engine — the
// canonical state schema from spec.md §6. Any encoding that preserves these
// types (JSON is the expected transport) may be used by a caller to suspend
// an Engine between requests and resume it later.
type Record struct {
	PNames         []string `json:"p_names"`
	ENames         []string `json:"e_names"`
	NumParameters  int      `json:"num_parameters"`
	NumElements    int      `json:"num_elements"`
	NumComparisons int      `json:"num_comparisons"`
	Prioritized    [][]int  `json:"prioritized"`
	NextElem       *int     `json:"next_elem"`
	NextParameter  *int     `json:"next_parameter"`
	NextRange      []int    `json:"next_range"`
	FinalList      []int    `json:"final_list"`
}

// Encode takes a pure snapshot of the engine's current state.
func (e *Engine) Encode() Record {
	prioritized := make([][]int, len(e.order))
	for i, o := range e.order {
		prioritized[i] = append([]int(nil), o...)
	}

	rec := Record{
		PNames:         e.ParameterNames(),
		ENames:         e.ElementNames(),
		NumParameters:  len(e.pNames),
		NumElements:    len(e.eNames),
		NumComparisons: e.numComparisons,
		Prioritized:    prioritized,
		NextRange:      append([]int(nil), e.cur.window...),
		FinalList:      e.FinalOrdering(),
	}
	if e.cur.state == cursorProbing {
		elem, param := e.cur.elem, e.cur.param
		rec.NextElem = &elem
		rec.NextParameter = &param
	}
	return rec
}

// Decode reconstitutes an Engine from a Record. The supplied parameters and
// elements must match the record's own name lists — they're carried
// redundantly in the record so a mismatch can be caught here rather than
// silently producing a differently-shaped engine. next() on the
// reconstituted engine returns the same question the original would have.
func Decode(rec Record, parameters, elements []string, opts ...Option) (*Engine, error) {
	if !stringSliceEqual(rec.PNames, parameters) || !stringSliceEqual(rec.ENames, elements) {
		return nil, ErrStateMismatch
	}
	if rec.NumParameters != len(parameters) || rec.NumElements != len(elements) {
		return nil, ErrStateMismatch
	}
	if len(rec.Prioritized) != len(parameters) {
		return nil, ErrCorruptState
	}

	n := len(elements)
	for _, o := range rec.Prioritized {
		if err := validIndices(o, n); err != nil {
			return nil, err
		}
	}
	if err := validIndices(rec.NextRange, n); err != nil {
		return nil, err
	}

	e, err := New(parameters, elements, opts...)
	if err != nil {
		return nil, err
	}

	e.numComparisons = rec.NumComparisons
	e.order = make([][]int, len(rec.Prioritized))
	for i, o := range rec.Prioritized {
		e.order[i] = append([]int(nil), o...)
	}

	switch {
	case rec.NextElem != nil && rec.NextParameter != nil:
		if *rec.NextParameter < 0 || *rec.NextParameter >= len(e.order) {
			return nil, ErrCorruptState
		}
		if *rec.NextElem < 0 || *rec.NextElem >= n {
			return nil, ErrCorruptState
		}
		e.cur = cursor{
			state:  cursorProbing,
			elem:   *rec.NextElem,
			param:  *rec.NextParameter,
			window: append([]int(nil), rec.NextRange...),
		}
	case rec.NextElem == nil && rec.NextParameter == nil:
		e.cur = cursor{}
	default:
		return nil, ErrCorruptState
	}

	return e, nil
}

func validIndices(s []int, n int) error {
	seen := make(map[int]struct{}, len(s))
	for _, v := range s {
		if v < 0 || v >= n {
			return ErrCorruptState
		}
		if _, dup := seen[v]; dup {
			return ErrCorruptState
		}
		seen[v] = struct{}{}
	}
	return nil
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
