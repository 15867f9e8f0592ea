package ordering

// Editing operations may be called at any time between questions. Each
// returns false on a duplicate name or out-of-range/identical index rather
// than an error — see spec.md §7 on why these are reported, not thrown.
// Any operation that could invalidate the active cursor does so.

// AddElement appends a new element with the given name. Returns false if
// the name already exists.
func (e *Engine) AddElement(name string) bool {
	if contains(e.eNames, name) {
		return false
	}
	e.eNames = append(e.eNames, name)
	e.log("added element %d: %s", len(e.eNames)-1, name)
	return true
}

// RemoveElement deletes the element at idx, rewriting every parameter's
// order (and the active window) to drop it and shift later indices down by
// one. Returns false if idx is out of range.
func (e *Engine) RemoveElement(idx int) bool {
	if idx < 0 || idx >= len(e.eNames) {
		return false
	}

	for i := range e.order {
		e.order[i] = removeAndShift(e.order[i], idx)
	}
	e.cur.window = removeAndShift(e.cur.window, idx)

	e.eNames = append(e.eNames[:idx:idx], e.eNames[idx+1:]...)

	if e.cur.state == cursorProbing {
		switch {
		case e.cur.elem == idx:
			e.cur = cursor{}
		case e.cur.elem > idx:
			e.cur.elem--
		}
	}

	e.log("removed element %d", idx)
	return true
}

// removeAndShift drops idx from s and decrements every value greater than
// idx, preserving order.
func removeAndShift(s []int, idx int) []int {
	out := make([]int, 0, len(s))
	for _, v := range s {
		switch {
		case v == idx:
			continue
		case v > idx:
			out = append(out, v-1)
		default:
			out = append(out, v)
		}
	}
	return out
}

// AddParameter appends a new parameter with the lowest priority. Returns
// false if the name already exists.
func (e *Engine) AddParameter(name string) bool {
	if contains(e.pNames, name) {
		return false
	}
	e.pNames = append(e.pNames, name)
	e.order = append(e.order, []int{})
	e.log("added parameter %d: %s (lowest priority)", len(e.pNames)-1, name)
	return true
}

// RemoveParameter deletes the parameter at idx. Returns false if idx is out
// of range.
func (e *Engine) RemoveParameter(idx int) bool {
	if idx < 0 || idx >= len(e.pNames) {
		return false
	}

	e.order = append(e.order[:idx:idx], e.order[idx+1:]...)
	e.pNames = append(e.pNames[:idx:idx], e.pNames[idx+1:]...)

	if e.cur.state == cursorProbing {
		switch {
		case e.cur.param == idx:
			e.cur = cursor{}
		case e.cur.param > idx:
			e.cur.param--
		}
	}

	e.log("removed parameter %d", idx)
	return true
}

// RenameElement renames the element at idx. Returns false if idx is out of
// range or the new name is already in use.
func (e *Engine) RenameElement(idx int, name string) bool {
	if idx < 0 || idx >= len(e.eNames) || contains(e.eNames, name) {
		return false
	}
	old := e.eNames[idx]
	e.eNames[idx] = name
	e.log("renamed element %d: %s -> %s", idx, old, name)
	return true
}

// RenameParameter renames the parameter at idx. Returns false if idx is out
// of range or the new name is already in use.
func (e *Engine) RenameParameter(idx int, name string) bool {
	if idx < 0 || idx >= len(e.pNames) || contains(e.pNames, name) {
		return false
	}
	old := e.pNames[idx]
	e.pNames[idx] = name
	e.log("renamed parameter %d: %s -> %s", idx, old, name)
	return true
}

// SwapParameterPriorities exchanges the priority ranks of parameters i and
// j. Returns false if either index is out of range or i == j.
func (e *Engine) SwapParameterPriorities(i, j int) bool {
	if i < 0 || i >= len(e.pNames) || j < 0 || j >= len(e.pNames) || i == j {
		return false
	}

	e.order[i], e.order[j] = e.order[j], e.order[i]
	e.pNames[i], e.pNames[j] = e.pNames[j], e.pNames[i]

	if e.cur.state == cursorProbing {
		switch e.cur.param {
		case i:
			e.cur.param = j
		case j:
			e.cur.param = i
		}
	}

	e.log("swapped parameters %d and %d", i, j)
	return true
}
