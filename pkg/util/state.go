package util

// StateTransitions maps states to their set of valid next states
//
// Generic transition tables validate lifecycle changes and also describe
// partial orders, such as the property usage lift order, through Reaches
type StateTransitions[T comparable] map[T]Set[T]

// CanTransition returns whether transition from one state to another is valid
func (t StateTransitions[T]) CanTransition(from, to T) bool {
	allowed, ok := t[from]
	if !ok {
		return false
	}
	return allowed.Contains(to)
}

// IsTerminal returns true if the state has no valid transitions
func (t StateTransitions[T]) IsTerminal(state T) bool {
	allowed, ok := t[state]
	return ok && allowed.IsEmpty()
}

// Reaches returns whether to is reachable from from by following zero or
// more transitions
func (t StateTransitions[T]) Reaches(from, to T) bool {
	if from == to {
		return true
	}
	seen := SetOf(from)
	pending := []T{from}
	for len(pending) > 0 {
		cur := pending[0]
		pending = pending[1:]
		for next := range t[cur] {
			if next == to {
				return true
			}
			if !seen.Contains(next) {
				seen.Add(next)
				pending = append(pending, next)
			}
		}
	}
	return false
}
