package monitor

import "github.com/rewired-gh/oddsticker/internal/models"

// State is the Retained State between cycles: the previous value of every
// instrument in one scale. A State is never modified after construction;
// each cycle produces a new one.
type State struct {
	scale  models.Scale
	values map[string]float64
}

// NewState returns an empty State for a scale.
func NewState(scale models.Scale) State {
	return State{scale: scale, values: map[string]float64{}}
}

// StateFrom builds a State from explicit values. The map is copied.
func StateFrom(scale models.Scale, values map[string]float64) State {
	s := State{scale: scale, values: make(map[string]float64, len(values))}
	for id, v := range values {
		s.values[id] = v
	}
	return s
}

// Scale returns the unit the values are expressed in.
func (s State) Scale() models.Scale {
	return s.scale
}

// Len returns the number of retained instruments.
func (s State) Len() int {
	return len(s.values)
}

// Value returns the retained value for an identifier.
func (s State) Value(id string) (float64, bool) {
	v, ok := s.values[id]
	return v, ok
}

// Values returns a copy of the retained values.
func (s State) Values() map[string]float64 {
	out := make(map[string]float64, len(s.values))
	for id, v := range s.values {
		out[id] = v
	}
	return out
}

// StateHolder owns the Retained State for one polling loop. It is created
// empty, replaced wholesale after each successful cycle, and left untouched
// when a cycle is skipped. It is not safe for concurrent use; the loop that
// drives the cycles is its only reader and writer.
type StateHolder struct {
	state State
}

// NewStateHolder returns a holder with an empty State.
func NewStateHolder(scale models.Scale) *StateHolder {
	return &StateHolder{state: NewState(scale)}
}

// Current returns the retained State.
func (h *StateHolder) Current() State {
	return h.state
}

// Replace swaps in the State produced by the latest cycle.
func (h *StateHolder) Replace(s State) {
	h.state = s
}
