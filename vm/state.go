package vm

import (
	"fmt"
)

// State holds the two namespaces a Location can name. Constants are
// copied in once by NewState and never written again; variables come
// into existence on their first store.
type State struct {
	consts map[string]Value
	vars   map[string]Value
}

func NewState(consts map[string]Value) *State {
	s := &State{
		consts: make(map[string]Value, len(consts)),
		vars:   make(map[string]Value),
	}
	for k, v := range consts {
		s.consts[k] = v
	}
	return s
}

func (s *State) Resolve(loc Location) (Value, error) {
	ns := s.vars
	if loc.IsConst() {
		ns = s.consts
	}
	val, exists := ns[loc.Name]
	if !exists {
		return Null(), fmt.Errorf("%w: %s '%s' does not exist", ErrLookup, loc.Space, loc.Name)
	}
	return val, nil
}

func (s *State) Store(loc Location, v Value) error {
	if loc.IsConst() {
		return fmt.Errorf("%w: cannot store into const '%s'", ErrKindMismatch, loc.Name)
	}
	s.vars[loc.Name] = v
	return nil
}

// Vars copies the variable table.
func (s *State) Vars() map[string]Value {
	out := make(map[string]Value, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}
