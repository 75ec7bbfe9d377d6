// Package input tracks named discrete actions across ticks and answers
// "just pressed", "held" and "held-with-repeat" queries.
package input

import "time"

// Action names consumed by the editor.
const (
	MoveForward = "move_forward"
	MoveBack    = "move_back"
	MoveLeft    = "move_left"
	MoveRight   = "move_right"
	MoveUp      = "move_up"
	MoveDown    = "move_down"

	ExpandForward = "expand_selection_forward"
	ExpandBack    = "expand_selection_back"
	ExpandLeft    = "expand_selection_left"
	ExpandRight   = "expand_selection_right"
	ExpandUp      = "expand_selection_up"
	ExpandDown    = "expand_selection_down"

	RotateLeft  = "rotate_selection_left"
	RotateRight = "rotate_selection_right"

	Insertion = "insertion"
	Removal   = "removal"
)

// Source is the read side the editor consults each tick.
type Source interface {
	JustPressed(action string) bool
	Held(action string) bool
	// Repeated fires on the first press and then once per interval while held.
	Repeated(action string, interval time.Duration) bool
}

type actionState struct {
	held        bool
	pending     bool
	justPressed bool
	heldFor     time.Duration
	prevHeldFor time.Duration
}

// State is an in-memory Source. Press and Release record edges; Advance
// publishes them and moves the hold clocks, once per tick before the
// editor reads.
type State struct {
	actions map[string]*actionState
}

func NewState() *State {
	return &State{actions: map[string]*actionState{}}
}

func (s *State) get(action string) *actionState {
	a := s.actions[action]
	if a == nil {
		a = &actionState{}
		s.actions[action] = a
	}
	return a
}

func (s *State) Press(action string) {
	a := s.get(action)
	if a.held {
		return
	}
	a.held = true
	a.pending = true
}

func (s *State) Release(action string) {
	a := s.get(action)
	*a = actionState{}
}

func (s *State) Advance(dt time.Duration) {
	for _, a := range s.actions {
		if !a.held {
			continue
		}
		if a.pending {
			a.pending = false
			a.justPressed = true
			a.heldFor = 0
			a.prevHeldFor = 0
			continue
		}
		a.justPressed = false
		a.prevHeldFor = a.heldFor
		a.heldFor += dt
	}
}

func (s *State) JustPressed(action string) bool {
	a := s.actions[action]
	return a != nil && a.justPressed
}

func (s *State) Held(action string) bool {
	a := s.actions[action]
	return a != nil && a.held && !a.pending
}

func (s *State) Repeated(action string, interval time.Duration) bool {
	a := s.actions[action]
	if a == nil || !a.held || a.pending {
		return false
	}
	if a.justPressed || interval <= 0 {
		return a.justPressed || a.heldFor > a.prevHeldFor
	}
	return a.heldFor/interval > a.prevHeldFor/interval
}
