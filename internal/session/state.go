package session

import "sync"

// Phase enumerates the four client-visible states of a session.
type Phase int

const (
	// PhasePublic is the default state: no private chat context.
	PhasePublic Phase = iota

	// PhaseWaiting means this session offered a private chat and awaits
	// the target's answer.
	PhaseWaiting

	// PhasePending means another session offered a private chat and
	// awaits this session's answer.
	PhasePending

	// PhasePrivate is an active encrypted private chat.
	PhasePrivate
)

func (p Phase) String() string {
	switch p {
	case PhasePublic:
		return "public chat"
	case PhaseWaiting:
		return "waiting for private chat response"
	case PhasePending:
		return "pending private chat request"
	case PhasePrivate:
		return "private chat"
	default:
		return "unknown"
	}
}

// State is the session state with its phase-dependent payload.  Partner and
// Key are meaningful for every phase except PhasePublic: the chat target for
// PhaseWaiting, the requesting user for PhasePending, and the chat partner
// for PhasePrivate.  Key is the 32-byte session key; it is generated once by
// the initiator and never regenerated mid-session.
type State struct {
	Phase   Phase
	Partner string
	Key     []byte
}

// stateCell guards the session state.  Both the reader and the writer task
// mutate it; no other session ever touches it.  Critical sections are plain
// memory operations, never I/O.
type stateCell struct {
	mu sync.Mutex
	s  State
}

// Get returns a copy of the current state.
func (c *stateCell) Get() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}

// Set unconditionally replaces the state.
func (c *stateCell) Set(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.s = s
}

// Transition applies fn to the current state under the lock.  fn returns the
// new state and whether to apply it; Transition reports the prior state and
// whether the transition happened.  Racing transitions from the two tasks
// serialize here; whichever acquires the lock first wins.
func (c *stateCell) Transition(fn func(State) (State, bool)) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.s
	next, ok := fn(old)
	if ok {
		c.s = next
	}
	return old, ok
}
