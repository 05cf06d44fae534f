// Package registry maintains the shared table of online users.  It is the
// only globally shared mutable structure in the server: every cross-session
// effect flows through it as an enqueued line, never through shared pointers
// into another session's state.
package registry

import (
	"errors"
	"sort"
	"sync"

	"gopkg.in/op/go-logging.v1"

	"goparley/internal/instrument"
	"goparley/internal/queue"
)

var (
	// ErrDuplicateNickname is returned by Register when the nickname
	// already has a live session.
	ErrDuplicateNickname = errors.New("registry: nickname already online")

	// ErrNotFound is returned by SendTo when the recipient is not
	// registered, or is registered but its writer has stopped consuming.
	ErrNotFound = errors.New("registry: user not found or offline")
)

// Registry maps nicknames to their delivery queues.  All operations serialize
// on one mutex; none of them perform I/O while holding it.
type Registry struct {
	mu  sync.Mutex
	log *logging.Logger

	sessions map[string]*queue.Queue
}

// New creates an empty Registry.
func New(log *logging.Logger) *Registry {
	return &Registry{
		log:      log,
		sessions: make(map[string]*queue.Queue),
	}
}

// Register inserts a delivery queue for nickname.  The check and the insert
// are one critical section, so at most one live session per nickname can ever
// exist.
func (r *Registry) Register(nickname string, q *queue.Queue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[nickname]; exists {
		return ErrDuplicateNickname
	}
	r.sessions[nickname] = q
	return nil
}

// Unregister removes nickname and closes its queue so the owning writer task
// drains and exits.  Calling it for an absent nickname is a no-op.
func (r *Registry) Unregister(nickname string) {
	r.mu.Lock()
	q, ok := r.sessions[nickname]
	if ok {
		delete(r.sessions, nickname)
	}
	r.mu.Unlock()
	if ok {
		instrument.ObserveQueueDepth(q.HighWater())
		q.Close()
	}
}

// SendTo enqueues msg for nickname.  A closed queue is reported the same way
// as an unknown nickname; the distinction does not matter to a sender.
func (r *Registry) SendTo(nickname, msg string) error {
	r.mu.Lock()
	q, ok := r.sessions[nickname]
	r.mu.Unlock()
	if !ok || !q.Push(msg) {
		instrument.DeliveryFailure()
		r.log.Debugf("delivery to %q failed: not online", nickname)
		return ErrNotFound
	}
	return nil
}

// BroadcastExcept enqueues msg to every registered user other than sender.
// Per-recipient failures are ignored; fan-out is best effort.
func (r *Registry) BroadcastExcept(sender, msg string) {
	r.mu.Lock()
	for nickname, q := range r.sessions {
		if nickname == sender {
			continue
		}
		q.Push(msg)
	}
	r.mu.Unlock()
	instrument.BroadcastSent()
}

// ListExcept returns a sorted snapshot of online nicknames excluding the
// caller.
func (r *Registry) ListExcept(nickname string) []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.sessions))
	for name := range r.sessions {
		if name == nickname {
			continue
		}
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}

// Count returns the number of online users.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
