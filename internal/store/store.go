// Package store holds single-owner state with reducer-driven updates and
// latest-wins change subscriptions.
package store

import "sync"

// Reducer applies one action to a state and returns the next state.
// Reducers must be pure.
type Reducer[S, A any] func(state S, action A) S

// Store owns a state value. Only the owner dispatches; everyone else reads
// snapshots or subscribes.
type Store[S, A any] struct {
	mu     sync.RWMutex
	state  S
	reduce Reducer[S, A]

	subMu  sync.Mutex
	subs   map[uint64]chan S
	nextID uint64
}

// New creates a store seeded with initial.
func New[S, A any](initial S, reduce Reducer[S, A]) *Store[S, A] {
	return &Store[S, A]{
		state:  initial,
		reduce: reduce,
		subs:   make(map[uint64]chan S),
	}
}

// State returns the current snapshot.
func (s *Store[S, A]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies actions in order as one transition and notifies
// subscribers once with the resulting state.
func (s *Store[S, A]) Dispatch(actions ...A) S {
	if len(actions) == 0 {
		return s.State()
	}

	s.mu.Lock()
	next := s.state
	for _, a := range actions {
		next = s.reduce(next, a)
	}
	s.state = next

	// Publish while still holding the write lock so subscribers observe
	// transitions in dispatch order.
	s.publish(next)
	s.mu.Unlock()

	return next
}

// Subscribe returns a channel that always holds the most recent state not yet
// consumed, and a cancel function that closes it.
func (s *Store[S, A]) Subscribe() (<-chan S, func()) {
	ch := make(chan S, 1)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of live subscriptions.
func (s *Store[S, A]) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

func (s *Store[S, A]) publish(state S) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		// drop the unread snapshot, then deliver the newest one
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
}

// Replace is a reducer whose action is the whole next state.
func Replace[S any](_ S, next S) S {
	return next
}
