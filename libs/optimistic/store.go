package optimistic

import (
	"context"
	"sync"
)

// Outcome reports how an optimistic mutation ended.
type Outcome int

const (
	// Committed: the backend accepted the value and it is (still) visible.
	Committed Outcome = iota
	// RolledBack: the backend rejected the value and the last committed value is visible again.
	RolledBack
	// Superseded: a newer intent for the same entity was issued before this one resolved.
	Superseded
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return "superseded"
	}
}

// Result is returned for every Apply. Value is the visible value once the mutation settled; Err
// is the remote error, if any.
type Result[V any] struct {
	Outcome Outcome
	Value   V
	Err     error
}

func (r Result[V]) OK() bool { return r.Err == nil }

// MutateFunc performs the remote mutation for one entity.
type MutateFunc[V any] func(ctx context.Context, proposed V) error

// Store keeps visible values of one mutable field for a set of entities, applying user intents
// immediately and reconciling them with the backend's answer.
type Store[K comparable, V any] struct {
	mu        sync.Mutex
	states    map[K]State[V]
	seq       uint64
	detached  bool
	onSettled []func(K, Result[V])
}

func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{states: map[K]State[V]{}}
}

// OnSettled registers fn to run after each mutation resolves, outside the store lock.
func (s *Store[K, V]) OnSettled(fn func(K, Result[V])) {
	s.mu.Lock()
	s.onSettled = append(s.onSettled, fn)
	s.mu.Unlock()
}

// Seed installs an authoritative value, typically from a fresh read. Entities with a mutation in
// flight keep their optimistic value.
func (s *Store[K, V]) Seed(id K, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[id]
	if st.Pending > 0 {
		return
	}
	s.states[id] = State[V]{Phase: PhaseCommitted, Committed: v, Visible: v, Latest: st.Latest, Settled: true}
}

func (s *Store[K, V]) SeedAll(values map[K]V) {
	for id, v := range values {
		s.Seed(id, v)
	}
}

func (s *Store[K, V]) Value(id K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	return st.Visible, ok
}

func (s *Store[K, V]) State(id K) (State[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	return st, ok
}

func (s *Store[K, V]) Pending(id K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[id].Pending > 0
}

// Snapshot returns the visible value of every known entity.
func (s *Store[K, V]) Snapshot() map[K]V {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[K]V, len(s.states))
	for id, st := range s.states {
		out[id] = st.Visible
	}
	return out
}

// Detach stops completions from touching visible state. Mutations already dispatched still run
// to completion.
func (s *Store[K, V]) Detach() {
	s.mu.Lock()
	s.detached = true
	s.mu.Unlock()
}

// Apply makes proposed visible for id, then runs mutate and reconciles. The remote call is not
// cancelled when ctx is; once dispatched it runs to completion.
func (s *Store[K, V]) Apply(ctx context.Context, id K, proposed V, mutate MutateFunc[V]) Result[V] {
	seq := s.propose(id, proposed)
	err := mutate(context.WithoutCancel(ctx), proposed)
	return s.settle(id, seq, proposed, err)
}

// ApplyAsync is Apply with the remote call running on its own goroutine. The proposed value is
// visible when ApplyAsync returns.
func (s *Store[K, V]) ApplyAsync(ctx context.Context, id K, proposed V, mutate MutateFunc[V]) <-chan Result[V] {
	seq := s.propose(id, proposed)
	out := make(chan Result[V], 1)
	go func() {
		err := mutate(context.WithoutCancel(ctx), proposed)
		out <- s.settle(id, seq, proposed, err)
	}()
	return out
}

func (s *Store[K, V]) propose(id K, proposed V) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	st, ok := s.states[id]
	if !ok {
		// Unknown entity: the value before the intent is the zero value.
		st = State[V]{}
	}
	s.states[id] = Transition(st, Event[V]{Kind: EventPropose, Seq: s.seq, Value: proposed})
	return s.seq
}

func (s *Store[K, V]) settle(id K, seq uint64, proposed V, err error) Result[V] {
	s.mu.Lock()
	st := s.states[id]
	latest := st.Latest == seq

	if !s.detached {
		kind := EventSucceed
		if err != nil {
			kind = EventFail
		}
		st = Transition(st, Event[V]{Kind: kind, Seq: seq, Value: proposed})
		s.states[id] = st
	}

	res := Result[V]{Value: st.Visible, Err: err}
	switch {
	case !latest:
		res.Outcome = Superseded
	case err != nil:
		res.Outcome = RolledBack
	default:
		res.Outcome = Committed
	}
	hooks := append([]func(K, Result[V]){}, s.onSettled...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(id, res)
	}
	return res
}
