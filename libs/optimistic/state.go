package optimistic

// Phase is the per-entity state of a mutable field.
type Phase int

const (
	PhaseCommitted Phase = iota
	PhaseOptimistic
)

func (p Phase) String() string {
	if p == PhaseOptimistic {
		return "optimistic"
	}
	return "committed"
}

// State is what the store knows about one entity. Committed is the last value confirmed by the
// backend; Visible is what readers see. Latest is the sequence number of the most recent user
// intent, Settled whether that intent has resolved, and Pending the number of mutations still in
// flight. The phase is committed only when nothing is pending, and then Visible equals Committed.
type State[V any] struct {
	Phase     Phase
	Committed V
	Visible   V
	Latest    uint64
	Settled   bool
	Pending   int
}

type EventKind int

const (
	EventPropose EventKind = iota
	EventSucceed
	EventFail
)

// Event drives Transition. Seq identifies the mutation; Value is the proposed value.
type Event[V any] struct {
	Kind  EventKind
	Seq   uint64
	Value V
}

// Transition applies ev to s.
//
//	Committed(v)          --propose(v')-->  Optimistic(v', pending)
//	Optimistic(v', seq)   --succeed(seq)--> Committed(v')
//	Optimistic(v', seq)   --fail(seq)-->    Committed(v)
//
// While the latest intent is unresolved, outcomes of older mutations only move the committed
// value. Once it has resolved, the visible value follows the committed one, so a late answer for
// an older mutation is still shown. The phase stays optimistic until every mutation has answered.
func Transition[V any](s State[V], ev Event[V]) State[V] {
	switch ev.Kind {
	case EventPropose:
		s.Phase = PhaseOptimistic
		s.Visible = ev.Value
		s.Latest = ev.Seq
		s.Settled = false
		s.Pending++
		return s
	case EventSucceed:
		s.Pending = max(s.Pending-1, 0)
		s.Committed = ev.Value
	case EventFail:
		s.Pending = max(s.Pending-1, 0)
	}
	if ev.Seq == s.Latest {
		s.Settled = true
	}
	if s.Settled {
		s.Visible = s.Committed
	}
	if s.Settled && s.Pending == 0 {
		s.Phase = PhaseCommitted
	} else {
		s.Phase = PhaseOptimistic
	}
	return s
}
