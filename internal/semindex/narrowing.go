package semindex

import (
	"fmt"
	"iter"

	"fortio.org/safecast"

	"pysema/internal/syntax"
)

// PredicateKind classifies the guard expression a narrowing constraint came
// from. The predicates are opaque handles to this package; interpreting them
// against a type lattice is downstream inference's job.
type PredicateKind uint8

const (
	PredInvalid PredicateKind = iota
	PredIsInstance
	PredTruthy
	PredEquals
	PredIs
	PredIn
	PredMatchPattern
)

func (k PredicateKind) String() string {
	switch k {
	case PredIsInstance:
		return "isinstance"
	case PredTruthy:
		return "truthy"
	case PredEquals:
		return "equals"
	case PredIs:
		return "is"
	case PredIn:
		return "in"
	case PredMatchPattern:
		return "match-pattern"
	default:
		return "invalid"
	}
}

// Predicate is one atomic narrowing fact about a place on one control path.
type Predicate struct {
	Kind    PredicateKind
	Place   PlaceID
	Node    syntax.NodeKey // guard expression, class argument, or pattern
	Negated bool
}

type narrowOp uint8

const (
	narrowAtom narrowOp = iota + 1
	narrowAnd
)

type narrowNode struct {
	op   narrowOp
	pred Predicate
	a, b NarrowingID
}

// NarrowingStore interns narrowing constraints for one scope. Constraints
// reached via the same path are shared by ID, never duplicated. Append-only
// during the build, read-only afterwards.
type NarrowingStore struct {
	nodes     []narrowNode // index 0 reserved for NoNarrowing
	atomIndex map[Predicate]NarrowingID
	andIndex  map[[2]NarrowingID]NarrowingID
}

// NewNarrowingStore creates an empty store.
func NewNarrowingStore() *NarrowingStore {
	return &NarrowingStore{
		nodes:     make([]narrowNode, 1, 8),
		atomIndex: make(map[Predicate]NarrowingID),
		andIndex:  make(map[[2]NarrowingID]NarrowingID),
	}
}

func (s *NarrowingStore) alloc(n narrowNode) NarrowingID {
	value, err := safecast.Conv[uint32](len(s.nodes))
	if err != nil {
		panic(fmt.Errorf("narrowing store overflow: %w", err))
	}
	id := NarrowingID(value)
	s.nodes = append(s.nodes, n)
	return id
}

// Atom interns an atomic predicate.
func (s *NarrowingStore) Atom(pred Predicate) NarrowingID {
	if id, ok := s.atomIndex[pred]; ok {
		return id
	}
	id := s.alloc(narrowNode{op: narrowAtom, pred: pred})
	s.atomIndex[pred] = id
	return id
}

// And interns the conjunction of two constraints. The unconstrained sentinel
// is the identity element.
func (s *NarrowingStore) And(a, b NarrowingID) NarrowingID {
	if !a.IsValid() {
		return b
	}
	if !b.IsValid() || a == b {
		return a
	}
	key := [2]NarrowingID{a, b}
	if id, ok := s.andIndex[key]; ok {
		return id
	}
	id := s.alloc(narrowNode{op: narrowAnd, a: a, b: b})
	s.andIndex[key] = id
	return id
}

// Len reports the number of interned constraints excluding the sentinel.
func (s *NarrowingStore) Len() int { return len(s.nodes) - 1 }

// Predicates flattens a constraint into the atomic predicates it conjoins.
// The unconstrained sentinel yields nothing.
func (s *NarrowingStore) Predicates(id NarrowingID) iter.Seq[Predicate] {
	return func(yield func(Predicate) bool) {
		s.walk(id, yield)
	}
}

func (s *NarrowingStore) walk(id NarrowingID, yield func(Predicate) bool) bool {
	if !id.IsValid() || int(id) >= len(s.nodes) {
		return true
	}
	n := s.nodes[id]
	switch n.op {
	case narrowAtom:
		return yield(n.pred)
	case narrowAnd:
		return s.walk(n.a, yield) && s.walk(n.b, yield)
	}
	return true
}
