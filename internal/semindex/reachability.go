package semindex

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"pysema/internal/syntax"
)

// Truth is the ternary reachability lattice.
type Truth uint8

const (
	TruthAmbiguous Truth = iota
	TruthAlwaysTrue
	TruthAlwaysFalse
)

func (t Truth) String() string {
	switch t {
	case TruthAlwaysTrue:
		return "always"
	case TruthAlwaysFalse:
		return "never"
	default:
		return "ambiguous"
	}
}

type reachOp uint8

const (
	reachTrue reachOp = iota + 1
	reachFalse
	reachAtom
	reachAnd
	reachOr
	reachNot
)

type reachNode struct {
	op      reachOp
	cond    syntax.NodeKey // guard expression, for atoms
	negated bool
	a, b    ReachabilityID
}

type reachAtomKey struct {
	cond    syntax.NodeKey
	negated bool
}

// ReachabilityStore interns ternary reachability predicates for one scope.
// Sequential control flow combines with And, alternative branches with Or.
// Predicates are built eagerly during the walk but evaluated only when a
// reachability query is issued.
type ReachabilityStore struct {
	nodes     []reachNode
	atomIndex map[reachAtomKey]ReachabilityID
	andIndex  map[[2]ReachabilityID]ReachabilityID
	orIndex   map[[2]ReachabilityID]ReachabilityID
}

// NewReachabilityStore creates a store pre-seeded with ReachAlways and
// ReachNever.
func NewReachabilityStore() *ReachabilityStore {
	s := &ReachabilityStore{
		nodes:     make([]reachNode, 1, 8), // index 0 reserved
		atomIndex: make(map[reachAtomKey]ReachabilityID),
		andIndex:  make(map[[2]ReachabilityID]ReachabilityID),
		orIndex:   make(map[[2]ReachabilityID]ReachabilityID),
	}
	s.nodes = append(s.nodes, reachNode{op: reachTrue})  // ReachAlways
	s.nodes = append(s.nodes, reachNode{op: reachFalse}) // ReachNever
	return s
}

func (s *ReachabilityStore) alloc(n reachNode) ReachabilityID {
	value, err := safecast.Conv[uint32](len(s.nodes))
	if err != nil {
		panic(fmt.Errorf("reachability store overflow: %w", err))
	}
	id := ReachabilityID(value)
	s.nodes = append(s.nodes, n)
	return id
}

// Atom interns a predicate over one guard expression.
func (s *ReachabilityStore) Atom(cond syntax.NodeKey, negated bool) ReachabilityID {
	key := reachAtomKey{cond: cond, negated: negated}
	if id, ok := s.atomIndex[key]; ok {
		return id
	}
	id := s.alloc(reachNode{op: reachAtom, cond: cond, negated: negated})
	s.atomIndex[key] = id
	return id
}

// And combines predicates along sequential control flow.
func (s *ReachabilityStore) And(a, b ReachabilityID) ReachabilityID {
	switch {
	case a == ReachAlways:
		return b
	case b == ReachAlways, a == b:
		return a
	case a == ReachNever || b == ReachNever:
		return ReachNever
	}
	key := [2]ReachabilityID{a, b}
	if id, ok := s.andIndex[key]; ok {
		return id
	}
	id := s.alloc(reachNode{op: reachAnd, a: a, b: b})
	s.andIndex[key] = id
	return id
}

// Or combines predicates across alternative branches.
func (s *ReachabilityStore) Or(a, b ReachabilityID) ReachabilityID {
	switch {
	case a == ReachAlways || b == ReachAlways:
		return ReachAlways
	case a == ReachNever:
		return b
	case b == ReachNever, a == b:
		return a
	}
	key := [2]ReachabilityID{a, b}
	if id, ok := s.orIndex[key]; ok {
		return id
	}
	id := s.alloc(reachNode{op: reachOr, a: a, b: b})
	s.orIndex[key] = id
	return id
}

// Negate returns the complement of a predicate.
func (s *ReachabilityStore) Negate(id ReachabilityID) ReachabilityID {
	if !id.IsValid() || int(id) >= len(s.nodes) {
		return ReachNever
	}
	n := s.nodes[id]
	switch n.op {
	case reachTrue:
		return ReachNever
	case reachFalse:
		return ReachAlways
	case reachAtom:
		return s.Atom(n.cond, !n.negated)
	case reachNot:
		return n.a
	}
	return s.alloc(reachNode{op: reachNot, a: id})
}

// Len reports the number of interned predicates excluding the sentinel.
func (s *ReachabilityStore) Len() int { return len(s.nodes) - 1 }

// Evaluator resolves reachability predicates against the literal guard
// expressions of one file snapshot. Evaluation is deferred until a caller
// asks; only literally-constant guards decide, everything else stays
// Ambiguous.
type Evaluator struct {
	store   *ReachabilityStore
	content []byte
}

// NewEvaluator builds an evaluator over a store and the file content its
// atoms point into.
func NewEvaluator(store *ReachabilityStore, content []byte) *Evaluator {
	return &Evaluator{store: store, content: content}
}

// Evaluate resolves a predicate to the ternary lattice.
func (e *Evaluator) Evaluate(id ReachabilityID) Truth {
	if !id.IsValid() || int(id) >= len(e.store.nodes) {
		return TruthAmbiguous
	}
	n := e.store.nodes[id]
	switch n.op {
	case reachTrue:
		return TruthAlwaysTrue
	case reachFalse:
		return TruthAlwaysFalse
	case reachAtom:
		t := e.literalTruth(n.cond)
		if n.negated {
			return negateTruth(t)
		}
		return t
	case reachAnd:
		return andTruth(e.Evaluate(n.a), e.Evaluate(n.b))
	case reachOr:
		return orTruth(e.Evaluate(n.a), e.Evaluate(n.b))
	case reachNot:
		return negateTruth(e.Evaluate(n.a))
	}
	return TruthAmbiguous
}

// IsReachable treats Ambiguous as reachable: only a provably-never predicate
// makes code unreachable.
func (e *Evaluator) IsReachable(id ReachabilityID) bool {
	return e.Evaluate(id) != TruthAlwaysFalse
}

func (e *Evaluator) literalTruth(cond syntax.NodeKey) Truth {
	start, err := safecast.Conv[int](cond.Start)
	if err != nil {
		return TruthAmbiguous
	}
	end, err := safecast.Conv[int](cond.End)
	if err != nil {
		return TruthAmbiguous
	}
	if start < 0 || end > len(e.content) || start >= end {
		return TruthAmbiguous
	}
	return literalTruth(strings.TrimSpace(string(e.content[start:end])))
}

// literalTruth classifies the text of a guard expression. Anything that is
// not a literal constant is Ambiguous.
func literalTruth(text string) Truth {
	switch text {
	case "True", "...":
		return TruthAlwaysTrue
	case "False", "None", "", "0", "0.0", "0j", `""`, "''":
		return TruthAlwaysFalse
	}
	if isNumberLiteral(text) {
		return TruthAlwaysTrue // the zero spellings were handled above
	}
	if len(text) >= 2 {
		if (text[0] == '"' && text[len(text)-1] == '"') || (text[0] == '\'' && text[len(text)-1] == '\'') {
			if len(text) == 2 {
				return TruthAlwaysFalse
			}
			return TruthAlwaysTrue
		}
	}
	return TruthAmbiguous
}

func isNumberLiteral(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if (r < '0' || r > '9') && r != '.' && r != '_' && r != 'e' && r != 'E' && r != 'j' {
			return false
		}
	}
	return text[0] >= '0' && text[0] <= '9'
}

func negateTruth(t Truth) Truth {
	switch t {
	case TruthAlwaysTrue:
		return TruthAlwaysFalse
	case TruthAlwaysFalse:
		return TruthAlwaysTrue
	default:
		return TruthAmbiguous
	}
}

func andTruth(a, b Truth) Truth {
	switch {
	case a == TruthAlwaysFalse || b == TruthAlwaysFalse:
		return TruthAlwaysFalse
	case a == TruthAlwaysTrue && b == TruthAlwaysTrue:
		return TruthAlwaysTrue
	default:
		return TruthAmbiguous
	}
}

func orTruth(a, b Truth) Truth {
	switch {
	case a == TruthAlwaysTrue || b == TruthAlwaysTrue:
		return TruthAlwaysTrue
	case a == TruthAlwaysFalse && b == TruthAlwaysFalse:
		return TruthAlwaysFalse
	default:
		return TruthAmbiguous
	}
}
