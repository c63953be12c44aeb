package semindex

import (
	"fmt"
	"iter"

	"fortio.org/safecast"

	"pysema/internal/syntax"
)

// LiveBinding is one definition that may reach a program point, paired with
// the narrowing and reachability constraints that held on the path(s) that
// carry it. A zero Def means the place may still be unbound from scope entry.
type LiveBinding struct {
	Def    DefinitionID
	Narrow NarrowingID
	Reach  ReachabilityID
}

// IsUnbound reports whether the binding is the implicit unbound-at-entry
// state rather than an actual definition.
func (b LiveBinding) IsUnbound() bool { return !b.Def.IsValid() }

// UseDefMap is the per-scope flow record: for every read of a place and for
// the scope's end state, the definitions that may be live. Built
// incrementally while the scope's body is walked; frozen with the scope.
type UseDefMap struct {
	bindingsByUse [][]LiveBinding // indexed by UseID; index 0 reserved
	useByNode     map[syntax.NodeKey]UseID
	publicByPlace [][]LiveBinding // indexed by PlaceID; index 0 reserved
	reachByNode   map[syntax.NodeKey]ReachabilityID
	endReach      ReachabilityID
}

func newUseDefMap() *UseDefMap {
	return &UseDefMap{
		bindingsByUse: make([][]LiveBinding, 1, 8),
		useByNode:     make(map[syntax.NodeKey]UseID),
		publicByPlace: make([][]LiveBinding, 1, 8),
		reachByNode:   make(map[syntax.NodeKey]ReachabilityID),
		endReach:      ReachAlways,
	}
}

// recordUse allocates a UseID for a read and stores the bindings live at it.
func (m *UseDefMap) recordUse(node syntax.NodeKey, bindings []LiveBinding) UseID {
	value, err := safecast.Conv[uint32](len(m.bindingsByUse))
	if err != nil {
		panic(fmt.Errorf("use-def map overflow: %w", err))
	}
	id := UseID(value)
	m.bindingsByUse = append(m.bindingsByUse, bindings)
	m.useByNode[node] = id
	return id
}

// recordPublic stores the bindings reaching the end of the scope for a place.
// Rows must arrive in PlaceID order, which the finalizer guarantees.
func (m *UseDefMap) recordPublic(place PlaceID, bindings []LiveBinding) {
	for uint32(len(m.publicByPlace)) <= uint32(place) {
		m.publicByPlace = append(m.publicByPlace, nil)
	}
	m.publicByPlace[place] = bindings
}

// recordNodeReachability remembers the reachability predicate holding at a
// statement or expression node.
func (m *UseDefMap) recordNodeReachability(node syntax.NodeKey, reach ReachabilityID) {
	m.reachByNode[node] = reach
}

// UseAt returns the use recorded for a read of a place at the given node.
func (m *UseDefMap) UseAt(node syntax.NodeKey) (UseID, bool) {
	id, ok := m.useByNode[node]
	return id, ok
}

// BindingsAtUse yields the definitions that may reach a use, each with its
// narrowing and reachability constraint.
func (m *UseDefMap) BindingsAtUse(use UseID) iter.Seq[LiveBinding] {
	return func(yield func(LiveBinding) bool) {
		if !use.IsValid() || int(use) >= len(m.bindingsByUse) {
			return
		}
		for _, b := range m.bindingsByUse[use] {
			if !yield(b) {
				return
			}
		}
	}
}

// EndOfScopeBindings yields the "public" bindings of a place: those still
// live when the scope's body ends.
func (m *UseDefMap) EndOfScopeBindings(place PlaceID) iter.Seq[LiveBinding] {
	return func(yield func(LiveBinding) bool) {
		if !place.IsValid() || int(place) >= len(m.publicByPlace) {
			return
		}
		for _, b := range m.publicByPlace[place] {
			if !yield(b) {
				return
			}
		}
	}
}

// IsDefinitelyBound reports whether no path reaches the use with the place
// still unbound. "Possibly unbound" diagnostics are exactly the negation.
func (m *UseDefMap) IsDefinitelyBound(use UseID) bool {
	if !use.IsValid() || int(use) >= len(m.bindingsByUse) {
		return false
	}
	bindings := m.bindingsByUse[use]
	if len(bindings) == 0 {
		return false
	}
	for _, b := range bindings {
		if b.IsUnbound() {
			return false
		}
	}
	return true
}

// NodeReachability returns the reachability predicate recorded for a node.
func (m *UseDefMap) NodeReachability(node syntax.NodeKey) (ReachabilityID, bool) {
	id, ok := m.reachByNode[node]
	return id, ok
}

// EndReachability is the predicate holding after the scope's last statement.
func (m *UseDefMap) EndReachability() ReachabilityID { return m.endReach }

// Uses reports the number of recorded reads.
func (m *UseDefMap) Uses() int { return len(m.bindingsByUse) - 1 }
