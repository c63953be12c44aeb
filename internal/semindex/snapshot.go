package semindex

// SnapshotKind tells what a recorded enclosing snapshot carries.
type SnapshotKind uint8

const (
	SnapshotNone SnapshotKind = iota
	// SnapshotBindings carries the full live bindings of a name place.
	SnapshotBindings
	// SnapshotConstraint carries only the narrowing of a member place; the
	// bindings themselves live with the root name.
	SnapshotConstraint
)

// EnclosingSnapshotKey addresses one recorded snapshot: the state of one
// place of an enclosing scope as seen at the point a nested scope was
// introduced. Snapshots are recorded only for all-eager nesting chains; the
// Laziness component keeps lazy lookups distinct so they miss cleanly.
type EnclosingSnapshotKey struct {
	Enclosing FileScopeID
	Place     PlaceID
	Nested    FileScopeID
	Laziness  Laziness
}

// EnclosingSnapshot is the recorded state: live bindings for name places,
// the latest narrowing constraint for member places.
type EnclosingSnapshot struct {
	Kind       SnapshotKind
	Bindings   []LiveBinding
	Constraint NarrowingID
}

// SnapshotResultKind enumerates the outcomes of resolving an enclosing
// snapshot from a nested scope.
type SnapshotResultKind uint8

const (
	// SnapshotNotFound: the enclosing scope is not an ancestor, or it never
	// mentioned the place before the nested scope was introduced.
	SnapshotNotFound SnapshotResultKind = iota
	// SnapshotFoundBindings: an eager chain with the recorded live bindings.
	SnapshotFoundBindings
	// SnapshotFoundConstraint: an eager chain with a member place's
	// narrowing constraint.
	SnapshotFoundConstraint
	// SnapshotNoLongerInEagerContext: a lazy scope sits on the chain, so the
	// nested scope observes the enclosing scope at call time, not at the
	// point it was written. Callers fall back to end-of-scope bindings.
	SnapshotNoLongerInEagerContext
)

func (k SnapshotResultKind) String() string {
	switch k {
	case SnapshotFoundBindings:
		return "found-bindings"
	case SnapshotFoundConstraint:
		return "found-constraint"
	case SnapshotNoLongerInEagerContext:
		return "no-longer-in-eager-context"
	default:
		return "not-found"
	}
}

// EnclosingSnapshotResult is the answer to a snapshot query. Bindings and
// Constraint are interpreted against the enclosing scope's stores.
type EnclosingSnapshotResult struct {
	Kind       SnapshotResultKind
	Bindings   []LiveBinding
	Constraint NarrowingID
}

// EnclosingSnapshot resolves the state of a place of an enclosing scope as
// observed by a nested scope.
func (x *SemanticIndex) EnclosingSnapshot(enclosing FileScopeID, place PlaceID, nested FileScopeID) EnclosingSnapshotResult {
	if !x.isStrictAncestor(enclosing, nested) {
		return EnclosingSnapshotResult{Kind: SnapshotNotFound}
	}
	table := x.Table(enclosing)
	if table == nil || table.Get(place) == nil {
		return EnclosingSnapshotResult{Kind: SnapshotNotFound}
	}
	laziness := Eager
	for id := nested; id != enclosing; {
		sc := x.scopes.Get(id)
		if sc == nil {
			return EnclosingSnapshotResult{Kind: SnapshotNotFound}
		}
		if sc.Laziness == Lazy {
			laziness = Lazy
		}
		id = sc.Parent
	}
	key := EnclosingSnapshotKey{Enclosing: enclosing, Place: place, Nested: nested, Laziness: laziness}
	snap, ok := x.snapshots[key]
	if !ok {
		if laziness == Lazy {
			return EnclosingSnapshotResult{Kind: SnapshotNoLongerInEagerContext}
		}
		return EnclosingSnapshotResult{Kind: SnapshotNotFound}
	}
	switch snap.Kind {
	case SnapshotBindings:
		return EnclosingSnapshotResult{Kind: SnapshotFoundBindings, Bindings: snap.Bindings}
	case SnapshotConstraint:
		return EnclosingSnapshotResult{Kind: SnapshotFoundConstraint, Constraint: snap.Constraint}
	}
	return EnclosingSnapshotResult{Kind: SnapshotNotFound}
}

func (x *SemanticIndex) isStrictAncestor(anc, id FileScopeID) bool {
	if anc == id {
		return false
	}
	sc := x.scopes.Get(anc)
	return sc != nil && sc.Descendants.Contains(id)
}
