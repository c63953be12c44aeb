package semindex

// FileScopeID identifies a scope within one file's scope arena. IDs are
// assigned in visitation order, so all descendants of a scope occupy a
// contiguous range.
type FileScopeID uint32

const (
	// NoFileScopeID marks the absence of a scope reference.
	NoFileScopeID FileScopeID = 0
)

// IsValid reports whether the ID refers to an allocated scope.
func (id FileScopeID) IsValid() bool { return id != NoFileScopeID }

// PlaceID identifies a place inside one scope's place table.
type PlaceID uint32

const (
	// NoPlaceID marks the absence of a place reference.
	NoPlaceID PlaceID = 0
)

// IsValid reports whether the ID refers to an allocated place.
func (id PlaceID) IsValid() bool { return id != NoPlaceID }

// DefinitionID identifies a definition inside one scope's definition arena.
// The zero value doubles as the "unbound at scope entry" sentinel in live
// binding sets.
type DefinitionID uint32

const (
	// NoDefinitionID marks a missing definition, or the implicit unbound
	// state flowing from scope entry.
	NoDefinitionID DefinitionID = 0
)

// IsValid reports whether the ID refers to an allocated definition.
func (id DefinitionID) IsValid() bool { return id != NoDefinitionID }

// UseID identifies one read of a place inside a scope, dense in walk order.
type UseID uint32

const (
	// NoUseID marks the absence of a use reference.
	NoUseID UseID = 0
)

// IsValid reports whether the ID refers to a recorded use.
func (id UseID) IsValid() bool { return id != NoUseID }

// NarrowingID references an interned narrowing constraint in one scope's
// store. The zero value means "unconstrained".
type NarrowingID uint32

const (
	// NoNarrowing is the absent constraint: nothing is narrowed.
	NoNarrowing NarrowingID = 0
)

// IsValid reports whether the ID refers to an actual constraint.
func (id NarrowingID) IsValid() bool { return id != NoNarrowing }

// ReachabilityID references an interned reachability predicate in one
// scope's store.
type ReachabilityID uint32

const (
	// NoReachabilityID marks the absence of a reachability reference.
	NoReachabilityID ReachabilityID = 0
	// ReachAlways is the pre-seeded "always executes" predicate.
	ReachAlways ReachabilityID = 1
	// ReachNever is the pre-seeded "never executes" predicate.
	ReachNever ReachabilityID = 2
)

// IsValid reports whether the ID refers to an allocated predicate.
func (id ReachabilityID) IsValid() bool { return id != NoReachabilityID }
