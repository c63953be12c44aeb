package semindex

import (
	"pysema/internal/source"
	"pysema/internal/syntax"
)

// ScopeKind enumerates the lexical scope categories of Python.
type ScopeKind uint8

const (
	ScopeInvalid       ScopeKind = iota
	ScopeModule                  // file top level
	ScopeClass                   // class body
	ScopeFunction                // def body
	ScopeLambda                  // lambda body
	ScopeComprehension           // one for-clause of a comprehension or generator
	ScopeTypeParams              // PEP 695 type-parameter list
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeLambda:
		return "lambda"
	case ScopeComprehension:
		return "comprehension"
	case ScopeTypeParams:
		return "type-params"
	default:
		return "invalid"
	}
}

// Laziness distinguishes scopes evaluated at the point they are written
// (class bodies, comprehension clauses) from scopes whose body runs later
// against the enclosing bindings at call time (functions, lambdas,
// generator expressions).
type Laziness uint8

const (
	Eager Laziness = iota
	Lazy
)

func (l Laziness) String() string {
	if l == Lazy {
		return "lazy"
	}
	return "eager"
}

// ScopeRange is a half-open interval of scope IDs.
type ScopeRange struct {
	Start FileScopeID
	End   FileScopeID
}

// Contains reports whether id falls inside the range.
func (r ScopeRange) Contains(id FileScopeID) bool {
	return r.Start <= id && id < r.End
}

// Len returns the number of IDs in the range.
func (r ScopeRange) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return int(r.End - r.Start)
}

// Scope models one lexical scope. Immutable once the builder closes it.
type Scope struct {
	Kind     ScopeKind
	Parent   FileScopeID
	Node     syntax.NodeKey // scope-introducing AST node
	Span     source.Span
	Laziness Laziness
	// Descendants is the contiguous ID interval of strict descendants;
	// children and descendants are slices of it, no tree walk needed.
	Descendants ScopeRange
	// EntryReachability gates whether control ever reaches the point that
	// introduces this scope. It is interpreted against the parent scope's
	// reachability store.
	EntryReachability ReachabilityID
}

// IsEager reports whether the scope is evaluated at the point it is written.
func (s *Scope) IsEager() bool { return s.Laziness == Eager }
