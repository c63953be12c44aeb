package semindex

import "iter"

// ChildScopes yields the direct children of a scope in visitation order.
// Children live inside the contiguous descendant range, so this is a range
// scan, not a tree walk.
func (x *SemanticIndex) ChildScopes(id FileScopeID) iter.Seq[FileScopeID] {
	return func(yield func(FileScopeID) bool) {
		sc := x.scopes.Get(id)
		if sc == nil {
			return
		}
		for c := sc.Descendants.Start; c < sc.Descendants.End; {
			child := x.scopes.Get(c)
			if !yield(c) {
				return
			}
			// jump past the child's own subtree to the next direct child
			c = child.Descendants.End
		}
	}
}

// DescendantScopes yields every strict descendant of a scope.
func (x *SemanticIndex) DescendantScopes(id FileScopeID) iter.Seq[FileScopeID] {
	return func(yield func(FileScopeID) bool) {
		sc := x.scopes.Get(id)
		if sc == nil {
			return
		}
		for c := sc.Descendants.Start; c < sc.Descendants.End; c++ {
			if !yield(c) {
				return
			}
		}
	}
}

// AncestorScopes yields the scope itself, then each enclosing scope up to
// and including the module scope.
func (x *SemanticIndex) AncestorScopes(id FileScopeID) iter.Seq[FileScopeID] {
	return func(yield func(FileScopeID) bool) {
		for id.IsValid() {
			sc := x.scopes.Get(id)
			if sc == nil {
				return
			}
			if !yield(id) {
				return
			}
			id = sc.Parent
		}
	}
}

// VisibleAncestorScopes yields the ancestors whose bindings are visible for
// name resolution from the given scope: the scope itself, then enclosing
// scopes with class bodies skipped. The one exception is a type-parameter
// scope, which does see its immediately enclosing class body.
func (x *SemanticIndex) VisibleAncestorScopes(id FileScopeID) iter.Seq[FileScopeID] {
	return func(yield func(FileScopeID) bool) {
		start := x.scopes.Get(id)
		if start == nil {
			return
		}
		if !yield(id) {
			return
		}
		prev := id
		for cur := start.Parent; cur.IsValid(); {
			sc := x.scopes.Get(cur)
			if sc == nil {
				return
			}
			visible := sc.Kind != ScopeClass
			if !visible && prev == id && start.Kind == ScopeTypeParams {
				visible = true
			}
			if visible {
				if !yield(cur) {
					return
				}
				prev = cur
			}
			cur = sc.Parent
		}
	}
}
