package testkit

import (
	"fmt"

	"pysema/internal/semindex"
	"pysema/internal/source"
)

// CheckIndexInvariants runs the structural invariants a freshly built
// semantic index must satisfy:
//  1. the module scope exists and spans the file
//  2. every scope's descendant IDs form a contiguous range contained in
//     its parent's range
//  3. scope spans nest inside their parents' spans
//  4. definitions and public bindings agree with the place tables
func CheckIndexInvariants(index *semindex.SemanticIndex, sf *source.File) error {
	if index == nil || sf == nil {
		return fmt.Errorf("nil index or file")
	}
	if err := index.Validate(); err != nil {
		return err
	}

	module := index.Scope(index.GlobalScope())
	if module == nil || module.Kind != semindex.ScopeModule {
		return fmt.Errorf("global scope is not a module scope")
	}
	if module.Span.File != sf.ID {
		return fmt.Errorf("module span points at file %d, want %d", module.Span.File, sf.ID)
	}
	if int(module.Span.End) > len(sf.Content) {
		return fmt.Errorf("module span end %d beyond content length %d", module.Span.End, len(sf.Content))
	}

	for i := 1; i <= index.ScopeCount(); i++ {
		id := semindex.FileScopeID(uint32(i))
		sc := index.Scope(id)

		for child := range index.ChildScopes(id) {
			cs := index.Scope(child)
			if cs.Parent != id {
				return fmt.Errorf("scope %d yields child %d with parent %d", id, child, cs.Parent)
			}
			if cs.Span.Start < sc.Span.Start || cs.Span.End > sc.Span.End {
				return fmt.Errorf("child scope %d span %v escapes parent %d span %v", child, cs.Span, id, sc.Span)
			}
			if !sc.Descendants.Contains(child) {
				return fmt.Errorf("child scope %d outside descendant range of %d", child, id)
			}
		}

		table := index.Table(id)
		usedef := index.UseDef(id)
		for pid, place := range table.All() {
			bound := false
			for binding := range usedef.EndOfScopeBindings(pid) {
				if !binding.IsUnbound() {
					bound = true
				}
			}
			if bound && !place.IsBound() && !place.IsGlobal() && !place.IsNonlocal() {
				return fmt.Errorf("scope %d place %q has live definitions but no bound flag", id, place.Expr)
			}
		}
	}
	return nil
}
