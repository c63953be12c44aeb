package semindex

import (
	"fmt"
	"iter"

	"pysema/internal/source"
	"pysema/internal/syntax"
)

// ScopeData bundles everything one scope owns: its place table, definition
// arena, use-def map and constraint stores. All IDs inside are scope-local,
// so a ScopeData is a self-contained value that can be shared between index
// revisions when the scope's text did not change.
type ScopeData struct {
	Table  *PlaceTable
	Defs   *Definitions
	UseDef *UseDefMap
	Narrow *NarrowingStore
	Reach  *ReachabilityStore
	// FirstParam is the name of the first positional parameter for function
	// scopes ("self" by convention), empty otherwise.
	FirstParam string
}

func newScopeData() *ScopeData {
	return &ScopeData{
		Table:  NewPlaceTable(),
		Defs:   NewDefinitions(),
		UseDef: newUseDefMap(),
		Narrow: NewNarrowingStore(),
		Reach:  NewReachabilityStore(),
	}
}

// DefRef addresses one definition globally within a file: the owning scope
// plus the scope-local definition ID.
type DefRef struct {
	Scope FileScopeID
	Def   DefinitionID
}

// SemanticIndex is the immutable result of indexing one file snapshot.
// Everything is resolved against the file content the index was built from;
// a new revision gets a new index.
type SemanticIndex struct {
	file        *source.File
	scopes      *Scopes
	data        []*ScopeData // indexed by FileScopeID, slot 0 nil
	scopeByNode map[syntax.NodeKey]FileScopeID
	defsByNode  map[syntax.NodeKey][]DefRef
	snapshots   map[EnclosingSnapshotKey]EnclosingSnapshot
	errors      []SemanticSyntaxError
	imported    []string
}

// File returns the snapshot the index was built from.
func (x *SemanticIndex) File() *source.File { return x.file }

// GlobalScope returns the module scope ID. It is always the first allocated
// scope.
func (x *SemanticIndex) GlobalScope() FileScopeID { return FileScopeID(1) }

// Scope returns the scope record, or nil for an invalid ID.
func (x *SemanticIndex) Scope(id FileScopeID) *Scope { return x.scopes.Get(id) }

// ScopeCount reports the number of scopes in the file.
func (x *SemanticIndex) ScopeCount() int { return x.scopes.Len() }

func (x *SemanticIndex) scopeData(id FileScopeID) *ScopeData {
	if !id.IsValid() || int(id) >= len(x.data) {
		return nil
	}
	return x.data[id]
}

// Table returns the place table of a scope.
func (x *SemanticIndex) Table(id FileScopeID) *PlaceTable {
	if d := x.scopeData(id); d != nil {
		return d.Table
	}
	return nil
}

// Defs returns the definition arena of a scope.
func (x *SemanticIndex) Defs(id FileScopeID) *Definitions {
	if d := x.scopeData(id); d != nil {
		return d.Defs
	}
	return nil
}

// UseDef returns the use-def map of a scope.
func (x *SemanticIndex) UseDef(id FileScopeID) *UseDefMap {
	if d := x.scopeData(id); d != nil {
		return d.UseDef
	}
	return nil
}

// Narrowing returns the narrowing store of a scope.
func (x *SemanticIndex) Narrowing(id FileScopeID) *NarrowingStore {
	if d := x.scopeData(id); d != nil {
		return d.Narrow
	}
	return nil
}

// Reachability returns the reachability store of a scope.
func (x *SemanticIndex) Reachability(id FileScopeID) *ReachabilityStore {
	if d := x.scopeData(id); d != nil {
		return d.Reach
	}
	return nil
}

// FirstParam returns the first positional parameter name of a function
// scope, or "".
func (x *SemanticIndex) FirstParam(id FileScopeID) string {
	if d := x.scopeData(id); d != nil {
		return d.FirstParam
	}
	return ""
}

// NodeScope returns the scope a node introduces, if it introduces one.
func (x *SemanticIndex) NodeScope(node syntax.NodeKey) (FileScopeID, bool) {
	id, ok := x.scopeByNode[node]
	return id, ok
}

// ScopeOf returns the innermost scope whose span contains the byte range of
// the key. Falls back to the module scope.
func (x *SemanticIndex) ScopeOf(node syntax.NodeKey) FileScopeID {
	best := x.GlobalScope()
	bestLen := uint32(1<<31 - 1)
	for i := 1; i <= x.scopes.Len(); i++ {
		id := FileScopeID(uint32(i))
		sc := x.scopes.Get(id)
		if sc.Span.Start <= node.Start && node.End <= sc.Span.End {
			if l := sc.Span.End - sc.Span.Start; l <= bestLen {
				best, bestLen = id, l
			}
		}
	}
	return best
}

// Definitions returns every definition introduced at a node. Normally one;
// zero for non-defining nodes; several only for a wildcard import fan-out.
func (x *SemanticIndex) Definitions(node syntax.NodeKey) []DefRef {
	return x.defsByNode[node]
}

// ExpectSingleDefinition returns the sole definition of a node and panics
// otherwise. For callers that already know the node defines exactly one name.
func (x *SemanticIndex) ExpectSingleDefinition(node syntax.NodeKey) DefRef {
	refs := x.defsByNode[node]
	if len(refs) != 1 {
		panic(fmt.Errorf("semindex: expected a single definition at %s, found %d", node, len(refs)))
	}
	return refs[0]
}

// Definition dereferences a DefRef.
func (x *SemanticIndex) Definition(ref DefRef) *Definition {
	if d := x.Defs(ref.Scope); d != nil {
		return d.Get(ref.Def)
	}
	return nil
}

// Evaluator builds a reachability evaluator for one scope's store, bound to
// the file content the index was built from.
func (x *SemanticIndex) Evaluator(id FileScopeID) *Evaluator {
	d := x.scopeData(id)
	if d == nil {
		return nil
	}
	return NewEvaluator(d.Reach, x.file.Content)
}

// IsScopeReachable reports whether control can ever reach the point that
// introduces the scope. Each entry predicate is evaluated against the parent
// scope's store; ambiguity counts as reachable.
func (x *SemanticIndex) IsScopeReachable(id FileScopeID) bool {
	for id.IsValid() {
		sc := x.scopes.Get(id)
		if sc == nil {
			return false
		}
		if !sc.Parent.IsValid() {
			return true // module scope
		}
		if ev := x.Evaluator(sc.Parent); ev != nil && !ev.IsReachable(sc.EntryReachability) {
			return false
		}
		id = sc.Parent
	}
	return false
}

// IsNodeReachable reports whether the node inside the given scope can ever
// execute. Nodes the builder recorded no predicate for count as reachable.
func (x *SemanticIndex) IsNodeReachable(scope FileScopeID, node syntax.NodeKey) bool {
	if !x.IsScopeReachable(scope) {
		return false
	}
	m := x.UseDef(scope)
	if m == nil {
		return true
	}
	reach, ok := m.NodeReachability(node)
	if !ok {
		return true
	}
	return x.Evaluator(scope).IsReachable(reach)
}

// SemanticSyntaxErrors returns the recorded build errors in source order.
func (x *SemanticIndex) SemanticSyntaxErrors() []SemanticSyntaxError { return x.errors }

// ImportedModules returns the distinct module names the file imports, in
// first-mention order.
func (x *SemanticIndex) ImportedModules() []string { return x.imported }

// AttributeAssignments yields the definitions of `<first-param>.<name>`
// found in the method scopes of a class (and eager scopes nested inside
// them). Declarations are excluded; see AttributeDeclarations.
func (x *SemanticIndex) AttributeAssignments(class FileScopeID, name string) iter.Seq[DefRef] {
	return x.attributeDefs(class, name, false)
}

// AttributeDeclarations yields the annotation-only definitions of
// `<first-param>.<name>` in the method scopes of a class.
func (x *SemanticIndex) AttributeDeclarations(class FileScopeID, name string) iter.Seq[DefRef] {
	return x.attributeDefs(class, name, true)
}

func (x *SemanticIndex) attributeDefs(class FileScopeID, name string, declaration bool) iter.Seq[DefRef] {
	return func(yield func(DefRef) bool) {
		sc := x.scopes.Get(class)
		if sc == nil || sc.Kind != ScopeClass {
			return
		}
		for id := sc.Descendants.Start; id < sc.Descendants.End; id++ {
			method, ok := x.owningMethod(class, id)
			if !ok {
				continue
			}
			root := x.FirstParam(method)
			if root == "" {
				continue
			}
			d := x.scopeData(id)
			pid, ok := d.Table.PlaceID(MemberExpr(root, name))
			if !ok {
				continue
			}
			for i := 1; i <= d.Defs.Len(); i++ {
				def := d.Defs.Get(DefinitionID(uint32(i)))
				if def.Place != pid || def.IsDeclaration != declaration {
					continue
				}
				if !yield(DefRef{Scope: id, Def: DefinitionID(uint32(i))}) {
					return
				}
			}
		}
	}
}

// owningMethod finds the function scope directly under the class that the
// descendant belongs to. Every scope strictly below the method on the chain
// must be eager: a value assigned to self.x inside a nested def is not an
// attribute assignment of the method's instance.
func (x *SemanticIndex) owningMethod(class, id FileScopeID) (FileScopeID, bool) {
	var chain []FileScopeID
	cur := id
	for cur.IsValid() && cur != class {
		chain = append(chain, cur)
		cur = x.scopes.Get(cur).Parent
	}
	if cur != class || len(chain) == 0 {
		return NoFileScopeID, false
	}
	method := chain[len(chain)-1]
	if x.scopes.Get(method).Kind != ScopeFunction {
		return NoFileScopeID, false
	}
	for _, s := range chain[:len(chain)-1] {
		sc := x.scopes.Get(s)
		if sc.Kind == ScopeFunction || sc.Kind == ScopeLambda || sc.Laziness == Lazy {
			return NoFileScopeID, false
		}
	}
	return method, true
}

// Validate runs internal consistency checks and returns the first violation.
// Meant for tests and debug builds, not the hot path.
func (x *SemanticIndex) Validate() error {
	if x.file == nil {
		return fmt.Errorf("semindex: index without a file")
	}
	n := x.scopes.Len()
	if n == 0 {
		return fmt.Errorf("semindex: no module scope")
	}
	if len(x.data) != n+1 {
		return fmt.Errorf("semindex: scope data misaligned: %d scopes, %d data slots", n, len(x.data)-1)
	}
	for i := 1; i <= n; i++ {
		id := FileScopeID(uint32(i))
		sc := x.scopes.Get(id)
		if id != x.GlobalScope() {
			parent := x.scopes.Get(sc.Parent)
			if parent == nil {
				return fmt.Errorf("semindex: scope %d has invalid parent %d", id, sc.Parent)
			}
			if !parent.Descendants.Contains(id) {
				return fmt.Errorf("semindex: scope %d outside parent %d descendant range", id, sc.Parent)
			}
		}
		if sc.Descendants.Start != id+1 {
			return fmt.Errorf("semindex: scope %d descendant range does not start after it", id)
		}
		if int(sc.Descendants.End) > n+1 {
			return fmt.Errorf("semindex: scope %d descendant range exceeds arena", id)
		}
		d := x.data[id]
		if d == nil {
			return fmt.Errorf("semindex: scope %d has no data", id)
		}
		for j := 1; j <= d.Defs.Len(); j++ {
			def := d.Defs.Get(DefinitionID(uint32(j)))
			place := d.Table.Get(def.Place)
			if place == nil {
				return fmt.Errorf("semindex: scope %d definition %d references missing place %d", id, j, def.Place)
			}
			if def.IsDeclaration && !place.IsDeclared() {
				return fmt.Errorf("semindex: scope %d place %q has a declaration but no declared flag", id, place.Expr)
			}
		}
	}
	return nil
}
