package semindex

import (
	"fmt"
	"slices"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pysema/internal/diag"
	"pysema/internal/source"
	"pysema/internal/syntax"
)

// ModuleMembers lets the builder fan a wildcard import out into one
// definition per imported name. Implementations resolve `from m import *`
// against whatever module universe the caller maintains.
type ModuleMembers interface {
	ModuleMembers(module string) ([]string, bool)
}

// BuildOptions configure one index build. The zero value is valid:
// diagnostics are dropped and wildcard imports produce no definitions.
type BuildOptions struct {
	Reporter diag.Reporter
	Members  ModuleMembers
}

// Build walks the parsed tree once and produces the semantic index: scopes,
// place tables, definitions, use-def maps, constraint stores and enclosing
// snapshots. The walk is a single forward pass per scope.
func Build(tree *syntax.Tree, opts BuildOptions) *SemanticIndex {
	b := &builder{
		tree:         tree,
		file:         tree.File(),
		reporter:     opts.Reporter,
		members:      opts.Members,
		scopes:       NewScopes(16),
		data:         make([]*ScopeData, 1, 17),
		scopeByNode:  make(map[syntax.NodeKey]FileScopeID),
		defsByNode:   make(map[syntax.NodeKey][]DefRef),
		snapshots:    make(map[EnclosingSnapshotKey]EnclosingSnapshot),
		importedSeen: make(map[string]struct{}),
	}

	root := tree.Root()
	module := b.enterScope(ScopeModule, root, Eager)
	b.walkBlock(root)
	b.leaveScope(module)
	b.checkPendingNonlocals()

	return &SemanticIndex{
		file:        b.file,
		scopes:      b.scopes,
		data:        b.data,
		scopeByNode: b.scopeByNode,
		defsByNode:  b.defsByNode,
		snapshots:   b.snapshots,
		errors:      b.errors,
		imported:    b.imported,
	}
}

type builder struct {
	tree     *syntax.Tree
	file     *source.File
	reporter diag.Reporter
	members  ModuleMembers

	scopes      *Scopes
	data        []*ScopeData
	scopeByNode map[syntax.NodeKey]FileScopeID
	defsByNode  map[syntax.NodeKey][]DefRef
	snapshots   map[EnclosingSnapshotKey]EnclosingSnapshot
	errors      []SemanticSyntaxError
	imported    []string

	importedSeen    map[string]struct{}
	stack           []*scopeCtx
	pendingNonlocal []nonlocalCheck
	// comprehensionIterable counts how deep the walk is inside the first
	// iterable of a comprehension, where walrus bindings are rejected.
	comprehensionIterable int
}

// scopeCtx is the mutable build state of one open scope.
type scopeCtx struct {
	id         FileScopeID
	kind       ScopeKind
	data       *ScopeData
	flow       *flowState
	loops      []*loopCtx
	firstChild FileScopeID
}

// loopCtx collects the flow states escaping a loop body through break and
// continue.
type loopCtx struct {
	breaks    []*flowState
	continues []*flowState
}

type nonlocalCheck struct {
	scope FileScopeID
	name  string
	span  source.Span
}

func (b *builder) cur() *scopeCtx {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

// enterScope allocates a scope, records enclosing snapshots for every
// all-eager nesting chain ending at it, and pushes fresh build state.
func (b *builder) enterScope(kind ScopeKind, node *sitter.Node, laziness Laziness) FileScopeID {
	parent := NoFileScopeID
	entry := ReachAlways
	if cur := b.cur(); cur != nil {
		parent = cur.id
		entry = cur.flow.reach
	}
	id := b.scopes.New(Scope{
		Kind:              kind,
		Parent:            parent,
		Node:              syntax.KeyOf(node),
		Span:              b.tree.Span(node),
		Laziness:          laziness,
		EntryReachability: entry,
	})
	b.recordSnapshots(id, laziness)
	data := newScopeData()
	b.data = append(b.data, data)
	b.scopeByNode[syntax.KeyOf(node)] = id
	b.stack = append(b.stack, &scopeCtx{
		id:         id,
		kind:       kind,
		data:       data,
		flow:       newFlowState(),
		firstChild: b.scopes.next(),
	})
	return id
}

// recordSnapshots captures, for each open ancestor reachable through an
// all-eager chain, the current state of every place the ancestor has
// mentioned so far. Name places keep their live bindings, member places
// only the narrowing of the latest binding.
func (b *builder) recordSnapshots(nested FileScopeID, laziness Laziness) {
	chain := laziness
	for i := len(b.stack) - 1; i >= 0; i-- {
		anc := b.stack[i]
		if chain == Eager {
			for pid, place := range anc.data.Table.All() {
				key := EnclosingSnapshotKey{Enclosing: anc.id, Place: pid, Nested: nested, Laziness: Eager}
				row := anc.flow.row(pid)
				if place.Expr.IsName() {
					if row == nil {
						row = unboundRow()
					}
					b.snapshots[key] = EnclosingSnapshot{Kind: SnapshotBindings, Bindings: slices.Clone(row)}
				} else {
					constraint := NoNarrowing
					if len(row) > 0 {
						constraint = row[len(row)-1].Narrow
					}
					b.snapshots[key] = EnclosingSnapshot{Kind: SnapshotConstraint, Constraint: constraint}
				}
			}
		}
		if b.scopes.Get(anc.id).Laziness == Lazy {
			chain = Lazy
		}
	}
}

// leaveScope freezes the open scope: fixes its descendant range, publishes
// end-of-scope bindings and pops it off the stack.
func (b *builder) leaveScope(expected FileScopeID) {
	ctx := b.cur()
	if ctx == nil || ctx.id != expected {
		panic(fmt.Errorf("semindex: unbalanced scope stack, leaving %d", expected))
	}
	sc := b.scopes.Get(ctx.id)
	sc.Descendants = ScopeRange{Start: ctx.firstChild, End: b.scopes.next()}
	m := ctx.data.UseDef
	m.endReach = ctx.flow.reach
	for pid := range ctx.data.Table.All() {
		row := ctx.flow.row(pid)
		if row == nil {
			row = unboundRow()
		}
		m.recordPublic(pid, slices.Clone(row))
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// withFlow runs fn with a substitute flow state for the current scope and
// returns the state fn left behind.
func (b *builder) withFlow(f *flowState, fn func()) *flowState {
	ctx := b.cur()
	saved := ctx.flow
	ctx.flow = f
	fn()
	out := ctx.flow
	ctx.flow = saved
	return out
}

// define records a definition for a place expression in the given scope and
// binds it into the scope's flow unless it is a declaration.
func (b *builder) define(ctx *scopeCtx, expr PlaceExpr, kind DefinitionKind, node *sitter.Node, index uint32, declaration bool) DefinitionID {
	pid := ctx.data.Table.ensure(expr)
	if declaration {
		ctx.data.Table.addFlags(pid, PlaceDeclared)
	} else {
		ctx.data.Table.addFlags(pid, PlaceBound)
	}
	key := syntax.KeyOf(node)
	def := ctx.data.Defs.New(Definition{
		Kind:          kind,
		Place:         pid,
		Node:          key,
		Span:          b.tree.Span(node),
		Index:         index,
		IsDeclaration: declaration,
	})
	b.defsByNode[key] = append(b.defsByNode[key], DefRef{Scope: ctx.id, Def: def})
	if !declaration {
		ctx.flow.bind(pid, def)
	}
	return def
}

func (b *builder) defineName(name string, kind DefinitionKind, node *sitter.Node) DefinitionID {
	return b.define(b.cur(), NameExpr(name), kind, node, 0, false)
}

// recordUse registers a read of a place at a node: the place is flagged
// used, the bindings live at this point are captured, and the node's
// reachability is remembered.
func (b *builder) recordUse(expr PlaceExpr, node *sitter.Node) {
	ctx := b.cur()
	pid := ctx.data.Table.ensure(expr)
	ctx.data.Table.addFlags(pid, PlaceUsed)
	ctx.flow.seed(pid)
	key := syntax.KeyOf(node)
	ctx.data.UseDef.recordUse(key, slices.Clone(ctx.flow.row(pid)))
	ctx.data.UseDef.recordNodeReachability(key, ctx.flow.reach)
}

// placeExprOf converts an identifier or attribute chain rooted at an
// identifier into a place expression. Anything else is not a place.
func (b *builder) placeExprOf(n *sitter.Node) (PlaceExpr, bool) {
	switch n.Kind() {
	case syntax.KindIdentifier:
		return NameExpr(b.tree.Text(n)), true
	case syntax.KindAttribute:
		obj := syntax.Field(n, "object")
		attr := syntax.Field(n, "attribute")
		if obj == nil || attr == nil {
			return PlaceExpr{}, false
		}
		base, ok := b.placeExprOf(obj)
		if !ok {
			return PlaceExpr{}, false
		}
		path := append(slices.Clone(base.Path), b.tree.Text(attr))
		return PlaceExpr{Root: base.Root, Path: path}, true
	case syntax.KindParenthesized:
		if inner := n.NamedChild(0); inner != nil {
			return b.placeExprOf(inner)
		}
	}
	return PlaceExpr{}, false
}

// reportError records a semantic syntax error and mirrors it to the
// reporter.
func (b *builder) reportError(code diag.Code, span source.Span, msg string) {
	b.errors = append(b.errors, SemanticSyntaxError{Code: code, Span: span, Message: msg})
	if b.reporter != nil {
		diag.ReportError(b.reporter, code, span, msg).Emit()
	}
}

func (b *builder) addImport(module string) {
	if module == "" {
		return
	}
	if _, ok := b.importedSeen[module]; ok {
		return
	}
	b.importedSeen[module] = struct{}{}
	b.imported = append(b.imported, module)
}

// checkPendingNonlocals validates nonlocal statements once every scope's
// place table is complete: a binding appearing later in the enclosing
// function still satisfies the statement.
func (b *builder) checkPendingNonlocals() {
	for _, c := range b.pendingNonlocal {
		if b.nonlocalTargetExists(c) {
			continue
		}
		b.reportError(diag.SemNonlocalNoBinding, c.span,
			fmt.Sprintf("no binding for nonlocal %q found in an enclosing function", c.name))
	}
}

func (b *builder) nonlocalTargetExists(c nonlocalCheck) bool {
	sc := b.scopes.Get(c.scope)
	if sc == nil {
		return false
	}
	for id := sc.Parent; id.IsValid(); {
		cur := b.scopes.Get(id)
		if cur.Kind == ScopeModule {
			return false
		}
		if cur.Kind == ScopeFunction || cur.Kind == ScopeLambda {
			table := b.data[id].Table
			if pid, ok := table.PlaceIDByName(c.name); ok {
				p := table.Get(pid)
				if (p.IsBound() || p.IsDeclared()) && !p.IsGlobal() && !p.IsNonlocal() {
					return true
				}
				if p.IsNonlocal() {
					// chained nonlocal: keep climbing
					id = cur.Parent
					continue
				}
			}
		}
		id = cur.Parent
	}
	return false
}
