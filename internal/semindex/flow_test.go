package semindex

import (
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pysema/internal/syntax"
)

func useAt(t *testing.T, index *SemanticIndex, scope FileScopeID, node *sitter.Node) UseID {
	t.Helper()
	use, ok := index.UseDef(scope).UseAt(syntax.KeyOf(node))
	require.True(t, ok, "no use recorded at %s", syntax.KeyOf(node))
	return use
}

func collectBindings(index *SemanticIndex, scope FileScopeID, use UseID) []LiveBinding {
	var out []LiveBinding
	for b := range index.UseDef(scope).BindingsAtUse(use) {
		out = append(out, b)
	}
	return out
}

func TestPossiblyUnboundAfterBranch(t *testing.T) {
	src := "if cond:\n" +
		"    x = 1\n" +
		"print(x)\n"
	index, tree := buildFixture(t, src)
	module := index.GlobalScope()

	use := useAt(t, index, module, callArg(t, tree, "print(x)"))
	assert.False(t, index.UseDef(module).IsDefinitelyBound(use))

	bindings := collectBindings(index, module, use)
	require.Len(t, bindings, 2)
	bound, unbound := 0, 0
	for _, b := range bindings {
		if b.IsUnbound() {
			unbound++
		} else {
			bound++
		}
	}
	assert.Equal(t, 1, bound)
	assert.Equal(t, 1, unbound)
}

func TestDefinitelyBoundAfterIfElse(t *testing.T) {
	src := "if cond:\n" +
		"    x = 1\n" +
		"else:\n" +
		"    x = 2\n" +
		"print(x)\n"
	index, tree := buildFixture(t, src)
	module := index.GlobalScope()

	use := useAt(t, index, module, callArg(t, tree, "print(x)"))
	assert.True(t, index.UseDef(module).IsDefinitelyBound(use))
	assert.Len(t, collectBindings(index, module, use), 2)
}

func TestStraightLineRebind(t *testing.T) {
	src := "x = 1\n" +
		"x = 2\n" +
		"print(x)\n"
	index, tree := buildFixture(t, src)
	module := index.GlobalScope()

	use := useAt(t, index, module, callArg(t, tree, "print(x)"))
	bindings := collectBindings(index, module, use)
	require.Len(t, bindings, 1)
	assert.False(t, bindings[0].IsUnbound())
	// the second assignment shadows the first
	second := mustNode(t, tree, syntax.KindAssignment, "x = 2")
	target := syntax.FindDescendant(second, syntax.KindIdentifier)
	ref := index.ExpectSingleDefinition(syntax.KeyOf(target))
	assert.Equal(t, ref.Def, bindings[0].Def)
}

func TestDelLeavesPlaceUnbound(t *testing.T) {
	src := "x = 1\n" +
		"del x\n" +
		"print(x)\n"
	index, tree := buildFixture(t, src)
	module := index.GlobalScope()

	use := useAt(t, index, module, callArg(t, tree, "print(x)"))
	assert.False(t, index.UseDef(module).IsDefinitelyBound(use))
	bindings := collectBindings(index, module, use)
	require.Len(t, bindings, 1)
	assert.True(t, bindings[0].IsUnbound())
}

func TestTryHandlerSeesPartialBodyStates(t *testing.T) {
	src := "try:\n" +
		"    x = compute()\n" +
		"    y = use(x)\n" +
		"except Exception:\n" +
		"    print(x)\n"
	index, tree := buildFixture(t, src)
	module := index.GlobalScope()

	// the exception may fire before x was assigned, so the handler sees
	// both the unbound entry state and the assignment
	use := useAt(t, index, module, callArg(t, tree, "print(x)"))
	assert.False(t, index.UseDef(module).IsDefinitelyBound(use))
	bindings := collectBindings(index, module, use)
	bound, unbound := 0, 0
	for _, b := range bindings {
		if b.IsUnbound() {
			unbound++
		} else {
			bound++
		}
	}
	assert.Equal(t, 1, bound)
	assert.Equal(t, 1, unbound)
}

func TestExceptAliasUnboundAfterHandler(t *testing.T) {
	src := "try:\n" +
		"    work()\n" +
		"except ValueError as e:\n" +
		"    log(e)\n" +
		"print(e)\n"
	index, tree := buildFixture(t, src)
	module := index.GlobalScope()

	inside := useAt(t, index, module, callArg(t, tree, "log(e)"))
	assert.True(t, index.UseDef(module).IsDefinitelyBound(inside))

	after := useAt(t, index, module, callArg(t, tree, "print(e)"))
	assert.False(t, index.UseDef(module).IsDefinitelyBound(after))
}

func TestLoopBodyBindingSurvivesBackEdge(t *testing.T) {
	src := "for item in items:\n" +
		"    print(prev)\n" +
		"    prev = item\n"
	index, tree := buildFixture(t, src)
	module := index.GlobalScope()

	// the use sees the first iteration, where prev is still unbound
	use := useAt(t, index, module, callArg(t, tree, "print(prev)"))
	assert.False(t, index.UseDef(module).IsDefinitelyBound(use))

	// after the loop the body's binding may be live alongside the unbound state
	prevID, ok := index.Table(module).PlaceIDByName("prev")
	require.True(t, ok)
	bound, unbound := 0, 0
	for b := range index.UseDef(module).EndOfScopeBindings(prevID) {
		if b.IsUnbound() {
			unbound++
		} else {
			bound++
		}
	}
	assert.Equal(t, 1, bound)
	assert.Equal(t, 1, unbound)
}

func TestIsinstanceNarrowsThenBranch(t *testing.T) {
	src := "def f(x):\n" +
		"    if isinstance(x, int):\n" +
		"        y = x\n"
	index, tree := buildFixture(t, src)

	fn := mustNode(t, tree, syntax.KindFunctionDefinition, "def f(x):\n    if isinstance(x, int):\n        y = x")
	fnScope, ok := index.NodeScope(syntax.KeyOf(fn))
	require.True(t, ok)

	assign := mustNode(t, tree, syntax.KindAssignment, "y = x")
	right := syntax.Field(assign, "right")
	require.NotNil(t, right)

	use := useAt(t, index, fnScope, right)
	bindings := collectBindings(index, fnScope, use)
	require.Len(t, bindings, 1)
	require.True(t, bindings[0].Narrow.IsValid())

	var preds []Predicate
	for p := range index.Narrowing(fnScope).Predicates(bindings[0].Narrow) {
		preds = append(preds, p)
	}
	require.Len(t, preds, 1)
	assert.Equal(t, PredIsInstance, preds[0].Kind)
	assert.False(t, preds[0].Negated)
}

func TestNotGuardNarrowsElsePath(t *testing.T) {
	src := "def f(x):\n" +
		"    if not x:\n" +
		"        return None\n" +
		"    y = x\n"
	index, tree := buildFixture(t, src)

	fn := tree.Root().NamedChild(0)
	require.NotNil(t, fn)
	fnScope, ok := index.NodeScope(syntax.KeyOf(fn))
	require.True(t, ok)

	assign := mustNode(t, tree, syntax.KindAssignment, "y = x")
	use := useAt(t, index, fnScope, syntax.Field(assign, "right"))

	sawTruthy := false
	for b := range index.UseDef(fnScope).BindingsAtUse(use) {
		for p := range index.Narrowing(fnScope).Predicates(b.Narrow) {
			if p.Kind == PredTruthy && !p.Negated {
				sawTruthy = true
			}
		}
	}
	assert.True(t, sawTruthy)
}

func TestComparisonNarrowing(t *testing.T) {
	src := "def f(x):\n" +
		"    if x is None:\n" +
		"        pass\n" +
		"    else:\n" +
		"        y = x\n"
	index, tree := buildFixture(t, src)

	fn := tree.Root().NamedChild(0)
	require.NotNil(t, fn)
	fnScope, ok := index.NodeScope(syntax.KeyOf(fn))
	require.True(t, ok)

	assign := mustNode(t, tree, syntax.KindAssignment, "y = x")
	use := useAt(t, index, fnScope, syntax.Field(assign, "right"))

	sawNegatedIs := false
	for b := range index.UseDef(fnScope).BindingsAtUse(use) {
		for p := range index.Narrowing(fnScope).Predicates(b.Narrow) {
			if p.Kind == PredIs && p.Negated {
				sawNegatedIs = true
			}
		}
	}
	assert.True(t, sawNegatedIs)
}

func TestAssertNarrowsOnward(t *testing.T) {
	src := "def f(x):\n" +
		"    assert isinstance(x, str)\n" +
		"    return x\n"
	index, tree := buildFixture(t, src)

	fn := tree.Root().NamedChild(0)
	require.NotNil(t, fn)
	fnScope, ok := index.NodeScope(syntax.KeyOf(fn))
	require.True(t, ok)

	ret := mustNode(t, tree, syntax.KindReturnStatement, "return x")
	use := useAt(t, index, fnScope, ret.NamedChild(0))

	bindings := collectBindings(index, fnScope, use)
	require.Len(t, bindings, 1)
	sawIsInstance := false
	for p := range index.Narrowing(fnScope).Predicates(bindings[0].Narrow) {
		if p.Kind == PredIsInstance {
			sawIsInstance = true
		}
	}
	assert.True(t, sawIsInstance)
}

func TestMergeKeepsDistinctNarrowingsApart(t *testing.T) {
	reachStore := NewReachabilityStore()
	narrowStore := NewNarrowingStore()

	base := newFlowState()
	base.grow(PlaceID(1))
	base.bind(PlaceID(1), DefinitionID(1))

	left := base.snapshot()
	right := base.snapshot()
	n1 := narrowStore.Atom(Predicate{Kind: PredTruthy, Place: PlaceID(1)})
	left.narrow(PlaceID(1), n1, narrowStore)

	left.merge(right, reachStore)
	row := left.row(PlaceID(1))
	assert.Len(t, row, 2)
}

func TestMergeUnifiesIdenticalBindings(t *testing.T) {
	reachStore := NewReachabilityStore()

	base := newFlowState()
	base.grow(PlaceID(1))
	base.bind(PlaceID(1), DefinitionID(1))

	left := base.snapshot()
	right := base.snapshot()
	left.merge(right, reachStore)
	assert.Len(t, left.row(PlaceID(1)), 1)
}
