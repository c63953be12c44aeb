package semindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pysema/internal/syntax"
)

func TestReachabilityIdentities(t *testing.T) {
	s := NewReachabilityStore()
	atom := s.Atom(syntax.NodeKey{Kind: 7, Start: 0, End: 4}, false)

	assert.Equal(t, atom, s.And(ReachAlways, atom))
	assert.Equal(t, atom, s.And(atom, ReachAlways))
	assert.Equal(t, ReachNever, s.And(atom, ReachNever))
	assert.Equal(t, atom, s.And(atom, atom))

	assert.Equal(t, ReachAlways, s.Or(atom, ReachAlways))
	assert.Equal(t, atom, s.Or(atom, ReachNever))
	assert.Equal(t, atom, s.Or(atom, atom))

	assert.Equal(t, ReachNever, s.Negate(ReachAlways))
	assert.Equal(t, ReachAlways, s.Negate(ReachNever))
}

func TestReachabilityInterning(t *testing.T) {
	s := NewReachabilityStore()
	key := syntax.NodeKey{Kind: 7, Start: 10, End: 14}
	a1 := s.Atom(key, false)
	a2 := s.Atom(key, false)
	assert.Equal(t, a1, a2)

	neg := s.Atom(key, true)
	assert.NotEqual(t, a1, neg)
	assert.Equal(t, neg, s.Negate(a1))
	assert.Equal(t, a1, s.Negate(neg))

	other := s.Atom(syntax.NodeKey{Kind: 7, Start: 20, End: 24}, false)
	and1 := s.And(a1, other)
	and2 := s.And(a1, other)
	assert.Equal(t, and1, and2)
}

func TestEvaluateLiteralGuards(t *testing.T) {
	content := []byte("True False None cond 0 1 '' 'x' ...")
	s := NewReachabilityStore()
	ev := NewEvaluator(s, content)

	atomAt := func(start, end uint32) ReachabilityID {
		return s.Atom(syntax.NodeKey{Kind: 1, Start: start, End: end}, false)
	}

	assert.Equal(t, TruthAlwaysTrue, ev.Evaluate(atomAt(0, 4)))    // True
	assert.Equal(t, TruthAlwaysFalse, ev.Evaluate(atomAt(5, 10)))  // False
	assert.Equal(t, TruthAlwaysFalse, ev.Evaluate(atomAt(11, 15))) // None
	assert.Equal(t, TruthAmbiguous, ev.Evaluate(atomAt(16, 20)))   // cond
	assert.Equal(t, TruthAlwaysFalse, ev.Evaluate(atomAt(21, 22))) // 0
	assert.Equal(t, TruthAlwaysTrue, ev.Evaluate(atomAt(23, 24)))  // 1
	assert.Equal(t, TruthAlwaysFalse, ev.Evaluate(atomAt(25, 27))) // ''
	assert.Equal(t, TruthAlwaysTrue, ev.Evaluate(atomAt(28, 31)))  // 'x'
	assert.Equal(t, TruthAlwaysTrue, ev.Evaluate(atomAt(32, 35)))  // ...
}

func TestEvaluateCompound(t *testing.T) {
	content := []byte("True cond False")
	s := NewReachabilityStore()
	ev := NewEvaluator(s, content)

	tru := s.Atom(syntax.NodeKey{Kind: 1, Start: 0, End: 4}, false)
	cond := s.Atom(syntax.NodeKey{Kind: 1, Start: 5, End: 9}, false)
	fls := s.Atom(syntax.NodeKey{Kind: 1, Start: 10, End: 15}, false)

	assert.Equal(t, TruthAlwaysFalse, ev.Evaluate(s.And(cond, fls)))
	assert.Equal(t, TruthAmbiguous, ev.Evaluate(s.And(cond, tru)))
	assert.Equal(t, TruthAlwaysTrue, ev.Evaluate(s.Or(cond, tru)))
	assert.Equal(t, TruthAmbiguous, ev.Evaluate(s.Or(cond, fls)))
	assert.Equal(t, TruthAlwaysFalse, ev.Evaluate(s.Negate(tru)))

	assert.True(t, ev.IsReachable(cond))
	assert.False(t, ev.IsReachable(s.Negate(tru)))
}

func TestUnreachableAfterReturn(t *testing.T) {
	src := "def f():\n" +
		"    return 1\n" +
		"    y = 2\n"
	index, tree := buildFixture(t, src)

	fn := tree.Root().NamedChild(0)
	require.NotNil(t, fn)
	fnScope, ok := index.NodeScope(syntax.KeyOf(fn))
	require.True(t, ok)

	dead := mustNode(t, tree, syntax.KindExpressionStatement, "y = 2")
	assert.False(t, index.IsNodeReachable(fnScope, syntax.KeyOf(dead)))

	live := mustNode(t, tree, syntax.KindReturnStatement, "return 1")
	assert.True(t, index.IsNodeReachable(fnScope, syntax.KeyOf(live)))

	ev := index.Evaluator(fnScope)
	assert.False(t, ev.IsReachable(index.UseDef(fnScope).EndReachability()))
}

func TestUnreachableAfterWhileTrue(t *testing.T) {
	src := "while True:\n" +
		"    pass\n" +
		"x = 1\n"
	index, tree := buildFixture(t, src)
	module := index.GlobalScope()

	after := mustNode(t, tree, syntax.KindExpressionStatement, "x = 1")
	assert.False(t, index.IsNodeReachable(module, syntax.KeyOf(after)))
}

func TestBreakMakesLoopExitReachable(t *testing.T) {
	src := "while True:\n" +
		"    break\n" +
		"x = 1\n"
	index, tree := buildFixture(t, src)
	module := index.GlobalScope()

	after := mustNode(t, tree, syntax.KindExpressionStatement, "x = 1")
	assert.True(t, index.IsNodeReachable(module, syntax.KeyOf(after)))
}

func TestScopeUnderFalseGuardUnreachable(t *testing.T) {
	src := "if False:\n" +
		"    def g():\n" +
		"        pass\n" +
		"def h():\n" +
		"    pass\n"
	index, tree := buildFixture(t, src)

	g := mustNode(t, tree, syntax.KindFunctionDefinition, "def g():\n        pass")
	gScope, ok := index.NodeScope(syntax.KeyOf(g))
	require.True(t, ok)
	assert.False(t, index.IsScopeReachable(gScope))

	h := mustNode(t, tree, syntax.KindFunctionDefinition, "def h():\n    pass")
	hScope, ok := index.NodeScope(syntax.KeyOf(h))
	require.True(t, ok)
	assert.True(t, index.IsScopeReachable(hScope))
	assert.True(t, index.IsScopeReachable(index.GlobalScope()))
}

func TestAmbiguousGuardStaysReachable(t *testing.T) {
	src := "if cond:\n" +
		"    x = 1\n"
	index, tree := buildFixture(t, src)
	module := index.GlobalScope()

	stmt := mustNode(t, tree, syntax.KindExpressionStatement, "x = 1")
	assert.True(t, index.IsNodeReachable(module, syntax.KeyOf(stmt)))
}
