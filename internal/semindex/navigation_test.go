package semindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pysema/internal/syntax"
)

func scopeKinds(index *SemanticIndex, ids []FileScopeID) []ScopeKind {
	kinds := make([]ScopeKind, 0, len(ids))
	for _, id := range ids {
		kinds = append(kinds, index.Scope(id).Kind)
	}
	return kinds
}

func TestChildScopesSkipNestedSubtrees(t *testing.T) {
	src := "def a():\n" +
		"    def nested():\n" +
		"        pass\n" +
		"def b():\n" +
		"    pass\n"
	index, _ := buildFixture(t, src)

	var children []FileScopeID
	for id := range index.ChildScopes(index.GlobalScope()) {
		children = append(children, id)
	}
	require.Len(t, children, 2)
	assert.Equal(t, []ScopeKind{ScopeFunction, ScopeFunction}, scopeKinds(index, children))

	// nested is a descendant but not a direct child of the module
	var all []FileScopeID
	for id := range index.DescendantScopes(index.GlobalScope()) {
		all = append(all, id)
	}
	assert.Len(t, all, 3)
}

func TestAncestorScopes(t *testing.T) {
	src := "def outer():\n" +
		"    def inner():\n" +
		"        pass\n"
	index, tree := buildFixture(t, src)

	inner := mustNode(t, tree, syntax.KindFunctionDefinition, "def inner():\n        pass")
	innerScope, ok := index.NodeScope(syntax.KeyOf(inner))
	require.True(t, ok)

	var chain []FileScopeID
	for id := range index.AncestorScopes(innerScope) {
		chain = append(chain, id)
	}
	require.Len(t, chain, 3)
	assert.Equal(t, innerScope, chain[0])
	assert.Equal(t, index.GlobalScope(), chain[2])
	assert.Equal(t, []ScopeKind{ScopeFunction, ScopeFunction, ScopeModule}, scopeKinds(index, chain))
}

func TestTypeParamScopeSeesEnclosingClass(t *testing.T) {
	src := "class C:\n" +
		"    def m[T](self):\n" +
		"        pass\n"
	index, _ := buildFixture(t, src)

	var tpScope FileScopeID
	for id := range index.DescendantScopes(index.GlobalScope()) {
		if index.Scope(id).Kind == ScopeTypeParams {
			tpScope = id
		}
	}
	require.True(t, tpScope.IsValid())

	var visible []ScopeKind
	for id := range index.VisibleAncestorScopes(tpScope) {
		visible = append(visible, index.Scope(id).Kind)
	}
	assert.Equal(t, []ScopeKind{ScopeTypeParams, ScopeClass, ScopeModule}, visible)
}

func TestFunctionDoesNotSeeEnclosingClass(t *testing.T) {
	src := "class C:\n" +
		"    class D:\n" +
		"        def m(self):\n" +
		"            pass\n"
	index, tree := buildFixture(t, src)

	m := mustNode(t, tree, syntax.KindFunctionDefinition, "def m(self):\n            pass")
	mScope, ok := index.NodeScope(syntax.KeyOf(m))
	require.True(t, ok)

	var visible []ScopeKind
	for id := range index.VisibleAncestorScopes(mScope) {
		visible = append(visible, index.Scope(id).Kind)
	}
	// both class bodies are skipped
	assert.Equal(t, []ScopeKind{ScopeFunction, ScopeModule}, visible)
}

func TestScopeOfFindsInnermostSpan(t *testing.T) {
	src := "def f():\n" +
		"    x = 1\n" +
		"y = 2\n"
	index, tree := buildFixture(t, src)

	inner := mustNode(t, tree, syntax.KindAssignment, "x = 1")
	fn := mustNode(t, tree, syntax.KindFunctionDefinition, "def f():\n    x = 1")
	fnScope, ok := index.NodeScope(syntax.KeyOf(fn))
	require.True(t, ok)
	assert.Equal(t, fnScope, index.ScopeOf(syntax.KeyOf(inner)))

	outer := mustNode(t, tree, syntax.KindAssignment, "y = 2")
	assert.Equal(t, index.GlobalScope(), index.ScopeOf(syntax.KeyOf(outer)))
}
