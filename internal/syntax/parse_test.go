package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pysema/internal/source"
)

func parseSource(t *testing.T, src string) *Tree {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.py", []byte(src))
	tree, err := Parse(fs.Get(id))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestParseModule(t *testing.T) {
	tree := parseSource(t, "x = 1\n")
	root := tree.Root()
	assert.Equal(t, KindModule, root.Kind())
	assert.False(t, root.HasError())

	stmt := root.NamedChild(0)
	require.NotNil(t, stmt)
	assert.Equal(t, KindExpressionStatement, stmt.Kind())

	assign := stmt.NamedChild(0)
	require.NotNil(t, assign)
	assert.Equal(t, KindAssignment, assign.Kind())
	assert.Equal(t, "x", tree.Text(Field(assign, "left")))
	assert.Equal(t, "1", tree.Text(Field(assign, "right")))
}

func TestParseError(t *testing.T) {
	tree := parseSource(t, "def f(:\n")
	assert.True(t, tree.Root().HasError())
}

func TestNodeKeyStableAcrossReparses(t *testing.T) {
	const src = "def f(a):\n    return a\n"
	t1 := parseSource(t, src)
	t2 := parseSource(t, src)

	fn1 := t1.Root().NamedChild(0)
	fn2 := t2.Root().NamedChild(0)
	require.NotNil(t, fn1)
	require.NotNil(t, fn2)
	assert.Equal(t, KeyOf(fn1), KeyOf(fn2))

	assert.True(t, KeyOf(fn1).IsValid())
	assert.False(t, NoNodeKey.IsValid())
}

func TestSpanMatchesByteRange(t *testing.T) {
	tree := parseSource(t, "value = 42\n")
	assign := tree.Root().NamedChild(0).NamedChild(0)
	require.NotNil(t, assign)

	span := tree.Span(assign)
	assert.Equal(t, tree.File().ID, span.File)
	assert.Equal(t, uint32(0), span.Start)
	assert.Equal(t, uint32(10), span.End)
}

func TestNamedChildrenIsRestartable(t *testing.T) {
	tree := parseSource(t, "a = 1\nb = 2\nc = 3\n")
	seq := NamedChildren(tree.Root())

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, 3, count())
	assert.Equal(t, 3, count())
}

func TestFindHelpers(t *testing.T) {
	tree := parseSource(t, "if cond:\n    x = f(1)\n")
	root := tree.Root()

	ifStmt := FindNamed(root, KindIfStatement)
	require.NotNil(t, ifStmt)

	call := FindDescendant(root, KindCall)
	require.NotNil(t, call)
	assert.Equal(t, "f(1)", tree.Text(call))

	assert.Nil(t, FindNamed(root, KindClassDefinition))
	assert.Nil(t, FindDescendant(root, KindClassDefinition))
}
