package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAssignsStableIDs(t *testing.T) {
	fs := NewFileSet()
	a := fs.AddVirtual("a.py", []byte("one"))
	b := fs.AddVirtual("b.py", []byte("two"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, fs.Len())

	// re-adding the same path keeps the ID and bumps the revision
	again := fs.AddVirtual("a.py", []byte("three"))
	assert.Equal(t, a, again)
	assert.Equal(t, 2, fs.Len())
	assert.Equal(t, Revision(2), fs.Get(a).Revision)
}

func TestUpdateKeepsOldSnapshotValid(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.py", []byte("x = 1\n"))
	old := fs.Get(id)

	next := fs.Update(id, []byte("x = 2\n"))
	assert.Equal(t, Revision(1), old.Revision)
	assert.Equal(t, Revision(2), next.Revision)
	assert.Equal(t, "x = 1\n", string(old.Content))
	assert.Equal(t, "x = 2\n", string(fs.Get(id).Content))
	assert.NotEqual(t, old.Hash, next.Hash)
}

func TestGetByPath(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("pkg/mod.py", []byte("pass\n"))

	f, ok := fs.GetByPath("pkg/mod.py")
	require.True(t, ok)
	assert.Equal(t, id, f.ID)

	_, ok = fs.GetByPath("missing.py")
	assert.False(t, ok)
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "win.py")
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a = 1\r\nb = 2\r\n")...)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	fs := NewFileSet()
	id, err := fs.Load(path)
	require.NoError(t, err)

	f := fs.Get(id)
	assert.Equal(t, "a = 1\nb = 2\n", string(f.Content))
	assert.NotZero(t, f.Flags&FileHadBOM)
	assert.NotZero(t, f.Flags&FileNormalizedCRLF)
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.py", []byte("first\nsecond\nthird\n"))

	start, end := fs.Resolve(Span{File: id, Start: 6, End: 12})
	assert.Equal(t, uint32(2), start.Line)
	assert.Equal(t, uint32(1), start.Col)
	assert.Equal(t, uint32(2), end.Line)
	assert.Equal(t, uint32(7), end.Col)
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.py", []byte("first\nsecond\nthird"))
	f := fs.Get(id)

	assert.Equal(t, "first", f.GetLine(1))
	assert.Equal(t, "second", f.GetLine(2))
	assert.Equal(t, "third", f.GetLine(3))
	assert.Equal(t, "", f.GetLine(0))
	assert.Equal(t, "", f.GetLine(10))
}

func TestSpanContainsAndCover(t *testing.T) {
	s := Span{File: 1, Start: 10, End: 20}
	assert.True(t, s.Contains(Span{File: 1, Start: 12, End: 18}))
	assert.True(t, s.Contains(s))
	assert.False(t, s.Contains(Span{File: 1, Start: 5, End: 15}))
	assert.False(t, s.Contains(Span{File: 2, Start: 12, End: 18}))

	grown := s.Cover(Span{File: 1, Start: 5, End: 25})
	assert.Equal(t, Span{File: 1, Start: 5, End: 25}, grown)
	assert.Equal(t, s, s.Cover(Span{File: 2, Start: 0, End: 99}))
}
