package semdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pysema/internal/diag"
	"pysema/internal/source"
	"pysema/internal/testkit"
)

func openDB(t *testing.T, opts Options) (*DB, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	db, err := Open(fs, opts)
	require.NoError(t, err)
	return db, fs
}

func TestIndexMemoizedPerRevision(t *testing.T) {
	db, fs := openDB(t, Options{})
	id := fs.AddVirtual("a.py", []byte("x = 1\n"))

	ctx := context.Background()
	first, err := db.Index(ctx, id)
	require.NoError(t, err)
	second, err := db.Index(ctx, id)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestUpdateBuildsNewIndex(t *testing.T) {
	db, fs := openDB(t, Options{})
	id := fs.AddVirtual("a.py", []byte("x = 1\n"))

	ctx := context.Background()
	before, err := db.Index(ctx, id)
	require.NoError(t, err)

	fs.Update(id, []byte("x = 2\n"))
	after, err := db.Index(ctx, id)
	require.NoError(t, err)

	assert.NotSame(t, before, after)
	assert.NotEqual(t, before.Index.File().Revision, after.Index.File().Revision)
}

func TestSnapshotIndexSurvivesUpdate(t *testing.T) {
	db, fs := openDB(t, Options{})
	id := fs.AddVirtual("a.py", []byte("x = 1\n"))
	snapshot := fs.Get(id)

	ctx := context.Background()
	old, err := db.IndexSnapshot(ctx, snapshot)
	require.NoError(t, err)

	fs.Update(id, []byte("y = 2\n"))
	again, err := db.IndexSnapshot(ctx, snapshot)
	require.NoError(t, err)
	assert.Same(t, old, again)
}

func TestUnchangedScopeDataSharedAcrossRevisions(t *testing.T) {
	db, fs := openDB(t, Options{})
	src := "def stable():\n" +
		"    return 1\n"
	id := fs.AddVirtual("a.py", []byte(src))

	ctx := context.Background()
	before, err := db.Index(ctx, id)
	require.NoError(t, err)

	// identical content, new revision
	fs.Update(id, []byte(src))
	after, err := db.Index(ctx, id)
	require.NoError(t, err)
	require.NotSame(t, before, after)

	fnBefore := before.Index.GlobalScope() + 1
	fnAfter := after.Index.GlobalScope() + 1
	assert.Same(t, before.Index.Table(fnBefore), after.Index.Table(fnAfter))
	assert.Same(t, before.Index.UseDef(fnBefore), after.Index.UseDef(fnAfter))
}

func TestParseErrorsLandInBag(t *testing.T) {
	db, fs := openDB(t, Options{})
	id := fs.AddVirtual("broken.py", []byte("def f(:\n    pass\n"))

	entry, err := db.Index(context.Background(), id)
	require.NoError(t, err)
	require.True(t, entry.Bag.HasErrors())

	found := false
	for _, d := range entry.Bag.Items() {
		if d.Code == diag.ParseError || d.Code == diag.ParseMissingNode {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSemanticErrorsReportedThroughBag(t *testing.T) {
	db, fs := openDB(t, Options{})
	id := fs.AddVirtual("bad.py", []byte("def f(a, a):\n    pass\n"))

	entry, err := db.Index(context.Background(), id)
	require.NoError(t, err)

	found := false
	for _, d := range entry.Bag.Items() {
		if d.Code == diag.SemDuplicateParameter {
			found = true
		}
	}
	assert.True(t, found)
}

func TestStarImportFanoutThroughMembers(t *testing.T) {
	db, fs := openDB(t, Options{
		Members: StaticMembers{"helpers": {"first", "second", "third"}},
	})
	id := fs.AddVirtual("a.py", []byte("from helpers import *\n"))

	entry, err := db.Index(context.Background(), id)
	require.NoError(t, err)

	table := entry.Index.Table(entry.Index.GlobalScope())
	for _, name := range []string{"first", "second", "third"} {
		pid, ok := table.PlaceIDByName(name)
		require.True(t, ok, "missing %s", name)
		assert.True(t, table.Get(pid).IsBound())
	}
	assert.Equal(t, []string{"helpers"}, entry.Index.ImportedModules())
}

func TestIndexCanceledContext(t *testing.T) {
	db, fs := openDB(t, Options{})
	id := fs.AddVirtual("a.py", []byte("x = 1\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := db.Index(ctx, id)
	assert.Error(t, err)
}

func TestIndexUnknownFile(t *testing.T) {
	db, _ := openDB(t, Options{})
	_, err := db.Index(context.Background(), source.FileID(42))
	assert.Error(t, err)
}

func TestIndexDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.py"), []byte("a = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.py"), []byte("b = a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644))

	db, _ := openDB(t, Options{})
	results, err := db.IndexDir(context.Background(), dir, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, res := range results {
		require.NotNil(t, res.Entry, "no entry for %s", res.Path)
		require.NotNil(t, res.Bag)
		assert.False(t, res.Bag.HasErrors())
	}
	assert.Contains(t, results[0].Path, "one.py")
	assert.Contains(t, results[1].Path, "two.py")
}

func TestListSourceFilesFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pyi"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.go"), nil, 0o644))

	files, err := ListSourceFiles(dir, nil)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	only, err := ListSourceFiles(dir, []string{".pyi"})
	require.NoError(t, err)
	assert.Len(t, only, 1)
}

func TestBuiltIndexSatisfiesInvariants(t *testing.T) {
	db, fs := openDB(t, Options{})
	src := "import os\n" +
		"class Config:\n" +
		"    def __init__(self, path):\n" +
		"        self.path = path\n" +
		"        if os.sep in path:\n" +
		"            self.absolute = True\n" +
		"\n" +
		"def load(paths):\n" +
		"    out = [Config(p) for p in paths if p]\n" +
		"    for cfg in out:\n" +
		"        yield cfg\n"
	id := fs.AddVirtual("sample.py", []byte(src))

	entry, err := db.Index(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, testkit.CheckIndexInvariants(entry.Index, fs.Get(id)))
}
