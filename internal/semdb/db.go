// Package semdb memoizes semantic indexes per (file, revision). Concurrent
// queries for the same revision share one build, published indexes are
// immutable, and unchanged scopes share their data bundles across
// revisions.
package semdb

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/singleflight"

	"pysema/internal/diag"
	"pysema/internal/semindex"
	"pysema/internal/source"
	"pysema/internal/syntax"
)

// Options tune a DB. Zero values select the defaults.
type Options struct {
	// IndexCacheSize caps how many (file, revision) indexes stay resident.
	IndexCacheSize int
	// ScopeCacheSize caps the cross-revision scope data cache.
	ScopeCacheSize int
	// MaxDiagnostics caps the diagnostics bag of one file build.
	MaxDiagnostics int
	// Members resolves wildcard imports; nil leaves them unexpanded.
	Members semindex.ModuleMembers
}

const (
	defaultIndexCacheSize = 512
	defaultScopeCacheSize = 8192
	defaultMaxDiagnostics = 256
)

type indexKey struct {
	File     source.FileID
	Revision source.Revision
}

type scopeKey struct {
	File        source.FileID
	Start, End  uint32
	Fingerprint [32]byte
}

// Entry couples a built index with the diagnostics its build produced.
type Entry struct {
	Index *semindex.SemanticIndex
	Bag   *diag.Bag
}

// DB owns a FileSet and serves memoized semantic indexes for its files.
// Safe for concurrent use.
type DB struct {
	files      *source.FileSet
	members    semindex.ModuleMembers
	maxDiag    int
	indexes    *lru.Cache[indexKey, *Entry]
	scopeData  *lru.Cache[scopeKey, *semindex.ScopeData]
	group      singleflight.Group
}

// Open builds a DB over an existing file set.
func Open(files *source.FileSet, opts Options) (*DB, error) {
	if files == nil {
		return nil, errors.New("semdb: nil file set")
	}
	if opts.IndexCacheSize <= 0 {
		opts.IndexCacheSize = defaultIndexCacheSize
	}
	if opts.ScopeCacheSize <= 0 {
		opts.ScopeCacheSize = defaultScopeCacheSize
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = defaultMaxDiagnostics
	}
	indexes, err := lru.New[indexKey, *Entry](opts.IndexCacheSize)
	if err != nil {
		return nil, fmt.Errorf("semdb: index cache: %w", err)
	}
	scopeData, err := lru.New[scopeKey, *semindex.ScopeData](opts.ScopeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("semdb: scope cache: %w", err)
	}
	return &DB{
		files:     files,
		members:   opts.Members,
		maxDiag:   opts.MaxDiagnostics,
		indexes:   indexes,
		scopeData: scopeData,
	}, nil
}

// Files returns the underlying file set.
func (db *DB) Files() *source.FileSet { return db.files }

// Index returns the semantic index for the file's current revision,
// building it at most once per revision even under concurrent callers.
func (db *DB) Index(ctx context.Context, id source.FileID) (*Entry, error) {
	file := db.files.Get(id)
	if file == nil {
		return nil, fmt.Errorf("semdb: unknown file id %d", id)
	}
	return db.IndexSnapshot(ctx, file)
}

// IndexSnapshot indexes one specific file snapshot. Callers holding an older
// *source.File keep getting the index matching their snapshot.
func (db *DB) IndexSnapshot(ctx context.Context, file *source.File) (*Entry, error) {
	key := indexKey{File: file.ID, Revision: file.Revision}
	if e, ok := db.indexes.Get(key); ok {
		return e, nil
	}

	v, err, _ := db.group.Do(fmt.Sprintf("%d@%d", file.ID, file.Revision), func() (any, error) {
		if e, ok := db.indexes.Get(key); ok {
			return e, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := db.build(file)
		if err != nil {
			return nil, err
		}
		db.indexes.Add(key, e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

func (db *DB) build(file *source.File) (*Entry, error) {
	bag := diag.NewBag(db.maxDiag)
	tree, err := syntax.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("semdb: parse %s: %w", file.Path, err)
	}
	defer tree.Close()

	reportParseErrors(tree, bag)
	index := semindex.Build(tree, semindex.BuildOptions{
		Reporter: &diag.BagReporter{Bag: bag},
		Members:  db.members,
	})
	db.shareScopeData(index)
	return &Entry{Index: index, Bag: bag}, nil
}

// shareScopeData swaps freshly built scope bundles for cached ones when a
// scope's kind, byte range and text match a previous build, then caches the
// bundles for the next revision.
func (db *DB) shareScopeData(index *semindex.SemanticIndex) {
	fileID := index.File().ID
	for i := 1; i <= index.ScopeCount(); i++ {
		id := semindex.FileScopeID(uint32(i))
		fp, ok := index.ScopeFingerprint(id)
		if !ok {
			continue
		}
		sc := index.Scope(id)
		key := scopeKey{File: fileID, Start: sc.Span.Start, End: sc.Span.End, Fingerprint: fp}
		if cached, hit := db.scopeData.Get(key); hit {
			index.AdoptScopeData(id, cached)
			continue
		}
		db.scopeData.Add(key, scopeBundle(index, id))
	}
}

func scopeBundle(index *semindex.SemanticIndex, id semindex.FileScopeID) *semindex.ScopeData {
	return &semindex.ScopeData{
		Table:      index.Table(id),
		Defs:       index.Defs(id),
		UseDef:     index.UseDef(id),
		Narrow:     index.Narrowing(id),
		Reach:      index.Reachability(id),
		FirstParam: index.FirstParam(id),
	}
}

// reportParseErrors surfaces tree-sitter ERROR and missing nodes as parse
// diagnostics.
func reportParseErrors(tree *syntax.Tree, bag *diag.Bag) {
	root := tree.Root()
	if !root.HasError() {
		return
	}
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.IsError() {
			bag.Add(diag.NewError(diag.ParseError, tree.Span(n), "syntax error"))
			return
		}
		if n.IsMissing() {
			bag.Add(diag.NewError(diag.ParseMissingNode, tree.Span(n),
				fmt.Sprintf("missing %s", n.Kind())))
			return
		}
		if !n.HasError() {
			return
		}
		for child := range syntax.Children(n) {
			visit(child)
		}
	}
	visit(root)
}

// StaticMembers is a fixed module-to-names table implementing
// semindex.ModuleMembers; handy for tests and for CLI runs with a known
// module universe.
type StaticMembers map[string][]string

func (m StaticMembers) ModuleMembers(module string) ([]string, bool) {
	names, ok := m[module]
	return names, ok
}
