// Package syntax wraps the tree-sitter Python grammar behind the small
// surface the semantic index needs: parsing a source.File into an immutable
// tree and deriving structural node identities (NodeKey) that stay stable
// across re-parses of identical text.
package syntax

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"pysema/internal/source"
)

var pythonLanguage = sitter.NewLanguage(tree_sitter_python.Language())

// Tree couples a parsed tree-sitter tree with the file snapshot it was
// parsed from. It is read-only after Parse returns.
type Tree struct {
	file *source.File
	tree *sitter.Tree
}

// Parse parses the file's content as Python. The returned tree holds C
// memory; callers that are done with AST nodes should Close it. NodeKeys
// derived from the tree remain valid after Close.
func Parse(file *source.File) (*Tree, error) {
	if file == nil {
		return nil, errors.New("syntax: nil file")
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(pythonLanguage); err != nil {
		return nil, fmt.Errorf("syntax: set language: %w", err)
	}

	tree := parser.Parse(file.Content, nil)
	if tree == nil {
		return nil, errors.New("syntax: parse failed")
	}

	return &Tree{file: file, tree: tree}, nil
}

// Root returns the module node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// File returns the file snapshot the tree was parsed from.
func (t *Tree) File() *source.File {
	return t.file
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Text returns the source text of a node.
func (t *Tree) Text(n *sitter.Node) string {
	return n.Utf8Text(t.file.Content)
}

// Span converts a node's byte range into a source.Span.
func (t *Tree) Span(n *sitter.Node) source.Span {
	return source.Span{
		File:  t.file.ID,
		Start: uint32(n.StartByte()),
		End:   uint32(n.EndByte()),
	}
}
