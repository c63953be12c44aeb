package syntax

import (
	"fmt"
	"iter"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeKey identifies a syntactic position structurally: grammar kind plus
// byte range. Unlike *sitter.Node it is a plain comparable value, survives
// tree disposal, and hashes identically across re-parses of the same text.
type NodeKey struct {
	Kind  uint16
	Start uint32
	End   uint32
}

// NoNodeKey is the zero key; no real node has an empty range at offset 0
// with grammar kind 0.
var NoNodeKey = NodeKey{}

// KeyOf derives the structural key for a node.
func KeyOf(n *sitter.Node) NodeKey {
	return NodeKey{
		Kind:  n.KindId(),
		Start: uint32(n.StartByte()),
		End:   uint32(n.EndByte()),
	}
}

func (k NodeKey) IsValid() bool { return k != NoNodeKey }

func (k NodeKey) String() string {
	return fmt.Sprintf("%d@%d-%d", k.Kind, k.Start, k.End)
}

// NamedChildren iterates the named children of a node in document order.
// The sequence is restartable.
func NamedChildren(n *sitter.Node) iter.Seq[*sitter.Node] {
	return func(yield func(*sitter.Node) bool) {
		count := n.NamedChildCount()
		for i := uint(0); i < count; i++ {
			child := n.NamedChild(i)
			if child == nil {
				continue
			}
			if !yield(child) {
				return
			}
		}
	}
}

// Children iterates all children, including anonymous tokens.
func Children(n *sitter.Node) iter.Seq[*sitter.Node] {
	return func(yield func(*sitter.Node) bool) {
		count := n.ChildCount()
		for i := uint(0); i < count; i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			if !yield(child) {
				return
			}
		}
	}
}

// Field returns the child for a grammar field, or nil.
func Field(n *sitter.Node, name string) *sitter.Node {
	return n.ChildByFieldName(name)
}

// FindNamed returns the first named child with the given kind, or nil.
func FindNamed(n *sitter.Node, kind string) *sitter.Node {
	for child := range NamedChildren(n) {
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// FindDescendant walks the subtree in document order and returns the first
// node of the given kind, or nil. Used mostly by tests to address nodes.
func FindDescendant(n *sitter.Node, kind string) *sitter.Node {
	if n.Kind() == kind {
		return n
	}
	for child := range NamedChildren(n) {
		if found := FindDescendant(child, kind); found != nil {
			return found
		}
	}
	return nil
}
