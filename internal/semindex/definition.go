package semindex

import (
	"pysema/internal/source"
	"pysema/internal/syntax"
)

// DefinitionKind records which syntax construct introduced a binding.
// Downstream inference dispatches on this.
type DefinitionKind uint8

const (
	DefInvalid DefinitionKind = iota
	DefAssignment
	DefAnnotatedAssignment
	DefAugmentedAssignment
	DefFor
	DefWithItem
	DefMatchPattern
	DefImport
	DefImportFrom
	DefImportStar
	DefFunction
	DefClass
	DefParameter
	DefComprehension
	DefNamedExpression
	DefTypeParameter
	DefTypeAlias
	DefExceptHandler
	DefDel
)

func (k DefinitionKind) String() string {
	switch k {
	case DefAssignment:
		return "assignment"
	case DefAnnotatedAssignment:
		return "annotated-assignment"
	case DefAugmentedAssignment:
		return "augmented-assignment"
	case DefFor:
		return "for"
	case DefWithItem:
		return "with-item"
	case DefMatchPattern:
		return "match-pattern"
	case DefImport:
		return "import"
	case DefImportFrom:
		return "import-from"
	case DefImportStar:
		return "import-star"
	case DefFunction:
		return "function"
	case DefClass:
		return "class"
	case DefParameter:
		return "parameter"
	case DefComprehension:
		return "comprehension"
	case DefNamedExpression:
		return "named-expression"
	case DefTypeParameter:
		return "type-parameter"
	case DefTypeAlias:
		return "type-alias"
	case DefExceptHandler:
		return "except-handler"
	case DefDel:
		return "del"
	default:
		return "invalid"
	}
}

// Definition describes one binding introduced by a syntax node. A node
// normally has exactly one definition; only a wildcard import fans out into
// several, one per imported name.
type Definition struct {
	Kind  DefinitionKind
	Place PlaceID
	Node  syntax.NodeKey
	Span  source.Span
	// Index is the capture's position among its siblings inside a match
	// pattern, or the name's position in a star-import fan-out.
	Index uint32
	// IsDeclaration marks annotation-only definitions (`x: int` without a
	// value): they declare the place without binding it.
	IsDeclaration bool
}
