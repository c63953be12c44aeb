package semindex

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"pysema/internal/syntax"
)

func (b *builder) walkMatch(n *sitter.Node) {
	ctx := b.cur()
	reach := ctx.data.Reach

	body := syntax.Field(n, "body")
	bodyKey := syntax.NoNodeKey
	if body != nil {
		bodyKey = syntax.KeyOf(body)
	}
	var subject *sitter.Node
	subjects := 0
	for child := range syntax.NamedChildren(n) {
		if syntax.KeyOf(child) == bodyKey {
			continue
		}
		b.walkExpr(child)
		subject = child
		subjects++
	}
	subjectExpr, subjectOK := PlaceExpr{}, false
	if subjects == 1 && subject != nil {
		subjectExpr, subjectOK = b.placeExprOf(subject)
	}
	if body == nil {
		return
	}

	// fall-through threads through the arms: each arm forks off it, each
	// unmatched pattern lets it continue
	fall := ctx.flow
	var armEnds []*flowState
	for clause := range syntax.NamedChildren(body) {
		if clause.Kind() != syntax.KindCaseClause {
			continue
		}
		atom := reach.Atom(syntax.KeyOf(clause), false)
		arm := fall.snapshot()
		arm.reach = reach.And(fall.reach, atom)

		guard := syntax.FindNamed(clause, syntax.KindIfClause)
		irrefutable := guard == nil

		arm = b.withFlow(arm, func() {
			index := uint32(0)
			var firstPattern *sitter.Node
			for pattern := range syntax.NamedChildren(clause) {
				if pattern.Kind() != syntax.KindCasePattern {
					continue
				}
				if firstPattern == nil {
					firstPattern = pattern
				}
				if !b.patternIsIrrefutable(pattern) {
					irrefutable = false
				}
				b.walkCasePattern(pattern, &index)
			}
			armCtx := b.cur()
			if subjectOK && firstPattern != nil {
				pid := armCtx.data.Table.ensure(subjectExpr)
				nid := armCtx.data.Narrow.Atom(Predicate{
					Kind:  PredMatchPattern,
					Place: pid,
					Node:  syntax.KeyOf(firstPattern),
				})
				armCtx.flow.narrow(pid, nid, armCtx.data.Narrow)
			}
			if guard != nil {
				gexpr := guard.NamedChild(0)
				if gexpr != nil {
					b.walkExpr(gexpr)
					gatom := reach.Atom(syntax.KeyOf(gexpr), false)
					armCtx.flow.reach = reach.And(armCtx.flow.reach, gatom)
					b.applyNarrowing(armCtx.flow, gexpr, false)
				}
			}
			if cons := syntax.Field(clause, "consequence"); cons != nil {
				b.walkBlock(cons)
			}
		})
		armEnds = append(armEnds, arm)

		fall.reach = reach.And(fall.reach, reach.Negate(atom))
		if irrefutable {
			// a bare capture or wildcard without a guard always matches
			fall.markUnreachable()
		}
	}
	for _, arm := range armEnds {
		fall.merge(arm, reach)
	}
}

// patternIsIrrefutable recognizes `case _:` and bare-capture `case x:`.
func (b *builder) patternIsIrrefutable(pattern *sitter.Node) bool {
	if pattern.NamedChildCount() != 1 {
		return false
	}
	inner := pattern.NamedChild(0)
	switch inner.Kind() {
	case syntax.KindIdentifier:
		return true
	case syntax.KindDottedName:
		return inner.NamedChildCount() == 1
	}
	return b.tree.Text(inner) == "_"
}

// walkCasePattern binds the captures of one case pattern. Each capture's
// definition carries its position among the sibling captures of the clause.
func (b *builder) walkCasePattern(n *sitter.Node, index *uint32) {
	ctx := b.cur()
	switch n.Kind() {
	case syntax.KindCasePattern, syntax.KindTuplePattern, syntax.KindListPattern,
		syntax.KindUnionPattern:
		for child := range syntax.NamedChildren(n) {
			b.walkCasePattern(child, index)
		}
	case syntax.KindIdentifier:
		name := b.tree.Text(n)
		if name == "_" {
			return
		}
		b.define(ctx, NameExpr(name), DefMatchPattern, n, *index, false)
		*index++
	case syntax.KindDottedName:
		// a lone identifier is a capture; a longer path is a value pattern
		if n.NamedChildCount() == 1 {
			if inner := n.NamedChild(0); inner != nil && inner.Kind() == syntax.KindIdentifier {
				b.walkCasePattern(inner, index)
				return
			}
		}
		b.walkExpr(n)
	case syntax.KindAsPattern:
		aliasKey := syntax.NoNodeKey
		if alias := syntax.Field(n, "alias"); alias != nil {
			aliasKey = syntax.KeyOf(alias)
		}
		for child := range syntax.NamedChildren(n) {
			if syntax.KeyOf(child) == aliasKey {
				continue
			}
			b.walkCasePattern(child, index)
		}
		if target := aliasIdentifier(n); target != nil {
			b.define(ctx, NameExpr(b.tree.Text(target)), DefMatchPattern, target, *index, false)
			*index++
		}
	case syntax.KindSplatPattern, syntax.KindDictionarySplatPattern:
		if inner := n.NamedChild(0); inner != nil && inner.Kind() == syntax.KindIdentifier {
			b.walkCasePattern(inner, index)
		}
	case syntax.KindClassPattern:
		first := true
		for child := range syntax.NamedChildren(n) {
			if first {
				// the class reference is a read, not a capture
				b.walkExpr(child)
				first = false
				continue
			}
			b.walkCasePattern(child, index)
		}
	case syntax.KindKeywordPattern:
		// `name=pattern`: only the pattern side can capture
		count := n.NamedChildCount()
		if count > 0 {
			b.walkCasePattern(n.NamedChild(count-1), index)
		}
	case syntax.KindDictPattern:
		for child := range syntax.NamedChildren(n) {
			switch child.Kind() {
			case syntax.KindCasePattern, syntax.KindSplatPattern, syntax.KindDictionarySplatPattern:
				b.walkCasePattern(child, index)
			}
		}
	case syntax.KindString, syntax.KindInteger, syntax.KindFloat,
		syntax.KindTrue, syntax.KindFalse, syntax.KindNone:
		// literal patterns capture nothing
	default:
		for child := range syntax.NamedChildren(n) {
			b.walkCasePattern(child, index)
		}
	}
}
