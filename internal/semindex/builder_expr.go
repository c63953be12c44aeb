package semindex

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"pysema/internal/diag"
	"pysema/internal/syntax"
)

// walkExpr records uses and nested bindings inside an expression read in
// the current scope.
func (b *builder) walkExpr(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case syntax.KindIdentifier:
		b.recordUse(NameExpr(b.tree.Text(n)), n)
	case syntax.KindAttribute:
		if obj := syntax.Field(n, "object"); obj != nil {
			b.walkExpr(obj)
		}
		if expr, ok := b.placeExprOf(n); ok {
			b.recordUse(expr, n)
		}
	case syntax.KindCall:
		b.walkExpr(syntax.Field(n, "function"))
		if args := syntax.Field(n, "arguments"); args != nil {
			for a := range syntax.NamedChildren(args) {
				b.walkExpr(a)
			}
		}
	case syntax.KindLambda:
		b.walkLambda(n)
	case syntax.KindNamedExpression:
		b.walkNamedExpression(n)
	case syntax.KindListComprehension, syntax.KindSetComprehension,
		syntax.KindDictionaryComprehension, syntax.KindGeneratorExpression:
		b.walkComprehension(n)
	case syntax.KindBooleanOperator:
		b.walkExpr(syntax.Field(n, "left"))
		b.walkExpr(syntax.Field(n, "right"))
	case syntax.KindNotOperator:
		b.walkExpr(syntax.Field(n, "argument"))
	case syntax.KindDottedName:
		// only the root of a dotted path is a name read
		if root := n.NamedChild(0); root != nil && root.Kind() == syntax.KindIdentifier {
			b.recordUse(NameExpr(b.tree.Text(root)), root)
		}
	case syntax.KindString, syntax.KindInteger, syntax.KindFloat,
		syntax.KindTrue, syntax.KindFalse, syntax.KindNone, syntax.KindEllipsis:
		// literals; f-strings carry named interpolation children, plain
		// strings carry none
		for child := range syntax.NamedChildren(n) {
			if child.Kind() == "interpolation" {
				b.walkExpr(child.NamedChild(0))
			}
		}
	default:
		for child := range syntax.NamedChildren(n) {
			if child.Kind() == "comment" {
				continue
			}
			b.walkExpr(child)
		}
	}
}

func (b *builder) walkLambda(n *sitter.Node) {
	params := syntax.Field(n, "parameters")
	b.walkParamExprs(params)
	id := b.enterScope(ScopeLambda, n, Lazy)
	b.bindParams(params)
	if body := syntax.Field(n, "body"); body != nil {
		b.walkExpr(body)
	}
	b.leaveScope(id)
}

// walkNamedExpression handles the walrus operator: the value is read here,
// the name binds in the nearest enclosing non-comprehension scope.
func (b *builder) walkNamedExpression(n *sitter.Node) {
	if v := syntax.Field(n, "value"); v != nil {
		b.walkExpr(v)
	}
	nameNode := syntax.Field(n, "name")
	if nameNode == nil || nameNode.Kind() != syntax.KindIdentifier {
		return
	}
	if b.comprehensionIterable > 0 {
		b.reportError(diag.SemWalrusInTopComprehension, b.tree.Span(n),
			"assignment expression not allowed in a comprehension iterable")
	}
	target := b.cur()
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].kind != ScopeComprehension {
			target = b.stack[i]
			break
		}
	}
	b.define(target, NameExpr(b.tree.Text(nameNode)), DefNamedExpression, nameNode, 0, false)
}

// walkComprehension opens one scope per for-clause. The first iterable
// evaluates in the enclosing scope, later iterables in the previous
// clause's scope; if-clauses narrow everything downstream of them.
func (b *builder) walkComprehension(n *sitter.Node) {
	laziness := Eager
	if n.Kind() == syntax.KindGeneratorExpression {
		laziness = Lazy
	}

	var opened []FileScopeID
	for clause := range syntax.NamedChildren(n) {
		switch clause.Kind() {
		case syntax.KindForInClause:
			right := syntax.Field(clause, "right")
			if len(opened) == 0 {
				b.comprehensionIterable++
				b.walkExpr(right)
				b.comprehensionIterable--
			} else {
				b.walkExpr(right)
			}
			id := b.enterScope(ScopeComprehension, clause, laziness)
			opened = append(opened, id)
			if left := syntax.Field(clause, "left"); left != nil {
				b.bindTarget(left, DefComprehension)
			}
		case syntax.KindIfClause:
			cond := clause.NamedChild(0)
			if cond == nil {
				continue
			}
			b.walkExpr(cond)
			ctx := b.cur()
			atom := ctx.data.Reach.Atom(syntax.KeyOf(cond), false)
			ctx.flow.reach = ctx.data.Reach.And(ctx.flow.reach, atom)
			b.applyNarrowing(ctx.flow, cond, false)
		}
	}

	if body := syntax.Field(n, "body"); body != nil {
		b.walkExpr(body)
	}
	for i := len(opened) - 1; i >= 0; i-- {
		b.leaveScope(opened[i])
	}
}

// applyNarrowing interprets a guard expression over the given flow state:
// truthiness, isinstance, is/==/in comparisons and nested and/or/not forms.
// Guards it cannot decompose narrow nothing.
func (b *builder) applyNarrowing(f *flowState, cond *sitter.Node, negated bool) {
	if cond == nil {
		return
	}
	switch cond.Kind() {
	case syntax.KindParenthesized:
		b.applyNarrowing(f, cond.NamedChild(0), negated)
	case syntax.KindNotOperator:
		b.applyNarrowing(f, syntax.Field(cond, "argument"), !negated)
	case syntax.KindBooleanOperator:
		op := syntax.Field(cond, "operator")
		if op == nil {
			return
		}
		// `a and b` narrows both in the true branch, `a or b` both in the
		// false branch; the mixed cases admit no conjunction
		if (op.Kind() == "and" && !negated) || (op.Kind() == "or" && negated) {
			b.applyNarrowing(f, syntax.Field(cond, "left"), negated)
			b.applyNarrowing(f, syntax.Field(cond, "right"), negated)
		}
	case syntax.KindIdentifier, syntax.KindAttribute:
		b.narrowPlace(f, cond, PredTruthy, cond, negated)
	case syntax.KindNamedExpression:
		if name := syntax.Field(cond, "name"); name != nil {
			b.narrowPlace(f, name, PredTruthy, cond, negated)
		}
	case syntax.KindCall:
		b.applyCallNarrowing(f, cond, negated)
	case syntax.KindComparisonOperator:
		b.applyComparisonNarrowing(f, cond, negated)
	}
}

func (b *builder) applyCallNarrowing(f *flowState, call *sitter.Node, negated bool) {
	fn := syntax.Field(call, "function")
	if fn == nil || fn.Kind() != syntax.KindIdentifier || b.tree.Text(fn) != "isinstance" {
		return
	}
	args := syntax.Field(call, "arguments")
	if args == nil {
		return
	}
	var operands []*sitter.Node
	for a := range syntax.NamedChildren(args) {
		operands = append(operands, a)
	}
	if len(operands) != 2 {
		return
	}
	b.narrowPlace(f, operands[0], PredIsInstance, operands[1], negated)
}

func (b *builder) applyComparisonNarrowing(f *flowState, cond *sitter.Node, negated bool) {
	var operands []*sitter.Node
	for c := range syntax.NamedChildren(cond) {
		operands = append(operands, c)
	}
	if len(operands) != 2 {
		return
	}
	op := ""
	for c := range syntax.Children(cond) {
		switch c.Kind() {
		case "is", "is not", "==", "!=", "in", "not in":
			if op == "" {
				op = c.Kind()
			}
		}
	}
	var kind PredicateKind
	flip := false
	switch op {
	case "is":
		kind = PredIs
	case "is not":
		kind, flip = PredIs, true
	case "==":
		kind = PredEquals
	case "!=":
		kind, flip = PredEquals, true
	case "in":
		kind = PredIn
	case "not in":
		kind, flip = PredIn, true
	default:
		return
	}
	neg := negated != flip
	if _, ok := b.placeExprOf(operands[0]); ok {
		b.narrowPlace(f, operands[0], kind, operands[1], neg)
		return
	}
	if kind == PredIn {
		// `x in y` narrows x, not the container
		return
	}
	if _, ok := b.placeExprOf(operands[1]); ok {
		b.narrowPlace(f, operands[1], kind, operands[0], neg)
	}
}

// narrowPlace interns a predicate over a place and ANDs it onto the place's
// live bindings in the given state.
func (b *builder) narrowPlace(f *flowState, placeNode *sitter.Node, kind PredicateKind, refNode *sitter.Node, negated bool) {
	expr, ok := b.placeExprOf(placeNode)
	if !ok {
		return
	}
	ctx := b.cur()
	pid := ctx.data.Table.ensure(expr)
	nid := ctx.data.Narrow.Atom(Predicate{
		Kind:    kind,
		Place:   pid,
		Node:    syntax.KeyOf(refNode),
		Negated: negated,
	})
	f.narrow(pid, nid, ctx.data.Narrow)
}
