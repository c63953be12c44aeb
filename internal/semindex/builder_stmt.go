package semindex

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pysema/internal/diag"
	"pysema/internal/source"
	"pysema/internal/syntax"
)

// walkBlock walks the statements of a suite (or of the module node itself).
func (b *builder) walkBlock(n *sitter.Node) {
	for child := range syntax.NamedChildren(n) {
		if child.Kind() == "comment" {
			continue
		}
		b.walkStatement(child)
	}
}

func (b *builder) walkStatement(n *sitter.Node) {
	ctx := b.cur()
	ctx.data.UseDef.recordNodeReachability(syntax.KeyOf(n), ctx.flow.reach)

	switch n.Kind() {
	case syntax.KindExpressionStatement:
		for child := range syntax.NamedChildren(n) {
			b.walkExprStatement(child)
		}
	case syntax.KindAssignment:
		b.walkAssignment(n)
	case syntax.KindAugmentedAssignment:
		b.walkAugmentedAssignment(n)
	case syntax.KindFunctionDefinition:
		b.walkFunctionDef(n)
	case syntax.KindClassDefinition:
		b.walkClassDef(n)
	case syntax.KindDecoratedDefinition:
		for child := range syntax.NamedChildren(n) {
			if child.Kind() == "decorator" {
				if expr := child.NamedChild(0); expr != nil {
					b.walkExpr(expr)
				}
			}
		}
		if def := syntax.Field(n, "definition"); def != nil {
			b.walkStatement(def)
		}
	case syntax.KindIfStatement:
		b.walkIf(n)
	case syntax.KindWhileStatement:
		b.walkWhile(n)
	case syntax.KindForStatement:
		b.walkFor(n)
	case syntax.KindTryStatement:
		b.walkTry(n)
	case syntax.KindWithStatement:
		b.walkWith(n)
	case syntax.KindMatchStatement:
		b.walkMatch(n)
	case syntax.KindReturnStatement:
		b.walkReturn(n)
	case syntax.KindRaiseStatement:
		for child := range syntax.NamedChildren(n) {
			b.walkExpr(child)
		}
		ctx.flow.markUnreachable()
	case syntax.KindPassStatement:
	case syntax.KindBreakStatement:
		b.walkLoopJump(n, true)
	case syntax.KindContinueStatement:
		b.walkLoopJump(n, false)
	case syntax.KindGlobalStatement:
		b.walkGlobal(n)
	case syntax.KindNonlocalStatement:
		b.walkNonlocal(n)
	case syntax.KindDeleteStatement:
		b.walkDelete(n)
	case syntax.KindImportStatement:
		b.walkImport(n)
	case syntax.KindImportFromStatement:
		b.walkImportFrom(n, "")
	case syntax.KindFutureImportStatement:
		b.walkImportFrom(n, "__future__")
	case syntax.KindAssertStatement:
		b.walkAssert(n)
	case syntax.KindTypeAliasStatement:
		b.walkTypeAlias(n)
	case syntax.KindBlock:
		b.walkBlock(n)
	default:
		b.walkExpr(n)
	}
}

// walkExprStatement handles the children of an expression_statement, where
// the grammar parks assignments.
func (b *builder) walkExprStatement(n *sitter.Node) {
	switch n.Kind() {
	case syntax.KindAssignment:
		b.walkAssignment(n)
	case syntax.KindAugmentedAssignment:
		b.walkAugmentedAssignment(n)
	default:
		b.walkExpr(n)
	}
}

func (b *builder) walkAssignment(n *sitter.Node) {
	left := syntax.Field(n, "left")
	right := syntax.Field(n, "right")
	annotation := syntax.Field(n, "type")

	if right != nil {
		// chained `a = b = v` nests the inner assignment on the right
		if right.Kind() == syntax.KindAssignment {
			b.walkAssignment(right)
		} else {
			b.walkExpr(right)
		}
	}
	if annotation != nil {
		b.walkExpr(annotation)
	}
	if left == nil {
		return
	}

	if annotation != nil {
		b.checkAnnotatedTarget(left)
		if right == nil {
			// declaration without a value: the place is declared, not bound
			if left.Kind() == syntax.KindIdentifier {
				b.define(b.cur(), NameExpr(b.tree.Text(left)), DefAnnotatedAssignment, left, 0, true)
			} else if expr, ok := b.placeExprOf(left); ok {
				if obj := syntax.Field(left, "object"); obj != nil {
					b.walkExpr(obj)
				}
				b.define(b.cur(), expr, DefAnnotatedAssignment, left, 0, true)
			}
			return
		}
		b.bindTarget(left, DefAnnotatedAssignment)
		return
	}
	b.bindTarget(left, DefAssignment)
}

// checkAnnotatedTarget rejects annotations on names declared global or
// nonlocal in this scope.
func (b *builder) checkAnnotatedTarget(left *sitter.Node) {
	if left.Kind() != syntax.KindIdentifier {
		return
	}
	ctx := b.cur()
	pid, ok := ctx.data.Table.PlaceIDByName(b.tree.Text(left))
	if !ok {
		return
	}
	p := ctx.data.Table.Get(pid)
	if p.IsGlobal() {
		b.reportError(diag.SemAnnotatedGlobal, b.tree.Span(left),
			fmt.Sprintf("annotated name %q cannot be global", b.tree.Text(left)))
	}
	if p.IsNonlocal() {
		b.reportError(diag.SemAnnotatedNonlocal, b.tree.Span(left),
			fmt.Sprintf("annotated name %q cannot be nonlocal", b.tree.Text(left)))
	}
}

func (b *builder) walkAugmentedAssignment(n *sitter.Node) {
	left := syntax.Field(n, "left")
	if right := syntax.Field(n, "right"); right != nil {
		b.walkExpr(right)
	}
	if left == nil {
		return
	}
	// augmented targets are read first, then rebound
	b.walkExpr(left)
	if left.Kind() == syntax.KindIdentifier || left.Kind() == syntax.KindAttribute {
		b.bindTarget(left, DefAugmentedAssignment)
	}
}

// bindTarget walks an assignment target, introducing one definition per
// bound name or attribute chain.
func (b *builder) bindTarget(n *sitter.Node, kind DefinitionKind) {
	switch n.Kind() {
	case syntax.KindIdentifier:
		b.defineName(b.tree.Text(n), kind, n)
	case syntax.KindTuplePattern, syntax.KindListPattern, syntax.KindPatternList,
		syntax.KindExpressionList, syntax.KindTuple, syntax.KindList:
		for child := range syntax.NamedChildren(n) {
			b.bindTarget(child, kind)
		}
	case syntax.KindListSplatPattern:
		if inner := n.NamedChild(0); inner != nil {
			b.bindTarget(inner, kind)
		}
	case syntax.KindParenthesized:
		if inner := n.NamedChild(0); inner != nil {
			b.bindTarget(inner, kind)
		}
	case syntax.KindAttribute:
		if obj := syntax.Field(n, "object"); obj != nil {
			b.walkExpr(obj)
		}
		if expr, ok := b.placeExprOf(n); ok {
			b.define(b.cur(), expr, kind, n, 0, false)
		}
	default:
		// subscripts and the like: reads only, no tracked binding
		b.walkExpr(n)
	}
}

func (b *builder) walkFunctionDef(n *sitter.Node) {
	nameNode := syntax.Field(n, "name")
	params := syntax.Field(n, "parameters")
	typeParams := syntax.Field(n, "type_parameters")

	// defaults, annotations and the return type evaluate where the def is
	// written, not inside the function
	b.walkParamExprs(params)
	if ret := syntax.Field(n, "return_type"); ret != nil {
		b.walkExpr(ret)
	}
	if nameNode != nil {
		b.defineName(b.tree.Text(nameNode), DefFunction, nameNode)
	}

	tpScope := NoFileScopeID
	if typeParams != nil {
		tpScope = b.enterScope(ScopeTypeParams, typeParams, Eager)
		b.bindTypeParams(typeParams)
	}
	fnScope := b.enterScope(ScopeFunction, n, Lazy)
	b.bindParams(params)
	if body := syntax.Field(n, "body"); body != nil {
		b.walkBlock(body)
	}
	b.leaveScope(fnScope)
	if tpScope.IsValid() {
		b.leaveScope(tpScope)
	}
}

func (b *builder) walkClassDef(n *sitter.Node) {
	nameNode := syntax.Field(n, "name")
	typeParams := syntax.Field(n, "type_parameters")

	if nameNode != nil {
		b.defineName(b.tree.Text(nameNode), DefClass, nameNode)
	}
	tpScope := NoFileScopeID
	if typeParams != nil {
		tpScope = b.enterScope(ScopeTypeParams, typeParams, Eager)
		b.bindTypeParams(typeParams)
	}
	if supers := syntax.Field(n, "superclasses"); supers != nil {
		for child := range syntax.NamedChildren(supers) {
			b.walkExpr(child)
		}
	}
	clsScope := b.enterScope(ScopeClass, n, Eager)
	if body := syntax.Field(n, "body"); body != nil {
		b.walkBlock(body)
	}
	b.leaveScope(clsScope)
	if tpScope.IsValid() {
		b.leaveScope(tpScope)
	}
}

// bindTypeParams binds each PEP 695 type parameter, rejecting duplicates.
func (b *builder) bindTypeParams(typeParams *sitter.Node) {
	seen := make(map[string]source.Span)
	for child := range syntax.NamedChildren(typeParams) {
		ident := syntax.FindDescendant(child, syntax.KindIdentifier)
		if ident == nil {
			continue
		}
		name := b.tree.Text(ident)
		if prev, dup := seen[name]; dup {
			b.reportError(diag.SemDuplicateTypeParam, b.tree.Span(ident),
				fmt.Sprintf("duplicate type parameter %q (first at %s)", name, prev))
			continue
		}
		seen[name] = b.tree.Span(ident)
		b.defineName(name, DefTypeParameter, ident)
	}
}

// walkParamExprs evaluates parameter defaults and annotations in the scope
// enclosing the function.
func (b *builder) walkParamExprs(params *sitter.Node) {
	if params == nil {
		return
	}
	for p := range syntax.NamedChildren(params) {
		switch p.Kind() {
		case syntax.KindDefaultParameter:
			if v := syntax.Field(p, "value"); v != nil {
				b.walkExpr(v)
			}
		case syntax.KindTypedParameter:
			if t := syntax.Field(p, "type"); t != nil {
				b.walkExpr(t)
			}
		case syntax.KindTypedDefaultParameter:
			if t := syntax.Field(p, "type"); t != nil {
				b.walkExpr(t)
			}
			if v := syntax.Field(p, "value"); v != nil {
				b.walkExpr(v)
			}
		}
	}
}

// bindParams binds parameter names inside the freshly entered function or
// lambda scope and remembers the first positional parameter.
func (b *builder) bindParams(params *sitter.Node) {
	if params == nil {
		return
	}
	ctx := b.cur()
	seen := make(map[string]source.Span)
	bind := func(ident *sitter.Node, positional bool) {
		if ident == nil || ident.Kind() != syntax.KindIdentifier {
			return
		}
		name := b.tree.Text(ident)
		if prev, dup := seen[name]; dup {
			b.reportError(diag.SemDuplicateParameter, b.tree.Span(ident),
				fmt.Sprintf("duplicate parameter %q (first at %s)", name, prev))
			return
		}
		seen[name] = b.tree.Span(ident)
		b.defineName(name, DefParameter, ident)
		if positional && ctx.data.FirstParam == "" {
			ctx.data.FirstParam = name
		}
	}
	for p := range syntax.NamedChildren(params) {
		switch p.Kind() {
		case syntax.KindIdentifier:
			bind(p, true)
		case syntax.KindDefaultParameter:
			bind(syntax.Field(p, "name"), true)
		case syntax.KindTypedParameter:
			if inner := p.NamedChild(0); inner != nil {
				if inner.Kind() == syntax.KindListSplatPattern || inner.Kind() == syntax.KindDictionarySplatPattern {
					bind(inner.NamedChild(0), false)
				} else {
					bind(inner, true)
				}
			}
		case syntax.KindTypedDefaultParameter:
			bind(syntax.Field(p, "name"), true)
		case syntax.KindListSplatPattern, syntax.KindDictionarySplatPattern:
			bind(p.NamedChild(0), false)
		case syntax.KindKeywordSeparator, syntax.KindPositionalSeparator:
		}
	}
}

func (b *builder) walkIf(n *sitter.Node) {
	ctx := b.cur()
	reach := ctx.data.Reach
	cond := syntax.Field(n, "condition")
	b.walkExpr(cond)

	atom := ReachAlways
	if cond != nil {
		atom = reach.Atom(syntax.KeyOf(cond), false)
	}
	base := ctx.flow
	thenFlow := base.snapshot()
	thenFlow.reach = reach.And(base.reach, atom)
	b.applyNarrowing(thenFlow, cond, false)
	thenFlow = b.withFlow(thenFlow, func() {
		if c := syntax.Field(n, "consequence"); c != nil {
			b.walkBlock(c)
		}
	})

	elseFlow := base.snapshot()
	elseFlow.reach = reach.And(base.reach, reach.Negate(atom))
	b.applyNarrowing(elseFlow, cond, true)

	var clauses []*sitter.Node
	for child := range syntax.NamedChildren(n) {
		if k := child.Kind(); k == syntax.KindElifClause || k == syntax.KindElseClause {
			clauses = append(clauses, child)
		}
	}
	elseFlow = b.walkElifChain(clauses, elseFlow)

	thenFlow.merge(elseFlow, reach)
	ctx.flow = thenFlow
}

func (b *builder) walkElifChain(clauses []*sitter.Node, incoming *flowState) *flowState {
	if len(clauses) == 0 {
		return incoming
	}
	ctx := b.cur()
	reach := ctx.data.Reach
	head := clauses[0]

	if head.Kind() == syntax.KindElseClause {
		return b.withFlow(incoming, func() {
			if body := syntax.Field(head, "body"); body != nil {
				b.walkBlock(body)
			}
		})
	}

	cond := syntax.Field(head, "condition")
	incoming = b.withFlow(incoming, func() { b.walkExpr(cond) })
	atom := ReachAlways
	if cond != nil {
		atom = reach.Atom(syntax.KeyOf(cond), false)
	}
	thenFlow := incoming.snapshot()
	thenFlow.reach = reach.And(incoming.reach, atom)
	b.applyNarrowing(thenFlow, cond, false)
	thenFlow = b.withFlow(thenFlow, func() {
		if c := syntax.Field(head, "consequence"); c != nil {
			b.walkBlock(c)
		}
	})

	elseFlow := incoming.snapshot()
	elseFlow.reach = reach.And(incoming.reach, reach.Negate(atom))
	b.applyNarrowing(elseFlow, cond, true)
	elseFlow = b.walkElifChain(clauses[1:], elseFlow)

	thenFlow.merge(elseFlow, reach)
	return thenFlow
}

func (b *builder) walkWhile(n *sitter.Node) {
	ctx := b.cur()
	reach := ctx.data.Reach
	cond := syntax.Field(n, "condition")
	b.walkExpr(cond)

	atom := ReachAlways
	if cond != nil {
		atom = reach.Atom(syntax.KeyOf(cond), false)
	}
	pre := ctx.flow

	bodyFlow := pre.snapshot()
	bodyFlow.reach = reach.And(pre.reach, atom)
	b.applyNarrowing(bodyFlow, cond, false)

	loop := &loopCtx{}
	ctx.loops = append(ctx.loops, loop)
	bodyFlow = b.withFlow(bodyFlow, func() {
		if body := syntax.Field(n, "body"); body != nil {
			b.walkBlock(body)
		}
	})
	ctx.loops = ctx.loops[:len(ctx.loops)-1]

	// back edge: bindings made in the body survive into later iterations,
	// but the first iteration's narrowing does not
	back := bodyFlow.snapshot()
	for _, c := range loop.continues {
		back.merge(c, reach)
	}
	back.stripNarrowing()
	merged := pre.snapshot()
	merged.merge(back, reach)

	exit := merged.snapshot()
	exit.reach = reach.And(pre.reach, reach.Negate(atom))
	b.applyNarrowing(exit, cond, true)
	for child := range syntax.NamedChildren(n) {
		if child.Kind() == syntax.KindElseClause {
			exit = b.withFlow(exit, func() {
				if body := syntax.Field(child, "body"); body != nil {
					b.walkBlock(body)
				}
			})
		}
	}
	for _, br := range loop.breaks {
		exit.merge(br, reach)
	}
	ctx.flow = exit
}

func (b *builder) walkFor(n *sitter.Node) {
	ctx := b.cur()
	reach := ctx.data.Reach
	left := syntax.Field(n, "left")
	right := syntax.Field(n, "right")
	b.walkExpr(right)

	atom := ReachAlways
	if right != nil {
		// whether the iterable yields anything is unknowable here
		atom = reach.Atom(syntax.KeyOf(right), false)
	}
	pre := ctx.flow

	bodyFlow := pre.snapshot()
	bodyFlow.reach = reach.And(pre.reach, atom)

	loop := &loopCtx{}
	ctx.loops = append(ctx.loops, loop)
	bodyFlow = b.withFlow(bodyFlow, func() {
		if left != nil {
			b.bindTarget(left, DefFor)
		}
		if body := syntax.Field(n, "body"); body != nil {
			b.walkBlock(body)
		}
	})
	ctx.loops = ctx.loops[:len(ctx.loops)-1]

	back := bodyFlow.snapshot()
	for _, c := range loop.continues {
		back.merge(c, reach)
	}
	back.stripNarrowing()
	merged := pre.snapshot()
	merged.merge(back, reach)

	exit := merged.snapshot()
	exit.reach = pre.reach
	for child := range syntax.NamedChildren(n) {
		if child.Kind() == syntax.KindElseClause {
			exit = b.withFlow(exit, func() {
				if body := syntax.Field(child, "body"); body != nil {
					b.walkBlock(body)
				}
			})
		}
	}
	for _, br := range loop.breaks {
		exit.merge(br, reach)
	}
	ctx.flow = exit
}

func (b *builder) walkTry(n *sitter.Node) {
	ctx := b.cur()
	reach := ctx.data.Reach

	// an exception can fire between any two statements of the body, so a
	// handler sees the union of every partial body state
	entry := ctx.flow
	partials := []*flowState{entry.snapshot()}
	if body := syntax.Field(n, "body"); body != nil {
		for stmt := range syntax.NamedChildren(body) {
			if stmt.Kind() == "comment" {
				continue
			}
			b.walkStatement(stmt)
			partials = append(partials, ctx.flow.snapshot())
		}
	}

	handlerEntry := partials[0].snapshot()
	for _, p := range partials[1:] {
		handlerEntry.merge(p, reach)
	}

	var handlerEnds []*flowState
	for clause := range syntax.NamedChildren(n) {
		kind := clause.Kind()
		if kind != syntax.KindExceptClause && kind != syntax.KindExceptGroupClause {
			continue
		}
		h := handlerEntry.snapshot()
		h.reach = reach.And(handlerEntry.reach, reach.Atom(syntax.KeyOf(clause), false))
		h = b.withFlow(h, func() { b.walkExceptClause(clause) })
		handlerEnds = append(handlerEnds, h)
	}

	for clause := range syntax.NamedChildren(n) {
		if clause.Kind() == syntax.KindElseClause {
			if body := syntax.Field(clause, "body"); body != nil {
				b.walkBlock(body)
			}
		}
	}

	for _, h := range handlerEnds {
		ctx.flow.merge(h, reach)
	}

	for clause := range syntax.NamedChildren(n) {
		if clause.Kind() == syntax.KindFinallyClause {
			for child := range syntax.NamedChildren(clause) {
				if child.Kind() == syntax.KindBlock {
					b.walkBlock(child)
				}
			}
		}
	}
}

func (b *builder) walkExceptClause(clause *sitter.Node) {
	ctx := b.cur()
	alias := ""
	for child := range syntax.NamedChildren(clause) {
		switch child.Kind() {
		case syntax.KindBlock:
			b.walkBlock(child)
		case syntax.KindAsPattern:
			if v := child.NamedChild(0); v != nil {
				b.walkExpr(v)
			}
			if target := aliasIdentifier(child); target != nil {
				alias = b.tree.Text(target)
				b.defineName(alias, DefExceptHandler, target)
			}
		case "comment":
		default:
			b.walkExpr(child)
		}
	}
	// the handler name is deleted when the handler exits
	if alias != "" {
		if pid, ok := ctx.data.Table.PlaceIDByName(alias); ok {
			ctx.flow.unbind(pid)
		}
	}
}

// aliasIdentifier digs the bound identifier out of an as_pattern.
func aliasIdentifier(asPattern *sitter.Node) *sitter.Node {
	target := syntax.Field(asPattern, "alias")
	if target == nil {
		return nil
	}
	if target.Kind() == syntax.KindIdentifier {
		return target
	}
	return syntax.FindDescendant(target, syntax.KindIdentifier)
}

func (b *builder) walkWith(n *sitter.Node) {
	for clause := range syntax.NamedChildren(n) {
		if clause.Kind() != syntax.KindWithClause {
			continue
		}
		for item := range syntax.NamedChildren(clause) {
			if item.Kind() != syntax.KindWithItem {
				continue
			}
			v := syntax.Field(item, "value")
			if v == nil {
				continue
			}
			if v.Kind() == syntax.KindAsPattern {
				if expr := v.NamedChild(0); expr != nil {
					b.walkExpr(expr)
				}
				if target := syntax.Field(v, "alias"); target != nil {
					bindNode := target
					if target.Kind() == syntax.KindAsPatternTarget {
						if inner := target.NamedChild(0); inner != nil {
							bindNode = inner
						}
					}
					b.bindTarget(bindNode, DefWithItem)
				}
			} else {
				b.walkExpr(v)
			}
		}
	}
	if body := syntax.Field(n, "body"); body != nil {
		b.walkBlock(body)
	}
}

func (b *builder) walkReturn(n *sitter.Node) {
	ctx := b.cur()
	for child := range syntax.NamedChildren(n) {
		b.walkExpr(child)
	}
	inFunction := false
	for i := len(b.stack) - 1; i >= 0; i-- {
		k := b.stack[i].kind
		if k == ScopeComprehension || k == ScopeTypeParams {
			continue
		}
		inFunction = k == ScopeFunction
		break
	}
	if !inFunction {
		b.reportError(diag.SemReturnOutsideFunction, b.tree.Span(n), "return outside of a function")
	}
	ctx.flow.markUnreachable()
}

func (b *builder) walkLoopJump(n *sitter.Node, isBreak bool) {
	ctx := b.cur()
	if len(ctx.loops) == 0 {
		if isBreak {
			b.reportError(diag.SemBreakOutsideLoop, b.tree.Span(n), "break outside of a loop")
		} else {
			b.reportError(diag.SemContinueOutsideLoop, b.tree.Span(n), "continue outside of a loop")
		}
		return
	}
	loop := ctx.loops[len(ctx.loops)-1]
	if isBreak {
		loop.breaks = append(loop.breaks, ctx.flow.snapshot())
	} else {
		loop.continues = append(loop.continues, ctx.flow.snapshot())
	}
	ctx.flow.markUnreachable()
}

func (b *builder) walkGlobal(n *sitter.Node) {
	ctx := b.cur()
	for ident := range syntax.NamedChildren(n) {
		if ident.Kind() != syntax.KindIdentifier {
			continue
		}
		name := b.tree.Text(ident)
		span := b.tree.Span(ident)
		if pid, ok := ctx.data.Table.PlaceIDByName(name); ok {
			p := ctx.data.Table.Get(pid)
			switch {
			case p.IsNonlocal():
				b.reportError(diag.SemGlobalAndNonlocal, span,
					fmt.Sprintf("name %q is nonlocal and global", name))
			case p.IsBound():
				b.reportError(diag.SemGlobalAfterBinding, span,
					fmt.Sprintf("name %q is assigned before global declaration", name))
			case p.IsUsed():
				b.reportError(diag.SemGlobalAfterUse, span,
					fmt.Sprintf("name %q is used before global declaration", name))
			}
		}
		pid := ctx.data.Table.ensure(NameExpr(name))
		ctx.data.Table.addFlags(pid, PlaceMarkedGlobal)
	}
}

func (b *builder) walkNonlocal(n *sitter.Node) {
	ctx := b.cur()
	atModule := ctx.kind == ScopeModule
	for ident := range syntax.NamedChildren(n) {
		if ident.Kind() != syntax.KindIdentifier {
			continue
		}
		name := b.tree.Text(ident)
		span := b.tree.Span(ident)
		if atModule {
			b.reportError(diag.SemNonlocalAtModule, span,
				fmt.Sprintf("nonlocal %q at module level", name))
			continue
		}
		if pid, ok := ctx.data.Table.PlaceIDByName(name); ok {
			p := ctx.data.Table.Get(pid)
			switch {
			case p.IsGlobal():
				b.reportError(diag.SemGlobalAndNonlocal, span,
					fmt.Sprintf("name %q is nonlocal and global", name))
			case p.IsBound():
				b.reportError(diag.SemNonlocalAfterBinding, span,
					fmt.Sprintf("name %q is assigned before nonlocal declaration", name))
			case p.IsUsed():
				b.reportError(diag.SemNonlocalAfterUse, span,
					fmt.Sprintf("name %q is used before nonlocal declaration", name))
			}
		}
		pid := ctx.data.Table.ensure(NameExpr(name))
		ctx.data.Table.addFlags(pid, PlaceMarkedNonlocal)
		b.pendingNonlocal = append(b.pendingNonlocal, nonlocalCheck{scope: ctx.id, name: name, span: span})
	}
}

func (b *builder) walkDelete(n *sitter.Node) {
	for child := range syntax.NamedChildren(n) {
		b.deleteTarget(child)
	}
}

func (b *builder) deleteTarget(n *sitter.Node) {
	ctx := b.cur()
	switch n.Kind() {
	case syntax.KindIdentifier:
		// del reads the name (unbound -> NameError), then removes it
		expr := NameExpr(b.tree.Text(n))
		b.recordUse(expr, n)
		b.define(ctx, expr, DefDel, n, 0, false)
		if pid, ok := ctx.data.Table.PlaceID(expr); ok {
			ctx.flow.unbind(pid)
		}
	case syntax.KindExpressionList, syntax.KindTuple, syntax.KindParenthesized:
		for child := range syntax.NamedChildren(n) {
			b.deleteTarget(child)
		}
	default:
		b.walkExpr(n)
	}
}

func (b *builder) walkImport(n *sitter.Node) {
	for child := range syntax.NamedChildren(n) {
		switch child.Kind() {
		case syntax.KindDottedName:
			b.addImport(b.tree.Text(child))
			// `import a.b.c` binds the top-level name only
			if top := child.NamedChild(0); top != nil && top.Kind() == syntax.KindIdentifier {
				b.defineName(b.tree.Text(top), DefImport, top)
			}
		case syntax.KindAliasedImport:
			if name := syntax.Field(child, "name"); name != nil {
				b.addImport(b.tree.Text(name))
			}
			if alias := syntax.Field(child, "alias"); alias != nil {
				b.defineName(b.tree.Text(alias), DefImport, alias)
			}
		}
	}
}

func (b *builder) walkImportFrom(n *sitter.Node, module string) {
	ctx := b.cur()
	moduleNode := syntax.Field(n, "module_name")
	if module == "" && moduleNode != nil {
		module = b.tree.Text(moduleNode)
	}
	b.addImport(module)

	moduleKey := syntax.NoNodeKey
	if moduleNode != nil {
		moduleKey = syntax.KeyOf(moduleNode)
	}
	for child := range syntax.NamedChildren(n) {
		if syntax.KeyOf(child) == moduleKey {
			continue
		}
		switch child.Kind() {
		case syntax.KindDottedName:
			b.defineName(b.tree.Text(child), DefImportFrom, child)
		case syntax.KindAliasedImport:
			if alias := syntax.Field(child, "alias"); alias != nil {
				b.defineName(b.tree.Text(alias), DefImportFrom, alias)
			}
		case syntax.KindWildcardImport:
			if ctx.kind != ScopeModule {
				b.reportError(diag.SemStarImportNotModule, b.tree.Span(child),
					"import * only allowed at module level")
			}
			if b.members == nil {
				continue
			}
			names, ok := b.members.ModuleMembers(module)
			if !ok {
				continue
			}
			for i, name := range names {
				b.define(ctx, NameExpr(name), DefImportStar, child, uint32(i), false)
			}
		}
	}
}

func (b *builder) walkAssert(n *sitter.Node) {
	ctx := b.cur()
	var cond *sitter.Node
	for child := range syntax.NamedChildren(n) {
		if cond == nil {
			cond = child
		}
		b.walkExpr(child)
	}
	if cond == nil {
		return
	}
	// execution past the assert implies the condition held
	atom := ctx.data.Reach.Atom(syntax.KeyOf(cond), false)
	ctx.flow.reach = ctx.data.Reach.And(ctx.flow.reach, atom)
	b.applyNarrowing(ctx.flow, cond, false)
}

func (b *builder) walkTypeAlias(n *sitter.Node) {
	// `type X[T] = value`: X binds in the current scope; T and the value
	// live in their own deferred scope
	var leftInner, right *sitter.Node
	for child := range syntax.NamedChildren(n) {
		if child.Kind() != syntax.KindTypeNode {
			continue
		}
		if leftInner == nil {
			leftInner = child.NamedChild(0)
		} else if right == nil {
			right = child
		}
	}
	if leftInner == nil {
		return
	}

	var nameNode *sitter.Node
	var typeParams []*sitter.Node
	switch leftInner.Kind() {
	case syntax.KindIdentifier:
		nameNode = leftInner
	case syntax.KindSubscript:
		if v := syntax.Field(leftInner, "value"); v != nil && v.Kind() == syntax.KindIdentifier {
			nameNode = v
		}
		if nameNode != nil {
			nameKey := syntax.KeyOf(nameNode)
			for sub := range syntax.NamedChildren(leftInner) {
				if syntax.KeyOf(sub) != nameKey {
					typeParams = append(typeParams, sub)
				}
			}
		}
	}
	if nameNode == nil {
		return
	}
	b.defineName(b.tree.Text(nameNode), DefTypeAlias, nameNode)

	scope := b.enterScope(ScopeTypeParams, n, Lazy)
	seen := make(map[string]source.Span)
	for _, tp := range typeParams {
		ident := tp
		if ident.Kind() != syntax.KindIdentifier {
			ident = syntax.FindDescendant(tp, syntax.KindIdentifier)
		}
		if ident == nil {
			continue
		}
		name := b.tree.Text(ident)
		if prev, dup := seen[name]; dup {
			b.reportError(diag.SemDuplicateTypeParam, b.tree.Span(ident),
				fmt.Sprintf("duplicate type parameter %q (first at %s)", name, prev))
			continue
		}
		seen[name] = b.tree.Span(ident)
		b.defineName(name, DefTypeParameter, ident)
	}
	if right != nil {
		b.walkExpr(right)
	}
	b.leaveScope(scope)
}
