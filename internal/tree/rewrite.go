package tree

// RewriteFn transforms a node after its children have been rewritten.
// Returning nil deletes the node from its containing sequence (or
// clears an optional slot).
type RewriteFn func(*Node) *Node

// PreFn is invoked on descent, before a node's children are
// rewritten. Passes use it to establish scope.
type PreFn func(*Node)

type rewriteCtx struct {
	fn    RewriteFn
	pre   PreFn
	cache map[*Node]*Node
}

// Rewrite performs a post-order rewrite of the graph rooted at t and
// returns the replacement root. Shared nodes are rewritten once; every
// use sees the same replacement. Reference edges and types are not
// followed (type declaration dimensions are the one exception).
func Rewrite(t *Node, pre PreFn, fn RewriteFn) *Node {
	ctx := &rewriteCtx{fn: fn, pre: pre, cache: make(map[*Node]*Node)}
	return rewriteAux(t, ctx)
}

func rewriteArray(items []*Node, ctx *rewriteCtx) []*Node {
	out := items[:0]
	for _, item := range items {
		if repl := rewriteAux(item, ctx); repl != nil {
			out = append(out, repl)
		}
	}
	return out
}

func rewriteParams(params []Param, ctx *rewriteCtx) {
	for i := range params {
		switch params[i].Kind {
		case PRange:
			rewriteRange(params[i].Range, ctx)
		case PPos, PNamed:
			params[i].Value = rewriteAux(params[i].Value, ctx)
		}
	}
}

func rewriteRange(r *Range, ctx *rewriteCtx) {
	if r == nil {
		return
	}
	r.Left = rewriteAux(r.Left, ctx)
	r.Right = rewriteAux(r.Right, ctx)
}

func rewriteAssocs(assocs []Assoc, ctx *rewriteCtx) {
	for i := range assocs {
		a := &assocs[i]
		a.Value = rewriteAux(a.Value, ctx)

		switch a.Kind {
		case ANamed:
			a.Name = rewriteAux(a.Name, ctx)
		case ARange:
			rewriteRange(a.Range, ctx)
		}
	}
}

func rewriteAux(t *Node, ctx *rewriteCtx) *Node {
	if t == nil {
		return nil
	}
	if repl, ok := ctx.cache[t]; ok {
		return repl
	}

	if ctx.pre != nil {
		ctx.pre(t)
	}

	k := t.kind

	if k.has(slotGenerics) {
		t.generics = rewriteArray(t.generics, ctx)
	}
	if k.has(slotPorts) {
		t.ports = rewriteArray(t.ports, ctx)
	}
	if k.has(slotDecls) {
		t.decls = rewriteArray(t.decls, ctx)
	}
	if k.has(slotTriggers) {
		t.triggers = rewriteArray(t.triggers, ctx)
	}
	if k.has(slotStmts) {
		t.stmts = rewriteArray(t.stmts, ctx)
	}
	if k.has(slotElses) {
		t.elses = rewriteArray(t.elses, ctx)
	}
	if k.has(slotWaveforms) {
		t.waves = rewriteArray(t.waves, ctx)
	}
	if k.has(slotTarget) && t.target != nil {
		t.target = rewriteAux(t.target, ctx)
	}
	if k.has(slotValue) && t.value != nil {
		t.value = rewriteAux(t.value, ctx)
	}
	if k.has(slotDelay) && t.delay != nil {
		t.delay = rewriteAux(t.delay, ctx)
	}
	if k.has(slotMessage) && t.message != nil {
		t.message = rewriteAux(t.message, ctx)
	}
	if k.has(slotSeverity) && t.severity != nil {
		t.severity = rewriteAux(t.severity, ctx)
	}
	if k.has(slotName) && t.name != nil {
		t.name = rewriteAux(t.name, ctx)
	}
	if k.has(slotGuard) && t.guard != nil {
		t.guard = rewriteAux(t.guard, ctx)
	}
	if k.has(slotReject) && t.reject != nil {
		t.reject = rewriteAux(t.reject, ctx)
	}
	if k.has(slotParams) {
		rewriteParams(t.params, ctx)
	}
	if k.has(slotGenmaps) {
		rewriteParams(t.genmaps, ctx)
	}
	if k.has(slotAssocs) {
		rewriteAssocs(t.assocs, ctx)
	}
	if k.has(slotRange) {
		rewriteRange(t.rng, ctx)
	}

	if k == TTypeDecl && t.typ != nil {
		switch t.typ.kind {
		case TypeInteger, TypePhysical, TypeCarray:
			for i := range t.typ.dims {
				rewriteRange(&t.typ.dims[i], ctx)
			}
		}
	}

	repl := ctx.fn(t)
	ctx.cache[t] = repl
	return repl
}
