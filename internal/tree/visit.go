package tree

// VisitFn is called for each node reached by a traversal.
type VisitFn func(*Node)

type visitCtx struct {
	fn         VisitFn
	kind       Kind
	anyKind    bool
	generation uint32
	deep       bool
}

// Visit walks every child slot of every node reachable from t in
// depth-first order, calling fn once per node. Reference edges and
// types are not followed; use the garbage collector for that. Returns
// the number of nodes visited.
func Visit(t *Node, fn VisitFn) int {
	ctx := &visitCtx{fn: fn, anyKind: true, generation: nextGeneration()}
	return visitAux(t, ctx)
}

// VisitOnly is Visit restricted to nodes of the given kind; the whole
// graph is still traversed.
func VisitOnly(t *Node, fn VisitFn, kind Kind) int {
	ctx := &visitCtx{fn: fn, kind: kind, generation: nextGeneration()}
	return visitAux(t, ctx)
}

func visitArray(items []*Node, ctx *visitCtx) int {
	n := 0
	for _, item := range items {
		n += visitAux(item, ctx)
	}
	return n
}

func visitParams(params []Param, ctx *visitCtx) int {
	n := 0
	for i := range params {
		switch params[i].Kind {
		case PRange:
			n += visitRange(params[i].Range, ctx)
		case PPos, PNamed:
			n += visitAux(params[i].Value, ctx)
		}
	}
	return n
}

func visitRange(r *Range, ctx *visitCtx) int {
	if r == nil {
		return 0
	}
	n := visitAux(r.Left, ctx)
	n += visitAux(r.Right, ctx)
	return n
}

func visitAssocs(assocs []Assoc, ctx *visitCtx) int {
	n := 0
	for i := range assocs {
		switch assocs[i].Kind {
		case ANamed:
			n += visitAux(assocs[i].Name, ctx)
		case ARange:
			n += visitRange(assocs[i].Range, ctx)
		}
		n += visitAux(assocs[i].Value, ctx)
	}
	return n
}

func visitType(t *Type, ctx *visitCtx) int {
	if t == nil {
		return 0
	}

	n := 0
	switch t.kind {
	case TypeSubtype, TypeInteger, TypePhysical, TypeCarray:
		for i := range t.dims {
			n += visitRange(&t.dims[i], ctx)
		}
	}

	switch t.kind {
	case TypeSubtype, TypeCarray, TypeUarray:
		if t.base != nil {
			n += visitType(t.base, ctx)
		}
	}

	switch t.kind {
	case TypeSubtype:
		if t.resolution != nil {
			n += visitAux(t.resolution, ctx)
		}
	case TypePhysical:
		for i := range t.units {
			n += visitAux(t.units[i].Multiplier, ctx)
		}
	case TypeEnum:
		n += visitArray(t.enumLits, ctx)
	case TypeRecord:
		n += visitArray(t.fields, ctx)
	case TypeUarray:
		for _, ic := range t.indexCons {
			n += visitType(ic, ctx)
		}
	case TypeFunc:
		for _, p := range t.params {
			n += visitType(p, ctx)
		}
		n += visitType(t.result, ctx)
	}

	return n
}

func visitAux(t *Node, ctx *visitCtx) int {
	// Deep traversal also follows links out of the subtree, such as
	// references back to their declarations. Only the garbage
	// collector wants that.

	if t == nil || t.generation == ctx.generation {
		return 0
	}
	t.generation = ctx.generation

	n := 0
	k := t.kind

	if k.has(slotPorts) {
		n += visitArray(t.ports, ctx)
	}
	if k.has(slotGenerics) {
		n += visitArray(t.generics, ctx)
	}
	if k.has(slotDecls) {
		n += visitArray(t.decls, ctx)
	}
	if k.has(slotTriggers) {
		n += visitArray(t.triggers, ctx)
	}
	if k.has(slotStmts) {
		n += visitArray(t.stmts, ctx)
	}
	if k.has(slotElses) {
		n += visitArray(t.elses, ctx)
	}
	if k.has(slotWaveforms) {
		n += visitArray(t.waves, ctx)
	}
	if k.has(slotValue) {
		n += visitAux(t.value, ctx)
	}
	if k.has(slotDelay) {
		n += visitAux(t.delay, ctx)
	}
	if k.has(slotTarget) {
		n += visitAux(t.target, ctx)
	}
	if k.has(slotMessage) {
		n += visitAux(t.message, ctx)
	}
	if k.has(slotSeverity) {
		n += visitAux(t.severity, ctx)
	}
	if k.has(slotName) {
		n += visitAux(t.name, ctx)
	}
	if k.has(slotSpec) {
		n += visitAux(t.spec, ctx)
	}
	if k.has(slotReject) {
		n += visitAux(t.reject, ctx)
	}
	if k.has(slotGuard) {
		n += visitAux(t.guard, ctx)
	}
	if k.has(slotParams) {
		n += visitParams(t.params, ctx)
	}
	if k.has(slotGenmaps) {
		n += visitParams(t.genmaps, ctx)
	}
	if k.has(slotAssocs) {
		n += visitAssocs(t.assocs, ctx)
	}
	if k.has(slotRange) {
		n += visitRange(t.rng, ctx)
	}
	if k.has(slotRef) && ctx.deep {
		n += visitAux(t.ref, ctx)
	}
	if k.has(slotType) && ctx.deep {
		n += visitType(t.typ, ctx)
	}
	if k.has(slotDrivers) && ctx.deep {
		n += visitArray(t.drivers, ctx)
	}
	if ctx.deep {
		for i := range t.attrs {
			if t.attrs[i].kind == attrTree {
				n += visitAux(t.attrs[i].tval, ctx)
			}
		}
	}

	if ctx.anyKind || t.kind == ctx.kind {
		if ctx.fn != nil {
			ctx.fn(t)
		}
		n++
	}

	return n
}
