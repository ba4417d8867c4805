package tree

type copyCtx struct {
	copied    map[*Node]*Node
	refFixups []*Node
}

// Copy deep-copies the graph rooted at t. Sharing inside the copied
// subgraph is preserved; attached types are shared by reference.
// Declarations reached only through reference edges are not copied:
// a reference whose target lies outside the copied subgraph keeps
// pointing at the original declaration.
func Copy(t *Node) *Node {
	ctx := &copyCtx{copied: make(map[*Node]*Node)}
	dup := copyAux(t, ctx)

	// Reference edges resolve after the walk so that declarations
	// copied later still win over sharing.
	for _, n := range ctx.refFixups {
		if target, ok := ctx.copied[n.ref]; ok {
			n.ref = target
		}
	}

	return dup
}

func copyArray(items []*Node, ctx *copyCtx) []*Node {
	if items == nil {
		return nil
	}
	out := make([]*Node, len(items))
	for i, item := range items {
		out[i] = copyAux(item, ctx)
	}
	return out
}

func copyParams(params []Param, ctx *copyCtx) []Param {
	if params == nil {
		return nil
	}
	out := make([]Param, len(params))
	for i := range params {
		out[i] = params[i]
		switch params[i].Kind {
		case PRange:
			out[i].Range = copyRange(params[i].Range, ctx)
		case PPos, PNamed:
			out[i].Value = copyAux(params[i].Value, ctx)
		}
	}
	return out
}

func copyRange(r *Range, ctx *copyCtx) *Range {
	if r == nil {
		return nil
	}
	return &Range{
		Kind:  r.Kind,
		Left:  copyAux(r.Left, ctx),
		Right: copyAux(r.Right, ctx),
	}
}

func copyAssocs(assocs []Assoc, ctx *copyCtx) []Assoc {
	if assocs == nil {
		return nil
	}
	out := make([]Assoc, len(assocs))
	for i := range assocs {
		out[i] = assocs[i]
		switch assocs[i].Kind {
		case ANamed:
			out[i].Name = copyAux(assocs[i].Name, ctx)
		case ARange:
			out[i].Range = copyRange(assocs[i].Range, ctx)
		}
		out[i].Value = copyAux(assocs[i].Value, ctx)
	}
	return out
}

func copyAux(t *Node, ctx *copyCtx) *Node {
	if t == nil {
		return nil
	}
	if dup, ok := ctx.copied[t]; ok {
		return dup
	}

	dup := New(t.kind)
	ctx.copied[t] = dup

	dup.loc = t.loc
	dup.flags = t.flags
	dup.ident = t.ident
	dup.ident2 = t.ident2

	k := t.kind
	if k.has(slotPorts) {
		dup.ports = copyArray(t.ports, ctx)
	}
	if k.has(slotGenerics) {
		dup.generics = copyArray(t.generics, ctx)
	}
	if k.has(slotDecls) {
		dup.decls = copyArray(t.decls, ctx)
	}
	if k.has(slotTriggers) {
		dup.triggers = copyArray(t.triggers, ctx)
	}
	if k.has(slotStmts) {
		dup.stmts = copyArray(t.stmts, ctx)
	}
	if k.has(slotElses) {
		dup.elses = copyArray(t.elses, ctx)
	}
	if k.has(slotWaveforms) {
		dup.waves = copyArray(t.waves, ctx)
	}
	if k.has(slotDrivers) {
		dup.drivers = copyArray(t.drivers, ctx)
	}
	if k.has(slotType) && t.typ != nil {
		dup.typ = t.typ
		dup.typ.ref()
	}
	if k.has(slotValue) {
		dup.value = copyAux(t.value, ctx)
	}
	if k.has(slotDelay) {
		dup.delay = copyAux(t.delay, ctx)
	}
	if k.has(slotTarget) {
		dup.target = copyAux(t.target, ctx)
	}
	if k.has(slotMessage) {
		dup.message = copyAux(t.message, ctx)
	}
	if k.has(slotSeverity) {
		dup.severity = copyAux(t.severity, ctx)
	}
	if k.has(slotName) {
		dup.name = copyAux(t.name, ctx)
	}
	if k.has(slotSpec) {
		dup.spec = copyAux(t.spec, ctx)
	}
	if k.has(slotReject) {
		dup.reject = copyAux(t.reject, ctx)
	}
	if k.has(slotGuard) {
		dup.guard = copyAux(t.guard, ctx)
	}
	if k.has(slotRef) && t.ref != nil {
		dup.ref = t.ref
		ctx.refFixups = append(ctx.refFixups, dup)
	}
	if k.has(slotContexts) && t.contexts != nil {
		dup.contexts = append([]Context(nil), t.contexts...)
	}
	if k.has(slotParams) {
		dup.params = copyParams(t.params, ctx)
	}
	if k.has(slotGenmaps) {
		dup.genmaps = copyParams(t.genmaps, ctx)
	}
	if k.has(slotAssocs) {
		dup.assocs = copyAssocs(t.assocs, ctx)
	}
	if k.has(slotRange) {
		dup.rng = copyRange(t.rng, ctx)
	}

	dup.literal = t.literal
	dup.pos = t.pos
	dup.portMode = t.portMode
	dup.class = t.class
	dup.attrKind = t.attrKind
	dup.subKind = t.subKind

	if t.attrs != nil {
		dup.attrs = append([]attr(nil), t.attrs...)
	}

	return dup
}
