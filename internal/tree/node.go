package tree

import (
	"fmt"

	"volta/internal/ident"
	"volta/internal/source"
)

const maxContexts = 16

// Node is one tree node. Which of its slots are meaningful is fixed by
// the kind; reading or writing a slot the kind does not carry is a
// program bug and panics.
type Node struct {
	kind  Kind
	loc   source.Loc
	flags Flags

	ident  ident.ID
	ident2 ident.ID

	ports    []*Node
	generics []*Node
	decls    []*Node
	stmts    []*Node
	elses    []*Node
	triggers []*Node
	waves    []*Node
	drivers  []*Node

	contexts []Context
	params   []Param
	genmaps  []Param
	assocs   []Assoc

	target   *Node
	value    *Node
	delay    *Node
	message  *Node
	severity *Node
	ref      *Node
	name     *Node
	spec     *Node
	reject   *Node
	guard    *Node

	rng      *Range
	typ      *Type
	literal  Literal
	pos      uint32
	portMode PortMode
	class    Class
	attrKind AttrKind
	subKind  SubprogramKind

	attrs []attr

	// Traversal, copy and serialization bookkeeping
	generation uint32
	index      uint32
}

// New allocates a node of the given kind with all slots cleared and
// registers it with the process arena.
func New(kind Kind) *Node {
	if kind >= lastKind {
		panic(fmt.Sprintf("tree: invalid kind %d", kind))
	}
	n := &Node{kind: kind, loc: source.LocInvalid}
	register(n)
	return n
}

func (n *Node) check(s slotSet) {
	if !n.kind.has(s) {
		panic(fmt.Sprintf("tree: %s has no %s slot", n.kind, slotNames[s]))
	}
}

// Kind returns the node's tag.
func (n *Node) Kind() Kind { return n.kind }

// ChangeKind retags the node. Only late passes may use this; the slot
// set of the new kind must cover the populated slots.
func (n *Node) ChangeKind(kind Kind) {
	n.kind = kind
}

func (n *Node) Loc() source.Loc { return n.loc }
func (n *Node) SetLoc(loc source.Loc) { n.loc = loc }
func (n *Node) Flags() Flags { return n.flags }
func (n *Node) HasFlag(f Flags) bool { return n.flags&f != 0 }

// SetFlag ors f into the node's flags. Flags are never cleared.
func (n *Node) SetFlag(f Flags) { n.flags |= f }

func (n *Node) Ident() ident.ID {
	n.check(slotIdent)
	if n.ident == ident.None {
		panic(fmt.Sprintf("tree: %s has no identifier set", n.kind))
	}
	return n.ident
}

func (n *Node) HasIdent() bool {
	n.check(slotIdent)
	return n.ident != ident.None
}

func (n *Node) SetIdent(id ident.ID) {
	n.check(slotIdent)
	n.ident = id
}

func (n *Node) Ident2() ident.ID {
	n.check(slotIdent2)
	if n.ident2 == ident.None {
		panic(fmt.Sprintf("tree: %s has no secondary identifier set", n.kind))
	}
	return n.ident2
}

func (n *Node) HasIdent2() bool {
	n.check(slotIdent2)
	return n.ident2 != ident.None
}

func (n *Node) SetIdent2(id ident.ID) {
	n.check(slotIdent2)
	n.ident2 = id
}

// Array slots. Each has count, nth and append accessors; appends
// enforce the child's kind class.

func (n *Node) NumPorts() int { n.check(slotPorts); return len(n.ports) }
func (n *Node) Port(i int) *Node { n.check(slotPorts); return n.ports[i] }
func (n *Node) AddPort(d *Node) {
	n.check(slotPorts)
	if !d.kind.IsDecl() {
		panic(fmt.Sprintf("tree: %s is not a declaration", d.kind))
	}
	n.ports = append(n.ports, d)
}

func (n *Node) NumGenerics() int { n.check(slotGenerics); return len(n.generics) }
func (n *Node) Generic(i int) *Node { n.check(slotGenerics); return n.generics[i] }
func (n *Node) AddGeneric(d *Node) {
	n.check(slotGenerics)
	if !d.kind.IsDecl() {
		panic(fmt.Sprintf("tree: %s is not a declaration", d.kind))
	}
	n.generics = append(n.generics, d)
}

func (n *Node) NumDecls() int { n.check(slotDecls); return len(n.decls) }
func (n *Node) Decl(i int) *Node { n.check(slotDecls); return n.decls[i] }
func (n *Node) AddDecl(d *Node) {
	n.check(slotDecls)
	if !d.kind.IsDecl() {
		panic(fmt.Sprintf("tree: %s is not a declaration", d.kind))
	}
	n.decls = append(n.decls, d)
}

func (n *Node) NumStmts() int { n.check(slotStmts); return len(n.stmts) }
func (n *Node) Stmt(i int) *Node { n.check(slotStmts); return n.stmts[i] }
func (n *Node) AddStmt(s *Node) {
	n.check(slotStmts)
	if !s.kind.IsStmt() {
		panic(fmt.Sprintf("tree: %s is not a statement", s.kind))
	}
	n.stmts = append(n.stmts, s)
}

func (n *Node) NumElseStmts() int { n.check(slotElses); return len(n.elses) }
func (n *Node) ElseStmt(i int) *Node { n.check(slotElses); return n.elses[i] }
func (n *Node) AddElseStmt(s *Node) {
	n.check(slotElses)
	if !s.kind.IsStmt() {
		panic(fmt.Sprintf("tree: %s is not a statement", s.kind))
	}
	n.elses = append(n.elses, s)
}

func (n *Node) NumTriggers() int { n.check(slotTriggers); return len(n.triggers) }
func (n *Node) Trigger(i int) *Node { n.check(slotTriggers); return n.triggers[i] }
func (n *Node) AddTrigger(e *Node) {
	n.check(slotTriggers)
	if !e.kind.IsExpr() {
		panic(fmt.Sprintf("tree: %s is not an expression", e.kind))
	}
	n.triggers = append(n.triggers, e)
}

func (n *Node) NumWaveforms() int { n.check(slotWaveforms); return len(n.waves) }
func (n *Node) Waveform(i int) *Node { n.check(slotWaveforms); return n.waves[i] }
func (n *Node) AddWaveform(w *Node) {
	n.check(slotWaveforms)
	if w.kind != TWaveform {
		panic(fmt.Sprintf("tree: %s is not a waveform", w.kind))
	}
	n.waves = append(n.waves, w)
}

func (n *Node) NumDrivers() int { n.check(slotDrivers); return len(n.drivers) }
func (n *Node) Driver(i int) *Node { n.check(slotDrivers); return n.drivers[i] }
func (n *Node) AddDriver(p *Node) {
	n.check(slotDrivers)
	if p.kind != TProcess {
		panic(fmt.Sprintf("tree: %s is not a process", p.kind))
	}
	n.drivers = append(n.drivers, p)
}

func (n *Node) NumContexts() int { n.check(slotContexts); return len(n.contexts) }
func (n *Node) Context(i int) Context { n.check(slotContexts); return n.contexts[i] }
func (n *Node) AddContext(ctx Context) {
	n.check(slotContexts)
	if len(n.contexts) >= maxContexts {
		panic("tree: too many context clauses")
	}
	n.contexts = append(n.contexts, ctx)
}

func (n *Node) NumParams() int { n.check(slotParams); return len(n.params) }
func (n *Node) Param(i int) Param { n.check(slotParams); return n.params[i] }
func (n *Node) AddParam(p Param) {
	n.check(slotParams)
	checkParam(p)
	if p.Kind == PPos {
		p.Pos = uint32(len(n.params))
	}
	n.params = append(n.params, p)
}

func (n *Node) NumGenmaps() int { n.check(slotGenmaps); return len(n.genmaps) }
func (n *Node) Genmap(i int) Param { n.check(slotGenmaps); return n.genmaps[i] }
func (n *Node) AddGenmap(p Param) {
	n.check(slotGenmaps)
	checkParam(p)
	if p.Kind == PPos {
		p.Pos = uint32(len(n.genmaps))
	}
	n.genmaps = append(n.genmaps, p)
}

func checkParam(p Param) {
	if p.Kind == PRange {
		if p.Range == nil {
			panic("tree: range parameter without range")
		}
	} else if p.Value == nil || !p.Value.kind.IsExpr() {
		panic("tree: parameter value is not an expression")
	}
}

func (n *Node) NumAssocs() int { n.check(slotAssocs); return len(n.assocs) }
func (n *Node) Assoc(i int) Assoc { n.check(slotAssocs); return n.assocs[i] }
func (n *Node) AddAssoc(a Assoc) {
	n.check(slotAssocs)
	if a.Kind == APos {
		pos := uint32(0)
		for i := range n.assocs {
			if n.assocs[i].Kind == APos {
				pos++
			}
		}
		a.Pos = pos
	}
	n.assocs = append(n.assocs, a)
}

// Single-child slots.

func (n *Node) Target() *Node {
	n.check(slotTarget)
	if n.target == nil {
		panic(fmt.Sprintf("tree: %s has no target set", n.kind))
	}
	return n.target
}

func (n *Node) SetTarget(t *Node) {
	n.check(slotTarget)
	n.target = t
}

func (n *Node) Value() *Node {
	n.check(slotValue)
	if n.value == nil {
		panic(fmt.Sprintf("tree: %s has no value set", n.kind))
	}
	return n.value
}

func (n *Node) HasValue() bool {
	n.check(slotValue)
	return n.value != nil
}

func (n *Node) SetValue(v *Node) {
	n.check(slotValue)
	if v != nil && !v.kind.IsExpr() {
		panic(fmt.Sprintf("tree: %s is not an expression", v.kind))
	}
	n.value = v
}

func (n *Node) Delay() *Node {
	n.check(slotDelay)
	if n.delay == nil {
		panic(fmt.Sprintf("tree: %s has no delay set", n.kind))
	}
	return n.delay
}

func (n *Node) HasDelay() bool {
	n.check(slotDelay)
	return n.delay != nil
}

func (n *Node) SetDelay(d *Node) {
	n.check(slotDelay)
	if !d.kind.IsExpr() {
		panic(fmt.Sprintf("tree: %s is not an expression", d.kind))
	}
	n.delay = d
}

func (n *Node) Message() *Node {
	n.check(slotMessage)
	if n.message == nil {
		panic(fmt.Sprintf("tree: %s has no message set", n.kind))
	}
	return n.message
}

func (n *Node) HasMessage() bool {
	n.check(slotMessage)
	return n.message != nil
}

func (n *Node) SetMessage(m *Node) {
	n.check(slotMessage)
	if !m.kind.IsExpr() {
		panic(fmt.Sprintf("tree: %s is not an expression", m.kind))
	}
	n.message = m
}

func (n *Node) Severity() *Node {
	n.check(slotSeverity)
	if n.severity == nil {
		panic(fmt.Sprintf("tree: %s has no severity set", n.kind))
	}
	return n.severity
}

func (n *Node) HasSeverity() bool {
	n.check(slotSeverity)
	return n.severity != nil
}

func (n *Node) SetSeverity(s *Node) {
	n.check(slotSeverity)
	if !s.kind.IsExpr() {
		panic(fmt.Sprintf("tree: %s is not an expression", s.kind))
	}
	n.severity = s
}

func (n *Node) Ref() *Node {
	n.check(slotRef)
	if n.ref == nil {
		panic(fmt.Sprintf("tree: %s has no reference set", n.kind))
	}
	return n.ref
}

func (n *Node) HasRef() bool {
	n.check(slotRef)
	return n.ref != nil
}

func (n *Node) SetRef(decl *Node) {
	n.check(slotRef)
	if decl != nil && !decl.kind.IsDecl() && decl.kind != TEnumLit && !decl.kind.IsTopLevel() {
		panic(fmt.Sprintf("tree: %s cannot be referenced", decl.kind))
	}
	n.ref = decl
}

func (n *Node) Name() *Node {
	n.check(slotName)
	if n.name == nil {
		panic(fmt.Sprintf("tree: %s has no name set", n.kind))
	}
	return n.name
}

func (n *Node) HasName() bool {
	n.check(slotName)
	return n.name != nil
}

func (n *Node) SetName(m *Node) {
	n.check(slotName)
	n.name = m
}

func (n *Node) Spec() *Node {
	n.check(slotSpec)
	if n.spec == nil {
		panic(fmt.Sprintf("tree: %s has no specification set", n.kind))
	}
	return n.spec
}

func (n *Node) HasSpec() bool {
	n.check(slotSpec)
	return n.spec != nil
}

func (n *Node) SetSpec(s *Node) {
	n.check(slotSpec)
	n.spec = s
}

func (n *Node) Reject() *Node {
	n.check(slotReject)
	if n.reject == nil {
		panic(fmt.Sprintf("tree: %s has no reject limit set", n.kind))
	}
	return n.reject
}

func (n *Node) HasReject() bool {
	n.check(slotReject)
	return n.reject != nil
}

func (n *Node) SetReject(r *Node) {
	n.check(slotReject)
	if !r.kind.IsExpr() {
		panic(fmt.Sprintf("tree: %s is not an expression", r.kind))
	}
	n.reject = r
}

func (n *Node) Guard() *Node {
	n.check(slotGuard)
	if n.guard == nil {
		panic(fmt.Sprintf("tree: %s has no guard set", n.kind))
	}
	return n.guard
}

func (n *Node) HasGuard() bool {
	n.check(slotGuard)
	return n.guard != nil
}

func (n *Node) SetGuard(g *Node) {
	n.check(slotGuard)
	if !g.kind.IsExpr() {
		panic(fmt.Sprintf("tree: %s is not an expression", g.kind))
	}
	n.guard = g
}

func (n *Node) Range() Range {
	n.check(slotRange)
	if n.rng == nil {
		panic(fmt.Sprintf("tree: %s has no range set", n.kind))
	}
	return *n.rng
}

func (n *Node) HasRange() bool {
	n.check(slotRange)
	return n.rng != nil
}

func (n *Node) SetRange(r Range) {
	n.check(slotRange)
	n.rng = &r
}

func (n *Node) Type() *Type {
	n.check(slotType)
	if n.typ == nil {
		panic(fmt.Sprintf("tree: %s has no type set", n.kind))
	}
	return n.typ
}

func (n *Node) HasType() bool {
	n.check(slotType)
	return n.typ != nil
}

func (n *Node) SetType(t *Type) {
	n.check(slotType)
	t.ref()
	if n.typ != nil {
		n.typ.unref()
	}
	n.typ = t
}

func (n *Node) Literal() Literal {
	n.check(slotLiteral)
	return n.literal
}

func (n *Node) SetLiteral(l Literal) {
	n.check(slotLiteral)
	n.literal = l
}

func (n *Node) Pos() uint32 {
	n.check(slotPos)
	return n.pos
}

func (n *Node) SetPos(pos uint32) {
	n.check(slotPos)
	n.pos = pos
}

func (n *Node) PortMode() PortMode {
	n.check(slotPortMode)
	if n.portMode == PortInvalid {
		panic(fmt.Sprintf("tree: %s has no port mode set", n.kind))
	}
	return n.portMode
}

func (n *Node) SetPortMode(mode PortMode) {
	n.check(slotPortMode)
	n.portMode = mode
}

func (n *Node) Class() Class {
	n.check(slotClass)
	return n.class
}

func (n *Node) SetClass(c Class) {
	n.check(slotClass)
	n.class = c
}

func (n *Node) AttrKind() AttrKind {
	n.check(slotAttrKind)
	return n.attrKind
}

func (n *Node) SetAttrKind(k AttrKind) {
	n.check(slotAttrKind)
	n.attrKind = k
}

func (n *Node) SubKind() SubprogramKind {
	n.check(slotSubKind)
	return n.subKind
}

func (n *Node) SetSubKind(k SubprogramKind) {
	n.check(slotSubKind)
	n.subKind = k
}
