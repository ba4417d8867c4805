package tree

import (
	"fmt"
	"math"

	"fortio.org/safecast"

	"volta/internal/fbuf"
	"volta/internal/ident"
	"volta/internal/source"
)

// Stream markers. The format is stable only within a single build:
// kind ordinals and the canonical slot order are the compatibility
// boundary.
const (
	nullMarker    = 0xffff
	backrefMarker = 0xfffe
)

// WriteCtx serializes a tree graph to a stream. Nodes written twice
// within one context become back-references, preserving sharing.
type WriteCtx struct {
	f          *fbuf.Buf
	locs       *source.WriteCtx
	generation uint32
	nNodes     uint32
	typeIndex  map[*Type]uint32
}

// WriteBegin starts a serialization context on f. Locations resolve
// file names through reg.
func WriteBegin(f *fbuf.Buf, reg *source.Registry) *WriteCtx {
	return &WriteCtx{
		f:          f,
		locs:       source.WriteBegin(reg, f),
		generation: nextGeneration(),
		typeIndex:  make(map[*Type]uint32),
	}
}

// Write emits one node and everything reachable from it through child
// and reference slots.
func (ctx *WriteCtx) Write(t *Node) {
	if t == nil {
		ctx.f.WriteU16(nullMarker)
		return
	}

	if t.generation == ctx.generation {
		// Already written within this context
		ctx.f.WriteU16(backrefMarker)
		ctx.f.PutUint(uint64(t.index))
		return
	}

	t.generation = ctx.generation
	t.index = ctx.nNodes
	ctx.nNodes++

	ctx.f.WriteU16(uint16(t.kind))
	ctx.locs.Write(t.loc)
	ctx.f.WriteU16(uint16(t.flags))

	k := t.kind
	if k.has(slotIdent) {
		ctx.writeIdent(t.ident)
	}
	if k.has(slotIdent2) {
		ctx.writeIdent(t.ident2)
	}
	if k.has(slotPorts) {
		ctx.writeArray(t.ports)
	}
	if k.has(slotGenerics) {
		ctx.writeArray(t.generics)
	}
	if k.has(slotDecls) {
		ctx.writeArray(t.decls)
	}
	if k.has(slotTriggers) {
		ctx.writeArray(t.triggers)
	}
	if k.has(slotStmts) {
		ctx.writeArray(t.stmts)
	}
	if k.has(slotElses) {
		ctx.writeArray(t.elses)
	}
	if k.has(slotWaveforms) {
		ctx.writeArray(t.waves)
	}
	if k.has(slotDrivers) {
		ctx.writeArray(t.drivers)
	}
	if k.has(slotType) {
		ctx.writeType(t.typ)
	}
	if k.has(slotValue) {
		ctx.Write(t.value)
	}
	if k.has(slotDelay) {
		ctx.Write(t.delay)
	}
	if k.has(slotTarget) {
		ctx.Write(t.target)
	}
	if k.has(slotRef) {
		ctx.Write(t.ref)
	}
	if k.has(slotMessage) {
		ctx.Write(t.message)
	}
	if k.has(slotSeverity) {
		ctx.Write(t.severity)
	}
	if k.has(slotName) {
		ctx.Write(t.name)
	}
	if k.has(slotSpec) {
		ctx.Write(t.spec)
	}
	if k.has(slotReject) {
		ctx.Write(t.reject)
	}
	if k.has(slotGuard) {
		ctx.Write(t.guard)
	}
	if k.has(slotContexts) {
		ctx.f.PutUint(uint64(len(t.contexts)))
		for i := range t.contexts {
			ctx.writeIdent(t.contexts[i].Name)
			ctx.locs.Write(t.contexts[i].Loc)
		}
	}
	if k.has(slotParams) {
		ctx.writeParams(t.params)
	}
	if k.has(slotGenmaps) {
		ctx.writeParams(t.genmaps)
	}
	if k.has(slotAssocs) {
		ctx.writeAssocs(t.assocs)
	}
	if k.has(slotRange) {
		if t.rng == nil {
			ctx.f.WriteU16(nullMarker)
		} else {
			ctx.f.WriteU16(uint16(t.rng.Kind))
			ctx.Write(t.rng.Left)
			ctx.Write(t.rng.Right)
		}
	}
	if k.has(slotLiteral) {
		ctx.writeLiteral(t.literal)
	}
	if k.has(slotPos) {
		ctx.f.PutUint(uint64(t.pos))
	}
	if k.has(slotPortMode) {
		ctx.f.WriteRaw([]byte{byte(t.portMode)})
	}
	if k.has(slotClass) {
		ctx.f.WriteRaw([]byte{byte(t.class)})
	}
	if k.has(slotAttrKind) {
		ctx.f.WriteRaw([]byte{byte(t.attrKind)})
	}
	if k.has(slotSubKind) {
		ctx.f.WriteRaw([]byte{byte(t.subKind)})
	}

	ctx.writeAttrs(t.attrs)
}

func (ctx *WriteCtx) writeIdent(id ident.ID) {
	if id == ident.None {
		ctx.f.PutString("")
	} else {
		ctx.f.PutString(ident.Str(id))
	}
}

func (ctx *WriteCtx) writeArray(items []*Node) {
	ctx.f.PutUint(uint64(len(items)))
	for _, item := range items {
		ctx.Write(item)
	}
}

func (ctx *WriteCtx) writeParams(params []Param) {
	ctx.f.PutUint(uint64(len(params)))
	for i := range params {
		p := &params[i]
		ctx.f.WriteRaw([]byte{byte(p.Kind)})
		switch p.Kind {
		case PPos:
			ctx.f.PutUint(uint64(p.Pos))
			ctx.Write(p.Value)
		case PNamed:
			ctx.writeIdent(p.Name)
			ctx.Write(p.Value)
		case PRange:
			ctx.f.WriteRaw([]byte{byte(p.Range.Kind)})
			ctx.Write(p.Range.Left)
			ctx.Write(p.Range.Right)
		}
	}
}

func (ctx *WriteCtx) writeAssocs(assocs []Assoc) {
	ctx.f.PutUint(uint64(len(assocs)))
	for i := range assocs {
		a := &assocs[i]
		ctx.f.WriteRaw([]byte{byte(a.Kind)})
		ctx.Write(a.Value)
		switch a.Kind {
		case APos:
			ctx.f.PutUint(uint64(a.Pos))
		case ANamed:
			ctx.Write(a.Name)
		case ARange:
			ctx.f.WriteRaw([]byte{byte(a.Range.Kind)})
			ctx.Write(a.Range.Left)
			ctx.Write(a.Range.Right)
		case AOthers:
		}
	}
}

func (ctx *WriteCtx) writeLiteral(l Literal) {
	ctx.f.WriteRaw([]byte{byte(l.Kind)})
	switch l.Kind {
	case LInt:
		ctx.f.PutInt(l.I)
	case LReal:
		ctx.f.WriteU64(math.Float64bits(l.R))
	case LPhysical:
		ctx.f.PutInt(l.I)
		ctx.f.WriteU64(math.Float64bits(l.R))
	case LString:
		ctx.f.PutUint(uint64(len(l.Chars)))
		for _, c := range l.Chars {
			ctx.Write(c)
		}
	case LNull:
	}
}

func (ctx *WriteCtx) writeAttrs(attrs []attr) {
	ctx.f.PutUint(uint64(len(attrs)))
	for i := range attrs {
		a := &attrs[i]
		if a.kind == attrPtr {
			panic("tree: pointer attributes cannot be saved")
		}
		ctx.f.WriteRaw([]byte{byte(a.kind)})
		ctx.writeIdent(a.name)
		switch a.kind {
		case attrString:
			ctx.f.PutString(a.sval)
		case attrInt:
			ctx.f.PutInt(int64(a.ival))
		case attrTree:
			ctx.Write(a.tval)
		}
	}
}

func (ctx *WriteCtx) writeType(t *Type) {
	if t == nil {
		ctx.f.WriteU16(nullMarker)
		return
	}
	if index, ok := ctx.typeIndex[t]; ok {
		ctx.f.WriteU16(backrefMarker)
		ctx.f.PutUint(uint64(index))
		return
	}

	index, err := safecast.Conv[uint32](len(ctx.typeIndex))
	if err != nil {
		panic(fmt.Errorf("tree: type index overflow: %w", err))
	}
	ctx.typeIndex[t] = index

	ctx.f.WriteU16(uint16(t.kind))
	ctx.writeIdent(t.name)

	ctx.f.PutUint(uint64(len(t.dims)))
	for i := range t.dims {
		ctx.f.WriteRaw([]byte{byte(t.dims[i].Kind)})
		ctx.Write(t.dims[i].Left)
		ctx.Write(t.dims[i].Right)
	}

	ctx.writeType(t.base)
	ctx.Write(t.resolution)

	ctx.f.PutUint(uint64(len(t.units)))
	for i := range t.units {
		ctx.writeIdent(t.units[i].Name)
		ctx.Write(t.units[i].Multiplier)
	}

	ctx.writeArray(t.enumLits)
	ctx.writeArray(t.fields)

	ctx.f.PutUint(uint64(len(t.indexCons)))
	for _, ic := range t.indexCons {
		ctx.writeType(ic)
	}

	ctx.f.PutUint(uint64(len(t.params)))
	for _, p := range t.params {
		ctx.writeType(p)
	}
	ctx.writeType(t.result)
}

// ReadCtx restores a tree graph written by WriteCtx.
type ReadCtx struct {
	f     *fbuf.Buf
	locs  *source.ReadCtx
	store []*Node
	types []*Type
}

// ReadBegin starts a deserialization context on f, remapping file
// references onto reg.
func ReadBegin(f *fbuf.Buf, reg *source.Registry) *ReadCtx {
	return &ReadCtx{
		f:    f,
		locs: source.ReadBegin(reg, f),
	}
}

type corruptError struct{ err error }

// Read restores one node. A corrupt stream yields an error; a node
// graph written with the same build reads back structurally equal.
func (ctx *ReadCtx) Read() (t *Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(corruptError); ok {
				t, err = nil, ce.err
				return
			}
			panic(r)
		}
	}()

	t = ctx.readNode()
	if ferr := ctx.f.Err(); ferr != nil {
		return nil, ferr
	}
	return t, nil
}

func (ctx *ReadCtx) corrupt(format string, args ...any) {
	panic(corruptError{fmt.Errorf(format, args...)})
}

// Recall returns the n'th node read in this context.
func (ctx *ReadCtx) Recall(index uint32) *Node {
	return ctx.store[index]
}

func (ctx *ReadCtx) readNode() *Node {
	marker := ctx.f.ReadU16()
	if marker == nullMarker {
		return nil
	} else if marker == backrefMarker {
		index := ctx.f.GetUint()
		if index >= uint64(len(ctx.store)) {
			ctx.corrupt("corrupt tree back-reference %d in %s", index, ctx.f.Name())
		}
		return ctx.store[index]
	}

	if marker >= uint16(lastKind) {
		ctx.corrupt("corrupt tree kind %x in %s", marker, ctx.f.Name())
	}

	t := New(Kind(marker))

	loc, err := ctx.locs.Read()
	if err != nil {
		ctx.corrupt("%s", err)
	}
	t.loc = loc
	t.flags = Flags(ctx.f.ReadU16())

	// Register for back-references before reading children: a child
	// may reference upwards through a declaration cycle.
	t.index = uint32(len(ctx.store))
	ctx.store = append(ctx.store, t)

	k := t.kind
	if k.has(slotIdent) {
		t.ident = ctx.readIdent()
	}
	if k.has(slotIdent2) {
		t.ident2 = ctx.readIdent()
	}
	if k.has(slotPorts) {
		t.ports = ctx.readArray()
	}
	if k.has(slotGenerics) {
		t.generics = ctx.readArray()
	}
	if k.has(slotDecls) {
		t.decls = ctx.readArray()
	}
	if k.has(slotTriggers) {
		t.triggers = ctx.readArray()
	}
	if k.has(slotStmts) {
		t.stmts = ctx.readArray()
	}
	if k.has(slotElses) {
		t.elses = ctx.readArray()
	}
	if k.has(slotWaveforms) {
		t.waves = ctx.readArray()
	}
	if k.has(slotDrivers) {
		t.drivers = ctx.readArray()
	}
	if k.has(slotType) {
		if typ := ctx.readType(); typ != nil {
			typ.ref()
			t.typ = typ
		}
	}
	if k.has(slotValue) {
		t.value = ctx.readNode()
	}
	if k.has(slotDelay) {
		t.delay = ctx.readNode()
	}
	if k.has(slotTarget) {
		t.target = ctx.readNode()
	}
	if k.has(slotRef) {
		t.ref = ctx.readNode()
	}
	if k.has(slotMessage) {
		t.message = ctx.readNode()
	}
	if k.has(slotSeverity) {
		t.severity = ctx.readNode()
	}
	if k.has(slotName) {
		t.name = ctx.readNode()
	}
	if k.has(slotSpec) {
		t.spec = ctx.readNode()
	}
	if k.has(slotReject) {
		t.reject = ctx.readNode()
	}
	if k.has(slotGuard) {
		t.guard = ctx.readNode()
	}
	if k.has(slotContexts) {
		n := ctx.f.GetUint()
		for i := uint64(0); i < n; i++ {
			name := ctx.readIdent()
			loc, err := ctx.locs.Read()
			if err != nil {
				ctx.corrupt("%s", err)
			}
			t.contexts = append(t.contexts, Context{Name: name, Loc: loc})
		}
	}
	if k.has(slotParams) {
		t.params = ctx.readParams()
	}
	if k.has(slotGenmaps) {
		t.genmaps = ctx.readParams()
	}
	if k.has(slotAssocs) {
		t.assocs = ctx.readAssocs()
	}
	if k.has(slotRange) {
		marker := ctx.f.ReadU16()
		if marker != nullMarker {
			t.rng = &Range{
				Kind:  RangeKind(marker),
				Left:  ctx.readNode(),
				Right: ctx.readNode(),
			}
		}
	}
	if k.has(slotLiteral) {
		t.literal = ctx.readLiteral()
	}
	if k.has(slotPos) {
		t.pos = uint32(ctx.f.GetUint())
	}
	if k.has(slotPortMode) {
		t.portMode = PortMode(ctx.readByte())
	}
	if k.has(slotClass) {
		t.class = Class(ctx.readByte())
	}
	if k.has(slotAttrKind) {
		t.attrKind = AttrKind(ctx.readByte())
	}
	if k.has(slotSubKind) {
		t.subKind = SubprogramKind(ctx.readByte())
	}

	ctx.readAttrs(t)

	return t
}

func (ctx *ReadCtx) readByte() byte {
	var tmp [1]byte
	ctx.f.ReadRaw(tmp[:])
	return tmp[0]
}

func (ctx *ReadCtx) readIdent() ident.ID {
	s := ctx.f.GetString()
	if s == "" {
		return ident.None
	}
	return ident.New(s)
}

func (ctx *ReadCtx) readArray() []*Node {
	n := ctx.f.GetUint()
	if n == 0 {
		return nil
	}
	items := make([]*Node, n)
	for i := range items {
		items[i] = ctx.readNode()
	}
	return items
}

func (ctx *ReadCtx) readParams() []Param {
	n := ctx.f.GetUint()
	if n == 0 {
		return nil
	}
	params := make([]Param, n)
	for i := range params {
		p := &params[i]
		p.Kind = ParamKind(ctx.readByte())
		switch p.Kind {
		case PPos:
			p.Pos = uint32(ctx.f.GetUint())
			p.Value = ctx.readNode()
		case PNamed:
			p.Name = ctx.readIdent()
			p.Value = ctx.readNode()
		case PRange:
			p.Range = &Range{
				Kind:  RangeKind(ctx.readByte()),
				Left:  ctx.readNode(),
				Right: ctx.readNode(),
			}
		default:
			ctx.corrupt("corrupt parameter kind in %s", ctx.f.Name())
		}
	}
	return params
}

func (ctx *ReadCtx) readAssocs() []Assoc {
	n := ctx.f.GetUint()
	if n == 0 {
		return nil
	}
	assocs := make([]Assoc, n)
	for i := range assocs {
		a := &assocs[i]
		a.Kind = AssocKind(ctx.readByte())
		a.Value = ctx.readNode()
		switch a.Kind {
		case APos:
			a.Pos = uint32(ctx.f.GetUint())
		case ANamed:
			a.Name = ctx.readNode()
		case ARange:
			a.Range = &Range{
				Kind:  RangeKind(ctx.readByte()),
				Left:  ctx.readNode(),
				Right: ctx.readNode(),
			}
		case AOthers:
		default:
			ctx.corrupt("corrupt association kind in %s", ctx.f.Name())
		}
	}
	return assocs
}

func (ctx *ReadCtx) readLiteral() Literal {
	var l Literal
	l.Kind = LiteralKind(ctx.readByte())
	switch l.Kind {
	case LInt:
		l.I = ctx.f.GetInt()
	case LReal:
		l.R = math.Float64frombits(ctx.f.ReadU64())
	case LPhysical:
		l.I = ctx.f.GetInt()
		l.R = math.Float64frombits(ctx.f.ReadU64())
	case LString:
		n := ctx.f.GetUint()
		l.Chars = make([]*Node, n)
		for i := range l.Chars {
			l.Chars[i] = ctx.readNode()
		}
	case LNull:
	default:
		ctx.corrupt("corrupt literal kind in %s", ctx.f.Name())
	}
	return l
}

func (ctx *ReadCtx) readAttrs(t *Node) {
	n := ctx.f.GetUint()
	if n > maxAttrs {
		ctx.corrupt("corrupt attribute count %d in %s", n, ctx.f.Name())
	}
	for i := uint64(0); i < n; i++ {
		kind := attrStoreKind(ctx.readByte())
		name := ctx.readIdent()
		switch kind {
		case attrString:
			t.SetAttrStr(name, ctx.f.GetString())
		case attrInt:
			t.SetAttrInt(name, int(ctx.f.GetInt()))
		case attrTree:
			t.SetAttrTree(name, ctx.readNode())
		default:
			ctx.corrupt("corrupt attribute kind in %s", ctx.f.Name())
		}
	}
}

func (ctx *ReadCtx) readType() *Type {
	marker := ctx.f.ReadU16()
	if marker == nullMarker {
		return nil
	} else if marker == backrefMarker {
		index := ctx.f.GetUint()
		if index >= uint64(len(ctx.types)) {
			ctx.corrupt("corrupt type back-reference %d in %s", index, ctx.f.Name())
		}
		return ctx.types[index]
	}

	t := &Type{kind: TypeKind(marker)}
	ctx.types = append(ctx.types, t)

	t.name = ctx.readIdent()

	nDims := ctx.f.GetUint()
	for i := uint64(0); i < nDims; i++ {
		t.dims = append(t.dims, Range{
			Kind:  RangeKind(ctx.readByte()),
			Left:  ctx.readNode(),
			Right: ctx.readNode(),
		})
	}

	t.base = ctx.readType()
	t.resolution = ctx.readNode()

	nUnits := ctx.f.GetUint()
	for i := uint64(0); i < nUnits; i++ {
		name := ctx.readIdent()
		t.units = append(t.units, Unit{Name: name, Multiplier: ctx.readNode()})
	}

	t.enumLits = ctx.readArray()
	t.fields = ctx.readArray()

	nIndex := ctx.f.GetUint()
	for i := uint64(0); i < nIndex; i++ {
		t.indexCons = append(t.indexCons, ctx.readType())
	}

	nParams := ctx.f.GetUint()
	for i := uint64(0); i < nParams; i++ {
		t.params = append(t.params, ctx.readType())
	}
	t.result = ctx.readType()

	return t
}
