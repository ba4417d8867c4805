package tree

import (
	"bytes"
	"testing"

	"volta/internal/fbuf"
	"volta/internal/ident"
	"volta/internal/source"
)

func intType() *Type {
	t := NewType(TypeInteger, ident.New("integer"))
	lo := New(TLiteral)
	lo.SetLiteral(Literal{Kind: LInt, I: -2147483648})
	lo.SetType(t)
	hi := New(TLiteral)
	hi.SetLiteral(Literal{Kind: LInt, I: 2147483647})
	hi.SetType(t)
	t.AddDim(Range{Kind: RangeTo, Left: lo, Right: hi})
	return t
}

func intLiteral(typ *Type, v int64) *Node {
	l := New(TLiteral)
	l.SetLiteral(Literal{Kind: LInt, I: v})
	l.SetType(typ)
	return l
}

func refTo(decl *Node) *Node {
	r := New(TRef)
	r.SetIdent(decl.Ident())
	r.SetRef(decl)
	if decl.HasType() {
		r.SetType(decl.Type())
	}
	return r
}

func TestNode_SlotAsserts(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{
			name: "ident on open",
			fn:   func() { New(TOpen).SetIdent(ident.New("x")) },
		},
		{
			name: "stmts on literal",
			fn:   func() { New(TLiteral).AddStmt(New(TNull)) },
		},
		{
			name: "non-statement in process",
			fn:   func() { New(TProcess).AddStmt(New(TLiteral)) },
		},
		{
			name: "non-declaration in decls",
			fn:   func() { New(TPackage).AddDecl(New(TNull)) },
		},
		{
			name: "else on while",
			fn:   func() { New(TWhile).AddElseStmt(New(TNull)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestVisit_Idempotent(t *testing.T) {
	typ := intType()

	decl := New(TConstDecl)
	decl.SetIdent(ident.New("k"))
	decl.SetType(typ)
	decl.SetValue(intLiteral(typ, 4))

	// The same declaration referenced twice
	use1, use2 := refTo(decl), refTo(decl)

	p := New(TProcess)
	p.SetIdent(ident.New("p"))
	a1 := New(TVarAssign)
	a1.SetIdent(ident.New("a1"))
	a1.SetTarget(use1)
	a1.SetValue(use2)
	p.AddStmt(a1)

	arch := New(TArch)
	arch.SetIdent(ident.New("rtl"))
	arch.SetIdent2(ident.New("top"))
	arch.AddDecl(decl)
	arch.AddStmt(p)

	count := 0
	Visit(arch, func(*Node) { count++ })

	// arch, decl, literal, process, assignment, two refs
	if count != 7 {
		t.Errorf("visited %d nodes, want 7", count)
	}

	refs := 0
	VisitOnly(arch, func(*Node) { refs++ }, TRef)
	if refs != 2 {
		t.Errorf("visited %d references, want 2", refs)
	}
}

func TestRewrite_DeleteFromSequence(t *testing.T) {
	p := New(TProcess)
	p.SetIdent(ident.New("p"))
	p.AddStmt(New(TNull))
	w := New(TWait)
	w.SetIdent(ident.New("w"))
	p.AddStmt(w)
	p.AddStmt(New(TNull))

	Rewrite(p, nil, func(n *Node) *Node {
		if n.Kind() == TNull {
			return nil
		}
		return n
	})

	if p.NumStmts() != 1 {
		t.Fatalf("process has %d statements, want 1", p.NumStmts())
	}
	if p.Stmt(0).Kind() != TWait {
		t.Errorf("surviving statement is %s", p.Stmt(0).Kind())
	}
}

func TestRewrite_SharedNodeOnce(t *testing.T) {
	typ := intType()
	shared := intLiteral(typ, 1)

	a1 := New(TVarAssign)
	a1.SetIdent(ident.New("a1"))
	a1.SetTarget(shared)
	a1.SetValue(shared)

	calls := 0
	Rewrite(a1, nil, func(n *Node) *Node {
		if n == shared {
			calls++
		}
		return n
	})

	if calls != 1 {
		t.Errorf("shared node rewritten %d times, want 1", calls)
	}
}

func TestCopy_PreservesSharing(t *testing.T) {
	typ := intType()

	decl := New(TSignalDecl)
	decl.SetIdent(ident.New("s"))
	decl.SetType(typ)

	use1, use2 := refTo(decl), refTo(decl)

	agg := New(TAggregate)
	agg.SetType(typ)
	agg.AddAssoc(Assoc{Kind: APos, Value: use1})
	agg.AddAssoc(Assoc{Kind: APos, Value: use2})

	arch := New(TArch)
	arch.SetIdent(ident.New("rtl"))
	arch.SetIdent2(ident.New("top"))
	arch.AddDecl(decl)

	sa := New(TSignalAssign)
	sa.SetIdent(ident.New("sa"))
	sa.SetTarget(refTo(decl))
	wave := New(TWaveform)
	wave.SetValue(agg)
	sa.AddWaveform(wave)

	p := New(TProcess)
	p.SetIdent(ident.New("p"))
	p.AddStmt(sa)
	arch.AddStmt(p)

	dup := Copy(arch)

	if dup == arch {
		t.Fatal("copy returned the original")
	}

	dupDecl := dup.Decl(0)
	if dupDecl == decl {
		t.Errorf("declaration was not copied")
	}
	if dupDecl.Type() != typ {
		t.Errorf("attached type was not shared")
	}

	dupAgg := dup.Stmt(0).Stmt(0).Waveform(0).Value()
	v1 := dupAgg.Assoc(0).Value
	v2 := dupAgg.Assoc(1).Value
	if v1 == use1 {
		t.Errorf("reference was not copied")
	}
	if v1.Ref() != dupDecl || v2.Ref() != dupDecl {
		t.Errorf("copied references do not resolve to the copied declaration")
	}
}

func TestCopy_OutsideRefsShared(t *testing.T) {
	typ := intType()

	// Declaration outside the copied subgraph
	outside := New(TConstDecl)
	outside.SetIdent(ident.New("k"))
	outside.SetType(typ)
	outside.SetValue(intLiteral(typ, 1))

	use := refTo(outside)
	dup := Copy(use)

	if dup == use {
		t.Fatal("copy returned the original")
	}
	if dup.Ref() != outside {
		t.Errorf("reference to outside declaration was copied")
	}
}

func TestGC_KeepsTopLevel(t *testing.T) {
	ResetArena()
	defer ResetArena()

	typ := intType()

	pkg := New(TPackage)
	pkg.SetIdent(ident.New("pack"))
	decl := New(TConstDecl)
	decl.SetIdent(ident.New("k"))
	decl.SetType(typ)
	decl.SetValue(intLiteral(typ, 7))
	pkg.AddDecl(decl)

	// Orphans with no path from a top-level unit
	for i := 0; i < 5; i++ {
		New(TNull)
	}

	before := NumNodes()
	stats := GC()

	if stats.Freed != 5 {
		t.Errorf("freed %d nodes, want 5", stats.Freed)
	}
	if stats.Live != before-5 {
		t.Errorf("live %d nodes, want %d", stats.Live, before-5)
	}

	// The unit and its contents survive intact
	if pkg.Decl(0) != decl || decl.Value().Literal().I != 7 {
		t.Errorf("reachable nodes were damaged")
	}
}

// structEqual compares two graphs, requiring that sharing in a is
// mirrored by sharing in b.
func structEqual(t *testing.T, a, b *Node, seen map[*Node]*Node) bool {
	t.Helper()

	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if prev, ok := seen[a]; ok {
		return prev == b
	}
	seen[a] = b

	if a.Kind() != b.Kind() || a.Flags() != b.Flags() {
		return false
	}

	k := a.Kind()
	if k.has(slotIdent) && a.ident != b.ident {
		return false
	}
	if k.has(slotIdent2) && a.ident2 != b.ident2 {
		return false
	}
	if k.has(slotLiteral) {
		if a.literal.Kind != b.literal.Kind || a.literal.I != b.literal.I ||
			a.literal.R != b.literal.R || len(a.literal.Chars) != len(b.literal.Chars) {
			return false
		}
	}
	if k.has(slotPos) && a.pos != b.pos {
		return false
	}

	arrays := [][2][]*Node{
		{a.ports, b.ports}, {a.generics, b.generics}, {a.decls, b.decls},
		{a.stmts, b.stmts}, {a.elses, b.elses}, {a.triggers, b.triggers},
		{a.waves, b.waves},
	}
	for _, pair := range arrays {
		if len(pair[0]) != len(pair[1]) {
			return false
		}
		for i := range pair[0] {
			if !structEqual(t, pair[0][i], pair[1][i], seen) {
				return false
			}
		}
	}

	singles := [][2]*Node{
		{a.target, b.target}, {a.value, b.value}, {a.delay, b.delay},
		{a.message, b.message}, {a.severity, b.severity}, {a.ref, b.ref},
		{a.name, b.name}, {a.guard, b.guard}, {a.reject, b.reject},
	}
	for _, pair := range singles {
		if !structEqual(t, pair[0], pair[1], seen) {
			return false
		}
	}

	if len(a.params) != len(b.params) {
		return false
	}
	for i := range a.params {
		pa, pb := a.params[i], b.params[i]
		if pa.Kind != pb.Kind || pa.Pos != pb.Pos || pa.Name != pb.Name {
			return false
		}
		if !structEqual(t, pa.Value, pb.Value, seen) {
			return false
		}
	}

	if len(a.assocs) != len(b.assocs) {
		return false
	}
	for i := range a.assocs {
		aa, ab := a.assocs[i], b.assocs[i]
		if aa.Kind != ab.Kind || aa.Pos != ab.Pos {
			return false
		}
		if !structEqual(t, aa.Name, ab.Name, seen) ||
			!structEqual(t, aa.Value, ab.Value, seen) {
			return false
		}
	}

	if (a.rng == nil) != (b.rng == nil) {
		return false
	}
	if a.rng != nil {
		if a.rng.Kind != b.rng.Kind ||
			!structEqual(t, a.rng.Left, b.rng.Left, seen) ||
			!structEqual(t, a.rng.Right, b.rng.Right, seen) {
			return false
		}
	}

	if k.has(slotType) {
		if (a.typ == nil) != (b.typ == nil) {
			return false
		}
		if a.typ != nil && (a.typ.kind != b.typ.kind || a.typ.name != b.typ.name) {
			return false
		}
	}

	return true
}

func TestSerialize_RoundTrip(t *testing.T) {
	reg := source.NewRegistry()
	file := reg.Ref("pack.vhd", nil)

	typ := intType()

	decl := New(TConstDecl)
	decl.SetIdent(ident.New("width"))
	decl.SetLoc(source.Loc{FirstLine: 3, FirstColumn: 11, ColumnDelta: 5, File: file})
	decl.SetType(typ)
	decl.SetValue(intLiteral(typ, 8))

	// Shared: two references to the same declaration
	fn := New(TFuncDecl)
	fn.SetIdent(ident.New("\"+\""))
	fn.SetIdent2(ident.New("add"))
	fn.SetSubKind(SubBuiltin)

	call := New(TFCall)
	call.SetIdent(ident.New("\"+\""))
	call.SetRef(fn)
	call.SetType(typ)
	call.AddParam(Param{Kind: PPos, Value: refTo(decl)})
	call.AddParam(Param{Kind: PPos, Value: refTo(decl)})

	dep := New(TConstDecl)
	dep.SetIdent(ident.New("twice"))
	dep.SetType(typ)
	dep.SetValue(call)

	pkg := New(TPackage)
	pkg.SetIdent(ident.New("pack"))
	pkg.SetLoc(source.Loc{FirstLine: 1, FirstColumn: 0, File: file})
	pkg.AddContext(Context{Name: ident.New("std.standard.all")})
	pkg.AddDecl(decl)
	pkg.AddDecl(dep)
	pkg.SetAttrInt(ident.New("elab_order"), 2)

	var buf bytes.Buffer
	wf := fbuf.NewWriter("mem", &buf)
	wctx := WriteBegin(wf, reg)
	wctx.Write(pkg)
	if err := wf.Close(); err != nil {
		t.Fatalf("write: %v", err)
	}

	rf := fbuf.NewReader("mem", bytes.NewReader(buf.Bytes()))
	rctx := ReadBegin(rf, source.NewRegistry())
	got, err := rctx.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if !structEqual(t, pkg, got, make(map[*Node]*Node)) {
		t.Fatalf("round trip is not structurally equal")
	}

	// Back-references must resolve to the same instance
	gotCall := got.Decl(1).Value()
	r1 := gotCall.Param(0).Value.Ref()
	r2 := gotCall.Param(1).Value.Ref()
	if r1 != r2 {
		t.Errorf("shared declaration read back as distinct nodes")
	}
	if r1 != got.Decl(0) {
		t.Errorf("reference does not resolve to the package declaration")
	}

	if got.AttrInt(ident.New("elab_order"), 0) != 2 {
		t.Errorf("attribute lost in round trip")
	}
	if got.Loc().FirstLine != 1 {
		t.Errorf("location lost in round trip")
	}
}

func TestSerialize_Null(t *testing.T) {
	var buf bytes.Buffer
	wf := fbuf.NewWriter("mem", &buf)
	wctx := WriteBegin(wf, source.NewRegistry())
	wctx.Write(nil)
	if err := wf.Close(); err != nil {
		t.Fatalf("write: %v", err)
	}

	rf := fbuf.NewReader("mem", bytes.NewReader(buf.Bytes()))
	rctx := ReadBegin(rf, source.NewRegistry())
	got, err := rctx.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil node")
	}
}

func TestSerialize_Corrupt(t *testing.T) {
	var buf bytes.Buffer
	wf := fbuf.NewWriter("mem", &buf)
	wf.WriteU16(0xfafa) // Not a valid kind or marker
	wf.Close()

	rf := fbuf.NewReader("mem", bytes.NewReader(buf.Bytes()))
	rctx := ReadBegin(rf, source.NewRegistry())
	if _, err := rctx.Read(); err == nil {
		t.Errorf("expected corrupt stream error")
	}
}
