package eval

import (
	"testing"

	"volta/internal/ident"
	"volta/internal/tree"
)

func intType() *tree.Type {
	return tree.NewType(tree.TypeInteger, ident.New("integer"))
}

func boolType() *tree.Type {
	t := tree.NewType(tree.TypeEnum, ident.New("boolean"))
	for pos, name := range []string{"false", "true"} {
		lit := tree.New(tree.TEnumLit)
		lit.SetIdent(ident.New(name))
		lit.SetType(t)
		lit.SetPos(uint32(pos))
		t.AddEnumLit(lit)
	}
	return t
}

func intLit(typ *tree.Type, v int64) *tree.Node {
	l := tree.New(tree.TLiteral)
	l.SetLiteral(tree.Literal{Kind: tree.LInt, I: v})
	l.SetType(typ)
	return l
}

func call(name string, typ *tree.Type, args ...*tree.Node) *tree.Node {
	d := tree.New(tree.TFuncDecl)
	d.SetIdent(ident.New("\"" + name + "\""))
	d.SetSubKind(tree.SubBuiltin)

	c := tree.New(tree.TFCall)
	c.SetIdent(d.Ident())
	c.SetRef(d)
	c.SetType(typ)
	for _, a := range args {
		c.AddParam(tree.Param{Kind: tree.PPos, Value: a})
	}
	return c
}

func TestFold_Builtins(t *testing.T) {
	integer := intType()

	tests := []struct {
		name string
		op   string
		args []int64
		want int64
	}{
		{name: "add", op: "+", args: []int64{2, 3}, want: 5},
		{name: "sub", op: "-", args: []int64{2, 3}, want: -1},
		{name: "mul", op: "*", args: []int64{6, 7}, want: 42},
		{name: "div", op: "/", args: []int64{7, 2}, want: 3},
		{name: "neg", op: "-", args: []int64{5}, want: -5},
		{name: "abs", op: "abs", args: []int64{-5}, want: 5},
		{name: "mod wraps", op: "mod", args: []int64{-7, 3}, want: 2},
		{name: "rem truncates", op: "rem", args: []int64{-7, 3}, want: -1},
		{name: "pow", op: "**", args: []int64{2, 10}, want: 1024},
	}

	ex := NewExec(0)
	defer ex.Free()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := make([]*tree.Node, len(tc.args))
			for i, v := range tc.args {
				args[i] = intLit(integer, v)
			}
			expr := call(tc.op, integer, args...)

			thunk := LowerThunk(expr)
			if thunk == nil {
				t.Fatalf("expression did not lower")
			}
			folded := ex.Fold(expr, thunk)
			thunk.Unref()

			if folded == expr {
				t.Fatalf("expression did not fold")
			}
			if got := folded.Literal().I; got != tc.want {
				t.Errorf("folded to %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFold_BooleanResult(t *testing.T) {
	integer := intType()
	boolean := boolType()

	expr := call("<", boolean, intLit(integer, 2), intLit(integer, 3))

	ex := NewExec(0)
	defer ex.Free()

	folded := ex.Fold(expr, LowerThunk(expr))
	if folded.Kind() != tree.TRef {
		t.Fatalf("boolean fold produced %s, want enum literal reference", folded.Kind())
	}
	if folded.Ref() != boolean.EnumLit(1) {
		t.Errorf("folded to %s", ident.Str(folded.Ref().Ident()))
	}
}

func TestFold_DivisionByZero(t *testing.T) {
	integer := intType()
	expr := call("/", integer, intLit(integer, 1), intLit(integer, 0))

	ex := NewExec(0)
	defer ex.Free()

	if got := ex.Fold(expr, LowerThunk(expr)); got != expr {
		t.Errorf("division by zero should leave the expression unfolded")
	}
}

func TestLowerThunk_RejectsSignals(t *testing.T) {
	integer := intType()

	sig := tree.New(tree.TSignalDecl)
	sig.SetIdent(ident.New("s"))
	sig.SetType(integer)

	ref := tree.New(tree.TRef)
	ref.SetIdent(sig.Ident())
	ref.SetRef(sig)
	ref.SetType(integer)

	if LowerThunk(ref) != nil {
		t.Errorf("signal reference should not lower")
	}
}

func TestFold_ConstantChain(t *testing.T) {
	integer := intType()

	k := tree.New(tree.TConstDecl)
	k.SetIdent(ident.New("k"))
	k.SetType(integer)
	k.SetValue(intLit(integer, 40))

	ref := tree.New(tree.TRef)
	ref.SetIdent(k.Ident())
	ref.SetRef(k)
	ref.SetType(integer)

	expr := call("+", integer, ref, intLit(integer, 2))

	ex := NewExec(0)
	defer ex.Free()

	folded := ex.Fold(expr, LowerThunk(expr))
	if folded.Kind() != tree.TLiteral || folded.Literal().I != 42 {
		t.Errorf("constant chain did not fold to 42")
	}
}
