package simp

import (
	"volta/internal/diag"
	"volta/internal/eval"
	"volta/internal/source"
	"volta/internal/tree"
)

// foldNotPossible explains a failed fold when the executor asks for
// warnings, and always reports the expression unfoldable.
func foldNotPossible(t *tree.Node, flags eval.Flags, why string) bool {
	if flags&eval.WarnFlag != 0 {
		diag.Warnf(t.Loc(), "%s prevents constant folding", why)
	}

	return false
}

// foldPossible reports whether t can be evaluated at compile time
// under the executor's flags.
func foldPossible(t *tree.Node, flags eval.Flags) bool {
	switch t.Kind() {
	case tree.TFCall:
		decl := t.Ref()
		kind := decl.SubKind()
		switch {
		case kind == tree.SubUser && flags&eval.FCall == 0:
			return foldNotPossible(t, flags, "call to user defined function")
		case kind == tree.SubForeign:
			return foldNotPossible(t, flags, "call to foreign function")
		case decl.HasFlag(tree.FImpure):
			return foldNotPossible(t, flags, "call to impure function")
		case !t.HasFlag(tree.FGloballyStatic):
			return foldNotPossible(t, flags, "non-static expression")
		}

		for i := 0; i < t.NumParams(); i++ {
			p := t.Param(i).Value
			if !foldPossible(p, flags) {
				return false
			} else if p.Kind() == tree.TFCall && p.Type().IsScalar() {
				// Would have been folded already if possible
				return false
			}
		}

		return true

	case tree.TLiteral:
		return true

	case tree.TTypeConv, tree.TQualified:
		return foldPossible(t.Value(), flags)

	case tree.TRef:
		decl := t.Ref()
		switch decl.Kind() {
		case tree.TUnitDecl, tree.TEnumLit:
			return true

		case tree.TConstDecl:
			if decl.HasValue() {
				return foldPossible(decl.Value(), flags)
			} else if flags&eval.FCall == 0 {
				return foldNotPossible(t, flags, "deferred constant")
			}
			return true

		default:
			return foldNotPossible(t, flags, "reference")
		}

	case tree.TRecordRef:
		return foldPossible(t.Value(), flags)

	case tree.TAggregate:
		for i := 0; i < t.NumAssocs(); i++ {
			if !foldPossible(t.Assoc(i).Value, flags) {
				return false
			}
		}
		return true

	default:
		return foldNotPossible(t, flags, "expression")
	}
}

// simpFold folds a scalar-typed expression through the evaluator; the
// original node survives when lowering or evaluation fails.
func (ctx *context) simpFold(t *tree.Node) *tree.Node {
	if !t.HasType() || !t.Type().IsScalar() {
		return t
	} else if !foldPossible(t, ctx.ex.GetFlags()) {
		return t
	}

	thunk := eval.LowerThunk(t)
	if thunk == nil {
		return t
	}

	folded := ctx.ex.Fold(t, thunk)

	thunk.Unref()

	return folded
}

// foldedInt extracts the value of an already-folded integer
// expression.
func foldedInt(t *tree.Node) (int64, bool) {
	if t.Kind() != tree.TLiteral {
		return 0, false
	}
	l := t.Literal()
	if l.Kind != tree.LInt {
		return 0, false
	}
	return l.I, true
}

// foldedBool extracts the value of an already-folded boolean
// expression: a reference to one of the standard TRUE/FALSE literals.
func foldedBool(t *tree.Node) (bool, bool) {
	if t.Kind() != tree.TRef {
		return false, false
	}
	decl := t.Ref()
	if decl.Kind() != tree.TEnumLit {
		return false, false
	}

	switch decl.Pos() {
	case 0:
		return false, true
	case 1:
		return true, true
	}
	return false, false
}

// makeRef builds a reference expression to decl.
func makeRef(decl *tree.Node) *tree.Node {
	r := tree.New(tree.TRef)
	r.SetLoc(decl.Loc())
	r.SetIdent(decl.Ident())
	r.SetRef(decl)

	switch decl.Kind() {
	case tree.TProcDecl, tree.TProcBody, tree.TLibrary:
	default:
		if decl.HasType() {
			r.SetType(decl.Type())
		}
	}
	return r
}

// getIntLit builds an integer literal with the same type as t.
func getIntLit(t *tree.Node, value int64) *tree.Node {
	l := tree.New(tree.TLiteral)
	l.SetLoc(t.Loc())
	l.SetLiteral(tree.Literal{Kind: tree.LInt, I: value})
	if t.HasType() {
		l.SetType(t.Type())
	}
	return l
}

// getEnumLit builds a reference to the pos'th literal of t's
// enumeration type.
func getEnumLit(t *tree.Node, pos int) *tree.Node {
	enum := t.Type().EnumBase()
	if enum == nil || pos >= enum.NumEnumLits() {
		return t
	}

	r := makeRef(enum.EnumLit(pos))
	r.SetLoc(t.Loc())
	r.SetType(t.Type())
	return r
}

func getBoolLit(t *tree.Node, value bool) *tree.Node {
	if value {
		return getEnumLit(t, 1)
	}
	return getEnumLit(t, 0)
}

// makeDefaultValue builds the default initial value of a type: the
// left bound for scalars, the first literal for enumerations.
func makeDefaultValue(typ *tree.Type, loc source.Loc) *tree.Node {
	base := typ
	for base.Kind() == tree.TypeSubtype {
		base = base.Base()
	}

	switch base.Kind() {
	case tree.TypeEnum:
		r := makeRef(base.EnumLit(0))
		r.SetLoc(loc)
		r.SetType(typ)
		return r

	case tree.TypeInteger, tree.TypePhysical:
		if typ.DimensionOf() > 0 {
			r := typ.RangeOf(0)
			if r.Left != nil {
				return r.Left
			}
		}
		l := tree.New(tree.TLiteral)
		l.SetLoc(loc)
		l.SetLiteral(tree.Literal{Kind: tree.LInt})
		l.SetType(typ)
		return l

	case tree.TypeReal:
		if typ.DimensionOf() > 0 {
			r := typ.RangeOf(0)
			if r.Left != nil {
				return r.Left
			}
		}
		l := tree.New(tree.TLiteral)
		l.SetLoc(loc)
		l.SetLiteral(tree.Literal{Kind: tree.LReal})
		l.SetType(typ)
		return l

	default:
		l := tree.New(tree.TLiteral)
		l.SetLoc(loc)
		l.SetLiteral(tree.Literal{Kind: tree.LNull})
		l.SetType(typ)
		return l
	}
}
