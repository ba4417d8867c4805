package simp

import (
	"fmt"

	"volta/internal/ident"
	"volta/internal/tree"
)

// simpAttrDelayedTransaction synthesizes the implicit signal and
// driver process modelling 'DELAYED or 'TRANSACTION on a signal
// prefix, and replaces the attribute with a reference to the new
// signal.
func (ctx *context) simpAttrDelayedTransaction(t *tree.Node, predef tree.AttrKind) *tree.Node {
	name := t.Name()
	if name.Kind() != tree.TRef {
		panic(fmt.Sprintf("simp: %v prefix is %s", predef, name.Kind()))
	}

	decl := name.Ref()

	kind := decl.Kind()
	if kind != tree.TSignalDecl && kind != tree.TPortDecl {
		return t
	}

	prefix := "delayed"
	if predef == tree.AttrTransaction {
		prefix = "transaction"
	}
	sigName := fmt.Sprintf("%s_%s", prefix, ident.Str(name.Ident()))

	s := tree.New(tree.TSignalDecl)
	s.SetLoc(t.Loc())
	s.SetIdent(ident.Uniq(sigName))
	s.SetType(t.Type())

	p := tree.New(tree.TProcess)
	p.SetLoc(t.Loc())
	p.SetIdent(ident.Prefix(s.Ident(), ident.New("p"), '_'))

	r := makeRef(s)

	a := tree.New(tree.TSignalAssign)
	a.SetIdent(ident.New("assign"))
	a.SetTarget(r)

	switch predef {
	case tree.AttrDelayed:
		if decl.HasValue() {
			s.SetValue(decl.Value())
		} else {
			s.SetValue(makeDefaultValue(t.Type(), t.Loc()))
		}

		delay := t.Param(0).Value

		wave := tree.New(tree.TWaveform)
		wave.SetValue(name)
		wave.SetDelay(delay)

		a.AddWaveform(wave)

	case tree.AttrTransaction:
		s.SetValue(makeDefaultValue(s.Type(), s.Loc()))

		notDecl := tree.New(tree.TFuncDecl)
		notDecl.SetIdent(ident.New("\"not\""))
		notDecl.SetSubKind(tree.SubBuiltin)
		notType := tree.NewType(tree.TypeFunc, ident.New("\"not\""))
		notType.AddParamType(s.Type())
		notType.SetResult(s.Type())
		notDecl.SetType(notType)

		not := tree.New(tree.TFCall)
		not.SetIdent(ident.New("\"not\""))
		not.SetRef(notDecl)
		not.SetType(notType.Result())
		not.AddParam(tree.Param{Kind: tree.PPos, Value: r})

		wave := tree.New(tree.TWaveform)
		wave.SetValue(not)

		a.AddWaveform(wave)
	}

	p.AddStmt(a)

	wait := tree.New(tree.TWait)
	wait.SetIdent(ident.New("wait"))
	wait.SetFlag(tree.FStaticWait)
	wait.AddTrigger(name)

	p.AddStmt(wait)

	ctx.impSignals = append(ctx.impSignals, impSignal{signal: s, process: p})

	return r
}

// simpAttrRef folds predefined attribute references whose prefix
// bounds are known.
func (ctx *context) simpAttrRef(t *tree.Node) *tree.Node {
	if t.HasValue() {
		// Resolved earlier by the analyzer
		return t.Value()
	}

	predef := t.AttrKind()
	switch predef {
	case tree.AttrDelayed, tree.AttrTransaction:
		return ctx.simpAttrDelayedTransaction(t, predef)

	case tree.AttrPos:
		if arg, ok := foldedInt(t.Param(0).Value); ok {
			return getIntLit(t, arg)
		}
		return t

	case tree.AttrLength, tree.AttrLeft, tree.AttrLow, tree.AttrHigh,
		tree.AttrRight, tree.AttrAscending:
		name := t.Name()
		nameKind := name.Kind()

		isBase := nameKind == tree.TAttrRef && name.AttrKind() == tree.AttrBase
		if nameKind != tree.TRef && !isBase {
			return t // Cannot fold this
		}

		typ := name.Type()
		dim := int64(1)

		if typ.Kind() == tree.TypeEnum {
			// Enumeration subtypes take the range path below
			enum := typ
			nlits := enum.NumEnumLits()

			switch predef {
			case tree.AttrLeft, tree.AttrLow:
				return makeRef(enum.EnumLit(0))
			case tree.AttrRight, tree.AttrHigh:
				return makeRef(enum.EnumLit(nlits - 1))
			case tree.AttrAscending:
				return getBoolLit(t, true)
			default:
				panic(fmt.Sprintf("simp: invalid enumeration attribute %d", predef))
			}
		}

		if typ.IsArray() {
			if t.NumParams() > 0 {
				value := t.Param(0).Value
				var ok bool
				if dim, ok = foldedInt(value); !ok {
					panic("simp: locally static dimension expression was not folded")
				}
			}

			if nameKind == tree.TRef && name.Ref().Kind() == tree.TTypeDecl &&
				typ.IsUnconstrained() {
				// Take the index type of the unconstrained array
				if dim < 1 || dim > int64(typ.NumIndexConstrs()) {
					return t
				}

				typ = typ.IndexConstr(int(dim - 1))
				dim = 1
			} else if typ.IsUnconstrained() {
				return t
			} else if dim < 1 || dim > int64(typ.DimensionOf()) {
				return t
			}
		}

		if typ.DimensionOf() < int(dim) {
			return t
		}
		r := typ.RangeOf(int(dim - 1))

		if r.Kind != tree.RangeTo && r.Kind != tree.RangeDownto {
			return t
		}

		switch predef {
		case tree.AttrLength:
			if r.Left.Kind() == tree.TLiteral && r.Right.Kind() == tree.TLiteral {
				low, high := tree.RangeBounds(r)
				if high < low {
					return getIntLit(t, 0)
				}
				return getIntLit(t, high-low+1)
			}
			return t

		case tree.AttrLow:
			if r.Kind == tree.RangeTo {
				return r.Left
			}
			return r.Right
		case tree.AttrHigh:
			if r.Kind == tree.RangeTo {
				return r.Right
			}
			return r.Left
		case tree.AttrLeft:
			return r.Left
		case tree.AttrRight:
			return r.Right
		case tree.AttrAscending:
			return getBoolLit(t, r.Kind == tree.RangeTo)
		default:
			return t
		}

	default:
		return t
	}
}
