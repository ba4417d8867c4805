// Package simp is the simplification pass: a bottom-up rewrite run
// after semantic analysis that folds constants, normalizes names,
// deletes dead code and desugars concurrent statements into
// processes.
package simp

import (
	"fmt"

	"volta/internal/eval"
	"volta/internal/ident"
	"volta/internal/tree"
)

type impSignal struct {
	signal  *tree.Node
	process *tree.Node
}

type context struct {
	top         *tree.Node
	ex          *eval.Exec
	evalMask    tree.Flags
	generics    map[*tree.Node]*tree.Node
	subprograms map[ident.ID]*tree.Node
	impSignals  []impSignal
}

// Local runs the pre-elaboration simplification over one design unit.
// Only locally static expressions are folded and calls to user-defined
// functions are not evaluated.
func Local(top *tree.Node) {
	ctx := &context{
		top:      top,
		ex:       eval.NewExec(0),
		evalMask: tree.FLocallyStatic,
	}

	tree.Rewrite(top, ctx.preCb, ctx.simpTree)
	ctx.ex.Free()

	ctx.installImpSignals()
}

// Global runs the elaboration-time simplification. Globally static
// expressions become foldable and referenced subprograms are
// demand-lowered through the evaluator callback. generics maps
// interface declarations to their actual values; nil starts empty.
func Global(top *tree.Node, generics map[*tree.Node]*tree.Node) {
	ctx := &context{
		top:         top,
		ex:          eval.NewExec(eval.FCall),
		evalMask:    tree.FGloballyStatic | tree.FLocallyStatic,
		generics:    generics,
		subprograms: make(map[ident.ID]*tree.Node),
	}

	ctx.ex.SetLowerFn(ctx.lowerCb)

	tree.Rewrite(top, ctx.preCb, ctx.simpTree)
	ctx.ex.Free()

	ctx.installImpSignals()
}

// installImpSignals appends the implicit signals synthesized for
// 'DELAYED and 'TRANSACTION to the unit, with their driver processes.
func (ctx *context) installImpSignals() {
	for _, imp := range ctx.impSignals {
		ctx.top.AddDecl(imp.signal)
		ctx.top.AddStmt(imp.process)
	}
	ctx.impSignals = nil
}

func (ctx *context) lowerCb(fn ident.ID) *eval.Thunk {
	decl := ctx.subprograms[fn]
	if decl == nil {
		return nil
	}
	return eval.LowerSubprogram(decl)
}

func (ctx *context) preCb(t *tree.Node) {
	switch t.Kind() {
	case tree.TBlock:
		if t.NumGenmaps() > 0 {
			ctx.simpGenerics(t)
		}
	}
}

func (ctx *context) simpTree(t *tree.Node) *tree.Node {
	switch t.Kind() {
	case tree.TProcess:
		return ctx.simpProcess(t)
	case tree.TArrayRef:
		return simpArrayRef(t)
	case tree.TArraySlice:
		return simpArraySlice(t)
	case tree.TAttrRef:
		return ctx.simpAttrRef(t)
	case tree.TFCall:
		return ctx.simpFcall(t)
	case tree.TPCall:
		return simpCallArgs(t)
	case tree.TRef:
		return ctx.simpRef(t)
	case tree.TIf:
		return simpIf(t)
	case tree.TCase:
		return simpCase(t)
	case tree.TWhile:
		return simpWhile(t)
	case tree.TCAssign:
		return ctx.simpCassign(t)
	case tree.TSelect:
		return ctx.simpSelect(t)
	case tree.TWait:
		return ctx.simpWait(t)
	case tree.TNull:
		return nil // Delete it
	case tree.TCPCall:
		return ctx.simpCpcall(t)
	case tree.TCAssert:
		return ctx.simpCassert(t)
	case tree.TRecordRef:
		return simpRecordRef(t)
	case tree.TCtxRef:
		return ctx.simpContextRef(t)
	case tree.TUse:
		return simpUse(t)
	case tree.TAssert:
		return simpAssert(t)
	case tree.TIfGenerate:
		return simpIfGenerate(t)
	case tree.TSignalAssign:
		return simpSignalAssign(t)
	case tree.TTypeConv, tree.TQualified:
		return ctx.simpFold(t)
	case tree.TLiteral:
		return simpLiteral(t)
	case tree.TFor:
		return simpFor(t)
	case tree.TFuncDecl, tree.TProcDecl:
		return ctx.simpSubprogramDecl(t)
	case tree.TFuncBody, tree.TProcBody:
		return ctx.simpSubprogramBody(t)
	case tree.TInstance, tree.TBinding:
		if !t.HasRef() {
			return t
		}
		return simpGenericMap(t, t.Ref())
	case tree.TBlock:
		return simpGenericMap(t, t)
	default:
		return t
	}
}

// simpCallArgs replaces named arguments with positional ones in
// declaration order, filling defaults for missing and open actuals.
func simpCallArgs(t *tree.Node) *tree.Node {
	decl := t.Ref()

	nparams := t.NumParams()
	nports := decl.NumPorts()

	lastPos := -1
	for i := 0; i < nparams; i++ {
		if t.Param(i).Kind == tree.PPos {
			lastPos = i
		}
	}

	if lastPos == nparams-1 {
		return t
	}

	kind := t.Kind()
	repl := tree.New(kind)
	repl.SetLoc(t.Loc())
	repl.SetIdent(t.Ident())
	repl.SetRef(decl)

	switch kind {
	case tree.TFCall:
		repl.SetType(t.Type())
		repl.SetFlag(t.Flags())
	case tree.TCPCall:
		if t.HasIdent2() {
			repl.SetIdent2(t.Ident2())
		}
	case tree.TPCall:
		if t.HasIdent2() {
			repl.SetIdent2(t.Ident2())
		}
	}

	for i := 0; i <= lastPos; i++ {
		port := decl.Port(i)
		value := t.Param(i).Value

		if value.Kind() == tree.TOpen {
			value = port.Value()
		}

		repl.AddParam(tree.Param{Kind: tree.PPos, Value: value})
	}

	for i := lastPos + 1; i < nports; i++ {
		port := decl.Port(i)
		name := port.Ident()

		found := false
		for j := lastPos + 1; j < nparams && !found; j++ {
			p := t.Param(j)
			if p.Kind != tree.PNamed {
				panic(fmt.Sprintf("simp: positional argument after named in %s",
					ident.Str(t.Ident())))
			}

			if p.Name == name {
				value := p.Value
				if value.Kind() == tree.TOpen {
					value = port.Value()
				}
				repl.AddParam(tree.Param{Kind: tree.PPos, Value: value})
				found = true
			}
		}
		if !found && port.HasValue() {
			repl.AddParam(tree.Param{Kind: tree.PPos, Value: port.Value()})
		} else if !found {
			panic(fmt.Sprintf("simp: missing argument for %s in call to %s",
				ident.Str(name), ident.Str(t.Ident())))
		}
	}

	return repl
}

func (ctx *context) simpFcall(t *tree.Node) *tree.Node {
	t = simpCallArgs(t)

	if t.Flags()&ctx.evalMask != 0 {
		return ctx.simpFold(t)
	}

	return t
}

// simpRef replaces references to scalar constants and physical units
// with their values, and references to mapped generics with the
// mapped actual.
func (ctx *context) simpRef(t *tree.Node) *tree.Node {
	decl := t.Ref()

	switch decl.Kind() {
	case tree.TConstDecl:
		if !decl.Type().IsScalar() {
			return t
		} else if decl.HasValue() {
			value := decl.Value()
			switch value.Kind() {
			case tree.TLiteral:
				return value

			case tree.TRef:
				if value.Ref().Kind() == tree.TEnumLit {
					return value
				}
			}
			return t
		}
		return t

	case tree.TUnitDecl:
		return decl.Value()

	case tree.TPortDecl:
		if ctx.generics != nil {
			if mapped, ok := ctx.generics[decl]; ok {
				switch mapped.Kind() {
				case tree.TLiteral, tree.TAggregate, tree.TArraySlice,
					tree.TArrayRef, tree.TFCall, tree.TRecordRef,
					tree.TOpen, tree.TQualified:
					// Substituting a non-name for a formal name would
					// leave the association meaningless
					if t.HasFlag(tree.FFormalName) {
						return t
					}
					return mapped
				case tree.TRef:
					return mapped
				default:
					panic(fmt.Sprintf(
						"simp: cannot rewrite generic %s to tree kind %s",
						ident.Str(t.Ident()), mapped.Kind()))
				}
			}
		}
		return t

	default:
		return t
	}
}

// simpGenerics binds the block's interface declarations to their
// actuals: positional map entries first, then named, then declared
// defaults. Nested blocks extend the outer binding.
func (ctx *context) simpGenerics(t *tree.Node) {
	ngenerics := t.NumGenerics()
	ngenmaps := t.NumGenmaps()

	for i := 0; i < ngenerics; i++ {
		g := t.Generic(i)
		var mapped *tree.Node

		if i < ngenmaps {
			if m := t.Genmap(i); m.Kind == tree.PPos {
				mapped = m.Value
			}
		}

		if mapped == nil {
			for j := 0; j < ngenmaps; j++ {
				if m := t.Genmap(j); m.Kind == tree.PNamed && m.Name == g.Ident() {
					mapped = m.Value
					break
				}
			}
		}

		if mapped == nil && g.HasValue() {
			mapped = g.Value()
		}

		if mapped == nil {
			continue
		}

		if ctx.generics == nil {
			ctx.generics = make(map[*tree.Node]*tree.Node)
		}
		ctx.generics[g] = mapped
	}
}

// simpGenericMap rewrites the generic map of an instantiation,
// binding or block into canonical all-positional form, filling in
// defaults for unbound generics.
func simpGenericMap(t *tree.Node, unit *tree.Node) *tree.Node {
	if unit == nil {
		return t
	}

	// Generic declarations live on the entity or on the block itself
	switch unit.Kind() {
	case tree.TEntity, tree.TBlock:
	default:
		return t
	}

	ngenmaps := t.NumGenmaps()
	ngenerics := unit.NumGenerics()

	lastPos := 0
	for ; lastPos < ngenmaps; lastPos++ {
		if t.Genmap(lastPos).Kind != tree.PPos {
			break
		}
	}

	if lastPos == ngenmaps && ngenmaps == ngenerics {
		return t
	}

	kind := t.Kind()
	repl := tree.New(kind)
	repl.SetLoc(t.Loc())
	repl.SetIdent(t.Ident())

	for i := 0; i < lastPos; i++ {
		repl.AddGenmap(t.Genmap(i))
	}

	switch kind {
	case tree.TInstance:
		if t.HasSpec() {
			repl.SetSpec(t.Spec())
		}
		fallthrough
	case tree.TBinding:
		repl.SetRef(t.Ref())
		repl.SetClass(t.Class())
		if t.HasIdent2() {
			repl.SetIdent2(t.Ident2())
		}
		for i := 0; i < t.NumParams(); i++ {
			repl.AddParam(t.Param(i))
		}

	case tree.TBlock:
		for i := 0; i < t.NumPorts(); i++ {
			repl.AddPort(t.Port(i))
		}
		for i := 0; i < ngenerics; i++ {
			repl.AddGeneric(t.Generic(i))
		}
		for i := 0; i < t.NumDecls(); i++ {
			repl.AddDecl(t.Decl(i))
		}
		for i := 0; i < t.NumStmts(); i++ {
			repl.AddStmt(t.Stmt(i))
		}

	default:
		panic(fmt.Sprintf("simp: cannot clone tree kind %s in generic map", kind))
	}

	for i := lastPos; i < ngenerics; i++ {
		g := unit.Generic(i)
		var value *tree.Node

		for j := lastPos; j < ngenmaps; j++ {
			m := t.Genmap(j)
			if m.Kind != tree.PNamed {
				panic("simp: positional generic association after named")
			}
			if m.Name == g.Ident() {
				value = m.Value
				break
			}
		}

		if value == nil && g.HasValue() {
			value = g.Value()
		} else if value == nil && kind == tree.TBinding {
			open := tree.New(tree.TOpen)
			open.SetLoc(t.Loc())
			open.SetType(g.Type())
			value = open
		} else if value == nil {
			panic(fmt.Sprintf("simp: missing value for generic %s",
				ident.Str(g.Ident())))
		}

		repl.AddGenmap(tree.Param{Kind: tree.PPos, Value: value})
	}

	return repl
}

// simpSubprogramDecl removes predefined operators hidden by explicit
// redefinitions and records the remaining non-user declarations that
// carry a mangled name for demand lowering.
func (ctx *context) simpSubprogramDecl(decl *tree.Node) *tree.Node {
	flags := decl.Flags()
	if flags&tree.FPredefined != 0 && flags&tree.FHidden != 0 {
		return nil
	}

	if ctx.subprograms != nil && decl.SubKind() != tree.SubUser && decl.HasIdent2() {
		ctx.subprograms[decl.Ident2()] = decl
	}

	return decl
}

func (ctx *context) simpSubprogramBody(body *tree.Node) *tree.Node {
	if ctx.subprograms != nil && body.HasIdent2() {
		ctx.subprograms[body.Ident2()] = body
	}

	return body
}

// simpUse rewrites a use clause through a library alias to the real
// library name.
func simpUse(t *tree.Node) *tree.Node {
	libDecl := t.Ref()
	if libDecl.Kind() != tree.TLibrary {
		return t
	}

	qual := t.Ident()
	lalias := ident.Until(qual, '.')
	lname := libDecl.Ident2()

	if lalias != lname {
		rest := ident.From(qual, '.')
		t.SetIdent(ident.Prefix(lname, rest, '.'))
	}

	return t
}

// simpContextRef folds the referenced context's clauses into the
// enclosing unit and deletes the reference. The first two clauses are
// the implicit standard library context.
func (ctx *context) simpContextRef(t *tree.Node) *tree.Node {
	decl := t.Ref()
	if !decl.Kind().IsTopLevel() {
		return t
	}

	for i := 2; i < decl.NumContexts(); i++ {
		ctx.top.AddContext(decl.Context(i))
	}

	return nil
}

// simpLiteral rewrites physical literals in terms of their base unit.
func simpLiteral(t *tree.Node) *tree.Node {
	l := t.Literal()
	if l.Kind != tree.LPhysical {
		return t
	}

	if t.HasRef() {
		decl := t.Ref()
		base := tree.AssumeInt(decl.Value())

		if l.I == 0 {
			l.I = int64(l.R * float64(base))
		} else {
			l.I *= base
		}
		l.R = 0
		t.SetLiteral(l)

		t.SetRef(nil)
		t.SetIdent(decl.Ident())
	}

	return t
}

// simpFor resolves 'RANGE bounds in the iteration range where the
// prefix type is constrained.
func simpFor(t *tree.Node) *tree.Node {
	if t.HasRange() {
		t.SetRange(resolveRange(t.Range()))
	}
	return t
}
