package simp

import (
	"volta/internal/tree"
)

// simpIf replaces an if statement with a statically known condition
// by the taken branch.
func simpIf(t *tree.Node) *tree.Node {
	value, ok := foldedBool(t.Value())
	if !ok {
		return t
	}

	if value {
		// Always executes, replace with the then part
		if t.NumStmts() == 1 {
			return t.Stmt(0)
		}
		b := tree.New(tree.TBlock)
		b.SetLoc(t.Loc())
		b.SetIdent(t.Ident())
		for i := 0; i < t.NumStmts(); i++ {
			b.AddStmt(t.Stmt(i))
		}
		return b
	}

	// Never executes, replace with the else part
	switch t.NumElseStmts() {
	case 0:
		return nil // Delete it
	case 1:
		return t.ElseStmt(0)
	default:
		b := tree.New(tree.TBlock)
		b.SetLoc(t.Loc())
		b.SetIdent(t.Ident())
		for i := 0; i < t.NumElseStmts(); i++ {
			b.AddStmt(t.ElseStmt(i))
		}
		return b
	}
}

// simpWhile deletes loops whose condition is statically false.
func simpWhile(t *tree.Node) *tree.Node {
	if !t.HasValue() {
		return t
	}
	if value, ok := foldedBool(t.Value()); ok && !value {
		// Loop never executes
		return nil
	}
	return t
}

// simpCase selects the matching arm of a case over a folded
// scrutinee. Arms whose bodies were optimised away select to nothing.
func simpCase(t *tree.Node) *tree.Node {
	nassocs := t.NumAssocs()
	if nassocs == 0 {
		return nil // All choices are unreachable
	}

	ival, ok := foldedInt(t.Value())
	if !ok {
		if b, bok := foldedBool(t.Value()); bok {
			ival, ok = boolToInt(b), true
		}
	}
	if !ok {
		return t
	}

	for i := 0; i < nassocs; i++ {
		a := t.Assoc(i)
		switch a.Kind {
		case tree.ANamed:
			if aval, ok := foldedChoice(a.Name); ok && ival == aval {
				return a.Value
			}

		case tree.ARange:
			if a.Range.Kind == tree.RangeExpr {
				continue
			}
			// Only ranges with literal bounds are matched
			left, lok := foldedInt(a.Range.Left)
			right, rok := foldedInt(a.Range.Right)
			if !lok || !rok {
				continue
			}
			low, high := left, right
			if a.Range.Kind == tree.RangeDownto {
				low, high = right, left
			}
			if ival >= low && ival <= high {
				return a.Value
			}

		case tree.AOthers:
			return a.Value

		case tree.APos:
		}
	}

	return t
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// foldedChoice evaluates a case choice: an integer literal or an
// enumeration literal reference.
func foldedChoice(t *tree.Node) (int64, bool) {
	if v, ok := foldedInt(t); ok {
		return v, true
	}
	if t.Kind() == tree.TRef && t.Ref().Kind() == tree.TEnumLit {
		return int64(t.Ref().Pos()), true
	}
	return 0, false
}

// simpAssert deletes assertions that always pass.
func simpAssert(t *tree.Node) *tree.Node {
	if !t.HasValue() {
		return t
	}
	if value, ok := foldedBool(t.Value()); ok && value {
		// Assertion always passes
		return nil
	}
	return t
}

// simpIfGenerate reduces an if-generate with a folded condition to a
// block or nothing.
func simpIfGenerate(t *tree.Node) *tree.Node {
	value, ok := foldedBool(t.Value())
	if !ok {
		return t
	}

	if !value {
		return nil
	}

	block := tree.New(tree.TBlock)
	block.SetIdent(t.Ident())
	block.SetLoc(t.Loc())

	for i := 0; i < t.NumDecls(); i++ {
		block.AddDecl(t.Decl(i))
	}
	for i := 0; i < t.NumStmts(); i++ {
		block.AddStmt(t.Stmt(i))
	}

	return block
}

// simpSignalAssign deletes assignments to open targets.
func simpSignalAssign(t *tree.Node) *tree.Node {
	if t.Target().Kind() == tree.TOpen {
		return nil // Delete it
	}
	return t
}

// simpRecordRef folds field selection over constant aggregates.
func simpRecordRef(t *tree.Node) *tree.Node {
	value := t.Value()
	var agg *tree.Node

	switch value.Kind() {
	case tree.TAggregate:
		agg = value

	case tree.TRef:
		decl := value.Ref()
		if decl.Kind() != tree.TConstDecl || !decl.HasValue() {
			return t
		}
		agg = decl.Value()
		if agg.Kind() != tree.TAggregate {
			return t
		}

	case tree.TOpen:
		return value

	default:
		return t
	}

	field := t.Ident()
	typ := agg.Type()

	for i := 0; i < agg.NumAssocs(); i++ {
		a := agg.Assoc(i)
		switch a.Kind {
		case tree.APos:
			if int(a.Pos) < typ.NumFields() && typ.Field(int(a.Pos)).Ident() == field {
				return a.Value
			}

		case tree.ANamed:
			if a.Name.Kind() == tree.TRef && a.Name.Ident() == field {
				return a.Value
			}
		}
	}

	return t
}

// simpArraySlice deletes slices of open prefixes and resolves 'RANGE
// slice bounds.
func simpArraySlice(t *tree.Node) *tree.Node {
	if t.Value().Kind() == tree.TOpen {
		return t.Value()
	}

	if t.HasRange() {
		t.SetRange(resolveRange(t.Range()))
	}

	return t
}

// simpArrayRef folds indexing of constant aggregates and string
// literals.
func simpArrayRef(t *tree.Node) *tree.Node {
	value := t.Value()

	if value.Kind() == tree.TOpen {
		return value
	}

	nparams := t.NumParams()
	indexes := make([]int64, nparams)
	for i := 0; i < nparams; i++ {
		p := t.Param(i)
		if p.Kind != tree.PPos {
			return t
		}
		v, ok := foldedInt(p.Value)
		if !ok {
			return t
		}
		indexes[i] = v
	}

	if !value.HasType() {
		return t
	}

	switch value.Kind() {
	case tree.TAggregate:
		return extractAggregate(value, indexes[0], t)
	case tree.TLiteral:
		return extractStringLiteral(value, indexes[0], t)
	case tree.TRef:
	default:
		return t // Cannot fold nested array references
	}

	if nparams > 1 {
		return t // Cannot fold multi-dimensional arrays
	}

	decl := value.Ref()
	switch decl.Kind() {
	case tree.TConstDecl:
		if !decl.HasValue() {
			return t
		}
		v := decl.Value()
		if v.Kind() != tree.TAggregate {
			return t
		}
		return extractAggregate(v, indexes[0], t)

	default:
		return t
	}
}

// extractStringLiteral picks one character literal out of a string
// literal, or returns def when the index cannot be resolved.
func extractStringLiteral(literal *tree.Node, index int64, def *tree.Node) *tree.Node {
	typ := literal.Type()
	if typ.IsUnconstrained() {
		return def
	}

	bounds := typ.RangeOf(0)
	low, high := tree.RangeBounds(bounds)

	to := bounds.Kind == tree.RangeTo

	chars := literal.Literal().Chars
	var pos int64
	if to {
		pos = index - low
	} else {
		pos = high - index
	}
	if pos < 0 || pos >= int64(len(chars)) {
		return def
	}

	return chars[pos]
}

// extractAggregate picks the element of a constant aggregate selected
// by index, or returns def when no association matches.
func extractAggregate(agg *tree.Node, index int64, def *tree.Node) *tree.Node {
	typ := agg.Type()
	if typ.IsUnconstrained() {
		return def
	}

	bounds := typ.RangeOf(0)
	low, high := tree.RangeBounds(bounds)

	to := bounds.Kind == tree.RangeTo

	for i := 0; i < agg.NumAssocs(); i++ {
		a := agg.Assoc(i)
		switch a.Kind {
		case tree.APos:
			pos := int64(a.Pos)
			if (to && pos+low == index) || (!to && high-pos == index) {
				return a.Value
			}

		case tree.AOthers:
			return a.Value

		case tree.ARange:
			left := tree.AssumeInt(a.Range.Left)
			right := tree.AssumeInt(a.Range.Right)
			if (to && index >= left && index <= right) ||
				(!to && index <= left && index >= right) {
				return a.Value
			}

		case tree.ANamed:
			if tree.AssumeInt(a.Name) == index {
				return a.Value
			}
		}
	}

	return def
}

// resolveRange expands a range denoted by a 'RANGE or 'REVERSE_RANGE
// attribute to the prefix type's dimension range. Unconstrained
// prefixes stay as they are.
func resolveRange(r tree.Range) tree.Range {
	if r.Kind != tree.RangeExpr {
		return r
	}

	value := r.Left
	if value.Kind() != tree.TAttrRef {
		return r
	}

	attr := value.AttrKind()
	if attr != tree.AttrRange && attr != tree.AttrReverseRange {
		return r
	}

	name := value.Name()
	typ := name.Type()
	if typ.IsUnconstrained() {
		return r
	}

	dim := 0
	if value.NumParams() > 0 {
		ival, ok := foldedInt(value.Param(0).Value)
		if !ok {
			return r
		}
		dim = int(ival - 1)
	}

	if dim < 0 || dim >= typ.DimensionOf() {
		return r
	}

	base := typ.RangeOf(dim)

	if attr == tree.AttrReverseRange {
		return tree.Range{
			Kind:  base.Kind.Reverse(),
			Left:  base.Right,
			Right: base.Left,
		}
	}
	return base
}
