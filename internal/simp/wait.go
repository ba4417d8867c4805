package simp

import (
	"fmt"

	"volta/internal/tree"
)

// classOf resolves the object class of a name or declaration.
func classOf(t *tree.Node) tree.Class {
	switch t.Kind() {
	case tree.TSignalDecl:
		return tree.ClassSignal
	case tree.TPortDecl:
		if c := t.Class(); c != tree.ClassDefault {
			return c
		}
		return tree.ClassSignal
	case tree.TConstDecl:
		return tree.ClassConstant
	case tree.TVarDecl:
		return tree.ClassVariable
	case tree.TAlias:
		return classOf(t.Value())
	case tree.TRef:
		return classOf(t.Ref())
	case tree.TArrayRef, tree.TArraySlice, tree.TRecordRef:
		return classOf(t.Value())
	default:
		return tree.ClassDefault
	}
}

// isStatic reports whether an expression is composed only of
// constants, literals and aliases to the same.
func isStatic(expr *tree.Node) bool {
	switch expr.Kind() {
	case tree.TRef:
		decl := expr.Ref()
		switch decl.Kind() {
		case tree.TConstDecl, tree.TUnitDecl, tree.TEnumLit:
			return true
		case tree.TPortDecl:
			return decl.Class() == tree.ClassConstant
		case tree.TAlias:
			return isStatic(decl.Value())
		default:
			return false
		}

	case tree.TLiteral:
		return true

	default:
		return false
	}
}

// longestStaticPrefix returns the outermost indexed or sliced
// expression whose indices are all static, deciding whether a
// fine-grained trigger or the base signal lands on the wait list.
func longestStaticPrefix(expr *tree.Node) *tree.Node {
	switch expr.Kind() {
	case tree.TArrayRef:
		value := expr.Value()
		prefix := longestStaticPrefix(value)

		if prefix != value {
			return prefix
		}

		for i := 0; i < expr.NumParams(); i++ {
			if !isStatic(expr.Param(i).Value) {
				return prefix
			}
		}

		return expr

	case tree.TArraySlice:
		value := expr.Value()
		prefix := longestStaticPrefix(value)

		if prefix != value {
			return prefix
		}

		r := expr.Range()
		if r.Kind == tree.RangeExpr {
			return prefix
		}
		if !isStatic(r.Left) || !isStatic(r.Right) {
			return prefix
		}

		return expr

	default:
		return expr
	}
}

// buildWaitForTarget collects triggers from the indexing expressions
// of an assignment target; the target itself is written, not read.
func (ctx *context) buildWaitForTarget(wait, expr *tree.Node, all bool) {
	switch expr.Kind() {
	case tree.TArraySlice:
		r := expr.Range()
		ctx.buildWaitRange(wait, r, all)

	case tree.TArrayRef:
		for i := 0; i < expr.NumParams(); i++ {
			ctx.buildWait(wait, expr.Param(i).Value, all)
		}
	}
}

func (ctx *context) buildWaitRange(wait *tree.Node, r tree.Range, all bool) {
	if r.Kind == tree.RangeExpr {
		ctx.buildWait(wait, r.Left, all)
	} else {
		ctx.buildWait(wait, r.Left, all)
		ctx.buildWait(wait, r.Right, all)
	}
}

// buildWait collects the signals read by expr onto the wait
// statement's trigger list, without duplicates. In all mode the
// bodies of called procedures are traversed too.
func (ctx *context) buildWait(wait, expr *tree.Node, all bool) {
	switch expr.Kind() {
	case tree.TRef:
		decl := expr.Ref()
		if classOf(decl) == tree.ClassSignal {
			// Check for duplicates by declaration
			for i := 0; i < wait.NumTriggers(); i++ {
				t := wait.Trigger(i)
				if t.Kind() == tree.TRef && t.Ref() == decl {
					return
				}
			}

			wait.AddTrigger(expr)
		}

	case tree.TArraySlice:
		if classOf(expr) == tree.ClassSignal {
			if longestStaticPrefix(expr) == expr {
				wait.AddTrigger(expr)
			} else {
				ctx.buildWait(wait, expr.Value(), all)
				ctx.buildWaitForTarget(wait, expr, all)
			}
		}

	case tree.TArrayRef:
		if classOf(expr) == tree.ClassSignal {
			if longestStaticPrefix(expr) == expr {
				wait.AddTrigger(expr)
			} else {
				ctx.buildWait(wait, expr.Value(), all)
				ctx.buildWaitForTarget(wait, expr, all)
			}
		}

	case tree.TWaveform, tree.TRecordRef, tree.TQualified, tree.TTypeConv:
		if expr.HasValue() {
			ctx.buildWait(wait, expr.Value(), all)
		}

	case tree.TAssert:
		if expr.HasValue() {
			ctx.buildWait(wait, expr.Value(), all)
		}

	case tree.TFCall, tree.TPCall:
		decl := expr.Ref()
		nports := decl.NumPorts()
		for i := 0; i < expr.NumParams(); i++ {
			mode := tree.PortIn
			if i < nports {
				mode = decl.Port(i).PortMode()
			}
			if mode == tree.PortIn || mode == tree.PortInOut {
				ctx.buildWait(wait, expr.Param(i).Value, all)
			}
		}

		if all && decl.Kind() == tree.TProcBody {
			ctx.buildWait(wait, decl, all)
		}

	case tree.TAggregate:
		for i := 0; i < expr.NumAssocs(); i++ {
			ctx.buildWait(wait, expr.Assoc(i).Value, all)
		}

	case tree.TAttrRef:
		predef := expr.AttrKind()
		if predef == tree.AttrEvent || predef == tree.AttrActive {
			ctx.buildWait(wait, expr.Name(), all)
		}

		for i := 0; i < expr.NumParams(); i++ {
			ctx.buildWait(wait, expr.Param(i).Value, all)
		}

	case tree.TLiteral, tree.TOpen:

	case tree.TIf:
		ctx.buildWait(wait, expr.Value(), all)

		for i := 0; i < expr.NumStmts(); i++ {
			ctx.buildWait(wait, expr.Stmt(i), all)
		}
		for i := 0; i < expr.NumElseStmts(); i++ {
			ctx.buildWait(wait, expr.ElseStmt(i), all)
		}

	case tree.TProcess, tree.TBlock, tree.TProcBody:
		for i := 0; i < expr.NumStmts(); i++ {
			ctx.buildWait(wait, expr.Stmt(i), all)
		}

	case tree.TSignalAssign:
		ctx.buildWaitForTarget(wait, expr.Target(), all)

		for i := 0; i < expr.NumWaveforms(); i++ {
			ctx.buildWait(wait, expr.Waveform(i), all)
		}

	case tree.TVarAssign:
		ctx.buildWaitForTarget(wait, expr.Target(), all)
		ctx.buildWait(wait, expr.Value(), all)

	case tree.TCase:
		ctx.buildWait(wait, expr.Value(), all)

		for i := 0; i < expr.NumAssocs(); i++ {
			if a := expr.Assoc(i); a.Value != nil {
				ctx.buildWait(wait, a.Value, all)
			}
		}

	case tree.TFor:
		ctx.buildWaitRange(wait, expr.Range(), all)

		for i := 0; i < expr.NumStmts(); i++ {
			ctx.buildWait(wait, expr.Stmt(i), all)
		}

	case tree.TWhile:
		ctx.buildWait(wait, expr.Value(), all)

		for i := 0; i < expr.NumStmts(); i++ {
			ctx.buildWait(wait, expr.Stmt(i), all)
		}

	case tree.TReturn:
		if expr.HasValue() {
			ctx.buildWait(wait, expr.Value(), all)
		}

	case tree.TNull, tree.TWait:

	default:
		panic(fmt.Sprintf("simp: cannot handle tree kind %s in wait expression",
			expr.Kind()))
	}
}
