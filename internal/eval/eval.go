// Package eval is the constant-folding executor. The simplification
// pass lowers a foldable expression to a thunk and asks Fold for a
// replacement literal. The thunk runner here is a direct interpreter
// over scalar expressions standing in for the byte-code evaluator
// behind the same narrow interface.
package eval

import (
	"fmt"
	"strings"

	"volta/internal/ident"
	"volta/internal/tree"
)

// Flags select what the executor may fold.
type Flags uint8

const (
	// FCall permits folding calls to user-defined functions.
	FCall Flags = 1 << iota
	// WarnFlag asks the foldability check to explain failures.
	WarnFlag
)

// LowerFn demand-lowers the subprogram with the given mangled name,
// returning nil when it is not available.
type LowerFn func(ident.ID) *Thunk

// Exec is one folding session.
type Exec struct {
	flags   Flags
	lowerFn LowerFn
}

func NewExec(flags Flags) *Exec {
	return &Exec{flags: flags}
}

// Free releases the executor. The interpreter holds no external
// resources but callers keep the original protocol.
func (e *Exec) Free() {}

// GetFlags returns the session flags.
func (e *Exec) GetFlags() Flags { return e.flags }

// SetLowerFn installs the demand-lowering callback used to fold calls
// to user-defined functions.
func (e *Exec) SetLowerFn(fn LowerFn) { e.lowerFn = fn }

// value is one scalar machine value.
type value struct {
	real bool
	i    int64
	r    float64
}

func intValue(i int64) value    { return value{i: i} }
func realValue(r float64) value { return value{real: true, r: r} }

func (v value) toReal() float64 {
	if v.real {
		return v.r
	}
	return float64(v.i)
}

// Thunk is a callable unit prepared for the executor.
type Thunk struct {
	expr *tree.Node
	body *tree.Node // subprogram thunks only
}

// LowerThunk prepares expr for folding. It returns nil when the
// expression uses constructs the executor cannot evaluate.
func LowerThunk(expr *tree.Node) *Thunk {
	if !lowerable(expr) {
		return nil
	}
	return &Thunk{expr: expr}
}

// LowerSubprogram prepares a function body for demand folding.
func LowerSubprogram(body *tree.Node) *Thunk {
	if body == nil || body.Kind() != tree.TFuncBody {
		return nil
	}
	return &Thunk{body: body}
}

// Unref releases a thunk. Kept for protocol symmetry.
func (t *Thunk) Unref() {}

// Fold evaluates thunk and returns the replacement node for expr: an
// integer or real literal, or a reference to an enumeration literal
// for enumeration-typed expressions. If evaluation fails the original
// expression is returned unchanged.
func (e *Exec) Fold(expr *tree.Node, thunk *Thunk) *tree.Node {
	if thunk == nil {
		return expr
	}

	v, err := e.eval(thunk.expr, nil)
	if err != nil {
		return expr
	}

	return makeResult(expr, v)
}

func makeResult(expr *tree.Node, v value) *tree.Node {
	typ := expr.Type()

	if enum := typ.EnumBase(); enum != nil {
		if v.i < 0 || int(v.i) >= enum.NumEnumLits() {
			return expr
		}
		lit := enum.EnumLit(int(v.i))
		ref := tree.New(tree.TRef)
		ref.SetLoc(expr.Loc())
		ref.SetIdent(lit.Ident())
		ref.SetRef(lit)
		ref.SetType(typ)
		return ref
	}

	l := tree.New(tree.TLiteral)
	l.SetLoc(expr.Loc())
	l.SetType(typ)
	if v.real {
		l.SetLiteral(tree.Literal{Kind: tree.LReal, R: v.r})
	} else {
		l.SetLiteral(tree.Literal{Kind: tree.LInt, I: v.i})
	}
	return l
}

// lowerable is a quick structural check mirroring what eval can do.
func lowerable(t *tree.Node) bool {
	switch t.Kind() {
	case tree.TLiteral:
		l := t.Literal()
		return l.Kind == tree.LInt || l.Kind == tree.LReal || l.Kind == tree.LPhysical
	case tree.TRef:
		decl := t.Ref()
		switch decl.Kind() {
		case tree.TEnumLit, tree.TUnitDecl:
			return true
		case tree.TConstDecl:
			return decl.HasValue() && lowerable(decl.Value())
		}
		return false
	case tree.TQualified, tree.TTypeConv:
		return lowerable(t.Value())
	case tree.TFCall:
		for i := 0; i < t.NumParams(); i++ {
			p := t.Param(i)
			if p.Kind == tree.PRange || !lowerable(p.Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

type env struct {
	vars   map[*tree.Node]value
	parent *env
}

func (n *env) lookup(decl *tree.Node) (value, bool) {
	for e := n; e != nil; e = e.parent {
		if v, ok := e.vars[decl]; ok {
			return v, true
		}
	}
	return value{}, false
}

func (e *Exec) eval(t *tree.Node, scope *env) (value, error) {
	switch t.Kind() {
	case tree.TLiteral:
		l := t.Literal()
		switch l.Kind {
		case tree.LInt, tree.LPhysical:
			return intValue(l.I), nil
		case tree.LReal:
			return realValue(l.R), nil
		}
		return value{}, fmt.Errorf("eval: cannot evaluate %v literal", l.Kind)

	case tree.TRef:
		decl := t.Ref()
		switch decl.Kind() {
		case tree.TEnumLit:
			return intValue(int64(decl.Pos())), nil
		case tree.TUnitDecl:
			return e.eval(decl.Value(), scope)
		case tree.TConstDecl:
			if decl.HasValue() {
				return e.eval(decl.Value(), scope)
			}
		case tree.TPortDecl, tree.TVarDecl:
			if scope != nil {
				if v, ok := scope.lookup(decl); ok {
					return v, nil
				}
			}
		}
		return value{}, fmt.Errorf("eval: cannot evaluate reference to %s", decl.Kind())

	case tree.TQualified, tree.TTypeConv:
		v, err := e.eval(t.Value(), scope)
		if err != nil {
			return value{}, err
		}
		return convert(v, t.Type()), nil

	case tree.TFCall:
		return e.evalCall(t, scope)

	default:
		return value{}, fmt.Errorf("eval: cannot evaluate %s", t.Kind())
	}
}

func convert(v value, typ *tree.Type) value {
	switch typ.Kind() {
	case tree.TypeReal:
		return realValue(v.toReal())
	case tree.TypeInteger:
		if v.real {
			return intValue(int64(v.r + 0.5))
		}
	}
	return v
}

func (e *Exec) evalCall(t *tree.Node, scope *env) (value, error) {
	decl := t.Ref()

	args := make([]value, t.NumParams())
	for i := range args {
		v, err := e.eval(t.Param(i).Value, scope)
		if err != nil {
			return value{}, err
		}
		args[i] = v
	}

	if decl.SubKind() == tree.SubBuiltin {
		return evalBuiltin(ident.Str(decl.Ident()), args)
	}

	if e.lowerFn == nil {
		return value{}, fmt.Errorf("eval: no lowering callback for %s", ident.Str(decl.Ident()))
	}
	thunk := e.lowerFn(decl.Ident2())
	if thunk == nil || thunk.body == nil {
		return value{}, fmt.Errorf("eval: %s not lowered", ident.Str(decl.Ident()))
	}

	body := thunk.body
	frame := &env{vars: make(map[*tree.Node]value)}
	for i := 0; i < body.NumPorts() && i < len(args); i++ {
		frame.vars[body.Port(i)] = args[i]
	}

	for i := 0; i < body.NumStmts(); i++ {
		v, done, err := e.evalStmt(body.Stmt(i), frame)
		if err != nil {
			return value{}, err
		}
		if done {
			return v, nil
		}
	}

	return value{}, fmt.Errorf("eval: %s did not return", ident.Str(decl.Ident()))
}

func (e *Exec) evalStmt(s *tree.Node, frame *env) (value, bool, error) {
	switch s.Kind() {
	case tree.TReturn:
		if !s.HasValue() {
			return value{}, false, fmt.Errorf("eval: return without value")
		}
		v, err := e.eval(s.Value(), frame)
		return v, true, err

	case tree.TVarAssign:
		target := s.Target()
		if target.Kind() != tree.TRef {
			return value{}, false, fmt.Errorf("eval: cannot assign %s", target.Kind())
		}
		v, err := e.eval(s.Value(), frame)
		if err != nil {
			return value{}, false, err
		}
		frame.vars[target.Ref()] = v
		return value{}, false, nil

	case tree.TIf:
		cond, err := e.eval(s.Value(), frame)
		if err != nil {
			return value{}, false, err
		}
		if cond.i != 0 {
			for i := 0; i < s.NumStmts(); i++ {
				if v, done, err := e.evalStmt(s.Stmt(i), frame); done || err != nil {
					return v, done, err
				}
			}
		} else {
			for i := 0; i < s.NumElseStmts(); i++ {
				if v, done, err := e.evalStmt(s.ElseStmt(i), frame); done || err != nil {
					return v, done, err
				}
			}
		}
		return value{}, false, nil

	case tree.TNull:
		return value{}, false, nil

	default:
		return value{}, false, fmt.Errorf("eval: cannot execute %s", s.Kind())
	}
}

func boolValue(b bool) value {
	if b {
		return intValue(1)
	}
	return intValue(0)
}

func evalBuiltin(op string, args []value) (value, error) {
	op = strings.Trim(op, "\"")

	if len(args) == 1 {
		a := args[0]
		switch op {
		case "+":
			return a, nil
		case "-":
			if a.real {
				return realValue(-a.r), nil
			}
			return intValue(-a.i), nil
		case "not":
			return boolValue(a.i == 0), nil
		case "abs":
			if a.real {
				if a.r < 0 {
					return realValue(-a.r), nil
				}
				return a, nil
			}
			if a.i < 0 {
				return intValue(-a.i), nil
			}
			return a, nil
		}
		return value{}, fmt.Errorf("eval: unknown unary operator %q", op)
	}

	if len(args) != 2 {
		return value{}, fmt.Errorf("eval: operator %q with %d arguments", op, len(args))
	}

	a, b := args[0], args[1]
	if a.real || b.real {
		x, y := a.toReal(), b.toReal()
		switch op {
		case "+":
			return realValue(x + y), nil
		case "-":
			return realValue(x - y), nil
		case "*":
			return realValue(x * y), nil
		case "/":
			if y == 0 {
				return value{}, fmt.Errorf("eval: division by zero")
			}
			return realValue(x / y), nil
		case "=":
			return boolValue(x == y), nil
		case "/=":
			return boolValue(x != y), nil
		case "<":
			return boolValue(x < y), nil
		case "<=":
			return boolValue(x <= y), nil
		case ">":
			return boolValue(x > y), nil
		case ">=":
			return boolValue(x >= y), nil
		}
		return value{}, fmt.Errorf("eval: unknown real operator %q", op)
	}

	x, y := a.i, b.i
	switch op {
	case "+":
		return intValue(x + y), nil
	case "-":
		return intValue(x - y), nil
	case "*":
		return intValue(x * y), nil
	case "/":
		if y == 0 {
			return value{}, fmt.Errorf("eval: division by zero")
		}
		return intValue(x / y), nil
	case "mod":
		if y == 0 {
			return value{}, fmt.Errorf("eval: division by zero")
		}
		m := x % y
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return intValue(m), nil
	case "rem":
		if y == 0 {
			return value{}, fmt.Errorf("eval: division by zero")
		}
		return intValue(x % y), nil
	case "**":
		r := int64(1)
		for n := int64(0); n < y; n++ {
			r *= x
		}
		return intValue(r), nil
	case "=":
		return boolValue(x == y), nil
	case "/=":
		return boolValue(x != y), nil
	case "<":
		return boolValue(x < y), nil
	case "<=":
		return boolValue(x <= y), nil
	case ">":
		return boolValue(x > y), nil
	case ">=":
		return boolValue(x >= y), nil
	case "and":
		return boolValue(x != 0 && y != 0), nil
	case "or":
		return boolValue(x != 0 || y != 0), nil
	case "xor":
		return boolValue((x != 0) != (y != 0)), nil
	case "nand":
		return boolValue(!(x != 0 && y != 0)), nil
	case "nor":
		return boolValue(!(x != 0 || y != 0)), nil
	}
	return value{}, fmt.Errorf("eval: unknown operator %q", op)
}
