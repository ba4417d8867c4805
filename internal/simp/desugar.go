package simp

import (
	"volta/internal/ident"
	"volta/internal/tree"
)

// simpProcess replaces a process sensitivity list with a trailing
// "wait on" statement, and deletes processes that do nothing.
func (ctx *context) simpProcess(t *tree.Node) *tree.Node {
	ntriggers := t.NumTriggers()
	if ntriggers > 0 {
		nstmts := t.NumStmts()
		if nstmts == 0 {
			return nil // Body was optimised away
		}

		p := tree.New(tree.TProcess)
		p.SetIdent(t.Ident())
		p.SetLoc(t.Loc())
		if t.HasFlag(tree.FPostponed) {
			p.SetFlag(tree.FPostponed)
		}

		for i := 0; i < t.NumDecls(); i++ {
			p.AddDecl(t.Decl(i))
		}
		for i := 0; i < nstmts; i++ {
			p.AddStmt(t.Stmt(i))
		}

		w := tree.New(tree.TWait)
		w.SetIdent(p.Ident())
		w.SetFlag(tree.FStaticWait)
		if ntriggers == 1 && t.Trigger(0).Kind() == tree.TAll {
			ctx.buildWait(w, t, true)
		} else {
			for i := 0; i < ntriggers; i++ {
				w.AddTrigger(t.Trigger(i))
			}
		}
		p.AddStmt(w)

		return p
	}

	// Delete processes that contain just a single wait statement
	if t.NumStmts() == 1 && t.Stmt(0).Kind() == tree.TWait {
		return nil
	}
	return t
}

// simpWait generates a sensitivity list from the condition clause
// when none was supplied (LRM 93 section 8.1).
func (ctx *context) simpWait(t *tree.Node) *tree.Node {
	if t.HasValue() && t.NumTriggers() == 0 {
		ctx.buildWait(t, t.Value(), false)
	}

	return t
}

// simpGuard wraps the body of a guarded concurrent statement in an if
// on the guard signal (LRM 93 section 9.3), and puts the guard on the
// wait list.
func simpGuard(t, wait *tree.Node) *tree.Node {
	gif := tree.New(tree.TIf)
	gif.SetIdent(ident.New("guard_if"))
	gif.SetLoc(t.Loc())

	guardRef := t.Guard()
	gif.SetValue(guardRef)
	wait.AddTrigger(guardRef)

	return gif
}

// simpCassign replaces a concurrent signal assignment with an
// equivalent process.
func (ctx *context) simpCassign(t *tree.Node) *tree.Node {
	p := tree.New(tree.TProcess)
	p.SetIdent(t.Ident())
	p.SetLoc(t.Loc())
	if t.HasFlag(tree.FPostponed) {
		p.SetFlag(tree.FPostponed)
	}

	w := tree.New(tree.TWait)
	w.SetIdent(ident.New("cassign"))
	w.SetFlag(tree.FStaticWait)

	container := p
	if t.HasGuard() {
		container = simpGuard(t, w)
		p.AddStmt(container)
	}

	s := tree.New(tree.TSignalAssign)
	s.SetLoc(t.Loc())
	s.SetTarget(t.Target())
	s.SetIdent(t.Ident())
	if t.HasReject() {
		s.SetReject(t.Reject())
	}

	for i := 0; i < t.NumWaveforms(); i++ {
		wave := t.Waveform(i)
		s.AddWaveform(wave)
		ctx.buildWait(w, wave, false)
	}

	container.AddStmt(s)

	p.AddStmt(w)
	return p
}

// simpSelect replaces a selected signal assignment with a case
// statement inside a process.
func (ctx *context) simpSelect(t *tree.Node) *tree.Node {
	p := tree.New(tree.TProcess)
	p.SetIdent(t.Ident())
	p.SetLoc(t.Loc())

	w := tree.New(tree.TWait)
	w.SetIdent(ident.New("select_wait"))
	w.SetFlag(tree.FStaticWait)

	container := p
	if t.HasGuard() {
		container = simpGuard(t, w)
		p.AddStmt(container)
	}

	c := tree.New(tree.TCase)
	c.SetIdent(ident.New("select_case"))
	c.SetLoc(t.Loc())
	c.SetValue(t.Value())

	ctx.buildWait(w, t.Value(), false)

	for i := 0; i < t.NumAssocs(); i++ {
		a := t.Assoc(i)
		c.AddAssoc(a)

		if a.Kind == tree.ANamed {
			ctx.buildWait(w, a.Name, false)
		}

		value := a.Value
		for j := 0; j < value.NumWaveforms(); j++ {
			ctx.buildWait(w, value.Waveform(j), false)
		}
	}

	container.AddStmt(c)
	p.AddStmt(w)
	return p
}

// simpCpcall replaces a concurrent procedure call with a process
// sensitive to its IN and INOUT arguments.
func (ctx *context) simpCpcall(t *tree.Node) *tree.Node {
	t = simpCallArgs(t)

	process := tree.New(tree.TProcess)
	process.SetIdent(t.Ident())
	process.SetLoc(t.Loc())

	wait := tree.New(tree.TWait)
	wait.SetIdent(ident.New("pcall_wait"))

	pcall := tree.New(tree.TPCall)
	pcall.SetIdent(ident.New("pcall"))
	if t.HasIdent2() {
		pcall.SetIdent2(t.Ident2())
	}
	pcall.SetLoc(t.Loc())
	pcall.SetRef(t.Ref())

	decl := t.Ref()
	for i := 0; i < t.NumParams(); i++ {
		p := t.Param(i)

		// Only IN and INOUT arguments join the sensitivity list
		mode := tree.PortIn
		if i < decl.NumPorts() {
			mode = decl.Port(i).PortMode()
		}
		if mode == tree.PortIn || mode == tree.PortInOut {
			ctx.buildWait(wait, p.Value, false)
		}

		pcall.AddParam(p)
	}

	process.AddStmt(pcall)
	process.AddStmt(wait)

	return process
}

// simpCassert replaces a concurrent assertion with a process, unless
// the assertion trivially passes.
func (ctx *context) simpCassert(t *tree.Node) *tree.Node {
	value := t.Value()
	if b, ok := foldedBool(value); ok && b {
		// Assertion always passes
		return nil
	}

	process := tree.New(tree.TProcess)
	process.SetIdent(t.Ident())
	process.SetLoc(t.Loc())

	if t.HasFlag(tree.FPostponed) {
		process.SetFlag(tree.FPostponed)
	}

	wait := tree.New(tree.TWait)
	wait.SetIdent(ident.New("assert_wait"))
	wait.SetFlag(tree.FStaticWait)

	a := tree.New(tree.TAssert)
	a.SetIdent(ident.New("assert_wrap"))
	a.SetLoc(t.Loc())
	a.SetValue(value)
	if t.HasSeverity() {
		a.SetSeverity(t.Severity())
	}
	if t.HasMessage() {
		a.SetMessage(t.Message())
	}

	ctx.buildWait(wait, t.Value(), false)

	process.AddStmt(a)
	process.AddStmt(wait)

	return process
}
