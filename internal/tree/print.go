package tree

import (
	"fmt"
	"io"
	"strings"

	"volta/internal/ident"
)

// Dump writes an indented summary of the graph rooted at t. It is a
// debugging aid, not a pretty-printer: shared nodes print once and
// show up as back-references afterwards.
func Dump(w io.Writer, t *Node) {
	d := &dumper{w: w, seen: make(map[*Node]int)}
	d.node(t, 0)
}

type dumper struct {
	w    io.Writer
	seen map[*Node]int
	next int
}

func (d *dumper) printf(depth int, format string, args ...any) {
	fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth),
		fmt.Sprintf(format, args...))
}

func (d *dumper) node(t *Node, depth int) {
	if t == nil {
		d.printf(depth, "(null)")
		return
	}

	if id, ok := d.seen[t]; ok {
		d.printf(depth, "(see #%d)", id)
		return
	}
	id := d.next
	d.next++
	d.seen[t] = id

	label := fmt.Sprintf("#%d %s", id, t.kind)
	if t.kind.has(slotIdent) && t.ident != ident.None {
		label += " " + ident.Str(t.ident)
	}
	if t.kind.has(slotIdent2) && t.ident2 != ident.None {
		label += " (" + ident.Str(t.ident2) + ")"
	}
	if t.kind.has(slotLiteral) {
		switch t.literal.Kind {
		case LInt, LPhysical:
			label += fmt.Sprintf(" %d", t.literal.I)
		case LReal:
			label += fmt.Sprintf(" %g", t.literal.R)
		case LString:
			label += fmt.Sprintf(" %d chars", len(t.literal.Chars))
		case LNull:
			label += " null"
		}
	}
	if t.kind.has(slotType) && t.typ != nil {
		label += fmt.Sprintf(" : %s", typeLabel(t.typ))
	}
	if t.flags != 0 {
		label += fmt.Sprintf(" [%#x]", uint16(t.flags))
	}
	d.printf(depth, "%s", label)

	d.array("ports", t.ports, depth+1)
	d.array("generics", t.generics, depth+1)
	d.array("decls", t.decls, depth+1)
	d.array("stmts", t.stmts, depth+1)
	d.array("else", t.elses, depth+1)
	d.array("triggers", t.triggers, depth+1)
	d.array("waveforms", t.waves, depth+1)

	d.single("target", t.target, depth+1)
	d.single("value", t.value, depth+1)
	d.single("delay", t.delay, depth+1)
	d.single("message", t.message, depth+1)
	d.single("severity", t.severity, depth+1)
	d.single("name", t.name, depth+1)
	d.single("guard", t.guard, depth+1)
	d.single("reject", t.reject, depth+1)

	if t.kind.has(slotRef) && t.ref != nil {
		if id, ok := d.seen[t.ref]; ok {
			d.printf(depth+1, "ref: (see #%d)", id)
		} else if t.ref.kind.has(slotIdent) && t.ref.ident != ident.None {
			d.printf(depth+1, "ref: %s %s", t.ref.kind, ident.Str(t.ref.ident))
		} else {
			d.printf(depth+1, "ref: %s", t.ref.kind)
		}
	}

	if t.kind.has(slotParams) && len(t.params) > 0 {
		d.printf(depth+1, "params:")
		d.params(t.params, depth+2)
	}
	if t.kind.has(slotGenmaps) && len(t.genmaps) > 0 {
		d.printf(depth+1, "genmaps:")
		d.params(t.genmaps, depth+2)
	}
	if t.kind.has(slotAssocs) && len(t.assocs) > 0 {
		d.printf(depth+1, "assocs:")
		for i := range t.assocs {
			a := &t.assocs[i]
			switch a.Kind {
			case APos:
				d.printf(depth+2, "[%d]:", a.Pos)
			case ANamed:
				d.printf(depth+2, "named:")
				d.node(a.Name, depth+3)
			case ARange:
				d.printf(depth+2, "range:")
			case AOthers:
				d.printf(depth+2, "others:")
			}
			d.node(a.Value, depth+3)
		}
	}
	if t.kind.has(slotRange) && t.rng != nil {
		d.printf(depth+1, "range %v:", t.rng.Kind)
		d.node(t.rng.Left, depth+2)
		d.node(t.rng.Right, depth+2)
	}
}

func (d *dumper) array(label string, items []*Node, depth int) {
	if len(items) == 0 {
		return
	}
	d.printf(depth, "%s:", label)
	for _, item := range items {
		d.node(item, depth+1)
	}
}

func (d *dumper) single(label string, t *Node, depth int) {
	if t == nil {
		return
	}
	d.printf(depth, "%s:", label)
	d.node(t, depth+1)
}

func (d *dumper) params(params []Param, depth int) {
	for i := range params {
		p := &params[i]
		switch p.Kind {
		case PPos:
			d.printf(depth, "[%d]:", p.Pos)
			d.node(p.Value, depth+1)
		case PNamed:
			d.printf(depth, "%s =>", ident.Str(p.Name))
			d.node(p.Value, depth+1)
		case PRange:
			d.printf(depth, "range:")
			d.node(p.Range.Left, depth+1)
			d.node(p.Range.Right, depth+1)
		}
	}
}

func typeLabel(t *Type) string {
	if t.name != ident.None {
		return ident.Str(t.name)
	}
	return t.kind.String()
}
