package tree

// The process arena: every allocated node is retained here until a
// collection proves it unreachable from a top-level unit.
var (
	allNodes       []*Node
	generationSeed uint32
)

func register(n *Node) {
	allNodes = append(allNodes, n)
}

func nextGeneration() uint32 {
	generationSeed++
	return generationSeed
}

// NumNodes returns the number of live nodes in the arena.
func NumNodes() int { return len(allNodes) }

// GCStats describes the outcome of a collection.
type GCStats struct {
	Freed int
	Live  int
}

// GC reclaims nodes unreachable from any top-level unit. Callers must
// not hold references to nodes across a collection other than through
// top-level units. Freed nodes release their attached types.
func GC() GCStats {
	baseGen := generationSeed + 1

	// Mark: deep-visit from every top-level unit
	for _, n := range allNodes {
		if n.kind.IsTopLevel() {
			ctx := &visitCtx{anyKind: true, generation: nextGeneration(), deep: true}
			visitAux(n, ctx)
		}
	}

	// Sweep
	freed := 0
	p := 0
	for _, n := range allNodes {
		if n.generation >= baseGen {
			allNodes[p] = n
			p++
			continue
		}

		if n.kind.has(slotType) && n.typ != nil {
			n.typ.unref()
			n.typ = nil
		}
		n.ports = nil
		n.generics = nil
		n.decls = nil
		n.stmts = nil
		n.elses = nil
		n.triggers = nil
		n.waves = nil
		n.drivers = nil
		n.params = nil
		n.genmaps = nil
		n.assocs = nil
		n.attrs = nil
		freed++
	}
	allNodes = allNodes[:p]

	return GCStats{Freed: freed, Live: p}
}

// ResetArena drops the whole arena. Tests use this to start from a
// clean process state.
func ResetArena() {
	allNodes = nil
	generationSeed = 0
}
