// Package dataflow implements a generic fixpoint worklist analysis over
// a directional flow view of a control-flow graph. The lattice value
// type and the four problem-specific hooks (Init, Top, Effect, Meet)
// are supplied by the caller; the worklist algorithm itself is
// reusable across any forward or backward dataflow problem.
//
// No analysis in this module currently instantiates the engine: the
// last-use pass in pkg/liveness is simple enough to write as a direct
// linear walk instead. This engine is kept for a future real
// liveness-as-sets analysis; see the TODO below for what that analysis
// must account for.
package dataflow

import "github.com/zldunn/decafcc/pkg/tac"

// Flow is the minimal directional view a dataflow Analysis runs over.
// cfg.ForwardFlow and cfg.ReverseFlow both satisfy it.
type Flow interface {
	First() tac.Instr
	Last() tac.Instr
	Body() []tac.Instr
	In() map[tac.Instr][]tac.Instr
	Out() map[tac.Instr][]tac.Instr
}

// Analysis supplies the four hooks a concrete dataflow problem must
// define. V is the lattice's value type and must support equality so
// the worklist can detect a fixpoint.
type Analysis[V comparable] interface {
	// Init is the value at the flow's entry node (First()).
	Init() V
	// Top is the neutral element fed to Meet before any predecessor
	// has contributed a value.
	Top() V
	// Effect computes the outgoing value for instr given its incoming value.
	Effect(instr tac.Instr, in V) V
	// Meet combines two incoming values at a confluence point. Must be
	// commutative, associative, and idempotent for the worklist to terminate.
	Meet(a, b V) V
}

// Result holds the fixpoint df_in/df_out maps produced by Analyze.
type Result[V comparable] struct {
	In  map[tac.Instr]V
	Out map[tac.Instr]V
}

// Analyze runs the standard worklist fixpoint algorithm over flow
// using the hooks in a.
//
// TODO: if this engine is ever wired to a real liveness-as-sets
// analysis, a Return instruction's CFG edge back to the function entry
// (see pkg/cfg's Return→First edge) must be special-cased as a
// terminal node with no out-edge — the self-loop is harmless for an
// unused engine but would corrupt a real backward liveness fixpoint.
func Analyze[V comparable](flow Flow, a Analysis[V]) Result[V] {
	in := make(map[tac.Instr]V)
	out := make(map[tac.Instr]V)

	entry := flow.First()
	in[entry] = a.Init()
	out[entry] = a.Effect(entry, a.Init())

	var worklist []tac.Instr
	queued := make(map[tac.Instr]bool)
	for _, instr := range flow.Body() {
		if instr == entry {
			continue
		}
		top := a.Top()
		in[instr] = top
		out[instr] = a.Effect(instr, top)
		worklist = append(worklist, instr)
		queued[instr] = true
	}

	for len(worklist) > 0 {
		n := worklist[0]
		worklist = worklist[1:]
		queued[n] = false

		totalIn := a.Top()
		for _, pred := range flow.In()[n] {
			totalIn = a.Meet(totalIn, out[pred])
		}

		if totalIn != in[n] {
			in[n] = totalIn
			out[n] = a.Effect(n, totalIn)
			for _, succ := range flow.Out()[n] {
				if !queued[succ] {
					worklist = append(worklist, succ)
					queued[succ] = true
				}
			}
		}
	}

	return Result[V]{In: in, Out: out}
}
