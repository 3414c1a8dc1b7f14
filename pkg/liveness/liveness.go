// Package liveness computes, for a single function's instruction body,
// the last point at which each temporary is referenced. It is a direct
// linear-order walk rather than a worklist fixpoint: the function's
// CFG may contain loops, but the last-use point for register-discard
// purposes is defined over the straight-line instruction order the
// function was emitted in, not over any flow-graph traversal.
package liveness

import (
	"strings"

	"github.com/zldunn/decafcc/pkg/tac"
)

// LastUse maps a temporary's Location to the single instruction at
// which it is last referenced within one function's body.
type LastUse map[*tac.Location]tac.Instr

// Analyze walks body (a function's instructions, excluding its
// trailing EndFunc) in order and returns the last-use map. Only
// operands whose name carries the temporary prefix are tracked; a
// user variable may be reloaded from its frame slot later, so its
// register is never safe to discard without a store.
func Analyze(body []tac.Instr) LastUse {
	m := make(LastUse)
	for _, instr := range body {
		n := instr.NumVars()
		if n >= 1 {
			record(m, instr.VarA(), instr)
		}
		if n >= 2 {
			record(m, instr.VarB(), instr)
		}
		if n >= 3 {
			record(m, instr.VarC(), instr)
		}
	}
	return m
}

func record(m LastUse, loc *tac.Location, instr tac.Instr) {
	if loc == nil || !strings.HasPrefix(loc.Name, tac.TempPrefix) {
		return
	}
	m[loc] = instr
}

// IsLastUse reports whether instr is the recorded last-use point for loc.
func (m LastUse) IsLastUse(loc *tac.Location, instr tac.Instr) bool {
	return m[loc] == instr
}
