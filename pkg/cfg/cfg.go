// Package cfg builds a per-function control-flow graph over a range of
// TAC instructions and exposes it through direction-agnostic flow
// views. Construction is a two-pass label-then-edge walk: first every
// Label instruction is indexed by name, then every control-transfer
// instruction resolves its target against that index.
package cfg

import (
	"errors"
	"fmt"

	"github.com/zldunn/decafcc/pkg/tac"
)

// ErrMalformedFunction is returned when the range handed to Build does
// not start at a BeginFunc and end at an EndFunc.
var ErrMalformedFunction = errors.New("malformed function: range must run from BeginFunc to EndFunc")

// runtimeLabels are resolved at SPIM link time, never within the TAC
// stream; a jump to one is a deliberately suppressed edge rather than
// an unresolved-label self-edge.
var runtimeLabels = map[string]bool{
	"_PrintString": true,
	"_PrintInt":    true,
}

// CFG is the control-flow graph of a single function's instruction
// range. Instruction identity (the tac.Instr value's own pointer) is
// the key into every map; two instructions are never merged just
// because they carry equal-looking payloads.
type CFG struct {
	First, Last   tac.Instr // first = BeginFunc, Last = EndFunc (the range is [First, Last) for edge purposes, but Last is itself part of the function)
	InstrForLabel map[string]tac.Instr
	InEdges       map[tac.Instr][]tac.Instr
	OutEdges      map[tac.Instr][]tac.Instr

	// body is the instruction range actually walked for label and edge
	// construction: every instruction from First up to but not
	// including Last.
	body []tac.Instr
}

// Build constructs the CFG for the function occupying instrs[first:last+1]
// — that is, instrs[first] must be a *tac.BeginFunc and instrs[last]
// must be a *tac.EndFunc. The edge- and label-mapping passes walk
// instrs[first:last], which excludes the EndFunc marker itself since
// it carries no control edge of its own.
func Build(instrs []tac.Instr, first, last int) (*CFG, error) {
	if first < 0 || last >= len(instrs) || first > last {
		return nil, fmt.Errorf("cfg.Build: range [%d,%d] out of bounds for %d instructions: %w", first, last, len(instrs), ErrMalformedFunction)
	}
	if _, ok := instrs[first].(*tac.BeginFunc); !ok {
		return nil, fmt.Errorf("cfg.Build: instrs[%d] is not BeginFunc: %w", first, ErrMalformedFunction)
	}
	if _, ok := instrs[last].(*tac.EndFunc); !ok {
		return nil, fmt.Errorf("cfg.Build: instrs[%d] is not EndFunc: %w", last, ErrMalformedFunction)
	}

	c := &CFG{
		First:         instrs[first],
		Last:          instrs[last],
		InstrForLabel: make(map[string]tac.Instr),
		InEdges:       make(map[tac.Instr][]tac.Instr),
		OutEdges:      make(map[tac.Instr][]tac.Instr),
		body:          instrs[first:last],
	}
	c.mapLabels()
	c.mapEdges()
	return c, nil
}

// mapLabels builds instr_for_label from every Label instruction in the
// function's body. Duplicate labels are a front-end error; the last
// occurrence wins.
func (c *CFG) mapLabels() {
	for _, instr := range c.body {
		if l, ok := instr.(*tac.Label); ok {
			c.InstrForLabel[l.Name] = instr
		}
	}
}

// mapEdges adds a control edge for every Return, LCall, ACall, IfZ, and
// Goto instruction in the body. Fall-through edges are deliberately not
// added; the last-use pass does not need them because it walks linear
// order instead of the graph.
func (c *CFG) mapEdges() {
	for _, instr := range c.body {
		switch v := instr.(type) {
		case *tac.Return:
			c.addEdge(instr, c.First)
		case *tac.LCall:
			c.mapJumpEdge(instr, v.Label)
		case *tac.ACall:
			// ACall's target is a runtime value, not a label; it has no
			// statically resolvable target, so (unlike LCall) it gets a
			// conservative self-edge unconditionally.
			c.addEdge(instr, instr)
		case *tac.IfZ:
			c.mapJumpEdge(instr, v.Target)
		case *tac.Goto:
			c.mapJumpEdge(instr, v.Target)
		}
	}
}

// mapJumpEdge resolves label to an instruction within this function's
// body and adds an edge to it; if label is one of the well-known
// runtime entry points, no edge is added at all, otherwise an
// unresolved (inter-function) label gets a conservative self-edge.
func (c *CFG) mapJumpEdge(from tac.Instr, label string) {
	if target, ok := c.InstrForLabel[label]; ok {
		c.addEdge(from, target)
		return
	}
	if runtimeLabels[label] {
		return
	}
	c.addEdge(from, from)
}

func (c *CFG) addEdge(from, to tac.Instr) {
	c.OutEdges[from] = append(c.OutEdges[from], to)
	c.InEdges[to] = append(c.InEdges[to], from)
}

// Body returns the instructions in the function, from BeginFunc up to
// but not including EndFunc, in their original linear order.
func (c *CFG) Body() []tac.Instr {
	return c.body
}
