package cfg

import "github.com/zldunn/decafcc/pkg/tac"

// Flow adapts a CFG to be walked in a single direction, so a dataflow
// analysis can be written once and run either forward or backward.
// ForwardFlow and ReverseFlow below swap First()/Last() and In()/Out()
// between the two directions rather than duplicating the worklist
// algorithm itself.
type Flow interface {
	// First and Last are the entry and exit instructions for this
	// direction (both inclusive).
	First() tac.Instr
	Last() tac.Instr
	// Body returns every instruction walked by this flow, in the
	// direction's own order (First first, Last last).
	Body() []tac.Instr
	// In and Out return, for this direction, the predecessor and
	// successor edge maps respectively.
	In() map[tac.Instr][]tac.Instr
	Out() map[tac.Instr][]tac.Instr
}

// ForwardFlow walks a CFG in the direction TAC instructions were
// originally emitted: First = BeginFunc, In = predecessors, Out = successors.
type ForwardFlow struct {
	cfg *CFG
}

// NewForwardFlow adapts cfg for forward traversal.
func NewForwardFlow(c *CFG) ForwardFlow { return ForwardFlow{cfg: c} }

func (f ForwardFlow) First() tac.Instr { return f.cfg.First }
func (f ForwardFlow) Last() tac.Instr  { return f.cfg.Last }
func (f ForwardFlow) Body() []tac.Instr {
	// body excludes Last (EndFunc); forward order appends it back so
	// Flow.Body() is a faithful First..Last inclusive walk.
	out := make([]tac.Instr, 0, len(f.cfg.body)+1)
	out = append(out, f.cfg.body...)
	return append(out, f.cfg.Last)
}
func (f ForwardFlow) In() map[tac.Instr][]tac.Instr  { return f.cfg.InEdges }
func (f ForwardFlow) Out() map[tac.Instr][]tac.Instr { return f.cfg.OutEdges }

// ReverseFlow walks the same CFG backward: First = EndFunc, In/Out swapped.
type ReverseFlow struct {
	cfg *CFG
}

// NewReverseFlow adapts cfg for reverse traversal.
func NewReverseFlow(c *CFG) ReverseFlow { return ReverseFlow{cfg: c} }

func (f ReverseFlow) First() tac.Instr { return f.cfg.Last }
func (f ReverseFlow) Last() tac.Instr  { return f.cfg.First }
func (f ReverseFlow) Body() []tac.Instr {
	fwd := NewForwardFlow(f.cfg).Body()
	out := make([]tac.Instr, len(fwd))
	for i, instr := range fwd {
		out[len(fwd)-1-i] = instr
	}
	return out
}
func (f ReverseFlow) In() map[tac.Instr][]tac.Instr  { return f.cfg.OutEdges }
func (f ReverseFlow) Out() map[tac.Instr][]tac.Instr { return f.cfg.InEdges }
