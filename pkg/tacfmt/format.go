// Package tacfmt reads and writes a plain-text rendering of a TAC
// program: one instruction per line, opcode first. The format exists
// purely for the CLI driver and golden tests to have a file to read
// from; it is not a wire format any front end produces.
package tacfmt

import (
	"fmt"
	"io"

	"github.com/zldunn/decafcc/pkg/tac"
)

// Writer renders a tac.Program as text.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for textual TAC output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteProgram renders every global string followed by every
// instruction, one per line.
func (w *Writer) WriteProgram(prog *tac.Program) {
	for _, g := range prog.Globals {
		fmt.Fprintf(w.w, "GlobalString %s %q\n", g.Label, g.Literal)
	}
	for _, instr := range prog.Instrs {
		w.WriteInstr(instr)
	}
}

// WriteInstr renders a single instruction as one line of text.
func (w *Writer) WriteInstr(instr tac.Instr) {
	switch v := instr.(type) {
	case *tac.BeginFunc:
		fmt.Fprintf(w.w, "BeginFunc %s %d\n", v.Name, v.FrameSize)
	case *tac.EndFunc:
		fmt.Fprintln(w.w, "EndFunc")
	case *tac.LoadConstant:
		fmt.Fprintf(w.w, "LoadConstant %s %d\n", loc(v.Dst), v.Value)
	case *tac.LoadStringConstant:
		fmt.Fprintf(w.w, "LoadStringConstant %s %q\n", loc(v.Dst), v.Literal)
	case *tac.LoadLabel:
		fmt.Fprintf(w.w, "LoadLabel %s %s\n", loc(v.Dst), v.Label)
	case *tac.Assign:
		fmt.Fprintf(w.w, "Assign %s %s\n", loc(v.Dst), loc(v.Src))
	case *tac.Load:
		fmt.Fprintf(w.w, "Load %s %s %d\n", loc(v.Dst), loc(v.Ref), v.Offset)
	case *tac.Store:
		fmt.Fprintf(w.w, "Store %s %s %d\n", loc(v.Ref), loc(v.Src), v.Offset)
	case *tac.BinaryOp:
		fmt.Fprintf(w.w, "BinaryOp %s %s %s %s\n", v.Op, loc(v.Dst), loc(v.A), loc(v.B))
	case *tac.Label:
		fmt.Fprintf(w.w, "Label %s\n", v.Name)
	case *tac.Goto:
		fmt.Fprintf(w.w, "Goto %s\n", v.Target)
	case *tac.IfZ:
		fmt.Fprintf(w.w, "IfZ %s %s\n", loc(v.Test), v.Target)
	case *tac.PushParam:
		fmt.Fprintf(w.w, "PushParam %s\n", loc(v.Arg))
	case *tac.PopParams:
		fmt.Fprintf(w.w, "PopParams %d\n", v.Bytes)
	case *tac.LCall:
		fmt.Fprintf(w.w, "LCall %s %s\n", loc(v.Dst), v.Label)
	case *tac.ACall:
		fmt.Fprintf(w.w, "ACall %s %s\n", loc(v.Dst), loc(v.Fn))
	case *tac.Return:
		fmt.Fprintf(w.w, "Return %s\n", loc(v.Value))
	case *tac.VTable:
		fmt.Fprintf(w.w, "VTable %s", v.ClassName)
		for _, m := range v.MethodLabels {
			fmt.Fprintf(w.w, " %s", m)
		}
		fmt.Fprintln(w.w)
	case *tac.DiscardValue:
		fmt.Fprintf(w.w, "DiscardValue %s\n", loc(v.Loc))
	}
}

func loc(l *tac.Location) string {
	if l == nil {
		return "_"
	}
	seg := "fp"
	switch l.Segment {
	case tac.GPRelative:
		seg = "gp"
	case tac.Indirect:
		seg = "ind"
	}
	return fmt.Sprintf("%s@%s%+d", l.Name, seg, l.Offset)
}

