// Package codegen drives the two-pass translation of a TAC program into
// MIPS assembly text: a first pass that segments the instruction list
// into functions and computes each function's last-use map, and a
// second pass that walks the same list again, emitting MIPS and
// interleaving synthetic DiscardValue instructions at last-use points.
package codegen

import (
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/zldunn/decafcc/pkg/cfg"
	"github.com/zldunn/decafcc/pkg/liveness"
	"github.com/zldunn/decafcc/pkg/mips"
	"github.com/zldunn/decafcc/pkg/tac"
)

// ErrMalformedTAC is returned when instruction boundaries don't nest:
// an EndFunc with no open BeginFunc, a BeginFunc nested inside another,
// or a non-VTable instruction appearing outside any function.
var ErrMalformedTAC = errors.New("malformed TAC")

// function is one BeginFunc..EndFunc unit, with its last-use map
// computed during the first pass and retained for the second.
type function struct {
	instrs  []tac.Instr
	lastUse liveness.LastUse
}

// segment splits a flat instruction list into an ordered sequence of
// entries: functions and top-level VTable declarations interleaved in
// their original order.
type entry struct {
	fn     *function
	vtable *tac.VTable
}

func segment(instrs []tac.Instr) ([]entry, error) {
	var entries []entry
	i := 0
	for i < len(instrs) {
		switch v := instrs[i].(type) {
		case *tac.VTable:
			entries = append(entries, entry{vtable: v})
			i++
		case *tac.BeginFunc:
			start := i
			depth := 1
			j := i + 1
			for j < len(instrs) {
				switch instrs[j].(type) {
				case *tac.BeginFunc:
					return nil, fmt.Errorf("codegen: nested BeginFunc at instruction %d: %w", j, ErrMalformedTAC)
				case *tac.EndFunc:
					depth--
				}
				if depth == 0 {
					break
				}
				j++
			}
			if depth != 0 {
				return nil, fmt.Errorf("codegen: BeginFunc at instruction %d has no matching EndFunc: %w", start, ErrMalformedTAC)
			}
			body := instrs[start : j+1]
			c, err := cfg.Build(body, 0, len(body)-1)
			if err != nil {
				return nil, fmt.Errorf("codegen: %w", err)
			}
			entries = append(entries, entry{fn: &function{
				instrs:  body,
				lastUse: liveness.Analyze(c.Body()),
			}})
			i = j + 1
		case *tac.EndFunc:
			return nil, fmt.Errorf("codegen: EndFunc at instruction %d with no open BeginFunc: %w", i, ErrMalformedTAC)
		default:
			return nil, fmt.Errorf("codegen: instruction %d (%T) outside any function: %w", i, instrs[i], ErrMalformedTAC)
		}
	}
	return entries, nil
}

// Generate translates prog into MIPS assembly text written to w. rng
// seeds the emitter's random spill-victim selection; pass a
// deterministically-seeded source for reproducible output.
func Generate(w io.Writer, prog *tac.Program, rng *rand.Rand) error {
	entries, err := segment(prog.Instrs)
	if err != nil {
		return err
	}

	e := mips.New(w, rng)
	e.EmitPreamble()

	for _, en := range entries {
		if en.vtable != nil {
			e.EmitVTable(en.vtable.ClassName, en.vtable.MethodLabels)
			continue
		}
		emitFunction(e, en.fn)
	}
	return nil
}

func emitFunction(e *mips.Emitter, fn *function) {
	for _, instr := range fn.instrs {
		emitOne(e, instr)
		discardLastUses(e, fn.lastUse, instr)
	}
}

func discardLastUses(e *mips.Emitter, lastUse liveness.LastUse, instr tac.Instr) {
	seen := make(map[*tac.Location]bool, 3)
	n := instr.NumVars()
	vars := [3]*tac.Location{}
	if n >= 1 {
		vars[0] = instr.VarA()
	}
	if n >= 2 {
		vars[1] = instr.VarB()
	}
	if n >= 3 {
		vars[2] = instr.VarC()
	}
	for _, loc := range vars {
		if loc == nil || seen[loc] {
			continue
		}
		seen[loc] = true
		if lastUse.IsLastUse(loc, instr) {
			e.EmitDiscardValue(loc)
		}
	}
}

func emitOne(e *mips.Emitter, instr tac.Instr) {
	switch v := instr.(type) {
	case *tac.BeginFunc:
		e.EmitBeginFunction(v.Name, v.FrameSize)
	case *tac.EndFunc:
		e.EmitEndFunction()
	case *tac.LoadConstant:
		e.EmitLoadConstant(v.Dst, v.Value)
	case *tac.LoadStringConstant:
		e.EmitLoadStringConstant(v.Dst, v.Literal)
	case *tac.LoadLabel:
		e.EmitLoadLabel(v.Dst, v.Label)
	case *tac.Assign:
		e.EmitCopy(v.Dst, v.Src)
	case *tac.Load:
		e.EmitLoad(v.Dst, v.Ref, v.Offset)
	case *tac.Store:
		e.EmitStore(v.Ref, v.Src, v.Offset)
	case *tac.BinaryOp:
		e.EmitBinaryOp(v.Op, v.Dst, v.A, v.B)
	case *tac.Label:
		e.EmitLabel(v.Name)
	case *tac.Goto:
		e.EmitGoto(v.Target)
	case *tac.IfZ:
		e.EmitIfZ(v.Test, v.Target)
	case *tac.PushParam:
		e.EmitParam(v.Arg)
	case *tac.PopParams:
		e.EmitPopParams(v.Bytes)
	case *tac.LCall:
		e.EmitLCall(v.Dst, v.Label)
	case *tac.ACall:
		e.EmitACall(v.Dst, v.Fn)
	case *tac.Return:
		e.EmitReturn(v.Value)
	case *tac.DiscardValue:
		e.EmitDiscardValue(v.Loc)
	}
}
