package tacfmt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zldunn/decafcc/pkg/tac"
)

// ErrUnresolvedLabel is returned when a Goto, IfZ, or LCall
// instruction's target field is the "_" placeholder in the source
// text. Unlike an unresolved
// label at the control-flow-graph level (handled silently with a
// self-edge), a blank target here means the text itself is malformed.
var ErrUnresolvedLabel = errors.New("tacfmt: empty jump/call target")

// ErrMalformedLine is returned for a line this reader cannot parse:
// an unknown opcode, too few fields, or a field that fails to convert.
var ErrMalformedLine = errors.New("tacfmt: malformed line")

var opcodeNames = map[string]tac.Opcode{
	"Add": tac.Add, "Sub": tac.Sub, "Mul": tac.Mul, "Div": tac.Div, "Mod": tac.Mod,
	"Eq": tac.Eq, "Less": tac.Less, "And": tac.And, "Or": tac.Or,
}

// ReadProgram parses the textual format produced by Writer.WriteProgram.
func ReadProgram(r io.Reader) (*tac.Program, error) {
	prog := &tac.Program{}
	scanner := bufio.NewScanner(r)
	li := newLocInterner()
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields, err := tokenize(line)
		if err != nil {
			return nil, fmt.Errorf("tacfmt: line %d: %w", lineNo, err)
		}
		if fields[0] == "GlobalString" {
			g, err := parseGlobalString(fields)
			if err != nil {
				return nil, fmt.Errorf("tacfmt: line %d: %w", lineNo, err)
			}
			prog.Globals = append(prog.Globals, g)
			continue
		}
		instr, err := parseInstr(fields, li)
		if err != nil {
			return nil, fmt.Errorf("tacfmt: line %d: %w", lineNo, err)
		}
		if _, ok := instr.(*tac.BeginFunc); ok {
			// Frame offsets restart at every function, so a stale entry
			// from the previous function would otherwise alias a
			// same-named, same-offset Location in this one.
			li.reset()
		}
		prog.Instrs = append(prog.Instrs, instr)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tacfmt: %w", err)
	}
	return prog, nil
}

// locInterner makes repeated textual mentions of the same (Name,
// Segment, Offset) triple within one function share a single
// *tac.Location pointer, matching the identity every consumer of
// parsed TAC (liveness.LastUse, the register descriptor) relies on to
// recognize "the same temporary" across instructions.
type locInterner struct {
	locs map[string]*tac.Location
}

func newLocInterner() *locInterner {
	return &locInterner{locs: make(map[string]*tac.Location)}
}

func (li *locInterner) reset() {
	li.locs = make(map[string]*tac.Location)
}

func (li *locInterner) intern(name string, seg tac.Segment, offset int64) *tac.Location {
	key := fmt.Sprintf("%s\x00%d\x00%d", name, seg, offset)
	if loc, ok := li.locs[key]; ok {
		return loc
	}
	loc := tac.NewLocation(name, seg, offset)
	li.locs[key] = loc
	return loc
}

// tokenize splits a line into fields, keeping a trailing double-quoted
// string literal (for LoadStringConstant/GlobalString) as one token.
func tokenize(line string) ([]string, error) {
	if i := strings.Index(line, `"`); i >= 0 {
		head := strings.Fields(line[:i])
		if !strings.HasSuffix(line, `"`) || len(line) == i+1 {
			return nil, fmt.Errorf("unterminated string literal: %w", ErrMalformedLine)
		}
		return append(head, line[i:]), nil
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty line: %w", ErrMalformedLine)
	}
	return fields, nil
}

func parseGlobalString(f []string) (tac.GlobalString, error) {
	if len(f) != 3 {
		return tac.GlobalString{}, fmt.Errorf("GlobalString wants 2 fields, got %d: %w", len(f)-1, ErrMalformedLine)
	}
	literal, err := strconv.Unquote(f[2])
	if err != nil {
		return tac.GlobalString{}, fmt.Errorf("bad string literal %s: %w", f[2], ErrMalformedLine)
	}
	return tac.GlobalString{Label: f[1], Literal: literal}, nil
}

func parseInstr(f []string, li *locInterner) (tac.Instr, error) {
	args := f[1:]
	switch f[0] {
	case "BeginFunc":
		if len(args) != 2 {
			return nil, fieldCountErr("BeginFunc", 2, len(args))
		}
		size, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad frame size %s: %w", args[1], ErrMalformedLine)
		}
		return &tac.BeginFunc{Name: args[0], FrameSize: size}, nil
	case "EndFunc":
		return &tac.EndFunc{}, nil
	case "LoadConstant":
		if len(args) != 2 {
			return nil, fieldCountErr("LoadConstant", 2, len(args))
		}
		dst, err := li.parseLoc(args[0])
		if err != nil {
			return nil, err
		}
		val, err := strconv.ParseInt(args[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad constant %s: %w", args[1], ErrMalformedLine)
		}
		return &tac.LoadConstant{Dst: dst, Value: int32(val)}, nil
	case "LoadStringConstant":
		if len(args) != 2 {
			return nil, fieldCountErr("LoadStringConstant", 2, len(args))
		}
		dst, err := li.parseLoc(args[0])
		if err != nil {
			return nil, err
		}
		literal, err := strconv.Unquote(args[1])
		if err != nil {
			return nil, fmt.Errorf("bad string literal %s: %w", args[1], ErrMalformedLine)
		}
		return &tac.LoadStringConstant{Dst: dst, Literal: literal}, nil
	case "LoadLabel":
		if len(args) != 2 {
			return nil, fieldCountErr("LoadLabel", 2, len(args))
		}
		dst, err := li.parseLoc(args[0])
		if err != nil {
			return nil, err
		}
		return &tac.LoadLabel{Dst: dst, Label: args[1]}, nil
	case "Assign":
		if len(args) != 2 {
			return nil, fieldCountErr("Assign", 2, len(args))
		}
		dst, err := li.parseLoc(args[0])
		if err != nil {
			return nil, err
		}
		src, err := li.parseLoc(args[1])
		if err != nil {
			return nil, err
		}
		return &tac.Assign{Dst: dst, Src: src}, nil
	case "Load":
		if len(args) != 3 {
			return nil, fieldCountErr("Load", 3, len(args))
		}
		dst, err := li.parseLoc(args[0])
		if err != nil {
			return nil, err
		}
		ref, err := li.parseLoc(args[1])
		if err != nil {
			return nil, err
		}
		offset, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad offset %s: %w", args[2], ErrMalformedLine)
		}
		return &tac.Load{Dst: dst, Ref: ref, Offset: offset}, nil
	case "Store":
		if len(args) != 3 {
			return nil, fieldCountErr("Store", 3, len(args))
		}
		ref, err := li.parseLoc(args[0])
		if err != nil {
			return nil, err
		}
		src, err := li.parseLoc(args[1])
		if err != nil {
			return nil, err
		}
		offset, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad offset %s: %w", args[2], ErrMalformedLine)
		}
		return &tac.Store{Ref: ref, Src: src, Offset: offset}, nil
	case "BinaryOp":
		if len(args) != 4 {
			return nil, fieldCountErr("BinaryOp", 4, len(args))
		}
		op, ok := opcodeNames[args[0]]
		if !ok {
			return nil, fmt.Errorf("unknown opcode %s: %w", args[0], ErrMalformedLine)
		}
		dst, err := li.parseLoc(args[1])
		if err != nil {
			return nil, err
		}
		a, err := li.parseLoc(args[2])
		if err != nil {
			return nil, err
		}
		b, err := li.parseLoc(args[3])
		if err != nil {
			return nil, err
		}
		return &tac.BinaryOp{Op: op, Dst: dst, A: a, B: b}, nil
	case "Label":
		if len(args) != 1 {
			return nil, fieldCountErr("Label", 1, len(args))
		}
		return &tac.Label{Name: args[0]}, nil
	case "Goto":
		if len(args) != 1 {
			return nil, fieldCountErr("Goto", 1, len(args))
		}
		if args[0] == "_" {
			return nil, ErrUnresolvedLabel
		}
		return &tac.Goto{Target: args[0]}, nil
	case "IfZ":
		if len(args) != 2 {
			return nil, fieldCountErr("IfZ", 2, len(args))
		}
		test, err := li.parseLoc(args[0])
		if err != nil {
			return nil, err
		}
		if args[1] == "_" {
			return nil, ErrUnresolvedLabel
		}
		return &tac.IfZ{Test: test, Target: args[1]}, nil
	case "PushParam":
		if len(args) != 1 {
			return nil, fieldCountErr("PushParam", 1, len(args))
		}
		arg, err := li.parseLoc(args[0])
		if err != nil {
			return nil, err
		}
		return &tac.PushParam{Arg: arg}, nil
	case "PopParams":
		if len(args) != 1 {
			return nil, fieldCountErr("PopParams", 1, len(args))
		}
		bytes, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad byte count %s: %w", args[0], ErrMalformedLine)
		}
		return &tac.PopParams{Bytes: bytes}, nil
	case "LCall":
		if len(args) != 2 {
			return nil, fieldCountErr("LCall", 2, len(args))
		}
		dst, err := li.parseLoc(args[0])
		if err != nil {
			return nil, err
		}
		if args[1] == "_" {
			return nil, ErrUnresolvedLabel
		}
		return &tac.LCall{Dst: dst, Label: args[1]}, nil
	case "ACall":
		if len(args) != 2 {
			return nil, fieldCountErr("ACall", 2, len(args))
		}
		dst, err := li.parseLoc(args[0])
		if err != nil {
			return nil, err
		}
		fn, err := li.parseLoc(args[1])
		if err != nil {
			return nil, err
		}
		return &tac.ACall{Dst: dst, Fn: fn}, nil
	case "Return":
		if len(args) != 1 {
			return nil, fieldCountErr("Return", 1, len(args))
		}
		val, err := li.parseLoc(args[0])
		if err != nil {
			return nil, err
		}
		return &tac.Return{Value: val}, nil
	case "VTable":
		if len(args) < 1 {
			return nil, fieldCountErr("VTable", 1, len(args))
		}
		return &tac.VTable{ClassName: args[0], MethodLabels: args[1:]}, nil
	case "DiscardValue":
		if len(args) != 1 {
			return nil, fieldCountErr("DiscardValue", 1, len(args))
		}
		l, err := li.parseLoc(args[0])
		if err != nil {
			return nil, err
		}
		return &tac.DiscardValue{Loc: l}, nil
	default:
		return nil, fmt.Errorf("unknown opcode %s: %w", f[0], ErrMalformedLine)
	}
}

func fieldCountErr(opcode string, want, got int) error {
	return fmt.Errorf("%s wants %d fields, got %d: %w", opcode, want, got, ErrMalformedLine)
}

// parseLoc parses a Location token of the form name@seg+offset, e.g.
// "_tmp0@fp-4" or "x@gp+0", interning it against every other mention
// of the same triple seen since the last reset. The token "_" means
// nil (an absent optional operand, e.g. a void call's result).
func (li *locInterner) parseLoc(tok string) (*tac.Location, error) {
	if tok == "_" {
		return nil, nil
	}
	at := strings.LastIndexByte(tok, '@')
	if at < 0 {
		return nil, fmt.Errorf("location %q missing @segment: %w", tok, ErrMalformedLine)
	}
	name, rest := tok[:at], tok[at+1:]
	signIdx := -1
	for i, r := range rest {
		if r == '+' || r == '-' {
			signIdx = i
			break
		}
	}
	if signIdx < 0 {
		return nil, fmt.Errorf("location %q missing offset: %w", tok, ErrMalformedLine)
	}
	segTok, offsetTok := rest[:signIdx], rest[signIdx:]
	offset, err := strconv.ParseInt(offsetTok, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("location %q has bad offset: %w", tok, ErrMalformedLine)
	}
	var seg tac.Segment
	switch segTok {
	case "fp":
		seg = tac.FPRelative
	case "gp":
		seg = tac.GPRelative
	case "ind":
		seg = tac.Indirect
	default:
		return nil, fmt.Errorf("location %q has unknown segment %q: %w", tok, segTok, ErrMalformedLine)
	}
	return li.intern(name, seg, offset), nil
}
