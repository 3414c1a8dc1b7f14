package tacfmt

import (
	"errors"
	"strings"
	"testing"

	"github.com/zldunn/decafcc/pkg/tac"
)

func TestReadProgramSkipsBlankLinesAndComments(t *testing.T) {
	src := "# a comment\n\nBeginFunc _Test.main 0\n\nReturn _\nEndFunc\n"
	prog, err := ReadProgram(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadProgram: %v", err)
	}
	if len(prog.Instrs) != 3 {
		t.Fatalf("expected 3 instructions, got %d", len(prog.Instrs))
	}
}

func TestReadProgramRejectsUnknownOpcode(t *testing.T) {
	_, err := ReadProgram(strings.NewReader("Frobnicate x\n"))
	if !errors.Is(err, ErrMalformedLine) {
		t.Errorf("expected ErrMalformedLine, got %v", err)
	}
}

func TestReadProgramRejectsWrongFieldCount(t *testing.T) {
	_, err := ReadProgram(strings.NewReader("LoadConstant _tmp0@fp-4\n"))
	if !errors.Is(err, ErrMalformedLine) {
		t.Errorf("expected ErrMalformedLine, got %v", err)
	}
}

func TestReadProgramRejectsUnresolvedGotoTarget(t *testing.T) {
	_, err := ReadProgram(strings.NewReader("Goto _\n"))
	if !errors.Is(err, ErrUnresolvedLabel) {
		t.Errorf("expected ErrUnresolvedLabel, got %v", err)
	}
}

func TestReadProgramRejectsUnresolvedLCallTarget(t *testing.T) {
	_, err := ReadProgram(strings.NewReader("LCall _ _\n"))
	if !errors.Is(err, ErrUnresolvedLabel) {
		t.Errorf("expected ErrUnresolvedLabel, got %v", err)
	}
}

func TestReadProgramParsesGlobalString(t *testing.T) {
	prog, err := ReadProgram(strings.NewReader(`GlobalString _str0 "hi there"` + "\n"))
	if err != nil {
		t.Fatalf("ReadProgram: %v", err)
	}
	if len(prog.Globals) != 1 || prog.Globals[0].Label != "_str0" || prog.Globals[0].Literal != "hi there" {
		t.Errorf("unexpected globals: %+v", prog.Globals)
	}
}

func TestParseLocRejectsMissingSegment(t *testing.T) {
	_, err := newLocInterner().parseLoc("x")
	if !errors.Is(err, ErrMalformedLine) {
		t.Errorf("expected ErrMalformedLine, got %v", err)
	}
}

func TestParseLocRejectsUnknownSegment(t *testing.T) {
	_, err := newLocInterner().parseLoc("x@reg+0")
	if !errors.Is(err, ErrMalformedLine) {
		t.Errorf("expected ErrMalformedLine, got %v", err)
	}
}

func TestParseLocNilToken(t *testing.T) {
	loc, err := newLocInterner().parseLoc("_")
	if err != nil || loc != nil {
		t.Errorf("expected nil, nil, got %v, %v", loc, err)
	}
}

func TestReadProgramInternsRepeatedLocationMentions(t *testing.T) {
	src := "BeginFunc _Test.main 8\n" +
		"LoadConstant _tmp0@fp-4 42\n" +
		"Return _tmp0@fp-4\n" +
		"EndFunc\n"
	prog, err := ReadProgram(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadProgram: %v", err)
	}
	loadDst := prog.Instrs[1].(*tac.LoadConstant).Dst
	retVal := prog.Instrs[2].(*tac.Return).Value
	if loadDst != retVal {
		t.Errorf("expected LoadConstant's Dst and Return's Value to share a pointer, got %p and %p", loadDst, retVal)
	}
}

func TestReadProgramDoesNotInternAcrossFunctions(t *testing.T) {
	src := "BeginFunc _A 4\n" +
		"LoadConstant _tmp0@fp-4 1\n" +
		"Return _tmp0@fp-4\n" +
		"EndFunc\n" +
		"BeginFunc _B 4\n" +
		"LoadConstant _tmp0@fp-4 2\n" +
		"Return _tmp0@fp-4\n" +
		"EndFunc\n"
	prog, err := ReadProgram(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadProgram: %v", err)
	}
	aDst := prog.Instrs[1].(*tac.LoadConstant).Dst
	bDst := prog.Instrs[5].(*tac.LoadConstant).Dst
	if aDst == bDst {
		t.Error("expected _A and _B's same-named temporaries to be distinct pointers")
	}
}

func TestParseLocGlobalPointer(t *testing.T) {
	loc, err := newLocInterner().parseLoc("count@gp+8")
	if err != nil {
		t.Fatalf("parseLoc: %v", err)
	}
	want := tac.NewLocation("count", tac.GPRelative, 8)
	if !loc.Equal(want) {
		t.Errorf("got %v, want %v", loc, want)
	}
}
