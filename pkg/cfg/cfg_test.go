package cfg

import (
	"testing"

	"github.com/zldunn/decafcc/pkg/tac"
)

// ifzGotoLoop builds a minimal function body shaped like a while loop:
//   L1: ... IfZ t,L2 ... Goto L1 ... L2:
func ifzGotoLoop(t0 *tac.Location) []tac.Instr {
	begin := &tac.BeginFunc{Name: "main"}
	l1 := &tac.Label{Name: "L1"}
	ifz := &tac.IfZ{Test: t0, Target: "L2"}
	goTo := &tac.Goto{Target: "L1"}
	l2 := &tac.Label{Name: "L2"}
	ret := &tac.Return{}
	end := &tac.EndFunc{}
	return []tac.Instr{begin, l1, ifz, goTo, l2, ret, end}
}

func TestBuildRejectsNonBeginFunc(t *testing.T) {
	instrs := []tac.Instr{&tac.Label{Name: "oops"}, &tac.EndFunc{}}
	if _, err := Build(instrs, 0, 1); err == nil {
		t.Fatal("expected error when first instruction is not BeginFunc")
	}
}

func TestBuildRejectsNonEndFunc(t *testing.T) {
	instrs := []tac.Instr{&tac.BeginFunc{}, &tac.Return{}}
	if _, err := Build(instrs, 0, 1); err == nil {
		t.Fatal("expected error when last instruction is not EndFunc")
	}
}

func TestBuildEdgesIfZGotoLabel(t *testing.T) {
	t0 := tac.NewLocation("_tmp0", tac.FPRelative, -4)
	instrs := ifzGotoLoop(t0)
	c, err := Build(instrs, 0, len(instrs)-1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	l1, ifz, goTo, l2 := instrs[1], instrs[2], instrs[3], instrs[4]

	if got := c.OutEdges[ifz]; len(got) != 1 || got[0] != l2 {
		t.Errorf("IfZ out-edges = %v, want [%v] (L2)", got, l2)
	}
	if got := c.OutEdges[goTo]; len(got) != 1 || got[0] != l1 {
		t.Errorf("Goto out-edges = %v, want [%v] (L1)", got, l1)
	}
	// No fall-through edges: Label L1 and L2 themselves have no
	// outgoing control edge recorded (only control-transfer
	// instructions add edges).
	if got := c.OutEdges[l1]; got != nil {
		t.Errorf("Label L1 should have no out-edges, got %v", got)
	}
}

func TestBuildReturnEdgeToFirst(t *testing.T) {
	t0 := tac.NewLocation("_tmp0", tac.FPRelative, -4)
	instrs := ifzGotoLoop(t0)
	c, err := Build(instrs, 0, len(instrs)-1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ret := instrs[5]
	if got := c.OutEdges[ret]; len(got) != 1 || got[0] != c.First {
		t.Errorf("Return out-edges = %v, want [%v] (function entry)", got, c.First)
	}
}

func TestBuildRuntimeLabelSuppressesEdge(t *testing.T) {
	begin := &tac.BeginFunc{}
	result := tac.NewLocation("_tmp0", tac.FPRelative, -4)
	call := &tac.LCall{Label: "_PrintString", Dst: nil}
	_ = result
	end := &tac.EndFunc{}
	instrs := []tac.Instr{begin, call, end}

	c, err := Build(instrs, 0, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := c.OutEdges[call]; got != nil {
		t.Errorf("call to runtime label should have no edge, got %v", got)
	}
}

func TestBuildUnresolvedLabelSelfEdge(t *testing.T) {
	begin := &tac.BeginFunc{}
	call := &tac.LCall{Label: "_SomeOtherFunction"}
	end := &tac.EndFunc{}
	instrs := []tac.Instr{begin, call, end}

	c, err := Build(instrs, 0, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := c.OutEdges[call]; len(got) != 1 || got[0] != call {
		t.Errorf("unresolved non-runtime label should self-edge, got %v", got)
	}
}

func TestBuildACallAlwaysSelfEdges(t *testing.T) {
	begin := &tac.BeginFunc{}
	fn := tac.NewLocation("_tmp0", tac.FPRelative, -4)
	call := &tac.ACall{Fn: fn}
	end := &tac.EndFunc{}
	instrs := []tac.Instr{begin, call, end}

	c, err := Build(instrs, 0, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := c.OutEdges[call]; len(got) != 1 || got[0] != call {
		t.Errorf("ACall should always self-edge (dynamic target), got %v", got)
	}
}

func TestBuildDuplicateLabelsLastWins(t *testing.T) {
	begin := &tac.BeginFunc{}
	l1a := &tac.Label{Name: "L"}
	l1b := &tac.Label{Name: "L"}
	goTo := &tac.Goto{Target: "L"}
	end := &tac.EndFunc{}
	instrs := []tac.Instr{begin, l1a, l1b, goTo, end}

	c, err := Build(instrs, 0, 4)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := c.OutEdges[goTo]; len(got) != 1 || got[0] != l1b {
		t.Errorf("duplicate label resolution = %v, want last label instance %v", got, l1b)
	}
}

func TestBodyExcludesEndFunc(t *testing.T) {
	t0 := tac.NewLocation("_tmp0", tac.FPRelative, -4)
	instrs := ifzGotoLoop(t0)
	c, err := Build(instrs, 0, len(instrs)-1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	body := c.Body()
	if len(body) != len(instrs)-1 {
		t.Fatalf("Body() has %d instructions, want %d (all but EndFunc)", len(body), len(instrs)-1)
	}
	for _, instr := range body {
		if _, ok := instr.(*tac.EndFunc); ok {
			t.Error("Body() must not include EndFunc")
		}
	}
}
