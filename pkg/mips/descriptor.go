package mips

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/zldunn/decafcc/pkg/tac"
)

// Emitter owns the register file and the register descriptor used to
// thread a single instruction's emission. One Emitter serves an entire
// compilation: the register file is reset at every branch boundary,
// not between Emitters.
type Emitter struct {
	w          io.Writer
	regs       [numRegisters]regContents
	descriptor map[Register]*tac.Location

	// rng drives the random spill-victim selection in selectRandomVictim.
	// Callers that need reproducible output (tests, golden fixtures)
	// must pass an explicitly seeded source.
	rng *rand.Rand

	stringCounter int
}

// New builds an Emitter that writes assembly text to w. rng seeds the
// random victim selection used when every $t register is occupied;
// pass a freshly-seeded *rand.Rand for deterministic output.
func New(w io.Writer, rng *rand.Rand) *Emitter {
	e := &Emitter{
		w:             w,
		descriptor:    make(map[Register]*tac.Location),
		rng:           rng,
		stringCounter: 1,
	}
	for i := T0; i <= T9; i++ {
		e.regs[i].isGeneralPurpose = true
	}
	for i := S0; i <= S7; i++ {
		e.regs[i].isGeneralPurpose = true
	}
	for i := F0; i <= F31; i++ {
		e.regs[i].isGeneralPurpose = true
	}
	return e
}

func (e *Emitter) emitf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if len(line) == 0 || line[len(line)-1] != ':' {
		fmt.Fprint(e.w, "\t")
	}
	if len(line) == 0 || line[0] != '#' {
		fmt.Fprint(e.w, "  ")
	}
	fmt.Fprint(e.w, line)
	if len(line) == 0 || line[len(line)-1] != '\n' {
		fmt.Fprint(e.w, "\n")
	}
}

func (e *Emitter) bug(format string, args ...any) {
	e.emitf("# BUG: "+format, args...)
}

// rdLookup returns the register currently bound to loc, or
// invalidRegister if none. A location bound to more than one register
// is a descriptor-invariant violation: diagnosed, not fatal.
func (e *Emitter) rdLookup(loc *tac.Location) Register {
	found := invalidRegister
	count := 0
	for reg, bound := range e.descriptor {
		if loc.Equal(bound) {
			found = reg
			count++
		}
	}
	if count > 1 {
		e.bug("location %s bound to %d registers simultaneously", loc, count)
	}
	return found
}

func (e *Emitter) rdGetContents(reg Register) *tac.Location {
	return e.descriptor[reg]
}

func (e *Emitter) rdInsert(loc *tac.Location, reg Register) {
	if prev := e.rdLookup(loc); prev != invalidRegister {
		e.descriptor[prev] = loc
		return
	}
	if e.rdGetContents(reg) != nil {
		e.bug("register %s already bound, not rebinding", reg)
		return
	}
	if e.regs[reg].isDirty {
		e.bug("register %s marked dirty with no binding", reg)
		return
	}
	e.descriptor[reg] = loc
	e.regs[reg].isDirty = true
}

func (e *Emitter) rdRemove(loc *tac.Location, reg Register) {
	if e.rdLookup(loc) == invalidRegister {
		return
	}
	if !e.regs[reg].isDirty {
		e.bug("register %s removed but was already clean", reg)
	}
	e.regs[reg].isDirty = false
	delete(e.descriptor, reg)
}

// fillRegister materialises src into reg, choosing among the lw /
// move / mfc1 / l.s / mtc1 / mov.s forms by where src currently lives
// and whether reg is an integer or FPU register.
func (e *Emitter) fillRegister(src *tac.Location, reg Register) {
	base := "$fp"
	if src.Segment == tac.GPRelative {
		base = "$gp"
	}
	prev := e.rdLookup(src)

	if reg.isFPU() {
		switch {
		case prev == invalidRegister:
			e.emitf("l.s %s, %d(%s)\t# fill %s to %s from %s%+d", reg, src.Offset, base, src.Name, reg, base, src.Offset)
		case !prev.isFPU():
			e.emitf("mtc1 %s, %s\t\t# move %s to %s", prev, reg, prev, reg)
		case prev != reg:
			e.emitf("mov.s %s, %s\t\t# move %s to %s", prev, reg, prev, reg)
		}
		return
	}

	switch {
	case prev == invalidRegister:
		e.emitf("lw %s, %d(%s)\t# fill %s to %s from %s%+d", reg, src.Offset, base, src.Name, reg, base, src.Offset)
	case prev == reg:
		// already resident in the requested register
	case prev.isFPU():
		e.emitf("mfc1 %s, %s\t\t# move %s to %s", reg, prev, prev, reg)
	default:
		e.emitf("move %s, %s\t\t# move (fill copy) %s from %s to %s in %s", reg, prev, src.Name, prev, src.Name, reg)
	}
}

func (e *Emitter) spillRegister(dst *tac.Location, reg Register) {
	base := "$fp"
	if dst.Segment == tac.GPRelative {
		base = "$gp"
	}
	e.emitf("sw %s, %d(%s)\t# spill %s from %s to %s%+d", reg, dst.Offset, base, dst.Name, reg, base, dst.Offset)
	e.rdRemove(dst, reg)
}

func (e *Emitter) discardValueInRegister(dst *tac.Location, reg Register) {
	if !e.regs[reg].canDiscard {
		return
	}
	e.rdRemove(dst, reg)
	e.regs[reg].canDiscard = false
}

// pickRegForVar returns the register holding varLoc if one exists and
// copyRequired is false (avoiding a needless move); otherwise it
// allocates a clean $t register, spilling a victim if none is clean.
func (e *Emitter) pickRegForVar(varLoc *tac.Location, copyRequired bool) Register {
	if !copyRequired {
		if reg := e.rdLookup(varLoc); reg != invalidRegister {
			return reg
		}
	}
	return e.indexOfNextClean()
}

func (e *Emitter) indexOfNextClean() Register {
	for i := T0; i <= T9; i++ {
		if !e.regs[i].isDirty {
			return i
		}
	}
	victim := e.selectRandomVictim()
	if victim == invalidRegister {
		e.bug("no unlocked $t register available for spill victim selection")
		return T0
	}
	e.cleanRegister(victim)
	return victim
}

// selectRandomVictim picks a dirty, unlocked $t register to spill. A
// safety counter bounds the search: every $t register locked at once
// would mean a single instruction is juggling more than ten live
// temporaries, which the calling convention never does.
func (e *Emitter) selectRandomVictim() Register {
	for attempt := 0; attempt < 100; attempt++ {
		candidate := T0 + Register(e.rng.Intn(10))
		if !e.regs[candidate].mutexLocked && e.regs[candidate].isDirty {
			return candidate
		}
	}
	return invalidRegister
}

func (e *Emitter) cleanRegister(reg Register) {
	loc := e.rdGetContents(reg)
	if loc == nil {
		return
	}
	e.spillRegister(loc, reg)
}

// cleanForBranch spills every dirty $t register and clears the
// descriptor entirely. Called before every Label, Goto, IfZ, call, and
// Return so that each basic block starts from a register-empty state
// with no inter-block register analysis required.
func (e *Emitter) cleanForBranch() {
	for i := T0; i <= T9; i++ {
		if e.regs[i].isDirty {
			e.cleanRegister(i)
		}
	}
	e.descriptor = make(map[Register]*tac.Location)
}
