package mips

import (
	"strconv"

	"github.com/zldunn/decafcc/pkg/tac"
)

var mipsName = map[tac.Opcode]string{
	tac.Add:  "add",
	tac.Sub:  "sub",
	tac.Mul:  "mul",
	tac.Div:  "div",
	tac.Mod:  "rem",
	tac.Eq:   "seq",
	tac.Less: "slt",
	tac.And:  "and",
	tac.Or:   "or",
}

// EmitPreamble writes the program-opening sequence: text segment,
// word alignment, and the single global symbol `main`.
func (e *Emitter) EmitPreamble() {
	e.emitf("# standard preamble")
	e.emitf(".text")
	e.emitf(".align 2")
	e.emitf(".globl main")
}

// EmitLoadConstant assigns dst an integer literal.
func (e *Emitter) EmitLoadConstant(dst *tac.Location, val int32) {
	reg := e.pickRegForVar(dst, false)
	e.regs[reg].mutexLocked = true
	e.emitf("li %s, %d\t\t# load constant value %d into %s", reg, val, val, reg)
	e.rdInsert(dst, reg)
	e.regs[reg].mutexLocked = false
}

// EmitLoadStringConstant interns literal (raw, unquoted text) under a
// fresh _stringN label in the data segment, then delegates to
// EmitLoadLabel.
func (e *Emitter) EmitLoadStringConstant(dst *tac.Location, literal string) string {
	label := e.nextStringLabel()
	e.emitf(".data\t\t\t# create string constant marked with label")
	e.emitf("%s: .asciiz %s", label, strconv.Quote(literal))
	e.emitf(".text")
	e.EmitLoadLabel(dst, label)
	return label
}

func (e *Emitter) nextStringLabel() string {
	label := "_string" + strconv.Itoa(e.stringCounter)
	e.stringCounter++
	return label
}

// EmitLoadLabel assigns dst the address of label (code or data).
func (e *Emitter) EmitLoadLabel(dst *tac.Location, label string) {
	reg := e.pickRegForVar(dst, false)
	e.regs[reg].mutexLocked = true
	e.emitf("la %s, %s\t# load label", reg, label)
	e.rdInsert(dst, reg)
	e.regs[reg].mutexLocked = false
}

// EmitCopy assigns dst the value currently held by src.
func (e *Emitter) EmitCopy(dst, src *tac.Location) {
	rs := e.pickRegForVar(src, false)
	e.regs[rs].mutexLocked = true
	e.fillRegister(src, rs)
	e.rdInsert(src, rs)

	if e.regs[rs].canDiscard {
		e.discardValueInRegister(src, rs)
	}

	rd := e.pickRegForVar(dst, false)
	e.regs[rd].mutexLocked = true
	e.emitf("move %s, %s\t\t# move (copy) %s from %s to %s in %s", rd, rs, src.Name, rs, dst.Name, rd)
	e.rdInsert(dst, rd)

	e.regs[rs].mutexLocked = false
	e.regs[rd].mutexLocked = false
}

// EmitLoad assigns dst the word at ref+offset.
func (e *Emitter) EmitLoad(dst, ref *tac.Location, offset int64) {
	rs := e.pickRegForVar(ref, false)
	e.regs[rs].mutexLocked = true
	e.fillRegister(ref, rs)
	e.rdInsert(ref, rs)

	rd := e.pickRegForVar(dst, false)
	e.regs[rd].mutexLocked = true
	e.emitf("lw %s, %d(%s) \t# load with offset", rd, offset, rs)
	e.rdInsert(dst, rd)

	e.cleanRegister(rs)
	e.regs[rs].mutexLocked = false
	e.regs[rd].mutexLocked = false
}

// EmitStore writes value to the word at ref+offset.
func (e *Emitter) EmitStore(ref, value *tac.Location, offset int64) {
	rs := e.pickRegForVar(value, false)
	e.regs[rs].mutexLocked = true
	e.fillRegister(value, rs)
	e.rdInsert(value, rs)

	rd := e.pickRegForVar(ref, false)
	e.regs[rd].mutexLocked = true
	e.fillRegister(ref, rd)
	e.rdInsert(ref, rd)

	e.emitf("sw %s, %d(%s) \t# store with offset", rs, offset, rd)

	e.regs[rd].mutexLocked = false
	e.regs[rs].mutexLocked = false
}

// EmitBinaryOp computes dst = op1 <code> op2 using the integer
// instruction named by mipsName.
func (e *Emitter) EmitBinaryOp(code tac.Opcode, dst, op1, op2 *tac.Location) {
	name, ok := mipsName[code]
	if !ok {
		e.bug("unrecognized binary opcode %s", code)
		return
	}

	rs := e.pickRegForVar(op1, false)
	e.regs[rs].mutexLocked = true
	e.fillRegister(op1, rs)
	e.rdInsert(op1, rs)

	rt := e.pickRegForVar(op2, false)
	e.regs[rt].mutexLocked = true
	e.fillRegister(op2, rt)
	e.rdInsert(op2, rt)

	rd := e.pickRegForVar(dst, false)
	e.regs[rd].mutexLocked = true

	e.emitf("%s %s, %s, %s\t", name, rd, rs, rt)
	e.rdInsert(dst, rd)
	e.regs[rd].canDiscard = true

	e.regs[rs].mutexLocked = false
	e.regs[rt].mutexLocked = false
	e.regs[rd].mutexLocked = false
}

// EmitLabel marks a branch target. Registers are spilled first: a
// label starts a new basic block and the emitter never tracks what
// register state held on every incoming edge.
func (e *Emitter) EmitLabel(label string) {
	e.cleanForBranch()
	e.emitf("%s:", label)
}

// EmitGoto transfers control unconditionally to label.
func (e *Emitter) EmitGoto(label string) {
	e.cleanForBranch()
	e.emitf("b %s\t\t# unconditional branch", label)
}

// EmitIfZ transfers control to label when test is zero.
func (e *Emitter) EmitIfZ(test *tac.Location, label string) {
	e.fillRegister(test, V0)
	e.cleanForBranch()
	e.emitf("beqz %s, %s\t# branch if %s is zero", V0, label, test.Name)
}

// EmitParam pushes arg as the next call argument.
func (e *Emitter) EmitParam(arg *tac.Location) {
	rs := e.pickRegForVar(arg, false)
	e.regs[rs].mutexLocked = true
	e.fillRegister(arg, rs)
	e.emitf("subu $sp, $sp, 4\t# decrement sp to make space for param")
	e.emitf("sw %s, 4($sp)\t# copy param value to stack", rs)
	e.regs[rs].mutexLocked = false
}

// EmitPopParams removes bytes of previously-pushed arguments after a call.
func (e *Emitter) EmitPopParams(bytes int64) {
	if bytes != 0 {
		e.emitf("add $sp, $sp, %d\t# pop params off stack", bytes)
	}
}

func (e *Emitter) emitCallInstr(result *tac.Location, target string, isLabel bool) {
	e.cleanForBranch()
	op := "jalr"
	if isLabel {
		op = "jal"
	}
	if result != nil {
		rd := e.pickRegForVar(result, false)
		e.regs[rd].mutexLocked = true
		e.emitf("%s %-15s\t# jump to function", op, target)
		e.emitf("move %s, %s\t\t# copy function return value from $v0", rd, V0)
		e.rdInsert(result, rd)
		e.regs[rd].mutexLocked = false
		return
	}
	e.emitf("%s %-15s\t# jump to function", op, target)
}

// EmitLCall calls label directly.
func (e *Emitter) EmitLCall(result *tac.Location, label string) {
	e.emitCallInstr(result, label, true)
}

// EmitACall calls through the function pointer held in fn.
func (e *Emitter) EmitACall(result *tac.Location, fn *tac.Location) {
	e.fillRegister(fn, V0)
	e.emitCallInstr(result, V0.String(), false)
}

// EmitReturn exits the current function, optionally with a value.
func (e *Emitter) EmitReturn(value *tac.Location) {
	if value != nil {
		e.fillRegister(value, V0)
	}
	e.cleanForBranch()
	e.emitf("move $sp, $fp\t\t# pop callee frame off stack")
	e.emitf("lw $ra, -4($fp)\t# restore saved ra")
	e.emitf("lw $fp, 0($fp)\t# restore saved fp")
	e.emitf("jr $ra\t\t# return from function")
}

// EmitBeginFunction writes the function's own label followed by its
// entry prologue, reserving stackFrameSize bytes for locals and
// temporaries. name is the label every call site (and, for main, the
// .globl directive from EmitPreamble) resolves against at assembly
// time.
func (e *Emitter) EmitBeginFunction(name string, stackFrameSize int64) {
	e.emitf("%s:", name)
	e.emitf("subu $sp, $sp, 8\t# decrement sp to make space to save ra, fp")
	e.emitf("sw $fp, 8($sp)\t# save fp")
	e.emitf("sw $ra, 4($sp)\t# save ra")
	e.emitf("addiu $fp, $sp, 8\t# set up new fp")
	if stackFrameSize != 0 {
		e.emitf("subu $sp, $sp, %d\t# decrement sp to make space for locals/temps", stackFrameSize)
	}
}

// EmitEndFunction emits the implicit return taken when control falls
// off the end of a function body.
func (e *Emitter) EmitEndFunction() {
	e.emitf("# (below handles reaching end of fn body with no explicit return)")
	e.EmitReturn(nil)
}

// EmitVTable lays out a class's method table, one label per virtual slot.
func (e *Emitter) EmitVTable(label string, methodLabels []string) {
	e.emitf(".data")
	e.emitf(".align 2")
	e.emitf("%s:\t\t# vtable", label)
	for _, m := range methodLabels {
		e.emitf(".word %s", m)
	}
	e.emitf(".text")
}

// EmitDiscardValue marks dst's register clean without spilling: dst
// will never be referenced again in this function.
func (e *Emitter) EmitDiscardValue(dst *tac.Location) {
	reg := e.pickRegForVar(dst, false)
	e.regs[reg].canDiscard = true
	e.emitf("\t\t#Last use of %s. Discarding register_descriptor data for %s", dst.Name, reg)
	e.discardValueInRegister(dst, reg)
}
