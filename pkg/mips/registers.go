// Package mips translates TAC instructions into MIPS assembly text,
// suitable as input to the SPIM simulator. It owns the register file,
// the register descriptor (which Location currently resides in which
// register), and every per-opcode emission rule.
package mips

// Register names a single entry in the 64-slot register file: the 32
// general-purpose integer registers followed by the 32 single-precision
// floating-point coprocessor registers.
type Register int

const (
	Zero Register = iota
	At
	V0
	V1
	A0
	A1
	A2
	A3
	S0
	S1
	S2
	S3
	S4
	S5
	S6
	S7
	T0
	T1
	T2
	T3
	T4
	T5
	T6
	T7
	T8
	T9
	K0
	K1
	Gp
	Sp
	Fp
	Ra
	F0
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	F13
	F14
	F15
	F16
	F17
	F18
	F19
	F20
	F21
	F22
	F23
	F24
	F25
	F26
	F27
	F28
	F29
	F30
	F31

	numRegisters = 64
)

// invalidRegister marks "no register" in contexts that otherwise
// return a Register.
const invalidRegister Register = -1

var registerNames = [numRegisters]string{
	Zero: "$zero", At: "$at", V0: "$v0", V1: "$v1",
	A0: "$a0", A1: "$a1", A2: "$a2", A3: "$a3",
	S0: "$s0", S1: "$s1", S2: "$s2", S3: "$s3", S4: "$s4", S5: "$s5", S6: "$s6", S7: "$s7",
	T0: "$t0", T1: "$t1", T2: "$t2", T3: "$t3", T4: "$t4",
	T5: "$t5", T6: "$t6", T7: "$t7", T8: "$t8", T9: "$t9",
	K0: "$k0", K1: "$k1", Gp: "$gp", Sp: "$sp", Fp: "$fp", Ra: "$ra",
	F0: "$f0", F1: "$f1", F2: "$f2", F3: "$f3", F4: "$f4", F5: "$f5", F6: "$f6", F7: "$f7",
	F8: "$f8", F9: "$f9", F10: "$f10", F11: "$f11", F12: "$f12", F13: "$f13", F14: "$f14", F15: "$f15",
	F16: "$f16", F17: "$f17", F18: "$f18", F19: "$f19", F20: "$f20", F21: "$f21", F22: "$f22", F23: "$f23",
	F24: "$f24", F25: "$f25", F26: "$f26", F27: "$f27", F28: "$f28", F29: "$f29", F30: "$f30", F31: "$f31",
}

func (r Register) String() string {
	if r < 0 || int(r) >= numRegisters {
		return "?"
	}
	return registerNames[r]
}

func (r Register) isFPU() bool { return r >= F0 }

// regContents is the per-register bookkeeping slot.
type regContents struct {
	isDirty          bool
	isGeneralPurpose bool
	mutexLocked      bool
	canDiscard       bool
}
