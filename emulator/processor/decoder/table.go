/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package decoder

import (
	"github.com/andreas-jonsson/realxt/emulator/processor"
)

type Op byte

const (
	OpInvalid Op = iota
	OpPrefix

	// Group 1 order, selected by the ModRM reg field.
	OpAdd
	OpOr
	OpAdc
	OpSbb
	OpAnd
	OpSub
	OpXor
	OpCmp

	// Group 2 order.
	OpRol
	OpRor
	OpRcl
	OpRcr
	OpShl
	OpShr
	OpSar

	OpTest
	OpNot
	OpNeg
	OpMul
	OpImul
	OpDiv
	OpIdiv
	OpInc
	OpDec

	OpPush
	OpPop
	OpPushf
	OpPopf
	OpMov
	OpXchg
	OpLea
	OpLes
	OpLds
	OpXlat
	OpLahf
	OpSahf
	OpCbw
	OpCwd

	OpDaa
	OpDas
	OpAaa
	OpAas
	OpAam
	OpAad

	OpMovs
	OpCmps
	OpStos
	OpLods
	OpScas

	// Conditional jumps in condition code order.
	OpJo
	OpJno
	OpJb
	OpJnb
	OpJz
	OpJnz
	OpJbe
	OpJa
	OpJs
	OpJns
	OpJp
	OpJnp
	OpJl
	OpJnl
	OpJle
	OpJg

	OpJmp
	OpJmpFar
	OpCall
	OpCallFar
	OpRet
	OpRetf
	OpLoopnz
	OpLoopz
	OpLoop
	OpJcxz

	OpInt
	OpInt3
	OpInto
	OpIret

	OpIn
	OpOut

	OpClc
	OpStc
	OpCmc
	OpCli
	OpSti
	OpCld
	OpStd

	OpHlt
	OpWait
	OpNop
	OpSalc
	OpEsc

	numOps
)

var mnemonics = [numOps]string{
	"(bad)", "(prefix)",
	"ADD", "OR", "ADC", "SBB", "AND", "SUB", "XOR", "CMP",
	"ROL", "ROR", "RCL", "RCR", "SHL", "SHR", "SAR",
	"TEST", "NOT", "NEG", "MUL", "IMUL", "DIV", "IDIV", "INC", "DEC",
	"PUSH", "POP", "PUSHF", "POPF", "MOV", "XCHG", "LEA", "LES", "LDS", "XLAT", "LAHF", "SAHF", "CBW", "CWD",
	"DAA", "DAS", "AAA", "AAS", "AAM", "AAD",
	"MOVS", "CMPS", "STOS", "LODS", "SCAS",
	"JO", "JNO", "JB", "JNB", "JZ", "JNZ", "JBE", "JA", "JS", "JNS", "JP", "JNP", "JL", "JNL", "JLE", "JG",
	"JMP", "JMP FAR", "CALL", "CALL FAR", "RET", "RETF", "LOOPNZ", "LOOPZ", "LOOP", "JCXZ",
	"INT", "INT3", "INTO", "IRET",
	"IN", "OUT",
	"CLC", "STC", "CMC", "CLI", "STI", "CLD", "STD",
	"HLT", "WAIT", "NOP", "SALC", "ESC",
}

func (o Op) String() string {
	if o < numOps {
		return mnemonics[o]
	}
	return "(bad)"
}

// Cond returns the condition code of a conditional jump.
func (o Op) Cond() (int, bool) {
	if o >= OpJo && o <= OpJg {
		return int(o - OpJo), true
	}
	return 0, false
}

// Form is the operand layout that follows an opcode.
type Form byte

const (
	FormNone     Form = iota
	FormRMReg         // r/m, reg
	FormRegRM         // reg, r/m
	FormAccImm        // AL/AX, imm
	FormSegOp         // segment register in opcode bits 3-4
	FormRegOp         // 16-bit register in opcode bits 0-2
	FormAccRegOp      // AX, 16-bit register in opcode bits 0-2
	FormRegImm        // register in opcode bits 0-2, imm
	FormRel8
	FormRel16
	FormFar
	FormRM      // r/m
	FormRMImm   // r/m, imm
	FormRMImm8S // r/m16, sign extended imm8
	FormRMOne   // r/m, 1
	FormRMCL    // r/m, CL
	FormRMSeg   // r/m16, sreg
	FormSegRM   // sreg, r/m16
	FormAccMem  // AL/AX, [disp16]
	FormMemAcc  // [disp16], AL/AX
	FormImm8    // imm8
	FormImm16   // imm16
	FormAccPort // AL/AX, imm8 port
	FormPortAcc // imm8 port, AL/AX
	FormAccDX   // AL/AX, DX
	FormDXAcc   // DX, AL/AX
	FormEsc     // coprocessor escape, r/m
)

// HasModRM reports if the form is followed by a ModRM byte.
func (f Form) HasModRM() bool {
	switch f {
	case FormRMReg, FormRegRM, FormRM, FormRMImm, FormRMImm8S, FormRMOne, FormRMCL, FormRMSeg, FormSegRM, FormEsc:
		return true
	}
	return false
}

// Entry describes one opcode. Opcodes whose operation is selected by the ModRM
// reg field carry a Group. Group entries with FormNone inherit the form of the
// opcode.
type Entry struct {
	Op      Op
	Form    Form
	Width   processor.Width
	MemOnly bool
	Group   *[8]Entry
}

func (e Entry) Valid() bool {
	return e.Op != OpInvalid || e.Group != nil
}

var (
	group1 = [8]Entry{{Op: OpAdd}, {Op: OpOr}, {Op: OpAdc}, {Op: OpSbb}, {Op: OpAnd}, {Op: OpSub}, {Op: OpXor}, {Op: OpCmp}}
	// /6 is the undocumented SETMO on the 8086 and is not decoded.
	group2 = [8]Entry{{Op: OpRol}, {Op: OpRor}, {Op: OpRcl}, {Op: OpRcr}, {Op: OpShl}, {Op: OpShr}, {}, {Op: OpSar}}
	group3 = [8]Entry{
		{Op: OpTest, Form: FormRMImm}, {Op: OpTest, Form: FormRMImm},
		{Op: OpNot}, {Op: OpNeg}, {Op: OpMul}, {Op: OpImul}, {Op: OpDiv}, {Op: OpIdiv},
	}
	group4 = [8]Entry{{Op: OpInc}, {Op: OpDec}}
	group5 = [8]Entry{
		{Op: OpInc}, {Op: OpDec}, {Op: OpCall}, {Op: OpCallFar, MemOnly: true},
		{Op: OpJmp}, {Op: OpJmpFar, MemOnly: true}, {Op: OpPush}, {},
	}
	groupPop = [8]Entry{{Op: OpPop}}
)

// Table maps every opcode byte to its entry. Invalid opcodes have the zero entry.
var Table [256]Entry

// Lookup resolves the entry for opcode, applying the ModRM reg field for group
// opcodes. The result has no Group.
func Lookup(opcode, modrm byte) Entry {
	e := Table[opcode]
	if e.Group == nil {
		return e
	}
	g := e.Group[(modrm>>3)&7]
	if g.Op == OpInvalid {
		return Entry{}
	}
	if g.Form == FormNone {
		g.Form = e.Form
	}
	g.Width = e.Width
	return g
}

func init() {
	b, w := processor.Byte, processor.Word
	set := func(op byte, e Entry) {
		Table[op] = e
	}

	for i, op := range [8]Op{OpAdd, OpOr, OpAdc, OpSbb, OpAnd, OpSub, OpXor, OpCmp} {
		base := byte(i * 8)
		set(base, Entry{Op: op, Form: FormRMReg, Width: b})
		set(base+1, Entry{Op: op, Form: FormRMReg, Width: w})
		set(base+2, Entry{Op: op, Form: FormRegRM, Width: b})
		set(base+3, Entry{Op: op, Form: FormRegRM, Width: w})
		set(base+4, Entry{Op: op, Form: FormAccImm, Width: b})
		set(base+5, Entry{Op: op, Form: FormAccImm, Width: w})
	}
	for _, op := range []byte{0x06, 0x0E, 0x16, 0x1E} {
		set(op, Entry{Op: OpPush, Form: FormSegOp, Width: w})
		// 0x0F is POP CS on the 8086.
		set(op+1, Entry{Op: OpPop, Form: FormSegOp, Width: w})
	}
	for _, op := range []byte{0x26, 0x2E, 0x36, 0x3E, 0xF0, 0xF2, 0xF3} {
		set(op, Entry{Op: OpPrefix})
	}
	set(0x27, Entry{Op: OpDaa})
	set(0x2F, Entry{Op: OpDas})
	set(0x37, Entry{Op: OpAaa})
	set(0x3F, Entry{Op: OpAas})

	for i := byte(0); i < 8; i++ {
		set(0x40+i, Entry{Op: OpInc, Form: FormRegOp, Width: w})
		set(0x48+i, Entry{Op: OpDec, Form: FormRegOp, Width: w})
		set(0x50+i, Entry{Op: OpPush, Form: FormRegOp, Width: w})
		set(0x58+i, Entry{Op: OpPop, Form: FormRegOp, Width: w})
		set(0xB0+i, Entry{Op: OpMov, Form: FormRegImm, Width: b})
		set(0xB8+i, Entry{Op: OpMov, Form: FormRegImm, Width: w})
		set(0xD8+i, Entry{Op: OpEsc, Form: FormEsc, Width: w})
	}
	for i := byte(0); i < 16; i++ {
		set(0x70+i, Entry{Op: OpJo + Op(i), Form: FormRel8, Width: b})
	}

	set(0x80, Entry{Form: FormRMImm, Width: b, Group: &group1})
	set(0x81, Entry{Form: FormRMImm, Width: w, Group: &group1})
	set(0x82, Entry{Form: FormRMImm, Width: b, Group: &group1})
	set(0x83, Entry{Form: FormRMImm8S, Width: w, Group: &group1})
	set(0x84, Entry{Op: OpTest, Form: FormRMReg, Width: b})
	set(0x85, Entry{Op: OpTest, Form: FormRMReg, Width: w})
	set(0x86, Entry{Op: OpXchg, Form: FormRMReg, Width: b})
	set(0x87, Entry{Op: OpXchg, Form: FormRMReg, Width: w})
	set(0x88, Entry{Op: OpMov, Form: FormRMReg, Width: b})
	set(0x89, Entry{Op: OpMov, Form: FormRMReg, Width: w})
	set(0x8A, Entry{Op: OpMov, Form: FormRegRM, Width: b})
	set(0x8B, Entry{Op: OpMov, Form: FormRegRM, Width: w})
	set(0x8C, Entry{Op: OpMov, Form: FormRMSeg, Width: w})
	set(0x8D, Entry{Op: OpLea, Form: FormRegRM, Width: w, MemOnly: true})
	set(0x8E, Entry{Op: OpMov, Form: FormSegRM, Width: w})
	set(0x8F, Entry{Form: FormRM, Width: w, Group: &groupPop})

	set(0x90, Entry{Op: OpNop})
	for i := byte(1); i < 8; i++ {
		set(0x90+i, Entry{Op: OpXchg, Form: FormAccRegOp, Width: w})
	}
	set(0x98, Entry{Op: OpCbw})
	set(0x99, Entry{Op: OpCwd})
	set(0x9A, Entry{Op: OpCallFar, Form: FormFar, Width: w})
	set(0x9B, Entry{Op: OpWait})
	set(0x9C, Entry{Op: OpPushf, Width: w})
	set(0x9D, Entry{Op: OpPopf, Width: w})
	set(0x9E, Entry{Op: OpSahf})
	set(0x9F, Entry{Op: OpLahf})

	set(0xA0, Entry{Op: OpMov, Form: FormAccMem, Width: b})
	set(0xA1, Entry{Op: OpMov, Form: FormAccMem, Width: w})
	set(0xA2, Entry{Op: OpMov, Form: FormMemAcc, Width: b})
	set(0xA3, Entry{Op: OpMov, Form: FormMemAcc, Width: w})
	set(0xA4, Entry{Op: OpMovs, Width: b})
	set(0xA5, Entry{Op: OpMovs, Width: w})
	set(0xA6, Entry{Op: OpCmps, Width: b})
	set(0xA7, Entry{Op: OpCmps, Width: w})
	set(0xA8, Entry{Op: OpTest, Form: FormAccImm, Width: b})
	set(0xA9, Entry{Op: OpTest, Form: FormAccImm, Width: w})
	set(0xAA, Entry{Op: OpStos, Width: b})
	set(0xAB, Entry{Op: OpStos, Width: w})
	set(0xAC, Entry{Op: OpLods, Width: b})
	set(0xAD, Entry{Op: OpLods, Width: w})
	set(0xAE, Entry{Op: OpScas, Width: b})
	set(0xAF, Entry{Op: OpScas, Width: w})

	set(0xC2, Entry{Op: OpRet, Form: FormImm16, Width: w})
	set(0xC3, Entry{Op: OpRet, Width: w})
	set(0xC4, Entry{Op: OpLes, Form: FormRegRM, Width: w, MemOnly: true})
	set(0xC5, Entry{Op: OpLds, Form: FormRegRM, Width: w, MemOnly: true})
	set(0xC6, Entry{Op: OpMov, Form: FormRMImm, Width: b})
	set(0xC7, Entry{Op: OpMov, Form: FormRMImm, Width: w})
	set(0xCA, Entry{Op: OpRetf, Form: FormImm16, Width: w})
	set(0xCB, Entry{Op: OpRetf, Width: w})
	set(0xCC, Entry{Op: OpInt3})
	set(0xCD, Entry{Op: OpInt, Form: FormImm8, Width: b})
	set(0xCE, Entry{Op: OpInto})
	set(0xCF, Entry{Op: OpIret, Width: w})

	set(0xD0, Entry{Form: FormRMOne, Width: b, Group: &group2})
	set(0xD1, Entry{Form: FormRMOne, Width: w, Group: &group2})
	set(0xD2, Entry{Form: FormRMCL, Width: b, Group: &group2})
	set(0xD3, Entry{Form: FormRMCL, Width: w, Group: &group2})
	set(0xD4, Entry{Op: OpAam, Form: FormImm8, Width: b})
	set(0xD5, Entry{Op: OpAad, Form: FormImm8, Width: b})
	set(0xD6, Entry{Op: OpSalc})
	set(0xD7, Entry{Op: OpXlat, Width: b})

	set(0xE0, Entry{Op: OpLoopnz, Form: FormRel8, Width: b})
	set(0xE1, Entry{Op: OpLoopz, Form: FormRel8, Width: b})
	set(0xE2, Entry{Op: OpLoop, Form: FormRel8, Width: b})
	set(0xE3, Entry{Op: OpJcxz, Form: FormRel8, Width: b})
	set(0xE4, Entry{Op: OpIn, Form: FormAccPort, Width: b})
	set(0xE5, Entry{Op: OpIn, Form: FormAccPort, Width: w})
	set(0xE6, Entry{Op: OpOut, Form: FormPortAcc, Width: b})
	set(0xE7, Entry{Op: OpOut, Form: FormPortAcc, Width: w})
	set(0xE8, Entry{Op: OpCall, Form: FormRel16, Width: w})
	set(0xE9, Entry{Op: OpJmp, Form: FormRel16, Width: w})
	set(0xEA, Entry{Op: OpJmpFar, Form: FormFar, Width: w})
	set(0xEB, Entry{Op: OpJmp, Form: FormRel8, Width: b})
	set(0xEC, Entry{Op: OpIn, Form: FormAccDX, Width: b})
	set(0xED, Entry{Op: OpIn, Form: FormAccDX, Width: w})
	set(0xEE, Entry{Op: OpOut, Form: FormDXAcc, Width: b})
	set(0xEF, Entry{Op: OpOut, Form: FormDXAcc, Width: w})

	set(0xF4, Entry{Op: OpHlt})
	set(0xF5, Entry{Op: OpCmc})
	set(0xF6, Entry{Form: FormRM, Width: b, Group: &group3})
	set(0xF7, Entry{Form: FormRM, Width: w, Group: &group3})
	set(0xF8, Entry{Op: OpClc})
	set(0xF9, Entry{Op: OpStc})
	set(0xFA, Entry{Op: OpCli})
	set(0xFB, Entry{Op: OpSti})
	set(0xFC, Entry{Op: OpCld})
	set(0xFD, Entry{Op: OpStd})
	set(0xFE, Entry{Form: FormRM, Width: b, Group: &group4})
	set(0xFF, Entry{Form: FormRM, Width: w, Group: &group5})
}
