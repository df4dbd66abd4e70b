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

const (
	// MaxPrefixes is the longest prefix chain accepted in front of an opcode.
	MaxPrefixes = 4

	// MaxLength is the longest instruction the decoder can produce.
	MaxLength = MaxPrefixes + 6
)

// NoSegment marks an instruction without segment override.
const NoSegment = -1

type Repeat byte

const (
	RepNone Repeat = 0
	RepNE   Repeat = 0xF2
	RepE    Repeat = 0xF3
)

type OperandKind byte

const (
	None OperandKind = iota
	Reg
	SegReg
	Imm
	Mem
	Rel
	Far
)

// Direct is the addressing mode of a plain 16-bit displacement.
const Direct = 8

// AddrMode describes one effective address form of the ModRM rm field.
type AddrMode struct {
	Name        string
	Base, Index int
	Segment     int
}

const noReg = -1

// AddrModes is indexed by the rm field, Direct is the mod=00 rm=110 form.
var AddrModes = [9]AddrMode{
	{"BX+SI", processor.BX, processor.SI, processor.DS},
	{"BX+DI", processor.BX, processor.DI, processor.DS},
	{"BP+SI", processor.BP, processor.SI, processor.SS},
	{"BP+DI", processor.BP, processor.DI, processor.SS},
	{"SI", processor.SI, noReg, processor.DS},
	{"DI", processor.DI, noReg, processor.DS},
	{"BP", processor.BP, noReg, processor.SS},
	{"BX", processor.BX, noReg, processor.DS},
	{"", noReg, noReg, processor.DS},
}

// HasBase reports if the mode adds a base register.
func (m AddrMode) HasBase() bool {
	return m.Base != noReg
}

// HasIndex reports if the mode adds an index register.
func (m AddrMode) HasIndex() bool {
	return m.Index != noReg
}

// Operand is one decoded operand. Which fields are meaningful depends on Kind:
// Reg and SegReg use Reg, Mem uses Mode and Disp, Imm and Rel use Imm and
// Far uses Seg:Imm.
type Operand struct {
	Kind  OperandKind
	Width processor.Width
	Reg   byte
	Mode  byte
	Disp  uint16
	Imm   uint16
	Seg   uint16
}

func RegOperand(w processor.Width, reg int) Operand {
	return Operand{Kind: Reg, Width: w, Reg: byte(reg)}
}

func SegOperand(seg int) Operand {
	return Operand{Kind: SegReg, Width: processor.Word, Reg: byte(seg)}
}

func ImmOperand(w processor.Width, v uint16) Operand {
	return Operand{Kind: Imm, Width: w, Imm: v}
}

func MemOperand(w processor.Width, mode int, disp uint16) Operand {
	return Operand{Kind: Mem, Width: w, Mode: byte(mode), Disp: disp}
}

// Instruction is a fully decoded instruction. It is a plain value and can be
// compared with ==.
type Instruction struct {
	Op       Op
	Opcode   byte
	ModRM    byte
	HasModRM bool
	Width    processor.Width

	Args    [2]Operand
	NumArgs byte

	Prefixes    [MaxPrefixes]byte
	NumPrefixes byte
	Segment     int8
	Rep         Repeat
	Lock        bool

	Length byte
}

func (i *Instruction) Operands() []Operand {
	return i.Args[:i.NumArgs]
}

func (i *Instruction) Dst() Operand {
	return i.Args[0]
}

func (i *Instruction) Src() Operand {
	return i.Args[1]
}

// PrefixBytes returns the prefix chain in stream order.
func (i *Instruction) PrefixBytes() []byte {
	return i.Prefixes[:i.NumPrefixes]
}

func (i *Instruction) addArg(op Operand) {
	i.Args[i.NumArgs] = op
	i.NumArgs++
}

func (i *Instruction) Mod() byte {
	return i.ModRM >> 6
}

func (i *Instruction) RegField() byte {
	return (i.ModRM >> 3) & 7
}

func (i *Instruction) RM() byte {
	return i.ModRM & 7
}
