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

// Package decoder turns byte sequences into Instruction values. Decoding is a
// pure function of its input and never touches processor state.
package decoder

import (
	"github.com/andreas-jonsson/realxt/emulator/processor"
)

type decoder struct {
	buf []byte
	pos int
}

// Decode decodes the instruction at the start of window. Bytes after the
// instruction are ignored.
func Decode(window []byte) (Instruction, error) {
	d := decoder{buf: window}
	inst, err := d.decode()
	if err != nil {
		return Instruction{}, err
	}
	return inst, nil
}

func (d *decoder) fail(kind DecodeErrorKind) error {
	return &DecodeError{Kind: kind, Bytes: append([]byte(nil), d.buf[:d.pos]...)}
}

func (d *decoder) next() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, d.fail(Truncated)
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) word() (uint16, error) {
	lo, err := d.next()
	if err != nil {
		return 0, err
	}
	hi, err := d.next()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (d *decoder) imm(w processor.Width) (Operand, error) {
	if w == processor.Byte {
		v, err := d.next()
		return ImmOperand(w, uint16(v)), err
	}
	v, err := d.word()
	return ImmOperand(w, v), err
}

func (d *decoder) rm(modrm byte, w processor.Width) (Operand, error) {
	rm := modrm & 7
	switch modrm >> 6 {
	case 0:
		if rm == 6 {
			disp, err := d.word()
			return MemOperand(w, Direct, disp), err
		}
		return MemOperand(w, int(rm), 0), nil
	case 1:
		disp, err := d.next()
		return MemOperand(w, int(rm), uint16(int8(disp))), err
	case 2:
		disp, err := d.word()
		return MemOperand(w, int(rm), disp), err
	default:
		return RegOperand(w, int(rm)), nil
	}
}

func (d *decoder) prefixes(inst *Instruction) (byte, error) {
	for {
		b, err := d.next()
		if err != nil {
			return 0, err
		}

		switch b {
		case 0x26, 0x2E, 0x36, 0x3E:
			seg := int8((b >> 3) & 3)
			if inst.Segment != NoSegment && inst.Segment != seg {
				return 0, d.fail(InvalidPrefixCombination)
			}
			inst.Segment = seg
		case 0xF0:
			inst.Lock = true
		case 0xF2, 0xF3:
			if inst.Rep != RepNone && inst.Rep != Repeat(b) {
				return 0, d.fail(InvalidPrefixCombination)
			}
			inst.Rep = Repeat(b)
		case 0x66, 0x67:
			// Operand and address size overrides do not exist in real mode on this CPU.
			return 0, d.fail(InvalidPrefixCombination)
		default:
			return b, nil
		}

		if inst.NumPrefixes == MaxPrefixes {
			return 0, d.fail(InvalidPrefixCombination)
		}
		inst.Prefixes[inst.NumPrefixes] = b
		inst.NumPrefixes++
	}
}

func (d *decoder) decode() (Instruction, error) {
	inst := Instruction{Segment: NoSegment}

	opcode, err := d.prefixes(&inst)
	if err != nil {
		return inst, err
	}
	inst.Opcode = opcode

	e := Table[opcode]
	if !e.Valid() {
		return inst, d.fail(UnknownOpcode)
	}

	if e.Form.HasModRM() {
		if inst.ModRM, err = d.next(); err != nil {
			return inst, err
		}
		inst.HasModRM = true

		if e = Lookup(opcode, inst.ModRM); !e.Valid() {
			return inst, d.fail(UnknownOpcode)
		}
		if e.MemOnly && inst.Mod() == 3 {
			return inst, d.fail(UnknownOpcode)
		}
		if (e.Form == FormRMSeg || e.Form == FormSegRM) && inst.RegField() > 3 {
			return inst, d.fail(UnknownOpcode)
		}
	}

	inst.Op = e.Op
	inst.Width = e.Width
	if err := d.operands(&inst, e); err != nil {
		return inst, err
	}

	inst.Length = byte(d.pos)
	return inst, nil
}

func (d *decoder) operands(inst *Instruction, e Entry) error {
	var (
		op1, op2 Operand
		err      error
		w        = e.Width
		reg      = int(inst.RegField())
		low      = int(inst.Opcode & 7)
		acc      = RegOperand(w, processor.AX)
	)

	switch e.Form {
	case FormNone:
		return nil
	case FormRMReg:
		op1, err = d.rm(inst.ModRM, w)
		op2 = RegOperand(w, reg)
	case FormRegRM:
		op1 = RegOperand(w, reg)
		op2, err = d.rm(inst.ModRM, w)
	case FormAccImm:
		op1 = acc
		op2, err = d.imm(w)
	case FormSegOp:
		inst.addArg(SegOperand(int(inst.Opcode>>3) & 3))
		return nil
	case FormRegOp:
		inst.addArg(RegOperand(w, low))
		return nil
	case FormAccRegOp:
		op1, op2 = acc, RegOperand(w, low)
	case FormRegImm:
		op1 = RegOperand(w, low)
		op2, err = d.imm(w)
	case FormRel8:
		var b byte
		b, err = d.next()
		inst.addArg(Operand{Kind: Rel, Width: processor.Byte, Imm: uint16(int8(b))})
		return err
	case FormRel16:
		var v uint16
		v, err = d.word()
		inst.addArg(Operand{Kind: Rel, Width: processor.Word, Imm: v})
		return err
	case FormFar:
		var off, seg uint16
		if off, err = d.word(); err != nil {
			return err
		}
		if seg, err = d.word(); err != nil {
			return err
		}
		inst.addArg(Operand{Kind: Far, Width: processor.Word, Imm: off, Seg: seg})
		return nil
	case FormRM, FormEsc:
		op1, err = d.rm(inst.ModRM, w)
		inst.addArg(op1)
		return err
	case FormRMImm:
		if op1, err = d.rm(inst.ModRM, w); err != nil {
			return err
		}
		op2, err = d.imm(w)
	case FormRMImm8S:
		if op1, err = d.rm(inst.ModRM, w); err != nil {
			return err
		}
		var b byte
		b, err = d.next()
		op2 = ImmOperand(processor.Byte, uint16(int8(b)))
	case FormRMOne:
		op1, err = d.rm(inst.ModRM, w)
		op2 = ImmOperand(processor.Byte, 1)
	case FormRMCL:
		op1, err = d.rm(inst.ModRM, w)
		op2 = RegOperand(processor.Byte, processor.CX)
	case FormRMSeg:
		op1, err = d.rm(inst.ModRM, w)
		op2 = SegOperand(reg)
	case FormSegRM:
		op1 = SegOperand(reg)
		op2, err = d.rm(inst.ModRM, w)
	case FormAccMem, FormMemAcc:
		var disp uint16
		disp, err = d.word()
		op1, op2 = acc, MemOperand(w, Direct, disp)
		if e.Form == FormMemAcc {
			op1, op2 = op2, op1
		}
	case FormImm8:
		op1, err = d.imm(processor.Byte)
		inst.addArg(op1)
		return err
	case FormImm16:
		op1, err = d.imm(processor.Word)
		inst.addArg(op1)
		return err
	case FormAccPort, FormPortAcc:
		op1 = acc
		op2, err = d.imm(processor.Byte)
		if e.Form == FormPortAcc {
			op1, op2 = op2, op1
		}
	case FormAccDX, FormDXAcc:
		op1, op2 = acc, RegOperand(processor.Word, processor.DX)
		if e.Form == FormDXAcc {
			op1, op2 = op2, op1
		}
	}

	if err != nil {
		return err
	}
	inst.addArg(op1)
	inst.addArg(op2)
	return nil
}
