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
	"github.com/pkg/errors"
)

// Encode produces the byte encoding of inst. Decoding the result yields inst
// again. The ModRM byte, when present, is taken as is.
func Encode(inst Instruction) ([]byte, error) {
	e := Table[inst.Opcode]
	if !e.Valid() || e.Op == OpPrefix {
		return nil, errors.Errorf("can't encode opcode 0x%02X", inst.Opcode)
	}

	buf := make([]byte, 0, MaxLength)
	buf = append(buf, inst.PrefixBytes()...)
	buf = append(buf, inst.Opcode)

	if e.Form.HasModRM() {
		if !inst.HasModRM {
			return nil, errors.Errorf("opcode 0x%02X needs a ModRM byte", inst.Opcode)
		}
		e = Lookup(inst.Opcode, inst.ModRM)
		buf = append(buf, inst.ModRM)

		if mem, ok := inst.memOperand(); ok {
			switch mod := inst.Mod(); {
			case mod == 1:
				buf = append(buf, byte(mem.Disp))
			case mod == 2, mod == 0 && inst.RM() == 6:
				buf = appendWord(buf, mem.Disp)
			}
		}
	}

	if e.Op != inst.Op {
		return nil, errors.Errorf("operation %v does not match opcode 0x%02X", inst.Op, inst.Opcode)
	}

	arg := func(i int) Operand {
		return inst.Args[i]
	}

	switch e.Form {
	case FormAccImm, FormRegImm, FormRMImm:
		buf = appendImm(buf, e.Width, arg(1).Imm)
	case FormRMImm8S, FormAccPort:
		buf = append(buf, byte(arg(1).Imm))
	case FormImm8, FormPortAcc:
		buf = append(buf, byte(arg(0).Imm))
	case FormImm16, FormRel16:
		buf = appendWord(buf, arg(0).Imm)
	case FormRel8:
		buf = append(buf, byte(arg(0).Imm))
	case FormFar:
		buf = appendWord(buf, arg(0).Imm)
		buf = appendWord(buf, arg(0).Seg)
	case FormAccMem:
		buf = appendWord(buf, arg(1).Disp)
	case FormMemAcc:
		buf = appendWord(buf, arg(0).Disp)
	}
	return buf, nil
}

func (i *Instruction) memOperand() (Operand, bool) {
	for _, op := range i.Operands() {
		if op.Kind == Mem {
			return op, true
		}
	}
	return Operand{}, false
}

func appendWord(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendImm(buf []byte, w processor.Width, v uint16) []byte {
	if w == processor.Byte {
		return append(buf, byte(v))
	}
	return appendWord(buf, v)
}
