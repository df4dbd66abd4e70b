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
	"fmt"
	"strings"

	"github.com/andreas-jonsson/realxt/emulator/processor"
)

func (op Operand) String() string {
	switch op.Kind {
	case Reg:
		if op.Width == processor.Byte {
			return processor.Reg8Name(int(op.Reg))
		}
		return processor.Reg16Name(int(op.Reg))
	case SegReg:
		return processor.SegName(int(op.Reg))
	case Imm:
		if op.Width == processor.Byte {
			return fmt.Sprintf("0x%02X", byte(op.Imm))
		}
		return fmt.Sprintf("0x%04X", op.Imm)
	case Rel:
		return fmt.Sprintf("%+d", int16(op.Imm))
	case Far:
		return fmt.Sprintf("%04X:%04X", op.Seg, op.Imm)
	case Mem:
		m := AddrModes[op.Mode]
		switch {
		case op.Mode == Direct:
			return fmt.Sprintf("[0x%04X]", op.Disp)
		case op.Disp == 0:
			return "[" + m.Name + "]"
		case int16(op.Disp) < 0:
			return fmt.Sprintf("[%s-0x%X]", m.Name, -int(int16(op.Disp)))
		default:
			return fmt.Sprintf("[%s+0x%X]", m.Name, op.Disp)
		}
	}
	return ""
}

// String returns an Intel syntax disassembly of the instruction.
func (i Instruction) String() string {
	var sb strings.Builder
	if i.Lock {
		sb.WriteString("LOCK ")
	}
	switch i.Rep {
	case RepE:
		if i.Op == OpCmps || i.Op == OpScas {
			sb.WriteString("REPE ")
		} else {
			sb.WriteString("REP ")
		}
	case RepNE:
		sb.WriteString("REPNE ")
	}

	sb.WriteString(i.Op.String())
	switch i.Op {
	case OpMovs, OpCmps, OpStos, OpLods, OpScas:
		if i.Width == processor.Byte {
			sb.WriteByte('B')
		} else {
			sb.WriteByte('W')
		}
	}

	for n, op := range i.Operands() {
		if n == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		if op.Kind == Mem && i.Segment != NoSegment {
			sb.WriteString(processor.SegName(int(i.Segment)))
			sb.WriteByte(':')
		}
		sb.WriteString(op.String())
	}
	return sb.String()
}
