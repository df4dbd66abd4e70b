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

package cpu

import (
	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/andreas-jonsson/realxt/emulator/processor/decoder"
)

const (
	registerLocation  = 1 << 63
	segmentLocation   = 1 << 62
	immediateLocation = 1 << 61
)

// dataLocation is a resolved operand: a register, segment register,
// immediate value or a segment:offset memory address.
type dataLocation uint64

func (addr dataLocation) getAddress() memory.Address {
	return memory.Address(addr & 0xFFFFFFFF)
}

func (addr dataLocation) getPointer() memory.Pointer {
	return addr.getAddress().Pointer()
}

func (addr dataLocation) readByte(p *CPU) byte {
	switch {
	case addr&registerLocation != 0:
		return p.Reg8(int(addr & 7))
	case addr&segmentLocation != 0:
		return byte(p.Seg(int(addr & 3)))
	case addr&immediateLocation != 0:
		return byte(addr)
	}
	return p.ReadByte(addr.getPointer())
}

func (addr dataLocation) writeByte(p *CPU, data byte) {
	switch {
	case addr&registerLocation != 0:
		p.SetReg8(int(addr&7), data)
	case addr&(segmentLocation|immediateLocation) != 0:
		panic("invalid data location")
	default:
		p.WriteByte(addr.getPointer(), data)
	}
}

func (addr dataLocation) readWord(p *CPU) uint16 {
	switch {
	case addr&registerLocation != 0:
		return p.Reg16(int(addr & 7))
	case addr&segmentLocation != 0:
		return p.Seg(int(addr & 3))
	case addr&immediateLocation != 0:
		return uint16(addr)
	}
	return p.ReadWord(addr.getPointer())
}

func (addr dataLocation) writeWord(p *CPU, data uint16) {
	switch {
	case addr&registerLocation != 0:
		p.SetReg16(int(addr&7), data)
	case addr&segmentLocation != 0:
		p.SetSeg(int(addr&3), data)
	case addr&immediateLocation != 0:
		panic("invalid data location")
	default:
		p.WriteWord(addr.getPointer(), data)
	}
}

func (addr dataLocation) read(p *CPU, w processor.Width) uint16 {
	if w == processor.Byte {
		return uint16(addr.readByte(p))
	}
	return addr.readWord(p)
}

func (addr dataLocation) write(p *CPU, w processor.Width, data uint16) {
	if w == processor.Byte {
		addr.writeByte(p, byte(data))
		return
	}
	addr.writeWord(p, data)
}

// getSeg returns the override segment of the current instruction, or def.
func (p *CPU) getSeg(def int) uint16 {
	if p.inst.Segment != decoder.NoSegment {
		return p.Seg(int(p.inst.Segment))
	}
	return p.Seg(def)
}

// effectiveAddress resolves a memory operand through the ModRM address table.
func (p *CPU) effectiveAddress(op decoder.Operand) memory.Address {
	mode := decoder.AddrModes[op.Mode]
	offset := op.Disp
	if mode.HasBase() {
		offset += p.Reg16(mode.Base)
	}
	if mode.HasIndex() {
		offset += p.Reg16(mode.Index)
	}
	return memory.NewAddress(p.getSeg(mode.Segment), offset)
}

func (p *CPU) location(op decoder.Operand) dataLocation {
	switch op.Kind {
	case decoder.Reg:
		return dataLocation(op.Reg) | registerLocation
	case decoder.SegReg:
		return dataLocation(op.Reg) | segmentLocation
	case decoder.Mem:
		return dataLocation(p.effectiveAddress(op))
	}
	return dataLocation(op.Imm) | immediateLocation
}

func (p *CPU) dst() dataLocation {
	return p.location(p.inst.Dst())
}

func (p *CPU) src() dataLocation {
	return p.location(p.inst.Src())
}
