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
	"github.com/andreas-jonsson/realxt/emulator/processor/alu"
	"github.com/andreas-jonsson/realxt/emulator/processor/decoder"
)

func (p *CPU) stringDelta() uint16 {
	n := uint16(p.inst.Width)
	if p.Flags.GetBool(processor.Direction) {
		return -n
	}
	return n
}

func (p *CPU) updateDI() {
	p.SetDI(p.DI() + p.stringDelta())
}

func (p *CPU) updateSI() {
	p.SetSI(p.SI() + p.stringDelta())
}

func (p *CPU) updateDISI() {
	p.updateDI()
	p.updateSI()
}

func (p *CPU) source() dataLocation {
	return dataLocation(memory.NewAddress(p.getSeg(processor.DS), p.SI()))
}

// destination is always ES:DI, overrides do not apply.
func (p *CPU) destination() dataLocation {
	return dataLocation(memory.NewAddress(p.ES(), p.DI()))
}

func (p *CPU) accumulator() dataLocation {
	return dataLocation(processor.AX) | registerLocation
}

func (p *CPU) stringStep() {
	w := p.inst.Width

	switch p.inst.Op {
	case decoder.OpMovs:
		p.destination().write(p, w, p.source().read(p, w))
		p.updateDISI()
	case decoder.OpCmps:
		_, p.Flags, _ = alu.Arith(decoder.OpCmp, w, p.source().read(p, w), p.destination().read(p, w), p.Flags)
		p.updateDISI()
	case decoder.OpStos:
		p.destination().write(p, w, p.accumulator().read(p, w))
		p.updateDI()
	case decoder.OpLods:
		p.accumulator().write(p, w, p.source().read(p, w))
		p.updateSI()
	case decoder.OpScas:
		_, p.Flags, _ = alu.Arith(decoder.OpCmp, w, p.accumulator().read(p, w), p.destination().read(p, w), p.Flags)
		p.updateDI()
	}
}

// doRepeat runs a string instruction. With a repeat prefix it runs until CX is
// exhausted, or for CMPS and SCAS until the zero flag ends the loop.
func (p *CPU) doRepeat() {
	rep := p.inst.Rep
	if rep == decoder.RepNone {
		p.stringStep()
		return
	}

	primitive := p.inst.Op == decoder.OpCmps || p.inst.Op == decoder.OpScas
	for p.CX() > 0 {
		p.stringStep()
		p.SetCX(p.CX() - 1)

		if primitive {
			zf := p.Flags.GetBool(processor.Zero)
			if (rep == decoder.RepNE && zf) || (rep == decoder.RepE && !zf) {
				break
			}
		}
	}
}
