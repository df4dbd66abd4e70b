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
	"github.com/pkg/errors"
)

type State int

const (
	StateNormal State = iota
	StateServicing
)

func (s State) String() string {
	if s == StateServicing {
		return "servicing"
	}
	return "normal"
}

// State reports if the processor is inside an interrupt routine entered
// through the vector table.
func (p *CPU) State() State {
	if p.depth > 0 {
		return StateServicing
	}
	return StateNormal
}

func (p *CPU) stackTop() memory.Pointer {
	return memory.NewPointer(p.SS(), p.SP())
}

func (p *CPU) push16(v uint16) {
	p.SetSP(p.SP() - 2)
	p.WriteWord(p.stackTop(), v)
}

func (p *CPU) pop16() uint16 {
	v := p.ReadWord(p.stackTop())
	p.SetSP(p.SP() + 2)
	return v
}

func (p *CPU) doInterrupt(n int) error {
	p.stats.NumInterrupts++

	if handler := p.interceptors[n&0xFF]; handler != nil {
		err := handler.HandleInterrupt(n)
		if err == nil {
			return nil
		}
		if !errors.Is(err, processor.ErrInterruptNotHandled) {
			return errors.Wrapf(err, "interrupt 0x%02X", n)
		}
	}

	p.push16(p.Flags.Load())
	p.push16(p.CS())
	p.push16(p.IP)

	offset := memory.Pointer(n&0xFF) * 4
	p.SetCS(p.ReadWord(offset + 2))
	p.IP = p.ReadWord(offset)
	p.Flags.Clear(processor.Trap | processor.InterruptEnable)
	p.depth++
	return nil
}

func (p *CPU) iret() {
	p.IP = p.pop16()
	p.SetCS(p.pop16())
	p.Flags.Store(p.pop16())
	if p.depth > 0 {
		p.depth--
	}
}
