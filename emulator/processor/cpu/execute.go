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
	"github.com/pkg/errors"
)

// Step executes one instruction. Pending trap and external interrupts are
// serviced first. A returned Fault leaves the processor at the failing
// instruction.
func (p *CPU) Step() error {
	if p.halted {
		return processor.ErrCPUHalt
	}
	if p.exited {
		return nil
	}

	if err := p.serviceRequests(); err != nil {
		return &Fault{Address: memory.NewAddress(p.CS(), p.IP), Err: err}
	}

	addr := memory.NewAddress(p.CS(), p.IP)
	if p.fence.enabled && addr.Segment() == p.fence.seg && addr.Offset() >= p.fence.end {
		return &Fault{
			Address: addr,
			Err:     &processor.ExecutionError{Kind: processor.MemoryOutOfRange, Address: addr, Detail: "fetch past the loaded image"},
		}
	}

	window := p.mem.Window(addr.Pointer(), decoder.MaxLength)
	inst, err := decoder.Decode(window)
	if err != nil {
		f := &Fault{Address: addr, Err: err}
		var de *decoder.DecodeError
		if errors.As(err, &de) {
			f.Bytes = de.Bytes
		}
		return f
	}
	code := window[:inst.Length]

	trapped := p.Flags.GetBool(processor.Trap)
	if p.tracer != nil {
		p.tracer.Begin(addr, code, &p.Registers)
	}

	p.inst = inst
	p.decodeAt = p.IP
	p.IP += uint16(inst.Length)

	err = p.execute()
	if errors.Is(err, processor.ErrDivideOverflow) {
		// Divide faults return to the instruction after the division.
		err = p.doInterrupt(0)
	}

	switch {
	case err == nil:
	case errors.Is(err, processor.ErrCPUHalt):
		p.halted = true
	default:
		p.IP = p.decodeAt
		if p.tracer != nil {
			p.tracer.Discard()
		}
		return &Fault{Address: addr, Bytes: code, Err: err}
	}

	if p.tracer != nil {
		p.tracer.End(&p.Registers)
	}
	p.stats.NumInstructions++
	p.trap = trapped

	for _, d := range p.peripherals {
		if err := d.Step(1); err != nil {
			return errors.Wrap(err, d.Name())
		}
	}

	if p.halted {
		return processor.ErrCPUHalt
	}
	return nil
}

func (p *CPU) serviceRequests() error {
	if p.inhibit {
		p.inhibit = false
		return nil
	}
	if p.trap {
		p.trap = false
		return p.doInterrupt(1)
	}
	if p.pic != nil && p.Flags.GetBool(processor.InterruptEnable) {
		if n, err := p.pic.GetInterrupt(); err == nil {
			return p.doInterrupt(n)
		}
	}
	return nil
}

func (p *CPU) condition(cc int) bool {
	f := &p.Flags
	var res bool

	switch cc >> 1 {
	case 0:
		res = f.GetBool(processor.Overflow)
	case 1:
		res = f.GetBool(processor.Carry)
	case 2:
		res = f.GetBool(processor.Zero)
	case 3:
		res = f.GetBool(processor.Carry) || f.GetBool(processor.Zero)
	case 4:
		res = f.GetBool(processor.Sign)
	case 5:
		res = f.GetBool(processor.Parity)
	case 6:
		res = f.GetBool(processor.Sign) != f.GetBool(processor.Overflow)
	case 7:
		res = f.GetBool(processor.Zero) || f.GetBool(processor.Sign) != f.GetBool(processor.Overflow)
	}

	if cc&1 != 0 {
		return !res
	}
	return res
}

func (p *CPU) jumpRel() {
	p.IP += p.inst.Dst().Imm
}

// nearTarget returns the new IP of a near jump or call.
func (p *CPU) nearTarget() uint16 {
	if op := p.inst.Dst(); op.Kind == decoder.Rel {
		return p.IP + op.Imm
	}
	return p.dst().readWord(p)
}

// farTarget returns the new CS:IP of a far jump or call.
func (p *CPU) farTarget() (uint16, uint16) {
	op := p.inst.Dst()
	if op.Kind == decoder.Far {
		return op.Seg, op.Imm
	}
	addr := p.effectiveAddress(op)
	return p.ReadWord(addr.AddInt(2).Pointer()), p.ReadWord(addr.Pointer())
}

func (p *CPU) port() uint16 {
	for _, op := range p.inst.Operands() {
		switch {
		case op.Kind == decoder.Imm:
			return op.Imm
		case op.Kind == decoder.Reg && op.Width == processor.Word && op.Reg == processor.DX:
			return p.DX()
		}
	}
	return 0
}

func (p *CPU) execute() error {
	inst := &p.inst
	w := inst.Width

	switch op := inst.Op; op {
	case decoder.OpAdd, decoder.OpOr, decoder.OpAdc, decoder.OpSbb, decoder.OpAnd, decoder.OpSub, decoder.OpXor, decoder.OpCmp, decoder.OpTest:
		dest, src := p.dst(), p.src()
		res, flags, write := alu.Arith(op, w, dest.read(p, w), src.read(p, w), p.Flags)
		if write {
			dest.write(p, w, res)
		}
		p.Flags = flags
	case decoder.OpInc:
		dest := p.dst()
		res, flags := alu.Inc(w, dest.read(p, w), p.Flags)
		dest.write(p, w, res)
		p.Flags = flags
	case decoder.OpDec:
		dest := p.dst()
		res, flags := alu.Dec(w, dest.read(p, w), p.Flags)
		dest.write(p, w, res)
		p.Flags = flags
	case decoder.OpNot:
		dest := p.dst()
		dest.write(p, w, alu.Not(w, dest.read(p, w)))
	case decoder.OpNeg:
		dest := p.dst()
		res, flags := alu.Neg(w, dest.read(p, w), p.Flags)
		dest.write(p, w, res)
		p.Flags = flags
	case decoder.OpMul, decoder.OpImul:
		mul := alu.Mul
		if op == decoder.OpImul {
			mul = alu.Imul
		}
		if w == processor.Byte {
			res, flags := mul(w, uint16(p.AL()), p.dst().read(p, w), p.Flags)
			p.SetAX(uint16(res))
			p.Flags = flags
		} else {
			res, flags := mul(w, p.AX(), p.dst().read(p, w), p.Flags)
			p.SetAX(uint16(res))
			p.SetDX(uint16(res >> 16))
			p.Flags = flags
		}
	case decoder.OpDiv, decoder.OpIdiv:
		div := alu.Div
		if op == decoder.OpIdiv {
			div = alu.Idiv
		}
		if w == processor.Byte {
			q, r, err := div(w, uint32(p.AX()), p.dst().read(p, w))
			if err != nil {
				return err
			}
			p.SetAL(byte(q))
			p.SetAH(byte(r))
		} else {
			q, r, err := div(w, uint32(p.DX())<<16|uint32(p.AX()), p.dst().read(p, w))
			if err != nil {
				return err
			}
			p.SetAX(q)
			p.SetDX(r)
		}
	case decoder.OpRol, decoder.OpRor, decoder.OpRcl, decoder.OpRcr, decoder.OpShl, decoder.OpShr, decoder.OpSar:
		dest := p.dst()
		count := p.src().readByte(p)
		res, flags := alu.Shift(op, w, dest.read(p, w), count, p.Flags)
		dest.write(p, w, res)
		p.Flags = flags

	case decoder.OpPush:
		dest := inst.Dst()
		if dest.Kind == decoder.Reg && dest.Reg == processor.SP {
			// The 8086 pushes the decremented value.
			p.push16(p.SP() - 2)
		} else {
			p.push16(p.dst().readWord(p))
		}
	case decoder.OpPop:
		dest := p.dst()
		dest.writeWord(p, p.pop16())
		if o := inst.Dst(); o.Kind == decoder.SegReg && o.Reg == processor.SS {
			p.inhibit = true
		}
	case decoder.OpPushf:
		p.push16(p.Flags.Load())
	case decoder.OpPopf:
		p.Flags.Store(p.pop16())
	case decoder.OpMov:
		p.dst().write(p, w, p.src().read(p, w))
		if o := inst.Dst(); o.Kind == decoder.SegReg && o.Reg == processor.SS {
			p.inhibit = true
		}
	case decoder.OpXchg:
		dest, src := p.dst(), p.src()
		a, b := dest.read(p, w), src.read(p, w)
		dest.write(p, w, b)
		src.write(p, w, a)
	case decoder.OpLea:
		p.dst().writeWord(p, p.effectiveAddress(inst.Src()).Offset())
	case decoder.OpLes, decoder.OpLds:
		addr := p.effectiveAddress(inst.Src())
		offset, seg := p.ReadWord(addr.Pointer()), p.ReadWord(addr.AddInt(2).Pointer())
		p.dst().writeWord(p, offset)
		if op == decoder.OpLes {
			p.SetES(seg)
		} else {
			p.SetDS(seg)
		}
	case decoder.OpXlat:
		p.SetAL(p.ReadByte(memory.NewPointer(p.getSeg(processor.DS), p.BX()+uint16(p.AL()))))
	case decoder.OpLahf:
		p.SetAH(byte(p.Flags.Load()))
	case decoder.OpSahf:
		p.Flags.StoreLow(p.AH())
	case decoder.OpCbw:
		p.SetAX(uint16(int16(int8(p.AL()))))
	case decoder.OpCwd:
		if p.AX()&0x8000 != 0 {
			p.SetDX(0xFFFF)
		} else {
			p.SetDX(0)
		}

	case decoder.OpDaa:
		al, flags := alu.Daa(p.AL(), p.Flags)
		p.SetAL(al)
		p.Flags = flags
	case decoder.OpDas:
		al, flags := alu.Das(p.AL(), p.Flags)
		p.SetAL(al)
		p.Flags = flags
	case decoder.OpAaa:
		ax, flags := alu.Aaa(p.AX(), p.Flags)
		p.SetAX(ax)
		p.Flags = flags
	case decoder.OpAas:
		ax, flags := alu.Aas(p.AX(), p.Flags)
		p.SetAX(ax)
		p.Flags = flags
	case decoder.OpAam:
		ax, flags, err := alu.Aam(p.AL(), byte(inst.Dst().Imm), p.Flags)
		if err != nil {
			return err
		}
		p.SetAX(ax)
		p.Flags = flags
	case decoder.OpAad:
		ax, flags := alu.Aad(p.AX(), byte(inst.Dst().Imm), p.Flags)
		p.SetAX(ax)
		p.Flags = flags

	case decoder.OpMovs, decoder.OpCmps, decoder.OpStos, decoder.OpLods, decoder.OpScas:
		p.doRepeat()

	case decoder.OpJmp:
		p.IP = p.nearTarget()
	case decoder.OpJmpFar:
		cs, ip := p.farTarget()
		p.SetCS(cs)
		p.IP = ip
	case decoder.OpCall:
		ip := p.nearTarget()
		p.push16(p.IP)
		p.IP = ip
	case decoder.OpCallFar:
		cs, ip := p.farTarget()
		p.push16(p.CS())
		p.push16(p.IP)
		p.SetCS(cs)
		p.IP = ip
	case decoder.OpRet:
		p.IP = p.pop16()
		if inst.NumArgs > 0 {
			p.SetSP(p.SP() + inst.Dst().Imm)
		}
	case decoder.OpRetf:
		p.IP = p.pop16()
		p.SetCS(p.pop16())
		if inst.NumArgs > 0 {
			p.SetSP(p.SP() + inst.Dst().Imm)
		}
	case decoder.OpLoop, decoder.OpLoopz, decoder.OpLoopnz:
		p.SetCX(p.CX() - 1)
		if p.CX() != 0 {
			zf := p.Flags.GetBool(processor.Zero)
			if op == decoder.OpLoop || (op == decoder.OpLoopz && zf) || (op == decoder.OpLoopnz && !zf) {
				p.jumpRel()
			}
		}
	case decoder.OpJcxz:
		if p.CX() == 0 {
			p.jumpRel()
		}

	case decoder.OpInt:
		return p.doInterrupt(int(inst.Dst().Imm))
	case decoder.OpInt3:
		return p.doInterrupt(3)
	case decoder.OpInto:
		if p.Flags.GetBool(processor.Overflow) {
			return p.doInterrupt(4)
		}
	case decoder.OpIret:
		p.iret()

	case decoder.OpIn:
		if w == processor.Byte {
			p.SetAL(p.InByte(p.port()))
		} else {
			p.SetAX(p.InWord(p.port()))
		}
	case decoder.OpOut:
		if w == processor.Byte {
			p.OutByte(p.port(), p.AL())
		} else {
			p.OutWord(p.port(), p.AX())
		}

	case decoder.OpClc:
		p.Flags.Clear(processor.Carry)
	case decoder.OpStc:
		p.Flags.Set(processor.Carry)
	case decoder.OpCmc:
		p.Flags.SetBool(processor.Carry, !p.Flags.GetBool(processor.Carry))
	case decoder.OpCli:
		p.Flags.Clear(processor.InterruptEnable)
	case decoder.OpSti:
		p.Flags.Set(processor.InterruptEnable)
	case decoder.OpCld:
		p.Flags.Clear(processor.Direction)
	case decoder.OpStd:
		p.Flags.Set(processor.Direction)

	case decoder.OpHlt:
		return processor.ErrCPUHalt
	case decoder.OpWait, decoder.OpNop:
		p.stats.NOP++
	case decoder.OpSalc:
		if p.Flags.GetBool(processor.Carry) {
			p.SetAL(0xFF)
		} else {
			p.SetAL(0)
		}
	case decoder.OpEsc:
		return p.executionError(processor.Unimplemented, "coprocessor escape")
	default:
		if cc, ok := op.Cond(); ok {
			if p.condition(cc) {
				p.jumpRel()
			}
			return nil
		}
		return p.executionError(processor.Unimplemented, op.String())
	}
	return nil
}
