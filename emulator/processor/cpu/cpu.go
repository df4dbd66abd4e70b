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
	"log"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/peripheral"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/andreas-jonsson/realxt/emulator/processor/decoder"
	"github.com/pkg/errors"
)

const MaxPeripherals = 32

// Tracer receives every executed instruction together with the memory it
// touched. Discard drops the instruction in progress.
type Tracer interface {
	Begin(addr memory.Address, code []byte, regs *processor.Registers)
	ReadByte(addr memory.Pointer, data byte)
	WriteByte(addr memory.Pointer, data byte)
	End(regs *processor.Registers)
	Discard()
}

type fence struct {
	enabled  bool
	seg, end uint16
}

type CPU struct {
	processor.Registers

	inst     decoder.Instruction
	decodeAt uint16

	trap, inhibit, halted, exited, breakpoint bool
	exitCode                                  byte
	depth                                     int
	fence                                     fence

	mem          *memory.RAM
	stats        processor.Stats
	peripherals  []peripheral.Peripheral
	pic          processor.InterruptController
	interceptors [0x100]processor.InterruptHandler
	tracer       Tracer

	iomap         [0x10000]byte
	ioPeripherals [MaxPeripherals]memory.IO
}

// NewCPU creates a processor with its own memory and installs the
// peripherals. Peripherals that fail to install are reported and skipped.
func NewCPU(peripherals []peripheral.Peripheral) (*CPU, []error) {
	p := &CPU{peripherals: peripherals, mem: memory.NewRAM()}

	dummyIO := &memory.DummyIO{}
	for i := range p.ioPeripherals[:] {
		p.ioPeripherals[i] = dummyIO
	}
	for i := 1; i <= len(peripherals) && i < MaxPeripherals; i++ {
		if dev, ok := peripherals[i-1].(memory.IO); ok {
			p.ioPeripherals[i] = dev
		}
	}

	var errs []error
	for _, d := range p.peripherals {
		if err := d.Install(p); err != nil {
			errs = append(errs, errors.Wrapf(err, "failed to install %s", d.Name()))
			continue
		}
		if pic, ok := d.(processor.InterruptController); ok {
			p.pic = pic
		}
	}

	p.Reset()
	return p, errs
}

func (p *CPU) Close() {
	for _, d := range p.peripherals {
		if cd, b := d.(peripheral.PeripheralCloser); b {
			if err := cd.Close(); err != nil {
				log.Print("Failed to close peripheral: ", err)
			}
		}
	}
}

// Break asks the run loop to stop before the next instruction.
func (p *CPU) Break() {
	p.breakpoint = true
}

// TakeBreak reports and clears a pending Break.
func (p *CPU) TakeBreak() bool {
	b := p.breakpoint
	p.breakpoint = false
	return b
}

func (p *CPU) GetStats() processor.Stats {
	s := p.stats
	p.stats = processor.Stats{}
	return s
}

// Reset zeroes memory and registers and resets every peripheral.
func (p *CPU) Reset() {
	p.Registers.Reset()
	p.SetCS(0xFFFF)

	p.inst = decoder.Instruction{}
	p.trap, p.inhibit, p.halted, p.exited, p.breakpoint = false, false, false, false, false
	p.exitCode, p.depth = 0, 0
	p.fence = fence{}

	p.mem.Reset()
	for _, d := range p.peripherals {
		d.Reset()
	}
}

func (p *CPU) Memory() *memory.RAM {
	return p.mem
}

func (p *CPU) GetRegisters() *processor.Registers {
	return &p.Registers
}

func (p *CPU) SetTracer(t Tracer) {
	p.tracer = t
}

// SetFence makes fetching from seg at or past offset end fail.
func (p *CPU) SetFence(seg, end uint16) {
	p.fence = fence{enabled: true, seg: seg, end: end}
}

func (p *CPU) ClearFence() {
	p.fence = fence{}
}

func (p *CPU) Exit(code byte) {
	p.exited, p.exitCode = true, code
}

// Exited reports if a program asked to terminate, and with what code.
func (p *CPU) Exited() (bool, byte) {
	return p.exited, p.exitCode
}

func (p *CPU) Halted() bool {
	return p.halted
}

func (p *CPU) GetMappedIODevice(port uint16) memory.IO {
	return p.ioPeripherals[p.iomap[port]]
}

func (p *CPU) InByte(port uint16) byte {
	return p.GetMappedIODevice(port).In(port)
}

func (p *CPU) OutByte(port uint16, data byte) {
	p.GetMappedIODevice(port).Out(port, data)
}

func (p *CPU) InWord(port uint16) uint16 {
	return uint16(p.InByte(port)) | (uint16(p.InByte(port+1)) << 8)
}

func (p *CPU) OutWord(port uint16, data uint16) {
	p.OutByte(port, byte(data&0xFF))
	p.OutByte(port+1, byte(data>>8))
}

func (p *CPU) ReadByte(addr memory.Pointer) byte {
	p.stats.RX++
	v := p.mem.ReadByte(addr)
	if p.tracer != nil {
		p.tracer.ReadByte(addr, v)
	}
	return v
}

func (p *CPU) WriteByte(addr memory.Pointer, data byte) {
	p.stats.TX++
	if p.tracer != nil {
		p.tracer.WriteByte(addr, data)
	}
	p.mem.WriteByte(addr, data)
}

func (p *CPU) ReadWord(addr memory.Pointer) uint16 {
	return uint16(p.ReadByte(addr)) | (uint16(p.ReadByte(addr.Add(1))) << 8)
}

func (p *CPU) WriteWord(addr memory.Pointer, data uint16) {
	p.WriteByte(addr, byte(data&0xFF))
	p.WriteByte(addr.Add(1), byte(data>>8))
}

func (p *CPU) InstallInterruptHandler(num int, handler processor.InterruptHandler) error {
	if num < 0 || num > 0xFF {
		return errors.Errorf("invalid interrupt number: %d", num)
	}
	p.interceptors[num] = handler
	return nil
}

func (p *CPU) InstallInterruptController(pic processor.InterruptController) {
	p.pic = pic
}

func (p *CPU) InstallIODevice(device memory.IO, from, to uint16) error {
	for i, d := range p.ioPeripherals[:] {
		if i > 0 && d == device {
			for {
				p.iomap[from] = byte(i)
				if from == to {
					return nil
				}
				from++
			}
		}
	}
	return errors.New("could not find peripheral")
}
