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

/*
	Reference material:
	https://wiki.osdev.org/Programmable_Interval_Timer
	fake86's - i8253.c
*/

// Package timer emulates the 8253 interval timer clocked by executed
// instructions, and the BIOS tick services on INT 08h and INT 1Ah.
package timer

import (
	"log"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/peripheral"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/rom"
	"github.com/andreas-jonsson/realxt/emulator/processor"
)

const (
	modeLatchCount = iota
	modeLowByte
	modeHighByte
	modeToggle
)

const (
	// DefaultInterval is the number of instructions between two IRQ0 at the
	// power-on divisor.
	DefaultInterval = 16384

	// TicksPerDay is where the BIOS tick count wraps at midnight.
	TicksPerDay = 0x1800B0

	counterStep = 4
)

var (
	tickCount    = memory.NewPointer(rom.DataSegment, 0x6C)
	midnightFlag = memory.NewPointer(rom.DataSegment, 0x70)
)

type channel struct {
	enabled, toggle bool
	effective       uint32
	counter, data   uint16
	mode            byte
}

type Device struct {
	PIC processor.InterruptController

	// Interval is the number of instructions between timer interrupts at
	// the power-on divisor. Zero selects DefaultInterval and a negative
	// value disables the interrupt.
	Interval int

	cpu      processor.Processor
	channels [3]channel
	elapsed  int
}

func (m *Device) Install(p processor.Processor) error {
	m.cpu = p
	if m.Interval == 0 {
		m.Interval = DefaultInterval
	}
	if err := peripheral.InstallHandlers(p, m, 0x08, 0x1A); err != nil {
		return err
	}
	return p.InstallIODevice(m, 0x40, 0x43)
}

func (m *Device) Name() string {
	return "Programmable Interval Timer (Intel 8253)"
}

func (m *Device) Reset() {
	m.channels = [3]channel{}
	m.channels[0] = channel{enabled: true, effective: 0x10000, mode: modeToggle}
	m.elapsed = 0
}

// period returns the number of instructions between two IRQ0 for the
// current channel 0 divisor.
func (m *Device) period() int {
	n := int(uint64(m.Interval) * uint64(m.channels[0].effective) / 0x10000)
	if n < 1 {
		return 1
	}
	return n
}

func (m *Device) Step(cycles int) error {
	for i := range m.channels {
		if ch := &m.channels[i]; ch.enabled {
			if ch.counter < counterStep {
				ch.counter = ch.data
			} else {
				ch.counter -= counterStep
			}
		}
	}

	if m.Interval < 0 || m.PIC == nil || !m.channels[0].enabled {
		return nil
	}
	if m.elapsed += cycles; m.elapsed >= m.period() {
		m.elapsed = 0
		m.PIC.IRQ(0)
	}
	return nil
}

// Ticks returns the BIOS tick count.
func (m *Device) Ticks() uint32 {
	return uint32(m.cpu.ReadWord(tickCount+2))<<16 | uint32(m.cpu.ReadWord(tickCount))
}

func (m *Device) setTicks(v uint32) {
	m.cpu.WriteWord(tickCount, uint16(v))
	m.cpu.WriteWord(tickCount+2, uint16(v>>16))
}

func (m *Device) HandleInterrupt(n int) error {
	if n == 0x08 {
		return m.tick()
	}

	r := m.cpu.GetRegisters()
	switch r.AH() {
	case 0x00:
		v := m.Ticks()
		r.SetCX(uint16(v >> 16))
		r.SetDX(uint16(v))
		r.SetAL(m.cpu.ReadByte(midnightFlag))
		m.cpu.WriteByte(midnightFlag, 0)
	case 0x01:
		m.setTicks(uint32(r.CX())<<16 | uint32(r.DX()))
		m.cpu.WriteByte(midnightFlag, 0)
	default:
		log.Printf("Unsupported timer service: AH=0x%02X", r.AH())
		return processor.ErrInterruptNotHandled
	}
	return nil
}

// tick advances the tick count. A program that replaced the vector gets
// control after the count is updated.
func (m *Device) tick() error {
	v := m.Ticks() + 1
	if v >= TicksPerDay {
		v = 0
		m.cpu.WriteByte(midnightFlag, 1)
	}
	m.setTicks(v)

	if rom.IsDefaultVector(m.cpu, 0x08) {
		return nil
	}
	return processor.ErrInterruptNotHandled
}

func (m *Device) In(port uint16) byte {
	if port == 0x43 {
		return 0
	}

	var ret uint16
	ch := &m.channels[port&3]

	if ch.mode == modeLatchCount || ch.mode == modeLowByte || (ch.mode == modeToggle && !ch.toggle) {
		ret = ch.counter & 0xFF
	} else if ch.mode == modeHighByte || (ch.mode == modeToggle && ch.toggle) {
		ret = ch.counter >> 8
	}

	if ch.mode == modeLatchCount || ch.mode == modeToggle {
		ch.toggle = !ch.toggle
	}
	return byte(ret)
}

func (m *Device) Out(port uint16, data byte) {
	switch port {
	case 0x40, 0x41, 0x42:
		ch := &m.channels[port&3]
		ch.enabled = true
		data16 := uint16(data)

		if ch.mode == modeLowByte || (ch.mode == modeToggle && !ch.toggle) {
			ch.data = (ch.data & 0xFF00) | data16
		} else if ch.mode == modeHighByte || (ch.mode == modeToggle && ch.toggle) {
			ch.data = (ch.data & 0x00FF) | (data16 << 8)
		}

		if ch.data == 0 {
			ch.effective = 0x10000
		} else {
			ch.effective = uint32(ch.data)
		}

		if ch.mode == modeToggle {
			ch.toggle = !ch.toggle
		}
	case 0x43:
		if data>>6 == 3 {
			return
		}
		ch := &m.channels[data>>6]
		if ch.mode = (data >> 4) & 3; ch.mode == modeToggle {
			ch.toggle = false
		}
	}
}
