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

// Package rom provides the BIOS ROM segment. It holds one IRET per interrupt
// vector, points the vector table at them and initializes the BIOS data area.
package rom

import (
	"io"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/pkg/errors"
)

const (
	Segment = 0xF000

	// DataSegment is the segment of the BIOS data area.
	DataSegment = 0x40

	opIRET = 0xCF
	opHLT  = 0xF4
)

// Stub returns the address of the default handler for interrupt n.
func Stub(n int) memory.Address {
	return memory.NewAddress(Segment, uint16(n&0xFF))
}

// IsDefaultVector reports if interrupt n still points at its stub.
func IsDefaultVector(p processor.Processor, n int) bool {
	offset := memory.Pointer(n&0xFF) * 4
	return memory.NewAddress(p.ReadWord(offset+2), p.ReadWord(offset)) == Stub(n)
}

type Device struct {
	mem       []byte
	generated bool
	cpu       processor.Processor

	RomName string
	Reader  io.Reader

	// MemorySize is reported in KB at 0040:0013.
	MemorySize uint16
}

func (m *Device) Install(p processor.Processor) error {
	m.cpu = p
	if m.RomName == "" {
		m.RomName = "BIOS"
	}
	if m.MemorySize == 0 {
		m.MemorySize = 640
	}

	if m.Reader == nil {
		m.mem = make([]byte, 0x100)
		for i := range m.mem {
			m.mem[i] = opIRET
		}
		m.generated = true
		return nil
	}

	var err error
	if m.mem, err = io.ReadAll(m.Reader); err != nil {
		return errors.Wrap(err, "could not read ROM image")
	}
	if len(m.mem) < 0x100 || len(m.mem) > 0x10000 {
		return errors.Errorf("invalid ROM size: %d", len(m.mem))
	}
	return nil
}

func (m *Device) Name() string {
	return m.RomName
}

// Reset copies the image into the ROM segment and restores the vector table
// and BIOS data area.
func (m *Device) Reset() {
	base := memory.NewPointer(Segment, 0)
	for i, v := range m.mem {
		m.cpu.WriteByte(base.Add(i), v)
	}
	if m.generated {
		// Nothing to boot.
		m.cpu.WriteByte(memory.NewPointer(0xFFFF, 0), opHLT)
	}

	for n := 0; n < 0x100; n++ {
		addr := Stub(n)
		m.cpu.WriteWord(memory.Pointer(n*4), addr.Offset())
		m.cpu.WriteWord(memory.Pointer(n*4+2), addr.Segment())
	}

	// Equipment word: 80x25 color, one floppy.
	m.cpu.WriteWord(memory.NewPointer(DataSegment, 0x10), 0x0021)
	m.cpu.WriteWord(memory.NewPointer(DataSegment, 0x13), m.MemorySize)
}

func (m *Device) Step(int) error {
	return nil
}
