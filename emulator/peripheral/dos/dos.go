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

// Package dos provides the subset of the DOS services on INT 20h and INT 21h
// used by single-tasking console programs.
package dos

import (
	"log"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/peripheral"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/keyboard"
	"github.com/andreas-jonsson/realxt/emulator/processor"
)

// Version reported by AH=30h.
const (
	VersionMajor = 5
	VersionMinor = 0
)

// Terminal receives console output.
type Terminal interface {
	Teletype(ch byte)
}

type Keyboard interface {
	ReadKey() (keyboard.Key, error)
	PeekKey() (keyboard.Key, bool)
}

type Device struct {
	Terminal Terminal
	Keyboard Keyboard

	cpu processor.Processor

	// Scan code returned by the next read after an extended key.
	extended byte

	// Partial line of a buffered input that ran out of keys.
	line []byte
}

func (m *Device) Install(p processor.Processor) error {
	m.cpu = p
	return peripheral.InstallHandlers(p, m, 0x20, 0x21)
}

func (m *Device) Name() string {
	return "DOS services"
}

func (m *Device) Reset() {
	m.extended = 0
	m.line = nil
}

func (m *Device) Step(int) error {
	return nil
}

func (m *Device) write(ch byte) {
	if m.Terminal != nil {
		m.Terminal.Teletype(ch)
	}
}

func (m *Device) readChar() (byte, error) {
	if c := m.extended; c != 0 {
		m.extended = 0
		return c, nil
	}
	if m.Keyboard == nil {
		return 0, keyboard.ErrNoInput
	}

	k, err := m.Keyboard.ReadKey()
	if err != nil {
		return 0, err
	}
	if k.ASCII == 0 {
		m.extended = byte(k.Scan)
	}
	return k.ASCII, nil
}

func (m *Device) keyAvailable() bool {
	if m.extended != 0 {
		return true
	}
	if m.Keyboard == nil {
		return false
	}
	_, ok := m.Keyboard.PeekKey()
	return ok
}

func (m *Device) HandleInterrupt(n int) error {
	r := m.cpu.GetRegisters()
	if n == 0x20 {
		m.cpu.Exit(0)
		return nil
	}

	switch r.AH() {
	case 0x00:
		m.cpu.Exit(0)
	case 0x01, 0x07, 0x08:
		c, err := m.readChar()
		if err != nil {
			return err
		}
		if r.AH() == 0x01 && c != 0 {
			m.write(c)
		}
		r.SetAL(c)
	case 0x02:
		m.write(r.DL())
		r.SetAL(r.DL())
	case 0x06:
		if r.DL() != 0xFF {
			m.write(r.DL())
			r.SetAL(r.DL())
			break
		}
		ok := m.keyAvailable()
		if ok {
			c, err := m.readChar()
			if err != nil {
				return err
			}
			r.SetAL(c)
		} else {
			r.SetAL(0)
		}
		r.Flags.SetBool(processor.Zero, !ok)
	case 0x09:
		p := memory.NewPointer(r.DS(), r.DX())
		for i := 0; i < 0x10000; i++ {
			c := m.cpu.ReadByte(p.Add(i))
			if c == '$' {
				break
			}
			m.write(c)
		}
		r.SetAL('$')
	case 0x0A:
		return m.readLine(memory.NewAddress(r.DS(), r.DX()))
	case 0x0B:
		r.SetAL(0)
		if m.keyAvailable() {
			r.SetAL(0xFF)
		}
	case 0x19:
		// Drive C:
		r.SetAL(2)
	case 0x25:
		offset := memory.Pointer(r.AL()) * 4
		m.cpu.WriteWord(offset, r.DX())
		m.cpu.WriteWord(offset+2, r.DS())
	case 0x30:
		r.SetAL(VersionMajor)
		r.SetAH(VersionMinor)
		r.SetBX(0)
		r.SetCX(0)
	case 0x35:
		offset := memory.Pointer(r.AL()) * 4
		r.SetBX(m.cpu.ReadWord(offset))
		r.SetES(m.cpu.ReadWord(offset + 2))
	case 0x4C:
		m.cpu.Exit(r.AL())
	default:
		log.Printf("Unsupported DOS service: AH=0x%02X", r.AH())
		return processor.ErrInterruptNotHandled
	}
	return nil
}

// readLine implements buffered input (AH=0Ah). The first byte of the buffer
// is its capacity including the terminating CR.
func (m *Device) readLine(buf memory.Address) error {
	max := int(m.cpu.ReadByte(buf.Pointer()))
	if max == 0 {
		return nil
	}

	for {
		c, err := m.readChar()
		if err != nil {
			return err
		}

		switch {
		case c == 0:
			// Drop the scan code of extended keys.
			m.extended = 0
		case c == '\r':
			m.write('\r')
			data := buf.AddInt(2).Pointer()
			for i, v := range m.line {
				m.cpu.WriteByte(data.Add(i), v)
			}
			m.cpu.WriteByte(data.Add(len(m.line)), '\r')
			m.cpu.WriteByte(buf.AddInt(1).Pointer(), byte(len(m.line)))
			m.line = nil
			return nil
		case c == '\b':
			if len(m.line) > 0 {
				m.line = m.line[:len(m.line)-1]
				m.write('\b')
				m.write(' ')
				m.write('\b')
			}
		case len(m.line) < max-1:
			m.line = append(m.line, c)
			m.write(c)
		default:
			m.write(0x07)
		}
	}
}
