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

// Package keyboard is the keyboard controller and the BIOS keyboard
// services on INT 16h.
package keyboard

import (
	"log"
	"sync"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/rom"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/pkg/errors"
)

var (
	ErrNoInput     = errors.New("no keyboard input")
	ErrInterrupted = errors.New("keyboard read interrupted")
)

var shiftFlags = memory.NewPointer(rom.DataSegment, 0x17)

type Device struct {
	// Blocking makes reads wait for the next key. Otherwise reading from an
	// empty buffer fails with ErrNoInput.
	Blocking bool

	lock   sync.Mutex
	events []Key
	notify chan struct{}
	abort  chan struct{}

	last Scancode
	cpu  processor.Processor
}

func (m *Device) Install(p processor.Processor) error {
	m.cpu = p
	m.notify = make(chan struct{}, 1)
	m.abort = make(chan struct{}, 1)

	if err := p.InstallInterruptHandler(0x16, m); err != nil {
		return err
	}
	return p.InstallIODevice(m, 0x60, 0x64)
}

func (m *Device) Name() string {
	return "Keyboard Controller"
}

// Reset drops buffered keys and pending interrupts.
func (m *Device) Reset() {
	m.lock.Lock()
	m.events = nil
	m.last = ScanInvalid
	m.lock.Unlock()
	m.ClearInterrupt()
}

// Close releases a reader blocked on an empty buffer.
func (m *Device) Close() error {
	m.Interrupt()
	return nil
}

func (m *Device) Step(int) error {
	return nil
}

// Push appends keys to the buffer.
func (m *Device) Push(keys ...Key) {
	m.lock.Lock()
	m.events = append(m.events, keys...)
	m.lock.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Type queues the keystrokes producing s.
func (m *Device) Type(s string) {
	keys := make([]Key, len(s))
	for i := 0; i < len(s); i++ {
		keys[i] = KeyFromASCII(s[i])
	}
	m.Push(keys...)
}

// Interrupt makes a blocked read return ErrInterrupted.
func (m *Device) Interrupt() {
	select {
	case m.abort <- struct{}{}:
	default:
	}
}

// ClearInterrupt drops an Interrupt that no read has consumed.
func (m *Device) ClearInterrupt() {
	select {
	case <-m.abort:
	default:
	}
}

func (m *Device) PeekKey() (Key, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if len(m.events) == 0 {
		return Key{}, false
	}
	return m.events[0], true
}

func (m *Device) ReadKey() (Key, error) {
	for {
		m.lock.Lock()
		if len(m.events) > 0 {
			k := m.events[0]
			m.events = m.events[1:]
			m.last = k.Scan
			m.lock.Unlock()
			return k, nil
		}
		m.lock.Unlock()

		if !m.Blocking {
			return Key{}, ErrNoInput
		}

		select {
		case <-m.notify:
		case <-m.abort:
			return Key{}, ErrInterrupted
		}
	}
}

func (m *Device) HandleInterrupt(int) error {
	r := m.cpu.GetRegisters()
	switch r.AH() {
	case 0x00, 0x10:
		k, err := m.ReadKey()
		if err != nil {
			return err
		}
		r.SetAX(k.Word())
	case 0x01, 0x11:
		k, ok := m.PeekKey()
		if ok {
			r.SetAX(k.Word())
		}
		r.Flags.SetBool(processor.Zero, !ok)
	case 0x02, 0x12:
		r.SetAL(m.cpu.ReadByte(shiftFlags))
	case 0x05:
		m.Push(Key{Scancode(r.CH()), r.CL()})
		r.SetAL(0)
	default:
		log.Printf("Unsupported keyboard service: AH=0x%02X", r.AH())
		return processor.ErrInterruptNotHandled
	}
	return nil
}

func (m *Device) In(port uint16) byte {
	switch port {
	case 0x60:
		if k, ok := m.PeekKey(); ok {
			return byte(k.Scan)
		}
		m.lock.Lock()
		defer m.lock.Unlock()
		return byte(m.last)
	case 0x64:
		if _, ok := m.PeekKey(); ok {
			return 1
		}
	}
	return 0
}

func (m *Device) Out(port uint16, data byte) {
}
