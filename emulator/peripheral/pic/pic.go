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

package pic

import (
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/pkg/errors"
)

var ErrNoInterrupts = errors.New("no interrupts")

// DefaultBase is the vector of IRQ0 as programmed by the PC BIOS.
const DefaultBase = 8

type Device struct {
	maskReg, requestReg, serviceReg, icwStep, readMode byte
	icw                                                [5]byte
}

func (m *Device) Install(p processor.Processor) error {
	p.InstallInterruptController(m)
	return p.InstallIODevice(m, 0x20, 0x21)
}

func (m *Device) Name() string {
	return "Programmable Interrupt Controller (Intel 8259)"
}

func (m *Device) Reset() {
	*m = Device{}
	m.icw[2] = DefaultBase
}

func (m *Device) Step(int) error {
	return nil
}

// GetInterrupt returns the vector of the lowest pending unmasked request
// and moves it in service.
func (m *Device) GetInterrupt() (int, error) {
	has := m.requestReg & (^m.maskReg)
	if has == 0 {
		return 0, ErrNoInterrupts
	}
	for i := 0; i < 8; i++ {
		if (has>>i)&1 != 0 {
			m.requestReg ^= 1 << i
			m.serviceReg |= 1 << i
			return int(m.icw[2]) + i, nil
		}
	}
	return 0, ErrNoInterrupts
}

func (m *Device) IRQ(n int) {
	m.requestReg |= byte(1 << (n & 7))
}

func (m *Device) In(port uint16) byte {
	switch port {
	case 0x20:
		if m.readMode == 0 {
			return m.requestReg
		}
		return m.serviceReg
	case 0x21:
		return m.maskReg
	}
	return 0
}

func (m *Device) Out(port uint16, data byte) {
	switch port {
	case 0x20:
		if data&0x10 != 0 {
			// ICW1 restarts initialization.
			m.icwStep = 1
			m.maskReg = 0
			m.icw[m.icwStep] = data
			m.icwStep++
			return
		}
		if data&0x98 == 8 {
			// OCW3
			m.readMode = data & 1
			return
		}
		if data&0x20 != 0 {
			// Non-specific EOI clears the highest priority in-service bit.
			for i := 0; i < 8; i++ {
				if (m.serviceReg>>i)&1 != 0 {
					m.serviceReg ^= 1 << i
					return
				}
			}
		}
	case 0x21:
		if m.icwStep > 0 && m.icwStep < 5 {
			m.icw[m.icwStep] = data
			m.icwStep++
			if m.icwStep == 3 && m.icw[1]&2 != 0 {
				// Single mode skips ICW3.
				m.icwStep = 4
			}
			if m.icwStep == 4 && m.icw[1]&1 == 0 {
				m.icwStep = 5
			}
			return
		}
		m.maskReg = data
	}
}
