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

package dos

import (
	"bytes"
	"testing"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/peripheral"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/keyboard"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/rom"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/video"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/andreas-jonsson/realxt/emulator/processor/cpu"
)

type testMachine struct {
	*cpu.CPU
	out bytes.Buffer
	kb  *keyboard.Device
}

func newTestMachine(t *testing.T, code ...byte) *testMachine {
	t.Helper()

	m := &testMachine{kb: &keyboard.Device{}}
	vid := &video.Device{Output: &m.out}
	d := &Device{Terminal: vid, Keyboard: m.kb}

	var errs []error
	m.CPU, errs = cpu.NewCPU([]peripheral.Peripheral{&rom.Device{}, vid, m.kb, d})
	for _, err := range errs {
		t.Fatal(err)
	}

	m.SetCS(0x1000)
	m.SetDS(0x1000)
	m.SetES(0x1000)
	m.SetSS(0x1000)
	m.SetSP(0xFFFE)
	m.IP = 0x100
	m.Memory().Write(memory.NewPointer(0x1000, 0x100), code)
	return m
}

func (m *testMachine) run(t *testing.T) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
		if ok, _ := m.Exited(); ok {
			return
		}
	}
	t.Fatal("program did not exit")
}

func TestPrintString(t *testing.T) {
	m := newTestMachine(t,
		0xBA, 0x00, 0x02, // MOV DX,200h
		0xB4, 0x09, // MOV AH,9
		0xCD, 0x21, // INT 21h
		0xB8, 0x03, 0x4C, // MOV AX,4C03h
		0xCD, 0x21, // INT 21h
	)
	m.Memory().Write(memory.NewPointer(0x1000, 0x200), []byte("Hello, World!\r\n$"))
	m.run(t)

	if m.out.String() != "Hello, World!\r\n" {
		t.Errorf("unexpected output: %q", m.out.String())
	}
	if _, code := m.Exited(); code != 3 {
		t.Errorf("expected exit code 3, got %d", code)
	}
}

func TestTerminate(t *testing.T) {
	m := newTestMachine(t, 0xCD, 0x20) // INT 20h
	m.run(t)

	if _, code := m.Exited(); code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

func TestWriteChar(t *testing.T) {
	m := newTestMachine(t,
		0xB4, 0x02, // MOV AH,2
		0xB2, 'A', // MOV DL,'A'
		0xCD, 0x21, // INT 21h
		0xB4, 0x06, // MOV AH,6
		0xB2, 'B', // MOV DL,'B'
		0xCD, 0x21, // INT 21h
		0xCD, 0x20, // INT 20h
	)
	m.run(t)

	if m.out.String() != "AB" {
		t.Errorf("expected \"AB\", got %q", m.out.String())
	}
}

func TestReadChar(t *testing.T) {
	m := newTestMachine(t,
		0xB4, 0x01, // MOV AH,1
		0xCD, 0x21, // INT 21h
		0x88, 0xC3, // MOV BL,AL
		0xB4, 0x07, // MOV AH,7
		0xCD, 0x21, // INT 21h
		0x88, 0xC7, // MOV BH,AL
		0xCD, 0x20, // INT 20h
	)
	m.kb.Type("xy")
	m.run(t)

	if m.BL() != 'x' || m.BH() != 'y' {
		t.Errorf("expected 'x' and 'y', got 0x%02X and 0x%02X", m.BL(), m.BH())
	}
	if m.out.String() != "x" {
		t.Errorf("expected only the first key echoed, got %q", m.out.String())
	}
}

func TestExtendedKey(t *testing.T) {
	m := newTestMachine(t,
		0xB4, 0x07, // MOV AH,7
		0xCD, 0x21, // INT 21h
		0x88, 0xC3, // MOV BL,AL
		0xB4, 0x07, // MOV AH,7
		0xCD, 0x21, // INT 21h
		0x88, 0xC7, // MOV BH,AL
		0xCD, 0x20, // INT 20h
	)
	m.kb.Push(keyboard.Key{Scan: keyboard.ScanF1})
	m.run(t)

	if m.BL() != 0 || m.BH() != byte(keyboard.ScanF1) {
		t.Errorf("expected 0 then 0x3B, got 0x%02X then 0x%02X", m.BL(), m.BH())
	}
}

func TestDirectInput(t *testing.T) {
	m := newTestMachine(t,
		0xB4, 0x06, // MOV AH,6
		0xB2, 0xFF, // MOV DL,FFh
		0xCD, 0x21, // INT 21h
		0xCD, 0x20, // INT 20h
	)
	m.run(t)

	if !m.Flags.GetBool(processor.Zero) || m.AL() != 0 {
		t.Error("expected ZF set and AL=0 without input")
	}
}

func TestBufferedInput(t *testing.T) {
	m := newTestMachine(t,
		0xB4, 0x0A, // MOV AH,0Ah
		0xBA, 0x00, 0x02, // MOV DX,200h
		0xCD, 0x21, // INT 21h
		0xCD, 0x20, // INT 20h
	)
	m.Memory().WriteByte(memory.NewPointer(0x1000, 0x200), 4)
	m.kb.Type("ab\bcdef\r")
	m.run(t)

	buf := m.Memory().Read(memory.NewPointer(0x1000, 0x200), 6)
	if !bytes.Equal(buf, []byte{4, 3, 'a', 'c', 'd', '\r'}) {
		t.Errorf("unexpected buffer: % X", buf)
	}
	if m.out.String() != "ab\b \bcd\a\a\r" {
		t.Errorf("unexpected echo: %q", m.out.String())
	}
}

func TestBufferedInputResume(t *testing.T) {
	m := newTestMachine(t,
		0xB4, 0x0A, // MOV AH,0Ah
		0xBA, 0x00, 0x02, // MOV DX,200h
		0xCD, 0x21, // INT 21h
		0xCD, 0x20, // INT 20h
	)
	m.Memory().WriteByte(memory.NewPointer(0x1000, 0x200), 10)
	m.kb.Type("hi")

	m.Step()
	m.Step()
	if err := m.Step(); err == nil {
		t.Fatal("expected the read to run out of input")
	}

	m.kb.Type("!\r")
	m.run(t)

	buf := m.Memory().Read(memory.NewPointer(0x1000, 0x202), 4)
	if !bytes.Equal(buf, []byte("hi!\r")) {
		t.Errorf("unexpected buffer: %q", buf)
	}
}

func TestVectors(t *testing.T) {
	m := newTestMachine(t,
		0xB4, 0x30, // MOV AH,30h
		0xCD, 0x21, // INT 21h
		0x89, 0xC6, // MOV SI,AX
		0xBA, 0x34, 0x12, // MOV DX,1234h
		0xB8, 0x60, 0x25, // MOV AX,2560h
		0xCD, 0x21, // INT 21h
		0xB8, 0x60, 0x35, // MOV AX,3560h
		0xCD, 0x21, // INT 21h
		0xCD, 0x20, // INT 20h
	)
	m.run(t)

	if m.ES() != 0x1000 || m.BX() != 0x1234 {
		t.Errorf("expected vector 1000:1234, got %04X:%04X", m.ES(), m.BX())
	}
	if m.SI() != VersionMinor<<8|VersionMajor {
		t.Errorf("unexpected version 0x%04X", m.SI())
	}
}
