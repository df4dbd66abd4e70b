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

package video

import (
	"bytes"
	"testing"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/peripheral"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/rom"
	"github.com/andreas-jonsson/realxt/emulator/processor/cpu"
)

type testConsole struct {
	frames []Frame
}

func (c *testConsole) Update(f *Frame) {
	c.frames = append(c.frames, *f)
}

func newTestCPU(t *testing.T, dev *Device, code ...byte) *cpu.CPU {
	t.Helper()

	p, errs := cpu.NewCPU([]peripheral.Peripheral{&rom.Device{}, dev})
	for _, err := range errs {
		t.Fatal(err)
	}

	p.SetCS(0x1000)
	p.SetDS(0x1000)
	p.SetES(0x1000)
	p.SetSS(0x1000)
	p.SetSP(0xFFFE)
	p.IP = 0x100
	p.Memory().Write(memory.NewPointer(0x1000, 0x100), code)
	return p
}

func step(t *testing.T, p *cpu.CPU, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := p.Step(); err != nil {
			t.Fatal(err)
		}
	}
}

func textAt(p *cpu.CPU, x, y int) byte {
	return p.ReadByte(memory.NewPointer(TextSegment, uint16((y*80+x)*2)))
}

func TestTeletype(t *testing.T) {
	var out bytes.Buffer
	dev := &Device{Output: &out}
	p := newTestCPU(t, dev,
		0xB4, 0x0E, // MOV AH,0Eh
		0xB0, 'H', // MOV AL,'H'
		0xCD, 0x10, // INT 10h
		0xB0, 'i', // MOV AL,'i'
		0xCD, 0x10, // INT 10h
		0xB4, 0x03, // MOV AH,3
		0xB7, 0x00, // MOV BH,0
		0xCD, 0x10, // INT 10h
	)
	step(t, p, 8)

	if out.String() != "Hi" {
		t.Errorf("expected output \"Hi\", got %q", out.String())
	}
	if textAt(p, 0, 0) != 'H' || textAt(p, 1, 0) != 'i' {
		t.Error("text buffer was not updated")
	}
	if attr := p.ReadByte(memory.NewPointer(TextSegment, 1)); attr != DefaultAttribute {
		t.Errorf("expected attribute 0x07, got 0x%02X", attr)
	}
	if p.DH() != 0 || p.DL() != 2 {
		t.Errorf("expected cursor at 0,2, got %d,%d", p.DH(), p.DL())
	}
}

func TestScroll(t *testing.T) {
	dev := &Device{}
	newTestCPU(t, dev)

	dev.setCursor(0, 0, 24)
	for _, c := range []byte("top\r\nnext") {
		dev.Teletype(c)
	}

	f := dev.Frame()
	if string(f.Text[23*160:23*160+6]) != "t\x07o\x07p\x07" {
		t.Errorf("expected previous line to scroll up, got %q", f.Text[23*160:23*160+6])
	}
	if f.Text[24*160] != 'n' || f.CursorY != 24 || f.CursorX != 4 {
		t.Errorf("unexpected cursor or text: %d,%d", f.CursorX, f.CursorY)
	}
}

func TestWriteString(t *testing.T) {
	dev := &Device{}
	p := newTestCPU(t, dev,
		0xB8, 0x01, 0x13, // MOV AX,1301h
		0xBB, 0x1E, 0x00, // MOV BX,001Eh
		0xB9, 0x03, 0x00, // MOV CX,3
		0xBA, 0x05, 0x02, // MOV DX,0205h
		0xBD, 0x00, 0x02, // MOV BP,200h
		0xCD, 0x10, // INT 10h
	)
	p.Memory().Write(memory.NewPointer(0x1000, 0x200), []byte("abc"))
	step(t, p, 6)

	for i, c := range []byte("abc") {
		if textAt(p, 5+i, 2) != c {
			t.Errorf("expected %q at column %d", c, 5+i)
		}
	}
	if attr := p.ReadByte(memory.NewPointer(TextSegment, uint16((2*80+5)*2+1))); attr != 0x1E {
		t.Errorf("expected attribute 0x1E, got 0x%02X", attr)
	}
	if x, y := dev.cursor(0); x != 8 || y != 2 {
		t.Errorf("expected cursor at 8,2, got %d,%d", x, y)
	}
}

func TestWriteCharAttr(t *testing.T) {
	dev := &Device{}
	p := newTestCPU(t, dev,
		0xB8, 0x2A, 0x09, // MOV AX,092Ah
		0xBB, 0x4F, 0x00, // MOV BX,004Fh
		0xB9, 0x03, 0x00, // MOV CX,3
		0xCD, 0x10, // INT 10h
	)
	step(t, p, 4)

	for x := 0; x < 3; x++ {
		if textAt(p, x, 0) != '*' {
			t.Errorf("expected '*' at column %d", x)
		}
	}
	if x, _ := dev.cursor(0); x != 0 {
		t.Error("write char should not move the cursor")
	}
}

func TestGraphicsMode(t *testing.T) {
	dev := &Device{}
	p := newTestCPU(t, dev,
		0xB8, 0x13, 0x00, // MOV AX,13h
		0xCD, 0x10, // INT 10h
		0xB8, 0x0F, 0x0C, // MOV AX,0C0Fh
		0xB9, 0x0A, 0x00, // MOV CX,10
		0xBA, 0x02, 0x00, // MOV DX,2
		0xCD, 0x10, // INT 10h
		0xB4, 0x0D, // MOV AH,0Dh
		0xCD, 0x10, // INT 10h
		0xB4, 0x0F, // MOV AH,0Fh
		0xCD, 0x10, // INT 10h
	)
	step(t, p, 10)

	if v := p.ReadByte(memory.NewPointer(GraphicsSegment, 2*320+10)); v != 0x0F {
		t.Errorf("expected pixel 0x0F, got 0x%02X", v)
	}
	if p.AL() != ModeVGA {
		t.Errorf("expected mode 13h, got 0x%02X", p.AL())
	}
	if p.ReadByte(memory.NewPointer(rom.DataSegment, 0x49)) != ModeVGA {
		t.Error("mode not stored in BIOS data area")
	}
}

func TestConsoleRefresh(t *testing.T) {
	con := &testConsole{}
	dev := &Device{Console: con, RefreshInterval: 2}
	p := newTestCPU(t, dev, 0x90, 0x90, 0x90, 0x90, 0x90, 0x90)

	step(t, p, 2)
	if len(con.frames) != 1 {
		t.Fatalf("expected one frame, got %d", len(con.frames))
	}
	step(t, p, 2)
	if len(con.frames) != 1 {
		t.Error("unchanged screen should not be sent again")
	}

	dev.Teletype('!')
	step(t, p, 2)
	if len(con.frames) != 2 || con.frames[1].Text[0] != '!' {
		t.Error("expected updated frame")
	}
}

func TestFrameClamped(t *testing.T) {
	dev := &Device{}
	p := newTestCPU(t, dev)

	p.WriteWord(bdaColumns, 0xFFFF)
	p.WriteByte(bdaRows, 0xFF)

	f := dev.Frame()
	if f.Columns != 80 || f.Rows != 25 || len(f.Text) != 80*25*2 {
		t.Errorf("expected an 80x25 frame, got %dx%d with %d bytes", f.Columns, f.Rows, len(f.Text))
	}

	p.WriteWord(bdaColumns, 0)
	if f := dev.Frame(); f.Columns != 80 {
		t.Errorf("expected 80 columns, got %d", f.Columns)
	}
}

func TestCloseFlushes(t *testing.T) {
	con := &testConsole{}
	dev := &Device{Console: con}
	p := newTestCPU(t, dev)

	p.WriteByte(memory.NewPointer(TextSegment, 0), 'A')
	if err := dev.Close(); err != nil {
		t.Fatal(err)
	}
	if len(con.frames) != 1 || con.frames[0].Text[0] != 'A' {
		t.Error("close did not send the final screen")
	}
}
