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

package keyboard

import (
	"testing"
	"time"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/peripheral"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/rom"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/andreas-jonsson/realxt/emulator/processor/cpu"
	"github.com/gdamore/tcell"
	"github.com/pkg/errors"
)

func newTestCPU(t *testing.T, kb *Device, code ...byte) *cpu.CPU {
	t.Helper()

	p, errs := cpu.NewCPU([]peripheral.Peripheral{&rom.Device{}, kb})
	for _, err := range errs {
		t.Fatal(err)
	}

	p.SetCS(0x1000)
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

func TestKeyFromASCII(t *testing.T) {
	cases := []struct {
		c    byte
		want Key
	}{
		{'a', Key{ScanA, 'a'}},
		{'A', Key{ScanA, 'A'}},
		{'1', Key{Scan1, '1'}},
		{' ', Key{ScanSpace, ' '}},
		{'\n', Key{ScanEnter, '\r'}},
		{0x1B, Key{ScanEscape, 0x1B}},
		{0x03, Key{ScanC, 0x03}},
	}
	for _, c := range cases {
		if k := KeyFromASCII(c.c); k != c.want {
			t.Errorf("0x%02X: expected %+v, got %+v", c.c, c.want, k)
		}
	}

	if w := (Key{ScanA, 'a'}).Word(); w != 0x1E61 {
		t.Errorf("expected 0x1E61, got 0x%04X", w)
	}
}

func TestReadKey(t *testing.T) {
	kb := &Device{}
	p := newTestCPU(t, kb,
		0xB4, 0x01, // MOV AH,1
		0xCD, 0x16, // INT 16h
		0xB4, 0x00, // MOV AH,0
		0xCD, 0x16, // INT 16h
		0xB4, 0x01, // MOV AH,1
		0xCD, 0x16, // INT 16h
	)
	kb.Type("x")

	step(t, p, 2)
	if p.AX() != 0x2D78 || p.Flags.GetBool(processor.Zero) {
		t.Fatalf("peek: expected 0x2D78 with ZF clear, got 0x%04X", p.AX())
	}

	step(t, p, 2)
	if p.AX() != 0x2D78 {
		t.Fatalf("read: expected 0x2D78, got 0x%04X", p.AX())
	}

	step(t, p, 2)
	if !p.Flags.GetBool(processor.Zero) {
		t.Error("peek on empty buffer should set ZF")
	}
}

func TestNoInput(t *testing.T) {
	kb := &Device{}
	p := newTestCPU(t, kb,
		0xB4, 0x00, // MOV AH,0
		0xCD, 0x16, // INT 16h
	)

	step(t, p, 1)
	err := p.Step()
	if !errors.Is(err, ErrNoInput) {
		t.Fatal("expected ErrNoInput, got", err)
	}
	if p.IP != 0x102 {
		t.Errorf("expected IP at the INT instruction, got 0x%X", p.IP)
	}

	kb.Type("q")
	step(t, p, 1)
	if p.AL() != 'q' {
		t.Errorf("expected 'q', got 0x%02X", p.AL())
	}
}

func TestBlockingRead(t *testing.T) {
	kb := &Device{Blocking: true}
	newTestCPU(t, kb)

	go func() {
		time.Sleep(10 * time.Millisecond)
		kb.Type("z")
	}()
	k, err := kb.ReadKey()
	if err != nil || k.ASCII != 'z' {
		t.Fatalf("expected 'z', got %+v (%v)", k, err)
	}

	go kb.Interrupt()
	if _, err := kb.ReadKey(); !errors.Is(err, ErrInterrupted) {
		t.Fatal("expected ErrInterrupted, got", err)
	}
}

func TestStaleInterrupt(t *testing.T) {
	kb := &Device{Blocking: true}
	newTestCPU(t, kb)

	kb.Interrupt()
	kb.ClearInterrupt()

	go func() {
		time.Sleep(10 * time.Millisecond)
		kb.Type("q")
	}()
	if k, err := kb.ReadKey(); err != nil || k.ASCII != 'q' {
		t.Fatalf("expected 'q', got %+v (%v)", k, err)
	}

	go kb.Close()
	if _, err := kb.ReadKey(); !errors.Is(err, ErrInterrupted) {
		t.Fatal("close should release the reader, got", err)
	}
}

func TestPorts(t *testing.T) {
	kb := &Device{}
	newTestCPU(t, kb)

	if kb.In(0x64) != 0 {
		t.Error("expected empty status")
	}
	kb.Type("a")
	if kb.In(0x64) != 1 || kb.In(0x60) != byte(ScanA) {
		t.Error("expected scan code of the pending key")
	}
}

func TestTCellEvent(t *testing.T) {
	kb := &Device{}
	newTestCPU(t, kb)

	events := []*tcell.EventKey{
		tcell.NewEventKey(tcell.KeyRune, 'h', tcell.ModNone),
		tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone),
		tcell.NewEventKey(tcell.KeyF2, 0, tcell.ModNone),
	}
	for _, ev := range events {
		if err := kb.SendKeyEvent(ev); err != nil {
			t.Fatal(err)
		}
	}
	if err := kb.SendKeyEvent(tcell.NewEventResize(80, 25)); err == nil {
		t.Error("expected error for non-key event")
	}

	want := []Key{{ScanH, 'h'}, {ScanEnter, '\r'}, {ScanF2, 0}}
	for _, w := range want {
		k, err := kb.ReadKey()
		if err != nil {
			t.Fatal(err)
		}
		if k != w {
			t.Errorf("expected %+v, got %+v", w, k)
		}
	}
}
