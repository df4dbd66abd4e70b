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

package platform

import (
	"testing"
	"time"

	"github.com/andreas-jonsson/realxt/emulator/peripheral/keyboard"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/video"
	"github.com/gdamore/tcell"
)

func newSimulationConsole(t *testing.T, kb *keyboard.Device, quit func()) (tcell.SimulationScreen, *TextConsole) {
	t.Helper()

	s := tcell.NewSimulationScreen("UTF-8")
	c, err := NewTextConsole(s, kb, quit)
	if err != nil {
		t.Fatal(err)
	}
	s.SetSize(80, 25)
	return s, c
}

func TestRender(t *testing.T) {
	s, c := newSimulationConsole(t, nil, nil)
	defer c.Close()

	f := &video.Frame{Columns: 40, Rows: 25, Text: make([]byte, 40*25*2), CursorVisible: true}
	copy(f.Text, []byte{'O', 0x1E, 'K', 0x1E, 0xC9, 0x07})
	c.Update(f)

	cells, width, _ := s.GetContents()
	expect := []rune{'O', 'K', '╔'}
	for i, r := range expect {
		if cell := cells[i]; len(cell.Runes) == 0 || cell.Runes[0] != r {
			t.Errorf("cell %d: expected %q, got %q", i, r, cell.Runes)
		}
	}

	fg, bg, _ := cells[0].Style.Decompose()
	if fg != tcell.ColorYellow || bg != tcell.ColorNavy {
		t.Errorf("unexpected colors: %v on %v", fg, bg)
	}
	if width != 80 {
		t.Errorf("unexpected screen width %d", width)
	}
}

func TestGraphicsFrameIgnored(t *testing.T) {
	s, c := newSimulationConsole(t, nil, nil)
	defer c.Close()

	c.Update(&video.Frame{Mode: video.ModeVGA, Columns: 40, Rows: 25})
	cells, _, _ := s.GetContents()
	for _, cell := range cells {
		if len(cell.Runes) > 0 && cell.Runes[0] != ' ' {
			t.Fatal("graphics frame was rendered")
		}
	}
}

func TestKeyEvents(t *testing.T) {
	kb := &keyboard.Device{}
	quit := make(chan struct{})
	s, c := newSimulationConsole(t, kb, func() { close(quit) })
	defer c.Close()

	s.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	s.InjectKey(tcell.KeyF12, 0, tcell.ModNone)

	select {
	case <-quit:
	case <-time.After(time.Second):
		t.Fatal("F12 did not quit")
	}

	k, ok := kb.PeekKey()
	if !ok || k.ASCII != 'x' || k.Scan != keyboard.ScanX {
		t.Errorf("expected 'x', got %v", k)
	}
}
