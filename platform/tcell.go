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
	"log"
	"sync"

	"github.com/andreas-jonsson/realxt/emulator/peripheral/video"
	"github.com/gdamore/tcell"
)

var cgaPalette = [16]tcell.Color{
	tcell.ColorBlack,
	tcell.ColorNavy,
	tcell.ColorGreen,
	tcell.ColorTeal,
	tcell.ColorMaroon,
	tcell.ColorPurple,
	tcell.ColorOlive,
	tcell.ColorSilver,
	tcell.ColorGray,
	tcell.ColorBlue,
	tcell.ColorLime,
	tcell.ColorAqua,
	tcell.ColorRed,
	tcell.ColorFuchsia,
	tcell.ColorYellow,
	tcell.ColorWhite,
}

// KeyReceiver accepts terminal key events. The keyboard device implements
// it.
type KeyReceiver interface {
	SendKeyEvent(ev interface{}) error
}

// TextConsole renders the emulated text screen with tcell and forwards key
// presses to the keyboard. F12 calls the quit function.
type TextConsole struct {
	lock    sync.Mutex
	screen  tcell.Screen
	keys    KeyReceiver
	quit    func()
	columns int
}

// NewTextConsole takes over the terminal. A nil screen selects the default
// terminal screen.
func NewTextConsole(s tcell.Screen, keys KeyReceiver, quit func()) (*TextConsole, error) {
	if s == nil {
		tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)

		var err error
		if s, err = tcell.NewScreen(); err != nil {
			return nil, err
		}
	}
	if err := s.Init(); err != nil {
		return nil, err
	}

	s.DisableMouse()
	s.HideCursor()
	s.Clear()

	c := &TextConsole{
		screen: s,
		keys:   keys,
		quit:   quit,
	}
	go c.pollEvents()
	return c, nil
}

func (c *TextConsole) pollEvents() {
	for {
		switch ev := c.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyF12 {
				if c.quit != nil {
					c.quit()
				}
				continue
			}
			c.lock.Lock()
			keys := c.keys
			c.lock.Unlock()

			if keys == nil {
				continue
			}
			if err := keys.SendKeyEvent(ev); err != nil {
				log.Print(err)
			}
		case *tcell.EventResize:
			c.lock.Lock()
			c.screen.Sync()
			c.lock.Unlock()
		}
	}
}

// SetKeyReceiver replaces the receiver of key events.
func (c *TextConsole) SetKeyReceiver(keys KeyReceiver) {
	c.lock.Lock()
	c.keys = keys
	c.lock.Unlock()
}

// Update draws f. Graphics frames are ignored.
func (c *TextConsole) Update(f *video.Frame) {
	if f.Text == nil {
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	s := c.screen
	if f.Columns != c.columns {
		c.columns = f.Columns
		s.Clear()
	}

	for y := 0; y < f.Rows; y++ {
		for x := 0; x < f.Columns; x++ {
			offset := (y*f.Columns + x) * 2
			s.SetContent(x, y, toUnicode(f.Text[offset]), nil, createStyleFromAttrib(f.Text[offset+1]))
		}
	}

	if f.CursorVisible {
		s.ShowCursor(f.CursorX, f.CursorY)
	} else {
		s.HideCursor()
	}
	s.Show()
}

// Close restores the terminal.
func (c *TextConsole) Close() {
	c.screen.Fini()
}

func createStyleFromAttrib(attr byte) tcell.Style {
	return tcell.StyleDefault.Blink(attr&0x80 != 0).Background(cgaPalette[attr&0x70>>4]).Foreground(cgaPalette[attr&0xF])
}
