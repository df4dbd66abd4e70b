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
	"io"
	"log"
	"os"

	"github.com/andreas-jonsson/realxt/emulator/peripheral/keyboard"
	"golang.org/x/term"
)

const ctrlC = 3

// KeyQueue accepts decoded key presses.
type KeyQueue interface {
	Push(keys ...keyboard.Key)
}

// Terminal feeds keys typed on the host terminal to the keyboard. When in
// is a terminal it is put in raw mode and Ctrl-C calls the quit function,
// since the terminal no longer raises SIGINT.
type Terminal struct {
	in    *os.File
	state *term.State
	keys  KeyQueue
	quit  func()
}

// IsTerminal reports whether f is connected to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func NewTerminal(in *os.File, keys KeyQueue, quit func()) (*Terminal, error) {
	t := &Terminal{in: in, keys: keys, quit: quit}
	if IsTerminal(in) {
		var err error
		if t.state, err = term.MakeRaw(int(in.Fd())); err != nil {
			return nil, err
		}
	}
	go t.readLoop()
	return t, nil
}

// Raw reports whether the terminal is in raw mode.
func (t *Terminal) Raw() bool {
	return t.state != nil
}

// Close restores the terminal mode.
func (t *Terminal) Close() error {
	if t.state == nil {
		return nil
	}
	return term.Restore(int(t.in.Fd()), t.state)
}

func (t *Terminal) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			keys, quit := decodeInput(buf[:n], t.Raw())
			t.keys.Push(keys...)
			if quit && t.quit != nil {
				t.quit()
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Print(err)
			}
			return
		}
	}
}

var escapeKeys = map[byte]keyboard.Scancode{
	'A': keyboard.ScanKPUp,
	'B': keyboard.ScanKPDown,
	'C': keyboard.ScanKPRight,
	'D': keyboard.ScanKPLeft,
	'H': keyboard.ScanKPHome,
	'F': keyboard.ScanKPEnd,
}

// decodeInput translates a chunk of terminal input. Cursor key escape
// sequences are only recognized when they arrive in one read.
func decodeInput(p []byte, raw bool) (keys []keyboard.Key, quit bool) {
	for i := 0; i < len(p); i++ {
		ch := p[i]
		switch {
		case raw && ch == ctrlC:
			quit = true
			continue
		case ch == 0x1B && i+2 < len(p) && (p[i+1] == '[' || p[i+1] == 'O'):
			if sc, ok := escapeKeys[p[i+2]]; ok {
				keys = append(keys, keyboard.Key{Scan: sc})
				i += 2
				continue
			}
		case ch == 0x7F:
			ch = '\b'
		case ch == '\n' && i > 0 && p[i-1] == '\r':
			continue
		}

		if k := keyboard.KeyFromASCII(ch); k.Scan != keyboard.ScanInvalid {
			keys = append(keys, k)
		}
	}
	return
}
