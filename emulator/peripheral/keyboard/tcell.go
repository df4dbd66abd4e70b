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
	"github.com/gdamore/tcell"
	"github.com/pkg/errors"
)

// SendKeyEvent queues a terminal key event.
func (m *Device) SendKeyEvent(ev interface{}) error {
	switch t := ev.(type) {
	case *tcell.EventKey:
		k := createEventFromTCELL(t)
		if k.Scan == ScanInvalid {
			return errors.Errorf("unknown key: %s", t.Name())
		}
		m.Push(k)
	default:
		return errors.New("unknown event type")
	}
	return nil
}

func createEventFromTCELL(ev *tcell.EventKey) Key {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyEnter, tcell.KeyTab, tcell.KeyBackspace:
		return KeyFromASCII(byte(ev.Key()))
	case tcell.KeyBackspace2:
		return KeyFromASCII('\b')
	case tcell.KeyDown:
		return Key{Scan: ScanKPDown}
	case tcell.KeyLeft:
		return Key{Scan: ScanKPLeft}
	case tcell.KeyRight:
		return Key{Scan: ScanKPRight}
	case tcell.KeyUp:
		return Key{Scan: ScanKPUp}
	case tcell.KeyPrint:
		return Key{Scan: ScanPrint}
	case tcell.KeyDelete:
		return Key{Scan: ScanKPDelete}
	case tcell.KeyInsert:
		return Key{Scan: ScanKPInsert}
	case tcell.KeyEnd:
		return Key{Scan: ScanKPEnd}
	case tcell.KeyPgUp:
		return Key{Scan: ScanKPPageup}
	case tcell.KeyPgDn:
		return Key{Scan: ScanKPPagedown}
	case tcell.KeyHome:
		return Key{Scan: ScanKPHome}
	case tcell.KeyF1, tcell.KeyF2, tcell.KeyF3, tcell.KeyF4, tcell.KeyF5,
		tcell.KeyF6, tcell.KeyF7, tcell.KeyF8, tcell.KeyF9, tcell.KeyF10:
		return Key{Scan: ScanF1 + Scancode(ev.Key()-tcell.KeyF1)}
	case tcell.KeyRune:
		if c := ev.Rune(); c > 0x1F && c < 0x7F {
			return KeyFromASCII(byte(c))
		}
	default:
		// Control combinations report their ASCII code as the key.
		if k := ev.Key(); k > 0 && k < 0x20 {
			return KeyFromASCII(byte(k))
		}
	}
	return Key{Scan: ScanInvalid}
}
