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

// Package platform connects the emulated console to the host terminal.
package platform

import (
	"io"
	"unicode/utf8"
)

func toUnicode(ch byte) rune {
	return codePage437[ch]
}

// Output translates code page 437 console output to UTF-8.
type Output struct {
	w      io.Writer
	keepCR bool
	buf    []byte
}

// NewOutput returns a writer for w. Carriage returns are dropped unless
// keepCR is set, which is needed when the terminal is in raw mode.
func NewOutput(w io.Writer, keepCR bool) *Output {
	return &Output{w: w, keepCR: keepCR}
}

func (o *Output) Write(p []byte) (int, error) {
	o.buf = o.buf[:0]
	for _, ch := range p {
		switch {
		case ch == '\r':
			if o.keepCR {
				o.buf = append(o.buf, ch)
			}
		case ch == '\n', ch == '\t', ch == '\b', ch == 7:
			o.buf = append(o.buf, ch)
		case ch == 0:
			o.buf = append(o.buf, ' ')
		case ch < 0x7F && ch >= 0x20:
			o.buf = append(o.buf, ch)
		default:
			var enc [utf8.UTFMax]byte
			n := utf8.EncodeRune(enc[:], toUnicode(ch))
			o.buf = append(o.buf, enc[:n]...)
		}
	}
	if _, err := o.w.Write(o.buf); err != nil {
		return 0, err
	}
	return len(p), nil
}
