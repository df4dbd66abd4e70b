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
	"os"
	"testing"
	"time"

	"github.com/andreas-jonsson/realxt/emulator/peripheral/keyboard"
)

func TestDecodeInput(t *testing.T) {
	keys, quit := decodeInput([]byte("ab\r\n\x7f\x1b[A\x1b"), false)
	if quit {
		t.Error("unexpected quit")
	}

	expect := []keyboard.Key{
		keyboard.KeyFromASCII('a'),
		keyboard.KeyFromASCII('b'),
		keyboard.KeyFromASCII('\r'),
		keyboard.KeyFromASCII('\b'),
		{Scan: keyboard.ScanKPUp},
		keyboard.KeyFromASCII(0x1B),
	}
	if len(keys) != len(expect) {
		t.Fatalf("expected %d keys, got %d", len(expect), len(keys))
	}
	for i, k := range expect {
		if keys[i] != k {
			t.Errorf("key %d: expected %v, got %v", i, k, keys[i])
		}
	}
}

func TestDecodeCtrlC(t *testing.T) {
	if keys, quit := decodeInput([]byte{ctrlC}, true); !quit || len(keys) != 0 {
		t.Error("Ctrl-C should quit in raw mode")
	}
	if keys, quit := decodeInput([]byte{ctrlC}, false); quit || len(keys) != 1 {
		t.Error("Ctrl-C should be a key when not in raw mode")
	}
}

func TestPipedInput(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	kb := &keyboard.Device{}
	term, err := NewTerminal(r, kb, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer term.Close()

	if term.Raw() {
		t.Error("a pipe is not a terminal")
	}

	w.Write([]byte("y"))
	w.Close()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if k, ok := kb.PeekKey(); ok {
			if k.ASCII != 'y' {
				t.Errorf("expected 'y', got %v", k)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Error("no key received")
}
