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

package decoder

import (
	"bytes"
	"testing"

	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/pkg/errors"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		code   []byte
		length byte
		text   string
	}{
		{[]byte{0x90}, 1, "NOP"},
		{[]byte{0xB8, 0x34, 0x12}, 3, "MOV AX, 0x1234"},
		{[]byte{0xB4, 0x09}, 2, "MOV AH, 0x09"},
		{[]byte{0x01, 0xD8}, 2, "ADD AX, BX"},
		{[]byte{0x8B, 0x46, 0xFE}, 3, "MOV AX, [BP-0x2]"},
		{[]byte{0x89, 0x87, 0x00, 0x01}, 4, "MOV [BX+0x100], AX"},
		{[]byte{0x8B, 0x0E, 0x34, 0x12}, 4, "MOV CX, [0x1234]"},
		{[]byte{0x26, 0x8A, 0x00}, 3, "MOV AL, ES:[BX+SI]"},
		{[]byte{0x83, 0xC3, 0xFF}, 3, "ADD BX, 0xFF"},
		{[]byte{0x80, 0x3E, 0x00, 0x02, 0x41}, 5, "CMP [0x0200], 0x41"},
		{[]byte{0xF6, 0xC4, 0x80}, 3, "TEST AH, 0x80"},
		{[]byte{0xF7, 0xF3}, 2, "DIV BX"},
		{[]byte{0xD1, 0xE0}, 2, "SHL AX, 0x01"},
		{[]byte{0xD2, 0xC8}, 2, "ROR AL, CL"},
		{[]byte{0x8E, 0xD8}, 2, "MOV DS, AX"},
		{[]byte{0x8C, 0xC8}, 2, "MOV AX, CS"},
		{[]byte{0x1E}, 1, "PUSH DS"},
		{[]byte{0x0F}, 1, "POP CS"},
		{[]byte{0x75, 0xFE}, 2, "JNZ -2"},
		{[]byte{0xE8, 0x00, 0x01}, 3, "CALL +256"},
		{[]byte{0xEA, 0x00, 0x00, 0xFF, 0xFF}, 5, "JMP FAR FFFF:0000"},
		{[]byte{0xFF, 0x1E, 0x10, 0x00}, 4, "CALL FAR [0x0010]"},
		{[]byte{0xCD, 0x21}, 2, "INT 0x21"},
		{[]byte{0xF3, 0xA4}, 2, "REP MOVSB"},
		{[]byte{0xF3, 0xA7}, 2, "REPE CMPSW"},
		{[]byte{0xF2, 0xAE}, 2, "REPNE SCASB"},
		{[]byte{0xE4, 0x60}, 2, "IN AL, 0x60"},
		{[]byte{0xEF}, 1, "OUT DX, AX"},
		{[]byte{0xA1, 0x6C, 0x04}, 3, "MOV AX, [0x046C]"},
		{[]byte{0xC2, 0x04, 0x00}, 3, "RET 0x0004"},
		{[]byte{0xD4, 0x0A}, 2, "AAM 0x0A"},
		{[]byte{0x8D, 0x40, 0x02}, 3, "LEA AX, [BX+SI+0x2]"},
		{[]byte{0xF0, 0x87, 0x1E, 0x00, 0x10}, 5, "LOCK XCHG [0x1000], BX"},
		{[]byte{0xD9, 0x07}, 2, "ESC [BX]"},
	}

	for _, tst := range tests {
		window := append(append([]byte(nil), tst.code...), 0xCC, 0xCC, 0xCC)
		inst, err := Decode(window)
		if err != nil {
			t.Errorf("% X: %v", tst.code, err)
			continue
		}
		if inst.Length != tst.length {
			t.Errorf("% X: length %d, expected %d", tst.code, inst.Length, tst.length)
		}
		if s := inst.String(); s != tst.text {
			t.Errorf("% X: got %q, expected %q", tst.code, s, tst.text)
		}
	}
}

func TestDecodeOperands(t *testing.T) {
	inst, err := Decode([]byte{0x36, 0xC7, 0x47, 0x02, 0x34, 0x12})
	if err != nil {
		t.Fatal(err)
	}
	if inst.Op != OpMov || inst.Width != processor.Word || inst.Segment != processor.SS {
		t.Fatalf("unexpected instruction: %+v", inst)
	}
	if dst := inst.Dst(); dst.Kind != Mem || dst.Mode != 7 || dst.Disp != 2 {
		t.Errorf("unexpected destination: %+v", dst)
	}
	if src := inst.Src(); src.Kind != Imm || src.Imm != 0x1234 {
		t.Errorf("unexpected source: %+v", src)
	}
	if !bytes.Equal(inst.PrefixBytes(), []byte{0x36}) {
		t.Errorf("unexpected prefixes: % X", inst.PrefixBytes())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		code []byte
		err  error
	}{
		{[]byte{}, ErrTruncated},
		{[]byte{0xB8, 0x34}, ErrTruncated},
		{[]byte{0x8B}, ErrTruncated},
		{[]byte{0x26}, ErrTruncated},
		{[]byte{0x81, 0x06, 0x00, 0x10, 0x01}, ErrTruncated},
		{[]byte{0xEA, 0x00, 0x00, 0xFF}, ErrTruncated},
		{[]byte{0x60}, ErrUnknownOpcode},
		{[]byte{0xC0, 0xE0, 0x01}, ErrUnknownOpcode},
		{[]byte{0xF1}, ErrUnknownOpcode},
		{[]byte{0xFE, 0xD0}, ErrUnknownOpcode},
		{[]byte{0xFF, 0xF8}, ErrUnknownOpcode},
		{[]byte{0x8F, 0xC8}, ErrUnknownOpcode},
		{[]byte{0xD0, 0xF0}, ErrUnknownOpcode},
		{[]byte{0x8C, 0xE0}, ErrUnknownOpcode},
		{[]byte{0x8D, 0xC0}, ErrUnknownOpcode},
		{[]byte{0xFF, 0xD8}, ErrUnknownOpcode},
		{[]byte{0x66, 0x90}, ErrInvalidPrefixCombination},
		{[]byte{0x67, 0x90}, ErrInvalidPrefixCombination},
		{[]byte{0x26, 0x2E, 0x90}, ErrInvalidPrefixCombination},
		{[]byte{0xF2, 0xF3, 0xA4}, ErrInvalidPrefixCombination},
		{[]byte{0x26, 0x26, 0x26, 0x26, 0x26, 0x90}, ErrInvalidPrefixCombination},
	}

	for _, tst := range tests {
		_, err := Decode(tst.code)
		if !errors.Is(err, tst.err) {
			t.Errorf("% X: got %v, expected %v", tst.code, err, tst.err)
		}
	}

	if _, err := Decode([]byte{0x26, 0x26, 0x90}); err != nil {
		t.Error("repeated segment override should be accepted:", err)
	}
}

func TestDecodeErrorBytes(t *testing.T) {
	_, err := Decode([]byte{0x2E, 0xFE, 0xF8})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatal("expected a DecodeError, got", err)
	}
	if de.Kind != UnknownOpcode || !bytes.Equal(de.Bytes, []byte{0x2E, 0xFE, 0xF8}) {
		t.Errorf("unexpected error: %v", de)
	}
}

func sampleWindows() [][]byte {
	var windows [][]byte
	for op := 0; op < 256; op++ {
		for _, modrm := range []byte{0x00, 0x06, 0x0F, 0x46, 0x5B, 0x87, 0xC0, 0xD9, 0xFF} {
			windows = append(windows, []byte{byte(op), modrm, 0x80, 0x12, 0xFE, 0x56, 0x9A, 0xBC})
		}
	}
	return windows
}

func TestRoundTrip(t *testing.T) {
	for _, window := range sampleWindows() {
		inst, err := Decode(window)
		if err != nil {
			continue
		}

		code, err := Encode(inst)
		if err != nil {
			t.Errorf("% X: %v", window, err)
			continue
		}
		if !bytes.Equal(code, window[:inst.Length]) {
			t.Errorf("% X: encoded as % X", window[:inst.Length], code)
			continue
		}

		again, err := Decode(code)
		if err != nil {
			t.Errorf("% X: %v", code, err)
		} else if again != inst {
			t.Errorf("% X: decoded %v, expected %v", code, again, inst)
		}
	}
}

func TestDeterministic(t *testing.T) {
	for _, window := range sampleWindows() {
		orig := append([]byte(nil), window...)
		a, errA := Decode(window)
		b, errB := Decode(window)

		if a != b || (errA == nil) != (errB == nil) {
			t.Errorf("% X: decode is not deterministic", window)
		}
		if !bytes.Equal(window, orig) {
			t.Fatalf("% X: input was modified", orig)
		}
	}
}

func TestTruncatedPrefixes(t *testing.T) {
	for _, window := range sampleWindows() {
		inst, err := Decode(window)
		if err != nil {
			continue
		}
		for n := 0; n < int(inst.Length); n++ {
			if _, err := Decode(window[:n]); !errors.Is(err, ErrTruncated) {
				t.Errorf("% X: expected truncation, got %v", window[:n], err)
			}
		}
	}
}

func TestEncodeMismatch(t *testing.T) {
	inst, err := Decode([]byte{0x01, 0xD8})
	if err != nil {
		t.Fatal(err)
	}
	inst.Op = OpSub
	if _, err := Encode(inst); err == nil {
		t.Error("expected an error for a mismatching operation")
	}
}
