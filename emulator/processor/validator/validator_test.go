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

package validator

import (
	"bytes"
	"io"
	"testing"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/andreas-jonsson/realxt/emulator/processor/cpu"
	"github.com/andreas-jonsson/realxt/version"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

func runProgram(t *testing.T, tr cpu.Tracer, code ...byte) {
	t.Helper()

	p, errs := cpu.NewCPU(nil)
	for _, err := range errs {
		t.Fatal(err)
	}
	p.SetCS(0x1000)
	p.SetDS(0x1000)
	p.SetES(0x1000)
	p.SetSS(0x1000)
	p.SetSP(0x100)
	p.IP = 0x100
	p.Memory().Write(memory.NewPointer(0x1000, 0x100), code)
	p.SetTracer(tr)

	for {
		if err := p.Step(); err != nil {
			if !errors.Is(err, processor.ErrCPUHalt) {
				t.Fatal(err)
			}
			return
		}
	}
}

func readAll(t *testing.T, r io.Reader) (*Decoder, []*Event) {
	t.Helper()

	dec, err := NewReader(r)
	if err != nil {
		t.Fatal(err)
	}

	var events []*Event
	for {
		ev, err := dec.Next()
		if err == io.EOF {
			return dec, events
		}
		if err != nil {
			t.Fatal(err)
		}
		events = append(events, ev)
	}
}

func TestRecord(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, 4)
	if err != nil {
		t.Fatal(err)
	}

	runProgram(t, rec,
		0xB8, 0x34, 0x12, // MOV AX,1234h
		0x50, // PUSH AX
		0x5B, // POP BX
		0xF4, // HLT
	)
	if rec.Count() != 4 {
		t.Errorf("expected 4 events, got %d", rec.Count())
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	dec, events := readAll(t, &buf)
	if dec.Header.Version() != version.New(version.Current.Major, version.Current.Minor, version.Current.Patch) || dec.Header.Hash != version.Hash {
		t.Error("header does not carry the current version")
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	mov := events[0]
	if mov.Location() != memory.NewAddress(0x1000, 0x100) || !bytes.Equal(mov.Bytes(), []byte{0xB8, 0x34, 0x12}) {
		t.Errorf("unexpected first event: %v", mov)
	}
	before, after := mov.Registers()
	if before.AX() != 0 || after.AX() != 0x1234 || after.IP != 0x103 {
		t.Error("unexpected register state around MOV")
	}

	push := events[1]
	if w := push.Writes(); len(w) != 2 || w[0].Addr != memory.NewPointer(0x1000, 0xFE) || w[0].Data != 0x34 || w[1].Data != 0x12 {
		t.Errorf("unexpected writes for PUSH: %v", w)
	}
	if r := events[2].Reads(); len(r) != 2 || r[1].Data != 0x12 {
		t.Errorf("unexpected reads for POP: %v", r)
	}
}

func TestOverflow(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, 0)
	if err != nil {
		t.Fatal(err)
	}

	runProgram(t, rec,
		0xB9, 0x20, 0x00, // MOV CX,20h
		0xBE, 0x00, 0x02, // MOV SI,200h
		0xBF, 0x00, 0x03, // MOV DI,300h
		0xF3, 0xA4, // REP MOVSB
		0xF4, // HLT
	)
	rec.Close()

	_, events := readAll(t, &buf)
	rep := events[3]
	if rep.Flags&Overflow == 0 || rep.NumReads != MaxMemOps || rep.NumWrites != MaxMemOps {
		t.Errorf("expected overflow with %d operations, got %+v", MaxMemOps, rep)
	}
}

func TestCreate(t *testing.T) {
	fs := afero.NewMemMapFs()
	rec, err := Create(fs, "trace.rxt")
	if err != nil {
		t.Fatal(err)
	}
	runProgram(t, rec, 0x90, 0xF4)
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	fp, err := fs.Open("trace.rxt")
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()

	if _, events := readAll(t, fp); len(events) != 2 {
		t.Errorf("expected 2 events, got %d", len(events))
	}
}

func TestInvalidMagic(t *testing.T) {
	if _, err := NewReader(bytes.NewReader(make([]byte, 64))); !errors.Is(err, ErrInvalidMagic) {
		t.Error("expected ErrInvalidMagic, got", err)
	}
}
