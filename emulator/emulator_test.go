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

package emulator

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/andreas-jonsson/realxt/emulator/processor/cpu"
	"github.com/andreas-jonsson/realxt/emulator/processor/decoder"
	"github.com/andreas-jonsson/realxt/emulator/snapshot"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var helloWorld = []byte{
	0xBA, 0x0D, 0x01, // MOV DX,010Dh
	0xB4, 0x09, // MOV AH,9
	0xCD, 0x21, // INT 21h
	0xB8, 0x05, 0x4C, // MOV AX,4C05h
	0xCD, 0x21, // INT 21h
	0x00,
	'H', 'e', 'l', 'l', 'o', '$',
}

func newTestMachine(t *testing.T, cfg Config, code []byte) *Machine {
	t.Helper()

	if cfg.Fs == nil {
		cfg.Fs = afero.NewMemMapFs()
	}
	m, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if code != nil {
		if _, err := m.LoadImage(code); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestHelloWorld(t *testing.T) {
	var out bytes.Buffer
	m := newTestMachine(t, Config{Output: &out}, helloWorld)
	defer m.Close()

	res, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != StopExited || res.ExitCode != 5 {
		t.Errorf("expected exit code 5, got %v with %d", res.Reason, res.ExitCode)
	}
	if res.Instructions != 5 {
		t.Errorf("expected 5 instructions, got %d", res.Instructions)
	}
	if out.String() != "Hello" {
		t.Errorf("expected \"Hello\", got %q", out.String())
	}
	if f := m.Screen(); f.Text[0] != 'H' || f.CursorX != 5 {
		t.Error("text screen not updated")
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "HELLO.COM", helloWorld, 0644)

	m := newTestMachine(t, Config{Fs: fs}, nil)
	prog, err := m.Load("HELLO.COM")
	if err != nil {
		t.Fatal(err)
	}
	if m.Program() != prog || prog.Size != len(helloWorld) {
		t.Errorf("unexpected program: %v", prog)
	}
	if _, err := m.Load("MISSING.COM"); err == nil {
		t.Error("expected error for missing program")
	}
}

func TestBudget(t *testing.T) {
	m := newTestMachine(t, Config{Budget: 100}, []byte{0xEB, 0xFE}) // JMP $

	res, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != StopBudget || res.Instructions != 100 {
		t.Errorf("expected budget stop after 100 instructions, got %v after %d", res.Reason, res.Instructions)
	}
}

func TestHalt(t *testing.T) {
	m := newTestMachine(t, Config{}, []byte{0x90, 0xF4})

	res, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != StopHalted || res.Instructions != 2 {
		t.Errorf("expected halt after 2 instructions, got %v after %d", res.Reason, res.Instructions)
	}
}

func TestCancel(t *testing.T) {
	m := newTestMachine(t, Config{}, []byte{0xEB, 0xFE})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := m.Run(ctx)
	if !errors.Is(err, context.Canceled) || res.Reason != StopCanceled {
		t.Errorf("expected cancellation, got %v (%v)", res.Reason, err)
	}
}

func TestCancelBlockedRead(t *testing.T) {
	m := newTestMachine(t, Config{BlockingInput: true}, []byte{
		0xB4, 0x00, // MOV AH,0
		0xCD, 0x16, // INT 16h
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := m.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) || res.Reason != StopCanceled {
		t.Errorf("expected deadline, got %v (%v)", res.Reason, err)
	}
}

func TestResumeAfterCancel(t *testing.T) {
	m := newTestMachine(t, Config{BlockingInput: true}, []byte{
		0xB4, 0x00, // MOV AH,0
		0xCD, 0x16, // INT 16h
		0xB4, 0x4C, // MOV AH,4Ch
		0xCD, 0x21, // INT 21h
	})

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if res, err := m.Run(canceled); !errors.Is(err, context.Canceled) || res.Reason != StopCanceled {
		t.Fatalf("expected cancellation, got %v (%v)", res.Reason, err)
	}

	blocked, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if res, err := m.Run(blocked); !errors.Is(err, context.DeadlineExceeded) || res.Reason != StopCanceled {
		t.Fatalf("expected deadline, got %v (%v)", res.Reason, err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		m.Keyboard().Type("r")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := m.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != StopExited || res.ExitCode != 'r' {
		t.Errorf("expected exit code 'r', got %v with 0x%02X", res.Reason, res.ExitCode)
	}
}

func TestBreak(t *testing.T) {
	m := newTestMachine(t, Config{}, []byte{0x90, 0xEB, 0xFD}) // NOP; JMP -3

	go func() {
		time.Sleep(10 * time.Millisecond)
		m.Break()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := m.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != StopBreak {
		t.Fatalf("expected break, got %v", res.Reason)
	}
	if res.Stats.NumInstructions != res.Instructions || res.Stats.NOP == 0 {
		t.Errorf("unexpected stats: %+v for %d instructions", res.Stats, res.Instructions)
	}
}

func TestScriptedInput(t *testing.T) {
	var out bytes.Buffer
	m := newTestMachine(t, Config{Input: "k", Output: &out}, []byte{
		0xB4, 0x01, // MOV AH,1
		0xCD, 0x21, // INT 21h
		0xB4, 0x4C, // MOV AH,4Ch
		0xCD, 0x21, // INT 21h
	})

	res, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.ExitCode != 'k' || out.String() != "k" {
		t.Errorf("expected exit code 'k' and echo, got 0x%02X and %q", res.ExitCode, out.String())
	}
}

func TestFault(t *testing.T) {
	m := newTestMachine(t, Config{}, []byte{0x90, 0x60})

	res, err := m.Run(context.Background())
	if !errors.Is(err, decoder.ErrUnknownOpcode) {
		t.Fatal("expected UnknownOpcode, got", err)
	}
	if res.Reason != StopFault || res.Instructions != 1 {
		t.Errorf("expected fault after 1 instruction, got %v after %d", res.Reason, res.Instructions)
	}

	var f *cpu.Fault
	if !errors.As(err, &f) {
		t.Fatal("expected a Fault")
	}
	if f.Address != memory.NewAddress(0x085F, 0x101) || !bytes.Equal(f.Bytes, []byte{0x60}) {
		t.Errorf("unexpected fault location: %v % X", f.Address, f.Bytes)
	}
}

func TestSnapshotDeterminism(t *testing.T) {
	code := []byte{
		0xB9, 0x00, 0x10, // MOV CX,1000h
		0x01, 0xC8, // ADD AX,CX
		0xE2, 0xFC, // LOOP -4
		0xF4, // HLT
	}

	var snaps [2][]byte
	for i := range snaps {
		m := newTestMachine(t, Config{TimerInterval: 100}, code)
		if _, err := m.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		var err error
		if snaps[i], err = m.Snapshot().MarshalBinary(); err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(snaps[0], snaps[1]) {
		t.Error("identical runs produced different snapshots")
	}
}

func TestSnapshotRestore(t *testing.T) {
	fs := afero.NewMemMapFs()
	code := []byte{
		0x40, // INC AX
		0x40, // INC AX
		0xF4, // HLT
	}
	m := newTestMachine(t, Config{Fs: fs}, code)

	if err := m.Step(); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveSnapshot("state.sz"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	final := m.Snapshot()

	if err := m.LoadSnapshot("state.sz"); err != nil {
		t.Fatal(err)
	}
	if r := m.Registers(); r.AX() != 1 || r.IP != 0x101 {
		t.Errorf("expected AX=1 at IP=0x101, got AX=%d IP=0x%X", r.AX(), r.IP)
	}
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if d := snapshot.Diff(final, m.Snapshot()); !d.Empty() {
		t.Errorf("resumed run differs:\n%v", d)
	}
}

func TestReset(t *testing.T) {
	m := newTestMachine(t, Config{}, helloWorld)
	m.Reset()

	if m.Program() != nil {
		t.Error("reset should discard the program")
	}
	if r := m.Registers(); r.CS() != 0xFFFF || r.IP != 0 || r.Flags != processor.ResetFlags {
		t.Error("unexpected power-on registers")
	}

	res, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != StopHalted {
		t.Errorf("expected halt without a program, got %v", res.Reason)
	}
}
