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

// Package emulator assembles the processor, memory and service layer into a
// machine that runs DOS programs.
package emulator

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/andreas-jonsson/realxt/emulator/loader"
	"github.com/andreas-jonsson/realxt/emulator/peripheral"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/dos"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/keyboard"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/pic"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/rom"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/timer"
	"github.com/andreas-jonsson/realxt/emulator/peripheral/video"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/andreas-jonsson/realxt/emulator/processor/cpu"
	"github.com/andreas-jonsson/realxt/emulator/snapshot"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type Config struct {
	// PSPSegment defaults to loader.DefaultPSPSegment.
	PSPSegment  uint16
	CommandTail string

	// Budget limits the number of instructions of one Run. Zero means no
	// limit.
	Budget uint64

	// TimerInterval is the number of instructions between timer
	// interrupts. Zero selects the default and a negative value disables
	// the timer.
	TimerInterval int

	// Output receives console output.
	Output io.Writer

	// Console receives the text screen.
	Console video.Console

	// Input is typed after a program is loaded.
	Input string

	// BlockingInput makes keyboard reads wait for keys instead of failing
	// with keyboard.ErrNoInput.
	BlockingInput bool

	// Fs defaults to the OS file system.
	Fs afero.Fs

	// BIOS is an optional ROM image for segment F000.
	BIOS io.Reader

	Tracer cpu.Tracer
}

type StopReason int

const (
	StopExited StopReason = iota
	StopHalted
	StopBudget
	StopCanceled
	StopBreak
	StopFault
)

func (r StopReason) String() string {
	switch r {
	case StopExited:
		return "exited"
	case StopHalted:
		return "halted"
	case StopBudget:
		return "budget exhausted"
	case StopCanceled:
		return "canceled"
	case StopBreak:
		return "break"
	case StopFault:
		return "fault"
	}
	return "unknown"
}

type Result struct {
	Reason       StopReason
	ExitCode     byte
	Instructions uint64

	// Stats is the processor activity of the run.
	Stats processor.Stats
}

type Machine struct {
	lock sync.Mutex
	cfg  Config

	cpu      *cpu.CPU
	keyboard *keyboard.Device
	video    *video.Device
	program  *loader.Program
}

func New(cfg Config) (*Machine, error) {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}

	m := &Machine{
		cfg:      cfg,
		keyboard: &keyboard.Device{Blocking: cfg.BlockingInput},
		video:    &video.Device{Console: cfg.Console, Output: cfg.Output},
	}

	ctrl := &pic.Device{}
	peripherals := []peripheral.Peripheral{
		&rom.Device{Reader: cfg.BIOS}, // Needs to go first since it sets up the vector table.
		ctrl,                          // Programmable Interrupt Controller
		&timer.Device{PIC: ctrl, Interval: cfg.TimerInterval},
		m.video,
		m.keyboard,
		&dos.Device{Terminal: m.video, Keyboard: m.keyboard},
	}

	var errs []error
	if m.cpu, errs = cpu.NewCPU(peripherals); len(errs) > 0 {
		for _, err := range errs[1:] {
			log.Print(err)
		}
		return nil, errs[0]
	}
	if cfg.Tracer != nil {
		m.cpu.SetTracer(cfg.Tracer)
	}
	return m, nil
}

// Close releases blocked keyboard reads and sends the final screen to the
// console.
func (m *Machine) Close() {
	m.keyboard.Close()

	m.lock.Lock()
	defer m.lock.Unlock()
	m.cpu.Close()
}

// Load resets the machine and loads the program name from the configured
// file system.
func (m *Machine) Load(name string) (*loader.Program, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.cpu.Reset()
	prog, err := loader.LoadFile(m.cpu, m.cfg.Fs, name, m.loaderOptions())
	return m.loaded(prog, err)
}

// LoadImage resets the machine and loads a program image. MZ images are
// loaded as EXE, everything else as COM.
func (m *Machine) LoadImage(data []byte) (*loader.Program, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.cpu.Reset()
	prog, err := loader.Load(m.cpu, data, m.loaderOptions())
	return m.loaded(prog, err)
}

func (m *Machine) loaderOptions() loader.Options {
	return loader.Options{PSPSegment: m.cfg.PSPSegment, CommandTail: m.cfg.CommandTail}
}

func (m *Machine) loaded(prog *loader.Program, err error) (*loader.Program, error) {
	if err != nil {
		return nil, err
	}
	m.program = prog
	if m.cfg.Input != "" {
		m.keyboard.Type(m.cfg.Input)
	}
	return prog, nil
}

// Program returns the loaded program or nil.
func (m *Machine) Program() *loader.Program {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.program
}

// Reset returns the machine to power-on state. The loaded program is
// discarded.
func (m *Machine) Reset() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.cpu.Reset()
	m.program = nil
}

// Step executes one instruction.
func (m *Machine) Step() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.cpu.Step()
}

func (m *Machine) Exited() (bool, byte) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.cpu.Exited()
}

// Registers returns a copy of the register file.
func (m *Machine) Registers() processor.Registers {
	m.lock.Lock()
	defer m.lock.Unlock()
	return *m.cpu.GetRegisters()
}

// Break stops a run before its next instruction.
func (m *Machine) Break() {
	m.lock.Lock()
	m.cpu.Break()
	m.lock.Unlock()
}

func (m *Machine) Keyboard() *keyboard.Device {
	return m.keyboard
}

// Screen returns the visible text page.
func (m *Machine) Screen() video.Frame {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.video.Frame()
}

// Run executes instructions until the program exits, the processor halts,
// the budget is used up, Break is called or ctx is done. A canceled run
// returns the context error together with the result. A run can be resumed
// by calling Run again.
func (m *Machine) Run(ctx context.Context) (res Result, err error) {
	// Drop an interrupt left over from an earlier canceled run.
	m.keyboard.ClearInterrupt()

	done := make(chan struct{})
	watcher := make(chan struct{})
	go func() {
		defer close(watcher)
		select {
		case <-ctx.Done():
			m.keyboard.Interrupt()
		case <-done:
		}
	}()

	defer func() {
		close(done)
		<-watcher
		m.keyboard.ClearInterrupt()

		m.lock.Lock()
		m.video.Flush()
		res.Stats = m.cpu.GetStats()
		m.lock.Unlock()
	}()

	m.lock.Lock()
	m.cpu.GetStats()
	m.lock.Unlock()

	for {
		if exited, code := m.Exited(); exited {
			res.Reason, res.ExitCode = StopExited, code
			return res, nil
		}
		if m.takeBreak() {
			res.Reason = StopBreak
			return res, nil
		}
		if m.cfg.Budget > 0 && res.Instructions >= m.cfg.Budget {
			res.Reason = StopBudget
			return res, nil
		}
		select {
		case <-ctx.Done():
			res.Reason = StopCanceled
			return res, ctx.Err()
		default:
		}

		err := m.Step()
		switch {
		case err == nil:
			res.Instructions++
		case errors.Is(err, processor.ErrCPUHalt):
			res.Instructions++
			res.Reason = StopHalted
			return res, nil
		case errors.Is(err, keyboard.ErrInterrupted) && ctx.Err() != nil:
			res.Reason = StopCanceled
			return res, ctx.Err()
		default:
			res.Reason = StopFault
			return res, err
		}
	}
}

func (m *Machine) takeBreak() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.cpu.TakeBreak()
}

// Snapshot captures the machine state between two instructions.
func (m *Machine) Snapshot() *snapshot.Snapshot {
	m.lock.Lock()
	defer m.lock.Unlock()
	return snapshot.Capture(m.cpu.GetRegisters(), m.cpu.Memory())
}

// Restore resets the machine and applies s.
func (m *Machine) Restore(s *snapshot.Snapshot) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.cpu.Reset()
	m.program = nil
	return s.Apply(m.cpu.GetRegisters(), m.cpu.Memory())
}

func (m *Machine) SaveSnapshot(name string) error {
	return snapshot.Save(m.cfg.Fs, name, m.Snapshot())
}

func (m *Machine) LoadSnapshot(name string) error {
	s, err := snapshot.Load(m.cfg.Fs, name)
	if err != nil {
		return err
	}
	return m.Restore(s)
}
