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

package processor

import (
	"fmt"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/pkg/errors"
)

// Stats counts processor activity since the last GetStats.
type Stats struct {
	NumInterrupts   uint32
	NumInstructions uint64

	// RX and TX are memory bytes read and written.
	RX, TX uint64

	// NOP counts NOP and WAIT instructions.
	NOP uint64
}

var (
	ErrCPUHalt             = errors.New("CPU HALT")
	ErrInterruptNotHandled = errors.New("interrupt not handled")
)

type ExecutionErrorKind int

const (
	Unimplemented ExecutionErrorKind = iota + 1
	DivideOverflow
	MemoryOutOfRange
)

func (k ExecutionErrorKind) String() string {
	switch k {
	case Unimplemented:
		return "unimplemented"
	case DivideOverflow:
		return "divide overflow"
	case MemoryOutOfRange:
		return "memory out of range"
	}
	return "unknown"
}

// ExecutionError is a failure while executing an already decoded instruction.
type ExecutionError struct {
	Kind    ExecutionErrorKind
	Address memory.Address
	Detail  string
}

func (e *ExecutionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("[%v] %v", e.Address, e.Kind)
	}
	return fmt.Sprintf("[%v] %v: %s", e.Address, e.Kind, e.Detail)
}

// Is matches any ExecutionError with the same kind.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnimplemented    = &ExecutionError{Kind: Unimplemented}
	ErrDivideOverflow   = &ExecutionError{Kind: DivideOverflow}
	ErrMemoryOutOfRange = &ExecutionError{Kind: MemoryOutOfRange}
)

// Debug is the observation surface used by the machine run loop.
type Debug interface {
	Break()
	GetStats() Stats
}

// InterruptHandler services an interrupt in place of the vector table.
// Returning ErrInterruptNotHandled passes the interrupt on to the vector.
type InterruptHandler interface {
	HandleInterrupt(n int) error
}

type InterruptHandlerFunc func(n int) error

func (f InterruptHandlerFunc) HandleInterrupt(n int) error {
	return f(n)
}

type InterruptController interface {
	GetInterrupt() (int, error)
	IRQ(n int)
}

type Processor interface {
	Debug

	InByte(port uint16) byte
	OutByte(port uint16, data byte)

	ReadByte(addr memory.Pointer) byte
	WriteByte(addr memory.Pointer, data byte)
	ReadWord(addr memory.Pointer) uint16
	WriteWord(addr memory.Pointer, data uint16)

	GetRegisters() *Registers

	InstallIODevice(device memory.IO, from, to uint16) error
	InstallInterruptController(pic InterruptController)
	InstallInterruptHandler(num int, handler InterruptHandler) error

	// Exit stops the run after the current instruction.
	Exit(code byte)
}
