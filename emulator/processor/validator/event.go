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
	"fmt"
	"strings"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/andreas-jonsson/realxt/emulator/processor/decoder"
)

// MaxMemOps is the number of reads and writes kept per instruction.
const MaxMemOps = 16

// Overflow is set in Event.Flags when an instruction touched more memory
// than the event holds.
const Overflow = 1

type MemOp struct {
	Addr memory.Pointer
	Data byte
}

// Event is one executed instruction.
type Event struct {
	Address   uint32
	Length    uint8
	Code      [decoder.MaxLength]byte
	Flags     uint8
	Before    [14]uint16
	After     [14]uint16
	NumReads  uint8
	ReadAddr  [MaxMemOps]uint32
	ReadData  [MaxMemOps]byte
	NumWrites uint8
	WriteAddr [MaxMemOps]uint32
	WriteData [MaxMemOps]byte
}

func (ev *Event) Location() memory.Address {
	return memory.Address(ev.Address)
}

func (ev *Event) Bytes() []byte {
	return ev.Code[:ev.Length]
}

// Registers returns the state before and after the instruction.
func (ev *Event) Registers() (before, after processor.Registers) {
	before.SetValues(ev.Before)
	after.SetValues(ev.After)
	return
}

func (ev *Event) Reads() []MemOp {
	return memOps(ev.ReadAddr[:ev.NumReads], ev.ReadData[:])
}

func (ev *Event) Writes() []MemOp {
	return memOps(ev.WriteAddr[:ev.NumWrites], ev.WriteData[:])
}

func memOps(addr []uint32, data []byte) []MemOp {
	ops := make([]MemOp, len(addr))
	for i, a := range addr {
		ops[i] = MemOp{memory.Pointer(a), data[i]}
	}
	return ops
}

func (ev *Event) pushRead(addr memory.Pointer, data byte) {
	if ev.NumReads == MaxMemOps {
		ev.Flags |= Overflow
		return
	}
	ev.ReadAddr[ev.NumReads] = uint32(addr)
	ev.ReadData[ev.NumReads] = data
	ev.NumReads++
}

func (ev *Event) pushWrite(addr memory.Pointer, data byte) {
	if ev.NumWrites == MaxMemOps {
		ev.Flags |= Overflow
		return
	}
	ev.WriteAddr[ev.NumWrites] = uint32(addr)
	ev.WriteData[ev.NumWrites] = data
	ev.NumWrites++
}

func (ev *Event) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%v] % X", ev.Location(), ev.Bytes())
	if inst, err := decoder.Decode(ev.Bytes()); err == nil {
		fmt.Fprintf(&sb, " %v", inst)
	}
	for _, op := range ev.Reads() {
		fmt.Fprintf(&sb, " R%v=%02X", op.Addr, op.Data)
	}
	for _, op := range ev.Writes() {
		fmt.Fprintf(&sb, " W%v=%02X", op.Addr, op.Data)
	}
	return sb.String()
}
