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

package memory

import (
	"fmt"
	"log"

	"github.com/pkg/errors"
)

// Size of the real-mode address space.
const Size = 0x100000

const addressMask = Size - 1

// Address is a segment:offset pair packed as seg<<16|offset.
type Address uint32

func NewAddress(seg, offset uint16) Address {
	return (Address(seg) << 16) | Address(offset)
}

func (a Address) String() string {
	return fmt.Sprintf("%04X:%04X", a.Segment(), a.Offset())
}

func (a Address) Segment() uint16 {
	return uint16(a >> 16)
}

func (a Address) Offset() uint16 {
	return uint16(a & 0xFFFF)
}

func (a Address) Pointer() Pointer {
	return NewPointer(a.Segment(), a.Offset())
}

// AddInt moves the offset and wraps inside the segment.
func (a Address) AddInt(i int) Address {
	return (a & 0xFFFF0000) | Address(a.Offset()+uint16(i))
}

// Pointer is a linear 20-bit address.
type Pointer uint32

func NewPointer(seg, offset uint16) Pointer {
	return (Pointer(seg)*0x10 + Pointer(offset)) & addressMask
}

func (p Pointer) String() string {
	return fmt.Sprintf("0x%05X", uint32(p))
}

// Add returns p+i wrapped to the address space.
func (p Pointer) Add(i int) Pointer {
	return Pointer(int(p)+i) & addressMask
}

type Memory interface {
	ReadByte(addr Pointer) byte
	WriteByte(addr Pointer, data byte)
}

type IO interface {
	In(port uint16) byte
	Out(port uint16, data byte)
}

type DummyIO struct{}

func (m *DummyIO) In(port uint16) byte {
	log.Printf("reading unmapped IO port: 0x%X", port)
	return 0xFF
}

func (m *DummyIO) Out(port uint16, data byte) {
	log.Printf("writing unmapped IO port: 0x%X", port)
}

// RAM is the flat address space owned by a single emulator instance.
type RAM struct {
	mem [Size]byte
}

func NewRAM() *RAM {
	return &RAM{}
}

func (m *RAM) Reset() {
	m.mem = [Size]byte{}
}

func (m *RAM) ReadByte(addr Pointer) byte {
	return m.mem[addr&addressMask]
}

func (m *RAM) WriteByte(addr Pointer, data byte) {
	m.mem[addr&addressMask] = data
}

func (m *RAM) ReadWord(addr Pointer) uint16 {
	return uint16(m.ReadByte(addr)) | uint16(m.ReadByte(addr.Add(1)))<<8
}

func (m *RAM) WriteWord(addr Pointer, data uint16) {
	m.WriteByte(addr, byte(data))
	m.WriteByte(addr.Add(1), byte(data>>8))
}

// Write copies data starting at addr, wrapping at the top of memory.
func (m *RAM) Write(addr Pointer, data []byte) {
	for i, v := range data {
		m.WriteByte(addr.Add(i), v)
	}
}

// Read copies n bytes starting at addr, wrapping at the top of memory.
func (m *RAM) Read(addr Pointer, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = m.ReadByte(addr.Add(i))
	}
	return buf
}

// Window returns a copy of at most n bytes starting at addr. Unlike Read it
// does not wrap, the window ends at the top of the address space.
func (m *RAM) Window(addr Pointer, n int) []byte {
	addr &= addressMask
	end := int(addr) + n
	if end > Size {
		end = Size
	}
	buf := make([]byte, end-int(addr))
	copy(buf, m.mem[addr:end])
	return buf
}

// Dump returns a copy of the whole address space.
func (m *RAM) Dump() []byte {
	buf := make([]byte, Size)
	copy(buf, m.mem[:])
	return buf
}

// Restore replaces the whole address space with data.
func (m *RAM) Restore(data []byte) error {
	if len(data) != Size {
		return errors.Errorf("invalid memory image size: %d", len(data))
	}
	copy(m.mem[:], data)
	return nil
}
