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

// Package snapshot stores the complete machine state as a flat
// little-endian blob.
//
//	offset size    field
//	0      4       magic "RXSS"
//	4      2       format version
//	6      2       register count
//	8      28      AX CX DX BX SP BP SI DI ES CS SS DS IP FLAGS
//	36     1 MiB   memory
//
// Files ending in ".sz" are compressed with the snappy framing format.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	Magic         = "RXSS"
	Version       = 1
	RegisterCount = 14
	HeaderSize    = 8 + RegisterCount*2
	Size          = HeaderSize + memory.Size

	CompressedExt = ".sz"
)

var RegisterNames = [RegisterCount]string{
	"AX", "CX", "DX", "BX", "SP", "BP", "SI", "DI",
	"ES", "CS", "SS", "DS", "IP", "FLAGS",
}

var (
	ErrInvalidMagic   = errors.New("invalid snapshot magic")
	ErrInvalidVersion = errors.New("unsupported snapshot version")
)

var options = &struc.Options{Order: binary.LittleEndian}

type header struct {
	Magic     string `struc:"[4]byte"`
	Version   uint16
	RegCount  uint16
	Registers [RegisterCount]uint16
}

type Snapshot struct {
	Registers [RegisterCount]uint16
	Memory    []byte
}

// Capture copies the processor state.
func Capture(regs *processor.Registers, mem *memory.RAM) *Snapshot {
	return &Snapshot{Registers: regs.GetValues(), Memory: mem.Dump()}
}

// Apply restores the processor state.
func (s *Snapshot) Apply(regs *processor.Registers, mem *memory.RAM) error {
	if err := mem.Restore(s.Memory); err != nil {
		return err
	}
	regs.SetValues(s.Registers)
	return nil
}

func (s *Snapshot) Encode(w io.Writer) error {
	if len(s.Memory) != memory.Size {
		return errors.Errorf("invalid memory size: %d", len(s.Memory))
	}
	h := &header{Magic: Magic, Version: Version, RegCount: RegisterCount, Registers: s.Registers}
	if err := struc.PackWithOptions(w, h, options); err != nil {
		return errors.Wrap(err, "failed to pack header")
	}
	_, err := w.Write(s.Memory)
	return err
}

func (s *Snapshot) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(Size)
	if err := s.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Decode(r io.Reader) (*Snapshot, error) {
	var h header
	if err := struc.UnpackWithOptions(r, &h, options); err != nil {
		return nil, errors.Wrap(err, "failed to unpack header")
	}
	if h.Magic != Magic {
		return nil, ErrInvalidMagic
	}
	if h.Version != Version || h.RegCount != RegisterCount {
		return nil, errors.Wrapf(ErrInvalidVersion, "version %d with %d registers", h.Version, h.RegCount)
	}

	s := &Snapshot{Registers: h.Registers, Memory: make([]byte, memory.Size)}
	if _, err := io.ReadFull(r, s.Memory); err != nil {
		return nil, errors.Wrap(err, "failed to read memory")
	}
	return s, nil
}

func isCompressed(name string) bool {
	return strings.EqualFold(filepath.Ext(name), CompressedExt)
}

// Save writes s to name, compressed if the name ends in ".sz".
func Save(fs afero.Fs, name string, s *Snapshot) error {
	fp, err := fs.Create(name)
	if err != nil {
		return err
	}

	var w io.Writer = fp
	var zw *snappy.Writer
	if isCompressed(name) {
		zw = snappy.NewBufferedWriter(fp)
		w = zw
	}

	err = s.Encode(w)
	if zw != nil {
		if zerr := zw.Close(); err == nil {
			err = zerr
		}
	}
	if cerr := fp.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "could not save %s", name)
}

func Load(fs afero.Fs, name string) (*Snapshot, error) {
	fp, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	var r io.Reader = fp
	if isCompressed(name) {
		r = snappy.NewReader(fp)
	}
	s, err := Decode(r)
	return s, errors.Wrapf(err, "could not load %s", name)
}

// Range is a half-open span of linear addresses.
type Range struct {
	Start, End memory.Pointer
}

func (r Range) String() string {
	return fmt.Sprintf("%v-%v", r.Start, r.End-1)
}

type RegisterDiff struct {
	Name string
	A, B uint16
}

type Difference struct {
	Registers []RegisterDiff
	Memory    []Range
}

func (d *Difference) Empty() bool {
	return len(d.Registers) == 0 && len(d.Memory) == 0
}

func (d *Difference) String() string {
	var sb strings.Builder
	for _, r := range d.Registers {
		fmt.Fprintf(&sb, "%s: %04X != %04X\n", r.Name, r.A, r.B)
	}
	for _, r := range d.Memory {
		fmt.Fprintf(&sb, "memory %v\n", r)
	}
	return sb.String()
}

// Diff lists the registers and memory ranges that differ between a and b.
func Diff(a, b *Snapshot) *Difference {
	d := &Difference{}
	for i := range a.Registers {
		if a.Registers[i] != b.Registers[i] {
			d.Registers = append(d.Registers, RegisterDiff{RegisterNames[i], a.Registers[i], b.Registers[i]})
		}
	}

	n := len(a.Memory)
	if len(b.Memory) < n {
		n = len(b.Memory)
	}
	start := -1
	for i := 0; i <= n; i++ {
		differs := i < n && a.Memory[i] != b.Memory[i]
		switch {
		case differs && start < 0:
			start = i
		case !differs && start >= 0:
			d.Memory = append(d.Memory, Range{memory.Pointer(start), memory.Pointer(i)})
			start = -1
		}
	}
	return d
}
