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

// Package loader places DOS .COM and MZ .EXE images in memory and sets up
// the registers the way DOS leaves them at program start.
package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	// DefaultPSPSegment is where DOSBox places the first program.
	DefaultPSPSegment = 0x085F

	PSPSize = 0x100

	// MemoryTop is the first segment past conventional memory.
	MemoryTop = 0xA000

	maxCommandTail = 126
	initialBP      = 0x091C
)

var (
	ErrEmptyImage    = errors.New("empty program image")
	ErrImageTooLarge = errors.New("program image does not fit in memory")
	ErrInvalidHeader = errors.New("invalid MZ header")
)

type Kind int

const (
	COM Kind = iota
	EXE
)

func (k Kind) String() string {
	if k == EXE {
		return "EXE"
	}
	return "COM"
}

// Target is the processor receiving the program.
type Target interface {
	Memory() *memory.RAM
	GetRegisters() *processor.Registers
	SetFence(seg, end uint16)
	ClearFence()
}

type Options struct {
	// PSPSegment defaults to DefaultPSPSegment.
	PSPSegment  uint16
	CommandTail string
}

// Program describes a loaded image.
type Program struct {
	Kind  Kind
	PSP   uint16
	Entry memory.Address
	Stack memory.Address

	// Load module bounds.
	Start memory.Pointer
	Size  int
}

func (p *Program) String() string {
	return fmt.Sprintf("%v image, PSP %04X, entry %v, stack %v, %d bytes", p.Kind, p.PSP, p.Entry, p.Stack, p.Size)
}

type exeHeader struct {
	Signature          uint16
	BytesInLastBlock   uint16
	BlocksInFile       uint16
	NumRelocs          uint16
	HeaderParagraphs   uint16
	MinExtraParagraphs uint16
	MaxExtraParagraphs uint16
	SS                 uint16
	SP                 uint16
	Checksum           uint16
	IP                 uint16
	CS                 uint16
	RelocTableOffset   uint16
	OverlayNumber      uint16
}

type exeReloc struct {
	Offset  uint16
	Segment uint16
}

var options = &struc.Options{Order: binary.LittleEndian}

// IsEXE reports if data starts with an MZ signature.
func IsEXE(data []byte) bool {
	return len(data) >= 2 && (string(data[:2]) == "MZ" || string(data[:2]) == "ZM")
}

// LoadFile reads name from fs and loads it.
func LoadFile(t Target, fs afero.Fs, name string, opt Options) (*Program, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, errors.Wrap(err, "could not read program")
	}
	prog, err := Load(t, data, opt)
	return prog, errors.Wrap(err, name)
}

// Load places the image in memory and sets up registers and the execution
// fence. The image type is taken from its signature.
func Load(t Target, data []byte, opt Options) (*Program, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if opt.PSPSegment == 0 {
		opt.PSPSegment = DefaultPSPSegment
	}
	if len(opt.CommandTail) > maxCommandTail {
		return nil, errors.Errorf("command tail longer than %d characters", maxCommandTail)
	}

	var (
		prog *Program
		err  error
	)
	if IsEXE(data) {
		prog, err = loadEXE(t, data, opt.PSPSegment)
	} else {
		prog, err = loadCOM(t, data, opt.PSPSegment)
	}
	if err != nil {
		return nil, err
	}

	writePSP(t.Memory(), opt.PSPSegment, opt.CommandTail)
	setRegisters(t.GetRegisters(), prog)
	setFence(t, prog)

	log.Print("Loaded ", prog)
	return prog, nil
}

func loadCOM(t Target, data []byte, psp uint16) (*Program, error) {
	// The image must leave room for the initial stack word.
	if len(data) > 0x10000-PSPSize-2 {
		return nil, ErrImageTooLarge
	}
	if int(psp)*16+0x10000 > MemoryTop*16 {
		return nil, ErrImageTooLarge
	}

	start := memory.NewPointer(psp, PSPSize)
	mem := t.Memory()
	mem.Write(start, data)
	mem.WriteWord(memory.NewPointer(psp, 0xFFFE), 0)

	return &Program{
		Kind:  COM,
		PSP:   psp,
		Entry: memory.NewAddress(psp, PSPSize),
		Stack: memory.NewAddress(psp, 0xFFFE),
		Start: start,
		Size:  len(data),
	}, nil
}

func loadEXE(t Target, data []byte, psp uint16) (*Program, error) {
	var hdr exeHeader
	r := bytes.NewReader(data)
	if err := struc.UnpackWithOptions(r, &hdr, options); err != nil {
		return nil, errors.Wrap(ErrInvalidHeader, err.Error())
	}

	headerSize := int(hdr.HeaderParagraphs) * 16
	end := int(hdr.BlocksInFile) * 512
	if hdr.BytesInLastBlock > 0 {
		end -= 512 - int(hdr.BytesInLastBlock)
	}
	if end > len(data) {
		// Some linkers round the size up.
		end = len(data)
	}
	if headerSize < 0x1C || headerSize > end {
		return nil, errors.Wrapf(ErrInvalidHeader, "header size %d, image end %d", headerSize, end)
	}

	module := data[headerSize:end]
	loadSeg := psp + PSPSize/16
	start := memory.NewPointer(loadSeg, 0)
	if int(start)+len(module)+int(hdr.MinExtraParagraphs)*16 > MemoryTop*16 {
		return nil, ErrImageTooLarge
	}

	mem := t.Memory()
	mem.Write(start, module)

	relocs := make([]exeReloc, hdr.NumRelocs)
	if _, err := r.Seek(int64(hdr.RelocTableOffset), 0); err != nil {
		return nil, errors.Wrap(err, "could not seek to relocation table")
	}
	for i := range relocs {
		if err := struc.UnpackWithOptions(r, &relocs[i], options); err != nil {
			return nil, errors.Wrapf(ErrInvalidHeader, "relocation %d: %v", i, err)
		}
		p := memory.NewPointer(loadSeg+relocs[i].Segment, relocs[i].Offset)
		mem.WriteWord(p, mem.ReadWord(p)+loadSeg)
	}

	return &Program{
		Kind:  EXE,
		PSP:   psp,
		Entry: memory.NewAddress(loadSeg+hdr.CS, hdr.IP),
		Stack: memory.NewAddress(loadSeg+hdr.SS, hdr.SP),
		Start: start,
		Size:  len(module),
	}, nil
}

func writePSP(mem *memory.RAM, psp uint16, tail string) {
	base := memory.NewPointer(psp, 0)
	for i := 0; i < PSPSize; i++ {
		mem.WriteByte(base.Add(i), 0)
	}

	// INT 20h
	mem.Write(base, []byte{0xCD, 0x20})
	mem.WriteWord(base.Add(0x02), MemoryTop)

	// INT 21h, RETF
	mem.Write(base.Add(0x50), []byte{0xCD, 0x21, 0xCB})

	// Blank FCB file names.
	for _, fcb := range []int{0x5C, 0x6C} {
		for i := 1; i <= 11; i++ {
			mem.WriteByte(base.Add(fcb+i), ' ')
		}
	}

	mem.WriteByte(base.Add(0x80), byte(len(tail)))
	mem.Write(base.Add(0x81), []byte(tail))
	mem.WriteByte(base.Add(0x81+len(tail)), '\r')
}

// setRegisters applies the DOSBox startup state.
func setRegisters(r *processor.Registers, prog *Program) {
	r.Reset()
	r.SetCS(prog.Entry.Segment())
	r.IP = prog.Entry.Offset()
	r.SetSS(prog.Stack.Segment())
	r.SetSP(prog.Stack.Offset())
	r.SetDS(prog.PSP)
	r.SetES(prog.PSP)

	r.SetCX(0x00FF)
	r.SetDX(prog.PSP)
	r.SetSI(prog.Entry.Offset())
	r.SetDI(prog.Stack.Offset())
	r.SetBP(initialBP)
	r.Flags.Set(processor.InterruptEnable)
}

// setFence stops execution at the end of the image when it ends inside the
// code segment.
func setFence(t Target, prog *Program) {
	cs := memory.NewPointer(prog.Entry.Segment(), 0)
	end := int(prog.Start) + prog.Size - int(cs)
	if end <= int(prog.Entry.Offset()) || end > 0xFFFF {
		t.ClearFence()
		return
	}
	t.SetFence(prog.Entry.Segment(), uint16(end))
}
