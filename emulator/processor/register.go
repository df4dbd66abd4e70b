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

const (
	Carry           Flags = 0x001
	Parity          Flags = 0x004
	Adjust          Flags = 0x010
	Zero            Flags = 0x040
	Sign            Flags = 0x080
	Trap            Flags = 0x100
	InterruptEnable Flags = 0x200
	Direction       Flags = 0x400
	Overflow        Flags = 0x800
)

const AllFlags = Carry | Parity | Adjust | Zero | Sign | Trap | InterruptEnable | Direction | Overflow

// StatusFlags are the flags written by arithmetic and logic operations.
const StatusFlags = Carry | Parity | Adjust | Zero | Sign | Overflow

// ResetFlags is the power-on value. Bits 1 and 12-15 read as one on the 8086.
const ResetFlags Flags = 0xF002

type Flags uint16

func (r *Flags) Get(f Flags) Flags {
	return *r & f
}

func (r *Flags) GetBool(f Flags) bool {
	return r.Get(f) != 0
}

func (r *Flags) Set(f Flags) {
	*r |= f
}

func (r *Flags) SetBool(f Flags, b bool) {
	if b {
		r.Set(f)
		return
	}
	r.Clear(f)
}

func (r *Flags) Clear(f Flags) {
	*r &= ^f
}

// Store replaces the defined flag bits with the ones in f. Reserved bits
// keep their current value.
func (r *Flags) Store(f uint16) {
	*r = (*r & ^AllFlags) | (Flags(f) & AllFlags)
}

// StoreLow is Store restricted to the low byte (SAHF).
func (r *Flags) StoreLow(f byte) {
	const low = Carry | Parity | Adjust | Zero | Sign
	*r = (*r & ^low) | (Flags(f) & low)
}

func (r *Flags) Load() uint16 {
	return uint16(*r)
}

// Width is the operand size of an operation in bytes.
type Width byte

const (
	Byte Width = 1
	Word Width = 2
)

func (w Width) Bits() uint {
	return uint(w) * 8
}

func (w Width) Mask() uint32 {
	if w == Byte {
		return 0xFF
	}
	return 0xFFFF
}

func (w Width) SignBit() uint32 {
	if w == Byte {
		return 0x80
	}
	return 0x8000
}

// Register encodings as used by the ModRM reg field.
const (
	AX = iota
	CX
	DX
	BX
	SP
	BP
	SI
	DI
)

const (
	ES = iota
	CS
	SS
	DS
)

var (
	reg16Names = [8]string{"AX", "CX", "DX", "BX", "SP", "BP", "SI", "DI"}
	reg8Names  = [8]string{"AL", "CL", "DL", "BL", "AH", "CH", "DH", "BH"}
	segNames   = [4]string{"ES", "CS", "SS", "DS"}
)

func Reg16Name(i int) string { return reg16Names[i&7] }
func Reg8Name(i int) string  { return reg8Names[i&7] }
func SegName(i int) string   { return segNames[i&3] }

type Registers struct {
	gpr [8]uint16
	seg [4]uint16

	Flags

	IP uint16
}

func (r *Registers) Reset() {
	*r = Registers{}
	r.Flags = ResetFlags
}

// Reg16 returns the general register with the given 3-bit encoding.
func (r *Registers) Reg16(i int) uint16 {
	return r.gpr[i&7]
}

func (r *Registers) SetReg16(i int, v uint16) {
	r.gpr[i&7] = v
}

// Reg8 returns AL, CL, DL, BL, AH, CH, DH or BH by encoding.
func (r *Registers) Reg8(i int) byte {
	if i&4 != 0 {
		return byte(r.gpr[i&3] >> 8)
	}
	return byte(r.gpr[i&3])
}

func (r *Registers) SetReg8(i int, v byte) {
	p := &r.gpr[i&3]
	if i&4 != 0 {
		*p = *p&0xFF | uint16(v)<<8
		return
	}
	*p = *p&0xFF00 | uint16(v)
}

func (r *Registers) Seg(i int) uint16 {
	return r.seg[i&3]
}

func (r *Registers) SetSeg(i int, v uint16) {
	r.seg[i&3] = v
}

func (r *Registers) AL() byte     { return r.Reg8(0) }
func (r *Registers) CL() byte     { return r.Reg8(1) }
func (r *Registers) DL() byte     { return r.Reg8(2) }
func (r *Registers) BL() byte     { return r.Reg8(3) }
func (r *Registers) AH() byte     { return r.Reg8(4) }
func (r *Registers) CH() byte     { return r.Reg8(5) }
func (r *Registers) DH() byte     { return r.Reg8(6) }
func (r *Registers) BH() byte     { return r.Reg8(7) }
func (r *Registers) SetAL(v byte) { r.SetReg8(0, v) }
func (r *Registers) SetCL(v byte) { r.SetReg8(1, v) }
func (r *Registers) SetDL(v byte) { r.SetReg8(2, v) }
func (r *Registers) SetBL(v byte) { r.SetReg8(3, v) }
func (r *Registers) SetAH(v byte) { r.SetReg8(4, v) }
func (r *Registers) SetCH(v byte) { r.SetReg8(5, v) }
func (r *Registers) SetDH(v byte) { r.SetReg8(6, v) }
func (r *Registers) SetBH(v byte) { r.SetReg8(7, v) }

func (r *Registers) AX() uint16     { return r.gpr[AX] }
func (r *Registers) CX() uint16     { return r.gpr[CX] }
func (r *Registers) DX() uint16     { return r.gpr[DX] }
func (r *Registers) BX() uint16     { return r.gpr[BX] }
func (r *Registers) SP() uint16     { return r.gpr[SP] }
func (r *Registers) BP() uint16     { return r.gpr[BP] }
func (r *Registers) SI() uint16     { return r.gpr[SI] }
func (r *Registers) DI() uint16     { return r.gpr[DI] }
func (r *Registers) SetAX(v uint16) { r.gpr[AX] = v }
func (r *Registers) SetCX(v uint16) { r.gpr[CX] = v }
func (r *Registers) SetDX(v uint16) { r.gpr[DX] = v }
func (r *Registers) SetBX(v uint16) { r.gpr[BX] = v }
func (r *Registers) SetSP(v uint16) { r.gpr[SP] = v }
func (r *Registers) SetBP(v uint16) { r.gpr[BP] = v }
func (r *Registers) SetSI(v uint16) { r.gpr[SI] = v }
func (r *Registers) SetDI(v uint16) { r.gpr[DI] = v }

func (r *Registers) ES() uint16     { return r.seg[ES] }
func (r *Registers) CS() uint16     { return r.seg[CS] }
func (r *Registers) SS() uint16     { return r.seg[SS] }
func (r *Registers) DS() uint16     { return r.seg[DS] }
func (r *Registers) SetES(v uint16) { r.seg[ES] = v }
func (r *Registers) SetCS(v uint16) { r.seg[CS] = v }
func (r *Registers) SetSS(v uint16) { r.seg[SS] = v }
func (r *Registers) SetDS(v uint16) { r.seg[DS] = v }

// GetValues returns AX CX DX BX SP BP SI DI ES CS SS DS IP FLAGS. The order
// is part of the snapshot format.
func (r *Registers) GetValues() [14]uint16 {
	return [14]uint16{
		r.gpr[AX], r.gpr[CX], r.gpr[DX], r.gpr[BX],
		r.gpr[SP], r.gpr[BP], r.gpr[SI], r.gpr[DI],
		r.seg[ES], r.seg[CS], r.seg[SS], r.seg[DS],
		r.IP, uint16(r.Flags),
	}
}

// SetValues is the inverse of GetValues.
func (r *Registers) SetValues(v [14]uint16) {
	copy(r.gpr[:], v[0:8])
	copy(r.seg[:], v[8:12])
	r.IP = v[12]
	r.Flags = Flags(v[13])
}
