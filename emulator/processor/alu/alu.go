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

// Package alu holds the arithmetic and flag semantics shared by the executor.
// All functions are pure: they take operands and the current flags and return
// the result and the new flags.
package alu

import (
	"math/bits"

	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/andreas-jonsson/realxt/emulator/processor/decoder"
)

type Kind int

const (
	KindAdd Kind = iota
	KindSub
	KindLogic
	KindInc
	KindDec
)

var parityLookup [256]bool

func init() {
	for i := range parityLookup {
		parityLookup[i] = bits.OnesCount8(uint8(i))%2 == 0
	}
}

// Parity reports the x86 parity flag for the low byte of v.
func Parity(v uint32) bool {
	return parityLookup[v&0xFF]
}

// SZP updates sign, zero and parity from res at width w.
func SZP(f processor.Flags, w processor.Width, res uint32) processor.Flags {
	res &= w.Mask()
	f.SetBool(processor.Sign, res&w.SignBit() != 0)
	f.SetBool(processor.Zero, res == 0)
	f.SetBool(processor.Parity, Parity(res))
	return f
}

// Flags computes the status flags of an operation from its operands and the
// full precision result. Bits that the operation does not define are taken
// from old.
func Flags(kind Kind, w processor.Width, a, b, res uint32, old processor.Flags) processor.Flags {
	f := SZP(old, w, res)
	mask, sign := w.Mask(), w.SignBit()

	switch kind {
	case KindAdd, KindInc:
		if kind == KindAdd {
			f.SetBool(processor.Carry, res&^mask != 0)
		}
		f.SetBool(processor.Adjust, (a^b^res)&0x10 != 0)
		f.SetBool(processor.Overflow, (res^a)&(res^b)&sign != 0)
	case KindSub, KindDec:
		if kind == KindSub {
			f.SetBool(processor.Carry, res&^mask != 0)
		}
		f.SetBool(processor.Adjust, (a^b^res)&0x10 != 0)
		f.SetBool(processor.Overflow, (a^b)&(a^res)&sign != 0)
	case KindLogic:
		f.Clear(processor.Carry | processor.Overflow | processor.Adjust)
	}
	return f
}

func carry(f processor.Flags) uint32 {
	if f.GetBool(processor.Carry) {
		return 1
	}
	return 0
}

// Arith performs one of the eight group 1 operations. write is false for CMP.
func Arith(op decoder.Op, w processor.Width, a, b uint16, f processor.Flags) (res uint16, flags processor.Flags, write bool) {
	x, y := uint32(a), uint32(b)
	var r uint32

	switch op {
	case decoder.OpAdd:
		r = x + y
		flags = Flags(KindAdd, w, x, y, r, f)
	case decoder.OpAdc:
		r = x + y + carry(f)
		flags = Flags(KindAdd, w, x, y, r, f)
	case decoder.OpSub, decoder.OpCmp:
		r = x - y
		flags = Flags(KindSub, w, x, y, r, f)
	case decoder.OpSbb:
		r = x - y - carry(f)
		flags = Flags(KindSub, w, x, y, r, f)
	case decoder.OpAnd:
		r = x & y
		flags = Flags(KindLogic, w, x, y, r, f)
	case decoder.OpOr:
		r = x | y
		flags = Flags(KindLogic, w, x, y, r, f)
	case decoder.OpXor:
		r = x ^ y
		flags = Flags(KindLogic, w, x, y, r, f)
	case decoder.OpTest:
		flags = Flags(KindLogic, w, x, y, x&y, f)
		return uint16(x & y & w.Mask()), flags, false
	default:
		return a, f, false
	}
	return uint16(r & w.Mask()), flags, op != decoder.OpCmp
}

// Inc adds one. The carry flag is left unchanged.
func Inc(w processor.Width, a uint16, f processor.Flags) (uint16, processor.Flags) {
	r := uint32(a) + 1
	return uint16(r & w.Mask()), Flags(KindInc, w, uint32(a), 1, r, f)
}

// Dec subtracts one. The carry flag is left unchanged.
func Dec(w processor.Width, a uint16, f processor.Flags) (uint16, processor.Flags) {
	r := uint32(a) - 1
	return uint16(r & w.Mask()), Flags(KindDec, w, uint32(a), 1, r, f)
}

// Neg is 0 - a. Carry is set for any non-zero operand.
func Neg(w processor.Width, a uint16, f processor.Flags) (uint16, processor.Flags) {
	b := uint32(a) & w.Mask()
	r := 0 - b
	return uint16(r & w.Mask()), Flags(KindSub, w, 0, b, r, f)
}

func Not(w processor.Width, a uint16) uint16 {
	return ^a & uint16(w.Mask())
}

// Mul returns the unsigned double width product of a and b.
func Mul(w processor.Width, a, b uint16, f processor.Flags) (uint32, processor.Flags) {
	res := (uint32(a) & w.Mask()) * (uint32(b) & w.Mask())
	return res, mulFlags(w, res, res>>w.Bits() != 0, f)
}

// Imul returns the signed double width product of a and b.
func Imul(w processor.Width, a, b uint16, f processor.Flags) (uint32, processor.Flags) {
	x, y := signExtend(w, a), signExtend(w, b)
	p := x * y

	low := uint32(p) & w.Mask()
	fits := int32(signExtend(w, uint16(low))) == p
	res := uint32(p) & (w.Mask()<<w.Bits() | w.Mask())
	return res, mulFlags(w, res, !fits, f)
}

func mulFlags(w processor.Width, res uint32, wide bool, f processor.Flags) processor.Flags {
	f = SZP(f, w, res)
	f.SetBool(processor.Carry, wide)
	f.SetBool(processor.Overflow, wide)
	f.Clear(processor.Zero)
	return f
}

func signExtend(w processor.Width, v uint16) int32 {
	if w == processor.Byte {
		return int32(int8(v))
	}
	return int32(int16(v))
}

// Div divides the double width dividend by divisor. Flags are not affected.
func Div(w processor.Width, dividend uint32, divisor uint16) (quot, rem uint16, err error) {
	d := uint32(divisor) & w.Mask()
	if d == 0 {
		return 0, 0, processor.ErrDivideOverflow
	}
	dividend &= w.Mask()<<w.Bits() | w.Mask()

	q := dividend / d
	if q > w.Mask() {
		return 0, 0, processor.ErrDivideOverflow
	}
	return uint16(q), uint16(dividend % d), nil
}

// Idiv is the signed version of Div. Quotients are truncated toward zero and
// the remainder takes the sign of the dividend. The most negative quotient
// faults, as on the 8086.
func Idiv(w processor.Width, dividend uint32, divisor uint16) (quot, rem uint16, err error) {
	d := int64(signExtend(w, divisor))
	if d == 0 {
		return 0, 0, processor.ErrDivideOverflow
	}

	var n int64
	if w == processor.Byte {
		n = int64(int16(dividend))
	} else {
		n = int64(int32(dividend))
	}

	q, r := n/d, n%d
	max := int64(w.SignBit()) - 1
	if q > max || q < -max {
		return 0, 0, processor.ErrDivideOverflow
	}
	return uint16(q) & uint16(w.Mask()), uint16(r) & uint16(w.Mask()), nil
}
