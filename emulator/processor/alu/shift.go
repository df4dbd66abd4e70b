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

package alu

import (
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/andreas-jonsson/realxt/emulator/processor/decoder"
)

func rotateStep(op decoder.Op, w processor.Width, v uint32, cf bool) (uint32, bool) {
	msb := w.SignBit()
	top := v&msb != 0
	low := v&1 != 0

	switch op {
	case decoder.OpRol:
		v <<= 1
		if top {
			v |= 1
		}
		cf = top
	case decoder.OpRor:
		v >>= 1
		if low {
			v |= msb
		}
		cf = low
	case decoder.OpRcl:
		v <<= 1
		if cf {
			v |= 1
		}
		cf = top
	case decoder.OpRcr:
		v >>= 1
		if cf {
			v |= msb
		}
		cf = low
	case decoder.OpShl:
		v <<= 1
		cf = top
	case decoder.OpShr:
		v >>= 1
		cf = low
	case decoder.OpSar:
		v >>= 1
		if top {
			v |= msb
		}
		cf = low
	}
	return v & w.Mask(), cf
}

// Shift performs one of the group 2 shifts and rotates count times. The count
// is not masked. A count of zero changes neither the value nor the flags.
func Shift(op decoder.Op, w processor.Width, v uint16, count byte, f processor.Flags) (uint16, processor.Flags) {
	if count == 0 {
		return v, f
	}

	org := uint32(v) & w.Mask()
	a, cf := org, f.GetBool(processor.Carry)
	for i := 0; i < int(count); i++ {
		a, cf = rotateStep(op, w, a, cf)
	}
	f.SetBool(processor.Carry, cf)

	// OF is only defined for single bit operations. Left ops use CF xor the
	// result MSB, right rotates the xor of the two top bits.
	msb := a&w.SignBit() != 0
	next := a&(w.SignBit()>>1) != 0

	switch op {
	case decoder.OpRol, decoder.OpRcl:
		f.SetBool(processor.Overflow, cf != msb)
	case decoder.OpRor, decoder.OpRcr:
		f.SetBool(processor.Overflow, msb != next)
	case decoder.OpShl:
		f.SetBool(processor.Overflow, cf != msb)
		f = SZP(f, w, a)
	case decoder.OpShr:
		f.SetBool(processor.Overflow, count == 1 && org&w.SignBit() != 0)
		f = SZP(f, w, a)
	case decoder.OpSar:
		f.Clear(processor.Overflow)
		f = SZP(f, w, a)
	}
	return uint16(a), f
}
