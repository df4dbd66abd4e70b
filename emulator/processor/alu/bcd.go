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
)

func Daa(al byte, f processor.Flags) (byte, processor.Flags) {
	old, cf := al, f.GetBool(processor.Carry)
	f.Clear(processor.Carry)

	if al&0xF > 9 || f.GetBool(processor.Adjust) {
		v := uint16(al) + 6
		al = byte(v)
		f.SetBool(processor.Carry, cf || v > 0xFF)
		f.Set(processor.Adjust)
	} else {
		f.Clear(processor.Adjust)
	}

	if old > 0x99 || cf {
		al += 0x60
		f.Set(processor.Carry)
	} else {
		f.Clear(processor.Carry)
	}
	return al, SZP(f, processor.Byte, uint32(al))
}

func Das(al byte, f processor.Flags) (byte, processor.Flags) {
	old, cf := al, f.GetBool(processor.Carry)
	f.Clear(processor.Carry)

	if al&0xF > 9 || f.GetBool(processor.Adjust) {
		f.SetBool(processor.Carry, cf || al < 6)
		al -= 6
		f.Set(processor.Adjust)
	} else {
		f.Clear(processor.Adjust)
	}

	if old > 0x99 || cf {
		al -= 0x60
		f.Set(processor.Carry)
	}
	return al, SZP(f, processor.Byte, uint32(al))
}

// Aaa adjusts AX after an unpacked BCD addition.
func Aaa(ax uint16, f processor.Flags) (uint16, processor.Flags) {
	al, ah := byte(ax), byte(ax>>8)
	if al&0xF > 9 || f.GetBool(processor.Adjust) {
		al += 6
		ah++
		f.Set(processor.Adjust | processor.Carry)
	} else {
		f.Clear(processor.Adjust | processor.Carry)
	}
	al &= 0xF
	return uint16(ah)<<8 | uint16(al), SZP(f, processor.Byte, uint32(al))
}

// Aas adjusts AX after an unpacked BCD subtraction.
func Aas(ax uint16, f processor.Flags) (uint16, processor.Flags) {
	al, ah := byte(ax), byte(ax>>8)
	if al&0xF > 9 || f.GetBool(processor.Adjust) {
		al -= 6
		ah--
		f.Set(processor.Adjust | processor.Carry)
	} else {
		f.Clear(processor.Adjust | processor.Carry)
	}
	al &= 0xF
	return uint16(ah)<<8 | uint16(al), SZP(f, processor.Byte, uint32(al))
}

// Aam splits AL into AH = AL / base and AL = AL % base.
func Aam(al, base byte, f processor.Flags) (uint16, processor.Flags, error) {
	if base == 0 {
		return 0, f, processor.ErrDivideOverflow
	}
	q, r := al/base, al%base
	return uint16(q)<<8 | uint16(r), SZP(f, processor.Byte, uint32(r)), nil
}

// Aad folds AH into AL as AL = AH * base + AL and clears AH.
func Aad(ax uint16, base byte, f processor.Flags) (uint16, processor.Flags) {
	al := byte(ax) + byte(ax>>8)*base
	return uint16(al), SZP(f, processor.Byte, uint32(al))
}
