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

	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/andreas-jonsson/realxt/emulator/snapshot"
)

const flagsIndex = 13

type Mismatch struct {
	Field string
	A, B  uint32
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %X != %X", m.Field, m.A, m.B)
}

// Compare lists the differences between two events. Flag bits in ignore are
// not compared, which allows masking flags a reference leaves undefined.
func Compare(a, b *Event, ignore processor.Flags) []Mismatch {
	var res []Mismatch
	add := func(field string, x, y uint32) {
		if x != y {
			res = append(res, Mismatch{field, x, y})
		}
	}

	add("address", a.Address, b.Address)
	add("length", uint32(a.Length), uint32(b.Length))
	for i := 0; i < int(a.Length) && i < int(b.Length); i++ {
		add(fmt.Sprintf("code[%d]", i), uint32(a.Code[i]), uint32(b.Code[i]))
	}

	regs := func(prefix string, x, y *[14]uint16) {
		for i := range x {
			vx, vy := x[i], y[i]
			if i == flagsIndex {
				vx &^= uint16(ignore)
				vy &^= uint16(ignore)
			}
			add(prefix+snapshot.RegisterNames[i], uint32(vx), uint32(vy))
		}
	}
	regs("before.", &a.Before, &b.Before)
	regs("after.", &a.After, &b.After)

	ops := func(prefix string, x, y []MemOp) {
		add(prefix+"count", uint32(len(x)), uint32(len(y)))
		for i := 0; i < len(x) && i < len(y); i++ {
			add(fmt.Sprintf("%s%d.addr", prefix, i), uint32(x[i].Addr), uint32(y[i].Addr))
			add(fmt.Sprintf("%s%d.data", prefix, i), uint32(x[i].Data), uint32(y[i].Data))
		}
	}
	ops("read", a.Reads(), b.Reads())
	ops("write", a.Writes(), b.Writes())
	return res
}
