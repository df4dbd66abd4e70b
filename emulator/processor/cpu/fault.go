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

package cpu

import (
	"fmt"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/processor"
)

// Fault is a step that could not complete. It carries the address and bytes
// of the offending instruction.
type Fault struct {
	Address memory.Address
	Bytes   []byte
	Err     error
}

func (f *Fault) Error() string {
	if len(f.Bytes) == 0 {
		return fmt.Sprintf("[%v] %v", f.Address, f.Err)
	}
	return fmt.Sprintf("[%v] % X: %v", f.Address, f.Bytes, f.Err)
}

func (f *Fault) Cause() error {
	return f.Err
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func (p *CPU) executionError(kind processor.ExecutionErrorKind, detail string) error {
	return &processor.ExecutionError{
		Kind:    kind,
		Address: memory.NewAddress(p.CS(), p.decodeAt),
		Detail:  detail,
	}
}
