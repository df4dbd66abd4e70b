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

package decoder

import "fmt"

type DecodeErrorKind int

const (
	UnknownOpcode DecodeErrorKind = iota + 1
	Truncated
	InvalidPrefixCombination
)

func (k DecodeErrorKind) String() string {
	switch k {
	case UnknownOpcode:
		return "unknown opcode"
	case Truncated:
		return "truncated instruction"
	case InvalidPrefixCombination:
		return "invalid prefix combination"
	}
	return "decode error"
}

// DecodeError reports why a byte sequence is not an instruction. Bytes holds
// what was consumed before the failure.
type DecodeError struct {
	Kind  DecodeErrorKind
	Bytes []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: % X", e.Kind, e.Bytes)
}

func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnknownOpcode            = &DecodeError{Kind: UnknownOpcode}
	ErrTruncated                = &DecodeError{Kind: Truncated}
	ErrInvalidPrefixCombination = &DecodeError{Kind: InvalidPrefixCombination}
)
