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
	"encoding/binary"
	"io"
	"strings"

	"github.com/andreas-jonsson/realxt/version"
	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

const (
	Magic         = "RXTR"
	FormatVersion = 1
)

var ErrInvalidMagic = errors.New("invalid trace magic")

var options = &struc.Options{Order: binary.LittleEndian}

// Header starts every trace. The events follow as a snappy stream.
type Header struct {
	Magic         string `struc:"[4]byte"`
	FormatVersion uint16
	Major         uint8
	Minor         uint8
	Patch         uint8
	Hash          string `struc:"[40]byte"`
}

func (h *Header) Version() version.Version {
	return version.New(h.Major, h.Minor, h.Patch)
}

type Encoder struct {
	writer *snappy.Writer
}

// NewEncoder writes the header to w and returns an encoder for the events.
func NewEncoder(w io.Writer) (*Encoder, error) {
	v := version.Current
	h := &Header{
		Magic:         Magic,
		FormatVersion: FormatVersion,
		Major:         v.Major,
		Minor:         v.Minor,
		Patch:         v.Patch,
		Hash:          version.Hash,
	}
	if err := struc.PackWithOptions(w, h, options); err != nil {
		return nil, errors.Wrap(err, "failed to pack header")
	}
	return &Encoder{writer: snappy.NewBufferedWriter(w)}, nil
}

func (enc *Encoder) Encode(ev *Event) error {
	return struc.PackWithOptions(enc.writer, ev, options)
}

func (enc *Encoder) Close() error {
	return enc.writer.Close()
}

type Decoder struct {
	Header Header
	reader *snappy.Reader
}

// NewReader reads the header from r and returns a decoder for the events.
func NewReader(r io.Reader) (*Decoder, error) {
	dec := &Decoder{}
	if err := struc.UnpackWithOptions(r, &dec.Header, options); err != nil {
		return nil, errors.Wrap(err, "failed to unpack header")
	}
	if dec.Header.Magic != Magic {
		return nil, ErrInvalidMagic
	}
	if dec.Header.FormatVersion != FormatVersion {
		return nil, errors.Errorf("unsupported trace version: %d", dec.Header.FormatVersion)
	}
	dec.Header.Hash = strings.TrimRight(dec.Header.Hash, "\x00")
	dec.reader = snappy.NewReader(r)
	return dec, nil
}

// Next returns io.EOF after the last event.
func (dec *Decoder) Next() (*Event, error) {
	ev := &Event{}
	if err := struc.UnpackWithOptions(dec.reader, ev, options); err != nil {
		if errors.Cause(err) == io.ErrUnexpectedEOF {
			return nil, errors.Wrap(err, "truncated trace")
		}
		return nil, err
	}
	return ev, nil
}
