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

// Package validator records every executed instruction with the registers
// before and after and the memory it touched, for differential testing
// against reference emulators.
package validator

import (
	"io"
	"log"

	"github.com/andreas-jonsson/realxt/emulator/memory"
	"github.com/andreas-jonsson/realxt/emulator/processor"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const DefaultQueueSize = 1024

// Recorder implements the processor tracer interface. Events are encoded on
// a separate goroutine.
type Recorder struct {
	inScope bool
	current Event

	closer   io.Closer
	enc      *Encoder
	output   chan Event
	done     chan error
	numEvent uint64
}

// NewRecorder writes a trace to w. The queue size bounds the number of
// events waiting to be encoded.
func NewRecorder(w io.Writer, queueSize int) (*Recorder, error) {
	enc, err := NewEncoder(w)
	if err != nil {
		return nil, err
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	r := &Recorder{
		enc:    enc,
		output: make(chan Event, queueSize),
		done:   make(chan error, 1),
	}

	go func() {
		var err error
		for ev := range r.output {
			if err != nil {
				continue
			}
			if err = enc.Encode(&ev); err != nil {
				log.Print("Failed to encode trace event: ", err)
			}
		}
		if cerr := enc.Close(); err == nil {
			err = cerr
		}
		r.done <- err
	}()
	return r, nil
}

// Create records to a new file.
func Create(fs afero.Fs, name string) (*Recorder, error) {
	fp, err := fs.Create(name)
	if err != nil {
		return nil, errors.Wrap(err, "could not create trace")
	}
	r, err := NewRecorder(fp, DefaultQueueSize)
	if err != nil {
		fp.Close()
		return nil, err
	}
	r.closer = fp
	return r, nil
}

func (r *Recorder) Begin(addr memory.Address, code []byte, regs *processor.Registers) {
	r.inScope = true
	r.current = Event{
		Address: uint32(addr),
		Before:  regs.GetValues(),
	}
	r.current.Length = uint8(copy(r.current.Code[:], code))
}

func (r *Recorder) ReadByte(addr memory.Pointer, data byte) {
	if r.inScope {
		r.current.pushRead(addr, data)
	}
}

func (r *Recorder) WriteByte(addr memory.Pointer, data byte) {
	if r.inScope {
		r.current.pushWrite(addr, data)
	}
}

func (r *Recorder) End(regs *processor.Registers) {
	if !r.inScope {
		return
	}
	r.inScope = false
	r.current.After = regs.GetValues()
	r.output <- r.current
	r.numEvent++
}

func (r *Recorder) Discard() {
	r.inScope = false
}

// Count returns the number of recorded events.
func (r *Recorder) Count() uint64 {
	return r.numEvent
}

// Close flushes pending events.
func (r *Recorder) Close() error {
	close(r.output)
	err := <-r.done
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
