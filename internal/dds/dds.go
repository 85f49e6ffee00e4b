// Copyright (c) Elliot Nunn

// This library is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 2.1 of the License, or (at your option) any later version.

// This library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.

// Package dds decodes Differential Data Streams, the delta coding used for PVM volumes.
package dds

import (
	"errors"
	"fmt"
	"io"

	"github.com/elliotnunn/pvmload/internal/bitreader"
	"github.com/elliotnunn/pvmload/internal/growbuf"
	"github.com/elliotnunn/pvmload/internal/interleave"
)

const (
	Magic1 = "DDS v3d\n" // lanes span the whole stream
	Magic2 = "DDS v3e\n" // lanes are bounded by Window

	// Window is the interleave window, in samples per lane, of Magic2 streams.
	Window = 1 << 24

	runLengthBits = 7
)

var (
	ErrFormat  = errors.New("not a DDS stream")
	ErrCorrupt = errors.New("corrupt DDS stream")
)

// residual bit width for each 3-bit code: 1-bit residuals cannot be expressed
var widths = [8]uint{0, 2, 3, 4, 5, 6, 7, 8}

// Sniff reports whether p starts with a DDS signature, and the interleave window it selects.
func Sniff(p []byte) (window int, ok bool) {
	switch {
	case len(p) >= len(Magic1) && string(p[:len(Magic1)]) == Magic1:
		return 0, true
	case len(p) >= len(Magic2) && string(p[:len(Magic2)]) == Magic2:
		return Window, true
	}
	return 0, false
}

// ReadFrom reads a whole DDS file from r and decodes it.
// Decoded output larger than limit bytes is refused (limit <= 0 means no limit).
func ReadFrom(r io.Reader, limit int64) ([]byte, error) {
	var sig [len(Magic1)]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrFormat
		}
		return nil, err
	}
	window, ok := Sniff(sig[:])
	if !ok {
		return nil, ErrFormat
	}

	chunk, err := growbuf.ReadAll(r, limit)
	if errors.Is(err, growbuf.ErrEmpty) {
		return nil, fmt.Errorf("%w: nothing after the signature", ErrCorrupt)
	} else if err != nil {
		return nil, err
	}

	return NewDecoder(limit).Decode(chunk, window)
}

// A Decoder holds the state of one decode. It is not safe for concurrent use,
// but separate Decoders may run in parallel.
type Decoder struct {
	br    bitreader.Reader
	out   *growbuf.Buffer
	limit int64

	skip, strip int
}

func NewDecoder(limit int64) *Decoder {
	return &Decoder{limit: limit}
}

// Decode reconstructs the byte stream coded in chunk,
// then undoes the encoder's interleave using the given window.
// The returned slice is owned by the caller.
func (d *Decoder) Decode(chunk []byte, window int) ([]byte, error) {
	d.br.Reset(chunk)
	d.out = growbuf.New(d.limit)
	defer func() { d.out = nil }()

	d.readHeader()
	if err := d.decodeRuns(); err != nil {
		return nil, err
	}

	p := d.out.Detach()
	interleave.Deinterleave(p, d.skip, window)
	return p, nil
}

func (d *Decoder) readHeader() {
	d.skip = int(d.br.ReadBits(2)) + 1
	d.strip = int(d.br.ReadBits(16)) + 1
}

func (d *Decoder) decodeRuns() error {
	act := 0
	for {
		run := d.br.ReadBits(runLengthBits)
		if run == 0 {
			return nil
		}
		w := widths[d.br.ReadBits(3)]
		bias := 1 << w / 2

		for range run {
			cnt := d.out.Len()
			if d.strip == 1 || cnt <= d.strip {
				act += int(d.br.ReadBits(w)) - bias
			} else {
				s := d.out.Bytes()
				act += int(s[cnt-d.strip]) - int(s[cnt-d.strip-1]) + int(d.br.ReadBits(w)) - bias
			}
			act &= 0xff // wrap, two's complement makes this a true modulo

			if err := d.out.WriteByte(byte(act)); err != nil {
				return fmt.Errorf("after %d samples: %w", cnt, err)
			}
		}
	}
}

// Header returns the lane count and predictor stride of the last decoded stream.
func (d *Decoder) Header() (skip, strip int) { return d.skip, d.strip }
