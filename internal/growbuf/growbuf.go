// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package growbuf accumulates bytes in fixed-size blocks when the final size is unknown.
package growbuf

import (
	"errors"
	"io"
	"slices"
)

const BlockSize = 1 << 20

var (
	ErrEmpty    = errors.New("no data")
	ErrTooLarge = errors.New("buffer limit exceeded")
)

// A Buffer grows one block at a time and refuses to hold more than limit bytes.
// A limit of zero or less means no limit.
type Buffer struct {
	buf   []byte
	limit int64
}

func New(limit int64) *Buffer {
	return &Buffer{limit: limit}
}

func (b *Buffer) Len() int { return len(b.buf) }

// Bytes returns the contents so far. The slice is only valid until the next write.
func (b *Buffer) Bytes() []byte { return b.buf }

func (b *Buffer) WriteByte(c byte) error {
	if b.limit > 0 && int64(len(b.buf)) >= b.limit {
		return ErrTooLarge
	}
	if len(b.buf) == cap(b.buf) {
		b.buf = slices.Grow(b.buf, BlockSize)
	}
	b.buf = append(b.buf, c)
	return nil
}

// ReadFrom reads whole blocks from r until a block comes back short.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		n := BlockSize
		if b.limit > 0 {
			// one byte past the limit is enough to notice an oversized stream
			n = int(min(BlockSize, b.limit-int64(len(b.buf))+1))
		}
		b.buf = slices.Grow(b.buf, n)
		got, err := io.ReadFull(r, b.buf[len(b.buf):len(b.buf)+n])
		b.buf = b.buf[:len(b.buf)+got]
		total += int64(got)

		if b.limit > 0 && int64(len(b.buf)) > b.limit {
			b.buf = nil
			return total, ErrTooLarge
		}
		switch err {
		case nil: // full block, keep going
		case io.EOF, io.ErrUnexpectedEOF:
			return total, nil
		default:
			return total, err
		}
	}
}

// Detach hands over the contents, clipped to their exact length, and leaves the Buffer empty.
func (b *Buffer) Detach() []byte {
	p := slices.Clip(b.buf)
	b.buf = nil
	return p
}

// ReadAll reads r to the end. It returns ErrEmpty if r had nothing to give.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	b := New(limit)
	if _, err := b.ReadFrom(r); err != nil {
		return nil, err
	}
	if b.Len() == 0 {
		return nil, ErrEmpty
	}
	return b.Detach(), nil
}

// Pad returns a copy of p extended with zero bytes to a multiple of align.
func Pad(p []byte, align int) []byte {
	q := make([]byte, (len(p)+align-1)/align*align)
	copy(q, p)
	return q
}
