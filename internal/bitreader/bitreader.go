// Package bitreader reads MSB-first bit fields from a byte slice.
//
// The slice is copied and zero-padded to a whole number of 32-bit words.
// Reading past the end is not an error: the reader keeps returning zero bits,
// which is how a DDS stream finds its terminator.
package bitreader

import (
	"encoding/binary"

	"github.com/elliotnunn/pvmload/internal/growbuf"
)

type Reader struct {
	cache  []byte // padded copy of the input
	pos    int    // next word to load
	window uint32 // low avail bits are still unread
	avail  uint
}

func New(p []byte) *Reader {
	r := new(Reader)
	r.Reset(p)
	return r
}

// Reset loads a new buffer and clears the bit window.
func (r *Reader) Reset(p []byte) {
	r.cache = growbuf.Pad(p, 4)
	r.pos = 0
	r.Clear()
}

// Clear discards any bits held in the window without moving the byte offset.
func (r *Reader) Clear() {
	r.window, r.avail = 0, 0
}

// Offset is the number of bytes loaded into the window so far.
func (r *Reader) Offset() int { return r.pos }

// ReadBits returns the next n bits, 0 <= n <= 32.
func (r *Reader) ReadBits(n uint) uint32 {
	if n < r.avail {
		r.avail -= n
		v := r.window >> r.avail
		r.window &= 1<<r.avail - 1
		return v
	}

	// Go defines over-wide shifts as zero, so n-avail == 32 is fine
	v := r.window << (n - r.avail)
	if r.pos >= len(r.cache) {
		r.window = 0
	} else {
		r.window = binary.BigEndian.Uint32(r.cache[r.pos:])
		r.pos += 4
	}
	r.avail += 32 - n
	v |= r.window >> r.avail
	r.window &= 1<<r.avail - 1
	return v
}
