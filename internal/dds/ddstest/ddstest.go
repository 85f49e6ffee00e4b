// Package ddstest produces DDS streams for tests.
//
// The encoder is deliberately simple: every sample gets the narrowest residual width
// that holds it, and consecutive samples of equal width share a run.
// It does not search for a good stride; the caller picks skip and strip.
package ddstest

import (
	"bytes"

	"github.com/icza/bitio"

	"github.com/elliotnunn/pvmload/internal/dds"
	"github.com/elliotnunn/pvmload/internal/interleave"
)

const maxRun = 1<<7 - 1

// File returns a complete DDS file holding data, headed by magic (dds.Magic1 or dds.Magic2).
func File(data []byte, skip, strip int, magic string) []byte {
	window := 0
	if magic == dds.Magic2 {
		window = dds.Window
	}
	return append([]byte(magic), Stream(data, skip, strip, window)...)
}

// Stream codes data without a signature. window must match what the decoder will use.
func Stream(data []byte, skip, strip, window int) []byte {
	p := bytes.Clone(data)
	interleave.Interleave(p, skip, window)

	deltas := make([]int, len(p))
	act := 0
	for i, v := range p {
		pred := act
		if strip > 1 && i > strip {
			pred += int(p[i-strip]) - int(p[i-strip-1])
		}
		d := (int(v) - pred) & 0xff
		if d >= 128 {
			d -= 256
		}
		deltas[i] = d
		act = int(v)
	}

	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	w.WriteBits(uint64(skip-1), 2)
	w.WriteBits(uint64(strip-1), 16)

	for start := 0; start < len(deltas); {
		width := widthFor(deltas[start])
		end := start + 1
		for end < len(deltas) && end-start < maxRun && widthFor(deltas[end]) == width {
			end++
		}

		w.WriteBits(uint64(end-start), 7)
		w.WriteBits(uint64(codeFor(width)), 3)
		bias := 1 << width / 2
		for _, d := range deltas[start:end] {
			w.WriteBits(uint64(d+bias), uint8(width))
		}
		start = end
	}

	w.WriteBits(0, 7) // terminator
	w.Close()
	return buf.Bytes()
}

// Fields writes raw bit fields, for hand-built streams. Each pair is (value, width).
func Fields(pairs ...uint64) []byte {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	for i := 0; i+1 < len(pairs); i += 2 {
		w.WriteBits(pairs[i], uint8(pairs[i+1]))
	}
	w.Close()
	return buf.Bytes()
}

func widthFor(d int) int {
	if d == 0 {
		return 0
	}
	for w := 2; w < 8; w++ {
		if d >= -(1<<(w-1)) && d < 1<<(w-1) {
			return w
		}
	}
	return 8
}

func codeFor(width int) int {
	if width == 0 {
		return 0
	}
	return width - 1
}
