// Package pvm parses PVM volume containers.
//
// Three generations exist. "PVM\n" has an implicit unit voxel scale and may carry
// "#" comment lines before the dimensions. "PVM2\n" adds a scale line.
// "PVM3\n" also appends four NUL-terminated text fields after the voxels.
package pvm

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strconv"
)

var (
	ErrFormat  = errors.New("not a PVM volume")
	ErrCorrupt = errors.New("corrupt PVM volume")
)

// A SyntaxError locates a problem in the header.
type SyntaxError struct {
	Offset int64 // byte offset of the offending line
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("PVM header at byte %d: %s", e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrCorrupt }

type Volume struct {
	Generation            int
	Width, Height, Depth  int
	Components            int
	Scale                 [3]float32
	Data                  []byte // Width*Height*Depth*Components bytes
	Description, Courtesy []byte // nil when absent
	Parameter, Comment    []byte
}

// Parse decodes a complete container. Unless multi is set, volumes with
// more than one component per voxel are rejected.
//
// The returned Volume does not alias p.
func Parse(p []byte, multi bool) (*Volume, error) {
	v := &Volume{Scale: [3]float32{1, 1, 1}}
	h := header{p: p}

	switch {
	case len(p) < 5:
		return nil, ErrFormat
	case bytes.HasPrefix(p, []byte("PVM\n")):
		v.Generation, h.pos = 1, 4
	case bytes.HasPrefix(p, []byte("PVM2\n")):
		v.Generation, h.pos = 2, 5
	case bytes.HasPrefix(p, []byte("PVM3\n")):
		v.Generation, h.pos = 3, 5
	default:
		return nil, ErrFormat
	}

	if v.Generation == 1 {
		for h.pos < len(p) && p[h.pos] == '#' {
			if _, err := h.line(); err != nil {
				return nil, err
			}
		}
	}

	dims, err := h.ints(3)
	if err != nil {
		return nil, err
	}
	if dims[0] < 1 || dims[1] < 1 || dims[2] < 1 {
		return nil, h.errorf("dimensions %dx%dx%d", dims[0], dims[1], dims[2])
	}
	v.Width, v.Height, v.Depth = dims[0], dims[1], dims[2]

	if v.Generation >= 2 {
		f, err := h.fields(3)
		if err != nil {
			return nil, err
		}
		for i, s := range f {
			x, err := strconv.ParseFloat(s, 32)
			if err != nil || !(x > 0) || math.IsInf(x, 0) {
				return nil, h.errorf("bad voxel scale %q", s)
			}
			v.Scale[i] = float32(x)
		}
	}

	numc, err := h.ints(1)
	if err != nil {
		return nil, err
	}
	if numc[0] < 1 {
		return nil, h.errorf("%d components", numc[0])
	} else if numc[0] != 1 && !multi {
		return nil, h.errorf("%d components where 1 was expected", numc[0])
	}
	v.Components = numc[0]

	if err := v.slice(p[h.pos:], int64(h.pos)); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Volume) slice(rest []byte, base int64) error {
	size, ok := product(v.Width, v.Height, v.Depth, v.Components)
	if !ok || size > uint64(len(rest)) {
		return fmt.Errorf("%w: %dx%dx%dx%d voxels but only %d bytes follow the header at byte %d",
			ErrCorrupt, v.Width, v.Height, v.Depth, v.Components, len(rest), base)
	}

	var fields [4]int // lengths including the terminator
	total := int(size)
	if v.Generation == 3 {
		for i := range fields {
			n := bytes.IndexByte(rest[total:], 0)
			if n < 0 {
				return fmt.Errorf("%w: text field %d is not terminated", ErrCorrupt, i+1)
			}
			fields[i] = n + 1
			total += n + 1
		}
	}
	if total != len(rest) {
		return fmt.Errorf("%w: %d bytes follow the header but %d were expected",
			ErrCorrupt, len(rest), total)
	}

	buf := make([]byte, total)
	copy(buf, rest)
	v.Data = buf[:size:size]

	views := [4]*[]byte{&v.Description, &v.Courtesy, &v.Parameter, &v.Comment}
	off := int(size)
	for i, n := range fields {
		if n > 1 {
			*views[i] = buf[off : off+n-1 : off+n-1]
		}
		off += n
	}
	return nil
}

func product(n ...int) (uint64, bool) {
	p := uint64(1)
	for _, x := range n {
		hi, lo := bits.Mul64(p, uint64(x))
		if hi != 0 {
			return 0, false
		}
		p = lo
	}
	return p, true
}

// header walks newline-terminated lines
type header struct {
	p   []byte
	pos int
	cur int // start of the line most recently read
}

func (h *header) line() ([]byte, error) {
	h.cur = h.pos
	n := bytes.IndexByte(h.p[h.pos:], '\n')
	if n < 0 {
		return nil, h.errorf("unterminated line")
	}
	l := h.p[h.pos : h.pos+n]
	h.pos += n + 1
	return l, nil
}

func (h *header) fields(want int) ([]string, error) {
	l, err := h.line()
	if err != nil {
		return nil, err
	}
	f := bytes.Fields(l)
	if len(f) != want {
		return nil, h.errorf("expected %d values, got %q", want, l)
	}
	s := make([]string, want)
	for i := range f {
		s[i] = string(f[i])
	}
	return s, nil
}

func (h *header) ints(want int) ([]int, error) {
	f, err := h.fields(want)
	if err != nil {
		return nil, err
	}
	n := make([]int, want)
	for i, s := range f {
		x, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, h.errorf("bad integer %q", s)
		}
		n[i] = int(x)
	}
	return n, nil
}

func (h *header) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: int64(h.cur), Msg: fmt.Sprintf(format, args...)}
}

// Voxels is the number of grid points.
func (v *Volume) Voxels() int { return v.Width * v.Height * v.Depth }

// Size is the length of the payload in bytes.
func (v *Volume) Size() int { return v.Voxels() * v.Components }
