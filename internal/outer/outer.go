// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package outer strips general-purpose compression wrapped around a volume file,
// so that "head.pvm.gz" or "head.dds.xz" read the same as the bare file.
package outer

import (
	"bufio"
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/therootcompany/xz"
)

type Kind int

const (
	None Kind = iota
	Gzip
	Bzip2
	XZ
	Zstd
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case XZ:
		return "xz"
	case Zstd:
		return "zstd"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sniff identifies the compression from the first bytes of a file.
func Sniff(header []byte) Kind {
	matchAt := func(s string, offset int) bool {
		return len(header) >= offset+len(s) && string(header[offset:][:len(s)]) == s
	}

	switch {
	case matchAt("\x1f\x8b", 0):
		return Gzip
	case matchAt("BZh", 0):
		return Bzip2
	case matchAt("\xfd7zXZ\x00", 0):
		return XZ
	case matchAt("\x28\xb5\x2f\xfd", 0):
		return Zstd
	}
	return None
}

// NewReader returns the decompressed contents of r, or r itself when it is not compressed.
// Closing the result does not close r.
func NewReader(r io.Reader) (io.ReadCloser, Kind, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return nil, None, err
	}

	kind := Sniff(header)
	switch kind {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, kind, fmt.Errorf("gzip: %w", err)
		}
		return zr, kind, nil
	case Bzip2:
		return io.NopCloser(bzip2.NewReader(br)), kind, nil
	case XZ:
		xr, err := xz.NewReader(br, xz.DefaultDictMax)
		if err != nil {
			return nil, kind, fmt.Errorf("xz: %w", err)
		}
		return io.NopCloser(xr), kind, nil
	case Zstd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, kind, fmt.Errorf("zstd: %w", err)
		}
		return zr.IOReadCloser(), kind, nil
	}
	return io.NopCloser(br), None, nil
}
