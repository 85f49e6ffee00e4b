// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package pvmload reads PVM volume files, either plain or coded as a
// Differential Data Stream, into a voxel payload and its metadata.
//
// Reads are synchronous and each call owns all of its decoding state,
// so distinct files may be read from separate goroutines without locking.
package pvmload

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/elliotnunn/pvmload/internal/dds"
	"github.com/elliotnunn/pvmload/internal/growbuf"
	"github.com/elliotnunn/pvmload/internal/outer"
	"github.com/elliotnunn/pvmload/internal/pvm"
)

// A Volume is a decoded grid of Width*Height*Depth voxels, each Components bytes.
// The four text fields are nil when the file does not carry them.
type Volume = pvm.Volume

// SyntaxError locates a malformed PVM header line.
type SyntaxError = pvm.SyntaxError

var (
	ErrNotPVM     = pvm.ErrFormat // not applicable
	ErrNotDDS     = dds.ErrFormat // not applicable
	ErrEmpty      = growbuf.ErrEmpty
	ErrCorrupt    = pvm.ErrCorrupt // fatal
	ErrCorruptDDS = dds.ErrCorrupt
	ErrTooLarge   = growbuf.ErrTooLarge
)

// IsNotApplicable reports whether err only means that there is nothing here to read:
// the file is missing, empty, or not in a recognised format.
// Any other error from this package means the file is damaged or too large.
func IsNotApplicable(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, ErrNotPVM) ||
		errors.Is(err, ErrNotDDS) ||
		errors.Is(err, ErrEmpty)
}

// ReadVolume reads a PVM volume from fsys.
// A DDS-coded file is decoded first; anything else is read as-is.
// Either may additionally be wrapped in gzip, bzip2, xz or zstd compression.
func ReadVolume(fsys fs.FS, name string, opts ...Option) (*Volume, error) {
	o := getOptions(opts)

	data, err := readContainer(fsys, name, o.limit)
	if err != nil {
		return nil, report(name, err)
	}
	v, err := pvm.Parse(data, o.multi)
	if err != nil {
		return nil, report(name, err)
	}
	return v, nil
}

// ReadVolumeFile is ReadVolume for a path in the operating system's file system.
func ReadVolumeFile(path string, opts ...Option) (*Volume, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return ReadVolume(os.DirFS(dir), base, opts...)
}

func readContainer(fsys fs.FS, name string, limit int64) ([]byte, error) {
	data, err := readDDS(fsys, name, limit)
	if errors.Is(err, ErrNotDDS) {
		data, err = readRaw(fsys, name, limit)
	}
	return data, err
}

// ReadDDSFile decodes a DDS-coded file. ErrNotDDS means the file lacks a DDS signature.
func ReadDDSFile(fsys fs.FS, name string, opts ...Option) ([]byte, error) {
	data, err := readDDS(fsys, name, getOptions(opts).limit)
	if err != nil {
		return nil, report(name, err)
	}
	return data, nil
}

// ReadRawFile returns the contents of a file, stripped of any outer compression.
// ErrEmpty means the file holds no data.
func ReadRawFile(fsys fs.FS, name string, opts ...Option) ([]byte, error) {
	data, err := readRaw(fsys, name, getOptions(opts).limit)
	if err != nil {
		return nil, report(name, err)
	}
	return data, nil
}

// ReadRaw reads r to the end in 1 MiB blocks. ErrEmpty means r held no data.
func ReadRaw(r io.Reader, opts ...Option) ([]byte, error) {
	return growbuf.ReadAll(r, getOptions(opts).limit)
}

func readDDS(fsys fs.FS, name string, limit int64) ([]byte, error) {
	r, kind, closer, err := open(fsys, name)
	if err != nil {
		return nil, err
	}
	defer closer()

	data, err := dds.ReadFrom(r, limit)
	if err != nil {
		return nil, err
	}
	slog.Debug("ddsDecoded", "path", name, "outer", kind, "bytes", len(data))
	return data, nil
}

func readRaw(fsys fs.FS, name string, limit int64) ([]byte, error) {
	r, _, closer, err := open(fsys, name)
	if err != nil {
		return nil, err
	}
	defer closer()

	return growbuf.ReadAll(r, limit)
}

func open(fsys fs.FS, name string) (io.Reader, outer.Kind, func(), error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, outer.None, nil, err
	}
	r, kind, err := outer.NewReader(f)
	if err != nil {
		f.Close()
		return nil, kind, nil, err
	}
	return r, kind, func() { r.Close(); f.Close() }, nil
}

// report logs damaging errors and passes every error back
func report(name string, err error) error {
	if IsNotApplicable(err) {
		return err
	}
	slog.Error("volumeReadError", "path", name, "err", err)
	return err
}
