// Package walk orders files so that a batch of reads sweeps the disk instead of seeking about.
package walk

import (
	"cmp"
	"io/fs"
	"slices"
)

// DiskOrder returns names sorted by an approximation of their position on disk,
// together with a description of the sort key that was used.
// If no key is available the original order is kept.
func DiskOrder(fsys fs.FS, names []string) (string, []string) {
	if len(names) == 0 {
		return "no-files", names
	}

	list := make([]file, 0, len(names))
	waysort := ""
	for _, name := range names {
		el := file{path: name}
		info, err := fs.Stat(fsys, name)
		if err != nil {
			return "walk-order", names
		}
		key, how, ok := getkey(info)
		if !ok {
			return "walk-order", names
		}
		el.key, waysort = key, how
		list = append(list, el)
	}

	slices.SortStableFunc(list, func(a, b file) int { return cmp.Compare(a.key, b.key) })
	sorted := make([]string, len(list))
	for i, f := range list {
		sorted[i] = f.path
	}
	return waysort, sorted
}

type file struct {
	path string
	key  uint64
}

func getkey(i fs.FileInfo) (uint64, string, bool) {
	if ino, ok := tryInode(i); ok { // intended as a vague proxy for "order on disk"
		return ino, "inode-number", true
	}

	switch t := i.Sys().(type) {
	case interface{ ByteOffset() int64 }:
		return uint64(t.ByteOffset()), "byte-offset", true
	case interface{ Inode() uint64 }:
		return t.Inode(), "inode-number", true
	}
	return 0, "", false
}

var tryInode = func(i fs.FileInfo) (uint64, bool) { return 0, false }
