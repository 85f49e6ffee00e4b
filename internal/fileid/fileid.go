// Package fileid names a file by what it is rather than where it is,
// so that a cache notices when a volume file is replaced or rewritten.
package fileid

import (
	"encoding/binary"
	"io/fs"
	"path"

	"github.com/cespare/xxhash/v2"
)

// ID = (64 bits of device+inode, zero if unknown) + (64 bits of hash of (name, size, mtime))
type ID [16]byte

func Get(fsys fs.FS, pathname string) (ID, error) {
	inf, err := fs.Stat(fsys, pathname)
	if err != nil {
		return ID{}, err
	}

	var id ID
	binary.BigEndian.PutUint64(id[:], inode(fsys, pathname))

	h := xxhash.New()
	h.WriteString(path.Clean(pathname))
	binary.Write(h, binary.BigEndian, inf.Size())
	binary.Write(h, binary.BigEndian, inf.ModTime().UnixNano())
	binary.BigEndian.PutUint64(id[8:], h.Sum64())

	return id, nil
}

func (id ID) IsZero() bool { return id == ID{} }
