//go:build unix

package fileid

import (
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// inode asks the kernel directly, which only works when fsys hands out real files
func inode(fsys fs.FS, pathname string) uint64 {
	f, err := fsys.Open(pathname)
	if err != nil {
		return 0
	}
	defer f.Close()

	osf, ok := f.(*os.File)
	if !ok {
		return 0
	}
	conn, err := osf.SyscallConn()
	if err != nil {
		return 0
	}

	var (
		stat  unix.Stat_t
		inerr error
	)
	err = conn.Control(func(fd uintptr) {
		inerr = unix.Fstat(int(fd), &stat)
	})
	if err != nil || inerr != nil {
		return 0
	}
	return uint64(stat.Ino) ^ uint64(stat.Dev)<<48
}
