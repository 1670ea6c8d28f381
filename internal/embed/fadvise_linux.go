//go:build linux

package embed

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel the input is read once front to back.
func adviseSequential(f *os.File) error {
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
