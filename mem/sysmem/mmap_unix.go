//go:build unix

package sysmem

import "golang.org/x/sys/unix"

// mmapAnonymous requests a private, anonymous mapping from the kernel:
// no file descriptor, no name, zero-filled on first touch.
func mmapAnonymous(size uintptr) ([]byte, error) {
	return unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
}

func munmapAnonymous(buf []byte) error {
	return unix.Munmap(buf)
}
