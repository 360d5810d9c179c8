//go:build windows

package sysmem

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// mmapAnonymous requests a private, committed region directly from the
// kernel via VirtualAlloc, the Windows analogue of an anonymous mmap.
func mmapAnonymous(size uintptr) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, size, windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size)), nil
}

func munmapAnonymous(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return windows.VirtualFree(uintptr(unsafe.Pointer(&buf[0])), 0, windows.MEM_RELEASE)
}
