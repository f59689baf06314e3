//go:build unix

package vm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// allocPhysMem maps an anonymous private region to serve as the frame arena
func allocPhysMem(size int) ([]byte, func() error, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to map %d bytes of physical memory: %w", size, err)
	}

	release := func() error {
		return unix.Munmap(data)
	}
	return data, release, nil
}
