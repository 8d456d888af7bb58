//go:build unix

package fileio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Writable reports whether files can be created in dir.
func Writable(dir string) error {
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("directory %s is not writable: %w", dir, err)
	}
	return nil
}
