//go:build !unix

package fileio

import (
	"fmt"
	"os"
)

// Writable reports whether files can be created in dir by creating and
// removing a probe file.
func Writable(dir string) error {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
