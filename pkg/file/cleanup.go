package file

import (
	"fmt"
	"os"
)

// RemoveTree deletes a directory and everything under it. A missing
// directory is not an error.
func RemoveTree(dir string) error {
	if dir == "" {
		return fmt.Errorf("directory path is empty")
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", dir, err)
	}
	return nil
}
