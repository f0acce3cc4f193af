package core

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveToFile writes data to a temporary file next to path and renames it into place,
// so readers never observe a partially written file.
func SaveToFile(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create temp file for %v failed: %w", path, err)
	}

	_, err = f.Write(data)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("write to file %v failed: %w", path, err)
	}

	err = f.Close()
	if err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("close file %v failed: %w", path, err)
	}

	err = os.Rename(f.Name(), path)
	if err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("rename to %v failed: %w", path, err)
	}
	return nil
}
