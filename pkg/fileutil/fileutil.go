// Package fileutil provides file system helpers shared by the script loader
// and the file-based script functions.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive searches for a file with the given name in the specified directory.
// The search is case-insensitive, so scripts written on case-insensitive file systems
// keep working on Linux.
//
// Example:
//
//	path, err := FindFileCaseInsensitive("/path/to/dir", "Shader.VERT")
//	// Will find "shader.vert", "SHADER.VERT", "Shader.vert", etc.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	searchName := strings.ToLower(filename)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, os.ErrNotExist)
}
