package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePath ensures path is within root.
// Returns ErrPathTraversal if the path would escape the root.
func ValidatePath(path, root string) error {
	cleanPath := filepath.Clean(path)
	cleanRoot := filepath.Clean(root)

	prefix := cleanRoot
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	if cleanPath != cleanRoot && !strings.HasPrefix(cleanPath, prefix) {
		return fmt.Errorf("%w: %s is outside %s", ErrPathTraversal, path, root)
	}
	return nil
}

// samePath reports whether a and b name the same filesystem object, either
// lexically after making them absolute or by device and inode.
func samePath(a, b string) bool {
	if absClean(a) == absClean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// isUnder reports whether path is root or lies beneath it.
func isUnder(path, root string) bool {
	return ValidatePath(absClean(path), absClean(root)) == nil
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
