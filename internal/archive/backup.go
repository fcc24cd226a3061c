package archive

import (
	"fmt"
	"os"
)

// Backup copies the archive directory tree into dst, merging with existing
// content. Nothing in the archive is removed.
func Backup(archiveDir, dst string) (int64, error) {
	info, err := os.Stat(archiveDir)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCopyFailed, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%w: %s is not a directory", ErrCopyFailed, archiveDir)
	}
	if isUnder(dst, archiveDir) {
		return 0, fmt.Errorf("%w: backup destination %s is inside %s", ErrCopyFailed, dst, archiveDir)
	}

	n, err := copyTreeFunc(archiveDir, dst)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}
	return n, nil
}
