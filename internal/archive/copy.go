package archive

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Replaced in tests to simulate I/O failures.
var (
	copyFileFunc  = copyFile
	copyTreeFunc  = copyTree
	removeFunc    = os.Remove
	removeAllFunc = os.RemoveAll
)

// copyFile copies a regular file to dst, preserving mode and modification time.
// A dst with identical size and SHA-256 counts as already copied; any other
// existing dst fails with ErrDestinationExists.
func copyFile(src, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	existing, err := os.Lstat(dst)
	switch {
	case err == nil:
		same, err := sameContent(src, dst, info, existing)
		if err != nil {
			return 0, err
		}
		if !same {
			return 0, fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return info.Size(), nil
	case !errors.Is(err, fs.ErrNotExist):
		return 0, fmt.Errorf("stat destination: %w", err)
	}

	return writeVerified(src, dst, info)
}

// copyTree copies the directory src into dst, merging with anything already
// there. Files present on both sides are replaced by the source version.
// The tree is checked for unsupported entries before anything is written.
func copyTree(src, dst string) (int64, error) {
	if err := checkTree(src); err != nil {
		return 0, err
	}

	var total int64
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := os.MkdirAll(target, info.Mode().Perm()|0o700); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}
			return nil
		}

		n, err := writeVerified(path, target, info)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		total += n
		return nil
	})
	return total, err
}

// checkTree fails with ErrUnknownEntityType if src contains anything other
// than directories and regular files.
func checkTree(src string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return fmt.Errorf("%w: %s (%s)", ErrUnknownEntityType, path, d.Type())
		}
		return nil
	})
}

// writeVerified streams src into a temporary file beside dst, re-reads it to
// check size and SHA-256 against the source, then renames it over dst.
func writeVerified(src, dst string, info fs.FileInfo) (int64, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	srcHash := sha256.New()
	written, err := io.Copy(tmp, io.TeeReader(in, srcHash))
	if err != nil {
		return 0, fmt.Errorf("copy content: %w", err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close: %w", err)
	}

	if written != info.Size() {
		return 0, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}
	copied, err := hashFile(tmpName)
	if err != nil {
		return 0, err
	}
	if !bytes.Equal(srcHash.Sum(nil), copied) {
		return 0, errors.New("copy hash mismatch: file corrupted during copy")
	}

	if err := os.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
		return 0, fmt.Errorf("set times: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return 0, fmt.Errorf("rename: %w", err)
	}
	committed = true

	return written, nil
}

func sameContent(src, dst string, srcInfo, dstInfo fs.FileInfo) (bool, error) {
	if !dstInfo.Mode().IsRegular() || dstInfo.Size() != srcInfo.Size() {
		return false, nil
	}
	a, err := hashFile(src)
	if err != nil {
		return false, err
	}
	b, err := hashFile(dst)
	if err != nil {
		return false, err
	}
	return bytes.Equal(a, b), nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open for hashing: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}
	return h.Sum(nil), nil
}
