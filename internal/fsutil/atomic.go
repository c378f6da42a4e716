// Package fsutil provides small filesystem helpers shared by the deploy steps.
package fsutil

import (
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to dir/name atomically using a temp file and rename.
// Readers never observe a partially-written file, and the final mode is exactly perm
// regardless of the process umask.
func WriteFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	return writeAtomic(filepath.Join(dir, name), perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// CopyFileAtomic streams src into dst via a temp file in dst's directory and renames it
// into place. dst's parent directory must exist.
func CopyFileAtomic(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	return writeAtomic(dst, perm, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// writeAtomic fills a uniquely named temp file next to targetPath and renames it
// into place, so sibling files that look like temp files are never touched.
func writeAtomic(targetPath string, perm os.FileMode, fill func(io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(targetPath), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath) // clean up on error

	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(perm); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, targetPath)
}
