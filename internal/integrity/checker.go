// Package integrity compares a deployed file tree against the files it was deployed from.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// HashFile computes the SHA-256 checksum of the file at path using streaming I/O.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("integrity: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("integrity: hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Drift lists the differences between the expected and the deployed tree.
// Paths are slash-separated and relative to the tree roots.
type Drift struct {
	// Missing holds expected files absent from the deployed tree.
	Missing []string
	// Modified holds files whose content differs from the source.
	Modified []string
	// Extra holds deployed entries that are not expected.
	Extra []string
}

// Clean reports whether the deployed tree matches exactly.
func (d Drift) Clean() bool {
	return len(d.Missing) == 0 && len(d.Modified) == 0 && len(d.Extra) == 0
}

// CompareTrees checks every path in want (relative to src) against the same path
// under dst, then lists any other regular file or symlink found under dst.
// A symlinked dst is followed. A missing dst reports every wanted path as missing.
func CompareTrees(src, dst string, want []string) (Drift, error) {
	var d Drift
	expected := make(map[string]struct{}, len(want))
	if resolved, err := filepath.EvalSymlinks(dst); err == nil {
		dst = resolved
	}

	for _, rel := range want {
		expected[rel] = struct{}{}
		target := filepath.Join(dst, filepath.FromSlash(rel))

		info, err := os.Lstat(target)
		if errors.Is(err, fs.ErrNotExist) {
			d.Missing = append(d.Missing, rel)
			continue
		}
		if err != nil {
			return d, fmt.Errorf("integrity: stat %s: %w", target, err)
		}
		if !info.Mode().IsRegular() {
			d.Modified = append(d.Modified, rel)
			continue
		}

		wantSum, err := HashFile(filepath.Join(src, filepath.FromSlash(rel)))
		if err != nil {
			return d, err
		}
		gotSum, err := HashFile(target)
		if err != nil {
			return d, err
		}
		if wantSum != gotSum {
			d.Modified = append(d.Modified, rel)
		}
	}

	err := filepath.WalkDir(dst, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == dst && errors.Is(walkErr, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dst, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if _, ok := expected[rel]; !ok {
			d.Extra = append(d.Extra, rel)
		}
		return nil
	})
	if err != nil {
		return d, fmt.Errorf("integrity: walk %s: %w", dst, err)
	}

	sort.Strings(d.Missing)
	sort.Strings(d.Modified)
	sort.Strings(d.Extra)
	return d, nil
}
