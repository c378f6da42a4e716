// Package filesync mirrors a filtered view of a source tree into a destination
// directory that is exclusively owned by the caller.
package filesync

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/yabsnap/yabsnap-deploy/internal/fsutil"
	"github.com/yabsnap/yabsnap-deploy/internal/integrity"
)

// Entry is a regular file selected from the source tree.
type Entry struct {
	// Rel is the slash-separated path relative to the source root.
	Rel string
	// Mode holds the source file's permission bits.
	Mode fs.FileMode
}

// Result describes what a Sync changed. All paths are slash-separated and
// relative to the destination root.
type Result struct {
	Copied    []string
	Unchanged []string
	Removed   []string
}

// Mirror copies the filtered subset of a source tree into a destination tree and
// deletes everything in the destination that is not part of that subset.
type Mirror struct {
	filter *matcher
	logger *slog.Logger
}

// NewMirror compiles the filter patterns and returns a Mirror.
func NewMirror(f Filter, logger *slog.Logger) (*Mirror, error) {
	m, err := f.compile()
	if err != nil {
		return nil, err
	}
	return &Mirror{
		filter: m,
		logger: logger.With("component", "filesync"),
	}, nil
}

// Collect walks src and returns the regular files that pass the filter, sorted by path.
// Symlinks and special files in the source are skipped.
func (m *Mirror) Collect(src string) ([]Entry, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("filesync: source %s: %w", src, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("filesync: source %s is not a directory", src)
	}

	var entries []Entry
	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !d.Type().IsRegular() {
			m.logger.Debug("skipping non-regular source entry", "path", rel)
			return nil
		}
		if !m.filter.match(rel) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Rel: rel, Mode: fi.Mode().Perm()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filesync: walk source %s: %w", src, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Rel < entries[j].Rel })
	return entries, nil
}

// Sync makes dst an exact mirror of the filtered files under src. dst is created
// if absent. A symlinked dst is resolved and the directory it points to is mirrored. Files already identical in content and mode are not rewritten.
// Any I/O error aborts the sync.
func (m *Mirror) Sync(src, dst string) (Result, error) {
	var res Result

	src, dst, err := checkRoots(src, dst)
	if err != nil {
		return res, err
	}

	entries, err := m.Collect(src)
	if err != nil {
		return res, err
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return res, fmt.Errorf("filesync: create destination %s: %w", dst, err)
	}

	wantFiles := make(map[string]struct{}, len(entries))
	wantDirs := make(map[string]struct{})
	for _, e := range entries {
		wantFiles[e.Rel] = struct{}{}
		for dir := path.Dir(e.Rel); dir != "."; dir = path.Dir(dir) {
			wantDirs[dir] = struct{}{}
		}
	}

	removed, err := m.prune(dst, wantFiles, wantDirs)
	if err != nil {
		return res, err
	}
	res.Removed = removed

	for _, e := range entries {
		target, err := securejoin.SecureJoin(dst, e.Rel)
		if err != nil {
			return res, fmt.Errorf("filesync: resolve %s: %w", e.Rel, err)
		}
		source := filepath.Join(src, filepath.FromSlash(e.Rel))

		same, err := sameFile(source, target, e.Mode)
		if err != nil {
			return res, err
		}
		if same {
			res.Unchanged = append(res.Unchanged, e.Rel)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return res, fmt.Errorf("filesync: create directory for %s: %w", e.Rel, err)
		}
		if err := fsutil.CopyFileAtomic(source, target, e.Mode); err != nil {
			return res, fmt.Errorf("filesync: copy %s: %w", e.Rel, err)
		}
		m.logger.Debug("file copied", "path", e.Rel)
		res.Copied = append(res.Copied, e.Rel)
	}

	m.logger.Info("tree mirrored",
		"src", src,
		"dst", dst,
		"copied", len(res.Copied),
		"unchanged", len(res.Unchanged),
		"removed", len(res.Removed),
	)
	return res, nil
}

// prune deletes every path under dst that is not a wanted file or a parent
// directory of one. Symlinks are always removed because the mirror never creates them.
func (m *Mirror) prune(dst string, wantFiles, wantDirs map[string]struct{}) ([]string, error) {
	var removed []string
	err := filepath.WalkDir(dst, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == dst {
			return nil
		}
		rel, err := filepath.Rel(dst, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			if _, ok := wantDirs[rel]; ok {
				return nil
			}
			if err := os.RemoveAll(p); err != nil {
				return err
			}
			removed = append(removed, rel)
			m.logger.Debug("stale directory removed", "path", rel)
			return fs.SkipDir
		case d.Type().IsRegular():
			if _, ok := wantFiles[rel]; ok {
				return nil
			}
		}

		if err := os.Remove(p); err != nil {
			return err
		}
		removed = append(removed, rel)
		m.logger.Debug("stale entry removed", "path", rel)
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("filesync: prune %s: %w", dst, err)
	}
	return removed, nil
}

// Remove deletes the destination tree. A missing tree is not an error.
// When dst is a symlink, the directory it points to is removed along with the link.
func Remove(dst string) error {
	clean := filepath.Clean(dst)
	if dst == "" || clean == string(filepath.Separator) {
		return fmt.Errorf("filesync: refusing to remove %q", dst)
	}
	resolved, err := resolveDir(clean)
	if err != nil {
		return err
	}
	if resolved == string(filepath.Separator) {
		return fmt.Errorf("filesync: refusing to remove %q: it resolves to the filesystem root", dst)
	}
	if err := os.RemoveAll(resolved); err != nil {
		return fmt.Errorf("filesync: remove %s: %w", resolved, err)
	}
	if resolved != clean {
		if err := os.Remove(clean); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("filesync: remove link %s: %w", clean, err)
		}
	}
	return nil
}

// resolveDir follows a symlink at p so that walks and removals act on the resolved
// directory. A p that does not exist or is not a symlink is returned unchanged.
func resolveDir(p string) (string, error) {
	info, err := os.Lstat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return "", fmt.Errorf("filesync: stat %s: %w", p, err)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return p, nil
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", fmt.Errorf("filesync: resolve %s: %w", p, err)
	}
	return resolved, nil
}

func checkRoots(src, dst string) (string, string, error) {
	if src == "" || dst == "" {
		return "", "", errors.New("filesync: source and destination are required")
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return "", "", fmt.Errorf("filesync: resolve source: %w", err)
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return "", "", fmt.Errorf("filesync: resolve destination: %w", err)
	}
	if absSrc, err = resolveDir(absSrc); err != nil {
		return "", "", err
	}
	if absDst, err = resolveDir(absDst); err != nil {
		return "", "", err
	}
	if absDst == string(filepath.Separator) {
		return "", "", errors.New("filesync: destination must not be the filesystem root")
	}
	if within(absSrc, absDst) || within(absDst, absSrc) {
		return "", "", fmt.Errorf("filesync: source %s and destination %s overlap", absSrc, absDst)
	}
	return absSrc, absDst, nil
}

// within reports whether p equals root or lies beneath it.
func within(root, p string) bool {
	if p == root {
		return true
	}
	return strings.HasPrefix(p, root+string(filepath.Separator))
}

func sameFile(source, target string, mode fs.FileMode) (bool, error) {
	info, err := os.Lstat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("filesync: stat %s: %w", target, err)
	}
	if !info.Mode().IsRegular() || info.Mode().Perm() != mode {
		return false, nil
	}

	want, err := integrity.HashFile(source)
	if err != nil {
		return false, err
	}
	got, err := integrity.HashFile(target)
	if err != nil {
		return false, err
	}
	return want == got, nil
}
