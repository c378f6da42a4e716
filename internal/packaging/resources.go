package packaging

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yabsnap/yabsnap-deploy/internal/filesync"
	"github.com/yabsnap/yabsnap-deploy/internal/fsutil"
	"github.com/yabsnap/yabsnap-deploy/internal/integrity"
)

// Resource is one kind of host state owned by the deployment.
// Apply is idempotent: applying an already applied resource changes nothing.
// Remove tolerates a resource that is already absent.
type Resource interface {
	Name() string
	Apply() error
	Remove() error
}

// treeResource is the mirrored runtime tree under InstallDir.
type treeResource struct {
	src    string
	dst    string
	mirror *filesync.Mirror
}

func (r *treeResource) Name() string { return "tree" }

func (r *treeResource) Apply() error {
	_, err := r.mirror.Sync(r.src, r.dst)
	return err
}

func (r *treeResource) Remove() error {
	return filesync.Remove(r.dst)
}

// symlinkResource is the entry point link pointing into the tree.
type symlinkResource struct {
	link   string
	target string
	logger *slog.Logger
}

func (r *symlinkResource) Name() string { return "symlink" }

// Apply points link at target. The target must already be a deployed regular file.
// A stale link or a plain file at link is replaced atomically.
func (r *symlinkResource) Apply() error {
	info, err := os.Stat(r.target)
	if err != nil {
		return fmt.Errorf("packaging: entry script %s: %w", r.target, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("packaging: entry script %s is not a regular file", r.target)
	}

	current, err := os.Lstat(r.link)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// nothing to replace
	case err != nil:
		return fmt.Errorf("packaging: stat %s: %w", r.link, err)
	case current.IsDir():
		return fmt.Errorf("packaging: %s is a directory, refusing to replace it", r.link)
	case current.Mode()&fs.ModeSymlink != 0:
		dest, err := os.Readlink(r.link)
		if err != nil {
			return fmt.Errorf("packaging: read link %s: %w", r.link, err)
		}
		if dest == r.target {
			r.logger.Info("entry point already linked", "path", r.link, "target", r.target)
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(r.link), 0o755); err != nil {
		return fmt.Errorf("packaging: create link directory: %w", err)
	}
	tmp := filepath.Join(filepath.Dir(r.link), ".tmp-"+filepath.Base(r.link))
	if err := os.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("packaging: clear %s: %w", tmp, err)
	}
	if err := os.Symlink(r.target, tmp); err != nil {
		return fmt.Errorf("packaging: create link: %w", err)
	}
	if err := os.Rename(tmp, r.link); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("packaging: install link %s: %w", r.link, err)
	}
	r.logger.Info("entry point linked", "path", r.link, "target", r.target)
	return nil
}

// Remove deletes the link. Anything other than a symlink at that path is left alone
// and reported, since it was not created by this deployment.
func (r *symlinkResource) Remove() error {
	info, err := os.Lstat(r.link)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("packaging: stat %s: %w", r.link, err)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return fmt.Errorf("packaging: %s is not a symlink, refusing to remove it", r.link)
	}
	if err := os.Remove(r.link); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("packaging: remove %s: %w", r.link, err)
	}
	r.logger.Info("entry point removed", "path", r.link)
	return nil
}

// descriptor is one file copied verbatim from the asset directory.
type descriptor struct {
	src string
	dst string
}

// descriptorResource copies a fixed set of descriptor files (systemd units or the
// pacman hook) without interpreting them.
type descriptorResource struct {
	name   string
	files  []descriptor
	logger *slog.Logger
}

func (r *descriptorResource) Name() string { return r.name }

// Apply checks every source first so that no descriptor is deployed unless all of
// them can be, then copies the ones whose content differs.
func (r *descriptorResource) Apply() error {
	for _, f := range r.files {
		info, err := os.Stat(f.src)
		if err != nil {
			return fmt.Errorf("packaging: %s source: %w", r.name, err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("packaging: %s source %s is not a regular file", r.name, f.src)
		}
	}

	for _, f := range r.files {
		same, err := sameContent(f.src, f.dst)
		if err != nil {
			return err
		}
		if same {
			r.logger.Info("descriptor unchanged", "path", f.dst)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(f.dst), 0o755); err != nil {
			return fmt.Errorf("packaging: create %s directory: %w", r.name, err)
		}
		if err := fsutil.CopyFileAtomic(f.src, f.dst, 0o644); err != nil {
			return fmt.Errorf("packaging: copy %s: %w", f.dst, err)
		}
		r.logger.Info("descriptor installed", "path", f.dst)
	}
	return nil
}

func (r *descriptorResource) Remove() error {
	for _, f := range r.files {
		if err := os.Remove(f.dst); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("packaging: remove %s: %w", f.dst, err)
		}
		r.logger.Info("descriptor removed", "path", f.dst)
	}
	return nil
}

// sameContent reports whether dst is a regular 0644 file with the same bytes as src.
func sameContent(src, dst string) (bool, error) {
	info, err := os.Lstat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("packaging: stat %s: %w", dst, err)
	}
	if !info.Mode().IsRegular() || info.Mode().Perm() != 0o644 {
		return false, nil
	}
	want, err := integrity.HashFile(src)
	if err != nil {
		return false, err
	}
	got, err := integrity.HashFile(dst)
	if err != nil {
		return false, err
	}
	return want == got, nil
}
