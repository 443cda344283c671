package vos

import (
	"os"
	"path"
	"time"

	"github.com/spf13/afero"
)

// VFS is the virtual filesystem, the second layer of the virtual OS.
type VFS = afero.Fs

// NewMemFS creates an empty writable filesystem.
func NewMemFS() VFS {
	return afero.NewMemMapFs()
}

// NewSessionFS overlays a writable layer on top of a shared base so a
// session can scribble without affecting other sessions.
func NewSessionFS(base VFS) VFS {
	return afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(base), afero.NewMemMapFs())
}

// NewRelativeFs resolves relative paths against the process working
// directory before handing them to the base filesystem. The result is
// what every process sees so commands never worry about cwd handling.
func NewRelativeFs(base VFS, getwd func() (dir string, err error)) VFS {
	return &relativeFs{base: base, getwd: getwd}
}

type relativeFs struct {
	base  VFS
	getwd func() (dir string, err error)
}

var _ VFS = (*relativeFs)(nil)

func (r *relativeFs) abs(name string) string {
	if path.IsAbs(name) {
		return path.Clean(name)
	}
	wd, err := r.getwd()
	if err != nil {
		wd = "/"
	}
	return path.Clean(path.Join(wd, name))
}

func (r *relativeFs) Name() string { return "relativeFs" }

func (r *relativeFs) Create(name string) (afero.File, error) {
	return r.base.Create(r.abs(name))
}

func (r *relativeFs) Mkdir(name string, perm os.FileMode) error {
	return r.base.Mkdir(r.abs(name), perm)
}

func (r *relativeFs) MkdirAll(name string, perm os.FileMode) error {
	return r.base.MkdirAll(r.abs(name), perm)
}

func (r *relativeFs) Open(name string) (afero.File, error) {
	return r.base.Open(r.abs(name))
}

func (r *relativeFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	return r.base.OpenFile(r.abs(name), flag, perm)
}

func (r *relativeFs) Remove(name string) error {
	return r.base.Remove(r.abs(name))
}

func (r *relativeFs) RemoveAll(name string) error {
	return r.base.RemoveAll(r.abs(name))
}

func (r *relativeFs) Rename(oldname, newname string) error {
	return r.base.Rename(r.abs(oldname), r.abs(newname))
}

func (r *relativeFs) Stat(name string) (os.FileInfo, error) {
	return r.base.Stat(r.abs(name))
}

func (r *relativeFs) Chmod(name string, mode os.FileMode) error {
	return r.base.Chmod(r.abs(name), mode)
}

func (r *relativeFs) Chown(name string, uid, gid int) error {
	return r.base.Chown(r.abs(name), uid, gid)
}

func (r *relativeFs) Chtimes(name string, atime, mtime time.Time) error {
	return r.base.Chtimes(r.abs(name), atime, mtime)
}
