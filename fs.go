package kernfat

import (
	"errors"
	"os"
	"path"
	"sort"
	"syscall"
	"time"

	"github.com/aligator/kernfat/checkpoint"
	"github.com/spf13/afero"
)

// Fs provides the volume as afero.Fs.
// Paths are slash separated 8.3 names, relative paths are resolved from the root.
type Fs struct {
	driver *Driver
}

// NewFs wraps an initialized driver.
func NewFs(driver *Driver) *Fs {
	return &Fs{driver: driver}
}

// Mount creates a driver for dev, initializes it and returns it as Fs.
// A blank device gets formatted.
func Mount(dev BlockDevice, opts ...Option) (*Fs, error) {
	driver := New(dev, opts...)
	if err := driver.Initialize(); err != nil {
		return nil, err
	}
	return NewFs(driver), nil
}

// Driver returns the driver the Fs works on.
func (fs *Fs) Driver() *Driver {
	return fs.driver
}

// pathError converts driver errors into the errors the os package uses, so that
// os.IsNotExist and friends work on them.
func pathError(op, name string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		err = os.ErrNotExist
	case errors.Is(err, ErrAlreadyExists):
		err = os.ErrExist
	case errors.Is(err, ErrInvalidName):
		err = os.ErrInvalid
	case errors.Is(err, ErrNotADirectory):
		err = syscall.ENOTDIR
	case errors.Is(err, ErrNotAFile):
		err = syscall.EISDIR
	case errors.Is(err, ErrNotEmpty):
		err = syscall.ENOTEMPTY
	}
	return &os.PathError{Op: op, Path: name, Err: err}
}

// parentOf resolves the directory which contains name and parses the base name.
func (fs *Fs) parentOf(name string) (Request, error) {
	segments := splitPath(name)
	if len(segments) == 0 {
		return Request{}, checkpoint.New(ErrInvalidName)
	}

	dir, _, err := fs.driver.Resolve(path.Join(segments[:len(segments)-1]...))
	if err != nil {
		return Request{}, err
	}
	if !dir.IsDir() {
		return Request{}, checkpoint.New(ErrNotADirectory)
	}

	return NewRequest(segments[len(segments)-1], dir.Cluster())
}

func isRoot(name string) bool {
	return len(splitPath(name)) == 0
}

func (fs *Fs) readFile(entry DirectoryEntry, parent uint32) ([]byte, error) {
	data := make([]byte, entry.FileSize)
	n, err := fs.driver.Read(Request{
		Name:          entry.Name,
		Ext:           entry.Ext,
		ParentCluster: parent,
		Buf:           data,
	})
	return data[:n], err
}

func (fs *Fs) readDir(cluster uint32) ([]DirectoryEntry, error) {
	entries, err := fs.driver.Children(cluster)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FullName() < entries[j].FullName()
	})
	return entries, nil
}

func (fs *Fs) storeFile(parent uint32, name [8]byte, ext [3]byte, data []byte) (DirectoryEntry, error) {
	return fs.driver.Replace(Request{
		Name:          name,
		Ext:           ext,
		ParentCluster: parent,
		Buf:           data,
		BufferSize:    uint32(len(data)),
	})
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	if isRoot(name) {
		return pathError("mkdir", name, os.ErrExist)
	}

	req, err := fs.parentOf(name)
	if err != nil {
		return pathError("mkdir", name, err)
	}

	if err := fs.driver.Write(req); err != nil {
		return pathError("mkdir", name, err)
	}
	return nil
}

func (fs *Fs) MkdirAll(p string, perm os.FileMode) error {
	segments := splitPath(p)
	for i := range segments {
		current := path.Join(segments[:i+1]...)

		entry, _, err := fs.driver.Resolve(current)
		if err == nil {
			if !entry.IsDir() {
				return pathError("mkdir", current, syscall.ENOTDIR)
			}
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return pathError("mkdir", current, err)
		}

		if err := fs.Mkdir(current, perm); err != nil {
			return err
		}
	}
	return nil
}

func (fs *Fs) Open(name string) (afero.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0

	entry, parent, err := fs.driver.Resolve(name)
	switch {
	case err == nil:
		if flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0 {
			return nil, pathError("open", name, os.ErrExist)
		}
	case errors.Is(err, ErrNotFound) && flag&os.O_CREATE != 0:
		req, err := fs.parentOf(name)
		if err != nil {
			return nil, pathError("open", name, err)
		}

		// The file only exists on the volume after it got content.
		return &File{
			fs:         fs,
			path:       name,
			parent:     req.ParentCluster,
			entry:      DirectoryEntry{Name: req.Name, Ext: req.Ext, Undelete: true},
			isWritable: writable,
			isAppend:   flag&os.O_APPEND != 0,
			loaded:     true,
			dirty:      true,
		}, nil
	default:
		return nil, pathError("open", name, err)
	}

	if entry.IsDir() {
		if writable {
			return nil, pathError("open", name, syscall.EISDIR)
		}
		return &File{
			fs:          fs,
			path:        name,
			parent:      parent,
			entry:       entry,
			isRoot:      isRoot(name),
			isDirectory: true,
		}, nil
	}

	f := &File{
		fs:         fs,
		path:       name,
		parent:     parent,
		entry:      entry,
		isWritable: writable,
		isAppend:   flag&os.O_APPEND != 0,
	}

	if writable && flag&os.O_TRUNC != 0 {
		f.loaded = true
		f.dirty = true
	}

	return f, nil
}

func (fs *Fs) Remove(name string) error {
	if isRoot(name) {
		return pathError("remove", name, syscall.EBUSY)
	}

	entry, parent, err := fs.driver.Resolve(name)
	if err != nil {
		return pathError("remove", name, err)
	}

	err = fs.driver.Delete(Request{Name: entry.Name, Ext: entry.Ext, ParentCluster: parent})
	if err != nil {
		return pathError("remove", name, err)
	}
	return nil
}

func (fs *Fs) RemoveAll(p string) error {
	entry, _, err := fs.driver.Resolve(p)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return pathError("removeall", p, err)
	}

	if entry.IsDir() {
		children, err := fs.driver.Children(entry.Cluster())
		if err != nil {
			return pathError("removeall", p, err)
		}
		for _, child := range children {
			if err := fs.RemoveAll(path.Join(p, child.FullName())); err != nil {
				return err
			}
		}
	}

	if isRoot(p) {
		return nil
	}
	return fs.Remove(p)
}

func (fs *Fs) Rename(oldname, newname string) error {
	if isRoot(oldname) || isRoot(newname) {
		return pathError("rename", oldname, syscall.EBUSY)
	}

	entry, parent, err := fs.driver.Resolve(oldname)
	if err != nil {
		return pathError("rename", oldname, err)
	}

	dst, err := fs.parentOf(newname)
	if err != nil {
		return pathError("rename", newname, err)
	}

	err = fs.driver.Rename(Request{Name: entry.Name, Ext: entry.Ext, ParentCluster: parent}, dst)
	if err != nil {
		return pathError("rename", oldname, err)
	}
	return nil
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	entry, _, err := fs.driver.Resolve(name)
	if err != nil {
		return nil, pathError("stat", name, err)
	}

	return newFileInfo(entry, isRoot(name), int64(entry.FileSize)), nil
}

func (fs *Fs) Name() string {
	return "kernfat"
}

// Chmod is not supported as the volume stores no permissions.
func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return pathError("chmod", name, ErrNotSupported)
}

// Chown is not supported as the volume stores no owners.
func (fs *Fs) Chown(name string, uid, gid int) error {
	return pathError("chown", name, ErrNotSupported)
}

// Chtimes is not supported as the volume stores no timestamps.
func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return pathError("chtimes", name, ErrNotSupported)
}
