package kernfat

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/aligator/kernfat/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrReadFile  = errors.New("could not read file completely")
	ErrWriteFile = errors.New("could not write the file")
	ErrSeekFile  = errors.New("could not seek inside of the file")
	ErrReadDir   = errors.New("could not read the directory")
)

// fileSource provides all methods needed from the Fs for File.
// It mainly exists to be able to mock the Fs in tests.
// Generated mock using mockgen:
//  mockgen -source=file.go -destination=file_mock.go -package kernfat
type fileSource interface {
	readFile(entry DirectoryEntry, parent uint32) ([]byte, error)
	readDir(cluster uint32) ([]DirectoryEntry, error)
	storeFile(parent uint32, name [8]byte, ext [3]byte, data []byte) (DirectoryEntry, error)
}

// File is an open file or directory of the volume.
// The content of a file is loaded completely on first access. Writes are
// buffered and stored as a whole by Sync or Close.
type File struct {
	fs   fileSource
	path string

	parent      uint32
	entry       DirectoryEntry
	isRoot      bool
	isDirectory bool
	isWritable  bool
	isAppend    bool

	content []byte
	loaded  bool
	dirty   bool

	offset int64
}

func (f *File) size() int64 {
	if f.loaded {
		return int64(len(f.content))
	}
	return int64(f.entry.FileSize)
}

func (f *File) load() error {
	if f.loaded {
		return nil
	}

	content, err := f.fs.readFile(f.entry, f.parent)
	if err != nil {
		return err
	}

	f.content = content
	f.loaded = true
	return nil
}

func (f *File) Close() error {
	var err error
	if f.dirty && f.fs != nil {
		err = f.Sync()
	}

	f.fs = nil
	f.path = ""
	f.parent = 0
	f.entry = DirectoryEntry{}
	f.isRoot = false
	f.isDirectory = false
	f.isWritable = false
	f.isAppend = false
	f.content = nil
	f.loaded = false
	f.dirty = false
	f.offset = 0

	return err
}

func (f *File) Read(p []byte) (n int, err error) {
	if f.isDirectory {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}

	if len(p) == 0 {
		return 0, nil
	}

	// Reading a file if the size has been already reached, makes no sense.
	if f.size() <= f.offset {
		return 0, io.EOF
	}

	if err := f.load(); err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFile)
	}

	n = copy(p, f.content[f.offset:])
	f.offset += int64(n)
	return n, nil
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if f.isDirectory {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}

	if off < 0 {
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v", syscall.EINVAL, off), ErrReadFile)
	}

	if len(p) == 0 {
		return 0, nil
	}

	// Reading over the end makes no sense.
	if f.size() <= off {
		return 0, io.EOF
	}

	if err := f.load(); err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFile)
	}

	n = copy(p, f.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek jumps to a specific offset in the file. This affects all Read operation except ReadAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.size() + offset
	default:
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence), ErrSeekFile)
	}

	if offset < 0 || offset > f.size() {
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence), afero.ErrOutOfRange)
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (n int, err error) {
	if f.isAppend {
		if err := f.load(); err != nil {
			return 0, checkpoint.Wrap(err, ErrWriteFile)
		}
		f.offset = f.size()
	}

	n, err = f.writeAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

// WriteAt writes p at off into the buffered content.
// Files opened with os.O_APPEND do not support it.
func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	if f.isAppend {
		return 0, checkpoint.Wrap(fmt.Errorf("%w: append mode", syscall.EINVAL), ErrWriteFile)
	}
	if off < 0 {
		return 0, checkpoint.Wrap(fmt.Errorf("%w, offset: %v", syscall.EINVAL, off), ErrWriteFile)
	}
	return f.writeAt(p, off)
}

func (f *File) writeAt(p []byte, off int64) (int, error) {
	if !f.isWritable || f.isDirectory {
		return 0, checkpoint.Wrap(syscall.EBADF, ErrWriteFile)
	}

	if err := f.load(); err != nil {
		return 0, checkpoint.Wrap(err, ErrWriteFile)
	}

	end := off + int64(len(p))
	if end > VolumeSize {
		return 0, checkpoint.Wrap(fmt.Errorf("size: %v", end), ErrNoSpace)
	}
	if end > int64(len(f.content)) {
		grown := make([]byte, end)
		copy(grown, f.content)
		f.content = grown
	}

	n := copy(f.content[off:], p)
	f.dirty = true
	return n, nil
}

// Name returns the name the file was opened with.
func (f *File) Name() string {
	return f.path
}

func (f *File) cluster() uint32 {
	return f.entry.Cluster()
}

// Readdir reads the contents of a directory.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.isDirectory {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	content, err := f.fs.readDir(f.cluster())
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	if f.offset > int64(len(content)) {
		f.offset = int64(len(content))
	}
	content = content[f.offset:]

	if count > 0 {
		// Only a limited read reports the end of the directory.
		if len(content) == 0 {
			return nil, io.EOF
		}
		if count < len(content) {
			content = content[:count]
		}
	}
	f.offset += int64(len(content))

	result := make([]os.FileInfo, len(content))
	for i := range content {
		result[i] = content[i].FileInfo()
	}

	return result, nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, nil
}

func (f *File) Stat() (os.FileInfo, error) {
	return newFileInfo(f.entry, f.isRoot, f.size()), nil
}

// Sync stores the buffered content of the file, replacing the previous content.
// Empty files can not be stored, as a size of 0 marks a directory on the volume.
func (f *File) Sync() error {
	if !f.dirty {
		return nil
	}

	if len(f.content) == 0 {
		return checkpoint.Wrap(fmt.Errorf("path: %v", f.path), ErrEmptyFile)
	}

	entry, err := f.fs.storeFile(f.parent, f.entry.Name, f.entry.Ext, f.content)
	if err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}

	f.entry = entry
	f.dirty = false
	return nil
}

func (f *File) Truncate(size int64) error {
	if !f.isWritable || f.isDirectory {
		return checkpoint.Wrap(syscall.EBADF, ErrWriteFile)
	}
	if size < 0 || size > VolumeSize {
		return checkpoint.Wrap(fmt.Errorf("%w, size: %v", syscall.EINVAL, size), ErrWriteFile)
	}

	if err := f.load(); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}

	if size <= int64(len(f.content)) {
		f.content = f.content[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, f.content)
		f.content = grown
	}
	f.dirty = true
	return nil
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}
