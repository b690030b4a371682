package kernfat

import (
	"os"
	"time"
)

// FileInfo returns the entry as os.FileInfo.
func (e DirectoryEntry) FileInfo() os.FileInfo {
	return newFileInfo(e, false, int64(e.FileSize))
}

func newFileInfo(entry DirectoryEntry, root bool, size int64) entryFileInfo {
	name := entry.FullName()
	if root {
		name = "/"
	}
	if entry.IsDir() {
		size = 0
	}

	return entryFileInfo{
		entry: entry,
		name:  name,
		size:  size,
	}
}

type entryFileInfo struct {
	entry DirectoryEntry
	name  string
	size  int64
}

func (e entryFileInfo) Name() string {
	return e.name
}

func (e entryFileInfo) Size() int64 {
	return e.size
}

func (e entryFileInfo) Mode() os.FileMode {
	if e.IsDir() {
		return os.ModeDir | 0755
	}
	return 0644
}

// ModTime is always the zero time, the volume stores no timestamps.
func (e entryFileInfo) ModTime() time.Time {
	return time.Time{}
}

func (e entryFileInfo) IsDir() bool {
	return e.entry.IsDir()
}

func (e entryFileInfo) Sys() interface{} {
	return e.entry
}
