package kernfat

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func TestDirectoryEntry_FileInfo(t *testing.T) {
	tests := []struct {
		name  string
		entry DirectoryEntry
		want  os.FileInfo
	}{
		{
			name: "it just has to be the same",
			entry: DirectoryEntry{
				Name:          [8]byte{'h', 'e', 'l', 'l', 'o'},
				Ext:           [3]byte{'t', 'x', 't'},
				Attribute:     0,
				UserAttribute: 0,
				ClusterHigh:   0,
				ClusterLow:    8,
				FileSize:      9,
			},
			want: entryFileInfo{
				entry: DirectoryEntry{
					Name:        [8]byte{'h', 'e', 'l', 'l', 'o'},
					Ext:         [3]byte{'t', 'x', 't'},
					ClusterHigh: 0,
					ClusterLow:  8,
					FileSize:    9,
				},
				name: "hello.txt",
				size: 9,
			},
		},
		{
			name: "directories have no size",
			entry: DirectoryEntry{
				Name:          [8]byte{'d', 'o', 'c', 's'},
				Attribute:     AttrSubdirectory,
				UserAttribute: UAttrNotEmpty,
				ClusterLow:    8,
			},
			want: entryFileInfo{
				entry: DirectoryEntry{
					Name:          [8]byte{'d', 'o', 'c', 's'},
					Attribute:     AttrSubdirectory,
					UserAttribute: UAttrNotEmpty,
					ClusterLow:    8,
				},
				name: "docs",
				size: 0,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.FileInfo(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DirectoryEntry.FileInfo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_entryFileInfo_Name(t *testing.T) {
	tests := []struct {
		name  string
		entry DirectoryEntry
		root  bool
		want  string
	}{
		{
			name:  "8.3 filename",
			entry: DirectoryEntry{Name: [8]byte{'h', 'e', 'l', 'l', 'o'}, Ext: [3]byte{'t', 'x', 't'}},
			want:  "hello.txt",
		},
		{
			name:  "short extension",
			entry: DirectoryEntry{Name: [8]byte{'h', 'e', 'l', 'l', 'o'}, Ext: [3]byte{'t', 'x'}},
			want:  "hello.tx",
		},
		{
			name:  "no extension",
			entry: DirectoryEntry{Name: [8]byte{'h', 'e', 'l', 'l', 'o'}},
			want:  "hello",
		},
		{
			name:  "full length",
			entry: DirectoryEntry{Name: [8]byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h'}, Ext: [3]byte{'i', 'j', 'k'}},
			want:  "abcdefgh.ijk",
		},
		{
			name:  "root",
			entry: DirectoryEntry{Name: [8]byte{'r', 'o', 'o', 't'}, Attribute: AttrSubdirectory},
			root:  true,
			want:  "/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFileInfo(tt.entry, tt.root, int64(tt.entry.FileSize))
			if got := e.Name(); got != tt.want {
				t.Errorf("entryFileInfo.Name() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_entryFileInfo_Size(t *testing.T) {
	tests := []struct {
		name  string
		entry DirectoryEntry
		size  int64
		want  int64
	}{
		{
			name:  "file",
			entry: DirectoryEntry{FileSize: 42},
			size:  42,
			want:  42,
		},
		{
			name:  "buffered size wins",
			entry: DirectoryEntry{FileSize: 42},
			size:  7,
			want:  7,
		},
		{
			name:  "directory",
			entry: DirectoryEntry{Attribute: AttrSubdirectory, FileSize: 42},
			size:  42,
			want:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFileInfo(tt.entry, false, tt.size)
			if got := e.Size(); got != tt.want {
				t.Errorf("entryFileInfo.Size() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_entryFileInfo_Mode(t *testing.T) {
	tests := []struct {
		name  string
		entry DirectoryEntry
		want  os.FileMode
	}{
		{
			name:  "file",
			entry: DirectoryEntry{},
			want:  0644,
		},
		{
			name:  "directory",
			entry: DirectoryEntry{Attribute: AttrSubdirectory},
			want:  os.ModeDir | 0755,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFileInfo(tt.entry, false, 0)
			if got := e.Mode(); got != tt.want {
				t.Errorf("entryFileInfo.Mode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_entryFileInfo_ModTime(t *testing.T) {
	e := newFileInfo(DirectoryEntry{FileSize: 3}, false, 3)
	if got := e.ModTime(); !got.Equal(time.Time{}) {
		t.Errorf("entryFileInfo.ModTime() = %v, want the zero time", got)
	}
}

func Test_entryFileInfo_IsDir(t *testing.T) {
	tests := []struct {
		name  string
		entry DirectoryEntry
		want  bool
	}{
		{
			name:  "file",
			entry: DirectoryEntry{},
			want:  false,
		},
		{
			name:  "directory",
			entry: DirectoryEntry{Attribute: AttrSubdirectory},
			want:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newFileInfo(tt.entry, false, 0)
			if got := e.IsDir(); got != tt.want {
				t.Errorf("entryFileInfo.IsDir() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_entryFileInfo_Sys(t *testing.T) {
	entry := DirectoryEntry{Name: [8]byte{'a'}, ClusterLow: 9, FileSize: 1}
	e := newFileInfo(entry, false, 1)
	if got := e.Sys(); !reflect.DeepEqual(got, entry) {
		t.Errorf("entryFileInfo.Sys() = %v, want %v", got, entry)
	}
}
