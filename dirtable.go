package kernfat

import (
	"encoding/binary"
	"fmt"

	"github.com/aligator/kernfat/checkpoint"
)

// Byte offsets of the directory entry fields.
const (
	entryOffsetName          = 0
	entryOffsetExt           = 8
	entryOffsetAttribute     = 11
	entryOffsetUserAttribute = 12
	entryOffsetUndelete      = 13
	entryOffsetClusterHigh   = 20
	entryOffsetClusterLow    = 26
	entryOffsetFileSize      = 28
)

// DirectoryEntry describes one file or subdirectory.
// Bytes not covered by a field are reserved and always written as zero.
type DirectoryEntry struct {
	Name          [8]byte
	Ext           [3]byte
	Attribute     byte
	UserAttribute byte
	Undelete      bool
	ClusterHigh   uint16
	ClusterLow    uint16
	FileSize      uint32
}

// Cluster returns the first cluster of the entry.
func (e DirectoryEntry) Cluster() uint32 {
	return uint32(e.ClusterHigh)<<16 | uint32(e.ClusterLow)
}

func (e *DirectoryEntry) SetCluster(cluster uint32) {
	e.ClusterHigh = uint16(cluster >> 16 & 0xFFFF)
	e.ClusterLow = uint16(cluster & 0xFFFF)
}

func (e DirectoryEntry) IsDir() bool {
	return e.Attribute&AttrSubdirectory == AttrSubdirectory
}

// IsValid reports whether the slot is in use.
func (e DirectoryEntry) IsValid() bool {
	return e.Undelete
}

func (e DirectoryEntry) IsNotEmpty() bool {
	return e.UserAttribute == UAttrNotEmpty
}

func (e DirectoryEntry) matches(name [8]byte, ext [3]byte) bool {
	return e.Undelete && e.Name == name && e.Ext == ext
}

// FullName returns the entry name in "name.ext" form.
func (e DirectoryEntry) FullName() string {
	return FormatName(e.Name, e.Ext)
}

func (e DirectoryEntry) put(data []byte) {
	copy(data[entryOffsetName:entryOffsetName+8], e.Name[:])
	copy(data[entryOffsetExt:entryOffsetExt+3], e.Ext[:])
	data[entryOffsetAttribute] = e.Attribute
	data[entryOffsetUserAttribute] = e.UserAttribute
	data[entryOffsetUndelete] = 0
	if e.Undelete {
		data[entryOffsetUndelete] = 1
	}
	binary.LittleEndian.PutUint16(data[entryOffsetClusterHigh:], e.ClusterHigh)
	binary.LittleEndian.PutUint16(data[entryOffsetClusterLow:], e.ClusterLow)
	binary.LittleEndian.PutUint32(data[entryOffsetFileSize:], e.FileSize)
}

func (e *DirectoryEntry) parse(data []byte) {
	copy(e.Name[:], data[entryOffsetName:entryOffsetName+8])
	copy(e.Ext[:], data[entryOffsetExt:entryOffsetExt+3])
	e.Attribute = data[entryOffsetAttribute]
	e.UserAttribute = data[entryOffsetUserAttribute]
	e.Undelete = data[entryOffsetUndelete] != 0
	e.ClusterHigh = binary.LittleEndian.Uint16(data[entryOffsetClusterHigh:])
	e.ClusterLow = binary.LittleEndian.Uint16(data[entryOffsetClusterLow:])
	e.FileSize = binary.LittleEndian.Uint32(data[entryOffsetFileSize:])
}

func (e DirectoryEntry) MarshalBinary() ([]byte, error) {
	data := make([]byte, DirectoryEntrySize)
	e.put(data)
	return data, nil
}

func (e *DirectoryEntry) UnmarshalBinary(data []byte) error {
	if len(data) < DirectoryEntrySize {
		return checkpoint.Wrap(fmt.Errorf("have: %v, need: %v", len(data), DirectoryEntrySize), ErrShortBuffer)
	}
	e.parse(data)
	return nil
}

// DirectoryTable is one cluster of directory entries.
// Entry 0 describes the directory itself and holds the cluster of its parent.
type DirectoryTable [DirectoryTableLength]DirectoryEntry

// InitDirectoryTable returns a table with only the parent pointer entry set.
// Entry 0 carries the name of the directory itself, which is used to rebuild paths.
func InitDirectoryTable(name [8]byte, ext [3]byte, parentCluster uint32) DirectoryTable {
	var table DirectoryTable
	table[0].Name = name
	table[0].Ext = ext
	table[0].Attribute = AttrSubdirectory
	table[0].Undelete = true
	table[0].SetCluster(parentCluster)
	return table
}

// Parent returns the cluster stored in the parent pointer entry.
func (t *DirectoryTable) Parent() uint32 {
	return t[0].Cluster()
}

// IsDirectory reports whether the table describes a directory at all.
func (t *DirectoryTable) IsDirectory() bool {
	return t[0].IsDir()
}

// Find returns the slot of the valid entry called name.ext or -1.
func (t *DirectoryTable) Find(name [8]byte, ext [3]byte) int {
	for i := 1; i < DirectoryTableLength; i++ {
		if t[i].matches(name, ext) {
			return i
		}
	}
	return -1
}

// FreeSlot returns the first slot which is not in use or -1.
func (t *DirectoryTable) FreeSlot() int {
	for i := 1; i < DirectoryTableLength; i++ {
		if !t[i].IsValid() {
			return i
		}
	}
	return -1
}

// Children returns all valid entries except the parent pointer.
func (t *DirectoryTable) Children() []DirectoryEntry {
	var children []DirectoryEntry
	for i := 1; i < DirectoryTableLength; i++ {
		if t[i].IsValid() {
			children = append(children, t[i])
		}
	}
	return children
}

func (t *DirectoryTable) MarshalBinary() ([]byte, error) {
	data := make([]byte, ClusterSize)
	for i := range t {
		t[i].put(data[i*DirectoryEntrySize:])
	}
	return data, nil
}

func (t *DirectoryTable) UnmarshalBinary(data []byte) error {
	if len(data) < ClusterSize {
		return checkpoint.Wrap(fmt.Errorf("have: %v, need: %v", len(data), ClusterSize), ErrShortBuffer)
	}
	for i := range t {
		t[i].parse(data[i*DirectoryEntrySize:])
	}
	return nil
}

// ParseDirectoryTable decodes a directory table from a buffer filled by ReadDirectory.
func ParseDirectoryTable(data []byte) (DirectoryTable, error) {
	var table DirectoryTable
	err := table.UnmarshalBinary(data)
	return table, err
}

// directory is a loaded directory chain.
type directory struct {
	clusters []uint32
	tables   []DirectoryTable
}

func (d *directory) cluster() uint32 {
	return d.clusters[0]
}

// head returns the parent pointer entry of the first table.
func (d *directory) head() *DirectoryEntry {
	return &d.tables[0][0]
}

// slot addresses one entry inside a directory chain.
type slot struct {
	table int
	index int
}

// find searches all tables of the chain for a valid entry named name.ext.
func (d *directory) find(name [8]byte, ext [3]byte) (slot, bool) {
	for i := range d.tables {
		if idx := d.tables[i].Find(name, ext); idx >= 0 {
			return slot{table: i, index: idx}, true
		}
	}
	return slot{}, false
}

func (d *directory) freeSlot() (slot, bool) {
	for i := range d.tables {
		if idx := d.tables[i].FreeSlot(); idx >= 0 {
			return slot{table: i, index: idx}, true
		}
	}
	return slot{}, false
}

func (d *directory) entry(s slot) *DirectoryEntry {
	return &d.tables[s.table][s.index]
}

func (d *directory) children() []DirectoryEntry {
	var children []DirectoryEntry
	for i := range d.tables {
		children = append(children, d.tables[i].Children()...)
	}
	return children
}

// setNotEmpty updates the non-empty flag in the parent pointer entries of all tables.
func (d *directory) setNotEmpty(notEmpty bool) {
	var attr byte
	if notEmpty {
		attr = UAttrNotEmpty
	}
	for i := range d.tables {
		d.tables[i][0].UserAttribute = attr
	}
}

func (d *directory) isEmpty() bool {
	for i := range d.tables {
		if len(d.tables[i].Children()) > 0 {
			return false
		}
	}
	return true
}
