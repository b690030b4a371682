package kernfat

import (
	"encoding/binary"
	"fmt"

	"github.com/aligator/kernfat/checkpoint"
)

// IndexEntry maps a name to one directory which contains an entry with that name.
type IndexEntry struct {
	Name          [8]byte
	Ext           [3]byte
	ParentCluster uint32
}

func (e IndexEntry) put(data []byte) {
	copy(data[0:8], e.Name[:])
	copy(data[8:11], e.Ext[:])
	data[11] = 0
	binary.LittleEndian.PutUint32(data[12:], e.ParentCluster)
}

func (e *IndexEntry) parse(data []byte) {
	copy(e.Name[:], data[0:8])
	copy(e.Ext[:], data[8:11])
	e.ParentCluster = binary.LittleEndian.Uint32(data[12:])
}

// nameIndex is the dense list of index entries.
// The amount of entries is persisted in the FAT slot IndexCountSlot.
type nameIndex struct {
	entries []IndexEntry
	dirty   bool
}

func (i *nameIndex) insert(entry IndexEntry) error {
	if len(i.entries) >= IndexCapacity {
		return checkpoint.New(ErrIndexFull)
	}
	i.entries = append(i.entries, entry)
	i.dirty = true
	return nil
}

func (i *nameIndex) search(name [8]byte, ext [3]byte) []uint32 {
	var parents []uint32
	for _, e := range i.entries {
		if e.Name == name && e.Ext == ext {
			parents = append(parents, e.ParentCluster)
		}
	}
	return parents
}

// remove deletes the exact entry and moves all following entries one position forward.
func (i *nameIndex) remove(name [8]byte, ext [3]byte, parent uint32) bool {
	for pos, e := range i.entries {
		if e.Name == name && e.Ext == ext && e.ParentCluster == parent {
			i.entries = append(i.entries[:pos], i.entries[pos+1:]...)
			i.dirty = true
			return true
		}
	}
	return false
}

func (i *nameIndex) full() bool {
	return len(i.entries) >= IndexCapacity
}

// loadIndex reads the index clusters once per session.
func (s *session) loadIndex() (*nameIndex, error) {
	if s.index != nil {
		return s.index, nil
	}

	count := s.fat.indexCount()
	if count < 0 || count > IndexCapacity {
		return nil, checkpoint.Wrap(fmt.Errorf("index count: %v, capacity: %v", count, IndexCapacity), ErrCorruptChain)
	}

	data := make([]byte, IndexClusterCount*ClusterSize)
	if err := s.dev.ReadClusters(data, IndexFirstCluster, IndexClusterCount); err != nil {
		return nil, err
	}

	index := &nameIndex{
		entries: make([]IndexEntry, count),
	}
	for i := range index.entries {
		index.entries[i].parse(data[i*IndexEntrySize:])
	}

	s.index = index
	return index, nil
}

// storeIndex writes all index clusters and updates the persisted count.
// Slots behind the last entry are zeroed.
func (s *session) storeIndex() error {
	data := make([]byte, IndexClusterCount*ClusterSize)
	for i, e := range s.index.entries {
		e.put(data[i*IndexEntrySize:])
	}

	if err := s.dev.WriteClusters(data, IndexFirstCluster, IndexClusterCount); err != nil {
		return err
	}

	s.fat.setIndexCount(len(s.index.entries))
	s.fatDirty = true
	s.index.dirty = false
	return nil
}

// InsertIndex adds a name to the index.
func (d *Driver) InsertIndex(name [8]byte, ext [3]byte, parent uint32) error {
	return d.run("insert_index", name, ext, parent, func(s *session) error {
		index, err := s.loadIndex()
		if err != nil {
			return err
		}
		return index.insert(IndexEntry{Name: name, Ext: ext, ParentCluster: parent})
	})
}

// SearchIndex returns the clusters of all directories which contain an entry named name.ext.
func (d *Driver) SearchIndex(name [8]byte, ext [3]byte) ([]uint32, error) {
	var parents []uint32
	err := d.run("search_index", name, ext, 0, func(s *session) error {
		index, err := s.loadIndex()
		if err != nil {
			return err
		}
		parents = index.search(name, ext)
		return nil
	})
	return parents, err
}

// DeleteIndex removes the exact (name, ext, parent) entry from the index.
// It returns ErrNotFound if there is no such entry.
func (d *Driver) DeleteIndex(name [8]byte, ext [3]byte, parent uint32) error {
	return d.run("delete_index", name, ext, parent, func(s *session) error {
		index, err := s.loadIndex()
		if err != nil {
			return err
		}
		if !index.remove(name, ext, parent) {
			return checkpoint.Wrap(fmt.Errorf("name: %v, parent: %v", FormatName(name, ext), parent), ErrNotFound)
		}
		return nil
	})
}
