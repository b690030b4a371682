package kernfat

import (
	"fmt"

	"github.com/aligator/kernfat/checkpoint"
)

// Write creates a new entry in the parent directory.
// A BufferSize of 0 creates a subdirectory, anything else a file with the first
// BufferSize bytes of req.Buf as content.
func (d *Driver) Write(req Request) error {
	return d.run("write", req.Name, req.Ext, req.ParentCluster, func(s *session) error {
		return s.write(req)
	})
}

// Delete removes the entry req names and frees all of its clusters.
// Subdirectories have to be empty.
func (d *Driver) Delete(req Request) error {
	return d.run("delete", req.Name, req.Ext, req.ParentCluster, func(s *session) error {
		return s.delete(req)
	})
}

// Replace stores the content of req as file and overwrites an existing file with the same name.
// Directories are never replaced. A failed replace keeps the previous file.
func (d *Driver) Replace(req Request) (DirectoryEntry, error) {
	var entry DirectoryEntry
	err := d.run("replace", req.Name, req.Ext, req.ParentCluster, func(s *session) error {
		if req.BufferSize == 0 {
			return checkpoint.Wrap(fmt.Errorf("name: %v", FormatName(req.Name, req.Ext)), ErrEmptyFile)
		}

		parent, err := s.loadDirectory(req.ParentCluster)
		if err != nil {
			return err
		}

		if sl, ok := parent.find(req.Name, req.Ext); ok {
			if parent.entry(sl).IsDir() {
				return checkpoint.Wrap(fmt.Errorf("name: %v", FormatName(req.Name, req.Ext)), ErrNotAFile)
			}
			if err := s.delete(req); err != nil {
				return err
			}
		}

		if err := s.write(req); err != nil {
			return err
		}

		parent, sl, err := findIn(s, req)
		if err != nil {
			return err
		}
		entry = *parent.entry(sl)
		return nil
	})
	return entry, err
}

// Rename moves the entry src names into the directory dst.ParentCluster under the name of dst.
// The content is not copied, only the entry moves.
func (d *Driver) Rename(src, dst Request) error {
	return d.run("rename", src.Name, src.Ext, src.ParentCluster, func(s *session) error {
		return s.rename(src, dst)
	})
}

func (s *session) write(req Request) error {
	if req.Name[0] == 0 {
		return checkpoint.Wrap(fmt.Errorf("empty name"), ErrInvalidName)
	}
	if int(req.BufferSize) > len(req.Buf) {
		return checkpoint.Wrap(fmt.Errorf("size: %v, buffer: %v", req.BufferSize, len(req.Buf)), ErrInsufficientBuffer)
	}

	parent, err := s.loadDirectory(req.ParentCluster)
	if err != nil {
		return err
	}

	if _, ok := parent.find(req.Name, req.Ext); ok {
		return checkpoint.Wrap(fmt.Errorf("name: %v, parent: %v", FormatName(req.Name, req.Ext), req.ParentCluster), ErrAlreadyExists)
	}

	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	if index.full() {
		return checkpoint.New(ErrIndexFull)
	}

	// Check the space for everything before anything gets allocated.
	dataClusters := clustersFor(req.BufferSize)
	needed := dataClusters
	sl, hasSlot := parent.freeSlot()
	if !hasSlot {
		needed++
	}
	if free := s.fat.FreeCount(); free < needed {
		return checkpoint.Wrap(fmt.Errorf("free: %v, needed: %v", free, needed), ErrNoSpace)
	}

	if !hasSlot {
		if sl, err = s.extendDirectory(parent); err != nil {
			return err
		}
	}

	chain, err := s.allocateChain(dataClusters)
	if err != nil {
		return err
	}

	entry := DirectoryEntry{
		Name:     req.Name,
		Ext:      req.Ext,
		Undelete: true,
	}
	entry.SetCluster(chain[0])

	if req.BufferSize == 0 {
		table := InitDirectoryTable(req.Name, req.Ext, parent.cluster())
		data, err := table.MarshalBinary()
		if err != nil {
			return err
		}
		if err := s.writeChain(chain, data); err != nil {
			return err
		}
		entry.Attribute = AttrSubdirectory
	} else {
		if err := s.writeChain(chain, req.Buf[:req.BufferSize]); err != nil {
			return err
		}
		entry.FileSize = req.BufferSize
	}

	*parent.entry(sl) = entry
	parent.setNotEmpty(true)
	if err := s.storeDirectory(parent); err != nil {
		return err
	}

	return index.insert(IndexEntry{Name: req.Name, Ext: req.Ext, ParentCluster: req.ParentCluster})
}

func (s *session) delete(req Request) error {
	parent, sl, err := findIn(s, req)
	if err != nil {
		return err
	}

	entry := *parent.entry(sl)
	if entry.IsDir() {
		child, err := s.loadDirectory(entry.Cluster())
		if err != nil {
			return err
		}
		if child.head().IsNotEmpty() || !child.isEmpty() {
			return checkpoint.Wrap(fmt.Errorf("name: %v", entry.FullName()), ErrNotEmpty)
		}
	} else if _, err := s.fileChain(entry); err != nil {
		return err
	}

	index, err := s.loadIndex()
	if err != nil {
		return err
	}

	freed, err := s.fat.FreeChain(entry.Cluster())
	if err != nil {
		return err
	}
	s.fatDirty = true

	if err := s.writeChain(freed, nil); err != nil {
		return err
	}

	*parent.entry(sl) = DirectoryEntry{}
	if parent.isEmpty() {
		parent.setNotEmpty(false)
	}
	if err := s.storeDirectory(parent); err != nil {
		return err
	}

	// Volumes written without index support may lack the entry.
	index.remove(req.Name, req.Ext, req.ParentCluster)
	return nil
}

func (s *session) rename(src, dst Request) error {
	if dst.Name[0] == 0 {
		return checkpoint.Wrap(fmt.Errorf("empty name"), ErrInvalidName)
	}

	from, sl, err := findIn(s, src)
	if err != nil {
		return err
	}
	entry := *from.entry(sl)

	to := from
	if dst.ParentCluster != src.ParentCluster {
		if to, err = s.loadDirectory(dst.ParentCluster); err != nil {
			return err
		}
	}

	if _, ok := to.find(dst.Name, dst.Ext); ok {
		return checkpoint.Wrap(fmt.Errorf("name: %v, parent: %v", FormatName(dst.Name, dst.Ext), dst.ParentCluster), ErrAlreadyExists)
	}

	if entry.IsDir() {
		if err := s.checkNotInside(entry.Cluster(), to.cluster()); err != nil {
			return err
		}
	}

	index, err := s.loadIndex()
	if err != nil {
		return err
	}

	// Free the old slot first, a rename inside of one directory may reuse it.
	*from.entry(sl) = DirectoryEntry{}

	target, ok := to.freeSlot()
	if !ok {
		if s.fat.FreeCount() < 1 {
			return checkpoint.New(ErrNoSpace)
		}
		if target, err = s.extendDirectory(to); err != nil {
			return err
		}
	}

	entry.Name = dst.Name
	entry.Ext = dst.Ext
	*to.entry(target) = entry
	to.setNotEmpty(true)
	if from != to && from.isEmpty() {
		from.setNotEmpty(false)
	}

	if entry.IsDir() {
		child, err := s.loadDirectory(entry.Cluster())
		if err != nil {
			return err
		}
		for i := range child.tables {
			child.tables[i][0].Name = dst.Name
			child.tables[i][0].Ext = dst.Ext
			child.tables[i][0].SetCluster(to.cluster())
		}
		if err := s.storeDirectory(child); err != nil {
			return err
		}
	}

	if from != to {
		if err := s.storeDirectory(from); err != nil {
			return err
		}
	}
	if err := s.storeDirectory(to); err != nil {
		return err
	}

	index.remove(src.Name, src.Ext, src.ParentCluster)
	return index.insert(IndexEntry{Name: dst.Name, Ext: dst.Ext, ParentCluster: dst.ParentCluster})
}

// checkNotInside fails if target is dir itself or any directory below it.
func (s *session) checkNotInside(dir, target uint32) error {
	current := target
	for steps := 0; steps < ClusterMapSize; steps++ {
		if current == dir {
			return checkpoint.Wrap(fmt.Errorf("directory %v can not be moved into %v", dir, target), ErrInvalidParent)
		}
		if current == RootCluster {
			return nil
		}

		parent, err := s.loadDirectory(current)
		if err != nil {
			return err
		}
		current = parent.head().Cluster()
	}
	return checkpoint.Wrap(fmt.Errorf("cluster: %v, parent pointers do not reach the root", target), ErrCorruptChain)
}

// storeDirectory writes all tables of dir.
func (s *session) storeDirectory(dir *directory) error {
	for i := range dir.tables {
		if err := s.storeTable(dir, i); err != nil {
			return err
		}
	}
	return nil
}
