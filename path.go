package kernfat

import (
	"fmt"
	"path"
	"strings"

	"github.com/aligator/kernfat/checkpoint"
)

// Children returns all entries of the directory at cluster.
func (d *Driver) Children(cluster uint32) ([]DirectoryEntry, error) {
	var children []DirectoryEntry
	err := d.run("children", [8]byte{}, [3]byte{}, cluster, func(s *session) error {
		dir, err := s.loadDirectory(cluster)
		if err != nil {
			return err
		}
		children = dir.children()
		return nil
	})
	return children, err
}

// GetChildren lists the entries of the directory at cluster, one "name.ext" per line.
// Entries without extension are listed as "name.file".
func (d *Driver) GetChildren(cluster uint32) (string, error) {
	children, err := d.Children(cluster)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, c := range children {
		b.WriteString(trimField(c.Name[:]))
		b.WriteByte('.')
		if ext := trimField(c.Ext[:]); ext != "" {
			b.WriteString(ext)
		} else {
			b.WriteString("file")
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// GetDirPath returns the absolute path of the directory at cluster by following
// the parent pointers up to the root.
func (d *Driver) GetDirPath(cluster uint32) (string, error) {
	var p string
	err := d.run("get_dir_path", [8]byte{}, [3]byte{}, cluster, func(s *session) error {
		var segments []string
		current := cluster
		for steps := 0; current != RootCluster; steps++ {
			if steps >= ClusterMapSize {
				return checkpoint.Wrap(fmt.Errorf("cluster: %v, parent pointers do not reach the root", cluster), ErrCorruptChain)
			}

			dir, err := s.loadDirectory(current)
			if err != nil {
				return err
			}

			segments = append(segments, dir.head().FullName())
			current = dir.head().Cluster()
		}

		for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
			segments[i], segments[j] = segments[j], segments[i]
		}
		p = "/" + strings.Join(segments, "/")
		return nil
	})
	return p, err
}

// MoveToChildDirectory returns the cluster of the subdirectory req names.
func (d *Driver) MoveToChildDirectory(req Request) (uint32, error) {
	var cluster uint32
	err := d.run("move_to_child", req.Name, req.Ext, req.ParentCluster, func(s *session) error {
		parent, sl, err := findIn(s, req)
		if err != nil {
			return err
		}

		entry := parent.entry(sl)
		if !entry.IsDir() {
			return checkpoint.Wrap(fmt.Errorf("name: %v", entry.FullName()), ErrNotADirectory)
		}
		cluster = entry.Cluster()
		return nil
	})
	return cluster, err
}

// MoveToParentDirectory returns the cluster of the parent of the directory at req.ParentCluster.
// The parent of the root is the root itself.
func (d *Driver) MoveToParentDirectory(req Request) (uint32, error) {
	var cluster uint32
	err := d.run("move_to_parent", req.Name, req.Ext, req.ParentCluster, func(s *session) error {
		dir, err := s.loadDirectory(req.ParentCluster)
		if err != nil {
			return err
		}
		cluster = dir.head().Cluster()
		return nil
	})
	return cluster, err
}

// Resolve walks the slash separated path p from the root.
// It returns the entry found at p and the cluster of the directory containing it.
// For the root itself the parent pointer entry of the root is returned.
func (d *Driver) Resolve(p string) (DirectoryEntry, uint32, error) {
	var (
		entry  DirectoryEntry
		parent uint32
	)

	segments := splitPath(p)
	err := d.run("resolve", [8]byte{}, [3]byte{}, RootCluster, func(s *session) error {
		root, err := s.loadDirectory(RootCluster)
		if err != nil {
			return err
		}
		entry = *root.head()
		parent = RootCluster

		dir := root
		for i, segment := range segments {
			name, ext, err := ParseName(segment)
			if err != nil {
				return err
			}

			sl, ok := dir.find(name, ext)
			if !ok {
				return checkpoint.Wrap(fmt.Errorf("path: %v", p), ErrNotFound)
			}
			entry = *dir.entry(sl)
			parent = dir.cluster()

			if i == len(segments)-1 {
				break
			}
			if !entry.IsDir() {
				return checkpoint.Wrap(fmt.Errorf("path: %v, segment: %v", p, segment), ErrNotADirectory)
			}
			if dir, err = s.loadDirectory(entry.Cluster()); err != nil {
				return err
			}
		}
		return nil
	})
	return entry, parent, err
}

// splitPath cleans p and splits it into its segments. The root has no segments.
func splitPath(p string) []string {
	p = path.Clean("/" + p)
	if p == "/" {
		return nil
	}
	return strings.Split(p[1:], "/")
}
