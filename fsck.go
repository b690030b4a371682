package kernfat

import (
	"fmt"
	"path"
	"sort"
)

// Report is the result of a consistency check.
type Report struct {
	// Used and Free count the allocatable clusters.
	Used int
	Free int

	// CrossLinked contains clusters owned by more than one chain.
	CrossLinked []uint32

	// Leaked contains clusters marked as used in the FAT which no chain owns.
	Leaked []uint32

	// Dangling contains the paths of entries which point at a free cluster.
	Dangling []string

	// Corrupt contains the paths of entries whose chain is broken.
	Corrupt []string
}

// Clean reports whether the check found no problem at all.
func (r Report) Clean() bool {
	return len(r.CrossLinked) == 0 && len(r.Leaked) == 0 && len(r.Dangling) == 0 && len(r.Corrupt) == 0
}

func (r Report) String() string {
	return fmt.Sprintf("used: %v, free: %v, cross linked: %v, leaked: %v, dangling: %v, corrupt: %v",
		r.Used, r.Free, r.CrossLinked, r.Leaked, r.Dangling, r.Corrupt)
}

// checker collects the ownership of all clusters during a check.
type checker struct {
	s      *session
	report *Report
	owner  map[uint32]string
	cross  map[uint32]bool
}

// claim marks all clusters of chain as owned by name.
// It returns false if any of them was already owned.
func (c *checker) claim(name string, chain []uint32) bool {
	ok := true
	for _, cluster := range chain {
		if _, owned := c.owner[cluster]; owned {
			if !c.cross[cluster] {
				c.cross[cluster] = true
				c.report.CrossLinked = append(c.report.CrossLinked, cluster)
			}
			ok = false
			continue
		}
		c.owner[cluster] = name
	}
	return ok
}

func (c *checker) walk(dirPath string, cluster uint32) {
	dir, err := c.s.loadDirectory(cluster)
	if err != nil {
		c.report.Corrupt = append(c.report.Corrupt, dirPath)
		return
	}
	if !c.claim(dirPath, dir.clusters) {
		// A directory reachable twice would be walked forever.
		return
	}

	for _, child := range dir.children() {
		childPath := path.Join(dirPath, child.FullName())

		if !c.s.allocated(child.Cluster()) {
			c.report.Dangling = append(c.report.Dangling, childPath)
			continue
		}

		if child.IsDir() {
			c.walk(childPath, child.Cluster())
			continue
		}

		chain, err := c.s.fileChain(child)
		if err != nil {
			c.report.Corrupt = append(c.report.Corrupt, childPath)
			// The readable part of the chain still belongs to the entry.
			partial, _ := c.s.fat.Chain(child.Cluster())
			c.claim(childPath, partial)
			continue
		}
		c.claim(childPath, chain)
	}
}

// allocated reports whether cluster is an allocatable cluster marked as used.
func (s *session) allocated(cluster uint32) bool {
	return cluster >= firstDataCluster && cluster < IndexCountSlot && !s.fat.Next(cluster).IsFree()
}

// Check walks the whole directory tree and verifies that every allocated
// cluster is owned by exactly one chain.
func (d *Driver) Check() (Report, error) {
	var report Report
	err := d.run("check", [8]byte{}, [3]byte{}, RootCluster, func(s *session) error {
		c := &checker{
			s:      s,
			report: &report,
			owner:  map[uint32]string{},
			cross:  map[uint32]bool{},
		}

		index, err := s.fat.Chain(IndexFirstCluster)
		if err != nil {
			return err
		}
		c.claim("index", index)

		c.walk("/", RootCluster)

		for cluster := uint32(firstDataCluster); cluster < IndexCountSlot; cluster++ {
			if !s.allocated(cluster) {
				report.Free++
				continue
			}
			report.Used++
			if _, owned := c.owner[cluster]; !owned {
				report.Leaked = append(report.Leaked, cluster)
			}
		}

		sort.Slice(report.CrossLinked, func(i, j int) bool { return report.CrossLinked[i] < report.CrossLinked[j] })
		return nil
	})
	return report, err
}
