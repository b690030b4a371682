package kernfat

import (
	"fmt"
	"sort"

	"github.com/aligator/kernfat/checkpoint"
)

// session is the working state of a single driver operation.
// It holds the FAT and everything else loaded from disk during the operation.
// Nothing outlives the session, each operation starts again from the disk content.
// Cluster writes are staged and only reach the device on commit, so a failed
// operation leaves the volume untouched.
type session struct {
	dev   *ClusterDevice
	fat   *AllocationTable
	index *nameIndex

	// pending maps a cluster to its staged content of ClusterSize bytes.
	pending  map[uint32][]byte
	fatDirty bool
}

// begin loads the FAT and starts a new session.
func begin(dev *ClusterDevice) (*session, error) {
	data, err := dev.readCluster(FATCluster)
	if err != nil {
		return nil, err
	}

	fat := &AllocationTable{}
	if err := fat.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	return &session{
		dev:     dev,
		fat:     fat,
		pending: make(map[uint32][]byte),
	}, nil
}

// isDirectoryCluster reports whether cluster can be the first cluster of a directory at all.
// Later clusters of a directory chain repeat its parent pointer entry but are no directory on their own.
func (s *session) isDirectoryCluster(cluster uint32) bool {
	if cluster == RootCluster {
		return true
	}
	return s.allocated(cluster) && s.fat.IsChainHead(cluster)
}

// loadDirectory reads the whole chain of the directory starting at cluster.
// Any cluster which does not start a directory results in ErrInvalidParent.
func (s *session) loadDirectory(cluster uint32) (*directory, error) {
	if !s.isDirectoryCluster(cluster) {
		return nil, checkpoint.Wrap(fmt.Errorf("cluster: %v", cluster), ErrInvalidParent)
	}

	chain, err := s.fat.Chain(cluster)
	if err != nil {
		return nil, err
	}

	data, err := s.readChain(chain)
	if err != nil {
		return nil, err
	}

	dir := &directory{
		clusters: chain,
		tables:   make([]DirectoryTable, len(chain)),
	}
	for i := range chain {
		if err := dir.tables[i].UnmarshalBinary(data[i*ClusterSize:]); err != nil {
			return nil, err
		}
	}

	if !dir.tables[0].IsDirectory() {
		return nil, checkpoint.Wrap(fmt.Errorf("cluster: %v", cluster), ErrInvalidParent)
	}

	return dir, nil
}

// storeTable writes one table of dir back to its cluster.
func (s *session) storeTable(dir *directory, table int) error {
	data, err := dir.tables[table].MarshalBinary()
	if err != nil {
		return err
	}
	return s.writeChain(dir.clusters[table:table+1], data)
}

// extendDirectory links one more cluster to dir and returns the first slot of it.
// The new table repeats the parent pointer entry of the first table.
func (s *session) extendDirectory(dir *directory) (slot, error) {
	cluster, err := s.fat.EmptyCluster()
	if err != nil {
		return slot{}, err
	}
	s.fat.Link(dir.clusters[len(dir.clusters)-1], cluster)
	s.fatDirty = true

	var table DirectoryTable
	table[0] = *dir.head()
	dir.clusters = append(dir.clusters, cluster)
	dir.tables = append(dir.tables, table)

	return slot{table: len(dir.tables) - 1, index: 1}, nil
}

// clusterRuns splits a chain into runs of consecutive clusters
// which can be transferred with a single device call.
func clusterRuns(chain []uint32) [][]uint32 {
	var runs [][]uint32
	start := 0
	for i := 1; i <= len(chain); i++ {
		if i == len(chain) || chain[i] != chain[i-1]+1 || i-start == MaxClustersPerCall {
			runs = append(runs, chain[start:i])
			start = i
		}
	}
	return runs
}

// readChain reads all clusters of chain into one buffer, in chain order.
// Staged content of the session takes precedence over the device.
func (s *session) readChain(chain []uint32) ([]byte, error) {
	data := make([]byte, len(chain)*ClusterSize)
	offset := 0
	for _, run := range clusterRuns(chain) {
		if err := s.dev.ReadClusters(data[offset:], run[0], uint8(len(run))); err != nil {
			return nil, err
		}
		offset += len(run) * ClusterSize
	}

	for i, cluster := range chain {
		if staged, ok := s.pending[cluster]; ok {
			copy(data[i*ClusterSize:], staged)
		}
	}
	return data, nil
}

// writeChain stages data for the clusters of chain, in chain order.
// data is padded with zeros up to the full size of the chain.
func (s *session) writeChain(chain []uint32, data []byte) error {
	buf := make([]byte, len(chain)*ClusterSize)
	copy(buf, data)

	for i, cluster := range chain {
		s.pending[cluster] = buf[i*ClusterSize : (i+1)*ClusterSize]
	}
	return nil
}

// flush writes all staged clusters in ascending order, batching consecutive clusters.
func (s *session) flush() error {
	clusters := make([]uint32, 0, len(s.pending))
	for cluster := range s.pending {
		clusters = append(clusters, cluster)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i] < clusters[j] })

	for _, run := range clusterRuns(clusters) {
		buf := make([]byte, 0, len(run)*ClusterSize)
		for _, cluster := range run {
			buf = append(buf, s.pending[cluster]...)
		}
		if err := s.dev.WriteClusters(buf, run[0], uint8(len(run))); err != nil {
			return err
		}
	}
	s.pending = make(map[uint32][]byte)
	return nil
}

// allocateChain takes count free clusters one after another and links each to its predecessor.
func (s *session) allocateChain(count int) ([]uint32, error) {
	chain := make([]uint32, 0, count)
	for i := 0; i < count; i++ {
		cluster, err := s.fat.EmptyCluster()
		if err != nil {
			return nil, err
		}
		if i > 0 {
			s.fat.Link(chain[i-1], cluster)
		}
		chain = append(chain, cluster)
	}
	s.fatDirty = true
	return chain, nil
}

// clustersFor returns the amount of clusters needed to store size bytes.
// A size of 0 is a directory which needs exactly one cluster.
func clustersFor(size uint32) int {
	if size == 0 {
		return 1
	}
	return int((size + ClusterSize - 1) / ClusterSize)
}

// fileChain returns the chain of a file entry and checks that it matches the file size.
func (s *session) fileChain(entry DirectoryEntry) ([]uint32, error) {
	chain, err := s.fat.Chain(entry.Cluster())
	if err != nil {
		return nil, err
	}
	if len(chain) != clustersFor(entry.FileSize) {
		return nil, checkpoint.Wrap(fmt.Errorf("size: %v, clusters: %v", entry.FileSize, len(chain)), ErrCorruptChain)
	}
	return chain, nil
}

// commit writes the staged clusters, then the index and last the FAT, if they were changed.
func (s *session) commit() error {
	if err := s.flush(); err != nil {
		return err
	}

	if s.index != nil && s.index.dirty {
		if err := s.storeIndex(); err != nil {
			return err
		}
	}

	if !s.fatDirty {
		return nil
	}

	data, err := s.fat.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.dev.WriteClusters(data, FATCluster, 1); err != nil {
		return err
	}
	s.fatDirty = false
	return nil
}
