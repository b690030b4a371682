package kernfat

import (
	"encoding/binary"
	"fmt"

	"github.com/aligator/kernfat/checkpoint"
)

// fatEntry is one value of the file allocation table.
type fatEntry uint32

const (
	fatEmpty      fatEntry = 0x00000000
	fatEndOfChain fatEntry = 0x0FFFFFFF
	fatCluster0   fatEntry = 0x0FFFFFF0
	fatCluster1   fatEntry = fatEndOfChain
)

// Value returns the 28 bit value of the entry, the upper 4 bits are reserved.
func (e fatEntry) Value() uint32 {
	return uint32(e) & 0x0FFFFFFF
}

func (e fatEntry) IsFree() bool {
	return e.Value() == uint32(fatEmpty)
}

func (e fatEntry) IsEOF() bool {
	return e.Value() == uint32(fatEndOfChain)
}

// IsNextCluster reports whether the entry links to a cluster which may be part of a chain.
func (e fatEntry) IsNextCluster() bool {
	return e.Value() >= RootCluster && e.Value() < IndexCountSlot
}

// AllocationTable is the in-memory copy of the file allocation table.
type AllocationTable struct {
	clusters [ClusterMapSize]fatEntry
}

// newAllocationTable returns the table of a freshly formatted volume.
func newAllocationTable() *AllocationTable {
	t := &AllocationTable{}
	t.clusters[0] = fatCluster0
	t.clusters[FATCluster] = fatCluster1
	t.clusters[RootCluster] = fatEndOfChain

	// The index is one chain over its reserved clusters.
	for c := uint32(IndexFirstCluster); c < firstDataCluster-1; c++ {
		t.clusters[c] = fatEntry(c + 1)
	}
	t.clusters[firstDataCluster-1] = fatEndOfChain
	t.clusters[IndexCountSlot] = 0
	return t
}

func (t *AllocationTable) MarshalBinary() ([]byte, error) {
	data := make([]byte, ClusterSize)
	for i, e := range t.clusters {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(e))
	}
	return data, nil
}

func (t *AllocationTable) UnmarshalBinary(data []byte) error {
	if len(data) < ClusterSize {
		return checkpoint.Wrap(fmt.Errorf("have: %v, need: %v", len(data), ClusterSize), ErrShortBuffer)
	}
	for i := range t.clusters {
		t.clusters[i] = fatEntry(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return nil
}

// Next returns the value stored for cluster.
func (t *AllocationTable) Next(cluster uint32) fatEntry {
	if cluster >= ClusterMapSize {
		return fatEmpty
	}
	return t.clusters[cluster]
}

// IsFree reports whether cluster is an allocatable cluster that is not in use.
func (t *AllocationTable) IsFree(cluster uint32) bool {
	return cluster >= firstDataCluster && cluster < IndexCountSlot && t.clusters[cluster].IsFree()
}

// FreeCount returns the amount of clusters the allocator can still hand out.
func (t *AllocationTable) FreeCount() int {
	free := 0
	for c := uint32(firstDataCluster); c < IndexCountSlot; c++ {
		if t.clusters[c].IsFree() {
			free++
		}
	}
	return free
}

// EmptyCluster finds the first free cluster and reserves it by marking it as end of chain.
func (t *AllocationTable) EmptyCluster() (uint32, error) {
	for c := uint32(firstDataCluster); c < IndexCountSlot; c++ {
		if t.clusters[c].IsFree() {
			t.clusters[c] = fatEndOfChain
			return c, nil
		}
	}
	return 0, checkpoint.New(ErrNoSpace)
}

// Link makes next the successor of prev.
func (t *AllocationTable) Link(prev, next uint32) {
	t.clusters[prev] = fatEntry(next)
}

// IsChainHead reports whether no other cluster links to cluster.
// The index count slot holds no link and is skipped.
func (t *AllocationTable) IsChainHead(cluster uint32) bool {
	for c := uint32(RootCluster); c < IndexCountSlot; c++ {
		if e := t.clusters[c]; e.IsNextCluster() && e.Value() == cluster {
			return false
		}
	}
	return true
}

// Chain walks the chain beginning at start and returns all its clusters in order.
// A chain that leaves the cluster map, runs into a free cluster or does not end
// within ClusterMapSize steps fails with ErrCorruptChain.
func (t *AllocationTable) Chain(start uint32) ([]uint32, error) {
	var chain []uint32
	cluster := start
	for steps := 0; steps < ClusterMapSize; steps++ {
		if !fatEntry(cluster).IsNextCluster() {
			return chain, checkpoint.Wrap(fmt.Errorf("start: %v, invalid cluster: %v", start, cluster), ErrCorruptChain)
		}

		chain = append(chain, cluster)
		next := t.clusters[cluster]
		switch {
		case next.IsEOF():
			return chain, nil
		case next.IsFree():
			return chain, checkpoint.Wrap(fmt.Errorf("start: %v, free cluster %v inside of chain", start, cluster), ErrCorruptChain)
		}
		cluster = next.Value()
	}

	return chain, checkpoint.Wrap(fmt.Errorf("start: %v, chain does not terminate", start), ErrCorruptChain)
}

// FreeChain walks the chain beginning at start and marks every cluster of it as free.
// The chain is walked completely before anything is changed, a corrupt chain stays untouched.
func (t *AllocationTable) FreeChain(start uint32) ([]uint32, error) {
	chain, err := t.Chain(start)
	if err != nil {
		return nil, err
	}

	for _, c := range chain {
		t.clusters[c] = fatEmpty
	}
	return chain, nil
}

func (t *AllocationTable) indexCount() int {
	return int(t.clusters[IndexCountSlot])
}

func (t *AllocationTable) setIndexCount(count int) {
	t.clusters[IndexCountSlot] = fatEntry(count)
}
