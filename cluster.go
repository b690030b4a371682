package kernfat

import (
	"fmt"

	"github.com/aligator/kernfat/checkpoint"
)

// ClusterToLBA converts a cluster number to the logical block address of its first block.
func ClusterToLBA(cluster uint32) uint32 {
	return cluster * ClusterBlockCount
}

// ClusterDevice wraps a BlockDevice into cluster granularity reads and writes.
type ClusterDevice struct {
	dev BlockDevice
}

func NewClusterDevice(dev BlockDevice) *ClusterDevice {
	return &ClusterDevice{dev: dev}
}

func checkClusterCount(count uint8) error {
	if count == 0 || count > MaxClustersPerCall {
		return checkpoint.Wrap(fmt.Errorf("count: %v, max: %v", count, MaxClustersPerCall), ErrBlockCount)
	}
	return nil
}

// ReadClusters reads count clusters starting at cluster into dst.
func (c *ClusterDevice) ReadClusters(dst []byte, cluster uint32, count uint8) error {
	if err := checkClusterCount(count); err != nil {
		return err
	}
	return checkpoint.From(c.dev.ReadBlocks(dst, ClusterToLBA(cluster), count*ClusterBlockCount))
}

// WriteClusters writes count clusters from src starting at cluster.
func (c *ClusterDevice) WriteClusters(src []byte, cluster uint32, count uint8) error {
	if err := checkClusterCount(count); err != nil {
		return err
	}
	return checkpoint.From(c.dev.WriteBlocks(src, ClusterToLBA(cluster), count*ClusterBlockCount))
}

// readCluster reads a single cluster into a fresh buffer.
func (c *ClusterDevice) readCluster(cluster uint32) ([]byte, error) {
	buf := make([]byte, ClusterSize)
	if err := c.ReadClusters(buf, cluster, 1); err != nil {
		return nil, err
	}
	return buf, nil
}

