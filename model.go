// File model contains the constants and records which match the direct structures on the volume.

package kernfat

// Volume geometry. The layout is fixed, a volume is always formatted with exactly these values.
const (
	BlockSize          = 512
	ClusterBlockCount  = 4
	ClusterSize        = BlockSize * ClusterBlockCount
	MaxBlocksPerCall   = 255
	MaxClustersPerCall = MaxBlocksPerCall / ClusterBlockCount

	// ClusterMapSize is the amount of FAT entries, one FAT cluster of 32 bit values.
	ClusterMapSize = ClusterSize / 4
	VolumeBlocks   = ClusterMapSize * ClusterBlockCount
	VolumeSize     = VolumeBlocks * BlockSize
)

// Reserved locations.
const (
	BootSector        = 0
	FATCluster        = 1
	RootCluster       = 2
	IndexFirstCluster = 3
	IndexClusterCount = 4

	// IndexCountSlot is the FAT slot holding the amount of index entries instead of a link.
	IndexCountSlot = ClusterMapSize - 1

	// firstDataCluster is the first cluster the allocator may hand out.
	firstDataCluster = IndexFirstCluster + IndexClusterCount
)

// Directory entry attributes.
const (
	AttrSubdirectory = 0x10
	UAttrNotEmpty    = 0xAA
)

const (
	DirectoryEntrySize   = 32
	DirectoryTableLength = ClusterSize / DirectoryEntrySize

	IndexEntrySize = 16
	IndexCapacity  = IndexClusterCount * ClusterSize / IndexEntrySize
)

// signature is written to the boot sector when a volume gets formatted.
// Any other content of block 0 means the volume is blank.
var signature = func() [BlockSize]byte {
	var s [BlockSize]byte
	copy(s[:], "kernfat volume                  "+
		"8.3 names, 2048 byte clusters   "+
		"FAT at cluster 1, root at 2     "+
		"--------------------------------\n")
	s[BlockSize-2] = 'O'
	s[BlockSize-1] = 'k'
	return s
}()

// Request is the uniform input of every driver operation.
// Buf stays owned by the caller, the driver never keeps a reference to it.
type Request struct {
	Name          [8]byte
	Ext           [3]byte
	ParentCluster uint32
	Buf           []byte

	// BufferSize is the amount of bytes to write. 0 creates a directory.
	// For reads it limits the capacity of Buf.
	BufferSize uint32
}

// capacity returns how many bytes a read may place into Buf.
func (r Request) capacity() int {
	if r.BufferSize > 0 && int(r.BufferSize) <= len(r.Buf) {
		return int(r.BufferSize)
	}
	return len(r.Buf)
}

// NewRequest builds a request for name (in "name.ext" form) inside parent.
func NewRequest(name string, parent uint32) (Request, error) {
	n, e, err := ParseName(name)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Name:          n,
		Ext:           e,
		ParentCluster: parent,
	}, nil
}
