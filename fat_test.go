package kernfat

import (
	"errors"
	"reflect"
	"testing"
)

func Test_fatEntry_Value(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want uint32
	}{
		{name: "empty", e: fatEmpty, want: 0},
		{name: "cluster", e: 42, want: 42},
		{name: "reserved bits are ignored", e: 0xF000002A, want: 42},
		{name: "end of chain", e: fatEndOfChain, want: 0x0FFFFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Value(); got != tt.want {
				t.Errorf("fatEntry.Value() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsFree(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want bool
	}{
		{name: "empty", e: fatEmpty, want: true},
		{name: "reserved bits only", e: 0xF0000000, want: true},
		{name: "cluster", e: 8, want: false},
		{name: "end of chain", e: fatEndOfChain, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsFree(); got != tt.want {
				t.Errorf("fatEntry.IsFree() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsEOF(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want bool
	}{
		{name: "end of chain", e: fatEndOfChain, want: true},
		{name: "end of chain with reserved bits", e: 0xFFFFFFFF, want: true},
		{name: "cluster", e: 8, want: false},
		{name: "empty", e: fatEmpty, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsEOF(); got != tt.want {
				t.Errorf("fatEntry.IsEOF() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_fatEntry_IsNextCluster(t *testing.T) {
	tests := []struct {
		name string
		e    fatEntry
		want bool
	}{
		{name: "root", e: RootCluster, want: true},
		{name: "data cluster", e: 100, want: true},
		{name: "last data cluster", e: IndexCountSlot - 1, want: true},
		{name: "index count slot", e: IndexCountSlot, want: false},
		{name: "fat cluster", e: FATCluster, want: false},
		{name: "empty", e: fatEmpty, want: false},
		{name: "end of chain", e: fatEndOfChain, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.IsNextCluster(); got != tt.want {
				t.Errorf("fatEntry.IsNextCluster() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllocationTable_new(t *testing.T) {
	fat := newAllocationTable()

	if got := fat.Next(RootCluster); !got.IsEOF() {
		t.Errorf("root cluster = %v, want end of chain", got)
	}

	chain, err := fat.Chain(IndexFirstCluster)
	if err != nil {
		t.Fatalf("index chain error = %v", err)
	}
	if want := []uint32{3, 4, 5, 6}; !reflect.DeepEqual(chain, want) {
		t.Errorf("index chain = %v, want %v", chain, want)
	}

	if got, want := fat.FreeCount(), IndexCountSlot-firstDataCluster; got != want {
		t.Errorf("FreeCount() = %v, want %v", got, want)
	}
	if got := fat.indexCount(); got != 0 {
		t.Errorf("indexCount() = %v, want 0", got)
	}
}

func TestAllocationTable_Binary(t *testing.T) {
	fat := newAllocationTable()
	fat.Link(7, 9)
	fat.Link(9, uint32(fatEndOfChain))
	fat.setIndexCount(3)

	data, err := fat.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != ClusterSize {
		t.Fatalf("MarshalBinary() length = %v, want %v", len(data), ClusterSize)
	}
	if data[7*4] != 9 || data[7*4+1] != 0 {
		t.Errorf("entry 7 is not little endian: % x", data[7*4:8*4])
	}

	got := &AllocationTable{}
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if *got != *fat {
		t.Errorf("UnmarshalBinary() does not restore the table")
	}

	if err := got.UnmarshalBinary(data[:10]); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("UnmarshalBinary() short error = %v, want %v", err, ErrShortBuffer)
	}
}

func TestAllocationTable_EmptyCluster(t *testing.T) {
	fat := newAllocationTable()

	first, err := fat.EmptyCluster()
	if err != nil {
		t.Fatal(err)
	}
	if first != firstDataCluster {
		t.Errorf("EmptyCluster() = %v, want %v", first, firstDataCluster)
	}
	if !fat.Next(first).IsEOF() {
		t.Errorf("EmptyCluster() did not reserve the cluster")
	}

	second, err := fat.EmptyCluster()
	if err != nil {
		t.Fatal(err)
	}
	if second != firstDataCluster+1 {
		t.Errorf("EmptyCluster() = %v, want %v", second, firstDataCluster+1)
	}

	// Allocate everything.
	for fat.FreeCount() > 0 {
		if _, err := fat.EmptyCluster(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := fat.EmptyCluster(); !errors.Is(err, ErrNoSpace) {
		t.Errorf("EmptyCluster() error = %v, want %v", err, ErrNoSpace)
	}
	if !fat.Next(IndexCountSlot).IsFree() {
		t.Errorf("EmptyCluster() used the index count slot")
	}
}

func TestAllocationTable_Chain(t *testing.T) {
	tests := []struct {
		name    string
		links   map[uint32]fatEntry
		start   uint32
		want    []uint32
		wantErr error
	}{
		{
			name:  "single cluster",
			links: map[uint32]fatEntry{10: fatEndOfChain},
			start: 10,
			want:  []uint32{10},
		},
		{
			name:  "fragmented",
			links: map[uint32]fatEntry{10: 20, 20: 11, 11: fatEndOfChain},
			start: 10,
			want:  []uint32{10, 20, 11},
		},
		{
			name:    "free cluster inside",
			links:   map[uint32]fatEntry{10: 20},
			start:   10,
			wantErr: ErrCorruptChain,
		},
		{
			name:    "loop",
			links:   map[uint32]fatEntry{10: 11, 11: 10},
			start:   10,
			wantErr: ErrCorruptChain,
		},
		{
			name:    "leaves the map",
			links:   map[uint32]fatEntry{10: 0x0FFFFFF0},
			start:   10,
			wantErr: ErrCorruptChain,
		},
		{
			name:    "invalid start",
			start:   0,
			wantErr: ErrCorruptChain,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fat := newAllocationTable()
			for c, e := range tt.links {
				fat.clusters[c] = e
			}

			got, err := fat.Chain(tt.start)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AllocationTable.Chain() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AllocationTable.Chain() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllocationTable_FreeChain(t *testing.T) {
	fat := newAllocationTable()
	fat.clusters[10] = 20
	fat.clusters[20] = fatEndOfChain
	before := fat.FreeCount()

	freed, err := fat.FreeChain(10)
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint32{10, 20}; !reflect.DeepEqual(freed, want) {
		t.Errorf("FreeChain() = %v, want %v", freed, want)
	}
	if fat.FreeCount() != before+2 {
		t.Errorf("FreeChain() FreeCount = %v, want %v", fat.FreeCount(), before+2)
	}

	// A broken chain stays untouched.
	fat.clusters[30] = 31
	if _, err := fat.FreeChain(30); !errors.Is(err, ErrCorruptChain) {
		t.Errorf("FreeChain() error = %v, want %v", err, ErrCorruptChain)
	}
	if fat.clusters[30] != 31 {
		t.Errorf("FreeChain() changed a corrupt chain")
	}
}

func TestAllocationTable_IsFree(t *testing.T) {
	fat := newAllocationTable()
	fat.clusters[10] = fatEndOfChain

	tests := []struct {
		cluster uint32
		want    bool
	}{
		{cluster: RootCluster, want: false},
		{cluster: IndexFirstCluster, want: false},
		{cluster: firstDataCluster, want: true},
		{cluster: 10, want: false},
		{cluster: IndexCountSlot, want: false},
		{cluster: ClusterMapSize + 5, want: false},
	}
	for _, tt := range tests {
		if got := fat.IsFree(tt.cluster); got != tt.want {
			t.Errorf("AllocationTable.IsFree(%v) = %v, want %v", tt.cluster, got, tt.want)
		}
	}
}

func TestAllocationTable_IsChainHead(t *testing.T) {
	table := newAllocationTable()
	table.clusters[10] = 11
	table.clusters[11] = fatEndOfChain
	table.setIndexCount(12)

	tests := []struct {
		name    string
		cluster uint32
		want    bool
	}{
		{name: "root", cluster: RootCluster, want: true},
		{name: "start of a chain", cluster: 10, want: true},
		{name: "second cluster of a chain", cluster: 11, want: false},
		{name: "second index cluster", cluster: IndexFirstCluster + 1, want: false},
		{name: "index count is no link", cluster: 12, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.IsChainHead(tt.cluster); got != tt.want {
				t.Errorf("AllocationTable.IsChainHead(%v) = %v, want %v", tt.cluster, got, tt.want)
			}
		})
	}
}
