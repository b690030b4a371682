package kernfat

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aligator/kernfat/checkpoint"
	"github.com/sirupsen/logrus"
)

// rootName is stored in entry 0 of the root directory.
var rootName = [8]byte{'r', 'o', 'o', 't'}

// Driver implements the filesystem operations on top of a BlockDevice.
// All operations are serialized, only one of them works on the volume at a time.
type Driver struct {
	lock sync.Mutex

	blocks   BlockDevice
	clusters *ClusterDevice
	log      logrus.FieldLogger

	initialized bool
}

// Option configures a Driver.
type Option func(d *Driver)

// WithLogger sets the logger used by the driver.
// Without it, nothing is logged.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Driver) {
		d.log = log
	}
}

// New creates a driver for dev.
// Initialize has to be called before any other operation.
func New(dev BlockDevice, opts ...Option) *Driver {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	d := &Driver{
		blocks:   dev,
		clusters: NewClusterDevice(dev),
		log:      discard,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// run executes fn inside of a new session and commits the session if fn succeeds.
func (d *Driver) run(op string, name [8]byte, ext [3]byte, parent uint32, fn func(s *session) error) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	log := d.log.WithFields(logrus.Fields{
		"op":     op,
		"name":   FormatName(name, ext),
		"parent": parent,
	})

	if !d.initialized {
		return checkpoint.New(ErrNotInitialized)
	}

	err := d.session(fn)
	if err != nil {
		if errors.Is(err, ErrCorruptChain) {
			log.WithFields(checkpoint.Fields(err)).WithError(err).Warn("corrupt cluster chain")
		} else {
			log.WithError(err).Debug("operation failed")
		}
		return err
	}

	log.Debug("operation done")
	return nil
}

func (d *Driver) session(fn func(s *session) error) error {
	s, err := begin(d.clusters)
	if err != nil {
		return err
	}

	if err := fn(s); err != nil {
		return err
	}

	return s.commit()
}

// IsEmptyStorage reports whether the volume does not carry the signature yet.
func (d *Driver) IsEmptyStorage() (bool, error) {
	block := make([]byte, BlockSize)
	if err := d.blocks.ReadBlocks(block, BootSector, 1); err != nil {
		return false, checkpoint.From(err)
	}
	return !bytes.Equal(block, signature[:]), nil
}

// CreateFAT32 writes a fresh allocation table and then the signature.
func (d *Driver) CreateFAT32() error {
	data, err := newAllocationTable().MarshalBinary()
	if err != nil {
		return err
	}

	if err := d.clusters.WriteClusters(data, FATCluster, 1); err != nil {
		return err
	}

	return checkpoint.From(d.blocks.WriteBlocks(signature[:], BootSector, 1))
}

// InitializeRoot writes the root directory table.
// Its parent pointer references the root cluster itself.
func (d *Driver) InitializeRoot() error {
	table := InitDirectoryTable(rootName, [3]byte{}, RootCluster)
	data, err := table.MarshalBinary()
	if err != nil {
		return err
	}
	return d.clusters.WriteClusters(data, RootCluster, 1)
}

// initializeIndex clears the index clusters.
func (d *Driver) initializeIndex() error {
	return d.clusters.WriteClusters(make([]byte, IndexClusterCount*ClusterSize), IndexFirstCluster, IndexClusterCount)
}

func (d *Driver) format() error {
	if err := d.CreateFAT32(); err != nil {
		return err
	}
	if err := d.InitializeRoot(); err != nil {
		return err
	}
	return d.initializeIndex()
}

// Initialize formats the volume if it is blank and makes the driver ready.
// Calling it again has no effect.
func (d *Driver) Initialize() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.initialized {
		return nil
	}

	empty, err := d.IsEmptyStorage()
	if err != nil {
		return err
	}

	if empty {
		d.log.Info("blank volume, formatting")
		if err := d.format(); err != nil {
			return err
		}
	}

	// Check that the FAT can be loaded.
	if _, err := begin(d.clusters); err != nil {
		return err
	}

	d.initialized = true
	return nil
}

// Format overwrites the volume with an empty filesystem, regardless of its content.
func (d *Driver) Format() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.log.Info("formatting volume")
	if err := d.format(); err != nil {
		return err
	}
	d.initialized = true
	return nil
}

// findIn loads the parent directory of req and searches the entry req names.
func findIn(s *session, req Request) (*directory, slot, error) {
	parent, err := s.loadDirectory(req.ParentCluster)
	if err != nil {
		return nil, slot{}, err
	}

	sl, ok := parent.find(req.Name, req.Ext)
	if !ok {
		return parent, slot{}, checkpoint.Wrap(fmt.Errorf("name: %v, parent: %v", FormatName(req.Name, req.Ext), req.ParentCluster), ErrNotFound)
	}
	return parent, sl, nil
}

// Lookup returns the entry req names.
func (d *Driver) Lookup(req Request) (DirectoryEntry, error) {
	var entry DirectoryEntry
	err := d.run("lookup", req.Name, req.Ext, req.ParentCluster, func(s *session) error {
		parent, sl, err := findIn(s, req)
		if err != nil {
			return err
		}
		entry = *parent.entry(sl)
		return nil
	})
	return entry, err
}

// Read copies the content of the file req names into req.Buf.
// The whole file has to fit into the capacity of the request, else ErrInsufficientBuffer
// is returned and nothing is copied.
func (d *Driver) Read(req Request) (int, error) {
	var n int
	err := d.run("read", req.Name, req.Ext, req.ParentCluster, func(s *session) error {
		parent, sl, err := findIn(s, req)
		if err != nil {
			return err
		}

		entry := *parent.entry(sl)
		if entry.IsDir() {
			return checkpoint.Wrap(fmt.Errorf("name: %v", entry.FullName()), ErrNotAFile)
		}

		if int(entry.FileSize) > req.capacity() {
			return checkpoint.Wrap(fmt.Errorf("size: %v, capacity: %v", entry.FileSize, req.capacity()), ErrInsufficientBuffer)
		}

		chain, err := s.fileChain(entry)
		if err != nil {
			return err
		}

		data, err := s.readChain(chain)
		if err != nil {
			return err
		}

		n = copy(req.Buf[:entry.FileSize], data)
		return nil
	})
	return n, err
}

// ReadDirectory copies the directory tables of the subdirectory req names into req.Buf.
// As many whole tables as fit are copied, at least one has to fit.
func (d *Driver) ReadDirectory(req Request) (int, error) {
	var n int
	err := d.run("read_directory", req.Name, req.Ext, req.ParentCluster, func(s *session) error {
		parent, sl, err := findIn(s, req)
		if err != nil {
			return err
		}

		entry := *parent.entry(sl)
		if !entry.IsDir() {
			return checkpoint.Wrap(fmt.Errorf("name: %v", entry.FullName()), ErrNotADirectory)
		}

		capacity := req.capacity()
		if capacity < ClusterSize {
			return checkpoint.Wrap(fmt.Errorf("capacity: %v, need: %v", capacity, ClusterSize), ErrInsufficientBuffer)
		}

		chain, err := s.fat.Chain(entry.Cluster())
		if err != nil {
			return err
		}
		if fit := capacity / ClusterSize; len(chain) > fit {
			chain = chain[:fit]
		}

		data, err := s.readChain(chain)
		if err != nil {
			return err
		}

		n = copy(req.Buf, data)
		return nil
	})
	return n, err
}
