package kernfat

import (
	"fmt"
	"os"

	"github.com/aligator/kernfat/checkpoint"
	"github.com/spf13/afero"
)

// BlockDevice is the narrow block transfer contract the filesystem runs on.
// Both calls are synchronous and transfer exactly count * BlockSize bytes.
type BlockDevice interface {
	ReadBlocks(dst []byte, lba uint32, count uint8) error
	WriteBlocks(src []byte, lba uint32, count uint8) error
}

// ImageDevice is a BlockDevice backed by a disk image file.
type ImageDevice struct {
	file   afero.File
	blocks uint32
}

// NewImageDevice uses file as a device with the given amount of blocks.
// The file has to be at least blocks * BlockSize bytes long.
func NewImageDevice(file afero.File, blocks uint32) *ImageDevice {
	return &ImageDevice{
		file:   file,
		blocks: blocks,
	}
}

// OpenImage opens the image at path on fs as a device for a whole volume.
// If create is set a missing image is created. A short image gets extended
// to VolumeSize so that a blank volume can be formatted in place.
func OpenImage(fs afero.Fs, path string, create bool) (*ImageDevice, error) {
	flag := os.O_RDWR
	if create {
		flag |= os.O_CREATE
	}

	file, err := fs.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, checkpoint.From(err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, checkpoint.From(err)
	}

	if stat.Size() < VolumeSize {
		if err := file.Truncate(VolumeSize); err != nil {
			_ = file.Close()
			return nil, checkpoint.From(err)
		}
	}

	return NewImageDevice(file, VolumeBlocks), nil
}

// File returns the backing image.
func (d *ImageDevice) File() afero.File {
	return d.file
}

// Close closes the backing image.
func (d *ImageDevice) Close() error {
	return d.file.Close()
}

func (d *ImageDevice) check(buf []byte, lba uint32, count uint8) error {
	if count == 0 {
		return checkpoint.New(ErrBlockCount)
	}
	if uint64(lba)+uint64(count) > uint64(d.blocks) {
		return checkpoint.Wrap(fmt.Errorf("lba: %v, count: %v, blocks: %v", lba, count, d.blocks), ErrOutOfRange)
	}
	if len(buf) < int(count)*BlockSize {
		return checkpoint.Wrap(fmt.Errorf("have: %v, need: %v", len(buf), int(count)*BlockSize), ErrShortBuffer)
	}
	return nil
}

func (d *ImageDevice) ReadBlocks(dst []byte, lba uint32, count uint8) error {
	if err := d.check(dst, lba, count); err != nil {
		return err
	}

	_, err := d.file.ReadAt(dst[:int(count)*BlockSize], int64(lba)*BlockSize)
	return checkpoint.From(err)
}

func (d *ImageDevice) WriteBlocks(src []byte, lba uint32, count uint8) error {
	if err := d.check(src, lba, count); err != nil {
		return err
	}

	_, err := d.file.WriteAt(src[:int(count)*BlockSize], int64(lba)*BlockSize)
	return checkpoint.From(err)
}
