package fat

import (
	"errors"
	"io"

	"github.com/orb1t/fat32-lib/checkpoint"
)

// These errors may occur while accessing a block device.
var (
	ErrDeviceRange = errors.New("access outside of the device bounds")
	ErrDeviceRead  = errors.New("could not read from the device")
	ErrDeviceWrite = errors.New("could not write to the device")
)

// BlockDevice is the storage contract this driver operates on. It is a flat,
// byte-addressed range; sector alignment is handled by the caller.
type BlockDevice interface {
	// ReadAt fills p with the bytes starting at the given device offset.
	// Short reads are errors.
	ReadAt(p []byte, off int64) error

	// WriteAt writes p at the given device offset. Short writes are errors.
	WriteAt(p []byte, off int64) error

	// Size returns the total device size in bytes.
	Size() int64
}

// FileDisk adapts anything file-like (an *os.File, an afero.File, ...) to the
// BlockDevice contract.
type FileDisk struct {
	backing interface {
		io.ReaderAt
		io.WriterAt
	}
	size int64
}

// NewFileDisk creates a BlockDevice on top of a file-like backing of the
// given size in bytes.
func NewFileDisk(backing interface {
	io.ReaderAt
	io.WriterAt
}, size int64) *FileDisk {
	return &FileDisk{backing: backing, size: size}
}

func (d *FileDisk) ReadAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > d.size {
		return checkpoint.From(ErrDeviceRange)
	}

	if _, err := d.backing.ReadAt(p, off); err != nil {
		return checkpoint.Wrap(err, ErrDeviceRead)
	}
	return nil
}

func (d *FileDisk) WriteAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > d.size {
		return checkpoint.From(ErrDeviceRange)
	}

	if _, err := d.backing.WriteAt(p, off); err != nil {
		return checkpoint.Wrap(err, ErrDeviceWrite)
	}
	return nil
}

func (d *FileDisk) Size() int64 {
	return d.size
}

// RamDisk is an in-memory BlockDevice. It is mainly useful for tests and for
// building small images before writing them out.
type RamDisk struct {
	data []byte
}

// NewRamDisk creates an empty in-memory device of the given size in bytes.
func NewRamDisk(size int64) *RamDisk {
	return &RamDisk{data: make([]byte, size)}
}

// NewRamDiskOf wraps the given buffer directly, without copying it.
func NewRamDiskOf(data []byte) *RamDisk {
	return &RamDisk{data: data}
}

func (d *RamDisk) ReadAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > int64(len(d.data)) {
		return checkpoint.From(ErrDeviceRange)
	}

	copy(p, d.data[off:])
	return nil
}

func (d *RamDisk) WriteAt(p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > int64(len(d.data)) {
		return checkpoint.From(ErrDeviceRange)
	}

	copy(d.data[off:], p)
	return nil
}

func (d *RamDisk) Size() int64 {
	return int64(len(d.data))
}

// Bytes exposes the underlying buffer of the ram disk.
func (d *RamDisk) Bytes() []byte {
	return d.data
}
