package fat

import (
	"encoding/binary"
)

// Sector is a fixed-size byte buffer backed by a region of the block device.
// All multi-byte fields on a FAT volume are little-endian, so the accessors
// are little-endian only. A Sector tracks whether it was modified since the
// last successful device read or write.
type Sector struct {
	data  []byte
	dirty bool
}

// NewSector creates an in-memory sector of the given size, typically 512.
func NewSector(size int) *Sector {
	return &Sector{data: make([]byte, size)}
}

// NewSectorOf wraps the given bytes directly, without copying them.
func NewSectorOf(data []byte) *Sector {
	return &Sector{data: data}
}

// Size returns the sector size in bytes.
func (s *Sector) Size() int {
	return len(s.data)
}

// IsDirty reports whether the sector was modified since it was last
// synchronized with the device.
func (s *Sector) IsDirty() bool {
	return s.dirty
}

// Read fills the sector from the device at the given byte offset and clears
// the dirty flag.
func (s *Sector) Read(device BlockDevice, offset int64) error {
	if err := device.ReadAt(s.data, offset); err != nil {
		return err
	}

	s.dirty = false
	return nil
}

// Write stores the sector on the device at the given byte offset and clears
// the dirty flag.
func (s *Sector) Write(device BlockDevice, offset int64) error {
	if err := device.WriteAt(s.data, offset); err != nil {
		return err
	}

	s.dirty = false
	return nil
}

// The accessors panic on out-of-range offsets, like any slice access.

func (s *Sector) get8(offset int) uint8 {
	return s.data[offset]
}

func (s *Sector) get16(offset int) uint16 {
	return binary.LittleEndian.Uint16(s.data[offset : offset+2])
}

func (s *Sector) get32(offset int) uint32 {
	return binary.LittleEndian.Uint32(s.data[offset : offset+4])
}

func (s *Sector) set8(offset int, value uint8) {
	s.data[offset] = value
	s.dirty = true
}

func (s *Sector) set16(offset int, value uint16) {
	binary.LittleEndian.PutUint16(s.data[offset:offset+2], value)
	s.dirty = true
}

func (s *Sector) set32(offset int, value uint32) {
	binary.LittleEndian.PutUint32(s.data[offset:offset+4], value)
	s.dirty = true
}
