package fat

import (
	"errors"
	"fmt"

	"github.com/orb1t/fat32-lib/checkpoint"
)

// ErrNotSupported marks an operation which is recognized but intentionally
// not implemented. It is returned instead of silently doing nothing.
var ErrNotSupported = errors.New("operation not supported")

// PartitionType is the system indicator byte of a partition table entry.
type PartitionType uint8

// The partition type codes this driver knows about. Any other byte is still
// accepted and kept verbatim, it is just not classified.
const (
	PartTypeEmpty            PartitionType = 0x00
	PartTypeFat12            PartitionType = 0x01
	PartTypeFat16Small       PartitionType = 0x04
	PartTypeDosExtended      PartitionType = 0x05
	PartTypeFat16            PartitionType = 0x06
	PartTypeNtfs             PartitionType = 0x07
	PartTypeFat32            PartitionType = 0x0B
	PartTypeFat32Lba         PartitionType = 0x0C
	PartTypeFat16Lba         PartitionType = 0x0E
	PartTypeWin95ExtendedLba PartitionType = 0x0F
	PartTypeLinuxSwap        PartitionType = 0x82
	PartTypeLinuxNative      PartitionType = 0x83
	PartTypeLinuxExtended    PartitionType = 0x85
)

func (t PartitionType) String() string {
	switch t {
	case PartTypeEmpty:
		return "empty"
	case PartTypeFat12:
		return "FAT12"
	case PartTypeFat16Small:
		return "FAT16 <32M"
	case PartTypeDosExtended:
		return "DOS extended"
	case PartTypeFat16:
		return "FAT16"
	case PartTypeNtfs:
		return "NTFS"
	case PartTypeFat32:
		return "FAT32"
	case PartTypeFat32Lba:
		return "FAT32 (LBA)"
	case PartTypeFat16Lba:
		return "FAT16 (LBA)"
	case PartTypeWin95ExtendedLba:
		return "extended (LBA)"
	case PartTypeLinuxSwap:
		return "Linux swap"
	case PartTypeLinuxNative:
		return "Linux"
	case PartTypeLinuxExtended:
		return "Linux extended"
	}
	return fmt.Sprintf("unknown (0x%02X)", uint8(t))
}

const (
	partitionTableOffset = 446
	partitionEntrySize   = 16

	// NrPartitions is the fixed number of entries in a partition table.
	NrPartitions = 4

	signatureOffset = 510
	signature       = 0xAA55
)

// containsPartitionTable checks the fixed two-byte magic at the end of a
// boot sector.
func containsPartitionTable(s *Sector) bool {
	return s.Size() >= signatureOffset+2 && s.get16(signatureOffset) == signature
}

// PartitionTableEntry is a 16-byte view into a boot sector describing one
// partition. It does not own any bytes, all accessors operate on the shared
// sector buffer.
type PartitionTableEntry struct {
	sector *Sector
	offset int
}

// NewPartitionTableEntry returns a view onto the nth entry of the partition
// table contained in the given sector.
func NewPartitionTableEntry(sector *Sector, partNr int) PartitionTableEntry {
	return PartitionTableEntry{
		sector: sector,
		offset: partitionTableOffset + partNr*partitionEntrySize,
	}
}

// IsValid reports whether this entry describes a partition at all.
func (e PartitionTableEntry) IsValid() bool {
	return !e.IsEmpty()
}

// IsEmpty reports whether the entry slot is unused.
func (e PartitionTableEntry) IsEmpty() bool {
	return e.SystemIndicator() == PartTypeEmpty
}

// IsExtended reports whether the entry points to a nested partition table.
// There is more than one type code for extended partitions.
func (e PartitionTableEntry) IsExtended() bool {
	id := e.SystemIndicator()
	return id == PartTypeWin95ExtendedLba ||
		id == PartTypeLinuxExtended ||
		id == PartTypeDosExtended
}

// HasChildPartitionTable reports whether a nested partition table exists for
// this entry.
func (e PartitionTableEntry) HasChildPartitionTable() bool {
	return e.IsExtended()
}

// ChildPartitionTable would parse the nested partition table of an extended
// partition. Chained tables are not supported by this driver, so it always
// fails with ErrNotSupported.
func (e PartitionTableEntry) ChildPartitionTable() (*BootSector, error) {
	return nil, checkpoint.Wrap(ErrNotSupported, errors.New("extended partition chains are not parsed"))
}

// BootIndicator reports whether the partition is flagged bootable.
func (e PartitionTableEntry) BootIndicator() bool {
	return e.sector.get8(e.offset+0) == 0x80
}

func (e PartitionTableEntry) SetBootIndicator(active bool) {
	v := uint8(0)
	if active {
		v = 0x80
	}
	e.sector.set8(e.offset+0, v)
}

// decodePackedCHS unpacks the 3-byte on-disk form:
// h = byte0; s = byte1 & 0x3F; c = ((byte1 & 0xC0) << 2) | byte2.
func (e PartitionTableEntry) decodePackedCHS(offset int) CHS {
	v1 := int(e.sector.get8(offset + 0))
	v2 := int(e.sector.get8(offset + 1))
	v3 := int(e.sector.get8(offset + 2))

	return CHS{
		Cylinder: (v2&0xC0)<<2 | v3,
		Head:     v1,
		Sector:   v2 & 0x3F,
	}
}

func (e PartitionTableEntry) encodePackedCHS(offset int, chs CHS, clampHead bool) {
	head := chs.Head
	// The head byte of the start triplet is historically clamped to 1023,
	// the cylinder limit, even though a single byte can only hold 255.
	// Kept as-is so that images round-trip bit-identically.
	if clampHead && head > 1023 {
		head = 1023
	}

	e.sector.set8(offset+0, uint8(head))
	e.sector.set8(offset+1, uint8((chs.Cylinder>>2)&0xC0|chs.Sector&0x3F))
	e.sector.set8(offset+2, uint8(chs.Cylinder&0xFF))
}

// StartCHS returns the CHS address of the first sector of the partition.
func (e PartitionTableEntry) StartCHS() CHS {
	return e.decodePackedCHS(e.offset + 1)
}

func (e PartitionTableEntry) SetStartCHS(chs CHS) {
	e.encodePackedCHS(e.offset+1, chs, true)
}

// EndCHS returns the CHS address of the last sector of the partition.
func (e PartitionTableEntry) EndCHS() CHS {
	return e.decodePackedCHS(e.offset + 5)
}

func (e PartitionTableEntry) SetEndCHS(chs CHS) {
	e.encodePackedCHS(e.offset+5, chs, false)
}

// SystemIndicator returns the partition type byte.
func (e PartitionTableEntry) SystemIndicator() PartitionType {
	return PartitionType(e.sector.get8(e.offset + 4))
}

func (e PartitionTableEntry) SetSystemIndicator(t PartitionType) {
	e.sector.set8(e.offset+4, uint8(t))
}

// StartLba returns the logical block address of the first sector.
func (e PartitionTableEntry) StartLba() uint32 {
	return e.sector.get32(e.offset + 8)
}

func (e PartitionTableEntry) SetStartLba(v uint32) {
	e.sector.set32(e.offset+8, v)
}

// NrSectors returns the partition length in sectors.
func (e PartitionTableEntry) NrSectors() uint32 {
	return e.sector.get32(e.offset + 12)
}

func (e PartitionTableEntry) SetNrSectors(v uint32) {
	e.sector.set32(e.offset+12, v)
}

// Clear zeroes all 16 bytes of the entry.
func (e PartitionTableEntry) Clear() {
	for i := 0; i < partitionEntrySize; i++ {
		e.sector.set8(e.offset+i, 0)
	}
}
