package fat

import (
	"errors"
	"fmt"

	"github.com/orb1t/fat32-lib/checkpoint"
)

// These errors may occur while working with a boot sector.
var (
	ErrInvalidBootSector = errors.New("invalid boot sector")
	ErrReadBootSector    = errors.New("could not read the boot sector")
	ErrOemNameTooLong    = errors.New("OEM name must be at most 8 characters long")
)

// Boot sector field offsets. All values are little-endian.
const (
	oemNameOffset          = 0x03
	bytesPerSectorOffset   = 0x0B
	sectorsPerClusterOff   = 0x0D
	reservedSectorsOffset  = 0x0E
	nrFatsOffset           = 0x10
	rootDirEntriesOffset   = 0x11
	logicalSectorsOffset   = 0x13
	mediumDescriptorOffset = 0x15
	sectorsPerFatOffset    = 0x16
	sectorsPerTrackOffset  = 0x18
	nrHeadsOffset          = 0x1A
	hiddenSectorsOffset    = 0x1C
	totalSectorsOffset     = 0x20
	sectorsPerFatExOffset  = 0x24
	rootDirClusterOffset   = 0x2C
	fsInfoSectorOffset     = 0x30
)

// BootSector is the first sector of a FAT volume. All named fields are views
// at fixed offsets into the underlying sector buffer; the embedded partition
// table shares the same bytes.
type BootSector struct {
	*Sector
}

// NewBootSector creates an empty boot sector of the given size in bytes.
func NewBootSector(size int) *BootSector {
	return &BootSector{Sector: NewSector(size)}
}

// NewBootSectorOf interprets the given bytes as a boot sector without
// copying them.
func NewBootSectorOf(data []byte) *BootSector {
	return &BootSector{Sector: NewSectorOf(data)}
}

// Read loads the boot sector from the start of the device.
func (bs *BootSector) Read(device BlockDevice) error {
	return checkpoint.Wrap(bs.Sector.Read(device, 0), ErrReadBootSector)
}

// Write stores the boot sector at the start of the device.
func (bs *BootSector) Write(device BlockDevice) error {
	return bs.Sector.Write(device, 0)
}

// IsValid reports whether the sector carries the boot sector magic.
func (bs *BootSector) IsValid() bool {
	return containsPartitionTable(bs.Sector)
}

// OemName returns the 8-byte OEM name, with trailing NULs removed.
func (bs *BootSector) OemName() string {
	b := make([]byte, 0, 8)
	for i := 0; i < 8; i++ {
		v := bs.get8(oemNameOffset + i)
		if v == 0 {
			break
		}
		b = append(b, v)
	}
	return string(b)
}

// SetOemName sets the OEM name, which must be at most 8 characters long.
// Shorter names are padded with NUL bytes.
func (bs *BootSector) SetOemName(name string) error {
	if len(name) > 8 {
		return checkpoint.From(ErrOemNameTooLong)
	}

	for i := 0; i < 8; i++ {
		var ch byte
		if i < len(name) {
			ch = name[i]
		}
		bs.set8(oemNameOffset+i, ch)
	}
	return nil
}

// BytesPerSector returns the sector size of the volume.
func (bs *BootSector) BytesPerSector() int {
	return int(bs.get16(bytesPerSectorOffset))
}

// SetBytesPerSector sets the sector size. Setting the current value again is
// a no-op so the sector does not get marked dirty.
func (bs *BootSector) SetBytesPerSector(v int) {
	if v == bs.BytesPerSector() {
		return
	}
	bs.set16(bytesPerSectorOffset, uint16(v))
}

func (bs *BootSector) SectorsPerCluster() int {
	return int(bs.get8(sectorsPerClusterOff))
}

func (bs *BootSector) SetSectorsPerCluster(v int) {
	bs.set8(sectorsPerClusterOff, uint8(v))
}

// NrReservedSectors returns the number of sectors reserved for the boot
// record before the first FAT copy.
func (bs *BootSector) NrReservedSectors() int {
	return int(bs.get16(reservedSectorsOffset))
}

func (bs *BootSector) SetNrReservedSectors(v int) {
	bs.set16(reservedSectorsOffset, uint16(v))
}

// NrFats returns the number of FAT copies on the volume.
func (bs *BootSector) NrFats() int {
	return int(bs.get8(nrFatsOffset))
}

func (bs *BootSector) SetNrFats(v int) {
	bs.set8(nrFatsOffset, uint8(v))
}

// NrRootDirEntries returns the entry count of the fixed root directory
// region. It is 0 on FAT32 volumes, which root in a cluster chain instead.
func (bs *BootSector) NrRootDirEntries() int {
	return int(bs.get16(rootDirEntriesOffset))
}

func (bs *BootSector) SetNrRootDirEntries(v int) {
	bs.set16(rootDirEntriesOffset, uint16(v))
}

// NrLogicalSectors returns the 16-bit total sector count. It is 0 when the
// volume needs the 32-bit count instead.
func (bs *BootSector) NrLogicalSectors() int {
	return int(bs.get16(logicalSectorsOffset))
}

func (bs *BootSector) SetNrLogicalSectors(v int) {
	bs.set16(logicalSectorsOffset, uint16(v))
}

func (bs *BootSector) MediumDescriptor() uint8 {
	return bs.get8(mediumDescriptorOffset)
}

func (bs *BootSector) SetMediumDescriptor(v uint8) {
	bs.set8(mediumDescriptorOffset, v)
}

// SectorsPerFat returns the 16-bit FAT size. It is 0 on FAT32 volumes.
func (bs *BootSector) SectorsPerFat() int {
	return int(bs.get16(sectorsPerFatOffset))
}

func (bs *BootSector) SetSectorsPerFat(v int) {
	bs.set16(sectorsPerFatOffset, uint16(v))
}

// SectorsPerFatEx returns the 32-bit FAT size used by FAT32.
func (bs *BootSector) SectorsPerFatEx() uint32 {
	return bs.get32(sectorsPerFatExOffset)
}

func (bs *BootSector) SetSectorsPerFatEx(v uint32) {
	bs.set32(sectorsPerFatExOffset, v)
}

func (bs *BootSector) SectorsPerTrack() int {
	return int(bs.get16(sectorsPerTrackOffset))
}

func (bs *BootSector) SetSectorsPerTrack(v int) {
	bs.set16(sectorsPerTrackOffset, uint16(v))
}

func (bs *BootSector) NrHeads() int {
	return int(bs.get16(nrHeadsOffset))
}

func (bs *BootSector) SetNrHeads(v int) {
	bs.set16(nrHeadsOffset, uint16(v))
}

func (bs *BootSector) NrHiddenSectors() int {
	return int(bs.get16(hiddenSectorsOffset))
}

func (bs *BootSector) SetNrHiddenSectors(v int) {
	bs.set16(hiddenSectorsOffset, uint16(v))
}

// NrTotalSectors returns the 32-bit total sector count.
func (bs *BootSector) NrTotalSectors() uint32 {
	return bs.get32(totalSectorsOffset)
}

func (bs *BootSector) SetNrTotalSectors(v uint32) {
	bs.set32(totalSectorsOffset, v)
}

// RootDirFirstCluster returns the first cluster of the root directory chain
// on FAT32 volumes.
func (bs *BootSector) RootDirFirstCluster() uint32 {
	return bs.get32(rootDirClusterOffset)
}

func (bs *BootSector) SetRootDirFirstCluster(v uint32) {
	bs.set32(rootDirClusterOffset, v)
}

// FsInfoSectorOffset returns the sector number of the FS information sector
// on FAT32 volumes.
func (bs *BootSector) FsInfoSectorOffset() int {
	return int(bs.get16(fsInfoSectorOffset))
}

// Partition returns a view onto the nth partition table entry embedded in
// this boot sector.
func (bs *BootSector) Partition(partNr int) PartitionTableEntry {
	return NewPartitionTableEntry(bs.Sector, partNr)
}

// NrPartitions returns the number of partition entries the table holds.
func (bs *BootSector) NrPartitions() int {
	return NrPartitions
}

// InitPartitions clears the whole partition table and configures entry 0 as
// a bootable partition of the given type spanning the device, starting at
// LBA 1.
func (bs *BootSector) InitPartitions(geom Geometry, firstPartitionType PartitionType) (PartitionTableEntry, error) {
	for i := 0; i < NrPartitions; i++ {
		bs.Partition(i).Clear()
	}

	entry := bs.Partition(0)
	entry.SetBootIndicator(true)
	entry.SetStartLba(1)
	entry.SetNrSectors(uint32(geom.TotalSectors() - 1))
	entry.SetSystemIndicator(firstPartitionType)

	start, err := geom.CHS(int64(entry.StartLba()))
	if err != nil {
		return entry, err
	}
	entry.SetStartCHS(start)

	end, err := geom.CHS(int64(entry.StartLba()) + int64(entry.NrSectors()) - 1)
	if err != nil {
		return entry, err
	}
	entry.SetEndCHS(end)

	return entry, nil
}

// TotalSectors returns the effective sector count, preferring the 16-bit
// field over the 32-bit one.
func (bs *BootSector) TotalSectors() uint32 {
	if v := bs.NrLogicalSectors(); v != 0 {
		return uint32(v)
	}
	return bs.NrTotalSectors()
}

// EffectiveSectorsPerFat returns the FAT size in sectors, preferring the
// 16-bit field over the FAT32 extension field.
func (bs *BootSector) EffectiveSectorsPerFat() uint32 {
	if v := bs.SectorsPerFat(); v != 0 {
		return uint32(v)
	}
	return bs.SectorsPerFatEx()
}

// rootDirSectors returns the size of the fixed root directory region in
// sectors, rounded up. It is 0 on FAT32.
func (bs *BootSector) rootDirSectors() uint32 {
	bps := uint32(bs.BytesPerSector())
	if bps == 0 {
		return 0
	}
	return (uint32(bs.NrRootDirEntries())*DirEntrySize + bps - 1) / bps
}

// CountDataClusters computes the number of data clusters from the volume
// layout. The cluster count alone determines the FAT type.
func (bs *BootSector) CountDataClusters() (uint32, error) {
	spc := uint32(bs.SectorsPerCluster())
	if spc == 0 {
		return 0, checkpoint.Wrap(errors.New("sectors per cluster is zero"), ErrInvalidBootSector)
	}

	system := uint32(bs.NrReservedSectors()) +
		uint32(bs.NrFats())*bs.EffectiveSectorsPerFat() +
		bs.rootDirSectors()
	total := bs.TotalSectors()
	if total < system {
		return 0, checkpoint.Wrap(fmt.Errorf("%d total sectors do not hold %d system sectors", total, system), ErrInvalidBootSector)
	}

	return (total - system) / spc, nil
}

// FatType classifies the volume as FAT12, FAT16 or FAT32 based on the data
// cluster count thresholds.
func (bs *BootSector) FatType() (FatType, error) {
	clusters, err := bs.CountDataClusters()
	if err != nil {
		return 0, err
	}

	switch {
	case clusters < 4085:
		return FAT12, nil
	case clusters < 65525:
		return FAT16, nil
	default:
		return FAT32, nil
	}
}

// FatOffset returns the device byte offset of the given FAT copy.
func (bs *BootSector) FatOffset(fatNr int) int64 {
	bps := int64(bs.BytesPerSector())
	return int64(bs.NrReservedSectors())*bps + int64(fatNr)*int64(bs.EffectiveSectorsPerFat())*bps
}

// RootDirOffset returns the device byte offset of the fixed root directory
// region following the FAT copies. Only meaningful for FAT12/16.
func (bs *BootSector) RootDirOffset() int64 {
	return bs.FatOffset(0) +
		int64(bs.NrFats())*int64(bs.EffectiveSectorsPerFat())*int64(bs.BytesPerSector())
}

// DataOffset returns the device byte offset of the first data cluster
// (cluster number 2).
func (bs *BootSector) DataOffset() int64 {
	return bs.RootDirOffset() + int64(bs.NrRootDirEntries())*DirEntrySize
}

// ClusterSize returns the allocation unit size in bytes.
func (bs *BootSector) ClusterSize() int {
	return bs.BytesPerSector() * bs.SectorsPerCluster()
}

func (bs *BootSector) String() string {
	return fmt.Sprintf(
		"BootSector(oem=%q, bytesPerSector=%d, sectorsPerCluster=%d, reserved=%d, fats=%d, rootEntries=%d, totalSectors=%d, sectorsPerFat=%d, medium=0x%02X)",
		bs.OemName(), bs.BytesPerSector(), bs.SectorsPerCluster(),
		bs.NrReservedSectors(), bs.NrFats(), bs.NrRootDirEntries(),
		bs.TotalSectors(), bs.EffectiveSectorsPerFat(), bs.MediumDescriptor(),
	)
}
