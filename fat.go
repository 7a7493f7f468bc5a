package fat

import (
	"errors"
	"fmt"

	"github.com/orb1t/fat32-lib/checkpoint"
)

// FatType selects the on-disk entry width of a file allocation table.
type FatType uint8

const (
	FAT12 FatType = iota
	FAT16
	FAT32
)

func (t FatType) String() string {
	switch t {
	case FAT12:
		return "FAT12"
	case FAT16:
		return "FAT16"
	case FAT32:
		return "FAT32"
	}
	return fmt.Sprintf("FatType(%d)", uint8(t))
}

// fatEntry is one cluster link in its canonical 28-bit form. FAT12 and FAT16
// values are widened on read so that the same classification works for all
// three encodings; packing narrows them again.
type fatEntry uint32

const (
	entryFree fatEntry = 0
	entryBad  fatEntry = 0x0FFFFFF7
	// entryEOC is the canonical end-of-chain marker written by this driver.
	// Any value of 0x0FFFFFF8 and above reads as end-of-chain.
	entryEOC fatEntry = 0x0FFFFFFF
)

func (e fatEntry) Value() uint32 {
	return uint32(e)
}

func (e fatEntry) IsFree() bool {
	return e == entryFree
}

func (e fatEntry) IsBad() bool {
	return e == entryBad
}

func (e fatEntry) IsEOC() bool {
	return e >= 0x0FFFFFF8 && e <= 0x0FFFFFFF
}

// IsNextCluster reports whether the entry links to another data cluster.
func (e fatEntry) IsNextCluster() bool {
	return e >= 2 && e <= 0x0FFFFFEF
}

// widen maps a narrow FAT12/16 value into the canonical 28-bit space.
// Values at and above the reserved range keep their low bits and gain the
// high fill so that bad and end-of-chain markers compare uniformly.
func (t FatType) widen(raw uint32) fatEntry {
	switch t {
	case FAT12:
		if raw >= 0xFF0 {
			return fatEntry(raw | 0x0FFFF000)
		}
	case FAT16:
		if raw >= 0xFFF0 {
			return fatEntry(raw | 0x0FFF0000)
		}
	case FAT32:
		return fatEntry(raw & 0x0FFFFFFF)
	}
	return fatEntry(raw)
}

// narrow is the inverse of widen.
func (t FatType) narrow(e fatEntry) uint32 {
	v := uint32(e)
	switch t {
	case FAT12:
		if e >= 0x0FFFFFF0 {
			return v & 0xFFF
		}
	case FAT16:
		if e >= 0x0FFFFFF0 {
			return v & 0xFFFF
		}
	}
	return v
}

// These errors may occur while working with a file allocation table.
var (
	ErrDiskFull     = errors.New("disk full")
	ErrCorruptChain = errors.New("corrupt cluster chain")
	ErrClusterRange = errors.New("cluster index out of range")
	ErrFatMedium    = errors.New("FAT medium descriptor mismatch")
	ErrReadFat      = errors.New("could not read the FAT")
	ErrWriteFat     = errors.New("could not write the FAT")
)

// Fat is one file allocation table: an ordered sequence of cluster links,
// one per data cluster. By FAT convention the first data cluster has index
// 2; entries 0 and 1 are reserved, entry 0 mirrors the medium descriptor.
type Fat struct {
	fatType          FatType
	mediumDescriptor uint8
	sectorCount      int
	sectorSize       int
	entries          []fatEntry
	dirty            bool
}

// NewFat creates an empty allocation table for a volume of nrClusters data
// clusters, stored in sectorCount sectors of sectorSize bytes. The entry
// space is the cluster count plus the two reserved head entries; the FAT
// region on disk is usually a bit larger and the remainder is padding that
// never describes a data cluster.
func NewFat(fatType FatType, mediumDescriptor uint8, nrClusters uint32, sectorCount, sectorSize int) *Fat {
	nrEntries := int(nrClusters) + 2
	if limit := fatType.entriesPerBytes(sectorCount * sectorSize); nrEntries > limit {
		nrEntries = limit
	}

	f := &Fat{
		fatType:          fatType,
		mediumDescriptor: mediumDescriptor,
		sectorCount:      sectorCount,
		sectorSize:       sectorSize,
		entries:          make([]fatEntry, nrEntries),
	}
	if nrEntries > 0 {
		f.entries[0] = entryEOC&^0xFF | fatEntry(mediumDescriptor)
	}
	if nrEntries > 1 {
		f.entries[1] = entryEOC
	}
	return f
}

// entriesPerBytes returns how many cluster links fit the given byte count.
func (t FatType) entriesPerBytes(nrBytes int) int {
	switch t {
	case FAT12:
		return nrBytes * 2 / 3
	case FAT16:
		return nrBytes / 2
	default:
		return nrBytes / 4
	}
}

// FatType returns the entry encoding of this table.
func (f *Fat) FatType() FatType {
	return f.fatType
}

// NrEntries returns the number of cluster links, including the two reserved
// head entries.
func (f *Fat) NrEntries() int {
	return len(f.entries)
}

// MediumDescriptor returns the medium descriptor this table was created for.
func (f *Fat) MediumDescriptor() uint8 {
	return f.mediumDescriptor
}

// IsDirty reports whether the table was modified since it was last
// synchronized with the device.
func (f *Fat) IsDirty() bool {
	return f.dirty
}

// Read loads and unpacks the table from the device at the given byte offset.
// The medium descriptor stored in entry 0 must match the one from the boot
// sector.
func (f *Fat) Read(device BlockDevice, offset int64) error {
	buf := make([]byte, f.sectorCount*f.sectorSize)
	if err := device.ReadAt(buf, offset); err != nil {
		return checkpoint.Wrap(err, ErrReadFat)
	}

	f.unpack(buf)

	if len(f.entries) > 0 && uint8(f.entries[0]) != f.mediumDescriptor {
		return checkpoint.Wrap(
			fmt.Errorf("entry 0 holds 0x%02X, boot sector says 0x%02X", uint8(f.entries[0]), f.mediumDescriptor),
			ErrFatMedium)
	}

	f.dirty = false
	return nil
}

// Write packs and stores the table on the device at the given byte offset.
func (f *Fat) Write(device BlockDevice, offset int64) error {
	buf := make([]byte, f.sectorCount*f.sectorSize)
	f.pack(buf)

	if err := device.WriteAt(buf, offset); err != nil {
		return checkpoint.Wrap(err, ErrWriteFat)
	}

	f.dirty = false
	return nil
}

// unpack decodes the on-disk representation. FAT12 interleaves two 12-bit
// entries into three bytes; FAT16 and FAT32 are plain little-endian integers
// with FAT32 masked to its 28 significant bits.
func (f *Fat) unpack(buf []byte) {
	switch f.fatType {
	case FAT12:
		for i, o := 0, 0; i < len(f.entries); i, o = i+2, o+3 {
			f.entries[i] = f.fatType.widen(uint32(buf[o]) | uint32(buf[o+1]&0x0F)<<8)
			if i+1 < len(f.entries) {
				f.entries[i+1] = f.fatType.widen(uint32(buf[o+1]>>4) | uint32(buf[o+2])<<4)
			}
		}
	case FAT16:
		for i := range f.entries {
			f.entries[i] = f.fatType.widen(uint32(buf[i*2]) | uint32(buf[i*2+1])<<8)
		}
	default:
		for i := range f.entries {
			raw := uint32(buf[i*4]) | uint32(buf[i*4+1])<<8 | uint32(buf[i*4+2])<<16 | uint32(buf[i*4+3])<<24
			f.entries[i] = f.fatType.widen(raw)
		}
	}
}

// pack encodes the entries back into their on-disk representation.
func (f *Fat) pack(buf []byte) {
	switch f.fatType {
	case FAT12:
		for i, o := 0, 0; i < len(f.entries); i, o = i+2, o+3 {
			v0 := f.fatType.narrow(f.entries[i])
			buf[o] = byte(v0)
			buf[o+1] = buf[o+1]&0xF0 | byte(v0>>8)&0x0F
			if i+1 < len(f.entries) {
				v1 := f.fatType.narrow(f.entries[i+1])
				buf[o+1] = buf[o+1]&0x0F | byte(v1)<<4
				buf[o+2] = byte(v1 >> 4)
			}
		}
	case FAT16:
		for i, e := range f.entries {
			v := f.fatType.narrow(e)
			buf[i*2] = byte(v)
			buf[i*2+1] = byte(v >> 8)
		}
	default:
		for i, e := range f.entries {
			v := f.fatType.narrow(e)
			buf[i*4] = byte(v)
			buf[i*4+1] = byte(v >> 8)
			buf[i*4+2] = byte(v >> 16)
			buf[i*4+3] = byte(v >> 24)
		}
	}
}

// GetNext returns the link stored for the given cluster: either the next
// cluster of the chain, an end-of-chain marker, a bad-cluster marker or
// free.
func (f *Fat) GetNext(cluster uint32) (fatEntry, error) {
	if cluster >= uint32(len(f.entries)) {
		return 0, checkpoint.Wrap(fmt.Errorf("cluster %d of %d", cluster, len(f.entries)), ErrClusterRange)
	}
	return f.entries[cluster], nil
}

// SetNext stores a link for the given cluster and marks the table dirty.
func (f *Fat) SetNext(cluster uint32, value fatEntry) error {
	if cluster >= uint32(len(f.entries)) {
		return checkpoint.Wrap(fmt.Errorf("cluster %d of %d", cluster, len(f.entries)), ErrClusterRange)
	}

	f.entries[cluster] = value
	f.dirty = true
	return nil
}

// AllocNew claims the first free cluster, marks it end-of-chain and returns
// its index. It fails with ErrDiskFull if no free entry exists. Nothing is
// modified in that case.
func (f *Fat) AllocNew() (uint32, error) {
	for i := uint32(2); i < uint32(len(f.entries)); i++ {
		if f.entries[i].IsFree() {
			f.entries[i] = entryEOC
			f.dirty = true
			return i, nil
		}
	}
	return 0, checkpoint.From(ErrDiskFull)
}

// AllocAppend claims a free cluster and links it behind the given chain
// tail. The tail must currently be the end of its chain.
func (f *Fat) AllocAppend(tail uint32) (uint32, error) {
	prev, err := f.GetNext(tail)
	if err != nil {
		return 0, err
	}
	if !prev.IsEOC() {
		return 0, checkpoint.Wrap(fmt.Errorf("cluster %d is not a chain tail", tail), ErrCorruptChain)
	}

	cluster, err := f.AllocNew()
	if err != nil {
		return 0, err
	}

	f.entries[tail] = fatEntry(cluster)
	return cluster, nil
}

// Chain walks the chain starting at the given cluster and returns all
// cluster indices in order. It fails on cycles, on links to invalid indices
// and on bad or free clusters inside the chain, all of which indicate a
// corrupt volume.
func (f *Fat) Chain(start uint32) ([]uint32, error) {
	if start < 2 || start >= uint32(len(f.entries)) {
		return nil, checkpoint.Wrap(fmt.Errorf("chain starts at invalid cluster %d", start), ErrCorruptChain)
	}

	var chain []uint32
	cluster := start
	for {
		if len(chain) > len(f.entries) {
			return nil, checkpoint.Wrap(fmt.Errorf("cycle in chain starting at cluster %d", start), ErrCorruptChain)
		}
		chain = append(chain, cluster)

		entry := f.entries[cluster]
		switch {
		case entry.IsEOC():
			return chain, nil
		case entry.IsNextCluster():
			next := entry.Value()
			if next >= uint32(len(f.entries)) {
				return nil, checkpoint.Wrap(fmt.Errorf("cluster %d links to invalid cluster %d", cluster, next), ErrCorruptChain)
			}
			cluster = next
		default:
			return nil, checkpoint.Wrap(fmt.Errorf("cluster %d links to unexpected entry 0x%08X", cluster, entry.Value()), ErrCorruptChain)
		}
	}
}

// ChainLength returns the number of clusters in the chain starting at the
// given cluster.
func (f *Fat) ChainLength(start uint32) (uint32, error) {
	chain, err := f.Chain(start)
	if err != nil {
		return 0, err
	}
	return uint32(len(chain)), nil
}

// Truncate shortens the chain starting at the given cluster to newLength
// clusters and frees the remainder. It returns the number of clusters that
// became free. Truncating to the current length or longer is a no-op;
// truncating to 0 frees the whole chain.
func (f *Fat) Truncate(start uint32, newLength uint32) (uint32, error) {
	chain, err := f.Chain(start)
	if err != nil {
		return 0, err
	}
	if newLength >= uint32(len(chain)) {
		return 0, nil
	}

	if newLength > 0 {
		f.entries[chain[newLength-1]] = entryEOC
	}
	for _, cluster := range chain[newLength:] {
		f.entries[cluster] = entryFree
	}
	f.dirty = true

	return uint32(len(chain)) - newLength, nil
}

// FreeCount returns the number of free data clusters.
func (f *Fat) FreeCount() uint32 {
	var n uint32
	for i := 2; i < len(f.entries); i++ {
		if f.entries[i].IsFree() {
			n++
		}
	}
	return n
}

// Equal compares two tables entry by entry. It is used at mount time to
// verify that the on-device FAT copies agree.
func (f *Fat) Equal(other *Fat) bool {
	if other == nil || f.fatType != other.fatType || len(f.entries) != len(other.entries) {
		return false
	}
	for i := range f.entries {
		if f.entries[i] != other.entries[i] {
			return false
		}
	}
	return true
}
