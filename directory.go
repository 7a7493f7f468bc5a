package fat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orb1t/fat32-lib/checkpoint"
)

// These errors may occur while working with a directory.
var (
	ErrDirectoryFull = errors.New("directory full")
	ErrEntryExists   = errors.New("an entry with that name already exists")
	ErrEntryNotFound = errors.New("no entry with that name")
	ErrLabelTooLong  = errors.New("volume label must be at most 11 characters long")
	ErrReadDirectory = errors.New("could not read the directory")
)

// dirEntryRef identifies one short entry slot within a directory. It keys
// the file cache of the filesystem.
type dirEntryRef struct {
	dir  *FatLfnDirectory
	slot int
}

// LfnEntry is one logical directory entry: the decoded short entry plus the
// long name reassembled from the records preceding it, if any.
type LfnEntry struct {
	DirEntry
	LongName string

	dir  *FatLfnDirectory
	slot int
}

// Name returns the long name when one exists, the 8.3 short name otherwise.
func (e LfnEntry) Name() string {
	if e.LongName != "" {
		return e.LongName
	}
	return e.ShortName()
}

// FatLfnDirectory is a directory with long filename support. On FAT12/16
// the root directory is a fixed-size region between the FAT copies and the
// data area; every other directory, and the FAT32 root, is backed by a
// cluster chain.
type FatLfnDirectory struct {
	fs             *FatFileSystem
	file           *FatFile
	nrFixedEntries int
	devOffset      int64
	data           []byte
	dirty          bool
}

// newFixedRootDirectory creates the fixed-region root directory of a
// FAT12/16 volume. Read must be called before use.
func newFixedRootDirectory(fs *FatFileSystem, nrEntries int) *FatLfnDirectory {
	return &FatLfnDirectory{
		fs:             fs,
		nrFixedEntries: nrEntries,
		data:           make([]byte, nrEntries*DirEntrySize),
	}
}

// newChainDirectory creates a directory backed by the cluster chain of the
// given file and loads its entries.
func newChainDirectory(fs *FatFileSystem, file *FatFile) (*FatLfnDirectory, error) {
	size, err := file.LengthOnDisk()
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDirectory)
	}

	d := &FatLfnDirectory{
		fs:   fs,
		file: file,
		data: make([]byte, size),
	}
	if size > 0 {
		if err := file.ReadAt(d.data, 0); err != nil {
			return nil, checkpoint.Wrap(err, ErrReadDirectory)
		}
	}
	return d, nil
}

// Read loads a fixed root region from the device at the given byte offset.
func (d *FatLfnDirectory) Read(device BlockDevice, offset int64) error {
	if err := device.ReadAt(d.data, offset); err != nil {
		return checkpoint.Wrap(err, ErrReadDirectory)
	}

	d.devOffset = offset
	d.dirty = false
	return nil
}

// IsDirty reports whether the directory has staged changes.
func (d *FatLfnDirectory) IsDirty() bool {
	return d.dirty
}

// nrSlots returns the number of 32-byte slots the directory currently holds.
func (d *FatLfnDirectory) nrSlots() int {
	return len(d.data) / DirEntrySize
}

func (d *FatLfnDirectory) slotBytes(slot int) []byte {
	return d.data[slot*DirEntrySize : (slot+1)*DirEntrySize]
}

// Entries enumerates all logical entries. Long name chains with a bad
// checksum or missing records never fail the enumeration; the affected
// entry just falls back to its short name. The volume label and the dot
// entries are included, callers filter what they do not want.
func (d *FatLfnDirectory) Entries() []LfnEntry {
	var entries []LfnEntry
	var collector lfnCollector

	for slot := 0; slot < d.nrSlots(); slot++ {
		raw := d.slotBytes(slot)
		e := decodeDirEntry(raw)

		if e.IsFree() {
			break
		}
		if e.IsDeleted() {
			collector.reset()
			continue
		}
		if e.IsLongName() {
			collector.add(decodeLongNameEntry(raw))
			continue
		}

		entries = append(entries, LfnEntry{
			DirEntry: e,
			LongName: collector.name(&e),
			dir:      d,
			slot:     slot,
		})
		collector.reset()
	}
	return entries
}

// GetEntry looks up a logical entry by name. Both the long and the short
// name match, case-insensitively, as FAT names are not case sensitive.
func (d *FatLfnDirectory) GetEntry(name string) (LfnEntry, bool) {
	for _, e := range d.Entries() {
		if e.IsVolumeLabel() {
			continue
		}
		if strings.EqualFold(e.Name(), name) || strings.EqualFold(e.ShortName(), name) {
			return e, true
		}
	}
	return LfnEntry{}, false
}

// Label returns the volume label stored in this directory, or the empty
// string if there is none.
func (d *FatLfnDirectory) Label() string {
	for _, e := range d.Entries() {
		if e.IsVolumeLabel() {
			return strings.TrimRight(decodeCp437(e.DirEntry.Name[:]), " ")
		}
	}
	return ""
}

// SetLabel stores the volume label, replacing an existing one. The label
// lives in a reserved entry with the volume-label attribute.
func (d *FatLfnDirectory) SetLabel(label string) error {
	if d.fs.readOnly {
		return checkpoint.From(ErrReadOnly)
	}
	if len(label) > 11 {
		return checkpoint.From(ErrLabelTooLong)
	}

	var raw [11]byte
	for i := range raw {
		raw[i] = ' '
	}
	copy(raw[:], label)

	for _, e := range d.Entries() {
		if e.IsVolumeLabel() {
			b := d.slotBytes(e.slot)
			copy(b[0:11], raw[:])
			d.dirty = true
			return nil
		}
	}

	slot, err := d.claimSlots(1)
	if err != nil {
		return err
	}

	entry := DirEntry{Name: raw, Attributes: AttrVolumeLabel}
	entry.encode(d.slotBytes(slot))
	d.dirty = true
	return nil
}

// AddFile creates an empty file entry with the given name.
func (d *FatLfnDirectory) AddFile(name string) (LfnEntry, error) {
	return d.addEntry(name, 0)
}

// AddDirectory creates a subdirectory with the given name. One cluster is
// allocated and initialized with the dot entries.
func (d *FatLfnDirectory) AddDirectory(name string) (LfnEntry, error) {
	if d.fs.readOnly {
		return LfnEntry{}, checkpoint.From(ErrReadOnly)
	}

	cluster, err := d.fs.fat.AllocNew()
	if err != nil {
		return LfnEntry{}, err
	}

	entry, err := d.addEntry(name, AttrDirectory)
	if err != nil {
		// Hand the cluster back, nothing refers to it yet.
		_, _ = d.fs.fat.Truncate(cluster, 0)
		return LfnEntry{}, err
	}

	if err := d.initDirectoryCluster(cluster); err != nil {
		return entry, err
	}

	if err := d.updateEntry(entry.slot, cluster, 0); err != nil {
		return entry, err
	}
	entry.SetStartCluster(cluster)
	return entry, nil
}

// initDirectoryCluster zeroes a fresh directory cluster and writes the dot
// entries pointing at the new directory and its parent.
func (d *FatLfnDirectory) initDirectoryCluster(cluster uint32) error {
	buf := make([]byte, d.fs.ClusterSize())

	dot := DirEntry{Attributes: AttrDirectory}
	copy(dot.Name[:], ".          ")
	dot.SetStartCluster(cluster)
	dot.SetModTime(time.Now())
	dot.encode(buf[0:DirEntrySize])

	dotdot := dot
	copy(dotdot.Name[:], "..         ")
	parent := uint32(0)
	if d.file != nil {
		parent = d.file.StartCluster()
	}
	dotdot.SetStartCluster(parent)
	dotdot.encode(buf[DirEntrySize : 2*DirEntrySize])

	devOffset := d.fs.bs.DataOffset() + int64(cluster-2)*int64(d.fs.ClusterSize())
	if err := d.fs.device.WriteAt(buf, devOffset); err != nil {
		return checkpoint.Wrap(err, ErrWriteCluster)
	}
	return nil
}

func (d *FatLfnDirectory) addEntry(name string, attributes uint8) (LfnEntry, error) {
	if d.fs.readOnly {
		return LfnEntry{}, checkpoint.From(ErrReadOnly)
	}
	if name == "" {
		return LfnEntry{}, checkpoint.From(ErrInvalidShortName)
	}
	if _, exists := d.GetEntry(name); exists {
		return LfnEntry{}, checkpoint.Wrap(fmt.Errorf("entry %q", name), ErrEntryExists)
	}

	entry := DirEntry{Attributes: attributes}
	entry.SetModTime(time.Now())

	nrLfn := lfnEntriesNeeded(name)
	longName := ""
	if nrLfn == 0 {
		raw, err := shortNameBytes(name)
		if err != nil {
			return LfnEntry{}, err
		}
		entry.Name = raw
	} else {
		entry.Name = d.generateShortName(name)
		longName = name
	}

	slot, err := d.claimSlots(1 + nrLfn)
	if err != nil {
		return LfnEntry{}, err
	}

	if nrLfn > 0 {
		for i, lfn := range encodeLongName(name, ShortNameChecksum(entry.Name)) {
			lfn.encode(d.slotBytes(slot + i))
		}
	}
	shortSlot := slot + nrLfn
	entry.encode(d.slotBytes(shortSlot))
	d.dirty = true

	return LfnEntry{DirEntry: entry, LongName: longName, dir: d, slot: shortSlot}, nil
}

// generateShortName derives a unique 8.3 alias of the form "NAME~1" for a
// name which does not fit the short format.
func (d *FatLfnDirectory) generateShortName(name string) [11]byte {
	base := strings.ToUpper(name)
	if dot := strings.LastIndexByte(base, '.'); dot >= 0 {
		base = base[:dot]
	}

	clean := make([]byte, 0, 8)
	for i := 0; i < len(base) && len(clean) < 6; i++ {
		c := base[i]
		if c > 0x20 && c < 0x7F && strings.IndexByte("\"*+,./:;<=>?[\\]|", c) < 0 {
			clean = append(clean, c)
		}
	}
	if len(clean) == 0 {
		clean = append(clean, '_')
	}

	ext := ""
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		ext = strings.ToUpper(name[dot+1:])
		if len(ext) > 3 {
			ext = ext[:3]
		}
	}

	for tail := 1; ; tail++ {
		candidate := fmt.Sprintf("%s~%d", clean, tail)
		if ext != "" {
			candidate += "." + ext
		}
		raw, err := shortNameBytes(candidate)
		if err != nil {
			// The numeric tail no longer fits, shorten the stem.
			clean = clean[:len(clean)-1]
			tail = 0
			continue
		}

		taken := false
		for _, e := range d.Entries() {
			if e.DirEntry.Name == raw {
				taken = true
				break
			}
		}
		if !taken {
			return raw
		}
	}
}

// Remove deletes the named entry, its long name records and frees its
// cluster chain.
func (d *FatLfnDirectory) Remove(name string) error {
	if d.fs.readOnly {
		return checkpoint.From(ErrReadOnly)
	}

	entry, ok := d.GetEntry(name)
	if !ok {
		return checkpoint.Wrap(fmt.Errorf("entry %q", name), ErrEntryNotFound)
	}

	if start := entry.StartCluster(); start != 0 {
		if _, err := d.fs.fat.Truncate(start, 0); err != nil {
			return err
		}
	}

	// Walk backwards over the preceding long name records.
	d.slotBytes(entry.slot)[0] = entryDeletedMarker
	for slot := entry.slot - 1; slot >= 0; slot-- {
		raw := d.slotBytes(slot)
		e := decodeDirEntry(raw)
		if !e.IsLongName() || e.IsDeleted() {
			break
		}
		raw[0] = entryDeletedMarker
	}

	d.fs.dropFile(dirEntryRef{dir: d, slot: entry.slot})
	d.dirty = true
	return nil
}

// updateEntry writes a new start cluster and length into the short entry at
// the given slot.
func (d *FatLfnDirectory) updateEntry(slot int, startCluster, length uint32) error {
	if slot < 0 || slot >= d.nrSlots() {
		return checkpoint.Wrap(fmt.Errorf("slot %d of %d", slot, d.nrSlots()), ErrReadDirectory)
	}

	raw := d.slotBytes(slot)
	e := decodeDirEntry(raw)
	e.SetStartCluster(startCluster)
	e.Length = length
	e.SetModTime(time.Now())
	e.encode(raw)

	d.dirty = true
	return nil
}

// claimSlots finds a run of count unused slots and returns the index of the
// first one. Chain-backed directories grow by a cluster when no run fits;
// the fixed root region fails with ErrDirectoryFull.
func (d *FatLfnDirectory) claimSlots(count int) (int, error) {
	for {
		run := 0
		for slot := 0; slot < d.nrSlots(); slot++ {
			e := decodeDirEntry(d.slotBytes(slot))
			if e.IsFree() || e.IsDeleted() {
				run++
				if run == count {
					return slot - count + 1, nil
				}
			} else {
				run = 0
			}
		}

		if d.file == nil {
			return 0, checkpoint.From(ErrDirectoryFull)
		}

		size, err := d.file.LengthOnDisk()
		if err != nil {
			return 0, err
		}
		if err := d.file.SetLength(size + uint32(d.fs.ClusterSize())); err != nil {
			return 0, err
		}
		d.data = append(d.data, make([]byte, d.fs.ClusterSize())...)
	}
}

// Flush writes the staged entries back: the fixed root region directly to
// its device location, a chain-backed directory through its file.
func (d *FatLfnDirectory) Flush() error {
	if !d.dirty {
		return nil
	}

	if d.file == nil {
		if err := d.fs.device.WriteAt(d.data, d.devOffset); err != nil {
			return checkpoint.Wrap(err, ErrDeviceWrite)
		}
	} else {
		if len(d.data) > 0 {
			if err := d.file.WriteAt(d.data, 0); err != nil {
				return err
			}
		}
		if err := d.file.Flush(); err != nil {
			return err
		}
	}

	d.dirty = false
	return nil
}
