package fat

import (
	"errors"
	"fmt"
	"sync"

	"github.com/orb1t/fat32-lib/checkpoint"
)

// These errors may occur while mounting or flushing a filesystem.
var (
	ErrMount       = errors.New("could not mount the filesystem")
	ErrFatMismatch = errors.New("FAT copies differ")
	ErrReadOnly    = errors.New("filesystem is read-only")
)

// FatFileSystem is a mounted FAT volume: the boot sector, the canonical
// allocation table (the other copies are verified against it), the root
// directory and a cache holding at most one live FatFile per directory
// entry. A filesystem instance assumes exclusive ownership of its device.
type FatFileSystem struct {
	device   BlockDevice
	readOnly bool

	bs      *BootSector
	fatType FatType
	fat     *Fat
	rootDir *FatLfnDirectory

	mu    sync.Mutex
	files map[dirEntryRef]*FatFile
	dirs  map[dirEntryRef]*FatLfnDirectory
}

// NewFileSystem mounts the FAT volume on the given device. All FAT copies
// on the device must agree; a diverged copy fails the mount.
func NewFileSystem(device BlockDevice, readOnly bool) (*FatFileSystem, error) {
	return newFileSystem(device, readOnly, false)
}

// NewFileSystemIgnoreFatDifferences mounts like NewFileSystem but tolerates
// FAT copies which disagree with copy 0. Copy 0 wins. Use with caution!
func NewFileSystemIgnoreFatDifferences(device BlockDevice, readOnly bool) (*FatFileSystem, error) {
	return newFileSystem(device, readOnly, true)
}

func newFileSystem(device BlockDevice, readOnly, ignoreFatDifferences bool) (*FatFileSystem, error) {
	fs := &FatFileSystem{
		device:   device,
		readOnly: readOnly,
		files:    make(map[dirEntryRef]*FatFile),
		dirs:     make(map[dirEntryRef]*FatLfnDirectory),
	}

	fs.bs = NewBootSector(512)
	if err := fs.bs.Read(device); err != nil {
		return nil, checkpoint.Wrap(err, ErrMount)
	}
	if !fs.bs.IsValid() {
		return nil, checkpoint.Wrap(ErrInvalidBootSector, ErrMount)
	}

	fatType, err := fs.bs.FatType()
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrMount)
	}
	fs.fatType = fatType

	clusters, err := fs.bs.CountDataClusters()
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrMount)
	}

	nrFats := fs.bs.NrFats()
	fats := make([]*Fat, nrFats)
	for i := 0; i < nrFats; i++ {
		fats[i] = NewFat(fatType, fs.bs.MediumDescriptor(), clusters,
			int(fs.bs.EffectiveSectorsPerFat()), fs.bs.BytesPerSector())
		if err := fats[i].Read(device, fs.bs.FatOffset(i)); err != nil {
			return nil, checkpoint.Wrap(err, ErrMount)
		}
	}

	if !ignoreFatDifferences {
		for i := 1; i < nrFats; i++ {
			if !fats[0].Equal(fats[i]) {
				return nil, checkpoint.Wrap(fmt.Errorf("FAT %d differs from FAT 0", i), ErrFatMismatch)
			}
		}
	}
	fs.fat = fats[0]

	if fatType == FAT32 {
		rootFile := newFatFile(fs, fs.bs.RootDirFirstCluster(), 0, true, nil)
		fs.rootDir, err = newChainDirectory(fs, rootFile)
		if err != nil {
			return nil, checkpoint.Wrap(err, ErrMount)
		}
	} else {
		fs.rootDir = newFixedRootDirectory(fs, fs.bs.NrRootDirEntries())
		if err := fs.rootDir.Read(device, fs.bs.RootDirOffset()); err != nil {
			return nil, checkpoint.Wrap(err, ErrMount)
		}
	}

	return fs, nil
}

// FatType returns the entry encoding of the mounted volume.
func (fs *FatFileSystem) FatType() FatType {
	return fs.fatType
}

// BootSector returns the boot sector of the mounted volume.
func (fs *FatFileSystem) BootSector() *BootSector {
	return fs.bs
}

// Fat returns the canonical allocation table.
func (fs *FatFileSystem) Fat() *Fat {
	return fs.fat
}

// RootDir returns the root directory.
func (fs *FatFileSystem) RootDir() *FatLfnDirectory {
	return fs.rootDir
}

// IsReadOnly reports whether the filesystem rejects modifications.
func (fs *FatFileSystem) IsReadOnly() bool {
	return fs.readOnly
}

// ClusterSize returns the allocation unit size in bytes.
func (fs *FatFileSystem) ClusterSize() int {
	return fs.bs.ClusterSize()
}

// Label returns the volume label.
func (fs *FatFileSystem) Label() string {
	return fs.rootDir.Label()
}

// SetLabel sets the volume label.
func (fs *FatFileSystem) SetLabel(label string) error {
	if fs.readOnly {
		return checkpoint.From(ErrReadOnly)
	}
	return fs.rootDir.SetLabel(label)
}

// GetFile returns the FatFile for a directory entry. There is at most one
// live file object per entry; concurrent callers for the same entry get the
// same instance.
func (fs *FatFileSystem) GetFile(entry LfnEntry) *FatFile {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.getFileLocked(entry)
}

func (fs *FatFileSystem) getFileLocked(entry LfnEntry) *FatFile {
	ref := dirEntryRef{dir: entry.dir, slot: entry.slot}
	file, ok := fs.files[ref]
	if !ok {
		r := ref
		file = newFatFile(fs, entry.StartCluster(), entry.Length, entry.IsDirectory(), &r)
		fs.files[ref] = file
	}
	return file
}

// GetDirectory returns the FatLfnDirectory for a directory entry, reading
// its cluster chain on first access. Like files, there is at most one live
// directory object per entry.
func (fs *FatFileSystem) GetDirectory(entry LfnEntry) (*FatLfnDirectory, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ref := dirEntryRef{dir: entry.dir, slot: entry.slot}
	dir, ok := fs.dirs[ref]
	if !ok {
		var err error
		dir, err = newChainDirectory(fs, fs.getFileLocked(entry))
		if err != nil {
			return nil, err
		}
		fs.dirs[ref] = dir
	}
	return dir, nil
}

// dropFile forgets the cached file and directory objects of a removed
// entry.
func (fs *FatFileSystem) dropFile(ref dirEntryRef) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.files, ref)
	delete(fs.dirs, ref)
}

// Flush writes all changed structures to the device, in the order boot
// sector, open files, cached directories, FAT copies, root directory. Note
// that this order does not guarantee crash consistency: data clusters reach
// the device when they are written, possibly before the FAT describing them
// is committed here.
// Flushing a clean filesystem is a no-op.
func (fs *FatFileSystem) Flush() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.bs.IsDirty() {
		if err := fs.bs.Write(fs.device); err != nil {
			return checkpoint.Wrap(err, ErrDeviceWrite)
		}
	}

	for _, file := range fs.files {
		if err := file.Flush(); err != nil {
			return err
		}
	}

	// Flushing a directory updates its entry in the parent, which may dirty
	// the parent in turn; keep passing until all directories settle. The
	// root directory is written last.
	for pass := 0; pass < len(fs.dirs)+1; pass++ {
		clean := true
		for _, dir := range fs.dirs {
			if !dir.IsDirty() {
				continue
			}
			if err := dir.Flush(); err != nil {
				return err
			}
			clean = false
		}
		if clean {
			break
		}
	}

	if fs.fat.IsDirty() {
		for i := 0; i < fs.bs.NrFats(); i++ {
			if err := fs.fat.Write(fs.device, fs.bs.FatOffset(i)); err != nil {
				return err
			}
		}
	}

	if fs.rootDir.IsDirty() {
		if err := fs.rootDir.Flush(); err != nil {
			return err
		}
	}

	return nil
}

// TotalSpace returns the size of the data area in bytes.
func (fs *FatFileSystem) TotalSpace() (int64, error) {
	clusters, err := fs.bs.CountDataClusters()
	if err != nil {
		return 0, err
	}
	return int64(clusters) * int64(fs.ClusterSize()), nil
}

// FreeSpace returns the number of unallocated bytes in the data area.
func (fs *FatFileSystem) FreeSpace() (int64, error) {
	return int64(fs.fat.FreeCount()) * int64(fs.ClusterSize()), nil
}

// UsableSpace returns the bytes available for new file data. On FAT this
// equals the free space, there are no reserved blocks inside the data area.
func (fs *FatFileSystem) UsableSpace() (int64, error) {
	return fs.FreeSpace()
}
