package fat

import (
	"errors"
	"fmt"

	"github.com/orb1t/fat32-lib/checkpoint"
)

// These errors may occur while accessing file data.
var (
	ErrFileRange     = errors.New("access outside of the file bounds")
	ErrReadCluster   = errors.New("could not read a data cluster")
	ErrWriteCluster  = errors.New("could not write a data cluster")
	ErrFileTruncated = errors.New("cluster chain shorter than the file length")
)

// FatFile is a random-access byte range backed by a cluster chain. Writing
// past the current chain extends it by allocating clusters; data is written
// through to the device, only the describing directory entry is staged until
// Flush.
type FatFile struct {
	fs           *FatFileSystem
	startCluster uint32
	length       uint32
	isDirectory  bool
	ref          *dirEntryRef
	dirty        bool
}

func newFatFile(fs *FatFileSystem, startCluster, length uint32, isDirectory bool, ref *dirEntryRef) *FatFile {
	return &FatFile{
		fs:           fs,
		startCluster: startCluster,
		length:       length,
		isDirectory:  isDirectory,
		ref:          ref,
	}
}

// StartCluster returns the first cluster of the chain, 0 for an empty file.
func (f *FatFile) StartCluster() uint32 {
	return f.startCluster
}

// Length returns the byte length from the directory entry. Directories do
// not carry a length, see LengthOnDisk.
func (f *FatFile) Length() uint32 {
	return f.length
}

// IsDirectory reports whether the chain holds directory entries instead of
// file data.
func (f *FatFile) IsDirectory() bool {
	return f.isDirectory
}

// IsDirty reports whether the describing directory entry still has to be
// written back.
func (f *FatFile) IsDirty() bool {
	return f.dirty
}

// LengthOnDisk returns the number of bytes the cluster chain occupies.
// For directories this is the effective readable size.
func (f *FatFile) LengthOnDisk() (uint32, error) {
	if f.startCluster == 0 {
		return 0, nil
	}

	nrClusters, err := f.fs.fat.ChainLength(f.startCluster)
	if err != nil {
		return 0, err
	}
	return nrClusters * uint32(f.fs.ClusterSize()), nil
}

// size returns the range Read and Write validate against.
func (f *FatFile) size() (int64, error) {
	if f.isDirectory {
		n, err := f.LengthOnDisk()
		return int64(n), err
	}
	return int64(f.length), nil
}

func (f *FatFile) clusterDevOffset(cluster uint32) int64 {
	return f.fs.bs.DataOffset() + int64(cluster-2)*int64(f.fs.ClusterSize())
}

// ReadAt fills p with file data starting at the given byte offset. Reading
// beyond the file length fails with ErrFileRange.
func (f *FatFile) ReadAt(p []byte, offset int64) error {
	size, err := f.size()
	if err != nil {
		return err
	}
	if offset < 0 || offset+int64(len(p)) > size {
		return checkpoint.Wrap(fmt.Errorf("read [%d, %d) of %d bytes", offset, offset+int64(len(p)), size), ErrFileRange)
	}
	if len(p) == 0 {
		return nil
	}

	chain, err := f.fs.fat.Chain(f.startCluster)
	if err != nil {
		return err
	}

	clusterSize := int64(f.fs.ClusterSize())
	idx := offset / clusterSize
	intra := offset % clusterSize

	for len(p) > 0 {
		if idx >= int64(len(chain)) {
			return checkpoint.From(ErrFileTruncated)
		}

		n := clusterSize - intra
		if n > int64(len(p)) {
			n = int64(len(p))
		}

		devOffset := f.clusterDevOffset(chain[idx]) + intra
		if err := f.fs.device.ReadAt(p[:n], devOffset); err != nil {
			return checkpoint.Wrap(err, ErrReadCluster)
		}

		p = p[n:]
		idx++
		intra = 0
	}
	return nil
}

// WriteAt stores p at the given byte offset, extending the file as needed.
// Extension allocates exactly the clusters required for the new length;
// clusters holding existing data are left untouched.
func (f *FatFile) WriteAt(p []byte, offset int64) error {
	if f.fs.readOnly {
		return checkpoint.From(ErrReadOnly)
	}
	if offset < 0 {
		return checkpoint.From(ErrFileRange)
	}
	if len(p) == 0 {
		return nil
	}

	end := offset + int64(len(p))
	size, err := f.size()
	if err != nil {
		return err
	}
	if end > size {
		if err := f.SetLength(uint32(end)); err != nil {
			return err
		}
	}

	chain, err := f.fs.fat.Chain(f.startCluster)
	if err != nil {
		return err
	}

	clusterSize := int64(f.fs.ClusterSize())
	idx := offset / clusterSize
	intra := offset % clusterSize

	for len(p) > 0 {
		if idx >= int64(len(chain)) {
			return checkpoint.From(ErrFileTruncated)
		}

		n := clusterSize - intra
		if n > int64(len(p)) {
			n = int64(len(p))
		}

		devOffset := f.clusterDevOffset(chain[idx]) + intra
		if err := f.fs.device.WriteAt(p[:n], devOffset); err != nil {
			return checkpoint.Wrap(err, ErrWriteCluster)
		}

		p = p[n:]
		idx++
		intra = 0
	}
	return nil
}

// SetLength resizes the file to length bytes. Growth allocates clusters one
// by one, appended to the chain tail; shrinking frees the chain tail. The
// FAT is only modified by whole clusters, no allocation is ever applied
// half-way.
func (f *FatFile) SetLength(length uint32) error {
	if f.fs.readOnly {
		return checkpoint.From(ErrReadOnly)
	}

	clusterSize := uint32(f.fs.ClusterSize())
	needed := (length + clusterSize - 1) / clusterSize

	if f.startCluster == 0 {
		if needed > 0 {
			first, err := f.fs.fat.AllocNew()
			if err != nil {
				return err
			}

			tail := first
			for have := uint32(1); have < needed; have++ {
				tail, err = f.fs.fat.AllocAppend(tail)
				if err != nil {
					// free the partially grown chain again
					_, _ = f.fs.fat.Truncate(first, 0)
					return err
				}
			}
			f.startCluster = first
		}
	} else {
		chain, err := f.fs.fat.Chain(f.startCluster)
		if err != nil {
			return err
		}

		switch {
		case needed > uint32(len(chain)):
			tail := chain[len(chain)-1]
			for have := uint32(len(chain)); have < needed; have++ {
				next, err := f.fs.fat.AllocAppend(tail)
				if err != nil {
					// free the partially grown tail again
					_, _ = f.fs.fat.Truncate(f.startCluster, uint32(len(chain)))
					return err
				}
				tail = next
			}
		case needed < uint32(len(chain)):
			if _, err := f.fs.fat.Truncate(f.startCluster, needed); err != nil {
				return err
			}
			if needed == 0 {
				f.startCluster = 0
			}
		}
	}

	if f.isDirectory {
		// Directory entries carry no length for directories.
		f.length = 0
	} else {
		f.length = length
	}
	f.dirty = true
	return nil
}

// Flush writes the staged directory entry changes (length, start cluster)
// back into the parent directory. It is a no-op for a clean file.
func (f *FatFile) Flush() error {
	if !f.dirty {
		return nil
	}

	if f.ref != nil {
		if err := f.ref.dir.updateEntry(f.ref.slot, f.startCluster, f.length); err != nil {
			return err
		}
	}
	f.dirty = false
	return nil
}
