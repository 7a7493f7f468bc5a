package fat

import (
	"errors"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/orb1t/fat32-lib/checkpoint"
)

// These errors may occur while working with paths on the filesystem.
var (
	ErrNotExist  = errors.New("file or directory does not exist")
	ErrNotADir   = errors.New("not a directory")
	ErrIsRoot    = errors.New("the root directory has no parent")
	ErrOpenFile  = errors.New("could not open the file")
	ErrCreate    = errors.New("could not create the entry")
	ErrRemove    = errors.New("could not remove the entry")
	ErrFsActions = errors.New("filesystem action not possible")
)

// Fs exposes a mounted FAT volume through the afero.Fs contract. Operations
// the on-disk format cannot express (permissions, ownership) fail with
// ErrNotSupported instead of pretending to succeed.
type Fs struct {
	core *FatFileSystem
}

// New mounts the FAT volume on the given device read-write.
func New(device BlockDevice) (*Fs, error) {
	core, err := NewFileSystem(device, false)
	if err != nil {
		return nil, err
	}
	return &Fs{core: core}, nil
}

// NewReadOnly mounts the FAT volume on the given device read-only.
func NewReadOnly(device BlockDevice) (*Fs, error) {
	core, err := NewFileSystem(device, true)
	if err != nil {
		return nil, err
	}
	return &Fs{core: core}, nil
}

// NewSkipChecks mounts like New but tolerates FAT copies which disagree,
// which may allow you to open not perfectly intact FAT filesystems.
// Use with caution!
func NewSkipChecks(device BlockDevice) (*Fs, error) {
	core, err := NewFileSystemIgnoreFatDifferences(device, false)
	if err != nil {
		return nil, err
	}
	return &Fs{core: core}, nil
}

// Core returns the underlying FatFileSystem.
func (fs *Fs) Core() *FatFileSystem {
	return fs.core
}

// Label returns the volume label.
func (fs *Fs) Label() string {
	return fs.core.Label()
}

// FSType returns the FAT variant of the mounted volume.
func (fs *Fs) FSType() FatType {
	return fs.core.FatType()
}

// splitPath normalizes a path into its components. The root path maps to an
// empty component list.
func splitPath(path string) []string {
	path = strings.ReplaceAll(path, "\\", "/")
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}

// resolveDir walks the given components starting at the root directory.
func (fs *Fs) resolveDir(parts []string) (*FatLfnDirectory, error) {
	dir := fs.core.RootDir()
	for _, part := range parts {
		entry, ok := dir.GetEntry(part)
		if !ok {
			return nil, checkpoint.Wrap(os.ErrNotExist, ErrNotExist)
		}
		if !entry.IsDirectory() {
			return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrNotADir)
		}

		sub, err := fs.core.GetDirectory(entry)
		if err != nil {
			return nil, err
		}
		dir = sub
	}
	return dir, nil
}

// resolveEntry resolves a path to its directory entry. The root itself has
// no entry and yields ErrIsRoot.
func (fs *Fs) resolveEntry(path string) (LfnEntry, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return LfnEntry{}, checkpoint.From(ErrIsRoot)
	}

	dir, err := fs.resolveDir(parts[:len(parts)-1])
	if err != nil {
		return LfnEntry{}, err
	}

	entry, ok := dir.GetEntry(parts[len(parts)-1])
	if !ok {
		return LfnEntry{}, checkpoint.Wrap(os.ErrNotExist, ErrNotExist)
	}
	return entry, nil
}

// fileForEntry builds an open handle from a resolved entry. The size is
// taken from the live file object, the directory entry may still hold a
// stale length until the next flush.
func (fs *Fs) fileForEntry(path string, entry LfnEntry) *File {
	if !entry.IsDirectory() {
		entry.Length = fs.core.GetFile(entry).Length()
	}
	size := int64(entry.Length)

	return &File{
		fs:          fs,
		path:        path,
		isDirectory: entry.IsDirectory(),
		isReadOnly:  entry.IsReadOnly() || fs.core.IsReadOnly(),
		isHidden:    entry.IsHidden(),
		isSystem:    entry.IsSystem(),
		entry:       entry,
		stat:        entry.FileInfo(),
		size:        size,
	}
}

func (fs *Fs) rootFile() *File {
	return &File{
		fs:          fs,
		path:        "",
		isRoot:      true,
		isDirectory: true,
		isReadOnly:  fs.core.IsReadOnly(),
		stat:        rootFileInfo{},
	}
}

// Open opens the given file or directory for reading.
func (fs *Fs) Open(name string) (afero.File, error) {
	if len(splitPath(name)) == 0 {
		return fs.rootFile(), nil
	}

	entry, err := fs.resolveEntry(name)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrOpenFile)
	}
	return fs.fileForEntry(name, entry), nil
}

// OpenFile opens a file honoring the standard os flags. Access mode flags
// are advisory, the returned handle always supports what the entry and the
// mount mode allow.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	entry, err := fs.resolveEntry(name)
	if errors.Is(err, ErrNotExist) && flag&os.O_CREATE != 0 {
		return fs.Create(name)
	}
	if err != nil {
		if errors.Is(err, ErrIsRoot) {
			return fs.rootFile(), nil
		}
		return nil, checkpoint.Wrap(err, ErrOpenFile)
	}

	file := fs.fileForEntry(name, entry)
	if flag&os.O_TRUNC != 0 {
		if err := file.Truncate(0); err != nil {
			return nil, err
		}
	}
	if flag&os.O_APPEND != 0 {
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			return nil, err
		}
	}
	return file, nil
}

// Create creates an empty file. An existing file is truncated, like
// os.Create does.
func (fs *Fs) Create(name string) (afero.File, error) {
	parts := splitPath(name)
	if len(parts) == 0 {
		return nil, checkpoint.Wrap(ErrIsRoot, ErrCreate)
	}
	if fs.core.IsReadOnly() {
		return nil, checkpoint.Wrap(ErrReadOnly, ErrCreate)
	}

	dir, err := fs.resolveDir(parts[:len(parts)-1])
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrCreate)
	}

	entry, err := dir.AddFile(parts[len(parts)-1])
	if errors.Is(err, ErrEntryExists) {
		existing, ok := dir.GetEntry(parts[len(parts)-1])
		if !ok || existing.IsDirectory() {
			return nil, checkpoint.Wrap(err, ErrCreate)
		}

		file := fs.fileForEntry(name, existing)
		if err := file.Truncate(0); err != nil {
			return nil, checkpoint.Wrap(err, ErrCreate)
		}
		return file, nil
	}
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrCreate)
	}
	return fs.fileForEntry(name, entry), nil
}

// Mkdir creates a single directory, failing if it already exists.
func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	parts := splitPath(name)
	if len(parts) == 0 {
		return checkpoint.Wrap(ErrIsRoot, ErrCreate)
	}
	if fs.core.IsReadOnly() {
		return checkpoint.Wrap(ErrReadOnly, ErrCreate)
	}

	dir, err := fs.resolveDir(parts[:len(parts)-1])
	if err != nil {
		return checkpoint.Wrap(err, ErrCreate)
	}

	if _, err := dir.AddDirectory(parts[len(parts)-1]); err != nil {
		return checkpoint.Wrap(err, ErrCreate)
	}
	return nil
}

// MkdirAll creates a directory path, reusing components which already
// exist.
func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	parts := splitPath(path)
	for i := range parts {
		err := fs.Mkdir(strings.Join(parts[:i+1], "/"), perm)
		if err != nil && !errors.Is(err, ErrEntryExists) {
			return err
		}
	}
	return nil
}

// Remove deletes a file or an empty directory.
func (fs *Fs) Remove(name string) error {
	parts := splitPath(name)
	if len(parts) == 0 {
		return checkpoint.Wrap(ErrIsRoot, ErrRemove)
	}
	if fs.core.IsReadOnly() {
		return checkpoint.Wrap(ErrReadOnly, ErrRemove)
	}

	dir, err := fs.resolveDir(parts[:len(parts)-1])
	if err != nil {
		return checkpoint.Wrap(err, ErrRemove)
	}

	name = parts[len(parts)-1]
	if entry, ok := dir.GetEntry(name); ok && entry.IsDirectory() {
		children, err := fs.readDir(entry)
		if err != nil {
			return checkpoint.Wrap(err, ErrRemove)
		}
		if len(children) > 0 {
			return checkpoint.Wrap(syscall.ENOTEMPTY, ErrRemove)
		}
	}

	return checkpoint.Wrap(dir.Remove(name), ErrRemove)
}

// RemoveAll deletes a path and everything below it. A missing path is not
// an error.
func (fs *Fs) RemoveAll(path string) error {
	entry, err := fs.resolveEntry(path)
	if errors.Is(err, ErrNotExist) {
		return nil
	}
	if err != nil {
		return checkpoint.Wrap(err, ErrRemove)
	}

	if entry.IsDirectory() {
		children, err := fs.readDir(entry)
		if err != nil {
			return checkpoint.Wrap(err, ErrRemove)
		}
		for _, child := range children {
			if err := fs.RemoveAll(path + "/" + child.Name()); err != nil {
				return err
			}
		}
	}

	return fs.Remove(path)
}

// Rename is not supported by this driver.
func (fs *Fs) Rename(oldname, newname string) error {
	return checkpoint.Wrap(ErrNotSupported, ErrFsActions)
}

// Stat returns the FileInfo of the given path.
func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	if len(splitPath(name)) == 0 {
		return rootFileInfo{}, nil
	}

	entry, err := fs.resolveEntry(name)
	if err != nil {
		return nil, err
	}
	if !entry.IsDirectory() {
		// The directory entry may still hold a stale length until the next
		// flush; the live file object knows the current one.
		entry.Length = fs.core.GetFile(entry).Length()
	}
	return entry.FileInfo(), nil
}

func (fs *Fs) Name() string {
	return "FatFileSystem"
}

// Chmod is not supported, FAT stores no permission bits beyond read-only.
func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return checkpoint.Wrap(ErrNotSupported, ErrFsActions)
}

// Chown is not supported, FAT stores no ownership.
func (fs *Fs) Chown(name string, uid, gid int) error {
	return checkpoint.Wrap(ErrNotSupported, ErrFsActions)
}

// Chtimes is not supported yet.
func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return checkpoint.Wrap(ErrNotSupported, ErrFsActions)
}

// rootFileInfo is the synthetic FileInfo of the root directory, which has
// no directory entry of its own.
type rootFileInfo struct{}

func (rootFileInfo) Name() string       { return "" }
func (rootFileInfo) Size() int64        { return 0 }
func (rootFileInfo) Mode() os.FileMode  { return os.ModeDir }
func (rootFileInfo) ModTime() time.Time { return time.Time{} }
func (rootFileInfo) IsDir() bool        { return true }
func (rootFileInfo) Sys() interface{}   { return nil }

// The fatFileFs implementation backing File handles.

func (fs *Fs) readFileAt(entry LfnEntry, offset int64, readSize int64) ([]byte, error) {
	file := fs.core.GetFile(entry)

	size := int64(file.Length())
	if offset >= size {
		return nil, nil
	}
	if offset+readSize > size {
		readSize = size - offset
	}

	buf := make([]byte, readSize)
	if err := file.ReadAt(buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}

func (fs *Fs) writeFileAt(entry LfnEntry, offset int64, p []byte) (int64, error) {
	file := fs.core.GetFile(entry)

	if err := file.WriteAt(p, offset); err != nil {
		return int64(file.Length()), err
	}
	return int64(file.Length()), nil
}

func (fs *Fs) truncateFile(entry LfnEntry, size int64) error {
	file := fs.core.GetFile(entry)
	return file.SetLength(uint32(size))
}

// listable filters what directory listings expose: no volume label, no dot
// entries.
func listable(entries []LfnEntry) []LfnEntry {
	result := make([]LfnEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsVolumeLabel() || e.ShortName() == "." || e.ShortName() == ".." {
			continue
		}
		result = append(result, e)
	}
	return result
}

func (fs *Fs) readRoot() ([]LfnEntry, error) {
	return listable(fs.core.RootDir().Entries()), nil
}

func (fs *Fs) readDir(entry LfnEntry) ([]LfnEntry, error) {
	dir, err := fs.core.GetDirectory(entry)
	if err != nil {
		return nil, err
	}
	return listable(dir.Entries()), nil
}

func (fs *Fs) flushAll() error {
	return fs.core.Flush()
}
