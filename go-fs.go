package fat

import (
	"errors"
	"io/fs"
	"strings"
)

type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

type GoFile struct {
	*File
}

func (g GoFile) Stat() (fs.FileInfo, error) {
	return g.File.Stat()
}

func (g GoFile) Read(bytes []byte) (int, error) {
	return g.File.Read(bytes)
}

func (g GoFile) Close() error {
	return g.File.Close()
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := g.File.Readdir(n)

	goEntries := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		goEntries[i] = GoDirEntry{e}
	}

	return goEntries, err
}

// GoFs just wraps the afero FAT implementation to be compatible with fs.FS.
type GoFs struct {
	Fs
}

// NewGoFS mounts the FAT volume on the given device as fs.FS compatible
// filesystem.
func NewGoFS(device BlockDevice) (*GoFs, error) {
	fatFs, err := New(device)
	if err != nil {
		return nil, err
	}

	return &GoFs{*fatFs}, nil
}

// NewGoFSSkipChecks mounts just like NewGoFS but it tolerates FAT copies
// which disagree, which may allow you to open not perfectly intact FAT
// filesystems. Use with caution!
func NewGoFSSkipChecks(device BlockDevice) (*GoFs, error) {
	fatFs, err := NewSkipChecks(device)
	if err != nil {
		return nil, err
	}

	return &GoFs{*fatFs}, nil
}

func (g GoFs) Open(name string) (fs.File, error) {
	// The afero layer is lenient about leading slashes and dot elements,
	// fs.FS is not.
	if !fs.ValidPath(name) || strings.ContainsRune(name, '\\') {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	f, ok := file.(*File)
	if !ok {
		return nil, errors.New("invalid File implementation")
	}

	return GoFile{f}, nil
}
