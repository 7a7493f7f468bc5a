package fat

import (
	"os"
	"time"
)

// FileInfo adapts a directory entry to os.FileInfo.
func (e LfnEntry) FileInfo() os.FileInfo {
	return entryFileInfo{entry: e}
}

type entryFileInfo struct {
	entry LfnEntry
}

func (i entryFileInfo) Name() string {
	return i.entry.Name()
}

func (i entryFileInfo) Size() int64 {
	return int64(i.entry.Length)
}

func (i entryFileInfo) Mode() os.FileMode {
	if i.IsDir() {
		return os.ModeDir
	}
	return 0
}

func (i entryFileInfo) ModTime() time.Time {
	return i.entry.ModTime()
}

func (i entryFileInfo) IsDir() bool {
	return i.entry.IsDirectory()
}

func (i entryFileInfo) Sys() interface{} {
	return i.entry.DirEntry
}
