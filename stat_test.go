package fat

import (
	"os"
	"testing"
	"time"
)

func TestLfnEntry_FileInfo(t *testing.T) {
	entry := LfnEntry{
		DirEntry: DirEntry{
			Name:       [11]byte{'H', 'E', 'L', 'L', 'O', ' ', ' ', ' ', 'T', 'X', 'T'},
			Attributes: AttrArchive,
			WriteTime:  13<<11 | 37<<5 | 21,
			WriteDate:  21<<9 | 7<<5 | 4,
			Length:     1234,
		},
		LongName: "hello there.txt",
	}

	info := entry.FileInfo()

	if got := info.Name(); got != "hello there.txt" {
		t.Errorf("FileInfo.Name() = %q, want the long name", got)
	}
	if got := info.Size(); got != 1234 {
		t.Errorf("FileInfo.Size() = %v, want 1234", got)
	}
	if info.IsDir() {
		t.Error("FileInfo.IsDir() = true for a file entry")
	}
	if got := info.Mode(); got != 0 {
		t.Errorf("FileInfo.Mode() = %v, want 0", got)
	}
	want := time.Date(2001, 7, 4, 13, 37, 42, 0, time.UTC)
	if got := info.ModTime(); !got.Equal(want) {
		t.Errorf("FileInfo.ModTime() = %v, want %v", got, want)
	}
	if _, ok := info.Sys().(DirEntry); !ok {
		t.Errorf("FileInfo.Sys() = %T, want the raw DirEntry", info.Sys())
	}
}

func TestLfnEntry_FileInfoDirectory(t *testing.T) {
	entry := LfnEntry{
		DirEntry: DirEntry{
			Name:       [11]byte{'D', 'O', 'C', 'S', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
			Attributes: AttrDirectory,
		},
	}

	info := entry.FileInfo()

	if got := info.Name(); got != "DOCS" {
		t.Errorf("FileInfo.Name() = %q, want the short name", got)
	}
	if !info.IsDir() {
		t.Error("FileInfo.IsDir() = false for a directory entry")
	}
	if got := info.Mode(); got != os.ModeDir {
		t.Errorf("FileInfo.Mode() = %v, want ModeDir", got)
	}
}
