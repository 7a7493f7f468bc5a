package fat

import (
	"errors"
	"io"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/spf13/afero"
)

// fakeFileInfo is just a fake FileInfo which does nothing and contains only
// someData to have something to check equality.
type fakeFileInfo struct {
	someData string
	fileSize int64
}

func (f fakeFileInfo) Name() string       { return f.someData }
func (f fakeFileInfo) Size() int64        { return f.fileSize }
func (f fakeFileInfo) Mode() os.FileMode  { return 0 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() interface{}   { return nil }

// fileTestsError is just an error used in tests for File.
var fileTestsError = errors.New("a super error")

func TestFile_Close(t *testing.T) {
	f := &File{
		fs:          &Fs{},
		path:        "any path",
		isDirectory: true,
		isReadOnly:  true,
		isHidden:    true,
		isSystem:    true,
		stat:        fakeFileInfo{someData: "something"},
		size:        9,
		offset:      7,
	}

	if err := f.Close(); err != nil {
		t.Errorf("File.Close() error = %v", err)
	}

	if *f != (File{}) {
		t.Errorf("File.Close() did not reset all fields: File = %v", *f)
	}
}

func TestFile_Read(t *testing.T) {
	type mock struct {
		result []byte
		err    error
	}
	tests := []struct {
		name     string
		mockData *mock
		size     int64
		offset   int64
		p        []byte
		wantN    int
		wantErr  error
	}{
		{
			name:     "simple read",
			mockData: &mock{result: []byte("Hello World")},
			size:     11,
			p:        make([]byte, 11),
			wantN:    11,
		},
		{
			name:     "read at offset",
			mockData: &mock{result: []byte("World")},
			size:     11,
			offset:   6,
			p:        make([]byte, 5),
			wantN:    5,
		},
		{
			name:    "offset at the end",
			size:    11,
			offset:  11,
			p:       make([]byte, 5),
			wantErr: io.EOF,
		},
		{
			name:  "nil slice",
			size:  11,
			p:     nil,
			wantN: 0,
		},
		{
			name:     "error from the filesystem",
			mockData: &mock{err: fileTestsError},
			size:     11,
			p:        make([]byte, 11),
			wantErr:  ErrReadFile,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCtrl := gomock.NewController(t)
			defer mockCtrl.Finish()

			mockFs := NewMockfatFileFs(mockCtrl)
			if tt.mockData != nil {
				mockFs.EXPECT().
					readFileAt(gomock.Any(), tt.offset, int64(len(tt.p))).
					Return(tt.mockData.result, tt.mockData.err)
			}

			f := &File{
				fs:     mockFs,
				size:   tt.size,
				offset: tt.offset,
			}

			n, err := f.Read(tt.p)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("File.Read() error = %v, wantErr %v", err, tt.wantErr)
			}
			if n != tt.wantN {
				t.Errorf("File.Read() = %v, want %v", n, tt.wantN)
			}
			if tt.wantErr == nil && tt.p != nil {
				if f.offset != tt.offset+int64(tt.wantN) {
					t.Errorf("File.Read() left offset at %v, want %v", f.offset, tt.offset+int64(tt.wantN))
				}
			}
		})
	}
}

func TestFile_ReadAt(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockFs := NewMockfatFileFs(mockCtrl)
	mockFs.EXPECT().
		readFileAt(gomock.Any(), int64(6), int64(5)).
		Return([]byte("World"), nil)

	f := &File{fs: mockFs, size: 11}

	p := make([]byte, 5)
	n, err := f.ReadAt(p, 6)
	if err != nil {
		t.Errorf("File.ReadAt() error = %v", err)
	}
	if n != 5 || string(p) != "World" {
		t.Errorf("File.ReadAt() = %v %q, want 5 %q", n, p, "World")
	}
	if f.offset != 0 {
		t.Errorf("File.ReadAt() must not move the offset, got %v", f.offset)
	}

	if _, err := f.ReadAt(p, 11); !errors.Is(err, io.EOF) {
		t.Errorf("File.ReadAt() past the end error = %v, want io.EOF", err)
	}
}

func TestFile_Seek(t *testing.T) {
	tests := []struct {
		name    string
		offset  int64
		whence  int
		start   int64
		want    int64
		wantErr error
	}{
		{name: "seek start", offset: 5, whence: io.SeekStart, want: 5},
		{name: "seek current", offset: 2, whence: io.SeekCurrent, start: 3, want: 5},
		{name: "seek end", offset: -1, whence: io.SeekEnd, want: 10},
		{name: "negative result", offset: -1, whence: io.SeekStart, wantErr: afero.ErrOutOfRange},
		{name: "past the end", offset: 12, whence: io.SeekStart, wantErr: afero.ErrOutOfRange},
		{name: "invalid whence", offset: 0, whence: 42, wantErr: syscall.EINVAL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &File{size: 11, offset: tt.start}

			got, err := f.Seek(tt.offset, tt.whence)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("File.Seek() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil && got != tt.want {
				t.Errorf("File.Seek() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFile_Write(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockFs := NewMockfatFileFs(mockCtrl)
	mockFs.EXPECT().
		writeFileAt(gomock.Any(), int64(0), []byte("Hello")).
		Return(int64(5), nil)

	f := &File{fs: mockFs}

	n, err := f.Write([]byte("Hello"))
	if err != nil {
		t.Errorf("File.Write() error = %v", err)
	}
	if n != 5 {
		t.Errorf("File.Write() = %v, want 5", n)
	}
	if f.offset != 5 || f.size != 5 {
		t.Errorf("File.Write() left offset %v size %v, want 5 5", f.offset, f.size)
	}
}

func TestFile_WriteRefusals(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		wantErr error
	}{
		{name: "directory", file: File{isDirectory: true}, wantErr: syscall.EISDIR},
		{name: "read only", file: File{isReadOnly: true}, wantErr: ErrReadOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.file
			if _, err := f.WriteAt([]byte("Hello"), 0); !errors.Is(err, tt.wantErr) {
				t.Errorf("File.WriteAt() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFile_Truncate(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockFs := NewMockfatFileFs(mockCtrl)
	mockFs.EXPECT().
		truncateFile(gomock.Any(), int64(5)).
		Return(nil)

	f := &File{fs: mockFs, size: 11, offset: 11}

	if err := f.Truncate(5); err != nil {
		t.Errorf("File.Truncate() error = %v", err)
	}
	if f.size != 5 || f.offset != 5 {
		t.Errorf("File.Truncate() left size %v offset %v, want 5 5", f.size, f.offset)
	}

	if err := (&File{isDirectory: true}).Truncate(0); !errors.Is(err, syscall.EISDIR) {
		t.Errorf("File.Truncate() on a directory error = %v, want EISDIR", err)
	}
}

func TestFile_Sync(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	mockFs := NewMockfatFileFs(mockCtrl)
	mockFs.EXPECT().flushAll().Return(nil)

	f := &File{fs: mockFs}
	if err := f.Sync(); err != nil {
		t.Errorf("File.Sync() error = %v", err)
	}
}

func TestFile_Readdir(t *testing.T) {
	entries := []LfnEntry{
		{DirEntry: DirEntry{Name: [11]byte{'A', ' ', ' ', ' ', ' ', ' ', ' ', ' ', 'T', 'X', 'T'}}},
		{DirEntry: DirEntry{Name: [11]byte{'B', ' ', ' ', ' ', ' ', ' ', ' ', ' ', 'T', 'X', 'T'}}},
		{DirEntry: DirEntry{Name: [11]byte{'C', ' ', ' ', ' ', ' ', ' ', ' ', ' ', 'T', 'X', 'T'}}},
	}

	tests := []struct {
		name      string
		isRoot    bool
		count     int
		wantNames []string
		wantErr   error
	}{
		{name: "all entries of the root", isRoot: true, count: -1, wantNames: []string{"A.TXT", "B.TXT", "C.TXT"}},
		{name: "all entries of a directory", count: -1, wantNames: []string{"A.TXT", "B.TXT", "C.TXT"}},
		{name: "limited count", count: 2, wantNames: []string{"A.TXT", "B.TXT"}},
		{name: "count beyond the end", count: 5, wantNames: []string{"A.TXT", "B.TXT", "C.TXT"}, wantErr: io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCtrl := gomock.NewController(t)
			defer mockCtrl.Finish()

			mockFs := NewMockfatFileFs(mockCtrl)
			if tt.isRoot {
				mockFs.EXPECT().readRoot().Return(entries, nil)
			} else {
				mockFs.EXPECT().readDir(gomock.Any()).Return(entries, nil)
			}

			f := &File{fs: mockFs, isRoot: tt.isRoot, isDirectory: true}

			infos, err := f.Readdir(tt.count)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("File.Readdir() error = %v, wantErr %v", err, tt.wantErr)
			}

			names := make([]string, len(infos))
			for i, info := range infos {
				names[i] = info.Name()
			}
			if len(names) != len(tt.wantNames) {
				t.Fatalf("File.Readdir() = %v, want %v", names, tt.wantNames)
			}
			for i := range names {
				if names[i] != tt.wantNames[i] {
					t.Fatalf("File.Readdir() = %v, want %v", names, tt.wantNames)
				}
			}
		})
	}
}

func TestFile_ReaddirNoDirectory(t *testing.T) {
	f := &File{}
	if _, err := f.Readdir(-1); !errors.Is(err, syscall.ENOTDIR) {
		t.Errorf("File.Readdir() error = %v, want ENOTDIR", err)
	}
}
