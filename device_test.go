package fat

import (
	"bytes"
	"errors"
	"testing"
)

func TestRamDisk(t *testing.T) {
	device := NewRamDisk(1024)

	if got := device.Size(); got != 1024 {
		t.Errorf("RamDisk.Size() = %v, want 1024", got)
	}

	content := []byte("hello world")
	if err := device.WriteAt(content, 100); err != nil {
		t.Fatalf("RamDisk.WriteAt() error = %v", err)
	}

	buf := make([]byte, len(content))
	if err := device.ReadAt(buf, 100); err != nil {
		t.Fatalf("RamDisk.ReadAt() error = %v", err)
	}
	if !bytes.Equal(buf, content) {
		t.Errorf("RamDisk.ReadAt() = %q, want %q", buf, content)
	}
}

func TestRamDisk_Range(t *testing.T) {
	device := NewRamDisk(100)
	buf := make([]byte, 10)

	tests := []struct {
		name string
		off  int64
	}{
		{name: "negative offset", off: -1},
		{name: "crossing the end", off: 95},
		{name: "past the end", off: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := device.ReadAt(buf, tt.off); !errors.Is(err, ErrDeviceRange) {
				t.Errorf("RamDisk.ReadAt() error = %v, want ErrDeviceRange", err)
			}
			if err := device.WriteAt(buf, tt.off); !errors.Is(err, ErrDeviceRange) {
				t.Errorf("RamDisk.WriteAt() error = %v, want ErrDeviceRange", err)
			}
		})
	}
}

func TestNewRamDiskOf(t *testing.T) {
	backing := make([]byte, 64)
	device := NewRamDiskOf(backing)

	if err := device.WriteAt([]byte{0x42}, 5); err != nil {
		t.Fatalf("RamDisk.WriteAt() error = %v", err)
	}
	if backing[5] != 0x42 {
		t.Error("NewRamDiskOf() must wrap the buffer without copying")
	}
	if &device.Bytes()[0] != &backing[0] {
		t.Error("RamDisk.Bytes() must expose the wrapped buffer")
	}
}

// fakeBacking implements io.ReaderAt and io.WriterAt over a byte slice.
type fakeBacking struct {
	data []byte
}

func (f *fakeBacking) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, f.data[off:]), nil
}

func (f *fakeBacking) WriteAt(p []byte, off int64) (int, error) {
	return copy(f.data[off:], p), nil
}

func TestFileDisk(t *testing.T) {
	backing := &fakeBacking{data: make([]byte, 256)}
	device := NewFileDisk(backing, 256)

	if got := device.Size(); got != 256 {
		t.Errorf("FileDisk.Size() = %v, want 256", got)
	}

	if err := device.WriteAt([]byte("data"), 10); err != nil {
		t.Fatalf("FileDisk.WriteAt() error = %v", err)
	}

	buf := make([]byte, 4)
	if err := device.ReadAt(buf, 10); err != nil {
		t.Fatalf("FileDisk.ReadAt() error = %v", err)
	}
	if string(buf) != "data" {
		t.Errorf("FileDisk.ReadAt() = %q, want %q", buf, "data")
	}

	if err := device.ReadAt(buf, 254); !errors.Is(err, ErrDeviceRange) {
		t.Errorf("FileDisk.ReadAt() error = %v, want ErrDeviceRange", err)
	}
	if err := device.WriteAt(buf, -1); !errors.Is(err, ErrDeviceRange) {
		t.Errorf("FileDisk.WriteAt() error = %v, want ErrDeviceRange", err)
	}
}
