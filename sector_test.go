package fat

import (
	"testing"
)

func TestSector_Accessors(t *testing.T) {
	s := NewSector(512)

	s.set8(0, 0xAB)
	s.set16(1, 0x1234)
	s.set32(3, 0xDEADBEEF)

	if got := s.get8(0); got != 0xAB {
		t.Errorf("Sector.get8() = %#x, want 0xAB", got)
	}
	if got := s.get16(1); got != 0x1234 {
		t.Errorf("Sector.get16() = %#x, want 0x1234", got)
	}
	if got := s.get32(3); got != 0xDEADBEEF {
		t.Errorf("Sector.get32() = %#x, want 0xDEADBEEF", got)
	}

	// multi-byte values are stored little-endian
	if s.data[1] != 0x34 || s.data[2] != 0x12 {
		t.Errorf("Sector.set16() stored % x, want little-endian order", s.data[1:3])
	}
}

func TestSector_Dirty(t *testing.T) {
	device := NewRamDisk(1024)

	s := NewSector(512)
	if s.IsDirty() {
		t.Error("a fresh sector is not dirty")
	}

	s.set8(0, 1)
	if !s.IsDirty() {
		t.Error("a modified sector is dirty")
	}

	if err := s.Write(device, 512); err != nil {
		t.Fatalf("Sector.Write() error = %v", err)
	}
	if s.IsDirty() {
		t.Error("writing must clear the dirty flag")
	}

	s.set8(0, 2)
	if err := s.Read(device, 512); err != nil {
		t.Fatalf("Sector.Read() error = %v", err)
	}
	if s.IsDirty() {
		t.Error("reading must clear the dirty flag")
	}
	if got := s.get8(0); got != 1 {
		t.Errorf("Sector.get8() = %v, want the device content 1", got)
	}
}

func TestNewSectorOf(t *testing.T) {
	data := make([]byte, 64)
	s := NewSectorOf(data)

	s.set8(5, 0x42)
	if data[5] != 0x42 {
		t.Error("NewSectorOf() must wrap the bytes without copying")
	}
	if got := s.Size(); got != 64 {
		t.Errorf("Sector.Size() = %v, want 64", got)
	}
}
