package fat

import (
	"errors"
	"fmt"

	"github.com/orb1t/fat32-lib/checkpoint"
)

// ErrGeometry occurs when an LBA cannot be expressed in a given geometry.
var ErrGeometry = errors.New("logical block address out of geometry range")

// CHS is a Cylinder/Head/Sector triplet, the legacy addressing scheme still
// found in partition table entries. Sector numbering starts at 1.
type CHS struct {
	Cylinder int
	Head     int
	Sector   int
}

func (c CHS) String() string {
	return fmt.Sprintf("CHS(%d/%d/%d)", c.Cylinder, c.Head, c.Sector)
}

// Geometry describes a device shape used to convert between CHS triplets and
// logical block addresses.
type Geometry struct {
	Cylinders       int
	Heads           int
	SectorsPerTrack int
}

// TotalSectors returns the number of addressable sectors of the geometry.
func (g Geometry) TotalSectors() int64 {
	return int64(g.Cylinders) * int64(g.Heads) * int64(g.SectorsPerTrack)
}

// LBA converts a CHS triplet to its logical block address.
func (g Geometry) LBA(chs CHS) int64 {
	return (int64(chs.Cylinder)*int64(g.Heads)+int64(chs.Head))*int64(g.SectorsPerTrack) +
		int64(chs.Sector) - 1
}

// CHS converts a logical block address to the CHS triplet addressing the
// same sector within this geometry.
func (g Geometry) CHS(lba int64) (CHS, error) {
	if g.Heads <= 0 || g.SectorsPerTrack <= 0 {
		return CHS{}, checkpoint.From(ErrGeometry)
	}
	if lba < 0 || lba >= g.TotalSectors() {
		return CHS{}, checkpoint.Wrap(fmt.Errorf("lba %d not within %d sectors", lba, g.TotalSectors()), ErrGeometry)
	}

	spt := int64(g.SectorsPerTrack)
	heads := int64(g.Heads)

	return CHS{
		Cylinder: int(lba / (heads * spt)),
		Head:     int((lba / spt) % heads),
		Sector:   int(lba%spt) + 1,
	}, nil
}
