package fat

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/orb1t/fat32-lib/checkpoint"
)

// DirEntrySize is the fixed size of one directory entry on disk.
const DirEntrySize = 32

// Directory entry attribute bits.
const (
	AttrReadOnly    = 0x01
	AttrHidden      = 0x02
	AttrSystem      = 0x04
	AttrVolumeLabel = 0x08
	AttrDirectory   = 0x10
	AttrArchive     = 0x20

	// AttrLongName is the reserved attribute combination marking a long
	// filename record instead of a regular entry.
	AttrLongName = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeLabel
)

// Name markers in the first name byte.
const (
	entryEndMarker     = 0x00
	entryDeletedMarker = 0xE5
	// A real first name byte of 0xE5 is stored as 0x05.
	entryE5Substitute = 0x05
)

// ErrInvalidShortName occurs when a name cannot be stored in the 8.3 short
// format.
var ErrInvalidShortName = errors.New("not a valid 8.3 short name")

// DirEntry is a decoded 32-byte short directory entry.
type DirEntry struct {
	Name            [11]byte
	Attributes      uint8
	NtReserved      uint8
	CreateTimeTenth uint8
	CreateTime      uint16
	CreateDate      uint16
	AccessDate      uint16
	ClusterHi       uint16
	WriteTime       uint16
	WriteDate       uint16
	ClusterLo       uint16
	Length          uint32
}

// decodeDirEntry reads one short entry from a 32-byte slice.
func decodeDirEntry(b []byte) DirEntry {
	var e DirEntry
	copy(e.Name[:], b[0:11])
	e.Attributes = b[11]
	e.NtReserved = b[12]
	e.CreateTimeTenth = b[13]
	e.CreateTime = uint16(b[14]) | uint16(b[15])<<8
	e.CreateDate = uint16(b[16]) | uint16(b[17])<<8
	e.AccessDate = uint16(b[18]) | uint16(b[19])<<8
	e.ClusterHi = uint16(b[20]) | uint16(b[21])<<8
	e.WriteTime = uint16(b[22]) | uint16(b[23])<<8
	e.WriteDate = uint16(b[24]) | uint16(b[25])<<8
	e.ClusterLo = uint16(b[26]) | uint16(b[27])<<8
	e.Length = uint32(b[28]) | uint32(b[29])<<8 | uint32(b[30])<<16 | uint32(b[31])<<24
	return e
}

// encode writes the entry into a 32-byte slice.
func (e *DirEntry) encode(b []byte) {
	copy(b[0:11], e.Name[:])
	b[11] = e.Attributes
	b[12] = e.NtReserved
	b[13] = e.CreateTimeTenth
	b[14], b[15] = byte(e.CreateTime), byte(e.CreateTime>>8)
	b[16], b[17] = byte(e.CreateDate), byte(e.CreateDate>>8)
	b[18], b[19] = byte(e.AccessDate), byte(e.AccessDate>>8)
	b[20], b[21] = byte(e.ClusterHi), byte(e.ClusterHi>>8)
	b[22], b[23] = byte(e.WriteTime), byte(e.WriteTime>>8)
	b[24], b[25] = byte(e.WriteDate), byte(e.WriteDate>>8)
	b[26], b[27] = byte(e.ClusterLo), byte(e.ClusterLo>>8)
	b[28], b[29] = byte(e.Length), byte(e.Length>>8)
	b[30], b[31] = byte(e.Length>>16), byte(e.Length>>24)
}

// IsFree reports whether this slot and all following slots are unused.
func (e *DirEntry) IsFree() bool {
	return e.Name[0] == entryEndMarker
}

// IsDeleted reports whether the slot held an entry that was removed.
func (e *DirEntry) IsDeleted() bool {
	return e.Name[0] == entryDeletedMarker
}

func (e *DirEntry) IsLongName() bool {
	return e.Attributes&AttrLongName == AttrLongName
}

func (e *DirEntry) IsVolumeLabel() bool {
	return !e.IsLongName() && e.Attributes&AttrVolumeLabel == AttrVolumeLabel
}

func (e *DirEntry) IsDirectory() bool {
	return e.Attributes&AttrDirectory == AttrDirectory
}

func (e *DirEntry) IsReadOnly() bool {
	return e.Attributes&AttrReadOnly == AttrReadOnly
}

func (e *DirEntry) IsHidden() bool {
	return e.Attributes&AttrHidden == AttrHidden
}

func (e *DirEntry) IsSystem() bool {
	return e.Attributes&AttrSystem == AttrSystem
}

// StartCluster combines the two 16-bit halves of the first cluster number.
// The high half is only used on FAT32 volumes.
func (e *DirEntry) StartCluster() uint32 {
	return uint32(e.ClusterHi)<<16 | uint32(e.ClusterLo)
}

func (e *DirEntry) SetStartCluster(cluster uint32) {
	e.ClusterHi = uint16(cluster >> 16)
	e.ClusterLo = uint16(cluster)
}

// ShortName renders the 8.3 name as "NAME.EXT". The raw name bytes are in
// the OEM code page, decoded here as code page 437.
func (e *DirEntry) ShortName() string {
	raw := e.Name
	if raw[0] == entryE5Substitute {
		raw[0] = entryDeletedMarker
	}

	name := decodeCp437(raw[0:8])
	ext := decodeCp437(raw[8:11])

	if ext == "" {
		return name
	}
	return name + "." + ext
}

func decodeCp437(b []byte) string {
	var sb strings.Builder
	n := len(b)
	for n > 0 && b[n-1] == ' ' {
		n--
	}
	for _, c := range b[:n] {
		sb.WriteRune(charmap.CodePage437.DecodeByte(c))
	}
	return sb.String()
}

// ModTime combines the last-write date and time stamps. An invalid date
// yields the zero time.
func (e *DirEntry) ModTime() time.Time {
	writeDate := ParseDate(e.WriteDate)
	writeTime := ParseTime(e.WriteTime)

	// A zero date means the stamp was invalid. A zero time on the other
	// hand is a perfectly valid midnight.
	if writeDate.IsZero() {
		return time.Time{}
	}

	return time.Date(writeDate.Year(), writeDate.Month(), writeDate.Day(),
		writeTime.Hour(), writeTime.Minute(), writeTime.Second(), 0, time.UTC)
}

// SetModTime stores the given time in the last-write stamps.
func (e *DirEntry) SetModTime(t time.Time) {
	e.WriteDate = EncodeDate(t)
	e.WriteTime = EncodeTime(t)
}

// shortNameBytes stores a name of the form "NAME.EXT" in the raw 11-byte
// 8.3 layout. It fails if the name does not fit the format; callers fall
// back to a generated short name plus a long name chain then.
func shortNameBytes(name string) ([11]byte, error) {
	var raw [11]byte
	for i := range raw {
		raw[i] = ' '
	}

	if name == "" || name == "." || name == ".." || len(name) > 12 {
		return raw, checkpoint.From(ErrInvalidShortName)
	}

	base := name
	ext := ""
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		base, ext = name[:dot], name[dot+1:]
	}
	if base == "" || len(base) > 8 || len(ext) > 3 {
		return raw, checkpoint.From(ErrInvalidShortName)
	}

	put := func(dst []byte, s string) bool {
		for i := 0; i < len(s); i++ {
			c := s[i]
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			if c < 0x20 || strings.IndexByte("\"*+,./:;<=>?[\\]| ", c) >= 0 {
				return false
			}
			dst[i] = c
		}
		return true
	}

	if !put(raw[0:8], base) || !put(raw[8:11], ext) {
		return raw, checkpoint.From(ErrInvalidShortName)
	}
	if raw[0] == entryDeletedMarker {
		raw[0] = entryE5Substitute
	}
	return raw, nil
}
