package fat

import (
	"unicode/utf16"
)

// Long filename records are stored in otherwise unused directory entry
// slots, marked by the reserved AttrLongName attribute combination. Each
// record carries 13 UTF-16 code units; the records of one name precede
// their short entry in reverse sequence order, the first record on disk
// carrying the highest sequence number plus a terminator flag. Every record
// holds a checksum over the 11 raw name bytes of the short entry it extends.
const (
	lfnSequenceMask  = 0x1F
	lfnLastFlag      = 0x40
	lfnUnitsPerEntry = 13
)

// longNameEntry is one decoded long filename record.
type longNameEntry struct {
	sequence uint8
	last     bool
	checksum uint8
	units    [lfnUnitsPerEntry]uint16
}

// Offsets of the three UTF-16 fragments within a record.
var lfnUnitOffsets = [lfnUnitsPerEntry]int{
	1, 3, 5, 7, 9,
	14, 16, 18, 20, 22, 24,
	28, 30,
}

func decodeLongNameEntry(b []byte) longNameEntry {
	e := longNameEntry{
		sequence: b[0] & lfnSequenceMask,
		last:     b[0]&lfnLastFlag != 0,
		checksum: b[13],
	}
	for i, off := range lfnUnitOffsets {
		e.units[i] = uint16(b[off]) | uint16(b[off+1])<<8
	}
	return e
}

func (e *longNameEntry) encode(b []byte) {
	seq := e.sequence
	if e.last {
		seq |= lfnLastFlag
	}
	b[0] = seq
	b[11] = AttrLongName
	b[12] = 0
	b[13] = e.checksum
	b[26], b[27] = 0, 0
	for i, off := range lfnUnitOffsets {
		b[off] = byte(e.units[i])
		b[off+1] = byte(e.units[i] >> 8)
	}
}

// ShortNameChecksum computes the checksum stored in every long filename
// record, over the 11 raw name bytes of the short entry.
func ShortNameChecksum(name [11]byte) uint8 {
	var sum uint8
	for _, c := range name {
		sum = (sum&1)<<7 + sum>>1 + c
	}
	return sum
}

// lfnCollector assembles a long name from the records preceding a short
// entry. Records arrive in on-disk order, highest sequence number first.
type lfnCollector struct {
	units    []uint16
	checksum uint8
	expected uint8
	valid    bool
}

func (c *lfnCollector) reset() {
	c.units = c.units[:0]
	c.valid = false
}

// add consumes one record. A record out of sequence, or one whose checksum
// disagrees with the records seen so far, invalidates the whole chain.
func (c *lfnCollector) add(e longNameEntry) {
	if e.last {
		c.units = c.units[:0]
		c.checksum = e.checksum
		c.expected = e.sequence
		c.valid = e.sequence > 0
	} else if !c.valid || e.sequence != c.expected || e.checksum != c.checksum {
		c.valid = false
		return
	}
	if !c.valid {
		return
	}

	c.expected = e.sequence - 1
	// Records are reversed on disk, so each one is prepended.
	c.units = append(e.units[:], c.units...)
}

// name finalizes the collected chain for the given short entry. It returns
// the empty string if the chain is incomplete, orphaned or does not match
// the short entry's checksum; enumeration degrades to the short name then.
func (c *lfnCollector) name(short *DirEntry) string {
	if !c.valid || c.expected != 0 || c.checksum != ShortNameChecksum(short.Name) {
		return ""
	}

	units := c.units
	for i, u := range units {
		if u == 0x0000 {
			units = units[:i]
			break
		}
	}
	return string(utf16.Decode(units))
}

// encodeLongName builds the reverse-ordered record sequence for a name.
// The final record is padded with a NUL terminator and 0xFFFF fill, as the
// on-disk format demands.
func encodeLongName(name string, checksum uint8) []longNameEntry {
	units := utf16.Encode([]rune(name))

	nrEntries := (len(units) + lfnUnitsPerEntry - 1) / lfnUnitsPerEntry
	entries := make([]longNameEntry, 0, nrEntries)

	for i := nrEntries - 1; i >= 0; i-- {
		e := longNameEntry{
			sequence: uint8(i + 1),
			last:     i == nrEntries-1,
			checksum: checksum,
		}
		for j := 0; j < lfnUnitsPerEntry; j++ {
			pos := i*lfnUnitsPerEntry + j
			switch {
			case pos < len(units):
				e.units[j] = units[pos]
			case pos == len(units):
				e.units[j] = 0x0000
			default:
				e.units[j] = 0xFFFF
			}
		}
		entries = append(entries, e)
	}
	return entries
}

// lfnEntriesNeeded returns the number of extra slots a name requires in
// front of its short entry. A name fitting the 8.3 format needs none.
func lfnEntriesNeeded(name string) int {
	if _, err := shortNameBytes(name); err == nil {
		return 0
	}
	units := utf16.Encode([]rune(name))
	return (len(units) + lfnUnitsPerEntry - 1) / lfnUnitsPerEntry
}
