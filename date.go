package fat

import (
	"time"
)

// ParseDate reads a 16-bit directory entry date stamp, which is relative to
// the MS-DOS epoch of 1980-01-01:
//
//	Bits 0-4:  day of month, valid range 1-31.
//	Bits 5-8:  month of year, 1 = January, valid range 1-12.
//	Bits 9-15: count of years from 1980, valid range 0-127.
//
// It returns a time.Time which always has a time of 00:00:00 UTC.
//
// A day or month of 0 is invalid per the on-disk format; in that case the
// zero time.Time is returned so that time.Time.IsZero() can be used.
//
// A month bigger than 12 is unspecified; it simply rolls over into the next
// year, as time.Date does.
func ParseDate(input uint16) time.Time {
	dayOfMonth := input & 0x1F
	monthOfYear := input & 0x1E0 >> 5
	yearSince1980 := input & 0xFE00 >> 9

	if dayOfMonth == 0 || monthOfYear == 0 {
		return time.Time{}
	}

	return time.Date(1980+int(yearSince1980), time.Month(monthOfYear), int(dayOfMonth), 0, 0, 0, 0, time.UTC)
}

// ParseTime reads a 16-bit directory entry time stamp, which has a
// granularity of two seconds:
//
//	Bits 0-4:   2-second count, valid range 0-29 (0-58 seconds).
//	Bits 5-10:  minutes, valid range 0-59.
//	Bits 11-15: hours, valid range 0-23.
//
// It returns a time.Time which always has a date of January 1, year 1, so
// for a midnight stamp time.Time.IsZero() holds.
//
// Out-of-range components are just added to the time, capped at 23:59:59.
func ParseTime(input uint16) time.Time {
	seconds := int(input&0x1F) * 2
	minutes := input & 0x7E0 >> 5
	hours := input & 0xF800 >> 11

	result := time.Date(1, 1, 1, int(hours), int(minutes), seconds, 0, time.UTC)

	if result.Day() > 1 {
		return time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)
	}

	return result
}

// EncodeDate packs a time.Time into the 16-bit date stamp format. Years
// before 1980 encode as 1980, years after 2107 as 2107.
func EncodeDate(t time.Time) uint16 {
	if t.IsZero() {
		return 0
	}

	year := t.Year() - 1980
	if year < 0 {
		year = 0
	}
	if year > 127 {
		year = 127
	}

	return uint16(t.Day()) | uint16(t.Month())<<5 | uint16(year)<<9
}

// EncodeTime packs a time.Time into the 16-bit time stamp format, rounding
// seconds down to the two-second granularity of the format.
func EncodeTime(t time.Time) uint16 {
	return uint16(t.Second()/2) | uint16(t.Minute())<<5 | uint16(t.Hour())<<11
}
