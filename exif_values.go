// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode"

	textunicode "golang.org/x/text/encoding/unicode"
)

// exifType represents the basic TIFF tag data types.
type exifType uint16

const (
	exifTypeByte      exifType = 1
	exifTypeASCII     exifType = 2
	exifTypeShort     exifType = 3
	exifTypeLong      exifType = 4
	exifTypeRational  exifType = 5
	exifTypeUndefined exifType = 7
	exifTypeSShort    exifType = 8
	exifTypeSLong     exifType = 9
	exifTypeSRational exifType = 10
)

// Size in bytes of each type. Types absent from the map are unknown and
// cause the directory entry to be skipped.
var exifTypeSize = map[exifType]uint32{
	exifTypeByte:      1,
	exifTypeASCII:     1,
	exifTypeShort:     2,
	exifTypeLong:      4,
	exifTypeRational:  8,
	exifTypeUndefined: 1,
	exifTypeSShort:    2,
	exifTypeSLong:     4,
	exifTypeSRational: 8,
}

// ExifValue is a typed TIFF directory value.
// The concrete types are Bytes, ASCII, Shorts, Longs, Rationals, SLongs and
// SRationals.
type ExifValue interface {
	// TypeCode returns the TIFF type code of the value.
	TypeCode() uint16
}

// Rational is an unsigned TIFF rational.
type Rational struct {
	Num uint32
	Den uint32
}

// SRational is a signed TIFF rational.
type SRational struct {
	Num int32
	Den int32
}

type (
	// Bytes holds BYTE (1) or UNDEFINED (7) payloads.
	Bytes []byte
	// ASCII holds an ASCII (2) string, trailing NUL trimmed.
	ASCII string
	// Shorts holds SHORT (3) values; SSHORT (8) is stored identically.
	Shorts []uint16
	// Longs holds LONG (4) values.
	Longs []uint32
	// Rationals holds RATIONAL (5) values.
	Rationals []Rational
	// SLongs holds SLONG (9) values.
	SLongs []int32
	// SRationals holds SRATIONAL (10) values.
	SRationals []SRational
)

func (Bytes) TypeCode() uint16      { return uint16(exifTypeByte) }
func (ASCII) TypeCode() uint16      { return uint16(exifTypeASCII) }
func (Shorts) TypeCode() uint16     { return uint16(exifTypeShort) }
func (Longs) TypeCode() uint16      { return uint16(exifTypeLong) }
func (Rationals) TypeCode() uint16  { return uint16(exifTypeRational) }
func (SLongs) TypeCode() uint16     { return uint16(exifTypeSLong) }
func (SRationals) TypeCode() uint16 { return uint16(exifTypeSRational) }

// decodeExifValue parses the raw value bytes of a directory entry into the
// typed variant. The byte order applies here, not when the bytes were
// extracted from the entry. data must hold count*size bytes.
func decodeExifValue(typ exifType, count int, data []byte, order binary.ByteOrder) (ExifValue, error) {
	size, ok := exifTypeSize[typ]
	if !ok {
		return nil, newInvalidFormatErrorf("unknown EXIF type %d", typ)
	}
	if len(data) < count*int(size) {
		return nil, errShortRead
	}

	switch typ {
	case exifTypeByte, exifTypeUndefined:
		return Bytes(data[:count]), nil
	case exifTypeASCII:
		s := data[:count]
		if n := len(s); n > 0 && s[n-1] == 0 {
			s = s[:n-1]
		}
		return ASCII(s), nil
	case exifTypeShort, exifTypeSShort:
		v := make(Shorts, count)
		for i := range v {
			v[i] = order.Uint16(data[2*i:])
		}
		return v, nil
	case exifTypeLong:
		v := make(Longs, count)
		for i := range v {
			v[i] = order.Uint32(data[4*i:])
		}
		return v, nil
	case exifTypeRational:
		v := make(Rationals, count)
		for i := range v {
			v[i] = Rational{
				Num: order.Uint32(data[8*i:]),
				Den: order.Uint32(data[8*i+4:]),
			}
		}
		return v, nil
	case exifTypeSLong:
		v := make(SLongs, count)
		for i := range v {
			v[i] = int32(order.Uint32(data[4*i:]))
		}
		return v, nil
	case exifTypeSRational:
		v := make(SRationals, count)
		for i := range v {
			v[i] = SRational{
				Num: int32(order.Uint32(data[8*i:])),
				Den: int32(order.Uint32(data[8*i+4:])),
			}
		}
		return v, nil
	default:
		return nil, newInvalidFormatErrorf("unknown EXIF type %d", typ)
	}
}

// renderValue returns a JSON-friendly rendition of v.
func renderValue(v ExifValue) any {
	switch vv := v.(type) {
	case ASCII:
		return printableString(string(vv))
	case Bytes:
		return []byte(vv)
	case Shorts:
		return []uint16(vv)
	case Longs:
		return []uint32(vv)
	case SLongs:
		return []int32(vv)
	case Rationals:
		ss := make([]string, len(vv))
		for i, r := range vv {
			ss[i] = fmt.Sprintf("%d/%d", r.Num, r.Den)
		}
		return ss
	case SRationals:
		ss := make([]string, len(vv))
		for i, r := range vv {
			ss[i] = fmt.Sprintf("%d/%d", r.Num, r.Den)
		}
		return ss
	default:
		return nil
	}
}

var utf16LEDecoder = textunicode.UTF16(textunicode.LittleEndian, textunicode.IgnoreBOM)

// decodeUTF16LE converts a little-endian UTF-16 byte payload to a string.
func decodeUTF16LE(b []byte) (string, error) {
	out, err := utf16LEDecoder.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(trimBytesNulls(out)), nil
}

func printableString(s string) string {
	ss := strings.Map(func(r rune) rune {
		if unicode.IsGraphic(r) {
			return r
		}
		return -1
	}, s)

	return strings.TrimSpace(ss)
}

func trimBytesNulls(b []byte) []byte {
	var lo, hi int
	for lo = 0; lo < len(b) && b[lo] == 0; lo++ {
	}
	for hi = len(b) - 1; hi >= 0 && b[hi] == 0; hi-- {
	}
	if lo > hi {
		return nil
	}
	return b[lo : hi+1]
}
