// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	byteOrderBigEndian    = 0x4d4d // "MM"
	byteOrderLittleEndian = 0x4949 // "II"
	tiffMagic             = 42

	markerApp1 = 0xe1
	markerSOS  = 0xda
	markerEOI  = 0xd9
)

var exifHeader = []byte("Exif\x00\x00")

// pngSignature covers the fixed 8-byte signature plus the IHDR chunk header,
// which is required to be the first chunk.
var pngSignature = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
}

// Entries whose value would exceed this are skipped; plenty for metadata.
const maxTagBytes = 10 * 1024 * 1024

// A directory entry is represented in 12 bytes:
//   - 2 bytes for the tag ID
//   - 2 bytes for the data type
//   - 4 bytes for the number of data values of the specified type
//   - 4 bytes for the value itself, if it fits, otherwise for an offset to
//     where the value is stored; this can also point to another IFD.
//
// raw preserves the last 4 bytes exactly as stored so that inline values can
// be re-parsed with the file's byte order applied at decode time.
type ifdEntry struct {
	tag           uint16
	typ           uint16
	count         uint32
	valueOrOffset uint32
	raw           [4]byte
}

type ifd struct {
	entries []ifdEntry
	next    uint32
}

func (d *ifd) find(tag uint16) (ifdEntry, bool) {
	for _, ent := range d.entries {
		if ent.tag == tag {
			return ent, true
		}
	}
	return ifdEntry{}, false
}

// readIFD reads the directory at the absolute offset: a u16 entry count, that
// many 12-byte entries, and a u32 next-IFD offset.
func readIFD(s *streamReader, absOffset int64) (*ifd, error) {
	if err := s.seekE(absOffset); err != nil {
		return nil, err
	}
	count, err := s.read2E()
	if err != nil {
		return nil, err
	}
	d := &ifd{entries: make([]ifdEntry, 0, count)}
	for i := 0; i < int(count); i++ {
		b, err := s.readBytesVolatileE(12)
		if err != nil {
			return nil, err
		}
		ent := ifdEntry{
			tag:           s.byteOrder.Uint16(b[0:2]),
			typ:           s.byteOrder.Uint16(b[2:4]),
			count:         s.byteOrder.Uint32(b[4:8]),
			valueOrOffset: s.byteOrder.Uint32(b[8:12]),
		}
		copy(ent.raw[:], b[8:12])
		d.entries = append(d.entries, ent)
	}
	next, err := s.read4E()
	if err != nil {
		return nil, err
	}
	d.next = next
	return d, nil
}

// readTIFFHeader reads the 8-byte header at the absolute offset and returns
// the byte order and the (base-relative) offset of IFD0.
func readTIFFHeader(s *streamReader, base int64) (binary.ByteOrder, uint32, error) {
	if err := s.seekE(base); err != nil {
		return nil, 0, err
	}
	s.byteOrder = binary.BigEndian
	tag, err := s.read2E()
	if err != nil {
		return nil, 0, err
	}
	switch tag {
	case byteOrderBigEndian:
		s.byteOrder = binary.BigEndian
	case byteOrderLittleEndian:
		s.byteOrder = binary.LittleEndian
	default:
		return nil, 0, newInvalidFormatErrorf("not a TIFF header")
	}
	magic, err := s.read2E()
	if err != nil {
		return nil, 0, err
	}
	if magic != tiffMagic {
		return nil, 0, newInvalidFormatErrorf("bad TIFF magic %d", magic)
	}
	ifd0, err := s.read4E()
	if err != nil {
		return nil, 0, err
	}
	return s.byteOrder, ifd0, nil
}

// readValueBytes returns the raw value bytes for a directory entry.
// Values of up to 4 bytes live in the entry itself, as stored; larger values
// live at base+offset. The byte order applies when the bytes are decoded into
// the typed value, not here.
func readValueBytes(s *streamReader, base int64, ent ifdEntry) ([]byte, error) {
	size, ok := exifTypeSize[exifType(ent.typ)]
	if !ok {
		return nil, newInvalidFormatErrorf("unknown EXIF type %d", ent.typ)
	}
	total := int64(ent.count) * int64(size)
	if total > maxTagBytes {
		return nil, newInvalidFormatErrorf("tag value too large (%d bytes)", total)
	}
	if total <= 4 {
		return ent.raw[:int(total)], nil
	}
	if err := s.seekE(base + int64(ent.valueOrOffset)); err != nil {
		return nil, err
	}
	return s.readBytesE(int(total))
}

// resolvePointerTag resolves an IFD pointer entry (ExifOffset, SubIFDs) to a
// base-relative directory offset. For a LONG with count 1 the value itself is
// the pointer; for count > 1 the value points at an array of pointers and
// only the first is followed.
func resolvePointerTag(s *streamReader, base int64, d *ifd, tag uint16) (int64, bool) {
	ent, ok := d.find(tag)
	if !ok {
		return 0, false
	}
	switch {
	case ent.typ == uint16(exifTypeLong) && ent.count == 1:
		return int64(ent.valueOrOffset), true
	case ent.typ == uint16(exifTypeLong) && ent.count > 1:
		if err := s.seekE(base + int64(ent.valueOrOffset)); err != nil {
			return 0, false
		}
		off, err := s.read4E()
		if err != nil {
			return 0, false
		}
		return int64(off), true
	case ent.typ == uint16(exifTypeShort) && ent.count == 1:
		return int64(s.byteOrder.Uint16(ent.raw[:2])), true
	}
	return 0, false
}

// ExifContext holds the typed tag values extracted from a file, keyed by tag
// number, together with the location and byte order of the embedded TIFF
// structure they came from.
type ExifContext struct {
	tiffBase  int64
	byteOrder binary.ByteOrder
	values    map[uint16]ExifValue
}

// NewExifContext returns an empty context.
func NewExifContext() *ExifContext {
	return &ExifContext{
		byteOrder: binary.LittleEndian,
		values:    map[uint16]ExifValue{},
	}
}

// ExifFromFile extracts metadata from the file at path, dispatching on the
// container format.
func ExifFromFile(path string) (*ExifContext, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ExifFromReader(f)
}

// ExifFromReader extracts metadata from r, dispatching on the container
// format. JPEG files are scanned for an APP1 Exif segment, PNG files yield
// their IHDR dimensions, TIFF files are walked directly. WebP and PDF files
// yield an empty context.
func ExifFromReader(r io.ReadSeeker) (ctx *ExifContext, err error) {
	format, err := detectFormat(r)
	if err != nil {
		return nil, err
	}
	return exifForFormat(r, format)
}

func exifForFormat(r io.ReadSeeker, format imageFormat) (ctx *ExifContext, err error) {
	s := newStreamReader(r, binary.BigEndian)

	defer func() {
		if rec := recover(); rec != nil {
			if rec != errStop {
				panic(rec)
			}
			if err == nil {
				err = s.readErr
			}
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				err = newInvalidFormatError(err)
			}
		}
	}()

	switch format {
	case formatJPEG:
		return exifFromJPEG(s)
	case formatPNG:
		return exifFromPNG(s)
	case formatTIFF:
		return exifFromTIFF(s, 0)
	case formatWebP, formatPDF:
		return NewExifContext(), nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// exifFromJPEG scans the JPEG marker stream for an APP1 Exif segment and, if
// found, parses the embedded TIFF structure. Hitting SOS or EOI first means
// the file carries no EXIF, which is not an error.
func exifFromJPEG(s *streamReader) (*ExifContext, error) {
	s.seek(0)
	soi := s.readBytesVolatile(2)
	if soi[0] != 0xff || soi[1] != 0xd8 {
		return nil, newInvalidFormatErrorf("missing JPEG SOI marker")
	}

	for {
		// Scan to the next 0xff, then past any fill bytes.
		b, err := s.read1E()
		if err != nil {
			return NewExifContext(), nil
		}
		if b != 0xff {
			continue
		}
		marker := s.read1()
		for marker == 0xff {
			marker = s.read1()
		}

		if marker == markerEOI || marker == markerSOS {
			// No EXIF in this file.
			return NewExifContext(), nil
		}

		// Segment length is big-endian and includes its own two bytes.
		s.byteOrder = binary.BigEndian
		segLen := s.read2()
		if segLen < 2 {
			return nil, newInvalidFormatErrorf("invalid JPEG segment length %d", segLen)
		}

		if marker == markerApp1 {
			header := s.readBytesVolatile(6)
			if string(header) == string(exifHeader) {
				// The TIFF structure starts right here.
				return exifFromTIFF(s, s.pos())
			}
			if toSkip := int64(segLen) - 2 - 6; toSkip > 0 {
				s.skip(toSkip)
			}
			continue
		}

		s.skip(int64(segLen) - 2)
	}
}

// exifFromPNG validates the PNG signature and synthesizes a context holding
// only the IHDR dimensions. No further chunks are parsed.
func exifFromPNG(s *streamReader) (*ExifContext, error) {
	s.seek(0)
	sig := s.readBytesVolatile(len(pngSignature))
	if string(sig) != string(pngSignature) {
		return nil, newInvalidFormatErrorf("bad PNG signature")
	}

	s.byteOrder = binary.BigEndian
	width := s.read4()
	height := s.read4()

	return &ExifContext{
		tiffBase:  0,
		byteOrder: binary.BigEndian,
		values: map[uint16]ExifValue{
			tagImageWidth:  Longs{width},
			tagImageHeight: Longs{height},
		},
	}, nil
}

// exifFromTIFF parses the TIFF structure at base and aggregates the typed
// values of IFD0, the first SubIFD, the Exif IFD, and the SubIFD once more
// for chained raw directories. Later directories overwrite duplicate tags.
func exifFromTIFF(s *streamReader, base int64) (*ExifContext, error) {
	_, ifd0Offset, err := readTIFFHeader(s, base)
	if err != nil {
		return nil, err
	}

	ifd0, err := readIFD(s, base+int64(ifd0Offset))
	if err != nil {
		return nil, err
	}

	sects := []*ifd{ifd0}

	appendIFD := func(tag uint16) {
		off, ok := resolvePointerTag(s, base, ifd0, tag)
		if !ok || off == 0 {
			return
		}
		d, err := readIFD(s, base+off)
		if err != nil {
			log.Debug().Uint16("tag", tag).Err(err).Msg("skipping unreadable IFD")
			return
		}
		sects = append(sects, d)
	}

	appendIFD(tagSubIFDs)
	appendIFD(tagExifIFDPointer)
	appendIFD(tagSubIFDs)

	values := map[uint16]ExifValue{}
	for _, d := range sects {
		for _, ent := range d.entries {
			data, err := readValueBytes(s, base, ent)
			if err != nil {
				// An unparseable entry does not invalidate the IFD.
				continue
			}
			val, err := decodeExifValue(exifType(ent.typ), int(ent.count), data, s.byteOrder)
			if err != nil {
				continue
			}
			values[ent.tag] = val
		}
	}

	return &ExifContext{
		tiffBase:  base,
		byteOrder: s.byteOrder,
		values:    values,
	}, nil
}

// Value returns the typed value for a tag number.
func (c *ExifContext) Value(tag uint16) (ExifValue, bool) {
	v, ok := c.values[tag]
	return v, ok
}

// TagCount returns the number of tags in the context.
func (c *ExifContext) TagCount() int {
	return len(c.values)
}

// ByteOrder returns the byte order of the TIFF structure the context was
// extracted from.
func (c *ExifContext) ByteOrder() binary.ByteOrder {
	return c.byteOrder
}

// Field is a named tag value.
type Field struct {
	Tag     uint16
	Name    string
	Section ExifSection
	Value   ExifValue
}

// Fields returns all tag values with their conventional names, ordered by
// tag number.
func (c *ExifContext) Fields() []Field {
	fields := make([]Field, 0, len(c.values))
	for tag, v := range c.values {
		fields = append(fields, Field{
			Tag:     tag,
			Name:    FieldName(tag),
			Section: FieldSection(tag),
			Value:   v,
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Tag < fields[j].Tag })
	return fields
}

// MarshalJSON renders the mapping keyed by conventional tag names.
func (c *ExifContext) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(c.values))
	for tag, v := range c.values {
		m[FieldName(tag)] = renderValue(v)
	}
	return json.Marshal(m)
}

// Text returns a string rendition of a tag value. ASCII values are returned
// as-is; the Windows XP* tags and UNICODE user comments, stored as byte
// payloads, are decoded from UTF-16.
func (c *ExifContext) Text(tag uint16) (string, bool) {
	v, ok := c.values[tag]
	if !ok {
		return "", false
	}
	switch vv := v.(type) {
	case ASCII:
		return string(vv), true
	case Bytes:
		switch tag {
		case tagXPTitle, tagXPComment, tagXPAuthor, tagXPKeywords, tagXPSubject:
			s, err := decodeUTF16LE(vv)
			if err != nil {
				return "", false
			}
			return s, true
		case tagUserComment:
			if len(vv) >= 8 && strings.HasPrefix(string(vv), "UNICODE\x00") {
				s, err := decodeUTF16LE(vv[8:])
				if err != nil {
					return "", false
				}
				return s, true
			}
			if len(vv) >= 8 && strings.HasPrefix(string(vv), "ASCII\x00\x00\x00") {
				return printableString(string(trimBytesNulls(vv[8:]))), true
			}
		}
	}
	return "", false
}

// orientation returns the first SHORT of the Orientation tag, or 0.
func (c *ExifContext) orientation() uint16 {
	if v, ok := c.values[tagOrientation]; ok {
		if ss, ok := v.(Shorts); ok && len(ss) > 0 {
			return ss[0]
		}
	}
	return 0
}
