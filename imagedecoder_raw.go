// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import (
	"encoding/binary"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// SonyVariant identifies the encoding of the raw plane inside an ARW file.
type SonyVariant int

const (
	// VariantUnknown means the plane geometry matched no known encoding.
	VariantUnknown SonyVariant = iota
	// VariantARW2Compressed is the block-packed encoding: one byte per
	// pixel, 16-pixel blocks with 7-bit codes.
	VariantARW2Compressed
	// VariantARWLJpeg is the legacy Huffman/differential encoding.
	VariantARWLJpeg
	// VariantUncompressed14 is 14-bit samples packed in little-endian
	// 16-bit words.
	VariantUncompressed14
)

func (v SonyVariant) String() string {
	switch v {
	case VariantARW2Compressed:
		return "arw2-compressed"
	case VariantARWLJpeg:
		return "arw-ljpeg"
	case VariantUncompressed14:
		return "uncompressed-14"
	default:
		return "unknown"
	}
}

// rawInfo summarizes the raw plane of one IFD.
type rawInfo struct {
	make            string
	model           string
	dngVersion      uint32 // 0 when absent
	width           uint32
	height          uint32
	bitsPerSample   uint16
	compression     uint16
	stripOffsets    []int64
	stripByteCounts []int64
	totalBytes      int64
	isSony          bool
}

type rawDetectResult struct {
	raw     rawInfo
	variant SonyVariant
}

// detectSonyRaw walks every IFD reachable from IFD0, via the next-IFD chain
// and via SubIFD pointer arrays, visiting each offset at most once. The IFD
// with the largest strip payload wins; make, model and DNG version are
// collected from any IFD along the way.
func detectSonyRaw(r io.ReadSeeker) (*rawDetectResult, error) {
	s := newStreamReader(r, binary.LittleEndian)
	_, ifd0Offset, err := readTIFFHeader(s, 0)
	if err != nil {
		return nil, err
	}

	offsets := []int64{int64(ifd0Offset)}
	visited := map[int64]struct{}{}

	var chosen *rawInfo
	var maker, model string
	var dngVersion uint32

	for len(offsets) > 0 {
		off := offsets[len(offsets)-1]
		offsets = offsets[:len(offsets)-1]
		if _, ok := visited[off]; ok {
			continue
		}
		visited[off] = struct{}{}

		d, err := readIFD(s, off)
		if err != nil {
			return nil, err
		}

		if maker == "" {
			maker = readASCIITag(s, d, tagMake)
		}
		if model == "" {
			model = readASCIITag(s, d, tagModel)
		}
		if dngVersion == 0 {
			dngVersion = readDNGVersionTag(s, d)
		}

		for _, sub := range readLongArrayTag(s, d, tagSubIFDs) {
			offsets = append(offsets, int64(sub))
		}

		if info, ok := tryExtractRawInfo(s, d, maker); ok {
			if chosen == nil || chosen.totalBytes < info.totalBytes {
				chosen = &info
			}
		}

		if d.next != 0 {
			offsets = append(offsets, int64(d.next))
		}
	}

	if chosen == nil {
		return nil, newCorruptDataErrorf("no RAW IFD found")
	}
	chosen.make = maker
	chosen.model = model
	chosen.dngVersion = dngVersion

	variant := classifySonyVariant(*chosen)

	log.Debug().
		Uint32("width", chosen.width).
		Uint32("height", chosen.height).
		Uint16("compression", chosen.compression).
		Int64("bytes", chosen.totalBytes).
		Stringer("variant", variant).
		Msg("detected raw plane")

	return &rawDetectResult{raw: *chosen, variant: variant}, nil
}

// tryExtractRawInfo checks whether an IFD describes a single-plane raw
// raster: nonzero width and height, one sample per pixel, and strip offsets
// and byte counts of equal length.
func tryExtractRawInfo(s *streamReader, d *ifd, maker string) (rawInfo, bool) {
	width := firstLong(readLongArrayTag(s, d, tagImageWidth))
	height := firstLong(readLongArrayTag(s, d, tagImageHeight))
	if width == 0 || height == 0 {
		return rawInfo{}, false
	}

	if samples := firstShortDefault(readShortArrayTag(s, d, tagSamplesPerPixel), 1); samples != 1 {
		// Interleaved RGB previews are not the mosaic plane.
		return rawInfo{}, false
	}

	compression := firstShortDefault(readShortArrayTag(s, d, tagCompression), 1)
	bitsPerSample := firstShortDefault(readShortArrayTag(s, d, tagBitsPerSample), 14)

	stripOffsets := readLongArrayTag(s, d, tagStripOffsets)
	stripByteCounts := readLongArrayTag(s, d, tagStripByteCounts)
	if len(stripOffsets) == 0 || len(stripOffsets) != len(stripByteCounts) {
		return rawInfo{}, false
	}

	offsets := make([]int64, len(stripOffsets))
	counts := make([]int64, len(stripByteCounts))
	var total int64
	for i := range stripOffsets {
		offsets[i] = int64(stripOffsets[i])
		counts[i] = int64(stripByteCounts[i])
		total += counts[i]
	}

	return rawInfo{
		width:           width,
		height:          height,
		bitsPerSample:   bitsPerSample,
		compression:     compression,
		stripOffsets:    offsets,
		stripByteCounts: counts,
		totalBytes:      total,
		isSony:          strings.HasPrefix(strings.ToLower(maker), "sony"),
	}, true
}

// classifySonyVariant picks the decoder from the plane geometry.
func classifySonyVariant(raw rawInfo) SonyVariant {
	pixels := int64(raw.width) * int64(raw.height)
	dng := raw.dngVersion != 0

	switch raw.compression {
	case 32767:
		switch {
		case !dng && raw.totalBytes == pixels:
			return VariantARW2Compressed
		case !dng && raw.isSony && raw.totalBytes == 2*pixels:
			return VariantUncompressed14
		case raw.totalBytes*8 != pixels*int64(raw.bitsPerSample):
			return VariantARWLJpeg
		}
	case 0, 1:
		if !dng && raw.isSony && raw.totalBytes == 2*pixels {
			return VariantUncompressed14
		}
	}
	return VariantUnknown
}

// readASCIITag returns the value of an ASCII tag, or "".
func readASCIITag(s *streamReader, d *ifd, tag uint16) string {
	ent, ok := d.find(tag)
	if !ok || ent.typ != uint16(exifTypeASCII) || ent.count == 0 {
		return ""
	}
	data, err := readValueBytes(s, 0, ent)
	if err != nil {
		return ""
	}
	v, err := decodeExifValue(exifTypeASCII, int(ent.count), data, s.byteOrder)
	if err != nil {
		return ""
	}
	return string(v.(ASCII))
}

// readLongArrayTag returns the values of a LONG (or SHORT) array tag, or nil.
func readLongArrayTag(s *streamReader, d *ifd, tag uint16) []uint32 {
	ent, ok := d.find(tag)
	if !ok || ent.count == 0 {
		return nil
	}
	data, err := readValueBytes(s, 0, ent)
	if err != nil {
		return nil
	}
	v, err := decodeExifValue(exifType(ent.typ), int(ent.count), data, s.byteOrder)
	if err != nil {
		return nil
	}
	switch vv := v.(type) {
	case Longs:
		return vv
	case Shorts:
		out := make([]uint32, len(vv))
		for i, x := range vv {
			out[i] = uint32(x)
		}
		return out
	}
	return nil
}

// readShortArrayTag returns the values of a SHORT tag, or nil.
func readShortArrayTag(s *streamReader, d *ifd, tag uint16) []uint16 {
	ent, ok := d.find(tag)
	if !ok || ent.typ != uint16(exifTypeShort) || ent.count == 0 {
		return nil
	}
	data, err := readValueBytes(s, 0, ent)
	if err != nil {
		return nil
	}
	v, err := decodeExifValue(exifTypeShort, int(ent.count), data, s.byteOrder)
	if err != nil {
		return nil
	}
	return v.(Shorts)
}

// readDNGVersionTag reduces the 4-byte DNGVersion tag to a single word,
// 0x01000400 for 1.0.4.0. Returns 0 when absent.
func readDNGVersionTag(s *streamReader, d *ifd) uint32 {
	ent, ok := d.find(tagDNGVersion)
	if !ok || ent.typ != uint16(exifTypeByte) || ent.count < 4 {
		return 0
	}
	data, err := readValueBytes(s, 0, ent)
	if err != nil || len(data) < 4 {
		return 0
	}
	return uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
}

func firstLong(v []uint32) uint32 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

func firstShortDefault(v []uint16, def uint16) uint16 {
	if len(v) == 0 {
		return def
	}
	return v[0]
}
