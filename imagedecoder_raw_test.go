// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import (
	"bytes"
	"encoding/binary"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestClassifyARW2Compressed(t *testing.T) {
	c := qt.New(t)

	// 16x1 plane, compression 32767, strip bytes == pixels.
	b := buildARW(16, 1, 14, 32767, "SONY", make([]byte, 16))

	det, err := detectSonyRaw(bytes.NewReader(b))
	c.Assert(err, qt.IsNil)
	c.Assert(det.variant, qt.Equals, VariantARW2Compressed)
	c.Assert(det.raw.isSony, qt.IsTrue)
	c.Assert(det.raw.make, qt.Equals, "SONY")
}

func TestClassifyUncompressed14Under32767(t *testing.T) {
	c := qt.New(t)

	// Same geometry but strip bytes == 2x pixels.
	b := buildARW(16, 1, 14, 32767, "SONY", make([]byte, 32))

	det, err := detectSonyRaw(bytes.NewReader(b))
	c.Assert(err, qt.IsNil)
	c.Assert(det.variant, qt.Equals, VariantUncompressed14)
}

func TestClassifyUncompressed14Plain(t *testing.T) {
	c := qt.New(t)

	b := buildARW(16, 2, 14, 1, "Sony ILCE-7", make([]byte, 64))

	det, err := detectSonyRaw(bytes.NewReader(b))
	c.Assert(err, qt.IsNil)
	c.Assert(det.variant, qt.Equals, VariantUncompressed14)
}

func TestClassifyARWLJpeg(t *testing.T) {
	c := qt.New(t)

	// Compression 32767 with a payload matching neither packed geometry nor
	// the reported bits-per-sample.
	b := buildARW(16, 1, 14, 32767, "SONY", make([]byte, 10))

	det, err := detectSonyRaw(bytes.NewReader(b))
	c.Assert(err, qt.IsNil)
	c.Assert(det.variant, qt.Equals, VariantARWLJpeg)
}

func TestClassifyUnknownForeignMake(t *testing.T) {
	c := qt.New(t)

	// Uncompressed geometry but not a Sony file.
	b := buildARW(16, 1, 14, 1, "CANON", make([]byte, 32))

	det, err := detectSonyRaw(bytes.NewReader(b))
	c.Assert(err, qt.IsNil)
	c.Assert(det.variant, qt.Equals, VariantUnknown)
	c.Assert(det.raw.isSony, qt.IsFalse)
}

func TestClassifyDNGCollected(t *testing.T) {
	c := qt.New(t)

	// With a DNG version present and bytes == pixels under 32767, the
	// packed-variant branches are off and the geometry matches the reported
	// 8 bits per sample, so no variant fits.
	b := buildARW(16, 1, 8, 32767, "SONY", make([]byte, 16),
		byteEntry(tagDNGVersion, []byte{1, 4, 0, 0}),
	)

	det, err := detectSonyRaw(bytes.NewReader(b))
	c.Assert(err, qt.IsNil)
	c.Assert(det.raw.dngVersion, qt.Equals, uint32(0x01040000))
	c.Assert(det.variant, qt.Equals, VariantUnknown)
}

func TestDetectRejectsInterleaved(t *testing.T) {
	c := qt.New(t)

	le := binary.LittleEndian
	entries := []tiffEntry{
		longEntry(le, tagImageWidth, 16),
		longEntry(le, tagImageHeight, 1),
		shortEntry(le, tagCompression, 1),
		longEntry(le, tagStripOffsets, 0),
		shortEntry(le, tagSamplesPerPixel, 3),
		longEntry(le, tagStripByteCounts, 48),
	}
	b := buildTIFF(le, entries, nil)

	_, err := detectSonyRaw(bytes.NewReader(b))
	c.Assert(IsCorruptData(err), qt.IsTrue)
}

func TestDetectNoRawIFD(t *testing.T) {
	c := qt.New(t)

	le := binary.LittleEndian
	b := buildTIFF(le, []tiffEntry{shortEntry(le, tagOrientation, 1)}, nil)

	_, err := detectSonyRaw(bytes.NewReader(b))
	c.Assert(IsCorruptData(err), qt.IsTrue)
}

// The IFD with the largest strip payload wins; a chained IFD can outrank
// IFD0.
func TestDetectLargestPayloadWins(t *testing.T) {
	c := qt.New(t)

	le := binary.LittleEndian

	// IFD0: a small 4x1 plane.
	entries := []tiffEntry{
		longEntry(le, tagImageWidth, 4),
		longEntry(le, tagImageHeight, 1),
		shortEntry(le, tagCompression, 1),
		asciiEntry(tagMake, "SONY"),
		longEntry(le, tagStripOffsets, 0),
		shortEntry(le, tagSamplesPerPixel, 1),
		longEntry(le, tagStripByteCounts, 8),
	}
	b := buildTIFF(le, entries, nil)

	// Chain a second IFD describing a 16x1 uncompressed plane.
	secondOff := uint32(len(b))
	second := []tiffEntry{
		longEntry(le, tagImageWidth, 16),
		longEntry(le, tagImageHeight, 1),
		shortEntry(le, tagCompression, 1),
		longEntry(le, tagStripOffsets, 0),
		shortEntry(le, tagSamplesPerPixel, 1),
		longEntry(le, tagStripByteCounts, 32),
	}
	b = append(b, rawIFDBytes(le, second)...)

	// Patch IFD0's next-IFD pointer (it sits right after the entries).
	nextPos := 8 + 2 + 12*len(entries)
	le.PutUint32(b[nextPos:], secondOff)

	det, err := detectSonyRaw(bytes.NewReader(b))
	c.Assert(err, qt.IsNil)
	c.Assert(det.raw.width, qt.Equals, uint32(16))
	c.Assert(det.raw.totalBytes, qt.Equals, int64(32))
	c.Assert(det.variant, qt.Equals, VariantUncompressed14)
	// Make from IFD0 still applies to the winning IFD.
	c.Assert(det.raw.isSony, qt.IsTrue)
}

// rawIFDBytes encodes a directory with inline-only entries and a zero
// next-IFD pointer.
func rawIFDBytes(order binary.ByteOrder, entries []tiffEntry) []byte {
	dir := make([]byte, 2+12*len(entries)+4)
	order.PutUint16(dir, uint16(len(entries)))
	for i, e := range entries {
		p := dir[2+12*i:]
		order.PutUint16(p, e.tag)
		order.PutUint16(p[2:], e.typ)
		order.PutUint32(p[4:], e.count)
		copy(p[8:12], e.data)
	}
	return dir
}
