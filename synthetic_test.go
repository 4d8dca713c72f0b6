// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import (
	"encoding/binary"
)

// Helpers to assemble synthetic TIFF, JPEG and ARW byte streams for tests.

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte // typed payload, already in file byte order
	// forceOffset stores the payload out-of-line even when it fits inline.
	forceOffset bool
}

func shortEntry(order binary.ByteOrder, tag uint16, vals ...uint16) tiffEntry {
	data := make([]byte, 2*len(vals))
	for i, v := range vals {
		order.PutUint16(data[2*i:], v)
	}
	return tiffEntry{tag: tag, typ: 3, count: uint32(len(vals)), data: data}
}

func longEntry(order binary.ByteOrder, tag uint16, vals ...uint32) tiffEntry {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		order.PutUint32(data[4*i:], v)
	}
	return tiffEntry{tag: tag, typ: 4, count: uint32(len(vals)), data: data}
}

func asciiEntry(tag uint16, s string) tiffEntry {
	data := append([]byte(s), 0)
	return tiffEntry{tag: tag, typ: 2, count: uint32(len(data)), data: data}
}

func byteEntry(tag uint16, b []byte) tiffEntry {
	return tiffEntry{tag: tag, typ: 1, count: uint32(len(b)), data: b}
}

func undefinedEntry(tag uint16, b []byte) tiffEntry {
	return tiffEntry{tag: tag, typ: 7, count: uint32(len(b)), data: b}
}

// tiffTailOffset returns the file offset at which buildTIFF will place the
// tail payload, given the same entry list.
func tiffTailOffset(entries []tiffEntry) uint32 {
	off := uint32(8 + 2 + 12*len(entries) + 4)
	for _, e := range entries {
		if len(e.data) > 4 || e.forceOffset {
			off += uint32(len(e.data))
		}
	}
	return off
}

// buildTIFF assembles a single-IFD TIFF: 8-byte header, the directory at
// offset 8, out-of-line values, then the tail payload (typically strip data).
func buildTIFF(order binary.ByteOrder, entries []tiffEntry, tail []byte) []byte {
	var header [8]byte
	if order == binary.LittleEndian {
		copy(header[:], "II")
	} else {
		copy(header[:], "MM")
	}
	order.PutUint16(header[2:], 42)
	order.PutUint32(header[4:], 8)

	ifdLen := 2 + 12*len(entries) + 4
	dataOff := uint32(8 + ifdLen)

	dir := make([]byte, ifdLen)
	order.PutUint16(dir, uint16(len(entries)))
	var overflow []byte
	for i, e := range entries {
		p := dir[2+12*i:]
		order.PutUint16(p, e.tag)
		order.PutUint16(p[2:], e.typ)
		order.PutUint32(p[4:], e.count)
		if len(e.data) > 4 || e.forceOffset {
			order.PutUint32(p[8:], dataOff+uint32(len(overflow)))
			overflow = append(overflow, e.data...)
		} else {
			copy(p[8:12], e.data)
		}
	}
	// next-IFD offset stays 0.

	out := append(header[:], dir...)
	out = append(out, overflow...)
	return append(out, tail...)
}

// buildJPEGWithExif wraps a TIFF structure in a minimal JPEG: SOI, one APP1
// Exif segment, EOI.
func buildJPEGWithExif(tiff []byte) []byte {
	segLen := 2 + 6 + len(tiff)
	out := []byte{0xff, 0xd8, 0xff, 0xe1, byte(segLen >> 8), byte(segLen)}
	out = append(out, []byte("Exif\x00\x00")...)
	out = append(out, tiff...)
	return append(out, 0xff, 0xd9)
}

// buildPNGHeader builds the PNG signature plus an IHDR payload declaring the
// given dimensions. Enough for metadata extraction; not a decodable PNG.
func buildPNGHeader(width, height uint32) []byte {
	out := make([]byte, 0, 24)
	out = append(out, pngSignature...)
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[:], width)
	binary.BigEndian.PutUint32(dims[4:], height)
	return append(out, dims[:]...)
}

// buildARW assembles a little-endian Sony raw TIFF: the geometry entries, a
// single strip holding payload, and any extra entries.
func buildARW(width, height uint32, bps, compression uint16, maker string, payload []byte, extra ...tiffEntry) []byte {
	le := binary.LittleEndian
	entries := []tiffEntry{
		longEntry(le, tagImageWidth, width),
		longEntry(le, tagImageHeight, height),
		shortEntry(le, tagBitsPerSample, bps),
		shortEntry(le, tagCompression, compression),
		asciiEntry(tagMake, maker),
		longEntry(le, tagStripOffsets, 0), // patched below
		shortEntry(le, tagSamplesPerPixel, 1),
		longEntry(le, tagStripByteCounts, uint32(len(payload))),
	}
	entries = append(entries, extra...)
	stripOff := tiffTailOffset(entries)
	for i := range entries {
		if entries[i].tag == tagStripOffsets {
			le.PutUint32(entries[i].data, stripOff)
		}
	}
	return buildTIFF(le, entries, payload)
}
