// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// dimensions carries the raw raster size (the allocated stride and rows) and
// the active image area the decoders actually write.
type dimensions struct {
	rawWidth  int
	rawHeight int

	outputWidth  int
	outputHeight int
}

// sonyDecodeResult is a decoded mosaic plane: row-major u16 samples of size
// rawWidth*rawHeight, plus the sensor's full-scale code value.
type sonyDecodeResult struct {
	pixels     []uint16
	whiteLevel uint16
}

// The fixed Huffman specification of the legacy ARW encoding, each entry
// (codeLength << 8) | symbol.
var sonyARWHuffSpec = [18]uint16{
	0xf11, 0xf10, 0xe0f, 0xd0e, 0xc0d, 0xb0c,
	0xa0b, 0x90a, 0x809, 0x708, 0x607, 0x506,
	0x405, 0x304, 0x303, 0x300, 0x202, 0x201,
}

// The unpacked lookup is a pure function of the spec table, so build it once.
var sonyARWHuff = buildHuffTable(sonyARWHuffSpec[:])

// buildHuffTable unpacks a (codeLength << 8) | symbol spec into the flat
// lookup getHuff expects: index 0 holds the 15-bit peek width, and each pair
// occupies 32768 >> codeLength consecutive entries.
func buildHuffTable(spec []uint16) []uint16 {
	h := make([]uint16, 32770)
	h[0] = 15
	n := 0
	for _, w := range spec {
		for j := 0; j < 32768>>(w>>8); j++ {
			n++
			h[n] = w
		}
	}
	return h
}

// ljpegDiff decodes one differential value: a Huffman-coded bit length
// followed by that many magnitude bits, interpreted as a signed magnitude.
// A length of 16 is a -32768 sentinel unless an early DNG version asks for a
// plain 16-bit difference.
func ljpegDiff(b *bitReader, h []uint16, dngVersion uint32) (int32, error) {
	length := int(b.getHuff(h))
	if length == 16 && (dngVersion == 0 || dngVersion >= 0x01010000) {
		return -32768, nil
	}
	diff := int32(b.getBits(length))
	if b.exhausted() {
		return 0, newCorruptDataErrorf("bit stream exhausted")
	}
	if length > 0 && diff&(1<<(length-1)) == 0 {
		diff -= 1<<length - 1
	}
	return diff, nil
}

// sonyARWLoadRaw decodes the legacy Huffman/differential encoding. The scan
// order is column-major, right to left, even rows before odd rows; it matches
// the encoder's predictor and must not be reordered.
func sonyARWLoadRaw(r io.Reader, dims dimensions, zeroAfterFF bool, dngVersion uint32) (*sonyDecodeResult, error) {
	pix := make([]uint16, dims.rawWidth*dims.rawHeight)
	b := newBitReader(r, zeroAfterFF)

	var sum int32
	for col := dims.rawWidth - 1; col >= 0; col-- {
		for row := 0; row < dims.rawHeight+1; row += 2 {
			if row == dims.rawHeight {
				row = 1
			}
			diff, err := ljpegDiff(b, sonyARWHuff, dngVersion)
			if err != nil {
				return nil, err
			}
			sum += diff
			if sum>>12 != 0 {
				return nil, newCorruptDataErrorf("accumulator out of 12-bit range at column %d", col)
			}
			if row < dims.outputHeight {
				pix[row*dims.rawWidth+col] = uint16(sum)
			}
		}
	}

	return &sonyDecodeResult{pixels: pix, whiteLevel: 0x0fff}, nil
}

// sonyARW2LoadRaw decodes the block-packed encoding: one compressed row is
// exactly outputWidth bytes, split into 16-byte blocks of 16 pixels each.
func sonyARW2LoadRaw(r io.Reader, dims dimensions) (*sonyDecodeResult, error) {
	pix := make([]uint16, dims.rawWidth*dims.rawHeight)
	// Two bytes of slack: the last code word of a block may run past its 16
	// bytes. With imax == imin a block holds 15 code words and the last one
	// starts at bit 128, spanning the two bytes after the block.
	rowBuf := make([]byte, dims.outputWidth+2)
	var block [16]uint16

	for row := 0; row < dims.outputHeight; row++ {
		if _, err := io.ReadFull(r, rowBuf[:dims.outputWidth]); err != nil {
			return nil, errors.Wrapf(&CorruptDataError{Msg: "short compressed row"}, "arw2 row %d", row)
		}
		rowBuf[dims.outputWidth], rowBuf[dims.outputWidth+1] = 0, 0

		col := 0
		for dp := 0; dp+16 <= dims.outputWidth && col < dims.outputWidth; dp += 16 {
			header := binary.LittleEndian.Uint32(rowBuf[dp:])
			maxv := int(header & 0x7ff)
			minv := int(header >> 11 & 0x7ff)
			imax := int(header >> 22 & 0x0f)
			imin := int(header >> 26 & 0x0f)

			sh := 0
			for sh < 4 && 0x80<<sh <= maxv-minv {
				sh++
			}

			bit := 30
			for i := 0; i < 16; i++ {
				switch i {
				case imax:
					block[i] = uint16(maxv)
				case imin:
					block[i] = uint16(minv)
				default:
					idx := dp + bit>>3
					code := int(uint32(rowBuf[idx])|uint32(rowBuf[idx+1])<<8) >> (bit & 7) & 0x7f
					block[i] = uint16(code<<sh + minv)
					bit += 7
				}
			}

			n := min(16, dims.outputWidth-col)
			copy(pix[row*dims.rawWidth+col:], block[:n])
			col += n
		}
	}

	return &sonyDecodeResult{pixels: pix, whiteLevel: 0x3fff}, nil
}

// sonyUncompressed14LoadRaw decodes 14-bit samples stored as little-endian
// 16-bit words.
func sonyUncompressed14LoadRaw(r io.Reader, dims dimensions) (*sonyDecodeResult, error) {
	pix := make([]uint16, dims.rawWidth*dims.rawHeight)
	rowBuf := make([]byte, 2*dims.outputWidth)

	for row := 0; row < dims.outputHeight; row++ {
		if _, err := io.ReadFull(r, rowBuf); err != nil {
			return nil, errors.Wrapf(&CorruptDataError{Msg: "short uncompressed row"}, "row %d", row)
		}
		base := row * dims.rawWidth
		for col := 0; col < dims.outputWidth; col++ {
			pix[base+col] = binary.LittleEndian.Uint16(rowBuf[2*col:])
		}
	}

	return &sonyDecodeResult{pixels: pix, whiteLevel: 0x3fff}, nil
}

// readConcatenatedStrips reads every (offset, byteCount) strip in order into
// one contiguous buffer.
func readConcatenatedStrips(r io.ReadSeeker, offsets, byteCounts []int64) ([]byte, error) {
	if len(offsets) != len(byteCounts) {
		return nil, newCorruptDataErrorf("strip offsets and byte counts differ in length")
	}
	var total int64
	for _, c := range byteCounts {
		if c < 0 || total > math.MaxInt64-c {
			return nil, newCorruptDataErrorf("strip sizes overflow")
		}
		total += c
	}

	buf := make([]byte, total)
	var pos int64
	for i, off := range offsets {
		if _, err := r.Seek(off, io.SeekStart); err != nil {
			return nil, errors.Wrapf(err, "seeking strip %d", i)
		}
		if _, err := io.ReadFull(r, buf[pos:pos+byteCounts[i]]); err != nil {
			return nil, errors.Wrapf(err, "reading strip %d", i)
		}
		pos += byteCounts[i]
	}
	return buf, nil
}
