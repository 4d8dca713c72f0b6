// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/rwcarlsen/goexif/exif"
)

func writeTempFile(t *testing.T, name string, b []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// uncompressedARWBytes builds a complete uncompressed-14 ARW file: uniform
// samples, black level pinned to zero through the Sony tag.
func uncompressedARWBytes(width, height uint32, sample uint16, extra ...tiffEntry) []byte {
	le := binary.LittleEndian
	payload := make([]byte, 2*width*height)
	for i := 0; i < len(payload); i += 2 {
		le.PutUint16(payload[i:], sample)
	}
	entries := append([]tiffEntry{shortEntry(le, tagSonyBlackLevel, 0)}, extra...)
	return buildARW(width, height, 14, 1, "SONY", payload, entries...)
}

func TestLoadUncompressedARW(t *testing.T) {
	c := qt.New(t)

	path := writeTempFile(t, "test.arw", uncompressedARWBytes(8, 4, 0x2000))

	img, err := Load(path)
	c.Assert(err, qt.IsNil)
	defer img.Close()

	c.Assert(img.Width(), qt.Equals, 8)
	c.Assert(img.Height(), qt.Equals, 4)
	c.Assert(len(img.Pixels()), qt.Equals, 8*4*3)

	// A uniform mosaic renders a uniform gray.
	first := img.Pixels()[0]
	c.Assert(first, qt.Not(qt.Equals), uint8(0))
	for i, v := range img.Pixels() {
		c.Assert(v, qt.Equals, first, qt.Commentf("byte %d", i))
	}

	// The metadata rides along with the image.
	mk, ok := img.ExifValue(tagMake)
	c.Assert(ok, qt.IsTrue)
	c.Assert(mk, qt.DeepEquals, ExifValue(ASCII("SONY")))
}

func TestLoadARWWithOrientation(t *testing.T) {
	c := qt.New(t)

	le := binary.LittleEndian
	b := uncompressedARWBytes(8, 4, 0x2000, shortEntry(le, tagOrientation, 6))
	path := writeTempFile(t, "rotated.arw", b)

	img, err := Load(path)
	c.Assert(err, qt.IsNil)
	defer img.Close()

	// Orientation 6 swaps the reported dimensions.
	c.Assert(img.Width(), qt.Equals, 4)
	c.Assert(img.Height(), qt.Equals, 8)
}

func TestLoadARW2EndToEnd(t *testing.T) {
	c := qt.New(t)

	// 16x2 block-packed plane: one byte per pixel, all-zero blocks decode to
	// an all-zero mosaic, which renders black.
	path := writeTempFile(t, "packed.arw", buildARW(16, 2, 14, 32767, "SONY", make([]byte, 32)))

	img, err := Load(path)
	c.Assert(err, qt.IsNil)
	defer img.Close()

	c.Assert(img.Width(), qt.Equals, 16)
	c.Assert(img.Height(), qt.Equals, 2)
	for i, v := range img.Pixels() {
		c.Assert(v, qt.Equals, uint8(0), qt.Commentf("byte %d", i))
	}
}

func TestLoadUnsupportedVariant(t *testing.T) {
	c := qt.New(t)

	// A well-formed raw IFD that matches no Sony encoding.
	path := writeTempFile(t, "foreign.tif", buildARW(16, 1, 14, 1, "CANON", make([]byte, 32)))

	_, err := Load(path)
	var verr *UnsupportedVariantError
	c.Assert(err, qt.ErrorAs, &verr)
	c.Assert(verr.Variant, qt.Equals, VariantUnknown)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	c := qt.New(t)

	path := writeTempFile(t, "noise.bin", []byte{0x47, 0x41, 0x00, 0x00})

	_, err := Load(path)
	c.Assert(err, qt.Equals, ErrUnsupportedFormat)
}

func TestLoadPDFWithoutRenderer(t *testing.T) {
	c := qt.New(t)

	path := writeTempFile(t, "doc.pdf", []byte("%PDF-1.4\n"))

	_, err := Load(path)
	c.Assert(err, qt.Equals, ErrPDFNotEnabled)
}

func TestLoadPNGRoundTrip(t *testing.T) {
	c := qt.New(t)

	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(40 * x), G: uint8(90 * y), B: 7, A: 255})
		}
	}
	var buf bytes.Buffer
	c.Assert(png.Encode(&buf, src), qt.IsNil)
	path := writeTempFile(t, "tiny.png", buf.Bytes())

	img, err := Load(path)
	c.Assert(err, qt.IsNil)
	defer img.Close()

	c.Assert(img.Width(), qt.Equals, 3)
	c.Assert(img.Height(), qt.Equals, 2)
	c.Assert(img.Pixels()[0:3], qt.DeepEquals, []byte{0, 0, 7})
	c.Assert(img.Pixels()[3:6], qt.DeepEquals, []byte{40, 0, 7})

	// The PNG path extracts the IHDR dimensions as metadata.
	w, ok := img.ExifValue(tagImageWidth)
	c.Assert(ok, qt.IsTrue)
	c.Assert(w, qt.DeepEquals, ExifValue(Longs{3}))
}

func TestResizeConsumesReceiver(t *testing.T) {
	c := qt.New(t)

	path := writeTempFile(t, "resize.arw", uncompressedARWBytes(8, 4, 0x2000))
	img, err := Load(path)
	c.Assert(err, qt.IsNil)

	resized, err := img.Resize(4, 2)
	c.Assert(err, qt.IsNil)
	defer resized.Close()

	c.Assert(resized.Width(), qt.Equals, 4)
	c.Assert(resized.Height(), qt.Equals, 2)
	c.Assert(len(resized.Pixels()), qt.Equals, 4*2*3)

	// The old handle is dead; the metadata carried over.
	c.Assert(img.Pixels(), qt.IsNil)
	_, ok := resized.ExifValue(tagMake)
	c.Assert(ok, qt.IsTrue)
}

// The EXIF parsed from a synthetic JPEG agrees with an independent reader.
func TestExifMatchesGoexif(t *testing.T) {
	c := qt.New(t)

	le := binary.LittleEndian
	tiff := buildTIFF(le, []tiffEntry{
		asciiEntry(tagMake, "SONY"),
		shortEntry(le, tagOrientation, 6),
	}, nil)
	jpg := buildJPEGWithExif(tiff)

	ctx, err := ExifFromReader(bytes.NewReader(jpg))
	c.Assert(err, qt.IsNil)
	v, _ := ctx.Value(tagOrientation)
	c.Assert(v, qt.DeepEquals, ExifValue(Shorts{6}))

	x, err := exif.Decode(bytes.NewReader(jpg))
	c.Assert(err, qt.IsNil)
	tag, err := x.Get(exif.Orientation)
	c.Assert(err, qt.IsNil)
	o, err := tag.Int(0)
	c.Assert(err, qt.IsNil)
	c.Assert(o, qt.Equals, 6)

	maker, err := x.Get(exif.Make)
	c.Assert(err, qt.IsNil)
	s, _ := maker.StringVal()
	c.Assert(s, qt.Equals, "SONY")
}

func TestInitIdempotent(t *testing.T) {
	Init()
	Init()
}
