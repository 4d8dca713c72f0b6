// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

// Package agno loads camera images from disk and renders them to displayable
// RGB rasters together with their parsed metadata.
//
// Standard containers (JPEG, PNG, WebP) are delegated to the usual codecs.
// Sony ARW files are decoded natively: the TIFF directory tree is walked to
// locate the raw mosaic plane, one of three decompressors reconstructs the
// 16-bit samples, and a bilinear demosaic with white balance and tone mapping
// produces the final image.
package agno

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type imageFormat int

const (
	formatUnknown imageFormat = iota
	formatJPEG
	formatPNG
	formatWebP
	formatPDF
	formatTIFF
)

func (f imageFormat) String() string {
	switch f {
	case formatJPEG:
		return "jpeg"
	case formatPNG:
		return "png"
	case formatWebP:
		return "webp"
	case formatPDF:
		return "pdf"
	case formatTIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// detectFormat sniffs the first two bytes of the stream.
func detectFormat(r io.ReadSeeker) (imageFormat, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return formatUnknown, err
	}
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return formatUnknown, err
	}

	switch {
	case b[0] == 0xff && b[1] == 0xd8:
		return formatJPEG, nil
	case b[0] == 0x89 && b[1] == 'P':
		return formatPNG, nil
	case b[0] == 'R' && b[1] == 'I':
		return formatWebP, nil
	case b[0] == 0x25 && b[1] == 0x50:
		return formatPDF, nil
	case b[0] == 'I' && b[1] == 'I', b[0] == 'M' && b[1] == 'M':
		return formatTIFF, nil
	default:
		return formatUnknown, ErrUnsupportedFormat
	}
}

// Image is a loaded image: a tightly packed RGB8 buffer plus the metadata it
// was extracted with. Lifecycle is explicit: created by Load, optionally
// passed through Resize, released by Close.
type Image struct {
	pixels []byte
	width  int
	height int
	exif   *ExifContext
}

func newImage(pixels []byte, width, height int, exif *ExifContext) *Image {
	return &Image{
		pixels: pixels,
		width:  width,
		height: height,
		exif:   exif,
	}
}

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.width }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.height }

// Pixels returns the RGB8 buffer, row-major with no padding.
func (img *Image) Pixels() []byte { return img.pixels }

// Exif returns the metadata context the image was loaded with.
func (img *Image) Exif() *ExifContext { return img.exif }

// ExifValue returns the typed metadata value for a tag number.
func (img *Image) ExifValue(tag uint16) (ExifValue, bool) {
	return img.exif.Value(tag)
}

// Close releases the pixel buffer. The image must not be used afterwards.
func (img *Image) Close() {
	img.pixels = nil
	img.width = 0
	img.height = 0
}

var initOnce sync.Once

// Init configures the process logger. Safe to call more than once; only the
// first call takes effect.
func Init() {
	initOnce.Do(func() {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		log.Info().Msg("agno initialized")
	})
}

// Load reads the file at path and renders it to RGB8: container detection,
// metadata extraction, pixel decode, demosaic for raw files, and orientation
// correction.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format, err := detectFormat(f)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Stringer("format", format).Msg("loading image")

	exif, err := exifForFormat(f, format)
	if err != nil {
		return nil, err
	}

	switch format {
	case formatJPEG, formatPNG, formatWebP:
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		rgb, w, h, err := decodeStandard(f, format)
		if err != nil {
			return nil, err
		}
		return newImage(rgb, w, h, exif), nil
	case formatPDF:
		return loadPDF(path, exif)
	case formatTIFF:
		det, err := detectSonyRaw(f)
		if err != nil {
			return nil, err
		}
		return loadSonyRaw(det, f, exif)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// loadSonyRaw runs the raw half of the pipeline: strips, variant decode,
// demosaic, orientation.
func loadSonyRaw(det *rawDetectResult, f io.ReadSeeker, exif *ExifContext) (*Image, error) {
	dims := dimensions{
		rawWidth:     int(det.raw.width),
		rawHeight:    int(det.raw.height),
		outputWidth:  int(det.raw.width),
		outputHeight: int(det.raw.height),
	}

	// Read the strips into memory once. Most ARW files are single-strip, but
	// this handles multi-strip files too.
	buf, err := readConcatenatedStrips(f, det.raw.stripOffsets, det.raw.stripByteCounts)
	if err != nil {
		return nil, err
	}

	var decoded *sonyDecodeResult
	switch det.variant {
	case VariantARW2Compressed:
		decoded, err = sonyARW2LoadRaw(bytes.NewReader(buf), dims)
	case VariantARWLJpeg:
		// The legacy decoder scans 8 rows of scratch space past the image.
		dims.rawHeight += 8
		decoded, err = sonyARWLoadRaw(bytes.NewReader(buf), dims, true, det.raw.dngVersion)
	case VariantUncompressed14:
		decoded, err = sonyUncompressed14LoadRaw(bytes.NewReader(buf), dims)
	default:
		return nil, &UnsupportedVariantError{Variant: det.variant}
	}
	if err != nil {
		return nil, errors.Wrap(err, "decoding Sony raw")
	}

	blackLevel, wb, gamma := demosaicDefaults(exif)

	rgb, err := demosaicBilinearToRGB8(decoded.pixels, dims, PatternRGGB, blackLevel, decoded.whiteLevel, wb, gamma)
	if err != nil {
		return nil, err
	}

	rgb = autoRotate(exif, rgb, &dims)

	return newImage(rgb, dims.outputWidth, dims.outputHeight, exif), nil
}

// demosaicDefaults resolves the render tunables from metadata: black level
// from the Sony BlackLevel tag, gains from WB_RGGBLevels divided by 1000 with
// the second green channel dropped.
func demosaicDefaults(exif *ExifContext) (blackLevel uint16, wb [3]float32, gamma float32) {
	blackLevel = 512
	if v, ok := exif.Value(tagSonyBlackLevel); ok {
		if ss, ok := v.(Shorts); ok && len(ss) > 0 {
			blackLevel = ss[0]
		}
	}

	wb = [3]float32{1, 1, 1}
	if v, ok := exif.Value(tagSonyWBRGGB); ok {
		if ss, ok := v.(Shorts); ok && len(ss) >= 4 {
			wb = [3]float32{
				float32(ss[0]) / 1000,
				float32(ss[1]) / 1000,
				float32(ss[3]) / 1000,
			}
		}
	}

	return blackLevel, wb, 2.2
}
