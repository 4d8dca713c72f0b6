// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import (
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/image/webp"
)

// decodeStandard delegates JPEG, PNG and WebP pixel decoding to the standard
// codecs and repacks the result as RGB8.
func decodeStandard(r io.Reader, format imageFormat) ([]byte, int, int, error) {
	var (
		img image.Image
		err error
	)
	switch format {
	case formatJPEG:
		img, err = jpeg.Decode(r)
	case formatPNG:
		img, err = png.Decode(r)
	case formatWebP:
		img, err = webp.Decode(r)
	default:
		return nil, 0, 0, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "decoding image")
	}

	rgb, w, h := toRGB8(img)
	return rgb, w, h, nil
}

// toRGB8 flattens any image into a tightly packed RGB8 buffer.
func toRGB8(img image.Image) ([]byte, int, int) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	nrgba, ok := img.(*image.NRGBA)
	if !ok || !nrgba.Rect.Min.Eq(image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	}

	rgb := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		dst := rgb[y*w*3:]
		for x := 0; x < w; x++ {
			dst[x*3] = src[x*4]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return rgb, w, h
}

// rgbToNRGBA expands a tightly packed RGB8 buffer into an NRGBA image.
func rgbToNRGBA(rgb []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := rgb[y*w*3 : (y+1)*w*3]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			dst[x*4] = src[x*3]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 0xff
		}
	}
	return img
}
