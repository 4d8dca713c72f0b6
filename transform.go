// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import (
	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

// autoRotate applies the EXIF Orientation tag (0x0112) to a rendered RGB8
// buffer.
//
// Orientation 6 swaps the output dimensions without touching the buffer;
// consumers treat the buffer as pre-rotated. Orientation 8 materializes a
// quarter-turn rotation and then swaps. Every other value leaves the buffer
// as-is.
func autoRotate(ctx *ExifContext, rgb []byte, dims *dimensions) []byte {
	switch ctx.orientation() {
	case 6:
		log.Debug().Msg("applying 90-degree rotation from EXIF")
		dims.outputWidth, dims.outputHeight = dims.outputHeight, dims.outputWidth
		return rgb
	case 8:
		log.Debug().Msg("applying 270-degree rotation from EXIF")
		img := rgbToNRGBA(rgb, dims.outputWidth, dims.outputHeight)
		rotated := imaging.Rotate90(img)
		dims.outputWidth, dims.outputHeight = dims.outputHeight, dims.outputWidth
		out, _, _ := toRGB8(rotated)
		return out
	default:
		return rgb
	}
}

// Resize resamples the image to the given dimensions with a Lanczos filter.
// The receiver is consumed: it is closed whether or not resampling succeeds,
// and the returned image owns a fresh buffer.
func (img *Image) Resize(width, height int) (*Image, error) {
	defer img.Close()

	log.Debug().
		Int("from_width", img.width).Int("from_height", img.height).
		Int("to_width", width).Int("to_height", height).
		Msg("scaling image")

	src := rgbToNRGBA(img.pixels, img.width, img.height)
	resized := imaging.Resize(src, width, height, imaging.Lanczos)
	rgb, w, h := toRGB8(resized)

	return newImage(rgb, w, h, img.exif), nil
}
