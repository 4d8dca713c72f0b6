// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import (
	"io"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
)

// Encoded WebP quality is fixed.
const webpQuality = 90

// EncodeWebP writes the image as lossy WebP at quality 90.
func (img *Image) EncodeWebP(w io.Writer) error {
	m := rgbToNRGBA(img.pixels, img.width, img.height)
	if err := webp.Encode(w, m, &webp.Options{Quality: webpQuality}); err != nil {
		return errors.Wrap(err, "encoding webp")
	}
	return nil
}
