// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BayerPattern is the 2x2 color layout of the sensor mosaic.
type BayerPattern int

// PatternRGGB is the only implemented pattern: R at (0,0), G at (0,1) and
// (1,0), B at (1,1).
const PatternRGGB BayerPattern = iota

type cfaColor uint8

const (
	cfaRed cfaColor = iota
	cfaGreen
	cfaBlue
)

func cfaColorAt(row, col int) cfaColor {
	switch (row&1)<<1 | col&1 {
	case 0b00:
		return cfaRed
	case 0b01, 0b10:
		return cfaGreen
	default:
		return cfaBlue
	}
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// sampleWB returns the black-subtracted, normalized, white-balance-scaled
// sample at (row, col) as a linear float.
func sampleWB(raw []uint16, row, col, stride int, black uint16, invRange float32, wb [3]float32) float32 {
	v := raw[row*stride+col]
	if v < black {
		v = black
	}
	return float32(v-black) * invRange * wb[cfaColorAt(row, col)]
}

func toneU8(v float32, invGamma float64) uint8 {
	n := float64(v)
	if n < 0 {
		n = 0
	} else if n > 1 {
		n = 1
	}
	return uint8(math.Floor(math.Pow(n, invGamma)*255 + 0.5))
}

// demosaicBilinearToRGB8 reconstructs an RGB8 raster from a Bayer mosaic by
// bilinear interpolation, with white balance applied before interpolation.
//
// raw is the mosaic with stride dims.rawWidth; dims.outputWidth/Height is the
// rendered area. whiteLevel is the sensor's full-scale code value, wb the
// [R, G, B] gains. Output rows are independent and computed in parallel.
func demosaicBilinearToRGB8(raw []uint16, dims dimensions, pattern BayerPattern, blackLevel, whiteLevel uint16, wb [3]float32, gamma float32) ([]byte, error) {
	if pattern != PatternRGGB {
		return nil, &UnsupportedPatternError{Pattern: pattern}
	}

	w := dims.outputWidth
	h := dims.outputHeight
	stride := dims.rawWidth

	rng := int(whiteLevel) - int(blackLevel)
	if rng < 1 {
		rng = 1
	}
	invRange := 1 / float32(rng)

	invGamma := 1 / math.Max(float64(gamma), 0.001)

	out := make([]byte, w*h*3)

	demosaicRow := func(row int) {
		outRow := out[row*w*3 : (row+1)*w*3]
		y0 := clampInt(row-1, 0, h-1)
		y2 := clampInt(row+1, 0, h-1)

		for x := 0; x < w; x++ {
			x0 := clampInt(x-1, 0, w-1)
			x2 := clampInt(x+1, 0, w-1)

			here := sampleWB(raw, row, x, stride, blackLevel, invRange, wb)
			up := sampleWB(raw, y0, x, stride, blackLevel, invRange, wb)
			down := sampleWB(raw, y2, x, stride, blackLevel, invRange, wb)
			left := sampleWB(raw, row, x0, stride, blackLevel, invRange, wb)
			right := sampleWB(raw, row, x2, stride, blackLevel, invRange, wb)

			var r, g, b float32
			switch cfaColorAt(row, x) {
			case cfaRed:
				ul := sampleWB(raw, y0, x0, stride, blackLevel, invRange, wb)
				ur := sampleWB(raw, y0, x2, stride, blackLevel, invRange, wb)
				dl := sampleWB(raw, y2, x0, stride, blackLevel, invRange, wb)
				dr := sampleWB(raw, y2, x2, stride, blackLevel, invRange, wb)

				r = here
				g = (up + down + left + right) * 0.25
				b = (ul + ur + dl + dr) * 0.25
			case cfaBlue:
				ul := sampleWB(raw, y0, x0, stride, blackLevel, invRange, wb)
				ur := sampleWB(raw, y0, x2, stride, blackLevel, invRange, wb)
				dl := sampleWB(raw, y2, x0, stride, blackLevel, invRange, wb)
				dr := sampleWB(raw, y2, x2, stride, blackLevel, invRange, wb)

				b = here
				g = (up + down + left + right) * 0.25
				r = (ul + ur + dl + dr) * 0.25
			case cfaGreen:
				// The channel lying horizontally around this G site decides
				// which average feeds R and which feeds B.
				hval := (left + right) * 0.5
				vval := (up + down) * 0.5
				g = here
				if cfaColorAt(row, x^1) == cfaRed {
					r, b = hval, vval
				} else {
					r, b = vval, hval
				}
			}

			if r < 0 {
				r = 0
			}
			if g < 0 {
				g = 0
			}
			if b < 0 {
				b = 0
			}

			o := x * 3
			outRow[o] = toneU8(r, invGamma)
			outRow[o+1] = toneU8(g, invGamma)
			outRow[o+2] = toneU8(b, invGamma)
		}
	}

	var eg errgroup.Group
	workers := runtime.GOMAXPROCS(0)
	rowsPer := (h + workers - 1) / workers
	for start := 0; start < h; start += rowsPer {
		start, end := start, min(start+rowsPer, h)
		eg.Go(func() error {
			for row := start; row < end; row++ {
				demosaicRow(row)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
