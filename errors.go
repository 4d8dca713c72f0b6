// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when the leading file bytes match none
	// of the known container signatures.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrPDFNotEnabled is returned when a PDF is loaded and no PDF engine has
	// been registered via RegisterPDFRenderer.
	ErrPDFNotEnabled = errors.New("PDF support not enabled")

	// errInvalidFormat is used when the container structure is invalid.
	errInvalidFormat = &InvalidFormatError{errors.New("invalid format")}
)

// IsInvalidFormat reports whether the error was an InvalidFormatError.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, errInvalidFormat)
}

// InvalidFormatError is used when the container structure is invalid: a bad
// JPEG marker, a PNG signature mismatch, a TIFF header without the magic word.
type InvalidFormatError struct {
	Err error
}

func (e *InvalidFormatError) Error() string {
	return "invalid format: " + e.Err.Error()
}

// Is reports whether the target error is an InvalidFormatError.
func (e *InvalidFormatError) Is(target error) bool {
	_, ok := target.(*InvalidFormatError)
	return ok
}

func newInvalidFormatErrorf(format string, args ...any) error {
	return &InvalidFormatError{fmt.Errorf(format, args...)}
}

func newInvalidFormatError(err error) error {
	return &InvalidFormatError{err}
}

// IsCorruptData reports whether the error was a CorruptDataError.
func IsCorruptData(err error) bool {
	var cerr *CorruptDataError
	return errors.As(err, &cerr)
}

// CorruptDataError is used when a decoder detects data that violates the
// format's own accounting: a differential accumulator leaving its coded
// range, a compressed stream shorter than the raster it describes.
type CorruptDataError struct {
	Msg string
}

func (e *CorruptDataError) Error() string {
	return "corrupt data: " + e.Msg
}

func newCorruptDataErrorf(format string, args ...any) error {
	return &CorruptDataError{Msg: fmt.Sprintf(format, args...)}
}

// UnsupportedVariantError is returned when a TIFF file carries a Sony raw
// plane whose geometry matches none of the known encodings.
type UnsupportedVariantError struct {
	Variant SonyVariant
}

func (e *UnsupportedVariantError) Error() string {
	return fmt.Sprintf("unsupported Sony RAW variant: %s", e.Variant)
}

// UnsupportedPatternError is returned for Bayer patterns the demosaic engine
// does not implement.
type UnsupportedPatternError struct {
	Pattern BayerPattern
}

func (e *UnsupportedPatternError) Error() string {
	return fmt.Sprintf("unsupported Bayer pattern: %d", int(e.Pattern))
}
