// Copyright 2025 Ethan Rous
// SPDX-License-Identifier: MIT

package agno

// PDF render targets for the first page.
const (
	pdfTargetWidth  = 2000
	pdfTargetHeight = 2000
)

// PDFRenderer rasterizes the first page of a PDF document to RGB8.
// Implementations wrap an external PDF engine; the core only depends on this
// interface.
type PDFRenderer interface {
	// RenderFirstPage renders the first page of the document at path into an
	// RGB8 buffer of at most targetWidth x targetHeight, rotating landscape
	// pages by 90 degrees when rotateIfLandscape is set.
	RenderFirstPage(path string, targetWidth, targetHeight int, rotateIfLandscape bool) (rgb []byte, width, height int, err error)
}

var pdfRenderer PDFRenderer

// RegisterPDFRenderer installs the PDF engine used by Load for PDF files.
// Without a registered renderer, loading a PDF fails with ErrPDFNotEnabled.
func RegisterPDFRenderer(r PDFRenderer) {
	pdfRenderer = r
}

func loadPDF(path string, exif *ExifContext) (*Image, error) {
	if pdfRenderer == nil {
		return nil, ErrPDFNotEnabled
	}
	rgb, w, h, err := pdfRenderer.RenderFirstPage(path, pdfTargetWidth, pdfTargetHeight, true)
	if err != nil {
		return nil, err
	}
	return newImage(rgb, w, h, exif), nil
}
