package preprocess

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/tigredonorte/bingo-sub002/internal/grid"
)

// contrastBoost is the contrast adjustment applied after grayscale
// conversion. Printed bingo numbers are high-contrast ink on paper; a mild
// boost separates faint digits from the paper background without clipping.
const contrastBoost = 0.25

// cellPadFraction is the interior padding removed from each side of an
// extracted cell, as a fraction of the cell's smaller dimension. It keeps
// the card's printed grid lines out of the OCR input.
const cellPadFraction = 0.08

// InvalidImageError indicates an image buffer that could not be decoded.
type InvalidImageError struct {
	Reason string
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image: %s", e.Reason)
}

// Decode decodes an encoded raster image buffer (PNG, JPEG, or GIF).
//
// Returns an *InvalidImageError if the buffer is empty or not a valid
// image in a registered format.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &InvalidImageError{Reason: "empty buffer"}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &InvalidImageError{Reason: err.Error()}
	}
	return img, nil
}

// Preprocess normalizes an image for OCR: grayscale conversion followed by
// a mild contrast boost.
func Preprocess(img image.Image) image.Image {
	gray := effect.Grayscale(img)
	return adjust.Contrast(gray, contrastBoost)
}

// Dimensions returns the width and height of an image in pixels.
func Dimensions(img image.Image) (width, height int) {
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy()
}

// Resize scales an image to the target width, preserving aspect ratio.
// Uses Lanczos resampling for quality. A non-positive target width returns
// the image unchanged.
func Resize(img image.Image, targetWidth int) image.Image {
	if targetWidth <= 0 {
		return img
	}
	return imaging.Resize(img, targetWidth, 0, imaging.Lanczos)
}

// Cell is one extracted grid cell sub-image together with its position.
type Cell struct {
	Image image.Image
	Pos   grid.Position
}

// ExtractCell crops the sub-image at the given grid position.
//
// Cell dimensions use floor division of the image dimensions by the grid
// size, and a small interior padding is removed on all sides so the card's
// grid lines do not bleed into the OCR input.
func ExtractCell(img image.Image, pos grid.Position, size grid.Size) (image.Image, error) {
	if size.Rows <= 0 || size.Cols <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", size.Rows, size.Cols)
	}
	if !size.Contains(pos) {
		return nil, fmt.Errorf("cell (%d,%d) outside %dx%d grid", pos.Row, pos.Col, size.Rows, size.Cols)
	}

	width, height := Dimensions(img)
	pad := cellPad(width, height, size)
	rect := grid.CellRect(width, height, pos, size, pad)

	// imaging.Crop expects coordinates relative to the image bounds origin.
	bounds := img.Bounds()
	rect = rect.Add(bounds.Min)
	return imaging.Crop(img, rect), nil
}

// ExtractAllCells crops every cell of the grid in reading order (row
// ascending, then column ascending). The ordering is a contract relied on
// by the parser and scanner.
func ExtractAllCells(img image.Image, size grid.Size) ([]Cell, error) {
	if size.Rows <= 0 || size.Cols <= 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", size.Rows, size.Cols)
	}

	cells := make([]Cell, 0, size.Cells())
	for _, pos := range size.Positions() {
		cell, err := ExtractCell(img, pos, size)
		if err != nil {
			return nil, err
		}
		cells = append(cells, Cell{Image: cell, Pos: pos})
	}
	return cells, nil
}

// cellPad computes the interior padding in pixels for cells of the given
// grid within an image.
func cellPad(width, height int, size grid.Size) int {
	cellW := width / size.Cols
	cellH := height / size.Rows
	smaller := cellW
	if cellH < smaller {
		smaller = cellH
	}
	pad := int(float64(smaller) * cellPadFraction)
	if pad < 0 {
		pad = 0
	}
	return pad
}
