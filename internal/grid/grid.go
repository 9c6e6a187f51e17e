// Package grid provides the shared grid geometry used by card detection
// and cell extraction.
//
// Both the card splitter and the per-cell cropper enumerate positions in
// reading order: row-major, left-to-right then top-to-bottom. Keeping that
// enumeration in one place guarantees the two stay consistent, and that a
// linear index can always be recovered as row*cols+col.
package grid

import "image"

// Size describes a grid's dimensions in cells.
type Size struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Position identifies a single cell within a grid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cells returns the total number of cells in the grid.
func (s Size) Cells() int {
	return s.Rows * s.Cols
}

// Center returns the central position of the grid, e.g. (2,2) for a 5x5
// grid. This is the conventional free-space cell on bingo cards.
func (s Size) Center() Position {
	return Position{Row: s.Rows / 2, Col: s.Cols / 2}
}

// Positions enumerates all cell positions in reading order.
func (s Size) Positions() []Position {
	positions := make([]Position, 0, s.Cells())
	for row := 0; row < s.Rows; row++ {
		for col := 0; col < s.Cols; col++ {
			positions = append(positions, Position{Row: row, Col: col})
		}
	}
	return positions
}

// Index returns the linear reading-order index of pos within the grid.
func (s Size) Index(pos Position) int {
	return pos.Row*s.Cols + pos.Col
}

// Contains reports whether pos lies within the grid.
func (s Size) Contains(pos Position) bool {
	return pos.Row >= 0 && pos.Row < s.Rows && pos.Col >= 0 && pos.Col < s.Cols
}

// CellRect computes the pixel rectangle of one cell within an image of the
// given dimensions. Cell sizes use floor division, so a few trailing pixels
// on the right/bottom edges may be excluded for sizes that do not divide
// evenly. The pad parameter shrinks the rectangle inward on all sides; it
// is clamped so the result never collapses below one pixel.
func CellRect(width, height int, pos Position, size Size, pad int) image.Rectangle {
	cellW := width / size.Cols
	cellH := height / size.Rows

	x1 := pos.Col*cellW + pad
	y1 := pos.Row*cellH + pad
	x2 := (pos.Col+1)*cellW - pad
	y2 := (pos.Row+1)*cellH - pad

	if x2 <= x1 {
		x1 = pos.Col * cellW
		x2 = x1 + cellW
	}
	if y2 <= y1 {
		y1 = pos.Row * cellH
		y2 = y1 + cellH
	}

	return image.Rect(x1, y1, x2, y2)
}
