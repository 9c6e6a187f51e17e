package preprocess

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/tigredonorte/bingo-sub002/internal/grid"
)

func createInMemoryImage(width, height int, fill color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	data := encodePNG(t, createInMemoryImage(40, 30, color.White))

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if w, h := Dimensions(img); w != 40 || h != 30 {
		t.Errorf("dimensions: got %dx%d, want 40x30", w, h)
	}
}

func TestDecode_InvalidBuffer(t *testing.T) {
	for _, data := range [][]byte{nil, {}, []byte("not an image")} {
		_, err := Decode(data)
		if err == nil {
			t.Fatalf("Decode(%q) should fail", data)
		}
		var invalid *InvalidImageError
		if !errors.As(err, &invalid) {
			t.Errorf("error type: got %T, want *InvalidImageError", err)
		}
	}
}

func TestPreprocess_Grayscale(t *testing.T) {
	img := createInMemoryImage(20, 20, color.RGBA{R: 200, G: 50, B: 30, A: 255})

	gray := Preprocess(img)

	r, g, b, _ := gray.At(10, 10).RGBA()
	if r != g || g != b {
		t.Errorf("pixel not gray: r=%d g=%d b=%d", r>>8, g>>8, b>>8)
	}
	if w, h := Dimensions(gray); w != 20 || h != 20 {
		t.Errorf("dimensions changed: got %dx%d, want 20x20", w, h)
	}
}

func TestResize_PreservesAspectRatio(t *testing.T) {
	img := createInMemoryImage(400, 200, color.White)

	resized := Resize(img, 100)
	if w, h := Dimensions(resized); w != 100 || h != 50 {
		t.Errorf("resized dimensions: got %dx%d, want 100x50", w, h)
	}
}

func TestResize_NonPositiveWidth(t *testing.T) {
	img := createInMemoryImage(40, 40, color.White)

	if got := Resize(img, 0); got != image.Image(img) {
		t.Error("non-positive target width should return the image unchanged")
	}
}

func TestExtractCell(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)
	size := grid.Size{Rows: 5, Cols: 5}

	cell, err := ExtractCell(img, grid.Position{Row: 2, Col: 2}, size)
	if err != nil {
		t.Fatalf("ExtractCell failed: %v", err)
	}

	// 20x20 cell minus 8% interior padding on each side.
	w, h := Dimensions(cell)
	if w >= 20 || h >= 20 {
		t.Errorf("cell should be padded below 20x20, got %dx%d", w, h)
	}
	if w <= 0 || h <= 0 {
		t.Errorf("cell collapsed to %dx%d", w, h)
	}
}

func TestExtractCell_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)
	size := grid.Size{Rows: 5, Cols: 5}

	if _, err := ExtractCell(img, grid.Position{Row: 5, Col: 0}, size); err == nil {
		t.Error("ExtractCell should fail for a position outside the grid")
	}
}

func TestExtractAllCells_ReadingOrder(t *testing.T) {
	img := createInMemoryImage(90, 60, color.White)
	size := grid.Size{Rows: 2, Cols: 3}

	cells, err := ExtractAllCells(img, size)
	if err != nil {
		t.Fatalf("ExtractAllCells failed: %v", err)
	}
	if len(cells) != 6 {
		t.Fatalf("cell count: got %d, want 6", len(cells))
	}

	want := []grid.Position{
		{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2},
		{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2},
	}
	for i, cell := range cells {
		if cell.Pos != want[i] {
			t.Errorf("cell %d position: got %+v, want %+v", i, cell.Pos, want[i])
		}
		if cell.Image == nil {
			t.Errorf("cell %d has no image", i)
		}
	}
}

func TestExtractAllCells_InvalidGrid(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)

	if _, err := ExtractAllCells(img, grid.Size{Rows: 0, Cols: 5}); err == nil {
		t.Error("ExtractAllCells should fail for a zero-row grid")
	}
}
