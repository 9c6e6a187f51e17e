package detect

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/tigredonorte/bingo-sub002/internal/grid"
)

// Bounds is a rectangular pixel region within a photograph.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DetectedCard is one card region located inside a photograph.
//
// Index is the 0-based reading-order position of the card (row-major,
// left-to-right then top-to-bottom). The card image is a crop of the
// source photograph and is owned by the receiver.
type DetectedCard struct {
	Bounds Bounds      `json:"bounds"`
	Index  int         `json:"index"`
	Image  image.Image `json:"-"`
}

// Options controls card detection.
//
// CardLayout forces an explicit rows x cols split. ExpectedCards asks the
// detector to infer the best-fitting layout for a known card count. When
// neither is set, separator lines are detected automatically. Min/Max
// CardAreaPercent bound the fraction of the photograph's area a single
// card may occupy.
type Options struct {
	CardLayout         *grid.Size
	ExpectedCards      int
	MinCardAreaPercent float64
	MaxCardAreaPercent float64
}

// DefaultOptions returns the detection defaults: automatic separator
// detection with card areas between 5% and 100% of the photograph.
func DefaultOptions() Options {
	return Options{
		MinCardAreaPercent: 0.05,
		MaxCardAreaPercent: 1.0,
	}
}

// LayoutConstraintError reports a card whose area fraction violates the
// configured bounds. It is returned only by the explicit-layout and
// expected-count paths; automatic detection degrades to fewer cards
// instead.
type LayoutConstraintError struct {
	Index    int
	Fraction float64
	Min      float64
	Max      float64
}

func (e *LayoutConstraintError) Error() string {
	return fmt.Sprintf("card %d covers %.1f%% of the image, outside the allowed %.1f%%-%.1f%% range",
		e.Index, e.Fraction*100, e.Min*100, e.Max*100)
}

// InvalidRegionError reports bounds that fall outside the source image.
type InvalidRegionError struct {
	Bounds Bounds
	Width  int
	Height int
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("region (%d,%d %dx%d) outside image bounds %dx%d",
		e.Bounds.X, e.Bounds.Y, e.Bounds.Width, e.Bounds.Height, e.Width, e.Height)
}

// DetectCards locates the individual card regions inside a photograph.
//
// Resolution order:
//
//  1. Explicit layout: opts.CardLayout splits the image directly.
//  2. Expected count: opts.ExpectedCards picks the factor pair whose cell
//     aspect ratio best matches the image's aspect ratio.
//  3. Automatic: separator lines are found from pixel-darkness profiles.
//  4. Fallback: the whole image is a single card.
//
// The explicit and expected-count paths fail with *LayoutConstraintError
// when a resulting card's area fraction falls outside the configured
// bounds; the automatic path treats such splits as noise and falls back.
func DetectCards(img image.Image, opts Options) ([]DetectedCard, error) {
	if opts.MaxCardAreaPercent <= 0 {
		opts.MaxCardAreaPercent = 1.0
	}

	if opts.CardLayout != nil {
		cards := SplitImage(img, opts.CardLayout.Rows, opts.CardLayout.Cols)
		if err := checkAreaConstraints(img, cards, opts); err != nil {
			return nil, err
		}
		return cards, nil
	}

	if opts.ExpectedCards > 0 {
		layout := layoutForCount(opts.ExpectedCards, img)
		cards := SplitImage(img, layout.Rows, layout.Cols)
		if err := checkAreaConstraints(img, cards, opts); err != nil {
			return nil, err
		}
		return cards, nil
	}

	cards := detectBySeparators(img, opts)
	if len(cards) > 0 {
		return cards, nil
	}

	return []DetectedCard{wholeImageCard(img)}, nil
}

// SplitImage partitions an image into rows*cols equal card regions,
// assigning indices in reading order. Trailing pixels from uneven division
// are absorbed by the last column and row so the cards exactly tile the
// image.
func SplitImage(img image.Image, rows, cols int) []DetectedCard {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	cellW := width / cols
	cellH := height / rows

	layout := grid.Size{Rows: rows, Cols: cols}
	cards := make([]DetectedCard, 0, layout.Cells())
	for _, pos := range layout.Positions() {
		b := Bounds{
			X:      pos.Col * cellW,
			Y:      pos.Row * cellH,
			Width:  cellW,
			Height: cellH,
		}
		if pos.Col == cols-1 {
			b.Width = width - b.X
		}
		if pos.Row == rows-1 {
			b.Height = height - b.Y
		}
		cards = append(cards, DetectedCard{
			Bounds: b,
			Index:  layout.Index(pos),
			Image:  cropBounds(img, b),
		})
	}
	return cards
}

// ExtractCardRegion crops a card sub-image from the photograph. Returns an
// *InvalidRegionError if the bounds exceed the image dimensions.
func ExtractCardRegion(img image.Image, b Bounds) (image.Image, error) {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if b.Width <= 0 || b.Height <= 0 || b.X < 0 || b.Y < 0 ||
		b.X+b.Width > width || b.Y+b.Height > height {
		return nil, &InvalidRegionError{Bounds: b, Width: width, Height: height}
	}
	return cropBounds(img, b), nil
}

// layoutForCount picks the rows x cols factor pair for n cards whose cell
// aspect ratio is closest to the image's aspect ratio. Square images
// therefore prefer near-square grids (4 -> 2x2) while wide images prefer
// layouts with more columns than rows.
func layoutForCount(n int, img image.Image) grid.Size {
	width := float64(img.Bounds().Dx())
	height := float64(img.Bounds().Dy())
	imageAspect := width / height

	best := grid.Size{Rows: 1, Cols: n}
	bestDiff := math.MaxFloat64
	for rows := 1; rows <= n; rows++ {
		if n%rows != 0 {
			continue
		}
		cols := n / rows
		cellAspect := (width / float64(cols)) / (height / float64(rows))
		diff := math.Abs(cellAspect - imageAspect)
		if diff < bestDiff {
			bestDiff = diff
			best = grid.Size{Rows: rows, Cols: cols}
		}
	}
	return best
}

// checkAreaConstraints verifies every card's area fraction lies within the
// configured bounds.
func checkAreaConstraints(img image.Image, cards []DetectedCard, opts Options) error {
	total := float64(img.Bounds().Dx() * img.Bounds().Dy())
	if total == 0 {
		return fmt.Errorf("empty source image")
	}
	for _, card := range cards {
		fraction := float64(card.Bounds.Width*card.Bounds.Height) / total
		if fraction < opts.MinCardAreaPercent || fraction > opts.MaxCardAreaPercent {
			return &LayoutConstraintError{
				Index:    card.Index,
				Fraction: fraction,
				Min:      opts.MinCardAreaPercent,
				Max:      opts.MaxCardAreaPercent,
			}
		}
	}
	return nil
}

// withinAreaConstraints is the non-failing variant used by the automatic
// path.
func withinAreaConstraints(img image.Image, cards []DetectedCard, opts Options) bool {
	return checkAreaConstraints(img, cards, opts) == nil
}

func wholeImageCard(img image.Image) DetectedCard {
	return DetectedCard{
		Bounds: Bounds{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()},
		Index:  0,
		Image:  img,
	}
}

func cropBounds(img image.Image, b Bounds) image.Image {
	min := img.Bounds().Min
	rect := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height).Add(min)
	return imaging.Crop(img, rect)
}
