package detect

import (
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/tigredonorte/bingo-sub002/internal/grid"
)

// Separator detection parameters.
//
// A column (or row) qualifies as a separator candidate when its mean
// darkness exceeds the profile mean by separatorSigma standard deviations
// and also clears minSeparatorDarkness in absolute terms; the absolute
// floor stops near-uniform images from promoting ordinary texture into
// separators. Candidates closer than minRegionFraction of the image
// dimension to an edge or to each other would create implausibly small
// cards and are treated as noise.
const (
	separatorSigma       = 1.5
	minSeparatorDarkness = 0.5
	minRegionFraction    = 0.15
)

// detectBySeparators scans column-wise and row-wise darkness profiles for
// straight dark lines and combines the surviving cut positions into a grid
// of card regions. Returns nil when no valid separators are found or when
// the resulting split violates the area constraints; callers fall back to
// treating the photograph as a single card.
func detectBySeparators(img image.Image, opts Options) []DetectedCard {
	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if width == 0 || height == 0 {
		return nil
	}

	verticalCuts := findSeparators(columnDarkness(img), width)
	horizontalCuts := findSeparators(rowDarkness(img), height)
	if len(verticalCuts) == 0 && len(horizontalCuts) == 0 {
		return nil
	}

	xs := cutEdges(verticalCuts, width)
	ys := cutEdges(horizontalCuts, height)

	layout := grid.Size{Rows: len(ys) - 1, Cols: len(xs) - 1}
	cards := make([]DetectedCard, 0, layout.Cells())
	for _, pos := range layout.Positions() {
		b := Bounds{
			X:      xs[pos.Col],
			Y:      ys[pos.Row],
			Width:  xs[pos.Col+1] - xs[pos.Col],
			Height: ys[pos.Row+1] - ys[pos.Row],
		}
		cards = append(cards, DetectedCard{
			Bounds: b,
			Index:  layout.Index(pos),
			Image:  cropBounds(img, b),
		})
	}

	if !withinAreaConstraints(img, cards, opts) {
		return nil
	}
	return cards
}

// columnDarkness computes the mean darkness of each pixel column.
// Darkness is 1 minus the HSL lightness of the pixel, so a black
// separator line scores near 1 and white paper near 0.
func columnDarkness(img image.Image) []float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	profile := make([]float64, width)
	for x := 0; x < width; x++ {
		var sum float64
		for y := 0; y < height; y++ {
			sum += pixelDarkness(img, x+bounds.Min.X, y+bounds.Min.Y)
		}
		profile[x] = sum / float64(height)
	}
	return profile
}

// rowDarkness computes the mean darkness of each pixel row.
func rowDarkness(img image.Image) []float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	profile := make([]float64, height)
	for y := 0; y < height; y++ {
		var sum float64
		for x := 0; x < width; x++ {
			sum += pixelDarkness(img, x+bounds.Min.X, y+bounds.Min.Y)
		}
		profile[y] = sum / float64(width)
	}
	return profile
}

func pixelDarkness(img image.Image, x, y int) float64 {
	c, ok := colorful.MakeColor(img.At(x, y))
	if !ok {
		// Fully transparent pixel; treat as background.
		return 0
	}
	_, _, lightness := c.Hsl()
	return 1 - lightness
}

// findSeparators locates separator cut positions in a darkness profile.
//
// Spikes above the statistical threshold are grouped into runs of adjacent
// indices (a drawn line is usually more than one pixel thick) and each run
// contributes its center as a candidate cut. Candidates that would create
// a region smaller than minRegionFraction of the dimension are discarded
// as noise rather than real separators.
func findSeparators(profile []float64, dimension int) []int {
	mean, stddev := meanStddev(profile)
	threshold := mean + separatorSigma*stddev
	if threshold < minSeparatorDarkness {
		threshold = minSeparatorDarkness
	}

	// Group adjacent above-threshold indices into runs.
	var candidates []int
	runStart := -1
	for i := 0; i <= len(profile); i++ {
		spike := i < len(profile) && profile[i] >= threshold
		if spike && runStart < 0 {
			runStart = i
		}
		if !spike && runStart >= 0 {
			candidates = append(candidates, (runStart+i-1)/2)
			runStart = -1
		}
	}

	minRegion := int(float64(dimension) * minRegionFraction)
	var cuts []int
	lastEdge := 0
	for _, cut := range candidates {
		if cut-lastEdge < minRegion {
			continue
		}
		cuts = append(cuts, cut)
		lastEdge = cut
	}
	// A surviving cut too close to the far edge would also create a
	// sliver region; drop it.
	for len(cuts) > 0 && dimension-cuts[len(cuts)-1] < minRegion {
		cuts = cuts[:len(cuts)-1]
	}
	return cuts
}

// cutEdges converts interior cut positions into a sorted slice of region
// edges spanning the full dimension.
func cutEdges(cuts []int, dimension int) []int {
	edges := make([]int, 0, len(cuts)+2)
	edges = append(edges, 0)
	edges = append(edges, cuts...)
	edges = append(edges, dimension)
	return edges
}

func meanStddev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}
