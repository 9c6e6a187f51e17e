package parser

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/tigredonorte/bingo-sub002/internal/grid"
)

// NumberRange is an inclusive range of valid cell numbers.
type NumberRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether n lies within the range.
func (r NumberRange) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// StandardColumnRanges holds the per-column number ranges of a standard
// 5-column bingo card: B 1-15, I 16-30, N 31-45, G 46-60, O 61-75.
var StandardColumnRanges = []NumberRange{
	{Min: 1, Max: 15},
	{Min: 16, Max: 30},
	{Min: 31, Max: 45},
	{Min: 46, Max: 60},
	{Min: 61, Max: 75},
}

// ScanOptions configures how recognized text is turned into cell numbers.
type ScanOptions struct {
	// Language is the Tesseract language tag forwarded to the engine.
	Language string `json:"language"`

	// ConfidenceThreshold demotes recognized numbers from cells whose OCR
	// confidence (0-100) falls below it. Zero disables the check.
	ConfidenceThreshold float64 `json:"confidence_threshold"`

	// GridSize is the card's cell layout.
	GridSize grid.Size `json:"grid_size"`

	// HasFreeSpace marks the center cell as a numberless free space.
	HasFreeSpace bool `json:"has_free_space"`

	// NumberRange bounds valid cell numbers.
	NumberRange NumberRange `json:"number_range"`
}

// DefaultScanOptions returns the standard bingo configuration: a 5x5 grid
// with a center free space, numbers 1-75, English OCR.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Language:     "eng",
		GridSize:     grid.Size{Rows: 5, Cols: 5},
		HasFreeSpace: true,
		NumberRange:  NumberRange{Min: 1, Max: 75},
	}
}

// CellResult is the typed outcome for a single card cell.
//
// Number is nil when the cell is a free space or the recognized text could
// not be parsed into a valid number.
type CellResult struct {
	Number      *int          `json:"number"`
	IsFreeSpace bool          `json:"is_free_space"`
	Confidence  float64       `json:"confidence"`
	RawText     string        `json:"raw_text"`
	Position    grid.Position `json:"position"`
}

// ocrSubstitutions maps single characters Tesseract commonly confuses with
// digits. Applied before digit filtering so "1O" becomes "10".
var ocrSubstitutions = map[rune]rune{
	'O': '0',
	'I': '1',
	'l': '1',
	'S': '5',
	'Z': '2',
}

// CleanOCRText normalizes raw OCR output into a digit string: common
// digit-lookalike characters are substituted first, then everything that
// is not a digit is stripped. Idempotent on already-clean digit strings.
func CleanOCRText(text string) string {
	var b strings.Builder
	for _, r := range text {
		if sub, ok := ocrSubstitutions[r]; ok {
			r = sub
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsFreeSpace reports whether the recognized text marks a free-space cell
// rather than a number. Free-space markers are "FREE" and its Spanish
// equivalents, star patterns, and strings that are empty, whitespace-only,
// or a single non-digit character (unreadable placeholder).
func IsFreeSpace(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	switch strings.ToUpper(trimmed) {
	case "FREE", "CENTRO", "LIBRE", "GRATIS":
		return true
	}

	allStars := true
	for _, r := range trimmed {
		if r != '*' {
			allStars = false
			break
		}
	}
	if allStars {
		return true
	}

	runes := []rune(trimmed)
	if len(runes) == 1 && !unicode.IsDigit(runes[0]) {
		return true
	}
	return false
}

// ExtractNumber parses noisy OCR text into a cell number within the
// configured range. Returns nil for free-space text and for text with no
// usable digits.
//
// When the cleaned digit string parses to a value outside the range, a
// recovery heuristic tries the first two digits, then the last two digits,
// returning the first candidate in range. This covers OCR artifacts like a
// stray trailing digit ("100" -> 10 for a 1-75 card).
func ExtractNumber(text string, opts ScanOptions) *int {
	if IsFreeSpace(text) {
		return nil
	}

	cleaned := CleanOCRText(text)
	if cleaned == "" {
		return nil
	}

	if n, err := strconv.Atoi(cleaned); err == nil && opts.NumberRange.Contains(n) {
		return &n
	}

	if len(cleaned) >= 2 {
		for _, candidate := range []string{cleaned[:2], cleaned[len(cleaned)-2:]} {
			if n, err := strconv.Atoi(candidate); err == nil && opts.NumberRange.Contains(n) {
				return &n
			}
		}
	}
	return nil
}

// ValidateNumberForColumn reports whether a number is valid for the given
// column under the supplied per-column ranges. Columns outside the range
// table (e.g. non-5-column formats) carry no constraint and always
// validate.
func ValidateNumberForColumn(number, colIndex int, ranges []NumberRange) bool {
	if colIndex < 0 || colIndex >= len(ranges) {
		return true
	}
	return ranges[colIndex].Contains(number)
}

// NewCellResult turns one cell's raw OCR output into a typed result.
//
// The cell is a free space when it sits at the grid center of a card with
// a free space, or when the text itself is a free-space marker. The center
// override always wins: a free cell has a nil number even if the raw text
// contains digits. Otherwise the number is extracted heuristically, and
// demoted back to nil when the OCR confidence falls below the configured
// threshold.
func NewCellResult(rawText string, confidence float64, pos grid.Position, opts ScanOptions) CellResult {
	result := CellResult{
		IsFreeSpace: (opts.HasFreeSpace && pos == opts.GridSize.Center()) || IsFreeSpace(rawText),
		Confidence:  confidence,
		RawText:     rawText,
		Position:    pos,
	}
	if result.IsFreeSpace {
		return result
	}

	result.Number = ExtractNumber(rawText, opts)
	if result.Number != nil && opts.ConfidenceThreshold > 0 && confidence < opts.ConfidenceThreshold {
		result.Number = nil
	}
	return result
}

// CellsToGrid assembles cell results into a rows x cols number grid.
// Cells referencing positions outside the grid are silently ignored,
// defensive against malformed input.
func CellsToGrid(cells []CellResult, size grid.Size) [][]*int {
	rows := make([][]*int, size.Rows)
	for i := range rows {
		rows[i] = make([]*int, size.Cols)
	}
	for _, cell := range cells {
		if !size.Contains(cell.Position) {
			continue
		}
		rows[cell.Position.Row][cell.Position.Col] = cell.Number
	}
	return rows
}

// GridToArray flattens a number grid row-major, preserving nils.
func GridToArray(rows [][]*int) []*int {
	var flat []*int
	for _, row := range rows {
		flat = append(flat, row...)
	}
	return flat
}
