package scanner

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/tigredonorte/bingo-sub002/internal/detect"
	"github.com/tigredonorte/bingo-sub002/internal/grid"
	"github.com/tigredonorte/bingo-sub002/internal/ocr"
	"github.com/tigredonorte/bingo-sub002/internal/parser"
	"github.com/tigredonorte/bingo-sub002/internal/preprocess"
)

// ScanResult is the structured outcome of scanning a single card.
//
// Numbers is the row-major flattened number array; Grid is the same data
// shaped rows x cols. Confidence is the mean per-cell OCR confidence
// (0-100). IsComplete is true iff every non-free cell holds a number.
type ScanResult struct {
	Numbers          []*int              `json:"numbers"`
	Grid             [][]*int            `json:"grid"`
	Cells            []parser.CellResult `json:"cells"`
	Confidence       float64             `json:"confidence"`
	IsComplete       bool                `json:"is_complete"`
	UnreadableCells  []grid.Position     `json:"unreadable_cells"`
	ProcessingTimeMS int64               `json:"processing_time_ms"`
}

// MultiCardScanResult aggregates the scans of every card detected inside
// one photograph. Confidence is the mean over cards.
type MultiCardScanResult struct {
	CardCount        int                   `json:"card_count"`
	Cards            [][]*int              `json:"cards"`
	CardResults      []*ScanResult         `json:"card_results"`
	DetectedCards    []detect.DetectedCard `json:"detected_cards"`
	Confidence       float64               `json:"confidence"`
	ProcessingTimeMS int64                 `json:"processing_time_ms"`
}

// Scanner drives the full card pipeline: preprocessing, per-cell OCR, and
// parsing into validated grid numbers.
//
// The Scanner exclusively owns its OCR engine and serializes all work on
// it: at most one recognition call is in flight at any time, and per-cell
// calls within one scan run sequentially in reading order. The engine
// moves between two states, uninitialized and ready. Initialize is
// idempotent and Terminate is safe to call while uninitialized. A Scan
// call on an uninitialized Scanner starts the engine for that call only
// and stops it afterwards; batch operations start it once for the whole
// batch.
type Scanner struct {
	mu     sync.Mutex
	engine ocr.Engine
	opts   parser.ScanOptions
	ready  bool
}

// New creates a Scanner around an OCR engine. The engine must not be
// shared with another Scanner.
func New(engine ocr.Engine, opts parser.ScanOptions) *Scanner {
	return &Scanner{engine: engine, opts: opts}
}

// Initialize starts the OCR engine. Calling Initialize on a ready Scanner
// is a no-op and does not recreate the engine.
func (s *Scanner) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

// Terminate stops the OCR engine. Calling Terminate on an uninitialized
// Scanner is a no-op.
func (s *Scanner) Terminate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(ctx)
}

// Scan runs the pipeline over a single card image.
//
// If the Scanner is uninitialized, the engine is started for this call and
// stopped again afterwards, so each independent Scan pays the engine
// start/stop cost; pre-initialize to amortize it.
func (s *Scanner) Scan(ctx context.Context, img image.Image) (*ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	autoManaged := !s.ready
	if autoManaged {
		if err := s.startLocked(ctx); err != nil {
			return nil, err
		}
		defer s.stopLocked(ctx)
	}
	return s.scanLocked(ctx, img)
}

// ScanData decodes an encoded raster image buffer and scans it as a
// single card.
func (s *Scanner) ScanData(ctx context.Context, data []byte) (*ScanResult, error) {
	img, err := preprocess.Decode(data)
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx, img)
}

// ScanMultiple scans several card images reusing one engine instance: the
// engine is initialized at most once for the whole batch and is not torn
// down between images. If the caller never initialized the Scanner, the
// batch's engine instance is stopped before returning.
func (s *Scanner) ScanMultiple(ctx context.Context, imgs []image.Image) ([]*ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	autoManaged := !s.ready
	if autoManaged {
		if err := s.startLocked(ctx); err != nil {
			return nil, err
		}
		defer s.stopLocked(ctx)
	}

	results := make([]*ScanResult, 0, len(imgs))
	for i, img := range imgs {
		result, err := s.scanLocked(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("scan image %d: %w", i, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// ScanMultipleFromImage locates every card inside one photograph and scans
// each of them, reusing a single engine instance across cards. A
// photograph with no detectable separators still yields a result with
// CardCount 1.
func (s *Scanner) ScanMultipleFromImage(ctx context.Context, img image.Image, detectOpts detect.Options) (*MultiCardScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	cards, err := detect.DetectCards(img, detectOpts)
	if err != nil {
		return nil, err
	}

	autoManaged := !s.ready
	if autoManaged {
		if err := s.startLocked(ctx); err != nil {
			return nil, err
		}
		defer s.stopLocked(ctx)
	}

	result := &MultiCardScanResult{
		CardCount:     len(cards),
		Cards:         make([][]*int, 0, len(cards)),
		CardResults:   make([]*ScanResult, 0, len(cards)),
		DetectedCards: cards,
	}

	var confidenceSum float64
	for _, card := range cards {
		cardResult, err := s.scanLocked(ctx, card.Image)
		if err != nil {
			return nil, fmt.Errorf("scan card %d: %w", card.Index, err)
		}
		result.Cards = append(result.Cards, cardResult.Numbers)
		result.CardResults = append(result.CardResults, cardResult)
		confidenceSum += cardResult.Confidence
	}
	if len(cards) > 0 {
		result.Confidence = confidenceSum / float64(len(cards))
	}
	result.ProcessingTimeMS = time.Since(start).Milliseconds()
	return result, nil
}

// startLocked transitions the engine to ready, forwarding the configured
// OCR language. Caller holds s.mu.
func (s *Scanner) startLocked(ctx context.Context) error {
	if s.ready {
		return nil
	}
	if s.opts.Language != "" {
		if err := s.engine.SetParameters(ocr.Parameters{Language: s.opts.Language}); err != nil {
			return fmt.Errorf("configure OCR engine: %w", err)
		}
	}
	if err := s.engine.Init(ctx); err != nil {
		return fmt.Errorf("initialize OCR engine: %w", err)
	}
	s.ready = true
	return nil
}

// stopLocked transitions the engine back to uninitialized. Caller holds
// s.mu.
func (s *Scanner) stopLocked(ctx context.Context) error {
	if !s.ready {
		return nil
	}
	s.ready = false
	if err := s.engine.Close(ctx); err != nil {
		return fmt.Errorf("terminate OCR engine: %w", err)
	}
	return nil
}

// scanLocked performs one card scan with a ready engine. Caller holds
// s.mu.
func (s *Scanner) scanLocked(ctx context.Context, img image.Image) (*ScanResult, error) {
	start := time.Now()

	prepared := preprocess.Preprocess(img)
	cells, err := preprocess.ExtractAllCells(prepared, s.opts.GridSize)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		Numbers:         make([]*int, 0, len(cells)),
		Cells:           make([]parser.CellResult, 0, len(cells)),
		UnreadableCells: make([]grid.Position, 0),
	}

	var confidenceSum float64
	for _, cell := range cells {
		recognition, err := s.engine.Recognize(ctx, cell.Image)
		if err != nil {
			return nil, fmt.Errorf("recognize cell (%d,%d): %w", cell.Pos.Row, cell.Pos.Col, err)
		}

		cellResult := parser.NewCellResult(recognition.Text, recognition.Confidence, cell.Pos, s.opts)
		result.Numbers = append(result.Numbers, cellResult.Number)
		result.Cells = append(result.Cells, cellResult)
		confidenceSum += cellResult.Confidence
		if cellResult.Number == nil && !cellResult.IsFreeSpace {
			result.UnreadableCells = append(result.UnreadableCells, cellResult.Position)
		}
	}

	result.Grid = parser.CellsToGrid(result.Cells, s.opts.GridSize)
	if len(cells) > 0 {
		result.Confidence = confidenceSum / float64(len(cells))
	}
	result.IsComplete = len(result.UnreadableCells) == 0
	result.ProcessingTimeMS = time.Since(start).Milliseconds()
	return result, nil
}
