package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/tigredonorte/bingo-sub002/internal/detect"
	"github.com/tigredonorte/bingo-sub002/internal/grid"
	"github.com/tigredonorte/bingo-sub002/internal/ocr"
	"github.com/tigredonorte/bingo-sub002/internal/parser"
	"github.com/tigredonorte/bingo-sub002/internal/preprocess"
)

// fakeEngine is a scripted OCR engine for exercising the scanner's
// lifecycle state machine without Tesseract.
type fakeEngine struct {
	running    bool
	initCalls  int
	closeCalls int
	calls      int
	params     ocr.Parameters

	// byCall overrides the default recognition for specific 0-based call
	// indices.
	byCall     map[int]ocr.Recognition
	defaultRec ocr.Recognition
}

func newFakeEngine(text string, confidence float64) *fakeEngine {
	return &fakeEngine{
		byCall:     map[int]ocr.Recognition{},
		defaultRec: ocr.Recognition{Text: text, Confidence: confidence},
	}
}

func (f *fakeEngine) Init(ctx context.Context) error {
	if f.running {
		return nil
	}
	f.initCalls++
	f.running = true
	return nil
}

func (f *fakeEngine) SetParameters(p ocr.Parameters) error {
	if p.Language != "" {
		f.params.Language = p.Language
	}
	return nil
}

func (f *fakeEngine) Recognize(ctx context.Context, img image.Image) (ocr.Recognition, error) {
	if !f.running {
		return ocr.Recognition{}, fmt.Errorf("engine not initialized")
	}
	call := f.calls
	f.calls++
	if rec, ok := f.byCall[call]; ok {
		return rec, nil
	}
	return f.defaultRec, nil
}

func (f *fakeEngine) Close(ctx context.Context) error {
	if !f.running {
		return nil
	}
	f.closeCalls++
	f.running = false
	return nil
}

func createInMemoryImage(width, height int, fill color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

func plainOptions(rows, cols int) parser.ScanOptions {
	opts := parser.DefaultScanOptions()
	opts.GridSize = grid.Size{Rows: rows, Cols: cols}
	opts.HasFreeSpace = false
	return opts
}

func TestInitialize_Idempotent(t *testing.T) {
	engine := newFakeEngine("1", 90)
	s := New(engine, plainOptions(3, 3))
	ctx := context.Background()

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	if engine.initCalls != 1 {
		t.Errorf("engine init calls: got %d, want 1", engine.initCalls)
	}

	if err := s.Terminate(ctx); err != nil {
		t.Fatalf("Terminate failed: %v", err)
	}
	if engine.closeCalls != 1 {
		t.Errorf("engine close calls: got %d, want 1", engine.closeCalls)
	}
}

func TestTerminate_WhileUninitialized(t *testing.T) {
	engine := newFakeEngine("1", 90)
	s := New(engine, plainOptions(3, 3))

	if err := s.Terminate(context.Background()); err != nil {
		t.Fatalf("Terminate on an uninitialized scanner should be a no-op, got %v", err)
	}
	if engine.closeCalls != 0 {
		t.Errorf("engine close calls: got %d, want 0", engine.closeCalls)
	}
}

func TestScan_AutoManagedLifecycle(t *testing.T) {
	engine := newFakeEngine("12", 90)
	s := New(engine, plainOptions(3, 3))

	result, err := s.Scan(context.Background(), createInMemoryImage(90, 90, color.White))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// One-off use: the scanner started and stopped the engine itself.
	if engine.initCalls != 1 || engine.closeCalls != 1 {
		t.Errorf("lifecycle calls: init=%d close=%d, want 1/1", engine.initCalls, engine.closeCalls)
	}

	if len(result.Numbers) != 9 {
		t.Fatalf("numbers length: got %d, want 9", len(result.Numbers))
	}
	if !result.IsComplete {
		t.Error("all cells readable, result should be complete")
	}
	if result.Confidence != 90 {
		t.Errorf("confidence: got %v, want 90", result.Confidence)
	}
	if result.ProcessingTimeMS < 0 {
		t.Errorf("processing time: got %d, want >= 0", result.ProcessingTimeMS)
	}
}

func TestScan_PreInitializedKeepsEngine(t *testing.T) {
	engine := newFakeEngine("12", 90)
	s := New(engine, plainOptions(3, 3))
	ctx := context.Background()

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if _, err := s.Scan(ctx, createInMemoryImage(90, 90, color.White)); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if engine.closeCalls != 0 {
		t.Error("pre-initialized engine should survive Scan")
	}
	if _, err := s.Scan(ctx, createInMemoryImage(90, 90, color.White)); err != nil {
		t.Fatalf("second Scan failed: %v", err)
	}
	if engine.initCalls != 1 {
		t.Errorf("engine init calls: got %d, want 1", engine.initCalls)
	}
}

func TestScan_FreeSpaceCenter(t *testing.T) {
	// Default options: 5x5 with a center free space. The engine reads a
	// digit everywhere, including the center, but the center override
	// wins.
	engine := newFakeEngine("42", 95)
	s := New(engine, parser.DefaultScanOptions())

	result, err := s.Scan(context.Background(), createInMemoryImage(250, 250, color.White))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(result.Numbers) != 25 {
		t.Fatalf("numbers length: got %d, want 25", len(result.Numbers))
	}
	if len(result.Grid) != 5 {
		t.Fatalf("grid rows: got %d, want 5", len(result.Grid))
	}
	if result.Grid[2][2] != nil {
		t.Errorf("center entry: got %d, want nil", *result.Grid[2][2])
	}
	center := result.Cells[12]
	if !center.IsFreeSpace || center.Number != nil {
		t.Errorf("center cell: got %+v, want free space with nil number", center)
	}
	if !result.IsComplete {
		t.Error("a free space does not make the card incomplete")
	}
}

func TestScan_UnreadableCells(t *testing.T) {
	engine := newFakeEngine("12", 90)
	// Cell 4 of a 3x3 scan reads as an unrecoverable out-of-range number.
	engine.byCall[4] = ocr.Recognition{Text: "999", Confidence: 40}
	s := New(engine, plainOptions(3, 3))

	result, err := s.Scan(context.Background(), createInMemoryImage(90, 90, color.White))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if result.IsComplete {
		t.Error("result with an unreadable cell should not be complete")
	}
	if len(result.UnreadableCells) != 1 {
		t.Fatalf("unreadable cells: got %d, want 1", len(result.UnreadableCells))
	}
	if want := (grid.Position{Row: 1, Col: 1}); result.UnreadableCells[0] != want {
		t.Errorf("unreadable position: got %+v, want %+v", result.UnreadableCells[0], want)
	}
	if result.Numbers[4] != nil {
		t.Errorf("unreadable number: got %d, want nil", *result.Numbers[4])
	}
}

func TestScan_ConfidenceThreshold(t *testing.T) {
	engine := newFakeEngine("12", 30)
	opts := plainOptions(2, 2)
	opts.ConfidenceThreshold = 60
	s := New(engine, opts)

	result, err := s.Scan(context.Background(), createInMemoryImage(80, 80, color.White))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if result.IsComplete {
		t.Error("low-confidence numbers should be demoted to unreadable")
	}
	if len(result.UnreadableCells) != 4 {
		t.Errorf("unreadable cells: got %d, want 4", len(result.UnreadableCells))
	}
}

func TestScanMultiple_SingleEngineInit(t *testing.T) {
	engine := newFakeEngine("7", 85)
	s := New(engine, plainOptions(2, 2))

	imgs := []image.Image{
		createInMemoryImage(80, 80, color.White),
		createInMemoryImage(80, 80, color.White),
	}
	results, err := s.ScanMultiple(context.Background(), imgs)
	if err != nil {
		t.Fatalf("ScanMultiple failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("result count: got %d, want 2", len(results))
	}
	if engine.initCalls != 1 {
		t.Errorf("engine init calls: got %d, want 1 regardless of image count", engine.initCalls)
	}
	if engine.closeCalls != 1 {
		t.Errorf("engine close calls: got %d, want 1 (batch cleanup)", engine.closeCalls)
	}
}

func TestScanMultiple_CallerOwnedEngine(t *testing.T) {
	engine := newFakeEngine("7", 85)
	s := New(engine, plainOptions(2, 2))
	ctx := context.Background()

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if _, err := s.ScanMultiple(ctx, []image.Image{createInMemoryImage(80, 80, color.White)}); err != nil {
		t.Fatalf("ScanMultiple failed: %v", err)
	}
	// Final cleanup belongs to the caller who initialized.
	if engine.closeCalls != 0 {
		t.Errorf("engine close calls: got %d, want 0", engine.closeCalls)
	}
	if err := s.Terminate(ctx); err != nil {
		t.Fatalf("Terminate failed: %v", err)
	}
	if engine.closeCalls != 1 {
		t.Errorf("engine close calls after Terminate: got %d, want 1", engine.closeCalls)
	}
}

func TestScanMultipleFromImage(t *testing.T) {
	engine := newFakeEngine("7", 80)
	s := New(engine, plainOptions(2, 2))

	img := createInMemoryImage(200, 100, color.White)
	detectOpts := detect.DefaultOptions()
	detectOpts.CardLayout = &grid.Size{Rows: 1, Cols: 2}

	result, err := s.ScanMultipleFromImage(context.Background(), img, detectOpts)
	if err != nil {
		t.Fatalf("ScanMultipleFromImage failed: %v", err)
	}

	if result.CardCount != 2 {
		t.Fatalf("card count: got %d, want 2", result.CardCount)
	}
	if len(result.Cards) != 2 || len(result.CardResults) != 2 || len(result.DetectedCards) != 2 {
		t.Fatalf("result slices: got %d/%d/%d, want 2/2/2",
			len(result.Cards), len(result.CardResults), len(result.DetectedCards))
	}
	for i, numbers := range result.Cards {
		if len(numbers) != 4 {
			t.Errorf("card %d numbers: got %d, want 4", i, len(numbers))
		}
	}
	if result.Confidence != 80 {
		t.Errorf("aggregate confidence: got %v, want 80", result.Confidence)
	}
	if engine.initCalls != 1 {
		t.Errorf("engine init calls: got %d, want 1 for the whole batch", engine.initCalls)
	}
}

func TestScanMultipleFromImage_SingleCardFallback(t *testing.T) {
	engine := newFakeEngine("7", 80)
	s := New(engine, plainOptions(2, 2))

	// Blank photograph, no hints: detection falls back to one card.
	result, err := s.ScanMultipleFromImage(context.Background(),
		createInMemoryImage(100, 100, color.White), detect.DefaultOptions())
	if err != nil {
		t.Fatalf("ScanMultipleFromImage failed: %v", err)
	}
	if result.CardCount != 1 {
		t.Errorf("card count: got %d, want 1", result.CardCount)
	}
}

func TestScanMultipleFromImage_LayoutError(t *testing.T) {
	engine := newFakeEngine("7", 80)
	s := New(engine, plainOptions(2, 2))

	detectOpts := detect.Options{
		CardLayout:         &grid.Size{Rows: 2, Cols: 2},
		MinCardAreaPercent: 0.5,
		MaxCardAreaPercent: 1.0,
	}
	_, err := s.ScanMultipleFromImage(context.Background(),
		createInMemoryImage(100, 100, color.White), detectOpts)
	if err == nil {
		t.Fatal("layout constraint violation should surface to the caller")
	}
	if engine.initCalls != 0 {
		t.Errorf("engine should not start when detection fails, got %d init calls", engine.initCalls)
	}
}

func TestScanData(t *testing.T) {
	engine := newFakeEngine("12", 90)
	s := New(engine, plainOptions(2, 2))

	var buf bytes.Buffer
	if err := png.Encode(&buf, createInMemoryImage(80, 80, color.White)); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}

	result, err := s.ScanData(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("ScanData failed: %v", err)
	}
	if len(result.Numbers) != 4 {
		t.Errorf("numbers length: got %d, want 4", len(result.Numbers))
	}
}

func TestScanData_InvalidBytes(t *testing.T) {
	engine := newFakeEngine("12", 90)
	s := New(engine, plainOptions(2, 2))

	_, err := s.ScanData(context.Background(), []byte("not an image"))
	if err == nil {
		t.Fatal("ScanData on undecodable bytes should fail")
	}
	var imgErr *preprocess.InvalidImageError
	if !errors.As(err, &imgErr) {
		t.Errorf("error type: got %v, want *preprocess.InvalidImageError", err)
	}
	if engine.initCalls != 0 {
		t.Errorf("engine should not start when decoding fails, got %d init calls", engine.initCalls)
	}
}

func TestScan_ForwardsLanguage(t *testing.T) {
	engine := newFakeEngine("12", 90)
	opts := plainOptions(2, 2)
	opts.Language = "spa"
	s := New(engine, opts)

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if engine.params.Language != "spa" {
		t.Errorf("engine language: got %q, want %q", engine.params.Language, "spa")
	}
}
