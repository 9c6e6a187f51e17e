package ocr

import (
	"context"
	"image"
)

// Recognition is the text recognized from one cell image together with the
// engine's self-reported confidence (0-100).
type Recognition struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Parameters configures an engine. Language is a Tesseract language tag
// ("eng", "spa"). PageSegMode is the Tesseract page segmentation mode;
// values <= 0 leave the engine default in place. Whitelist restricts the
// characters the engine may emit; empty means unrestricted.
type Parameters struct {
	Language    string
	PageSegMode int
	Whitelist   string
}

// Engine is the text-recognition capability consumed by the scanner: one
// cell image in, recognized text and confidence out.
//
// An engine is an expensive stateful resource. Init and Close bracket its
// lifetime; Init on a live engine and Close on a dead one are both no-ops.
// A single engine instance must never be driven from two concurrent call
// sites.
type Engine interface {
	// Init starts the engine. Idempotent: calling Init while the engine is
	// already running does not recreate it.
	Init(ctx context.Context) error

	// SetParameters reconfigures the engine; zero-valued fields leave the
	// current configuration untouched. Takes effect immediately on a
	// running engine, or at the next Init otherwise.
	SetParameters(p Parameters) error

	// Recognize runs text recognition over a single cell image. The engine
	// must be initialized.
	Recognize(ctx context.Context, img image.Image) (Recognition, error)

	// Close stops the engine and releases its resources. Safe to call on
	// an engine that was never initialized.
	Close(ctx context.Context) error
}
