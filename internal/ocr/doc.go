// Package ocr defines the text-recognition capability consumed by the
// scanner and provides its Tesseract implementation.
//
// The Engine interface is intentionally small so the scanner's lifecycle
// state machine can be exercised with a fake engine in tests, and so the
// concrete provider can be swapped without touching the pipeline.
//
// # Prerequisites
//
// The Tesseract implementation uses gosseract/v2 and needs the Tesseract
// libraries installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required per language (e.g. tesseract-ocr-eng,
// tesseract-ocr-spa).
//
// # Resource Model
//
// An engine is an expensive stateful resource: creating the Tesseract
// client has non-trivial startup cost, so Init/Close bracket a batch of
// Recognize calls rather than each call. A single engine instance is a
// single-job-at-a-time resource and must not be shared across concurrent
// call sites; the scanner enforces this by owning its engine exclusively.
package ocr
