// Package scanner orchestrates the card scanning pipeline: card
// detection, preprocessing, per-cell OCR, and parsing into structured
// scan results.
//
// # Engine Lifecycle
//
// The scanner owns its OCR engine exclusively and moves it between two
// states, uninitialized and ready. Initialize is idempotent; Terminate on
// an uninitialized scanner is a no-op. A one-off Scan on an uninitialized
// scanner starts and stops the engine itself, while ScanMultiple and
// ScanMultipleFromImage initialize at most once for the whole batch and
// never tear down between images.
//
// # Concurrency
//
// At most one OCR call is in flight against the engine at any time.
// Per-cell calls within one scan run sequentially in reading order, which
// both bounds memory and guarantees that results are attributed to the
// correct (row, col) position. Distinct Scanner instances with distinct
// engines may run concurrently; detection and parsing are pure and
// reentrant.
package scanner
