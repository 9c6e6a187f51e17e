// Package preprocess provides the stateless image transforms that prepare
// card photographs for OCR: decode, grayscale normalization with a mild
// contrast boost, aspect-preserving resize, and per-cell cropping.
//
// ExtractAllCells returns cells in reading order (row-major); the parser
// and scanner rely on that ordering.
package preprocess
