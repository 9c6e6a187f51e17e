// Package detect locates individual bingo card regions inside a single
// photograph.
//
// # Resolution Order
//
// DetectCards tries four strategies, in order:
//
//  1. Explicit layout: the caller states the rows x cols arrangement and
//     the image is split directly.
//  2. Expected count: the caller states how many cards the photograph
//     contains; the detector picks the factor pair whose cell aspect
//     ratio best matches the image's aspect ratio, so square photographs
//     prefer near-square grids (4 -> 2x2) and wide photographs prefer
//     more columns than rows.
//  3. Automatic separator detection: with no caller hints, the detector
//     profiles average pixel darkness per column and per row. Straight
//     dark separator lines between cards show up as spikes in those
//     profiles; the surviving vertical and horizontal cut positions are
//     combined into a grid of bounding boxes.
//  4. Fallback: the whole photograph is treated as one card.
//
// # Error Policy
//
// The explicit and expected-count paths reflect a caller-stated
// expectation, so a split whose card area fractions violate the
// configured bounds fails loudly with *LayoutConstraintError. Automatic
// detection degrades gracefully instead: implausible splits are treated
// as noise, never as errors, and detection falls back to fewer cards or
// a single card.
//
// # Coordinate System
//
// All coordinates are 0-based with the origin at the top-left corner,
// X increasing rightward and Y increasing downward. Card indices follow
// reading order: row-major, left-to-right then top-to-bottom.
//
// # Limitations
//
// Detection assumes reasonably axis-aligned, upright photographs. There
// is no perspective, rotation, or skew correction, and no learned text
// detection; segmentation is purely geometric and statistical.
package detect
