// Package parser turns noisy OCR text into validated bingo grid numbers.
//
// OCR noise is expected and routine here, not exceptional: text that
// cannot be parsed into a valid number degrades to a nil number rather
// than an error, and the caller decides whether an incomplete grid is
// acceptable.
//
// The correction heuristics are deliberately explicit, ordered strategy
// chains so their behavior does not drift: digit-lookalike substitution
// (O->0, I->1, l->1, S->5, Z->2) runs before digit filtering, and an
// out-of-range parse falls back to the first two digits, then the last
// two digits, of the cleaned string, taking the first candidate in range.
//
// All functions are pure and safe for concurrent use; configuration is
// passed explicitly through ScanOptions rather than held in mutable
// package state.
package parser
