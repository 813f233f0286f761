// Package window bounds the token context shown to a predictor.
package window

// Crop returns the trailing min(len(seq), limit) tokens of seq.
//
// The input is never modified. When seq already fits inside limit it is
// returned as is; no padding is performed. The result has its capacity
// clipped to its length so appending to it cannot write into seq's backing
// array. A non-positive limit yields an empty context.
func Crop(seq []int, limit int) []int {
	if limit <= 0 {
		return seq[len(seq):len(seq):len(seq)]
	}
	if len(seq) <= limit {
		return seq[:len(seq):len(seq)]
	}
	start := len(seq) - limit
	return seq[start:len(seq):len(seq)]
}
