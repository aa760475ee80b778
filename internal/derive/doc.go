// Package derive computes the discrete features derived from raw channels:
// sign-change encodings of frame-to-frame deltas and their max-magnitude
// normalization.
package derive
