package derive

// SignChanges encodes the frame-to-frame direction of values: element 0 is
// always 0 and element i is the sign of values[i]-values[i-1]. Equal
// neighbours, and deltas involving NaN, encode as 0.
func SignChanges(values []float32) []int8 {
	out := make([]int8, len(values))
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		switch {
		case delta > 0:
			out[i] = 1
		case delta < 0:
			out[i] = -1
		}
	}
	return out
}
