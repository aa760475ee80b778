package derive

// Stats counts the direction changes in a sign-change channel.
type Stats struct {
	Rising  int
	Falling int
	Steady  int
}

// Summarize tallies rising, falling, and steady frames.
func Summarize(changes []int8) Stats {
	var s Stats
	for _, v := range changes {
		switch {
		case v > 0:
			s.Rising++
		case v < 0:
			s.Falling++
		default:
			s.Steady++
		}
	}
	return s
}

// Changed reports whether the channel moved at all.
func (s Stats) Changed() bool {
	return s.Rising > 0 || s.Falling > 0
}
