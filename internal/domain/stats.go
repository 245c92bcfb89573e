package domain

// VoteSummary is a read-only projection over revealed votes,
// computed at the edge and never stored.
type VoteSummary struct {
	Average      float64      `json:"average"`
	Distribution map[Vote]int `json:"distribution"`
}

// Summarize averages the numeric votes of a revealed state and counts
// every cast value. Meaningless before reveal: hidden markers carry no
// value, so callers only summarize states with ShowResults set.
func Summarize(state VisibleRoomState) VoteSummary {
	sum := VoteSummary{Distribution: make(map[Vote]int)}
	var total float64
	var n int
	for _, m := range state.Members {
		if m.Vote == VoteAbsent || m.Vote == VoteHidden {
			continue
		}
		sum.Distribution[m.Vote]++
		if f, ok := m.Vote.Numeric(); ok {
			total += f
			n++
		}
	}
	if n > 0 {
		sum.Average = total / float64(n)
	}
	return sum
}
