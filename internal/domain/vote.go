package domain

import "strconv"

// Vote is one value from the closed estimation deck.
// The zero value means the member has not voted.
type Vote string

const (
	VoteAbsent Vote = ""
	VoteCoffee Vote = "coffee"
	VoteUnsure Vote = "unsure"

	// VoteHidden is the redacted marker shown for a cast vote before reveal.
	// It is never accepted as input and never stored.
	VoteHidden Vote = "hidden"
)

// Deck is the full set of castable values, in display order.
var Deck = []Vote{"1", "2", "3", "5", "8", "13", "21", "34", "55", VoteCoffee, VoteUnsure}

// ParseVote accepts only values from the deck.
func ParseVote(s string) (Vote, error) {
	for _, v := range Deck {
		if Vote(s) == v {
			return v, nil
		}
	}
	return VoteAbsent, ErrInvalidVote
}

// Numeric reports the vote as a number when it is one.
// Coffee, unsure, hidden and absent votes are not numeric.
func (v Vote) Numeric() (float64, bool) {
	switch v {
	case VoteAbsent, VoteCoffee, VoteUnsure, VoteHidden:
		return 0, false
	}
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
