package gamification

import "strings"

// Duel ("causa") constants.
const (
	CausaQuestions   = 10
	CausaTimeLimitMS = 30_000
	CausaWinnerXP    = 20

	causaBasePoints = 10
)

// Options lists the answer letters a multiple-choice question accepts.
var Options = []string{"A", "B", "C", "D"}

// ValidOption reports whether opt is one of the MCQ answer letters.
func ValidOption(opt string) bool {
	for _, o := range Options {
		if o == opt {
			return true
		}
	}
	return false
}

// CalculateCausaScore scores one duel answer: nothing when wrong, otherwise
// 10 points plus a speed bonus, for at most 15.
func CalculateCausaScore(correct bool, timeMs int) int {
	if !correct {
		return 0
	}
	score := causaBasePoints
	switch {
	case timeMs < 5_000:
		score += 5
	case timeMs < 10_000:
		score += 3
	case timeMs < 20_000:
		score++
	}
	return score
}

// Tally is one player's aggregate over a finished duel.
type Tally struct {
	UserID   string
	Score    int
	TimeMs   int64
	Answered int
}

// ResolveWinner picks the duel winner: higher score, then lower total time.
// It returns "" when both are tied on score and time.
func ResolveWinner(a, b Tally) string {
	switch {
	case a.Score > b.Score:
		return a.UserID
	case b.Score > a.Score:
		return b.UserID
	case a.TimeMs < b.TimeMs:
		return a.UserID
	case b.TimeMs < a.TimeMs:
		return b.UserID
	}
	return ""
}

// PairKey identifies an unordered pair of users.
func PairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + ":" + b
}
