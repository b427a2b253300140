// Package gamification holds the pure scoring rules: the SM-2 review
// scheduler, the XP tables, the league tier ladder and duel scoring.
// Nothing in here touches storage or reads the wall clock.
package gamification

import (
	"math"
	"time"
)

// Quality is the self-assessed recall rating sent with a flashcard review.
type Quality int

const (
	QualityFailed Quality = 0 // did not know it
	QualityHard   Quality = 3 // knew it with effort
	QualityEasy   Quality = 5 // knew it

	MinEaseFactor        = 1.3
	DefaultEaseFactor    = 2.5
	DominatedRepetitions = 3
)

// Valid reports whether q is one of the three ratings the client can send.
func (q Quality) Valid() bool {
	return q == QualityFailed || q == QualityHard || q == QualityEasy
}

// SM2Input is the prior scheduler state of a (user, card) pair plus the new rating.
type SM2Input struct {
	Quality     Quality
	Repetitions int
	Interval    int // days
	EaseFactor  float64
}

// SM2Result is the next scheduler state.
type SM2Result struct {
	Repetitions  int
	Interval     int // days
	EaseFactor   float64
	NextReviewAt time.Time
}

// CalculateSM2 applies one SM-2 step. The next review lands on local midnight
// of today+interval, in now's location, whatever the time of day of the review.
func CalculateSM2(in SM2Input, now time.Time) SM2Result {
	q := float64(in.Quality)
	ef := in.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}

	var reps, interval int
	if in.Quality >= QualityHard {
		switch in.Repetitions {
		case 0:
			interval = 1
		case 1:
			interval = 6
		default:
			interval = int(math.Round(float64(in.Interval) * ef))
		}
		reps = in.Repetitions + 1
	} else {
		reps = 0
		interval = 1
	}

	return SM2Result{
		Repetitions:  reps,
		Interval:     interval,
		EaseFactor:   math.Round(ef*100) / 100,
		NextReviewAt: StartOfDay(now).AddDate(0, 0, interval),
	}
}

// IsDominated reports whether a card with this many consecutive successful
// repetitions counts as learned for the current pass over its topic.
func IsDominated(repetitions int) bool {
	return repetitions >= DominatedRepetitions
}

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
