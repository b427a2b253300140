package services

import (
	"lexamen/gamification"
	"lexamen/metrics"
	"lexamen/models"

	"gorm.io/gorm"
)

// QuizService scores MCQ and true/false answers outside duels.
type QuizService struct {
	*ProgressionService
}

func NewQuizService(p *ProgressionService) *QuizService {
	return &QuizService{ProgressionService: p}
}

// AttemptOutcome is the result of an MCQ or true/false submission. When
// LimitReached is set nothing was written and only AttemptsToday is meaningful.
type AttemptOutcome struct {
	LimitReached  bool   `json:"limit,omitempty"`
	AttemptsToday int64  `json:"attempts_today"`
	IsCorrect     bool   `json:"is_correct"`
	CorrectOption string `json:"correct_option,omitempty"`
	CorrectAnswer *bool  `json:"correct_answer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
	XPGained      int    `json:"xp_gained"`
	StreakBonus   int    `json:"streak_bonus"`
}

// usedToday counts today's rows of ledger for userID and reports whether the
// student's cap is already exhausted.
func (s *QuizService) usedToday(tx *gorm.DB, st *models.Student, ct gamification.ContentType, ledger interface{}) (int64, bool, error) {
	var used int64
	if err := tx.Model(ledger).
		Where("user_id = ? AND attempted_at >= ?", st.ID, s.dayStart()).
		Count(&used).Error; err != nil {
		return 0, false, internal(err, "count attempts today")
	}
	return used, gamification.LimitReached(ct, int(used), st.IsPremium()), nil
}

// SubmitMCQAttempt scores one multiple-choice answer. Free-plan students are
// capped at 10 attempts per local day.
func (s *QuizService) SubmitMCQAttempt(userID, mcqID, selectedOption string, streak int) (*AttemptOutcome, error) {
	if mcqID == "" {
		return nil, validation("mcq_id is required")
	}
	if !gamification.ValidOption(selectedOption) {
		return nil, validation("selected_option must be A, B, C or D")
	}
	if streak < 0 {
		return nil, validation("streak must not be negative")
	}

	var out *AttemptOutcome
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		st, err := s.loadStudent(tx, userID, true)
		if err != nil {
			return err
		}
		used, limited, err := s.usedToday(tx, st, gamification.ContentMCQ, &models.MCQAttempt{})
		if err != nil {
			return err
		}
		if limited {
			out = &AttemptOutcome{LimitReached: true, AttemptsToday: used}
			return nil
		}

		var q models.MCQ
		if err := tx.Where("id = ?", mcqID).First(&q).Error; err != nil {
			if isNotFound(err) {
				return notFound("question not found")
			}
			return internal(err, "load mcq")
		}

		correct := selectedOption == q.CorrectOption
		xp, bonus := gamification.AwardForAnswer(gamification.ContentMCQ, q.Level, correct, streak)

		if err := tx.Create(&models.MCQAttempt{
			UserID:         userID,
			MCQID:          mcqID,
			SelectedOption: selectedOption,
			IsCorrect:      correct,
			XPEarned:       xp,
			AttemptedAt:    s.now(),
		}).Error; err != nil {
			return internal(err, "record mcq attempt")
		}
		if err := s.AwardXP(tx, userID, int64(xp), "mcq"); err != nil {
			return err
		}

		out = &AttemptOutcome{
			AttemptsToday: used + 1,
			IsCorrect:     correct,
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
			XPGained:      xp,
			StreakBonus:   bonus,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observeAttempt(gamification.ContentMCQ, out)
	return out, nil
}

// SubmitTrueFalseAttempt scores one true/false answer. Free-plan students are
// capped at 20 attempts per local day.
func (s *QuizService) SubmitTrueFalseAttempt(userID, itemID string, answer bool, streak int) (*AttemptOutcome, error) {
	if itemID == "" {
		return nil, validation("true_false_id is required")
	}
	if streak < 0 {
		return nil, validation("streak must not be negative")
	}

	var out *AttemptOutcome
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		st, err := s.loadStudent(tx, userID, true)
		if err != nil {
			return err
		}
		used, limited, err := s.usedToday(tx, st, gamification.ContentTrueFalse, &models.TrueFalseAttempt{})
		if err != nil {
			return err
		}
		if limited {
			out = &AttemptOutcome{LimitReached: true, AttemptsToday: used}
			return nil
		}

		var item models.TrueFalse
		if err := tx.Where("id = ?", itemID).First(&item).Error; err != nil {
			if isNotFound(err) {
				return notFound("statement not found")
			}
			return internal(err, "load true/false")
		}

		correct := answer == item.IsTrue
		xp, bonus := gamification.AwardForAnswer(gamification.ContentTrueFalse, item.Level, correct, streak)

		if err := tx.Create(&models.TrueFalseAttempt{
			UserID:      userID,
			TrueFalseID: itemID,
			Answer:      answer,
			IsCorrect:   correct,
			XPEarned:    xp,
			AttemptedAt: s.now(),
		}).Error; err != nil {
			return internal(err, "record true/false attempt")
		}
		if err := s.AwardXP(tx, userID, int64(xp), "truefalse"); err != nil {
			return err
		}

		isTrue := item.IsTrue
		out = &AttemptOutcome{
			AttemptsToday: used + 1,
			IsCorrect:     correct,
			CorrectAnswer: &isTrue,
			Explanation:   item.Explanation,
			XPGained:      xp,
			StreakBonus:   bonus,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observeAttempt(gamification.ContentTrueFalse, out)
	return out, nil
}

func observeAttempt(ct gamification.ContentType, out *AttemptOutcome) {
	switch {
	case out.LimitReached:
		metrics.ObserveAttempt(string(ct), "limited")
	case out.IsCorrect:
		metrics.ObserveAttempt(string(ct), "correct")
	default:
		metrics.ObserveAttempt(string(ct), "incorrect")
	}
}
