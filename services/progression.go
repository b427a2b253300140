package services

import (
	"log"
	"time"

	"lexamen/gamification"
	"lexamen/metrics"
	"lexamen/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressionService owns the storage handle, the clock and the XP ledger.
// The other services embed it so every operation shares one notion of "now".
type ProgressionService struct {
	DB *gorm.DB

	// Location decides where "today" starts for daily caps and due dates.
	Location *time.Location

	// Now is the wall clock; tests replace it.
	Now func() time.Time
}

func NewProgressionService(db *gorm.DB, loc *time.Location) *ProgressionService {
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressionService{DB: db, Location: loc, Now: time.Now}
}

func (s *ProgressionService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *ProgressionService) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// localNow is now in the configured zone, for day arithmetic.
func (s *ProgressionService) localNow() time.Time {
	return s.now().In(s.location())
}

// dayStart is local midnight of today, in UTC, as the lower bound of the
// daily cap window.
func (s *ProgressionService) dayStart() time.Time {
	return gamification.StartOfDay(s.localNow()).UTC()
}

// loadStudent fetches the student row, optionally locking it for the rest of
// the transaction so concurrent capped submissions by one user serialize.
func (s *ProgressionService) loadStudent(tx *gorm.DB, userID string, lock bool) (*models.Student, error) {
	if userID == "" {
		return nil, forbidden("missing user identity")
	}
	q := tx
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var st models.Student
	if err := q.Where("id = ?", userID).First(&st).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("student not found")
		}
		return nil, internal(err, "load student")
	}
	return &st, nil
}

// AwardXP atomically credits xp to the student's lifetime total and, when a
// membership for the current league week exists, to its weekly total.
func (s *ProgressionService) AwardXP(tx *gorm.DB, userID string, xp int64, reason string) error {
	if xp <= 0 {
		return nil
	}
	res := tx.Model(&models.Student{}).
		Where("id = ?", userID).
		UpdateColumn("xp", gorm.Expr("xp + ?", xp))
	if res.Error != nil {
		return internal(res.Error, "award xp")
	}
	if res.RowsAffected == 0 {
		return notFound("student not found")
	}

	weekStart, _ := gamification.WeekBounds(s.now())
	if err := tx.Model(&models.LeagueMember{}).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		UpdateColumn("weekly_xp", gorm.Expr("weekly_xp + ?", xp)).Error; err != nil {
		return internal(err, "award weekly xp")
	}

	metrics.ObserveXP(reason, xp)
	log.Printf("🎮 [XP] %s +%d (reason: %s)", userID, xp, reason)
	return nil
}

// ProgressSummary is the student's profile card.
type ProgressSummary struct {
	UserID     string            `json:"user_id"`
	Name       string            `json:"name"`
	Plan       models.Plan       `json:"plan"`
	XP         int64             `json:"xp"`
	CausasWon  int               `json:"causas_won"`
	CausasLost int               `json:"causas_lost"`
	Tier       gamification.Tier `json:"tier"`
	TierLabel  string            `json:"tier_label"`
	WeeklyXP   int64             `json:"weekly_xp"`
	Topics     int64             `json:"topics_completed"`
}

// GetProgress summarises lifetime and current-week progress without
// creating a league membership.
func (s *ProgressionService) GetProgress(userID string) (*ProgressSummary, error) {
	st, err := s.loadStudent(s.DB, userID, false)
	if err != nil {
		return nil, err
	}

	sum := &ProgressSummary{
		UserID:     st.ID,
		Name:       st.FullName(),
		Plan:       st.Plan,
		XP:         st.XP,
		CausasWon:  st.CausasWon,
		CausasLost: st.CausasLost,
		Tier:       gamification.TierCarton,
	}

	var member models.LeagueMember
	err = s.DB.Preload("League").
		Where("user_id = ?", userID).
		Order("week_start DESC").
		First(&member).Error
	switch {
	case err == nil:
		sum.Tier = member.League.Tier
		if weekStart, _ := gamification.WeekBounds(s.now()); member.WeekStart.Equal(weekStart) {
			sum.WeeklyXP = member.WeeklyXP
		}
	case !isNotFound(err):
		return nil, internal(err, "load membership")
	}
	sum.TierLabel = sum.Tier.Label()

	if err := s.DB.Model(&models.CurriculumProgress{}).
		Where("user_id = ? AND completions > 0", userID).
		Count(&sum.Topics).Error; err != nil {
		return nil, internal(err, "count completed topics")
	}
	return sum, nil
}
