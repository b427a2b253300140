package services

import (
	"log"
	"math"
	"time"

	"lexamen/gamification"
	"lexamen/metrics"
	"lexamen/models"

	lru "github.com/hashicorp/golang-lru"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const topicTotalTTL = 5 * time.Minute

type topicTotal struct {
	count    int64
	loadedAt time.Time
}

// ReviewService runs flashcard reviews through the SM-2 scheduler and
// tracks full passes over curriculum topics.
type ReviewService struct {
	*ProgressionService

	// topic -> topicTotal for the curriculum view.
	topicTotals *lru.Cache
}

func NewReviewService(p *ProgressionService) *ReviewService {
	cache, err := lru.New(len(models.Topics()) + 8)
	if err != nil {
		log.Fatalf("failed to create topic cache: %v", err)
	}
	return &ReviewService{ProgressionService: p, topicTotals: cache}
}

// ReviewOutcome is the result of SubmitReview. When LimitReached is set
// nothing was written and only ReviewsToday is meaningful.
type ReviewOutcome struct {
	LimitReached   bool         `json:"limit,omitempty"`
	ReviewsToday   int64        `json:"reviews_today"`
	NextReviewAt   time.Time    `json:"next_review_at"`
	Interval       int          `json:"interval"`
	EaseFactor     float64      `json:"ease_factor"`
	Repetitions    int          `json:"repetitions"`
	CompletedTopic models.Topic `json:"completed_topic,omitempty"`
}

// SubmitReview applies one SM-2 step for (userID, flashcardID). Free-plan
// students are capped at 30 reviews per local day.
func (s *ReviewService) SubmitReview(userID, flashcardID string, quality int) (*ReviewOutcome, error) {
	q := gamification.Quality(quality)
	if !q.Valid() {
		return nil, validation("quality must be 0, 3 or 5")
	}
	if flashcardID == "" {
		return nil, validation("flashcard_id is required")
	}

	var out *ReviewOutcome
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		st, err := s.loadStudent(tx, userID, true)
		if err != nil {
			return err
		}

		var used int64
		if err := tx.Model(&models.FlashcardReview{}).
			Where("user_id = ? AND reviewed_at >= ?", userID, s.dayStart()).
			Count(&used).Error; err != nil {
			return internal(err, "count reviews today")
		}
		if gamification.LimitReached(gamification.ContentFlashcard, int(used), st.IsPremium()) {
			out = &ReviewOutcome{LimitReached: true, ReviewsToday: used}
			return nil
		}

		var card models.Flashcard
		if err := tx.Where("id = ?", flashcardID).First(&card).Error; err != nil {
			if isNotFound(err) {
				return notFound("flashcard not found")
			}
			return internal(err, "load flashcard")
		}

		prior := gamification.SM2Input{Quality: q, EaseFactor: gamification.DefaultEaseFactor}
		var state models.ReviewState
		err = tx.Where("user_id = ? AND flashcard_id = ?", userID, flashcardID).First(&state).Error
		switch {
		case err == nil:
			prior.Repetitions, prior.Interval, prior.EaseFactor = state.Repetitions, state.Interval, state.EaseFactor
		case !isNotFound(err):
			return internal(err, "load review state")
		}

		now := s.now()
		res := gamification.CalculateSM2(prior, s.localNow())
		next := models.ReviewState{
			UserID:         userID,
			FlashcardID:    flashcardID,
			EaseFactor:     res.EaseFactor,
			Interval:       res.Interval,
			Repetitions:    res.Repetitions,
			NextReviewAt:   res.NextReviewAt.UTC(),
			LastReviewedAt: &now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "flashcard_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"ease_factor", "interval_days", "repetitions",
				"next_review_at", "last_reviewed_at", "updated_at",
			}),
		}).Create(&next).Error; err != nil {
			return internal(err, "save review state")
		}

		if err := tx.Create(&models.FlashcardReview{
			UserID:      userID,
			FlashcardID: flashcardID,
			Quality:     quality,
			ReviewedAt:  now,
		}).Error; err != nil {
			return internal(err, "record review")
		}

		out = &ReviewOutcome{
			ReviewsToday: used + 1,
			NextReviewAt: next.NextReviewAt,
			Interval:     res.Interval,
			EaseFactor:   res.EaseFactor,
			Repetitions:  res.Repetitions,
		}

		if gamification.IsDominated(res.Repetitions) {
			done, err := s.completeTopicIfDominated(tx, userID, card.Topic, now)
			if err != nil {
				return err
			}
			if done {
				out.CompletedTopic = card.Topic
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if out.LimitReached {
		metrics.ObserveAttempt(string(gamification.ContentFlashcard), "limited")
	} else {
		metrics.ObserveReview(quality)
	}
	return out, nil
}

// completeTopicIfDominated closes a pass over topic once every card in it is
// dominated: the completion counter goes up and every card of the topic is
// due again from scratch.
func (s *ReviewService) completeTopicIfDominated(tx *gorm.DB, userID string, topic models.Topic, now time.Time) (bool, error) {
	total, err := s.topicCardCount(tx, topic)
	if err != nil {
		return false, err
	}
	if total == 0 {
		return false, nil
	}

	var dominated int64
	if err := tx.Model(&models.ReviewState{}).
		Joins("JOIN flashcards ON flashcards.id = review_states.flashcard_id AND flashcards.deleted_at IS NULL").
		Where("review_states.user_id = ? AND review_states.repetitions >= ? AND flashcards.topic = ?",
			userID, gamification.DominatedRepetitions, topic).
		Count(&dominated).Error; err != nil {
		return false, internal(err, "count dominated cards")
	}
	if dominated < total {
		return false, nil
	}

	progress := models.CurriculumProgress{
		UserID:          userID,
		Topic:           topic,
		Completions:     1,
		LastCompletedAt: &now,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "topic"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"completions":       gorm.Expr("curriculum_progress.completions + 1"),
			"last_completed_at": now,
			"updated_at":        now,
		}),
	}).Create(&progress).Error; err != nil {
		return false, internal(err, "record topic completion")
	}

	topicCards := tx.Model(&models.Flashcard{}).Select("id").Where("topic = ?", topic)
	if err := tx.Model(&models.ReviewState{}).
		Where("user_id = ? AND flashcard_id IN (?)", userID, topicCards).
		UpdateColumns(map[string]interface{}{
			"repetitions":    0,
			"interval_days":  0,
			"next_review_at": now,
			"updated_at":     now,
		}).Error; err != nil {
		return false, internal(err, "reset topic review states")
	}

	metrics.ObserveTopicCompletion()
	log.Printf("📚 [REVIEW] %s completed topic %s", userID, topic)
	return true, nil
}

// topicCardCount counts the live flashcards of topic inside tx. The count is
// always fresh because it decides completion; the cache is only refreshed.
func (s *ReviewService) topicCardCount(tx *gorm.DB, topic models.Topic) (int64, error) {
	var n int64
	if err := tx.Model(&models.Flashcard{}).Where("topic = ?", topic).Count(&n).Error; err != nil {
		return 0, internal(err, "count topic cards")
	}
	s.topicTotals.Add(topic, topicTotal{count: n, loadedAt: s.now()})
	return n, nil
}

// curriculumTotals returns card counts for every known topic. Counts are
// served from the cache while fresh and are display-only.
func (s *ReviewService) curriculumTotals() (map[models.Topic]int64, error) {
	now := s.now()
	all := models.Topics()
	out := make(map[models.Topic]int64, len(all))
	for _, t := range all {
		v, ok := s.topicTotals.Get(t)
		if !ok || now.Sub(v.(topicTotal).loadedAt) >= topicTotalTTL {
			out = nil
			break
		}
		out[t] = v.(topicTotal).count
	}
	if out != nil {
		return out, nil
	}

	type row struct {
		Topic models.Topic
		N     int64
	}
	var rows []row
	if err := s.DB.Model(&models.Flashcard{}).
		Select("topic, COUNT(*) AS n").
		Group("topic").
		Scan(&rows).Error; err != nil {
		return nil, internal(err, "count cards per topic")
	}
	out = make(map[models.Topic]int64, len(all))
	for _, r := range rows {
		out[r.Topic] = r.N
	}
	for _, t := range all {
		s.topicTotals.Add(t, topicTotal{count: out[t], loadedAt: now})
	}
	return out, nil
}

// TopicProgress is one row of the curriculum progress view.
type TopicProgress struct {
	Topic       models.Topic   `json:"topic"`
	Label       string         `json:"label"`
	Subject     models.Subject `json:"subject"`
	Total       int64          `json:"total"`
	Dominated   int64          `json:"dominated"`
	Percent     int            `json:"percent"`
	Completions int            `json:"completions"`
}

// CurriculumProgress reports, per topic in curriculum order, how many cards
// exist, how many the student currently dominates and how many passes they
// have completed.
func (s *ReviewService) CurriculumProgress(userID string) ([]TopicProgress, error) {
	type row struct {
		Topic models.Topic
		N     int64
	}

	totalBy, err := s.curriculumTotals()
	if err != nil {
		return nil, err
	}

	var dominated []row
	if err := s.DB.Model(&models.ReviewState{}).
		Select("flashcards.topic AS topic, COUNT(*) AS n").
		Joins("JOIN flashcards ON flashcards.id = review_states.flashcard_id AND flashcards.deleted_at IS NULL").
		Where("review_states.user_id = ? AND review_states.repetitions >= ?", userID, gamification.DominatedRepetitions).
		Group("flashcards.topic").
		Scan(&dominated).Error; err != nil {
		return nil, internal(err, "count dominated per topic")
	}

	var passes []models.CurriculumProgress
	if err := s.DB.Where("user_id = ?", userID).Find(&passes).Error; err != nil {
		return nil, internal(err, "load curriculum progress")
	}

	domBy := make(map[models.Topic]int64, len(dominated))
	for _, r := range dominated {
		domBy[r.Topic] = r.N
	}
	passBy := make(map[models.Topic]int, len(passes))
	for _, p := range passes {
		passBy[p.Topic] = p.Completions
	}

	out := make([]TopicProgress, 0, len(models.Topics()))
	for _, t := range models.Topics() {
		total := totalBy[t]
		if total == 0 && passBy[t] == 0 {
			continue
		}
		tp := TopicProgress{
			Topic:       t,
			Label:       t.Label(),
			Subject:     t.Subject(),
			Total:       total,
			Dominated:   domBy[t],
			Completions: passBy[t],
		}
		if total > 0 {
			tp.Percent = int(math.Round(float64(tp.Dominated) / float64(total) * 100))
		}
		out = append(out, tp)
	}
	return out, nil
}

// SetFavorite bookmarks or un-bookmarks a flashcard. Both directions are idempotent.
func (s *ReviewService) SetFavorite(userID, flashcardID string, add bool) error {
	if flashcardID == "" {
		return validation("flashcard_id is required")
	}
	if !add {
		if err := s.DB.Where("user_id = ? AND flashcard_id = ?", userID, flashcardID).
			Delete(&models.FlashcardFavorite{}).Error; err != nil {
			return internal(err, "remove favorite")
		}
		return nil
	}

	var n int64
	if err := s.DB.Model(&models.Flashcard{}).Where("id = ?", flashcardID).Count(&n).Error; err != nil {
		return internal(err, "check flashcard")
	}
	if n == 0 {
		return notFound("flashcard not found")
	}
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.FlashcardFavorite{UserID: userID, FlashcardID: flashcardID}).Error; err != nil {
		return internal(err, "add favorite")
	}
	return nil
}
