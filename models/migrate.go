package models

import "gorm.io/gorm"

// All lists every persisted model in dependency order.
func All() []interface{} {
	return []interface{}{
		&Student{},
		&Flashcard{},
		&MCQ{},
		&TrueFalse{},
		&ReviewState{},
		&CurriculumProgress{},
		&FlashcardReview{},
		&FlashcardFavorite{},
		&MCQAttempt{},
		&TrueFalseAttempt{},
		&League{},
		&LeagueMember{},
		&WeekRollover{},
		&Causa{},
		&CausaAnswer{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
