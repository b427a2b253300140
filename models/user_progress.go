package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReviewState is the SM-2 scheduler state of one (student, flashcard) pair.
type ReviewState struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string `gorm:"type:varchar(64);not null;uniqueIndex:idx_review_states_user_card,priority:1" json:"user_id"`
	FlashcardID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_review_states_user_card,priority:2;index" json:"flashcard_id"`

	EaseFactor     float64    `gorm:"not null;default:2.5" json:"ease_factor"`
	Interval       int        `gorm:"column:interval_days;not null;default:0" json:"interval"`
	Repetitions    int        `gorm:"not null;default:0;index" json:"repetitions"`
	NextReviewAt   time.Time  `gorm:"not null;index" json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`

	Flashcard *Flashcard `json:"-" gorm:"foreignKey:FlashcardID"`

	Timestamps
}

func (r *ReviewState) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// CurriculumProgress counts how many full passes a student has made over a topic.
type CurriculumProgress struct {
	ID              string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID          string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_curriculum_user_topic,priority:1" json:"user_id"`
	Topic           Topic      `gorm:"type:varchar(64);not null;uniqueIndex:idx_curriculum_user_topic,priority:2" json:"topic"`
	Completions     int        `gorm:"not null;default:0" json:"completions"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty"`

	Timestamps
}

func (CurriculumProgress) TableName() string { return "curriculum_progress" }

func (c *CurriculumProgress) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// FlashcardReview is one row per submitted review; the daily cap counts these.
type FlashcardReview struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string    `gorm:"type:varchar(64);not null;index:idx_flashcard_reviews_user_at,priority:1" json:"user_id"`
	FlashcardID string    `gorm:"type:varchar(36);not null" json:"flashcard_id"`
	Quality     int       `gorm:"not null" json:"quality"`
	ReviewedAt  time.Time `gorm:"not null;index:idx_flashcard_reviews_user_at,priority:2" json:"reviewed_at"`
}

func (f *FlashcardReview) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// FlashcardFavorite bookmarks a flashcard for a student.
type FlashcardFavorite struct {
	UserID      string    `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	FlashcardID string    `gorm:"primaryKey;type:varchar(36)" json:"flashcard_id"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
