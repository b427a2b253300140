package models

import (
	"fmt"
	"strings"
	"time"

	"lexamen/gamification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Classification places a study item in the curriculum.
type Classification struct {
	Subject Subject            `gorm:"type:varchar(16);not null;index" json:"subject"`
	Topic   Topic              `gorm:"type:varchar(64);not null;index" json:"topic"`
	Level   gamification.Level `gorm:"type:varchar(16);not null;default:'BASICO'" json:"level"`
}

// normalize canonicalises free-form subject and topic spellings and rejects
// anything outside the closed taxonomy.
func (c *Classification) normalize() error {
	topic, err := ParseTopic(string(c.Topic))
	if err != nil {
		return err
	}
	c.Topic = topic
	if c.Subject == "" {
		c.Subject = topic.Subject()
	} else {
		subject, err := ParseSubject(string(c.Subject))
		if err != nil {
			return err
		}
		if subject != topic.Subject() {
			return fmt.Errorf("topic %s does not belong to subject %s", topic, subject)
		}
		c.Subject = subject
	}
	if c.Level == "" {
		c.Level = gamification.LevelBasic
	}
	if !c.Level.Valid() {
		return fmt.Errorf("unknown level %q", c.Level)
	}
	return nil
}

type Flashcard struct {
	ID    string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Front string `gorm:"type:text;not null" json:"front"`
	Back  string `gorm:"type:text;not null" json:"back"`
	Classification
	Timestamps
}

func (f *Flashcard) BeforeSave(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return f.Classification.normalize()
}

// MCQ is a four-option multiple-choice question.
type MCQ struct {
	ID            string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Question      string `gorm:"type:text;not null" json:"question"`
	OptionA       string `gorm:"type:text;not null" json:"option_a"`
	OptionB       string `gorm:"type:text;not null" json:"option_b"`
	OptionC       string `gorm:"type:text;not null" json:"option_c"`
	OptionD       string `gorm:"type:text;not null" json:"option_d"`
	CorrectOption string `gorm:"type:varchar(1);not null" json:"-"`
	Explanation   string `gorm:"type:text" json:"-"`
	Classification
	Timestamps
}

func (MCQ) TableName() string { return "mcqs" }

func (m *MCQ) BeforeSave(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CorrectOption = strings.ToUpper(strings.TrimSpace(m.CorrectOption))
	if !gamification.ValidOption(m.CorrectOption) {
		return fmt.Errorf("correct option must be one of A-D, got %q", m.CorrectOption)
	}
	return m.Classification.normalize()
}

// TrueFalse is a statement the student marks as true or false.
type TrueFalse struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Statement   string `gorm:"type:text;not null" json:"statement"`
	IsTrue      bool   `gorm:"not null" json:"-"`
	Explanation string `gorm:"type:text" json:"-"`
	Classification
	Timestamps
}

func (TrueFalse) TableName() string { return "true_false_questions" }

func (t *TrueFalse) BeforeSave(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return t.Classification.normalize()
}

// MCQAttempt is one row per MCQ answer outside duels; the daily cap counts these.
type MCQAttempt struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         string    `gorm:"type:varchar(64);not null;index:idx_mcq_attempts_user_at,priority:1" json:"user_id"`
	MCQID          string    `gorm:"column:mcq_id;type:varchar(36);not null" json:"mcq_id"`
	SelectedOption string    `gorm:"type:varchar(1);not null" json:"selected_option"`
	IsCorrect      bool      `json:"is_correct"`
	XPEarned       int       `json:"xp_earned"`
	AttemptedAt    time.Time `gorm:"not null;index:idx_mcq_attempts_user_at,priority:2" json:"attempted_at"`
}

func (a *MCQAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// TrueFalseAttempt is one row per true/false answer; the daily cap counts these.
type TrueFalseAttempt struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string    `gorm:"type:varchar(64);not null;index:idx_tf_attempts_user_at,priority:1" json:"user_id"`
	TrueFalseID string    `gorm:"type:varchar(36);not null" json:"true_false_id"`
	Answer      bool      `json:"answer"`
	IsCorrect   bool      `json:"is_correct"`
	XPEarned    int       `json:"xp_earned"`
	AttemptedAt time.Time `gorm:"not null;index:idx_tf_attempts_user_at,priority:2" json:"attempted_at"`
}

func (a *TrueFalseAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
