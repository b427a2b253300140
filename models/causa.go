package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CausaStatus is the lifecycle state of a duel.
type CausaStatus string

const (
	CausaPending   CausaStatus = "PENDING"
	CausaActive    CausaStatus = "ACTIVE"
	CausaCompleted CausaStatus = "COMPLETED"
	CausaRejected  CausaStatus = "REJECTED"
	CausaExpired   CausaStatus = "EXPIRED"
)

// Open reports whether a duel in this state still blocks a new one between the same pair.
func (s CausaStatus) Open() bool {
	return s == CausaPending || s == CausaActive
}

// Causa is a head-to-head duel over the same ten MCQs. PairKey holds the
// sorted participant ids; a partial unique index allows one open duel per pair.
type Causa struct {
	ID           string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ChallengerID string      `gorm:"type:varchar(64);not null;index" json:"challenger_id"`
	ChallengedID string      `gorm:"type:varchar(64);not null;index" json:"challenged_id"`
	PairKey      string      `gorm:"type:varchar(140);not null;uniqueIndex:idx_causas_open_pair,where:status = 'PENDING' OR status = 'ACTIVE'" json:"-"`
	Status       CausaStatus `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	WinnerID     *string     `gorm:"type:varchar(64)" json:"winner_id,omitempty"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	Challenger *Student      `json:"challenger,omitempty" gorm:"foreignKey:ChallengerID"`
	Challenged *Student      `json:"challenged,omitempty" gorm:"foreignKey:ChallengedID"`
	Answers    []CausaAnswer `json:"answers,omitempty" gorm:"foreignKey:CausaID"`
}

func (c *Causa) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsParticipant reports whether userID is one of the two sides.
func (c *Causa) IsParticipant(userID string) bool {
	return userID != "" && (c.ChallengerID == userID || c.ChallengedID == userID)
}

// OpponentOf returns the other side's id.
func (c *Causa) OpponentOf(userID string) string {
	if c.ChallengerID == userID {
		return c.ChallengedID
	}
	return c.ChallengerID
}

// CausaAnswer is one player's slot for one question. Shells are created with
// a nil SelectedOption; a slot is answered once SelectedOption is set, even to "".
type CausaAnswer struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CausaID        string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_causa_answers_slot,priority:1" json:"causa_id"`
	UserID         string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_causa_answers_slot,priority:2" json:"user_id"`
	QuestionIdx    int        `gorm:"not null;uniqueIndex:idx_causa_answers_slot,priority:3" json:"question_idx"`
	MCQID          string     `gorm:"column:mcq_id;type:varchar(36);not null" json:"mcq_id"`
	SelectedOption *string    `gorm:"type:varchar(1)" json:"selected_option"`
	IsCorrect      *bool      `json:"is_correct"`
	TimeMs         *int       `json:"time_ms"`
	Score          int        `gorm:"not null;default:0" json:"score"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`

	MCQ *MCQ `json:"mcq,omitempty" gorm:"foreignKey:MCQID"`
}

func (a *CausaAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Answered reports whether the slot has been submitted.
func (a *CausaAnswer) Answered() bool { return a.SelectedOption != nil }
