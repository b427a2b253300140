package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan is the subscription level of a student.
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanPremium Plan = "PREMIUM"
)

// Student is the local copy of a user of the identity provider. The ID is the
// provider's user id, so it matches the X-User-ID header forwarded by the gateway.
// Populated by the profile sync worker and on first contact.
type Student struct {
	ID         string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email      string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Plan       Plan   `gorm:"type:varchar(16);not null;default:'FREE'" json:"plan"`
	XP         int64  `gorm:"column:xp;not null;default:0" json:"xp"`
	CausasWon  int    `gorm:"not null;default:0" json:"causas_won"`
	CausasLost int    `gorm:"not null;default:0" json:"causas_lost"`

	Timestamps
}

func (Student) TableName() string { return "users" }

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	if s.Plan == "" {
		s.Plan = PlanFree
	}
	return nil
}

// FullName joins first and last name, skipping empty parts.
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

func (s *Student) IsPremium() bool { return s.Plan == PlanPremium }
