package models

import (
	"time"

	"lexamen/gamification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// League is one weekly bracket of up to 30 students of the same tier.
// MemberCount is the seat counter; seats are only taken by a conditional
// increment so the capacity can never be exceeded.
type League struct {
	ID          string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Tier        gamification.Tier `gorm:"type:varchar(20);not null;index:idx_leagues_tier_week,priority:1" json:"tier"`
	WeekStart   time.Time         `gorm:"not null;index:idx_leagues_tier_week,priority:2" json:"week_start"`
	WeekEnd     time.Time         `gorm:"not null" json:"week_end"`
	MemberCount int               `gorm:"not null;default:0" json:"member_count"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`

	Members []LeagueMember `json:"members,omitempty" gorm:"foreignKey:LeagueID"`
}

func (l *League) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// LeagueMember places a student in a league for one week. WeekStart is copied
// from the league so (user_id, week_start) can carry a unique index.
type LeagueMember struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	LeagueID  string    `gorm:"type:varchar(36);not null;index" json:"league_id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_league_members_user_week,priority:1" json:"user_id"`
	WeekStart time.Time `gorm:"not null;uniqueIndex:idx_league_members_user_week,priority:2" json:"week_start"`
	WeeklyXP  int64     `gorm:"column:weekly_xp;not null;default:0" json:"weekly_xp"`
	Rank      *int      `json:"rank,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`

	League  *League  `json:"league,omitempty" gorm:"foreignKey:LeagueID"`
	Student *Student `json:"student,omitempty" gorm:"foreignKey:UserID"`
}

func (m *LeagueMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// WeekRollover records a processed league week. The unique week_start makes
// a second rollover of the same week a no-op.
type WeekRollover struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	WeekStart  time.Time      `gorm:"not null;uniqueIndex" json:"week_start"`
	Leagues    int            `json:"processed"`
	Promoted   int            `json:"promoted"`
	Demoted    int            `json:"demoted"`
	Maintained int            `json:"maintained"`
	Summary    datatypes.JSON `json:"summary,omitempty"`
	ArchiveURL string         `json:"archive_url,omitempty"`
	CreatedAt  time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

func (w *WeekRollover) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
