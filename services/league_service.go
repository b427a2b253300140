package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"lexamen/gamification"
	"lexamen/metrics"
	"lexamen/models"

	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Archiver stores a closed week's standings somewhere durable and returns its URL.
type Archiver interface {
	ArchiveStandings(ctx context.Context, weekStart time.Time, body []byte) (string, error)
}

// LeagueService assigns students to weekly leagues and closes league weeks.
type LeagueService struct {
	*ProgressionService

	// Archiver is optional; when nil closed weeks are only kept in week_rollovers.
	Archiver Archiver

	// collapses concurrent lazy assignments of the same user in this process;
	// the unique (user_id, week_start) index covers other processes.
	group singleflight.Group
}

func NewLeagueService(p *ProgressionService, archiver Archiver) *LeagueService {
	return &LeagueService{ProgressionService: p, Archiver: archiver}
}

// EnsureMembership returns the student's membership for the current week,
// creating it on first interaction. The tier is carried over from the most
// recent earlier membership, or CARTON for newcomers.
func (s *LeagueService) EnsureMembership(userID string) (*models.LeagueMember, error) {
	v, err, _ := s.group.Do(userID, func() (interface{}, error) {
		return s.ensureMembership(userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.LeagueMember), nil
}

func (s *LeagueService) ensureMembership(userID string) (*models.LeagueMember, error) {
	weekStart, weekEnd := gamification.WeekBounds(s.now())

	member, err := s.findMembership(s.DB, userID, weekStart)
	if err != nil || member != nil {
		return member, err
	}
	if _, err := s.loadStudent(s.DB, userID, false); err != nil {
		return nil, err
	}

	tier := gamification.TierCarton
	var last models.LeagueMember
	err = s.DB.Preload("League").
		Where("user_id = ? AND week_start < ?", userID, weekStart).
		Order("week_start DESC").
		First(&last).Error
	switch {
	case err == nil && last.League != nil:
		tier = last.League.Tier
	case err != nil && !isNotFound(err):
		return nil, internal(err, "load previous membership")
	}

	member, _, err = s.joinLeague(s.DB, userID, tier, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	metrics.ObserveMembership("lazy")
	return member, nil
}

func (s *LeagueService) findMembership(db *gorm.DB, userID string, weekStart time.Time) (*models.LeagueMember, error) {
	var m models.LeagueMember
	err := db.Preload("League").
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&m).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, internal(err, "load membership")
	}
	return &m, nil
}

// joinLeague places userID in an under-capacity league of tier for the week,
// creating a league when all are full. A membership that already exists for
// the week is returned as is with created=false.
func (s *LeagueService) joinLeague(db *gorm.DB, userID string, tier gamification.Tier, weekStart, weekEnd time.Time) (*models.LeagueMember, bool, error) {
	var member models.LeagueMember
	err := db.Transaction(func(tx *gorm.DB) error {
		leagueID, err := s.reserveSeat(tx, tier, weekStart, weekEnd)
		if err != nil {
			return err
		}
		member = models.LeagueMember{LeagueID: leagueID, UserID: userID, WeekStart: weekStart}
		return tx.Create(&member).Error
	})
	if err != nil {
		if isDuplicate(err) {
			existing, ferr := s.findMembership(db, userID, weekStart)
			if ferr != nil {
				return nil, false, ferr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, internal(err, "join league")
	}

	var league models.League
	if err := db.Where("id = ?", member.LeagueID).First(&league).Error; err != nil {
		return nil, false, internal(err, "load league")
	}
	member.League = &league
	log.Printf("🏆 [LEAGUE] %s joined %s league %s (week %s)", userID, tier, league.ID, weekStart.Format("2006-01-02"))
	return &member, true, nil
}

// reserveSeat takes one seat in an existing league through a conditional
// increment, so two concurrent joins can never push a league past capacity.
func (s *LeagueService) reserveSeat(tx *gorm.DB, tier gamification.Tier, weekStart, weekEnd time.Time) (string, error) {
	var open []models.League
	if err := tx.Where("tier = ? AND week_start = ? AND member_count < ?", tier, weekStart, gamification.LeagueCapacity).
		Order("created_at ASC").
		Find(&open).Error; err != nil {
		return "", err
	}
	for _, l := range open {
		res := tx.Model(&models.League{}).
			Where("id = ? AND member_count < ?", l.ID, gamification.LeagueCapacity).
			UpdateColumn("member_count", gorm.Expr("member_count + 1"))
		if res.Error != nil {
			return "", res.Error
		}
		if res.RowsAffected == 1 {
			return l.ID, nil
		}
	}

	league := models.League{Tier: tier, WeekStart: weekStart, WeekEnd: weekEnd, MemberCount: 1}
	if err := tx.Create(&league).Error; err != nil {
		return "", err
	}
	return league.ID, nil
}

// StandingMember is one row of the league table.
type StandingMember struct {
	Position  int    `json:"position"`
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	WeeklyXP  int64  `json:"weekly_xp"`
}

type Standing struct {
	LeagueID      string            `json:"league_id"`
	Tier          gamification.Tier `json:"tier"`
	TierLabel     string            `json:"tier_label"`
	WeekStart     time.Time         `json:"week_start"`
	WeekEnd       time.Time         `json:"week_end"`
	DaysRemaining int               `json:"days_remaining"`
	UserID        string            `json:"user_id"`
	Members       []StandingMember  `json:"members"`
}

// GetStanding returns the caller's league table for the current week,
// joining a league first if needed.
func (s *LeagueService) GetStanding(userID string) (*Standing, error) {
	member, err := s.EnsureMembership(userID)
	if err != nil {
		return nil, err
	}

	var members []models.LeagueMember
	if err := s.DB.Preload("Student").
		Where("league_id = ?", member.LeagueID).
		Order("weekly_xp DESC, created_at ASC, id ASC").
		Find(&members).Error; err != nil {
		return nil, internal(err, "load league members")
	}

	league := member.League
	st := &Standing{
		LeagueID:      league.ID,
		Tier:          league.Tier,
		TierLabel:     league.Tier.Label(),
		WeekStart:     league.WeekStart,
		WeekEnd:       league.WeekEnd,
		DaysRemaining: gamification.DaysRemaining(s.now()),
		UserID:        userID,
		Members:       make([]StandingMember, 0, len(members)),
	}
	for i, m := range members {
		row := StandingMember{Position: i + 1, UserID: m.UserID, WeeklyXP: m.WeeklyXP}
		if m.Student != nil {
			row.FirstName, row.LastName = m.Student.FirstName, m.Student.LastName
		}
		st.Members = append(st.Members, row)
	}
	return st, nil
}

// RolloverSummary reports what a week close did.
type RolloverSummary struct {
	WeekStart        time.Time `json:"week_start"`
	Processed        int       `json:"processed"`
	Promoted         int       `json:"promoted"`
	Demoted          int       `json:"demoted"`
	Maintained       int       `json:"maintained"`
	AlreadyProcessed bool      `json:"already_processed,omitempty"`
	ArchiveURL       string    `json:"archive_url,omitempty"`
}

type rolloverMember struct {
	UserID   string            `json:"user_id"`
	Rank     int               `json:"rank"`
	WeeklyXP int64             `json:"weekly_xp"`
	NewTier  gamification.Tier `json:"new_tier"`
	Movement string            `json:"movement"`
}

type rolloverLeague struct {
	LeagueID string            `json:"league_id"`
	Tier     gamification.Tier `json:"tier"`
	Members  []rolloverMember  `json:"members"`
}

// ProcessWeekRollover closes the previous league week: it ranks every league
// by weekly XP, moves members up or down a tier and enrolls them for the
// current week. A week is closed at most once; later calls return the
// recorded result with AlreadyProcessed set.
func (s *LeagueService) ProcessWeekRollover(ctx context.Context) (*RolloverSummary, error) {
	now := s.now()
	prevStart, _ := gamification.PreviousWeekBounds(now)
	newStart, newEnd := gamification.WeekBounds(now)

	if done, err := s.recordedRollover(prevStart); err != nil || done != nil {
		return done, err
	}

	var leagues []models.League
	if err := s.DB.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("weekly_xp DESC, created_at ASC, id ASC")
		}).
		Where("week_start = ?", prevStart).
		Order("created_at ASC").
		Find(&leagues).Error; err != nil {
		return nil, internal(err, "load previous week leagues")
	}

	sum := &RolloverSummary{WeekStart: prevStart, Processed: len(leagues)}
	report := make([]rolloverLeague, 0, len(leagues))
	var body []byte

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, league := range leagues {
			total := len(league.Members)
			entry := rolloverLeague{LeagueID: league.ID, Tier: league.Tier, Members: make([]rolloverMember, 0, total)}
			for i, m := range league.Members {
				rank := i + 1
				if err := tx.Model(&models.LeagueMember{}).Where("id = ?", m.ID).
					UpdateColumn("rank", rank).Error; err != nil {
					return err
				}

				newTier, mv := gamification.ResolveTransition(league.Tier, rank, total)
				switch mv {
				case gamification.Promoted:
					sum.Promoted++
				case gamification.Demoted:
					sum.Demoted++
				default:
					sum.Maintained++
				}

				_, created, err := s.joinLeague(tx, m.UserID, newTier, newStart, newEnd)
				if err != nil {
					return err
				}
				if created {
					metrics.ObserveMembership("rollover")
				}
				entry.Members = append(entry.Members, rolloverMember{
					UserID: m.UserID, Rank: rank, WeeklyXP: m.WeeklyXP, NewTier: newTier, Movement: string(mv),
				})
			}
			report = append(report, entry)
		}

		var err error
		body, err = json.Marshal(report)
		if err != nil {
			return err
		}
		return tx.Create(&models.WeekRollover{
			WeekStart:  prevStart,
			Leagues:    sum.Processed,
			Promoted:   sum.Promoted,
			Demoted:    sum.Demoted,
			Maintained: sum.Maintained,
			Summary:    datatypes.JSON(body),
		}).Error
	})
	if err != nil {
		if isDuplicate(err) {
			if done, rerr := s.recordedRollover(prevStart); rerr == nil && done != nil {
				return done, nil
			}
		}
		return nil, internal(err, "process week rollover")
	}

	metrics.ObserveMovement(string(gamification.Promoted), sum.Promoted)
	metrics.ObserveMovement(string(gamification.Demoted), sum.Demoted)
	metrics.ObserveMovement(string(gamification.Maintained), sum.Maintained)
	log.Printf("🏁 [LEAGUE] Week %s closed: %d leagues, %d promoted, %d demoted, %d maintained",
		prevStart.Format("2006-01-02"), sum.Processed, sum.Promoted, sum.Demoted, sum.Maintained)

	if s.Archiver != nil {
		url, err := s.Archiver.ArchiveStandings(ctx, prevStart, body)
		if err != nil {
			log.Printf("⚠️ [LEAGUE] Failed to archive standings for week %s: %v", prevStart.Format("2006-01-02"), err)
		} else {
			sum.ArchiveURL = url
			if err := s.DB.Model(&models.WeekRollover{}).Where("week_start = ?", prevStart).
				UpdateColumn("archive_url", url).Error; err != nil {
				log.Printf("⚠️ [LEAGUE] Failed to store archive url: %v", err)
			}
		}
	}
	return sum, nil
}

func (s *LeagueService) recordedRollover(weekStart time.Time) (*RolloverSummary, error) {
	var done models.WeekRollover
	err := s.DB.Where("week_start = ?", weekStart).First(&done).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, internal(err, "load week rollover")
	}
	return &RolloverSummary{
		WeekStart:        done.WeekStart,
		Processed:        done.Leagues,
		Promoted:         done.Promoted,
		Demoted:          done.Demoted,
		Maintained:       done.Maintained,
		AlreadyProcessed: true,
		ArchiveURL:       done.ArchiveURL,
	}, nil
}
