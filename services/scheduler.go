package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
)

// Scheduler runs the periodic jobs: the weekly league rollover and, when a
// TTL is configured, expiry of unanswered challenges.
type Scheduler struct {
	Leagues    *LeagueService
	Causas     *CausaService
	RolloverAt string
	PendingTTL time.Duration

	sched gocron.Scheduler
}

func NewScheduler(leagues *LeagueService, causas *CausaService, rolloverCron string, pendingTTL time.Duration) *Scheduler {
	return &Scheduler{Leagues: leagues, Causas: causas, RolloverAt: rolloverCron, PendingTTL: pendingTTL}
}

// Start registers the jobs and starts the scheduler. Week boundaries are
// UTC, so the cron expression is evaluated in UTC too.
func (s *Scheduler) Start() error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return errors.Wrap(err, "create scheduler")
	}

	_, err = sched.NewJob(
		gocron.CronJob(s.RolloverAt, false),
		gocron.NewTask(s.runRollover),
		gocron.WithName("league-rollover"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return errors.Wrapf(err, "schedule rollover %q", s.RolloverAt)
	}

	if s.PendingTTL > 0 && s.Causas != nil {
		_, err = sched.NewJob(
			gocron.DurationJob(time.Hour),
			gocron.NewTask(s.runExpiry),
			gocron.WithName("causa-expiry"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return errors.Wrap(err, "schedule causa expiry")
		}
	}

	sched.Start()
	s.sched = sched
	log.Printf("⏰ [SCHEDULER] Started (rollover %q, causa ttl %s)", s.RolloverAt, s.PendingTTL)
	return nil
}

func (s *Scheduler) Stop() {
	if s.sched == nil {
		return
	}
	if err := s.sched.Shutdown(); err != nil {
		log.Printf("⚠️ [SCHEDULER] Shutdown: %v", err)
	}
}

func (s *Scheduler) runRollover() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sum, err := s.Leagues.ProcessWeekRollover(ctx)
	if err != nil {
		log.Printf("❌ [SCHEDULER] Rollover failed: %v", err)
		return
	}
	if sum.AlreadyProcessed {
		log.Printf("[SCHEDULER] Week %s already rolled over", sum.WeekStart.Format("2006-01-02"))
	}
}

func (s *Scheduler) runExpiry() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.Causas.ExpireStalePending(ctx, s.PendingTTL); err != nil {
		log.Printf("❌ [SCHEDULER] Causa expiry failed: %v", err)
	}
}
