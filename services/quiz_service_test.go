package services

import (
	"testing"
	"time"
	_ "time/tzdata"

	"lexamen/gamification"
	"lexamen/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitMCQAttemptAwardsXP(t *testing.T) {
	env := newTestEnv(t)
	quiz := NewQuizService(env.prog)
	env.addStudent("u1", models.PlanFree)
	basic := env.addMCQ("B", gamification.LevelBasic)
	advanced := env.addMCQ("C", gamification.LevelAdvanced)

	out, err := quiz.SubmitMCQAttempt("u1", basic, "B", 0)
	require.NoError(t, err)
	assert.False(t, out.LimitReached)
	assert.True(t, out.IsCorrect)
	assert.Equal(t, "B", out.CorrectOption)
	assert.Equal(t, 5, out.XPGained)
	assert.EqualValues(t, 1, out.AttemptsToday)

	out, err = quiz.SubmitMCQAttempt("u1", advanced, "C", 5)
	require.NoError(t, err)
	assert.Equal(t, 25, out.XPGained)
	assert.Equal(t, 10, out.StreakBonus)

	out, err = quiz.SubmitMCQAttempt("u1", advanced, "A", 12)
	require.NoError(t, err)
	assert.False(t, out.IsCorrect)
	assert.Equal(t, 1, out.XPGained)
	assert.Zero(t, out.StreakBonus)
	assert.Equal(t, "C", out.CorrectOption)
	assert.Equal(t, "Porque sí", out.Explanation)

	assert.EqualValues(t, 31, env.student("u1").XP)
}

func TestSubmitMCQAttemptDailyCap(t *testing.T) {
	env := newTestEnv(t)
	quiz := NewQuizService(env.prog)
	env.addStudent("u1", models.PlanFree)
	q := env.addMCQ("A", gamification.LevelBasic)

	for i := 0; i < 10; i++ {
		out, err := quiz.SubmitMCQAttempt("u1", q, "A", 0)
		require.NoError(t, err)
		require.False(t, out.LimitReached, "attempt %d", i+1)
	}
	before := env.student("u1").XP

	out, err := quiz.SubmitMCQAttempt("u1", q, "A", 0)
	require.NoError(t, err)
	assert.True(t, out.LimitReached)
	assert.EqualValues(t, 10, out.AttemptsToday)
	assert.Zero(t, out.XPGained)
	assert.Equal(t, before, env.student("u1").XP)

	var n int64
	require.NoError(t, env.db.Model(&models.MCQAttempt{}).Count(&n).Error)
	assert.EqualValues(t, 10, n)

	// the window resets at the next local midnight
	env.setClock(time.Date(2025, 3, 13, 0, 0, 1, 0, time.UTC))
	out, err = quiz.SubmitMCQAttempt("u1", q, "A", 0)
	require.NoError(t, err)
	assert.False(t, out.LimitReached)
	assert.EqualValues(t, 1, out.AttemptsToday)
}

func TestSubmitMCQAttemptCapFollowsLocalMidnight(t *testing.T) {
	env := newTestEnv(t)
	santiago, err := time.LoadLocation("America/Santiago")
	require.NoError(t, err)
	env.prog.Location = santiago
	quiz := NewQuizService(env.prog)
	env.addStudent("u1", models.PlanFree)
	q := env.addMCQ("A", gamification.LevelBasic)

	// 23:30 in Santiago (UTC-3 in March) is already the next UTC day
	env.setClock(time.Date(2025, 3, 13, 2, 30, 0, 0, time.UTC))
	for i := 0; i < 10; i++ {
		_, err := quiz.SubmitMCQAttempt("u1", q, "A", 0)
		require.NoError(t, err)
	}

	env.advance(20 * time.Minute)
	out, err := quiz.SubmitMCQAttempt("u1", q, "A", 0)
	require.NoError(t, err)
	assert.True(t, out.LimitReached)

	env.advance(20 * time.Minute)
	out, err = quiz.SubmitMCQAttempt("u1", q, "A", 0)
	require.NoError(t, err)
	assert.False(t, out.LimitReached)
}

func TestSubmitMCQAttemptPremiumIsUncapped(t *testing.T) {
	env := newTestEnv(t)
	quiz := NewQuizService(env.prog)
	env.addStudent("vip", models.PlanPremium)
	q := env.addMCQ("D", gamification.LevelBasic)

	for i := 0; i < 15; i++ {
		out, err := quiz.SubmitMCQAttempt("vip", q, "D", 0)
		require.NoError(t, err)
		require.False(t, out.LimitReached)
	}
	assert.EqualValues(t, 75, env.student("vip").XP)
}

func TestSubmitMCQAttemptRejections(t *testing.T) {
	env := newTestEnv(t)
	quiz := NewQuizService(env.prog)
	env.addStudent("u1", models.PlanFree)
	q := env.addMCQ("A", gamification.LevelBasic)

	_, err := quiz.SubmitMCQAttempt("u1", q, "E", 0)
	requireKind(t, err, KindValidation)

	_, err = quiz.SubmitMCQAttempt("u1", "", "A", 0)
	requireKind(t, err, KindValidation)

	_, err = quiz.SubmitMCQAttempt("u1", q, "A", -1)
	requireKind(t, err, KindValidation)

	_, err = quiz.SubmitMCQAttempt("u1", "missing", "A", 0)
	requireKind(t, err, KindNotFound)

	_, err = quiz.SubmitMCQAttempt("ghost", q, "A", 0)
	requireKind(t, err, KindNotFound)

	_, err = quiz.SubmitMCQAttempt("", q, "A", 0)
	requireKind(t, err, KindForbidden)
}

func TestSubmitTrueFalseAttempt(t *testing.T) {
	env := newTestEnv(t)
	quiz := NewQuizService(env.prog)
	env.addStudent("u1", models.PlanFree)
	item := env.addTrueFalse(true)

	out, err := quiz.SubmitTrueFalseAttempt("u1", item, true, 10)
	require.NoError(t, err)
	assert.True(t, out.IsCorrect)
	require.NotNil(t, out.CorrectAnswer)
	assert.True(t, *out.CorrectAnswer)
	assert.Equal(t, 6+25, out.XPGained)

	out, err = quiz.SubmitTrueFalseAttempt("u1", item, false, 0)
	require.NoError(t, err)
	assert.False(t, out.IsCorrect)
	assert.Equal(t, 1, out.XPGained)

	for i := 2; i < 20; i++ {
		_, err := quiz.SubmitTrueFalseAttempt("u1", item, true, 0)
		require.NoError(t, err)
	}
	out, err = quiz.SubmitTrueFalseAttempt("u1", item, true, 0)
	require.NoError(t, err)
	assert.True(t, out.LimitReached)
	assert.EqualValues(t, 20, out.AttemptsToday)
}

func TestAwardXPCreditsCurrentWeekMembership(t *testing.T) {
	env := newTestEnv(t)
	leagues := NewLeagueService(env.prog, nil)
	quiz := NewQuizService(env.prog)
	env.addStudent("member", models.PlanFree)
	env.addStudent("loner", models.PlanFree)
	q := env.addMCQ("A", gamification.LevelIntermediate)

	_, err := leagues.EnsureMembership("member")
	require.NoError(t, err)

	_, err = quiz.SubmitMCQAttempt("member", q, "A", 0)
	require.NoError(t, err)
	_, err = quiz.SubmitMCQAttempt("loner", q, "A", 0)
	require.NoError(t, err)

	weekStart, _ := gamification.WeekBounds(env.now())
	m := env.membership("member", weekStart)
	require.NotNil(t, m)
	assert.EqualValues(t, 10, m.WeeklyXP)

	// awarding XP never creates a membership by itself
	assert.Nil(t, env.membership("loner", weekStart))
	assert.EqualValues(t, 10, env.student("loner").XP)
}
