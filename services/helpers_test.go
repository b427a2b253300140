package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"lexamen/gamification"
	"lexamen/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// wednesday is a mid-week instant: the league week runs 2025-03-10 to 2025-03-16.
var wednesday = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

type testEnv struct {
	t     *testing.T
	db    *gorm.DB
	clock atomic.Value
	prog  *ProgressionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))

	env := &testEnv{t: t, db: db}
	env.setClock(wednesday)
	env.prog = NewProgressionService(db, time.UTC)
	env.prog.Now = env.now
	return env
}

func (e *testEnv) now() time.Time { return e.clock.Load().(time.Time) }

func (e *testEnv) setClock(t time.Time) { e.clock.Store(t) }

func (e *testEnv) advance(d time.Duration) { e.setClock(e.now().Add(d)) }

func (e *testEnv) addStudent(id string, plan models.Plan) *models.Student {
	e.t.Helper()
	st := &models.Student{
		ID:        id,
		Email:     id + "@lexamen.test",
		FirstName: "Estudiante",
		LastName:  id,
		Plan:      plan,
	}
	require.NoError(e.t, e.db.Create(st).Error)
	return st
}

func (e *testEnv) student(id string) models.Student {
	e.t.Helper()
	var st models.Student
	require.NoError(e.t, e.db.Where("id = ?", id).First(&st).Error)
	return st
}

func (e *testEnv) addFlashcard(topic models.Topic) string {
	e.t.Helper()
	card := &models.Flashcard{
		Front:          "¿Qué es " + string(topic) + "?",
		Back:           "Respuesta",
		Classification: models.Classification{Topic: topic},
	}
	require.NoError(e.t, e.db.Create(card).Error)
	return card.ID
}

func (e *testEnv) addMCQ(correct string, level gamification.Level) string {
	e.t.Helper()
	q := &models.MCQ{
		Question:       "Pregunta",
		OptionA:        "a",
		OptionB:        "b",
		OptionC:        "c",
		OptionD:        "d",
		CorrectOption:  correct,
		Explanation:    "Porque sí",
		Classification: models.Classification{Topic: "ACTO_JURIDICO", Level: level},
	}
	require.NoError(e.t, e.db.Create(q).Error)
	return q.ID
}

func (e *testEnv) addMCQs(n int, correct string) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, e.addMCQ(correct, gamification.LevelBasic))
	}
	return ids
}

func (e *testEnv) addTrueFalse(isTrue bool) string {
	e.t.Helper()
	item := &models.TrueFalse{
		Statement:      "La ley rige in actum",
		IsTrue:         isTrue,
		Classification: models.Classification{Topic: "EFECTOS_LEY", Level: gamification.LevelIntermediate},
	}
	require.NoError(e.t, e.db.Create(item).Error)
	return item.ID
}

func (e *testEnv) membership(userID string, weekStart time.Time) *models.LeagueMember {
	e.t.Helper()
	var m models.LeagueMember
	err := e.db.Preload("League").Where("user_id = ? AND week_start = ?", userID, weekStart).First(&m).Error
	if isNotFound(err) {
		return nil
	}
	require.NoError(e.t, err)
	return &m
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), fmt.Sprintf("unexpected error: %v", err))
}
