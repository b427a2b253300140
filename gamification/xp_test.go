package gamification_test

import (
	"testing"

	"lexamen/gamification"

	"github.com/smartystreets/goconvey/convey"
)

func TestCalculateXP(t *testing.T) {
	convey.Convey("Given the XP table", t, func() {
		convey.Convey("Correct answers pay by level", func() {
			convey.So(gamification.CalculateXP(gamification.ContentMCQ, gamification.LevelBasic, true), convey.ShouldEqual, 5)
			convey.So(gamification.CalculateXP(gamification.ContentMCQ, gamification.LevelIntermediate, true), convey.ShouldEqual, 10)
			convey.So(gamification.CalculateXP(gamification.ContentMCQ, gamification.LevelAdvanced, true), convey.ShouldEqual, 15)
			convey.So(gamification.CalculateXP(gamification.ContentTrueFalse, gamification.LevelBasic, true), convey.ShouldEqual, 3)
			convey.So(gamification.CalculateXP(gamification.ContentTrueFalse, gamification.LevelIntermediate, true), convey.ShouldEqual, 6)
			convey.So(gamification.CalculateXP(gamification.ContentTrueFalse, gamification.LevelAdvanced, true), convey.ShouldEqual, 9)
		})

		convey.Convey("Wrong answers pay one point whatever the level", func() {
			convey.So(gamification.CalculateXP(gamification.ContentMCQ, gamification.LevelAdvanced, false), convey.ShouldEqual, 1)
			convey.So(gamification.CalculateXP(gamification.ContentTrueFalse, gamification.LevelBasic, false), convey.ShouldEqual, 1)
		})

		convey.Convey("Flashcards never pay", func() {
			convey.So(gamification.CalculateXP(gamification.ContentFlashcard, gamification.LevelAdvanced, true), convey.ShouldEqual, 0)
			convey.So(gamification.CalculateXP(gamification.ContentFlashcard, gamification.LevelBasic, false), convey.ShouldEqual, 0)
		})

		convey.Convey("Unknown levels score as basic", func() {
			convey.So(gamification.CalculateXP(gamification.ContentMCQ, gamification.Level("EXPERTO"), true), convey.ShouldEqual, 5)
		})
	})
}

func TestCalculateStreakBonus(t *testing.T) {
	convey.Convey("Streak bonus thresholds", t, func() {
		cases := map[int]int{0: 0, 4: 0, 5: 10, 9: 10, 10: 25, 40: 25}
		for streak, want := range cases {
			convey.So(gamification.CalculateStreakBonus(streak), convey.ShouldEqual, want)
		}
	})
}

func TestAwardForAnswer(t *testing.T) {
	convey.Convey("Given a streak of five", t, func() {
		convey.Convey("A correct intermediate MCQ earns base plus bonus", func() {
			xp, bonus := gamification.AwardForAnswer(gamification.ContentMCQ, gamification.LevelIntermediate, true, 5)
			convey.So(xp, convey.ShouldEqual, 20)
			convey.So(bonus, convey.ShouldEqual, 10)
		})

		convey.Convey("A wrong answer earns no bonus", func() {
			xp, bonus := gamification.AwardForAnswer(gamification.ContentMCQ, gamification.LevelIntermediate, false, 5)
			convey.So(xp, convey.ShouldEqual, 1)
			convey.So(bonus, convey.ShouldEqual, 0)
		})
	})
}

func TestLimitReached(t *testing.T) {
	convey.Convey("Given a free-plan student", t, func() {
		convey.Convey("The eleventh MCQ of the day is capped", func() {
			convey.So(gamification.LimitReached(gamification.ContentMCQ, 9, false), convey.ShouldBeFalse)
			convey.So(gamification.LimitReached(gamification.ContentMCQ, 10, false), convey.ShouldBeTrue)
		})

		convey.Convey("Each content type has its own cap", func() {
			convey.So(gamification.DailyFreeLimit(gamification.ContentFlashcard), convey.ShouldEqual, 30)
			convey.So(gamification.DailyFreeLimit(gamification.ContentTrueFalse), convey.ShouldEqual, 20)
			convey.So(gamification.LimitReached(gamification.ContentTrueFalse, 19, false), convey.ShouldBeFalse)
			convey.So(gamification.LimitReached(gamification.ContentFlashcard, 30, false), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Premium students are never capped", t, func() {
		convey.So(gamification.LimitReached(gamification.ContentMCQ, 500, true), convey.ShouldBeFalse)
	})
}
