package gamification_test

import (
	"testing"

	"lexamen/gamification"

	"github.com/smartystreets/goconvey/convey"
)

func TestCalculateCausaScore(t *testing.T) {
	convey.Convey("Given a correct answer", t, func() {
		convey.Convey("Speed tiers add 5, 3, 1 or nothing", func() {
			convey.So(gamification.CalculateCausaScore(true, 0), convey.ShouldEqual, 15)
			convey.So(gamification.CalculateCausaScore(true, 4999), convey.ShouldEqual, 15)
			convey.So(gamification.CalculateCausaScore(true, 5000), convey.ShouldEqual, 13)
			convey.So(gamification.CalculateCausaScore(true, 9999), convey.ShouldEqual, 13)
			convey.So(gamification.CalculateCausaScore(true, 10000), convey.ShouldEqual, 11)
			convey.So(gamification.CalculateCausaScore(true, 19999), convey.ShouldEqual, 11)
			convey.So(gamification.CalculateCausaScore(true, 20000), convey.ShouldEqual, 10)
			convey.So(gamification.CalculateCausaScore(true, 30000), convey.ShouldEqual, 10)
		})
	})

	convey.Convey("A wrong answer scores zero however fast", t, func() {
		convey.So(gamification.CalculateCausaScore(false, 100), convey.ShouldEqual, 0)
	})
}

func TestResolveWinner(t *testing.T) {
	convey.Convey("Given two finished players", t, func() {
		a := gamification.Tally{UserID: "a", Score: 120, TimeMs: 80_000}
		b := gamification.Tally{UserID: "b", Score: 110, TimeMs: 40_000}

		convey.Convey("Higher score wins regardless of time", func() {
			convey.So(gamification.ResolveWinner(a, b), convey.ShouldEqual, "a")
			convey.So(gamification.ResolveWinner(b, a), convey.ShouldEqual, "a")
		})

		convey.Convey("On equal score the faster player wins", func() {
			b.Score = a.Score
			convey.So(gamification.ResolveWinner(a, b), convey.ShouldEqual, "b")
		})

		convey.Convey("Equal score and time is a draw", func() {
			b.Score, b.TimeMs = a.Score, a.TimeMs
			convey.So(gamification.ResolveWinner(a, b), convey.ShouldBeEmpty)
		})
	})
}

func TestPairKeyAndOptions(t *testing.T) {
	convey.Convey("PairKey ignores argument order", t, func() {
		convey.So(gamification.PairKey("u2", "u1"), convey.ShouldEqual, "u1:u2")
		convey.So(gamification.PairKey("u1", "u2"), convey.ShouldEqual, "u1:u2")
	})

	convey.Convey("Only A to D are options", t, func() {
		convey.So(gamification.ValidOption("A"), convey.ShouldBeTrue)
		convey.So(gamification.ValidOption("D"), convey.ShouldBeTrue)
		convey.So(gamification.ValidOption("E"), convey.ShouldBeFalse)
		convey.So(gamification.ValidOption("a"), convey.ShouldBeFalse)
		convey.So(gamification.ValidOption(""), convey.ShouldBeFalse)
	})
}
