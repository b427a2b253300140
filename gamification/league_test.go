package gamification_test

import (
	"testing"
	"time"

	"lexamen/gamification"

	"github.com/smartystreets/goconvey/convey"
)

func TestWeekBounds(t *testing.T) {
	convey.Convey("Given a Wednesday afternoon", t, func() {
		now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
		start, end := gamification.WeekBounds(now)

		convey.Convey("The week runs Monday midnight to Sunday 23:59:59.999 UTC", func() {
			convey.So(start.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)
			convey.So(end.Equal(time.Date(2025, 3, 16, 23, 59, 59, int(999*time.Millisecond), time.UTC)), convey.ShouldBeTrue)
		})

		convey.Convey("The previous week ends a millisecond before this one starts", func() {
			pStart, pEnd := gamification.PreviousWeekBounds(now)
			convey.So(pStart.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)
			convey.So(pEnd.Add(time.Millisecond).Equal(start), convey.ShouldBeTrue)
		})

		convey.Convey("Four and a bit days remain", func() {
			convey.So(gamification.DaysRemaining(now), convey.ShouldEqual, 5)
		})
	})

	convey.Convey("Sunday belongs to the week that started six days earlier", t, func() {
		start, _ := gamification.WeekBounds(time.Date(2025, 3, 16, 23, 0, 0, 0, time.UTC))
		convey.So(start.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)
	})

	convey.Convey("Bounds are computed in UTC whatever the caller's zone", t, func() {
		// Monday 01:00 in UTC+3 is still Sunday in UTC.
		now := time.Date(2025, 3, 17, 1, 0, 0, 0, time.FixedZone("EAT", 3*3600))
		start, _ := gamification.WeekBounds(now)
		convey.So(start.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)
	})
}

func TestTierLadder(t *testing.T) {
	convey.Convey("Given the tier ladder", t, func() {
		convey.So(len(gamification.TierOrder), convey.ShouldEqual, 9)

		convey.Convey("The ends do not move past the ladder", func() {
			_, ok := gamification.TierCarton.Down()
			convey.So(ok, convey.ShouldBeFalse)
			_, ok = gamification.TierJurisconsulto.Up()
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Neighbours are adjacent", func() {
			up, _ := gamification.TierPlata.Up()
			down, _ := gamification.TierPlata.Down()
			convey.So(up, convey.ShouldEqual, gamification.TierOro)
			convey.So(down, convey.ShouldEqual, gamification.TierCobre)
		})

		convey.Convey("Labels carry accents", func() {
			convey.So(gamification.TierCarton.Label(), convey.ShouldEqual, "Cartón")
			convey.So(gamification.Tier("NOPE").Valid(), convey.ShouldBeFalse)
		})
	})
}

func TestResolveTransition(t *testing.T) {
	convey.Convey("Given a full league of 30 in Plata", t, func() {
		convey.Convey("Ranks 1 to 5 promote", func() {
			tier, mv := gamification.ResolveTransition(gamification.TierPlata, 5, 30)
			convey.So(tier, convey.ShouldEqual, gamification.TierOro)
			convey.So(mv, convey.ShouldEqual, gamification.Promoted)
		})

		convey.Convey("Ranks 6 to 25 stay", func() {
			tier, mv := gamification.ResolveTransition(gamification.TierPlata, 25, 30)
			convey.So(tier, convey.ShouldEqual, gamification.TierPlata)
			convey.So(mv, convey.ShouldEqual, gamification.Maintained)
		})

		convey.Convey("Ranks 26 to 30 demote", func() {
			tier, mv := gamification.ResolveTransition(gamification.TierPlata, 26, 30)
			convey.So(tier, convey.ShouldEqual, gamification.TierCobre)
			convey.So(mv, convey.ShouldEqual, gamification.Demoted)
		})
	})

	convey.Convey("Given a league of 7", t, func() {
		convey.Convey("Rank 5 promotes even though it is also in the bottom five", func() {
			_, mv := gamification.ResolveTransition(gamification.TierBronce, 5, 7)
			convey.So(mv, convey.ShouldEqual, gamification.Promoted)
		})

		convey.Convey("Ranks 6 and 7 demote", func() {
			_, mv := gamification.ResolveTransition(gamification.TierBronce, 6, 7)
			convey.So(mv, convey.ShouldEqual, gamification.Demoted)
		})
	})

	convey.Convey("Moves off the ladder count as maintained", t, func() {
		tier, mv := gamification.ResolveTransition(gamification.TierJurisconsulto, 1, 30)
		convey.So(tier, convey.ShouldEqual, gamification.TierJurisconsulto)
		convey.So(mv, convey.ShouldEqual, gamification.Maintained)

		tier, mv = gamification.ResolveTransition(gamification.TierCarton, 30, 30)
		convey.So(tier, convey.ShouldEqual, gamification.TierCarton)
		convey.So(mv, convey.ShouldEqual, gamification.Maintained)
	})
}
