package gamification_test

import (
	"testing"
	"time"

	"lexamen/gamification"

	"github.com/smartystreets/goconvey/convey"
)

func TestCalculateSM2(t *testing.T) {
	convey.Convey("Given a review at 15:42 on a Wednesday", t, func() {
		now := time.Date(2025, 3, 12, 15, 42, 7, 0, time.UTC)
		midnight := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

		convey.Convey("When a new card is rated easy", func() {
			res := gamification.CalculateSM2(gamification.SM2Input{
				Quality:    gamification.QualityEasy,
				EaseFactor: gamification.DefaultEaseFactor,
			}, now)

			convey.Convey("Then it is due tomorrow at midnight", func() {
				convey.So(res.Repetitions, convey.ShouldEqual, 1)
				convey.So(res.Interval, convey.ShouldEqual, 1)
				convey.So(res.EaseFactor, convey.ShouldEqual, 2.6)
				convey.So(res.NextReviewAt.Equal(midnight.AddDate(0, 0, 1)), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the second repetition is rated hard", func() {
			res := gamification.CalculateSM2(gamification.SM2Input{
				Quality:     gamification.QualityHard,
				Repetitions: 1,
				Interval:    1,
				EaseFactor:  2.5,
			}, now)

			convey.Convey("Then the interval jumps to six days and ease drops", func() {
				convey.So(res.Repetitions, convey.ShouldEqual, 2)
				convey.So(res.Interval, convey.ShouldEqual, 6)
				convey.So(res.EaseFactor, convey.ShouldEqual, 2.36)
				convey.So(res.NextReviewAt.Equal(midnight.AddDate(0, 0, 6)), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a mature card is rated easy", func() {
			res := gamification.CalculateSM2(gamification.SM2Input{
				Quality:     gamification.QualityEasy,
				Repetitions: 2,
				Interval:    6,
				EaseFactor:  2.5,
			}, now)

			convey.Convey("Then the interval grows by the new ease factor", func() {
				convey.So(res.Repetitions, convey.ShouldEqual, 3)
				convey.So(res.Interval, convey.ShouldEqual, 16) // round(6 * 2.6)
				convey.So(gamification.IsDominated(res.Repetitions), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a mature card is failed", func() {
			res := gamification.CalculateSM2(gamification.SM2Input{
				Quality:     gamification.QualityFailed,
				Repetitions: 7,
				Interval:    40,
				EaseFactor:  2.2,
			}, now)

			convey.Convey("Then repetitions reset and it is due tomorrow", func() {
				convey.So(res.Repetitions, convey.ShouldEqual, 0)
				convey.So(res.Interval, convey.ShouldEqual, 1)
				convey.So(res.EaseFactor, convey.ShouldEqual, 1.4)
				convey.So(gamification.IsDominated(res.Repetitions), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the ease factor is already at the floor", func() {
			res := gamification.CalculateSM2(gamification.SM2Input{
				Quality:    gamification.QualityFailed,
				EaseFactor: gamification.MinEaseFactor,
			}, now)

			convey.Convey("Then it never drops below 1.3", func() {
				convey.So(res.EaseFactor, convey.ShouldEqual, gamification.MinEaseFactor)
			})
		})

		convey.Convey("When easy ratings repeat", func() {
			in := gamification.SM2Input{Quality: gamification.QualityEasy, EaseFactor: 2.5}
			var intervals []int
			for i := 0; i < 6; i++ {
				res := gamification.CalculateSM2(in, now)
				intervals = append(intervals, res.Interval)
				in.Repetitions, in.Interval, in.EaseFactor = res.Repetitions, res.Interval, res.EaseFactor
			}

			convey.Convey("Then intervals never shrink", func() {
				for i := 1; i < len(intervals); i++ {
					convey.So(intervals[i], convey.ShouldBeGreaterThanOrEqualTo, intervals[i-1])
				}
			})
		})
	})
}

func TestQualityValid(t *testing.T) {
	convey.Convey("Only 0, 3 and 5 are accepted ratings", t, func() {
		convey.So(gamification.Quality(0).Valid(), convey.ShouldBeTrue)
		convey.So(gamification.Quality(3).Valid(), convey.ShouldBeTrue)
		convey.So(gamification.Quality(5).Valid(), convey.ShouldBeTrue)
		convey.So(gamification.Quality(1).Valid(), convey.ShouldBeFalse)
		convey.So(gamification.Quality(4).Valid(), convey.ShouldBeFalse)
		convey.So(gamification.Quality(6).Valid(), convey.ShouldBeFalse)
	})
}

func TestStartOfDayKeepsLocation(t *testing.T) {
	convey.Convey("StartOfDay truncates in the time's own zone", t, func() {
		loc := time.FixedZone("CLT", -3*3600)
		got := gamification.StartOfDay(time.Date(2025, 3, 12, 23, 30, 0, 0, loc))
		convey.So(got.Equal(time.Date(2025, 3, 12, 0, 0, 0, 0, loc)), convey.ShouldBeTrue)
	})
}
