package gamification

import (
	"math"
	"time"
)

// Tier is one bracket of the weekly league ladder.
type Tier string

const (
	TierCarton        Tier = "CARTON"
	TierHierro        Tier = "HIERRO"
	TierBronce        Tier = "BRONCE"
	TierCobre         Tier = "COBRE"
	TierPlata         Tier = "PLATA"
	TierOro           Tier = "ORO"
	TierDiamante      Tier = "DIAMANTE"
	TierPlatino       Tier = "PLATINO"
	TierJurisconsulto Tier = "JURISCONSULTO"
)

// League sizing and movement zones. Zones are absolute counts, not percentages.
const (
	LeagueCapacity = 30
	PromotionZone  = 5
	DemotionZone   = 5
)

// TierOrder lists the ladder from lowest to highest.
var TierOrder = []Tier{
	TierCarton,
	TierHierro,
	TierBronce,
	TierCobre,
	TierPlata,
	TierOro,
	TierDiamante,
	TierPlatino,
	TierJurisconsulto,
}

var tierLabels = map[Tier]string{
	TierCarton:        "Cartón",
	TierHierro:        "Hierro",
	TierBronce:        "Bronce",
	TierCobre:         "Cobre",
	TierPlata:         "Plata",
	TierOro:           "Oro",
	TierDiamante:      "Diamante",
	TierPlatino:       "Platino",
	TierJurisconsulto: "Jurisconsulto",
}

// Index returns the position of t on the ladder, or -1 if t is unknown.
func (t Tier) Index() int {
	for i, v := range TierOrder {
		if v == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t is on the ladder.
func (t Tier) Valid() bool { return t.Index() >= 0 }

// Label is the display name of the tier.
func (t Tier) Label() string {
	if l, ok := tierLabels[t]; ok {
		return l
	}
	return string(t)
}

// Up returns the next tier and true, or false when t is the top tier or unknown.
func (t Tier) Up() (Tier, bool) {
	i := t.Index()
	if i < 0 || i >= len(TierOrder)-1 {
		return t, false
	}
	return TierOrder[i+1], true
}

// Down returns the previous tier and true, or false when t is the bottom tier or unknown.
func (t Tier) Down() (Tier, bool) {
	i := t.Index()
	if i <= 0 {
		return t, false
	}
	return TierOrder[i-1], true
}

// Movement is the outcome of the weekly transition for one member.
type Movement string

const (
	Promoted   Movement = "promoted"
	Demoted    Movement = "demoted"
	Maintained Movement = "maintained"
)

// ResolveTransition decides a member's tier for next week from their final
// rank (1-based) in a league of total members. Ranks inside the promotion
// zone are checked first, so in leagues of ten or fewer members the zones
// overlap and the promotion zone wins. A move that would leave the ladder
// is reported as Maintained.
func ResolveTransition(tier Tier, rank, total int) (Tier, Movement) {
	switch {
	case rank <= PromotionZone:
		if up, ok := tier.Up(); ok {
			return up, Promoted
		}
	case rank > total-DemotionZone:
		if down, ok := tier.Down(); ok {
			return down, Demoted
		}
	}
	return tier, Maintained
}

// WeekBounds returns the league week containing now: Monday 00:00:00.000 UTC
// through Sunday 23:59:59.999 UTC.
func WeekBounds(now time.Time) (start, end time.Time) {
	now = now.UTC()
	offset := (int(now.Weekday()) + 6) % 7 // days since Monday
	y, m, d := now.Date()
	start = time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return start, end
}

// PreviousWeekBounds returns the league week immediately before the one containing now.
func PreviousWeekBounds(now time.Time) (start, end time.Time) {
	current, _ := WeekBounds(now)
	end = current.Add(-time.Millisecond)
	start = current.AddDate(0, 0, -7)
	return start, end
}

// DaysRemaining is the number of (partial) days left in now's league week.
func DaysRemaining(now time.Time) int {
	_, end := WeekBounds(now)
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}
