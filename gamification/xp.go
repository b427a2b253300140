package gamification

// ContentType identifies which kind of study item an answer belongs to.
type ContentType string

const (
	ContentMCQ       ContentType = "MCQ"
	ContentTrueFalse ContentType = "TRUEFALSE"
	ContentFlashcard ContentType = "FLASHCARD"
)

// Level is the difficulty tier of a study item.
type Level string

const (
	LevelBasic        Level = "BASICO"
	LevelIntermediate Level = "INTERMEDIO"
	LevelAdvanced     Level = "AVANZADO"
)

// Valid reports whether l is a known difficulty tier.
func (l Level) Valid() bool {
	switch l {
	case LevelBasic, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// IncorrectXP is awarded for any wrong MCQ or true/false answer.
const IncorrectXP = 1

var correctXP = map[ContentType]map[Level]int{
	ContentMCQ: {
		LevelBasic:        5,
		LevelIntermediate: 10,
		LevelAdvanced:     15,
	},
	ContentTrueFalse: {
		LevelBasic:        3,
		LevelIntermediate: 6,
		LevelAdvanced:     9,
	},
}

// Free-plan daily submission caps per content type.
var dailyFreeLimits = map[ContentType]int{
	ContentFlashcard: 30,
	ContentMCQ:       10,
	ContentTrueFalse: 20,
}

// CalculateXP returns the base XP for one answer. Flashcards never award XP so
// spaced repetition cannot be farmed for points. Unknown levels score as basic.
func CalculateXP(ct ContentType, level Level, correct bool) int {
	table, ok := correctXP[ct]
	if !ok {
		return 0
	}
	if !correct {
		return IncorrectXP
	}
	xp, ok := table[level]
	if !ok {
		xp = table[LevelBasic]
	}
	return xp
}

// CalculateStreakBonus returns the additive bonus for a run of consecutive
// correct answers within a session.
func CalculateStreakBonus(consecutiveCorrect int) int {
	switch {
	case consecutiveCorrect >= 10:
		return 25
	case consecutiveCorrect >= 5:
		return 10
	default:
		return 0
	}
}

// AwardForAnswer combines base XP and streak bonus. The bonus only applies
// when the answer itself is correct.
func AwardForAnswer(ct ContentType, level Level, correct bool, streak int) (xp, bonus int) {
	base := CalculateXP(ct, level, correct)
	if correct {
		bonus = CalculateStreakBonus(streak)
	}
	return base + bonus, bonus
}

// DailyFreeLimit returns the free-plan cap for ct, or 0 when ct is uncapped.
func DailyFreeLimit(ct ContentType) int {
	return dailyFreeLimits[ct]
}

// LimitReached reports whether a free-plan user who already made used
// submissions today may not make another. Premium users are never capped.
func LimitReached(ct ContentType, used int, premium bool) bool {
	if premium {
		return false
	}
	limit := DailyFreeLimit(ct)
	return limit > 0 && used >= limit
}
