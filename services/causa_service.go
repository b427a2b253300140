package services

import (
	"context"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"lexamen/gamification"
	"lexamen/metrics"
	"lexamen/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CausaService runs the duel protocol: challenge, accept or reject, answer,
// and completion with winner resolution.
type CausaService struct {
	*ProgressionService

	// EnforceTimeLimit scores answers reported slower than the per-question
	// limit as blank instead of trusting the client's auto-submit.
	EnforceTimeLimit bool

	// Shuffle permutes the question pool; tests replace it for determinism.
	Shuffle func(n int, swap func(i, j int))
}

func NewCausaService(p *ProgressionService, enforceTimeLimit bool) *CausaService {
	return &CausaService{ProgressionService: p, EnforceTimeLimit: enforceTimeLimit, Shuffle: rand.Shuffle}
}

// PlayerRef names a duel participant.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func playerRef(st *models.Student, id string) *PlayerRef {
	if st == nil {
		return &PlayerRef{ID: id}
	}
	return &PlayerRef{ID: st.ID, Name: st.FullName()}
}

// CreatedCausa is returned to the challenger.
type CreatedCausa struct {
	CausaID      string `json:"causa_id"`
	OpponentName string `json:"opponent_name"`
	Questions    int    `json:"questions"`
}

// CreateDuel challenges the student registered under opponentEmail. Ten
// distinct MCQs are drawn and both players get an empty answer slot for each.
func (s *CausaService) CreateDuel(challengerID, opponentEmail string) (*CreatedCausa, error) {
	email := strings.ToLower(strings.TrimSpace(opponentEmail))
	if email == "" {
		return nil, validation("opponent_email is required")
	}
	if _, err := s.loadStudent(s.DB, challengerID, false); err != nil {
		return nil, err
	}

	var opponent models.Student
	if err := s.DB.Where("email = ?", email).First(&opponent).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("no student registered with that email")
		}
		return nil, internal(err, "load opponent")
	}
	if opponent.ID == challengerID {
		return nil, validation("you cannot challenge yourself")
	}

	pairKey := gamification.PairKey(challengerID, opponent.ID)
	var open int64
	if err := s.DB.Model(&models.Causa{}).
		Where("pair_key = ? AND status IN ?", pairKey, []models.CausaStatus{models.CausaPending, models.CausaActive}).
		Count(&open).Error; err != nil {
		return nil, internal(err, "check open causas")
	}
	if open > 0 {
		return nil, conflict("there is already an open causa between you")
	}

	var pool []string
	if err := s.DB.Model(&models.MCQ{}).Pluck("id", &pool).Error; err != nil {
		return nil, internal(err, "load question pool")
	}
	if len(pool) < gamification.CausaQuestions {
		return nil, conflict("not enough questions available for a causa")
	}
	s.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	picked := pool[:gamification.CausaQuestions]

	now := s.now()
	causa := models.Causa{
		ChallengerID: challengerID,
		ChallengedID: opponent.ID,
		PairKey:      pairKey,
		Status:       models.CausaPending,
		CreatedAt:    now,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&causa).Error; err != nil {
			return err
		}
		shells := make([]models.CausaAnswer, 0, 2*len(picked))
		for idx, mcqID := range picked {
			shells = append(shells,
				models.CausaAnswer{CausaID: causa.ID, UserID: challengerID, QuestionIdx: idx, MCQID: mcqID},
				models.CausaAnswer{CausaID: causa.ID, UserID: opponent.ID, QuestionIdx: idx, MCQID: mcqID},
			)
		}
		return tx.Create(&shells).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, conflict("there is already an open causa between you")
		}
		return nil, internal(err, "create causa")
	}

	metrics.ObserveCausa(string(models.CausaPending))
	log.Printf("⚔️ [CAUSA] %s challenged %s (causa %s)", challengerID, opponent.ID, causa.ID)
	return &CreatedCausa{CausaID: causa.ID, OpponentName: opponent.FullName(), Questions: len(picked)}, nil
}

func (s *CausaService) shuffle(n int, swap func(i, j int)) {
	if s.Shuffle != nil {
		s.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

func (s *CausaService) loadCausa(db *gorm.DB, causaID string, lock bool) (*models.Causa, error) {
	if causaID == "" {
		return nil, validation("causa id is required")
	}
	q := db
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var c models.Causa
	if err := q.Where("id = ?", causaID).First(&c).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("causa not found")
		}
		return nil, internal(err, "load causa")
	}
	return &c, nil
}

// Respond accepts or rejects a pending challenge. Only the challenged student may answer it.
func (s *CausaService) Respond(causaID, userID string, accept bool) (models.CausaStatus, error) {
	c, err := s.loadCausa(s.DB, causaID, false)
	if err != nil {
		return "", err
	}
	if !c.IsParticipant(userID) {
		return "", forbidden("you are not part of this causa")
	}
	if c.ChallengedID != userID {
		return "", forbidden("only the challenged student can respond")
	}
	if c.Status != models.CausaPending {
		return "", conflict("causa is no longer pending")
	}

	updates := map[string]interface{}{"status": models.CausaRejected}
	next := models.CausaRejected
	if accept {
		next = models.CausaActive
		updates = map[string]interface{}{"status": models.CausaActive, "started_at": s.now()}
	}
	res := s.DB.Model(&models.Causa{}).
		Where("id = ? AND status = ? AND challenged_id = ?", causaID, models.CausaPending, userID).
		Updates(updates)
	if res.Error != nil {
		return "", internal(res.Error, "respond to causa")
	}
	if res.RowsAffected == 0 {
		return "", conflict("causa is no longer pending")
	}

	metrics.ObserveCausa(string(next))
	log.Printf("⚔️ [CAUSA] %s %s causa %s", userID, strings.ToLower(string(next)), causaID)
	return next, nil
}

// AnswerOutcome is the result of one duel answer.
type AnswerOutcome struct {
	IsCorrect     bool    `json:"is_correct"`
	CorrectOption string  `json:"correct_option"`
	Score         int     `json:"score"`
	TimedOut      bool    `json:"timed_out,omitempty"`
	CausaComplete bool    `json:"causa_complete"`
	WinnerID      *string `json:"winner_id,omitempty"`
}

// SubmitAnswer fills the caller's slot for questionIdx. An empty
// selectedOption is the client's timeout auto-submit and scores zero. Each
// slot can be filled once; the last slot of the duel completes it.
func (s *CausaService) SubmitAnswer(causaID, userID string, questionIdx int, selectedOption string, timeMs int) (*AnswerOutcome, error) {
	if selectedOption != "" && !gamification.ValidOption(selectedOption) {
		return nil, validation("selected_option must be A, B, C, D or empty")
	}
	if timeMs < 0 {
		return nil, validation("time_ms must not be negative")
	}
	if questionIdx < 0 || questionIdx >= gamification.CausaQuestions {
		return nil, validation("question_idx out of range")
	}

	var out *AnswerOutcome
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// The causa row lock serializes answers of both players so exactly
		// one of them observes the duel as finished.
		c, err := s.loadCausa(tx, causaID, true)
		if err != nil {
			return err
		}
		if !c.IsParticipant(userID) {
			return forbidden("you are not part of this causa")
		}
		if c.Status != models.CausaActive {
			return conflict("causa is not active")
		}

		var slot models.CausaAnswer
		// questions retired after the duel started still score their slots
		if err := tx.Preload("MCQ", unscoped).
			Where("causa_id = ? AND user_id = ? AND question_idx = ?", causaID, userID, questionIdx).
			First(&slot).Error; err != nil {
			if isNotFound(err) {
				return notFound("question not found")
			}
			return internal(err, "load answer slot")
		}
		if slot.Answered() {
			return conflict("question already answered")
		}
		if slot.MCQ == nil {
			return internal(gorm.ErrRecordNotFound, "load slot question")
		}

		option, elapsed := selectedOption, timeMs
		timedOut := s.EnforceTimeLimit && elapsed > gamification.CausaTimeLimitMS
		if timedOut {
			option, elapsed = "", gamification.CausaTimeLimitMS
		}
		correct := option != "" && option == slot.MCQ.CorrectOption
		score := gamification.CalculateCausaScore(correct, elapsed)

		res := tx.Model(&models.CausaAnswer{}).
			Where("id = ? AND selected_option IS NULL", slot.ID).
			Updates(map[string]interface{}{
				"selected_option": option,
				"is_correct":      correct,
				"time_ms":         elapsed,
				"score":           score,
				"answered_at":     s.now(),
			})
		if res.Error != nil {
			return internal(res.Error, "record answer")
		}
		if res.RowsAffected == 0 {
			return conflict("question already answered")
		}

		out = &AnswerOutcome{
			IsCorrect:     correct,
			CorrectOption: slot.MCQ.CorrectOption,
			Score:         score,
			TimedOut:      timedOut,
		}
		return s.completeIfFinished(tx, c, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// completeIfFinished closes the duel once both players have filled every
// slot, resolves the winner and pays the winner bonus. A draw pays nothing.
func (s *CausaService) completeIfFinished(tx *gorm.DB, c *models.Causa, out *AnswerOutcome) error {
	var answers []models.CausaAnswer
	if err := tx.Where("causa_id = ?", c.ID).Find(&answers).Error; err != nil {
		return internal(err, "load answers")
	}

	challenger := gamification.Tally{UserID: c.ChallengerID}
	challenged := gamification.Tally{UserID: c.ChallengedID}
	for _, a := range answers {
		t := &challenger
		if a.UserID == c.ChallengedID {
			t = &challenged
		}
		if !a.Answered() {
			continue
		}
		t.Answered++
		t.Score += a.Score
		if a.TimeMs != nil {
			t.TimeMs += int64(*a.TimeMs)
		}
	}
	if challenger.Answered < gamification.CausaQuestions || challenged.Answered < gamification.CausaQuestions {
		return nil
	}

	var winnerID *string
	if w := gamification.ResolveWinner(challenger, challenged); w != "" {
		winnerID = &w
	}
	res := tx.Model(&models.Causa{}).
		Where("id = ? AND status = ?", c.ID, models.CausaActive).
		Updates(map[string]interface{}{
			"status":       models.CausaCompleted,
			"winner_id":    winnerID,
			"completed_at": s.now(),
		})
	if res.Error != nil {
		return internal(res.Error, "complete causa")
	}
	if res.RowsAffected == 0 {
		return nil
	}

	out.CausaComplete = true
	out.WinnerID = winnerID
	metrics.ObserveCausa(string(models.CausaCompleted))

	if winnerID == nil {
		log.Printf("⚔️ [CAUSA] %s ended in a draw (%d-%d)", c.ID, challenger.Score, challenged.Score)
		return nil
	}

	loserID := c.OpponentOf(*winnerID)
	if err := s.AwardXP(tx, *winnerID, gamification.CausaWinnerXP, "causa_win"); err != nil {
		return err
	}
	if err := tx.Model(&models.Student{}).Where("id = ?", *winnerID).
		UpdateColumn("causas_won", gorm.Expr("causas_won + 1")).Error; err != nil {
		return internal(err, "count causa win")
	}
	if err := tx.Model(&models.Student{}).Where("id = ?", loserID).
		UpdateColumn("causas_lost", gorm.Expr("causas_lost + 1")).Error; err != nil {
		return internal(err, "count causa loss")
	}
	log.Printf("⚔️ [CAUSA] %s won by %s (%d-%d)", c.ID, *winnerID, challenger.Score, challenged.Score)
	return nil
}

// QuestionView is an MCQ as shown inside a duel. CorrectOption is only
// filled once the viewer has answered it.
type QuestionView struct {
	ID            string `json:"id"`
	Question      string `json:"question"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option,omitempty"`
}

type AnswerView struct {
	QuestionIdx    int           `json:"question_idx"`
	MCQ            *QuestionView `json:"mcq,omitempty"`
	SelectedOption *string       `json:"selected_option"`
	IsCorrect      *bool         `json:"is_correct"`
	TimeMs         *int          `json:"time_ms"`
	Score          int           `json:"score"`
}

func answerView(a models.CausaAnswer) AnswerView {
	v := AnswerView{
		QuestionIdx:    a.QuestionIdx,
		SelectedOption: a.SelectedOption,
		IsCorrect:      a.IsCorrect,
		TimeMs:         a.TimeMs,
		Score:          a.Score,
	}
	if a.MCQ != nil {
		v.MCQ = &QuestionView{
			ID:       a.MCQ.ID,
			Question: a.MCQ.Question,
			OptionA:  a.MCQ.OptionA,
			OptionB:  a.MCQ.OptionB,
			OptionC:  a.MCQ.OptionC,
			OptionD:  a.MCQ.OptionD,
		}
		if a.Answered() {
			v.MCQ.CorrectOption = a.MCQ.CorrectOption
		}
	}
	return v
}

// CausaView is what a participant may see of a duel. Which fields are set
// depends on the status: while ACTIVE only the caller's own answers and the
// opponent's answered count; once COMPLETED both sides and the winner;
// otherwise just who is involved.
type CausaView struct {
	ID     string             `json:"id"`
	Status models.CausaStatus `json:"status"`

	Opponent   *PlayerRef `json:"opponent,omitempty"`
	Challenger *PlayerRef `json:"challenger,omitempty"`
	Challenged *PlayerRef `json:"challenged,omitempty"`
	Winner     *PlayerRef `json:"winner,omitempty"`

	CreatedAt   *time.Time `json:"created_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	MyAnswers        []AnswerView `json:"my_answers,omitempty"`
	OpponentAnswers  []AnswerView `json:"opponent_answers,omitempty"`
	MyScore          *int         `json:"my_score,omitempty"`
	OpponentScore    *int         `json:"opponent_score,omitempty"`
	OpponentAnswered *int         `json:"opponent_answered,omitempty"`
}

func unscoped(db *gorm.DB) *gorm.DB { return db.Unscoped() }

// GetCausa returns the caller's view of a duel.
func (s *CausaService) GetCausa(causaID, userID string) (*CausaView, error) {
	var c models.Causa
	if err := s.DB.Preload("Challenger").Preload("Challenged").
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("question_idx ASC") }).
		Preload("Answers.MCQ", unscoped).
		Where("id = ?", causaID).
		First(&c).Error; err != nil {
		if isNotFound(err) {
			return nil, notFound("causa not found")
		}
		return nil, internal(err, "load causa")
	}
	if !c.IsParticipant(userID) {
		return nil, forbidden("you are not part of this causa")
	}

	v := &CausaView{ID: c.ID, Status: c.Status}
	challenger := playerRef(c.Challenger, c.ChallengerID)
	challenged := playerRef(c.Challenged, c.ChallengedID)
	opponent := challenged
	if userID == c.ChallengedID {
		opponent = challenger
	}

	switch c.Status {
	case models.CausaActive, models.CausaCompleted:
		v.Opponent = opponent
		v.StartedAt = c.StartedAt

		var mine, theirs []AnswerView
		var myScore, theirScore, theirAnswered int
		for _, a := range c.Answers {
			if a.UserID == userID {
				mine = append(mine, answerView(a))
				myScore += a.Score
				continue
			}
			theirs = append(theirs, answerView(a))
			theirScore += a.Score
			if a.Answered() {
				theirAnswered++
			}
		}
		v.MyAnswers, v.MyScore = mine, &myScore

		if c.Status == models.CausaActive {
			v.OpponentAnswered = &theirAnswered
			break
		}
		v.OpponentAnswers, v.OpponentScore = theirs, &theirScore
		v.CompletedAt = c.CompletedAt
		if c.WinnerID != nil {
			if *c.WinnerID == c.ChallengerID {
				v.Winner = challenger
			} else {
				v.Winner = challenged
			}
		}
	default:
		v.Challenger, v.Challenged = challenger, challenged
		created := c.CreatedAt
		v.CreatedAt = &created
	}
	return v, nil
}

// CausaSummary is one row of the duel lists.
type CausaSummary struct {
	ID           string             `json:"id"`
	Status       models.CausaStatus `json:"status"`
	Opponent     *PlayerRef         `json:"opponent"`
	IsChallenger bool               `json:"is_challenger"`
	WinnerID     *string            `json:"winner_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	StartedAt    *time.Time         `json:"started_at,omitempty"`
	CompletedAt  *time.Time         `json:"completed_at,omitempty"`
}

type CausaLists struct {
	Active  []CausaSummary `json:"active"`
	Pending []CausaSummary `json:"pending"`
	History []CausaSummary `json:"history"`
}

const historyLimit = 20

func (s *CausaService) summaries(userID string, q *gorm.DB) ([]CausaSummary, error) {
	var rows []models.Causa
	if err := q.Preload("Challenger").Preload("Challenged").Find(&rows).Error; err != nil {
		return nil, internal(err, "list causas")
	}
	out := make([]CausaSummary, 0, len(rows))
	for _, c := range rows {
		sum := CausaSummary{
			ID:           c.ID,
			Status:       c.Status,
			IsChallenger: c.ChallengerID == userID,
			WinnerID:     c.WinnerID,
			CreatedAt:    c.CreatedAt,
			StartedAt:    c.StartedAt,
			CompletedAt:  c.CompletedAt,
		}
		if sum.IsChallenger {
			sum.Opponent = playerRef(c.Challenged, c.ChallengedID)
		} else {
			sum.Opponent = playerRef(c.Challenger, c.ChallengerID)
		}
		out = append(out, sum)
	}
	return out, nil
}

// ListPending returns challenges waiting for the caller's answer, newest first.
func (s *CausaService) ListPending(userID string) ([]CausaSummary, error) {
	return s.summaries(userID, s.DB.
		Where("challenged_id = ? AND status = ?", userID, models.CausaPending).
		Order("created_at DESC"))
}

// ListCausas returns the caller's active duels, pending challenges in either
// direction and the last 20 finished or rejected ones.
func (s *CausaService) ListCausas(userID string) (*CausaLists, error) {
	mine := func() *gorm.DB {
		return s.DB.Where("challenger_id = ? OR challenged_id = ?", userID, userID)
	}

	active, err := s.summaries(userID, mine().Where("status = ?", models.CausaActive).Order("started_at DESC"))
	if err != nil {
		return nil, err
	}
	pending, err := s.summaries(userID, mine().Where("status = ?", models.CausaPending).Order("created_at DESC"))
	if err != nil {
		return nil, err
	}
	history, err := s.summaries(userID, mine().
		Where("status IN ?", []models.CausaStatus{models.CausaCompleted, models.CausaRejected}).
		Order("updated_at DESC").
		Limit(historyLimit))
	if err != nil {
		return nil, err
	}
	return &CausaLists{Active: active, Pending: pending, History: history}, nil
}

// ExpireStalePending moves challenges left unanswered for longer than ttl to
// EXPIRED. A non-positive ttl disables expiry.
func (s *CausaService) ExpireStalePending(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	res := s.DB.WithContext(ctx).Model(&models.Causa{}).
		Where("status = ? AND created_at < ?", models.CausaPending, s.now().Add(-ttl)).
		Update("status", models.CausaExpired)
	if res.Error != nil {
		return 0, internal(res.Error, "expire pending causas")
	}
	if res.RowsAffected > 0 {
		metrics.ObserveCausa(string(models.CausaExpired))
		log.Printf("⌛ [CAUSA] Expired %d pending causa(s) older than %s", res.RowsAffected, ttl)
	}
	return res.RowsAffected, nil
}
