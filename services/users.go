package services

import (
	"strings"
	"unicode/utf8"

	"lexamen/models"

	"github.com/sahilm/fuzzy"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
	searchPoolSize     = 500
)

// StudentSummary is the public face of a student in search results. Email is
// masked unless the query was that exact address.
type StudentSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	XP    int64  `json:"xp"`
}

// studentCandidates implements fuzzy.Source over name and email.
type studentCandidates []models.Student

func (c studentCandidates) Len() int { return len(c) }

func (c studentCandidates) String(i int) string {
	return strings.ToLower(c[i].FullName() + " " + c[i].Email)
}

// SearchStudents finds possible duel opponents for userID. Rows sharing the
// query's first character are pulled from the users table and ranked with
// fuzzy matching; the caller is never part of the result.
func (s *ProgressionService) SearchStudents(userID, query string, limit int) ([]StudentSummary, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < 2 {
		return nil, validation("query must have at least 2 characters")
	}

	first, _ := utf8.DecodeRuneInString(q)
	like := "%" + string(first) + "%"

	var pool []models.Student
	if err := s.DB.Model(&models.Student{}).
		Where("id <> ?", userID).
		Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like).
		Order("xp DESC").
		Limit(searchPoolSize).
		Find(&pool).Error; err != nil {
		return nil, internal(err, "search students")
	}

	matches := fuzzy.FindFrom(q, studentCandidates(pool))
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]StudentSummary, 0, len(matches))
	for _, m := range matches {
		st := pool[m.Index]
		email := maskEmail(st.Email)
		if strings.EqualFold(q, st.Email) {
			email = st.Email
		}
		out = append(out, StudentSummary{ID: st.ID, Name: st.FullName(), Email: email, XP: st.XP})
	}
	return out, nil
}

// maskEmail keeps the first character of the local part and the domain:
// "pedro@uv.test" becomes "p***@uv.test".
func maskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	first, _ := utf8.DecodeRuneInString(email)
	return string(first) + "***" + email[at:]
}
