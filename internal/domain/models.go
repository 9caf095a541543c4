package domain

import "time"

// Visibility controls which catalog a quiz lives in.
type Visibility string

const (
	// VisibilityOpen quizzes are listed to every participant while active.
	VisibilityOpen Visibility = "open"
	// VisibilityLink quizzes are reachable only through a shared link code.
	VisibilityLink Visibility = "link-restricted"
)

// QuestionType distinguishes how an answer is compared.
type QuestionType string

const (
	QuestionMCQ       QuestionType = "MCQ"
	QuestionFillBlank QuestionType = "FILL_BLANK"
)

// DefaultQuestionPoints is awarded per correct answer unless the question
// declares its own point value.
const DefaultQuestionPoints = 4

// Quiz is an organiser-owned collection of questions. It is one logical
// entity regardless of which physical catalog stores it; Visibility carries
// the catalog tag.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Guidelines  string     `json:"guidelines"`
	Active      bool       `json:"active"`
	Visibility  Visibility `json:"visibility"`
	OrganiserID string     `json:"organiserId"`
	LinkCode    string     `json:"linkCode,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Question belongs to exactly one quiz. Options is populated for MCQ only.
type Question struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options,omitempty"`
	Answer  string       `json:"answer"`
	Points  int          `json:"points,omitempty"` // 0 means DefaultQuestionPoints
}

// PointValue resolves the per-question override against the default.
func (q Question) PointValue() int {
	if q.Points > 0 {
		return q.Points
	}
	return DefaultQuestionPoints
}

// QuizWithQuestions is the catalog reader result.
type QuizWithQuestions struct {
	Quiz      Quiz       `json:"quiz"`
	Questions []Question `json:"questions"`
}

// Score is the outcome of scoring one answer map against one question set.
type Score struct {
	Points        int `json:"points"`
	TotalPossible int `json:"totalPossible"`
}

// Percent returns Points as a share of TotalPossible on a 0-100 scale.
// A quiz with no attainable points scores 0.
func (s Score) Percent() float64 {
	if s.TotalPossible == 0 {
		return 0
	}
	return float64(s.Points) / float64(s.TotalPossible) * 100
}

// Attempt is the authoritative record of one participant's submission for
// one quiz. ID is the composite key quizID_uid, which is what enforces one
// attempt per (quiz, user) pair without transactions.
type Attempt struct {
	ID          string            `json:"id"`
	QuizID      string            `json:"quizId"`
	UID         string            `json:"uid"`
	Answers     map[string]string `json:"answers"`
	Score       int               `json:"score"`
	Percentage  float64           `json:"percentage"`
	TimeTaken   int               `json:"timeTaken"`
	SubmittedAt time.Time         `json:"submittedAt"`
}

// AttemptID builds the composite ledger key for a (quiz, user) pair.
func AttemptID(quizID, uid string) string {
	return quizID + "_" + uid
}

// LeaderboardEntry is one ranked row of a quiz leaderboard.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	UID        string  `json:"uid"`
	Email      string  `json:"email"`
	Score      int     `json:"score"`
	Percentage float64 `json:"percentage"`
	TimeTaken  int     `json:"timeTaken"`
}

// User is the slice of the users collection the core reads: enough to put a
// name on a leaderboard row. Roles and verification flags are consumed by
// callers, not here.
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}
