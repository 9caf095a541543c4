package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/store"
)

// Submission is the inbound payload of one attempt.
type Submission struct {
	QuizID    string            `json:"quizId" validate:"required"`
	UID       string            `json:"uid" validate:"required"`
	Answers   map[string]string `json:"answers" validate:"dive,keys,required,endkeys"`
	TimeTaken int               `json:"timeTaken" validate:"gte=0"`
}

// Ledger enforces at most one authoritative attempt per (quiz, user) pair.
// Uniqueness comes from the composite document key, not from locking: the
// write is a single atomic create-or-replace, so concurrent submissions for
// the same pair resolve to whichever write lands last.
type Ledger struct {
	catalog  CatalogReader
	store    store.Store
	validate *validator.Validate
	clock    func() time.Time
}

func NewLedger(catalog CatalogReader, s store.Store) *Ledger {
	return &Ledger{
		catalog:  catalog,
		store:    s,
		validate: validator.New(),
		clock:    time.Now,
	}
}

// WithClock is for deterministic timestamps in tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.clock = now
	return l
}

// Submit scores and persists one attempt. Re-submission is allowed by
// design: the same (quiz, user) pair always maps to the same document, and
// the latest call wins. Any one-attempt-only policy belongs to callers.
func (l *Ledger) Submit(ctx context.Context, sub Submission) (domain.Attempt, error) {
	if sub.UID == "" {
		return domain.Attempt{}, domain.ErrInvalidUID
	}
	if err := l.validate.Struct(sub); err != nil {
		return domain.Attempt{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	resolved, err := l.catalog.GetQuiz(ctx, sub.QuizID)
	if err != nil {
		return domain.Attempt{}, err
	}

	score := ScoreAttempt(resolved.Questions, sub.Answers)
	answers := sub.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	attempt := domain.Attempt{
		ID:          domain.AttemptID(sub.QuizID, sub.UID),
		QuizID:      sub.QuizID,
		UID:         sub.UID,
		Answers:     answers,
		Score:       score.Points,
		Percentage:  score.Percent(),
		TimeTaken:   sub.TimeTaken,
		SubmittedAt: l.clock().UTC(),
	}

	fields, err := store.Fields(attempt)
	if err != nil {
		return domain.Attempt{}, err
	}
	// One atomic upsert; a read-then-write sequence here would reintroduce
	// the lost-update race between duplicate retries.
	if err := l.store.Put(ctx, store.CollectionAttempts, attempt.ID, fields); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

// Result fetches the stored attempt for a (quiz, user) pair.
func (l *Ledger) Result(ctx context.Context, quizID, uid string) (domain.Attempt, error) {
	if uid == "" {
		return domain.Attempt{}, domain.ErrInvalidUID
	}
	doc, err := l.store.Get(ctx, store.CollectionAttempts, domain.AttemptID(quizID, uid))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Attempt{}, fmt.Errorf("%w: quiz %s user %s", domain.ErrAttemptNotFound, quizID, uid)
	}
	if err != nil {
		return domain.Attempt{}, err
	}
	var attempt domain.Attempt
	if err := store.Decode(doc, &attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("%w: attempt %s: %v", domain.ErrDataIntegrity, doc.ID, err)
	}
	attempt.ID = doc.ID
	return attempt, nil
}

// Verify recomputes an attempt's score through the same scoring engine used
// at submission time and reports whether the stored value has drifted.
func (l *Ledger) Verify(ctx context.Context, attempt domain.Attempt) (domain.Score, bool, error) {
	resolved, err := l.catalog.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		return domain.Score{}, false, err
	}
	score := ScoreAttempt(resolved.Questions, attempt.Answers)
	return score, score.Points == attempt.Score, nil
}
