package app

import (
	"context"
	"errors"
	"fmt"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/store"
)

// CatalogReader resolves a quiz and its question set by identifier.
// Implementations must keep "quiz does not exist" (ErrQuizNotFound) distinct
// from "could not reach the store" (ErrStoreUnavailable).
type CatalogReader interface {
	GetQuiz(ctx context.Context, quizID string) (domain.QuizWithQuestions, error)
}

// Catalog reads quizzes from the two physical catalogs. The open catalog is
// probed first, then the link-restricted one; callers never pick a catalog
// themselves.
type Catalog struct {
	store store.Store
}

func NewCatalog(s store.Store) *Catalog {
	return &Catalog{store: s}
}

// catalogFor maps the visibility tag onto the physical collection.
func catalogFor(v domain.Visibility) string {
	if v == domain.VisibilityLink {
		return store.CollectionQuizLinks
	}
	return store.CollectionQuizzes
}

// GetQuiz resolves a quiz across both catalogs and loads its questions.
// A quiz with zero questions is valid state, not an error.
func (c *Catalog) GetQuiz(ctx context.Context, quizID string) (domain.QuizWithQuestions, error) {
	for _, catalog := range []string{store.CollectionQuizzes, store.CollectionQuizLinks} {
		doc, err := c.store.Get(ctx, catalog, quizID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return domain.QuizWithQuestions{}, err
		}

		quiz, err := decodeQuiz(doc, catalog)
		if err != nil {
			return domain.QuizWithQuestions{}, err
		}
		questions, err := c.loadQuestions(ctx, catalog, quizID)
		if err != nil {
			return domain.QuizWithQuestions{}, err
		}
		return domain.QuizWithQuestions{Quiz: quiz, Questions: questions}, nil
	}
	return domain.QuizWithQuestions{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
}

// ListActive returns open-catalog quizzes currently visible to participants.
func (c *Catalog) ListActive(ctx context.Context) ([]domain.Quiz, error) {
	docs, err := c.store.Query(ctx, store.CollectionQuizzes, store.Eq("active", true))
	if err != nil {
		return nil, err
	}
	return decodeQuizzes(docs, store.CollectionQuizzes)
}

// ListByOrganiser returns every quiz owned by an organiser across both
// catalogs.
func (c *Catalog) ListByOrganiser(ctx context.Context, organiserID string) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	for _, catalog := range []string{store.CollectionQuizzes, store.CollectionQuizLinks} {
		docs, err := c.store.Query(ctx, catalog, store.Eq("organiserId", organiserID))
		if err != nil {
			return nil, err
		}
		decoded, err := decodeQuizzes(docs, catalog)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, decoded...)
	}
	return quizzes, nil
}

// GetByLinkCode resolves a link-restricted quiz from its shareable code.
func (c *Catalog) GetByLinkCode(ctx context.Context, code string) (domain.QuizWithQuestions, error) {
	docs, err := c.store.Query(ctx, store.CollectionQuizLinks, store.Eq("linkCode", code))
	if err != nil {
		return domain.QuizWithQuestions{}, err
	}
	if len(docs) == 0 {
		return domain.QuizWithQuestions{}, fmt.Errorf("%w: link code %s", domain.ErrQuizNotFound, code)
	}
	return c.GetQuiz(ctx, docs[0].ID)
}

func (c *Catalog) loadQuestions(ctx context.Context, catalog, quizID string) ([]domain.Question, error) {
	path := store.QuestionsPath(c.store, catalog, quizID)
	docs, err := c.store.Query(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	questions := make([]domain.Question, 0, len(docs))
	for _, doc := range docs {
		var q domain.Question
		if err := store.Decode(doc, &q); err != nil {
			return nil, fmt.Errorf("%w: question %s: %v", domain.ErrDataIntegrity, doc.ID, err)
		}
		q.ID = doc.ID
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("quiz %s: %w", quizID, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// validateQuestion enforces stored-content invariants on read. A violation
// is a data-integrity error, never silently treated as "no match".
func validateQuestion(q domain.Question) error {
	switch q.Type {
	case domain.QuestionMCQ:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %s has %d options", domain.ErrDataIntegrity, q.ID, len(q.Options))
		}
		for _, opt := range q.Options {
			if opt == q.Answer {
				return nil
			}
		}
		return fmt.Errorf("%w: question %s answer not among options", domain.ErrDataIntegrity, q.ID)
	case domain.QuestionFillBlank:
		return nil
	}
	return fmt.Errorf("%w: question %s has unknown type %q", domain.ErrDataIntegrity, q.ID, q.Type)
}

func decodeQuiz(doc store.Document, catalog string) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := store.Decode(doc, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: quiz %s: %v", domain.ErrDataIntegrity, doc.ID, err)
	}
	quiz.ID = doc.ID
	if catalog == store.CollectionQuizLinks {
		quiz.Visibility = domain.VisibilityLink
	} else if quiz.Visibility == "" {
		quiz.Visibility = domain.VisibilityOpen
	}
	return quiz, nil
}

func decodeQuizzes(docs []store.Document, catalog string) ([]domain.Quiz, error) {
	quizzes := make([]domain.Quiz, 0, len(docs))
	for _, doc := range docs {
		quiz, err := decodeQuiz(doc, catalog)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}
