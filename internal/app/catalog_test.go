package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/store"
)

func TestGetQuizFromOpenCatalog(t *testing.T) {
	docs := newMemoryStore()
	seedQuiz(t, docs, store.CollectionQuizzes, sampleQuiz("quiz-1", domain.VisibilityOpen), sampleQuestions())
	catalog := NewCatalog(docs)

	resolved, err := catalog.GetQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, "quiz-1", resolved.Quiz.ID)
	assert.Equal(t, domain.VisibilityOpen, resolved.Quiz.Visibility)
	assert.Len(t, resolved.Questions, 2)
}

func TestGetQuizProbesLinkCatalog(t *testing.T) {
	docs := newMemoryStore()
	seedQuiz(t, docs, store.CollectionQuizLinks, sampleQuiz("link-quiz", domain.VisibilityLink), sampleQuestions())
	catalog := NewCatalog(docs)

	// Callers never say which catalog to use; the reader finds the quiz
	// even though it only exists in the link-restricted one.
	resolved, err := catalog.GetQuiz(context.Background(), "link-quiz")
	require.NoError(t, err)
	assert.Equal(t, domain.VisibilityLink, resolved.Quiz.Visibility)
	assert.Len(t, resolved.Questions, 2)
}

func TestGetQuizNotFound(t *testing.T) {
	catalog := NewCatalog(newMemoryStore())

	_, err := catalog.GetQuiz(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestGetQuizStoreFailureIsNotNotFound(t *testing.T) {
	catalog := NewCatalog(failingStore{})

	_, err := catalog.GetQuiz(context.Background(), "quiz-1")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestGetQuizWithZeroQuestions(t *testing.T) {
	docs := newMemoryStore()
	seedQuiz(t, docs, store.CollectionQuizzes, sampleQuiz("empty-quiz", domain.VisibilityOpen), nil)
	catalog := NewCatalog(docs)

	resolved, err := catalog.GetQuiz(context.Background(), "empty-quiz")
	require.NoError(t, err)
	assert.Empty(t, resolved.Questions)

	score := ScoreAttempt(resolved.Questions, map[string]string{"q1": "A"})
	assert.Equal(t, domain.Score{}, score)
}

func TestGetQuizRejectsCorruptMCQ(t *testing.T) {
	docs := newMemoryStore()
	seedQuiz(t, docs, store.CollectionQuizzes, sampleQuiz("bad-quiz", domain.VisibilityOpen), []domain.Question{
		{ID: "q1", Type: domain.QuestionMCQ, Options: []string{"A", "B"}, Answer: "C"},
	})
	catalog := NewCatalog(docs)

	_, err := catalog.GetQuiz(context.Background(), "bad-quiz")
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestGetQuizRejectsMCQWithOneOption(t *testing.T) {
	docs := newMemoryStore()
	seedQuiz(t, docs, store.CollectionQuizzes, sampleQuiz("bad-quiz", domain.VisibilityOpen), []domain.Question{
		{ID: "q1", Type: domain.QuestionMCQ, Options: []string{"A"}, Answer: "A"},
	})
	catalog := NewCatalog(docs)

	_, err := catalog.GetQuiz(context.Background(), "bad-quiz")
	assert.ErrorIs(t, err, domain.ErrDataIntegrity)
}

func TestListActiveFiltersInactive(t *testing.T) {
	docs := newMemoryStore()
	active := sampleQuiz("quiz-active", domain.VisibilityOpen)
	inactive := sampleQuiz("quiz-inactive", domain.VisibilityOpen)
	inactive.Active = false
	seedQuiz(t, docs, store.CollectionQuizzes, active, nil)
	seedQuiz(t, docs, store.CollectionQuizzes, inactive, nil)
	catalog := NewCatalog(docs)

	quizzes, err := catalog.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, "quiz-active", quizzes[0].ID)
}

func TestListByOrganiserSpansBothCatalogs(t *testing.T) {
	docs := newMemoryStore()
	seedQuiz(t, docs, store.CollectionQuizzes, sampleQuiz("open-1", domain.VisibilityOpen), nil)
	linked := sampleQuiz("linked-1", domain.VisibilityLink)
	seedQuiz(t, docs, store.CollectionQuizLinks, linked, nil)
	other := sampleQuiz("other-org", domain.VisibilityOpen)
	other.OrganiserID = "org-2"
	seedQuiz(t, docs, store.CollectionQuizzes, other, nil)
	catalog := NewCatalog(docs)

	quizzes, err := catalog.ListByOrganiser(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Len(t, quizzes, 2)
}

func TestGetByLinkCode(t *testing.T) {
	docs := newMemoryStore()
	quiz := sampleQuiz("linked-1", domain.VisibilityLink)
	quiz.LinkCode = "abc12345"
	seedQuiz(t, docs, store.CollectionQuizLinks, quiz, sampleQuestions())
	catalog := NewCatalog(docs)

	resolved, err := catalog.GetByLinkCode(context.Background(), "abc12345")
	require.NoError(t, err)
	assert.Equal(t, "linked-1", resolved.Quiz.ID)

	_, err = catalog.GetByLinkCode(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}
