package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/infra/memory"
	"quizhost-service/internal/store"
)

func seedQuiz(t *testing.T, docs store.Store, catalog string, quiz domain.Quiz, questions []domain.Question) {
	t.Helper()
	ctx := context.Background()

	fields, err := store.Fields(quiz)
	require.NoError(t, err)
	require.NoError(t, docs.Put(ctx, catalog, quiz.ID, fields))

	path := store.QuestionsPath(docs, catalog, quiz.ID)
	for _, q := range questions {
		qf, err := store.Fields(q)
		require.NoError(t, err)
		require.NoError(t, docs.Put(ctx, path, q.ID, qf))
	}
}

func seedUser(t *testing.T, docs store.Store, user domain.User) {
	t.Helper()
	fields, err := store.Fields(user)
	require.NoError(t, err)
	require.NoError(t, docs.Put(context.Background(), store.CollectionUsers, user.UID, fields))
}

func sampleQuiz(id string, visibility domain.Visibility) domain.Quiz {
	return domain.Quiz{
		ID:          id,
		Title:       "Sample quiz",
		Active:      true,
		Visibility:  visibility,
		OrganiserID: "org-1",
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Text: "Pick A", Type: domain.QuestionMCQ, Options: []string{"A", "B"}, Answer: "A"},
		{ID: "q2", Text: "Capital of France", Type: domain.QuestionFillBlank, Answer: "Paris"},
	}
}

func newMemoryStore() *memory.Store {
	return memory.NewStore()
}

// failingStore simulates an unreachable backend: every call reports
// ErrStoreUnavailable.
type failingStore struct{}

func (failingStore) Get(context.Context, string, string) (store.Document, error) {
	return store.Document{}, domain.ErrStoreUnavailable
}

func (failingStore) Put(context.Context, string, string, map[string]any) error {
	return domain.ErrStoreUnavailable
}

func (failingStore) Update(context.Context, string, string, map[string]any) error {
	return domain.ErrStoreUnavailable
}

func (failingStore) Delete(context.Context, string, string) error {
	return domain.ErrStoreUnavailable
}

func (failingStore) Query(context.Context, string, store.Predicate, ...store.Order) ([]store.Document, error) {
	return nil, domain.ErrStoreUnavailable
}

func (failingStore) Subcollection(collection, id, name string) string {
	return collection + "/" + id + "/" + name
}
