package memory

import (
	"context"
	"errors"
	"testing"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/store"
)

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.Put(ctx, "quizzes", "q1", map[string]any{"title": "First"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	doc, err := s.Get(ctx, "quizzes", "q1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Fields["title"] != "First" {
		t.Fatalf("expected title First, got %v", doc.Fields["title"])
	}

	if err := s.Delete(ctx, "quizzes", "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "quizzes", "q1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestGetMissingCollection(t *testing.T) {
	s := NewStore()
	if _, err := s.Get(context.Background(), "nope", "q1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPutReplacesWholeDocument(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_ = s.Put(ctx, "quizzes", "q1", map[string]any{"title": "First", "active": true})
	_ = s.Put(ctx, "quizzes", "q1", map[string]any{"title": "Second"})

	doc, err := s.Get(ctx, "quizzes", "q1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := doc.Fields["active"]; ok {
		t.Fatalf("put must replace, not merge; got %v", doc.Fields)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_ = s.Put(ctx, "quizzes", "q1", map[string]any{"title": "First", "active": false})
	if err := s.Update(ctx, "quizzes", "q1", map[string]any{"active": true}); err != nil {
		t.Fatalf("update: %v", err)
	}

	doc, _ := s.Get(ctx, "quizzes", "q1")
	if doc.Fields["title"] != "First" || doc.Fields["active"] != true {
		t.Fatalf("expected merged fields, got %v", doc.Fields)
	}

	if err := s.Update(ctx, "quizzes", "missing", map[string]any{"x": 1}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for missing doc, got %v", err)
	}
}

func TestQueryPredicatesAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_ = s.Put(ctx, "quizAttempts", "a1", map[string]any{"quizId": "quiz-1", "score": 8.0})
	_ = s.Put(ctx, "quizAttempts", "a2", map[string]any{"quizId": "quiz-1", "score": 4.0})
	_ = s.Put(ctx, "quizAttempts", "a3", map[string]any{"quizId": "quiz-2", "score": 12.0})

	docs, err := s.Query(ctx, "quizAttempts", store.Eq("quizId", "quiz-1"),
		store.Order{Field: "score", Desc: true})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].ID != "a1" || docs[1].ID != "a2" {
		t.Fatalf("expected score-descending order, got %v %v", docs[0].ID, docs[1].ID)
	}

	docs, err = s.Query(ctx, "quizAttempts",
		store.Predicate{}.Where("score", store.OpGte, 8.0))
	if err != nil {
		t.Fatalf("range query: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs with score >= 8, got %d", len(docs))
	}
}

func TestQueryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_ = s.Put(ctx, "quizzes", "q1", map[string]any{"title": "First"})
	docs, _ := s.Query(ctx, "quizzes", nil)
	docs[0].Fields["title"] = "mutated"

	doc, _ := s.Get(ctx, "quizzes", "q1")
	if doc.Fields["title"] != "First" {
		t.Fatalf("store must not observe caller mutations, got %v", doc.Fields["title"])
	}
}

func TestSubcollectionPath(t *testing.T) {
	s := NewStore()
	path := s.Subcollection("quizzes", "q1", "questions")
	if path != "quizzes/q1/questions" {
		t.Fatalf("unexpected path %q", path)
	}

	ctx := context.Background()
	_ = s.Put(ctx, path, "question-1", map[string]any{"text": "hello"})
	if _, err := s.Get(ctx, "quizzes", "question-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("subcollection must not leak into parent collection")
	}
}
