package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/store"
)

// Store is an in-memory document store. It models the external backend for
// tests and demos: per-document atomicity under one lock, no transactions.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]map[string]any)}
}

func (s *Store) Get(_ context.Context, collection, id string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.collections[collection]
	if !ok {
		return store.Document{}, domain.ErrNotFound
	}
	fields, ok := docs[id]
	if !ok {
		return store.Document{}, domain.ErrNotFound
	}
	return store.Document{ID: id, Fields: cloneFields(fields)}, nil
}

func (s *Store) Put(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]any)
		s.collections[collection] = docs
	}
	docs[id] = cloneFields(fields)
	return nil
}

func (s *Store) Update(_ context.Context, collection, id string, partial map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.collections[collection]
	if !ok {
		return domain.ErrNotFound
	}
	fields, ok := docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	for k, v := range partial {
		fields[k] = v
	}
	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if docs, ok := s.collections[collection]; ok {
		delete(docs, id)
	}
	return nil
}

func (s *Store) Query(_ context.Context, collection string, pred store.Predicate, order ...store.Order) ([]store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.collections[collection]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	// Deterministic base order before any requested ordering.
	sort.Strings(ids)

	out := make([]store.Document, 0, len(ids))
	for _, id := range ids {
		doc := store.Document{ID: id, Fields: cloneFields(docs[id])}
		if store.Matches(doc, pred) {
			out = append(out, doc)
		}
	}
	store.SortDocs(out, order)
	return out, nil
}

func (s *Store) Subcollection(collection, id, name string) string {
	return strings.Join([]string{collection, id, name}, "/")
}

func cloneFields(fields map[string]any) map[string]any {
	clone := make(map[string]any, len(fields))
	for k, v := range fields {
		clone[k] = v
	}
	return clone
}
