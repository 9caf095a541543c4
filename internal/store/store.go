package store

import (
	"context"
	"encoding/json"
)

// Collection paths referenced by the core. Open and link-restricted quizzes
// live in parallel catalogs; questions are nested under their quiz.
const (
	CollectionQuizzes   = "quizzes"
	CollectionQuizLinks = "quizzes_links"
	CollectionAttempts  = "quizAttempts"
	CollectionUsers     = "users"
	SubcollectionName   = "questions"
)

// Document is one schemaless record addressed by collection path and id.
type Document struct {
	ID     string
	Fields map[string]any
}

// Op is a predicate comparison operator.
type Op string

const (
	OpEq  Op = "=="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
)

// Condition compares one top-level field against a value.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Predicate is a conjunction of conditions. Empty matches everything.
type Predicate []Condition

// Where appends a condition, allowing fluent chains.
func (p Predicate) Where(field string, op Op, value any) Predicate {
	return append(p, Condition{Field: field, Op: op, Value: value})
}

// Eq is shorthand for a single equality predicate.
func Eq(field string, value any) Predicate {
	return Predicate{{Field: field, Op: OpEq, Value: value}}
}

// Order requests result ordering on one top-level field.
type Order struct {
	Field string
	Desc  bool
}

// Store is the document store contract the core consumes. Put must be an
// atomic create-or-replace of the whole document; callers rely on that
// single-write atomicity instead of transactions.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Put(ctx context.Context, collection, id string, fields map[string]any) error
	Update(ctx context.Context, collection, id string, partial map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, pred Predicate, order ...Order) ([]Document, error)
	Subcollection(collection, id, name string) string
}

// QuestionsPath addresses the question subcollection of a quiz inside the
// given catalog.
func QuestionsPath(s Store, catalog, quizID string) string {
	return s.Subcollection(catalog, quizID, SubcollectionName)
}

// Decode unmarshals document fields into a typed value via JSON round-trip.
func Decode(doc Document, out any) error {
	raw, err := json.Marshal(doc.Fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Fields marshals a typed value into the schemaless field map.
func Fields(in any) (map[string]any, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
