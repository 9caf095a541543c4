package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizhost-service/internal/domain"
	"quizhost-service/internal/store"
)

// Store keeps schemaless documents in one JSONB table keyed by
// (collection, id). Put is a single INSERT ... ON CONFLICT statement, which
// gives the per-document atomic create-or-replace the ledger relies on.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection=$1 AND id=$2`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Document{}, domain.ErrNotFound
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("%w: get %s/%s: %v", domain.ErrStoreUnavailable, collection, id, err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return store.Document{}, fmt.Errorf("%w: document %s/%s: %v", domain.ErrDataIntegrity, collection, id, err)
	}
	return store.Document{ID: id, Fields: fields}, nil
}

func (s *Store) Put(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`,
		collection, id, string(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: put %s/%s: %v", domain.ErrStoreUnavailable, collection, id, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	raw, err := json.Marshal(partial)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET data = data || $3::jsonb WHERE collection=$1 AND id=$2`,
		collection, id, string(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: update %s/%s: %v", domain.ErrStoreUnavailable, collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection=$1 AND id=$2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("%w: delete %s/%s: %v", domain.ErrStoreUnavailable, collection, id, err)
	}
	return nil
}

// Query pushes equality conditions down as JSONB containment and evaluates
// any range conditions in process, so memory and postgres stores agree on
// predicate semantics.
func (s *Store) Query(ctx context.Context, collection string, pred store.Predicate, order ...store.Order) ([]store.Document, error) {
	containment := map[string]any{}
	var residual store.Predicate
	for _, cond := range pred {
		if cond.Op == store.OpEq {
			containment[cond.Field] = cond.Value
		} else {
			residual = append(residual, cond)
		}
	}

	query := `SELECT id, data FROM documents WHERE collection=$1`
	args := []any{collection}
	if len(containment) > 0 {
		raw, err := json.Marshal(containment)
		if err != nil {
			return nil, err
		}
		query += ` AND data @> $2::jsonb`
		args = append(args, string(raw))
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", domain.ErrStoreUnavailable, collection, err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("%w: query %s: %v", domain.ErrStoreUnavailable, collection, err)
		}
		fields := map[string]any{}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("%w: document %s/%s: %v", domain.ErrDataIntegrity, collection, id, err)
		}
		doc := store.Document{ID: id, Fields: fields}
		if store.Matches(doc, residual) {
			docs = append(docs, doc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", domain.ErrStoreUnavailable, collection, err)
	}
	store.SortDocs(docs, order)
	return docs, nil
}

func (s *Store) Subcollection(collection, id, name string) string {
	return strings.Join([]string{collection, id, name}, "/")
}
