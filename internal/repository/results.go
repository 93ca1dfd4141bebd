package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"face-morph-bot/internal/models"
	"face-morph-bot/internal/store"
)

// ResultRepository is the computation cache: one immutable record per result
// key. Put is insert-if-absent; the first writer wins and later puts for the
// same key are silent no-ops.
type ResultRepository struct {
	docs store.Documents
}

// NewResultRepository creates a new result repository.
func NewResultRepository(docs store.Documents) *ResultRepository {
	return &ResultRepository{docs: docs}
}

// Get returns the record for a key, or models.ErrResultNotFound.
func (r *ResultRepository) Get(ctx context.Context, key string) (*models.ResultRecord, error) {
	var results map[string]models.ResultRecord
	ok, err := r.docs.Load(ctx, store.DocResults, &results)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	if ok {
		if rec, found := results[key]; found {
			return &rec, nil
		}
	}
	return nil, models.ErrResultNotFound
}

// Put stores a record unless one already exists for its key.
func (r *ResultRepository) Put(ctx context.Context, rec models.ResultRecord) error {
	err := r.docs.Update(ctx, store.DocResults, func(raw []byte) ([]byte, error) {
		results := make(map[string]models.ResultRecord)
		if raw != nil {
			if err := json.Unmarshal(raw, &results); err != nil {
				return nil, fmt.Errorf("decode results: %w", err)
			}
		}

		if _, exists := results[rec.Key]; exists {
			return nil, nil
		}

		results[rec.Key] = rec
		return json.Marshal(results)
	})
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}
