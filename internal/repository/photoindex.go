package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"face-morph-bot/internal/models"
	"face-morph-bot/internal/store"
)

// PhotoIndexRepository maintains the bidirectional mapping between platform
// photo ids and internal sequential ids. The mapping is append-only: ids are
// never deleted or reassigned.
type PhotoIndexRepository struct {
	docs store.Documents
}

// NewPhotoIndexRepository creates a new photo index repository.
func NewPhotoIndexRepository(docs store.Documents) *PhotoIndexRepository {
	return &PhotoIndexRepository{docs: docs}
}

// ResolveOrRegister returns the internal id for an external photo id,
// registering it with the next dense id on first sight.
func (r *PhotoIndexRepository) ResolveOrRegister(ctx context.Context, externalID string) (models.PhotoID, error) {
	var id models.PhotoID

	err := r.docs.Update(ctx, store.DocPhotoIndex, func(raw []byte) ([]byte, error) {
		index, err := decodeIndex(raw)
		if err != nil {
			return nil, err
		}

		if existing, ok := index[externalID]; ok {
			id = existing
			return nil, nil
		}

		id = len(index) + 1
		index[externalID] = id
		return json.Marshal(index)
	})
	if err != nil {
		return 0, fmt.Errorf("register photo: %w", err)
	}
	return id, nil
}

// ReverseLookup returns the external id for an internal one. It fails with
// models.ErrPhotoNotFound when no mapping exists.
func (r *PhotoIndexRepository) ReverseLookup(ctx context.Context, id models.PhotoID) (string, error) {
	var index map[string]models.PhotoID
	ok, err := r.docs.Load(ctx, store.DocPhotoIndex, &index)
	if err != nil {
		return "", fmt.Errorf("load photo index: %w", err)
	}
	if ok {
		for externalID, internalID := range index {
			if internalID == id {
				return externalID, nil
			}
		}
	}
	return "", models.ErrPhotoNotFound
}

func decodeIndex(raw []byte) (map[string]models.PhotoID, error) {
	index := make(map[string]models.PhotoID)
	if raw != nil {
		if err := json.Unmarshal(raw, &index); err != nil {
			return nil, fmt.Errorf("decode photo index: %w", err)
		}
	}
	return index, nil
}
