package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"face-morph-bot/internal/artifacts"
	"face-morph-bot/internal/store"
)

// ResetScope selects what an operator reset clears.
type ResetScope string

const (
	// ScopeCache clears the photo identity map and the staged artifacts.
	ScopeCache ResetScope = "cache"
	// ScopeData clears the result cache and the poll store.
	ScopeData ResetScope = "data"
	// ScopeAll clears both.
	ScopeAll ResetScope = "all"
)

// ParseResetScope validates an operator-supplied scope string.
func ParseResetScope(s string) (ResetScope, error) {
	switch ResetScope(s) {
	case ScopeCache, ScopeData, ScopeAll:
		return ResetScope(s), nil
	}
	return "", fmt.Errorf("unknown reset scope %q (want cache, data or all)", s)
}

// ResetService clears cache and data documents independently.
type ResetService struct {
	docs    store.Documents
	staging artifacts.Store
}

// NewResetService creates a new reset service.
func NewResetService(docs store.Documents, staging artifacts.Store) *ResetService {
	return &ResetService{docs: docs, staging: staging}
}

// Reset clears the documents selected by scope. Cache and data are
// independent: clearing one leaves the other untouched.
func (s *ResetService) Reset(ctx context.Context, scope ResetScope) error {
	if scope == ScopeCache || scope == ScopeAll {
		if err := s.docs.Clear(ctx, store.DocPhotoIndex); err != nil {
			return fmt.Errorf("reset cache: %w", err)
		}
		if err := s.staging.Clear(ctx); err != nil {
			return fmt.Errorf("reset cache: %w", err)
		}
		log.Info().Msg("Cache cleared")
	}

	if scope == ScopeData || scope == ScopeAll {
		if err := s.docs.Clear(ctx, store.DocResults, store.DocPolls); err != nil {
			return fmt.Errorf("reset data: %w", err)
		}
		log.Info().Msg("Data cleared")
	}
	return nil
}
