package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"face-morph-bot/internal/gateway"
	"face-morph-bot/internal/models"
	"face-morph-bot/internal/repository"
)

// ShareService answers inline share queries from the result cache and
// registers chosen inline messages as poll locations.
type ShareService struct {
	results *repository.ResultRepository
	polls   *repository.PollRepository
	sync    *PollSyncService
	gw      gateway.Gateway
}

// NewShareService creates a new share service.
func NewShareService(results *repository.ResultRepository, polls *repository.PollRepository, sync *PollSyncService, gw gateway.Gateway) *ShareService {
	return &ShareService{results: results, polls: polls, sync: sync, gw: gw}
}

// HandleQuery answers an inline query whose text is a result key. Unknown
// keys get no answer, matching how the cache behaves as a lookup.
func (s *ShareService) HandleQuery(ctx context.Context, queryID string, action models.ShareQueryAction) error {
	rec, err := s.results.Get(ctx, action.Key)
	if err != nil {
		if errors.Is(err, models.ErrResultNotFound) {
			return nil
		}
		return fmt.Errorf("share query: %w", err)
	}

	markup, err := s.sync.Markup(ctx, action.Key)
	if err != nil {
		return fmt.Errorf("share query: %w", err)
	}

	result := gateway.InlineResult{
		ID:          uuid.New().String(),
		ArtifactRef: rec.ArtifactRef,
		Caption:     rec.Command,
		Markup:      markup,
	}
	if err := s.gw.AnswerInlineQuery(ctx, queryID, []gateway.InlineResult{result}); err != nil {
		return fmt.Errorf("share query: %w", err)
	}
	return nil
}

// HandleShared registers the inline message created by a chosen share so it
// joins the poll's markup fan-out.
func (s *ShareService) HandleShared(ctx context.Context, action models.ResultSharedAction) error {
	loc := models.MessageLocation{InlineMessageID: action.InlineMessageID}
	if err := s.polls.RegisterLocations(ctx, action.Key, loc); err != nil {
		return fmt.Errorf("register shared message: %w", err)
	}

	log.Info().
		Int64("user_id", action.Sharer.ID).
		Str("user_name", action.Sharer.Name).
		Str("key", action.Key).
		Msg("Result shared inline")
	return nil
}
