package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"face-morph-bot/internal/gateway"
	"face-morph-bot/internal/models"
	"face-morph-bot/internal/repository"
)

// PollSyncService renders poll markup and keeps every registered message
// location in sync with the current vote counts.
type PollSyncService struct {
	polls *repository.PollRepository
	gw    gateway.Gateway
}

// NewPollSyncService creates a new poll sync service.
func NewPollSyncService(polls *repository.PollRepository, gw gateway.Gateway) *PollSyncService {
	return &PollSyncService{polls: polls, gw: gw}
}

// Markup renders the poll keyboard for a key: one button per option in the
// fixed enumeration order showing its voter count, plus a share control. A
// key with no poll yet renders with zero counts.
func (s *PollSyncService) Markup(ctx context.Context, key string) (gateway.Markup, error) {
	poll, err := s.polls.Snapshot(ctx, key)
	if err != nil {
		if !errors.Is(err, models.ErrPollNotFound) {
			return gateway.Markup{}, err
		}
		poll = models.NewPoll(key)
	}
	return renderMarkup(poll), nil
}

// BroadcastMarkup pushes the current markup to every registered location.
// Each location is attempted independently: a deleted message is logged and
// skipped, never retried, and never aborts the rest of the fan-out.
func (s *PollSyncService) BroadcastMarkup(ctx context.Context, key string) error {
	poll, err := s.polls.Snapshot(ctx, key)
	if err != nil {
		return fmt.Errorf("broadcast markup: %w", err)
	}

	markup := renderMarkup(poll)
	for _, loc := range poll.Locations {
		if err := s.gw.EditMarkup(ctx, loc, markup); err != nil {
			log.Debug().
				Str("key", key).
				Stringer("location", loc).
				Err(err).
				Msg("Markup update skipped")
		}
	}
	return nil
}

func renderMarkup(poll *models.Poll) gateway.Markup {
	optionRow := make([]gateway.Button, 0, len(models.Options()))
	for _, opt := range models.Options() {
		optionRow = append(optionRow, gateway.Button{
			Text: fmt.Sprintf("%s %d", opt.Emoji(), poll.VoteCount(opt)),
			CallbackData: gateway.EncodePayload(gateway.VotePayload{
				ID:     poll.Key,
				Option: string(opt),
			}),
		})
	}

	shareRow := []gateway.Button{{
		Text:              "Share",
		SwitchInlineQuery: poll.Key,
	}}

	return gateway.Markup{Rows: [][]gateway.Button{optionRow, shareRow}}
}
