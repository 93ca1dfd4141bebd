package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"face-morph-bot/internal/models"
	"face-morph-bot/internal/repository"
)

// VoteService applies vote actions and triggers the markup fan-out for
// effective votes only. Re-casting the same vote touches nothing downstream.
type VoteService struct {
	polls *repository.PollRepository
	sync  *PollSyncService
	hub   *FeedHub
}

// NewVoteService creates a new vote service.
func NewVoteService(polls *repository.PollRepository, sync *PollSyncService, hub *FeedHub) *VoteService {
	return &VoteService{polls: polls, sync: sync, hub: hub}
}

// HandleVote casts a vote and, when it changed the poll, broadcasts the
// updated markup and notifies the operator feed.
func (s *VoteService) HandleVote(ctx context.Context, action models.VoteAction) error {
	changed, err := s.polls.CastVote(ctx, action.Key, action.Option, action.Voter)
	if err != nil {
		return fmt.Errorf("handle vote: %w", err)
	}

	log.Info().
		Int64("user_id", action.Voter.ID).
		Str("user_name", action.Voter.Name).
		Str("key", action.Key).
		Str("option", string(action.Option)).
		Bool("changed", changed).
		Msg("Vote cast")

	if !changed {
		return nil
	}

	if err := s.sync.BroadcastMarkup(ctx, action.Key); err != nil {
		return fmt.Errorf("handle vote: %w", err)
	}

	if poll, err := s.polls.Snapshot(ctx, action.Key); err == nil {
		counts := make(map[models.Option]int, len(models.Options()))
		for _, opt := range models.Options() {
			counts[opt] = poll.VoteCount(opt)
		}
		s.hub.Broadcast(VoteEvent{
			Key:       action.Key,
			Option:    action.Option,
			VoterName: action.Voter.Name,
			Counts:    counts,
		})
	}
	return nil
}
