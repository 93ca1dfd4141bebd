package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"face-morph-bot/internal/models"
	"face-morph-bot/internal/store"
)

// PollRepository holds the voting state per result key: option voter sets
// plus every message location rendering the poll's markup.
//
// Callers must only operate on keys whose result record exists; the poll
// store itself does not validate that.
type PollRepository struct {
	docs store.Documents
}

// NewPollRepository creates a new poll repository.
func NewPollRepository(docs store.Documents) *PollRepository {
	return &PollRepository{docs: docs}
}

// EnsureInitialized creates an empty poll for the key if absent; otherwise it
// is a no-op.
func (r *PollRepository) EnsureInitialized(ctx context.Context, key string) error {
	err := r.docs.Update(ctx, store.DocPolls, func(raw []byte) ([]byte, error) {
		polls, err := decodePolls(raw)
		if err != nil {
			return nil, err
		}
		if _, exists := polls[key]; exists {
			return nil, nil
		}
		polls[key] = models.NewPoll(key)
		return json.Marshal(polls)
	})
	if err != nil {
		return fmt.Errorf("init poll: %w", err)
	}
	return nil
}

// CastVote records an exclusive vote. The voter is removed from every option
// first (this also repairs any stale double membership), then appended to the
// requested option. changed is false only when the voter was already on that
// exact option, so re-casting the same vote is a caller-visible no-op.
func (r *PollRepository) CastVote(ctx context.Context, key string, option models.Option, voter models.Voter) (bool, error) {
	changed := false

	err := r.docs.Update(ctx, store.DocPolls, func(raw []byte) ([]byte, error) {
		polls, err := decodePolls(raw)
		if err != nil {
			return nil, err
		}

		poll, exists := polls[key]
		if !exists {
			poll = models.NewPoll(key)
			polls[key] = poll
		}
		if poll.Options == nil {
			poll.Options = make(map[models.Option][]models.Voter)
		}

		alreadyHere := false
		for _, v := range poll.Options[option] {
			if v.ID == voter.ID {
				alreadyHere = true
				break
			}
		}

		for opt, voters := range poll.Options {
			kept := voters[:0]
			for _, v := range voters {
				if v.ID != voter.ID {
					kept = append(kept, v)
				}
			}
			poll.Options[opt] = kept
		}

		poll.Options[option] = append(poll.Options[option], voter)
		changed = !alreadyHere
		return json.Marshal(polls)
	})
	if err != nil {
		return false, fmt.Errorf("cast vote: %w", err)
	}
	return changed, nil
}

// RegisterLocations merges new message locations into the poll's location
// set in one batch. Duplicates (full-field equality) are dropped; the set
// only ever grows.
func (r *PollRepository) RegisterLocations(ctx context.Context, key string, locations ...models.MessageLocation) error {
	if len(locations) == 0 {
		return nil
	}

	err := r.docs.Update(ctx, store.DocPolls, func(raw []byte) ([]byte, error) {
		polls, err := decodePolls(raw)
		if err != nil {
			return nil, err
		}

		poll, exists := polls[key]
		if !exists {
			poll = models.NewPoll(key)
			polls[key] = poll
		}

		for _, loc := range locations {
			known := false
			for _, existing := range poll.Locations {
				if existing.Equal(loc) {
					known = true
					break
				}
			}
			if !known {
				poll.Locations = append(poll.Locations, loc)
			}
		}
		return json.Marshal(polls)
	})
	if err != nil {
		return fmt.Errorf("register locations: %w", err)
	}
	return nil
}

// Snapshot returns the poll for rendering, or models.ErrPollNotFound.
func (r *PollRepository) Snapshot(ctx context.Context, key string) (*models.Poll, error) {
	var polls map[string]*models.Poll
	ok, err := r.docs.Load(ctx, store.DocPolls, &polls)
	if err != nil {
		return nil, fmt.Errorf("load polls: %w", err)
	}
	if ok {
		if poll, found := polls[key]; found {
			return poll, nil
		}
	}
	return nil, models.ErrPollNotFound
}

func decodePolls(raw []byte) (map[string]*models.Poll, error) {
	polls := make(map[string]*models.Poll)
	if raw != nil {
		if err := json.Unmarshal(raw, &polls); err != nil {
			return nil, fmt.Errorf("decode polls: %w", err)
		}
	}
	return polls, nil
}
