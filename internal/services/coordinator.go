package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"face-morph-bot/internal/artifacts"
	"face-morph-bot/internal/gateway"
	"face-morph-bot/internal/models"
	"face-morph-bot/internal/repository"
	"face-morph-bot/internal/transform"
)

// Coordinator drives a transform request through its states: verify inputs,
// transform (or reuse the cached result), publish to the requester and the
// shared group, and register the new message locations on the poll.
type Coordinator struct {
	photos    *repository.PhotoIndexRepository
	results   *repository.ResultRepository
	polls     *repository.PollRepository
	staging   artifacts.Store
	gw        gateway.Gateway
	transform transform.Service
	sync      *PollSyncService

	groupChatID      int64
	transformTimeout time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewCoordinator creates a new request coordinator. groupChatID is the
// shared broadcast surface every published result is forwarded to.
func NewCoordinator(
	photos *repository.PhotoIndexRepository,
	results *repository.ResultRepository,
	polls *repository.PollRepository,
	staging artifacts.Store,
	gw gateway.Gateway,
	svc transform.Service,
	sync *PollSyncService,
	groupChatID int64,
	transformTimeout time.Duration,
) *Coordinator {
	if transformTimeout <= 0 {
		transformTimeout = 2 * time.Minute
	}
	return &Coordinator{
		photos:           photos,
		results:          results,
		polls:            polls,
		staging:          staging,
		gw:               gw,
		transform:        svc,
		sync:             sync,
		groupChatID:      groupChatID,
		transformTimeout: transformTimeout,
		inFlight:         make(map[string]struct{}),
	}
}

// Process runs one transform action to completion. A concurrent identical
// request for the same key is rejected with models.ErrRequestInFlight rather
// than computed twice.
func (c *Coordinator) Process(ctx context.Context, action models.TransformAction) error {
	key := models.ResultKey(action.PhotoIDs, action.Command)

	if !c.acquire(key) {
		return models.ErrRequestInFlight
	}
	defer c.release(key)

	logger := log.With().
		Int64("user_id", action.Requester.ID).
		Str("user_name", action.Requester.Name).
		Str("key", key).
		Logger()
	logger.Info().Msg("Transform request received")

	if err := c.verifyPhotos(ctx, action.PhotoIDs); err != nil {
		logger.Error().Err(err).Msg("Photos unavailable")
		return err
	}

	photo, firstTime, err := c.resolveResult(ctx, key, action)
	if err != nil {
		logger.Error().Err(err).Msg("Transform failed")
		return err
	}

	markup, err := c.sync.Markup(ctx, key)
	if err != nil {
		return fmt.Errorf("render markup: %w", err)
	}

	userDelivery, err := c.gw.SendPhoto(ctx, action.Origin.ChatID, photo, gateway.SendOptions{
		Caption: action.Command,
		ReplyTo: action.Origin.MessageID,
		Markup:  &markup,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to publish result to requester")
		return fmt.Errorf("publish to requester: %w", err)
	}
	if userDelivery.ArtifactRef != "" && photo.Ref == "" {
		// Reuse the ref minted by the first upload for the group publish.
		photo = gateway.Photo{Ref: userDelivery.ArtifactRef}
	}

	groupDelivery, err := c.publishToGroup(ctx, action, photo, markup)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to publish result to group")
		return fmt.Errorf("publish to group: %w", err)
	}

	if firstTime {
		artifactRef := groupDelivery.ArtifactRef
		if artifactRef == "" {
			artifactRef = userDelivery.ArtifactRef
		}
		record := models.ResultRecord{
			Key:         key,
			ArtifactRef: artifactRef,
			PhotoIDs:    action.PhotoIDs,
			Command:     action.Command,
		}
		if err := c.results.Put(ctx, record); err != nil {
			return fmt.Errorf("save result: %w", err)
		}
		if err := c.polls.EnsureInitialized(ctx, key); err != nil {
			return fmt.Errorf("init poll: %w", err)
		}
	}

	err = c.polls.RegisterLocations(ctx, key,
		userDelivery.Location, groupDelivery.Location)
	if err != nil {
		return fmt.Errorf("register locations: %w", err)
	}

	logger.Info().Bool("cache_hit", !firstTime).Msg("Transform request published")
	return nil
}

// verifyPhotos ensures every input photo is staged locally, re-fetching
// evicted ones through the gateway. Any photo that cannot be recovered fails
// the whole request before the transform step.
func (c *Coordinator) verifyPhotos(ctx context.Context, photoIDs []models.PhotoID) error {
	for _, id := range photoIDs {
		name := stagedName(id)
		exists, err := c.staging.Exists(ctx, name)
		if err != nil {
			return fmt.Errorf("verify photo %d: %w", id, err)
		}
		if exists {
			continue
		}

		externalID, err := c.photos.ReverseLookup(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: photo %d has no mapping", models.ErrPhotoUnavailable, id)
		}
		data, err := c.gw.FetchPhoto(ctx, externalID)
		if err != nil {
			return fmt.Errorf("%w: photo %d could not be fetched: %v", models.ErrPhotoUnavailable, id, err)
		}
		if err := c.staging.Put(ctx, name, data); err != nil {
			return fmt.Errorf("stage photo %d: %w", id, err)
		}
	}
	return nil
}

// resolveResult returns the photo to publish. On a cache hit the stored
// artifact ref is reused and the transform service is never invoked; on a
// miss the service runs under a timeout. Either way the staged inputs are
// removed, whether they were consumed or not.
func (c *Coordinator) resolveResult(ctx context.Context, key string, action models.TransformAction) (gateway.Photo, bool, error) {
	if rec, err := c.results.Get(ctx, key); err == nil {
		c.cleanupStaged(action.PhotoIDs)
		return gateway.Photo{Ref: rec.ArtifactRef}, false, nil
	}

	inputs := make([][]byte, 0, len(action.PhotoIDs))
	for _, id := range action.PhotoIDs {
		data, err := c.staging.Get(ctx, stagedName(id))
		if err != nil {
			return gateway.Photo{}, false, fmt.Errorf("load staged photo %d: %w", id, err)
		}
		inputs = append(inputs, data)
	}

	transformCtx, cancel := context.WithTimeout(ctx, c.transformTimeout)
	result, err := c.transform.Transform(transformCtx, inputs, action.Command)
	cancel()

	c.cleanupStaged(action.PhotoIDs)

	if err != nil {
		return gateway.Photo{}, false, fmt.Errorf("transform: %w", err)
	}
	return gateway.Photo{Data: result, Name: key + ".jpg"}, true, nil
}

// cleanupStaged removes the staged inputs; failures only get logged since
// the request outcome is already decided.
func (c *Coordinator) cleanupStaged(photoIDs []models.PhotoID) {
	names := make([]string, len(photoIDs))
	for i, id := range photoIDs {
		names[i] = stagedName(id)
	}
	if err := c.staging.Remove(context.Background(), names...); err != nil {
		log.Warn().Err(err).Msg("Failed to remove staged photos")
	}
}

// publishToGroup forwards the original photos as an album with an
// attribution caption, then posts the result as a reply to it.
func (c *Coordinator) publishToGroup(ctx context.Context, action models.TransformAction, photo gateway.Photo, markup gateway.Markup) (gateway.Delivery, error) {
	refs := make([]string, 0, len(action.PhotoIDs))
	for _, id := range action.PhotoIDs {
		externalID, err := c.photos.ReverseLookup(ctx, id)
		if err != nil {
			return gateway.Delivery{}, fmt.Errorf("resolve photo %d: %w", id, err)
		}
		refs = append(refs, externalID)
	}

	caption := fmt.Sprintf("Forwarded from [%s](tg://user?id=%d)",
		action.Requester.Name, action.Requester.ID)
	albumLoc, err := c.gw.SendAlbum(ctx, c.groupChatID, refs, caption)
	if err != nil {
		return gateway.Delivery{}, fmt.Errorf("send album: %w", err)
	}

	return c.gw.SendPhoto(ctx, c.groupChatID, photo, gateway.SendOptions{
		Caption: action.Command,
		ReplyTo: albumLoc.MessageID,
		Markup:  &markup,
	})
}

func (c *Coordinator) acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[key]; busy {
		return false
	}
	c.inFlight[key] = struct{}{}
	return true
}

func (c *Coordinator) release(key string) {
	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
}

func stagedName(id models.PhotoID) string {
	return fmt.Sprintf("%d.jpg", id)
}
