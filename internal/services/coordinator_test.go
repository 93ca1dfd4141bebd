package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"face-morph-bot/internal/artifacts"
	"face-morph-bot/internal/models"
	"face-morph-bot/internal/repository"
	"face-morph-bot/internal/store"
	"face-morph-bot/internal/transform"
)

const testGroupChatID int64 = -100500

type coordinatorFixture struct {
	photos  *repository.PhotoIndexRepository
	results *repository.ResultRepository
	polls   *repository.PollRepository
	staging *artifacts.LocalStore
	gw      *fakeGateway
	svc     *fakeTransform
	coord   *Coordinator
}

func newCoordinatorFixture(t *testing.T) *coordinatorFixture {
	t.Helper()

	docs, err := store.NewFileDocuments(t.TempDir())
	require.NoError(t, err)
	staging, err := artifacts.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	photos := repository.NewPhotoIndexRepository(docs)
	results := repository.NewResultRepository(docs)
	polls := repository.NewPollRepository(docs)
	gw := newFakeGateway()
	svc := &fakeTransform{result: []byte("result-image")}
	sync := NewPollSyncService(polls, gw)

	return &coordinatorFixture{
		photos:  photos,
		results: results,
		polls:   polls,
		staging: staging,
		gw:      gw,
		svc:     svc,
		coord:   NewCoordinator(photos, results, polls, staging, gw, svc, sync, testGroupChatID, time.Minute),
	}
}

// registerStaged registers an external photo and stages its bytes, returning
// the assigned internal id.
func (f *coordinatorFixture) registerStaged(t *testing.T, externalID string, data []byte) models.PhotoID {
	t.Helper()

	ctx := context.Background()
	id, err := f.photos.ResolveOrRegister(ctx, externalID)
	require.NoError(t, err)
	require.NoError(t, f.staging.Put(ctx, stagedName(id), data))
	return id
}

func TestProcessTransformAndPublish(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture(t)

	idA := f.registerStaged(t, "ext-a", []byte("photo-a"))
	idB := f.registerStaged(t, "ext-b", []byte("photo-b!"))
	require.Equal(t, 1, idA)
	require.Equal(t, 2, idB)

	action := models.TransformAction{
		PhotoIDs:  []models.PhotoID{idA, idB},
		Command:   transform.CommandFusion,
		Origin:    models.MessageLocation{ChatID: 42, MessageID: 7},
		Requester: models.Voter{ID: 9, Name: "Ana"},
	}
	require.NoError(t, f.coord.Process(ctx, action))

	require.Equal(t, 1, f.svc.callCount())
	assert.Equal(t, []string{transform.CommandFusion}, f.svc.commands)
	assert.Equal(t, []int{len("photo-a"), len("photo-b!")}, f.svc.inputs[0])

	// The requester gets the raw result bytes, as a reply to the menu.
	require.Len(t, f.gw.photos, 2)
	userSend := f.gw.photos[0]
	assert.Equal(t, int64(42), userSend.chatID)
	assert.Equal(t, []byte("result-image"), userSend.photo.Data)
	assert.Equal(t, transform.CommandFusion, userSend.opts.Caption)
	assert.Equal(t, 7, userSend.opts.ReplyTo)
	require.NotNil(t, userSend.opts.Markup)

	// The group gets the original photos as an attributed album, then the
	// result by the ref minted for the first upload.
	require.Len(t, f.gw.albums, 1)
	album := f.gw.albums[0]
	assert.Equal(t, testGroupChatID, album.chatID)
	assert.Equal(t, []string{"ext-a", "ext-b"}, album.refs)
	assert.Contains(t, album.caption, "Ana")

	groupSend := f.gw.photos[1]
	assert.Equal(t, testGroupChatID, groupSend.chatID)
	assert.Equal(t, "minted-1", groupSend.photo.Ref)
	assert.Equal(t, album.location.MessageID, groupSend.opts.ReplyTo)

	// The result record and its poll exist, with both publish locations.
	rec, err := f.results.Get(ctx, "1+2#Fusion")
	require.NoError(t, err)
	assert.Equal(t, "minted-1", rec.ArtifactRef)
	assert.Equal(t, transform.CommandFusion, rec.Command)

	poll, err := f.polls.Snapshot(ctx, "1+2#Fusion")
	require.NoError(t, err)
	assert.Equal(t, []models.MessageLocation{
		userSend.location,
		groupSend.location,
	}, poll.Locations)

	// Staged inputs are consumed by the transform.
	for _, id := range action.PhotoIDs {
		exists, err := f.staging.Exists(ctx, stagedName(id))
		require.NoError(t, err)
		assert.False(t, exists, "staged photo %d should be removed", id)
	}
}

func TestProcessCacheHitSkipsTransform(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture(t)

	idA := f.registerStaged(t, "ext-a", []byte("photo-a"))
	idB := f.registerStaged(t, "ext-b", []byte("photo-b"))

	first := models.TransformAction{
		PhotoIDs:  []models.PhotoID{idA, idB},
		Command:   transform.CommandFusion,
		Origin:    models.MessageLocation{ChatID: 42, MessageID: 7},
		Requester: models.Voter{ID: 9, Name: "Ana"},
	}
	require.NoError(t, f.coord.Process(ctx, first))
	require.Equal(t, 1, f.svc.callCount())

	// The same key from another chat reuses the stored artifact. The verify
	// step re-fetches the consumed inputs, but the transform never runs.
	f.gw.fetchable["ext-a"] = []byte("photo-a")
	f.gw.fetchable["ext-b"] = []byte("photo-b")
	second := first
	second.Origin = models.MessageLocation{ChatID: 77, MessageID: 3}
	second.Requester = models.Voter{ID: 10, Name: "Beto"}
	require.NoError(t, f.coord.Process(ctx, second))

	assert.Equal(t, 1, f.svc.callCount())

	// The re-staged inputs do not linger after the hit.
	for _, id := range second.PhotoIDs {
		exists, err := f.staging.Exists(ctx, stagedName(id))
		require.NoError(t, err)
		assert.False(t, exists, "staged photo %d should be removed", id)
	}

	rec, err := f.results.Get(ctx, "1+2#Fusion")
	require.NoError(t, err)

	require.Len(t, f.gw.photos, 4)
	assert.Equal(t, rec.ArtifactRef, f.gw.photos[2].photo.Ref)

	// Every publish keeps registering new locations on the same poll.
	poll, err := f.polls.Snapshot(ctx, "1+2#Fusion")
	require.NoError(t, err)
	assert.Len(t, poll.Locations, 4)
}

func TestProcessUnknownPhotoFails(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture(t)

	action := models.TransformAction{
		PhotoIDs:  []models.PhotoID{3},
		Command:   transform.CommandYoung,
		Origin:    models.MessageLocation{ChatID: 42, MessageID: 1},
		Requester: models.Voter{ID: 9, Name: "Ana"},
	}
	err := f.coord.Process(ctx, action)
	require.ErrorIs(t, err, models.ErrPhotoUnavailable)
	assert.Zero(t, f.svc.callCount())
	assert.Empty(t, f.gw.photos)
}

func TestProcessRefetchesEvictedPhoto(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture(t)

	// Registered but no longer staged, e.g. after a cache reset.
	id, err := f.photos.ResolveOrRegister(ctx, "ext-a")
	require.NoError(t, err)
	f.gw.fetchable["ext-a"] = []byte("refetched-photo")

	action := models.TransformAction{
		PhotoIDs:  []models.PhotoID{id},
		Command:   transform.CommandOld,
		Origin:    models.MessageLocation{ChatID: 42, MessageID: 1},
		Requester: models.Voter{ID: 9, Name: "Ana"},
	}
	require.NoError(t, f.coord.Process(ctx, action))

	assert.Equal(t, []string{"ext-a"}, f.gw.fetched)
	require.Equal(t, 1, f.svc.callCount())
	assert.Equal(t, []int{len("refetched-photo")}, f.svc.inputs[0])
}

func TestProcessUnfetchablePhotoFails(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture(t)

	id, err := f.photos.ResolveOrRegister(ctx, "ext-a")
	require.NoError(t, err)

	action := models.TransformAction{
		PhotoIDs:  []models.PhotoID{id},
		Command:   transform.CommandMan,
		Origin:    models.MessageLocation{ChatID: 42, MessageID: 1},
		Requester: models.Voter{ID: 9, Name: "Ana"},
	}
	err = f.coord.Process(ctx, action)
	require.ErrorIs(t, err, models.ErrPhotoUnavailable)
	assert.Zero(t, f.svc.callCount())
}

func TestProcessRejectsDuplicateInFlight(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture(t)

	id := f.registerStaged(t, "ext-a", []byte("photo-a"))
	action := models.TransformAction{
		PhotoIDs:  []models.PhotoID{id},
		Command:   transform.CommandWoman,
		Origin:    models.MessageLocation{ChatID: 42, MessageID: 1},
		Requester: models.Voter{ID: 9, Name: "Ana"},
	}

	key := models.ResultKey(action.PhotoIDs, action.Command)
	require.True(t, f.coord.acquire(key))

	err := f.coord.Process(ctx, action)
	require.ErrorIs(t, err, models.ErrRequestInFlight)
	assert.Zero(t, f.svc.callCount())

	// A different key is not blocked.
	other := action
	other.Command = transform.CommandYoung
	require.NoError(t, f.coord.Process(ctx, other))

	f.coord.release(key)
	require.NoError(t, f.staging.Put(ctx, stagedName(id), []byte("photo-a")))
	require.NoError(t, f.coord.Process(ctx, action))
}

func TestProcessTransformFailure(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture(t)
	f.svc.err = &transform.Error{Reason: "no face detected"}

	id := f.registerStaged(t, "ext-a", []byte("photo-a"))
	action := models.TransformAction{
		PhotoIDs:  []models.PhotoID{id},
		Command:   transform.CommandYoung,
		Origin:    models.MessageLocation{ChatID: 42, MessageID: 1},
		Requester: models.Voter{ID: 9, Name: "Ana"},
	}
	err := f.coord.Process(ctx, action)

	var svcErr *transform.Error
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "no face detected", svcErr.Reason)

	// Nothing published, nothing recorded, staged inputs still cleaned up.
	assert.Empty(t, f.gw.photos)
	_, err = f.results.Get(ctx, "1#Young")
	assert.ErrorIs(t, err, models.ErrResultNotFound)

	exists, err := f.staging.Exists(ctx, stagedName(id))
	require.NoError(t, err)
	assert.False(t, exists)
}
