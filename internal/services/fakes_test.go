package services

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"face-morph-bot/internal/gateway"
	"face-morph-bot/internal/models"
)

type sentPhoto struct {
	chatID   int64
	photo    gateway.Photo
	opts     gateway.SendOptions
	location models.MessageLocation
}

type sentAlbum struct {
	chatID   int64
	refs     []string
	caption  string
	location models.MessageLocation
}

// fakeGateway records every outgoing call and mints sequential message ids,
// the way the real transport mints them per chat.
type fakeGateway struct {
	mu        sync.Mutex
	nextMsgID int

	photos        []sentPhoto
	albums        []sentAlbum
	markups       map[models.MessageLocation]gateway.Markup
	gone          map[models.MessageLocation]bool
	fetchable     map[string][]byte
	fetched       []string
	inlineAnswers [][]gateway.InlineResult
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		markups:   make(map[models.MessageLocation]gateway.Markup),
		gone:      make(map[models.MessageLocation]bool),
		fetchable: make(map[string][]byte),
	}
}

func (g *fakeGateway) nextLocation(chatID int64) models.MessageLocation {
	g.nextMsgID++
	return models.MessageLocation{ChatID: chatID, MessageID: g.nextMsgID}
}

func (g *fakeGateway) SendPhoto(ctx context.Context, chatID int64, photo gateway.Photo, opts gateway.SendOptions) (gateway.Delivery, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	loc := g.nextLocation(chatID)
	ref := photo.Ref
	if ref == "" {
		ref = "minted-" + strconv.Itoa(loc.MessageID)
	}
	g.photos = append(g.photos, sentPhoto{chatID: chatID, photo: photo, opts: opts, location: loc})
	return gateway.Delivery{Location: loc, ArtifactRef: ref}, nil
}

func (g *fakeGateway) SendAlbum(ctx context.Context, chatID int64, refs []string, caption string) (models.MessageLocation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	loc := g.nextLocation(chatID)
	g.albums = append(g.albums, sentAlbum{chatID: chatID, refs: refs, caption: caption, location: loc})
	return loc, nil
}

func (g *fakeGateway) SendMessage(ctx context.Context, chatID int64, text string, opts gateway.SendOptions) (models.MessageLocation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nextLocation(chatID), nil
}

func (g *fakeGateway) EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *gateway.Markup) error {
	return nil
}

func (g *fakeGateway) EditMarkup(ctx context.Context, loc models.MessageLocation, markup gateway.Markup) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.gone[loc] {
		return models.ErrMessageGone
	}
	g.markups[loc] = markup
	return nil
}

func (g *fakeGateway) FetchPhoto(ctx context.Context, externalID string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	data, ok := g.fetchable[externalID]
	if !ok {
		return nil, errors.New("file reference expired")
	}
	g.fetched = append(g.fetched, externalID)
	return data, nil
}

func (g *fakeGateway) AnswerInlineQuery(ctx context.Context, queryID string, results []gateway.InlineResult) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inlineAnswers = append(g.inlineAnswers, results)
	return nil
}

func (g *fakeGateway) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return nil
}

func (g *fakeGateway) editedLocations() []models.MessageLocation {
	g.mu.Lock()
	defer g.mu.Unlock()

	locs := make([]models.MessageLocation, 0, len(g.markups))
	for loc := range g.markups {
		locs = append(locs, loc)
	}
	return locs
}

func (g *fakeGateway) resetMarkups() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.markups = make(map[models.MessageLocation]gateway.Markup)
}

// fakeTransform returns a canned result or error and counts invocations.
type fakeTransform struct {
	mu       sync.Mutex
	calls    int
	commands []string
	inputs   [][]int
	result   []byte
	err      error
}

func (f *fakeTransform) Transform(ctx context.Context, inputs [][]byte, command string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.commands = append(f.commands, command)
	sizes := make([]int, len(inputs))
	for i, in := range inputs {
		sizes[i] = len(in)
	}
	f.inputs = append(f.inputs, sizes)

	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeTransform) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
