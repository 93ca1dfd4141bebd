// Package bot receives platform updates, validates their payloads into typed
// actions and dispatches them to the services. One worker goroutine handles
// each update, bounded by a semaphore; a failed worker reports to the user
// and returns to idle.
package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"face-morph-bot/internal/gateway"
	"face-morph-bot/internal/models"
	"face-morph-bot/internal/repository"
	"face-morph-bot/internal/services"
)

// Options tunes the update loop.
type Options struct {
	PollTimeout    time.Duration
	TaskTimeout    time.Duration
	MaxConcurrency int
	AllowedUserIDs []int64
}

// Transport is the platform connection the bot consumes: the shared gateway
// plus the long-polling controls.
type Transport interface {
	gateway.Gateway
	Updates(timeoutSeconds int) tgbotapi.UpdatesChannel
	StopPolling()
	Username() string
}

// Bot wires the update stream to the coordinator, vote, and share services.
type Bot struct {
	tg          Transport
	photos      *repository.PhotoIndexRepository
	coordinator *services.Coordinator
	votes       *services.VoteService
	share       *services.ShareService

	pollTimeout time.Duration
	taskTimeout time.Duration
	sem         chan struct{}
	allowed     map[int64]bool

	albums *albumTracker
}

// New creates a bot. An empty allow-list admits everyone.
func New(
	tg Transport,
	photos *repository.PhotoIndexRepository,
	coordinator *services.Coordinator,
	votes *services.VoteService,
	share *services.ShareService,
	opts Options,
) *Bot {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 60 * time.Second
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 5 * time.Minute
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 8
	}

	allowed := make(map[int64]bool, len(opts.AllowedUserIDs))
	for _, id := range opts.AllowedUserIDs {
		allowed[id] = true
	}

	return &Bot{
		tg:          tg,
		photos:      photos,
		coordinator: coordinator,
		votes:       votes,
		share:       share,
		pollTimeout: opts.PollTimeout,
		taskTimeout: opts.TaskTimeout,
		sem:         make(chan struct{}, opts.MaxConcurrency),
		allowed:     allowed,
		albums:      newAlbumTracker(),
	}
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	log.Info().Str("bot", b.tg.Username()).Msg("Bot listening")

	updates := b.tg.Updates(int(b.pollTimeout.Seconds()))
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			b.tg.StopPolling()
			wg.Wait()
			log.Info().Msg("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				wg.Wait()
				return
			}
			b.sem <- struct{}{}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer func() {
					if r := recover(); r != nil {
						log.Error().Interface("panic", r).Msg("Update handler panicked")
					}
					<-b.sem
					wg.Done()
				}()

				taskCtx, cancel := context.WithTimeout(ctx, b.taskTimeout)
				defer cancel()
				b.handleUpdate(taskCtx, u)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.InlineQuery != nil:
		b.handleInlineQuery(ctx, update.InlineQuery)
	case update.ChosenInlineResult != nil:
		b.handleChosenResult(ctx, update.ChosenInlineResult)
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowed) == 0 || b.allowed[userID]
}

func voterFrom(user *tgbotapi.User) models.Voter {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	return models.Voter{ID: user.ID, Name: name}
}
