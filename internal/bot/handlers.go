package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"face-morph-bot/internal/gateway"
	"face-morph-bot/internal/models"
	"face-morph-bot/internal/transform"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if !b.userAllowed(msg.From.ID) {
		if msg.Chat.IsPrivate() {
			log.Warn().
				Int64("user_id", msg.From.ID).
				Str("user_name", msg.From.UserName).
				Msg("Forbidden user")
			b.reply(ctx, msg, msgForbidden)
		}
		return
	}

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
	default:
		if msg.Chat.IsPrivate() {
			log.Warn().
				Int64("user_id", msg.From.ID).
				Str("text", msg.Text).
				Msg("Invalid message")
			b.reply(ctx, msg, msgUnknown)
			b.reply(ctx, msg, msgWelcome)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.reply(ctx, msg, msgWelcome)
	default:
		if msg.Chat.IsPrivate() {
			b.reply(ctx, msg, msgUnknown)
		}
	}
}

// handlePhoto registers the photo and shows (or grows) the action menu. The
// photo itself is not downloaded yet; staging happens when a command runs.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	// Largest size last.
	externalID := msg.Photo[len(msg.Photo)-1].FileID

	photoID, err := b.photos.ResolveOrRegister(ctx, externalID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("Failed to register photo")
		b.reply(ctx, msg, msgGenericError)
		return
	}

	photoIDs, menuMsgID := b.albums.add(msg.From.ID, msg.MediaGroupID, photoID)
	markup := commandMenu(msg.MessageID, photoIDs)

	if menuMsgID == 0 {
		loc, err := b.tg.SendMessage(ctx, msg.Chat.ID, msgMenuSingle, gateway.SendOptions{
			ReplyTo: msg.MessageID,
			Markup:  &markup,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to send action menu")
			return
		}
		b.albums.setMenu(msg.From.ID, loc.MessageID)
	} else {
		err := b.tg.EditMessage(ctx, msg.Chat.ID, menuMsgID, msgMenuAlbum, &markup)
		if err != nil {
			log.Error().Err(err).Msg("Failed to update action menu")
		}
	}

	log.Info().
		Int64("user_id", msg.From.ID).
		Int("photo_id", photoID).
		Int("batch", len(photoIDs)).
		Msg("Photo received")
}

// commandMenu builds one button per command applicable to the batch size.
func commandMenu(originMsgID int, photoIDs []models.PhotoID) gateway.Markup {
	var commands []string
	if len(photoIDs) >= 2 {
		commands = []string{transform.CommandFusion}
	} else {
		commands = transform.SinglePhotoCommands()
	}

	rows := make([][]gateway.Button, 0, len(commands))
	for _, cmd := range commands {
		rows = append(rows, []gateway.Button{{
			Text: cmd,
			CallbackData: gateway.EncodePayload(gateway.CommandPayload{
				Cmd:    cmd,
				Msg:    originMsgID,
				Photos: photoIDs,
			}),
		}})
	}
	return gateway.Markup{Rows: rows}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}

	// Vote buttons also live on inline-shared messages, which arrive with
	// no Message and only an inline message id.
	if payload, ok := gateway.DecodeVotePayload(cb.Data); ok {
		b.runVote(ctx, cb, payload)
		return
	}
	if payload, ok := gateway.DecodeCommandPayload(cb.Data); ok {
		if cb.Message == nil {
			log.Warn().Str("data", cb.Data).Msg("Command callback without origin message")
			return
		}
		b.runTransform(ctx, cb, payload)
		return
	}

	log.Warn().Str("data", cb.Data).Msg("Unrecognized callback payload")
	_ = b.tg.AnswerCallback(ctx, cb.ID, "")
}

func (b *Bot) runTransform(ctx context.Context, cb *tgbotapi.CallbackQuery, payload gateway.CommandPayload) {
	_ = b.tg.AnswerCallback(ctx, cb.ID, "")

	if !transform.ValidCommand(payload.Cmd, len(payload.Photos)) {
		log.Warn().Str("cmd", payload.Cmd).Int("photos", len(payload.Photos)).Msg("Invalid command payload")
		return
	}
	for _, id := range payload.Photos {
		if id <= 0 {
			log.Warn().Int("photo_id", id).Msg("Invalid photo id in payload")
			return
		}
	}

	action := models.TransformAction{
		PhotoIDs: payload.Photos,
		Command:  payload.Cmd,
		Origin: models.MessageLocation{
			ChatID:    cb.Message.Chat.ID,
			MessageID: payload.Msg,
		},
		Requester: voterFrom(cb.From),
	}

	if err := b.coordinator.Process(ctx, action); err != nil {
		b.reportFailure(ctx, action, err)
	}
}

// reportFailure translates an action error into the user-facing cause.
func (b *Bot) reportFailure(ctx context.Context, action models.TransformAction, err error) {
	var text string
	var transformErr *transform.Error

	switch {
	case errors.Is(err, models.ErrPhotoUnavailable):
		if len(action.PhotoIDs) == 1 {
			text = msgPhotoGoneSingle
		} else {
			text = msgPhotoGoneAlbum
		}
	case errors.Is(err, models.ErrRequestInFlight):
		text = msgInFlight
	case errors.As(err, &transformErr):
		text = fmt.Sprintf(msgTransformError, transformErr.Reason)
	default:
		text = msgGenericError
	}

	_, sendErr := b.tg.SendMessage(ctx, action.Origin.ChatID, text, gateway.SendOptions{
		ReplyTo: action.Origin.MessageID,
	})
	if sendErr != nil {
		log.Error().Err(sendErr).Msg("Failed to report failure to requester")
	}
}

func (b *Bot) runVote(ctx context.Context, cb *tgbotapi.CallbackQuery, payload gateway.VotePayload) {
	_ = b.tg.AnswerCallback(ctx, cb.ID, "")

	option := models.Option(payload.Option)
	if !option.Valid() {
		log.Warn().Str("option", payload.Option).Msg("Invalid vote option")
		return
	}

	action := models.VoteAction{
		Key:    payload.ID,
		Option: option,
		Voter:  voterFrom(cb.From),
	}
	if err := b.votes.HandleVote(ctx, action); err != nil {
		log.Error().Err(err).Str("key", action.Key).Msg("Vote failed")
	}
}

func (b *Bot) handleInlineQuery(ctx context.Context, query *tgbotapi.InlineQuery) {
	action := models.ShareQueryAction{Key: query.Query}
	if err := b.share.HandleQuery(ctx, query.ID, action); err != nil {
		log.Error().Err(err).Str("key", action.Key).Msg("Inline query failed")
	}
}

func (b *Bot) handleChosenResult(ctx context.Context, chosen *tgbotapi.ChosenInlineResult) {
	if chosen.InlineMessageID == "" {
		return
	}
	action := models.ResultSharedAction{
		Key:             chosen.Query,
		InlineMessageID: chosen.InlineMessageID,
		Sharer:          voterFrom(chosen.From),
	}
	if err := b.share.HandleShared(ctx, action); err != nil {
		log.Error().Err(err).Str("key", action.Key).Msg("Failed to register shared result")
	}
}

func (b *Bot) reply(ctx context.Context, msg *tgbotapi.Message, text string) {
	_, err := b.tg.SendMessage(ctx, msg.Chat.ID, text, gateway.SendOptions{ReplyTo: msg.MessageID})
	if err != nil {
		log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("Failed to send reply")
	}
}
