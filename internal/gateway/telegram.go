package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"face-morph-bot/internal/models"
)

// Telegram implements Gateway over the Bot API. Outbound calls are bounded
// by the HTTP client timeout; contexts are checked before each call because
// the underlying library is not context-aware.
type Telegram struct {
	api  *tgbotapi.BotAPI
	http *http.Client
}

// NewTelegram authorizes against the Bot API.
func NewTelegram(token string, timeout time.Duration) (*Telegram, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	client := &http.Client{Timeout: timeout}
	api.Client = client
	return &Telegram{api: api, http: client}, nil
}

// Updates opens the long-polling update channel.
func (t *Telegram) Updates(timeoutSeconds int) tgbotapi.UpdatesChannel {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = timeoutSeconds
	return t.api.GetUpdatesChan(cfg)
}

// StopPolling shuts the update channel down.
func (t *Telegram) StopPolling() {
	t.api.StopReceivingUpdates()
}

// Username returns the bot's own username.
func (t *Telegram) Username() string {
	return t.api.Self.UserName
}

// SendPhoto publishes a photo to a chat.
func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, photo Photo, opts SendOptions) (Delivery, error) {
	if err := ctx.Err(); err != nil {
		return Delivery{}, err
	}

	var file tgbotapi.RequestFileData
	if photo.Ref != "" {
		file = tgbotapi.FileID(photo.Ref)
	} else {
		file = tgbotapi.FileBytes{Name: photo.Name, Bytes: photo.Data}
	}

	cfg := tgbotapi.NewPhoto(chatID, file)
	cfg.Caption = opts.Caption
	cfg.ReplyToMessageID = opts.ReplyTo
	if opts.Markup != nil {
		cfg.ReplyMarkup = toKeyboard(*opts.Markup)
	}

	msg, err := t.api.Send(cfg)
	if err != nil {
		return Delivery{}, fmt.Errorf("send photo: %w", err)
	}

	delivery := Delivery{
		Location: models.MessageLocation{ChatID: msg.Chat.ID, MessageID: msg.MessageID},
	}
	if len(msg.Photo) > 0 {
		// Largest size last, as the platform orders them.
		delivery.ArtifactRef = msg.Photo[len(msg.Photo)-1].FileID
	}
	return delivery, nil
}

// SendAlbum publishes a media group of already-uploaded photos. The caption
// goes on the last item, where clients display it for the whole group.
func (t *Telegram) SendAlbum(ctx context.Context, chatID int64, refs []string, caption string) (models.MessageLocation, error) {
	if err := ctx.Err(); err != nil {
		return models.MessageLocation{}, err
	}

	media := make([]interface{}, len(refs))
	for i, ref := range refs {
		item := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(ref))
		if i == len(refs)-1 {
			item.Caption = caption
			item.ParseMode = tgbotapi.ModeMarkdown
		}
		media[i] = item
	}

	msgs, err := t.api.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media))
	if err != nil {
		return models.MessageLocation{}, fmt.Errorf("send album: %w", err)
	}
	if len(msgs) == 0 {
		return models.MessageLocation{}, errors.New("send album: empty response")
	}
	return models.MessageLocation{ChatID: msgs[0].Chat.ID, MessageID: msgs[0].MessageID}, nil
}

// SendMessage publishes plain text.
func (t *Telegram) SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (models.MessageLocation, error) {
	if err := ctx.Err(); err != nil {
		return models.MessageLocation{}, err
	}

	cfg := tgbotapi.NewMessage(chatID, text)
	cfg.ReplyToMessageID = opts.ReplyTo
	cfg.ParseMode = tgbotapi.ModeMarkdown
	if opts.Markup != nil {
		cfg.ReplyMarkup = toKeyboard(*opts.Markup)
	}

	msg, err := t.api.Send(cfg)
	if err != nil {
		return models.MessageLocation{}, fmt.Errorf("send message: %w", err)
	}
	return models.MessageLocation{ChatID: msg.Chat.ID, MessageID: msg.MessageID}, nil
}

// EditMessage rewrites an existing message's text and markup.
func (t *Telegram) EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *Markup) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if markup != nil {
		kb := toKeyboard(*markup)
		cfg.ReplyMarkup = &kb
	}
	if _, err := t.api.Send(cfg); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}

// EditMarkup replaces the markup at a message location.
func (t *Telegram) EditMarkup(ctx context.Context, loc models.MessageLocation, markup Markup) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kb := toKeyboard(markup)
	cfg := tgbotapi.EditMessageReplyMarkupConfig{
		BaseEdit: tgbotapi.BaseEdit{ReplyMarkup: &kb},
	}
	if loc.Inline() {
		cfg.InlineMessageID = loc.InlineMessageID
	} else {
		cfg.ChatID = loc.ChatID
		cfg.MessageID = loc.MessageID
	}

	if _, err := t.api.Request(cfg); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
			// Deleted message or one the bot can no longer reach.
			return models.ErrMessageGone
		}
		return fmt.Errorf("edit markup at %s: %w", loc, err)
	}
	return nil
}

// FetchPhoto downloads a photo by its platform file id.
func (t *Telegram) FetchPhoto(ctx context.Context, externalID string) ([]byte, error) {
	url, err := t.api.GetFileDirectURL(externalID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", externalID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch file %s: %w", externalID, err)
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch file %s: %w", externalID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch file %s: status %d", externalID, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch file %s: %w", externalID, err)
	}
	return data, nil
}

// AnswerInlineQuery responds to an inline share query with cached photos.
func (t *Telegram) AnswerInlineQuery(ctx context.Context, queryID string, results []InlineResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	answers := make([]interface{}, len(results))
	for i, res := range results {
		photo := tgbotapi.NewInlineQueryResultCachedPhoto(res.ID, res.ArtifactRef)
		photo.Caption = res.Caption
		kb := toKeyboard(res.Markup)
		photo.ReplyMarkup = &kb
		answers[i] = photo
	}

	_, err := t.api.Request(tgbotapi.InlineConfig{
		InlineQueryID: queryID,
		Results:       answers,
		CacheTime:     0,
	})
	if err != nil {
		return fmt.Errorf("answer inline query: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a callback interaction.
func (t *Telegram) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func toKeyboard(m Markup) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, len(m.Rows))
	for i, row := range m.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, len(row))
		for j, b := range row {
			switch {
			case b.SwitchInlineQuery != "":
				buttons[j] = tgbotapi.NewInlineKeyboardButtonSwitch(b.Text, b.SwitchInlineQuery)
			default:
				buttons[j] = tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData)
			}
		}
		rows[i] = buttons
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
