// Package gateway abstracts the chat transport. The core only talks to the
// Gateway interface; the Telegram adapter lives alongside it.
package gateway

import (
	"context"

	"face-morph-bot/internal/models"
)

// Button is one interactive control in a markup row. Exactly one of
// CallbackData and SwitchInlineQuery is set.
type Button struct {
	Text              string
	CallbackData      string
	SwitchInlineQuery string
}

// Markup is a platform-neutral inline keyboard.
type Markup struct {
	Rows [][]Button
}

// Photo is an outgoing photo, either by platform ref or by raw bytes.
type Photo struct {
	Ref  string
	Data []byte
	Name string
}

// SendOptions carries the optional parts of a photo or text send.
type SendOptions struct {
	Caption string
	ReplyTo int
	Markup  *Markup
}

// Delivery is the outcome of a publish: where the message landed and the
// platform artifact ref minted for the uploaded photo.
type Delivery struct {
	Location    models.MessageLocation
	ArtifactRef string
}

// InlineResult is one answer to an inline share query.
type InlineResult struct {
	ID          string
	ArtifactRef string
	Caption     string
	Markup      Markup
}

// Gateway is the consumed messaging transport.
type Gateway interface {
	// SendPhoto publishes a photo to a chat.
	SendPhoto(ctx context.Context, chatID int64, photo Photo, opts SendOptions) (Delivery, error)

	// SendAlbum publishes a media group of already-uploaded photos and
	// returns the location of its first message.
	SendAlbum(ctx context.Context, chatID int64, refs []string, caption string) (models.MessageLocation, error)

	// SendMessage publishes plain text.
	SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) (models.MessageLocation, error)

	// EditMessage rewrites an existing message's text and markup.
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, markup *Markup) error

	// EditMarkup replaces the markup at a message location. It returns
	// models.ErrMessageGone when the message no longer exists.
	EditMarkup(ctx context.Context, loc models.MessageLocation, markup Markup) error

	// FetchPhoto downloads a photo by its external id.
	FetchPhoto(ctx context.Context, externalID string) ([]byte, error)

	// AnswerInlineQuery responds to an inline share query.
	AnswerInlineQuery(ctx context.Context, queryID string, results []InlineResult) error

	// AnswerCallback acknowledges a callback interaction.
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
