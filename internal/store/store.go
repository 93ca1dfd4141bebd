// Package store persists the bot's state as independently-keyed JSON
// documents. Every mutation is a read-whole / modify / write-whole
// transaction under an exclusive per-document lock, so concurrent workers
// serialize on the document they touch.
package store

import "context"

// Document names owned by this bot.
const (
	DocPhotoIndex = "photo_index"
	DocResults    = "results"
	DocPolls      = "polls"
)

// Documents is the transactional document store. Update passes the current
// raw document (nil when absent) to fn and persists whatever fn returns;
// returning nil raw leaves the document untouched.
type Documents interface {
	Update(ctx context.Context, name string, fn func(raw []byte) ([]byte, error)) error
	Load(ctx context.Context, name string, out any) (bool, error)
	Clear(ctx context.Context, names ...string) error
}
