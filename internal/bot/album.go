package bot

import (
	"sync"

	"face-morph-bot/internal/models"
)

// albumTracker accumulates the photos of a media group per user, so a burst
// of photo messages from one album turns into a single action menu. A photo
// outside the previous media group starts a fresh batch.
type albumTracker struct {
	mu    sync.Mutex
	state map[int64]*albumState
}

type albumState struct {
	mediaGroup string
	photoIDs   []models.PhotoID
	menuMsgID  int
}

func newAlbumTracker() *albumTracker {
	return &albumTracker{state: make(map[int64]*albumState)}
}

// add records one photo and returns the accumulated batch plus the menu
// message id from the previous photo of the same album (0 when this photo
// starts a new batch).
func (t *albumTracker) add(userID int64, mediaGroup string, photoID models.PhotoID) (photoIDs []models.PhotoID, menuMsgID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.state[userID]
	if prev != nil && mediaGroup != "" && mediaGroup == prev.mediaGroup {
		prev.photoIDs = append(prev.photoIDs, photoID)
		return append([]models.PhotoID(nil), prev.photoIDs...), prev.menuMsgID
	}

	next := &albumState{mediaGroup: mediaGroup, photoIDs: []models.PhotoID{photoID}}
	t.state[userID] = next
	return []models.PhotoID{photoID}, 0
}

// setMenu remembers which message carries the action menu for the user's
// current batch, so album growth edits it in place.
func (t *albumTracker) setMenu(userID int64, msgID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.state[userID]; ok {
		s.menuMsgID = msgID
	}
}
