package models

import (
	"fmt"
	"strconv"
	"strings"
)

// PhotoID is the internal photo identifier. IDs are dense, 1-based and
// assigned in registration order; once assigned they are never reused.
type PhotoID = int

// ResultKey builds the deterministic cache key for a set of input photos and
// a command, e.g. "1+2#Fusion". The ids keep their submission order.
func ResultKey(photoIDs []PhotoID, command string) string {
	parts := make([]string, len(photoIDs))
	for i, id := range photoIDs {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, "+") + "#" + command
}

// ResultRecord describes a computed artifact. Records are immutable once
// stored; repeated requests for the same key are cache hits.
type ResultRecord struct {
	Key         string    `json:"key"`
	ArtifactRef string    `json:"artifact_ref"`
	PhotoIDs    []PhotoID `json:"photo_ids"`
	Command     string    `json:"command"`
}

// Voter identifies a poll participant. Membership in a voter set is decided
// by ID alone; Name is display-only.
type Voter struct {
	ID   int64  `json:"user_id"`
	Name string `json:"user_name"`
}

// Option is one of the fixed poll reactions.
type Option string

const (
	OptionLike        Option = "like"
	OptionDislike     Option = "dislike"
	OptionIndifferent Option = "indifferent"
	OptionScary       Option = "scary"
	OptionFunny       Option = "funny"
	OptionLovely      Option = "lovely"
)

// Options returns the enumerated reaction set in its fixed rendering order.
func Options() []Option {
	return []Option{
		OptionLike,
		OptionDislike,
		OptionIndifferent,
		OptionScary,
		OptionFunny,
		OptionLovely,
	}
}

// Emoji returns the button label for an option.
func (o Option) Emoji() string {
	switch o {
	case OptionLike:
		return "👍"
	case OptionDislike:
		return "👎"
	case OptionIndifferent:
		return "😐"
	case OptionScary:
		return "😱"
	case OptionFunny:
		return "😂"
	case OptionLovely:
		return "😍"
	}
	return "❔"
}

// Valid reports whether o is one of the enumerated options.
func (o Option) Valid() bool {
	for _, opt := range Options() {
		if o == opt {
			return true
		}
	}
	return false
}

// MessageLocation is one message displaying a poll's markup: either a
// (chat, message) pair or an inline message id.
type MessageLocation struct {
	ChatID          int64  `json:"chat_id,omitempty"`
	MessageID       int    `json:"msg_id,omitempty"`
	InlineMessageID string `json:"inline_msg_id,omitempty"`
}

// Inline reports whether the location refers to an inline message.
func (l MessageLocation) Inline() bool {
	return l.InlineMessageID != ""
}

// Equal compares all fields; the poll location set dedups on full equality.
func (l MessageLocation) Equal(other MessageLocation) bool {
	return l == other
}

func (l MessageLocation) String() string {
	if l.Inline() {
		return "inline:" + l.InlineMessageID
	}
	return fmt.Sprintf("%d/%d", l.ChatID, l.MessageID)
}

// Poll is the per-result voting state plus every message rendering it.
type Poll struct {
	Key       string             `json:"key"`
	Options   map[Option][]Voter `json:"options"`
	Locations []MessageLocation  `json:"updates"`
}

// NewPoll creates an empty poll with every enumerated option present.
func NewPoll(key string) *Poll {
	opts := make(map[Option][]Voter, len(Options()))
	for _, o := range Options() {
		opts[o] = []Voter{}
	}
	return &Poll{Key: key, Options: opts}
}

// VoteCount returns the number of voters currently on an option.
func (p *Poll) VoteCount(o Option) int {
	return len(p.Options[o])
}

// TotalVotes returns the voter count across all options.
func (p *Poll) TotalVotes() int {
	total := 0
	for _, voters := range p.Options {
		total += len(voters)
	}
	return total
}
