package gateway

import (
	"encoding/json"
	"fmt"
)

// Callback payloads are JSON blobs embedded in button callback data. Two
// shapes exist: a command payload on the photo action menu and a vote
// payload on every poll markup.

// CommandPayload triggers a transform over registered photos.
type CommandPayload struct {
	Cmd    string `json:"cmd"`
	Msg    int    `json:"msg"`
	Photos []int  `json:"photos"`
}

// VotePayload casts a reaction on a result's poll.
type VotePayload struct {
	ID     string `json:"id"`
	Option string `json:"option"`
}

// EncodePayload serializes a callback payload.
func EncodePayload(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Payload types are plain structs; this cannot fail at runtime.
		panic(fmt.Sprintf("encode callback payload: %v", err))
	}
	return string(data)
}

// DecodeCommandPayload parses callback data as a command payload. ok is
// false when the data has a different shape.
func DecodeCommandPayload(data string) (CommandPayload, bool) {
	var p CommandPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return CommandPayload{}, false
	}
	return p, p.Cmd != "" && len(p.Photos) > 0
}

// DecodeVotePayload parses callback data as a vote payload. ok is false when
// the data has a different shape.
func DecodeVotePayload(data string) (VotePayload, bool) {
	var p VotePayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return VotePayload{}, false
	}
	return p, p.ID != "" && p.Option != ""
}
