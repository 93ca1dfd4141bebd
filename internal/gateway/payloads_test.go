package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPayloadRoundTrip(t *testing.T) {
	in := CommandPayload{Cmd: "Fusion", Msg: 7, Photos: []int{1, 2}}
	data := EncodePayload(in)

	out, ok := DecodeCommandPayload(data)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestVotePayloadRoundTrip(t *testing.T) {
	in := VotePayload{ID: "1+2#Fusion", Option: "like"}
	data := EncodePayload(in)

	out, ok := DecodeVotePayload(data)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestDecodeRejectsWrongShape(t *testing.T) {
	vote := EncodePayload(VotePayload{ID: "1#Young", Option: "like"})
	_, ok := DecodeCommandPayload(vote)
	assert.False(t, ok, "vote data must not parse as a command")

	command := EncodePayload(CommandPayload{Cmd: "Young", Msg: 1, Photos: []int{1}})
	_, ok = DecodeVotePayload(command)
	assert.False(t, ok, "command data must not parse as a vote")

	_, ok = DecodeCommandPayload("not json")
	assert.False(t, ok)
	_, ok = DecodeVotePayload("{}")
	assert.False(t, ok)
}
