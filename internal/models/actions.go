package models

// Actions are the typed payloads crossing the messaging boundary. The bot
// layer validates raw callback/inline data into one of these before anything
// reaches the coordinator.

// TransformAction asks for a GAN transform over already-registered photos.
type TransformAction struct {
	PhotoIDs  []PhotoID
	Command   string
	Origin    MessageLocation
	Requester Voter
}

// VoteAction casts (or re-casts) a reaction on a published result.
type VoteAction struct {
	Key    string
	Option Option
	Voter  Voter
}

// ShareQueryAction is an inline query for a previously computed result.
type ShareQueryAction struct {
	Key string
}

// ResultSharedAction records that an inline share was placed somewhere, so
// the new inline message joins the poll's markup fan-out.
type ResultSharedAction struct {
	Key             string
	InlineMessageID string
	Sharer          Voter
}
