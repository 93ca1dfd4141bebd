package models

import "errors"

var (
	// ErrPhotoUnavailable means at least one input photo could not be
	// resolved locally nor re-fetched from the platform.
	ErrPhotoUnavailable = errors.New("photos unavailable")

	// ErrPhotoNotFound is returned by reverse lookups for internal ids that
	// have no external mapping (e.g. the registry was reset).
	ErrPhotoNotFound = errors.New("photo not found")

	// ErrResultNotFound is a result-cache miss.
	ErrResultNotFound = errors.New("result not found")

	// ErrPollNotFound is returned when snapshotting a key with no poll.
	ErrPollNotFound = errors.New("poll not found")

	// ErrMessageGone marks a markup edit against a message that no longer
	// exists; the sync engine swallows it per location.
	ErrMessageGone = errors.New("message gone")

	// ErrRequestInFlight rejects a transform request whose exact key is
	// already being computed.
	ErrRequestInFlight = errors.New("an identical request is already being processed")
)
