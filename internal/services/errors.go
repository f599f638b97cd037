// Package services contains the core business logic for TrackDeck: the
// request ledger, play queue, premium code registry, play history, and
// playlist library, plus auth and the external catalog clients.
package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the core services. Handlers classify them with
// errors.Is; none of them cross the HTTP boundary as panics.
var (
	// ErrInvalidCode means a premium code is unknown or already used.
	ErrInvalidCode = errors.New("invalid or used premium code")
	// ErrDuplicateCode means the code value already exists (case-insensitive).
	ErrDuplicateCode = errors.New("code already exists")
	// ErrDuplicateTrack means the playlist already contains the track.
	ErrDuplicateTrack = errors.New("track already in playlist")
	// ErrEmptyPlaylist means a playlist has no items to load.
	ErrEmptyPlaylist = errors.New("playlist is empty")
	// ErrValidation covers malformed input (code length, playlist name).
	ErrValidation = errors.New("validation failed")
)

// PartialPlayError reports that a queue entry was appended to history but its
// removal from the queue failed. The caller can retry removal with the entry
// id without appending history a second time.
type PartialPlayError struct {
	HistoryID string
	EntryID   string
	Err       error
}

func (e *PartialPlayError) Error() string {
	return fmt.Sprintf("entry %s appended to history as %s but not removed from queue: %v",
		e.EntryID, e.HistoryID, e.Err)
}

func (e *PartialPlayError) Unwrap() error { return e.Err }
