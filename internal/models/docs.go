package models

import "time"

// Request lifecycle states. A request leaves "pending" exactly once and never
// returns.
const (
	RequestStatePending  = "pending"
	RequestStateApproved = "approved"
	RequestStateRejected = "rejected"
)

// Request kinds (the two parallel submission streams).
const (
	RequestKindFree    = "free"
	RequestKindPremium = "premium"
)

// Queue entry statuses. Presence in the queue already implies "waiting"; the
// field is stored anyway so the state machine is self-describing.
const (
	QueueStatusWaiting = "waiting"
	QueueStatusPlayed  = "played"
)

// TrackRef describes a catalog track. It is a value object: copied on every
// admission, never shared by reference between requests, queue entries,
// history entries, and playlist items.
type TrackRef struct {
	CatalogID     string   `json:"catalogId"`
	Title         string   `json:"title"`
	ArtistNames   []string `json:"artistNames"`
	AlbumTitle    string   `json:"albumTitle"`
	AlbumCoverURL string   `json:"albumCoverUrl,omitempty"`
	DurationMS    int64    `json:"durationMs"`
	PreviewURL    string   `json:"previewUrl,omitempty"`
}

// RequestDoc is a stored song request (free or premium).
type RequestDoc struct {
	ID          string   `json:"id,omitempty"`
	Track       TrackRef `json:"track"`
	Code        string   `json:"code,omitempty"`
	SubmittedAt int64    `json:"submittedAt"`
	State       string   `json:"state"`
}

// QueueEntryDoc is a stored play-queue entry. The track is copied from the
// originating request or playlist item at admission time.
type QueueEntryDoc struct {
	ID          string   `json:"id,omitempty"`
	Track       TrackRef `json:"track"`
	Order       float64  `json:"order"`
	SubmittedAt int64    `json:"submittedAt"`
	SourceType  string   `json:"sourceType"`
	Status      string   `json:"status"`
}

// HistoryEntryDoc is a stored played-track record. Immutable once written.
type HistoryEntryDoc struct {
	ID          string   `json:"id,omitempty"`
	Track       TrackRef `json:"track"`
	Order       float64  `json:"order"`
	SubmittedAt int64    `json:"submittedAt"`
	SourceType  string   `json:"sourceType"`
	Status      string   `json:"status"`
	PlayedAt    int64    `json:"playedAt"`
}

// CodeDoc is a stored premium redemption code. Value is always uppercase.
type CodeDoc struct {
	ID        string `json:"id,omitempty"`
	Value     string `json:"value"`
	CreatedAt int64  `json:"createdAt"`
	UsedAt    *int64 `json:"usedAt,omitempty"`
}

// Used reports whether the code has been consumed.
func (c CodeDoc) Used() bool { return c.UsedAt != nil }

// PlaylistDoc is a stored DJ playlist. Items are unique by catalog id.
type PlaylistDoc struct {
	ID         string     `json:"id,omitempty"`
	Name       string     `json:"name"`
	OwnerID    string     `json:"ownerId"`
	CreatedAt  int64      `json:"createdAt"`
	ModifiedAt int64      `json:"modifiedAt"`
	Items      []TrackRef `json:"items"`
}

// SettingsDoc holds event-level settings (currently the guest access key).
type SettingsDoc struct {
	ID       string `json:"id,omitempty"`
	EventKey string `json:"eventKey"`
}

// Timestamps are stored as Unix milliseconds so document ordering stays
// numeric inside the store.

// NowMillis returns the current time in Unix milliseconds.
func NowMillis() int64 { return time.Now().UnixMilli() }

// TimeFromMillis converts a stored millisecond timestamp back to time.Time.
func TimeFromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
