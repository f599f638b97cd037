package models

import "time"

// DJ portal login and guest event join
type DJLoginRequest struct {
	PasswordHash string `json:"passwordHash"`
}

type JoinEventRequest struct {
	EventKey string `json:"eventKey"`
}

type TokenResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Song requests
type SubmitRequestRequest struct {
	Track TrackRef `json:"track"`
	Code  string   `json:"code,omitempty"`
}

type RequestResponse struct {
	ID          string    `json:"id"`
	Track       TrackRef  `json:"track"`
	SubmittedAt time.Time `json:"submittedAt"`
	State       string    `json:"state"`
}

type TransitionResponse struct {
	ID           string `json:"id"`
	State        string `json:"state"`
	Transitioned bool   `json:"transitioned"`
	QueueEntryID string `json:"queueEntryId,omitempty"`
}

// Play queue
type QueueEntryResponse struct {
	ID          string    `json:"id"`
	Track       TrackRef  `json:"track"`
	Order       float64   `json:"order"`
	SubmittedAt time.Time `json:"submittedAt"`
	SourceType  string    `json:"sourceType"`
	Status      string    `json:"status"`
}

type ReorderRequest struct {
	EntryID  string `json:"entryId"`
	NewIndex int    `json:"newIndex"`
}

type MarkPlayedResponse struct {
	HistoryID string `json:"historyId"`
	Removed   bool   `json:"removed"`
}

// Play history
type HistoryEntryResponse struct {
	ID          string    `json:"id"`
	Track       TrackRef  `json:"track"`
	SourceType  string    `json:"sourceType"`
	SubmittedAt time.Time `json:"submittedAt"`
	PlayedAt    time.Time `json:"playedAt"`
}

// Premium codes
type CreateCodeRequest struct {
	Code string `json:"code"`
}

type CreateCodeBatchRequest struct {
	Count int `json:"count,omitempty"`
}

type CodeResponse struct {
	ID        string     `json:"id"`
	Value     string     `json:"value"`
	Used      bool       `json:"used"`
	CreatedAt time.Time  `json:"createdAt"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
}

type CreateCodeBatchResponse struct {
	Created   []CodeResponse `json:"created"`
	Requested int            `json:"requested"`
}

// Playlists
type CreatePlaylistRequest struct {
	Name string `json:"name"`
}

type RenamePlaylistRequest struct {
	Name string `json:"name"`
}

type AddPlaylistTrackRequest struct {
	Track TrackRef `json:"track"`
}

type PlaylistResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	OwnerID    string     `json:"ownerId"`
	CreatedAt  time.Time  `json:"createdAt"`
	ModifiedAt time.Time  `json:"modifiedAt"`
	Items      []TrackRef `json:"items"`
}

type LoadPlaylistResponse struct {
	Admitted int `json:"admitted"`
}

// Catalog search
type SearchResponse struct {
	Tracks []TrackRef `json:"tracks"`
}

type PreviewResponse struct {
	PreviewURL string `json:"previewUrl,omitempty"`
}

// Event reset
type ResetEventResponse struct {
	Cleared []string `json:"cleared"`
	Failed  []string `json:"failed,omitempty"`
}

// Error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
