package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/trackdeck/backend/internal/store"
)

// watchedCollections are the collections whose changes are pushed to SSE
// clients. Settings changes stay server-side.
var watchedCollections = []string{
	store.CollectionRequestsFree,
	store.CollectionRequestsPremium,
	store.CollectionPlayQueue,
	store.CollectionPlayHistory,
	store.CollectionPremiumCodes,
	store.CollectionPlaylists,
}

// SSEHandler serves Server-Sent Events streams for real-time updates.
type SSEHandler struct {
	store *store.Store
}

// NewSSEHandler creates an SSEHandler backed by the given store.
func NewSSEHandler(st *store.Store) *SSEHandler {
	return &SSEHandler{store: st}
}

// Stream opens an SSE connection. It sends an initial "connected" event,
// then pushes "<collection>_changed" each time a watched collection changes.
// A heartbeat comment is sent every 30 seconds to keep the connection alive
// through proxies.
func (h *SSEHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ctx := r.Context()

	// Fan the per-collection change signals into one channel. Forwarders
	// exit on client disconnect.
	changed := make(chan string, len(watchedCollections))
	for _, collection := range watchedCollections {
		ch, stop := h.store.Watch(collection)
		defer stop()
		go func(collection string, ch <-chan struct{}) {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ch:
					select {
					case changed <- collection:
					case <-ctx.Done():
						return
					}
				}
			}
		}(collection, ch)
	}

	// Send initial connected event
	fmt.Fprintf(w, "event: connected\ndata: ok\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case collection := <-changed:
			fmt.Fprintf(w, "event: %s_changed\ndata: refresh\n\n", collection)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}
