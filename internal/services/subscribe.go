package services

import (
	"context"
	"log/slog"

	"github.com/trackdeck/backend/internal/store"
)

// subscribeSnapshots delivers full ordered snapshots of a collection: one
// immediately, then one after every change signal. Each delivery is
// authoritative (never a diff), so re-applying one is idempotent. The channel
// is buffered(1) and stale snapshots are dropped in favor of newer ones. The
// subscription ends when ctx is cancelled; the returned channel is closed.
func subscribeSnapshots[T any](ctx context.Context, st *store.Store, collection, orderField string, desc bool) <-chan []T {
	out := make(chan []T, 1)
	signals, stop := st.Watch(collection)

	deliver := func() {
		var snapshot []T
		if err := st.List(ctx, collection, orderField, desc, &snapshot); err != nil {
			if ctx.Err() == nil {
				slog.Error("snapshot read failed",
					slog.String("collection", collection),
					slog.Any("error", err))
			}
			return
		}
		// Keep only the latest snapshot if the consumer is behind.
		select {
		case out <- snapshot:
		default:
			select {
			case <-out:
			default:
			}
			out <- snapshot
		}
	}

	go func() {
		defer stop()
		defer close(out)

		deliver()
		for {
			select {
			case <-ctx.Done():
				return
			case <-signals:
				deliver()
			}
		}
	}()

	return out
}
