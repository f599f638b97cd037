package broker

import (
	"sync"
	"testing"
	"time"
)

func TestSubscribeAndPublish(t *testing.T) {
	b := New()
	ch := b.Subscribe("play_queue")
	defer b.Unsubscribe("play_queue", ch)

	b.Publish("play_queue")

	select {
	case <-ch:
		// success
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected signal on channel")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	ch := b.Subscribe("play_queue")
	b.Unsubscribe("play_queue", ch)

	b.Publish("play_queue")

	select {
	case <-ch:
		t.Fatal("should not receive after unsubscribe")
	case <-time.After(50 * time.Millisecond):
		// success
	}
}

func TestCrossCollectionIsolation(t *testing.T) {
	b := New()
	ch1 := b.Subscribe("play_queue")
	ch2 := b.Subscribe("play_history")
	defer b.Unsubscribe("play_queue", ch1)
	defer b.Unsubscribe("play_history", ch2)

	b.Publish("play_queue")

	select {
	case <-ch1:
		// expected
	case <-time.After(100 * time.Millisecond):
		t.Fatal("play_queue subscriber should have received signal")
	}

	select {
	case <-ch2:
		t.Fatal("play_history subscriber should not receive signal from play_queue publish")
	case <-time.After(50 * time.Millisecond):
		// expected
	}
}

func TestNonBlockingCoalescing(t *testing.T) {
	b := New()
	ch := b.Subscribe("premium_codes")
	defer b.Unsubscribe("premium_codes", ch)

	// Publish multiple times without reading — should not block
	for i := 0; i < 10; i++ {
		b.Publish("premium_codes")
	}

	// Should receive exactly one signal (coalesced)
	select {
	case <-ch:
		// got the coalesced signal
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected at least one signal")
	}

	// Channel should now be empty
	select {
	case <-ch:
		t.Fatal("expected channel to be drained after one read")
	case <-time.After(50 * time.Millisecond):
		// success
	}
}

func TestMultipleSubscribers(t *testing.T) {
	b := New()
	ch1 := b.Subscribe("requests_free")
	ch2 := b.Subscribe("requests_free")
	defer b.Unsubscribe("requests_free", ch1)
	defer b.Unsubscribe("requests_free", ch2)

	b.Publish("requests_free")

	for i, ch := range []chan struct{}{ch1, ch2} {
		select {
		case <-ch:
			// expected
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("subscriber %d should have received signal", i)
		}
	}
}

func TestUnsubscribeCleansUpEmptyCollection(t *testing.T) {
	b := New()
	ch := b.Subscribe("requests_free")
	b.Unsubscribe("requests_free", ch)

	b.mu.Lock()
	_, exists := b.subs["requests_free"]
	b.mu.Unlock()

	if exists {
		t.Fatal("expected collection entry to be removed after last unsubscribe")
	}
}

func TestPublishToNonexistentCollection(t *testing.T) {
	b := New()
	// Should not panic
	b.Publish("nonexistent")
}

func TestConcurrentAccess(t *testing.T) {
	b := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := b.Subscribe("play_queue")
			b.Publish("play_queue")
			<-ch
			b.Unsubscribe("play_queue", ch)
		}()
	}

	wg.Wait()
}
