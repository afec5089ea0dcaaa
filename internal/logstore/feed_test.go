package logstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waypoint/internal/assistant"
)

func TestFeedDeliversToAllSubscribers(t *testing.T) {
	f := NewFeed()

	sub1, cancel1 := f.Subscribe()
	defer cancel1()
	sub2, cancel2 := f.Subscribe()
	defer cancel2()

	rec := &assistant.Interaction{ID: "r1"}
	f.Publish(rec)

	for _, sub := range []<-chan *assistant.Interaction{sub1, sub2} {
		select {
		case got := <-sub:
			assert.Same(t, rec, got)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the record")
		}
	}
}

func TestFeedCancelClosesChannelAndIsIdempotent(t *testing.T) {
	f := NewFeed()
	sub, cancel := f.Subscribe()

	cancel()
	cancel() // second cancel must be a no-op

	_, open := <-sub
	assert.False(t, open)

	// Publishing after cancel reaches nobody and must not panic.
	f.Publish(&assistant.Interaction{ID: "r2"})
}

func TestFeedSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	f := NewFeed()
	sub, cancel := f.Subscribe()
	defer cancel()

	// Overfill the buffer; Publish must return promptly every time.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			f.Publish(&assistant.Interaction{ID: "x"})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	// The buffer holds at most its capacity worth of records.
	n := 0
	for {
		select {
		case <-sub:
			n++
			continue
		default:
		}
		break
	}
	require.LessOrEqual(t, n, 32)
	require.Greater(t, n, 0)
}
