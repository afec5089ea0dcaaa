package logstore

import (
	"context"
	"log"
	"time"

	"waypoint/internal/assistant"
)

const recordTimeout = 5 * time.Second

// Logger implements assistant.InteractionLogger over a store, an optional
// transcript archive, and the live feed. Record never returns an error: any
// failure goes to the operational log and the response already prepared by
// the pipeline is left untouched.
type Logger struct {
	store   Store
	archive *Archive
	feed    *Feed
}

func NewLogger(store Store, archive *Archive, feed *Feed) *Logger {
	return &Logger{store: store, archive: archive, feed: feed}
}

// Record persists and publishes one interaction. The write uses a detached
// context so a caller that has already been answered (or canceled) cannot
// abort the audit trail mid-write.
func (l *Logger) Record(ctx context.Context, rec *assistant.Interaction) {
	if rec == nil {
		return
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if l.store != nil {
		if err := l.store.Insert(wctx, rec); err != nil {
			log.Printf("interaction log insert failed (id=%s): %v", rec.ID, err)
		}
	}
	if l.archive != nil {
		if err := l.archive.Put(wctx, rec); err != nil {
			log.Printf("interaction archive put failed (id=%s): %v", rec.ID, err)
		}
	}
	if l.feed != nil {
		l.feed.Publish(rec)
	}
}
