package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"waypoint/internal/assistant"
	"waypoint/internal/logstore"
)

const (
	watchWSWriteWait = 10 * time.Second
	watchWSPongWait  = 60 * time.Second
	watchWSPingEvery = (watchWSPongWait * 9) / 10
)

var watchWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// WatchHandler streams freshly-logged interactions to operators over a
// websocket. It is a live tail, not an analytics surface: no history, no
// aggregation, just each record as it lands.
type WatchHandler struct {
	feed *logstore.Feed
}

func NewWatchHandler(feed *logstore.Feed) *WatchHandler {
	return &WatchHandler{feed: feed}
}

func (h *WatchHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := watchWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(watchWSPongWait)); err != nil {
		log.Printf("watch ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchWSPongWait))
	})

	// Reader goroutine only services control frames and detects disconnects.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sub, cancel := h.feed.Subscribe()
	defer cancel()

	ticker := time.NewTicker(watchWSPingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-readerDone:
			return
		case rec, ok := <-sub:
			if !ok {
				return
			}
			if err := writeWatchRecord(conn, rec); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeWatchRecord(conn *websocket.Conn, rec *assistant.Interaction) error {
	if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(rec)
}
