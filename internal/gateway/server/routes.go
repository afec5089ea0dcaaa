package server

import (
	"net/http"

	"waypoint/internal/assistant"
	"waypoint/internal/gateway/handler"
	"waypoint/internal/gateway/middleware"
)

func NewMux(
	guard *assistant.OriginGuard,
	assistantHandler *handler.AssistantHandler,
	watchHandler *handler.WatchHandler,
	recentHandler *handler.RecentHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/assistant", assistantHandler.HandleAssistant)
	mux.HandleFunc("/assistant/watch", watchHandler.HandleWatch)
	mux.HandleFunc("/assistant/recent", recentHandler.HandleRecent)
	mux.HandleFunc("/healthz", handler.HandleHealth)

	return middleware.CORS(guard, mux)
}
