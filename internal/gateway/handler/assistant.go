package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"waypoint/internal/assistant"
	"waypoint/internal/llm"
)

// maxBodyBytes bounds the raw request body read, independent of the
// character-level size guard inside the pipeline.
const maxBodyBytes = 1 << 20

// errorResponse is the JSON error shape for every non-200 outcome.
type errorResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
	MaxInputChars     int    `json:"maxInputChars,omitempty"`
	Timestamp         int64  `json:"timestamp"`
}

// AssistantHandler exposes the pipeline at POST /assistant.
type AssistantHandler struct {
	pipeline *assistant.Pipeline
}

func NewAssistantHandler(pipeline *assistant.Pipeline) *AssistantHandler {
	return &AssistantHandler{pipeline: pipeline}
}

func (h *AssistantHandler) HandleAssistant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req assistant.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Message: "invalid json body",
		})
		return
	}

	in := assistant.Input{
		Req:       &req,
		Origin:    originOf(r),
		ClientKey: clientKeyOf(r),
	}
	env, err := h.pipeline.Process(r.Context(), in)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("assistant response encode failed: %v", err)
	}
}

// writePipelineError maps the pipeline error taxonomy onto HTTP statuses.
// Internals never reach the client; causes stay in the operational log.
func (h *AssistantHandler) writePipelineError(w http.ResponseWriter, err error) {
	var (
		validation *assistant.ValidationError
		tooLarge   *assistant.PayloadTooLargeError
		origin     *assistant.OriginRejectedError
		limited    *assistant.RateLimitedError
		upstream   *assistant.UpstreamError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid_request",
			Message: validation.Message,
		})
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, errorResponse{
			Error:         "payload_too_large",
			Message:       tooLarge.Error(),
			MaxInputChars: tooLarge.Limit,
		})
	case errors.As(err, &origin):
		writeError(w, http.StatusForbidden, errorResponse{
			Error:   "origin_rejected",
			Message: "requests from this origin are not allowed",
		})
	case errors.As(err, &limited):
		seconds := int(limited.RetryAfter.Round(time.Second) / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		writeError(w, http.StatusTooManyRequests, errorResponse{
			Error:             "rate_limited",
			Message:           "too many requests, slow down",
			RetryAfterSeconds: seconds,
		})
	case errors.As(err, &upstream), errors.Is(err, llm.ErrUpstreamUnavailable):
		log.Printf("upstream failure: %v", err)
		writeError(w, http.StatusServiceUnavailable, errorResponse{
			Error:   "upstream_unavailable",
			Message: "the assistant is temporarily unavailable, please try again shortly",
		})
	default:
		log.Printf("unexpected pipeline error: %v", err)
		writeError(w, http.StatusInternalServerError, errorResponse{
			Error:   "internal",
			Message: "something went wrong",
		})
	}
}

func writeError(w http.ResponseWriter, status int, body errorResponse) {
	body.Timestamp = time.Now().Unix()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// originOf prefers the Origin header and falls back to Referer, matching what
// browsers actually send on cross-site POSTs versus top-level navigations.
func originOf(r *http.Request) string {
	if o := strings.TrimSpace(r.Header.Get("Origin")); o != "" {
		return o
	}
	return strings.TrimSpace(r.Header.Get("Referer"))
}

// clientKeyOf derives the rate-limit key: first forwarded-for hop when
// present, else the connection address without its port.
func clientKeyOf(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// HandleHealth is the liveness probe.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}
