// Package httpapi exposes the session management REST surface: creating a
// translated call and listing live sessions.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/voxbridge/voxbridge/internal/relay"
	"github.com/voxbridge/voxbridge/internal/session"
	"github.com/voxbridge/voxbridge/internal/telephony"
	"github.com/voxbridge/voxbridge/internal/transcript"
)

// SessionHandler serves the /api/sessions endpoints.
type SessionHandler struct {
	registry    *session.Registry
	dialer      telephony.Dialer
	urls        telephony.URLs
	languages   []string
	transcripts transcript.Store
	logger      *slog.Logger
}

// NewSessionHandler creates the handler. languages is the set of supported
// ISO 639-1 codes; transcripts may be nil to disable the transcript endpoint.
func NewSessionHandler(registry *session.Registry, dialer telephony.Dialer, urls telephony.URLs,
	languages []string, transcripts transcript.Store, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		registry:    registry,
		dialer:      dialer,
		urls:        urls,
		languages:   languages,
		transcripts: transcripts,
		logger:      logger,
	}
}

// Register installs the handler's routes on mux.
func (h *SessionHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.create)
	mux.HandleFunc("GET /api/sessions", h.list)
	mux.HandleFunc("GET /api/sessions/{id}", h.get)
	mux.HandleFunc("GET /api/sessions/{id}/transcript", h.getTranscript)
}

type createRequest struct {
	PhoneNumber   string `json:"phone_number"`
	WebLanguage   string `json:"web_language"`
	PhoneLanguage string `json:"phone_language"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Field      string `json:"field,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// create validates the request, allocates a session, and dials the phone leg.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	sum, err := h.registry.Create(req.PhoneNumber,
		session.LanguagePair{Web: req.WebLanguage, Phone: req.PhoneLanguage},
		h.languages)
	if err != nil {
		var verr *session.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:      verr.Error(),
				Field:      verr.Field,
				Suggestion: verr.Suggestion,
			})
			return
		}
		h.logger.Error("session create failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	callSID, err := h.dialer.Dial(r.Context(), sum.PhoneNumber,
		h.urls.Answer(sum.ID, relay.ParticipantPhone),
		h.urls.CallStatus(sum.ID))
	if err != nil {
		h.logger.Error("phone leg dial failed", "session_id", sum.ID, "error", err)
		h.registry.Remove(sum.ID)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "could not place call"})
		return
	}
	if err := h.registry.MarkDialing(sum.ID, callSID); err != nil {
		h.logger.Error("mark dialing failed", "session_id", sum.ID, "error", err)
	}

	sum, err = h.registry.Get(sum.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, sum)
}

// list returns all live sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.List())
}

// get returns one session.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	sum, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
			return
		}
		h.logger.Error("session lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// getTranscript returns the session's recorded transcript, oldest first.
// Transcript entries outlive the session, so this also serves recently
// finished calls.
func (h *SessionHandler) getTranscript(w http.ResponseWriter, r *http.Request) {
	if h.transcripts == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "transcripts disabled"})
		return
	}
	entries, err := h.transcripts.BySession(r.Context(), r.PathValue("id"))
	if err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Error("transcript lookup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failure"}`, http.StatusInternalServerError)
	}
}
