package telephony

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/voxbridge/voxbridge/internal/relay"
	"github.com/voxbridge/voxbridge/internal/session"
)

// URLs derives the callback and stream endpoints handed to the provider from
// the publicly reachable base URL of this service.
type URLs struct {
	// Public is the externally reachable base URL, e.g.
	// "https://relay.example.com". No trailing slash.
	Public string
}

func (u URLs) build(path, sessionID string, participant relay.ParticipantType) string {
	q := url.Values{"session": {sessionID}}
	if participant != "" {
		q.Set("participant", string(participant))
	}
	return strings.TrimSuffix(u.Public, "/") + path + "?" + q.Encode()
}

// Answer is the TwiML endpoint requested when a leg connects.
func (u URLs) Answer(sessionID string, participant relay.ParticipantType) string {
	return u.build("/telephony/answer", sessionID, participant)
}

// CallStatus receives call progress notifications for the phone leg.
func (u URLs) CallStatus(sessionID string) string {
	return u.build("/telephony/call-status", sessionID, "")
}

// ConferenceStatus receives conference lifecycle notifications for one leg.
func (u URLs) ConferenceStatus(sessionID string, participant relay.ParticipantType) string {
	return u.build("/telephony/conference-status", sessionID, participant)
}

// MediaStream is the WebSocket endpoint carrying one leg's audio.
func (u URLs) MediaStream(sessionID string, participant relay.ParticipantType) string {
	base := strings.TrimSuffix(u.Public, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	q := url.Values{"session": {sessionID}, "participant": {string(participant)}}
	return base + "/telephony/media?" + q.Encode()
}

// Webhooks handles provider callbacks: the TwiML answer request and the call
// and conference status notifications. Status notifications are acknowledged
// unconditionally; bad payloads are logged and dropped, never bounced back to
// the provider.
type Webhooks struct {
	registry *session.Registry
	urls     URLs
	logger   *slog.Logger
}

// NewWebhooks creates the webhook handler set.
func NewWebhooks(registry *session.Registry, urls URLs, logger *slog.Logger) *Webhooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webhooks{registry: registry, urls: urls, logger: logger}
}

// Answer serves the TwiML for a connecting leg. A leg that cannot be matched
// to a live session hears an apology and is hung up.
func (h *Webhooks) Answer(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	participant := relay.ParticipantType(r.URL.Query().Get("participant"))

	var resp Response
	sum, err := h.registry.Get(sessionID)
	switch {
	case err != nil || !participant.IsValid():
		if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
			h.logger.Error("session lookup failed", "session_id", sessionID, "error", err)
		} else {
			h.logger.Warn("answer request for unknown session",
				"session_id", sessionID, "participant", string(participant))
		}
		resp = Apology()
	default:
		resp = JoinConference(
			sum.ConferenceName,
			h.urls.MediaStream(sessionID, participant),
			h.urls.ConferenceStatus(sessionID, participant),
		)
	}

	body, err := resp.Marshal()
	if err != nil {
		h.logger.Error("twiml marshal failed", "session_id", sessionID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.Write(body)
}

// CallStatus consumes a call progress notification. Always responds 204.
func (h *Webhooks) CallStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("unparseable call status form", "error", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.registry.HandleCallStatus(session.CallStatusEvent{
		SessionID: r.URL.Query().Get("session"),
		CallSID:   r.PostForm.Get("CallSid"),
		Status:    session.CallStatus(r.PostForm.Get("CallStatus")),
	})
	w.WriteHeader(http.StatusNoContent)
}

// ConferenceStatus consumes a conference lifecycle notification. Always
// responds 204.
func (h *Webhooks) ConferenceStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("unparseable conference status form", "error", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.registry.HandleConferenceStatus(session.ConferenceStatusEvent{
		SessionID:   r.URL.Query().Get("session"),
		Event:       session.ConferenceEvent(r.PostForm.Get("StatusCallbackEvent")),
		CallSID:     r.PostForm.Get("CallSid"),
		Participant: relay.ParticipantType(r.URL.Query().Get("participant")),
		Address:     r.PostForm.Get("From"),
	})
	w.WriteHeader(http.StatusNoContent)
}
