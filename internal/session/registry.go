package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxbridge/voxbridge/internal/observe"
	"github.com/voxbridge/voxbridge/internal/relay"
)

// ErrSessionNotFound is returned by registry lookups for unknown session ids.
var ErrSessionNotFound = errors.New("session: not found")

// DefaultRemoveDelay is how long a finished session stays queryable before
// the registry removes it.
const DefaultRemoveDelay = 60 * time.Second

// Registry owns every live Session and drives their state machines from
// telephony events. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	timers   map[string]*time.Timer

	removeDelay time.Duration
	logger      *slog.Logger
	metrics     *observe.Metrics
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithRemoveDelay overrides the delay between a session finishing and its
// removal from the registry.
func WithRemoveDelay(d time.Duration) RegistryOption {
	return func(r *Registry) { r.removeDelay = d }
}

// WithLogger sets the logger used for state transitions.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// WithMetrics sets the metrics instance used for session gauges.
func WithMetrics(m *observe.Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions:    make(map[string]*Session),
		timers:      make(map[string]*time.Timer),
		removeDelay: DefaultRemoveDelay,
		logger:      slog.Default(),
		metrics:     observe.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create validates the request, allocates a new session in StatusCreated and
// returns its summary. The phone leg is not dialed here; callers dial after
// creation and record the outcome with [Registry.MarkDialing].
func (r *Registry) Create(phoneNumber string, langs LanguagePair, supported []string) (Summary, error) {
	if err := ValidatePhoneNumber(phoneNumber); err != nil {
		return Summary{}, err
	}
	if err := ValidateLanguage("web_language", langs.Web, supported); err != nil {
		return Summary{}, err
	}
	if err := ValidateLanguage("phone_language", langs.Phone, supported); err != nil {
		return Summary{}, err
	}

	id := uuid.NewString()
	s := &Session{
		ID:             id,
		ConferenceName: "voxbridge-" + id,
		PhoneNumber:    phoneNumber,
		Languages:      langs,
		Status:         StatusCreated,
		CreatedAt:      time.Now().UTC(),
		participants:   make(map[relay.ParticipantType]*Participant),
		assemblers: map[relay.ParticipantType]*relay.FrameAssembler{
			relay.ParticipantWeb:   relay.NewFrameAssembler(),
			relay.ParticipantPhone: relay.NewFrameAssembler(),
		},
	}

	r.mu.Lock()
	r.sessions[id] = s
	out := s.summary()
	r.mu.Unlock()

	r.metrics.ActiveSessions.Add(context.Background(), 1)
	r.logger.Info("session created",
		"session_id", id,
		"phone_number", phoneNumber,
		"web_language", langs.Web,
		"phone_language", langs.Phone)
	return out, nil
}

// MarkDialing records that the outbound call to the phone leg was placed.
func (r *Registry) MarkDialing(sessionID, callSID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session: mark dialing %q: %w", sessionID, ErrSessionNotFound)
	}
	s.LastCallStatus = string(CallInitiated)
	r.transition(s, StatusPhoneCalling, "call placed", "call_sid", callSID)
	return nil
}

// HandleCallStatus applies a call progress notification. Unknown sessions
// and unrecognised statuses are logged and otherwise ignored so that webhook
// handlers can always acknowledge the provider.
func (r *Registry) HandleCallStatus(ev CallStatusEvent) {
	if !ev.Status.IsValid() {
		r.logger.Warn("ignoring unrecognised call status",
			"session_id", ev.SessionID, "call_status", string(ev.Status))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[ev.SessionID]
	if !ok {
		r.logger.Warn("call status for unknown session",
			"session_id", ev.SessionID, "call_status", string(ev.Status))
		return
	}
	s.LastCallStatus = string(ev.Status)

	switch {
	case ev.Status.answered():
		if s.Status == StatusPhoneCalling || s.Status == StatusCreated {
			r.transition(s, StatusPhoneAnswered, "phone answered", "call_sid", ev.CallSID)
		}
	case ev.Status.terminal():
		if s.Status.preConference() {
			r.transition(s, StatusCallEnded, "call ended before conference",
				"call_status", string(ev.Status))
			r.scheduleRemovalLocked(s.ID)
		}
		// Post-conference call completion is expected during teardown and
		// carries no transition; the conference-end event already handled it.
	}
}

// HandleConferenceStatus applies a conference status notification.
func (r *Registry) HandleConferenceStatus(ev ConferenceStatusEvent) {
	if !ev.Event.IsValid() {
		r.logger.Warn("ignoring unrecognised conference event",
			"session_id", ev.SessionID, "event", string(ev.Event))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[ev.SessionID]
	if !ok {
		r.logger.Warn("conference status for unknown session",
			"session_id", ev.SessionID, "event", string(ev.Event))
		return
	}

	switch ev.Event {
	case ConferenceStart:
		r.transition(s, StatusConferenceActive, "conference started")

	case ConferenceEnd:
		r.transition(s, StatusConferenceEnded, "conference ended")
		r.scheduleRemovalLocked(s.ID)

	case ConferenceParticipantJoin:
		if !ev.Participant.IsValid() {
			r.logger.Warn("participant join with unknown type",
				"session_id", ev.SessionID, "participant", string(ev.Participant))
			return
		}
		now := time.Now().UTC()
		s.participants[ev.Participant] = &Participant{
			Type:     ev.Participant,
			CallSID:  ev.CallSID,
			Address:  ev.Address,
			JoinedAt: now,
		}
		// Joins before the conference-start event still advance the session;
		// conference_active only arrives via ConferenceStart.
		if s.Status != StatusConferenceActive {
			switch ev.Participant {
			case relay.ParticipantPhone:
				r.transition(s, StatusPhoneInConference, "participant joined",
					"participant", string(ev.Participant))
			case relay.ParticipantWeb:
				r.transition(s, StatusWebJoined, "participant joined",
					"participant", string(ev.Participant))
			}
		} else {
			r.logger.Info("participant joined",
				"session_id", s.ID, "participant", string(ev.Participant))
		}

	case ConferenceParticipantLeave:
		p, ok := s.participants[ev.Participant]
		if !ok {
			r.logger.Warn("participant leave without matching join",
				"session_id", ev.SessionID, "participant", string(ev.Participant))
			return
		}
		now := time.Now().UTC()
		p.LeftAt = &now
		r.logger.Info("participant left",
			"session_id", s.ID, "participant", string(ev.Participant))
	}
}

// transition moves s to next and logs the change. Caller must hold r.mu.
func (r *Registry) transition(s *Session, next Status, msg string, args ...any) {
	prev := s.Status
	s.Status = next
	all := append([]any{
		"session_id", s.ID,
		"from", string(prev),
		"to", string(next),
	}, args...)
	r.logger.Info(msg, all...)
}

// scheduleRemovalLocked arms (or re-arms) the delayed removal timer for the
// session. Caller must hold r.mu.
func (r *Registry) scheduleRemovalLocked(id string) {
	if t, ok := r.timers[id]; ok {
		t.Stop()
	}
	r.timers[id] = time.AfterFunc(r.removeDelay, func() {
		r.Remove(id)
	})
}

// Get returns a copy of the session's state.
func (r *Registry) Get(id string) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Summary{}, fmt.Errorf("session: get %q: %w", id, ErrSessionNotFound)
	}
	return s.summary(), nil
}

// List returns copies of all sessions, in unspecified order.
func (r *Registry) List() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Summary, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.summary())
	}
	return out
}

// Languages returns the language pair of the session. It implements the
// language lookup the translation pipeline needs per frame.
func (r *Registry) Languages(id string) (LanguagePair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return LanguagePair{}, fmt.Errorf("session: languages %q: %w", id, ErrSessionNotFound)
	}
	return s.Languages, nil
}

// Assembler returns the per-leg frame assembler for the session, or an error
// for unknown sessions. Assemblers live as long as their session, so media
// handlers may hold the pointer across reads.
func (r *Registry) Assembler(id string, p relay.ParticipantType) (*relay.FrameAssembler, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session: assembler %q: %w", id, ErrSessionNotFound)
	}
	a, ok := s.assemblers[p]
	if !ok {
		return nil, fmt.Errorf("session: assembler %q: unknown participant %q", id, p)
	}
	return a, nil
}

// Remove deletes the session immediately, cancelling any pending removal
// timer. Removing an absent session is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	if t, ok := r.timers[id]; ok {
		t.Stop()
		delete(r.timers, id)
	}
	_, existed := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if existed {
		r.metrics.ActiveSessions.Add(context.Background(), -1)
		r.logger.Info("session removed", "session_id", id)
	}
}

// Close cancels all pending removal timers and drops every session. Used
// during shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	var removed int64
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
	removed = int64(len(r.sessions))
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	if removed > 0 {
		r.metrics.ActiveSessions.Add(context.Background(), -removed)
	}
}
