// Package session owns the per-call state machines of the relay: session
// creation, participant bookkeeping, call/conference status transitions, and
// delayed teardown after a conference ends.
//
// All session state is owned by the [Registry]; nothing outside this package
// mutates a Session directly. Collaborators receive copies ([Summary]) or
// narrow lookups ([Registry.Languages], [Registry.Assembler]).
package session

import (
	"time"

	"github.com/voxbridge/voxbridge/internal/relay"
)

// Status is the lifecycle state of a session. The closed set of values below
// is the full state machine; unknown strings never enter a Session.
type Status string

const (
	// StatusCreated: session exists, the phone leg has not been dialed yet.
	StatusCreated Status = "created"

	// StatusPhoneCalling: the outbound call to the phone leg was placed.
	StatusPhoneCalling Status = "phone_calling"

	// StatusPhoneAnswered: the phone leg picked up.
	StatusPhoneAnswered Status = "phone_answered"

	// StatusPhoneInConference: the phone leg joined the conference.
	StatusPhoneInConference Status = "phone_in_conference"

	// StatusWebJoined: the web leg joined the conference.
	StatusWebJoined Status = "web_joined"

	// StatusConferenceActive: the provider reported conference start.
	StatusConferenceActive Status = "conference_active"

	// StatusConferenceEnded: the conference finished; removal is scheduled.
	StatusConferenceEnded Status = "conference_ended"

	// StatusCallEnded: terminal failure state — the phone call completed or
	// failed before a conference was established.
	StatusCallEnded Status = "call_ended"
)

// IsValid reports whether s is a recognised status.
func (s Status) IsValid() bool {
	switch s {
	case StatusCreated, StatusPhoneCalling, StatusPhoneAnswered,
		StatusPhoneInConference, StatusWebJoined, StatusConferenceActive,
		StatusConferenceEnded, StatusCallEnded:
		return true
	}
	return false
}

// preConference reports whether the session has not yet reached any
// conference-related state. Only pre-conference sessions fall to
// StatusCallEnded on a completed/failed call notification.
func (s Status) preConference() bool {
	switch s {
	case StatusCreated, StatusPhoneCalling, StatusPhoneAnswered:
		return true
	}
	return false
}

// LanguagePair holds the spoken language of each leg, as ISO 639-1 codes.
// The web participant speaks Web and hears Phone translated, and vice versa.
type LanguagePair struct {
	Web   string `json:"web"`
	Phone string `json:"phone"`
}

// Participant is one leg of the call. Created when the leg first reports
// into the conference; never resurrected once left.
type Participant struct {
	Type relay.ParticipantType `json:"type"`

	// CallSID is the provider-assigned call identifier for this leg.
	CallSID string `json:"call_sid"`

	// Address is the originating/destination address of the leg (a phone
	// number or client identifier).
	Address string `json:"address,omitempty"`

	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`
}

// Session is one orchestrated two-party translated call. Owned exclusively
// by the Registry; fields are only touched under the registry's lock.
type Session struct {
	ID             string
	ConferenceName string
	PhoneNumber    string
	Languages      LanguagePair
	Status         Status
	CreatedAt      time.Time
	LastCallStatus string

	participants map[relay.ParticipantType]*Participant
	assemblers   map[relay.ParticipantType]*relay.FrameAssembler
}

// Summary is the copy of session state handed out of the registry.
type Summary struct {
	ID             string        `json:"session_id"`
	ConferenceName string        `json:"conference_name"`
	PhoneNumber    string        `json:"phone_number"`
	Languages      LanguagePair  `json:"languages"`
	Status         Status        `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	LastCallStatus string        `json:"last_call_status,omitempty"`
	Participants   []Participant `json:"participants,omitempty"`
}

// summary builds a Summary from s. Caller must hold the registry lock.
func (s *Session) summary() Summary {
	out := Summary{
		ID:             s.ID,
		ConferenceName: s.ConferenceName,
		PhoneNumber:    s.PhoneNumber,
		Languages:      s.Languages,
		Status:         s.Status,
		CreatedAt:      s.CreatedAt,
		LastCallStatus: s.LastCallStatus,
	}
	for _, p := range s.participants {
		out.Participants = append(out.Participants, *p)
	}
	return out
}
