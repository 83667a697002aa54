package session

import "github.com/voxbridge/voxbridge/internal/relay"

// CallStatus is a call progress notification for the dialed phone leg.
// Mirrors the provider's status callback vocabulary.
type CallStatus string

const (
	CallInitiated CallStatus = "initiated"
	CallRinging   CallStatus = "ringing"
	// Answered and InProgress are synonyms: providers differ in which one
	// they report when the callee picks up.
	CallAnswered   CallStatus = "answered"
	CallInProgress CallStatus = "in-progress"
	CallCompleted  CallStatus = "completed"
	CallBusy       CallStatus = "busy"
	CallFailed     CallStatus = "failed"
	CallNoAnswer   CallStatus = "no-answer"
	CallCanceled   CallStatus = "canceled"
)

// IsValid reports whether c is a recognised call status.
func (c CallStatus) IsValid() bool {
	switch c {
	case CallInitiated, CallRinging, CallAnswered, CallInProgress,
		CallCompleted, CallBusy, CallFailed, CallNoAnswer, CallCanceled:
		return true
	}
	return false
}

// answered reports whether c signals that the callee picked up.
func (c CallStatus) answered() bool {
	return c == CallAnswered || c == CallInProgress
}

// terminal reports whether c ends the call without a conference.
func (c CallStatus) terminal() bool {
	switch c {
	case CallCompleted, CallBusy, CallFailed, CallNoAnswer, CallCanceled:
		return true
	}
	return false
}

// CallStatusEvent is a parsed call status webhook.
type CallStatusEvent struct {
	SessionID string
	CallSID   string
	Status    CallStatus
}

// ConferenceEvent is the kind of a conference status notification.
type ConferenceEvent string

const (
	ConferenceStart            ConferenceEvent = "conference-start"
	ConferenceEnd              ConferenceEvent = "conference-end"
	ConferenceParticipantJoin  ConferenceEvent = "participant-join"
	ConferenceParticipantLeave ConferenceEvent = "participant-leave"
)

// IsValid reports whether e is a recognised conference event.
func (e ConferenceEvent) IsValid() bool {
	switch e {
	case ConferenceStart, ConferenceEnd,
		ConferenceParticipantJoin, ConferenceParticipantLeave:
		return true
	}
	return false
}

// ConferenceStatusEvent is a parsed conference status webhook. Participant
// fields are only meaningful for join/leave events.
type ConferenceStatusEvent struct {
	SessionID   string
	Event       ConferenceEvent
	CallSID     string
	Participant relay.ParticipantType
	Address     string
}
