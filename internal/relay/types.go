// Package relay moves audio between the two legs of a translated call. It
// owns the stream-level primitives: fixed-size frame assembly from arbitrary
// inbound chunks, the registry of live outbound stream handles, and the
// router that delivers translated audio to the opposite leg.
package relay

// ParticipantType identifies one leg of a session. It is a closed two-valued
// set: the browser leg and the telephone leg.
type ParticipantType string

const (
	// ParticipantWeb is the browser-connected leg.
	ParticipantWeb ParticipantType = "web"

	// ParticipantPhone is the dialed telephone leg.
	ParticipantPhone ParticipantType = "phone"
)

// IsValid reports whether p is a recognised participant type.
func (p ParticipantType) IsValid() bool {
	return p == ParticipantWeb || p == ParticipantPhone
}

// Opposite returns the other leg. The zero value and any unknown value map
// to themselves so callers can rely on IsValid before routing.
func (p ParticipantType) Opposite() ParticipantType {
	switch p {
	case ParticipantWeb:
		return ParticipantPhone
	case ParticipantPhone:
		return ParticipantWeb
	}
	return p
}

// Frame is one fixed-length chunk of wire-codec (mu-law) audio tagged with
// its origin. Frames are produced by a FrameAssembler and consumed exactly
// once by the translation pipeline.
type Frame struct {
	SessionID string
	Source    ParticipantType
	Payload   []byte
}

// streamKey identifies one (session, participant) stream.
type streamKey struct {
	sessionID   string
	participant ParticipantType
}
