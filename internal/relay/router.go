package relay

// Router resolves the destination leg for translated audio and delivers it
// through the Hub. The destination is always the complement of the source:
// audio spoken on the phone leg plays on the web leg and vice versa.
type Router struct {
	hub *Hub
}

// NewRouter creates a Router delivering through hub.
func NewRouter(hub *Hub) *Router {
	return &Router{hub: hub}
}

// Route delivers payload to the leg opposite the source. There is no retry:
// when the destination is not currently connected the payload is dropped.
// Returns true when the payload was enqueued for delivery.
func (r *Router) Route(sessionID string, source ParticipantType, payload []byte) bool {
	return r.hub.Deliver(sessionID, source.Opposite(), payload)
}
