package telephony

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/voxbridge/voxbridge/internal/observe"
	"github.com/voxbridge/voxbridge/internal/pipeline"
	"github.com/voxbridge/voxbridge/internal/relay"
	"github.com/voxbridge/voxbridge/internal/session"
)

// streamMessage is the wire format of the media stream protocol, both
// directions. Inbound media carries base64 wire-codec audio; outbound
// messages are symmetric.
type streamMessage struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Media     *mediaPayload `json:"media,omitempty"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

// writeTimeout bounds one outbound media write. A leg that cannot keep up
// with its own playback is disconnected rather than backing up the hub.
const writeTimeout = 10 * time.Second

// MediaServer terminates provider media streams: it assembles inbound audio
// into frames for the pipeline and plays translated audio back out.
type MediaServer struct {
	registry   *session.Registry
	hub        *relay.Hub
	dispatcher *pipeline.Dispatcher
	logger     *slog.Logger
	metrics    *observe.Metrics
}

// NewMediaServer creates the media stream endpoint handler.
func NewMediaServer(registry *session.Registry, hub *relay.Hub, dispatcher *pipeline.Dispatcher,
	logger *slog.Logger, metrics *observe.Metrics) *MediaServer {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &MediaServer{
		registry:   registry,
		hub:        hub,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// ServeHTTP upgrades the connection and relays media until the stream stops
// or the peer disconnects.
func (s *MediaServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	participant := relay.ParticipantType(r.URL.Query().Get("participant"))

	if !participant.IsValid() {
		http.Error(w, "unknown participant type", http.StatusBadRequest)
		return
	}
	assembler, err := s.registry.Assembler(sessionID, participant)
	if err != nil {
		s.logger.Warn("media stream for unknown session",
			"session_id", sessionID, "participant", string(participant))
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("media stream upgrade failed",
			"session_id", sessionID, "error", err)
		return
	}

	log := s.logger.With("session_id", sessionID, "participant", string(participant))
	log.Info("media stream connected")

	s.metrics.ActiveStreams.Add(r.Context(), 1)
	defer s.metrics.ActiveStreams.Add(context.Background(), -1)

	s.serve(r.Context(), conn, sessionID, participant, assembler, log)
}

// serve runs the read loop for one media stream connection.
func (s *MediaServer) serve(ctx context.Context, conn *websocket.Conn, sessionID string,
	participant relay.ParticipantType, assembler *relay.FrameAssembler, log *slog.Logger) {

	var handle *relay.StreamHandle
	defer func() {
		if handle != nil {
			s.hub.Unregister(sessionID, participant, handle)
		}
		s.dispatcher.CloseStream(sessionID, participant)
		assembler.Reset()
		conn.Close(websocket.StatusNormalClosure, "stream finished")
		log.Info("media stream closed")
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				return
			}
			log.Warn("media stream read failed", "error", err)
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn("unparseable media stream message", "error", err)
			continue
		}

		switch msg.Event {
		case "connected":
			// Informational only.

		case "start":
			handle = s.hub.Register(sessionID, participant)
			go s.writeLoop(ctx, conn, handle, msg.StreamSID, log)
			log.Info("media stream started", "stream_sid", msg.StreamSID)

		case "media":
			if msg.Media == nil {
				continue
			}
			audio, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
			if err != nil {
				log.Warn("undecodable media payload", "error", err)
				continue
			}
			for _, frame := range assembler.Feed(audio) {
				s.metrics.RecordFrameIn(ctx, string(participant))
				s.dispatcher.Enqueue(relay.Frame{
					SessionID: sessionID,
					Source:    participant,
					Payload:   frame,
				})
			}

		case "stop":
			log.Info("media stream stopped")
			return

		default:
			log.Warn("unrecognised media stream event", "event", msg.Event)
		}
	}
}

// writeLoop forwards translated audio from the hub to the peer until the
// handle is closed or the connection dies.
func (s *MediaServer) writeLoop(ctx context.Context, conn *websocket.Conn,
	handle *relay.StreamHandle, streamSID string, log *slog.Logger) {

	for {
		select {
		case <-ctx.Done():
			return
		case <-handle.Done():
			return
		case payload := <-handle.Out():
			msg := streamMessage{
				Event:     "media",
				StreamSID: streamSID,
				Media:     &mediaPayload{Payload: base64.StdEncoding.EncodeToString(payload)},
			}
			data, err := json.Marshal(msg)
			if err != nil {
				log.Error("outbound media marshal failed", "error", err)
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Warn("outbound media write failed", "error", err)
				return
			}
		}
	}
}
