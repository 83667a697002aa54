package telephony

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/voxbridge/voxbridge/internal/pipeline"
	"github.com/voxbridge/voxbridge/internal/relay"
)

// passthroughProcessor routes every frame unchanged to the opposite leg,
// standing in for the translation pipeline.
type passthroughProcessor struct {
	router *relay.Router
}

func (p passthroughProcessor) Process(_ context.Context, f relay.Frame) error {
	p.router.Route(f.SessionID, f.Source, f.Payload)
	return nil
}

func startMediaServer(t *testing.T) (*httptest.Server, string, *pipeline.Dispatcher) {
	t.Helper()
	reg, sum := newTestSession(t)
	hub := relay.NewHub()
	router := relay.NewRouter(hub)
	disp := pipeline.NewDispatcher(passthroughProcessor{router: router},
		pipeline.WithDispatcherLogger(discard()))
	t.Cleanup(disp.Close)

	ms := NewMediaServer(reg, hub, disp, discard(), nil)
	srv := httptest.NewServer(ms)
	t.Cleanup(srv.Close)
	return srv, sum.ID, disp
}

func dialMedia(t *testing.T, srv *httptest.Server, sessionID, participant string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"?session=" + sessionID + "&participant=" + participant
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial media stream (%s): %v", participant, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

func sendMsg(t *testing.T, conn *websocket.Conn, msg streamMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestMediaStreamRelaysToOppositeLeg(t *testing.T) {
	srv, sessionID, _ := startMediaServer(t)

	phone := dialMedia(t, srv, sessionID, "phone")
	web := dialMedia(t, srv, sessionID, "web")

	sendMsg(t, phone, streamMessage{Event: "start", StreamSID: "MS-phone"})
	sendMsg(t, web, streamMessage{Event: "start", StreamSID: "MS-web"})
	// Let both registrations land before audio flows.
	time.Sleep(50 * time.Millisecond)

	audio := make([]byte, relay.FrameSize)
	for i := range audio {
		audio[i] = byte(i)
	}
	sendMsg(t, phone, streamMessage{
		Event: "media",
		Media: &mediaPayload{Payload: base64.StdEncoding.EncodeToString(audio)},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, data, err := web.Read(ctx)
	if err != nil {
		t.Fatalf("web leg read: %v", err)
	}

	var out streamMessage
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal outbound message: %v", err)
	}
	if out.Event != "media" {
		t.Fatalf("event = %q, want media", out.Event)
	}
	if out.StreamSID != "MS-web" {
		t.Errorf("streamSid = %q, want MS-web", out.StreamSID)
	}
	got, err := base64.StdEncoding.DecodeString(out.Media.Payload)
	if err != nil {
		t.Fatalf("decode outbound payload: %v", err)
	}
	if len(got) != relay.FrameSize {
		t.Fatalf("payload length = %d, want %d", len(got), relay.FrameSize)
	}
	for i, b := range got {
		if b != byte(i) {
			t.Fatalf("payload byte %d = %d, want %d", i, b, byte(i))
		}
	}
}

func TestMediaStreamRejectsUnknownSession(t *testing.T) {
	srv, _, _ := startMediaServer(t)

	resp, err := http.Get(srv.URL + "?session=nope&participant=phone")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMediaStreamRejectsBadParticipant(t *testing.T) {
	srv, sessionID, _ := startMediaServer(t)

	resp, err := http.Get(srv.URL + "?session=" + sessionID + "&participant=robot")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMediaStreamStopClosesConnection(t *testing.T) {
	srv, sessionID, _ := startMediaServer(t)

	phone := dialMedia(t, srv, sessionID, "phone")
	sendMsg(t, phone, streamMessage{Event: "start", StreamSID: "MS-1"})
	sendMsg(t, phone, streamMessage{Event: "stop"})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, _, err := phone.Read(ctx); err == nil {
		t.Error("expected connection to close after stop event")
	}
}

func TestMediaStreamSubFrameChunksAccumulate(t *testing.T) {
	srv, sessionID, _ := startMediaServer(t)

	phone := dialMedia(t, srv, sessionID, "phone")
	web := dialMedia(t, srv, sessionID, "web")
	sendMsg(t, phone, streamMessage{Event: "start", StreamSID: "MS-phone"})
	sendMsg(t, web, streamMessage{Event: "start", StreamSID: "MS-web"})
	time.Sleep(50 * time.Millisecond)

	// Two 800-byte chunks form exactly one frame.
	chunk := make([]byte, relay.FrameSize/2)
	for i := 0; i < 2; i++ {
		sendMsg(t, phone, streamMessage{
			Event: "media",
			Media: &mediaPayload{Payload: base64.StdEncoding.EncodeToString(chunk)},
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, _, err := web.Read(ctx); err != nil {
		t.Fatalf("expected one relayed frame from two half-frame chunks: %v", err)
	}
}
