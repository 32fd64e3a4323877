package signal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/krishnabarasiya03/video-conf/internal/adapters/signal"
	"github.com/krishnabarasiya03/video-conf/internal/app"
	"github.com/krishnabarasiya03/video-conf/internal/auth"
	"github.com/krishnabarasiya03/video-conf/internal/media"
	"github.com/krishnabarasiya03/video-conf/internal/media/mediatest"
	"github.com/krishnabarasiya03/video-conf/internal/session"
)

func newTestServer(t *testing.T, opts signal.Options) (*httptest.Server, *auth.Verifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctl := app.NewController(session.NewRegistry(), media.NewGateway(mediatest.NewEngine()), auth.AllowAll{}, nil)
	verifier := auth.NewVerifier("test-secret")
	sig := signal.NewController(ctl, verifier, opts)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { sig.HandleSignal(context.Background(), c) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, verifier
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v map[string]any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func recv(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestGuestSignalingSession(t *testing.T) {
	srv, _ := newTestServer(t, signal.Options{AllowGuest: true})

	alice := dial(t, srv, "name=Alice&role=teacher")
	send(t, alice, map[string]any{"type": "createRoom"})
	ack := recv(t, alice)
	require.Equal(t, "createRoom", ack["type"])
	require.Equal(t, true, ack["success"])
	roomID, _ := ack["roomId"].(string)
	require.NotEmpty(t, roomID)
	require.Contains(t, ack, "receiveCapabilities")

	bob := dial(t, srv, "name=Bob&role=student")
	send(t, bob, map[string]any{"type": "joinRoom", "roomId": roomID})
	ack = recv(t, bob)
	require.Equal(t, "joinRoom", ack["type"])
	require.Equal(t, true, ack["success"])
	require.Equal(t, []any{}, ack["existingProducers"])

	push := recv(t, alice)
	require.Equal(t, "peerJoined", push["type"])
	require.Equal(t, "Bob", push["name"])
	require.Equal(t, "student", push["role"])

	// Chat reaches the whole room including the sender, then the sender
	// gets its ack.
	send(t, bob, map[string]any{"type": "chat:message", "text": "hello"})
	push = recv(t, bob)
	require.Equal(t, "chat:message", push["type"])
	require.Equal(t, "hello", push["text"])
	ack = recv(t, bob)
	require.Equal(t, true, ack["success"])

	push = recv(t, alice)
	require.Equal(t, "chat:message", push["type"])
	require.Equal(t, "hello", push["text"])
	require.Equal(t, "Bob", push["senderName"])

	// Abrupt close surfaces to the peer as peerLeft.
	bob.Close()
	push = recv(t, alice)
	require.Equal(t, "peerLeft", push["type"])
	require.Equal(t, "Bob", push["name"])
}

func TestTokenIdentity(t *testing.T) {
	srv, verifier := newTestServer(t, signal.Options{})

	token, err := verifier.Sign(auth.Claims{Sub: "u1", Name: "Carol", Role: "teacher", Exp: time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)

	carol := dial(t, srv, "token="+token)
	send(t, carol, map[string]any{"type": "createRoom", "roomId": "seminar"})
	ack := recv(t, carol)
	require.Equal(t, true, ack["success"])
	require.Equal(t, "seminar", ack["roomId"])
}

func TestRejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t, signal.Options{})

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRejectsInvalidToken(t *testing.T) {
	srv, _ := newTestServer(t, signal.Options{AllowGuest: true})

	resp, err := http.Get(srv.URL + "/ws?token=garbage.beef")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "a bad token is rejected even when guests are allowed")
}

func TestUnknownMessageTypeIsNacked(t *testing.T) {
	srv, _ := newTestServer(t, signal.Options{AllowGuest: true})

	conn := dial(t, srv, "name=Alice&role=teacher")
	send(t, conn, map[string]any{"type": "bogus"})
	ack := recv(t, conn)
	require.Equal(t, "bogus", ack["type"])
	require.Equal(t, false, ack["success"])
	require.Contains(t, ack["error"], "unknown message type")
}

func TestOperationsBeforeJoinAreRejected(t *testing.T) {
	srv, _ := newTestServer(t, signal.Options{AllowGuest: true})

	conn := dial(t, srv, "name=Alice&role=teacher")
	send(t, conn, map[string]any{"type": "createTransport"})
	ack := recv(t, conn)
	require.Equal(t, "createTransport", ack["type"])
	require.Equal(t, false, ack["success"])
	require.Contains(t, ack["error"], "not joined")
}

func TestMediaSignalingFlow(t *testing.T) {
	srv, _ := newTestServer(t, signal.Options{AllowGuest: true})

	alice := dial(t, srv, "name=Alice&role=teacher")
	send(t, alice, map[string]any{"type": "createRoom", "roomId": "r1"})
	recv(t, alice)

	send(t, alice, map[string]any{"type": "createTransport"})
	ack := recv(t, alice)
	require.Equal(t, true, ack["success"])
	params, _ := ack["params"].(map[string]any)
	transportID, _ := params["transportId"].(string)
	require.NotEmpty(t, transportID)
	require.Contains(t, params, "connection")

	send(t, alice, map[string]any{
		"type":            "produce",
		"transportId":     transportID,
		"kind":            "audio",
		"codecParameters": map[string]any{"mimeType": "audio/opus", "clockRate": 48000, "channels": 2},
	})
	ack = recv(t, alice)
	require.Equal(t, "produce", ack["type"])
	require.Equal(t, true, ack["success"])
	producerID, _ := ack["producerId"].(string)
	require.NotEmpty(t, producerID)

	bob := dial(t, srv, "name=Bob&role=student")
	send(t, bob, map[string]any{"type": "joinRoom", "roomId": "r1"})
	ack = recv(t, bob)
	existing, _ := ack["existingProducers"].([]any)
	require.Len(t, existing, 1)
	recv(t, alice) // peerJoined

	send(t, bob, map[string]any{"type": "createTransport"})
	ack = recv(t, bob)
	bobParams, _ := ack["params"].(map[string]any)
	bobTransport, _ := bobParams["transportId"].(string)

	send(t, bob, map[string]any{
		"type":        "consume",
		"transportId": bobTransport,
		"producerId":  producerID,
		"receiveCapabilities": map[string]any{
			"codecs": []map[string]any{{"mimeType": "audio/opus", "clockRate": 48000, "channels": 2}},
		},
	})
	ack = recv(t, bob)
	require.Equal(t, "consume", ack["type"])
	require.Equal(t, true, ack["success"])
	consumerID, _ := ack["consumerId"].(string)
	require.NotEmpty(t, consumerID)
	require.Equal(t, "audio", ack["kind"])

	send(t, bob, map[string]any{"type": "resumeConsumer", "consumerId": consumerID})
	ack = recv(t, bob)
	require.Equal(t, "resumeConsumer", ack["type"])
	require.Equal(t, true, ack["success"])
}
