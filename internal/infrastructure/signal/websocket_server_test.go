package signal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/services"
	"github.com/Arnob004/FileShare/internal/infrastructure/monitoring"
	"github.com/Arnob004/FileShare/internal/infrastructure/repositories/memory"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	peerRepo := memory.NewMemoryPeerRepository()
	requestRepo := memory.NewMemoryRequestRepository()
	roomRepo := memory.NewMemoryRoomRepository()
	metrics := monitoring.NopCollector{}

	ws := NewWebSocketServer(Options{
		PingInterval: 50 * time.Millisecond,
		PongTimeout:  5 * time.Second,
		WriteTimeout: time.Second,
	}, zap.NewNop().Sugar())

	ws.Bind(Services{
		Identity:    services.NewIdentityService(peerRepo, 5),
		Presence:    services.NewPresenceService(peerRepo, ws, metrics),
		Negotiation: services.NewNegotiationService(peerRepo, requestRepo, ws, metrics),
		Rooms:       services.NewRoomService(roomRepo, ws, metrics),
		Relay:       services.NewRelayService(roomRepo, ws, metrics, 1<<20),
	})

	srv := httptest.NewServer(http.HandlerFunc(ws.HandleWebSocket))
	t.Cleanup(srv.Close)
	return srv
}

type testConn struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, srv *httptest.Server, uid domain.UID, name string) *testConn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	tc := &testConn{t: t, conn: conn}
	tc.emit(domain.EventNewUser, "", NewUserPayload{UID: uid, Name: name})
	return tc
}

func (c *testConn) emit(event, ackID string, payload interface{}) {
	c.t.Helper()
	data, err := encodeEnvelope(event, ackID, payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(websocket.TextMessage, data))
}

// expect reads frames until one of the wanted type arrives, skipping
// unrelated broadcasts along the way.
func (c *testConn) expect(event string) Envelope {
	c.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		c.conn.SetReadDeadline(deadline)
		var env Envelope
		require.NoError(c.t, c.conn.ReadJSON(&env), "waiting for %s", event)
		if env.Type == event {
			return env
		}
	}
}

func decode[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Payload, &out))
	return out
}

func TestHandshake(t *testing.T) {
	srv := newTestServer(t)

	t.Run("client-supplied identity", func(t *testing.T) {
		c := dial(t, srv, "aB3x9", "Alice")

		welcome := decode[WelcomePayload](t, c.expect(EventWelcome))
		assert.Equal(t, domain.UID("aB3x9"), welcome.User.UID)
		assert.Equal(t, "Alice", welcome.User.Name)

		roster := decode[[]*domain.Peer](t, c.expect(domain.EventUpdateOnlineUsers))
		require.NotEmpty(t, roster)
	})

	t.Run("server provisions missing identity", func(t *testing.T) {
		c := dial(t, srv, "", "")

		welcome := decode[WelcomePayload](t, c.expect(EventWelcome))
		assert.Len(t, string(welcome.User.UID), 5)
		assert.NotEmpty(t, welcome.User.Name)
	})

	t.Run("first frame must be new_user", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(srv.URL, "http")
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		data, err := encodeEnvelope(domain.EventSendRequest, "", SendRequestPayload{To: "aB3x9"})
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))

		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var env Envelope
		require.NoError(t, conn.ReadJSON(&env))
		assert.Equal(t, domain.EventError, env.Type)
	})
}

func TestRosterBroadcast(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "aaaaa", "Alice")
	alice.expect(EventWelcome)

	bob := dial(t, srv, "bbbbb", "Bob")
	bob.expect(EventWelcome)

	// Alice's roster eventually contains both peers.
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "roster never reached two peers")
		roster := decode[[]*domain.Peer](t, alice.expect(domain.EventUpdateOnlineUsers))
		if len(roster) == 2 {
			break
		}
	}
}

func TestNegotiationFlow(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "aaaaa", "Alice")
	alice.expect(EventWelcome)
	bob := dial(t, srv, "bbbbb", "Bob")
	bob.expect(EventWelcome)

	alice.emit(domain.EventSendRequest, "", SendRequestPayload{To: "bbbbb"})

	req := decode[domain.RequestNotice](t, bob.expect(domain.EventReceiveRequest))
	assert.Equal(t, domain.UID("aaaaa"), req.From)
	assert.Equal(t, "Alice", req.Name)
	assert.Equal(t, domain.RoomID("aaaaabbbbb"), req.RoomID)

	bob.emit(domain.EventAcceptRequest, "", AcceptRequestPayload{From: "aaaaa", RoomID: req.RoomID})

	accepted := decode[domain.RequestNotice](t, alice.expect(domain.EventRequestAccepted))
	assert.Equal(t, req.RoomID, accepted.RoomID)

	// Both join; each hears about the other.
	alice.emit(domain.EventJoinRoom, "", JoinRoomPayload{RoomID: req.RoomID})
	bob.emit(domain.EventJoinRoom, "", JoinRoomPayload{RoomID: req.RoomID})

	toAlice := decode[domain.RoomNotice](t, alice.expect(domain.EventConnectedUser))
	assert.Equal(t, domain.UID("bbbbb"), toAlice.User.UID)
	toBob := decode[domain.RoomNotice](t, bob.expect(domain.EventConnectedUser))
	assert.Equal(t, domain.UID("aaaaa"), toBob.User.UID)
}

func TestDeclineFlow(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "aaaaa", "Alice")
	alice.expect(EventWelcome)
	bob := dial(t, srv, "bbbbb", "Bob")
	bob.expect(EventWelcome)

	alice.emit(domain.EventSendRequest, "", SendRequestPayload{To: "bbbbb"})
	req := decode[domain.RequestNotice](t, bob.expect(domain.EventReceiveRequest))

	bob.emit(domain.EventDeclineRequest, "", DeclineRequestPayload{From: "aaaaa"})

	declined := decode[domain.RequestNotice](t, alice.expect(domain.EventRequestDeclined))
	assert.Equal(t, req.RoomID, declined.RoomID)

	// The request is resolved: a late accept fails as stale.
	bob.emit(domain.EventAcceptRequest, "", AcceptRequestPayload{From: "aaaaa", RoomID: req.RoomID})
	errEvt := decode[ErrorPayload](t, bob.expect(domain.EventError))
	assert.Equal(t, "STALE_REQUEST", errEvt.Code)
}

func TestFileRelay(t *testing.T) {
	srv := newTestServer(t)

	alice, bob, roomID := pairedClients(t, srv)

	file := &domain.FilePayload{
		Name: "notes.txt",
		Type: "text/plain",
		Size: 11,
		Data: "data:text/plain;base64,aGVsbG8gd29ybGQ=",
	}
	alice.emit(domain.EventSendFile, "", SendFilePayload{RoomID: roomID, File: file})

	notice := decode[domain.FileNotice](t, bob.expect(domain.EventNewFile))
	assert.Equal(t, domain.UID("aaaaa"), notice.From)
	assert.Equal(t, file.Data, notice.File.Data)
}

func TestUploadFileAlias(t *testing.T) {
	srv := newTestServer(t)

	alice, bob, roomID := pairedClients(t, srv)

	// Older clients say upload_file; it relays the same as send_file.
	alice.emit(domain.EventUploadFile, "", SendFilePayload{
		RoomID: roomID,
		File:   &domain.FilePayload{Name: "notes.txt", Type: "text/plain", Size: 5, Data: "aGVsbG8="},
	})

	notice := decode[domain.FileNotice](t, bob.expect(domain.EventNewFile))
	assert.Equal(t, "notes.txt", notice.File.Name)
}

func TestChunkRelay(t *testing.T) {
	srv := newTestServer(t)

	alice, bob, roomID := pairedClients(t, srv)

	for seq := 0; seq < 3; seq++ {
		alice.emit(domain.EventSendChunk, "", SendChunkPayload{RoomID: roomID, Chunk: &domain.FileChunk{
			TransferID: "video.mp4-1700000000000",
			Name:       "video.mp4",
			Type:       "video/mp4",
			Size:       300,
			Seq:        seq,
			Total:      3,
			Data:       "AAAA",
		}})
	}

	for seq := 0; seq < 3; seq++ {
		notice := decode[domain.ChunkNotice](t, bob.expect(domain.EventFileChunk))
		assert.Equal(t, seq, notice.Chunk.Seq)
	}
}

func TestFileRelayErrors(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "aaaaa", "Alice")
	alice.expect(EventWelcome)

	t.Run("not in a room", func(t *testing.T) {
		alice.emit(domain.EventSendFile, "", SendFilePayload{
			RoomID: "nosuchroom",
			File:   &domain.FilePayload{Name: "x", Size: 1, Data: "d"},
		})
		errEvt := decode[ErrorPayload](t, alice.expect(domain.EventError))
		assert.Equal(t, "INVALID_ROOM", errEvt.Code)
	})

	t.Run("file too large", func(t *testing.T) {
		a2, _, roomID := pairedClients(t, srv)
		a2.emit(domain.EventSendFile, "", SendFilePayload{
			RoomID: roomID,
			File:   &domain.FilePayload{Name: "big.bin", Size: 1 << 30, Data: "d"},
		})
		errEvt := decode[ErrorPayload](t, a2.expect(domain.EventError))
		assert.Equal(t, "FILE_TOO_LARGE", errEvt.Code)
	})
}

func TestExitRoomAck(t *testing.T) {
	srv := newTestServer(t)

	alice, bob, roomID := pairedClients(t, srv)

	alice.emit(domain.EventExitRoom, "ack-1", ExitRoomPayload{RoomID: roomID})

	ackEnv := alice.expect(EventAck)
	assert.Equal(t, "ack-1", ackEnv.AckID)
	ack := decode[AckPayload](t, ackEnv)
	assert.True(t, ack.OK)

	left := decode[domain.RoomNotice](t, bob.expect(domain.EventUserLeft))
	assert.Equal(t, domain.UID("aaaaa"), left.User.UID)

	// Exiting twice fails, still on the requested ack id.
	alice.emit(domain.EventExitRoom, "ack-2", ExitRoomPayload{RoomID: roomID})
	nack := alice.expect(EventAck)
	assert.Equal(t, "ack-2", nack.AckID)
	assert.False(t, decode[AckPayload](t, nack).OK)
}

func TestDisconnectCleanup(t *testing.T) {
	srv := newTestServer(t)

	alice, bob, _ := pairedClients(t, srv)

	// Drop Alice's transport; Bob must hear user_left without any exit_room.
	alice.conn.Close()

	left := decode[domain.RoomNotice](t, bob.expect(domain.EventUserLeft))
	assert.Equal(t, domain.UID("aaaaa"), left.User.UID)
}

func TestPendingRequestDiesWithTarget(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "aaaaa", "Alice")
	alice.expect(EventWelcome)
	bob := dial(t, srv, "bbbbb", "Bob")
	bob.expect(EventWelcome)

	alice.emit(domain.EventSendRequest, "", SendRequestPayload{To: "bbbbb"})
	bob.expect(domain.EventReceiveRequest)

	bob.conn.Close()

	declined := decode[domain.RequestNotice](t, alice.expect(domain.EventRequestDeclined))
	assert.Equal(t, domain.UID("bbbbb"), declined.From)
}

func TestUnknownEvent(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "aaaaa", "Alice")
	alice.expect(EventWelcome)

	alice.emit("warp_speed", "", nil)
	errEvt := decode[ErrorPayload](t, alice.expect(domain.EventError))
	assert.Equal(t, "INVALID_INPUT", errEvt.Code)
}

// pairedClients runs the full handshake and join for two fresh peers
// and returns them inside an active room.
func pairedClients(t *testing.T, srv *httptest.Server) (*testConn, *testConn, domain.RoomID) {
	t.Helper()

	alice := dial(t, srv, "aaaaa", "Alice")
	alice.expect(EventWelcome)
	bob := dial(t, srv, "bbbbb", "Bob")
	bob.expect(EventWelcome)

	alice.emit(domain.EventSendRequest, "", SendRequestPayload{To: "bbbbb"})
	req := decode[domain.RequestNotice](t, bob.expect(domain.EventReceiveRequest))

	bob.emit(domain.EventAcceptRequest, "", AcceptRequestPayload{From: "aaaaa", RoomID: req.RoomID})
	alice.expect(domain.EventRequestAccepted)

	alice.emit(domain.EventJoinRoom, "", JoinRoomPayload{RoomID: req.RoomID})
	bob.emit(domain.EventJoinRoom, "", JoinRoomPayload{RoomID: req.RoomID})
	alice.expect(domain.EventConnectedUser)
	bob.expect(domain.EventConnectedUser)

	return alice, bob, req.RoomID
}
