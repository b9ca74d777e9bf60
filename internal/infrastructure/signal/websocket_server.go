package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/ports"
	apperrors "github.com/Arnob004/FileShare/pkg/errors"
	"github.com/Arnob004/FileShare/pkg/tracing"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// EventWelcome is the first server frame after admission. It carries
// the identity the peer was admitted under, which matters when the uid
// or display name were provisioned server-side.
const EventWelcome = "welcome"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Options carries the transport tuning knobs from configuration.
type Options struct {
	PingInterval      time.Duration
	PongTimeout       time.Duration
	WriteTimeout      time.Duration
	MaxMessageSize    int64
	MessagesPerSecond float64
	MessageBurst      int
}

// Services bundles the core services the transport drives.
type Services struct {
	Identity    ports.IdentityService
	Presence    ports.PresenceService
	Negotiation ports.NegotiationService
	Rooms       ports.RoomService
	Relay       ports.RelayService
}

// client is one websocket connection. All writes go through the send
// channel and the single writePump goroutine; gorilla connections do
// not tolerate concurrent writers.
type client struct {
	uid  domain.UID
	conn *websocket.Conn
	send chan []byte

	limiter   *rate.Limiter
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// WebSocketServer is the protocol endpoint. It owns the connection
// registry and implements ports.Notifier on top of it.
type WebSocketServer struct {
	services Services
	opts     Options

	clients map[domain.UID]*client
	mu      sync.RWMutex

	logger *zap.SugaredLogger
}

func NewWebSocketServer(opts Options, logger *zap.SugaredLogger) *WebSocketServer {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = 60 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &WebSocketServer{
		opts:    opts,
		clients: make(map[domain.UID]*client),
		logger:  logger,
	}
}

// Bind attaches the core services. The server is constructed first
// because the services need it as their ports.Notifier; Bind must be
// called before the first connection is accepted.
func (s *WebSocketServer) Bind(services Services) {
	s.services = services
}

// HandleWebSocket upgrades the connection and runs the session until
// the peer disconnects. The first frame must be new_user; everything
// before admission is rejected.
func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	if s.opts.MaxMessageSize > 0 {
		conn.SetReadLimit(s.opts.MaxMessageSize)
	}

	peer, err := s.admit(r.Context(), conn)
	if err != nil {
		s.logger.Warnw("admission failed", "remote", r.RemoteAddr, "error", err)
		s.writeErrorDirect(conn, err)
		conn.Close()
		return
	}

	c := &client{
		uid:  peer.UID,
		conn: conn,
		send: make(chan []byte, 64),
	}
	if s.opts.MessagesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(s.opts.MessagesPerSecond), s.opts.MessageBurst)
	}

	s.register(c)
	s.logger.Infow("peer connected", "uid", peer.UID, "name", peer.Name)

	go s.writePump(c)

	if err := s.sendTo(c, EventWelcome, "", WelcomePayload{User: peer}); err != nil {
		s.logger.Warnw("failed to send welcome", "uid", peer.UID, "error", err)
	}
	if err := s.services.Presence.BroadcastRoster(context.Background()); err != nil {
		s.logger.Warnw("failed to broadcast roster", "error", err)
	}

	s.readPump(c)

	s.disconnect(c)
}

// admit reads the new_user frame and registers the peer with the
// presence service, provisioning uid and name where the client left
// them empty.
func (s *WebSocketServer) admit(ctx context.Context, conn *websocket.Conn) (*domain.Peer, error) {
	conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))

	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		return nil, fmt.Errorf("failed to read handshake: %w", err)
	}
	if env.Type != domain.EventNewUser {
		return nil, apperrors.NewInvalidInput(fmt.Sprintf("expected %s, got %s", domain.EventNewUser, env.Type))
	}

	var payload NewUserPayload
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return nil, apperrors.NewInvalidInput("malformed new_user payload")
		}
	}

	uid := payload.UID
	if uid == "" {
		provisioned, err := s.services.Identity.ProvisionUID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to provision uid: %w", err)
		}
		uid = provisioned
	}

	name := payload.Name
	if name == "" {
		name = s.services.Identity.DefaultDisplayName()
	}

	peer := &domain.Peer{
		UID:         uid,
		Name:        name,
		Photo:       payload.Photo,
		ConnectedAt: time.Now(),
	}
	return s.services.Presence.Admit(ctx, peer)
}

func (s *WebSocketServer) register(c *client) {
	s.mu.Lock()
	old, reconnect := s.clients[c.uid]
	s.clients[c.uid] = c
	s.mu.Unlock()

	if reconnect && old != nil {
		s.logger.Infow("closing superseded connection", "uid", c.uid)
		old.close()
	}
}

// disconnect tears the session down in dependency order: room first so
// the counterpart hears user_left, then pending requests, then presence
// so the final roster no longer lists the peer.
func (s *WebSocketServer) disconnect(c *client) {
	s.mu.Lock()
	current, ok := s.clients[c.uid]
	superseded := !ok || current != c
	if !superseded {
		delete(s.clients, c.uid)
	}
	s.mu.Unlock()

	c.close()

	// A superseded connection must not tear down the state the new
	// connection for the same uid is using.
	if superseded {
		return
	}

	ctx := context.Background()
	if err := s.services.Rooms.HandleDisconnect(ctx, c.uid); err != nil {
		s.logger.Warnw("room cleanup failed", "uid", c.uid, "error", err)
	}
	if err := s.services.Negotiation.DiscardFor(ctx, c.uid); err != nil {
		s.logger.Warnw("request cleanup failed", "uid", c.uid, "error", err)
	}
	if err := s.services.Presence.Remove(ctx, c.uid); err != nil {
		s.logger.Warnw("presence cleanup failed", "uid", c.uid, "error", err)
	}

	s.logger.Infow("peer disconnected", "uid", c.uid)
}

func (s *WebSocketServer) readPump(c *client) {
	c.conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
		return nil
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Infow("read failed", "uid", c.uid, "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))

		if c.limiter != nil && !c.limiter.Allow() {
			s.writeError(c, env.AckID, apperrors.New(apperrors.ErrCodeRateLimited, "message rate exceeded", http.StatusTooManyRequests))
			continue
		}

		if err := s.handleMessage(context.Background(), c, env); err != nil {
			s.logger.Infow("event failed", "uid", c.uid, "event", env.Type, "error", err)
			s.writeError(c, env.AckID, err)
		} else if env.AckID != "" {
			_ = s.sendTo(c, EventAck, env.AckID, AckPayload{OK: true})
		}
	}
}

func (s *WebSocketServer) writePump(c *client) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(time.Second))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Infow("write failed", "uid", c.uid, "error", err)
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

func (s *WebSocketServer) handleMessage(ctx context.Context, c *client, env Envelope) error {
	ctx, span := tracing.StartSpan(ctx, "signal", "handle_"+env.Type,
		attribute.String("uid", string(c.uid)),
	)
	defer span.End()

	switch env.Type {
	case domain.EventNewUser:
		// Already admitted; a repeated new_user just refreshes the roster.
		return s.services.Presence.BroadcastRoster(ctx)
	case domain.EventSendRequest:
		return s.handleSendRequest(ctx, c, env.Payload)
	case domain.EventAcceptRequest:
		return s.handleAcceptRequest(ctx, c, env.Payload)
	case domain.EventDeclineRequest:
		return s.handleDeclineRequest(ctx, c, env.Payload)
	case domain.EventJoinRoom:
		return s.handleJoinRoom(ctx, c, env.Payload)
	case domain.EventSendFile, domain.EventUploadFile:
		return s.handleSendFile(ctx, c, env.Payload)
	case domain.EventSendChunk:
		return s.handleSendChunk(ctx, c, env.Payload)
	case domain.EventExitRoom:
		return s.handleExitRoom(ctx, c, env.Payload)
	default:
		return apperrors.NewInvalidInput(fmt.Sprintf("unknown event type: %s", env.Type))
	}
}

func (s *WebSocketServer) handleSendRequest(ctx context.Context, c *client, raw json.RawMessage) error {
	var payload SendRequestPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperrors.NewInvalidInput("malformed send_request payload")
	}
	if payload.To == "" {
		return apperrors.NewInvalidInput("target uid is required")
	}
	if payload.To == c.uid {
		return apperrors.NewInvalidInput("cannot request a session with yourself")
	}

	_, err := s.services.Negotiation.Request(ctx, c.uid, payload.To)
	return err
}

func (s *WebSocketServer) handleAcceptRequest(ctx context.Context, c *client, raw json.RawMessage) error {
	var payload AcceptRequestPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperrors.NewInvalidInput("malformed accept_request payload")
	}
	return s.services.Negotiation.Accept(ctx, c.uid, payload.From, payload.RoomID)
}

func (s *WebSocketServer) handleDeclineRequest(ctx context.Context, c *client, raw json.RawMessage) error {
	var payload DeclineRequestPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperrors.NewInvalidInput("malformed decline_request payload")
	}
	return s.services.Negotiation.Decline(ctx, c.uid, payload.From)
}

func (s *WebSocketServer) handleJoinRoom(ctx context.Context, c *client, raw json.RawMessage) error {
	var payload JoinRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperrors.NewInvalidInput("malformed join_room payload")
	}

	peer := &domain.Peer{UID: c.uid}
	if roster, err := s.services.Presence.Roster(ctx); err == nil {
		for _, p := range roster {
			if p.UID == c.uid {
				peer = p
				break
			}
		}
	}

	_, err := s.services.Rooms.Join(ctx, payload.RoomID, peer)
	return err
}

func (s *WebSocketServer) handleSendFile(ctx context.Context, c *client, raw json.RawMessage) error {
	var payload SendFilePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperrors.NewInvalidInput("malformed send_file payload")
	}
	if payload.File == nil {
		return apperrors.NewInvalidInput("file is required")
	}
	return s.services.Relay.SendFile(ctx, payload.RoomID, c.uid, payload.File)
}

func (s *WebSocketServer) handleSendChunk(ctx context.Context, c *client, raw json.RawMessage) error {
	var payload SendChunkPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperrors.NewInvalidInput("malformed send_chunk payload")
	}
	if payload.Chunk == nil {
		return apperrors.NewInvalidInput("chunk is required")
	}
	return s.services.Relay.SendChunk(ctx, payload.RoomID, c.uid, payload.Chunk)
}

func (s *WebSocketServer) handleExitRoom(ctx context.Context, c *client, raw json.RawMessage) error {
	var payload ExitRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return apperrors.NewInvalidInput("malformed exit_room payload")
	}
	return s.services.Rooms.Leave(ctx, payload.RoomID, c.uid)
}

// Notify implements ports.Notifier for a single peer.
func (s *WebSocketServer) Notify(ctx context.Context, to domain.UID, event string, payload interface{}) error {
	s.mu.RLock()
	c, ok := s.clients[to]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("peer %s is not connected", to)
	}
	return s.sendTo(c, event, "", payload)
}

// Broadcast implements ports.Notifier for all peers. A peer that cannot
// be reached is skipped; its own readPump will notice and clean up.
func (s *WebSocketServer) Broadcast(ctx context.Context, event string, payload interface{}) error {
	data, err := encodeEnvelope(event, "", payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", event, err)
	}

	s.mu.RLock()
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	for _, c := range targets {
		if err := s.enqueue(c, data); err != nil {
			s.logger.Debugw("broadcast skip", "uid", c.uid, "event", event, "error", err)
		}
	}
	return nil
}

func (s *WebSocketServer) sendTo(c *client, event, ackID string, payload interface{}) error {
	data, err := encodeEnvelope(event, ackID, payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", event, err)
	}
	return s.enqueue(c, data)
}

// enqueue hands a frame to the client's writePump. A full send buffer
// means the consumer has stalled past any useful point; the connection
// is dropped rather than blocking every other sender.
func (s *WebSocketServer) enqueue(c *client, data []byte) (err error) {
	defer func() {
		if recover() != nil {
			err = fmt.Errorf("peer %s is closed", c.uid)
		}
	}()

	select {
	case c.send <- data:
		return nil
	default:
		s.logger.Warnw("send buffer full, dropping connection", "uid", c.uid)
		c.close()
		return fmt.Errorf("peer %s send buffer full", c.uid)
	}
}

func (s *WebSocketServer) writeError(c *client, ackID string, err error) {
	appErr := apperrors.FromDomain(err)
	if ackID != "" {
		_ = s.sendTo(c, EventAck, ackID, AckPayload{OK: false, Code: string(appErr.Code), Message: appErr.Message})
		return
	}
	_ = s.sendTo(c, domain.EventError, "", ErrorPayload{Code: string(appErr.Code), Message: appErr.Message})
}

// writeErrorDirect reports an admission failure on a connection that
// has no writePump yet.
func (s *WebSocketServer) writeErrorDirect(conn *websocket.Conn, err error) {
	appErr := apperrors.FromDomain(err)
	data, encErr := encodeEnvelope(domain.EventError, "", ErrorPayload{Code: string(appErr.Code), Message: appErr.Message})
	if encErr != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

// ConnectedCount reports how many peers hold live connections.
func (s *WebSocketServer) ConnectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// IsConnected reports whether uid holds a live connection.
func (s *WebSocketServer) IsConnected(uid domain.UID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.clients[uid]
	return ok
}
