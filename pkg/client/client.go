package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/infrastructure/signal"
	"github.com/Arnob004/FileShare/pkg/retry"
)

const (
	// DefaultChunkSize is the encoded-bytes-per-chunk used when a file
	// is too large for a single frame.
	DefaultChunkSize = 256 << 10

	// DefaultChunkThreshold is the encoded size above which SendFile
	// switches to the chunked sub-protocol.
	DefaultChunkThreshold = 1 << 20

	// DefaultMaxFileSize mirrors the server-side relay cap.
	DefaultMaxFileSize = 5 << 30

	defaultAckTimeout = 5 * time.Second

	reconnectAttempts = 5
	reconnectDelay    = time.Second
)

var (
	errNotConnected = errors.New("client: not connected")

	// ErrFileTooLarge mirrors the server-side rejection so callers can
	// fail before uploading anything.
	ErrFileTooLarge = errors.New("client: file exceeds the relay size limit")
)

// Handlers are the application callbacks. All of them are optional and
// all are invoked from the single reader goroutine; a slow handler
// stalls the session.
type Handlers struct {
	OnRoster        func([]*domain.Peer)
	OnRequest       func(domain.RequestNotice)
	OnAccepted      func(domain.RequestNotice)
	OnDeclined      func(domain.RequestNotice)
	OnConnectedUser func(domain.RoomNotice)
	OnFile          func(domain.FileNotice)
	OnUserLeft      func(domain.RoomNotice)
	OnError         func(signal.ErrorPayload)
	OnDisconnect    func(error)
}

// Options configures a Client.
type Options struct {
	URL   string
	UID   domain.UID
	Name  string
	Photo string

	ChunkSize      int
	ChunkThreshold int
	MaxFileSize    int64
	AckTimeout     time.Duration

	Handlers Handlers
	Logger   *zap.SugaredLogger
}

// Client is a protocol peer. It reconnects automatically (fixed policy,
// five attempts one second apart) and re-admits itself under the same
// uid so the session identity survives transport drops.
type Client struct {
	opts      Options
	transport *transport
	assembler *Assembler

	mu      sync.RWMutex
	self    *domain.Peer
	roster  []*domain.Peer
	records []TransferRecord

	ackMu      sync.Mutex
	ackWaiters map[string]chan signal.AckPayload

	closed chan struct{}
	once   sync.Once
	logger *zap.SugaredLogger
}

func New(opts Options) *Client {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkThreshold <= 0 {
		opts.ChunkThreshold = DefaultChunkThreshold
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = defaultAckTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	c := &Client{
		opts:       opts,
		transport:  newTransport(opts.URL),
		ackWaiters: make(map[string]chan signal.AckPayload),
		closed:     make(chan struct{}),
		logger:     logger,
	}
	c.assembler = NewAssembler(func(file *domain.FilePayload) {
		c.record(DirectionReceived, NewTransferID(file.Name), file)
		if c.opts.Handlers.OnFile != nil {
			c.opts.Handlers.OnFile(domain.FileNotice{File: file})
		}
	})
	return c
}

// Connect dials the server, admits the peer, and starts the reader.
// It returns once the welcome frame has been received, so Self() is
// valid afterwards.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.transport.dial(ctx); err != nil {
		return fmt.Errorf("client: dial %s: %w", c.opts.URL, err)
	}
	if err := c.admit(); err != nil {
		c.transport.close()
		return err
	}

	go c.readLoop()
	return nil
}

// admit sends new_user and waits for the welcome reply.
func (c *Client) admit() error {
	err := c.emit(domain.EventNewUser, "", signal.NewUserPayload{
		UID:   c.currentUID(),
		Name:  c.opts.Name,
		Photo: c.opts.Photo,
	})
	if err != nil {
		return fmt.Errorf("client: admission: %w", err)
	}

	for {
		env, err := c.transport.read()
		if err != nil {
			return fmt.Errorf("client: admission read: %w", err)
		}
		switch env.Type {
		case signal.EventWelcome:
			var welcome signal.WelcomePayload
			if err := json.Unmarshal(env.Payload, &welcome); err != nil {
				return fmt.Errorf("client: malformed welcome: %w", err)
			}
			c.mu.Lock()
			c.self = welcome.User
			c.mu.Unlock()
			return nil
		case domain.EventError:
			var perr signal.ErrorPayload
			_ = json.Unmarshal(env.Payload, &perr)
			return fmt.Errorf("client: admission rejected: %s: %s", perr.Code, perr.Message)
		default:
			// Roster broadcasts may land before the welcome; fold them in.
			c.dispatch(env)
		}
	}
}

func (c *Client) currentUID() domain.UID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.self != nil {
		return c.self.UID
	}
	return c.opts.UID
}

// Close ends the session. No reconnection is attempted afterwards.
func (c *Client) Close() {
	c.once.Do(func() { close(c.closed) })
	c.transport.close()
}

// Self returns the admitted identity, nil before Connect completes.
func (c *Client) Self() *domain.Peer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.self.Clone()
}

// Roster returns the latest online list pushed by the server.
func (c *Client) Roster() []*domain.Peer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.Peer, len(c.roster))
	for i, p := range c.roster {
		out[i] = p.Clone()
	}
	return out
}

// SendRequest asks uid for a session. The answer arrives via OnAccepted
// or OnDeclined.
func (c *Client) SendRequest(to domain.UID) error {
	return c.emit(domain.EventSendRequest, "", signal.SendRequestPayload{To: to})
}

// Accept resolves a pending request positively. The room id must be the
// one carried by the request notice.
func (c *Client) Accept(from domain.UID, roomID domain.RoomID) error {
	return c.emit(domain.EventAcceptRequest, "", signal.AcceptRequestPayload{From: from, RoomID: roomID})
}

// Decline resolves a pending request negatively.
func (c *Client) Decline(from domain.UID) error {
	return c.emit(domain.EventDeclineRequest, "", signal.DeclineRequestPayload{From: from})
}

// Join enters the session room minted during negotiation.
func (c *Client) Join(roomID domain.RoomID) error {
	return c.emit(domain.EventJoinRoom, "", signal.JoinRoomPayload{RoomID: roomID})
}

// SendFile relays a file to the room counterpart. Small files go in one
// frame; larger ones are chunked transparently.
func (c *Client) SendFile(roomID domain.RoomID, name, mimeType string, data []byte) error {
	if int64(len(data)) > c.opts.MaxFileSize {
		return ErrFileTooLarge
	}

	encoded := EncodeDataURL(mimeType, data)
	size := int64(len(data))
	transferID := NewTransferID(name)
	file := &domain.FilePayload{Name: name, Type: mimeType, Size: size, Data: encoded}

	if len(encoded) <= c.opts.ChunkThreshold {
		if err := c.emit(domain.EventSendFile, "", signal.SendFilePayload{RoomID: roomID, File: file}); err != nil {
			return err
		}
		c.record(DirectionSent, transferID, file)
		return nil
	}

	chunks := SplitChunks(transferID, name, mimeType, size, encoded, c.opts.ChunkSize)
	for _, chunk := range chunks {
		if err := c.emit(domain.EventSendChunk, "", signal.SendChunkPayload{RoomID: roomID, Chunk: chunk}); err != nil {
			return fmt.Errorf("client: chunk %d/%d: %w", chunk.Seq+1, chunk.Total, err)
		}
	}
	c.record(DirectionSent, transferID, file)
	return nil
}

func (c *Client) record(direction, transferID string, file *domain.FilePayload) {
	c.mu.Lock()
	c.records = append(c.records, TransferRecord{
		ID:        transferID,
		Name:      file.Name,
		Type:      file.Type,
		Size:      file.Size,
		Data:      file.Data,
		Direction: direction,
		Timestamp: time.Now(),
	})
	c.mu.Unlock()
}

// Transfers returns the session's transfer history, oldest first. The
// history lives only as long as the Client.
func (c *Client) Transfers() []TransferRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]TransferRecord(nil), c.records...)
}

// ExitRoom leaves the room and waits for the server acknowledgement,
// the one protocol operation the caller must not fire-and-forget.
func (c *Client) ExitRoom(ctx context.Context, roomID domain.RoomID) error {
	ackID := uuid.NewString()
	ch := make(chan signal.AckPayload, 1)

	c.ackMu.Lock()
	c.ackWaiters[ackID] = ch
	c.ackMu.Unlock()
	defer func() {
		c.ackMu.Lock()
		delete(c.ackWaiters, ackID)
		c.ackMu.Unlock()
	}()

	if err := c.emit(domain.EventExitRoom, ackID, signal.ExitRoomPayload{RoomID: roomID}); err != nil {
		return err
	}

	select {
	case ack := <-ch:
		if !ack.OK {
			return fmt.Errorf("client: exit room rejected: %s: %s", ack.Code, ack.Message)
		}
		return nil
	case <-time.After(c.opts.AckTimeout):
		return fmt.Errorf("client: exit room not acknowledged within %s", c.opts.AckTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) emit(event, ackID string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("client: encode %s: %w", event, err)
	}
	return c.transport.send(signal.Envelope{Type: event, AckID: ackID, Payload: raw})
}

func (c *Client) readLoop() {
	for {
		env, err := c.transport.read()
		if err != nil {
			select {
			case <-c.closed:
				return
			default:
			}

			c.logger.Infow("connection lost, reconnecting", "error", err)
			if rerr := c.reconnect(); rerr != nil {
				c.logger.Warnw("reconnection failed", "error", rerr)
				if c.opts.Handlers.OnDisconnect != nil {
					c.opts.Handlers.OnDisconnect(err)
				}
				return
			}
			continue
		}
		c.dispatch(env)
	}
}

// reconnect re-dials with the fixed policy and re-admits under the
// same uid, replaying the identity the server already knows.
func (c *Client) reconnect() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	return retry.Do(ctx, retry.Fixed(reconnectAttempts, reconnectDelay), func() error {
		if err := c.transport.dial(ctx); err != nil {
			return err
		}
		return c.admit()
	})
}

func (c *Client) dispatch(env signal.Envelope) {
	h := c.opts.Handlers

	switch env.Type {
	case domain.EventUpdateOnlineUsers:
		var roster []*domain.Peer
		if json.Unmarshal(env.Payload, &roster) == nil {
			view := c.rosterView(roster)
			c.mu.Lock()
			changed := !sameRoster(c.roster, view)
			c.roster = view
			c.mu.Unlock()
			if changed && h.OnRoster != nil {
				h.OnRoster(view)
			}
		}
	case domain.EventReceiveRequest:
		forward(env.Payload, h.OnRequest)
	case domain.EventRequestAccepted:
		forward(env.Payload, h.OnAccepted)
	case domain.EventRequestDeclined:
		forward(env.Payload, h.OnDeclined)
	case domain.EventConnectedUser:
		forward(env.Payload, h.OnConnectedUser)
	case domain.EventNewFile:
		var notice domain.FileNotice
		if json.Unmarshal(env.Payload, &notice) == nil && notice.File != nil {
			c.record(DirectionReceived, NewTransferID(notice.File.Name), notice.File)
			if h.OnFile != nil {
				h.OnFile(notice)
			}
		}
	case domain.EventFileChunk:
		var notice domain.ChunkNotice
		if json.Unmarshal(env.Payload, &notice) == nil && notice.Chunk != nil {
			if err := c.assembler.Add(notice.Chunk); err != nil {
				c.logger.Warnw("dropped bad chunk", "error", err)
			}
		}
	case domain.EventUserLeft:
		forward(env.Payload, h.OnUserLeft)
	case signal.EventAck:
		var ack signal.AckPayload
		if json.Unmarshal(env.Payload, &ack) == nil {
			c.ackMu.Lock()
			ch, ok := c.ackWaiters[env.AckID]
			c.ackMu.Unlock()
			if ok {
				ch <- ack
			}
		}
	case domain.EventError:
		forward(env.Payload, h.OnError)
	}
}

func forward[T any](raw json.RawMessage, handler func(T)) {
	if handler == nil {
		return
	}
	var payload T
	if json.Unmarshal(raw, &payload) == nil {
		handler(payload)
	}
}

// rosterView turns a roster broadcast into the local view: self is
// filtered out and the order is fixed so identical sets compare equal.
func (c *Client) rosterView(roster []*domain.Peer) []*domain.Peer {
	self := c.currentUID()
	view := make([]*domain.Peer, 0, len(roster))
	for _, p := range roster {
		if p.UID != self {
			view = append(view, p)
		}
	}
	sort.Slice(view, func(i, j int) bool { return view[i].UID < view[j].UID })
	return view
}

func sameRoster(a, b []*domain.Peer) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].UID != b[i].UID || a[i].Name != b[i].Name || a[i].Photo != b[i].Photo {
			return false
		}
	}
	return true
}
