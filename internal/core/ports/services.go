package ports

import (
	"context"

	"github.com/Arnob004/FileShare/internal/core/domain"
)

// IdentityService provisions identities for peers that connect without
// one.
type IdentityService interface {
	// ProvisionUID returns a short uid that does not collide with any
	// currently admitted peer.
	ProvisionUID(ctx context.Context) (domain.UID, error)
	// DefaultDisplayName returns a generated display name.
	DefaultDisplayName() string
}

// PresenceService is the process-wide registry of connected peers.
type PresenceService interface {
	// Admit registers the peer and broadcasts the updated roster.
	Admit(ctx context.Context, peer *domain.Peer) (*domain.Peer, error)
	// Remove unregisters the uid and broadcasts the updated roster.
	Remove(ctx context.Context, uid domain.UID) error
	Roster(ctx context.Context) ([]*domain.Peer, error)
	BroadcastRoster(ctx context.Context) error
}

// NegotiationService runs the request/accept/decline handshake.
type NegotiationService interface {
	// Request mints the session roomId and delivers receive_request to
	// the target. Repeating an unresolved request returns the already
	// minted roomId without creating a second pending entry.
	Request(ctx context.Context, from, to domain.UID) (domain.RoomID, error)
	// Accept resolves the pending request from->self. Exactly one of two
	// racing accepts wins; the other observes domain.ErrStaleRequest.
	Accept(ctx context.Context, self, from domain.UID, roomID domain.RoomID) error
	// Decline resolves the pending request from->self negatively.
	Decline(ctx context.Context, self, from domain.UID) error
	// DiscardFor drops every pending request involving uid (disconnect
	// cleanup) and notifies the counterparties of requests uid was the
	// target of.
	DiscardFor(ctx context.Context, uid domain.UID) error
}

// RoomService manages two-party session membership and lifecycle.
type RoomService interface {
	Join(ctx context.Context, roomID domain.RoomID, peer *domain.Peer) (*domain.Room, error)
	// Leave is the only acknowledged operation in the protocol: the
	// caller must observe success or failure before navigating away.
	Leave(ctx context.Context, roomID domain.RoomID, uid domain.UID) error
	// HandleDisconnect treats a transport-level drop as an implicit
	// leave of whatever room uid is a member of.
	HandleDisconnect(ctx context.Context, uid domain.UID) error
}

// RelayService forwards encoded file payloads between the two members
// of an active session. Fire-and-forget: hand-off to the transport is
// the only acknowledgement.
type RelayService interface {
	SendFile(ctx context.Context, roomID domain.RoomID, sender domain.UID, file *domain.FilePayload) error
	SendChunk(ctx context.Context, roomID domain.RoomID, sender domain.UID, chunk *domain.FileChunk) error
}

// IdentityCodec is the out-of-band identity exchange boundary: uids are
// shared between devices as scannable images. Implementations are
// interchangeable; the core only relies on Decode(Encode(uid)) == uid.
type IdentityCodec interface {
	Encode(uid domain.UID) ([]byte, error)
	Decode(image []byte) (domain.UID, error)
}
