package ports

import (
	"context"

	"github.com/Arnob004/FileShare/internal/core/domain"
)

// PeerRepository is the live presence set. Implementations must
// serialize mutations; every connection mutates it concurrently.
type PeerRepository interface {
	// Admit inserts or replaces the entry keyed by peer.UID.
	Admit(ctx context.Context, peer *domain.Peer) error
	GetByUID(ctx context.Context, uid domain.UID) (*domain.Peer, error)
	Exists(ctx context.Context, uid domain.UID) (bool, error)
	Remove(ctx context.Context, uid domain.UID) error
	List(ctx context.Context) ([]*domain.Peer, error)
}

// RequestRepository holds pending connection requests keyed by
// (from, to). The Take operation is the exactly-once primitive for
// accept/decline races: at most one caller ever receives the entry.
type RequestRepository interface {
	// PutIfAbsent stores req unless an entry for (From, To) already
	// exists, in which case the existing entry is returned and created
	// is false.
	PutIfAbsent(ctx context.Context, req *domain.ConnectionRequest) (existing *domain.ConnectionRequest, created bool, err error)
	// Take atomically removes and returns the entry for (from, to).
	// A non-empty roomID must also match or the entry is left in place.
	// Returns domain.ErrRequestNotFound when nothing (matching) exists.
	Take(ctx context.Context, from, to domain.UID, roomID domain.RoomID) (*domain.ConnectionRequest, error)
	// DeleteByPeer removes every entry originating from or targeting
	// uid and returns the removed entries.
	DeleteByPeer(ctx context.Context, uid domain.UID) ([]*domain.ConnectionRequest, error)
	ListByTarget(ctx context.Context, to domain.UID) ([]*domain.ConnectionRequest, error)
}

// RoomRepository holds active sessions. Membership mutations are atomic
// with respect to the capacity check so a join racing another join can
// never overfill a room.
type RoomRepository interface {
	// AddMember adds peer to the room, creating it on first join.
	// Re-adding an existing member replaces its identity (rejoin after
	// reconnect). Returns domain.ErrRoomFull when two other members are
	// already present.
	AddMember(ctx context.Context, id domain.RoomID, peer *domain.Peer) (*domain.Room, error)
	// RemoveMember removes uid from the room and deletes the room when
	// it becomes empty. Returns the departed peer and the remaining
	// member (nil when none).
	RemoveMember(ctx context.Context, id domain.RoomID, uid domain.UID) (departed, remaining *domain.Peer, err error)
	Get(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	FindByMember(ctx context.Context, uid domain.UID) (*domain.Room, error)
	List(ctx context.Context) ([]*domain.Room, error)
}
