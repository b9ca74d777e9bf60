package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Arnob004/FileShare/internal/core/domain"
	"github.com/Arnob004/FileShare/internal/core/ports"
)

type MemoryRoomRepository struct {
	rooms map[domain.RoomID]*domain.Room
	mu    sync.Mutex
}

func NewMemoryRoomRepository() ports.RoomRepository {
	return &MemoryRoomRepository{
		rooms: make(map[domain.RoomID]*domain.Room),
	}
}

// AddMember performs the capacity check and the insert under one lock,
// so two racing joins can never overfill a room.
func (r *MemoryRoomRepository) AddMember(ctx context.Context, id domain.RoomID, peer *domain.Peer) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		room = &domain.Room{ID: id, CreatedAt: time.Now()}
		r.rooms[id] = room
	}

	// Rejoin after reconnect replaces the stored identity.
	if existing := room.Member(peer.UID); existing != nil {
		for i, m := range room.Members {
			if m.UID == peer.UID {
				room.Members[i] = peer.Clone()
			}
		}
		return room.Clone(), nil
	}

	if room.Full() {
		return nil, domain.ErrRoomFull
	}

	room.Members = append(room.Members, peer.Clone())
	return room.Clone(), nil
}

func (r *MemoryRoomRepository) RemoveMember(ctx context.Context, id domain.RoomID, uid domain.UID) (*domain.Peer, *domain.Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, nil, domain.ErrRoomNotFound
	}

	departed := room.Member(uid)
	if departed == nil {
		return nil, nil, domain.ErrNotInRoom
	}

	members := room.Members[:0]
	for _, m := range room.Members {
		if m.UID != uid {
			members = append(members, m)
		}
	}
	room.Members = members

	remaining := room.Counterpart(uid)
	if len(room.Members) == 0 {
		delete(r.rooms, id)
	}
	return departed.Clone(), remaining.Clone(), nil
}

func (r *MemoryRoomRepository) Get(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (r *MemoryRoomRepository) FindByMember(ctx context.Context, uid domain.UID) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, room := range r.rooms {
		if room.Member(uid) != nil {
			return room.Clone(), nil
		}
	}
	return nil, domain.ErrRoomNotFound
}

func (r *MemoryRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]*domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room.Clone())
	}
	return rooms, nil
}
