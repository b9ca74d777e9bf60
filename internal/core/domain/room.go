package domain

import "time"

// RoomID is the opaque two-party session identifier minted by the
// negotiation coordinator.
type RoomID string

// MaxRoomMembers is fixed by the protocol: a session is always one-to-one.
const MaxRoomMembers = 2

// Room is a two-party session. Members holds at most MaxRoomMembers
// peers; a room with a single member is waiting for its counterpart.
type Room struct {
	ID        RoomID    `json:"room_id"`
	Members   []*Peer   `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// Member returns the member with the given uid, or nil.
func (r *Room) Member(uid UID) *Peer {
	for _, m := range r.Members {
		if m.UID == uid {
			return m
		}
	}
	return nil
}

// Counterpart returns the other member of the room, or nil while the
// room is still waiting for one.
func (r *Room) Counterpart(uid UID) *Peer {
	for _, m := range r.Members {
		if m.UID != uid {
			return m
		}
	}
	return nil
}

// Full reports whether the room has reached its member limit.
func (r *Room) Full() bool {
	return len(r.Members) >= MaxRoomMembers
}

// Active reports whether both members have joined.
func (r *Room) Active() bool {
	return len(r.Members) == MaxRoomMembers
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	cp := &Room{ID: r.ID, CreatedAt: r.CreatedAt}
	for _, m := range r.Members {
		cp.Members = append(cp.Members, m.Clone())
	}
	return cp
}
