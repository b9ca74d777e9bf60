package domain

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// ConnectionRequest is a pending negotiation between a requester and a
// target. It is keyed by (From, To); a target may hold pending requests
// from several requesters at once.
type ConnectionRequest struct {
	From      UID           `json:"from"`
	To        UID           `json:"to"`
	RoomID    RoomID        `json:"room_id"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"-"`
}

// DeriveRoomID mints the session identifier for a request. The result is
// order-sensitive (requester first), so it must be computed exactly once
// at request time and carried as an opaque token afterwards, never
// re-derived by either side.
func DeriveRoomID(from, to UID) RoomID {
	return RoomID(string(from) + string(to))
}
