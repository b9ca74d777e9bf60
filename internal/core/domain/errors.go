package domain

import "errors"

var (
	ErrUnknownPeer     = errors.New("unknown peer")
	ErrPeerNotFound    = errors.New("peer not found")
	ErrStaleRequest    = errors.New("stale request")
	ErrRequestNotFound = errors.New("request not found")
	ErrRoomFull        = errors.New("room is full")
	ErrInvalidRoom     = errors.New("invalid room")
	ErrRoomNotFound    = errors.New("room not found")
	ErrNotInRoom       = errors.New("not in room")
	ErrAlreadyInRoom   = errors.New("already in another room")
	ErrFileTooLarge    = errors.New("file too large")
)
