package domain

import "time"

// UID identifies a connected peer. It is a short alphanumeric token,
// 5 characters in the reference deployment, exchanged out-of-band as a
// scannable code.
type UID string

// Peer is a connected participant as seen by the presence registry and
// by other peers in roster broadcasts.
type Peer struct {
	UID         UID       `json:"uid"`
	Name        string    `json:"name"`
	Photo       string    `json:"photo,omitempty"`
	ConnectedAt time.Time `json:"-"`
}

// Clone returns a copy so repository internals never leak mutable state.
func (p *Peer) Clone() *Peer {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
