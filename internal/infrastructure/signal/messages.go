package signal

import (
	"encoding/json"

	"github.com/Arnob004/FileShare/internal/core/domain"
)

// EventAck is the transport-level reply to any envelope carrying an
// ack_id. Only exit_room uses it in the reference client, but the
// mechanism is event-agnostic.
const EventAck = "ack"

// Envelope is the wire frame. Payload stays raw until the type is
// known; AckID, when set by the sender, requests an ack reply carrying
// the same id.
type Envelope struct {
	Type    string          `json:"type"`
	AckID   string          `json:"ack_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type NewUserPayload struct {
	UID   domain.UID `json:"uid,omitempty"`
	Name  string     `json:"name,omitempty"`
	Photo string     `json:"photo,omitempty"`
}

type SendRequestPayload struct {
	To domain.UID `json:"to"`
}

type AcceptRequestPayload struct {
	From   domain.UID    `json:"from"`
	RoomID domain.RoomID `json:"room_id"`
}

type DeclineRequestPayload struct {
	From domain.UID `json:"from"`
}

type JoinRoomPayload struct {
	RoomID domain.RoomID `json:"room_id"`
}

type SendFilePayload struct {
	RoomID domain.RoomID       `json:"room_id"`
	File   *domain.FilePayload `json:"file"`
}

type SendChunkPayload struct {
	RoomID domain.RoomID     `json:"room_id"`
	Chunk  *domain.FileChunk `json:"chunk"`
}

type ExitRoomPayload struct {
	RoomID domain.RoomID `json:"room_id"`
}

// WelcomePayload is the first server frame after admission; it tells
// the client the identity it was admitted under (relevant when the uid
// or name were provisioned server-side).
type WelcomePayload struct {
	User *domain.Peer `json:"user"`
}

type AckPayload struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func encodeEnvelope(eventType, ackID string, payload interface{}) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return json.Marshal(Envelope{Type: eventType, AckID: ackID, Payload: raw})
}
