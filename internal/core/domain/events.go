package domain

// Wire event names. Client-to-server events are handled by the signal
// server; server-to-client events are emitted through the Notifier.
const (
	// Client to server.
	EventNewUser        = "new_user"
	EventSendRequest    = "send_request"
	EventAcceptRequest  = "accept_request"
	EventDeclineRequest = "decline_request"
	EventJoinRoom       = "join_room"
	EventSendFile       = "send_file"
	EventUploadFile     = "upload_file" // legacy alias of send_file
	EventSendChunk      = "send_chunk"
	EventExitRoom       = "exit_room"

	// Server to client.
	EventUpdateOnlineUsers = "update_online_users"
	EventReceiveRequest    = "receive_request"
	EventRequestAccepted   = "request_accepted"
	EventRequestDeclined   = "request_declined"
	EventConnectedUser     = "connected_user"
	EventNewFile           = "new_file"
	EventFileChunk         = "file_chunk"
	EventUserLeft          = "user_left"
	EventError             = "error"
)

// RequestNotice is the payload of receive_request, request_accepted and
// request_declined: who the event concerns and the session it minted.
// On request_accepted both resolved identities travel along so the
// requester can render the session without a roster lookup.
type RequestNotice struct {
	From   UID    `json:"from"`
	Name   string `json:"name,omitempty"`
	Photo  string `json:"photo,omitempty"`
	RoomID RoomID `json:"room_id"`

	Sender   *Peer `json:"sender_data,omitempty"`
	Receiver *Peer `json:"receiver_data,omitempty"`
}

// RoomNotice is the payload of connected_user and user_left.
type RoomNotice struct {
	User   *Peer  `json:"user"`
	RoomID RoomID `json:"room_id"`
}

// FileNotice is the payload of new_file.
type FileNotice struct {
	From UID          `json:"from"`
	File *FilePayload `json:"file"`
}

// ChunkNotice is the payload of file_chunk.
type ChunkNotice struct {
	From  UID        `json:"from"`
	Chunk *FileChunk `json:"chunk"`
}
