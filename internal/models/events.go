package models

// Event is the payload broadcast to every member of a room's group when a
// message is sent. It is ephemeral: never persisted, and delivered to the
// sender's own connection like everyone else's.
type Event struct {
	Message        string `json:"message"`
	Sender         string `json:"sender"`
	SenderUsername string `json:"sender_username"`
}

// InboundFrame is the single frame shape clients may send.
type InboundFrame struct {
	Message string `json:"message"`
}
