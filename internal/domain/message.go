package domain

import "time"

// Message is the persisted chat message record. The relay only writes
// these through the store and broadcasts a lightweight projection.
type Message struct {
	RoomID    RoomID    `json:"roomId"`
	Sender    UserID    `json:"sender"`
	Recipient UserID    `json:"recipient"`
	Text      string    `json:"text"`
	Read      bool      `json:"read"`
	SentAt    time.Time `json:"sentAt"`
}
