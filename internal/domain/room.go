package domain

type RoomID string

// Room is the persisted chat/call entity two users share. The relay
// never creates these implicitly; lookups go through the chat store.
type Room struct {
	ID           RoomID    `json:"id"`
	Participants [2]UserID `json:"participants"`
}

// Other returns the participant that is not u. Falls back to the first
// participant when u is not part of the room.
func (r Room) Other(u UserID) UserID {
	if r.Participants[0] == u {
		return r.Participants[1]
	}
	if r.Participants[1] == u {
		return r.Participants[0]
	}
	return r.Participants[0]
}
