package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

// Inbound event names.
const (
	EvtJoinRoom       = "join-room"
	EvtLeaveRoom      = "leave-room"
	EvtSendMessage    = "send-message"
	EvtTyping         = "typing"
	EvtStopTyping     = "stop-typing"
	EvtJoinVideoRoom  = "join-video-room"
	EvtLeaveVideoRoom = "leave-video-room"
	EvtOffer          = "offer"
	EvtAnswer         = "answer"
	EvtICECandidate   = "ice-candidate"
)

// Outbound event names.
const (
	EvtUserJoined        = "user-joined"
	EvtReceiveMessage    = "receive-message"
	EvtMessagesRead      = "messages-marked-read"
	EvtUserTyping        = "user-typing"
	EvtUserStoppedTyping = "user-stopped-typing"
	EvtChattingPartner   = "chatting-partner"
	EvtUserDisconnected  = "user-disconnected"
	EvtError             = "error"
	EvtServerError       = "server-error"
)

// Envelope is the wire frame: an event name plus its raw payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an outbound event into a Frame.
func Encode(event string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", event, err)
	}
	return frame, nil
}

// RoomRef is the common {roomId} inbound payload.
type RoomRef struct {
	RoomID string `json:"roomId"`
}

// DecodeRoomRef accepts both {"roomId": "..."} and a bare string; some
// clients send join-video-room with just the id.
func DecodeRoomRef(data json.RawMessage) (domain.RoomID, error) {
	var ref RoomRef
	if err := json.Unmarshal(data, &ref); err == nil && ref.RoomID != "" {
		return domain.RoomID(ref.RoomID), nil
	}
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil && bare != "" {
		return domain.RoomID(bare), nil
	}
	return "", domain.InvalidRequest("payload carries no room id")
}

type SendMessageIn struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type OfferIn struct {
	RoomID string                    `json:"roomId"`
	Offer  webrtc.SessionDescription `json:"offer"`
}

type AnswerIn struct {
	RoomID string                    `json:"roomId"`
	Answer webrtc.SessionDescription `json:"answer"`
}

type CandidateIn struct {
	RoomID    string                  `json:"roomId"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

type UserJoined struct {
	RoomID domain.RoomID `json:"roomId"`
	User   *domain.User  `json:"user"`
}

type ReceiveMessage struct {
	RoomID    domain.RoomID `json:"roomId"`
	Sender    *domain.User  `json:"sender"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
}

type MessagesRead struct {
	RoomID domain.RoomID `json:"roomId"`
	UserID domain.UserID `json:"userId"`
}

type TypingState struct {
	RoomID domain.RoomID `json:"roomId"`
	UserID domain.UserID `json:"userId"`
}

// ChattingPartner names the peer already present in a call room.
// A null partner means "wait" (informational, not an error).
type ChattingPartner struct {
	RoomID      domain.RoomID `json:"roomId"`
	ChatPartner *domain.User  `json:"chatPartner"`
}

type UserDisconnected struct {
	RoomID domain.RoomID `json:"roomId"`
	UserID domain.UserID `json:"userId"`
}

type OfferOut struct {
	RoomID domain.RoomID             `json:"roomId"`
	From   domain.UserID             `json:"from"`
	Offer  webrtc.SessionDescription `json:"offer"`
}

type AnswerOut struct {
	RoomID domain.RoomID             `json:"roomId"`
	From   domain.UserID             `json:"from"`
	Answer webrtc.SessionDescription `json:"answer"`
}

type CandidateOut struct {
	RoomID    domain.RoomID           `json:"roomId"`
	From      domain.UserID           `json:"from"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

type ServerError struct {
	Message string `json:"message"`
}
