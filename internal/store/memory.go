// Package store provides ChatStore implementations: redis for
// production, in-memory for tests and redis-less development.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

var ErrRoomMissing = errors.New("room not found")

type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[domain.RoomID]domain.Room
	pairs    map[string]domain.RoomID
	messages map[domain.RoomID][]domain.Message
	unread   map[domain.UserID]map[domain.RoomID]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[domain.RoomID]domain.Room),
		pairs:    make(map[string]domain.RoomID),
		messages: make(map[domain.RoomID][]domain.Message),
		unread:   make(map[domain.UserID]map[domain.RoomID]int),
	}
}

func (s *MemoryStore) FindOrCreateRoom(_ context.Context, a, b domain.UserID) (domain.RoomID, error) {
	key := pairKey(a, b)
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.pairs[key]; ok {
		return id, nil
	}
	id := domain.RoomID(uuid.NewString())
	s.rooms[id] = domain.Room{ID: id, Participants: [2]domain.UserID{a, b}}
	s.pairs[key] = id
	return id, nil
}

func (s *MemoryStore) RoomExists(_ context.Context, id domain.RoomID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[id]
	return ok, nil
}

func (s *MemoryStore) Room(_ context.Context, id domain.RoomID) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, ErrRoomMissing
	}
	return room, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[msg.RoomID]; !ok {
		return ErrRoomMissing
	}
	s.messages[msg.RoomID] = append(s.messages[msg.RoomID], msg)
	byRoom, ok := s.unread[msg.Recipient]
	if !ok {
		byRoom = make(map[domain.RoomID]int)
		s.unread[msg.Recipient] = byRoom
	}
	byRoom[msg.RoomID]++
	return nil
}

func (s *MemoryStore) MarkRead(_ context.Context, roomID domain.RoomID, recipient domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return ErrRoomMissing
	}
	msgs := s.messages[roomID]
	for i := range msgs {
		if msgs[i].Recipient == recipient {
			msgs[i].Read = true
		}
	}
	if byRoom, ok := s.unread[recipient]; ok {
		delete(byRoom, roomID)
	}
	return nil
}

func (s *MemoryStore) UnreadCount(_ context.Context, recipient domain.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, n := range s.unread[recipient] {
		total += n
	}
	return total, nil
}

// Messages returns the room's message log; test and debug support.
func (s *MemoryStore) Messages(roomID domain.RoomID) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.messages[roomID]))
	copy(out, s.messages[roomID])
	return out
}

func pairKey(a, b domain.UserID) string {
	if b < a {
		a, b = b, a
	}
	return string(a) + ":" + string(b)
}
