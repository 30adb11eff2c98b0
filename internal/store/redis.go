package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Bishes-Maharjan/SocketRTC-sub000/internal/domain"
)

// RedisStore keeps rooms as hashes, a sorted-pair index for room
// lookup, message logs as lists and unread state as per-room counters
// plus a per-user room set to sum them.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	p := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if p == "" {
		p = "chat"
	}
	return &RedisStore{rdb: rdb, prefix: p}
}

func (s *RedisStore) roomKey(id domain.RoomID) string { return fmt.Sprintf("%s:room:%s", s.prefix, id) }
func (s *RedisStore) pairIdxKey(a, b domain.UserID) string {
	return fmt.Sprintf("%s:pair:%s", s.prefix, pairKey(a, b))
}
func (s *RedisStore) messagesKey(id domain.RoomID) string {
	return fmt.Sprintf("%s:messages:%s", s.prefix, id)
}
func (s *RedisStore) unreadKey(u domain.UserID, id domain.RoomID) string {
	return fmt.Sprintf("%s:unread:%s:%s", s.prefix, u, id)
}
func (s *RedisStore) unreadRoomsKey(u domain.UserID) string {
	return fmt.Sprintf("%s:unreadrooms:%s", s.prefix, u)
}

func (s *RedisStore) FindOrCreateRoom(ctx context.Context, a, b domain.UserID) (domain.RoomID, error) {
	idx := s.pairIdxKey(a, b)
	if id, err := s.rdb.Get(ctx, idx).Result(); err == nil && id != "" {
		return domain.RoomID(id), nil
	} else if err != nil && err != redis.Nil {
		return "", fmt.Errorf("pair lookup: %w", err)
	}

	id := domain.RoomID(uuid.NewString())
	ok, err := s.rdb.SetNX(ctx, idx, string(id), 0).Result()
	if err != nil {
		return "", fmt.Errorf("pair index: %w", err)
	}
	if !ok {
		// Lost the race; take the winner's room.
		winner, err := s.rdb.Get(ctx, idx).Result()
		if err != nil {
			return "", fmt.Errorf("pair re-lookup: %w", err)
		}
		return domain.RoomID(winner), nil
	}
	if err := s.rdb.HSet(ctx, s.roomKey(id), "a", string(a), "b", string(b)).Err(); err != nil {
		return "", fmt.Errorf("room create: %w", err)
	}
	log.Info().Str("module", "store.redis").Str("room", string(id)).Msg("room created")
	return id, nil
}

func (s *RedisStore) RoomExists(ctx context.Context, id domain.RoomID) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.roomKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("room exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Room(ctx context.Context, id domain.RoomID) (domain.Room, error) {
	vals, err := s.rdb.HGetAll(ctx, s.roomKey(id)).Result()
	if err != nil {
		return domain.Room{}, fmt.Errorf("room fetch: %w", err)
	}
	if len(vals) == 0 {
		return domain.Room{}, ErrRoomMissing
	}
	return domain.Room{
		ID:           id,
		Participants: [2]domain.UserID{domain.UserID(vals["a"]), domain.UserID(vals["b"])},
	}, nil
}

func (s *RedisStore) AppendMessage(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, s.messagesKey(msg.RoomID), data)
	pipe.Incr(ctx, s.unreadKey(msg.Recipient, msg.RoomID))
	pipe.SAdd(ctx, s.unreadRoomsKey(msg.Recipient), string(msg.RoomID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *RedisStore) MarkRead(ctx context.Context, roomID domain.RoomID, recipient domain.UserID) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.unreadKey(recipient, roomID))
	pipe.SRem(ctx, s.unreadRoomsKey(recipient), string(roomID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *RedisStore) UnreadCount(ctx context.Context, recipient domain.UserID) (int, error) {
	rooms, err := s.rdb.SMembers(ctx, s.unreadRoomsKey(recipient)).Result()
	if err != nil {
		return 0, fmt.Errorf("unread rooms: %w", err)
	}
	if len(rooms) == 0 {
		return 0, nil
	}
	keys := make([]string, len(rooms))
	for i, r := range rooms {
		keys[i] = s.unreadKey(recipient, domain.RoomID(r))
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("unread counts: %w", err)
	}
	total := 0
	for _, v := range vals {
		if v == nil {
			continue
		}
		if n, err := strconv.Atoi(fmt.Sprint(v)); err == nil {
			total += n
		}
	}
	return total, nil
}
