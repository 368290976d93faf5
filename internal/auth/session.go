package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SessionTTL    = 24 * time.Hour
	SessionCookie = "session_id"
)

// Sessions maps session IDs to user IDs. Replace rebinds a live session to
// another user, which is how admin impersonation works.
type Sessions interface {
	Create(ctx context.Context, userID string) (string, error)
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	Replace(ctx context.Context, sessionID, userID string) error
}

// RedisSessions implements Sessions on Redis.
type RedisSessions struct {
	rdb *redis.Client
}

func NewRedisSessions(rdb *redis.Client) *RedisSessions {
	return &RedisSessions{rdb: rdb}
}

// Create stores a new session mapping sessionID -> userID.
func (s *RedisSessions) Create(ctx context.Context, userID string) (string, error) {
	sid := uuid.New().String()
	err := s.rdb.Set(ctx, "session:"+sid, userID, SessionTTL).Err()
	return sid, err
}

// Get returns the userID for a session, or "" if not found / expired.
func (s *RedisSessions) Get(ctx context.Context, sessionID string) (string, error) {
	val, err := s.rdb.Get(ctx, "session:"+sessionID).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Delete removes a session.
func (s *RedisSessions) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, "session:"+sessionID).Err()
}

// Replace points an existing session at a different user, restarting the TTL.
func (s *RedisSessions) Replace(ctx context.Context, sessionID, userID string) error {
	return s.rdb.Set(ctx, "session:"+sessionID, userID, SessionTTL).Err()
}
