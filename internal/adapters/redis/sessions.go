package redisad

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"foodfinder/internal/domain"
)

// Sessions keeps one JSON blob per login under session:<token>. Redis TTL
// is the only expiry mechanism; there is no sweeper.
type Sessions struct{ c *redis.Client }

func NewSessions(addr, pass string, db int) *Sessions {
	return &Sessions{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func NewSessionsWithClient(c *redis.Client) *Sessions { return &Sessions{c: c} }

func sessionKey(token string) string { return "session:" + token }

func (s *Sessions) Put(ctx context.Context, sess domain.Session, ttlSec int) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.c.Set(ctx, sessionKey(sess.Token), b, time.Duration(ttlSec)*time.Second).Err()
}

func (s *Sessions) Get(ctx context.Context, token string) (domain.Session, error) {
	v, err := s.c.Get(ctx, sessionKey(token)).Bytes()
	if err == redis.Nil {
		return domain.Session{}, domain.ErrNoSession
	}
	if err != nil {
		return domain.Session{}, err
	}
	var sess domain.Session
	if err := json.Unmarshal(v, &sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

func (s *Sessions) Del(ctx context.Context, token string) error {
	return s.c.Del(ctx, sessionKey(token)).Err()
}
