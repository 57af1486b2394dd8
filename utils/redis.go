package utils

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gamecatalog/models"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

const redisTimeout = 5 * time.Second

// OpenRedisPool initializes a Redis connection pool
func OpenRedisPool(dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	// Configure connection pooling
	opt.PoolSize = 100
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func sessionKey(token string) string {
	return "session:" + token
}

func userSessionsKey(userID int64) string {
	return "user_sessions:" + strconv.FormatInt(userID, 10)
}

// RedisSessionStore keeps each session in a hash that expires with the
// session, plus a per-user set indexing the session keys.
type RedisSessionStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, now: time.Now}
}

func (s *RedisSessionStore) Create(ctx context.Context, session models.Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	key := sessionKey(session.SessionToken)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    strconv.FormatInt(session.UserID, 10),
		"created_at": session.CreatedAt.Format(time.RFC3339Nano),
		"expires_at": session.ExpiresAt.Format(time.RFC3339Nano),
		"user_agent": session.UserAgent,
		"ip_address": session.IPAddress,
	})
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, userSessionsKey(session.UserID), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get returns the live session for token, or ErrSessionNotFound when it is
// missing or past its expiry.
func (s *RedisSessionStore) Get(ctx context.Context, token string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := s.client.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}

	userID, err := strconv.ParseInt(data["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt session user id: %w", err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, data["created_at"])
	expiresAt, err := time.Parse(time.RFC3339Nano, data["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("corrupt session expiry: %w", err)
	}

	session := &models.Session{
		SessionToken: token,
		UserID:       userID,
		CreatedAt:    createdAt,
		ExpiresAt:    expiresAt,
		UserAgent:    data["user_agent"],
		IPAddress:    data["ip_address"],
	}
	if session.Expired(s.now()) {
		if err := s.Delete(ctx, token); err != nil {
			return nil, err
		}
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a single session and its reference in the user index
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	key := sessionKey(token)
	raw, err := s.client.HGet(ctx, key, "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if userID, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if err := s.client.SRem(ctx, userSessionsKey(userID), key).Err(); err != nil {
			return fmt.Errorf("delete session index: %w", err)
		}
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteUser removes all sessions associated with a specific user
func (s *RedisSessionStore) DeleteUser(ctx context.Context, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	index := userSessionsKey(userID)
	keys, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}
	if err := s.client.Del(ctx, append(keys, index)...).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}
