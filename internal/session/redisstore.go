package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix     = "loanlens:session:v1:"
	redisChannelSuffix = ":events"
	redisOpTimeout     = 2 * time.Second
)

// Persisted hash fields, matching the browser's storage keys.
const (
	fieldToken    = "access_token"
	fieldUserID   = "user_id"
	fieldUserName = "user_name"
)

// RedisStore persists the session in a Redis hash, for setups where several
// console processes on a shared workstation must see the same login. Writes
// publish a change event so other processes react without polling; the
// publishing process tags events with its own id and ignores them on receipt.
type RedisStore struct {
	client  *redis.Client
	key     string
	channel string
	sender  string
}

// NewRedisStore scopes the persisted session by profile so distinct consoles
// (admin, client) do not clobber each other.
func NewRedisStore(client *redis.Client, profile string) *RedisStore {
	key := redisKeyPrefix + profile
	return &RedisStore{
		client:  client,
		key:     key,
		channel: key + redisChannelSuffix,
		sender:  uuid.New().String(),
	}
}

// Load reads the persisted session; an absent hash loads as the zero session.
func (s *RedisStore) Load() (Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Session{}, fmt.Errorf("load session hash: %w", err)
	}
	return Session{
		Token:    fields[fieldToken],
		UserID:   fields[fieldUserID],
		UserName: fields[fieldUserName],
	}, nil
}

// Save persists the session and announces the write.
func (s *RedisStore) Save(sess Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.HSet(ctx, s.key,
		fieldToken, sess.Token,
		fieldUserID, sess.UserID,
		fieldUserName, sess.UserName,
	).Err(); err != nil {
		return fmt.Errorf("save session hash: %w", err)
	}
	return s.announce(ctx)
}

// Clear removes the persisted session and announces the write.
func (s *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session hash: %w", err)
	}
	return s.announce(ctx)
}

// Watch subscribes to session change events until ctx is done, invoking
// onChange for every event published by another process.
func (s *RedisStore) Watch(ctx context.Context, onChange func()) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if msg.Payload != s.sender {
				onChange()
			}
		}
	}
}

func (s *RedisStore) announce(ctx context.Context) error {
	if err := s.client.Publish(ctx, s.channel, s.sender).Err(); err != nil {
		return fmt.Errorf("announce session change: %w", err)
	}
	return nil
}
