package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coursetutor/backend/internal/authutil"
	"github.com/redis/rueidis"
)

// RedisStorage is the storage for authentication token.
type RedisStorage struct {
	redis  rueidis.Client
	expire time.Duration
}

const redisTokenPrefix = "auth:token:"

type RedisStorageOption func(*RedisStorage)

// WithTokenExpire sets the sliding lifetime of the tokens.
func WithTokenExpire(expire time.Duration) RedisStorageOption {
	return func(s *RedisStorage) {
		s.expire = expire
	}
}

// NewRedisStorage creates a new RedisStorage.
func NewRedisStorage(redis rueidis.Client, opts ...RedisStorageOption) *RedisStorage {
	s := &RedisStorage{redis: redis, expire: DefaultTokenExpire}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RedisStorage) Get(ctx context.Context, token string) (TokenInfo, error) {
	info, err := s.Peek(ctx, token)
	if err != nil {
		return TokenInfo{}, err
	}

	err = s.redis.Do(ctx, s.redis.B().Expire().Key(redisTokenPrefix+token).Seconds(int64(s.expire.Seconds())).Build()).Error()
	if err != nil {
		return TokenInfo{}, fmt.Errorf("extend token: %w", err)
	}

	return info, nil
}

func (s *RedisStorage) Peek(ctx context.Context, token string) (TokenInfo, error) {
	raw, err := s.redis.Do(ctx, s.redis.B().Get().Key(redisTokenPrefix+token).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return TokenInfo{}, ErrNotFound
		}

		return TokenInfo{}, fmt.Errorf("get token: %w", err)
	}

	var info TokenInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return TokenInfo{}, fmt.Errorf("unmarshal token info: %w", err)
	}

	return info, nil
}

func (s *RedisStorage) Create(ctx context.Context, info TokenInfo) (string, error) {
	token, err := authutil.GenerateToken()
	if err != nil {
		return "", err
	}

	infoBytes, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("marshal token info: %w", err)
	}

	err = s.redis.Do(ctx, s.redis.B().Set().Key(redisTokenPrefix+token).Value(rueidis.BinaryString(infoBytes)).Ex(s.expire).Build()).Error()
	if err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	return token, nil
}

func (s *RedisStorage) Delete(ctx context.Context, token string) error {
	deleted, err := s.redis.Do(ctx, s.redis.B().Del().Key(redisTokenPrefix+token).Build()).AsInt64()
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}

	if deleted == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *RedisStorage) DeleteByUser(ctx context.Context, userID string) error {
	var cursor uint64

	for {
		scanEntry, err := s.redis.Do(ctx, s.redis.B().Scan().Cursor(cursor).Match(redisTokenPrefix+"*").Count(100).Build()).AsScanEntry()
		if err != nil {
			return fmt.Errorf("list tokens: %w", err)
		}

		for _, key := range scanEntry.Elements {
			raw, err := s.redis.Do(ctx, s.redis.B().Get().Key(key).Build()).AsBytes()
			if err != nil {
				if rueidis.IsRedisNil(err) {
					continue // expired during the scan
				}

				return fmt.Errorf("get token info: %w", err)
			}

			var info TokenInfo
			if err := json.Unmarshal(raw, &info); err != nil {
				return fmt.Errorf("unmarshal token info: %w", err)
			}

			if info.UserID != userID {
				continue
			}

			if err := s.redis.Do(ctx, s.redis.B().Del().Key(key).Build()).Error(); err != nil {
				return fmt.Errorf("delete token: %w", err)
			}
		}

		if scanEntry.Cursor == 0 {
			break
		}

		cursor = scanEntry.Cursor
	}

	return nil
}

// GetCurrentTTL returns the remaining lifetime of the token in seconds.
func (s *RedisStorage) GetCurrentTTL(ctx context.Context, token string) (int64, error) {
	ttl, err := s.redis.Do(ctx, s.redis.B().Ttl().Key(redisTokenPrefix+token).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("get token ttl: %w", err)
	}
	if ttl < 0 {
		return 0, ErrNotFound
	}

	return ttl, nil
}
