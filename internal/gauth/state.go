package gauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coursetutor/backend/internal/authutil"
	"github.com/redis/rueidis"
)

// ErrBadState is returned when the state token is not found.
var ErrBadState = errors.New("bad state")

type StateStorage interface {
	// New creates a new state token carrying data.
	//
	// The token is valid for 10 minutes.
	New(ctx context.Context, data []byte) (string, error)

	// Use returns the data of the state token and deletes it.
	//
	// If the state token is not found, it returns ErrBadState.
	Use(ctx context.Context, token string) ([]byte, error)
}

const (
	stateTokenPrefix = "gauth:state:"
	stateTokenExpire = 10 * time.Minute
)

// RedisStateStorage is a state storage that uses Redis.
type RedisStateStorage struct {
	redis rueidis.Client
}

func NewRedisStateStorage(redis rueidis.Client) *RedisStateStorage {
	return &RedisStateStorage{redis: redis}
}

func (s *RedisStateStorage) New(ctx context.Context, data []byte) (string, error) {
	token, err := authutil.GenerateToken()
	if err != nil {
		return "", err
	}

	if err := s.redis.Do(ctx, s.redis.B().Set().
		Key(stateTokenPrefix+token).
		Value(rueidis.BinaryString(data)).
		Ex(stateTokenExpire).
		Build()).Error(); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}

	return token, nil
}

func (s *RedisStateStorage) Use(ctx context.Context, token string) ([]byte, error) {
	// GETDEL makes the state single-use even with concurrent callbacks.
	data, err := s.redis.Do(ctx, s.redis.B().Getdel().Key(stateTokenPrefix+token).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrBadState
		}

		return nil, fmt.Errorf("use state: %w", err)
	}

	return data, nil
}

// getCurrentTTL is used by the tests.
func (s *RedisStateStorage) getCurrentTTL(ctx context.Context, token string) (int64, error) {
	return s.redis.Do(ctx, s.redis.B().Ttl().Key(stateTokenPrefix+token).Build()).AsInt64()
}
