package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/rueidis"
)

var (
	// ErrSessionNotFound is returned when the learner has no running session.
	ErrSessionNotFound = errors.New("no quiz session")

	// ErrSessionConflict is returned when the session changed since it was read.
	ErrSessionConflict = errors.New("quiz session was changed concurrently")
)

// SessionStorage keeps the running session of a learner on a lesson.
type SessionStorage interface {
	// Get returns the session, or ErrSessionNotFound.
	Get(ctx context.Context, userID, lessonID string) (*Session, error)

	// Save stores the session, replacing any previous one.
	Save(ctx context.Context, userID, lessonID string, session *Session) error

	// CompareAndSave stores the session only if the stored one is still at
	// version, or returns ErrSessionConflict.
	CompareAndSave(ctx context.Context, userID, lessonID string, session *Session, version int) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, userID, lessonID string) error
}

const (
	redisSessionPrefix   = "quiz:session:"
	DefaultSessionExpire = 2 * time.Hour
)

func sessionKey(userID, lessonID string) string {
	return redisSessionPrefix + userID + ":" + lessonID
}

// RedisSessionStorage stores sessions as JSON with a lifetime refreshed
// on every save.
type RedisSessionStorage struct {
	redis  rueidis.Client
	expire time.Duration
}

// NewRedisSessionStorage creates a RedisSessionStorage. A non-positive
// expire falls back to DefaultSessionExpire.
func NewRedisSessionStorage(redis rueidis.Client, expire time.Duration) *RedisSessionStorage {
	if expire <= 0 {
		expire = DefaultSessionExpire
	}

	return &RedisSessionStorage{redis: redis, expire: expire}
}

func (s *RedisSessionStorage) Get(ctx context.Context, userID, lessonID string) (*Session, error) {
	raw, err := s.redis.Do(ctx, s.redis.B().Get().Key(sessionKey(userID, lessonID)).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrSessionNotFound
		}

		return nil, fmt.Errorf("get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &session, nil
}

func (s *RedisSessionStorage) Save(ctx context.Context, userID, lessonID string, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	err = s.redis.Do(ctx, s.redis.B().Set().Key(sessionKey(userID, lessonID)).Value(rueidis.BinaryString(raw)).Ex(s.expire).Build()).Error()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	return nil
}

// compareAndSetScript replaces KEYS[1] with ARGV[2] if the stored session
// is at version ARGV[1].
var compareAndSetScript = rueidis.NewLuaScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
	return -1
end
local stored = cjson.decode(raw)
if tonumber(stored.version or 0) ~= tonumber(ARGV[1]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'EX', ARGV[3])
return 1
`)

func (s *RedisSessionStorage) CompareAndSave(ctx context.Context, userID, lessonID string, session *Session, version int) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	result, err := compareAndSetScript.Exec(ctx, s.redis,
		[]string{sessionKey(userID, lessonID)},
		[]string{strconv.Itoa(version), string(raw), strconv.FormatInt(int64(s.expire/time.Second), 10)},
	).AsInt64()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	switch result {
	case -1:
		return ErrSessionNotFound
	case 0:
		return ErrSessionConflict
	default:
		return nil
	}
}

func (s *RedisSessionStorage) Delete(ctx context.Context, userID, lessonID string) error {
	if err := s.redis.Do(ctx, s.redis.B().Del().Key(sessionKey(userID, lessonID)).Build()).Error(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// getCurrentTTL is used by the tests.
func (s *RedisSessionStorage) getCurrentTTL(ctx context.Context, userID, lessonID string) (int64, error) {
	return s.redis.Do(ctx, s.redis.B().Ttl().Key(sessionKey(userID, lessonID)).Build()).AsInt64()
}

// MemorySessionStorage keeps sessions in process memory. It is used by
// the tests and the admin CLI, which have no Redis at hand.
type MemorySessionStorage struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func NewMemorySessionStorage() *MemorySessionStorage {
	return &MemorySessionStorage{sessions: make(map[string][]byte)}
}

func (m *MemorySessionStorage) Get(_ context.Context, userID, lessonID string) (*Session, error) {
	m.mu.Lock()
	raw, ok := m.sessions[sessionKey(userID, lessonID)]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	// decode a copy so callers never share state with the storage
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &session, nil
}

func (m *MemorySessionStorage) Save(_ context.Context, userID, lessonID string, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionKey(userID, lessonID)] = raw

	return nil
}

func (m *MemorySessionStorage) CompareAndSave(_ context.Context, userID, lessonID string, session *Session, version int) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(userID, lessonID)
	stored, ok := m.sessions[key]
	if !ok {
		return ErrSessionNotFound
	}

	var current Session
	if err := json.Unmarshal(stored, &current); err != nil {
		return fmt.Errorf("unmarshal session: %w", err)
	}
	if current.Version != version {
		return ErrSessionConflict
	}

	m.sessions[key] = raw
	return nil
}

func (m *MemorySessionStorage) Delete(_ context.Context, userID, lessonID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey(userID, lessonID))

	return nil
}
