package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage keys. Both entries are written and cleared together.
const (
	TokenKey = "@goold:token"
	UserKey  = "@goold:user"
)

// Entries is the raw persisted form: TokenKey and UserKey mapped to their string values.
type Entries map[string]string

type Storage interface {
	Load(ctx context.Context) (Entries, error)
	Save(ctx context.Context, entries Entries) error
	Clear(ctx context.Context) error
}

// FileStorage keeps the entries in a JSON file, replaced atomically on every write. Save merges
// into the stored entries like the other storages do.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// DefaultFilePath is ~/.config/roomsched/session.json or the OS equivalent.
func DefaultFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "roomsched", "session.json")
}

func (s *FileStorage) Load(_ context.Context) (Entries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStorage) load() (Entries, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Entries{}, nil
	}
	if err != nil {
		return nil, err
	}
	entries := Entries{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("session file %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *FileStorage) Save(_ context.Context, entries Entries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, err := s.load()
	if err != nil {
		// An unreadable file is replaced.
		merged = Entries{}
	}
	for k, v := range entries {
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStorage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RedisStorage keeps the entries under prefix+key. Writes and clears run in one MULTI/EXEC.
type RedisStorage struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStorage namespaces keys with prefix (for example a profile name). ttl 0 keeps entries
// until cleared.
func NewRedisStorage(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStorage) key(k string) string { return s.prefix + k }

func (s *RedisStorage) Load(ctx context.Context) (Entries, error) {
	vals, err := s.rdb.MGet(ctx, s.key(TokenKey), s.key(UserKey)).Result()
	if err != nil {
		return nil, err
	}
	entries := Entries{}
	for i, k := range []string{TokenKey, UserKey} {
		if v, ok := vals[i].(string); ok {
			entries[k] = v
		}
	}
	return entries, nil
}

func (s *RedisStorage) Save(ctx context.Context, entries Entries) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, s.key(k), v, s.ttl)
		}
		return nil
	})
	return err
}

func (s *RedisStorage) Clear(ctx context.Context) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(TokenKey), s.key(UserKey))
		return nil
	})
	return err
}

type MemoryStorage struct {
	mu      sync.Mutex
	entries Entries
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: Entries{}}
}

func (s *MemoryStorage) Load(context.Context) (Entries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Entries, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStorage) Save(_ context.Context, entries Entries) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		s.entries[k] = v
	}
	return nil
}

func (s *MemoryStorage) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = Entries{}
	return nil
}
