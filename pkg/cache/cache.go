// Package cache stores compiled programs keyed by sha256(source || opt
// level). gembiler serve opens the configured backend; the compile, run and
// watch commands compile from source every time and do not consult it.
// Three interchangeable backends are provided: an in-memory store with
// per-entry TTL that evicts the oldest insertion when full (default), an
// on-disk SQLite table, and plain Redis string keys, selected by
// pkg/config. Grounded on the reference cache package's Entry/Stats/Cache
// interface shape for the in-memory backend, and the reference sqlite/redis
// client packages for the other two.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jakubdabek/gembiler/pkg/config"
	gredis "github.com/jakubdabek/gembiler/pkg/redis"
)

// Key derives the cache key for a compile: the source text and the
// optimization level both participate, so changing either invalidates the
// cached entry.
func Key(source string, opt config.OptLevel) string {
	h := sha256.New()
	h.Write([]byte(source))
	fmt.Fprintf(h, ":%d", opt)
	return hex.EncodeToString(h.Sum(nil))
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits   uint64
	Misses uint64
	Sets   uint64
}

// Cache is the interface every backend implements; values are pre-rendered
// assembler text, already emitted, so a hit skips the entire pipeline.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, assembly string, ttl time.Duration) error
	Stats() Stats
	Close() error
}

// New constructs the backend cfg.CacheBackend selects.
func New(cfg *config.Config) (Cache, error) {
	switch cfg.CacheBackend {
	case config.CacheMemory, "":
		return NewMemory(1000), nil
	case config.CacheSQLite:
		return NewSQLite(cfg.SQLitePath)
	case config.CacheRedis:
		return NewRedis(cfg.RedisAddr)
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.CacheBackend)
	}
}

// ----------------------------------------------------------------------
// In-memory FIFO backend
// ----------------------------------------------------------------------

type memEntry struct {
	value     string
	expiresAt time.Time
}

func (e memEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// Memory is a capacity-bounded in-memory cache with per-entry TTL and
// simple FIFO-on-overflow eviction (no access-order bookkeeping; a batch
// compiler's cache does not need true LRU recency to be effective).
type Memory struct {
	mu       sync.Mutex
	capacity int
	order    []string
	items    map[string]memEntry
	stats    Stats
}

// NewMemory creates an in-memory cache holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Memory{capacity: capacity, items: make(map[string]memEntry)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok || e.expired() {
		m.stats.Misses++
		return "", false, nil
	}
	m.stats.Hits++
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, assembly string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[key]; !exists {
		if len(m.order) >= m.capacity {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.items, oldest)
		}
		m.order = append(m.order, key)
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	m.items[key] = memEntry{value: assembly, expiresAt: expiresAt}
	m.stats.Sets++
	return nil
}

func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *Memory) Close() error { return nil }

// ----------------------------------------------------------------------
// SQLite backend
// ----------------------------------------------------------------------

// SQLite stores cache entries in a local on-disk database; suited to a
// single developer's gembiler watch session across process restarts.
type SQLite struct {
	mu    sync.Mutex
	db    *sql.DB
	stats Stats
}

// NewSQLite opens (creating if needed) the SQLite-backed cache at path.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "gembiler-cache.db"
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("cache: open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS compile_cache (
		key TEXT PRIMARY KEY,
		assembly TEXT NOT NULL,
		expires_at INTEGER
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create table: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var assembly string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, `SELECT assembly, expires_at FROM compile_cache WHERE key = ?`, key).Scan(&assembly, &expiresAt)
	if err == sql.ErrNoRows {
		s.stats.Misses++
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: query: %w", err)
	}
	if expiresAt != 0 && time.Now().Unix() > expiresAt {
		s.stats.Misses++
		return "", false, nil
	}
	s.stats.Hits++
	return assembly, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, assembly string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).Unix()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO compile_cache (key, assembly, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET assembly = excluded.assembly, expires_at = excluded.expires_at`,
		key, assembly, expiresAt)
	if err != nil {
		return fmt.Errorf("cache: upsert: %w", err)
	}
	s.stats.Sets++
	return nil
}

func (s *SQLite) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *SQLite) Close() error { return s.db.Close() }

// ----------------------------------------------------------------------
// Redis backend
// ----------------------------------------------------------------------

// Redis stores cache entries in a shared Redis instance, suited to
// gembiler serve instances sharing a compile cache across a small team.
type Redis struct {
	mu     sync.Mutex
	client *gredis.Client
	stats  Stats
}

// NewRedis connects to a Redis instance at addr for use as the shared
// compile cache backend.
func NewRedis(addr string) (*Redis, error) {
	client := gredis.NewClient(gredis.DefaultConfig(addr))
	if err := client.Connect(context.Background()); err != nil {
		return nil, fmt.Errorf("cache: connect redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := r.client.Get(ctx, "gembiler:cache:"+key)
	if err == gredis.Nil {
		r.stats.Misses++
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache: redis get: %w", err)
	}
	r.stats.Hits++
	return string(b), true, nil
}

func (r *Redis) Set(ctx context.Context, key string, assembly string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.Set(ctx, "gembiler:cache:"+key, []byte(assembly), ttl); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	r.stats.Sets++
	return nil
}

func (r *Redis) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Redis) Close() error { return r.client.Close() }
