// Package cache implements a file-backed key-value store with TTL expiry.
// Entries are JSON files holding a write timestamp and an opaque payload;
// expired or unreadable entries are removed on the next read.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL matches the upstream crawl cadence: anything older than an
// hour is re-fetched.
const DefaultTTL = 3600 * time.Second

// envelope is the on-disk wrapper around a cached payload.
type envelope struct {
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Store is a best-effort cache rooted at a single directory. Reads heal
// the store: expired and corrupted entries are deleted rather than
// surfaced as errors.
type Store struct {
	dir    string
	ttl    time.Duration
	logger *zap.Logger

	// now is swapped in tests to move the clock.
	now func() time.Time

	mu sync.Mutex
}

// New creates the cache directory if needed and returns a Store over it.
func New(dir string, ttl time.Duration, logger *zap.Logger) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{
		dir:    dir,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Key combines a logical namespace with the raw query/brand string.
func Key(namespace, raw string) string {
	return namespace + ":" + raw
}

// Put serializes value under key. The cache is advisory, so failures are
// logged as warnings and otherwise swallowed.
func (s *Store) Put(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache: marshal payload", zap.String("key", key), zap.Error(err))
		return
	}
	env := envelope{
		Timestamp: float64(s.now().UnixNano()) / float64(time.Second),
		Data:      raw,
	}
	b, err := json.Marshal(env)
	if err != nil {
		s.logger.Warn("cache: marshal envelope", zap.String("key", key), zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		s.logger.Warn("cache: write", zap.String("key", key), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		s.logger.Warn("cache: rename", zap.String("key", key), zap.Error(err))
		_ = os.Remove(tmp)
	}
}

// Get loads the entry under key into out. It reports false on a miss,
// which covers absent, expired and corrupted entries alike. Expired and
// corrupted files are removed.
func (s *Store) Get(key string, out any) bool {
	path := s.path(key)

	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("cache: read", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil || env.Timestamp == 0 || len(env.Data) == 0 {
		s.logger.Debug("cache: dropping corrupted entry", zap.String("key", key))
		_ = os.Remove(path)
		return false
	}

	age := float64(s.now().UnixNano())/float64(time.Second) - env.Timestamp
	if age >= s.ttl.Seconds() {
		_ = os.Remove(path)
		return false
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		s.logger.Debug("cache: dropping unreadable payload", zap.String("key", key))
		_ = os.Remove(path)
		return false
	}
	return true
}

// Delete removes the entry under key, if any.
func (s *Store) Delete(key string) {
	_ = os.Remove(s.path(key))
}

// Purge walks the cache directory and removes every expired or corrupted
// entry. It returns the number of files removed.
func (s *Store) Purge() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	nowSec := float64(s.now().UnixNano()) / float64(time.Second)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var env envelope
		stale := json.Unmarshal(b, &env) != nil ||
			env.Timestamp == 0 ||
			len(env.Data) == 0 ||
			nowSec-env.Timestamp >= s.ttl.Seconds()
		if stale {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// path maps a logical key to a file inside the cache directory. Keys come
// from user input, so everything outside a safe alphabet is replaced and a
// digest suffix keeps distinct keys from colliding after substitution.
func (s *Store) path(key string) string {
	sum := sha256.Sum256([]byte(key))

	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if len(name) > 100 {
		name = name[:100]
	}
	return filepath.Join(s.dir, name+"-"+hex.EncodeToString(sum[:4])+".json")
}
