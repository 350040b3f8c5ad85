package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohmanhakim/salon-scraper/pkg/failure"
	"github.com/rohmanhakim/salon-scraper/pkg/fileutil"
	"github.com/rohmanhakim/salon-scraper/pkg/hashutil"
	"github.com/rohmanhakim/salon-scraper/pkg/timeutil"
)

/*
Store is a persistent key→value cache with TTL expiry and a size bound.

Persistence model:
- The whole store is written to a single JSON file after every mutating
  call (write-through), via a temp-file-then-atomic-rename sequence so a
  crash mid-write cannot corrupt the existing file.
- This costs O(n) serialization per mutation. Accepted tradeoff: the store
  stays small and the file is always consistent. A debounced async flush
  would be a strict improvement but is not required.

Loading is forgiving: a missing or corrupt file yields an empty store with
a logged warning, and malformed individual entries are skipped rather than
failing the whole load. Saving is strict: a failed save propagates to the
caller because losing write confirmation must be observable.

Each Store owns its entries exclusively; instances are independent and
safe for concurrent use.
*/
type Store struct {
	mu         sync.Mutex
	path       string
	defaultTTL time.Duration
	maxSize    int
	entries    map[string]Entry
	logger     *logrus.Entry
}

// New creates a store backed by the given file, loading whatever valid
// entries the file already holds.
func New(path string, cfg Config, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cfg = cfg.withDefaults()

	s := &Store{
		path:       path,
		defaultTTL: cfg.DefaultTTL,
		maxSize:    cfg.MaxSize,
		entries:    make(map[string]Entry),
		logger:     logger.WithField("component", "cache"),
	}
	s.load()
	return s
}

// Get returns the raw value stored under key, scoped by context, or false
// if the key is absent or expired. Expired entries are deleted lazily and
// the deletion is persisted.
func (s *Store) Get(key string, context string) (json.RawMessage, bool) {
	cacheKey := s.effectiveKey(key, context)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[cacheKey]
	if !ok {
		return nil, false
	}

	if s.expired(entry, time.Now()) {
		delete(s.entries, cacheKey)
		if err := s.saveLocked(); err != nil {
			s.logger.WithError(err).Warn("failed to persist lazy expiry")
		}
		return nil, false
	}

	return entry.Data, true
}

// GetInto decodes the value stored under key into dest. It returns false
// when the key is absent, expired, or does not decode into dest.
func (s *Store) GetInto(key string, context string, dest any) bool {
	raw, ok := s.Get(key, context)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cached value does not decode into requested type")
		return false
	}
	return true
}

// Set stores value under key, scoped by context. A nil ttl defers to the
// store's default TTL. The entry is timestamped now, the size bound is
// enforced (oldest entries evicted first), and the store is persisted.
func (s *Store) Set(key string, value any, ttl *time.Duration, context string) failure.ClassifiedError {
	data, err := json.Marshal(value)
	if err != nil {
		return &StoreError{
			Message: fmt.Sprintf("value for key %q is not serializable: %v", key, err),
			Cause:   ErrCauseEncodeFailure,
			Path:    s.path,
		}
	}

	cacheKey := s.effectiveKey(key, context)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[cacheKey] = Entry{
		Data:      data,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
	s.enforceSizeLocked()

	return s.saveLocked()
}

// Clear removes entries and reports how many were removed. With an empty
// pattern everything goes; otherwise only keys containing the pattern as a
// substring are removed. The store is persisted only if anything changed.
func (s *Store) Clear(pattern string) (int, failure.ClassifiedError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	if pattern == "" {
		removed = len(s.entries)
		s.entries = make(map[string]Entry)
	} else {
		for key := range s.entries {
			if strings.Contains(key, pattern) {
				delete(s.entries, key)
				removed++
			}
		}
	}

	if removed == 0 {
		return 0, nil
	}
	if err := s.saveLocked(); err != nil {
		return removed, err
	}
	return removed, nil
}

// Cleanup removes all expired entries, then enforces the size bound,
// persisting once if either pass did work.
func (s *Store) Cleanup() (int, failure.ClassifiedError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.dropExpiredLocked(time.Now())
	removed += s.enforceSizeLocked()

	if removed == 0 {
		return 0, nil
	}
	if err := s.saveLocked(); err != nil {
		return removed, err
	}
	return removed, nil
}

// Statistics returns a read-only snapshot; it has no side effects.
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stats := Statistics{
		TotalEntries: len(s.entries),
		SizeLimit:    s.maxSize,
		DefaultTTL:   s.defaultTTL,
		FilePath:     s.path,
	}

	for _, entry := range s.entries {
		if s.expired(entry, now) {
			stats.ExpiredEntries++
		}
		if stats.OldestEntry.IsZero() || entry.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.CreatedAt
		}
		if entry.CreatedAt.After(stats.NewestEntry) {
			stats.NewestEntry = entry.CreatedAt
		}
	}
	stats.ValidEntries = stats.TotalEntries - stats.ExpiredEntries

	return stats
}

// Len reports the current number of entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// effectiveKey scopes key by context. When a context is supplied the key
// becomes a hash of "key:context", so the same logical key can hold
// independent values per context without key-string collisions.
func (s *Store) effectiveKey(key string, context string) string {
	if context == "" {
		return key
	}
	hashed, err := hashutil.HashString(key+":"+context, hashutil.HashAlgoBLAKE3)
	if err != nil {
		// Unreachable with a fixed supported algorithm; fall back to plain
		// concatenation rather than losing the scoping.
		return key + ":" + context
	}
	return hashed
}

func (s *Store) expired(entry Entry, now time.Time) bool {
	ttl := s.defaultTTL
	if entry.TTL != nil {
		ttl = *entry.TTL
	}
	return now.Sub(entry.CreatedAt) > ttl
}

func (s *Store) dropExpiredLocked(now time.Time) int {
	removed := 0
	for key, entry := range s.entries {
		if s.expired(entry, now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// enforceSizeLocked evicts the oldest entries until the bound holds.
func (s *Store) enforceSizeLocked() int {
	excess := len(s.entries) - s.maxSize
	if excess <= 0 {
		return 0
	}

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.entries[keys[i]].CreatedAt.Before(s.entries[keys[j]].CreatedAt)
	})

	for _, key := range keys[:excess] {
		delete(s.entries, key)
	}
	return excess
}

func (s *Store) load() {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.WithError(err).WithField("path", s.path).Warn("failed to read cache file, starting empty")
		}
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("cache file is corrupt, starting empty")
		return
	}

	now := time.Now()
	for key, rawEntry := range raw {
		var dto entryDTO
		if err := json.Unmarshal(rawEntry, &dto); err != nil {
			s.logger.WithField("key", key).Warn("skipping malformed cache entry")
			continue
		}

		entry := Entry{
			Data:      dto.Data,
			CreatedAt: timeutil.FromUnixSeconds(dto.Timestamp),
		}
		if dto.TTL != nil {
			entry.TTL = timeutil.DurationPtr(timeutil.FromSeconds(*dto.TTL))
		}

		if s.expired(entry, now) {
			continue
		}
		s.entries[key] = entry
	}

	s.logger.WithFields(logrus.Fields{"path": s.path, "entries": len(s.entries)}).Debug("cache loaded")
}

// saveLocked writes the whole store to disk through a temp file and an
// atomic rename. A partially written temp file is removed before the error
// propagates.
func (s *Store) saveLocked() failure.ClassifiedError {
	if err := fileutil.EnsureParentDir(s.path); err != nil {
		return &StoreError{
			Message: err.Error(),
			Cause:   ErrCauseWriteFailure,
			Path:    s.path,
		}
	}

	dtos := make(map[string]entryDTO, len(s.entries))
	for key, entry := range s.entries {
		dto := entryDTO{
			Data:      entry.Data,
			Timestamp: timeutil.UnixSeconds(entry.CreatedAt),
		}
		if entry.TTL != nil {
			ttlSeconds := timeutil.Seconds(*entry.TTL)
			dto.TTL = &ttlSeconds
		}
		dtos[key] = dto
	}

	content, err := json.MarshalIndent(dtos, "", "  ")
	if err != nil {
		return &StoreError{
			Message: err.Error(),
			Cause:   ErrCauseEncodeFailure,
			Path:    s.path,
		}
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		os.Remove(tempPath)
		return &StoreError{
			Message:   err.Error(),
			Retryable: errors.Is(err, syscall.ENOSPC),
			Cause:     ErrCauseWriteFailure,
			Path:      tempPath,
		}
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return &StoreError{
			Message: err.Error(),
			Cause:   ErrCauseRenameFailure,
			Path:    s.path,
		}
	}

	return nil
}
