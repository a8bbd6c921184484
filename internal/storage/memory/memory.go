package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"secondbrain/internal/storage"
)

// Store keeps encoded JSON values in a map. Values are re-decoded on every
// Get so callers never share memory with the store.
type Store struct {
	mu     sync.Mutex
	values map[string][]byte
}

var _ storage.BatchStore = (*Store)(nil)

func New() *Store {
	return &Store{values: map[string][]byte{}}
}

// NewFromDir seeds the store from <key>.json files in base. Missing or
// unreadable files are skipped.
func NewFromDir(base string) *Store {
	s := New()
	entries, err := os.ReadDir(base)
	if err != nil {
		return s
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(base, e.Name()))
		if err != nil || !json.Valid(raw) {
			continue
		}
		s.values[strings.TrimSuffix(e.Name(), ".json")] = raw
	}
	return s
}

func (s *Store) Get(_ context.Context, key string, dst any) (bool, error) {
	if key == "" {
		return false, storage.ErrEmptyKey
	}
	s.mu.Lock()
	raw, ok := s.values[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	return s.SetBatch(ctx, map[string]any{key: value})
}

// SetBatch encodes every entry before storing any of them.
func (s *Store) SetBatch(_ context.Context, entries map[string]any) error {
	encoded := make(map[string][]byte, len(entries))
	for key, value := range entries {
		if key == "" {
			return storage.ErrEmptyKey
		}
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		encoded[key] = b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, b := range encoded {
		s.values[key] = b
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Raw returns the stored JSON for key.
func (s *Store) Raw(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.values[key]
	return append([]byte(nil), raw...), ok
}
