// Package jsonstore keeps the mock API's collections in a single JSON file.
// Every mutation is written through to disk.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"booklib/internal/record"

	"go.uber.org/zap"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrConflict          = errors.New("record id already exists")
)

// DefaultCollections are created when the database file does not exist yet.
var DefaultCollections = []string{"books", "cart", "users"}

// Store is a file-backed document of named record collections.
type Store struct {
	path   string
	logger *zap.Logger

	mu   sync.RWMutex
	data map[string][]record.Record
}

// Open loads path, creating it with empty default collections when missing.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{path: path, logger: logger}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s.data = make(map[string][]record.Record, len(DefaultCollections))
		for _, name := range DefaultCollections {
			s.data[name] = []record.Record{}
		}
		if err := s.flush(); err != nil {
			return nil, err
		}
		logger.Info("created database", zap.String("path", path))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read database: %w", err)
	}

	data, err := decode(path, raw)
	if err != nil {
		return nil, err
	}
	s.data = data
	logger.Info("loaded database", zap.String("path", path), zap.Strings("collections", s.Collections()))
	return s, nil
}

// Reload replaces the in-memory document with the file's current content.
// On a read or parse error the previous document is kept. The write lock is
// held across the read so a concurrent flush cannot be replaced by older data.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read database: %w", err)
	}
	data, err := decode(s.path, raw)
	if err != nil {
		return err
	}
	s.data = data
	return nil
}

func decode(path string, raw []byte) (map[string][]record.Record, error) {
	var data map[string][]record.Record
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse database %s: %w", path, err)
	}
	if data == nil {
		data = map[string][]record.Record{}
	}
	for name, items := range data {
		if items == nil {
			data[name] = []record.Record{}
		}
	}
	return data, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Collections returns the collection names in sorted order.
func (s *Store) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns copies of every record in collection.
func (s *Store) List(collection string) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.data[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	out := make([]record.Record, len(items))
	for i, r := range items {
		out[i] = r.Clone()
	}
	return out, nil
}

// Get returns the record whose id loosely equals id.
func (s *Store) Get(collection, id string) (record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.indexOf(collection, id)
	if err != nil {
		return nil, err
	}
	return s.data[collection][idx].Clone(), nil
}

// Create appends rec. A record without an id gets the next numeric id.
func (s *Store) Create(collection string, rec record.Record) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.data[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	created := rec.Clone()
	if created == nil {
		created = record.Record{}
	}
	if id := created.ID(); id == nil || created.IDString() == "" {
		created["id"] = nextID(items)
	} else if _, found := record.FindByID(items, id); found {
		return nil, fmt.Errorf("%w: %s", ErrConflict, created.IDString())
	}

	s.data[collection] = append(items, created)
	if err := s.flush(); err != nil {
		s.data[collection] = items
		return nil, err
	}
	return created.Clone(), nil
}

// Replace swaps the stored record for rec, keeping the stored id.
func (s *Store) Replace(collection, id string, rec record.Record) (record.Record, error) {
	return s.modify(collection, id, func(current record.Record) (record.Record, error) {
		next := rec.Clone()
		if next == nil {
			next = record.Record{}
		}
		next["id"] = current.ID()
		return next, nil
	})
}

// Patch merges fields into the stored record. The id cannot be changed.
// A non-nil check sees the merged record under the store lock and can veto
// the write.
func (s *Store) Patch(collection, id string, fields record.Record, check func(record.Record) error) (record.Record, error) {
	return s.modify(collection, id, func(current record.Record) (record.Record, error) {
		next := current.Clone()
		for k, v := range fields {
			if k == "id" {
				continue
			}
			next[k] = v
		}
		if check != nil {
			if err := check(next); err != nil {
				return nil, err
			}
		}
		return next, nil
	})
}

// Delete removes the record with the given id.
func (s *Store) Delete(collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.indexOf(collection, id)
	if err != nil {
		return err
	}

	items := s.data[collection]
	next := make([]record.Record, 0, len(items)-1)
	next = append(next, items[:idx]...)
	next = append(next, items[idx+1:]...)

	s.data[collection] = next
	if err := s.flush(); err != nil {
		s.data[collection] = items
		return err
	}
	return nil
}

// Snapshot returns a copy of the whole document.
func (s *Store) Snapshot() map[string][]record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]record.Record, len(s.data))
	for name, items := range s.data {
		copied := make([]record.Record, len(items))
		for i, r := range items {
			copied[i] = r.Clone()
		}
		out[name] = copied
	}
	return out
}

func (s *Store) modify(collection, id string, fn func(record.Record) (record.Record, error)) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.indexOf(collection, id)
	if err != nil {
		return nil, err
	}

	items := s.data[collection]
	prev := items[idx]
	next, err := fn(prev)
	if err != nil {
		return nil, err
	}
	items[idx] = next
	if err := s.flush(); err != nil {
		items[idx] = prev
		return nil, err
	}
	return next.Clone(), nil
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(collection, id string) (int, error) {
	items, ok := s.data[collection]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	for i, r := range items {
		if record.LooseEqual(r.ID(), id) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
}

// flush writes the document atomically. Must be called with s.mu held.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode database: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write database: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace database: %w", err)
	}
	return nil
}

// nextID returns one more than the largest numeric id in items.
func nextID(items []record.Record) float64 {
	highest := 0.0
	for _, r := range items {
		n, err := strconv.ParseFloat(r.IDString(), 64)
		if err != nil || math.IsNaN(n) {
			continue
		}
		if n > highest {
			highest = math.Floor(n)
		}
	}
	return highest + 1
}
