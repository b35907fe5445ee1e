package kvstore

import (
	"sort"
	"strings"

	"github.com/duskraft/mrstate-go/internal/core/domain"
)

// reservedChars are the characters the text snapshot grammar (§4.3) uses
// as separators. Keys containing any of them would make a serialized
// snapshot ambiguous to parse back, so they are rejected at insert time
// rather than escaped.
const reservedChars = ":,;"

// Entry pairs a key with its current value sequence, returned by GetAll
// in lexicographic key order.
type Entry struct {
	Key    string
	Values []int32
}

// Store is the in-memory multi-valued key-value container. The zero
// value is not usable; construct with New.
type Store struct {
	data map[string][]int32
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]int32)}
}

func validateKey(key string) error {
	if key == "" {
		return domain.ErrEmptyKey
	}
	if strings.ContainsAny(key, reservedChars) {
		return domain.ErrInvalidKey.WithDetails(key)
	}
	return nil
}

// Insert appends value to key's sequence, creating the key if absent.
func (s *Store) Insert(key string, value int32) error {
	if err := validateKey(key); err != nil {
		return err
	}
	s.data[key] = append(s.data[key], value)
	return nil
}

// InsertMany appends all of values, in order, to key's sequence. An
// empty values slice is a no-op: it never creates an empty-sequence
// entry (§3).
func (s *Store) InsertMany(key string, values []int32) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	s.data[key] = append(s.data[key], values...)
	return nil
}

// RemoveValue removes the first occurrence of value from key's sequence.
// Returns whether a removal happened; an absent key returns false.
func (s *Store) RemoveValue(key string, value int32) bool {
	values, ok := s.data[key]
	if !ok {
		return false
	}
	removed, idx := removeFirst(values, value)
	if idx < 0 {
		return false
	}
	s.setOrDrop(key, removed)
	return true
}

// RemoveMany removes, for each v in values, the first occurrence of v
// from key's sequence (one removal attempt per input value, even if
// values contains duplicates). Returns true iff the key existed;
// individual value misses are silent.
func (s *Store) RemoveMany(key string, values []int32) bool {
	current, ok := s.data[key]
	if !ok {
		return false
	}
	for _, v := range values {
		remaining, idx := removeFirst(current, v)
		if idx >= 0 {
			current = remaining
		}
	}
	s.setOrDrop(key, current)
	return true
}

// RemoveKey removes the entire key. Returns whether a key was removed.
func (s *Store) RemoveKey(key string) bool {
	if _, ok := s.data[key]; !ok {
		return false
	}
	delete(s.data, key)
	return true
}

// GetValues returns a copy of key's value sequence, or ErrKeyNotFound if
// the key is absent.
func (s *Store) GetValues(key string) ([]int32, error) {
	values, ok := s.data[key]
	if !ok {
		return nil, domain.ErrKeyNotFound.WithDetails(key)
	}
	out := make([]int32, len(values))
	copy(out, values)
	return out, nil
}

// GetAll returns every (key, values) pair in ascending lexicographic key
// order.
func (s *Store) GetAll() []Entry {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		values := s.data[k]
		cp := make([]int32, len(values))
		copy(cp, values)
		entries = append(entries, Entry{Key: k, Values: cp})
	}
	return entries
}

// Clone returns a deep copy that shares no mutable state with s.
func (s *Store) Clone() *Store {
	clone := New()
	for k, v := range s.data {
		cp := make([]int32, len(v))
		copy(cp, v)
		clone.data[k] = cp
	}
	return clone
}

// setOrDrop stores values under key, or drops the key entirely if
// values is empty, preserving the "no empty-sequence entries" invariant.
func (s *Store) setOrDrop(key string, values []int32) {
	if len(values) == 0 {
		delete(s.data, key)
		return
	}
	s.data[key] = values
}

// removeFirst returns a copy of values with the first occurrence of
// target removed, and the index it was found at (-1 if not found).
func removeFirst(values []int32, target int32) ([]int32, int) {
	for i, v := range values {
		if v == target {
			out := make([]int32, 0, len(values)-1)
			out = append(out, values[:i]...)
			out = append(out, values[i+1:]...)
			return out, i
		}
	}
	return values, -1
}
