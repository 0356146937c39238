package storage

import (
	"sync"
	"time"
)

// MemoryStorage - universal in-memory object storage.
// Values never leave or enter the storage by reference: Set stores a copy
// and every read hands out a copy.
// K - key type, V - stored object type
type MemoryStorage[K comparable, V Copier[V]] struct {
	data       map[K]V
	mutex      sync.RWMutex
	revision   uint64
	dirty      map[K]uint64 // revision of the last unsaved write
	deleted    map[K]uint64 // revision of the delete, until persisted
	lastUpdate map[K]time.Time
}

// NewMemoryStorage creates a new storage
func NewMemoryStorage[K comparable, V Copier[V]]() *MemoryStorage[K, V] {
	return &MemoryStorage[K, V]{
		data:       make(map[K]V),
		dirty:      make(map[K]uint64),
		deleted:    make(map[K]uint64),
		lastUpdate: make(map[K]time.Time),
	}
}

// Set adds or updates an object
func (s *MemoryStorage[K, V]) Set(key K, value V) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[key] = value.Copy()
	s.touch(key)
}

// Get returns a copy of the object stored under key
func (s *MemoryStorage[K, V]) Get(key K) (V, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	if !exists {
		var zero V
		return zero, false
	}
	return value.Copy(), true
}

// Update runs fn on the stored object under the write lock.
// fn must not keep a reference to value.
func (s *MemoryStorage[K, V]) Update(key K, fn func(value V)) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	value, exists := s.data[key]
	if !exists {
		return false
	}
	fn(value)
	s.touch(key)
	return true
}

// touch marks key as modified; caller holds the write lock
func (s *MemoryStorage[K, V]) touch(key K) {
	s.revision++
	s.dirty[key] = s.revision
	s.lastUpdate[key] = time.Now()
	delete(s.deleted, key)
}

// Delete removes an object by key and records a tombstone for it.
// The tombstone stays until ClearDeleted passes its revision or the key is set again.
func (s *MemoryStorage[K, V]) Delete(key K) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[key]; !exists {
		return false
	}

	delete(s.data, key)
	delete(s.dirty, key)
	delete(s.lastUpdate, key)

	s.revision++
	s.deleted[key] = s.revision
	return true
}

// GetDeleted returns the tombstones (key -> revision of the delete) and the
// current revision
func (s *MemoryStorage[K, V]) GetDeleted() (map[K]uint64, uint64) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make(map[K]uint64, len(s.deleted))
	for k, rev := range s.deleted {
		result[k] = rev
	}
	return result, s.revision
}

// ClearDeleted drops tombstones recorded at or before revision
func (s *MemoryStorage[K, V]) ClearDeleted(revision uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for k, rev := range s.deleted {
		if rev <= revision {
			delete(s.deleted, k)
		}
	}
}

// GetAll returns all objects
func (s *MemoryStorage[K, V]) GetAll() map[K]V {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make(map[K]V, len(s.data))
	for k, v := range s.data {
		result[k] = v.Copy()
	}
	return result
}

// GetAllValues returns all values as a slice
func (s *MemoryStorage[K, V]) GetAllValues() []V {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]V, 0, len(s.data))
	for _, v := range s.data {
		result = append(result, v.Copy())
	}
	return result
}

// GetDirty returns all dirty objects without clearing flags, together with
// the revision the snapshot was taken at
func (s *MemoryStorage[K, V]) GetDirty() (map[K]V, uint64) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make(map[K]V, len(s.dirty))
	for k := range s.dirty {
		if v, exists := s.data[k]; exists {
			result[k] = v.Copy()
		}
	}
	return result, s.revision
}

// ClearDirty clears dirty flags for provided keys unless they were
// written again after revision
func (s *MemoryStorage[K, V]) ClearDirty(keys []K, revision uint64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, k := range keys {
		if rev, ok := s.dirty[k]; ok && rev <= revision {
			delete(s.dirty, k)
		}
	}
}

// LastUpdate reports when key was last written
func (s *MemoryStorage[K, V]) LastUpdate(key K) (time.Time, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ts, ok := s.lastUpdate[key]
	return ts, ok
}

// ForEach executes a function for each object
func (s *MemoryStorage[K, V]) ForEach(fn func(key K, value V) bool) {
	// Copy data under lock for subsequent processing
	s.mutex.RLock()
	items := make(map[K]V, len(s.data))
	for k, v := range s.data {
		items[k] = v.Copy()
	}
	s.mutex.RUnlock()

	// Process copied data without locking
	for k, v := range items {
		if !fn(k, v) {
			break
		}
	}
}

// Count returns the number of objects
func (s *MemoryStorage[K, V]) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}
