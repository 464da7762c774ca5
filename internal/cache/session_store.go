package cache

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// SessionStore keeps short-lived values under random UUID keys. Entries
// expire after the TTL or when the store is full.
type SessionStore[T any] struct {
	lru *expirable.LRU[string, T]
}

// NewSessionStore creates a store holding at most size entries.
func NewSessionStore[T any](size int, ttl time.Duration) *SessionStore[T] {
	if size <= 0 {
		size = 1000
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore[T]{lru: expirable.NewLRU[string, T](size, nil, ttl)}
}

// Create stores v and returns its new session ID.
func (s *SessionStore[T]) Create(v T) string {
	id := uuid.NewString()
	s.lru.Add(id, v)
	return id
}

// Get returns the session value and refreshes its recency.
func (s *SessionStore[T]) Get(id string) (T, bool) {
	return s.lru.Get(id)
}

// Delete removes a session, reporting whether it existed.
func (s *SessionStore[T]) Delete(id string) bool {
	return s.lru.Remove(id)
}

// Len returns the number of live sessions.
func (s *SessionStore[T]) Len() int {
	return s.lru.Len()
}
