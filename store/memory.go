package store

import (
	"context"
	"sync"
	"time"
)

type memoryValue struct {
	data    []byte
	expires time.Time
}

type memoryStore struct {
	mutex  sync.Mutex
	values map[string]*memoryValue
}

var _ Store = (*memoryStore)(nil)

// NewMemory returns an in-process Store that honors TTLs lazily on read.
// Useful for local development and as a stand-in for Redis in tests.
func NewMemory() Store {
	return &memoryStore{values: make(map[string]*memoryValue)}
}

func (s *memoryStore) Get(_ context.Context, key string) (bool, []byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	val, ok := s.values[key]
	if !ok {
		return false, nil, nil
	}
	if val.expires.Before(time.Now()) {
		delete(s.values, key)
		return false, nil, nil
	}
	return true, val.data, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := Encode(value)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	s.values[key] = &memoryValue{data: data, expires: time.Now().Add(ttl)}
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Del(_ context.Context, key string) (bool, error) {
	s.mutex.Lock()
	_, ok := s.values[key]
	if ok {
		delete(s.values, key)
	}
	s.mutex.Unlock()
	return ok, nil
}

func (s *memoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mutex.Lock()
	if val, ok := s.values[key]; ok {
		val.expires = time.Now().Add(ttl)
	}
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	matcher := CompilePattern(pattern)
	now := time.Now()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	var keys []string
	for key, val := range s.values {
		if val.expires.Before(now) {
			delete(s.values, key)
			continue
		}
		if matcher.Match(key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *memoryStore) Close() error {
	s.mutex.Lock()
	s.values = make(map[string]*memoryValue)
	s.mutex.Unlock()
	return nil
}
