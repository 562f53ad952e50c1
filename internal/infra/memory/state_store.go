package memory

import (
	"context"
	"sync"
	"time"
)

// StateStore keeps OAuth state values in process. It only works for a single instance.
type StateStore struct {
	mu     sync.Mutex
	clock  func() time.Time
	states map[string]time.Time
}

func NewStateStore() *StateStore {
	return &StateStore{
		clock:  time.Now,
		states: make(map[string]time.Time),
	}
}

func (s *StateStore) Save(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	for k, exp := range s.states {
		if !exp.After(now) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(ttl)
	return nil
}

func (s *StateStore) Consume(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.states[state]
	if !ok {
		return false, nil
	}
	delete(s.states, state)
	return exp.After(s.clock()), nil
}
