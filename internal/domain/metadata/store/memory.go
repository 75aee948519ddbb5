package store

import (
	"context"
	"sync"

	"imagemeta-server-go/internal/domain/metadata"
)

// MemoryStore keeps rules in a map. Contents are lost on restart, which is
// fine for development and for setups seeded entirely from configuration.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[string]metadata.PromptRule
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rules: make(map[string]metadata.PromptRule)}
}

func (s *MemoryStore) Put(_ context.Context, rule metadata.PromptRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.Property] = rule
	return nil
}

func (s *MemoryStore) Get(_ context.Context, property string) (metadata.PromptRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[property]
	if !ok {
		return metadata.PromptRule{}, ErrNotFound
	}
	return rule, nil
}

func (s *MemoryStore) List(_ context.Context) ([]metadata.PromptRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules := make([]metadata.PromptRule, 0, len(s.rules))
	for _, rule := range s.rules {
		rules = append(rules, rule)
	}
	return rules, nil
}

func (s *MemoryStore) Remove(_ context.Context, property string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, property)
	return nil
}

func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}
