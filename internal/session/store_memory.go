package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// MemoryStore is the in-process Store used when no REDIS_URL is configured.
// Games are held encoded so callers never share memory with the store.
type MemoryStore struct {
	mu    sync.Mutex
	games map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string][]byte)}
}

func (s *MemoryStore) Create(ctx context.Context, g *Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(g.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[id]; exists {
		return ErrGameExists
	}
	s.games[id] = raw
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*Game, error) {
	s.mu.Lock()
	raw, ok := s.games[strings.TrimSpace(id)]
	s.mu.Unlock()
	if !ok {
		return nil, ErrGameNotFound
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Update holds the store lock for the whole read-modify-write.
func (s *MemoryStore) Update(ctx context.Context, id string, fn func(g *Game) error) (*Game, error) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	var cur Game
	if err := json.Unmarshal(raw, &cur); err != nil {
		return nil, err
	}
	if err := fn(&cur); err != nil {
		return nil, err
	}
	newRaw, err := json.Marshal(&cur)
	if err != nil {
		return nil, err
	}
	s.games[id] = newRaw
	return &cur, nil
}

func (s *MemoryStore) Close() error { return nil }
