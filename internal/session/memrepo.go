package session

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/park285/Cheese-Checkers/internal/checkers"
)

// memrepo is a development-only in-memory MoveRecorder used when no DB is configured.
type memrepo struct {
	mu     sync.RWMutex
	byGame map[string]map[int]HistoryEntry // gameID -> seq -> entry
}

func NewMemoryRecorder() MoveRecorder {
	return &memrepo{byGame: make(map[string]map[int]HistoryEntry)}
}

func (m *memrepo) RecordMove(ctx context.Context, gameID string, seq int, mv checkers.Move, at time.Time) error {
	key := strings.TrimSpace(gameID)
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.byGame[key]
	if entries == nil {
		entries = make(map[int]HistoryEntry)
		m.byGame[key] = entries
	}
	if _, exists := entries[seq]; exists {
		return nil
	}
	entries[seq] = HistoryEntry{Seq: seq, PieceID: mv.PieceID, Color: mv.Color, From: mv.From, To: mv.To, AppliedAt: at}
	return nil
}

func (m *memrepo) History(ctx context.Context, gameID string) ([]HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.byGame[strings.TrimSpace(gameID)]
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (m *memrepo) Close() error { return nil }
