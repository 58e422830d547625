package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/Cheese-Checkers/internal/checkers"
	"github.com/park285/Cheese-Checkers/internal/layout"
	"github.com/park285/Cheese-Checkers/internal/obslog"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Manager runs the selection/move cycle for many stored games.
// Every operation restores a Controller from the store, applies one request and saves the result.
type Manager struct {
	store  Store
	layout *layout.Layout
	repo   MoveRecorder

	mu        sync.RWMutex
	listeners []MoveListener
	queue     chan moveNotice
	done      chan struct{}
	closed    bool

	now func() time.Time
}

func NewManager(store Store, l *layout.Layout) *Manager {
	if l == nil {
		l = layout.Standard()
	}
	return &Manager{store: store, layout: l, now: time.Now}
}

// AttachRepository wires a move history recorder.
func (m *Manager) AttachRepository(r MoveRecorder) {
	if m != nil {
		m.repo = r
	}
}

const listenerQueueSize = 256

type moveNotice struct {
	ctx  context.Context
	game *Game
	move checkers.Move
}

// OnMove registers a listener notified after each persisted move.
// Listeners run in order on one background goroutine, never on the caller's.
func (m *Manager) OnMove(fn MoveListener) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
	if m.queue == nil && !m.closed {
		m.queue = make(chan moveNotice, listenerQueueSize)
		m.done = make(chan struct{})
		go m.dispatch(m.queue, m.done)
	}
}

// Create starts a new Idle game over the configured layout.
func (m *Manager) Create(ctx context.Context) (*Game, error) {
	if m == nil || m.store == nil {
		return nil, fmt.Errorf("session manager not initialized")
	}
	now := m.now()
	g := &Game{
		ID:        uuid.NewString(),
		Layout:    m.layout.Name,
		State:     m.layout.State(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Create(ctx, g); err != nil {
		return nil, err
	}
	obslog.L().Info("checkers_game_create", zap.String("game_id", g.ID), zap.String("layout", g.Layout))
	return g, nil
}

func (m *Manager) Get(ctx context.Context, id string) (*Game, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrGameNotFound
	}
	return m.store.Load(ctx, id)
}

// Select forwards a piece selection to the game's controller.
func (m *Manager) Select(ctx context.Context, id string, pieceID int) (*Game, checkers.Transition, error) {
	if strings.TrimSpace(id) == "" {
		return nil, "", ErrGameNotFound
	}
	var tr checkers.Transition
	g, err := m.store.Update(ctx, id, func(g *Game) error {
		c, err := m.restore(g)
		if err != nil {
			return err
		}
		t, err := c.SelectPiece(pieceID)
		if err != nil {
			return err
		}
		tr = t
		g.State = c.State()
		g.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		obslog.L().Debug("checkers_select_rejected", zap.String("game_id", id), zap.Int("piece_id", pieceID), zap.Error(err))
		return nil, "", err
	}
	obslog.L().Info("checkers_select",
		zap.String("game_id", g.ID),
		zap.Int("piece_id", pieceID),
		zap.String("transition", string(tr)),
		zap.Int("valid_moves", len(g.State.ValidMoves)),
	)
	return g, tr, nil
}

// Move applies one of the selected piece's valid moves.
func (m *Manager) Move(ctx context.Context, id string, pos checkers.Position) (*Game, checkers.Move, error) {
	if strings.TrimSpace(id) == "" {
		return nil, checkers.Move{}, ErrGameNotFound
	}
	var mv checkers.Move
	g, err := m.store.Update(ctx, id, func(g *Game) error {
		c, err := m.restore(g)
		if err != nil {
			return err
		}
		applied, err := c.ApplyMove(pos)
		if err != nil {
			return err
		}
		mv = applied
		g.State = c.State()
		g.MoveCount++
		g.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		obslog.L().Debug("checkers_move_rejected", zap.String("game_id", id), zap.Stringer("to", pos), zap.Error(err))
		return nil, checkers.Move{}, err
	}
	obslog.L().Info("checkers_move",
		zap.String("game_id", g.ID),
		zap.Int("seq", g.MoveCount),
		zap.Int("piece_id", mv.PieceID),
		zap.Stringer("from", mv.From),
		zap.Stringer("to", mv.To),
	)
	m.recordMove(ctx, g, mv)
	m.notify(ctx, g, mv)
	return g, mv, nil
}

// History returns the recorded moves of a game in order.
func (m *Manager) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	if m.repo == nil {
		return nil, ErrHistoryUnavailable
	}
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	return m.repo.History(ctx, id)
}

// Close drains queued move notifications, then closes the store and recorder.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		if m.queue != nil {
			close(m.queue)
		}
	}
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}

	var err error
	if m.store != nil {
		err = multierr.Append(err, m.store.Close())
	}
	if m.repo != nil {
		err = multierr.Append(err, m.repo.Close())
	}
	return err
}

func (m *Manager) restore(g *Game) (*checkers.Controller, error) {
	c, err := checkers.Restore(g.State, checkers.WithLogger(obslog.Named("controller").With(zap.String("game_id", g.ID))))
	if err != nil {
		return nil, fmt.Errorf("restore game %s: %w", g.ID, err)
	}
	return c, nil
}

// recordMove persists history; failures are logged, the move itself already stands.
func (m *Manager) recordMove(ctx context.Context, g *Game, mv checkers.Move) {
	if m.repo == nil {
		return
	}
	if err := m.repo.RecordMove(ctx, g.ID, g.MoveCount, mv, g.UpdatedAt); err != nil {
		obslog.L().Error("checkers_history_persist_error", zap.String("game_id", g.ID), zap.Int("seq", g.MoveCount), zap.Error(err))
	}
}

// notify queues the move for listeners. A full queue drops the notice.
func (m *Manager) notify(ctx context.Context, g *Game, mv checkers.Move) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.queue == nil || m.closed {
		return
	}
	cp := *g
	cp.State = g.State.Clone()
	select {
	case m.queue <- moveNotice{ctx: context.WithoutCancel(ctx), game: &cp, move: mv}:
	default:
		obslog.L().Warn("checkers_listener_queue_full", zap.String("game_id", g.ID), zap.Int("seq", g.MoveCount))
	}
}

func (m *Manager) dispatch(queue <-chan moveNotice, done chan<- struct{}) {
	defer close(done)
	for n := range queue {
		m.mu.RLock()
		ls := make([]MoveListener, len(m.listeners))
		copy(ls, m.listeners)
		m.mu.RUnlock()
		for _, fn := range ls {
			fn(n.ctx, n.game, n.move)
		}
	}
}
