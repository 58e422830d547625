package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/Cheese-Checkers/internal/checkers"
	"github.com/park285/Cheese-Checkers/internal/layout"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	rdb, err := DialRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	return NewRedisStore(rdb, time.Hour), mr
}

// each test runs against both store implementations
func forEachStore(t *testing.T, fn func(t *testing.T, m *Manager)) {
	t.Run("memory", func(t *testing.T) {
		m := NewManager(NewMemoryStore(), layout.Standard())
		m.AttachRepository(NewMemoryRecorder())
		fn(t, m)
	})
	t.Run("redis", func(t *testing.T) {
		s, _ := newRedisStore(t)
		m := NewManager(s, layout.Standard())
		m.AttachRepository(NewMemoryRecorder())
		t.Cleanup(func() { _ = m.Close() })
		fn(t, m)
	})
}

func TestCreateSelectMove(t *testing.T) {
	forEachStore(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		g, err := m.Create(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, g.ID)
		assert.Equal(t, "standard", g.Layout)
		assert.Nil(t, g.State.SelectedPieceID)

		g, tr, err := m.Select(ctx, g.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, checkers.TransitionSelected, tr)
		assert.Equal(t, []checkers.Position{{Row: 2, Col: 1}}, g.State.ValidMoves)

		g, mv, err := m.Move(ctx, g.ID, checkers.Position{Row: 2, Col: 1})
		require.NoError(t, err)
		assert.Equal(t, 5, mv.PieceID)
		assert.Equal(t, 1, g.MoveCount)
		assert.Nil(t, g.State.SelectedPieceID)

		loaded, err := m.Get(ctx, g.ID)
		require.NoError(t, err)
		p, ok := loaded.State.FindPiece(5)
		require.True(t, ok)
		assert.Equal(t, checkers.Position{Row: 2, Col: 1}, p.Position)
		assert.Empty(t, loaded.State.ValidMoves)

		hist, err := m.History(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, hist, 1)
		assert.Equal(t, 1, hist[0].Seq)
		assert.Equal(t, checkers.Position{Row: 1, Col: 0}, hist[0].From)
	})
}

func TestRejectedRequestsLeaveStoredState(t *testing.T) {
	forEachStore(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		g, err := m.Create(ctx)
		require.NoError(t, err)
		g, _, err = m.Select(ctx, g.ID, 13)
		require.NoError(t, err)
		before := g.State

		_, _, err = m.Select(ctx, g.ID, 99)
		assert.True(t, errors.Is(err, checkers.ErrInvalidSelection))
		_, _, err = m.Move(ctx, g.ID, checkers.Position{Row: 3, Col: 3})
		assert.True(t, errors.Is(err, checkers.ErrInvalidMoveTarget))

		after, err := m.Get(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, before, after.State)
		assert.Equal(t, 0, after.MoveCount)
	})
}

func TestUnknownGame(t *testing.T) {
	forEachStore(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		_, err := m.Get(ctx, "nope")
		assert.True(t, errors.Is(err, ErrGameNotFound))
		_, _, err = m.Select(ctx, "nope", 1)
		assert.True(t, errors.Is(err, ErrGameNotFound))
		_, _, err = m.Move(ctx, "", checkers.Position{})
		assert.True(t, errors.Is(err, ErrGameNotFound))
	})
}

func TestMoveListenersNotified(t *testing.T) {
	forEachStore(t, func(t *testing.T, m *Manager) {
		ctx := context.Background()
		var (
			mu  sync.Mutex
			got []checkers.Move
		)
		m.OnMove(func(_ context.Context, g *Game, mv checkers.Move) {
			mu.Lock()
			got = append(got, mv)
			mu.Unlock()
		})

		g, err := m.Create(ctx)
		require.NoError(t, err)
		_, _, err = m.Select(ctx, g.ID, 21)
		require.NoError(t, err)
		_, _, err = m.Move(ctx, g.ID, checkers.Position{Row: 6, Col: 1})
		require.NoError(t, err)
		// rejected move must not notify
		_, _, err = m.Move(ctx, g.ID, checkers.Position{Row: 6, Col: 1})
		require.Error(t, err)

		// Close drains the listener queue
		require.NoError(t, m.Close())
		mu.Lock()
		defer mu.Unlock()
		require.Len(t, got, 1)
		assert.Equal(t, checkers.Move{PieceID: 21, Color: checkers.Orange, From: checkers.Position{Row: 7, Col: 0}, To: checkers.Position{Row: 6, Col: 1}}, got[0])
	})
}

func TestSlowListenerDoesNotBlockMove(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)
	release := make(chan struct{})
	seen := make(chan int, 4)
	m.OnMove(func(ctx context.Context, g *Game, _ checkers.Move) {
		<-release
		seen <- g.MoveCount
		assert.NoError(t, ctx.Err())
	})

	reqCtx, cancel := context.WithCancel(context.Background())
	g, err := m.Create(reqCtx)
	require.NoError(t, err)
	_, _, err = m.Select(reqCtx, g.ID, 5)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, err := m.Move(reqCtx, g.ID, checkers.Position{Row: 2, Col: 1})
		assert.NoError(t, err)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Move blocked on a listener")
	}
	// the request context ending must not cancel the listener
	cancel()
	close(release)
	select {
	case n := <-seen:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("listener never ran")
	}
	require.NoError(t, m.Close())
}

func TestListenerSeesSnapshot(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)
	states := make(chan checkers.GameState, 2)
	m.OnMove(func(_ context.Context, g *Game, _ checkers.Move) { states <- g.State })
	ctx := context.Background()
	g, err := m.Create(ctx)
	require.NoError(t, err)
	_, _, err = m.Select(ctx, g.ID, 5)
	require.NoError(t, err)
	moved, _, err := m.Move(ctx, g.ID, checkers.Position{Row: 2, Col: 1})
	require.NoError(t, err)
	moved.State.BlackPieces[0].Position = checkers.Position{Row: 7, Col: 7}
	require.NoError(t, m.Close())

	st := <-states
	assert.Equal(t, checkers.Position{Row: 0, Col: 1}, st.BlackPieces[0].Position)
}

func TestHistoryUnavailableWithoutRepository(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)
	g, err := m.Create(context.Background())
	require.NoError(t, err)
	_, err = m.History(context.Background(), g.ID)
	assert.True(t, errors.Is(err, ErrHistoryUnavailable))
}

func TestRedisStoreConcurrentSelections(t *testing.T) {
	s, _ := newRedisStore(t)
	m := NewManager(s, layout.Standard())
	ctx := context.Background()
	g, err := m.Create(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for id := 9; id <= 12; id++ {
		wg.Add(1)
		go func(pieceID int) {
			defer wg.Done()
			_, _, err := m.Select(ctx, g.ID, pieceID)
			if err != nil && !errors.Is(err, ErrConflict) {
				t.Errorf("select %d: %v", pieceID, err)
			}
		}(id)
	}
	wg.Wait()

	final, err := m.Get(ctx, g.ID)
	require.NoError(t, err)
	// whatever won, selection and valid moves must belong together
	if sel, ok := final.State.Selected(); ok {
		p, found := final.State.FindPiece(sel)
		require.True(t, found)
		assert.Equal(t, checkers.GenerateMoves(p), final.State.ValidMoves)
	} else {
		assert.Empty(t, final.State.ValidMoves)
	}
}

func TestRedisStoreKeyAndTTL(t *testing.T) {
	s, mr := newRedisStore(t)
	g := &Game{ID: "g1", State: layout.Standard().State()}
	require.NoError(t, s.Create(context.Background(), g))
	assert.True(t, mr.Exists("checkers:game:g1"))
	assert.Equal(t, time.Hour, mr.TTL("checkers:game:g1"))
	assert.True(t, errors.Is(s.Create(context.Background(), g), ErrGameExists))
}

func TestRedisStoreCorruptPayload(t *testing.T) {
	s, mr := newRedisStore(t)
	require.NoError(t, mr.Set("checkers:game:bad", "{not json"))
	_, err := s.Load(context.Background(), "bad")
	assert.Error(t, err)
	_, err = s.Update(context.Background(), "bad", func(*Game) error { return nil })
	assert.Error(t, err)
	assert.False(t, errors.Is(err, redis.Nil))
}

func TestParseRedisURL(t *testing.T) {
	o, err := parseRedisURL("redis://:pw@localhost:6380/3")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", o.Addr)
	assert.Equal(t, "pw", o.Password)
	assert.Equal(t, 3, o.DB)
	_, err = parseRedisURL("http://localhost")
	assert.Error(t, err)
}
