package syncfast

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/Cheese-Checkers/internal/checkers"
	"github.com/park285/Cheese-Checkers/internal/session"
	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func serve(t *testing.T, handler fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, handler) }()
	t.Cleanup(func() { _ = ln.Close() })
	return NewClient("http://sync.test",
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
		WithBearerToken("tok"),
		WithTimeout(2*time.Second),
	)
}

func TestPublishMove(t *testing.T) {
	var (
		mu   sync.Mutex
		got  checkersdto.MoveEvent
		auth string
		path string
	)
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		mu.Lock()
		defer mu.Unlock()
		path = string(ctx.Path())
		auth = string(ctx.Request.Header.Peek("Authorization"))
		_ = json.Unmarshal(ctx.PostBody(), &got)
		ctx.SetStatusCode(fasthttp.StatusAccepted)
	})

	g := &session.Game{ID: "g1", MoveCount: 3, UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	mv := checkers.Move{PieceID: 5, Color: checkers.Black, From: checkers.Position{Row: 1, Col: 0}, To: checkers.Position{Row: 2, Col: 1}}
	require.NoError(t, c.PublishMove(context.Background(), MoveEventFor(g, mv)))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/moves", path)
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "g1", got.GameID)
	assert.Equal(t, 3, got.Seq)
	assert.Equal(t, checkersdto.Position{Row: 2, Col: 1}, got.To)
	assert.True(t, got.AppliedAt.Equal(g.UpdatedAt))
}

func TestPublishRetriesOn5xx(t *testing.T) {
	var calls int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		if atomic.AddInt32(&calls, 1) < 3 {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
	})
	require.NoError(t, c.PublishMove(context.Background(), checkersdto.MoveEvent{GameID: "g"}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPublishDoesNotRetry4xx(t *testing.T) {
	var calls int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		atomic.AddInt32(&calls, 1)
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		ctx.SetBodyString("nope")
	})
	err := c.PublishMove(context.Background(), checkersdto.MoveEvent{GameID: "g"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=400")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "nope", se.Body)
	assert.False(t, se.Temporary())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPublishStopsOnCancelledContext(t *testing.T) {
	var calls int32
	c := serve(t, func(ctx *fasthttp.RequestCtx) {
		atomic.AddInt32(&calls, 1)
		ctx.SetStatusCode(fasthttp.StatusBadGateway)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.PublishMove(ctx, checkersdto.MoveEvent{GameID: "g"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestBackoffDuration(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, backoffDuration(0))
	assert.Equal(t, 400*time.Millisecond, backoffDuration(3))
	assert.Equal(t, backoffDuration(6), backoffDuration(10))
}
