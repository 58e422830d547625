package syncfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/park285/Cheese-Checkers/internal/checkers"
	"github.com/park285/Cheese-Checkers/internal/obslog"
	"github.com/park285/Cheese-Checkers/internal/session"
	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// Client pushes applied moves to an external state-sync service.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithBearerToken sets Authorization on every request.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		token = strings.TrimSpace(token)
		if token == "" {
			return
		}
		c.headers = func() map[string]string { return map[string]string{"Authorization": "Bearer " + token} }
	}
}

// WithDial replaces the transport dialer.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PublishMove posts one move event to /moves.
func (c *Client) PublishMove(ctx context.Context, ev checkersdto.MoveEvent) error {
	return c.post(ctx, "/moves", ev)
}

// Listener adapts the client to session.Manager.OnMove. Failures are logged only.
func (c *Client) Listener() session.MoveListener {
	return func(ctx context.Context, g *session.Game, mv checkers.Move) {
		ev := MoveEventFor(g, mv)
		if err := c.PublishMove(ctx, ev); err != nil {
			obslog.L().Warn("checkers_sync_publish_error", zap.String("game_id", ev.GameID), zap.Int("seq", ev.Seq), zap.Error(err))
		}
	}
}

// MoveEventFor builds the wire event for a persisted move.
func MoveEventFor(g *session.Game, mv checkers.Move) checkersdto.MoveEvent {
	return checkersdto.MoveEvent{
		GameID:    g.ID,
		Seq:       g.MoveCount,
		PieceID:   mv.PieceID,
		Color:     string(mv.Color),
		From:      checkersdto.Position{Row: mv.From.Row, Col: mv.From.Col},
		To:        checkersdto.Position{Row: mv.To.Row, Col: mv.To.Col},
		AppliedAt: g.UpdatedAt,
	}
}

// StatusError is a non-2xx answer from the sync service.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sync api error: status=%d body=%s", e.Status, e.Body)
}

// Temporary reports whether the request may succeed when repeated.
func (e *StatusError) Temporary() bool { return shouldRetryStatus(e.Status) }

// post sends body to path, repeating on transport errors and temporary statuses.
func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	attempts := max(c.retryMax, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := wait(ctx, backoffDuration(attempt-1)); err != nil {
				return lastErr
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = c.send(ctx, path, payload)
		if lastErr == nil {
			return nil
		}
		var se *StatusError
		if errors.As(lastErr, &se) && !se.Temporary() {
			return lastErr
		}
		obslog.L().Debug("checkers_sync_retry", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(lastErr))
	}
	return lastErr
}

// send performs one request/response exchange.
func (c *Client) send(ctx context.Context, path string, payload []byte) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if k = strings.TrimSpace(k); k != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	req.SetBodyRaw(payload)

	deadline := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		body := resp.Body()
		if len(body) > 512 {
			body = body[:512]
		}
		return &StatusError{Status: code, Body: string(body)}
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
