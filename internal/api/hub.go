package api

import (
	"context"
	"sync"
	"time"

	"github.com/park285/Cheese-Checkers/internal/obslog"
	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Hub tracks websocket subscribers per game and fans out state frames.
type Hub struct {
	mu           sync.Mutex
	games        map[string]map[*websocket.Conn]struct{}
	writeTimeout time.Duration
}

func NewHub(writeTimeout time.Duration) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Hub{games: make(map[string]map[*websocket.Conn]struct{}), writeTimeout: writeTimeout}
}

func (h *Hub) add(gameID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.games[gameID]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		h.games[gameID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(gameID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.games[gameID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.games, gameID)
	}
}

// Subscribers reports how many sockets follow gameID.
func (h *Hub) Subscribers(gameID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.games[gameID])
}

// Broadcast sends a state frame to every socket of the view's game.
// Sockets that fail to accept the write are closed and dropped.
func (h *Hub) Broadcast(ctx context.Context, view *checkersdto.StateView) {
	if h == nil || view == nil {
		return
	}
	h.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(h.games[view.GameID]))
	for c := range h.games[view.GameID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()
	if len(targets) == 0 {
		return
	}

	frame := checkersdto.ServerFrame{Type: checkersdto.FrameState, State: view}
	base := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for _, c := range targets {
		wg.Add(1)
		go func(c *websocket.Conn) {
			defer wg.Done()
			wctx, cancel := context.WithTimeout(base, h.writeTimeout)
			defer cancel()
			if err := wsjson.Write(wctx, c, frame); err != nil {
				obslog.L().Debug("api_ws_broadcast_drop", zap.String("game_id", view.GameID), zap.Error(err))
				h.remove(view.GameID, c)
				_ = c.Close(websocket.StatusPolicyViolation, "write failed")
			}
		}(c)
	}
	wg.Wait()
}
