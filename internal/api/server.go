package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/park285/Cheese-Checkers/internal/adapter/checkerspresenter"
	"github.com/park285/Cheese-Checkers/internal/checkers"
	"github.com/park285/Cheese-Checkers/internal/msgcat"
	"github.com/park285/Cheese-Checkers/internal/obslog"
	"github.com/park285/Cheese-Checkers/internal/render"
	"github.com/park285/Cheese-Checkers/internal/session"
	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 12

// Server exposes session.Manager over HTTP and websockets.
type Server struct {
	mgr      *session.Manager
	renderer *render.Renderer
	msgs     *msgcat.Catalog
	hub      *Hub

	originPatterns []string
}

type Option func(*Server)

// WithOriginPatterns allows cross-origin websocket handshakes from the given host patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.originPatterns = append(s.originPatterns, patterns...) }
}

func NewServer(mgr *session.Manager, renderer *render.Renderer, msgs *msgcat.Catalog, opts ...Option) *Server {
	if renderer == nil {
		renderer = render.NewRenderer(0)
	}
	s := &Server{mgr: mgr, renderer: renderer, msgs: msgs, hub: NewHub(5 * time.Second)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hub returns the websocket fan-out used by the server.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(accessLog)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/games", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/games/{id}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/games/{id}/select", s.handleSelect).Methods(http.MethodPost)
	r.HandleFunc("/games/{id}/move", s.handleMove).Methods(http.MethodPost)
	r.HandleFunc("/games/{id}/board.png", s.handleBoard).Methods(http.MethodGet)
	r.HandleFunc("/games/{id}/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/games/{id}/ws", s.handleWS).Methods(http.MethodGet)
	return r
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	g, err := s.mgr.Create(r.Context())
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, checkerspresenter.ToStateView(g))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	g, err := s.mgr.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err, map[string]any{"GameID": id})
		return
	}
	writeJSON(w, http.StatusOK, checkerspresenter.ToStateView(g))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req checkersdto.SelectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err, nil)
		return
	}
	if req.PieceID == nil {
		s.writeError(w, badRequest("piece_id is required"), nil)
		return
	}
	g, _, err := s.mgr.Select(r.Context(), id, *req.PieceID)
	if err != nil {
		s.writeError(w, err, map[string]any{"GameID": id, "PieceID": *req.PieceID})
		return
	}
	view := checkerspresenter.ToStateView(g)
	s.hub.Broadcast(r.Context(), view)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req checkersdto.MoveRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err, nil)
		return
	}
	if req.Row == nil || req.Col == nil {
		s.writeError(w, badRequest("row and col are required"), nil)
		return
	}
	pos := checkers.Position{Row: *req.Row, Col: *req.Col}
	g, _, err := s.mgr.Move(r.Context(), id, pos)
	if err != nil {
		s.writeError(w, err, map[string]any{"GameID": id, "Row": pos.Row, "Col": pos.Col})
		return
	}
	view := checkerspresenter.ToStateView(g)
	s.hub.Broadcast(r.Context(), view)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	g, err := s.mgr.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err, map[string]any{"GameID": id})
		return
	}
	png, err := s.renderer.RenderPNG(r.Context(), g.State)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entries, err := s.mgr.History(r.Context(), id)
	if err != nil {
		s.writeError(w, err, map[string]any{"GameID": id})
		return
	}
	writeJSON(w, http.StatusOK, checkerspresenter.ToMoveEvents(id, entries))
}

type requestError struct{ detail string }

func (e requestError) Error() string { return e.detail }

func badRequest(detail string) error { return requestError{detail: detail} }

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("empty body")
		}
		return badRequest(strings.TrimSpace(err.Error()))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obslog.L().Warn("api_write_error", zap.Error(err))
	}
}
