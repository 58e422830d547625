package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/park285/Cheese-Checkers/internal/adapter/checkerspresenter"
	"github.com/park285/Cheese-Checkers/internal/checkers"
	"github.com/park285/Cheese-Checkers/internal/obslog"
	"github.com/park285/Cheese-Checkers/internal/session"
	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	g, err := s.mgr.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err, map[string]any{"GameID": id})
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns})
	if err != nil {
		obslog.L().Warn("api_ws_accept_error", zap.String("game_id", id), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	ctx := r.Context()
	s.hub.add(id, conn)
	defer s.hub.remove(id, conn)
	log := obslog.Named("ws").With(zap.String("game_id", id))
	log.Debug("api_ws_open", zap.String("remote", r.RemoteAddr))

	if err := wsjson.Write(ctx, conn, stateFrame(g)); err != nil {
		return
	}
	for {
		var f checkersdto.ClientFrame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				log.Debug("api_ws_close")
				conn.Close(websocket.StatusNormalClosure, "")
			default:
				if !errors.Is(err, context.Canceled) {
					log.Debug("api_ws_read_error", zap.Error(err))
				}
			}
			return
		}
		if err := s.handleFrame(ctx, conn, id, f); err != nil {
			log.Debug("api_ws_write_error", zap.Error(err))
			return
		}
	}
}

// handleFrame applies one client frame. Successful select/move results are broadcast
// to every socket of the game; errors and plain state reads go to the sender only.
func (s *Server) handleFrame(ctx context.Context, conn *websocket.Conn, id string, f checkersdto.ClientFrame) error {
	var (
		g    *session.Game
		err  error
		data = map[string]any{"GameID": id}
	)
	switch f.Type {
	case checkersdto.FrameSelect:
		if f.PieceID == nil {
			err = badRequest("piece_id is required")
			break
		}
		data["PieceID"] = *f.PieceID
		g, _, err = s.mgr.Select(ctx, id, *f.PieceID)
	case checkersdto.FrameMove:
		if f.Row == nil || f.Col == nil {
			err = badRequest("row and col are required")
			break
		}
		pos := checkers.Position{Row: *f.Row, Col: *f.Col}
		data["Row"], data["Col"] = pos.Row, pos.Col
		g, _, err = s.mgr.Move(ctx, id, pos)
	case checkersdto.FrameState:
		g, err = s.mgr.Get(ctx, id)
		if err == nil {
			return wsjson.Write(ctx, conn, stateFrame(g))
		}
	default:
		err = badRequest("unknown frame type " + f.Type)
	}
	if err != nil {
		_, de := s.toDomainError(err, data)
		return wsjson.Write(ctx, conn, checkersdto.ServerFrame{Type: checkersdto.FrameError, Error: &de})
	}
	s.hub.Broadcast(ctx, checkerspresenter.ToStateView(g))
	return nil
}

func stateFrame(g *session.Game) checkersdto.ServerFrame {
	return checkersdto.ServerFrame{Type: checkersdto.FrameState, State: checkerspresenter.ToStateView(g)}
}
