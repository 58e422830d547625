package checkerspresenter

import (
	"github.com/park285/Cheese-Checkers/internal/checkers"
	"github.com/park285/Cheese-Checkers/internal/session"
	"github.com/park285/Cheese-Checkers/pkg/checkersdto"
)

// ToStateView converts a stored game into its wire snapshot.
func ToStateView(g *session.Game) *checkersdto.StateView {
	if g == nil {
		return nil
	}
	v := &checkersdto.StateView{
		GameID:       g.ID,
		BlackPieces:  toDTOPieces(g.State.BlackPieces),
		OrangePieces: toDTOPieces(g.State.OrangePieces),
		ValidMoves:   toDTOPositions(g.State.ValidMoves),
		MoveCount:    g.MoveCount,
		UpdatedAt:    g.UpdatedAt,
	}
	if g.State.SelectedPieceID != nil {
		id := *g.State.SelectedPieceID
		v.SelectedPieceID = &id
	}
	return v
}

// ToMoveEvents converts recorded history for one game.
func ToMoveEvents(gameID string, entries []session.HistoryEntry) []checkersdto.MoveEvent {
	out := make([]checkersdto.MoveEvent, 0, len(entries))
	for _, e := range entries {
		out = append(out, checkersdto.MoveEvent{
			GameID:    gameID,
			Seq:       e.Seq,
			PieceID:   e.PieceID,
			Color:     string(e.Color),
			From:      ToDTOPosition(e.From),
			To:        ToDTOPosition(e.To),
			AppliedAt: e.AppliedAt,
		})
	}
	return out
}

func ToDTOPosition(p checkers.Position) checkersdto.Position {
	return checkersdto.Position{Row: p.Row, Col: p.Col}
}

func toDTOPieces(ps checkers.PieceSet) []checkersdto.Piece {
	out := make([]checkersdto.Piece, 0, len(ps))
	for _, p := range ps {
		out = append(out, checkersdto.Piece{ID: p.ID, Color: string(p.Color), Position: ToDTOPosition(p.Position)})
	}
	return out
}

func toDTOPositions(ps []checkers.Position) []checkersdto.Position {
	out := make([]checkersdto.Position, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToDTOPosition(p))
	}
	return out
}
