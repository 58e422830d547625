package checkersdto

import "time"

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type Piece struct {
	ID       int      `json:"id"`
	Color    string   `json:"color"`
	Position Position `json:"position"`
}

// StateView is the read-only snapshot handed to renderers and clients.
type StateView struct {
	GameID          string     `json:"game_id"`
	BlackPieces     []Piece    `json:"black_pieces"`
	OrangePieces    []Piece    `json:"orange_pieces"`
	SelectedPieceID *int       `json:"selected_piece_id"`
	ValidMoves      []Position `json:"valid_moves"`
	MoveCount       int        `json:"move_count"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// MoveEvent is published once per applied move.
type MoveEvent struct {
	GameID    string    `json:"game_id"`
	Seq       int       `json:"seq"`
	PieceID   int       `json:"piece_id"`
	Color     string    `json:"color"`
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	AppliedAt time.Time `json:"applied_at"`
}
