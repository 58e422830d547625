package checkers

import (
	"fmt"
	"strings"
)

// BoardSize is the number of rows and columns on the board.
const BoardSize = 8

// Color identifies which side a piece belongs to.
type Color string

const (
	Black  Color = "black"
	Orange Color = "orange"
)

// ParseColor normalises a textual color. Unknown values return ok=false.
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "black", "b":
		return Black, true
	case "orange", "o":
		return Orange, true
	default:
		return "", false
	}
}

// Position is a board square. Two positions are equal iff both coordinates match.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether both coordinates lie in [0, BoardSize).
func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.Row, p.Col) }

// Piece is a single checker. ID is assigned once and never reused.
type Piece struct {
	ID       int      `json:"id"`
	Color    Color    `json:"color"`
	Position Position `json:"position"`
}

// PieceSet is the ordered collection of all pieces of one color.
type PieceSet []Piece

// Index returns the slice index of the piece with the given id.
func (s PieceSet) Index(id int) (int, bool) {
	for i := range s {
		if s[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// Clone returns an independent copy of the set.
func (s PieceSet) Clone() PieceSet {
	if s == nil {
		return nil
	}
	out := make(PieceSet, len(s))
	copy(out, s)
	return out
}

// GameState is the complete state owned by a Controller.
// SelectedPieceID and ValidMoves are always set and cleared together.
type GameState struct {
	BlackPieces     PieceSet   `json:"black_pieces"`
	OrangePieces    PieceSet   `json:"orange_pieces"`
	SelectedPieceID *int       `json:"selected_piece_id,omitempty"`
	ValidMoves      []Position `json:"valid_moves"`
}

// Clone deep-copies the state so callers can't alias controller internals.
func (s GameState) Clone() GameState {
	out := GameState{
		BlackPieces:  s.BlackPieces.Clone(),
		OrangePieces: s.OrangePieces.Clone(),
		ValidMoves:   append([]Position{}, s.ValidMoves...),
	}
	if s.SelectedPieceID != nil {
		id := *s.SelectedPieceID
		out.SelectedPieceID = &id
	}
	return out
}

// Selected reports the selected piece id, if any.
func (s GameState) Selected() (int, bool) {
	if s.SelectedPieceID == nil {
		return 0, false
	}
	return *s.SelectedPieceID, true
}

// FindPiece looks the id up across both sets.
func (s GameState) FindPiece(id int) (Piece, bool) {
	if i, ok := s.BlackPieces.Index(id); ok {
		return s.BlackPieces[i], true
	}
	if i, ok := s.OrangePieces.Index(id); ok {
		return s.OrangePieces[i], true
	}
	return Piece{}, false
}

// Transition names the state change caused by a selection request.
type Transition string

const (
	TransitionSelected   Transition = "selected"
	TransitionDeselected Transition = "deselected"
)

// Move describes an applied move.
type Move struct {
	PieceID int      `json:"piece_id"`
	Color   Color    `json:"color"`
	From    Position `json:"from"`
	To      Position `json:"to"`
}

// Errors
var (
	// ErrInvalidSelection: the piece id is not present in either set.
	ErrInvalidSelection = errf("invalid selection")
	// ErrInvalidMoveTarget: the position is not among the current valid moves.
	ErrInvalidMoveTarget = errf("invalid move target")
	// ErrInvalidLayout is returned when a starting configuration breaks board invariants.
	ErrInvalidLayout = errf("invalid layout")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
