package session

import (
	"context"
	"time"

	"github.com/park285/Cheese-Checkers/internal/checkers"
)

// Game is the persisted state of one board.
type Game struct {
	ID        string             `json:"id"`
	Layout    string             `json:"layout"`
	State     checkers.GameState `json:"state"`
	MoveCount int                `json:"move_count"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Store persists games. Update must run fn against the latest stored copy and
// save the result atomically; when fn fails nothing is written.
type Store interface {
	Create(ctx context.Context, g *Game) error
	Load(ctx context.Context, id string) (*Game, error)
	Update(ctx context.Context, id string, fn func(g *Game) error) (*Game, error)
	Close() error
}

// MoveRecorder keeps an append-only move history.
type MoveRecorder interface {
	RecordMove(ctx context.Context, gameID string, seq int, mv checkers.Move, at time.Time) error
	History(ctx context.Context, gameID string) ([]HistoryEntry, error)
	Close() error
}

type HistoryEntry struct {
	Seq       int               `json:"seq"`
	PieceID   int               `json:"piece_id"`
	Color     checkers.Color    `json:"color"`
	From      checkers.Position `json:"from"`
	To        checkers.Position `json:"to"`
	AppliedAt time.Time         `json:"applied_at"`
}

// MoveListener is called after a move has been persisted.
type MoveListener func(ctx context.Context, g *Game, mv checkers.Move)

// Errors
var (
	ErrGameNotFound       = errf("game not found")
	ErrGameExists         = errf("game already exists")
	ErrConflict           = errf("concurrent update, retry")
	ErrHistoryUnavailable = errf("move history not configured")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
