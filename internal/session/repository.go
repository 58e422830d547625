package session

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/park285/Cheese-Checkers/internal/checkers"

	_ "github.com/lib/pq"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS checkers_moves (
    game_id    TEXT        NOT NULL,
    seq        INTEGER     NOT NULL,
    piece_id   INTEGER     NOT NULL,
    color      TEXT        NOT NULL,
    from_row   SMALLINT    NOT NULL,
    from_col   SMALLINT    NOT NULL,
    to_row     SMALLINT    NOT NULL,
    to_col     SMALLINT    NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (game_id, seq)
)`

// Repository stores the move history in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{db: db}, nil
}

// NewRepositoryFromDB wraps an already opened handle.
func NewRepositoryFromDB(db *sql.DB) *Repository { return &Repository{db: db} }

func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create checkers_moves: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// RecordMove inserts one applied move. Replays of the same (game, seq) are ignored.
func (r *Repository) RecordMove(ctx context.Context, gameID string, seq int, mv checkers.Move, at time.Time) error {
	if r == nil || r.db == nil {
		return nil
	}
	const q = `INSERT INTO checkers_moves (
        game_id, seq, piece_id, color, from_row, from_col, to_row, to_col, applied_at
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
      ON CONFLICT (game_id, seq) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q,
		strings.TrimSpace(gameID), seq, mv.PieceID, string(mv.Color),
		mv.From.Row, mv.From.Col, mv.To.Row, mv.To.Col, at,
	)
	if err != nil {
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

func (r *Repository) History(ctx context.Context, gameID string) ([]HistoryEntry, error) {
	if r == nil || r.db == nil {
		return nil, ErrHistoryUnavailable
	}
	const q = `SELECT seq, piece_id, color, from_row, from_col, to_row, to_col, applied_at
        FROM checkers_moves WHERE game_id = $1 ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, q, strings.TrimSpace(gameID))
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	out := []HistoryEntry{}
	for rows.Next() {
		var (
			e     HistoryEntry
			color string
		)
		if err := rows.Scan(&e.Seq, &e.PieceID, &color, &e.From.Row, &e.From.Col, &e.To.Row, &e.To.Col, &e.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		e.Color = checkers.Color(color)
		out = append(out, e)
	}
	return out, rows.Err()
}
