package session

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/park285/Cheese-Checkers/internal/checkers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewRepositoryFromDB(db), mock
}

func TestRepositoryEnsureSchema(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS checkers_moves")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.EnsureSchema(context.Background()))
}

func TestRepositoryRecordMove(t *testing.T) {
	repo, mock := newMockRepository(t)
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	mv := checkers.Move{PieceID: 5, Color: checkers.Black, From: checkers.Position{Row: 1, Col: 0}, To: checkers.Position{Row: 2, Col: 1}}

	mock.ExpectExec(`INSERT INTO checkers_moves \(\s*game_id, seq, piece_id, color, from_row, from_col, to_row, to_col, applied_at\s*\).*ON CONFLICT \(game_id, seq\) DO NOTHING`).
		WithArgs("g1", 3, 5, "black", 1, 0, 2, 1, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RecordMove(context.Background(), " g1 ", 3, mv, at))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checkers_moves")).
		WillReturnError(errors.New("connection reset"))
	err := repo.RecordMove(context.Background(), "g1", 4, mv, at)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert move")
}

func TestRepositoryHistory(t *testing.T) {
	repo, mock := newMockRepository(t)
	t1 := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	rows := sqlmock.NewRows([]string{"seq", "piece_id", "color", "from_row", "from_col", "to_row", "to_col", "applied_at"}).
		AddRow(1, 5, "black", 1, 0, 2, 1, t1).
		AddRow(2, 21, "orange", 7, 0, 6, 1, t2)
	mock.ExpectQuery(`SELECT seq, piece_id, color, from_row, from_col, to_row, to_col, applied_at\s+FROM checkers_moves WHERE game_id = \$1 ORDER BY seq`).
		WithArgs("g1").
		WillReturnRows(rows)

	got, err := repo.History(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, []HistoryEntry{
		{Seq: 1, PieceID: 5, Color: checkers.Black, From: checkers.Position{Row: 1, Col: 0}, To: checkers.Position{Row: 2, Col: 1}, AppliedAt: t1},
		{Seq: 2, PieceID: 21, Color: checkers.Orange, From: checkers.Position{Row: 7, Col: 0}, To: checkers.Position{Row: 6, Col: 1}, AppliedAt: t2},
	}, got)
}

func TestRepositoryHistoryEmptyAndScanError(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM checkers_moves")).WithArgs("none").
		WillReturnRows(sqlmock.NewRows([]string{"seq", "piece_id", "color", "from_row", "from_col", "to_row", "to_col", "applied_at"}))
	got, err := repo.History(context.Background(), "none")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	mock.ExpectQuery(regexp.QuoteMeta("FROM checkers_moves")).WithArgs("bad").
		WillReturnRows(sqlmock.NewRows([]string{"seq", "piece_id", "color", "from_row", "from_col", "to_row", "to_col", "applied_at"}).
			AddRow("x", 5, "black", 1, 0, 2, 1, time.Now()))
	_, err = repo.History(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan move")
}

func TestRepositoryNilHandle(t *testing.T) {
	var repo *Repository
	assert.NoError(t, repo.RecordMove(context.Background(), "g", 1, checkers.Move{}, time.Now()))
	_, err := repo.History(context.Background(), "g")
	assert.ErrorIs(t, err, ErrHistoryUnavailable)
}
