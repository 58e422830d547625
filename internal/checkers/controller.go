package checkers

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Controller owns both piece sets and the selection state.
// All mutating calls are serialized by mu.
type Controller struct {
	mu    sync.Mutex
	state GameState
	log   *zap.Logger
}

type Option func(*Controller)

// WithLogger attaches a logger; the default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// NewController starts an Idle controller over the given starting sets.
// The sets are copied; the caller keeps ownership of its slices.
func NewController(black, orange PieceSet, opts ...Option) (*Controller, error) {
	if err := ValidateLayout(black, orange); err != nil {
		return nil, err
	}
	return Restore(GameState{BlackPieces: black, OrangePieces: orange}, opts...)
}

// Restore rebuilds a controller from a previously captured state, selection included.
// Shared squares are accepted here: applied moves never check occupancy.
func Restore(state GameState, opts ...Option) (*Controller, error) {
	if err := validatePieces(state.BlackPieces, state.OrangePieces, false); err != nil {
		return nil, err
	}
	st := state.Clone()
	if st.SelectedPieceID != nil {
		if _, ok := st.FindPiece(*st.SelectedPieceID); !ok {
			return nil, fmt.Errorf("%w: selected piece %d not on board", ErrInvalidLayout, *st.SelectedPieceID)
		}
	} else {
		st.ValidMoves = []Position{}
	}
	c := &Controller{state: st, log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SelectPiece drives Idle→Selected, Selected→Selected and Selected→Idle (deselect).
// An unknown id returns ErrInvalidSelection and leaves the state untouched.
func (c *Controller) SelectPiece(pieceID int) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.state.Selected(); ok && cur == pieceID {
		c.clearSelection()
		c.log.Debug("checkers_deselect", zap.Int("piece_id", pieceID))
		return TransitionDeselected, nil
	}

	piece, ok := c.state.FindPiece(pieceID)
	if !ok {
		c.log.Debug("checkers_select_invalid", zap.Int("piece_id", pieceID))
		return "", fmt.Errorf("%w: piece %d", ErrInvalidSelection, pieceID)
	}

	id := piece.ID
	c.state.SelectedPieceID = &id
	c.state.ValidMoves = GenerateMoves(piece)
	c.log.Debug("checkers_select",
		zap.Int("piece_id", id),
		zap.String("color", string(piece.Color)),
		zap.Stringer("from", piece.Position),
		zap.Int("valid_moves", len(c.state.ValidMoves)),
	)
	return TransitionSelected, nil
}

// ApplyMove moves the selected piece to pos when pos is one of the current valid moves,
// then clears the selection. Anything else returns ErrInvalidMoveTarget with no state change.
func (c *Controller) ApplyMove(pos Position) (Move, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	selected, ok := c.state.Selected()
	if !ok || !containsPosition(c.state.ValidMoves, pos) {
		return Move{}, fmt.Errorf("%w: %s", ErrInvalidMoveTarget, pos)
	}

	set := &c.state.BlackPieces
	idx, found := set.Index(selected)
	if !found {
		set = &c.state.OrangePieces
		idx, found = set.Index(selected)
	}
	if !found {
		return Move{}, fmt.Errorf("%w: piece %d", ErrInvalidSelection, selected)
	}

	// 새 슬라이스로 교체: 이전 State() 스냅샷과 메모리를 공유하지 않도록
	updated := set.Clone()
	from := updated[idx].Position
	updated[idx].Position = pos
	*set = updated

	mv := Move{PieceID: selected, Color: updated[idx].Color, From: from, To: pos}
	c.clearSelection()
	c.log.Debug("checkers_move",
		zap.Int("piece_id", mv.PieceID),
		zap.String("color", string(mv.Color)),
		zap.Stringer("from", mv.From),
		zap.Stringer("to", mv.To),
	)
	return mv, nil
}

// State returns a read-only snapshot for rendering.
func (c *Controller) State() GameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (c *Controller) clearSelection() {
	c.state.SelectedPieceID = nil
	c.state.ValidMoves = []Position{}
}

// ValidateLayout checks the invariants of a starting configuration:
// positive unique ids, colors matching their set, in-bounds squares, one piece per square.
func ValidateLayout(black, orange PieceSet) error {
	return validatePieces(black, orange, true)
}

func validatePieces(black, orange PieceSet, exclusiveSquares bool) error {
	ids := make(map[int]struct{}, len(black)+len(orange))
	squares := make(map[Position]int, len(black)+len(orange))
	check := func(set PieceSet, want Color) error {
		for _, p := range set {
			if p.ID <= 0 {
				return fmt.Errorf("%w: piece id %d must be positive", ErrInvalidLayout, p.ID)
			}
			if p.Color != want {
				return fmt.Errorf("%w: piece %d has color %q in the %s set", ErrInvalidLayout, p.ID, p.Color, want)
			}
			if !p.Position.InBounds() {
				return fmt.Errorf("%w: piece %d off board at %s", ErrInvalidLayout, p.ID, p.Position)
			}
			if _, dup := ids[p.ID]; dup {
				return fmt.Errorf("%w: duplicate piece id %d", ErrInvalidLayout, p.ID)
			}
			if other, taken := squares[p.Position]; taken && exclusiveSquares {
				return fmt.Errorf("%w: pieces %d and %d share %s", ErrInvalidLayout, other, p.ID, p.Position)
			}
			ids[p.ID] = struct{}{}
			squares[p.Position] = p.ID
		}
		return nil
	}
	if err := check(black, Black); err != nil {
		return err
	}
	return check(orange, Orange)
}
