package checkers

// GenerateMoves returns the single-step diagonal destinations for p.
// Black advances toward increasing rows, orange toward decreasing rows.
// Occupancy is not considered. The left diagonal is listed before the right one.
func GenerateMoves(p Piece) []Position {
	moves := make([]Position, 0, 2)
	var row int
	switch p.Color {
	case Black:
		row = p.Position.Row + 1
		if row >= BoardSize {
			return moves
		}
	case Orange:
		row = p.Position.Row - 1
		if row < 0 {
			return moves
		}
	default:
		return moves
	}
	for _, dc := range [...]int{-1, 1} {
		col := p.Position.Col + dc
		if col >= 0 && col < BoardSize {
			moves = append(moves, Position{Row: row, Col: col})
		}
	}
	return moves
}

func containsPosition(list []Position, pos Position) bool {
	for _, p := range list {
		if p == pos {
			return true
		}
	}
	return false
}
