package checkers

// StandardLayout returns the usual 24-piece opening: black ids 1–12 on rows 0–2,
// orange ids 13–24 on rows 5–7, every piece on a square where row+col is odd.
func StandardLayout() (black, orange PieceSet) {
	id := 0
	fill := func(c Color, rows ...int) PieceSet {
		set := make(PieceSet, 0, 12)
		for _, r := range rows {
			for col := 0; col < BoardSize; col++ {
				if (r+col)%2 == 0 {
					continue
				}
				id++
				set = append(set, Piece{ID: id, Color: c, Position: Position{Row: r, Col: col}})
			}
		}
		return set
	}
	black = fill(Black, 0, 1, 2)
	orange = fill(Orange, 5, 6, 7)
	return black, orange
}

// NewStandardController is NewController over StandardLayout.
func NewStandardController(opts ...Option) *Controller {
	black, orange := StandardLayout()
	c, err := NewController(black, orange, opts...)
	if err != nil {
		panic("checkers: standard layout rejected: " + err.Error())
	}
	return c
}
