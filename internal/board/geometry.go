package board

// Side is the number of squares along one edge of the classic board.
const Side = 10

// Square describes one cell of the board for rendering.
type Square struct {
	Number   int
	Row      int
	Col      int
	SnakeTo  int // 0 if the square is not a snake head
	LadderTo int // 0 if the square is not a ladder bottom
}

// Coordinates maps a square number to its display row and column.
// Row 0 is the top of the board; square 1 sits bottom-left and rows
// alternate direction.
func Coordinates(square int) (row, col int) {
	r := (square - 1) / Side
	c := (square - 1) % Side
	if r%2 == 1 {
		c = Side - 1 - c
	}
	return Side - 1 - r, c
}

// SquareAt is the inverse of Coordinates.
func SquareAt(row, col int) int {
	r := Side - 1 - row
	c := col
	if r%2 == 1 {
		c = Side - 1 - col
	}
	return r*Side + c + 1
}

// Squares lists every square of the board in numeric order.
func (c Config) Squares() []Square {
	out := make([]Square, 0, c.Size)
	for n := 1; n <= c.Size; n++ {
		row, col := Coordinates(n)
		out = append(out, Square{
			Number:   n,
			Row:      row,
			Col:      col,
			SnakeTo:  c.Snakes[n],
			LadderTo: c.Ladders[n],
		})
	}
	return out
}
