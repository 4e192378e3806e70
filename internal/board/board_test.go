package board

import (
	"strings"
	"testing"
)

func TestClassicBoardIsValid(t *testing.T) {
	if err := Classic().Validate(); err != nil {
		t.Fatalf("Validate() failed on classic board: %v", err)
	}
}

func TestResolveEverySquare(t *testing.T) {
	b := Classic()
	for s := 1; s <= Size; s++ {
		final, ev := b.Resolve(s)

		tail, isSnake := b.Snakes[s]
		top, isLadder := b.Ladders[s]
		if isSnake && isLadder {
			t.Fatalf("square %d maps through both tables", s)
		}

		switch {
		case isSnake:
			if final != tail {
				t.Errorf("square %d: expected snake to %d, got %d", s, tail, final)
			}
			if ev == nil || ev.Type != EventSnake || ev.From != s || ev.To != tail {
				t.Errorf("square %d: unexpected snake event %+v", s, ev)
			}
		case isLadder:
			if final != top {
				t.Errorf("square %d: expected ladder to %d, got %d", s, top, final)
			}
			if ev == nil || ev.Type != EventLadder || ev.From != s || ev.To != top {
				t.Errorf("square %d: unexpected ladder event %+v", s, ev)
			}
		default:
			if final != s {
				t.Errorf("square %d: expected unchanged, got %d", s, final)
			}
			if ev != nil {
				t.Errorf("square %d: expected no event, got %+v", s, ev)
			}
		}
	}
}

func TestResolveKnownSquares(t *testing.T) {
	final, ev := Resolve(99)
	if final != 41 || ev == nil || ev.Type != EventSnake || ev.From != 99 || ev.To != 41 {
		t.Errorf("Resolve(99) = %d, %+v; want 41 snake 99->41", final, ev)
	}

	final, ev = Resolve(2)
	if final != 38 || ev == nil || ev.Type != EventLadder || ev.From != 2 || ev.To != 38 {
		t.Errorf("Resolve(2) = %d, %+v; want 38 ladder 2->38", final, ev)
	}

	final, ev = Resolve(100)
	if final != 100 || ev != nil {
		t.Errorf("Resolve(100) = %d, %+v; want 100 with no event", final, ev)
	}

	final, ev = Resolve(0)
	if final != 0 || ev != nil {
		t.Errorf("Resolve(0) = %d, %+v; want 0 with no event", final, ev)
	}
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "snake going up",
			cfg:     Config{Size: Size, Snakes: map[int]int{10: 20}},
			wantErr: "does not go down",
		},
		{
			name:    "ladder going down",
			cfg:     Config{Size: Size, Ladders: map[int]int{30: 20}},
			wantErr: "does not go up",
		},
		{
			name:    "square in both tables",
			cfg:     Config{Size: Size, Snakes: map[int]int{50: 10}, Ladders: map[int]int{50: 60}},
			wantErr: "both a snake head and a ladder bottom",
		},
		{
			name:    "ladder on square one",
			cfg:     Config{Size: Size, Ladders: map[int]int{1: 20}},
			wantErr: "reserved",
		},
		{
			name:    "snake on the goal",
			cfg:     Config{Size: Size, Snakes: map[int]int{100: 1}},
			wantErr: "reserved",
		},
		{
			name:    "ladder off the board",
			cfg:     Config{Size: Size, Ladders: map[int]int{90: 120}},
			wantErr: "leaves the board",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCoordinatesRoundTrip(t *testing.T) {
	seen := make(map[[2]int]int)
	for s := 1; s <= Size; s++ {
		row, col := Coordinates(s)
		if row < 0 || row >= Side || col < 0 || col >= Side {
			t.Fatalf("square %d out of grid: (%d,%d)", s, row, col)
		}
		if prev, ok := seen[[2]int{row, col}]; ok {
			t.Fatalf("squares %d and %d share cell (%d,%d)", prev, s, row, col)
		}
		seen[[2]int{row, col}] = s

		if back := SquareAt(row, col); back != s {
			t.Errorf("SquareAt(Coordinates(%d)) = %d", s, back)
		}
	}
}

func TestCoordinatesLayout(t *testing.T) {
	cases := []struct {
		square   int
		row, col int
	}{
		{1, 9, 0},
		{10, 9, 9},
		{11, 8, 9},
		{20, 8, 0},
		{91, 0, 9},
		{100, 0, 0},
	}
	for _, c := range cases {
		row, col := Coordinates(c.square)
		if row != c.row || col != c.col {
			t.Errorf("Coordinates(%d) = (%d,%d), want (%d,%d)", c.square, row, col, c.row, c.col)
		}
	}
}

func TestSquaresMarkers(t *testing.T) {
	squares := Classic().Squares()
	if len(squares) != Size {
		t.Fatalf("expected %d squares, got %d", Size, len(squares))
	}
	if squares[98].SnakeTo != 41 {
		t.Errorf("square 99 should be marked as snake to 41, got %+v", squares[98])
	}
	if squares[1].LadderTo != 38 {
		t.Errorf("square 2 should be marked as ladder to 38, got %+v", squares[1])
	}
	if squares[49].SnakeTo != 0 || squares[49].LadderTo != 0 {
		t.Errorf("square 50 should be plain, got %+v", squares[49])
	}
}
