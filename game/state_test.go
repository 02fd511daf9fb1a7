package game

import (
	"strings"
	"testing"
)

func newTestGame(t *testing.T, w, h int, ships []int, mode Mode) *GameState {
	t.Helper()
	s, err := New(Config{ID: "test", Width: w, Height: h, Mode: mode, Ships: ships, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNew_Validation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero width", Config{Width: 0, Height: 10, Mode: ModeNoTouch, Ships: []int{2}}},
		{"negative height", Config{Width: 10, Height: -1, Mode: ModeNoTouch, Ships: []int{2}}},
		{"bad mode", Config{Width: 10, Height: 10, Mode: "diagonal", Ships: []int{2}}},
		{"empty fleet", Config{Width: 10, Height: 10, Mode: ModeNoTouch}},
		{"zero length ship", Config{Width: 10, Height: 10, Mode: ModeNoTouch, Ships: []int{3, 0}}},
		{"ship longer than board", Config{Width: 4, Height: 4, Mode: ModeNoTouch, Ships: []int{5}}},
	}
	for _, c := range cases {
		if _, err := New(c.cfg); err == nil {
			t.Errorf("%s: expected error, got none", c.name)
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(Config{Width: 10, Height: 10, Mode: ModeTouching, Ships: []int{5, 4, 3, 3, 2}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.ID == "" {
		t.Fatalf("expected generated ID")
	}
	if s.RNGSeed == 0 {
		t.Fatalf("expected non-zero seed")
	}
	for x := 0; x < s.Width; x++ {
		for y := 0; y < s.Height; y++ {
			if s.Board[x][y] != Unknown {
				t.Fatalf("cell (%d,%d)=%q want unknown", x, y, s.Board[x][y])
			}
		}
	}
	// A ship as long as the board edge is legal.
	if _, err := New(Config{Width: 3, Height: 10, Mode: ModeTouching, Ships: []int{10}}); err != nil {
		t.Fatalf("edge-length ship rejected: %v", err)
	}
}

func TestNew_CopiesFleet(t *testing.T) {
	ships := []int{5, 4, 3}
	s, err := New(Config{Width: 10, Height: 10, Mode: ModeNoTouch, Ships: ships, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ships[0] = 99
	if s.Ships[0] != 5 {
		t.Fatalf("fleet aliases caller slice: %v", s.Ships)
	}
}

func TestClone_IsDeep(t *testing.T) {
	s := newTestGame(t, 5, 5, []int{3, 2}, ModeNoTouch)
	s.Board[1][1] = Hit
	s.HitMem = append(s.HitMem, Point{X: 1, Y: 1})
	s.Pending = &Point{X: 2, Y: 2}

	c := s.Clone()
	c.Board[1][1] = Miss
	c.HitMem[0] = Point{X: 4, Y: 4}
	c.Ships[0] = 9
	c.Pending.X = 0

	if s.Board[1][1] != Hit {
		t.Fatalf("clone shares board")
	}
	if s.HitMem[0] != (Point{X: 1, Y: 1}) {
		t.Fatalf("clone shares hit memory")
	}
	if s.Ships[0] != 3 {
		t.Fatalf("clone shares fleet")
	}
	if s.Pending.X != 2 {
		t.Fatalf("clone shares pending pointer")
	}

	var nilState *GameState
	if nilState.Clone() != nil {
		t.Fatalf("nil clone should stay nil")
	}
}

func TestParseShips(t *testing.T) {
	got, err := ParseShips("5, 4,3,3,2")
	if err != nil {
		t.Fatalf("ParseShips: %v", err)
	}
	want := []int{5, 4, 3, 3, 2}
	if len(got) != len(want) {
		t.Fatalf("ships=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ships=%v want=%v", got, want)
		}
	}

	if _, err := ParseShips("5,x,3"); err == nil {
		t.Fatalf("expected error for non-numeric length")
	}
	if _, err := ParseShips(" , "); err == nil {
		t.Fatalf("expected error for empty fleet")
	}
}

func TestBoardString_RowMajor(t *testing.T) {
	s := newTestGame(t, 3, 2, []int{2}, ModeTouching)
	s.Board[2][0] = Hit
	s.Board[0][1] = Miss

	got := s.BoardString()
	if got != "..xo.." {
		t.Fatalf("board string=%q want %q", got, "..xo..")
	}
}

func TestRender_Labels(t *testing.T) {
	s := newTestGame(t, 3, 2, []int{2}, ModeTouching)
	s.Board[1][0] = Sunk

	out := Render(s)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("render lines=%d want=3\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "1") || !strings.Contains(lines[0], "3") {
		t.Fatalf("header missing column numbers: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "A") || !strings.HasPrefix(lines[2], "B") {
		t.Fatalf("rows not lettered: %q / %q", lines[1], lines[2])
	}
	if !strings.Contains(lines[1], "#") {
		t.Fatalf("sunk glyph missing from row A: %q", lines[1])
	}
}
