package guru

import (
	"errors"
	"reflect"
	"testing"

	"battleship-guru/game"
)

func TestReportSink_VerticalNoTouch(t *testing.T) {
	var eng Engine
	s := standardGame(t, 1)
	markHit(s, 7, 2)
	markHit(s, 7, 3)
	markHit(s, 7, 4)

	// Endpoints deliberately reversed; the engine normalizes.
	over, err := eng.ReportSink(s, game.Point{X: 7, Y: 4}, game.Point{X: 7, Y: 2})
	if err != nil {
		t.Fatalf("ReportSink: %v", err)
	}
	if over {
		t.Fatalf("game reported over with ships remaining")
	}

	for y := 2; y <= 4; y++ {
		if s.Board[7][y] != game.Sunk {
			t.Fatalf("span cell (7,%d)=%q want sunk", y, s.Board[7][y])
		}
	}

	// The full ring around the ship is ruled out.
	for x := 6; x <= 8; x++ {
		for y := 1; y <= 5; y++ {
			if x == 7 && y >= 2 && y <= 4 {
				continue
			}
			if s.Board[x][y] != game.Miss {
				t.Fatalf("ring cell (%d,%d)=%q want miss", x, y, s.Board[x][y])
			}
		}
	}
	if s.Board[0][0] != game.Unknown || s.Board[5][2] != game.Unknown {
		t.Fatalf("cells beyond the ring were touched")
	}

	if len(s.HitMem) != 0 {
		t.Fatalf("hit memory=%v want empty", s.HitMem)
	}
	if !reflect.DeepEqual(s.Ships, []int{5, 4, 3, 2}) {
		t.Fatalf("fleet=%v want one 3 removed", s.Ships)
	}
}

func TestReportSink_TouchingModeKeepsRing(t *testing.T) {
	var eng Engine
	s := testGame(t, 10, 10, []int{3, 2}, game.ModeTouching, 1)
	markHit(s, 2, 2)
	markHit(s, 3, 2)
	markHit(s, 4, 2)

	if _, err := eng.ReportSink(s, game.Point{X: 2, Y: 2}, game.Point{X: 4, Y: 2}); err != nil {
		t.Fatalf("ReportSink: %v", err)
	}
	if s.Board[3][2] != game.Sunk {
		t.Fatalf("span not sunk")
	}
	if s.Board[3][1] != game.Unknown || s.Board[1][2] != game.Unknown {
		t.Fatalf("touching mode must leave neighbors unknown")
	}
}

func TestReportSink_EdgeClippedRing(t *testing.T) {
	var eng Engine
	s := testGame(t, 10, 10, []int{2}, game.ModeNoTouch, 1)
	markHit(s, 0, 0)
	markHit(s, 1, 0)

	over, err := eng.ReportSink(s, game.Point{X: 0, Y: 0}, game.Point{X: 1, Y: 0})
	if err != nil {
		t.Fatalf("ReportSink: %v", err)
	}
	if !over {
		t.Fatalf("last ship sunk, game should be over")
	}
	if s.Board[0][0] != game.Sunk || s.Board[1][0] != game.Sunk {
		t.Fatalf("span not sunk")
	}
	for _, p := range []game.Point{{X: 2, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}} {
		if s.At(p) != game.Miss {
			t.Fatalf("ring cell %v=%q want miss", p, s.At(p))
		}
	}
	if len(s.Ships) != 0 {
		t.Fatalf("fleet=%v want empty", s.Ships)
	}
}

func TestReportSink_SingleCellShip(t *testing.T) {
	var eng Engine
	s := testGame(t, 5, 5, []int{1}, game.ModeNoTouch, 1)
	markHit(s, 4, 4)

	over, err := eng.ReportSink(s, game.Point{X: 4, Y: 4}, game.Point{X: 4, Y: 4})
	if err != nil {
		t.Fatalf("ReportSink: %v", err)
	}
	if !over {
		t.Fatalf("only ship sunk, game should be over")
	}
	if s.Board[4][4] != game.Sunk {
		t.Fatalf("cell=%q want sunk", s.Board[4][4])
	}
	if s.Board[3][3] != game.Miss {
		t.Fatalf("diagonal neighbor=%q want miss", s.Board[3][3])
	}
}

func TestReportSink_RejectionsLeaveStateUntouched(t *testing.T) {
	var eng Engine

	t.Run("misaligned", func(t *testing.T) {
		s := standardGame(t, 1)
		markHit(s, 1, 1)
		markHit(s, 2, 2)
		before := s.Clone()

		_, err := eng.ReportSink(s, game.Point{X: 1, Y: 1}, game.Point{X: 2, Y: 2})
		if !errors.Is(err, ErrSinkNotAligned) {
			t.Fatalf("err=%v want ErrSinkNotAligned", err)
		}
		if !reflect.DeepEqual(s, before) {
			t.Fatalf("state changed by rejected sink")
		}
	})

	t.Run("unrecorded hit", func(t *testing.T) {
		s := standardGame(t, 1)
		markHit(s, 3, 3)
		// (3,4) looks hit on the board but was never reported.
		s.Board[3][4] = game.Hit
		before := s.Clone()

		_, err := eng.ReportSink(s, game.Point{X: 3, Y: 3}, game.Point{X: 3, Y: 4})
		if !errors.Is(err, ErrHitNotRecorded) {
			t.Fatalf("err=%v want ErrHitNotRecorded", err)
		}
		if !reflect.DeepEqual(s, before) {
			t.Fatalf("state changed by rejected sink")
		}
	})

	t.Run("no ship of length", func(t *testing.T) {
		s := testGame(t, 10, 10, []int{5, 4}, game.ModeNoTouch, 1)
		markHit(s, 2, 2)
		markHit(s, 3, 2)
		before := s.Clone()

		_, err := eng.ReportSink(s, game.Point{X: 2, Y: 2}, game.Point{X: 3, Y: 2})
		if !errors.Is(err, ErrNoShipOfLength) {
			t.Fatalf("err=%v want ErrNoShipOfLength", err)
		}
		if !reflect.DeepEqual(s, before) {
			t.Fatalf("state changed by rejected sink")
		}
	})

	t.Run("off board", func(t *testing.T) {
		s := standardGame(t, 1)
		before := s.Clone()

		_, err := eng.ReportSink(s, game.Point{X: -1, Y: 0}, game.Point{X: 2, Y: 0})
		if err == nil {
			t.Fatalf("expected error for off-board endpoint")
		}
		if !reflect.DeepEqual(s, before) {
			t.Fatalf("state changed by rejected sink")
		}
	})
}

func TestReportSink_DuplicateLengthsRemoveOne(t *testing.T) {
	var eng Engine
	s := testGame(t, 10, 10, []int{3, 3}, game.ModeTouching, 1)
	markHit(s, 0, 0)
	markHit(s, 0, 1)
	markHit(s, 0, 2)

	over, err := eng.ReportSink(s, game.Point{X: 0, Y: 0}, game.Point{X: 0, Y: 2})
	if err != nil {
		t.Fatalf("ReportSink: %v", err)
	}
	if over {
		t.Fatalf("one of two ships sunk, game not over")
	}
	if !reflect.DeepEqual(s.Ships, []int{3}) {
		t.Fatalf("fleet=%v want exactly one 3 left", s.Ships)
	}
}
