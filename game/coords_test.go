package game

import "testing"

func TestParseCoord(t *testing.T) {
	s := newTestGame(t, 10, 10, []int{2}, ModeNoTouch)

	cases := []struct {
		in   string
		want Point
	}{
		{"A1", Point{X: 0, Y: 0}},
		{"a1", Point{X: 0, Y: 0}},
		{"J10", Point{X: 9, Y: 9}},
		{"j10", Point{X: 9, Y: 9}},
		{" C7 ", Point{X: 6, Y: 2}},
	}
	for _, c := range cases {
		got, err := ParseCoord(s, c.in)
		if err != nil {
			t.Errorf("ParseCoord(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseCoord(%q)=%v want=%v", c.in, got, c.want)
		}
	}

	bad := []string{"", "A", "7", "A0", "A11", "K1", "1A", "A1A", "@3"}
	for _, in := range bad {
		if _, err := ParseCoord(s, in); err == nil {
			t.Errorf("ParseCoord(%q): expected error", in)
		}
	}
}

func TestFormatCoord_RoundTrip(t *testing.T) {
	s := newTestGame(t, 12, 8, []int{2}, ModeTouching)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			p := Point{X: x, Y: y}
			back, err := ParseCoord(s, FormatCoord(p))
			if err != nil {
				t.Fatalf("round trip %v: %v", p, err)
			}
			if back != p {
				t.Fatalf("round trip %v came back as %v", p, back)
			}
		}
	}
}
