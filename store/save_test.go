package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"battleship-guru/game"
	"battleship-guru/guru"
)

func testGame(t *testing.T, seed int64) *game.GameState {
	t.Helper()
	s, err := game.New(game.Config{
		ID:     "save-test",
		Width:  10,
		Height: 10,
		Mode:   game.ModeNoTouch,
		Ships:  []int{5, 4, 3, 3, 2},
		Seed:   seed,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func playTurns(t *testing.T, eng *guru.Engine, s *game.GameState, outcomes []guru.Outcome) {
	t.Helper()
	for i, oc := range outcomes {
		p, err := eng.Predict(s)
		if err != nil {
			t.Fatalf("turn %d predict: %v", i, err)
		}
		if err := eng.ReportResult(s, p, oc); err != nil {
			t.Fatalf("turn %d report: %v", i, err)
		}
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	var eng guru.Engine

	s := testGame(t, 77)
	playTurns(t, &eng, s, []guru.Outcome{guru.OutcomeMiss, guru.OutcomeHit, guru.OutcomeMiss})

	if err := Save(dir, "lunch-game", s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(dir, "lunch-game")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, s)
	}
}

func TestSaveLoad_KeepsPendingPrediction(t *testing.T) {
	dir := t.TempDir()
	var eng guru.Engine

	s := testGame(t, 5)
	p, err := eng.Predict(s)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if err := Save(dir, "mid-turn", s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(dir, "mid-turn")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Pending == nil || *got.Pending != p {
		t.Fatalf("pending=%v want=%v", got.Pending, p)
	}
	// The reloaded game accepts the outcome for the pending cell.
	if err := eng.ReportResult(got, p, guru.OutcomeMiss); err != nil {
		t.Fatalf("ReportResult after load: %v", err)
	}
}

func TestSaveLoad_PredictionSurvivesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	var eng guru.Engine

	live := testGame(t, 99)
	saved := testGame(t, 99)
	script := []guru.Outcome{guru.OutcomeMiss, guru.OutcomeMiss, guru.OutcomeHit, guru.OutcomeMiss}
	playTurns(t, &eng, live, script)
	playTurns(t, &eng, saved, script)

	if err := Save(dir, "checkpointed", saved); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := Load(dir, "checkpointed")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	pLive, err := eng.Predict(live)
	if err != nil {
		t.Fatalf("live predict: %v", err)
	}
	pReloaded, err := eng.Predict(reloaded)
	if err != nil {
		t.Fatalf("reloaded predict: %v", err)
	}
	if pLive != pReloaded {
		t.Fatalf("prediction changed across checkpoint: live=%v reloaded=%v", pLive, pReloaded)
	}
}

func TestSave_RejectsUnsafeNames(t *testing.T) {
	dir := t.TempDir()
	s := testGame(t, 1)

	for _, name := range []string{"", "../escape", "a/b", `a\b`, ".hidden"} {
		if err := Save(dir, name, s); err == nil {
			t.Errorf("Save(%q): expected error", name)
		}
		if _, err := Load(dir, name); err == nil {
			t.Errorf("Load(%q): expected error", name)
		}
	}
}

func TestListAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := testGame(t, 1)

	if err := Save(dir, "bravo", s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Save(dir, "alpha", s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	names, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "bravo"}) {
		t.Fatalf("names=%v want sorted [alpha bravo]", names)
	}

	if err := Delete(dir, "alpha"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	names, err = List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"bravo"}) {
		t.Fatalf("names=%v want [bravo]", names)
	}

	if err := Delete(dir, "alpha"); err == nil {
		t.Fatalf("deleting a missing checkpoint should fail")
	}

	empty, err := List(filepath.Join(dir, "missing"))
	if err != nil || len(empty) != 0 {
		t.Fatalf("List(missing)=%v,%v want empty, nil", empty, err)
	}
}

func TestLoad_RejectsCorruptCheckpoints(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"badmode": `{"id":"x","width":2,"height":2,"mode":"weird","rows":["..",".."],"ships":[2],"rng_seed":1}`,
		"badmark": `{"id":"x","width":2,"height":2,"mode":"touching","rows":["..","?."],"ships":[2],"rng_seed":1}`,
		"badrows": `{"id":"x","width":2,"height":2,"mode":"touching","rows":[".."],"ships":[2],"rng_seed":1}`,
		"badship": `{"id":"x","width":2,"height":2,"mode":"touching","rows":["..",".."],"ships":[],"rng_seed":1}`,
		"badjson": `{"id":`,
	}
	for name, body := range cases {
		if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if _, err := Load(dir, name); err == nil {
			t.Errorf("Load(%s): expected error", name)
		}
	}
}
