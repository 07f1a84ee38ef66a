package game

import "testing"

func teamMatchPoints(teams *TeamRegistry, id int) int {
	for _, t := range teams.Teams() {
		if t.ID == id {
			return t.MatchPoints
		}
	}
	return -1
}

// TestDominationDisconnectGapExcludedFromCatchUp guards against awarding
// control points for intervals that elapsed while a base was disconnected:
// only the interval since reconnection should pay out.
func TestDominationDisconnectGapExcludedFromCatchUp(t *testing.T) {
	eng := NewEngine(100, nil)
	teams := NewTeamRegistry(2)
	bases := NewBaseRegistry()
	mode := NewDominationMode(teams, bases, 10000, 5000, 20)
	eng.Teams = teams
	eng.Bases = bases

	base := bases.Register("b1")
	mode.OnRoundStart(eng, 0)
	bases.Tap(base.BaseID, 2, 0) // team 0 takes ownership at gameTime 0

	mode.OnTick(eng, 5000, 100) // one full interval elapsed, connected
	if got := teamMatchPoints(teams, 0); got != 1 {
		t.Fatalf("points after first interval = %d, want 1", got)
	}

	bases.SetConnected(base.BaseID, false)
	// Three more intervals elapse while disconnected: none should pay out,
	// and none should be retroactively awarded on reconnect either.
	mode.OnTick(eng, 10000, 100)
	mode.OnTick(eng, 15000, 100)
	mode.OnTick(eng, 20000, 100)
	if got := teamMatchPoints(teams, 0); got != 1 {
		t.Fatalf("points while disconnected = %d, want still 1 (no awards)", got)
	}

	bases.SetConnected(base.BaseID, true)
	mode.OnTick(eng, 20100, 100) // barely past reconnect, well under one interval
	if got := teamMatchPoints(teams, 0); got != 1 {
		t.Fatalf("points just after reconnect = %d, want 1 (no catch-up for the gap)", got)
	}

	mode.OnTick(eng, 25100, 100) // one full interval after reconnect
	if got := teamMatchPoints(teams, 0); got != 2 {
		t.Errorf("points one interval after reconnect = %d, want 2", got)
	}
}
