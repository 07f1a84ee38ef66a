package game

import "testing"

// TestOnRoundEndRanksDeadPlayersByDeathOrderNotDamage guards against
// AccumulatedDamage collapsing to a tie: Die() clamps every
// movement-killed player's damage to the same death threshold, so ranking
// must use the recorded death time instead.
func TestOnRoundEndRanksDeadPlayersByDeathOrderNotDamage(t *testing.T) {
	e := NewEngine(100, nil)
	p1 := e.AddPlayer("p1", "Alice", 1) // survives
	p2 := e.AddPlayer("p2", "Bob", 2)   // dies first
	p3 := e.AddPlayer("p3", "Cleo", 3)  // dies second (later = better rank)

	for _, p := range []*Player{p1, p2, p3} {
		p.SetDeathThresholdCache(10)
	}
	// Both overshoot the threshold before dying, so Die()'s clamp leaves
	// them with the exact same AccumulatedDamage -- the degenerate case
	// the old damage-based ranking couldn't break.
	p2.AccumulatedDamage = 15
	p3.AccumulatedDamage = 20
	p2.Die(100)
	p3.Die(300)

	mode := NewClassicMode(3, nil)
	mode.OnRoundEnd(e, 300)

	if p1.Points != 5 {
		t.Errorf("survivor points = %d, want 5 (rank 1)", p1.Points)
	}
	if p3.Points != 3 {
		t.Errorf("later-death points = %d, want 3 (rank 2), got a tie with the earlier death", p3.Points)
	}
	if p2.Points != 1 {
		t.Errorf("earlier-death points = %d, want 1 (rank 3)", p2.Points)
	}
}
