package server

import "testing"

func TestRegisterAllocatesLowestFreeNumber(t *testing.T) {
	r := NewConnectionRegistry()

	a := r.Register("p1", nil)
	b := r.Register("p2", nil)
	if a.number != 1 {
		t.Errorf("first registration number = %d, want 1", a.number)
	}
	if b.number != 2 {
		t.Errorf("second registration number = %d, want 2", b.number)
	}
}

func TestRemoveFreesNumberForReuse(t *testing.T) {
	r := NewConnectionRegistry()

	a := r.Register("p1", nil)
	r.Register("p2", nil)
	r.Remove(a)

	c := r.Register("p3", nil)
	if c.number != 1 {
		t.Errorf("number reused after Remove = %d, want 1", c.number)
	}
}

func TestByTokenAndByPlayerIDLookup(t *testing.T) {
	r := NewConnectionRegistry()
	cs := r.Register("p1", nil)

	if got, ok := r.ByToken(cs.token); !ok || got.playerID != "p1" {
		t.Errorf("ByToken lookup = %+v, %v, want p1 connection", got, ok)
	}
	if got, ok := r.ByPlayerID("p1"); !ok || got.token != cs.token {
		t.Errorf("ByPlayerID lookup = %+v, %v, want matching token", got, ok)
	}
	if _, ok := r.ByToken("nonexistent"); ok {
		t.Error("ByToken for an unknown token should report not-found")
	}
}

func TestRemoveClearsBothIndexes(t *testing.T) {
	r := NewConnectionRegistry()
	cs := r.Register("p1", nil)
	r.Remove(cs)

	if _, ok := r.ByPlayerID("p1"); ok {
		t.Error("ByPlayerID should miss after Remove")
	}
	if _, ok := r.ByToken(cs.token); ok {
		t.Error("ByToken should miss after Remove")
	}
}

func TestConnectedPlayerIDsExcludesDisconnected(t *testing.T) {
	r := NewConnectionRegistry()
	r.Register("p1", &Client{})
	cs2 := r.Register("p2", &Client{})
	r.MarkDisconnected(cs2)

	ids := r.ConnectedPlayerIDs()
	if len(ids) != 1 || ids[0] != "p1" {
		t.Errorf("ConnectedPlayerIDs = %v, want [p1]", ids)
	}
}

func TestAllReturnsEveryTrackedConnectionRegardlessOfTransport(t *testing.T) {
	r := NewConnectionRegistry()
	cs1 := r.Register("p1", &Client{})
	cs2 := r.Register("p2", nil)
	r.MarkDisconnected(cs1)

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("All() length = %d, want 2", len(all))
	}
	seen := map[string]bool{}
	for _, cs := range all {
		seen[cs.playerID] = true
	}
	if !seen["p1"] || !seen["p2"] {
		t.Errorf("All() = %v, missing expected ids", all)
	}
	_ = cs2
}
