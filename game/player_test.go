package game

import (
	"math"
	"testing"
)

func TestComputeIntensityInstantaneousVsSmoothed(t *testing.T) {
	history := []Sample{
		{X: 10, Y: 0, Z: 0}, // magnitude 10, intensity 10/17.32...
		{X: 0, Y: 0, Z: 0},  // magnitude 0
	}

	instantaneous := computeIntensity(history, false)
	if want := 0.0; instantaneous != want {
		t.Errorf("instantaneous intensity (last sample at rest) = %v, want %v", instantaneous, want)
	}

	smoothed := computeIntensity(history, true)
	wantSmoothed := (10.0 / MaxMagnitude) / 2
	if math.Abs(smoothed-wantSmoothed) > 1e-9 {
		t.Errorf("smoothed intensity = %v, want %v", smoothed, wantSmoothed)
	}
}

func TestComputeIntensityClampsToOne(t *testing.T) {
	history := []Sample{{X: 100, Y: 100, Z: 100}}
	got := computeIntensity(history, false)
	if got != 1.0 {
		t.Errorf("intensity for an out-of-range magnitude = %v, want 1.0", got)
	}
}

func TestUpdateMovementIgnoredWhileDead(t *testing.T) {
	p := NewPlayer("p1", "Alice", 1)
	p.Die(0)
	cfg := DefaultMovementConfig()

	p.UpdateMovement(Sample{X: 20, Y: 20, Z: 20}, 100, cfg)

	if p.AccumulatedDamage != 0 {
		t.Errorf("accumulated damage after dead-player movement = %v, want 0", p.AccumulatedDamage)
	}
}

func TestCheckMovementDamageOneshotMode(t *testing.T) {
	p := NewPlayer("p1", "Alice", 1)
	cfg := DefaultMovementConfig()
	cfg.OneshotMode = true
	p.SetDeathThresholdCache(cfg.DeathThreshold)

	p.checkMovementDamage(cfg.DangerThreshold+0.01, 0, cfg)

	if p.AccumulatedDamage != cfg.DeathThreshold {
		t.Errorf("accumulated damage in oneshot mode = %v, want %v", p.AccumulatedDamage, cfg.DeathThreshold)
	}
	if p.IsAlive {
		t.Error("player should be dead after a oneshot-mode overthreshold sample")
	}
}

func TestCheckMovementDamageBelowThresholdIsNoop(t *testing.T) {
	p := NewPlayer("p1", "Alice", 1)
	cfg := DefaultMovementConfig()

	p.checkMovementDamage(cfg.DangerThreshold-0.1, 0, cfg)

	if p.AccumulatedDamage != 0 {
		t.Errorf("accumulated damage below threshold = %v, want 0", p.AccumulatedDamage)
	}
}

func TestDieIsIdempotent(t *testing.T) {
	p := NewPlayer("p1", "Alice", 1)
	p.DeathCount = 0

	p.Die(100)
	p.Die(200)

	if p.DeathCount != 1 {
		t.Errorf("DeathCount after two Die() calls = %d, want 1", p.DeathCount)
	}
	if p.IsAlive {
		t.Error("player should be dead")
	}
}

func TestUseAbilityNoRoleReturnsNoAbility(t *testing.T) {
	p := NewPlayer("p1", "Alice", 1)
	result := p.UseAbility(0)
	if result.Success || result.Reason != ReasonNoAbility {
		t.Errorf("UseAbility on a roleless player = %+v, want Success=false Reason=no_ability", result)
	}
}

func TestUseAbilityNoChargesReturnsNoCharges(t *testing.T) {
	p := NewPlayer("p1", "Alice", 1)
	p.Role = &stubRole{}
	p.InitCharges(1, 1000)
	p.CurrentCharges = 0

	result := p.UseAbility(0)
	if result.Success || result.Reason != ReasonNoCharges {
		t.Errorf("UseAbility with no charges = %+v, want Success=false Reason=no_charges", result)
	}
}

func TestUseAbilityRefundsChargeOnFailure(t *testing.T) {
	p := NewPlayer("p1", "Alice", 1)
	p.Role = &stubRole{abilitySucceeds: false}
	p.InitCharges(2, 1000)

	result := p.UseAbility(0)

	if result.Success || result.Reason != ReasonAbilityFailed {
		t.Errorf("UseAbility with a failing hook = %+v, want Success=false Reason=ability_failed", result)
	}
	if p.CurrentCharges != 2 {
		t.Errorf("CurrentCharges after a refunded failure = %d, want 2", p.CurrentCharges)
	}
}

// stubRole is a minimal RoleBehavior for exercising UseAbility/OnTick
// plumbing without pulling in a concrete role implementation's own rules.
type stubRole struct {
	abilitySucceeds bool
}

func (r *stubRole) Meta() RoleMeta                                        { return RoleMeta{} }
func (r *stubRole) OnInit(p *Player)                                      {}
func (r *stubRole) OnPreRoundSetup(p *Player, all []*Player)              {}
func (r *stubRole) OnTick(p *Player, gameTime int64, dtMs int64)          {}
func (r *stubRole) OnDeath(p *Player, gameTime int64)                     {}
func (r *stubRole) OnPlayerDeath(p *Player, victim *Player, gameTime int64) {}
func (r *stubRole) OnDamageEvent(p *Player, total float64, gameTime int64) {}
func (r *stubRole) OnAbilityUse(p *Player, gameTime int64) bool           { return r.abilitySucceeds }
