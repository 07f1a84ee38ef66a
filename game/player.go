package game

import (
	"math"
	"sync"
)

// Player is the long-lived per-session game model (spec.md §3). Movement,
// damage and status-effect fields are guarded by mu the way the teacher
// guards its Player struct, since inbound transport messages and the tick
// loop both touch it.
type Player struct {
	mu sync.RWMutex

	ID     string
	Name   string
	Number int

	IsAlive        bool
	IsReady        bool
	DisconnectedAt *int64 // gameTime ms, nil while connected

	history      []Sample
	historyIndex int
	LastIntensity float64

	AccumulatedDamage float64
	Toughness         float64
	IsInvulnerable    bool
	DiedAtGameTime    *int64 // gameTime ms of this round's death; nil while alive

	Points               int
	TotalPoints          int
	DeathCount           int
	PlacementBonusOverride []int
	VictoryGroupID       string // empty = none

	effects map[EffectKind]*StatusEffect

	TeamID *int

	TargetPlayerID   string
	TargetPlayerName string
	MaxCharges       int
	CurrentCharges   int
	CooldownRemaining int64 // ms remaining until next charge
	cooldownDurationMs int64

	// damage-event debounce
	damageAccumulator float64
	quietTicks        int

	Role RoleBehavior // nil = no role (Classic/DeathCount/Domination)

	deathThresholdCache float64
}

// NewPlayer constructs a player with default fields (spec.md §3).
func NewPlayer(id, name string, number int) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Number:    number,
		IsAlive:   true,
		Toughness: 1.0,
		effects:   make(map[EffectKind]*StatusEffect),
	}
}

// ResetForRound clears per-round fields; called by the engine on round
// start. Does not touch Number/ID/Name/TeamID.
func (p *Player) ResetForRound(movement MovementConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.IsAlive = true
	p.history = nil
	p.historyIndex = 0
	p.LastIntensity = 0
	p.AccumulatedDamage = 0
	p.Toughness = 1.0
	p.IsInvulnerable = false
	p.DiedAtGameTime = nil
	p.Points = 0
	p.DeathCount = 0
	p.effects = make(map[EffectKind]*StatusEffect)
	p.TargetPlayerID = ""
	p.TargetPlayerName = ""
	p.CooldownRemaining = 0
	p.damageAccumulator = 0
	p.quietTicks = 0
}

// UpdateMovement appends a sample, computes intensity and runs the damage
// check (spec.md §4.2). Rejected silently if dead; callers are expected to
// also gate on engine state == active.
func (p *Player) UpdateMovement(sample Sample, gameTime int64, cfg MovementConfig) {
	p.mu.Lock()
	if !p.IsAlive {
		p.mu.Unlock()
		return
	}

	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistory
	}
	p.history = append(p.history, sample)
	if len(p.history) > cfg.HistorySize {
		p.history = p.history[len(p.history)-cfg.HistorySize:]
	}

	intensity := computeIntensity(p.history, cfg.SmoothingEnabled)
	p.LastIntensity = intensity

	effects := p.sortedEffectsLocked()
	p.mu.Unlock()

	for _, e := range effects {
		e.OnMovement(gameTime)
	}

	p.checkMovementDamage(intensity, gameTime, cfg)
}

func computeIntensity(history []Sample, smoothed bool) float64 {
	if len(history) == 0 {
		return 0
	}
	if !smoothed {
		s := history[len(history)-1]
		return clamp01(magnitude(s) / MaxMagnitude)
	}
	var sum float64
	for _, s := range history {
		sum += magnitude(s)
	}
	mean := sum / float64(len(history))
	return clamp01(mean / MaxMagnitude)
}

func magnitude(s Sample) float64 {
	return math.Sqrt(s.X*s.X + s.Y*s.Y + s.Z*s.Z)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// checkMovementDamage reads the live global threshold so GameEvents can
// mutate it mid-round (spec.md §4.2).
func (p *Player) checkMovementDamage(intensity float64, gameTime int64, cfg MovementConfig) {
	if intensity <= cfg.DangerThreshold {
		return
	}
	var dmg float64
	if cfg.OneshotMode {
		dmg = cfg.DeathThreshold
	} else {
		dmg = (intensity - cfg.DangerThreshold) * cfg.DamageMultiplier
	}
	p.TakeDamage(dmg, gameTime, cfg)
}

// TakeDamage runs the damage pipeline (spec.md §4.2).
func (p *Player) TakeDamage(base float64, gameTime int64, cfg MovementConfig) {
	p.mu.Lock()
	if !p.IsAlive {
		p.mu.Unlock()
		return
	}

	effects := p.sortedEffectsLocked()
	d := base
	for _, e := range effects {
		d = e.ModifyIncomingDamage(d)
		if d <= 0 {
			break
		}
	}

	if d > 0 {
		d = d / p.effectiveToughnessLocked()
		p.AccumulatedDamage += d
		p.damageAccumulator += d
		p.quietTicks = 0
	}

	shouldDie := p.AccumulatedDamage >= cfg.DeathThreshold && !p.IsInvulnerable
	p.mu.Unlock()

	if shouldDie {
		p.beforeDeath(gameTime)
	}
}

// effectiveToughnessLocked recomputes toughness from the base value and any
// Strengthened/Weakened/Toughened effects, applied in descending-priority
// order like every other effect hook so the result doesn't depend on map
// iteration order. Caller must hold mu.
func (p *Player) effectiveToughnessLocked() float64 {
	t := 1.0
	absolute := false
	for _, e := range p.sortedEffectsLocked() {
		v, abs := e.ToughnessModifier(t)
		if abs {
			t = v
			absolute = true
		} else if !absolute {
			t = v
		}
	}
	if t <= 0 {
		t = 1.0
	}
	return t
}

// beforeDeath offers every status effect (priority order) a veto, then
// calls die if none fires (spec.md §4.2).
func (p *Player) beforeDeath(gameTime int64) {
	p.mu.Lock()
	effects := p.sortedEffectsLocked()
	p.mu.Unlock()

	for _, e := range effects {
		prevented, consume := e.OnPreventDeath()
		if prevented {
			if consume {
				p.mu.Lock()
				delete(p.effects, e.Kind)
				p.mu.Unlock()
			}
			return
		}
	}
	p.Die(gameTime)
}

// Die is idempotent (spec.md §8).
func (p *Player) Die(gameTime int64) {
	p.mu.Lock()
	if !p.IsAlive {
		p.mu.Unlock()
		return
	}
	p.IsAlive = false
	p.AccumulatedDamage = clampMax(p.AccumulatedDamage, p.deathThresholdCache)
	p.DeathCount++
	t := gameTime
	p.DiedAtGameTime = &t
	role := p.Role
	p.mu.Unlock()

	if role != nil {
		role.OnDeath(p, gameTime)
	}
}

func clampMax(v, max float64) float64 {
	if max > 0 && v > max {
		return max
	}
	return v
}

// NotifyPlayerDeath is invoked by the engine, once per still-alive player
// (including the victim's teammates/role listeners), after a death. This is
// the message-passing substitute for cross-listener object references
// (spec.md §9): a BeastHunter player reacts here, looked up fresh by id.
func (p *Player) NotifyPlayerDeath(victim *Player, gameTime int64) {
	p.mu.RLock()
	role := p.Role
	alive := p.IsAlive
	p.mu.RUnlock()
	if role != nil && alive {
		role.OnPlayerDeath(p, victim, gameTime)
	}
}

// sortedEffectsLocked returns effects ordered by descending priority.
// Caller must hold mu (read or write).
func (p *Player) sortedEffectsLocked() []*StatusEffect {
	out := make([]*StatusEffect, 0, len(p.effects))
	for _, e := range p.effects {
		out = append(out, e)
	}
	SortByPriorityDesc(out)
	return out
}

// ApplyEffect applies or refreshes kind (spec.md §4.4). capacity is only
// meaningful for Shielded; factor is only meaningful for
// Strengthened/Weakened/Toughened; rate only for Regenerating.
func (p *Player) ApplyEffect(kind EffectKind, gameTime int64, durationMs *int64, capacity, factor, rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.effects[kind]; ok {
		existing.OnRefresh(gameTime, durationMs, capacity)
		if kind == EffectStrengthened || kind == EffectWeakened || kind == EffectToughened {
			existing.ToughnessFactor = factor
		}
		if kind == EffectRegenerating {
			existing.RegenRate = rate
		}
		return
	}

	e := NewStatusEffect(kind, p.ID, gameTime, durationMs)
	e.ShieldCapacity = capacity
	e.ToughnessFactor = factor
	e.RegenRate = rate
	p.effects[kind] = e
	if kind == EffectInvulnerability {
		p.IsInvulnerable = true
	}
}

// ClearStatusEffects removes every effect, calling onRemove semantics
// (nothing extra to run in this model beyond bookkeeping).
func (p *Player) ClearStatusEffects() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.effects = make(map[EffectKind]*StatusEffect)
	p.IsInvulnerable = false
}

// HasEffect reports whether kind is currently active.
func (p *Player) HasEffect(kind EffectKind) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.effects[kind]
	return ok
}

// EffectSnapshot returns {kind,endTime} pairs for the game:tick payload.
type EffectSnapshot struct {
	Kind    EffectKind
	EndTime *int64
}

func (p *Player) EffectSnapshots() []EffectSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]EffectSnapshot, 0, len(p.effects))
	for k, e := range p.effects {
		out = append(out, EffectSnapshot{Kind: k, EndTime: e.EndTime})
	}
	return out
}

// OnTick advances status effects, cooldown regen, damage-burst debounce and
// the role hook, in that order (spec.md §4.2).
func (p *Player) OnTick(gameTime int64, dtMs int64, bus *Bus, cfg MovementConfig) {
	p.mu.Lock()
	if !p.IsAlive {
		p.mu.Unlock()
		return
	}

	effects := p.sortedEffectsLocked()
	var expired []EffectKind
	for _, e := range effects {
		if e.ExcitedShouldKill(gameTime) {
			p.mu.Unlock()
			p.Die(gameTime)
			return
		}
		if amt := e.RegenAmount(); amt > 0 {
			p.AccumulatedDamage -= amt
			if p.AccumulatedDamage < 0 {
				p.AccumulatedDamage = 0
			}
		}
		if e.ShouldExpire(gameTime) {
			expired = append(expired, e.Kind)
		}
	}
	for _, k := range expired {
		delete(p.effects, k)
		if k == EffectInvulnerability {
			p.IsInvulnerable = false
		}
	}

	// cooldown regen: one charge per cooldownDurationMs while below max.
	if p.CurrentCharges < p.MaxCharges && p.cooldownDurationMs > 0 {
		p.CooldownRemaining -= dtMs
		if p.CooldownRemaining <= 0 {
			p.CurrentCharges++
			if p.CurrentCharges < p.MaxCharges {
				p.CooldownRemaining = p.cooldownDurationMs
			} else {
				p.CooldownRemaining = 0
			}
		}
	}

	// damage-burst debounce: fire after K quiet ticks following activity.
	var fireBurst float64
	if p.damageAccumulator > 0 {
		p.quietTicks++
		if p.quietTicks >= DefaultDebounceQuietTicks {
			fireBurst = p.damageAccumulator
			p.damageAccumulator = 0
			p.quietTicks = 0
		}
	}
	role := p.Role
	id := p.ID
	p.mu.Unlock()

	if fireBurst > 0 {
		bus.Publish(Event{Kind: EvtPlayerDamage, Target: id, Payload: fireBurst})
		if role != nil {
			role.OnDamageEvent(p, fireBurst, gameTime)
		}
	}

	if role != nil {
		role.OnTick(p, gameTime, dtMs)
	}
}

// UseAbilityResult is returned by UseAbility (spec.md §4.2).
type UseAbilityResult struct {
	Success bool
	Reason  AckReason
	Current int
	Max     int
	CooldownRemaining int64
}

// UseAbility consumes one charge on success and starts cooldown; on role
// hook failure the charge is refunded (spec.md §4.2).
func (p *Player) UseAbility(gameTime int64) UseAbilityResult {
	p.mu.Lock()
	role := p.Role
	if role == nil {
		max, cur, cd := p.MaxCharges, p.CurrentCharges, p.CooldownRemaining
		p.mu.Unlock()
		return UseAbilityResult{Success: false, Reason: ReasonNoAbility, Current: cur, Max: max, CooldownRemaining: cd}
	}
	if p.CurrentCharges <= 0 {
		max, cur, cd := p.MaxCharges, p.CurrentCharges, p.CooldownRemaining
		p.mu.Unlock()
		return UseAbilityResult{Success: false, Reason: ReasonNoCharges, Current: cur, Max: max, CooldownRemaining: cd}
	}
	p.CurrentCharges--
	if p.CooldownRemaining <= 0 {
		p.CooldownRemaining = p.cooldownDurationMs
	}
	p.mu.Unlock()

	ok := role.OnAbilityUse(p, gameTime)
	if !ok {
		p.mu.Lock()
		p.CurrentCharges++
		p.mu.Unlock()
		p.mu.RLock()
		max, cur, cd := p.MaxCharges, p.CurrentCharges, p.CooldownRemaining
		p.mu.RUnlock()
		return UseAbilityResult{Success: false, Reason: ReasonAbilityFailed, Current: cur, Max: max, CooldownRemaining: cd}
	}

	p.mu.RLock()
	max, cur, cd := p.MaxCharges, p.CurrentCharges, p.CooldownRemaining
	p.mu.RUnlock()
	return UseAbilityResult{Success: true, Current: cur, Max: max, CooldownRemaining: cd}
}

// InitCharges is called by RoleFactory when attaching a role with ability
// charges (spec.md §4.5).
func (p *Player) InitCharges(maxCharges int, cooldownDurationMs int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.MaxCharges = maxCharges
	p.CurrentCharges = maxCharges
	p.cooldownDurationMs = cooldownDurationMs
	p.CooldownRemaining = 0
}

// Respawn resets damage to 0, marks alive, clears effects (spec.md §4.2).
// The player is vulnerable immediately afterward.
func (p *Player) Respawn(gameTime int64) {
	p.mu.Lock()
	p.IsAlive = true
	p.AccumulatedDamage = 0
	p.effects = make(map[EffectKind]*StatusEffect)
	p.IsInvulnerable = false
	p.mu.Unlock()
}

// SetDeathThresholdCache lets the engine stash the current death threshold
// so Die() can freeze AccumulatedDamage at it without a config parameter.
func (p *Player) SetDeathThresholdCache(v float64) {
	p.mu.Lock()
	p.deathThresholdCache = v
	p.mu.Unlock()
}
