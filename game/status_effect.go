package game

// EffectKind identifies a status effect type. A player carries at most one
// instance per kind (spec.md §3, §4.4).
type EffectKind string

const (
	EffectInvulnerability EffectKind = "invulnerability"
	EffectBlessed         EffectKind = "blessed"
	EffectShielded        EffectKind = "shielded"
	EffectStunned         EffectKind = "stunned"
	EffectStrengthened    EffectKind = "strengthened"
	EffectWeakened        EffectKind = "weakened"
	EffectToughened       EffectKind = "toughened"
	EffectRegenerating    EffectKind = "regenerating"
	EffectExcited         EffectKind = "excited"
)

// effectPriority is the single table of per-kind dispatch priority
// (spec.md §4.4, §9: "keep per-tag priority constants in one table").
// Hooks run in descending priority order across all of a player's effects.
var effectPriority = map[EffectKind]int{
	EffectInvulnerability: 100,
	EffectBlessed:         95,
	EffectStunned:         90,
	EffectShielded:        80,
	EffectStrengthened:    60,
	EffectWeakened:        50,
	EffectToughened:       50,
	EffectRegenerating:    20,
	EffectExcited:         10,
}

// StatusEffect is a live instance of an effect attached to a player.
type StatusEffect struct {
	Kind     EffectKind
	Priority int
	Target   string // player id
	EndTime  *int64 // gameTime ms; nil = indefinite
	IsActive bool

	// Effect-specific mutable state.
	ShieldCapacity  float64 // Shielded: remaining absorption
	ToughnessFactor float64 // Strengthened/Weakened multiplier, Toughened absolute value
	RegenRate       float64 // Regenerating: damage removed per tick
	AppliedAt       int64   // gameTime ms this instance was (re)applied
	HasMoved        bool    // Excited: whether target has moved since apply
	LastMoveAt      int64   // Excited: gameTime of last movement
}

// NewStatusEffect constructs an instance for kind with priority looked up
// from the shared table, duration in ms (nil = indefinite).
func NewStatusEffect(kind EffectKind, target string, gameTime int64, durationMs *int64) *StatusEffect {
	e := &StatusEffect{
		Kind:      kind,
		Priority:  effectPriority[kind],
		Target:    target,
		IsActive:  true,
		AppliedAt: gameTime,
	}
	if durationMs != nil {
		end := gameTime + *durationMs
		e.EndTime = &end
	}
	return e
}

// ShouldExpire reports whether the effect's hard duration has elapsed.
// Blessed is additionally removed when it vetoes a death
// (Player.beforeDeath); an Excited effect whose idle window elapses kills
// its player in Player.OnTick. Neither is handled here.
func (e *StatusEffect) ShouldExpire(gameTime int64) bool {
	if e.EndTime == nil {
		return false
	}
	return gameTime >= *e.EndTime
}

// OnRefresh is called instead of re-creating an instance when the same kind
// is re-applied (spec.md §4.4, §8 idempotence). The new duration replaces
// the old one, and a nil duration makes the effect indefinite; effect-specific refresh also resets consumable
// state (shield capacity tops back up, excited movement timer resets).
func (e *StatusEffect) OnRefresh(gameTime int64, durationMs *int64, capacity float64) {
	if durationMs != nil {
		end := gameTime + *durationMs
		e.EndTime = &end
	} else {
		e.EndTime = nil
	}
	e.AppliedAt = gameTime
	switch e.Kind {
	case EffectShielded:
		e.ShieldCapacity = capacity
	case EffectExcited:
		e.HasMoved = false
		e.LastMoveAt = gameTime
	}
}

// OnMovement notifies the effect that the carrying player moved (used by
// Excited to track the 2000ms idle-kill window, spec.md §4.4).
func (e *StatusEffect) OnMovement(gameTime int64) {
	if e.Kind == EffectExcited {
		e.HasMoved = true
		e.LastMoveAt = gameTime
	}
}

// ModifyIncomingDamage applies this effect's damage modifier, returning the
// (possibly reduced/increased/zeroed) damage. Order matters: callers must
// iterate effects by descending priority and stop once damage hits 0.
func (e *StatusEffect) ModifyIncomingDamage(d float64) float64 {
	switch e.Kind {
	case EffectInvulnerability:
		return 0
	case EffectStunned:
		return d * 5
	case EffectShielded:
		if e.ShieldCapacity <= 0 {
			return d
		}
		if d <= e.ShieldCapacity {
			e.ShieldCapacity -= d
			return 0
		}
		overflow := d - e.ShieldCapacity
		e.ShieldCapacity = 0
		return overflow
	default:
		return d
	}
}

// ToughnessModifier returns the multiplicative or absolute toughness
// contribution of this effect, consulted by the player to recompute its
// effective toughness whenever effects change.
func (e *StatusEffect) ToughnessModifier(base float64) (value float64, absolute bool) {
	switch e.Kind {
	case EffectStrengthened, EffectWeakened:
		return base * e.ToughnessFactor, false
	case EffectToughened:
		return e.ToughnessFactor, true
	default:
		return base, false
	}
}

// OnPreventDeath gives the effect a chance to veto a pending death. Blessed
// consumes itself on a successful veto.
func (e *StatusEffect) OnPreventDeath() (prevented, consumeSelf bool) {
	switch e.Kind {
	case EffectInvulnerability:
		return true, false
	case EffectBlessed:
		return true, true
	default:
		return false, false
	}
}

// ExcitedShouldKill reports whether an Excited effect's idle window has
// elapsed without movement (spec.md §4.4: kills its target if it has not
// moved for >=2000ms since apply).
func (e *StatusEffect) ExcitedShouldKill(gameTime int64) bool {
	if e.Kind != EffectExcited {
		return false
	}
	reference := e.AppliedAt
	if e.HasMoved {
		reference = e.LastMoveAt
	}
	return gameTime-reference >= 2000
}

// RegenAmount returns the damage Regenerating removes this tick.
func (e *StatusEffect) RegenAmount() float64 {
	if e.Kind == EffectRegenerating {
		return e.RegenRate
	}
	return 0
}

// SortByPriorityDesc orders effects for hook dispatch (descending priority,
// stable on ties by kind name to keep iteration deterministic for tests).
func SortByPriorityDesc(effects []*StatusEffect) {
	// Simple insertion sort: the effect set per player is tiny (<=9 kinds).
	for i := 1; i < len(effects); i++ {
		for j := i; j > 0 && (effects[j].Priority > effects[j-1].Priority ||
			(effects[j].Priority == effects[j-1].Priority && effects[j].Kind < effects[j-1].Kind)); j-- {
			effects[j], effects[j-1] = effects[j-1], effects[j]
		}
	}
}
