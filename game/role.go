package game

// RoleKey identifies a role implementation, used in theme role pools.
type RoleKey string

const (
	RoleVampire    RoleKey = "vampire"
	RoleAngel      RoleKey = "angel"
	RoleBeast      RoleKey = "beast"
	RoleExecutioner RoleKey = "executioner"
	RoleBeastHunter RoleKey = "beast_hunter"
)

// RoleMeta is the static metadata table entry per role (spec.md §4.5).
type RoleMeta struct {
	Key         RoleKey
	DisplayName string
	Description string
	Difficulty  string
	Priority    int // tick-order tiebreaker, higher first
}

var roleMetaTable = map[RoleKey]RoleMeta{
	RoleVampire: {
		Key: RoleVampire, DisplayName: "Vampire", Difficulty: "hard", Priority: 50,
		Description: "Periodically enters bloodlust; must score a kill before it ends or dies.",
	},
	RoleAngel: {
		Key: RoleAngel, DisplayName: "Angel", Difficulty: "easy", Priority: 40,
		Description: "Can shield a chosen target once per cooldown.",
	},
	RoleBeast: {
		Key: RoleBeast, DisplayName: "Beast", Difficulty: "medium", Priority: 60,
		Description: "Strengthened at all times; hunted by the Beast Hunter.",
	},
	RoleExecutioner: {
		Key: RoleExecutioner, DisplayName: "Executioner", Difficulty: "hard", Priority: 55,
		Description: "Assigned a secret target; scores bonus points if the target dies.",
	},
	RoleBeastHunter: {
		Key: RoleBeastHunter, DisplayName: "Beast Hunter", Difficulty: "medium", Priority: 45,
		Description: "Scores bonus points when the Beast dies.",
	},
}

// RoleBehavior is the hook interface every role attaches to a Player
// (spec.md §4.5). Implementations hold no pointers to other players --
// cross-listener reactions look targets up by id through the engine.
type RoleBehavior interface {
	Meta() RoleMeta
	OnInit(p *Player)
	OnPreRoundSetup(p *Player, all []*Player)
	OnTick(p *Player, gameTime int64, dtMs int64)
	OnDeath(p *Player, gameTime int64)
	OnPlayerDeath(p *Player, victim *Player, gameTime int64)
	OnDamageEvent(p *Player, total float64, gameTime int64)
	OnAbilityUse(p *Player, gameTime int64) bool
}

// baseRole supplies no-op defaults so concrete roles only override what
// they need, the way the teacher's handler files keep unrelated hooks thin.
type baseRole struct{ meta RoleMeta }

func (b baseRole) Meta() RoleMeta                                          { return b.meta }
func (b baseRole) OnInit(p *Player)                                        {}
func (b baseRole) OnPreRoundSetup(p *Player, all []*Player)                 {}
func (b baseRole) OnTick(p *Player, gameTime int64, dtMs int64)             {}
func (b baseRole) OnDeath(p *Player, gameTime int64)                        {}
func (b baseRole) OnPlayerDeath(p *Player, victim *Player, gameTime int64)  {}
func (b baseRole) OnDamageEvent(p *Player, total float64, gameTime int64)   {}
func (b baseRole) OnAbilityUse(p *Player, gameTime int64) bool              { return false }

// --- Vampire -----------------------------------------------------------

const (
	vampireBloodlustCooldownMs int64   = 30000
	vampireBloodlustDurationMs int64   = 5000
	vampireBloodlustPoints     int     = 5
)

// VampireRole periodically enters bloodlust; if it fails to score a kill
// before the window closes it dies (spec.md §8 scenario 6).
type VampireRole struct {
	baseRole
	bloodlustActive  bool
	bloodlustEndsAt  int64
	nextBloodlustAt  int64
	scoredKill       bool
	bus              *Bus
}

func NewVampireRole(bus *Bus) *VampireRole {
	return &VampireRole{baseRole: baseRole{meta: roleMetaTable[RoleVampire]}, bus: bus}
}

func (v *VampireRole) OnInit(p *Player) {
	v.nextBloodlustAt = vampireBloodlustCooldownMs
}

func (v *VampireRole) OnTick(p *Player, gameTime int64, dtMs int64) {
	if !v.bloodlustActive {
		if gameTime >= v.nextBloodlustAt {
			v.bloodlustActive = true
			v.scoredKill = false
			v.bloodlustEndsAt = gameTime + vampireBloodlustDurationMs
			v.bus.Publish(Event{Kind: EvtVampireBloodlust, Payload: map[string]any{
				"vampireId": p.ID, "vampireName": p.Name, "vampireNumber": p.Number, "active": true,
			}})
		}
		return
	}

	if v.scoredKill {
		v.bloodlustActive = false
		v.nextBloodlustAt = gameTime + vampireBloodlustCooldownMs
		v.bus.Publish(Event{Kind: EvtVampireBloodlust, Payload: map[string]any{
			"vampireId": p.ID, "vampireName": p.Name, "vampireNumber": p.Number, "active": false,
		}})
		return
	}

	if gameTime >= v.bloodlustEndsAt {
		v.bloodlustActive = false
		v.nextBloodlustAt = gameTime + vampireBloodlustCooldownMs
		v.bus.Publish(Event{Kind: EvtVampireBloodlust, Payload: map[string]any{
			"vampireId": p.ID, "vampireName": p.Name, "vampireNumber": p.Number, "active": false,
		}})
		p.Die(gameTime)
	}
}

func (v *VampireRole) OnPlayerDeath(p *Player, victim *Player, gameTime int64) {
	if v.bloodlustActive && victim.ID != p.ID {
		v.scoredKill = true
		p.Points += vampireBloodlustPoints
	}
}

// --- Angel ---------------------------------------------------------------

const angelCooldownMs int64 = 15000
const angelShieldMs int64 = 4000
const angelShieldCapacity float64 = 50

// AngelRole shields its current target on ability use.
type AngelRole struct {
	baseRole
	lookup func(id string) *Player
}

func NewAngelRole(lookup func(id string) *Player) *AngelRole {
	return &AngelRole{baseRole: baseRole{meta: roleMetaTable[RoleAngel]}, lookup: lookup}
}

func (a *AngelRole) OnInit(p *Player) {
	p.InitCharges(1, angelCooldownMs)
}

func (a *AngelRole) OnAbilityUse(p *Player, gameTime int64) bool {
	target := p
	if p.TargetPlayerID != "" {
		if t := a.lookup(p.TargetPlayerID); t != nil {
			target = t
		}
	}
	dur := angelShieldMs
	target.ApplyEffect(EffectShielded, gameTime, &dur, angelShieldCapacity, 0, 0)
	return true
}

// --- Beast / BeastHunter ---------------------------------------------------

const beastToughnessFactor = 1.5
const beastHunterBonusPoints = 10

// BeastRole is permanently strengthened.
type BeastRole struct{ baseRole }

func NewBeastRole() *BeastRole {
	return &BeastRole{baseRole{meta: roleMetaTable[RoleBeast]}}
}

func (b *BeastRole) OnInit(p *Player) {
	p.ApplyEffect(EffectStrengthened, 0, nil, 0, beastToughnessFactor, 0)
}

// BeastHunterRole scores bonus points when the Beast dies, by checking the
// victim's role key through the engine's lookup rather than holding a
// pointer to "the Beast" (spec.md §9).
type BeastHunterRole struct{ baseRole }

func NewBeastHunterRole() *BeastHunterRole {
	return &BeastHunterRole{baseRole{meta: roleMetaTable[RoleBeastHunter]}}
}

func (h *BeastHunterRole) OnPlayerDeath(p *Player, victim *Player, gameTime int64) {
	if victim.ID == p.ID {
		return
	}
	if _, ok := victim.Role.(*BeastRole); ok {
		p.Points += beastHunterBonusPoints
	}
}

// --- Executioner -----------------------------------------------------------

const executionerBonusPoints = 8

// ExecutionerRole resolves a secret target during pre-round setup and
// scores a bonus if that target dies.
type ExecutionerRole struct{ baseRole }

func NewExecutionerRole() *ExecutionerRole {
	return &ExecutionerRole{baseRole{meta: roleMetaTable[RoleExecutioner]}}
}

func (e *ExecutionerRole) OnPreRoundSetup(p *Player, all []*Player) {
	for _, candidate := range all {
		if candidate.ID == p.ID {
			continue
		}
		p.TargetPlayerID = candidate.ID
		p.TargetPlayerName = candidate.Name
		return
	}
}

func (e *ExecutionerRole) OnPlayerDeath(p *Player, victim *Player, gameTime int64) {
	if p.TargetPlayerID != "" && victim.ID == p.TargetPlayerID {
		p.Points += executionerBonusPoints
	}
}

// RoleMetaFor exposes the static table for RoleFactory/broadcaster use.
func RoleMetaFor(key RoleKey) RoleMeta { return roleMetaTable[key] }
