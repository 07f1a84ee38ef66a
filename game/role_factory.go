package game

// RoleTheme is a named pool of role keys repeated/truncated to player
// count (spec.md §4.5).
type RoleTheme struct {
	Name string
	Pool []RoleKey
}

var roleThemes = map[string]RoleTheme{
	"classic-roles": {
		Name: "classic-roles",
		Pool: []RoleKey{RoleVampire, RoleAngel, RoleBeast, RoleBeastHunter, RoleExecutioner},
	},
}

// RoleFactory assigns roles from a per-mode pool and constructs the
// RoleBehavior implementation attached to each player.
type RoleFactory struct {
	bus    *Bus
	lookup func(id string) *Player
}

func NewRoleFactory(bus *Bus, lookup func(id string) *Player) *RoleFactory {
	return &RoleFactory{bus: bus, lookup: lookup}
}

// GetRolePool expands/truncates theme to exactly n entries.
func (f *RoleFactory) GetRolePool(theme string, n int) []RoleKey {
	t, ok := roleThemes[theme]
	if !ok || len(t.Pool) == 0 {
		t = roleThemes["classic-roles"]
	}
	out := make([]RoleKey, n)
	for i := 0; i < n; i++ {
		out[i] = t.Pool[i%len(t.Pool)]
	}
	return out
}

// Build constructs the RoleBehavior for key.
func (f *RoleFactory) Build(key RoleKey) RoleBehavior {
	switch key {
	case RoleVampire:
		return NewVampireRole(f.bus)
	case RoleAngel:
		return NewAngelRole(f.lookup)
	case RoleBeast:
		return NewBeastRole()
	case RoleBeastHunter:
		return NewBeastHunterRole()
	case RoleExecutioner:
		return NewExecutionerRole()
	default:
		return nil
	}
}

// Assign attaches roles from pool to players (same order), calling OnInit.
// Target-picking roles resolve targets in a second pass via
// OnPreRoundSetup, after all roles are attached, so every TargetPlayerID
// lookup sees a fully-assigned roster (spec.md §4.5).
func (f *RoleFactory) Assign(players []*Player, pool []RoleKey, gameTime int64) {
	for i, p := range players {
		if i >= len(pool) {
			p.Role = nil
			continue
		}
		p.Role = f.Build(pool[i])
		if p.Role != nil {
			p.Role.OnInit(p)
		}
	}
	for _, p := range players {
		if p.Role != nil {
			p.Role.OnPreRoundSetup(p, players)
		}
	}
}
