package game

// Team is a static, color-coded team definition (spec.md §3).
type Team struct {
	ID          int
	DisplayName string
	Color       string
	MatchPoints int
}

var teamPalette = []struct {
	Name  string
	Color string
}{
	{"Red", "#e53935"},
	{"Blue", "#1e88e5"},
	{"Green", "#43a047"},
	{"Yellow", "#fdd835"},
}

// TeamRegistry assigns players to 2-4 color-coded teams and tracks match
// points at team granularity (spec.md §3, §4 "TeamRegistry").
type TeamRegistry struct {
	teams     []*Team
	playerTeam map[string]int
	nextCycle int
}

// NewTeamRegistry builds count teams (clamped to [2,4]) from the palette.
func NewTeamRegistry(count int) *TeamRegistry {
	if count < 2 {
		count = 2
	}
	if count > 4 {
		count = 4
	}
	r := &TeamRegistry{playerTeam: make(map[string]int)}
	for i := 0; i < count; i++ {
		r.teams = append(r.teams, &Team{ID: i, DisplayName: teamPalette[i].Name, Color: teamPalette[i].Color})
	}
	return r
}

// Teams returns the live team list.
func (r *TeamRegistry) Teams() []*Team { return r.teams }

// Assign places playerID on the next team round-robin.
func (r *TeamRegistry) Assign(playerID string) int {
	teamID := r.nextCycle % len(r.teams)
	r.nextCycle++
	r.playerTeam[playerID] = teamID
	return teamID
}

// Cycle moves playerID to the next team (team:switch, waiting/pre-game only).
func (r *TeamRegistry) Cycle(playerID string) int {
	cur, ok := r.playerTeam[playerID]
	next := 0
	if ok {
		next = (cur + 1) % len(r.teams)
	}
	r.playerTeam[playerID] = next
	return next
}

// TeamOf returns the team id for playerID, or -1 if unassigned.
func (r *TeamRegistry) TeamOf(playerID string) int {
	if t, ok := r.playerTeam[playerID]; ok {
		return t
	}
	return -1
}

// Remove drops playerID from team tracking (permanent removal).
func (r *TeamRegistry) Remove(playerID string) {
	delete(r.playerTeam, playerID)
}

// Shuffle reassigns every given player round-robin from scratch
// (POST /game/shuffle-teams, waiting/pre-game only).
func (r *TeamRegistry) Shuffle(playerIDs []string) {
	r.playerTeam = make(map[string]int)
	r.nextCycle = 0
	for _, id := range playerIDs {
		r.Assign(id)
	}
}

// AddMatchPoints adds to teamID's match point total.
func (r *TeamRegistry) AddMatchPoints(teamID, delta int) {
	for _, t := range r.teams {
		if t.ID == teamID {
			t.MatchPoints += delta
			return
		}
	}
}

// Snapshot returns {playerId -> teamId} for team:update.
func (r *TeamRegistry) Snapshot() map[string]int {
	out := make(map[string]int, len(r.playerTeam))
	for k, v := range r.playerTeam {
		out[k] = v
	}
	return out
}
