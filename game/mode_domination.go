package game

// DominationMode: teams required, continuous single round, bases accrue
// match points over time, first to pointTarget wins (spec.md §4.7).
type DominationMode struct {
	teams             *TeamRegistry
	bases             *BaseRegistry
	respawnDelayMs    int64
	controlIntervalMs int64
	pointTarget       int

	respawn  *RespawnManager
	intervalProgress map[string]int64 // baseID -> gameTime of last awarded interval boundary
}

func NewDominationMode(teams *TeamRegistry, bases *BaseRegistry, respawnDelayMs, controlIntervalMs int64, pointTarget int) *DominationMode {
	if respawnDelayMs <= 0 {
		respawnDelayMs = 10000
	}
	if controlIntervalMs <= 0 {
		controlIntervalMs = 5000
	}
	if pointTarget <= 0 {
		pointTarget = 20
	}
	return &DominationMode{
		teams: teams, bases: bases, respawnDelayMs: respawnDelayMs,
		controlIntervalMs: controlIntervalMs, pointTarget: pointTarget,
		respawn: NewRespawnManager(respawnDelayMs), intervalProgress: make(map[string]int64),
	}
}

func (m *DominationMode) Meta() ModeMeta {
	target := m.pointTarget
	return ModeMeta{Name: "domination", MinPlayers: 2, MaxPlayers: 32, UseRoles: false,
		MultiRound: false, RoundCount: 1, TargetScore: &target}
}

func (m *DominationMode) OnModeSelected(eng *Engine) {}

func (m *DominationMode) OnRoundStart(eng *Engine, gameTime int64) {
	m.respawn.Clear()
	m.bases.Clear()
	m.intervalProgress = make(map[string]int64)
}

func (m *DominationMode) OnTick(eng *Engine, gameTime int64, dtMs int64) {
	for _, id := range m.respawn.CheckRespawns(gameTime) {
		if p := eng.PlayerByID(id); p != nil {
			p.Respawn(gameTime)
			eng.Bus.Publish(Event{Kind: EvtPlayerRespawn, Payload: map[string]any{
				"playerId": p.ID, "playerName": p.Name, "playerNumber": p.Number, "gameTime": gameTime,
			}})
		}
	}

	for _, b := range m.bases.All() {
		if b.OwnerTeamID == nil {
			continue
		}
		last, ok := m.intervalProgress[b.BaseID]
		if !ok {
			last = b.LastOwnershipChangeAt
		}
		if !b.IsConnected {
			// Advance the cursor to now rather than awarding points: a
			// later reconnect must not retroactively pay out the
			// intervals that elapsed while the base was disconnected.
			m.intervalProgress[b.BaseID] = gameTime
			continue
		}
		for last+m.controlIntervalMs <= gameTime {
			last += m.controlIntervalMs
			m.teams.AddMatchPoints(*b.OwnerTeamID, 1)
			eng.Bus.Publish(Event{Kind: EvtBasePoint, Payload: map[string]any{
				"baseId": b.BaseID, "baseNumber": b.BaseNumber, "teamId": *b.OwnerTeamID,
				"teamScores": m.GetTeamScoreData(eng),
			}})
		}
		m.intervalProgress[b.BaseID] = last
	}
}

func (m *DominationMode) teamByID(id int) *Team {
	for _, t := range m.teams.Teams() {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// OnPlayerDeath always schedules a respawn in Domination (spec.md §4.7).
func (m *DominationMode) OnPlayerDeath(eng *Engine, victim *Player, gameTime int64) {
	result := m.respawn.ScheduleRespawn(victim.ID, gameTime, nil)
	if result.Scheduled {
		eng.Bus.Publish(Event{Kind: EvtPlayerRespawnPend, Target: victim.ID, Payload: map[string]any{"respawnIn": result.RespawnIn}})
	}
}

// OnBaseTap cycles ownership and resets the control timer (spec.md §4.7).
func (m *DominationMode) OnBaseTap(eng *Engine, baseID string, gameTime int64) {
	b, ok := m.bases.Tap(baseID, len(m.teams.Teams()), gameTime)
	if !ok {
		return
	}
	delete(m.intervalProgress, baseID)
	team := m.teamByID(*b.OwnerTeamID)
	if team != nil {
		eng.Bus.Publish(Event{Kind: EvtBaseCaptured, Payload: map[string]any{
			"baseId": b.BaseID, "baseNumber": b.BaseNumber, "teamId": team.ID,
			"teamName": team.DisplayName, "teamColor": team.Color,
		}})
	}
}

func (m *DominationMode) GetRolePool(eng *Engine, n int) []RoleKey { return nil }

// ControlIntervalMs exposes the per-base scoring interval for broadcaster
// progress rendering (base:status, spec.md §6.1).
func (m *DominationMode) ControlIntervalMs() int64 { return m.controlIntervalMs }

func (m *DominationMode) GetPlayerDeathCount(eng *Engine, id string) int {
	if p := eng.PlayerByID(id); p != nil {
		return p.DeathCount
	}
	return 0
}

func (m *DominationMode) CheckWinCondition(eng *Engine, gameTime int64) WinCheck {
	for _, t := range m.teams.Teams() {
		if t.MatchPoints >= m.pointTarget {
			id := "team:" + t.DisplayName
			eng.Bus.Publish(Event{Kind: EvtDominationWin, Payload: map[string]any{
				"winningTeamId": t.ID, "winningTeamName": t.DisplayName, "teamScores": m.GetTeamScoreData(eng),
			}})
			return WinCheck{RoundEnded: true, GameEnded: true, Winner: &id}
		}
	}
	return WinCheck{}
}

func (m *DominationMode) OnRoundEnd(eng *Engine, gameTime int64) {}
func (m *DominationMode) OnGameEnd(eng *Engine, gameTime int64)  { m.respawn.Clear() }

func (m *DominationMode) CalculateFinalScores(eng *Engine) []ScoreEntry {
	return finalScoresByTotalPoints(eng)
}

func (m *DominationMode) GetTeamScoreData(eng *Engine) []TeamScoreEntry {
	out := make([]TeamScoreEntry, 0, len(m.teams.Teams()))
	for _, t := range m.teams.Teams() {
		out = append(out, TeamScoreEntry{TeamID: t.ID, DisplayName: t.DisplayName, Color: t.Color, Score: t.MatchPoints})
	}
	return out
}
