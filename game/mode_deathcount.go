package game

import "strconv"

// DeathCountMode: fixed round duration, respawn delay, 3 rounds by
// default, round-end scoring by death count ascending (spec.md §4.7).
type DeathCountMode struct {
	roundCount      int
	roundDurationMs int64
	respawnDelayMs  int64
	teamsEnabled    bool
	teams           *TeamRegistry

	respawn    *RespawnManager
	roundStart int64
}

func NewDeathCountMode(roundCount int, roundDurationMs, respawnDelayMs int64, teamsEnabled bool, teams *TeamRegistry) *DeathCountMode {
	if roundCount <= 0 {
		roundCount = 3
	}
	if roundDurationMs <= 0 {
		roundDurationMs = 90000
	}
	if respawnDelayMs <= 0 {
		respawnDelayMs = 5000
	}
	return &DeathCountMode{
		roundCount: roundCount, roundDurationMs: roundDurationMs, respawnDelayMs: respawnDelayMs,
		teamsEnabled: teamsEnabled, teams: teams, respawn: NewRespawnManager(respawnDelayMs),
	}
}

func (m *DeathCountMode) Meta() ModeMeta {
	dur := m.roundDurationMs
	return ModeMeta{Name: "death-count", MinPlayers: 2, MaxPlayers: 32, UseRoles: false,
		MultiRound: true, RoundCount: m.roundCount, RoundDurationMs: &dur}
}

func (m *DeathCountMode) OnModeSelected(eng *Engine) {}

func (m *DeathCountMode) OnRoundStart(eng *Engine, gameTime int64) {
	m.roundStart = gameTime
	m.respawn.Clear()
}

func (m *DeathCountMode) OnTick(eng *Engine, gameTime int64, dtMs int64) {
	for _, id := range m.respawn.CheckRespawns(gameTime) {
		if p := eng.PlayerByID(id); p != nil {
			p.Respawn(gameTime)
			eng.Bus.Publish(Event{Kind: EvtPlayerRespawn, Payload: map[string]any{
				"playerId": p.ID, "playerName": p.Name, "playerNumber": p.Number, "gameTime": gameTime,
			}})
		}
	}
}

func (m *DeathCountMode) OnPlayerDeath(eng *Engine, victim *Player, gameTime int64) {
	result := m.respawn.ScheduleRespawn(victim.ID, gameTime-m.roundStart, &m.roundDurationMs)
	if result.Scheduled {
		eng.Bus.Publish(Event{Kind: EvtPlayerRespawnPend, Target: victim.ID, Payload: map[string]any{"respawnIn": result.RespawnIn}})
	}
}

func (m *DeathCountMode) OnBaseTap(eng *Engine, baseID string, gameTime int64) {}

func (m *DeathCountMode) GetRolePool(eng *Engine, n int) []RoleKey { return nil }

func (m *DeathCountMode) GetPlayerDeathCount(eng *Engine, id string) int {
	if p := eng.PlayerByID(id); p != nil {
		return p.DeathCount
	}
	return 0
}

func (m *DeathCountMode) CheckWinCondition(eng *Engine, gameTime int64) WinCheck {
	elapsed := gameTime - m.roundStart
	if elapsed < m.roundDurationMs {
		return WinCheck{}
	}
	gameEnded := eng.CurrentRound >= m.roundCount
	return WinCheck{RoundEnded: true, GameEnded: gameEnded}
}

func (m *DeathCountMode) OnRoundEnd(eng *Engine, gameTime int64) {
	if m.teamsEnabled && m.teams != nil {
		totals := map[int]int{}
		for _, p := range eng.Players {
			t := m.teams.TeamOf(p.ID)
			if t < 0 {
				continue
			}
			totals[t] += p.DeathCount
		}
		entries := make([]RankedEntry, 0, len(totals))
		for t, c := range totals {
			entries = append(entries, RankedEntry{ID: strconv.Itoa(t), Key: float64(c)})
		}
		ranked := Rank(entries, true)
		for _, r := range ranked {
			t, _ := strconv.Atoi(r.ID)
			bonus := PlacementBonus(DefaultPlacementBonuses(), r.Rank)
			m.teams.AddMatchPoints(t, bonus)
		}
		return
	}
	key := func(p *Player) float64 { return float64(p.DeathCount) }
	applyPlacementScoring(eng.Players, key, true, DefaultPlacementBonuses())
}

func (m *DeathCountMode) OnGameEnd(eng *Engine, gameTime int64) { m.respawn.Clear() }

func (m *DeathCountMode) CalculateFinalScores(eng *Engine) []ScoreEntry {
	return finalScoresByTotalPoints(eng)
}

func (m *DeathCountMode) GetTeamScoreData(eng *Engine) []TeamScoreEntry {
	if !m.teamsEnabled || m.teams == nil {
		return nil
	}
	out := make([]TeamScoreEntry, 0, len(m.teams.Teams()))
	for _, t := range m.teams.Teams() {
		out = append(out, TeamScoreEntry{TeamID: t.ID, DisplayName: t.DisplayName, Color: t.Color, Score: t.MatchPoints})
	}
	return out
}

