package game

import "math"

// ClassicMode: no roles, configurable round count, last effectively-alive
// player wins a round (spec.md §4.7).
type ClassicMode struct {
	roundCount   int
	targetScore  *int
}

func NewClassicMode(roundCount int, targetScore *int) *ClassicMode {
	return &ClassicMode{roundCount: roundCount, targetScore: targetScore}
}

func (m *ClassicMode) Meta() ModeMeta {
	return ModeMeta{Name: "classic", MinPlayers: 2, MaxPlayers: 32, UseRoles: false,
		MultiRound: true, RoundCount: m.roundCount, TargetScore: m.targetScore}
}

func (m *ClassicMode) OnModeSelected(eng *Engine) {}
func (m *ClassicMode) OnRoundStart(eng *Engine, gameTime int64) {}
func (m *ClassicMode) OnTick(eng *Engine, gameTime int64, dtMs int64) {}
func (m *ClassicMode) OnPlayerDeath(eng *Engine, victim *Player, gameTime int64) {}
func (m *ClassicMode) OnBaseTap(eng *Engine, baseID string, gameTime int64) {}
func (m *ClassicMode) GetTeamScoreData(eng *Engine) []TeamScoreEntry { return nil }

func (m *ClassicMode) GetRolePool(eng *Engine, n int) []RoleKey { return nil }
func (m *ClassicMode) GetPlayerDeathCount(eng *Engine, id string) int {
	if p := eng.PlayerByID(id); p != nil {
		return p.DeathCount
	}
	return 0
}

func (m *ClassicMode) CheckWinCondition(eng *Engine, gameTime int64) WinCheck {
	alive := eng.EffectivelyAlivePlayers(gameTime)
	if len(alive) > 1 {
		return WinCheck{}
	}
	var winner *string
	if len(alive) == 1 {
		id := alive[0].ID
		winner = &id
	}
	gameEnded := eng.CurrentRound >= m.roundCount
	if m.targetScore != nil {
		for _, p := range eng.Players {
			if p.TotalPoints+p.Points >= *m.targetScore {
				gameEnded = true
			}
		}
	}
	return WinCheck{RoundEnded: true, GameEnded: gameEnded, Winner: winner}
}

func (m *ClassicMode) OnRoundEnd(eng *Engine, gameTime int64) {
	alive := eng.EffectivelyAlivePlayers(gameTime)
	aliveSet := make(map[string]bool, len(alive))
	for _, p := range alive {
		aliveSet[p.ID] = true
	}
	// alive players share rank 1; dead players rank by reverse death order
	// (later death = better rank), using the gameTime Die() recorded rather
	// than AccumulatedDamage, which Die() clamps to the same death
	// threshold for every movement-killed player and so can't distinguish
	// who died first.
	key := func(p *Player) float64 {
		if aliveSet[p.ID] {
			return math.Inf(-1) // always ranks first
		}
		if p.DiedAtGameTime != nil {
			return -float64(*p.DiedAtGameTime) // later death = lower (better) key
		}
		return 0
	}
	applyPlacementScoring(eng.Players, key, true, DefaultPlacementBonuses())
}

func (m *ClassicMode) OnGameEnd(eng *Engine, gameTime int64) {}

func (m *ClassicMode) CalculateFinalScores(eng *Engine) []ScoreEntry {
	return finalScoresByTotalPoints(eng)
}

func finalScoresByTotalPoints(eng *Engine) []ScoreEntry {
	entries := make([]RankedEntry, len(eng.Players))
	for i, p := range eng.Players {
		entries[i] = RankedEntry{ID: p.ID, Key: -float64(p.TotalPoints)}
	}
	ranked := Rank(entries, true)
	out := make([]ScoreEntry, len(ranked))
	for i, r := range ranked {
		p := eng.PlayerByID(r.ID)
		out[i] = ScoreEntry{PlayerID: r.ID, Rank: r.Rank, Points: p.Points, TotalPoints: p.TotalPoints}
	}
	return out
}
