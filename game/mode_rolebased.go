package game

import "math"

// RoleBasedMode: roles drawn from a theme, default 3 rounds (or
// target-score driven), cooperative victory-group win (spec.md §4.7, §9
// "union" open-question resolution).
type RoleBasedMode struct {
	theme       string
	roundCount  int
	targetScore *int
}

func NewRoleBasedMode(theme string, roundCount int, targetScore *int) *RoleBasedMode {
	if roundCount <= 0 {
		roundCount = 3
	}
	return &RoleBasedMode{theme: theme, roundCount: roundCount, targetScore: targetScore}
}

func (m *RoleBasedMode) Meta() ModeMeta {
	return ModeMeta{Name: "role-based", MinPlayers: 3, MaxPlayers: 32, UseRoles: true,
		MultiRound: true, RoundCount: m.roundCount, TargetScore: m.targetScore}
}

func (m *RoleBasedMode) OnModeSelected(eng *Engine) {}
func (m *RoleBasedMode) OnRoundStart(eng *Engine, gameTime int64) {}
func (m *RoleBasedMode) OnTick(eng *Engine, gameTime int64, dtMs int64) {}
func (m *RoleBasedMode) OnPlayerDeath(eng *Engine, victim *Player, gameTime int64) {}
func (m *RoleBasedMode) OnBaseTap(eng *Engine, baseID string, gameTime int64) {}
func (m *RoleBasedMode) GetTeamScoreData(eng *Engine) []TeamScoreEntry { return nil }

func (m *RoleBasedMode) GetRolePool(eng *Engine, n int) []RoleKey {
	return eng.RoleFactory.GetRolePool(m.theme, n)
}

func (m *RoleBasedMode) GetPlayerDeathCount(eng *Engine, id string) int {
	if p := eng.PlayerByID(id); p != nil {
		return p.DeathCount
	}
	return 0
}

// CheckWinCondition ends the round early when every remaining alive player
// shares a non-null victory group (cooperative win), otherwise behaves
// like Classic's last-one-standing (spec.md §4.7, §9).
func (m *RoleBasedMode) CheckWinCondition(eng *Engine, gameTime int64) WinCheck {
	alive := eng.EffectivelyAlivePlayers(gameTime)

	if len(alive) > 0 {
		group := alive[0].VictoryGroupID
		if group != "" {
			allShare := true
			for _, p := range alive {
				if p.VictoryGroupID != group {
					allShare = false
					break
				}
			}
			if allShare {
				winner := group
				return WinCheck{RoundEnded: true, GameEnded: m.gameShouldEnd(eng), Winner: &winner}
			}
		}
	}

	if len(alive) > 1 {
		return WinCheck{}
	}
	var winner *string
	if len(alive) == 1 {
		id := alive[0].ID
		winner = &id
	}
	return WinCheck{RoundEnded: true, GameEnded: m.gameShouldEnd(eng), Winner: winner}
}

func (m *RoleBasedMode) gameShouldEnd(eng *Engine) bool {
	if eng.CurrentRound >= m.roundCount {
		return true
	}
	if m.targetScore != nil {
		for _, p := range eng.Players {
			if p.TotalPoints+p.Points >= *m.targetScore {
				return true
			}
		}
	}
	return false
}

func (m *RoleBasedMode) OnRoundEnd(eng *Engine, gameTime int64) {
	alive := eng.EffectivelyAlivePlayers(gameTime)
	aliveSet := make(map[string]bool, len(alive))
	for _, p := range alive {
		aliveSet[p.ID] = true
	}
	// Dead players rank by reverse death order (later death = better rank);
	// AccumulatedDamage can't serve this since Die() clamps it to the same
	// death threshold for every movement-killed player.
	key := func(p *Player) float64 {
		if aliveSet[p.ID] {
			return math.Inf(-1)
		}
		if p.DiedAtGameTime != nil {
			return -float64(*p.DiedAtGameTime)
		}
		return 0
	}
	applyPlacementScoring(eng.Players, key, true, DefaultPlacementBonuses())
}

func (m *RoleBasedMode) OnGameEnd(eng *Engine, gameTime int64) {}

func (m *RoleBasedMode) CalculateFinalScores(eng *Engine) []ScoreEntry {
	return finalScoresByTotalPoints(eng)
}
