package game

// ModeMeta is the static metadata of a GameMode instance (spec.md §3).
type ModeMeta struct {
	Name         string
	MinPlayers   int
	MaxPlayers   int
	UseRoles     bool
	MultiRound   bool
	RoundCount   int
	RoundDurationMs *int64
	TargetScore  *int
}

// WinCheck is the result of checkWinCondition (spec.md §4.7).
type WinCheck struct {
	RoundEnded bool
	GameEnded  bool
	Winner     *string // player id, victory-group id, "team:<team name>" for a Domination team win, or nil for draw
}

// TeamScoreEntry is one row of optional team-mode score data.
type TeamScoreEntry struct {
	TeamID      int
	DisplayName string
	Color       string
	Score       int
}

// ScoreEntry is one row of calculateFinalScores.
type ScoreEntry struct {
	PlayerID    string
	Rank        int
	Points      int
	TotalPoints int
}

// GameMode is the per-mode rules strategy (spec.md §4.7), implemented by
// each concrete mode (Classic, RoleBased, DeathCount, Domination). Every
// hook is invoked by the GameEngine orchestrator; modes never touch the
// tick loop or connection registry directly.
type GameMode interface {
	Meta() ModeMeta
	OnModeSelected(eng *Engine)
	OnRoundStart(eng *Engine, gameTime int64)
	OnTick(eng *Engine, gameTime int64, dtMs int64)
	OnPlayerDeath(eng *Engine, victim *Player, gameTime int64)
	CheckWinCondition(eng *Engine, gameTime int64) WinCheck
	OnRoundEnd(eng *Engine, gameTime int64)
	OnGameEnd(eng *Engine, gameTime int64)
	CalculateFinalScores(eng *Engine) []ScoreEntry
	GetRolePool(eng *Engine, n int) []RoleKey
	GetPlayerDeathCount(eng *Engine, id string) int
	OnBaseTap(eng *Engine, baseID string, gameTime int64)
	GetTeamScoreData(eng *Engine) []TeamScoreEntry // nil if not team mode
}

// applyPlacementScoring is the shared round-end scoring routine used by
// Classic, RoleBased and (player-granularity) DeathCount: rank by key,
// award PlacementBonus, fold points into TotalPoints (spec.md §4.7).
func applyPlacementScoring(players []*Player, key func(*Player) float64, ascending bool, bonuses []int) {
	entries := make([]RankedEntry, len(players))
	for i, p := range players {
		entries[i] = RankedEntry{ID: p.ID, Key: key(p)}
	}
	ranked := Rank(entries, ascending)
	rankByID := make(map[string]int, len(ranked))
	for _, r := range ranked {
		rankByID[r.ID] = r.Rank
	}
	for _, p := range players {
		bonus := PlacementBonus(bonuses, rankByID[p.ID])
		p.Points += bonus
		p.TotalPoints += p.Points
	}
}
