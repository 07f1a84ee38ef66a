package server

import "github.com/lab1702/jsjoust-server/game"

// playerSnapshotLocked renders one player for game:tick / reconnect
// payloads (spec.md §6.1). Caller must hold Server.mu.
func playerSnapshotLocked(p *game.Player, eng *game.Engine, conns *ConnectionRegistry) map[string]any {
	if p == nil {
		return nil
	}
	cs, _ := conns.ByPlayerID(p.ID)
	isConnected := cs != nil && cs.client != nil

	var graceRemaining *int64
	if p.DisconnectedAt != nil {
		remaining := eng.DisconnectGraceMs - (eng.GameTime() - *p.DisconnectedAt)
		if remaining < 0 {
			remaining = 0
		}
		graceRemaining = &remaining
	}

	effects := p.EffectSnapshots()
	effectsOut := make([]map[string]any, len(effects))
	for i, e := range effects {
		effectsOut[i] = map[string]any{"type": e.Kind, "endTime": e.EndTime}
	}

	return map[string]any{
		"id": p.ID, "name": p.Name, "number": p.Number, "isAlive": p.IsAlive,
		"accumulatedDamage": p.AccumulatedDamage, "points": p.Points, "totalPoints": p.TotalPoints,
		"toughness": p.Toughness, "deathCount": p.DeathCount, "teamId": p.TeamID,
		"isDisconnected": !isConnected, "graceTimeRemaining": graceRemaining, "statusEffects": effectsOut,
	}
}

type tickSnapshot struct {
	GameTime           int64            `json:"gameTime"`
	RoundTimeRemaining *int64           `json:"roundTimeRemaining"`
	Players            []map[string]any `json:"players"`
}

func newTickSnapshot(eng *game.Engine, conns *ConnectionRegistry) *tickSnapshot {
	out := make([]map[string]any, 0, len(eng.Players))
	for _, p := range eng.Players {
		out = append(out, playerSnapshotLocked(p, eng, conns))
	}
	return &tickSnapshot{GameTime: eng.GameTime(), RoundTimeRemaining: roundTimeRemaining(eng), Players: out}
}

func roundTimeRemaining(eng *game.Engine) *int64 {
	if eng.Mode == nil {
		return nil
	}
	dur := eng.Mode.Meta().RoundDurationMs
	if dur == nil {
		return nil
	}
	remaining := *dur - eng.GameTime()
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// buildLobbySnapshotLocked renders the {players:[...]} payload shared by
// lobby:update and GET /game/lobby.
func (s *Server) buildLobbySnapshotLocked() map[string]any {
	out := make([]map[string]any, 0, len(s.conns.All()))
	for _, cs := range s.conns.All() {
		p := s.eng.PlayerByID(cs.playerID)
		if p == nil {
			continue
		}
		out = append(out, map[string]any{
			"id": p.ID, "number": p.Number, "name": p.Name,
			"isConnected": cs.client != nil, "isReady": p.IsReady, "teamId": p.TeamID,
		})
	}
	return map[string]any{"players": out}
}

// newBaseStatusSnapshotLocked renders base:status (spec.md §6.1).
func newBaseStatusSnapshotLocked(eng *game.Engine, bases *game.BaseRegistry) map[string]any {
	var controlIntervalMs int64 = 5000
	if dm, ok := eng.Mode.(interface{ ControlIntervalMs() int64 }); ok {
		controlIntervalMs = dm.ControlIntervalMs()
	}
	out := make([]map[string]any, 0)
	for _, b := range bases.All() {
		out = append(out, map[string]any{
			"baseId": b.BaseID, "baseNumber": b.BaseNumber, "ownerTeamId": b.OwnerTeamID,
			"controlProgress": b.ControlProgress(eng.GameTime(), controlIntervalMs), "isConnected": b.IsConnected,
		})
	}
	return map[string]any{"bases": out}
}
