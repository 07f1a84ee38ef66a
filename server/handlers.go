package server

import (
	"encoding/json"
	"time"

	"github.com/lab1702/jsjoust-server/game"
)

// handleMessage routes one decoded envelope to its handler. Recovers from
// panics the way the teacher's handleMessage does, so one malformed
// message can never take the connection (or the tick loop) down with it
// (spec.md §7: logic invariant violations self-recover).
func (s *Server) handleMessage(c *Client, msg ClientMessage) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Printf("panic handling %s from client %d: %v", msg.Type, c.id, r)
		}
	}()

	switch msg.Type {
	case MsgPlayerJoin:
		s.handleJoin(c, msg.Data)
	case MsgPlayerReconnect:
		s.handleReconnect(c, msg.Data)
	case MsgPlayerMove:
		s.handleMove(c, msg.Data)
	case MsgPlayerReady:
		s.handleReady(c, msg.Data)
	case MsgPlayerTap:
		s.handleTap(c, msg.Data)
	case MsgTeamSwitch:
		s.handleTeamSwitch(c)
	case MsgBaseRegister:
		s.handleBaseRegister(c, msg.Data)
	case MsgBaseTap:
		s.handleBaseTap(c, msg.Data)
	case MsgPing:
		s.sendTo(c, ServerMessage{Type: EvtPong, Data: map[string]any{}})
	default:
		s.logger.Printf("unknown message type: %s", msg.Type)
	}
}

func (s *Server) handleJoin(c *Client, data json.RawMessage) {
	var in joinData
	if err := json.Unmarshal(data, &in); err != nil || in.PlayerID == "" {
		s.sendTo(c, ServerMessage{Type: EvtPlayerJoined, Data: map[string]any{"success": false, "error": "invalid join data"}})
		return
	}

	s.mu.Lock()
	if _, exists := s.conns.ByPlayerID(in.PlayerID); exists {
		s.mu.Unlock()
		s.sendTo(c, ServerMessage{Type: EvtPlayerJoined, Data: map[string]any{"success": false, "error": "already joined"}})
		return
	}

	name := in.Name
	if name == "" {
		name = in.PlayerID
	}

	cs := s.conns.Register(in.PlayerID, c)
	s.eng.AddPlayer(in.PlayerID, name, cs.number)
	c.playerID = in.PlayerID

	var teamID *int
	if s.eng.Teams != nil {
		t := s.eng.Teams.Assign(in.PlayerID)
		teamID = &t
		if p := s.eng.PlayerByID(in.PlayerID); p != nil {
			p.TeamID = &t
		}
	}

	lobby := s.buildLobbySnapshotLocked()
	s.mu.Unlock()

	s.sendTo(c, ServerMessage{Type: EvtPlayerJoined, Data: map[string]any{
		"success": true, "playerId": in.PlayerID, "socketId": c.id,
		"sessionToken": cs.token, "playerNumber": cs.number, "name": name, "teamId": teamID,
	}})
	s.broadcastMsg(ServerMessage{Type: EvtLobbyUpdate, Data: lobby})
}

func (s *Server) handleReconnect(c *Client, data json.RawMessage) {
	var in reconnectData
	if err := json.Unmarshal(data, &in); err != nil || in.Token == "" {
		s.sendTo(c, ServerMessage{Type: EvtPlayerReconnected, Data: map[string]any{"success": false}})
		return
	}

	s.mu.Lock()
	cs, ok := s.conns.ByToken(in.Token)
	if !ok {
		s.mu.Unlock()
		s.sendTo(c, ServerMessage{Type: EvtPlayerReconnected, Data: map[string]any{"success": false}})
		return
	}
	s.conns.Rebind(cs, c)
	c.playerID = cs.playerID
	p := s.eng.PlayerByID(cs.playerID)
	s.eng.MarkReconnected(cs.playerID)

	var modeName *string
	if s.eng.Mode != nil {
		m := s.eng.Mode.Meta().Name
		modeName = &m
	}
	resp := map[string]any{
		"success": true, "playerId": cs.playerID, "playerNumber": cs.number,
		"player": playerSnapshotLocked(p, s.eng, s.conns), "gameState": s.eng.State,
		"currentRound": s.eng.CurrentRound, "mode": modeName,
	}
	if s.eng.Mode != nil {
		resp["totalRounds"] = s.eng.Mode.Meta().RoundCount
	}
	lobby := s.buildLobbySnapshotLocked()
	s.mu.Unlock()

	s.sendTo(c, ServerMessage{Type: EvtPlayerReconnected, Data: resp})
	s.broadcastMsg(ServerMessage{Type: EvtLobbyUpdate, Data: lobby})
}

func (s *Server) handleMove(c *Client, data json.RawMessage) {
	var in moveData
	if err := json.Unmarshal(data, &in); err != nil {
		return
	}
	if !finite(in.X) || !finite(in.Y) || !finite(in.Z) {
		return
	}
	sample := game.Sample{X: in.X, Y: in.Y, Z: in.Z, Timestamp: time.UnixMilli(in.Timestamp)}

	s.mu.Lock()
	s.eng.SubmitMovement(in.PlayerID, sample)
	s.mu.Unlock()
}

func finite(v float64) bool { return v == v && v < 1e308 && v > -1e308 }

func (s *Server) handleReady(c *Client, data json.RawMessage) {
	var in readyData
	if err := json.Unmarshal(data, &in); err != nil || in.PlayerID == "" {
		return
	}

	s.mu.Lock()
	s.eng.SetReady(in.PlayerID, true, s.relaunchModeLocked)
	total := 0
	ready := 0
	for _, p := range s.eng.Players {
		total++
		if p.IsReady {
			ready++
		}
	}
	s.mu.Unlock()

	s.broadcastMsg(ServerMessage{Type: EvtReadyUpdate, Data: map[string]any{"ready": ready, "total": total}})
}

func (s *Server) handleTap(c *Client, data json.RawMessage) {
	var in tapData
	if err := json.Unmarshal(data, &in); err != nil || in.PlayerID == "" {
		return
	}

	s.mu.Lock()
	result := s.eng.UseAbility(in.PlayerID)
	s.mu.Unlock()

	payload := map[string]any{"success": result.Success}
	if !result.Success {
		payload["reason"] = result.Reason
	} else {
		payload["charges"] = map[string]any{
			"current": result.Current, "max": result.Max, "cooldownRemaining": result.CooldownRemaining,
		}
	}
	s.sendTo(c, ServerMessage{Type: string(game.EvtPlayerTapResult), Data: payload})
}

func (s *Server) handleTeamSwitch(c *Client) {
	if c.playerID == "" {
		return
	}
	s.mu.Lock()
	if s.eng.State != game.StateWaiting && s.eng.State != game.StatePreGame {
		s.mu.Unlock()
		return
	}
	s.eng.SetTeam(c.playerID)
	snapshot := s.eng.Teams.Snapshot()
	s.mu.Unlock()

	s.broadcastMsg(ServerMessage{Type: EvtTeamUpdate, Data: map[string]any{"teams": snapshot}})
}

func (s *Server) handleBaseRegister(c *Client, data json.RawMessage) {
	var in baseRegisterData
	_ = json.Unmarshal(data, &in)

	s.mu.Lock()
	b := s.bases.Register(in.BaseID)
	c.baseID = b.BaseID
	snapshot := newBaseStatusSnapshotLocked(s.eng, s.bases)
	s.mu.Unlock()

	s.sendTo(c, ServerMessage{Type: EvtBaseRegistered, Data: map[string]any{
		"baseId": b.BaseID, "baseNumber": b.BaseNumber, "ownerTeamId": b.OwnerTeamID, "gameState": s.eng.State,
	}})
	s.broadcastMsg(ServerMessage{Type: EvtBaseStatus, Data: snapshot})
}

func (s *Server) handleBaseTap(c *Client, data json.RawMessage) {
	var in baseTapData
	if err := json.Unmarshal(data, &in); err != nil || in.BaseID == "" {
		return
	}
	s.mu.Lock()
	s.eng.TapBase(in.BaseID)
	snapshot := newBaseStatusSnapshotLocked(s.eng, s.bases)
	s.mu.Unlock()

	s.broadcastMsg(ServerMessage{Type: EvtBaseStatus, Data: snapshot})
}

// handleTransportClosed implements the waiting-state lobby grace timer vs.
// in-play disconnectedAt marking split (spec.md §4.10).
func (s *Server) handleTransportClosed(c *Client) {
	if c.playerID == "" {
		return
	}

	s.mu.Lock()
	cs, ok := s.conns.ByPlayerID(c.playerID)
	if !ok {
		s.mu.Unlock()
		return
	}
	s.conns.MarkDisconnected(cs)

	if s.eng.State == game.StateWaiting {
		grace := time.Duration(s.settings.DisconnectGraceMs) * time.Millisecond
		cs.lobbyGraceTimer = time.AfterFunc(grace, func() { s.expireLobbyGrace(cs.playerID) })
		s.mu.Unlock()
		return
	}

	s.eng.MarkDisconnected(c.playerID, s.eng.GameTime())
	lobby := s.buildLobbySnapshotLocked()
	s.mu.Unlock()

	s.broadcastMsg(ServerMessage{Type: EvtLobbyUpdate, Data: lobby})
}

// expireLobbyGrace fires on the timer goroutine; it re-enters under mu like
// every other entry point so it cannot race the tick or another handler.
func (s *Server) expireLobbyGrace(playerID string) {
	s.mu.Lock()
	cs, ok := s.conns.ByPlayerID(playerID)
	if !ok || cs.client != nil {
		s.mu.Unlock()
		return
	}
	s.conns.Remove(cs)
	s.eng.RemovePlayer(playerID)
	lobby := s.buildLobbySnapshotLocked()
	s.mu.Unlock()

	s.broadcastMsg(ServerMessage{Type: EvtLobbyUpdate, Data: lobby})
}

// relaunchModeLocked rebuilds the last-played mode from settings, used by
// Engine.MaybeAutoRelaunch (finished -> pre-game).
func (s *Server) relaunchModeLocked(lastModeKey string) game.GameMode {
	return s.settings.BuildMode(lastModeKey, s.eng)
}
