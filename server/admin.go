package server

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/lab1702/jsjoust-server/game"
	"github.com/skip2/go-qrcode"
)

// Routes builds the admin HTTP surface (spec.md §6.2) on an
// httprouter.Router, the same mux the teacher's partner example wires its
// handlers onto.
func (s *Server) Routes() *httprouter.Router {
	r := httprouter.New()
	r.GET("/game/state", s.handleGameState)
	r.GET("/game/lobby", s.handleGameLobby)
	r.POST("/game/settings", s.handlePostSettings)
	r.POST("/game/launch", s.handlePostLaunch)
	r.POST("/game/proceed", s.handlePostProceed)
	r.POST("/game/start-next-round", s.handlePostStartNextRound)
	r.POST("/game/stop", s.handlePostStop)
	r.POST("/game/kick/:playerId", s.handlePostKick)
	r.POST("/game/shuffle-teams", s.handlePostShuffleTeams)
	r.POST("/debug/reset", s.handlePostDebugReset)
	r.GET("/game/base-qr/:baseId", s.handleBaseQR)
	r.GET("/ws", httprouter.Handle(func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		s.HandleWebSocket(w, req)
	}))
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	snapshot := newTickSnapshot(s.eng, s.conns)
	var modeName *string
	if s.eng.Mode != nil {
		m := s.eng.Mode.Meta().Name
		modeName = &m
	}
	resp := map[string]any{
		"gameTime": snapshot.GameTime, "roundTimeRemaining": snapshot.RoundTimeRemaining,
		"players": snapshot.Players, "gameState": s.eng.State, "currentRound": s.eng.CurrentRound,
		"mode": modeName,
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGameLobby(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.conns.All()))
	for _, cs := range s.conns.All() {
		p := s.eng.PlayerByID(cs.playerID)
		if p == nil {
			continue
		}
		out = append(out, map[string]any{
			"id": p.ID, "number": p.Number, "name": p.Name,
			"isConnected": cs.client != nil, "isReady": p.IsReady,
		})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// handlePostSettings merges the patch into the persisted settings and
// writes it back to disk (spec.md §6.2, §6.3). Teams are only reshaped
// here, not mid-game, since the waiting state is the only place a
// teamCount/teamsEnabled change can't orphan a live assignment.
func (s *Server) handlePostSettings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid settings payload"})
		return
	}

	s.mu.Lock()
	s.settings.ApplySettingsPatch(patch)
	s.eng.Movement.DangerThreshold = s.settings.Movement.DangerThreshold
	if s.eng.State == game.StateWaiting {
		s.syncTeamsLocked()
	}
	settingsCopy := *s.settings
	s.mu.Unlock()

	if s.settingsPath != "" {
		_ = settingsCopy.Save(s.settingsPath)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": settingsCopy})
}

type launchRequest struct {
	Mode              string `json:"mode"`
	CountdownDuration *int   `json:"countdownDuration"`
}

func (s *Server) handlePostLaunch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in launchRequest
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.Mode == "" {
		in.Mode = s.settings.GameMode
	}
	switch in.Mode {
	case "classic", "roleBased", "deathCount", "domination":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "unknown mode: " + in.Mode})
		return
	}

	s.mu.Lock()
	if in.Mode == "domination" && s.eng.Teams == nil {
		s.syncTeamsLocked()
	}
	mode := s.settings.BuildMode(in.Mode, s.eng)
	if in.CountdownDuration != nil {
		s.eng.CountdownSeconds = *in.CountdownDuration
	}
	err := s.eng.Launch(mode, in.Mode)
	s.mu.Unlock()

	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "need at least 2 players"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handlePostProceed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	err := s.eng.ProceedFromPreGame()
	s.mu.Unlock()
	respondAdminAction(w, err)
}

func (s *Server) handlePostStartNextRound(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	err := s.eng.StartNextRound()
	s.mu.Unlock()
	respondAdminAction(w, err)
}

func (s *Server) handlePostStop(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	s.eng.Stop()
	s.mu.Unlock()
	s.broadcastMsg(ServerMessage{Type: "game:stopped", Data: map[string]any{}})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handlePostKick(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	playerID := ps.ByName("playerId")

	s.mu.Lock()
	cs, ok := s.conns.ByPlayerID(playerID)
	if ok {
		s.conns.Remove(cs)
		s.eng.RemovePlayer(playerID)
	}
	lobby := s.buildLobbySnapshotLocked()
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "unknown player"})
		return
	}
	s.broadcastMsg(ServerMessage{Type: EvtLobbyUpdate, Data: lobby})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handlePostShuffleTeams(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	if s.eng.State != game.StateWaiting && s.eng.State != game.StatePreGame {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "teams can only be shuffled before launch"})
		return
	}
	if s.eng.Teams == nil {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "teams are not enabled"})
		return
	}
	ids := make([]string, 0, len(s.eng.Players))
	for _, p := range s.eng.Players {
		ids = append(ids, p.ID)
	}
	s.eng.Teams.Shuffle(ids)
	for _, p := range s.eng.Players {
		t := s.eng.Teams.TeamOf(p.ID)
		p.TeamID = &t
	}
	snapshot := s.eng.Teams.Snapshot()
	s.mu.Unlock()

	s.broadcastMsg(ServerMessage{Type: EvtTeamUpdate, Data: map[string]any{"teams": snapshot}})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handlePostDebugReset stops the engine and clears every connection, but
// leaves persisted settings untouched (spec.md §6.2).
func (s *Server) handlePostDebugReset(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.mu.Lock()
	s.eng.Stop()
	for _, cs := range s.conns.All() {
		s.conns.Remove(cs)
		s.eng.RemovePlayer(cs.playerID)
	}
	s.mu.Unlock()
	s.broadcastMsg(ServerMessage{Type: "game:stopped", Data: map[string]any{}})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleBaseQR renders a scannable PNG pointing a base phone at its own
// base:register flow, grounded on the partner example's go-qrcode usage.
func (s *Server) handleBaseQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	baseID := ps.ByName("baseId")
	if baseID == "" {
		http.Error(w, "missing base id", http.StatusBadRequest)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	url := scheme + "://" + r.Host + "/base.html?baseId=" + baseID

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func respondAdminAction(w http.ResponseWriter, err error) {
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
