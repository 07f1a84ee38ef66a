package game

import (
	"fmt"
	"log"
)

// Engine is the GameEngine orchestrator (spec.md §4.9): it owns the
// lifecycle state machine, hosts the tick loop, dispatches ticks to the
// mode/events/players, and brokers ready-up / pre-game / countdown phases.
//
// Engine holds no lock of its own. Spec.md §5 models the whole game as a
// single logical actor; the teacher's equivalent is Server.gameState.Mu,
// held by the server package around every call into the engine (including
// the tick callback itself) so the tick loop and inbound transport
// messages never interleave. See server.Server for that lock.
type Engine struct {
	State        LifecycleState
	CurrentRound int
	Mode         GameMode
	LastModeKey  string
	Movement     MovementConfig

	Players     []*Player
	playersByID map[string]*Player

	Teams       *TeamRegistry
	Bases       *BaseRegistry
	RoleFactory *RoleFactory
	Events      []GameEvent
	Bus         *Bus

	TickRateMs        int64
	CountdownSeconds  int
	GoDelayMs         int64
	ReadyDelayMs      int64
	DisconnectGraceMs int64
	MinPlayers        int

	gameTime                int64
	countdownTicksLeft      int64
	goTicksLeft             int64
	readyGateUntil          int64           // gameTime before which ready input is ignored
	baselineDangerThreshold float64         // configured threshold restored at each round start
	connected               func() []string // ids of currently-connected players, supplied by server layer

	logger *log.Logger
}

// NewEngine constructs an idle engine in the waiting state.
func NewEngine(tickRateMs int64, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		State:             StateWaiting,
		Movement:          DefaultMovementConfig(),
		playersByID:       make(map[string]*Player),
		Bus:               NewBus(),
		TickRateMs:        tickRateMs,
		CountdownSeconds:  5,
		GoDelayMs:         800,
		ReadyDelayMs:      1500,
		DisconnectGraceMs: 10000,
		MinPlayers:        2,
		logger:            logger,
	}
	e.RoleFactory = NewRoleFactory(e.Bus, e.PlayerByID)
	return e
}

// AddPlayer registers a new long-lived Player with the engine (called by
// the connection registry on join). Caller must hold the server's engine
// lock.
func (e *Engine) AddPlayer(id, name string, number int) *Player {
	p := NewPlayer(id, name, number)
	e.Players = append(e.Players, p)
	e.playersByID[id] = p
	return p
}

// RemovePlayer permanently removes a player (kick, grace expiry).
func (e *Engine) RemovePlayer(id string) {
	delete(e.playersByID, id)
	for i, p := range e.Players {
		if p.ID == id {
			e.Players = append(e.Players[:i], e.Players[i+1:]...)
			break
		}
	}
	if e.Teams != nil {
		e.Teams.Remove(id)
	}
}

// PlayerByID looks a player up by id; nil if unknown.
func (e *Engine) PlayerByID(id string) *Player {
	return e.playersByID[id]
}

// SetConnectedFunc wires the server-layer connection query used by
// EffectivelyAlivePlayers.
func (e *Engine) SetConnectedFunc(fn func() []string) { e.connected = fn }

// GameTime returns ms since the current round started.
func (e *Engine) GameTime() int64 { return e.gameTime }

// --- Lifecycle state machine (spec.md §4.9) --------------------------------

// Launch transitions waiting -> pre-game (admin launch, >= minPlayers
// connected).
func (e *Engine) Launch(mode GameMode, lastModeKey string) error {
	if e.State != StateWaiting {
		return fmt.Errorf("launch rejected: engine not in waiting state")
	}
	if e.connectedCount() < e.MinPlayers {
		return fmt.Errorf("need at least %d players", e.MinPlayers)
	}
	e.Mode = mode
	e.LastModeKey = lastModeKey
	e.State = StatePreGame
	e.baselineDangerThreshold = e.Movement.DangerThreshold
	mode.OnModeSelected(e)
	meta := mode.Meta()
	e.Bus.Publish(Event{Kind: EvtGameStart, Payload: map[string]any{
		"mode": meta.Name, "totalRounds": meta.RoundCount, "sensitivity": e.Movement,
	}})
	return nil
}

// ProceedFromPreGame moves pre-game -> countdown (admin or auto-proceed).
func (e *Engine) ProceedFromPreGame() error {
	if e.State != StatePreGame {
		return fmt.Errorf("proceed rejected: not in pre-game")
	}
	e.beginCountdown()
	return nil
}

// beginCountdown starts the countdown phase. The server layer's own ticker
// drives Advance from here on; the engine does not spawn timers of its own
// (spec.md §5).
func (e *Engine) beginCountdown() {
	e.State = StateCountdown
	e.countdownTicksLeft = int64(e.CountdownSeconds) * (1000 / e.TickRateMs)
}

// MaybeAutoProceed checks "all connected ready and >=2 present" (spec.md
// §4.9); called by the server layer whenever a ready flag changes.
func (e *Engine) MaybeAutoProceed(allReady bool, readyCount int) {
	if e.State == StatePreGame && allReady && readyCount >= 2 {
		e.beginCountdown()
	}
}

// MaybeStartNextRound checks the round-ended auto-proceed condition.
func (e *Engine) MaybeStartNextRound(allReady bool) {
	if e.State == StateRoundEnded && allReady {
		e.beginCountdown()
	}
}

// StartNextRound is the admin-triggered equivalent.
func (e *Engine) StartNextRound() error {
	if e.State != StateRoundEnded {
		return fmt.Errorf("start-next-round rejected: round not ended")
	}
	e.beginCountdown()
	return nil
}

// MaybeAutoRelaunch handles finished -> pre-game (spec.md §4.9).
func (e *Engine) MaybeAutoRelaunch(allReady bool, readyCount int, relaunch func(lastModeKey string) GameMode) {
	if e.State == StateFinished && allReady && readyCount >= 2 {
		mode := relaunch(e.LastModeKey)
		e.Mode = mode
		e.State = StatePreGame
		e.baselineDangerThreshold = e.Movement.DangerThreshold
		mode.OnModeSelected(e)
	}
}

// Stop transitions any state to waiting (admin stop), cancelling timers and
// resetting ready flags but keeping lobby membership (spec.md §5).
func (e *Engine) Stop() {
	e.State = StateWaiting
	e.CurrentRound = 0
	e.gameTime = 0
	e.countdownTicksLeft = 0
	e.goTicksLeft = 0
	e.readyGateUntil = 0
	for _, p := range e.Players {
		p.IsReady = false
	}
	e.Bus.Publish(Event{Kind: EvtGameStopped, Payload: map[string]any{}})
}

func (e *Engine) connectedCount() int {
	if e.connected == nil {
		return len(e.Players)
	}
	return len(e.connected())
}

// --- Tick dispatch (spec.md §2 data-flow, §4.9) ----------------------------

// Advance is the Clock callback; it runs exactly one tick's worth of
// engine logic. Single-threaded within the call: nothing here yields.
// Exported so the server layer's serializing lock wraps it explicitly.
func (e *Engine) Advance(_ int64) {
	switch e.State {
	case StateCountdown:
		e.tickCountdown()
	case StateActive:
		e.tickActive()
	}
}

func (e *Engine) tickCountdown() {
	ticksPerSecond := 1000 / e.TickRateMs

	if e.goTicksLeft > 0 {
		e.goTicksLeft--
		if e.goTicksLeft <= 0 {
			e.enterActive()
		}
		return
	}

	e.countdownTicksLeft--
	if e.countdownTicksLeft <= 0 {
		e.Bus.Publish(Event{Kind: EvtGameCountdown, Payload: map[string]any{"phase": "go", "secondsRemaining": 0}})
		e.goTicksLeft = e.GoDelayMs / e.TickRateMs
		if e.goTicksLeft <= 0 {
			e.enterActive()
		}
		return
	}
	if e.countdownTicksLeft%ticksPerSecond == 0 {
		secondsRemaining := int(e.countdownTicksLeft / ticksPerSecond)
		e.Bus.Publish(Event{Kind: EvtGameCountdown, Payload: map[string]any{"phase": "countdown", "secondsRemaining": secondsRemaining}})
	}
}

func (e *Engine) enterActive() {
	e.State = StateActive
	e.CurrentRound++
	e.gameTime = 0
	e.setReadyGate(0)
	// Restore the configured/admin-set baseline, not the package default:
	// SpeedShift (event.go) already saves/restores its own mutation on top
	// of this, so this only undoes a *previous round's* SpeedShift state
	// that didn't get to restore before round end.
	e.Movement.DangerThreshold = e.baselineDangerThreshold
	for _, ev := range e.Events {
		ev.OnRoundStart(0, &e.Movement)
	}
	e.initPlayersForRound()
	e.Mode.OnRoundStart(e, 0)
	e.Bus.Publish(Event{Kind: EvtRoundStart, Payload: map[string]any{
		"roundNumber": e.CurrentRound, "totalRounds": e.Mode.Meta().RoundCount, "gameTime": 0,
	}})
}

// initPlayersForRound resets per-round fields, assigns roles if the mode
// uses them, and emits role:assigned once per player (spec.md §4.9).
func (e *Engine) initPlayersForRound() {
	for _, p := range e.Players {
		p.ResetForRound(e.Movement)
	}
	meta := e.Mode.Meta()
	if meta.UseRoles {
		pool := e.Mode.GetRolePool(e, len(e.Players))
		e.RoleFactory.Assign(e.Players, pool, 0)
		for _, p := range e.Players {
			if p.Role == nil {
				continue
			}
			m := p.Role.Meta()
			e.Bus.Publish(Event{Kind: EvtRoleAssigned, Target: p.ID, Payload: map[string]any{
				"name": m.Key, "displayName": m.DisplayName, "description": m.Description,
				"difficulty": m.Difficulty, "targetName": p.TargetPlayerName,
			}})
		}
	} else {
		for _, p := range e.Players {
			p.Role = nil
		}
	}
}

func (e *Engine) tickActive() {
	prevGt := e.gameTime
	e.gameTime += e.TickRateMs
	gt := e.gameTime
	if prevGt < e.readyGateUntil && gt >= e.readyGateUntil {
		e.Bus.Publish(Event{Kind: EvtReadyEnabled, Payload: map[string]any{"enabled": true}})
	}

	e.Mode.OnTick(e, gt, e.TickRateMs)

	for _, ev := range e.Events {
		ev.OnTick(gt, e.TickRateMs, &e.Movement, e.Bus)
	}

	for _, p := range e.Players {
		p.SetDeathThresholdCache(e.Movement.DeathThreshold)
		wasAlive := p.IsAlive
		p.OnTick(gt, e.TickRateMs, e.Bus, e.Movement)
		if wasAlive && !p.IsAlive {
			e.onPlayerDied(p, gt)
		}
	}

	win := e.safeCheckWinCondition(gt)
	if win.RoundEnded {
		e.endRound(gt, win)
	}
}

// onPlayerDied runs the cross-listener notification fan-out and mode hooks
// for a death detected via the player's own OnTick (e.g. an Excited kill).
func (e *Engine) onPlayerDied(victim *Player, gt int64) {
	e.publishDeath(victim, gt)
}

func (e *Engine) publishDeath(victim *Player, gt int64) {
	e.Bus.Publish(Event{Kind: EvtPlayerDeath, Payload: map[string]any{
		"victimId": victim.ID, "victimName": victim.Name, "victimNumber": victim.Number, "gameTime": gt,
	}})
	for _, p := range e.Players {
		p.NotifyPlayerDeath(victim, gt)
	}
	for _, ev := range e.Events {
		ev.OnPlayerDeath(victim, gt)
	}
	e.Mode.OnPlayerDeath(e, victim, gt)
	e.setReadyGate(gt + e.ReadyDelayMs)
}

// setReadyGate updates the ready-input guard and, on a transition, emits
// ready:enabled (spec.md §4.9, §6.1).
func (e *Engine) setReadyGate(until int64) {
	wasEnabled := e.gameTime >= e.readyGateUntil
	e.readyGateUntil = until
	nowEnabled := e.gameTime >= e.readyGateUntil
	if wasEnabled != nowEnabled {
		e.Bus.Publish(Event{Kind: EvtReadyEnabled, Payload: map[string]any{"enabled": nowEnabled}})
	}
}

// NotifyDamageDeath is called by the server layer right after a movement
// sample causes TakeDamage to kill a player outside the tick-dispatch path
// (spec.md §5: "player:death observers fire synchronously within die()").
func (e *Engine) NotifyDamageDeath(victim *Player) {
	e.publishDeath(victim, e.gameTime)
}

func (e *Engine) safeCheckWinCondition(gt int64) (result WinCheck) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("error: checkWinCondition panicked: %v", r)
			result = WinCheck{}
		}
	}()
	return e.Mode.CheckWinCondition(e, gt)
}

func (e *Engine) endRound(gt int64, win WinCheck) {
	for _, ev := range e.Events {
		ev.OnRoundEnd(gt, &e.Movement)
	}
	e.Mode.OnRoundEnd(e, gt)

	scores := e.Mode.CalculateFinalScores(e)
	winnerID := win.Winner
	e.Bus.Publish(Event{Kind: EvtRoundEnd, Payload: map[string]any{
		"roundNumber": e.CurrentRound, "scores": scores, "gameTime": gt,
		"winnerId": winnerID, "teamScores": e.Mode.GetTeamScoreData(e),
	}})

	if win.GameEnded {
		e.State = StateFinished
		e.Mode.OnGameEnd(e, gt)
		e.Bus.Publish(Event{Kind: EvtGameEnd, Payload: map[string]any{
			"winner": winnerID, "scores": scores, "totalRounds": e.CurrentRound,
			"teamScores": e.Mode.GetTeamScoreData(e),
		}})
		return
	}

	e.State = StateRoundEnded
	for _, p := range e.Players {
		p.IsReady = false
	}
}

// EffectivelyAlivePlayers returns alive players that are connected or
// within their disconnect grace (spec.md §4.10).
func (e *Engine) EffectivelyAlivePlayers(gameTime int64) []*Player {
	var out []*Player
	for _, p := range e.Players {
		if !p.IsAlive {
			continue
		}
		if p.DisconnectedAt != nil && gameTime-*p.DisconnectedAt >= e.DisconnectGraceMs {
			continue
		}
		out = append(out, p)
	}
	return out
}

// IsReadyInputEnabled reports whether ready-up is currently accepted
// (false during the post-death/round-end guard window, spec.md §4.9).
func (e *Engine) IsReadyInputEnabled() bool {
	return e.gameTime >= e.readyGateUntil
}

// --- Inbound message entry points ------------------------------------------
//
// Everything below is called directly by the server layer's message
// handlers, already under its single serializing lock (spec.md §5), so
// none of it takes one of its own.

// SubmitMovement feeds one accelerometer sample into the named player. A
// no-op outside the active state or for a dead/unknown player.
func (e *Engine) SubmitMovement(playerID string, sample Sample) {
	if e.State != StateActive {
		return
	}
	p := e.playersByID[playerID]
	if p == nil || !p.IsAlive {
		return
	}
	wasAlive := p.IsAlive
	p.UpdateMovement(sample, e.gameTime, e.Movement)
	if wasAlive && !p.IsAlive {
		e.publishDeath(p, e.gameTime)
	}
}

// SetReady toggles a player's ready flag and runs the relevant auto-proceed
// check for the current lifecycle state (spec.md §4.9). relaunch supplies
// the next mode when auto-relaunching out of Finished.
func (e *Engine) SetReady(playerID string, ready bool, relaunch func(lastModeKey string) GameMode) {
	p := e.playersByID[playerID]
	if p == nil {
		return
	}
	if ready && !e.IsReadyInputEnabled() {
		return
	}
	p.IsReady = ready

	connected := e.connectedIDs()
	allReady, readyCount := true, 0
	for _, id := range connected {
		if pl := e.playersByID[id]; pl != nil {
			if pl.IsReady {
				readyCount++
			} else {
				allReady = false
			}
		}
	}
	if len(connected) == 0 {
		allReady = false
	}

	switch e.State {
	case StatePreGame:
		e.MaybeAutoProceed(allReady, readyCount)
	case StateRoundEnded:
		e.MaybeStartNextRound(allReady)
	case StateFinished:
		e.MaybeAutoRelaunch(allReady, readyCount, relaunch)
	}
}

func (e *Engine) connectedIDs() []string {
	if e.connected == nil {
		out := make([]string, len(e.Players))
		for i, p := range e.Players {
			out[i] = p.ID
		}
		return out
	}
	return e.connected()
}

// TapBase forwards a base-phone tap to the active mode (no-op for modes
// that ignore bases, e.g. Classic).
func (e *Engine) TapBase(baseID string) {
	if e.State != StateActive || e.Mode == nil {
		return
	}
	e.Mode.OnBaseTap(e, baseID, e.gameTime)
}

// UseAbility forwards an ability-use request to the named player.
func (e *Engine) UseAbility(playerID string) UseAbilityResult {
	p := e.playersByID[playerID]
	if p == nil {
		return UseAbilityResult{Success: false, Reason: ReasonNoAbility}
	}
	if e.State != StateActive || !p.IsAlive {
		return UseAbilityResult{Success: false, Reason: ReasonNoAbility}
	}
	return p.UseAbility(e.gameTime)
}

// SetTarget records a player's chosen target (used by roles like Angel
// that shield "the current target" rather than acting on self).
func (e *Engine) SetTarget(playerID, targetID, targetName string) {
	if p := e.playersByID[playerID]; p != nil {
		p.TargetPlayerID = targetID
		p.TargetPlayerName = targetName
	}
}

// SetTeam assigns or cycles a player's team via the engine's TeamRegistry,
// if one is configured for the current mode.
func (e *Engine) SetTeam(playerID string) {
	if e.Teams == nil {
		return
	}
	if p := e.playersByID[playerID]; p != nil {
		teamID := e.Teams.Cycle(playerID)
		p.TeamID = &teamID
	}
}

// MarkDisconnected/MarkReconnected manage the per-player grace window used
// by EffectivelyAlivePlayers (spec.md §4.10).
func (e *Engine) MarkDisconnected(playerID string, gameTime int64) {
	if p := e.playersByID[playerID]; p != nil {
		p.DisconnectedAt = &gameTime
	}
}

func (e *Engine) MarkReconnected(playerID string) {
	if p := e.playersByID[playerID]; p != nil {
		p.DisconnectedAt = nil
	}
}
