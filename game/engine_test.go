package game

import "testing"

func twoPlayerEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(100, nil)
	e.AddPlayer("p1", "Alice", 1)
	e.AddPlayer("p2", "Bob", 2)
	return e
}

func TestLaunchRejectsBelowMinPlayers(t *testing.T) {
	e := NewEngine(100, nil)
	e.AddPlayer("p1", "Alice", 1)

	if err := e.Launch(NewClassicMode(3, nil), "classic"); err == nil {
		t.Fatal("Launch with one player should be rejected")
	}
	if e.State != StateWaiting {
		t.Errorf("State after rejected launch = %v, want waiting", e.State)
	}
}

func TestLaunchRejectsOutsideWaiting(t *testing.T) {
	e := twoPlayerEngine(t)
	if err := e.Launch(NewClassicMode(3, nil), "classic"); err != nil {
		t.Fatalf("first Launch should succeed: %v", err)
	}
	if err := e.Launch(NewClassicMode(3, nil), "classic"); err == nil {
		t.Fatal("second Launch from pre-game should be rejected")
	}
}

func TestLaunchMovesWaitingToPreGame(t *testing.T) {
	e := twoPlayerEngine(t)
	var gotStart bool
	e.Bus.Subscribe(func(ev Event) {
		if ev.Kind == EvtGameStart {
			gotStart = true
		}
	})

	if err := e.Launch(NewClassicMode(3, nil), "classic"); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if e.State != StatePreGame {
		t.Errorf("State after Launch = %v, want pre-game", e.State)
	}
	if !gotStart {
		t.Error("expected a game:start event on Launch")
	}
}

func TestProceedFromPreGameEntersCountdown(t *testing.T) {
	e := twoPlayerEngine(t)
	if err := e.Launch(NewClassicMode(3, nil), "classic"); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := e.ProceedFromPreGame(); err != nil {
		t.Fatalf("ProceedFromPreGame: %v", err)
	}
	if e.State != StateCountdown {
		t.Errorf("State after ProceedFromPreGame = %v, want countdown", e.State)
	}
}

func TestProceedFromPreGameRejectedOutsidePreGame(t *testing.T) {
	e := twoPlayerEngine(t)
	if err := e.ProceedFromPreGame(); err == nil {
		t.Fatal("ProceedFromPreGame from waiting should be rejected")
	}
}

func TestCountdownAdvancesIntoActive(t *testing.T) {
	e := twoPlayerEngine(t)
	e.CountdownSeconds = 1
	e.GoDelayMs = 100
	if err := e.Launch(NewClassicMode(3, nil), "classic"); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := e.ProceedFromPreGame(); err != nil {
		t.Fatalf("ProceedFromPreGame: %v", err)
	}

	var roundStarted bool
	e.Bus.Subscribe(func(ev Event) {
		if ev.Kind == EvtRoundStart {
			roundStarted = true
		}
	})

	// 1 countdown second (10 ticks at 100ms) + 100ms go-delay (1 tick).
	for i := 0; i < 15 && e.State == StateCountdown; i++ {
		e.Advance(0)
	}

	if e.State != StateActive {
		t.Fatalf("State after countdown ticks = %v, want active", e.State)
	}
	if !roundStarted {
		t.Error("expected a round:start event on entering active")
	}
	if e.CurrentRound != 1 {
		t.Errorf("CurrentRound = %d, want 1", e.CurrentRound)
	}
}

func TestActiveRoundEndsWithOneSurvivor(t *testing.T) {
	e := twoPlayerEngine(t)
	e.CountdownSeconds = 0
	e.GoDelayMs = 0
	if err := e.Launch(NewClassicMode(1, nil), "classic"); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := e.ProceedFromPreGame(); err != nil {
		t.Fatalf("ProceedFromPreGame: %v", err)
	}
	for i := 0; i < 5 && e.State != StateActive; i++ {
		e.Advance(0)
	}
	if e.State != StateActive {
		t.Fatalf("failed to reach active state, State = %v", e.State)
	}

	p2 := e.PlayerByID("p2")
	p2.Die(e.gameTime)

	var gameEnded bool
	e.Bus.Subscribe(func(ev Event) {
		if ev.Kind == EvtGameEnd {
			gameEnded = true
		}
	})

	e.Advance(0)

	if e.State != StateFinished {
		t.Errorf("State after sole-round game with one survivor = %v, want finished", e.State)
	}
	if !gameEnded {
		t.Error("expected a game:end event when the round count is exhausted")
	}
}

func TestActiveRoundEndedGoesToRoundEndedWhenMoreRoundsRemain(t *testing.T) {
	e := twoPlayerEngine(t)
	e.CountdownSeconds = 0
	e.GoDelayMs = 0
	if err := e.Launch(NewClassicMode(3, nil), "classic"); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := e.ProceedFromPreGame(); err != nil {
		t.Fatalf("ProceedFromPreGame: %v", err)
	}
	for i := 0; i < 5 && e.State != StateActive; i++ {
		e.Advance(0)
	}

	p2 := e.PlayerByID("p2")
	p2.Die(e.gameTime)
	e.Advance(0)

	if e.State != StateRoundEnded {
		t.Fatalf("State after round 1 of 3 ends = %v, want round-ended", e.State)
	}
	for _, p := range e.Players {
		if p.IsReady {
			t.Errorf("player %s should have IsReady reset at round end", p.ID)
		}
	}
}

func TestStartNextRoundRejectedOutsideRoundEnded(t *testing.T) {
	e := twoPlayerEngine(t)
	if err := e.StartNextRound(); err == nil {
		t.Fatal("StartNextRound from waiting should be rejected")
	}
}

func TestStopReturnsToWaitingFromAnyState(t *testing.T) {
	e := twoPlayerEngine(t)
	if err := e.Launch(NewClassicMode(3, nil), "classic"); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := e.ProceedFromPreGame(); err != nil {
		t.Fatalf("ProceedFromPreGame: %v", err)
	}

	var stopped bool
	e.Bus.Subscribe(func(ev Event) {
		if ev.Kind == EvtGameStopped {
			stopped = true
		}
	})

	e.Stop()

	if e.State != StateWaiting {
		t.Errorf("State after Stop = %v, want waiting", e.State)
	}
	if e.CurrentRound != 0 {
		t.Errorf("CurrentRound after Stop = %d, want 0", e.CurrentRound)
	}
	if !stopped {
		t.Error("expected a game:stopped event on Stop")
	}
	if len(e.Players) != 2 {
		t.Errorf("Stop must preserve lobby membership, got %d players", len(e.Players))
	}
}

func TestMaybeAutoProceedRequiresTwoReadyInPreGame(t *testing.T) {
	e := twoPlayerEngine(t)
	if err := e.Launch(NewClassicMode(3, nil), "classic"); err != nil {
		t.Fatalf("Launch: %v", err)
	}

	e.MaybeAutoProceed(true, 1)
	if e.State != StatePreGame {
		t.Errorf("State after auto-proceed with only 1 ready = %v, want pre-game", e.State)
	}

	e.MaybeAutoProceed(true, 2)
	if e.State != StateCountdown {
		t.Errorf("State after auto-proceed with 2 ready = %v, want countdown", e.State)
	}
}

func TestMaybeAutoRelaunchReturnsToPreGame(t *testing.T) {
	e := twoPlayerEngine(t)
	e.State = StateFinished
	e.LastModeKey = "classic"

	relaunchCalled := false
	relaunch := func(key string) GameMode {
		relaunchCalled = true
		if key != "classic" {
			t.Errorf("relaunch callback key = %q, want classic", key)
		}
		return NewClassicMode(3, nil)
	}

	e.MaybeAutoRelaunch(true, 2, relaunch)

	if !relaunchCalled {
		t.Fatal("expected the relaunch callback to be invoked")
	}
	if e.State != StatePreGame {
		t.Errorf("State after auto-relaunch = %v, want pre-game", e.State)
	}
}

func TestReadyGateBlocksInputUntilWindowElapses(t *testing.T) {
	e := twoPlayerEngine(t)
	e.setReadyGate(500)
	if e.IsReadyInputEnabled() {
		t.Fatal("ready input should be disabled while gameTime < readyGateUntil")
	}

	e.gameTime = 500
	if !e.IsReadyInputEnabled() {
		t.Error("ready input should be enabled once gameTime reaches readyGateUntil")
	}
}

func TestSetReadyIgnoredWhileGateClosed(t *testing.T) {
	e := twoPlayerEngine(t)
	e.State = StatePreGame
	e.readyGateUntil = 1000

	e.SetReady("p1", true, nil)

	if p := e.PlayerByID("p1"); p.IsReady {
		t.Error("SetReady(true) should be ignored while the ready gate is closed")
	}
}

func TestEnterActiveRestoresConfiguredBaselineNotPackageDefault(t *testing.T) {
	e := twoPlayerEngine(t)
	e.CountdownSeconds = 0
	e.GoDelayMs = 0
	e.Movement.DangerThreshold = 99 // admin/settings-configured value, not the package default

	if err := e.Launch(NewClassicMode(3, nil), "classic"); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := e.ProceedFromPreGame(); err != nil {
		t.Fatalf("ProceedFromPreGame: %v", err)
	}
	for i := 0; i < 5 && e.State != StateActive; i++ {
		e.Advance(0)
	}
	if e.State != StateActive {
		t.Fatalf("failed to reach active state, State = %v", e.State)
	}

	if e.Movement.DangerThreshold != 99 {
		t.Errorf("DangerThreshold at round start = %v, want the configured baseline 99", e.Movement.DangerThreshold)
	}

	// Simulate a round boundary where the in-round value drifted (e.g. a
	// SpeedShift mutation that never got to restore) and confirm the next
	// round still restores to 99, not DefaultMovementConfig()'s 0.5.
	e.Movement.DangerThreshold = 5
	e.State = StateRoundEnded
	if err := e.StartNextRound(); err != nil {
		t.Fatalf("StartNextRound: %v", err)
	}
	for i := 0; i < 5 && e.State != StateActive; i++ {
		e.Advance(0)
	}
	if e.Movement.DangerThreshold != 99 {
		t.Errorf("DangerThreshold at round 2 start = %v, want the configured baseline 99", e.Movement.DangerThreshold)
	}
}
