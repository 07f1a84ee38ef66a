package game

import "math/rand"

// GameEvent is a round-scoped dynamic modifier (spec.md §4.6). The engine
// drives it through OnRoundStart/OnTick/OnPlayerDeath/OnRoundEnd only;
// activation timing is each event's own OnTick concern (see SpeedShift's
// nextCheckAt phase machine below), not a separate engine-driven gate.
type GameEvent interface {
	Name() string
	OnRoundStart(gameTime int64, cfg *MovementConfig)
	OnTick(gameTime int64, dtMs int64, cfg *MovementConfig, bus *Bus)
	OnPlayerDeath(victim *Player, gameTime int64)
	// OnRoundEnd restores any outstanding temporary mutation immediately
	// (spec.md §4.6: "On round end, if still fast or a restore is pending,
	// restore the saved threshold immediately").
	OnRoundEnd(gameTime int64, cfg *MovementConfig)
}

const (
	speedShiftCheckIntervalMs    int64   = 5000
	speedShiftTransitionDelayMs  int64   = 1000
	speedShiftFastMultiplier     float64 = 2
	speedShiftStaySlowBase       float64 = 0.75
	speedShiftStayFastBase       float64 = 2.0 / 3.0
)

// SpeedShift alternates slow/fast difficulty phases via a Bernoulli state
// machine (spec.md §4.6).
type SpeedShift struct {
	rng *rand.Rand

	phase          string // "slow" | "fast"
	nextCheckAt    int64
	consecutiveStay int
	savedThreshold float64
	hasSaved       bool
	restorePending bool
	restoreAt      int64
}

// NewSpeedShift constructs the event with a fixed-seed RNG; callers that
// need a different source pass one to NewSpeedShiftWithRand.
func NewSpeedShift() *SpeedShift {
	return NewSpeedShiftWithRand(rand.New(rand.NewSource(1)))
}

func NewSpeedShiftWithRand(r *rand.Rand) *SpeedShift {
	return &SpeedShift{rng: r, phase: "slow"}
}

func (s *SpeedShift) Name() string { return "speed-shift" }

func (s *SpeedShift) OnRoundStart(gameTime int64, cfg *MovementConfig) {
	s.phase = "slow"
	s.nextCheckAt = gameTime + speedShiftCheckIntervalMs
	s.consecutiveStay = 0
	s.hasSaved = false
	s.restorePending = false
}

func (s *SpeedShift) OnPlayerDeath(victim *Player, gameTime int64) {}

func (s *SpeedShift) OnTick(gameTime int64, dtMs int64, cfg *MovementConfig, bus *Bus) {
	if s.restorePending && gameTime >= s.restoreAt {
		cfg.DangerThreshold = s.savedThreshold
		s.restorePending = false
	}

	if gameTime < s.nextCheckAt {
		return
	}
	s.nextCheckAt += speedShiftCheckIntervalMs

	stayBase := speedShiftStaySlowBase
	if s.phase == "fast" {
		stayBase = speedShiftStayFastBase
	}
	stayProb := pow(stayBase, s.consecutiveStay)
	stays := s.rng.Float64() < stayProb

	if stays {
		s.consecutiveStay++
		return
	}
	s.consecutiveStay = 0
	s.transition(gameTime, cfg, bus)
}

func (s *SpeedShift) transition(gameTime int64, cfg *MovementConfig, bus *Bus) {
	if s.phase == "slow" {
		s.phase = "fast"
		s.savedThreshold = cfg.DangerThreshold
		s.hasSaved = true
		cfg.DangerThreshold = s.savedThreshold * speedShiftFastMultiplier
		bus.Publish(Event{Kind: EvtModeEvent, Payload: map[string]any{
			"modeName": "speed-shift", "eventType": "speed-shift:start",
			"data": map[string]any{"phase": "fast", "dangerThreshold": cfg.DangerThreshold},
		}})
		return
	}

	s.phase = "slow"
	s.restorePending = true
	s.restoreAt = gameTime + speedShiftTransitionDelayMs
	bus.Publish(Event{Kind: EvtModeEvent, Payload: map[string]any{
		"modeName": "speed-shift", "eventType": "speed-shift:end",
		"data": map[string]any{"phase": "slow", "dangerThreshold": cfg.DangerThreshold},
	}})
}

func (s *SpeedShift) OnRoundEnd(gameTime int64, cfg *MovementConfig) {
	if s.phase == "fast" || s.restorePending {
		if s.hasSaved {
			cfg.DangerThreshold = s.savedThreshold
		}
		s.restorePending = false
		s.phase = "slow"
	}
}

func pow(base float64, n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= base
	}
	return result
}
