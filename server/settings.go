package server

import (
	"encoding/json"
	"os"

	"github.com/lab1702/jsjoust-server/game"
)

// Settings is the persisted configuration blob (spec.md §6.3): movement
// tuning, the last-selected mode/theme, and per-mode parameters an admin
// can tweak between launches. Field order mirrors the POST /game/settings
// merge list (spec.md §6.2).
type Settings struct {
	TickRateMs        int64 `json:"tickRateMs"`
	CountdownSeconds  int   `json:"countdownSeconds"`
	GoDelayMs         int64 `json:"goDelayMs"`
	ReadyDelayMs      int64 `json:"readyDelayMs"`
	DisconnectGraceMs int64 `json:"disconnectGraceMs"`

	Movement game.MovementConfig `json:"movement"`

	SensitivityKey string `json:"sensitivityKey"`
	GameMode       string `json:"gameMode"`
	Theme          string `json:"theme"`

	RoundCount   int `json:"roundCount"`
	RoundSeconds int `json:"roundDuration"`

	TeamsEnabled bool `json:"teamsEnabled"`
	TeamCount    int  `json:"teamCount"`

	DominationPointTarget     int `json:"dominationPointTarget"`
	DominationControlSeconds  int `json:"dominationControlInterval"`
	DominationRespawnSeconds  int `json:"dominationRespawnTime"`
	DominationBaseCount       int `json:"dominationBaseCount"`
}

// DefaultSettings mirrors every default named across spec.md §4 (round
// count 3, round duration 90s, domination point target 20, etc).
func DefaultSettings() *Settings {
	return &Settings{
		TickRateMs:                100,
		CountdownSeconds:          5,
		GoDelayMs:                 800,
		ReadyDelayMs:              1500,
		DisconnectGraceMs:         10000,
		Movement:                  game.DefaultMovementConfig(),
		SensitivityKey:            "default",
		GameMode:                  "classic",
		Theme:                     "default",
		RoundCount:                3,
		RoundSeconds:              90,
		TeamsEnabled:              false,
		TeamCount:                 2,
		DominationPointTarget:     20,
		DominationControlSeconds:  5,
		DominationRespawnSeconds:  10,
		DominationBaseCount:       1,
	}
}

// legacyMovementBlob detects the pre-wrapper on-disk format: a settings
// file that is just a flat movement config with no outer envelope
// (spec.md §6.3: "legacy flat-movement format is upgraded by wrapping
// it").
type legacyMovementBlob struct {
	DangerThreshold   *float64 `json:"dangerThreshold"`
	DamageMultiplier  *float64 `json:"damageMultiplier"`
	DeathThreshold    *float64 `json:"deathThreshold"`
	HistorySize       *int     `json:"historySize"`
	SmoothingEnabled  *bool    `json:"smoothingEnabled"`
	OneshotMode       *bool    `json:"oneshotMode"`
}

func (b legacyMovementBlob) isMovementOnly() bool {
	return b.DangerThreshold != nil && b.DamageMultiplier != nil
}

// LoadSettings reads the persisted blob at path. Missing or malformed
// files fall back to defaults rather than failing startup (spec.md §6.3).
func LoadSettings(path string) *Settings {
	defaults := DefaultSettings()
	raw, err := os.ReadFile(path)
	if err != nil {
		return defaults
	}

	var s Settings
	if err := json.Unmarshal(raw, &s); err == nil && s.GameMode != "" {
		s.clamp()
		return &s
	}

	var legacy legacyMovementBlob
	if err := json.Unmarshal(raw, &legacy); err == nil && legacy.isMovementOnly() {
		upgraded := DefaultSettings()
		if legacy.DangerThreshold != nil {
			upgraded.Movement.DangerThreshold = *legacy.DangerThreshold
		}
		if legacy.DamageMultiplier != nil {
			upgraded.Movement.DamageMultiplier = *legacy.DamageMultiplier
		}
		if legacy.DeathThreshold != nil {
			upgraded.Movement.DeathThreshold = *legacy.DeathThreshold
		}
		if legacy.HistorySize != nil {
			upgraded.Movement.HistorySize = *legacy.HistorySize
		}
		if legacy.SmoothingEnabled != nil {
			upgraded.Movement.SmoothingEnabled = *legacy.SmoothingEnabled
		}
		if legacy.OneshotMode != nil {
			upgraded.Movement.OneshotMode = *legacy.OneshotMode
		}
		return upgraded
	}

	return defaults
}

// Save writes the blob to path, overwriting any prior contents.
func (s *Settings) Save(path string) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clamp enforces the ranges named in the settings merge contract (spec.md
// §6.2): roundCount 1-10, roundDuration 30-300s, teamCount 2-4,
// dominationPointTarget 5-100, dominationControlInterval 3-15s,
// dominationRespawnTime 5-30s, dominationBaseCount 1-3.
func (s *Settings) clamp() {
	s.RoundCount = clampInt(s.RoundCount, 1, 10)
	s.RoundSeconds = clampInt(s.RoundSeconds, 30, 300)
	s.TeamCount = clampInt(s.TeamCount, 2, 4)
	s.DominationPointTarget = clampInt(s.DominationPointTarget, 5, 100)
	s.DominationControlSeconds = clampInt(s.DominationControlSeconds, 3, 15)
	s.DominationRespawnSeconds = clampInt(s.DominationRespawnSeconds, 5, 30)
	s.DominationBaseCount = clampInt(s.DominationBaseCount, 1, 3)
}

// ApplySettingsPatch merges any of the fields present in patch into s,
// clamping out-of-range values in place rather than rejecting the whole
// request (spec.md §6.2, §7 "Validation" kind).
func (s *Settings) ApplySettingsPatch(patch map[string]any) {
	if v, ok := patch["sensitivityKey"].(string); ok && v != "" {
		s.SensitivityKey = v
	}
	if v, ok := patch["gameMode"].(string); ok && v != "" {
		s.GameMode = v
	}
	if v, ok := patch["theme"].(string); ok && v != "" {
		s.Theme = v
	}
	if v, ok := patch["roundCount"].(float64); ok {
		s.RoundCount = int(v)
	}
	if v, ok := patch["roundDuration"].(float64); ok {
		s.RoundSeconds = int(v)
	}
	if v, ok := patch["teamsEnabled"].(bool); ok {
		s.TeamsEnabled = v
	}
	if v, ok := patch["teamCount"].(float64); ok {
		s.TeamCount = int(v)
	}
	if v, ok := patch["dominationPointTarget"].(float64); ok {
		s.DominationPointTarget = int(v)
	}
	if v, ok := patch["dominationControlInterval"].(float64); ok {
		s.DominationControlSeconds = int(v)
	}
	if v, ok := patch["dominationRespawnTime"].(float64); ok {
		s.DominationRespawnSeconds = int(v)
	}
	if v, ok := patch["dominationBaseCount"].(float64); ok {
		s.DominationBaseCount = int(v)
	}
	s.clamp()
}

// BuildMode constructs a fresh game.GameMode for modeKey from the current
// settings. Unknown keys fall back to classic, since launch validation
// (spec.md §7) happens before this is ever called from the admin route;
// the fallback only matters for auto-relaunch replaying lastModeKey.
func (s *Settings) BuildMode(modeKey string, eng *game.Engine) game.GameMode {
	switch modeKey {
	case "roleBased":
		return game.NewRoleBasedMode(s.Theme, s.RoundCount, nil)
	case "deathCount":
		return game.NewDeathCountMode(s.RoundCount, int64(s.RoundSeconds)*1000,
			int64(s.DominationRespawnSeconds)*1000, s.TeamsEnabled, eng.Teams)
	case "domination":
		target := s.DominationPointTarget
		return game.NewDominationMode(eng.Teams, eng.Bases,
			int64(s.DominationRespawnSeconds)*1000, int64(s.DominationControlSeconds)*1000, target)
	default:
		return game.NewClassicMode(s.RoundCount, nil)
	}
}
