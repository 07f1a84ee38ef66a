package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lab1702/jsjoust-server/game"
)

func TestLoadSettingsMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.json")
	s := LoadSettings(path)
	d := DefaultSettings()
	if s.GameMode != d.GameMode || s.RoundCount != d.RoundCount {
		t.Errorf("LoadSettings for a missing file = %+v, want defaults %+v", s, d)
	}
}

func TestLoadSettingsUpgradesLegacyMovementBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	legacy := `{"dangerThreshold": 12.5, "damageMultiplier": 2.0, "historySize": 8}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := LoadSettings(path)

	if s.Movement.DangerThreshold != 12.5 {
		t.Errorf("upgraded DangerThreshold = %v, want 12.5", s.Movement.DangerThreshold)
	}
	if s.Movement.DamageMultiplier != 2.0 {
		t.Errorf("upgraded DamageMultiplier = %v, want 2.0", s.Movement.DamageMultiplier)
	}
	if s.Movement.HistorySize != 8 {
		t.Errorf("upgraded HistorySize = %v, want 8", s.Movement.HistorySize)
	}
	if s.GameMode != "classic" {
		t.Errorf("upgraded GameMode = %q, want the default classic", s.GameMode)
	}
}

func TestLoadSettingsRoundTripsFullBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	original := DefaultSettings()
	original.GameMode = "domination"
	original.RoundCount = 5
	if err := original.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := LoadSettings(path)
	if loaded.GameMode != "domination" || loaded.RoundCount != 5 {
		t.Errorf("round-tripped settings = %+v, want GameMode=domination RoundCount=5", loaded)
	}
}

func TestLoadSettingsMalformedFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s := LoadSettings(path)
	d := DefaultSettings()
	if s.GameMode != d.GameMode {
		t.Errorf("LoadSettings for a malformed file = %+v, want defaults", s)
	}
}

func TestClampEnforcesRanges(t *testing.T) {
	s := DefaultSettings()
	s.RoundCount = 99
	s.RoundSeconds = 1
	s.TeamCount = 1
	s.DominationPointTarget = 1000
	s.DominationControlSeconds = 1
	s.DominationRespawnSeconds = 1
	s.DominationBaseCount = 9

	s.clamp()

	if s.RoundCount != 10 {
		t.Errorf("RoundCount clamp = %d, want 10", s.RoundCount)
	}
	if s.RoundSeconds != 30 {
		t.Errorf("RoundSeconds clamp = %d, want 30", s.RoundSeconds)
	}
	if s.TeamCount != 2 {
		t.Errorf("TeamCount clamp = %d, want 2", s.TeamCount)
	}
	if s.DominationPointTarget != 100 {
		t.Errorf("DominationPointTarget clamp = %d, want 100", s.DominationPointTarget)
	}
	if s.DominationControlSeconds != 3 {
		t.Errorf("DominationControlSeconds clamp = %d, want 3", s.DominationControlSeconds)
	}
	if s.DominationRespawnSeconds != 5 {
		t.Errorf("DominationRespawnSeconds clamp = %d, want 5", s.DominationRespawnSeconds)
	}
	if s.DominationBaseCount != 3 {
		t.Errorf("DominationBaseCount clamp = %d, want 3", s.DominationBaseCount)
	}
}

func TestApplySettingsPatchMergesAndClamps(t *testing.T) {
	s := DefaultSettings()
	patch := map[string]any{
		"gameMode":   "roleBased",
		"roundCount": float64(20), // out of range, should clamp to 10
		"teamCount":  float64(3),
	}

	s.ApplySettingsPatch(patch)

	if s.GameMode != "roleBased" {
		t.Errorf("GameMode after patch = %q, want roleBased", s.GameMode)
	}
	if s.RoundCount != 10 {
		t.Errorf("RoundCount after out-of-range patch = %d, want clamped 10", s.RoundCount)
	}
	if s.TeamCount != 3 {
		t.Errorf("TeamCount after patch = %d, want 3", s.TeamCount)
	}
}

func TestApplySettingsPatchIgnoresUnknownAndEmptyFields(t *testing.T) {
	s := DefaultSettings()
	original := *s
	s.ApplySettingsPatch(map[string]any{"sensitivityKey": "", "unknownField": "whatever"})

	if s.SensitivityKey != original.SensitivityKey {
		t.Errorf("empty-string patch value should not overwrite SensitivityKey, got %q", s.SensitivityKey)
	}
}

func TestBuildModeFallsBackToClassicForUnknownKey(t *testing.T) {
	s := DefaultSettings()
	eng := game.NewEngine(100, nil)

	mode := s.BuildMode("not-a-real-mode", eng)

	if mode.Meta().Name != "classic" {
		t.Errorf("BuildMode for an unknown key = %q, want classic", mode.Meta().Name)
	}
}
