package game

// RespawnManager owns pendingRespawns: playerId -> respawnAt, shared by
// DeathCount and Domination (spec.md §4.8).
type RespawnManager struct {
	pending map[string]int64
	delayMs int64
}

func NewRespawnManager(delayMs int64) *RespawnManager {
	return &RespawnManager{pending: make(map[string]int64), delayMs: delayMs}
}

// ScheduleResult carries whether a respawn was scheduled and, if so, the
// delay to report to the dying player (spec.md §4.8).
type ScheduleResult struct {
	Scheduled bool
	RespawnIn int64
}

// ScheduleRespawn schedules id if roundDuration is nil or
// now+delay < roundDuration; otherwise it does not schedule.
func (r *RespawnManager) ScheduleRespawn(id string, now int64, roundDurationMs *int64) ScheduleResult {
	if roundDurationMs != nil && now+r.delayMs >= *roundDurationMs {
		return ScheduleResult{Scheduled: false}
	}
	r.pending[id] = now + r.delayMs
	return ScheduleResult{Scheduled: true, RespawnIn: r.delayMs}
}

// CheckRespawns removes every entry whose respawnAt has elapsed and returns
// those ids in no particular order; the caller revives the players.
func (r *RespawnManager) CheckRespawns(now int64) []string {
	var ready []string
	for id, at := range r.pending {
		if at <= now {
			ready = append(ready, id)
			delete(r.pending, id)
		}
	}
	return ready
}

// Clear purges all pending respawns (round end).
func (r *RespawnManager) Clear() {
	r.pending = make(map[string]int64)
}

// IsPending reports whether id has an outstanding respawn.
func (r *RespawnManager) IsPending(id string) bool {
	_, ok := r.pending[id]
	return ok
}
