package game

// Base is a physical base-phone endpoint used by Domination (spec.md §3).
type Base struct {
	BaseID                 string
	BaseNumber             int
	OwnerTeamID            *int
	LastOwnershipChangeAt  int64
	IsConnected            bool
}

// ControlProgress is (gameTime-lastOwnershipChangeAt)/controlIntervalMs,
// clamped to [0,1]; meaningful only while owned by a non-null team and
// connected (spec.md §3).
func (b *Base) ControlProgress(gameTime int64, controlIntervalMs int64) float64 {
	if b.OwnerTeamID == nil || !b.IsConnected || controlIntervalMs <= 0 {
		return 0
	}
	elapsed := gameTime - b.LastOwnershipChangeAt
	if elapsed < 0 {
		return 0
	}
	p := float64(elapsed) / float64(controlIntervalMs)
	return clamp01(p)
}

// BaseRegistry tracks 1-3 bases, their owner team and control timers
// (spec.md §3, §4 "BaseRegistry").
type BaseRegistry struct {
	bases    map[string]*Base
	nextNum  int
}

func NewBaseRegistry() *BaseRegistry {
	return &BaseRegistry{bases: make(map[string]*Base), nextNum: 1}
}

// Register allocates a new base, or reconnects an existing known id.
func (r *BaseRegistry) Register(baseID string) *Base {
	if baseID != "" {
		if b, ok := r.bases[baseID]; ok {
			b.IsConnected = true
			return b
		}
	}
	if baseID == "" {
		baseID = randomToken()
	}
	b := &Base{BaseID: baseID, BaseNumber: r.nextNum, IsConnected: true}
	r.nextNum++
	r.bases[baseID] = b
	return b
}

func (r *BaseRegistry) Get(baseID string) (*Base, bool) {
	b, ok := r.bases[baseID]
	return b, ok
}

func (r *BaseRegistry) All() []*Base {
	out := make([]*Base, 0, len(r.bases))
	for _, b := range r.bases {
		out = append(out, b)
	}
	return out
}

func (r *BaseRegistry) SetConnected(baseID string, connected bool) {
	if b, ok := r.bases[baseID]; ok {
		b.IsConnected = connected
	}
}

// Tap cycles ownership: neutral -> team 0 -> team 1 -> ... -> team 0
// (spec.md §4.7 Domination). Does not identify who tapped (spec.md §4.9
// Open Question -- intentional).
func (r *BaseRegistry) Tap(baseID string, teamCount int, gameTime int64) (*Base, bool) {
	b, ok := r.bases[baseID]
	if !ok {
		return nil, false
	}
	var next int
	if b.OwnerTeamID == nil {
		next = 0
	} else {
		next = (*b.OwnerTeamID + 1) % teamCount
	}
	b.OwnerTeamID = &next
	b.LastOwnershipChangeAt = gameTime
	return b, true
}

// Clear resets all bases to neutral (round/game reset).
func (r *BaseRegistry) Clear() {
	for _, b := range r.bases {
		b.OwnerTeamID = nil
		b.LastOwnershipChangeAt = 0
	}
}
