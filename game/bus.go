package game

import "sync"

// EventKind names an outbound authoritative event (spec.md §6.1).
type EventKind string

const (
	EvtGameStart           EventKind = "game:start"
	EvtGameCountdown       EventKind = "game:countdown"
	EvtRoundStart          EventKind = "round:start"
	EvtGameStopped         EventKind = "game:stopped"
	EvtReadyEnabled        EventKind = "ready:enabled"
	EvtPlayerDeath         EventKind = "player:death"
	EvtPlayerRespawn       EventKind = "player:respawn"
	EvtPlayerRespawnPend   EventKind = "player:respawn-pending"
	EvtPlayerDamage        EventKind = "player:damage"
	EvtRoleAssigned        EventKind = "role:assigned"
	EvtRoleUpdated         EventKind = "role:updated"
	EvtPlayerTapResult     EventKind = "player:tap:result"
	EvtRoundEnd            EventKind = "round:end"
	EvtGameEnd             EventKind = "game:end"
	EvtModeEvent           EventKind = "mode:event"
	EvtBaseCaptured        EventKind = "base:captured"
	EvtBasePoint           EventKind = "base:point"
	EvtDominationWin       EventKind = "domination:win"
	EvtVampireBloodlust    EventKind = "vampire:bloodlust"
)

// Event is one authoritative notification raised by the engine, a mode, an
// event or a player. Target is a player id for player-targeted messages
// (spec.md §4.11); empty Target means broadcast to every transport.
type Event struct {
	Kind    EventKind
	Target  string
	Payload any
}

// Bus is an in-process pub/sub: internal components publish events
// synchronously within the tick that raised them, and the Broadcaster is
// the (usually sole) subscriber that renders them to wire messages. Kept
// separate from the player/role graph so role hooks never hold object
// pointers to each other (spec.md §9) -- a BeastHunter reacting to a
// Beast's death looks the victim back up by id, it does not subscribe to
// "the Beast" directly.
type Bus struct {
	mu   sync.Mutex
	subs []func(Event)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn to receive every published event, in registration
// order. Used once by the server's Broadcaster; available to tests too.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Publish fans an event out synchronously to all subscribers. Calling this
// from within die() etc. is what guarantees "observers fire synchronously
// within die()" (spec.md §5).
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	subs := make([]func(Event), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
}
