package server

import "github.com/lab1702/jsjoust-server/game"

// targetedKinds lists the event kinds that must reach only the player (or
// base) named in Event.Target rather than every transport (spec.md §4.11).
var targetedKinds = map[game.EventKind]bool{
	game.EvtPlayerRespawnPend: true,
	game.EvtPlayerDamage:      true,
	game.EvtRoleAssigned:      true,
	game.EvtRoleUpdated:       true,
}

// Broadcaster subscribes to the engine's event Bus and renders each
// game.Event into an outbound wire message, sent targeted or broadcast per
// spec.md §4.11. It forwards each event's payload unchanged and holds no
// state of its own beyond the Server it delivers through, which it needs to
// find the transport of a targeted event's player.
type Broadcaster struct {
	bus *game.Bus
	srv *Server
}

func NewBroadcaster(bus *game.Bus, srv *Server) *Broadcaster {
	return &Broadcaster{bus: bus, srv: srv}
}

// Wire subscribes the broadcaster to the bus; call once at server
// construction.
func (b *Broadcaster) Wire() {
	b.bus.Subscribe(b.onEvent)
}

func (b *Broadcaster) onEvent(e game.Event) {
	msg := ServerMessage{Type: string(e.Kind), Data: e.Payload}

	if targetedKinds[e.Kind] {
		b.sendTargeted(e.Target, msg)
		return
	}

	// Every other kind is a broadcast announcement per spec.md §6.1
	// (player:death, player:respawn, etc.); Target is ignored for these.
	b.srv.broadcastMsg(msg)
}

// sendTargeted looks the connection up directly, without taking srv.mu:
// Publish always runs on the goroutine that already holds it (every engine
// call site acquires srv.mu before touching the engine, and the engine
// publishes synchronously from inside that same call), so re-locking here
// would deadlock against the caller.
func (b *Broadcaster) sendTargeted(playerID string, msg ServerMessage) {
	if playerID == "" {
		return
	}
	cs, ok := b.srv.conns.ByPlayerID(playerID)
	if !ok || cs.client == nil {
		return
	}
	b.srv.sendTo(cs.client, msg)
}
