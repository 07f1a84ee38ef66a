package server

import (
	"time"

	"github.com/lab1702/jsjoust-server/game"
)

// connState tracks identity and connectivity for one joined player,
// distinct from game.Player: the session token is unguessable and
// reconnect-scoped, the player number is stable and reused only after
// permanent removal (spec.md §4.10).
type connState struct {
	playerID string
	token    string
	number   int
	client   *Client // nil while disconnected

	lobbyGraceTimer *time.Timer
}

// ConnectionRegistry owns session tokens and player numbers, and the
// lobby-state disconnect grace timer (spec.md §4.10). Every method assumes
// the caller already holds the Server's serializing lock.
type ConnectionRegistry struct {
	byPlayerID map[string]*connState
	byToken    map[string]*connState
	usedNumbers map[int]bool
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byPlayerID:  make(map[string]*connState),
		byToken:     make(map[string]*connState),
		usedNumbers: make(map[int]bool),
	}
}

// lowestFreeNumber returns the smallest number >= 1 not currently in use.
func (r *ConnectionRegistry) lowestFreeNumber() int {
	n := 1
	for r.usedNumbers[n] {
		n++
	}
	return n
}

// Register allocates a session token and player number for a new join.
func (r *ConnectionRegistry) Register(playerID string, client *Client) *connState {
	num := r.lowestFreeNumber()
	r.usedNumbers[num] = true
	cs := &connState{playerID: playerID, token: game.RandomToken(), number: num, client: client}
	r.byPlayerID[playerID] = cs
	r.byToken[cs.token] = cs
	return cs
}

// ByToken looks a connection up by session token.
func (r *ConnectionRegistry) ByToken(token string) (*connState, bool) {
	cs, ok := r.byToken[token]
	return cs, ok
}

// ByPlayerID looks a connection up by player id.
func (r *ConnectionRegistry) ByPlayerID(playerID string) (*connState, bool) {
	cs, ok := r.byPlayerID[playerID]
	return cs, ok
}

// Rebind attaches a new transport to an existing token, cancelling any
// pending lobby grace timer.
func (r *ConnectionRegistry) Rebind(cs *connState, client *Client) {
	r.stopGrace(cs)
	cs.client = client
}

// MarkDisconnected clears the transport handle. Lobby-state grace timers
// are started by the caller (Server.handleTransportClosed) since they need
// access to the engine/broadcaster to finalize removal on expiry.
func (r *ConnectionRegistry) MarkDisconnected(cs *connState) {
	cs.client = nil
}

func (r *ConnectionRegistry) stopGrace(cs *connState) {
	if cs.lobbyGraceTimer != nil {
		cs.lobbyGraceTimer.Stop()
		cs.lobbyGraceTimer = nil
	}
}

// Remove permanently deletes a connection and frees its player number.
func (r *ConnectionRegistry) Remove(cs *connState) {
	r.stopGrace(cs)
	delete(r.byPlayerID, cs.playerID)
	delete(r.byToken, cs.token)
	delete(r.usedNumbers, cs.number)
}

// ConnectedPlayerIDs returns every player id with a live transport; the
// engine uses it for its launch player-count and ready-count checks.
func (r *ConnectionRegistry) ConnectedPlayerIDs() []string {
	out := make([]string, 0, len(r.byPlayerID))
	for id, cs := range r.byPlayerID {
		if cs.client != nil {
			out = append(out, id)
		}
	}
	return out
}

// All returns every tracked connection, connected or not.
func (r *ConnectionRegistry) All() []*connState {
	out := make([]*connState, 0, len(r.byPlayerID))
	for _, cs := range r.byPlayerID {
		out = append(out, cs)
	}
	return out
}
