package server

import "encoding/json"

// Client->server message type names (spec.md §6.1).
const (
	MsgPlayerJoin      = "player:join"
	MsgPlayerReconnect = "player:reconnect"
	MsgPlayerMove      = "player:move"
	MsgPlayerReady     = "player:ready"
	MsgPlayerTap       = "player:tap"
	MsgTeamSwitch      = "team:switch"
	MsgBaseRegister    = "base:register"
	MsgBaseTap         = "base:tap"
	MsgPing            = "ping"
)

// Server->client message type names (spec.md §6.1).
const (
	EvtPlayerJoined      = "player:joined"
	EvtPlayerReconnected = "player:reconnected"
	EvtLobbyUpdate       = "lobby:update"
	EvtTeamUpdate        = "team:update"
	EvtGameTick          = "game:tick"
	EvtReadyUpdate       = "ready:update"
	EvtBaseRegistered    = "base:registered"
	EvtBaseStatus        = "base:status"
	EvtPong              = "pong"
)

// ClientMessage is the envelope every inbound websocket frame is decoded
// into before being routed by type (spec.md §6.1).
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ServerMessage is the envelope every outbound frame is wrapped in.
type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type joinData struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type reconnectData struct {
	Token string `json:"token"`
}

type moveData struct {
	PlayerID  string  `json:"playerId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Timestamp int64   `json:"timestamp"`
}

type readyData struct {
	PlayerID string `json:"playerId"`
}

type tapData struct {
	PlayerID string `json:"playerId"`
}

type baseRegisterData struct {
	BaseID string `json:"baseId"`
}

type baseTapData struct {
	BaseID string `json:"baseId"`
}
