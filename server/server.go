package server

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lab1702/jsjoust-server/game"
)

// isValidOrigin rejects cross-origin websocket upgrades from hosts other
// than the serving origin or localhost, the way the teacher's websocket
// endpoint does.
func isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		log.Printf("invalid origin url: %s", origin)
		return false
	}
	if r.Host == originURL.Host {
		return true
	}
	if strings.HasPrefix(originURL.Host, "localhost:") ||
		strings.HasPrefix(originURL.Host, "127.0.0.1:") ||
		originURL.Host == "localhost" || originURL.Host == "127.0.0.1" {
		return true
	}
	log.Printf("rejected websocket connection from origin: %s", origin)
	return false
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       isValidOrigin,
	EnableCompression: true,
}

// Server owns the engine, the connection registry, and every transport.
// A single mutex, mu, is the lock spec.md §5 calls for: it is held around
// every call into game.Engine (the tick callback included) so the tick
// loop and inbound messages never interleave, mirroring the teacher's
// Server.gameState.Mu around updateGame().
type Server struct {
	mu sync.Mutex

	eng      *game.Engine
	conns    *ConnectionRegistry
	bases    *game.BaseRegistry
	settings *Settings

	// settingsPath is where POST /game/settings persists its merged
	// result; empty disables persistence (used by tests).
	settingsPath string

	clock *game.Clock

	clients    map[int]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan ServerMessage
	nextID     int

	logger *log.Logger
}

// NewServer builds a Server from a loaded Settings blob. settingsPath may
// be empty to disable persisting admin-settings changes back to disk.
func NewServer(settings *Settings, settingsPath string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		eng:          game.NewEngine(settings.TickRateMs, logger),
		conns:        NewConnectionRegistry(),
		bases:        game.NewBaseRegistry(),
		settings:     settings,
		settingsPath: settingsPath,
		clients:      make(map[int]*Client),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		broadcast:    make(chan ServerMessage, 256),
		logger:       logger,
	}
	s.eng.Movement = settings.Movement
	s.eng.Bases = s.bases
	s.eng.CountdownSeconds = settings.CountdownSeconds
	s.eng.GoDelayMs = settings.GoDelayMs
	s.eng.ReadyDelayMs = settings.ReadyDelayMs
	s.eng.DisconnectGraceMs = settings.DisconnectGraceMs
	s.eng.SetConnectedFunc(func() []string { return s.conns.ConnectedPlayerIDs() })
	s.syncTeamsLocked()
	NewBroadcaster(s.eng.Bus, s).Wire()

	s.clock = game.NewClock(time.Duration(settings.TickRateMs)*time.Millisecond, s.tick)
	return s
}

// tick is the Clock callback. It acquires mu so Advance and every inbound
// handler are mutually exclusive, then publishes the per-tick snapshot
// while the active round is live (spec.md §4.11).
func (s *Server) tick(gameTimeMs int64) {
	s.mu.Lock()
	s.eng.Advance(gameTimeMs)
	snapshot := s.buildTickSnapshotLocked()
	s.mu.Unlock()

	if snapshot != nil {
		s.broadcastMsg(ServerMessage{Type: EvtGameTick, Data: snapshot})
	}
}

// syncTeamsLocked (re)builds the team registry from settings. Domination
// requires teams regardless of the teamsEnabled flag (spec.md §4.7).
// Only meaningful in the waiting state: reshaping team count mid-game
// would orphan existing player->team assignments, so callers only invoke
// this before a launch.
func (s *Server) syncTeamsLocked() {
	if s.settings.TeamsEnabled || s.settings.GameMode == "domination" {
		s.eng.Teams = game.NewTeamRegistry(s.settings.TeamCount)
	} else {
		s.eng.Teams = nil
	}
}

func (s *Server) buildTickSnapshotLocked() *tickSnapshot {
	if s.eng.State != game.StateActive {
		return nil
	}
	return newTickSnapshot(s.eng, s.conns)
}

// Run starts the tick clock and the connection-lifecycle event loop. Call
// once, in its own goroutine, from main.
func (s *Server) Run() {
	s.clock.Start()
	for {
		select {
		case c := <-s.register:
			s.clients[c.id] = c
		case c := <-s.unregister:
			if _, ok := s.clients[c.id]; ok {
				delete(s.clients, c.id)
				close(c.send)
				s.handleTransportClosed(c)
			}
		case msg := <-s.broadcast:
			for _, c := range s.clients {
				select {
				case c.send <- msg:
				default:
					s.logger.Printf("client %d send buffer full, dropping %s", c.id, msg.Type)
				}
			}
		}
	}
}

// Shutdown stops the tick clock; used on graceful process shutdown.
func (s *Server) Shutdown() {
	s.clock.Stop()
}

func (s *Server) broadcastMsg(msg ServerMessage) {
	select {
	case s.broadcast <- msg:
	default:
		s.logger.Printf("broadcast channel full, dropping %s", msg.Type)
	}
}

// sendTo delivers msg to one client's send buffer, non-blocking (spec.md
// §5: outbound sends must never block a tick).
func (s *Server) sendTo(c *Client, msg ServerMessage) {
	if c == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
		s.logger.Printf("client %d send buffer full, dropping %s", c.id, msg.Type)
	}
}

// HandleWebSocket upgrades the request and starts the client's pumps.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade error: %v", err)
		return
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.mu.Unlock()

	c := &Client{id: id, conn: conn, send: make(chan ServerMessage, 64), server: s}
	s.register <- c

	go c.writePump()
	go c.readPump()
}
