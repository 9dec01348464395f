// Package ws exposes the chat over websocket. Each socket gets a read pump
// feeding a command queue and a write pump draining the output bus.
package ws

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/runtime"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	DefaultMaxMessageSize = 4096
	DefaultPingInterval   = 30 * time.Second
	writeWait             = 10 * time.Second
)

type Config struct {
	MaxMessageSize int64
	PingInterval   time.Duration
}

// Subscriber is the read side of the output bus.
type Subscriber interface {
	Subscribe() *runtime.Subscription
}

type Server struct {
	log      *slog.Logger
	config   Config
	rooms    contract.ICommandQueue
	users    contract.ICommandQueue
	bus      Subscriber
	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewServer(log *slog.Logger, config Config, rooms, users contract.ICommandQueue, bus Subscriber) *Server {
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.PingInterval <= 0 {
		config.PingInterval = DefaultPingInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		log:    log,
		config: config,
		rooms:  rooms,
		users:  users,
		bus:    bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Routes registers the room and user sockets.
func (s *Server) Routes(r chi.Router) {
	r.Get("/ws/{roomID}/feeds", s.serveRoom)
	r.Get("/ws/users/{userID}", s.serveUser)
}

// Close drops every open socket and waits for their pumps to finish.
// Hijacked connections are not covered by http.Server.Shutdown.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Server) serveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := domain.RoomID(chi.URLParam(r, "roomID"))
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Failed to upgrade websocket", "room", roomID, "error", err)
		return
	}
	c := s.newConnection(conn, roomID, uuid.New(), s.rooms, acceptsRoomCommand)
	c.onClose = func(clientID uuid.UUID) {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		envelope := domain.NewCommandEnvelope(clientID, roomID, domain.Disconnect{})
		if err := s.rooms.Submit(ctx, envelope); err != nil {
			s.log.Warn("Disconnect not submitted", "room", roomID, "client", clientID, "error", err)
		}
	}
	s.serve(c)
}

func (s *Server) serveUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Failed to upgrade websocket", "user", userID, "error", err)
		return
	}
	s.serve(s.newConnection(conn, "", userID, s.users, acceptsUserCommand))
}

func (s *Server) serve(c *connection) {
	s.wg.Add(1)
	defer s.wg.Done()
	c.log.Debug("Websocket opened", "remote", c.ws.RemoteAddr().String())
	c.run(s.ctx)
}

func (s *Server) newConnection(conn *websocket.Conn, roomID domain.RoomID, clientID uuid.UUID,
	queue contract.ICommandQueue, accepts func(domain.Command) bool) *connection {
	return &connection{
		log:      s.log.With("room", string(roomID)),
		ws:       conn,
		roomID:   roomID,
		clientID: clientID,
		queue:    queue,
		bus:      s.bus,
		config:   s.config,
		accepts:  accepts,
	}
}

// LoadRooms is the only command a room socket cannot route.
func acceptsRoomCommand(cmd domain.Command) bool {
	_, userLevel := cmd.(domain.LoadRooms)
	return !userLevel
}

func acceptsUserCommand(cmd domain.Command) bool {
	switch cmd.(type) {
	case domain.Ping, domain.LoadRooms:
		return true
	default:
		return false
	}
}
