package ws

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/runtime"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type connection struct {
	log     *slog.Logger
	ws      *websocket.Conn
	roomID  domain.RoomID
	queue   contract.ICommandQueue
	bus     Subscriber
	config  Config
	accepts func(domain.Command) bool
	onClose func(clientID uuid.UUID)

	mu       sync.RWMutex
	clientID uuid.UUID
}

// run blocks until the socket is closed by the peer, fails, or ctx is canceled.
func (c *connection) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := c.bus.Subscribe()
	defer sub.Unsubscribe()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		c.readPump(ctx)
	}()
	go c.keepAlive(ctx, cancel)

	c.writePump(ctx, sub)
	c.close()
	<-readDone

	if c.onClose != nil {
		c.onClose(c.ClientID())
	}
	c.log.Debug("Websocket closed", "client", c.ClientID())
}

// ClientID is the identity the connection currently acts as.
func (c *connection) ClientID() uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID
}

// adopt switches the connection to the client id carried by the command.
func (c *connection) adopt(cmd domain.Command) {
	var id uuid.UUID
	switch command := cmd.(type) {
	case domain.CreateRoom:
		id = command.HostID
	case domain.JoinRoom:
		id = command.ClientID
	case domain.PostMessage:
		id = command.ClientID
	case domain.LoadRooms:
		id = command.UserID
	}
	if id == uuid.Nil {
		return
	}
	c.mu.Lock()
	c.clientID = id
	c.mu.Unlock()
}

func (c *connection) readPump(ctx context.Context) {
	pongWait := 2 * c.config.PingInterval
	c.ws.SetReadLimit(c.config.MaxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("Unable to set read deadline", "error", err)
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if messageType != websocket.TextMessage {
			c.log.Warn("Closing websocket on non text frame", "client", c.ClientID())
			return
		}
		cmd, err := c.decode(data)
		if err != nil {
			c.log.Warn("Closing websocket on bad frame", "client", c.ClientID(), "error", err)
			return
		}
		c.adopt(cmd)
		envelope := domain.NewCommandEnvelope(c.ClientID(), c.roomID, cmd)
		if err := c.queue.Submit(ctx, envelope); err != nil {
			c.log.Debug("Command not submitted", "client", c.ClientID(), "error", err)
			return
		}
	}
}

func (c *connection) decode(data []byte) (domain.Command, error) {
	cmd, err := DecodeCommand(data)
	if err != nil {
		return nil, err
	}
	if !c.accepts(cmd) {
		return nil, fmt.Errorf("%w: %q not served on this socket", errors.ErrUnknownFrameType, cmd.Type())
	}
	return cmd, nil
}

// writePump is the only goroutine writing data frames to the socket.
func (c *connection) writePump(ctx context.Context, sub *runtime.Subscription) {
	for {
		evt, err := c.nextEvent(ctx, sub)
		if err != nil {
			return
		}
		data, err := EncodeEvent(evt)
		if err != nil {
			c.log.Error("Unable to encode event", "event", evt.Type(), "error", err)
			continue
		}
		if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			c.log.Debug("Unable to write to websocket", "client", c.ClientID(), "error", err)
			return
		}
	}
}

// nextEvent returns the next event meant for this connection.
// Falling behind the bus turns into a Lagged event so the client knows to reload the room.
func (c *connection) nextEvent(ctx context.Context, sub *runtime.Subscription) (event.Event, error) {
	for {
		envelope, err := sub.Recv(ctx)
		if err != nil {
			var lagged *errors.LaggedError
			if stderrors.As(err, &lagged) {
				c.log.Warn("Client fell behind the output bus", "client", c.ClientID(), "skipped", lagged.Skipped)
				return event.Lagged{Skipped: lagged.Skipped}, nil
			}
			return nil, err
		}
		if envelope.DeliversTo(c.roomID, c.ClientID()) {
			return envelope.Event, nil
		}
	}
}

// keepAlive pings the peer. WriteControl may run concurrently with the write pump.
func (c *connection) keepAlive(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Debug("Ping failed", "client", c.ClientID(), "error", err)
				cancel()
				return
			}
		}
	}
}

func (c *connection) close() {
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	_ = c.ws.Close()
}

func (c *connection) logReadError(err error) {
	switch {
	case stderrors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Frame exceeded maximum size", "client", c.ClientID(), "limit", c.config.MaxMessageSize)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway),
		stderrors.Is(err, io.EOF):
		c.log.Debug("Client disconnected", "client", c.ClientID())
	case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
		c.log.Warn("Unexpected websocket close", "client", c.ClientID(), "error", err)
	default:
		c.log.Debug("Websocket read stopped", "client", c.ClientID(), "error", err)
	}
}
