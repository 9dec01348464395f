package main

import (
	"bufio"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/infrastructure/ws"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	RoomID        string `env:"CHAT_ROOM_ID,default=lobby"`
	UserName      string `env:"CHAT_USER_NAME,required=true"`
	ClientID      string `env:"CHAT_CLIENT_ID"`
	CreateRoom    bool   `env:"CHAT_CREATE_ROOM,default=false"`
	RoomTitle     string `env:"CHAT_ROOM_TITLE"`
	DeleteKey     string `env:"CHAT_DELETE_KEY"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run joins (or creates) a room, posts every stdin line and prints what the room says.
// Lines starting with a slash are commands: /ping, /load, /remove, /quit.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	clientID := uuid.New()
	if config.ClientID != "" {
		parsed, err := uuid.Parse(config.ClientID)
		if err != nil {
			return exitConfig, fmt.Errorf("invalid CHAT_CLIENT_ID: %w", err)
		}
		clientID = parsed
	}
	if config.CreateRoom && config.DeleteKey == "" {
		config.DeleteKey = uuid.NewString()
		log.Info(fmt.Sprintf("No CHAT_DELETE_KEY given, the room can be removed with %s", config.DeleteKey))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	address := url.URL{Scheme: "ws", Host: config.ServerAddress, Path: "/ws/" + url.PathEscape(config.RoomID) + "/feeds"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, address.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", address.String(), err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	var first []domain.Command
	if config.CreateRoom {
		first = append(first, domain.CreateRoom{
			Title:     lo.Ternary(config.RoomTitle != "", config.RoomTitle, config.RoomID),
			HostID:    clientID,
			HostName:  config.UserName,
			DeleteKey: config.DeleteKey,
		})
	} else {
		first = append(first, domain.LoadRoom{}, domain.JoinRoom{ClientID: clientID, Name: config.UserName})
	}
	for _, cmd := range first {
		if err := send(conn, cmd); err != nil {
			return exitRuntime, err
		}
	}
	log.Info(fmt.Sprintf(">>> Connected to %s as %s! (Ctrl+C or /quit to leave)", config.RoomID, config.UserName))

	readErr := make(chan error, 1)
	go func() { readErr <- printEvents(conn, log) }()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return exitOK, nil
		case err := <-readErr:
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			cmd, quit := parseLine(line, clientID, config)
			if quit {
				return exitOK, nil
			}
			if cmd == nil {
				continue
			}
			if err := send(conn, cmd); err != nil {
				return exitRuntime, err
			}
		}
	}
}

func parseLine(line string, clientID uuid.UUID, config Config) (domain.Command, bool) {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return nil, false
	case "/quit":
		return nil, true
	case "/ping":
		return domain.Ping{}, false
	case "/load":
		return domain.LoadRoom{}, false
	case "/remove":
		return domain.DeleteRoom{RoomID: domain.RoomID(config.RoomID), DeleteKey: config.DeleteKey}, false
	default:
		return domain.PostMessage{ClientID: clientID, Body: line}, false
	}
}

func send(conn *websocket.Conn, cmd domain.Command) error {
	data, err := ws.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd.Type(), err)
	}
	return nil
}

func printEvents(conn *websocket.Conn, log *slog.Logger) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		evt, err := ws.DecodeEvent(data)
		if err != nil {
			log.Warn("Unreadable frame", "error", err)
			continue
		}
		fmt.Println(describe(evt))
	}
}

func describe(evt event.Event) string {
	switch e := evt.(type) {
	case event.Posted:
		return formatMessage(e.Message, color.FgGreen)
	case event.UserPosted:
		return formatMessage(e.Message, color.FgCyan)
	case event.Joined:
		names := lo.Map(e.Others, func(u domain.User, _ int) string { return u.Name })
		history := lo.Map(e.Messages, func(m domain.Message, _ int) string { return formatMessage(m, color.FgGray) })
		return strings.Join(append(history,
			color.FgYellow.Sprintf("* joined as %s, also here: %s", e.Self.Name, strings.Join(names, ", "))), "\n")
	case event.UserJoined:
		return color.FgYellow.Sprintf("* %s joined", e.User.Name)
	case event.UserLeft:
		return color.FgYellow.Sprintf("* %s left", e.UserID)
	case event.RoomLoaded:
		return color.FgYellow.Sprintf("* room has %d members and %d recent messages", len(e.Users), len(e.RecentMessages))
	case event.RoomCreated:
		return color.FgYellow.Sprintf("* room %s created", e.RoomID)
	case event.RoomRemoved:
		return color.FgRed.Sprintf("* room %s removed", e.RoomID)
	case event.Error:
		return color.FgRed.Sprintf("! %s", e.Kind.Code())
	case event.Pong:
		return "pong"
	case event.Lagged:
		return color.FgRed.Sprintf("! %d events missed, type /load to catch up", e.Skipped)
	default:
		return evt.Type()
	}
}

func formatMessage(m domain.Message, c color.Color) string {
	return c.Sprintf("[%s] %s: %s", m.CreatedAt.Local().Format(time.TimeOnly), m.Author.Name, m.Body)
}
