package e2e

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/infrastructure/ws"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

const readTimeout = 5 * time.Second

type BaseWsSuite struct {
	suite.Suite
	Config  Config
	sockets []*Socket
}

// SetupSuite loads the environment configuration and skips when no server is configured
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ChatAddr == "" {
		s.T().Skip("CHAT_ADDR not set")
	}
}

// TearDownTest closes the sockets opened by the test, steps included
func (s *BaseWsSuite) TearDownTest() {
	for _, socket := range s.sockets {
		socket.Close()
	}
	s.sockets = nil
}

// Step prints a header then runs fn as a subtest
func (s *BaseWsSuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	s.Run(name, fn)
}

// Socket is one websocket connection to the server under test.
type Socket struct {
	s    *BaseWsSuite
	name string
	conn *websocket.Conn
}

func (s *BaseWsSuite) Dial(name, path string) *Socket {
	address := url.URL{Scheme: "ws", Host: s.Config.ChatAddr, Path: path}
	conn, _, err := websocket.DefaultDialer.Dial(address.String(), nil)
	s.Require().NoError(err, "Failed to connect to "+address.String())
	socket := &Socket{s: s, name: name, conn: conn}
	s.sockets = append(s.sockets, socket)
	return socket
}

func (k *Socket) Send(cmd domain.Command) {
	data, err := ws.EncodeCommand(cmd)
	k.s.Require().NoError(err)
	k.s.log(">>> %s %s", k.name, data)
	k.s.Require().NoError(k.conn.WriteMessage(websocket.TextMessage, data))
}

// Next reads the next event, whatever its type.
func (k *Socket) Next() event.Event {
	k.s.Require().NoError(k.conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, data, err := k.conn.ReadMessage()
	k.s.Require().NoError(err, k.name+" read failed")
	k.s.log("<<< %s %s", k.name, data)
	evt, err := ws.DecodeEvent(data)
	k.s.Require().NoError(err)
	return evt
}

// Expect skips events until one of type T arrives.
func Expect[T event.Event](k *Socket) T {
	for {
		if typed, ok := k.Next().(T); ok {
			return typed
		}
	}
}

func (k *Socket) Close() {
	_ = k.conn.Close()
}

// GetJSON reads a resource of the REST API into out and returns the status code.
func (s *BaseWsSuite) GetJSON(path string, out any) int {
	address := url.URL{Scheme: "http", Host: s.Config.ChatAddr, Path: path}
	client := http.Client{Timeout: readTimeout}
	resp, err := client.Get(address.String())
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusOK && out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	s.log("GET %s [%d]", path, resp.StatusCode)
	return resp.StatusCode
}

func (s *BaseWsSuite) log(format string, args ...any) {
	if !s.Config.DebugJSON {
		return
	}
	s.T().Logf(format, args...)
}
