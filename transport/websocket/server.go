package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-duel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-duel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-duel/internal/layout"
	"github.com/rocketscienceinc/tictactoe-duel/internal/session"
)

const (
	sendBuffer      = 32
	eventBuffer     = 32
	writeWait       = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	leaveTimeout    = 2 * time.Second
)

type uSession interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)
	CreateSession(ctx context.Context, playerID, gameType string, difficulty entity.Difficulty) (*session.Session, *entity.Player, error)
	JoinSession(ctx context.Context, sessionID, playerID string) (*session.Session, *entity.Player, error)
	MakeMove(ctx context.Context, playerID string, req session.MoveRequest) (*session.Session, error)
	Restart(ctx context.Context, playerID string) (*session.Session, error)
	GetSessionByPlayer(ctx context.Context, playerID string) (*session.Session, *entity.Player, error)
	LeaveSession(ctx context.Context, playerID string) error
}

type handler func(ctx context.Context, conn *client, msg *Message) error

type Server struct {
	logger     *slog.Logger
	uSession   uSession
	translator layout.Translator
	upgrader   websocket.Upgrader

	handlers map[string]handler

	connectionsMutex sync.RWMutex
	connections      map[*client]struct{}
}

func New(logger *slog.Logger, uSession uSession, translator layout.Translator) *Server {
	server := &Server{
		logger:     logger.With("component", "websocket"),
		uSession:   uSession,
		translator: translator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		connections: make(map[*client]struct{}),
	}

	server.handlers = map[string]handler{
		actionConnect:  server.handleConnect,
		actionNewGame:  server.handleNewGame,
		actionJoinGame: server.handleJoinGame,
		actionTurn:     server.handleGameTurn,
		actionRestart:  server.handleRestart,
		actionState:    server.handleState,
		actionLeave:    server.handleLeave,
	}

	return server
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", that)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		that.closeConnections()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(conn)

	that.connectionsMutex.Lock()
	that.connections[c] = struct{}{}
	that.connectionsMutex.Unlock()

	log.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	go that.writeMessages(c)

	that.handleMessages(req.Context(), c)

	that.connectionsMutex.Lock()
	delete(that.connections, c)
	that.connectionsMutex.Unlock()

	c.close()
	that.abandon(c)
}

// abandon ends the session a disconnected player was seated in. The game
// cannot go on without them.
func (that *Server) abandon(c *client) {
	playerID, sessionID := c.seat()
	if playerID == "" || sessionID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
	defer cancel()

	err := that.uSession.LeaveSession(ctx, playerID)
	if err != nil && !errors.Is(err, apperror.ErrNotInSession) {
		that.logger.Warn("failed to leave abandoned session", "playerID", playerID, "sessionID", sessionID, "error", err)
		return
	}

	that.logger.Info("abandoned session closed", "playerID", playerID, "sessionID", sessionID)
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, c *client) {
	log := that.logger.With("method", "handleMessages")

	for {
		var message Message
		if err := c.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}

			return
		}

		handle, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendErrorResponse(c, message.Action, "unknown action")

			continue
		}

		if err := handle(ctx, c, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) writeMessages(c *client) {
	log := that.logger.With("method", "writeMessages")

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteJSON(msg); err != nil {
				log.Error("failed to write message", "action", msg.Action, "error", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

// follow subscribes the client to the events of s, replacing any previous session.
func (that *Server) follow(c *client, s *session.Session) {
	events, ok := c.follow(s, eventBuffer)
	if !ok {
		return
	}

	go func() {
		for event := range events {
			that.send(c, actionEvent, Payload{Event: that.eventPayload(event)})
		}

		// the session went away while this client still followed it
		if c.unfollow(s.ID()) {
			that.send(c, actionClosed, Payload{SessionID: s.ID()})
		}
	}()
}

func (that *Server) send(c *client, action string, payload Payload) {
	msg, err := newMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to build message", "action", action, "error", err)
		return
	}

	if !c.enqueue(msg) {
		that.logger.Warn("dropping message for slow or closed connection", "action", action)
	}
}

func (that *Server) sendErrorResponse(c *client, action, errorMsg string) {
	that.send(c, action, Payload{Error: errorMsg})
}

func (that *Server) closeConnections() {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	for c := range that.connections {
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(writeWait),
		)
		_ = c.conn.Close()
	}
}

type client struct {
	conn *websocket.Conn
	send chan Message
	done chan struct{}

	mu          sync.Mutex
	playerID    string
	sessionID   string
	unsubscribe func()
	closed      bool
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan Message, sendBuffer),
		done: make(chan struct{}),
	}
}

func (that *client) enqueue(msg Message) bool {
	select {
	case <-that.done:
		return false
	default:
	}

	select {
	case that.send <- msg:
		return true
	default:
		return false
	}
}

func (that *client) player() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.playerID
}

func (that *client) setPlayer(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.playerID = id
}

func (that *client) follow(s *session.Session, buffer int) (<-chan session.Event, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed || that.sessionID == s.ID() {
		return nil, false
	}

	if that.unsubscribe != nil {
		that.unsubscribe()
	}

	events, unsubscribe := s.Subscribe(buffer)
	that.sessionID = s.ID()
	that.unsubscribe = unsubscribe

	return events, true
}

func (that *client) seat() (string, string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.playerID, that.sessionID
}

// unfollow drops the subscription to sessionID. It reports false when the
// client follows another session or none.
func (that *client) unfollow(sessionID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed || that.sessionID != sessionID {
		return false
	}

	if that.unsubscribe != nil {
		that.unsubscribe()
	}

	that.sessionID = ""
	that.unsubscribe = nil

	return true
}

func (that *client) close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	close(that.done)

	if that.unsubscribe != nil {
		that.unsubscribe()
	}

	_ = that.conn.Close()
}
