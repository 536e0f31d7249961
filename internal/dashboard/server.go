// Package dashboard provides a local status server with a real-time
// WebSocket feed. It broadcasts connectivity transitions, flush
// results, and pending-queue changes to connected clients.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/klimat/klimat/internal/netmon"
	"github.com/klimat/klimat/internal/store"
	"github.com/klimat/klimat/internal/syncer"
)

// MessageType defines the type of dashboard message
type MessageType string

const (
	// MessageTypeConnectivity indicates an online/offline transition
	MessageTypeConnectivity MessageType = "connectivity"

	// MessageTypeFlush indicates a flush pass completed
	MessageTypeFlush MessageType = "flush"

	// MessageTypePending indicates updated pending-queue counts
	MessageTypePending MessageType = "pending"
)

// Message represents a dashboard broadcast message
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ConnectivityData reports an online/offline transition
type ConnectivityData struct {
	Online bool `json:"online"`
}

// FlushData reports a completed flush pass
type FlushData struct {
	Pushed  int  `json:"pushed"`
	Skipped bool `json:"skipped"`
}

// StatusData is the /api/status payload
type StatusData struct {
	Online        bool           `json:"online"`
	SchemaVersion int            `json:"schema_version"`
	Pending       map[string]int `json:"pending"`
	PendingTotal  int            `json:"pending_total"`
}

// Config holds server configuration
type Config struct {
	// Port to listen on (default: 8765)
	Port int

	// Logger for server activity (default: stderr logger)
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Port:   8765,
		Logger: log.Default(),
	}
}

// Server serves the status API and WebSocket feed
type Server struct {
	echo *echo.Echo
	addr string

	db   *store.DB
	sync *syncer.Syncer
	mon  *netmon.Monitor

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Message

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	unsubMon func()
	logger   *log.Logger
}

// NewServer creates a dashboard server
func NewServer(db *store.DB, s *syncer.Syncer, mon *netmon.Monitor, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	srv := &Server{
		addr:      fmt.Sprintf(":%d", config.Port),
		db:        db,
		sync:      s,
		mon:       mon,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Message, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    config.Logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.GET("/healthz", srv.handleHealth)
	e.GET("/api/status", srv.handleStatus)
	e.GET("/ws", srv.handleWebSocket)
	srv.echo = e

	return srv
}

// Start begins serving and subscribes to connectivity transitions
func (s *Server) Start() error {
	s.unsubMon = s.mon.Subscribe(func(online bool) {
		s.BroadcastConnectivity(online)
	})

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Dashboard listening on %s", s.addr)
		if err := s.echo.Start(s.addr); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	s.logger.Println("Stopping dashboard")

	if s.unsubMon != nil {
		s.unsubMon()
	}
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.wg.Wait()
	return nil
}

// Broadcast sends a message to all connected clients
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
	default:
		s.logger.Println("Warning: broadcast channel full, dropping message")
	}
}

// BroadcastConnectivity broadcasts an online/offline transition
func (s *Server) BroadcastConnectivity(online bool) {
	data, _ := json.Marshal(ConnectivityData{Online: online})
	s.Broadcast(Message{Type: MessageTypeConnectivity, Data: data})
}

// BroadcastFlush broadcasts a completed flush pass
func (s *Server) BroadcastFlush(report syncer.Report) {
	data, _ := json.Marshal(FlushData{Pushed: report.Pushed, Skipped: report.Skipped})
	s.Broadcast(Message{Type: MessageTypeFlush, Data: data})
}

// BroadcastPending broadcasts the current pending-queue counts
func (s *Server) BroadcastPending(ctx context.Context) {
	pending, err := s.sync.PendingByStore(ctx)
	if err != nil {
		s.logger.Printf("Failed to read pending counts: %v", err)
		return
	}
	data, _ := json.Marshal(pending)
	s.Broadcast(Message{Type: MessageTypePending, Data: data})
}

// broadcastLoop fans messages out to all clients
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Printf("Failed to marshal message: %v", err)
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					s.logger.Printf("Failed to send to client: %v", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	s.clientsMu.RLock()
	clientCount := len(s.clients)
	s.clientsMu.RUnlock()

	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": clientCount,
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	ctx := c.Request().Context()

	version, err := s.db.SchemaVersion(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	pending, err := s.sync.PendingByStore(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	total := 0
	for _, n := range pending {
		total += n
	}

	return c.JSON(http.StatusOK, StatusData{
		Online:        s.mon.Online(),
		SchemaVersion: version,
		Pending:       pending,
		PendingTotal:  total,
	})
}

func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return nil
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.clientsMu.Unlock()
	s.logger.Printf("Client connected (total: %d)", clientCount)

	// Seed the client with the current connectivity state.
	data, _ := json.Marshal(ConnectivityData{Online: s.mon.Online()})
	welcome, _ := json.Marshal(Message{
		Type:      MessageTypeConnectivity,
		Timestamp: time.Now(),
		Data:      data,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = conn.Write(ctx, websocket.MessageText, welcome)
	cancel()

	go s.readLoop(conn)
	return nil
}

// readLoop keeps the connection alive and detects disconnects
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		_, _, err := conn.Read(s.ctx)
		if err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Printf("Client disconnected (total: %d)", clientCount)
		return
	}
	s.clientsMu.Unlock()
}

// ClientCount returns the current number of connected clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
