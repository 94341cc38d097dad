package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gagent/wabridge/internal/config"
	"github.com/gagent/wabridge/internal/media"
	"github.com/gagent/wabridge/internal/transport"
)

// authTimeout is how long an unauthenticated socket may exist before the
// first frame must have arrived. Variable so tests can shorten it.
var authTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the local control-plane entry point. It owns the one transport
// session, authenticates controller sockets, dispatches their commands, and
// broadcasts session events to every accepted connection.
type Server struct {
	cfg      *config.Config
	registry *Registry
	session  *transport.Session
	startAt  time.Time

	tokenMu sync.RWMutex
	token   string

	httpSrv  *http.Server
	ln       net.Listener
	stopOnce sync.Once
}

func New(cfg *config.Config, tr transport.Transport) *Server {
	s := &Server{
		cfg:      cfg,
		registry: NewRegistry(),
		token:    cfg.Server.Auth.Token,
		startAt:  time.Now(),
	}
	s.session = transport.NewSession(tr, cfg.Transport.CredentialDir, cfg.Transport.MediaDir, transport.SessionEvents{
		Message: func(m transport.InboundMessage) { s.registry.Broadcast(messageEvent(m)) },
		Status:  func(st transport.Status) { s.registry.Broadcast(statusEvent(st)) },
		QR:      func(code string) { s.registry.Broadcast(qrEvent(code)) },
	})
	return s
}

// SetToken swaps the shared auth token for new connections. Existing accepted
// connections are unaffected. Wired to config hot reload.
func (s *Server) SetToken(token string) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	s.token = token
}

func (s *Server) currentToken() string {
	s.tokenMu.RLock()
	defer s.tokenMu.RUnlock()
	return s.token
}

// Start binds the listener and connects the transport session. A bind failure
// is returned as a fatal error; everything after runs in the background until
// ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/health", s.ginHealth)
	engine.GET("/ws", s.ginWebSocket)

	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.ln = ln
	s.httpSrv = &http.Server{Handler: engine}

	slog.Info("bridge listening", "addr", ln.Addr().String())
	s.session.Connect(ctx)

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("serve failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Addr returns the bound listener address. Valid after Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop closes every controller connection, then the listener, then the
// transport session. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.registry.CloseAll()
		if s.httpSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.httpSrv.Shutdown(shutdownCtx)
		}
		s.session.Disconnect()
		slog.Info("bridge stopped")
	})
}

func (s *Server) ginHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    time.Since(s.startAt).String(),
		"clients":   s.registry.Count(),
		"transport": s.session.Status(),
	})
}

func (s *Server) ginWebSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	conn := &Conn{
		ID:          fmt.Sprintf("conn_%d", time.Now().UnixNano()),
		WS:          ws,
		ConnectedAt: time.Now(),
	}

	// With a shared token configured, the first frame must authenticate
	// within the timeout; otherwise the connection is accepted immediately.
	if token := s.currentToken(); token != "" {
		if !s.handshake(conn, token) {
			return
		}
	}

	s.registry.Add(conn)
	defer func() {
		s.registry.Remove(conn.ID)
		_ = ws.Close()
	}()
	slog.Info("controller connected", "id", conn.ID)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			slog.Debug("controller disconnected", "id", conn.ID, "error", err)
			return
		}
		s.dispatch(conn, data)
	}
}

func (s *Server) handshake(conn *Conn, token string) bool {
	ws := conn.WS
	_ = ws.SetReadDeadline(time.Now().Add(authTimeout))
	_, data, err := ws.ReadMessage()
	if err != nil {
		slog.Warn("auth handshake timed out", "id", conn.ID)
		conn.closeWith(CloseAuthFailure, "auth timeout")
		return false
	}
	_ = ws.SetReadDeadline(time.Time{})

	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil || cmd.Type != "auth" || cmd.Token != token {
		slog.Warn("auth rejected", "id", conn.ID)
		conn.closeWith(CloseAuthFailure, "invalid token")
		return false
	}
	return true
}

// dispatch handles one controller frame. Failures reply with an error frame
// on the issuing socket only; they never close the connection.
func (s *Server) dispatch(conn *Conn, data []byte) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		_ = conn.Send(errorf("invalid JSON"))
		return
	}

	switch cmd.Type {
	case "send":
		if cmd.To == "" {
			_ = conn.Send(errorf("missing to"))
			return
		}
		err := s.session.SendMessage(context.Background(), cmd.To, cmd.Text, transport.SendOptions{
			MediaPath: cmd.MediaPath,
			MediaType: media.Type(cmd.MediaType),
			MimeType:  cmd.MimeType,
			Caption:   cmd.Caption,
		})
		if err != nil {
			_ = conn.Send(errorf(err.Error()))
			return
		}
		_ = conn.Send(sent(cmd.To))
	case "auth":
		// Controllers configured with a token send one even when the bridge
		// has none; a late auth frame is harmless.
	default:
		_ = conn.Send(errorf("unknown command type"))
	}
}
