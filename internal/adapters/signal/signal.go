// Package signal is the bidirectional signaling endpoint: one WebSocket
// per client, request/response messages plus server push.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/krishnabarasiya03/video-conf/internal/app"
	"github.com/krishnabarasiya03/video-conf/internal/auth"
	"github.com/krishnabarasiya03/video-conf/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type Options struct {
	AllowGuest   bool
	ReadLimit    int64
	WriteTimeout time.Duration
	SendBuffer   int
}

type Controller struct {
	App      *app.Controller
	Verifier *auth.Verifier
	Opts     Options
}

func NewController(a *app.Controller, v *auth.Verifier, opts Options) *Controller {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Controller{App: a, Verifier: v, Opts: opts}
}

// wsConn implements session.SignalConnection over a gorilla websocket.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal resolves the caller identity, upgrades the connection
// and starts the pumps. Identity is fixed for the connection lifetime;
// a reconnect is a brand-new participant.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	ident, err := ctl.resolveIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.Opts.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Opts.ReadLimit)
	}

	connID := uuid.NewString()
	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, ctl.Opts.SendBuffer),
	}
	log.Info().Str("module", "signal").
		Str("conn", connID).Str("identity", ident.ID).Str("role", string(ident.Role)).
		Msg("new signaling connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, connID, ident, conn)
}

func (ctl *Controller) resolveIdentity(c *gin.Context) (domain.Identity, error) {
	if token := c.Query("token"); token != "" {
		return ctl.Verifier.Verify(token)
	}
	if !ctl.Opts.AllowGuest {
		return domain.Identity{}, errors.New("missing token")
	}
	role := domain.Role(c.DefaultQuery("role", string(domain.RoleStudent)))
	return domain.NewIdentity(uuid.NewString(), c.Query("name"), role)
}
