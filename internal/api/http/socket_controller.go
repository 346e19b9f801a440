package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc"
)

type SocketOptions struct {
	AllowedOrigins []string
	ReadLimit      int64
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

func (o *SocketOptions) setDefaults() {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 64 << 10
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
}

// SocketController serves the persistent connection: one read loop dispatching
// client events and one write loop draining the session queue.
type SocketController struct {
	rooms    service.RoomInteractor
	log      *slog.Logger
	opts     SocketOptions
	upgrader websocket.Upgrader
	validate *validator.Validate
	handlers map[string]handlerFunc
	shutdown context.Context
	conns    conc.WaitGroup
}

// NewSocketController returns a controller whose connections are closed once
// shutdown is cancelled.
func NewSocketController(shutdown context.Context, rooms service.RoomInteractor, log *slog.Logger, opts SocketOptions) *SocketController {
	opts.setDefaults()
	c := &SocketController{
		rooms:    rooms,
		log:      log,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		shutdown: shutdown,
	}
	c.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     c.checkOrigin,
	}
	c.handlers = c.routes()
	return c
}

func (c *SocketController) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(c.opts.AllowedOrigins) == 0 {
		return true
	}
	return lo.Contains(c.opts.AllowedOrigins, origin)
}

func (c *SocketController) Connect(ctx *gin.Context) {
	identity, ok := IdentityFrom(ctx)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	// The connection is tracked before the upgrade hijacks it from the server.
	done := make(chan struct{})
	c.conns.Go(func() {
		defer close(done)
		c.serve(ctx, identity)
	})
	<-done
}

// Wait blocks until every accepted connection has finished its disconnect path.
// Call it after the server stopped accepting and shutdown was cancelled.
func (c *SocketController) Wait() {
	c.conns.Wait()
}

func (c *SocketController) serve(ctx *gin.Context, identity domain.Identity) {
	const op = "http.socket.connect"

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Warn("failed to upgrade connection", slog.String("op", op), sl.Err(err))
		return
	}

	sess := domain.NewSession(identity, c.opts.SendBuffer)
	log := c.log.With(
		slog.String("op", op),
		slog.String("session_id", sess.ID),
		slog.String("user_id", identity.ID),
	)
	log.Info("connection opened")

	done := make(chan struct{})
	go c.writePump(conn, sess, log)
	go func() {
		select {
		case <-c.shutdown.Done():
			sess.Close()
		case <-done:
		}
	}()

	c.readPump(ctx.Request.Context(), conn, sess, log)
	close(done)
	log.Info("connection closed", slog.Duration("duration", time.Since(sess.ConnectedAt)))
}

func (c *SocketController) readPump(ctx context.Context, conn *websocket.Conn, sess *domain.Session, log *slog.Logger) {
	defer func() {
		c.rooms.Disconnect(sess)
		sess.Close()
		_ = conn.Close()
	}()

	conn.SetReadLimit(c.opts.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn("connection read failed", sl.Err(err))
			}
			return
		}
		c.dispatch(ctx, sess, data, log)
	}
}

// writePump is the only writer of conn. It exits when the session queue is closed.
func (c *SocketController) writePump(conn *websocket.Conn, sess *domain.Session, log *slog.Logger) {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case evt, ok := <-sess.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				log.Debug("connection write failed", slog.String("type", evt.Type), sl.Err(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
