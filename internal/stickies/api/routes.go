// Package api wires the HTTP surface: websocket upgrade, OAuth redirect,
// static assets and the health/monitor endpoints.
package api

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/blueplan/stickies-go/internal/stickies/auth"
	"github.com/blueplan/stickies-go/internal/stickies/config"
	logx "github.com/blueplan/stickies-go/internal/stickies/log"
	"github.com/blueplan/stickies-go/internal/stickies/monitoring"
	"github.com/blueplan/stickies-go/internal/stickies/note"
	"github.com/blueplan/stickies-go/internal/stickies/room"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Router serves the board's HTTP and websocket endpoints.
type Router struct {
	engine   *gin.Engine
	config   *config.Config
	logger   *logx.Logger
	room     *room.Room
	store    note.Store
	auth     *auth.Service
	monitor  *monitoring.Monitor
	upgrader websocket.Upgrader
}

// NewRouter creates the router with all routes registered.
func NewRouter(
	cfg *config.Config,
	logger *logx.Logger,
	boardRoom *room.Room,
	store note.Store,
	authService *auth.Service,
	monitor *monitoring.Monitor,
) *Router {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())
	engine.Use(CORSMiddleware(cfg.API.CORSOrigins))

	router := &Router{
		engine:  engine,
		config:  cfg,
		logger:  logger,
		room:    boardRoom,
		store:   store,
		auth:    authService,
		monitor: monitor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Cross-origin board embeds are allowed; the identity cookie
			// is the only trust signal and it is treated as untrusted.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	router.setupRoutes()
	return router
}

func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.handleHealth)
	r.engine.GET("/ping", r.handlePing)

	monitorGroup := r.engine.Group("/monitor")
	{
		monitorGroup.GET("/status", r.handleMonitorStatus)
		monitorGroup.GET("/metrics", r.handleMonitorMetrics)
	}

	r.engine.GET("/ws", r.handleWebSocket)
	r.engine.GET("/auth/google", r.auth.HandleGoogle)

	staticDir := r.config.Static.Dir
	r.engine.StaticFile("/", filepath.Join(staticDir, "index.html"))
	r.engine.StaticFile("/style.css", filepath.Join(staticDir, "style.css"))
	r.engine.StaticFile("/script.js", filepath.Join(staticDir, "script.js"))
}

// handleWebSocket upgrades the connection and runs the session against the
// room: join, in-order frame loop, leave.
func (r *Router) handleWebSocket(c *gin.Context) {
	ctx := logx.WithSessionID(c.Request.Context(), c.ClientIP())
	if identity, ok := r.auth.IdentityFromRequest(c.Request); ok {
		ctx = logx.WithUserID(ctx, identity.Email)
	}

	conn, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		r.logger.Warn(ctx, "websocket upgrade failed", logx.KV("error", err))
		return
	}

	session := room.NewWSSession(conn, r.config.Room.SendBufferSize)
	if r.config.Room.MaxMessageSize > 0 {
		conn.SetReadLimit(r.config.Room.MaxMessageSize)
	}
	go session.WritePump()

	if err := r.room.Join(ctx, session); err != nil {
		return
	}
	defer func() {
		r.room.Leave(ctx, session)
		_ = session.Close()
	}()

	for {
		data, err := session.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.logger.Warn(ctx, "websocket read error", logx.KV("error", err))
			}
			return
		}
		r.room.HandleFrame(ctx, session, data)
	}
}

func (r *Router) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"app":       r.config.App.Name,
		"version":   r.config.App.Version,
		"timestamp": time.Now().Format(time.RFC3339),
		"store":     r.store.HealthCheck(c.Request.Context()),
	})
}

func (r *Router) handlePing(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (r *Router) handleMonitorStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"room":            r.room.Name(),
		"sessions_active": r.room.Registry().Count(),
		"store":           r.store.HealthCheck(c.Request.Context()),
	})
}

func (r *Router) handleMonitorMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, r.monitor.GetMetrics())
}

// Engine exposes the underlying gin engine so main can run it inside an
// http.Server with graceful shutdown.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
