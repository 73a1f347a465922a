package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/jobchat/internal/config"
	"github.com/thereayou/jobchat/internal/database"
	"github.com/thereayou/jobchat/internal/handlers"
	"github.com/thereayou/jobchat/internal/log"
	"github.com/thereayou/jobchat/internal/presence"
	"github.com/thereayou/jobchat/internal/services"
	"github.com/thereayou/jobchat/internal/websocket"
	"github.com/thereayou/jobchat/pkg/auth"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Router     *gin.Engine
	HTTP       *http.Server
	DB         *database.Database
	Redis      *redis.Client
	Hub        *websocket.Hub
	Fanout     *websocket.RedisFanout
	JWTManager *auth.JWTManager
}

func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		return nil, err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	store := presence.NewRedisStore(rdb, cfg.PresenceTTL)
	hub := websocket.NewHub()
	fanout := websocket.NewRedisFanout(ctx, rdb, hub)

	rooms := services.NewRoomService(dbConn, store)
	messages := services.NewMessageService(dbConn)

	messageH := handlers.NewMessageHandler(rooms, messages, store, fanout)
	h := routeHandlers{
		auth:     handlers.NewAuthHandler(jwtMgr, rdb),
		rooms:    handlers.NewRoomHandler(rooms, messages),
		messages: handlers.NewHTTPMessageHandler(rooms, messages, store, fanout),
		ws:       handlers.NewWebSocketHandler(messageH, cfg.WebSocket),
		health:   newHealthCheck(dbConn, rdb),
	}

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	APIEndpoints(router, h, jwtMgr, rdb)

	return &Server{
		Router: router,
		HTTP: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		DB:         dbConn,
		Redis:      rdb,
		Hub:        hub,
		Fanout:     fanout,
		JWTManager: jwtMgr,
	}, nil
}

// Run serves HTTP and relays fanout traffic until Shutdown is called or one
// of them fails.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.L().Info().Str("addr", s.HTTP.Addr).Msg("server starting")
		if err := s.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return s.Fanout.Run(gctx)
	})

	return g.Wait()
}

// Shutdown stops accepting requests first, then closes the chat sessions the
// HTTP server no longer tracks (hijacked sockets) while redis is still up so
// their presence is cleared, then releases the shared clients.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.HTTP.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if n := s.Hub.CloseAll(); n > 0 {
		log.L().Info().Int("sessions", n).Msg("closed chat sessions")
	}
	if err := s.Fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Redis.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.DB.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type healthCheck struct {
	db    *database.Database
	redis *redis.Client
}

func newHealthCheck(db *database.Database, rdb *redis.Client) *healthCheck {
	return &healthCheck{db: db, redis: rdb}
}

func (h *healthCheck) Handle(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database"})
		return
	}
	if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "redis"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
