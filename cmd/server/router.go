package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thereayou/jobchat/internal/handlers"
	"github.com/thereayou/jobchat/internal/log"
	"github.com/thereayou/jobchat/internal/metrics"
	"github.com/thereayou/jobchat/internal/middleware"
	"github.com/thereayou/jobchat/pkg/auth"
)

type routeHandlers struct {
	auth     *handlers.AuthHandler
	rooms    *handlers.RoomHandler
	messages *handlers.HTTPMessageHandler
	ws       *handlers.WebSocketHandler
	health   *healthCheck
}

func APIEndpoints(r *gin.Engine, h routeHandlers, jwtMgr *auth.JWTManager, rdb *redis.Client) {
	r.Use(gin.Recovery(), log.GinMiddleware(), metrics.GinMiddleware())

	r.GET("/healthz", h.health.Handle)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ws/chat/:room_id", middleware.WSAuthMiddleware(jwtMgr, rdb), h.ws.HandleWebSocket)

	api := r.Group("/api/v1", middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.POST("/auth/logout", h.auth.Logout)

		api.GET("/rooms", h.rooms.GetMyRooms)
		api.POST("/rooms/direct/:user_id", h.rooms.CreateDirectRoom)
		api.GET("/rooms/:id", h.rooms.GetRoom)
		api.PATCH("/rooms/:id", h.rooms.UpdateRoom)

		api.GET("/rooms/:id/messages", h.messages.GetRoomMessages)
		api.POST("/rooms/:id/messages", h.messages.SendMessage)
	}
}
