package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/thereayou/jobchat/internal/log"
	"github.com/thereayou/jobchat/pkg/auth"
)

// AuthHandler only revokes tokens; issuing them belongs to the accounts service.
type AuthHandler struct {
	jwtManager *auth.JWTManager
	redis      *redis.Client
}

func NewAuthHandler(jwtMgr *auth.JWTManager, rdb *redis.Client) *AuthHandler {
	return &AuthHandler{jwtManager: jwtMgr, redis: rdb}
}

// Logout blacklists the bearer token in redis until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	rawToken, err := auth.ExtractTokenFromHeader(c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := h.jwtManager.Expiry(rawToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := auth.Revoke(c.Request.Context(), h.redis, rawToken, exp); err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("token revoke failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not revoke token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
