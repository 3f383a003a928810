package api

import (
	"net/http"
	"strings"

	"storefront/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerSession      = "X-Session-ID"
	headerAdminSession = "X-Admin-Session"

	ctxSessionID = "session_id"
	ctxUser      = "user"
	ctxToken     = "token"
)

// sessionMiddleware binds the request to a browser session, minting one
// when the client has none yet
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(headerSession))
		if sessionID == "" {
			sessionID = uuid.New().String()
		}
		c.Header(headerSession, sessionID)
		c.Set(ctxSessionID, sessionID)
		c.Next()
	}
}

// customerMiddleware resolves an optional bearer token to the signed-in user.
// Invalid tokens leave the request anonymous.
func (h *Handler) customerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" || h.auth == nil {
			c.Next()
			return
		}

		user, err := h.auth.CurrentUser(c.Request.Context(), token)
		if err != nil {
			h.logger.Debug("Ignoring invalid session token", zap.Error(err))
			c.Next()
			return
		}
		c.Set(ctxUser, user)
		c.Set(ctxToken, token)
		c.Next()
	}
}

func requireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Please sign in",
			})
			return
		}
		c.Next()
	}
}

func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := h.admin.IsAdmin(c.Request.Context(), c.GetHeader(headerAdminSession))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Admin session store unavailable",
				"details": err.Error(),
			})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Admin login required",
			})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}
