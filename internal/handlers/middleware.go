package handlers

import (
	"net/http"

	"metrix-portal/internal/repository"
	"metrix-portal/utils"

	"github.com/gin-gonic/gin"
)

const (
	sessionHeader   = "X-Session-ID"
	ctxUserIDKey    = "userID"
	ctxUserPhoneKey = "userPhone"
)

type Middleware struct {
	sessionRepo repository.SessionRepository
}

func NewMiddleware(sessionRepo repository.SessionRepository) *Middleware {
	return &Middleware{
		sessionRepo: sessionRepo,
	}
}

// Identify resolves the session header to a user id and stores it on the
// gin context. This identifies the caller, it does not authenticate them:
// possession of the session id is the whole credential.
func (m *Middleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(sessionHeader)
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				utils.CreateErrorResponse("MISSING_SESSION", "session header required"))
			return
		}

		session, err := m.sessionRepo.GetSession(c.Request.Context(), sessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				utils.CreateErrorResponse("INVALID_SESSION", "unknown or expired session"))
			return
		}

		c.Set(ctxUserIDKey, session.UserID)
		c.Set(ctxUserPhoneKey, session.Phone)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(ctxUserIDKey)
}

func userPhone(c *gin.Context) string {
	return c.GetString(ctxUserPhoneKey)
}
