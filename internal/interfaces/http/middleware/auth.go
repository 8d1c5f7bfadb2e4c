package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/interfaces/http/response"
	"qomex.backend/pkg/logger"
	"qomex.backend/pkg/redis"
)

const (
	// UserIDKey is the context key for user ID
	UserIDKey = "userId"
	// UserEmailKey is the context key for user email
	UserEmailKey = "userEmail"
	// SessionIDKey is the context key for the opaque session id
	SessionIDKey = "sessionId"
)

// SessionReader resolves an opaque session id to its server-side data.
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*redis.SessionData, error)
}

// SessionMiddleware loads the session named by the session_id cookie when
// there is one. It never rejects a request; RequireSession does that.
func SessionMiddleware(store SessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookie)
		if err != nil || sessionID == "" {
			c.Next()
			return
		}

		data, err := store.GetSession(c.Request.Context(), sessionID)
		if err != nil {
			if !errors.Is(err, redis.ErrSessionNotFound) {
				logger.Warn(c.Request.Context(), "session lookup failed", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set(UserIDKey, data.UserID)
		c.Set(UserEmailKey, data.Email)
		c.Set(SessionIDKey, sessionID)
		ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, data.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireSession rejects requests that carry no valid session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			response.AbortError(c, domainerrors.Unauthorized("unauthorized"))
			return
		}
		c.Next()
	}
}

// GetUserID gets the user ID from context
func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

// GetUserEmail gets the user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	v, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}

// GetSessionID gets the session id the request was authenticated with
func GetSessionID(c *gin.Context) (string, bool) {
	v, exists := c.Get(SessionIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
