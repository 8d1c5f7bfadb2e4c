package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"qomex.backend/pkg/crypto"
	"qomex.backend/pkg/logger"
)

// ClickIDKey is the context key for the visitor's click id
const ClickIDKey = "clickId"

var generateClickID = crypto.GenerateClickID

// ClickIDMiddleware makes sure every visitor carries a click_id cookie. A new
// id is issued on the first visit and kept for ttl.
func ClickIDMiddleware(ttl time.Duration, secure bool) gin.HandlerFunc {
	maxAge := int(ttl.Seconds())
	return func(c *gin.Context) {
		clickID, err := c.Cookie(ClickIDCookie)
		if err != nil || clickID == "" {
			clickID, err = generateClickID()
			if err != nil {
				logger.Error(c.Request.Context(), "failed to generate click id", zap.Error(err))
				c.Next()
				return
			}
			SetCookie(c, ClickIDCookie, clickID, maxAge, false, secure)
		}
		c.Set(ClickIDKey, clickID)
		c.Next()
	}
}

// GetClickID returns the visitor's click id, empty when none was assigned.
func GetClickID(c *gin.Context) string {
	if v, ok := c.Get(ClickIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	id, _ := c.Cookie(ClickIDCookie)
	return id
}
