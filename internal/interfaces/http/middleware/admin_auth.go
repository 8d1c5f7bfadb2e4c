package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/interfaces/http/response"
	"qomex.backend/pkg/crypto"
	"qomex.backend/pkg/logger"
)

// AdminUserKey is the context key for the authenticated admin username
const AdminUserKey = "adminUser"

var checkAdminPassword = crypto.CheckPassword

// AdminAuthMiddleware guards the admin API with HTTP basic auth against a
// configured username and bcrypt hash. An empty hash locks the API.
func AdminAuthMiddleware(username, passwordHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok || passwordHash == "" ||
			subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
			!checkAdminPassword(pass, passwordHash) {
			if ok {
				logger.Warn(c.Request.Context(), "admin auth rejected",
					zap.String("user", user),
					zap.String("client_ip", c.ClientIP()),
				)
			}
			c.Header("WWW-Authenticate", `Basic realm="admin"`)
			response.AbortError(c, domainerrors.Unauthorized("unauthorized"))
			return
		}
		c.Set(AdminUserKey, user)
		c.Next()
	}
}
