package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Cookie names shared by middleware and handlers.
const (
	SessionCookie   = "session_id"
	ClickIDCookie   = "click_id"
	UserEmailCookie = "user_email"
	TraderIDCookie  = "trader_id"
)

// SetCookie writes a root-scoped Lax cookie. maxAge 0 makes it a browser
// session cookie, a negative maxAge deletes it. The value is query-escaped;
// gin's c.Cookie unescapes it on the way back in.
func SetCookie(c *gin.Context, name, value string, maxAge int, httpOnly, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", secure, httpOnly)
}

// ClearCookie expires the named cookie.
func ClearCookie(c *gin.Context, name string, secure bool) {
	SetCookie(c, name, "", -1, true, secure)
}
