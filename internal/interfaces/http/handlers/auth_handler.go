package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"qomex.backend/internal/domain/entities"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/interfaces/http/middleware"
	"qomex.backend/pkg/logger"
	"qomex.backend/pkg/redis"
)

var (
	newSessionID = uuid.NewString
	timeNow      = time.Now
)

// CookieConfig controls identity cookie lifetimes
type CookieConfig struct {
	Secure      bool
	SessionTTL  time.Duration
	RememberTTL time.Duration
	ClickIDTTL  time.Duration
}

// AuthHandler handles the combined login/registration form and logout
type AuthHandler struct {
	authService AuthService
	sessions    SessionManager
	cookies     CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, sessions SessionManager, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		cookies:     cookies,
	}
}

// Page renders the auth form
// GET /auth
func (h *AuthHandler) Page(c *gin.Context) {
	c.HTML(http.StatusOK, "auth.html", pageData(c, "Sign in"))
}

// Submit registers or logs in and starts a session
// POST /auth
func (h *AuthHandler) Submit(c *gin.Context) {
	var input entities.AuthInput
	if err := c.ShouldBind(&input); err != nil {
		authFailure(c, domainerrors.BadRequest("invalid form"))
		return
	}
	input.ClickID = middleware.GetClickID(c)

	result, err := h.authService.Submit(c.Request.Context(), &input)
	if err != nil {
		authFailure(c, err)
		return
	}
	user := result.User

	if err := h.startSession(c, user, input.RememberMe()); err != nil {
		logger.Error(c.Request.Context(), "Failed to create session", zap.Int64("user_id", user.ID), zap.Error(err))
		authFailure(c, domainerrors.InternalError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"click_id": user.ClickID,
	})
}

// Logout destroys the session and the identity cookies
// GET|POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(middleware.SessionCookie); err == nil && sessionID != "" {
		if err := h.sessions.DeleteSession(c.Request.Context(), sessionID); err != nil {
			logger.Warn(c.Request.Context(), "Failed to delete session", zap.Error(err))
		}
	}

	for _, name := range []string{middleware.SessionCookie, middleware.UserEmailCookie, middleware.ClickIDCookie} {
		middleware.ClearCookie(c, name, h.cookies.Secure)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) startSession(c *gin.Context, user *entities.User, remember bool) error {
	ctx := c.Request.Context()

	// a fresh id on every login
	if old, ok := middleware.GetSessionID(c); ok {
		if err := h.sessions.DeleteSession(ctx, old); err != nil {
			logger.Warn(ctx, "Failed to drop previous session", zap.Error(err))
		}
	}

	ttl := h.cookies.SessionTTL
	maxAge := 0
	if remember {
		ttl = h.cookies.RememberTTL
		maxAge = int(h.cookies.RememberTTL.Seconds())
	}

	sessionID := newSessionID()
	err := h.sessions.CreateSession(ctx, sessionID, &redis.SessionData{
		UserID:    user.ID,
		Email:     user.Email,
		ClickID:   user.ClickID,
		CreatedAt: timeNow().UTC(),
	}, ttl)
	if err != nil {
		return err
	}

	middleware.SetCookie(c, middleware.SessionCookie, sessionID, maxAge, true, h.cookies.Secure)
	if user.Email != "" {
		middleware.SetCookie(c, middleware.UserEmailCookie, user.Email, maxAge, false, h.cookies.Secure)
	}
	middleware.SetCookie(c, middleware.ClickIDCookie, user.ClickID, int(h.cookies.ClickIDTTL.Seconds()), false, h.cookies.Secure)
	return nil
}

// authFailure writes the {"success":false,"message":...} envelope the auth
// forms expect.
func authFailure(c *gin.Context, err error) {
	appErr := domainerrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "Auth request failed", zap.Error(err))
	}
	c.JSON(appErr.Status, gin.H{
		"success": false,
		"message": appErr.Message,
	})
}
