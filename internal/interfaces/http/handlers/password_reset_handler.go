package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/interfaces/http/response"
)

// PasswordResetHandler handles the forgotten-password flow
type PasswordResetHandler struct {
	resetService   PasswordResetService
	exposeResetURL bool
}

// NewPasswordResetHandler creates a new password reset handler. exposeResetURL
// echoes the link in the response and must stay off outside development.
func NewPasswordResetHandler(resetService PasswordResetService, exposeResetURL bool) *PasswordResetHandler {
	return &PasswordResetHandler{resetService: resetService, exposeResetURL: exposeResetURL}
}

// RequestReset mails a reset link. The answer is the same whether or not
// the email is known.
// POST /password-reset-request
func (h *PasswordResetHandler) RequestReset(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || strings.TrimSpace(input.Email) == "" {
		authFailure(c, domainerrors.BadRequest("email is required"))
		return
	}

	link, err := h.resetService.RequestReset(c.Request.Context(), strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		authFailure(c, err)
		return
	}

	body := gin.H{
		"success": true,
		"message": "If the email exists, a reset link has been sent.",
	}
	if h.exposeResetURL && link != "" {
		body["reset_url"] = link
	}
	response.Success(c, http.StatusOK, body)
}

// Page renders the new-password form, flagging dead tokens
// GET /auth/reset?token=
func (h *PasswordResetHandler) Page(c *gin.Context) {
	token := c.Query("token")

	invalid, reason := false, ""
	if _, err := h.resetService.ValidateToken(c.Request.Context(), token); err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrTokenExpired):
			invalid, reason = true, "expired"
		case errors.Is(err, domainerrors.ErrInvalidToken):
			invalid, reason = true, "invalid"
		default:
			response.Error(c, err)
			return
		}
	}

	data := pageData(c, "Reset password")
	data["Token"] = token
	data["Invalid"] = invalid
	data["Reason"] = reason
	c.HTML(http.StatusOK, "reset_password.html", data)
}

// Reset sets a new password from a form post, falling back to a JSON body
// POST /password-reset
func (h *PasswordResetHandler) Reset(c *gin.Context) {
	token := c.PostForm("token")
	newPassword := c.PostForm("new_password")

	if token == "" || newPassword == "" {
		var input struct {
			Token       string `json:"token"`
			NewPassword string `json:"new_password"`
		}
		if err := c.ShouldBindJSON(&input); err == nil {
			if token == "" {
				token = input.Token
			}
			if newPassword == "" {
				newPassword = input.NewPassword
			}
		}
	}

	if err := h.resetService.ResetPassword(c.Request.Context(), token, newPassword); err != nil {
		authFailure(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Password changed.",
	})
}
