package usecases

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"qomex.backend/internal/domain/entities"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/domain/repositories"
	"qomex.backend/pkg/jwt"
	"qomex.backend/pkg/logger"
)

// MinPasswordLength is the shortest password accepted on reset
const MinPasswordLength = 6

const resetMailSubject = "Password reset"

// Mailer delivers one HTML message
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// PasswordResetUsecase issues and redeems password reset tokens
type PasswordResetUsecase struct {
	userRepo repositories.UserRepository
	tokens   *jwt.TokenService
	mailer   Mailer
	baseURL  string
}

// NewPasswordResetUsecase creates a new password reset usecase. A nil mailer
// leaves links undelivered; they are only logged at debug level.
func NewPasswordResetUsecase(userRepo repositories.UserRepository, tokens *jwt.TokenService, mailer Mailer, baseURL string) *PasswordResetUsecase {
	return &PasswordResetUsecase{
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// RequestReset stores a fresh token for a known email, mails the reset link
// and returns it. Unknown emails yield an empty link and no error. Delivery
// failures are logged, not returned, so the caller's answer never differs.
func (u *PasswordResetUsecase) RequestReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil
	}

	user, err := u.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			logger.Info(ctx, "Password reset requested for unknown email")
			return "", nil
		}
		return "", err
	}

	token, err := u.tokens.IssueResetToken(user.Email)
	if err != nil {
		return "", fmt.Errorf("issue reset token: %w", err)
	}
	user.ResetToken = null.StringFrom(token)
	user.Touch(timeNow())
	if err := u.userRepo.Update(ctx, user); err != nil {
		return "", err
	}

	resetURL := u.baseURL + "/auth/reset?token=" + url.QueryEscape(token)
	logger.Info(ctx, "Password reset link issued", zap.Int64("user_id", user.ID))
	u.deliver(ctx, user, resetURL)
	return resetURL, nil
}

func (u *PasswordResetUsecase) deliver(ctx context.Context, user *entities.User, resetURL string) {
	if u.mailer == nil {
		logger.Debug(ctx, "Mail disabled, reset link not sent", zap.Int64("user_id", user.ID), zap.String("reset_url", resetURL))
		return
	}
	body := fmt.Sprintf(
		`<p>Hello, %s!</p><p>To set a new password follow this link:</p><p><a href="%s">%s</a></p><p>If you did not ask for a reset, ignore this email.</p>`,
		html.EscapeString(user.Login), html.EscapeString(resetURL), html.EscapeString(resetURL),
	)
	if err := u.mailer.Send(ctx, user.Email, resetMailSubject, body); err != nil {
		logger.Error(ctx, "Failed to send password reset mail", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

// ValidateToken returns the token holder, or ErrTokenExpired / ErrInvalidToken
func (u *PasswordResetUsecase) ValidateToken(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, domainerrors.ErrInvalidToken
	}
	email, err := u.tokens.ValidateResetToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, domainerrors.ErrTokenExpired
		}
		return nil, domainerrors.ErrInvalidToken
	}

	user, err := u.userRepo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrInvalidToken
		}
		return nil, err
	}
	if !strings.EqualFold(user.Email, email) {
		return nil, domainerrors.ErrInvalidToken
	}
	return user, nil
}

// ResetPassword replaces the password of the token holder and burns the token
func (u *PasswordResetUsecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return domainerrors.BadRequest("invalid data")
	}
	if len(newPassword) < MinPasswordLength {
		return domainerrors.BadRequest(fmt.Sprintf("password too short (min %d characters)", MinPasswordLength))
	}

	user, err := u.ValidateToken(ctx, token)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidToken) || errors.Is(err, domainerrors.ErrTokenExpired) {
			return domainerrors.BadRequest("invalid or expired token")
		}
		return err
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.ResetToken = null.String{}
	user.Touch(timeNow())
	if err := u.userRepo.Update(ctx, user); err != nil {
		return err
	}
	logger.Info(ctx, "Password reset completed", zap.Int64("user_id", user.ID))
	return nil
}
