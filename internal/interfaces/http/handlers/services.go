package handlers

import (
	"context"
	"time"

	"qomex.backend/internal/domain/entities"
	"qomex.backend/pkg/redis"
	"qomex.backend/pkg/utils"
)

// PostbackService ingests broker callbacks
type PostbackService interface {
	Receive(ctx context.Context, raw map[string]string) (*entities.PostbackResult, error)
}

// AuthService runs the combined register/login form
type AuthService interface {
	Submit(ctx context.Context, input *entities.AuthInput) (*entities.AuthResult, error)
	GetUserByID(ctx context.Context, id int64) (*entities.User, error)
}

// Reconciler replays pending postbacks onto a user
type Reconciler interface {
	AttachPending(ctx context.Context, userID int64) (int, error)
}

// DepositService answers deposit-gate and trader-id claim questions
type DepositService interface {
	Check(ctx context.Context, traderID string) (entities.DepositCheck, error)
	CheckUser(user *entities.User) entities.DepositCheck
	VerifyClaim(ctx context.Context, userID int64, submitted string) (entities.ClaimResult, error)
}

// PasswordResetService issues and redeems reset tokens
type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) (string, error)
	ValidateToken(ctx context.Context, token string) (*entities.User, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AdminService backs the admin API
type AdminService interface {
	ListUsers(ctx context.Context, filter entities.UserListFilter, pagination utils.PaginationParams) ([]*entities.User, utils.PaginationMeta, error)
	GetUser(ctx context.Context, id int64) (*entities.User, error)
	UpdateUser(ctx context.Context, id int64, input *entities.UpdateUserInput) (*entities.User, error)
	ReconcileUser(ctx context.Context, id int64) (int, error)
	ListPostbacks(ctx context.Context, filter entities.PostbackListFilter, pagination utils.PaginationParams) ([]*entities.PostbackLog, utils.PaginationMeta, error)
	GetPostback(ctx context.Context, id int64) (*entities.PostbackLog, error)
}

// SessionManager creates and destroys server-side sessions
type SessionManager interface {
	CreateSession(ctx context.Context, sessionID string, data *redis.SessionData, expiration time.Duration) error
	DeleteSession(ctx context.Context, sessionID string) error
}
