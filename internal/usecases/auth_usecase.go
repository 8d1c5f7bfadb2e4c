package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"qomex.backend/internal/domain/entities"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/domain/repositories"
	"qomex.backend/pkg/crypto"
	"qomex.backend/pkg/logger"
)

const maxClickIDAttempts = 10

var (
	hashPassword    = crypto.HashPassword
	checkPassword   = crypto.CheckPassword
	generateClickID = crypto.GenerateClickID
)

// AuthUsecase handles registration and login on the combined auth form
type AuthUsecase struct {
	userRepo  repositories.UserRepository
	reconcile *ReconcileUsecase
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(userRepo repositories.UserRepository, reconcile *ReconcileUsecase) *AuthUsecase {
	return &AuthUsecase{
		userRepo:  userRepo,
		reconcile: reconcile,
	}
}

// Submit dispatches the form to Register or Login by its action field
func (u *AuthUsecase) Submit(ctx context.Context, input *entities.AuthInput) (*entities.AuthResult, error) {
	input.Normalize()
	switch input.Action {
	case entities.AuthActionRegister:
		return u.Register(ctx, input)
	case entities.AuthActionLogin:
		return u.Login(ctx, input)
	default:
		return nil, domainerrors.BadRequest("unknown action")
	}
}

// Register creates a user bound to the visitor's click id and replays pending postbacks
func (u *AuthUsecase) Register(ctx context.Context, input *entities.AuthInput) (*entities.AuthResult, error) {
	input.Normalize()
	if input.Login == "" || input.Password == "" {
		return nil, domainerrors.BadRequest("login and password are required")
	}
	if input.Email == "" {
		return nil, domainerrors.BadRequest("email is required")
	}

	if _, err := u.userRepo.GetByLogin(ctx, input.Login); err == nil {
		return nil, domainerrors.Conflict("login already taken")
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}
	if _, err := u.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return nil, domainerrors.Conflict("email already taken")
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	clickID, err := u.EnsureUniqueClickID(ctx, input.ClickID)
	if err != nil {
		return nil, err
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := timeNow()
	user := &entities.User{
		Login:        input.Login,
		Email:        input.Email,
		PasswordHash: hash,
		ClickID:      clickID,
		TotalDeposit: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("login or email already taken")
		}
		return nil, err
	}
	logger.Info(ctx, "User registered", zap.Int64("user_id", user.ID), zap.String("click_id", clickID))

	return u.finish(ctx, user)
}

// Login verifies credentials, backfills a missing click id and replays pending postbacks
func (u *AuthUsecase) Login(ctx context.Context, input *entities.AuthInput) (*entities.AuthResult, error) {
	input.Normalize()
	user, err := u.userRepo.GetByLogin(ctx, input.Login)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, err
	}
	if !checkPassword(input.Password, user.PasswordHash) {
		return nil, invalidCredentials()
	}

	if user.ClickID == "" {
		clickID, err := u.EnsureUniqueClickID(ctx, input.ClickID)
		if err != nil {
			return nil, err
		}
		user.ClickID = clickID
		user.Touch(timeNow())
		if err := u.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	return u.finish(ctx, user)
}

// GetUserByID gets a user by ID
func (u *AuthUsecase) GetUserByID(ctx context.Context, id int64) (*entities.User, error) {
	return u.userRepo.GetByID(ctx, id)
}

// EnsureUniqueClickID returns candidate when free, otherwise a freshly generated free click id
func (u *AuthUsecase) EnsureUniqueClickID(ctx context.Context, candidate string) (string, error) {
	clickID := candidate
	for attempt := 0; attempt < maxClickIDAttempts; attempt++ {
		if clickID != "" {
			taken, err := u.userRepo.ClickIDExists(ctx, clickID)
			if err != nil {
				return "", err
			}
			if !taken {
				return clickID, nil
			}
		}
		next, err := generateClickID()
		if err != nil {
			return "", fmt.Errorf("generate click id: %w", err)
		}
		clickID = next
	}
	return "", fmt.Errorf("could not allocate a unique click id after %d attempts", maxClickIDAttempts)
}

// finish replays pending postbacks and reloads the user. A failed replay is
// logged and retried on the next visit.
func (u *AuthUsecase) finish(ctx context.Context, user *entities.User) (*entities.AuthResult, error) {
	result := &entities.AuthResult{User: user}
	if u.reconcile == nil {
		return result, nil
	}

	n, err := u.reconcile.AttachPending(ctx, user.ID)
	if err != nil {
		logger.Warn(ctx, "Pending postbacks not attached", zap.Int64("user_id", user.ID), zap.Error(err))
		return result, nil
	}
	result.Reconciled = n
	if n > 0 {
		if fresh, err := u.userRepo.GetByID(ctx, user.ID); err == nil {
			result.User = fresh
		}
	}
	return result, nil
}

func invalidCredentials() *domainerrors.AppError {
	return domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeUnauthorized, "invalid login or password", domainerrors.ErrInvalidCredentials)
}
