package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"qomex.backend/internal/domain/entities"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/domain/repositories"
	"qomex.backend/pkg/logger"
)

// DepositUsecase implements the deposit-threshold gate and trader id claims
type DepositUsecase struct {
	userRepo   repositories.UserRepository
	reconcile  *ReconcileUsecase
	minDeposit decimal.Decimal
}

// NewDepositUsecase creates a new deposit usecase
func NewDepositUsecase(userRepo repositories.UserRepository, reconcile *ReconcileUsecase, minDeposit decimal.Decimal) *DepositUsecase {
	return &DepositUsecase{
		userRepo:   userRepo,
		reconcile:  reconcile,
		minDeposit: minDeposit,
	}
}

// MinDeposit returns the configured threshold
func (u *DepositUsecase) MinDeposit() decimal.Decimal {
	return u.minDeposit
}

// Check classifies a trader id. Missing input or an unknown trader is pending, never an error.
func (u *DepositUsecase) Check(ctx context.Context, traderID string) (entities.DepositCheck, error) {
	traderID = strings.TrimSpace(traderID)
	if traderID == "" {
		return entities.ClassifyDeposit("", nil, u.minDeposit), nil
	}

	user, err := u.userRepo.GetByTraderID(ctx, traderID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return entities.ClassifyDeposit(traderID, nil, u.minDeposit), nil
		}
		return entities.DepositCheck{}, err
	}
	return entities.ClassifyDeposit(traderID, user, u.minDeposit), nil
}

// CheckUser classifies the user's own trader id
func (u *DepositUsecase) CheckUser(user *entities.User) entities.DepositCheck {
	if user == nil || !user.HasTraderID() {
		return entities.ClassifyDeposit("", nil, u.minDeposit)
	}
	return entities.ClassifyDeposit(user.TraderID.String, user, u.minDeposit)
}

// VerifyClaim checks a trader id the user says is theirs, after replaying pending postbacks.
func (u *DepositUsecase) VerifyClaim(ctx context.Context, userID int64, submitted string) (entities.ClaimResult, error) {
	submitted = strings.TrimSpace(submitted)
	result := entities.ClaimResult{Status: entities.ClaimPending, TraderID: submitted}

	if u.reconcile != nil {
		if _, err := u.reconcile.AttachPending(ctx, userID); err != nil {
			return result, err
		}
	}

	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return result, err
	}

	switch {
	case !user.HasTraderID():
		result.Status = entities.ClaimPending
	case user.TraderID.String != submitted:
		logger.Info(ctx, "Trader id claim mismatch", zap.Int64("user_id", userID), zap.String("submitted", submitted))
		result.Status = entities.ClaimMismatch
	default:
		result.Status = entities.ClaimMatched
	}
	return result, nil
}
