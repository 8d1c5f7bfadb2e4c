package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"qomex.backend/internal/domain/entities"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/domain/repositories"
	"qomex.backend/pkg/logger"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// depositFolder applies postback effects to a user row the caller has locked.
// The webhook receiver and the reconciliation routine share it so both paths
// fold identically.
type depositFolder struct {
	userRepo   repositories.UserRepository
	minDeposit decimal.Decimal
}

// fold claims the trader id when allowed and accumulates a deposit.
// The caller persists the user.
func (f *depositFolder) fold(ctx context.Context, user *entities.User, event, traderID string, amount decimal.Decimal, now time.Time) error {
	if user.CanClaimTraderID(traderID) {
		owner, err := f.userRepo.GetByTraderID(ctx, traderID)
		switch {
		case err == nil && owner.ID != user.ID:
			logger.Warn(ctx, "Trader id already owned by another user",
				zap.Int64("user_id", user.ID),
				zap.Int64("owner_id", owner.ID),
				zap.String("trader_id", traderID),
			)
		case err == nil:
		case errors.Is(err, domainerrors.ErrNotFound):
			user.ClaimTraderID(traderID)
		default:
			return err
		}
	}

	if event == entities.EventDeposit {
		user.ApplyDeposit(amount, f.minDeposit)
	}
	user.Touch(now)
	return nil
}
