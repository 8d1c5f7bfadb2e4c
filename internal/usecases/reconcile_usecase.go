package usecases

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"qomex.backend/internal/domain/entities"
	"qomex.backend/internal/domain/repositories"
	"qomex.backend/pkg/logger"
	"qomex.backend/pkg/metrics"
)

// ReconcileUsecase replays unmatched postbacks into a user once it is identifiable
type ReconcileUsecase struct {
	userRepo repositories.UserRepository
	logRepo  repositories.PostbackLogRepository
	uow      repositories.UnitOfWork
	folder   *depositFolder
	metrics  *metrics.Metrics
}

// NewReconcileUsecase creates a new reconcile usecase
func NewReconcileUsecase(
	userRepo repositories.UserRepository,
	logRepo repositories.PostbackLogRepository,
	uow repositories.UnitOfWork,
	minDeposit decimal.Decimal,
	m *metrics.Metrics,
) *ReconcileUsecase {
	return &ReconcileUsecase{
		userRepo: userRepo,
		logRepo:  logRepo,
		uow:      uow,
		folder:   &depositFolder{userRepo: userRepo, minDeposit: minDeposit},
		metrics:  m,
	}
}

// AttachPending folds every pending log matching the user and returns how many were folded.
// Logs are claimed one by one, so repeated or concurrent calls never fold a log twice.
func (u *ReconcileUsecase) AttachPending(ctx context.Context, userID int64) (int, error) {
	folded := 0
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		folded = 0
		lockCtx := u.uow.WithLock(txCtx)

		user, err := u.userRepo.GetByID(lockCtx, userID)
		if err != nil {
			return err
		}
		if !user.IsIdentifiable() {
			return nil
		}

		now := timeNow()
		seen := make(map[int64]struct{})
		// A fold may claim a trader_id; logs keyed only by that id are picked up by one more pass.
		for pass := 0; pass < 2; pass++ {
			traderID := user.TraderID.String
			logs, err := u.logRepo.FindPending(txCtx, user.ClickID, traderID)
			if err != nil {
				return fmt.Errorf("find pending postbacks: %w", err)
			}
			entities.SortPostbackLogs(logs)

			for _, l := range logs {
				if _, ok := seen[l.ID]; ok {
					continue
				}
				seen[l.ID] = struct{}{}
				l.MarkProcessed(user.ID, now)
				claimed, err := u.logRepo.MarkProcessed(txCtx, l)
				if err != nil {
					return fmt.Errorf("claim postback %d: %w", l.ID, err)
				}
				if !claimed {
					continue
				}
				if err := u.folder.fold(txCtx, user, l.Event, l.TraderID, l.Amount, now); err != nil {
					return err
				}
				folded++
			}

			if user.TraderID.String == traderID {
				break
			}
		}

		if folded == 0 {
			return nil
		}
		return u.userRepo.Update(txCtx, user)
	})
	if err != nil {
		logger.Error(ctx, "Failed to reconcile pending postbacks", zap.Int64("user_id", userID), zap.Error(err))
		return 0, err
	}

	if folded > 0 {
		logger.Info(ctx, "Reconciled pending postbacks", zap.Int64("user_id", userID), zap.Int("count", folded))
		u.metrics.ObserveReconciled(folded)
	}
	return folded, nil
}
