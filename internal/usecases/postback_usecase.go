package usecases

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"qomex.backend/internal/domain/entities"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/domain/repositories"
	"qomex.backend/pkg/crypto"
	"qomex.backend/pkg/logger"
	"qomex.backend/pkg/metrics"
)

// PostbackUsecase handles broker webhook calls
type PostbackUsecase struct {
	userRepo repositories.UserRepository
	logRepo  repositories.PostbackLogRepository
	uow      repositories.UnitOfWork
	folder   *depositFolder
	secret   string
	metrics  *metrics.Metrics
}

// NewPostbackUsecase creates a new postback usecase
func NewPostbackUsecase(
	userRepo repositories.UserRepository,
	logRepo repositories.PostbackLogRepository,
	uow repositories.UnitOfWork,
	secret string,
	minDeposit decimal.Decimal,
	m *metrics.Metrics,
) *PostbackUsecase {
	return &PostbackUsecase{
		userRepo: userRepo,
		logRepo:  logRepo,
		uow:      uow,
		folder:   &depositFolder{userRepo: userRepo, minDeposit: minDeposit},
		secret:   secret,
		metrics:  m,
	}
}

// Receive authenticates, matches and records one webhook call.
// The log row is written whether or not a user matched.
func (u *PostbackUsecase) Receive(ctx context.Context, raw map[string]string) (*entities.PostbackResult, error) {
	params := entities.NewPostbackParams(raw)

	if !crypto.SecretEqual(params.Token, u.secret) {
		logger.Warn(ctx, "Postback rejected: bad token", zap.String("event", params.Event), zap.String("click_id", params.ClickID))
		u.metrics.ObservePostback(params.Event, metrics.OutcomeForbidden)
		return nil, domainerrors.Forbidden("forbidden")
	}

	result := &entities.PostbackResult{Status: entities.PostbackStatusNoUserYet, ClickID: params.ClickID}
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		lockCtx := u.uow.WithLock(txCtx)
		now := timeNow()

		user, err := u.matchUser(lockCtx, params)
		if err != nil {
			return err
		}

		log := entities.NewPostbackLog(params, now)
		if user != nil {
			if err := u.folder.fold(txCtx, user, params.Event, params.TraderID, params.Amount, now); err != nil {
				return err
			}
			if err := u.userRepo.Update(txCtx, user); err != nil {
				return err
			}
			log.MarkProcessed(user.ID, now)
			result.Status = entities.PostbackStatusOK
			result.ClickID = ""
			result.UserID = user.ID
		}

		if err := u.logRepo.Create(txCtx, log); err != nil {
			return err
		}
		result.LogID = log.ID
		return nil
	})
	if err != nil {
		logger.Error(ctx, "Failed to process postback",
			zap.String("event", params.Event),
			zap.String("click_id", params.ClickID),
			zap.String("trader_id", params.TraderID),
			zap.String("amount", params.Amount.String()),
			zap.String("currency", params.Currency),
			zap.Error(err),
		)
		u.metrics.ObservePostback(params.Event, metrics.OutcomeFailed)
		return nil, domainerrors.InternalError(err)
	}

	if result.Status == entities.PostbackStatusOK {
		logger.Info(ctx, "Postback matched",
			zap.Int64("user_id", result.UserID),
			zap.String("event", params.Event),
			zap.String("amount", params.Amount.String()),
			zap.String("currency", params.Currency),
		)
		u.metrics.ObservePostback(params.Event, metrics.OutcomeMatched)
		if params.IsDeposit() {
			amount, _ := params.Amount.Float64()
			u.metrics.ObserveDeposit(params.Currency, amount)
		}
	} else {
		logger.Info(ctx, "Postback stored without user",
			zap.String("event", params.Event),
			zap.String("click_id", params.ClickID),
			zap.String("trader_id", params.TraderID),
		)
		u.metrics.ObservePostback(params.Event, metrics.OutcomeUnmatched)
	}
	return result, nil
}

// matchUser finds the user by click id, then by a numeric trader id. No match is (nil, nil).
func (u *PostbackUsecase) matchUser(ctx context.Context, params entities.PostbackParams) (*entities.User, error) {
	if params.ClickID != "" {
		user, err := u.userRepo.GetByClickID(ctx, params.ClickID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domainerrors.ErrNotFound) {
			return nil, err
		}
	}
	if entities.IsNumericTraderID(params.TraderID) {
		user, err := u.userRepo.GetByTraderID(ctx, params.TraderID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domainerrors.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}
