package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"qomex.backend/internal/domain/entities"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/domain/repositories"
	"qomex.backend/pkg/logger"
	"qomex.backend/pkg/utils"
)

// AdminUsecase backs the admin API over users and postback logs
type AdminUsecase struct {
	userRepo  repositories.UserRepository
	logRepo   repositories.PostbackLogRepository
	uow       repositories.UnitOfWork
	reconcile *ReconcileUsecase
}

// NewAdminUsecase creates a new admin usecase
func NewAdminUsecase(
	userRepo repositories.UserRepository,
	logRepo repositories.PostbackLogRepository,
	uow repositories.UnitOfWork,
	reconcile *ReconcileUsecase,
) *AdminUsecase {
	return &AdminUsecase{
		userRepo:  userRepo,
		logRepo:   logRepo,
		uow:       uow,
		reconcile: reconcile,
	}
}

// ListUsers lists users with search, sort and pagination
func (u *AdminUsecase) ListUsers(ctx context.Context, filter entities.UserListFilter, pagination utils.PaginationParams) ([]*entities.User, utils.PaginationMeta, error) {
	users, total, err := u.userRepo.List(ctx, filter, pagination)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return users, utils.CalculateMeta(total, pagination), nil
}

// GetUser gets a user by ID
func (u *AdminUsecase) GetUser(ctx context.Context, id int64) (*entities.User, error) {
	return u.userRepo.GetByID(ctx, id)
}

// UpdateUser applies admin edits. Password and timestamps are not editable here.
func (u *AdminUsecase) UpdateUser(ctx context.Context, id int64, input *entities.UpdateUserInput) (*entities.User, error) {
	var updated *entities.User
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		user, err := u.userRepo.GetByID(u.uow.WithLock(txCtx), id)
		if err != nil {
			return err
		}

		if input.Login != nil {
			login := strings.TrimSpace(*input.Login)
			if login == "" {
				return domainerrors.BadRequest("login must not be empty")
			}
			if err := u.ensureFree(txCtx, id, login, u.userRepo.GetByLogin, "login already taken"); err != nil {
				return err
			}
			user.Login = login
		}
		if input.Email != nil {
			email := strings.TrimSpace(*input.Email)
			if email == "" {
				return domainerrors.BadRequest("email must not be empty")
			}
			if err := u.ensureFree(txCtx, id, email, u.userRepo.GetByEmail, "email already taken"); err != nil {
				return err
			}
			user.Email = email
		}
		if input.ClickID != nil {
			clickID := strings.TrimSpace(*input.ClickID)
			if clickID == "" {
				return domainerrors.BadRequest("click_id must not be empty")
			}
			if err := u.ensureFree(txCtx, id, clickID, u.userRepo.GetByClickID, "click_id already taken"); err != nil {
				return err
			}
			user.ClickID = clickID
		}
		if input.TraderID != nil {
			traderID := strings.TrimSpace(*input.TraderID)
			if traderID == "" {
				user.TraderID = null.String{}
			} else {
				if err := u.ensureFree(txCtx, id, traderID, u.userRepo.GetByTraderID, "trader_id already taken"); err != nil {
					return err
				}
				user.TraderID = null.StringFrom(traderID)
			}
		}
		if input.FirstDeposit != nil {
			if input.FirstDeposit.IsNegative() {
				return domainerrors.BadRequest("first_deposit must not be negative")
			}
			user.FirstDeposit.Decimal = *input.FirstDeposit
			user.FirstDeposit.Valid = true
		}
		if input.TotalDeposit != nil {
			if input.TotalDeposit.IsNegative() {
				return domainerrors.BadRequest("total_deposit must not be negative")
			}
			user.TotalDeposit = *input.TotalDeposit
		}
		if input.DepositVerified != nil {
			user.DepositVerified = *input.DepositVerified
		}

		user.Touch(timeNow())
		if err := u.userRepo.Update(txCtx, user); err != nil {
			if errors.Is(err, domainerrors.ErrAlreadyExists) {
				return domainerrors.Conflict("unique field already taken")
			}
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "User updated by admin", zap.Int64("user_id", id))
	return updated, nil
}

// ReconcileUser replays pending postbacks for one user on demand
func (u *AdminUsecase) ReconcileUser(ctx context.Context, id int64) (int, error) {
	if _, err := u.userRepo.GetByID(ctx, id); err != nil {
		return 0, err
	}
	return u.reconcile.AttachPending(ctx, id)
}

// ListPostbacks lists postback logs with search, processed filter and pagination
func (u *AdminUsecase) ListPostbacks(ctx context.Context, filter entities.PostbackListFilter, pagination utils.PaginationParams) ([]*entities.PostbackLog, utils.PaginationMeta, error) {
	logs, total, err := u.logRepo.List(ctx, filter, pagination)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return logs, utils.CalculateMeta(total, pagination), nil
}

// GetPostback gets one postback log
func (u *AdminUsecase) GetPostback(ctx context.Context, id int64) (*entities.PostbackLog, error) {
	return u.logRepo.GetByID(ctx, id)
}

func (u *AdminUsecase) ensureFree(
	ctx context.Context,
	id int64,
	value string,
	lookup func(context.Context, string) (*entities.User, error),
	message string,
) error {
	owner, err := lookup(ctx, value)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if owner.ID != id {
		return domainerrors.Conflict(message)
	}
	return nil
}
