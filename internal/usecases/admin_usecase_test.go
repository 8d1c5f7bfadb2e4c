package usecases_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"qomex.backend/internal/domain/entities"
	domainerrors "qomex.backend/internal/domain/errors"
	"qomex.backend/internal/infrastructure/repositories"
	"qomex.backend/internal/usecases"
	"qomex.backend/pkg/utils"
)

func newAdminForStack(s *testStack) *usecases.AdminUsecase {
	return usecases.NewAdminUsecase(s.users, s.logs, repositories.NewUnitOfWork(s.db), s.reconcile)
}

func strPtr(s string) *string { return &s }

func TestAdminUsecase_UpdateUser(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	uc := newAdminForStack(s)
	alice := s.createUser(t, "alice", "c-a")
	bob := s.createUser(t, "bob", "c-b")

	total := decimal.NewFromInt(99)
	verified := true
	got, err := uc.UpdateUser(ctx, alice.ID, &entities.UpdateUserInput{
		TraderID:        strPtr("1001"),
		TotalDeposit:    &total,
		DepositVerified: &verified,
	})
	require.NoError(t, err)
	assert.Equal(t, "1001", got.TraderID.String)

	stored := s.reload(t, alice.ID)
	assert.True(t, stored.TotalDeposit.Equal(total))
	assert.True(t, stored.DepositVerified)

	_, err = uc.UpdateUser(ctx, bob.ID, &entities.UpdateUserInput{TraderID: strPtr("1001")})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	_, err = uc.UpdateUser(ctx, bob.ID, &entities.UpdateUserInput{Login: strPtr("alice")})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	_, err = uc.UpdateUser(ctx, bob.ID, &entities.UpdateUserInput{ClickID: strPtr(" ")})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	negative := decimal.NewFromInt(-1)
	_, err = uc.UpdateUser(ctx, bob.ID, &entities.UpdateUserInput{FirstDeposit: &negative})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	got, err = uc.UpdateUser(ctx, alice.ID, &entities.UpdateUserInput{TraderID: strPtr("")})
	require.NoError(t, err)
	assert.False(t, got.TraderID.Valid)

	_, err = uc.UpdateUser(ctx, 999, &entities.UpdateUserInput{})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestAdminUsecase_ReconcileAndListings(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	uc := newAdminForStack(s)
	user := s.createUser(t, "olga", "c-o")
	s.addLog(t, entities.EventDeposit, "c-o", "", "60", time.Now().UTC())
	s.addLog(t, entities.EventDeposit, "c-x", "", "10", time.Now().UTC())

	n, err := uc.ReconcileUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = uc.ReconcileUser(ctx, 999)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	users, meta, err := uc.ListUsers(ctx, entities.UserListFilter{Search: "olga"}, utils.GetPaginationParams(1, 10))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), meta.TotalCount)

	processed := true
	logs, meta, err := uc.ListPostbacks(ctx, entities.PostbackListFilter{Processed: &processed}, utils.GetPaginationParams(1, 10))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 1, meta.TotalPages)

	one, err := uc.GetPostback(ctx, logs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, one.UserID.Int64)

	fetched, err := uc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, fetched.TotalDeposit.Equal(decimal.NewFromInt(60)))
}

func TestAdminUsecase_ListErrors(t *testing.T) {
	userRepo := new(MockUserRepository)
	logRepo := new(MockPostbackLogRepository)
	uc := usecases.NewAdminUsecase(userRepo, logRepo, newPassthroughUoW(), nil)
	p := utils.GetPaginationParams(1, 10)

	userRepo.On("List", mock.Anything, entities.UserListFilter{}, p).Return(nil, int64(0), errors.New("db down")).Once()
	_, _, err := uc.ListUsers(context.Background(), entities.UserListFilter{}, p)
	assert.Error(t, err)

	logRepo.On("List", mock.Anything, entities.PostbackListFilter{}, p).Return(nil, int64(0), errors.New("db down")).Once()
	_, _, err = uc.ListPostbacks(context.Background(), entities.PostbackListFilter{}, p)
	assert.Error(t, err)
}
