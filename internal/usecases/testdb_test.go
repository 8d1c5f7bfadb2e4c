package usecases_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"qomex.backend/internal/domain/entities"
	"qomex.backend/internal/infrastructure/datasources/postgres"
	"qomex.backend/internal/infrastructure/repositories"
	"qomex.backend/internal/usecases"
)

var testMinDeposit = decimal.NewFromInt(50)

const testSecret = "postback-secret"

type testStack struct {
	db        *gorm.DB
	users     *repositories.UserRepository
	logs      *repositories.PostbackLogRepository
	postback  *usecases.PostbackUsecase
	reconcile *usecases.ReconcileUsecase
	deposit   *usecases.DepositUsecase
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(db))

	users := repositories.NewUserRepository(db)
	logs := repositories.NewPostbackLogRepository(db)
	uow := repositories.NewUnitOfWork(db)
	reconcile := usecases.NewReconcileUsecase(users, logs, uow, testMinDeposit, nil)
	return &testStack{
		db:        db,
		users:     users,
		logs:      logs,
		postback:  usecases.NewPostbackUsecase(users, logs, uow, testSecret, testMinDeposit, nil),
		reconcile: reconcile,
		deposit:   usecases.NewDepositUsecase(users, reconcile, testMinDeposit),
	}
}

func (s *testStack) createUser(t *testing.T, login, clickID string) *entities.User {
	t.Helper()
	now := time.Now().UTC()
	u := &entities.User{
		Login:        login,
		Email:        login + "@qomex.top",
		PasswordHash: "hash",
		ClickID:      clickID,
		TotalDeposit: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.users.Create(context.Background(), u))
	return u
}

func (s *testStack) addLog(t *testing.T, event, clickID, traderID, amount string, at time.Time) *entities.PostbackLog {
	t.Helper()
	l := &entities.PostbackLog{
		Event:     event,
		ClickID:   clickID,
		TraderID:  traderID,
		Amount:    decimal.RequireFromString(amount),
		Currency:  "USD",
		Raw:       "{}",
		CreatedAt: at,
	}
	require.NoError(t, s.logs.Create(context.Background(), l))
	return l
}

func (s *testStack) reload(t *testing.T, id int64) *entities.User {
	t.Helper()
	u, err := s.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (s *testStack) countLogs(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Table("postbacks_log").Count(&n).Error)
	return n
}
