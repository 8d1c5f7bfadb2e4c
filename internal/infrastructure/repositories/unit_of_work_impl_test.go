package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUnitOfWork_DoCommitAndRollback(t *testing.T) {
	db := newTestDB(t)
	createPostbackLogTable(t, db)
	u := &UnitOfWorkImpl{db: db}

	err := u.Do(context.Background(), func(ctx context.Context) error {
		return GetDB(ctx, db).Exec("INSERT INTO postbacks_log(event, click_id) VALUES (?, ?)", "deposit", "a").Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Table("postbacks_log").Count(&count).Error)
	require.Equal(t, int64(1), count)

	err = u.Do(context.Background(), func(ctx context.Context) error {
		if err := GetDB(ctx, db).Exec("INSERT INTO postbacks_log(event, click_id) VALUES (?, ?)", "deposit", "b").Error; err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	require.Error(t, err)

	require.NoError(t, db.Table("postbacks_log").Count(&count).Error)
	require.Equal(t, int64(1), count, "second insert must be rolled back")
}

func TestUnitOfWork_NestedDoReusesTransaction(t *testing.T) {
	db := newTestDB(t)
	createPostbackLogTable(t, db)
	u := &UnitOfWorkImpl{db: db}

	err := u.Do(context.Background(), func(outer context.Context) error {
		outerTx := outer.Value(txKey)
		return u.Do(outer, func(inner context.Context) error {
			require.Equal(t, outerTx, inner.Value(txKey))
			return GetDB(inner, db).Exec("INSERT INTO postbacks_log(event) VALUES ('registration')").Error
		})
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Table("postbacks_log").Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestUnitOfWork_WithLockAndGetDB(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}

	ctx := u.WithLock(context.Background())
	require.Equal(t, true, ctx.Value(lockKey))
	require.NotNil(t, GetDB(ctx, db))

	plainDB := u.GetDB(context.Background())
	require.NotNil(t, plainDB)

	tx := db.Begin()
	txCtx := context.WithValue(context.Background(), txKey, tx)
	require.Equal(t, tx.Statement.ConnPool, u.GetDB(txCtx).Statement.ConnPool)
	tx.Rollback()
}

func TestUnitOfWork_CommitFailure(t *testing.T) {
	db := newTestDB(t)
	createPostbackLogTable(t, db)
	u := &UnitOfWorkImpl{db: db}

	orig := commitTx
	t.Cleanup(func() { commitTx = orig })
	commitTx = func(*gorm.DB) error { return errors.New("commit failed") }

	err := u.Do(context.Background(), func(ctx context.Context) error {
		return GetDB(ctx, db).Exec("INSERT INTO postbacks_log(event) VALUES ('deposit')").Error
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to commit transaction")

	var count int64
	require.NoError(t, db.Table("postbacks_log").Count(&count).Error)
	require.Equal(t, int64(0), count)
}
