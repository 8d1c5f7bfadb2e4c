package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createUserTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		login TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		click_id TEXT NOT NULL UNIQUE,
		trader_id TEXT UNIQUE,
		first_deposit TEXT,
		total_deposit TEXT NOT NULL DEFAULT '0',
		deposit_verified BOOLEAN NOT NULL DEFAULT 0,
		reset_token TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createPostbackLogTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE postbacks_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event TEXT,
		click_id TEXT,
		trader_id TEXT,
		amount TEXT NOT NULL DEFAULT '0',
		currency TEXT,
		raw TEXT,
		processed BOOLEAN NOT NULL DEFAULT 0,
		user_id INTEGER,
		created_at DATETIME,
		processed_at DATETIME
	);`)
}
