// Package dbtest builds throwaway sqlite-backed ledger stores for tests.
package dbtest

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"stocks-ledger/config"
	"stocks-ledger/database"
	"stocks-ledger/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Open returns a migrated database in t's temp dir, closed on cleanup.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := config.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"), nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func NewStore(t testing.TB) *database.Store {
	t.Helper()
	return database.NewStore(Open(t))
}

// CreateUser inserts a user with the given cash and returns its ID.
func CreateUser(t testing.TB, store *database.Store, username string, cash decimal.Decimal) uint {
	t.Helper()
	u := &models.User{Username: username, Hash: "x", Cash: cash}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u.ID
}

// Logger discards everything.
func Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
