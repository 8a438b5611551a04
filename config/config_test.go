package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "alphavantage", cfg.QuoteProvider)
	assert.Equal(t, 5*time.Second, cfg.QuoteTimeout)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTTL)

	cash, err := cfg.InitialCash()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10000).Equal(cash))
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nQUOTE_PROVIDER=static\nINITIAL_CASH=250.50\n"), 0o600))
	for _, k := range []string{"JWT_SECRET", "QUOTE_PROVIDER", "INITIAL_CASH"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "static", cfg.QuoteProvider)
	cash, err := cfg.InitialCash()
	require.NoError(t, err)
	assert.Equal(t, "250.5", cash.String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	_, err := Load(missing)
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s")
	t.Setenv("QUOTE_PROVIDER", "yahoo")
	_, err = Load(missing)
	assert.Error(t, err)

	t.Setenv("QUOTE_PROVIDER", "static")
	t.Setenv("INITIAL_CASH", "-1")
	_, err = Load(missing)
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	c := Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "finance", DBPort: "5432", DBSSLMode: "disable", DBTimeZone: "UTC"}
	assert.Equal(t, "host=db user=u password=p dbname=finance port=5432 sslmode=disable TimeZone=UTC", c.PostgresDSN())
}

func TestOpenSQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "x.db"), nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.NoError(t, sqlDB.Ping())
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}
