package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"stocks-ledger/apperr"
	"stocks-ledger/database"
	"stocks-ledger/database/dbtest"
	"stocks-ledger/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertCash(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "cash: want %s, got %s", want, got)
}

func TestInUserTxCommitsTradeAndCash(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)
	id := dbtest.CreateUser(t, store, "alice", dec("1000"))

	err := store.InUserTx(ctx, id, func(tx *database.LedgerTx) error {
		assertCash(t, "1000", tx.Cash())
		if err := tx.AppendTrade(&models.Trade{Symbol: "AAPL", Shares: 4, Price: dec("12.5"), Side: models.Buy}); err != nil {
			return err
		}
		return tx.AdjustCash(dec("-50"))
	})
	require.NoError(t, err)

	cash, err := store.CurrentCash(ctx, id)
	require.NoError(t, err)
	assertCash(t, "950", cash)

	trades, err := store.TradesFor(ctx, id)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, id, trades[0].UserID)
	assert.Equal(t, "AAPL", trades[0].Symbol)
	assert.Equal(t, int64(4), trades[0].Shares)
	assert.True(t, dec("12.5").Equal(trades[0].Price))
	assert.False(t, trades[0].ExecutedAt.IsZero())
}

func TestInUserTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)
	id := dbtest.CreateUser(t, store, "bob", dec("100"))
	boom := errors.New("boom")

	err := store.InUserTx(ctx, id, func(tx *database.LedgerTx) error {
		require.NoError(t, tx.AppendTrade(&models.Trade{Symbol: "IBM", Shares: 1, Price: dec("10"), Side: models.Buy}))
		require.NoError(t, tx.AdjustCash(dec("-10")))
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, apperr.ErrStorageFailure)

	cash, err := store.CurrentCash(ctx, id)
	require.NoError(t, err)
	assertCash(t, "100", cash)

	trades, err := store.TradesFor(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestAdjustCashNeverNegative(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)
	id := dbtest.CreateUser(t, store, "carol", dec("5"))

	err := store.InUserTx(ctx, id, func(tx *database.LedgerTx) error {
		return tx.AdjustCash(dec("-5.0001"))
	})
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	cash, err := store.CurrentCash(ctx, id)
	require.NoError(t, err)
	assertCash(t, "5", cash)
}

func TestAppendTradeRejectsMalformed(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)
	id := dbtest.CreateUser(t, store, "dave", dec("5"))

	for name, tr := range map[string]models.Trade{
		"empty symbol": {Shares: 1, Price: dec("1"), Side: models.Buy},
		"zero shares":  {Symbol: "A", Price: dec("1"), Side: models.Buy},
		"zero price":   {Symbol: "A", Shares: 1, Price: decimal.Zero, Side: models.Buy},
		"bad side":     {Symbol: "A", Shares: 1, Price: dec("1"), Side: "hold"},
	} {
		t.Run(name, func(t *testing.T) {
			tr := tr
			err := store.InUserTx(ctx, id, func(tx *database.LedgerTx) error {
				return tx.AppendTrade(&tr)
			})
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestInUserTxUnknownUser(t *testing.T) {
	store := dbtest.NewStore(t)

	called := false
	err := store.InUserTx(context.Background(), 42, func(*database.LedgerTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.False(t, called)
}

func TestTradesForNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)
	id := dbtest.CreateUser(t, store, "erin", dec("1000"))
	other := dbtest.CreateUser(t, store, "frank", dec("1000"))
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, sym := range []string{"AAA", "BBB", "CCC"} {
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.InUserTx(ctx, id, func(tx *database.LedgerTx) error {
			return tx.AppendTrade(&models.Trade{Symbol: sym, Shares: 1, Price: dec("1"), Side: models.Buy, ExecutedAt: at})
		}))
	}
	require.NoError(t, store.InUserTx(ctx, other, func(tx *database.LedgerTx) error {
		return tx.AppendTrade(&models.Trade{Symbol: "ZZZ", Shares: 1, Price: dec("1"), Side: models.Buy})
	}))

	trades, err := store.TradesFor(ctx, id)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, "CCC", trades[0].Symbol)
	assert.Equal(t, "BBB", trades[1].Symbol)
	assert.Equal(t, "AAA", trades[2].Symbol)

	err = store.InUserTx(ctx, id, func(tx *database.LedgerTx) error {
		got, err := tx.TradesFor("BBB")
		require.NoError(t, err)
		assert.Len(t, got, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)
	id := dbtest.CreateUser(t, store, "gina", dec("300"))

	require.NoError(t, store.InUserTx(ctx, id, func(tx *database.LedgerTx) error {
		if err := tx.AppendTrade(&models.Trade{Symbol: "IBM", Shares: 2, Price: dec("100"), Side: models.Buy}); err != nil {
			return err
		}
		return tx.AdjustCash(dec("-200"))
	}))

	cash, trades, err := store.Snapshot(ctx, id)
	require.NoError(t, err)
	assertCash(t, "100", cash)
	require.Len(t, trades, 1)

	_, _, err = store.Snapshot(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestCreateUserDuplicate(t *testing.T) {
	ctx := context.Background()
	store := dbtest.NewStore(t)
	dbtest.CreateUser(t, store, "henry", dec("1"))

	err := store.CreateUser(ctx, &models.User{Username: "henry", Hash: "y", Cash: dec("1")})
	assert.ErrorIs(t, err, apperr.ErrDuplicateUsername)

	u, err := store.UserByName(ctx, "henry")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "x", u.Hash)

	missing, err := store.UserByName(ctx, "Henry")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
