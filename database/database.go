package database

import (
	"context"
	"errors"
	"strings"
	"sync"

	"stocks-ledger/apperr"
	"stocks-ledger/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const lockStripes = 256

// Store is the ledger store: the users table with its mutable cash column and
// the append-only trades table. Work on a single user is serialized through a
// striped in-process lock plus a row lock on the user record, so several
// processes sharing one postgres database stay consistent too.
type Store struct {
	db       *gorm.DB
	rowLocks bool
	locks    [lockStripes]sync.RWMutex
}

func NewStore(db *gorm.DB) *Store {
	// sqlite has no row locks; its single connection already serializes writers.
	return &Store{db: db, rowLocks: db.Dialector.Name() != "sqlite"}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Trade{})
}

func (s *Store) stripe(userID uint) *sync.RWMutex {
	return &s.locks[userID%lockStripes]
}

// InUserTx runs fn inside one database transaction holding the user's row
// lock. Returning an error from fn rolls back every write made through the
// LedgerTx.
func (s *Store) InUserTx(ctx context.Context, userID uint, fn func(*LedgerTx) error) error {
	mu := s.stripe(userID)
	mu.Lock()
	defer mu.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := s.lockUser(tx, "UPDATE").First(&user, userID).Error; err != nil {
			return userErr(err, userID)
		}
		return fn(&LedgerTx{tx: tx, user: &user})
	})
	return apperr.Storage(err, "ledger transaction")
}

// Snapshot returns the user's cash and full trade log (newest first) as of a
// single point between committed trades.
func (s *Store) Snapshot(ctx context.Context, userID uint) (decimal.Decimal, []models.Trade, error) {
	mu := s.stripe(userID)
	mu.RLock()
	defer mu.RUnlock()

	var (
		cash   decimal.Decimal
		trades []models.Trade
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := s.lockUser(tx, "SHARE").First(&user, userID).Error; err != nil {
			return userErr(err, userID)
		}
		cash = user.Cash
		return newestFirst(tx.Where("user_id = ?", userID)).Find(&trades).Error
	})
	if err != nil {
		return decimal.Zero, nil, apperr.Storage(err, "ledger snapshot")
	}
	return cash, trades, nil
}

func (s *Store) CurrentCash(ctx context.Context, userID uint) (decimal.Decimal, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "cash").First(&user, userID).Error; err != nil {
		return decimal.Zero, apperr.Storage(userErr(err, userID), "load cash")
	}
	return user.Cash, nil
}

// TradesFor returns the user's trade log, newest first.
func (s *Store) TradesFor(ctx context.Context, userID uint) ([]models.Trade, error) {
	var trades []models.Trade
	if err := newestFirst(s.db.WithContext(ctx).Where("user_id = ?", userID)).Find(&trades).Error; err != nil {
		return nil, apperr.Storage(err, "load trades")
	}
	return trades, nil
}

// CreateUser inserts user. A unique-index violation on username surfaces as
// DuplicateUsername.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return apperr.New(apperr.DuplicateUsername, "username %q already exists", user.Username)
	}
	return apperr.Storage(err, "create user")
}

// UserByName returns nil, nil when no user has exactly that name.
func (s *Store) UserByName(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err, "load user")
	}
	return &user, nil
}

func (s *Store) lockUser(tx *gorm.DB, strength string) *gorm.DB {
	if !s.rowLocks {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: strength})
}

func newestFirst(q *gorm.DB) *gorm.DB {
	return q.Order("executed_at DESC").Order("id DESC")
}

func userErr(err error, userID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.InvalidInput, "unknown user %d", userID)
	}
	return err
}

// isUniqueViolation covers drivers that do not translate errors for gorm.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}
