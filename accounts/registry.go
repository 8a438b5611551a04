// Package accounts registers users and checks their credentials.
package accounts

import (
	"context"
	"strings"

	"stocks-ledger/apperr"
	"stocks-ledger/database"
	"stocks-ledger/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultInitialCash is the balance a freshly registered user starts with.
var DefaultInitialCash = decimal.NewFromInt(10000)

// Verifier hashes passwords and checks them against stored hashes.
type Verifier interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

type Registry struct {
	store       *database.Store
	verifier    Verifier
	initialCash decimal.Decimal
	log         *logrus.Entry
}

func NewRegistry(store *database.Store, verifier Verifier, initialCash decimal.Decimal, log *logrus.Logger) *Registry {
	if initialCash.IsNegative() {
		initialCash = decimal.Zero
	}
	return &Registry{
		store:       store,
		verifier:    verifier,
		initialCash: initialCash.Round(models.PriceScale),
		log:         log.WithField("component", "accounts"),
	}
}

// Register creates a user named username holding passwordHash. Names are
// compared exactly, so "alice" and "Alice" are different users.
func (r *Registry) Register(ctx context.Context, username, passwordHash string) (uint, error) {
	if strings.TrimSpace(username) == "" {
		return 0, apperr.New(apperr.InvalidInput, "username is required")
	}
	if passwordHash == "" {
		return 0, apperr.New(apperr.InvalidInput, "password hash is required")
	}

	existing, err := r.store.UserByName(ctx, username)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, apperr.New(apperr.DuplicateUsername, "username %q already exists", username)
	}

	// The unique index still catches a concurrent registration of the same name.
	user := &models.User{Username: username, Hash: passwordHash, Cash: r.initialCash}
	if err := r.store.CreateUser(ctx, user); err != nil {
		return 0, err
	}
	r.log.WithFields(logrus.Fields{"user_id": user.ID, "username": username}).Info("user registered")
	return user.ID, nil
}

// SignUp hashes password with the registry's verifier and registers the user.
func (r *Registry) SignUp(ctx context.Context, username, password string) (uint, error) {
	if password == "" {
		return 0, apperr.New(apperr.InvalidInput, "password is required")
	}
	hash, err := r.verifier.Hash(password)
	if err != nil {
		return 0, apperr.Wrap(err, apperr.InvalidInput, "hash password")
	}
	return r.Register(ctx, username, hash)
}

// Authenticate returns the ID of the user whose stored hash matches password.
// Unknown names and wrong passwords are indistinguishable to the caller.
func (r *Registry) Authenticate(ctx context.Context, username, password string) (uint, error) {
	user, err := r.store.UserByName(ctx, username)
	if err != nil {
		return 0, err
	}
	if user == nil || !r.verifier.Verify(user.Hash, password) {
		return 0, apperr.New(apperr.InvalidCredentials, "invalid username and/or password")
	}
	return user.ID, nil
}
