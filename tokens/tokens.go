// Package tokens issues JWT access tokens and Redis-backed refresh tokens.
package tokens

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevoked      = errors.New("refresh token revoked or expired")
)

type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	rdb        *redis.Client
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration, rdb *redis.Client) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		rdb:        rdb,
		now:        time.Now,
	}
}

func refreshKey(id string) string {
	return fmt.Sprintf("refresh:%s", id)
}

// Issue signs an access token for userID and stores a new refresh token.
func (i *Issuer) Issue(ctx context.Context, userID uint) (Pair, error) {
	access, err := i.sign(userID, "", i.accessTTL)
	if err != nil {
		return Pair{}, err
	}

	id := uuid.NewString()
	refresh, err := i.sign(userID, id, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	if err := i.rdb.Set(ctx, refreshKey(id), strconv.FormatUint(uint64(userID), 10), i.refreshTTL).Err(); err != nil {
		return Pair{}, errors.Wrap(err, "store refresh token")
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Parse validates an access token and returns its user ID.
func (i *Issuer) Parse(token string) (uint, error) {
	claims, err := i.parse(token)
	if err != nil {
		return 0, err
	}
	if claims.ID != "" {
		return 0, ErrInvalidToken
	}
	return subject(claims)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair issued.
func (i *Issuer) Refresh(ctx context.Context, refresh string) (Pair, error) {
	claims, err := i.parse(refresh)
	if err != nil {
		return Pair{}, err
	}
	if claims.ID == "" {
		return Pair{}, ErrInvalidToken
	}
	userID, err := subject(claims)
	if err != nil {
		return Pair{}, err
	}

	n, err := i.rdb.Del(ctx, refreshKey(claims.ID)).Result()
	if err != nil {
		return Pair{}, errors.Wrap(err, "revoke refresh token")
	}
	if n == 0 {
		return Pair{}, ErrRevoked
	}
	return i.Issue(ctx, userID)
}

// Revoke deletes a refresh token. Unknown or malformed tokens are ignored.
func (i *Issuer) Revoke(ctx context.Context, refresh string) error {
	claims, err := i.parse(refresh)
	if err != nil || claims.ID == "" {
		return nil
	}
	return errors.Wrap(i.rdb.Del(ctx, refreshKey(claims.ID)).Err(), "revoke refresh token")
}

func (i *Issuer) sign(userID uint, id string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (i *Issuer) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	keyFunc := func(*jwt.Token) (interface{}, error) { return i.secret, nil }
	_, err := jwt.ParseWithClaims(token, claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	return claims, nil
}

func subject(claims *jwt.RegisteredClaims) (uint, error) {
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
