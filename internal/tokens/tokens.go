package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mvoronin/taskspace/internal/apperr"
	"github.com/mvoronin/taskspace/internal/hash"
)

const refreshTokenLength = 32

// Issuer mints short-lived signed access tokens and opaque refresh tokens.
// Constructed once at startup and passed into the handlers that need it.
type Issuer struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{Secret: secret, AccessTTL: accessTTL, RefreshTTL: refreshTTL}
}

// CreateAccessToken signs an HS256 token carrying the username and expiry.
func (i *Issuer) CreateAccessToken(username string) (string, time.Time, error) {
	exp := time.Now().Add(i.AccessTTL)
	claims := jwt.MapClaims{
		"username": username,
		"exp":      exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Payload decodes and validates an access token. Expired tokens fail with
// apperr.TokenExpired, anything else wrong with the token (bad signature,
// wrong algorithm, garbage input) with apperr.InvalidToken.
func (i *Issuer) Payload(tokenStr string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected sign method %q", t.Method.Alg())
		}
		return i.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.TokenExpired()
		}
		return nil, apperr.InvalidToken()
	}
	if !tkn.Valid {
		return nil, apperr.InvalidToken()
	}
	return claims, nil
}

// NewRefreshToken returns an opaque random token. It carries no claims, the
// server keeps only a salted hash of it in the login record.
func (i *Issuer) NewRefreshToken() string {
	return hash.RandomString(refreshTokenLength)
}

func (i *Issuer) RefreshExpiry() time.Time {
	return time.Now().Add(i.RefreshTTL)
}
