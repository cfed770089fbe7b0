// Package auth binds bearer tokens to user ids.
package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/wishkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims and the id of the token owner.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// Issuer signs and verifies HS256 tokens. A zero validity issues tokens
// without an exp claim, which never expire.
type Issuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewIssuer(secret []byte, validity time.Duration) *Issuer {
	return &Issuer{secret: secret, validity: validity, now: time.Now}
}

func (i *Issuer) Issue(userID string) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: userID,
	}
	if i.validity > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.validity))
	}

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Parse returns the user id the token was issued for. Anything that is not
// a valid token signed with our key yields common.ErrInvalidToken.
func (i *Issuer) Parse(token string) (string, error) {
	claims := &Claims{}

	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !t.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
