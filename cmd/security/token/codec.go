package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the identity envelope embedded in access tokens.
// Roles are small integers (1=admin, 2=user) matching the directory schema.
type Claims struct {
	Login     string
	Name      string
	Surname   string
	Roles     []int16
	ExpiresAt time.Time
}

type accessClaims struct {
	jwt.RegisteredClaims
	Name    string  `json:"name,omitempty"`
	Surname string  `json:"surname,omitempty"`
	Roles   []int16 `json:"roles,omitempty"`
}

// Codec signs and verifies access tokens with a symmetric secret.
//
// The refresh side of the protocol deliberately does not use this codec:
// refresh tokens are opaque (see NewOpaqueRefreshToken), so compromising the
// access-token secret cannot forge refresh material.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec builds a Codec from a signing secret and access-token TTL.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrConfig
	}
	if ttl <= 0 {
		return nil, ErrConfig
	}
	return &Codec{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the configured access-token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs an access token for cl with expiry now+TTL.
func (c *Codec) Issue(cl Claims, now time.Time) (string, time.Time, error) {
	exp := now.Add(c.ttl)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cl.Login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Name:    cl.Name,
		Surname: cl.Surname,
		Roles:   cl.Roles,
	})

	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Decode verifies signature and expiry and returns the embedded claims.
//
// Returns ErrTokenExpired when now is past the embedded expiry and
// ErrInvalidToken for every other failure (bad signature, wrong algorithm,
// malformed payload, missing subject).
func (c *Codec) Decode(tokenString string, now time.Time) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&accessClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrInvalidToken
	}

	ac, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if ac.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	cl := Claims{
		Login:   ac.Subject,
		Name:    ac.Name,
		Surname: ac.Surname,
		Roles:   ac.Roles,
	}
	if ac.ExpiresAt != nil {
		cl.ExpiresAt = ac.ExpiresAt.Time
	}
	return cl, nil
}
