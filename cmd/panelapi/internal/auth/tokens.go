package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Infinity2209/user/cmd/panelapi/internal/db/bunx"
	"github.com/Infinity2209/user/pkg/access"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers malformed, expired and wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked is returned for tokens whose jti was revoked by logout.
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims is the JWT payload issued by /auth/login.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the identity carried by the claims.
func (c *Claims) Identity() access.Identity {
	return access.Identity{
		ID:    c.Subject,
		Name:  c.Name,
		Email: c.Email,
		Role:  c.Role,
	}
}

// IssuedToken is a signed token and its metadata.
type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret  []byte
	ttl     time.Duration
	revoked *RevocationList
	now     func() time.Time
}

// NewTokenIssuer creates an issuer. A nil revocation list disables revocation checks.
func NewTokenIssuer(secret string, ttl time.Duration, revoked *RevocationList) (*TokenIssuer, error) {
	if len(secret) < 16 {
		return nil, errors.New("token secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenIssuer{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}, nil
}

// Issue signs a token for identity.
func (i *TokenIssuer) Issue(identity access.Identity) (IssuedToken, error) {
	now := i.now().UTC().Truncate(time.Second)
	exp := now.Add(i.ttl)
	jti := bunx.NewUUIDv7()

	claims := &Claims{
		Name:  identity.Name,
		Email: identity.Email,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return IssuedToken{Token: signed, TokenID: jti, ExpiresAt: exp}, nil
}

// Verify parses and validates a token, rejecting revoked ones.
func (i *TokenIssuer) Verify(token string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing sub or jti", ErrInvalidToken)
	}
	if i.revoked != nil && i.revoked.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke denies the token with the given claims until it expires.
func (i *TokenIssuer) Revoke(claims *Claims) {
	if i.revoked == nil || claims == nil {
		return
	}
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	i.revoked.Revoke(claims.ID, exp)
}
