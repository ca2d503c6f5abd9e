// Package auth verifies bearer credentials and resolves them to the caller's
// external identity. Two issuers are accepted: tokens signed by this service
// with HS256, and tokens signed by an external identity provider with RS256.
// Both carry the external identity in the "sub" claim.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yukikurage/event-platform-api/internal/constants"
)

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrMissingSubject     = errors.New("token has no subject")
	ErrProviderNotEnabled = errors.New("identity provider tokens are not accepted")
)

// Claims are the token claims this service reads.
type Claims struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"given_name,omitempty"`
	LastName  string `json:"family_name,omitempty"`
	jwt.RegisteredClaims
}

// ExternalID returns the caller's external identity.
func (c *Claims) ExternalID() string {
	return c.Subject
}

// IdentityResolver turns a credential into verified claims.
type IdentityResolver interface {
	Resolve(token string) (*Claims, error)
}

// TokenIssuer signs tokens for users that authenticated locally.
type TokenIssuer interface {
	Issue(externalID, email string) (string, error)
}

// TokenManager issues HS256 tokens and verifies both HS256 and provider RS256 tokens.
type TokenManager struct {
	secret    []byte
	ttl       time.Duration
	idpKey    *rsa.PublicKey
	idpIssuer string
}

// NewTokenManager creates a TokenManager signing with secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl == 0 {
		ttl = constants.DefaultTokenTTL
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// WithIdentityProvider enables RS256 tokens verified against publicKeyPEM.
// When issuer is not empty the token's "iss" must match it.
func (m *TokenManager) WithIdentityProvider(publicKeyPEM, issuer string) error {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return fmt.Errorf("failed to parse identity provider key: %w", err)
	}
	m.idpKey = key
	m.idpIssuer = issuer
	return nil
}

// Issue signs a token whose subject is externalID.
func (m *TokenManager) Issue(externalID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   externalID,
			Issuer:    constants.TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Resolve verifies token and returns its claims.
func (m *TokenManager) Resolve(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	switch token.Method.Alg() {
	case jwt.SigningMethodHS256.Alg():
		if claims.Issuer != constants.TokenIssuer {
			return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
		}
	case jwt.SigningMethodRS256.Alg():
		if m.idpIssuer != "" && claims.Issuer != m.idpIssuer {
			return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
		}
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, ErrMissingSubject)
	}
	return claims, nil
}

func (m *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		return m.secret, nil
	case *jwt.SigningMethodRSA:
		if m.idpKey == nil {
			return nil, ErrProviderNotEnabled
		}
		return m.idpKey, nil
	default:
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
}
