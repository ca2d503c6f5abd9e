package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndResolve(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.Issue("local_123", "jane@example.com")
	require.NoError(t, err)

	claims, err := m.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, "local_123", claims.ExternalID())
	assert.Equal(t, "jane@example.com", claims.Email)
}

func TestTokenManager_RejectsBadTokens(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)
	expired := NewTokenManager("test-secret", -time.Minute)

	foreign, err := other.Issue("local_123", "")
	require.NoError(t, err)
	stale, err := expired.Issue("local_123", "")
	require.NoError(t, err)
	noSubject, err := m.Issue("", "")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "local_123",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "local_123",
		"iss": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"wrong secret", foreign},
		{"expired", stale},
		{"no subject", noSubject},
		{"alg none", unsigned},
		{"wrong issuer", wrongIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Resolve(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenManager_IdentityProvider(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	providerToken := func(issuer string) string {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"sub":         "idp|42",
			"iss":         issuer,
			"email":       "sam@example.com",
			"given_name":  "Sam",
			"family_name": "Smith",
			"exp":         time.Now().Add(time.Hour).Unix(),
		}).SignedString(key)
		require.NoError(t, err)
		return signed
	}

	m := NewTokenManager("test-secret", time.Hour)
	_, err = m.Resolve(providerToken("https://idp.example.com/"))
	assert.ErrorIs(t, err, ErrInvalidToken, "provider tokens need a configured key")

	require.NoError(t, m.WithIdentityProvider(publicPEM, "https://idp.example.com/"))

	claims, err := m.Resolve(providerToken("https://idp.example.com/"))
	require.NoError(t, err)
	assert.Equal(t, "idp|42", claims.ExternalID())
	assert.Equal(t, "Sam", claims.FirstName)
	assert.Equal(t, "Smith", claims.LastName)

	_, err = m.Resolve(providerToken("https://evil.example.com/"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WithIdentityProvider_BadKey(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	assert.Error(t, m.WithIdentityProvider("not a pem", ""))
}
