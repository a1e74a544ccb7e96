package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	tok, err := svc.CreateForUser("user-1", "shelter")
	require.NoError(t, err)

	claims, err := svc.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "shelter", claims.Role)
}

func TestTokenService_RejectsForeignSecret(t *testing.T) {
	tok, err := NewTokenService("one", time.Hour).CreateForUser("user-1", "adopter")
	require.NoError(t, err)

	_, err = NewTokenService("two", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService("secret", time.Minute)
	tok, err := svc.CreateForUser("user-1", "adopter")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewEncryptor([]byte("any length secret"))
	require.NoError(t, err)

	ct, err := enc.Encrypt("Is Biscuit still available?")
	require.NoError(t, err)
	assert.NotContains(t, ct, "Biscuit")

	pt, err := enc.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "Is Biscuit still available?", pt)
}

func TestEncryptor_RejectsTampered(t *testing.T) {
	enc, err := NewEncryptor([]byte("k"))
	require.NoError(t, err)

	_, err = enc.Decrypt("bm90LWNpcGhlcnRleHQ=")
	assert.Error(t, err)
	_, err = enc.Decrypt("%%%")
	assert.Error(t, err)

	_, err = NewEncryptor(nil)
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)
	hashed, err := h.Hash("hunter22")
	require.NoError(t, err)

	assert.NoError(t, h.Verify("hunter22", hashed))
	assert.ErrorIs(t, h.Verify("wrong", hashed), ErrPasswordMismatch)

	err = h.Verify("hunter22", "not-a-hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)

	_, err = h.Hash(strings.Repeat("x", 73))
	assert.Error(t, err)
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(1).cost)
	assert.Equal(t, bcrypt.MaxCost, NewPasswordHasher(99).cost)
}
