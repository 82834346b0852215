package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	p := Principal{AccountID: "worker-42", Name: "Ana Souza", Role: RoleAdmin}

	token, err := GenerateToken(p, testSecret, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, p, *got)
	assert.True(t, got.IsAdmin())
}

func TestValidateToken_DefaultsToUserRole(t *testing.T) {
	token := signClaims(t, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "employer-7",
	})

	got, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, got.Role)
	assert.False(t, got.IsAdmin())
}

func TestValidateToken(t *testing.T) {
	p := Principal{AccountID: "worker-42", Name: "Ana", Role: RoleUser}

	validToken, err := GenerateToken(p, testSecret, 24*time.Hour)
	require.NoError(t, err)

	expiredToken, err := GenerateToken(p, testSecret, -1*time.Hour)
	require.NoError(t, err)

	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name      string
		token     string
		secret    string
		wantErrIs error
	}{
		{
			name:      "expired token",
			token:     expiredToken,
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenExpired,
		},
		{
			name:      "wrong secret",
			token:     validToken,
			secret:    "wrong-secret",
			wantErrIs: jwt.ErrTokenSignatureInvalid,
		},
		{
			name:      "malformed token",
			token:     "not.a.valid.jwt",
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenMalformed,
		},
		{
			name:      "missing user id",
			token:     signClaims(t, tokenClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}, Role: RoleUser}),
			secret:    testSecret,
			wantErrIs: ErrInvalidClaims,
		},
		{
			name:      "unknown role",
			token:     signClaims(t, tokenClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}, UserID: "x", Role: "root"}),
			secret:    testSecret,
			wantErrIs: ErrInvalidClaims,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateToken(tc.token, tc.secret)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErrIs)
		})
	}
}

func TestValidateToken_RejectsNonHMAC(t *testing.T) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
		UserID: "worker-42",
		Role:   RoleAdmin,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateToken(signed, testSecret)
	require.Error(t, err)
}

func signClaims(t *testing.T, c tokenClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}
