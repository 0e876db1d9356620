package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puja-booking-server/types"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "test", time.Hour, 42, types.RoleAgent)
	require.NoError(t, err)

	claims, err := VerifyToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.SubjectID)
	assert.Equal(t, types.RoleAgent, claims.Role)
	assert.Equal(t, "test", claims.Issuer)
}

func TestVerifyTokenRejects(t *testing.T) {
	valid, err := GenerateToken("secret", "test", time.Hour, 1, types.RoleAdmin)
	require.NoError(t, err)
	expired, err := GenerateToken("secret", "test", -time.Minute, 1, types.RoleAdmin)
	require.NoError(t, err)
	badRole, err := GenerateToken("secret", "test", time.Hour, 1, types.Role("root"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other", valid},
		{"expired", "secret", expired},
		{"unknown role", "secret", badRole},
		{"garbage", "secret", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyToken(tt.secret, tt.token)
			assert.Error(t, err)
		})
	}
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(32)
	require.NoError(t, err)
	b, err := RandomToken(32)
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
