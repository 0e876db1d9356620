package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puja-booking-server/config"
	"puja-booking-server/models"
	"puja-booking-server/types"
	"puja-booking-server/utils"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(newTestDB(t), config.JWTConfig{Secret: "test-secret", ExpiryHours: 1, RefreshTokenDays: 30, Issuer: "test"})
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	client, err := svc.RegisterClient(ctx, RegisterClientInput{Name: "Kavya", Email: "Kavya@Example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "kavya@example.com", client.Email)

	_, err = svc.RegisterClient(ctx, RegisterClientInput{Name: "Dup", Email: "kavya@example.com", Password: "whatever1"})
	assert.Error(t, err)

	account, err := svc.Authenticate(ctx, types.RoleClient, "KAVYA@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, client.ID, account.AccountID())

	_, err = svc.Authenticate(ctx, types.RoleClient, "kavya@example.com", "wrong")
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)

	// same email, different role table
	_, err = svc.Authenticate(ctx, types.RoleAdmin, "kavya@example.com", "correct-horse")
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)
}

func TestAuthInactiveAccount(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	hash, err := utils.HashPassword("agent-pass")
	require.NoError(t, err)
	require.NoError(t, svc.db.Create(&models.Agent{Name: "Off", Email: "off@example.com", PasswordHash: hash, IsActive: false}).Error)

	_, err = svc.Authenticate(ctx, types.RoleAgent, "off@example.com", "agent-pass")
	assert.ErrorIs(t, err, types.ErrAccountInactive)
}

func TestAuthTokensRefreshAndRevoke(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	client, err := svc.RegisterClient(ctx, RegisterClientInput{Name: "Nila", Email: "nila@example.com", Password: "password1"})
	require.NoError(t, err)

	pair, err := svc.IssueTokens(ctx, client, "go-test", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	claims, err := utils.VerifyToken("test-secret", pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, client.ID, claims.SubjectID)
	assert.Equal(t, types.RoleClient, claims.Role)

	refreshed, account, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, client.ID, account.AccountID())

	require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)

	_, _, err = svc.Refresh(ctx, "unknown")
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)
}

func TestAuthCleanupExpiredTokens(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.db.Create(&models.RefreshToken{Token: "old", SubjectID: 1, Role: types.RoleClient, ExpiresAt: time.Now().Add(-time.Hour)}).Error)
	require.NoError(t, svc.db.Create(&models.RefreshToken{Token: "new", SubjectID: 1, Role: types.RoleClient, ExpiresAt: time.Now().Add(time.Hour)}).Error)

	n, err := svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAuthEnsureAdmin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	cfg := config.AdminConfig{Name: "Root", Email: "root@example.com", Password: "admin-pass"}

	require.NoError(t, svc.EnsureAdmin(ctx, cfg))
	require.NoError(t, svc.EnsureAdmin(ctx, cfg))

	var count int64
	require.NoError(t, svc.db.Model(&models.Admin{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	account, err := svc.Authenticate(ctx, types.RoleAdmin, "root@example.com", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, account.AccountRole())
}
