package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"puja-booking-server/config"
	"puja-booking-server/models"
	"puja-booking-server/types"
	"puja-booking-server/utils"
)

// AuthService handles credential checks and token operations for all roles
type AuthService struct {
	db  *gorm.DB
	cfg config.JWTConfig
}

func NewAuthService(db *gorm.DB, cfg config.JWTConfig) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

// TokenPair represents a pair of access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

func (s *AuthService) accessTTL() time.Duration {
	return time.Duration(s.cfg.ExpiryHours) * time.Hour
}

// RefreshTTL is how long refresh tokens live
func (s *AuthService) RefreshTTL() time.Duration {
	return time.Duration(s.cfg.RefreshTokenDays) * 24 * time.Hour
}

// LoadAccount fetches the account a token subject refers to
func (s *AuthService) LoadAccount(ctx context.Context, role types.Role, id uint) (models.Account, error) {
	account := models.NewAccount(role)
	if account == nil {
		return nil, types.ErrInvalidCredentials
	}
	err := s.db.WithContext(ctx).First(account, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Authenticate checks an email/password pair for the given role
func (s *AuthService) Authenticate(ctx context.Context, role types.Role, email, password string) (models.Account, error) {
	account := models.NewAccount(role)
	if account == nil {
		return nil, types.ErrInvalidCredentials
	}
	err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(password, account.PasswordDigest()) {
		return nil, types.ErrInvalidCredentials
	}
	if !account.Active() {
		return nil, types.ErrAccountInactive
	}
	return account, nil
}

// IssueTokens generates both access and refresh tokens
func (s *AuthService) IssueTokens(ctx context.Context, account models.Account, userAgent, ipAddress string) (*TokenPair, error) {
	access, err := utils.GenerateToken(s.cfg.Secret, s.cfg.Issuer, s.accessTTL(), account.AccountID(), account.AccountRole())
	if err != nil {
		return nil, err
	}

	raw, err := utils.RandomToken(32)
	if err != nil {
		return nil, err
	}
	refresh := &models.RefreshToken{
		Token:     raw,
		SubjectID: account.AccountID(),
		Role:      account.AccountRole(),
		ExpiresAt: time.Now().Add(s.RefreshTTL()),
		UserAgent: truncate(userAgent, 500),
		IPAddress: truncate(ipAddress, 45),
	}
	if err := s.db.WithContext(ctx).Create(refresh).Error; err != nil {
		return nil, err
	}

	log.Info().Str("role", string(account.AccountRole())).Uint("subject_id", account.AccountID()).Msg("tokens issued")
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    int64(s.accessTTL().Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// Refresh mints a new access token from a valid refresh token. The
// refresh token itself is kept.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, models.Account, error) {
	var rt models.RefreshToken
	err := s.db.WithContext(ctx).Where("token = ?", refreshToken).First(&rt).Error
	if err != nil || !rt.IsValid() {
		return nil, nil, types.ErrInvalidCredentials
	}

	account, err := s.LoadAccount(ctx, rt.Role, rt.SubjectID)
	if err != nil {
		return nil, nil, err
	}
	if !account.Active() {
		return nil, nil, types.ErrAccountInactive
	}

	access, err := utils.GenerateToken(s.cfg.Secret, s.cfg.Issuer, s.accessTTL(), rt.SubjectID, rt.Role)
	if err != nil {
		return nil, nil, err
	}
	s.db.WithContext(ctx).Model(&rt).Update("updated_at", time.Now())

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTTL().Seconds()),
		TokenType:    "Bearer",
	}, account, nil
}

// Revoke revokes a refresh token; unknown tokens are ignored
func (s *AuthService) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", refreshToken).
		Update("is_revoked", true).Error
}

// RevokeAll revokes every refresh token of an account
func (s *AuthService) RevokeAll(ctx context.Context, role types.Role, subjectID uint) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("subject_id = ? AND role = ? AND is_revoked = ?", subjectID, role, false).
		Update("is_revoked", true).Error
}

// CleanupExpiredTokens removes expired refresh tokens
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

// RegisterClientInput is the self-service signup payload
type RegisterClientInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

// RegisterClient creates an active client account
func (s *AuthService) RegisterClient(ctx context.Context, in RegisterClientInput) (*models.Client, error) {
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	client := &models.Client{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		IsActive:     true,
	}
	err = s.db.WithContext(ctx).Create(client).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, types.Conflict("EMAIL_TAKEN", "An account with this email already exists")
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// EnsureAdmin creates the bootstrap admin when no admin exists yet
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Admin{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.Email == "" || cfg.Password == "" {
		log.Warn().Msg("no admin account exists and ADMIN_EMAIL/ADMIN_PASSWORD are unset")
		return nil
	}

	hash, err := utils.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	admin := &models.Admin{Name: cfg.Name, Email: cfg.Email, PasswordHash: hash, IsActive: true}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return err
	}
	log.Info().Str("email", admin.Email).Msg("bootstrap admin created")
	return nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
