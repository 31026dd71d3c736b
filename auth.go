package main

import (
	"context"
	"errors"
	"time"

	"ffstats/models"
	"ffstats/pkg/password"
	"ffstats/pkg/token"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Domain failures form a closed set so the handler layer can map them
// exhaustively with errors.Is.
var (
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrOAuthUser           = errors.New("account has no local password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// AuthService orchestrates registration, login, token refresh and logout
// over the user and session tables.
type AuthService struct {
	db     *gorm.DB
	tokens *token.Issuer
	log    *logrus.Logger
}

func NewAuthService(db *gorm.DB, tokens *token.Issuer, log *logrus.Logger) *AuthService {
	return &AuthService{db: db, tokens: tokens, log: log}
}

type AuthUser struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	ManagerID string     `json:"managerId"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Credentials is the register/login response payload. RefreshToken is empty
// (and omitted from JSON) when the client did not ask to be remembered.
type Credentials struct {
	User         AuthUser `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	ExpiresIn    int      `json:"expiresIn"`
}

type RefreshResult struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

// Register creates an account and signs the new user straight in. The unique
// index on users.email is the authority for duplicates; the pre-check only
// spares a bcrypt hash in the common case.
func (s *AuthService) Register(ctx context.Context, email, managerID, plainPassword string) (*Credentials, error) {
	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailExists
	}

	digest, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}

	user := models.User{Email: email, ManagerID: managerID, PasswordHash: &digest, IsActive: true}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) { // lost the race after the pre-check
			return nil, ErrEmailExists
		}
		return nil, err
	}

	accessToken, err := s.tokens.Issue(user.ID, accessTokenTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.Issue(user.ID, accessTokenTTL)
	if err != nil {
		return nil, err
	}
	if err := s.createSession(ctx, user.ID, refreshToken, "", ""); err != nil {
		return nil, err
	}

	createdAt := user.CreatedAt
	return &Credentials{
		User:         AuthUser{ID: user.ID, Email: user.Email, ManagerID: user.ManagerID, CreatedAt: &createdAt},
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(accessTokenTTL.Seconds()),
	}, nil
}

// Login verifies credentials and issues a fresh token pair. Unknown email,
// wrong password and a deactivated account are indistinguishable to the
// caller.
func (s *AuthService) Login(ctx context.Context, email, plainPassword string, rememberMe bool, ipAddress, userAgent string) (*Credentials, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if user.PasswordHash == nil {
		return nil, ErrOAuthUser
	}
	if !password.Verify(plainPassword, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, err
	}

	refreshTTL := accessTokenTTL
	if rememberMe {
		refreshTTL = rememberMeTokenTTL
	}
	accessToken, err := s.tokens.Issue(user.ID, accessTokenTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.Issue(user.ID, refreshTTL)
	if err != nil {
		return nil, err
	}
	// The session row keeps the fixed 30-day horizon even for 7-day tokens.
	if err := s.createSession(ctx, user.ID, refreshToken, ipAddress, userAgent); err != nil {
		return nil, err
	}

	creds := &Credentials{
		User:        AuthUser{ID: user.ID, Email: user.Email, ManagerID: user.ManagerID},
		AccessToken: accessToken,
		ExpiresIn:   int(refreshTTL.Seconds()),
	}
	if rememberMe {
		creds.RefreshToken = refreshToken
	}
	return creds, nil
}

// Refresh exchanges a still-valid refresh token for a new access token. The
// refresh token itself is not rotated. Every failure mode collapses into
// ErrInvalidRefreshToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	userID, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	var session models.Session
	err = s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = sessions.user_id").
		Where("sessions.token = ? AND sessions.user_id = ? AND sessions.expires_at > ? AND users.is_active = ?",
			refreshToken, userID, time.Now(), true).
		First(&session).Error
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	accessToken, err := s.tokens.Issue(userID, accessTokenTTL)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{AccessToken: accessToken, ExpiresIn: int(accessTokenTTL.Seconds())}, nil
}

// Logout invalidates the session bound to refreshToken. Unknown tokens are
// not an error, so repeated logouts succeed.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.db.WithContext(ctx).Where("token = ?", refreshToken).Delete(&models.Session{}).Error
}

func (s *AuthService) createSession(ctx context.Context, userID, refreshToken, ipAddress, userAgent string) error {
	session := models.Session{
		UserID:    userID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(sessionTTL),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	return s.db.WithContext(ctx).Create(&session).Error
}
