package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/domain/model"
	pgrepo "github.com/sickboy81/saphira/internal/repo/postgres"
)

const (
	MinRefreshTTL = 24 * time.Hour
	MaxRefreshTTL = 90 * 24 * time.Hour

	maxDisplayName = 80
)

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

type AccountStore interface {
	CreateWithProfile(ctx context.Context, account model.Account, profile model.Profile) error
	FindByEmail(ctx context.Context, email string) (model.Account, error)
	FindByID(ctx context.Context, id string) (model.Account, error)
	SetTOTPSecret(ctx context.Context, id, secret string) error
	EnableTOTP(ctx context.Context, id string) error
}

type AccessStore interface {
	GetAccess(ctx context.Context, id string) (pgrepo.AccessRecord, error)
}

type LoginLimiter interface {
	Allow(ctx context.Context, subject string) (int64, bool, error)
	Reset(ctx context.Context, subject string) error
}

type Options struct {
	RefreshTTL   time.Duration
	MinPassword  int
	PasswordCost int
	TOTPIssuer   string
}

type Service struct {
	jwt        *JWTManager
	sessions   SessionStore
	accounts   AccountStore
	access     AccessStore
	limiter    LoginLimiter
	hasher     PasswordHasher
	refreshTTL time.Duration
	minPass    int
	issuer     string
	now        func() time.Time
}

func NewService(jwtManager *JWTManager, sessions SessionStore, accounts AccountStore, access AccessStore, limiter LoginLimiter, opts Options) *Service {
	refreshTTL := opts.RefreshTTL
	if refreshTTL < MinRefreshTTL {
		refreshTTL = MinRefreshTTL
	}
	if refreshTTL > MaxRefreshTTL {
		refreshTTL = MaxRefreshTTL
	}
	minPass := opts.MinPassword
	if minPass <= 0 {
		minPass = 6
	}
	issuer := strings.TrimSpace(opts.TOTPIssuer)
	if issuer == "" {
		issuer = "Saphira"
	}

	return &Service{
		jwt:        jwtManager,
		sessions:   sessions,
		accounts:   accounts,
		access:     access,
		limiter:    limiter,
		hasher:     NewPasswordHasher(opts.PasswordCost),
		refreshTTL: refreshTTL,
		minPass:    minPass,
		issuer:     issuer,
		now:        time.Now,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return AuthResult{}, err
	}
	if utf8.RuneCountInString(in.Password) < s.minPass {
		return AuthResult{}, &ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", s.minPass)}
	}
	if in.Password != in.ConfirmPassword {
		return AuthResult{}, &ValidationError{Field: "confirm_password", Message: "passwords do not match"}
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" || utf8.RuneCountInString(displayName) > maxDisplayName {
		return AuthResult{}, &ValidationError{Field: "display_name", Message: fmt.Sprintf("must be 1-%d characters", maxDisplayName)}
	}
	role := in.Role
	if role == "" {
		role = enums.RoleVisitor
	}
	if !role.SelfAssignable() {
		return AuthResult{}, &ValidationError{Field: "role", Message: "must be visitor or advertiser"}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	userID := uuid.NewString()
	account := model.Account{ID: userID, Email: email, PasswordHash: hash}
	profile := model.Profile{ID: userID, Role: role, DisplayName: displayName}
	if err := s.accounts.CreateWithProfile(ctx, account, profile); err != nil {
		if errors.Is(err, pgrepo.ErrEmailTaken) {
			return AuthResult{}, ErrEmailTaken
		}
		return AuthResult{}, fmt.Errorf("create account: %w", err)
	}

	return s.issueForUser(ctx, userID, email, &role)
}

func (s *Service) Login(ctx context.Context, email, password, otpCode string) (AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return AuthResult{}, err
	}
	if password == "" {
		return AuthResult{}, &ValidationError{Field: "password", Message: "is required"}
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.Allow(ctx, email)
		if err != nil {
			return AuthResult{}, fmt.Errorf("check login rate: %w", err)
		}
		if !allowed {
			return AuthResult{}, &RateLimitedError{RetryAfterSec: retryAfter}
		}
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrAccountNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("find account: %w", err)
	}
	if err := s.hasher.Check(account.PasswordHash, password); err != nil {
		return AuthResult{}, ErrUnauthorized
	}

	role, banned, err := s.lookupAccess(ctx, account.ID)
	if err != nil {
		return AuthResult{}, err
	}
	if banned {
		return AuthResult{}, ErrBanned
	}

	if account.TOTPEnabled {
		if strings.TrimSpace(otpCode) == "" {
			return AuthResult{}, ErrOTPRequired
		}
		if !validateTOTP(account.TOTPSecret, otpCode, s.now()) {
			return AuthResult{}, ErrInvalidOTP
		}
	}

	if s.limiter != nil {
		_ = s.limiter.Reset(ctx, email)
	}

	return s.issueForUser(ctx, account.ID, account.Email, role)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("get refresh token session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return AuthResult{}, ErrUnauthorized
	}

	role, banned, err := s.lookupAccess(ctx, session.UserID)
	if err != nil {
		return AuthResult{}, err
	}
	if banned {
		_ = s.sessions.DeleteSession(ctx, session.SID)
		return AuthResult{}, ErrBanned
	}

	rotated, err := newRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiresAt := s.now().Add(s.refreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, rotated, newExpiresAt); err != nil {
		if errors.Is(err, ErrRefreshNotFound) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.UserID, session.SID, session.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  rotated,
		AccessExpires: accessExpires,
		Me: Me{
			ID:    session.UserID,
			Email: session.Email,
			Role:  role,
		},
	}, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}

	if session.UserID != claims.UserID {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

// Role returns the role of userID. Banned users and users without a profile
// row have no role.
func (s *Service) Role(ctx context.Context, userID string) (*enums.Role, error) {
	role, _, err := s.lookupAccess(ctx, userID)
	return role, err
}

func (s *Service) SetupTOTP(ctx context.Context, userID string) (TOTPSetup, error) {
	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrAccountNotFound) {
			return TOTPSetup{}, ErrUnauthorized
		}
		return TOTPSetup{}, fmt.Errorf("find account: %w", err)
	}
	if account.TOTPEnabled {
		return TOTPSetup{}, &ValidationError{Field: "totp", Message: "already enabled"}
	}

	setup, err := generateTOTP(s.issuer, account.Email)
	if err != nil {
		return TOTPSetup{}, err
	}
	if err := s.accounts.SetTOTPSecret(ctx, userID, setup.Secret); err != nil {
		return TOTPSetup{}, fmt.Errorf("store totp secret: %w", err)
	}
	return setup, nil
}

func (s *Service) EnableTOTP(ctx context.Context, userID, code string) error {
	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrAccountNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("find account: %w", err)
	}
	if account.TOTPSecret == "" {
		return &ValidationError{Field: "totp", Message: "setup has not been started"}
	}
	if !validateTOTP(account.TOTPSecret, code, s.now()) {
		return ErrInvalidOTP
	}
	if err := s.accounts.EnableTOTP(ctx, userID); err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

func (s *Service) lookupAccess(ctx context.Context, userID string) (*enums.Role, bool, error) {
	if s.access == nil {
		return nil, false, nil
	}
	rec, err := s.access.GetAccess(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get profile access: %w", err)
	}
	if rec.IsBanned {
		return nil, true, nil
	}
	role := rec.Role
	return &role, false, nil
}

func (s *Service) issueForUser(ctx context.Context, userID, email string, role *enums.Role) (AuthResult, error) {
	sessionID := newSessionID()
	refreshToken, err := newRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	session := SessionRecord{
		SID:       sessionID,
		UserID:    userID,
		Email:     email,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.sessions.Create(ctx, session, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(userID, sessionID, email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
		Me: Me{
			ID:    userID,
			Email: email,
			Role:  role,
		},
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &ValidationError{Field: "email", Message: "must be a valid address"}
	}
	return email, nil
}
