package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/pquerna/otp/totp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/sickboy81/saphira/internal/domain/enums"
	"github.com/sickboy81/saphira/internal/domain/model"
	pgrepo "github.com/sickboy81/saphira/internal/repo/postgres"
	redrepo "github.com/sickboy81/saphira/internal/repo/redis"
	authsvc "github.com/sickboy81/saphira/internal/services/auth"
	"github.com/sickboy81/saphira/internal/services/rate"
)

type accountStoreStub struct {
	mu       sync.Mutex
	accounts map[string]model.Account
	profiles map[string]model.Profile
}

func newAccountStoreStub() *accountStoreStub {
	return &accountStoreStub{
		accounts: map[string]model.Account{},
		profiles: map[string]model.Profile{},
	}
}

func (s *accountStoreStub) CreateWithProfile(_ context.Context, account model.Account, profile model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return pgrepo.ErrEmailTaken
		}
	}
	s.accounts[account.ID] = account
	s.profiles[profile.ID] = profile
	return nil
}

func (s *accountStoreStub) FindByEmail(_ context.Context, email string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return model.Account{}, pgrepo.ErrAccountNotFound
}

func (s *accountStoreStub) FindByID(_ context.Context, id string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return model.Account{}, pgrepo.ErrAccountNotFound
	}
	return account, nil
}

func (s *accountStoreStub) SetTOTPSecret(_ context.Context, id, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return pgrepo.ErrAccountNotFound
	}
	account.TOTPSecret = secret
	s.accounts[id] = account
	return nil
}

func (s *accountStoreStub) EnableTOTP(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return pgrepo.ErrAccountNotFound
	}
	account.TOTPEnabled = true
	s.accounts[id] = account
	return nil
}

func (s *accountStoreStub) GetAccess(_ context.Context, id string) (pgrepo.AccessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[id]
	if !ok {
		return pgrepo.AccessRecord{}, pgrepo.ErrProfileNotFound
	}
	return pgrepo.AccessRecord{Role: profile.Role, IsBanned: profile.IsBanned}, nil
}

func (s *accountStoreStub) ban(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile := s.profiles[id]
	profile.IsBanned = true
	s.profiles[id] = profile
}

func newAuthServiceForTest(t *testing.T) (*authsvc.Service, *accountStoreStub) {
	t.Helper()

	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mini.Close()
	})

	store := newAccountStoreStub()
	limiter := rate.NewLimiter(redrepo.NewRateRepo(client), "login", 10, 3)
	svc := authsvc.NewService(
		authsvc.NewJWTManager("test-secret", 15*time.Minute),
		redrepo.NewSessionRepo(client),
		store,
		store,
		limiter,
		authsvc.Options{RefreshTTL: 30 * 24 * time.Hour, PasswordCost: bcrypt.MinCost},
	)
	return svc, store
}

func register(t *testing.T, svc *authsvc.Service, email string, role enums.Role) authsvc.AuthResult {
	t.Helper()

	res, err := svc.Register(context.Background(), authsvc.RegisterInput{
		Email:           email,
		Password:        "secret123",
		ConfirmPassword: "secret123",
		DisplayName:     "Ana",
		Role:            role,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return res
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()

	reg := register(t, svc, " Ana@Example.com ", enums.RoleAdvertiser)
	if reg.Me.Email != "ana@example.com" {
		t.Fatalf("unexpected email: got %q", reg.Me.Email)
	}
	if reg.Me.Role == nil || *reg.Me.Role != enums.RoleAdvertiser {
		t.Fatalf("unexpected role: %v", reg.Me.Role)
	}

	login, err := svc.Login(ctx, "ana@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.Me.ID != reg.Me.ID {
		t.Fatalf("unexpected user id: got %s want %s", login.Me.ID, reg.Me.ID)
	}
	if _, err := svc.ValidateAccessToken(ctx, login.AccessToken); err != nil {
		t.Fatalf("validate access token: %v", err)
	}

	role, err := svc.Role(ctx, reg.Me.ID)
	if err != nil || role == nil || *role != enums.RoleAdvertiser {
		t.Fatalf("unexpected role lookup: role=%v err=%v", role, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	register(t, svc, "taken@example.com", enums.RoleVisitor)

	cases := []struct {
		name  string
		in    authsvc.RegisterInput
		field string
		err   error
	}{
		{
			name:  "bad email",
			in:    authsvc.RegisterInput{Email: "nope", Password: "secret123", ConfirmPassword: "secret123", DisplayName: "x"},
			field: "email",
		},
		{
			name:  "short password",
			in:    authsvc.RegisterInput{Email: "a@example.com", Password: "123", ConfirmPassword: "123", DisplayName: "x"},
			field: "password",
		},
		{
			name:  "confirmation mismatch",
			in:    authsvc.RegisterInput{Email: "a@example.com", Password: "secret123", ConfirmPassword: "secret124", DisplayName: "x"},
			field: "confirm_password",
		},
		{
			name:  "super admin not self assignable",
			in:    authsvc.RegisterInput{Email: "a@example.com", Password: "secret123", ConfirmPassword: "secret123", DisplayName: "x", Role: enums.RoleSuperAdmin},
			field: "role",
		},
		{
			name: "email taken",
			in:   authsvc.RegisterInput{Email: "taken@example.com", Password: "secret123", ConfirmPassword: "secret123", DisplayName: "x"},
			err:  authsvc.ErrEmailTaken,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("unexpected error: got %v want %v", err, tc.err)
				}
				return
			}
			var vErr *authsvc.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("unexpected field: got %s want %s", vErr.Field, tc.field)
			}
			if !errors.Is(err, authsvc.ErrInvalidInput) {
				t.Fatalf("validation error should unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()

	loginRes := register(t, svc, "rot@example.com", enums.RoleVisitor)

	refreshRes, err := svc.Refresh(ctx, loginRes.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshRes.RefreshToken == loginRes.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}
	if _, err := svc.Refresh(ctx, loginRes.RefreshToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("old refresh token should be unauthorized, got err=%v", err)
	}
	if _, err := svc.ValidateAccessToken(ctx, refreshRes.AccessToken); err != nil {
		t.Fatalf("new access token validation failed: %v", err)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()

	loginRes := register(t, svc, "out@example.com", enums.RoleVisitor)
	claims, err := svc.ValidateAccessToken(ctx, loginRes.AccessToken)
	if err != nil {
		t.Fatalf("validate access token before logout: %v", err)
	}

	if err := svc.Logout(ctx, claims.SID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.ValidateAccessToken(ctx, loginRes.AccessToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("access token should be unauthorized after logout, got err=%v", err)
	}
	if _, err := svc.Refresh(ctx, loginRes.RefreshToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("refresh token should be unauthorized after logout, got err=%v", err)
	}
}

func TestBannedAccountLosesAccess(t *testing.T) {
	svc, store := newAuthServiceForTest(t)
	ctx := context.Background()

	reg := register(t, svc, "ban@example.com", enums.RoleAdvertiser)
	store.ban(reg.Me.ID)

	if _, err := svc.Login(ctx, "ban@example.com", "secret123", ""); !errors.Is(err, authsvc.ErrBanned) {
		t.Fatalf("expected ErrBanned on login, got %v", err)
	}
	if _, err := svc.Refresh(ctx, reg.RefreshToken); !errors.Is(err, authsvc.ErrBanned) {
		t.Fatalf("expected ErrBanned on refresh, got %v", err)
	}

	role, err := svc.Role(ctx, reg.Me.ID)
	if err != nil {
		t.Fatalf("role: %v", err)
	}
	if role != nil {
		t.Fatalf("banned account should have no role, got %s", *role)
	}
}

func TestLoginRateLimited(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()
	register(t, svc, "brute@example.com", enums.RoleVisitor)

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(ctx, "brute@example.com", "wrong-pass", ""); !errors.Is(err, authsvc.ErrUnauthorized) {
			t.Fatalf("attempt #%d: expected ErrUnauthorized, got %v", i+1, err)
		}
	}

	_, err := svc.Login(ctx, "brute@example.com", "secret123", "")
	var rateErr *authsvc.RateLimitedError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rateErr.RetryAfterSec <= 0 {
		t.Fatalf("unexpected retry after: %d", rateErr.RetryAfterSec)
	}
}

func TestTOTPEnrollmentRequiresCode(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)
	ctx := context.Background()
	reg := register(t, svc, "otp@example.com", enums.RoleVisitor)

	setup, err := svc.SetupTOTP(ctx, reg.Me.ID)
	if err != nil {
		t.Fatalf("setup totp: %v", err)
	}
	if setup.Secret == "" || len(setup.QRCodePNG) == 0 {
		t.Fatalf("incomplete totp setup: %+v", setup)
	}

	if err := svc.EnableTOTP(ctx, reg.Me.ID, "000000"); !errors.Is(err, authsvc.ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if err := svc.EnableTOTP(ctx, reg.Me.ID, code); err != nil {
		t.Fatalf("enable totp: %v", err)
	}

	if _, err := svc.Login(ctx, "otp@example.com", "secret123", ""); !errors.Is(err, authsvc.ErrOTPRequired) {
		t.Fatalf("expected ErrOTPRequired, got %v", err)
	}
	if _, err := svc.Login(ctx, "otp@example.com", "secret123", code); err != nil {
		t.Fatalf("login with code: %v", err)
	}
}
