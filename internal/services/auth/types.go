package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/sickboy81/saphira/internal/domain/enums"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionNotFound = errors.New("session not found")
	ErrRefreshNotFound = errors.New("refresh token not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrBanned          = errors.New("account is banned")
	ErrOTPRequired     = errors.New("one-time code required")
	ErrInvalidOTP      = errors.New("invalid one-time code")
)

// RateLimitedError reports a blocked login attempt.
type RateLimitedError struct {
	RetryAfterSec int64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many attempts, retry after %ds", e.RetryAfterSec)
}

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

type SessionRecord struct {
	SID       string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type AccessClaims struct {
	UserID    string
	SID       string
	Email     string
	ExpiresAt time.Time
}

type Me struct {
	ID    string
	Email string
	Role  *enums.Role
}

type AuthResult struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
	Me            Me
}

type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	DisplayName     string
	Role            enums.Role
}

type TOTPSetup struct {
	Secret    string
	URL       string
	QRCodePNG []byte
}
