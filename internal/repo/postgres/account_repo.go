package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sickboy81/saphira/internal/domain/model"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
)

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// CreateWithProfile inserts the account and its profile row in one transaction.
func (r *AccountRepo) CreateWithProfile(ctx context.Context, account model.Account, profile model.Profile) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO accounts (id, email, password_hash, totp_secret, totp_enabled, created_at)
VALUES ($1, $2, $3, '', FALSE, NOW())
`, account.ID, strings.ToLower(account.Email), account.PasswordHash)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("insert account: %w", err)
		}

		_, err = tx.Exec(ctx, `
INSERT INTO profiles (id, role, is_banned, display_name, created_at, updated_at)
VALUES ($1, $2, FALSE, $3, NOW(), NOW())
`, profile.ID, string(profile.Role), profile.DisplayName)
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		return nil
	})
}

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (model.Account, error) {
	return r.findOne(ctx, "email = $1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *AccountRepo) FindByID(ctx context.Context, id string) (model.Account, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *AccountRepo) findOne(ctx context.Context, where string, arg any) (model.Account, error) {
	if r.pool == nil {
		return model.Account{}, fmt.Errorf("postgres pool is nil")
	}

	var account model.Account
	err := r.pool.QueryRow(ctx, `
SELECT id::text, email, password_hash, totp_secret, totp_enabled, created_at
FROM accounts
WHERE `+where, arg).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.TOTPSecret,
		&account.TOTPEnabled,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

// SetTOTPSecret stores a pending secret and disables the second factor
// until it is confirmed.
func (r *AccountRepo) SetTOTPSecret(ctx context.Context, id, secret string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	tag, err := r.pool.Exec(ctx, `
UPDATE accounts SET totp_secret = $2, totp_enabled = FALSE
WHERE id = $1
`, id, secret)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepo) EnableTOTP(ctx context.Context, id string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	tag, err := r.pool.Exec(ctx, `
UPDATE accounts SET totp_enabled = TRUE
WHERE id = $1 AND totp_secret <> ''
`, id)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
