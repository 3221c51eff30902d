package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `
	id, username, email, password_hash, is_email_verified, refresh_token_hash,
	email_verification_token_hash, email_verification_expiry,
	forgot_password_token_hash, forgot_password_expiry, created_at, updated_at`

func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_email_verified, refresh_token_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '', $6, $6)
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.IsEmailVerified, user.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*User, error) {
	return r.getUser(ctx, `WHERE id = $1`, id)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, `WHERE email = $1`, email)
}

func (r *Repository) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var user User
	var verificationHash, forgotHash sql.NullString
	var verificationExpiry, forgotExpiry sql.NullTime

	err := r.db.QueryRowContext(ctx, `SELECT`+userColumns+` FROM users `+where, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsEmailVerified, &user.RefreshTokenHash,
		&verificationHash, &verificationExpiry,
		&forgotHash, &forgotExpiry,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	user.EmailVerificationTokenHash = verificationHash.String
	if verificationExpiry.Valid {
		value := verificationExpiry.Time.UTC()
		user.EmailVerificationExpiry = &value
	}
	user.ForgotPasswordTokenHash = forgotHash.String
	if forgotExpiry.Valid {
		value := forgotExpiry.Time.UTC()
		user.ForgotPasswordExpiry = &value
	}

	return &user, nil
}

func (r *Repository) SetRefreshTokenHash(ctx context.Context, userID, hash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, hash)
	if err != nil {
		return fmt.Errorf("set refresh token hash: %w", err)
	}
	return requireRow(res, ErrUserNotFound)
}

// SwapRefreshTokenHash is the compare-and-swap behind rotation-on-use: of two
// concurrent rotations presenting the same token, exactly one matches the
// stored hash and wins.
func (r *Repository) SwapRefreshTokenHash(ctx context.Context, userID, oldHash, newHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token_hash = $3, updated_at = NOW()
		WHERE id = $1 AND refresh_token_hash = $2 AND refresh_token_hash <> ''
	`, userID, oldHash, newHash)
	if err != nil {
		return fmt.Errorf("rotate refresh token hash: %w", err)
	}
	return requireRow(res, ErrInvalidToken)
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return requireRow(res, ErrUserNotFound)
}

func (r *Repository) SetEmailVerificationToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email_verification_token_hash = $2, email_verification_expiry = $3, updated_at = NOW()
		WHERE id = $1
	`, userID, tokenHash, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("set email verification token: %w", err)
	}
	return requireRow(res, ErrUserNotFound)
}

func (r *Repository) ConsumeEmailVerificationToken(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET is_email_verified = TRUE,
			email_verification_token_hash = NULL,
			email_verification_expiry = NULL,
			updated_at = NOW()
		WHERE email_verification_token_hash = $1 AND email_verification_expiry > $2
		RETURNING id
	`, tokenHash, now.UTC()).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidOrExpiredToken
		}
		return "", fmt.Errorf("consume email verification token: %w", err)
	}
	return userID, nil
}

func (r *Repository) SetPasswordResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET forgot_password_token_hash = $2, forgot_password_expiry = $3, updated_at = NOW()
		WHERE id = $1
	`, userID, tokenHash, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("set password reset token: %w", err)
	}
	return requireRow(res, ErrUserNotFound)
}

func (r *Repository) ConsumePasswordResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET password_hash = $2,
			forgot_password_token_hash = NULL,
			forgot_password_expiry = NULL,
			updated_at = NOW()
		WHERE forgot_password_token_hash = $1 AND forgot_password_expiry > $3
		RETURNING id
	`, tokenHash, passwordHash, now.UTC()).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidOrExpiredToken
		}
		return "", fmt.Errorf("consume password reset token: %w", err)
	}
	return userID, nil
}

func (r *Repository) ClearExpiredTokens(ctx context.Context, now time.Time) (int64, int64, error) {
	verification, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email_verification_token_hash = NULL, email_verification_expiry = NULL, updated_at = NOW()
		WHERE email_verification_expiry IS NOT NULL AND email_verification_expiry <= $1
	`, now.UTC())
	if err != nil {
		return 0, 0, fmt.Errorf("clear expired verification tokens: %w", err)
	}

	reset, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET forgot_password_token_hash = NULL, forgot_password_expiry = NULL, updated_at = NOW()
		WHERE forgot_password_expiry IS NOT NULL AND forgot_password_expiry <= $1
	`, now.UTC())
	if err != nil {
		return 0, 0, fmt.Errorf("clear expired reset tokens: %w", err)
	}

	verificationCount, err := verification.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("expired verification rows affected: %w", err)
	}
	resetCount, err := reset.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("expired reset rows affected: %w", err)
	}

	return verificationCount, resetCount, nil
}

func requireRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}
