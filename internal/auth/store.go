package auth

import (
	"context"
	"time"
)

// Store is the persistence contract for user credential state. Postgres
// implements it in production; tests use an in-memory fake with the same
// conditional-update semantics.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SetRefreshTokenHash overwrites the single refresh slot; an empty hash
	// clears it.
	SetRefreshTokenHash(ctx context.Context, userID, hash string) error

	// SwapRefreshTokenHash replaces the stored refresh hash only when it
	// still equals oldHash. Returns ErrInvalidToken when the slot holds a
	// different value (superseded, reused or revoked token).
	SwapRefreshTokenHash(ctx context.Context, userID, oldHash, newHash string) error

	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error

	SetEmailVerificationToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// ConsumeEmailVerificationToken marks the matching unexpired user as
	// verified and clears the token pair in one step. Returns
	// ErrInvalidOrExpiredToken when no user matches.
	ConsumeEmailVerificationToken(ctx context.Context, tokenHash string, now time.Time) (string, error)

	SetPasswordResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// ConsumePasswordResetToken stores the new password hash and clears the
	// reset pair for the matching unexpired user in one step. Returns
	// ErrInvalidOrExpiredToken when no user matches.
	ConsumePasswordResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error)
}
