package auth

import (
	"context"
	"strings"
	"time"
)

const defaultTempTokenTTL = 20 * time.Minute

// VerificationService issues and redeems the single-use hashed tokens behind
// email verification and password reset. Issuing a new token for a purpose
// silently supersedes any pending one; redemption clears the stored pair so a
// token can never be used twice.
type VerificationService struct {
	store   Store
	hasher  *Hasher
	codec   *TokenCodec
	tempTTL time.Duration
}

func NewVerificationService(store Store, hasher *Hasher, codec *TokenCodec, tempTTL time.Duration) *VerificationService {
	if tempTTL <= 0 {
		tempTTL = defaultTempTokenTTL
	}
	return &VerificationService{store: store, hasher: hasher, codec: codec, tempTTL: tempTTL}
}

func (s *VerificationService) RequestEmailVerification(ctx context.Context, userID string) (string, *User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if user.IsEmailVerified {
		return "", nil, ErrAlreadyVerified
	}

	raw, hash, err := s.codec.NewOpaqueToken()
	if err != nil {
		return "", nil, err
	}

	expiresAt := time.Now().UTC().Add(s.tempTTL)
	if err := s.store.SetEmailVerificationToken(ctx, userID, hash, expiresAt); err != nil {
		return "", nil, err
	}

	return raw, user, nil
}

func (s *VerificationService) RedeemEmailVerification(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrInvalidOrExpiredToken
	}

	_, err := s.store.ConsumeEmailVerificationToken(ctx, s.codec.HashOpaqueToken(raw), time.Now().UTC())
	return err
}

func (s *VerificationService) RequestPasswordReset(ctx context.Context, email string) (string, *User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	raw, hash, err := s.codec.NewOpaqueToken()
	if err != nil {
		return "", nil, err
	}

	expiresAt := time.Now().UTC().Add(s.tempTTL)
	if err := s.store.SetPasswordResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		return "", nil, err
	}

	return raw, user, nil
}

// RedeemPasswordReset accepts the new password on the strength of the token
// alone; the authenticated change-password path is the one that checks the
// old password.
func (s *VerificationService) RedeemPasswordReset(ctx context.Context, raw, newPassword string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrInvalidOrExpiredToken
	}

	passwordHash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}

	_, err = s.store.ConsumePasswordResetToken(ctx, s.codec.HashOpaqueToken(raw), passwordHash, time.Now().UTC())
	return err
}
