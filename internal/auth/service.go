package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	store  Store
	hasher *Hasher
	codec  *TokenCodec
}

func NewService(store Store, hasher *Hasher, codec *TokenCodec) *Service {
	return &Service{store: store, hasher: hasher, codec: codec}
}

func (s *Service) Register(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	passwordHash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	user := &User{
		ID:           id.String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	user.UpdatedAt = user.CreatedAt

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login does not distinguish an unknown email from a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if err == ErrUserNotFound {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}

	if !s.hasher.Verify(ctx, password, user.PasswordHash) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	tokens, err := s.Issue(ctx, user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}

	return user, tokens, nil
}

// Issue mints a fresh pair and overwrites the stored refresh slot, so a new
// login invalidates the previous session's refresh token.
func (s *Service) Issue(ctx context.Context, userID string) (TokenPair, error) {
	access, err := s.codec.SignAccess(userID)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.codec.SignRefresh(userID)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.store.SetRefreshTokenHash(ctx, userID, s.codec.HashOpaqueToken(refresh)); err != nil {
		return TokenPair{}, err
	}

	return s.pair(access, refresh), nil
}

// Refresh rotates the presented token: signature and expiry are checked
// first, then the stored hash is swapped conditionally so a superseded or
// already-used token fails and concurrent rotations have a single winner.
func (s *Service) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return TokenPair{}, ErrInvalidToken
	}

	userID, err := s.codec.VerifyRefresh(presented)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		if err == ErrUserNotFound {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, err
	}

	access, err := s.codec.SignAccess(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.SignRefresh(userID)
	if err != nil {
		return TokenPair{}, err
	}

	err = s.store.SwapRefreshTokenHash(ctx, userID,
		s.codec.HashOpaqueToken(presented), s.codec.HashOpaqueToken(refresh))
	if err != nil {
		return TokenPair{}, err
	}

	return s.pair(access, refresh), nil
}

// Logout clears the refresh slot; clearing an already-empty slot succeeds.
func (s *Service) Logout(ctx context.Context, userID string) error {
	err := s.store.SetRefreshTokenHash(ctx, userID, "")
	if err == ErrUserNotFound {
		return nil
	}
	return err
}

func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(ctx, oldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	newHash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}

	return s.store.UpdatePasswordHash(ctx, userID, newHash)
}

func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.store.GetUserByID(ctx, userID)
}

func (s *Service) pair(access, refresh string) TokenPair {
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
	}
}
