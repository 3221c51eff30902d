package auth

import (
	"context"
	"sync"
	"time"
)

// fakeStore mirrors the conditional-update semantics of the Postgres
// repository so the services can be exercised without a database.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*User)}
}

func (s *fakeStore) CreateUser(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return ErrConflict
		}
	}

	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *fakeStore) GetUserByID(_ context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *fakeStore) SetRefreshTokenHash(_ context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.RefreshTokenHash = hash
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeStore) SwapRefreshTokenHash(_ context.Context, userID, oldHash, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok || user.RefreshTokenHash == "" || user.RefreshTokenHash != oldHash {
		return ErrInvalidToken
	}
	user.RefreshTokenHash = newHash
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeStore) UpdatePasswordHash(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeStore) SetEmailVerificationToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.EmailVerificationTokenHash = tokenHash
	user.EmailVerificationExpiry = &expiresAt
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeStore) ConsumeEmailVerificationToken(_ context.Context, tokenHash string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.EmailVerificationTokenHash == "" || user.EmailVerificationTokenHash != tokenHash {
			continue
		}
		if user.EmailVerificationExpiry == nil || !user.EmailVerificationExpiry.After(now) {
			continue
		}
		user.IsEmailVerified = true
		user.EmailVerificationTokenHash = ""
		user.EmailVerificationExpiry = nil
		user.UpdatedAt = time.Now().UTC()
		return user.ID, nil
	}
	return "", ErrInvalidOrExpiredToken
}

func (s *fakeStore) SetPasswordResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.ForgotPasswordTokenHash = tokenHash
	user.ForgotPasswordExpiry = &expiresAt
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeStore) ConsumePasswordResetToken(_ context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.ForgotPasswordTokenHash == "" || user.ForgotPasswordTokenHash != tokenHash {
			continue
		}
		if user.ForgotPasswordExpiry == nil || !user.ForgotPasswordExpiry.After(now) {
			continue
		}
		user.PasswordHash = passwordHash
		user.ForgotPasswordTokenHash = ""
		user.ForgotPasswordExpiry = nil
		user.UpdatedAt = time.Now().UTC()
		return user.ID, nil
	}
	return "", ErrInvalidOrExpiredToken
}

// expireTokens backdates any pending token expiries for a user.
func (s *fakeStore) expireTokens(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	past := time.Now().UTC().Add(-time.Minute)
	user, ok := s.users[userID]
	if !ok {
		return
	}
	if user.EmailVerificationExpiry != nil {
		user.EmailVerificationExpiry = &past
	}
	if user.ForgotPasswordExpiry != nil {
		user.ForgotPasswordExpiry = &past
	}
}
