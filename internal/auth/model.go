package auth

import "time"

type User struct {
	ID                         string
	Username                   string
	Email                      string
	PasswordHash               string
	IsEmailVerified            bool
	RefreshTokenHash           string
	EmailVerificationTokenHash string
	EmailVerificationExpiry    *time.Time
	ForgotPasswordTokenHash    string
	ForgotPasswordExpiry       *time.Time
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type UserSummary struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
	}
}
