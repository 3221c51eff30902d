package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const opaqueTokenBytes = 32

type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// NewOpaqueToken returns a random token and the digest that may be persisted.
// The raw value is handed out exactly once; only the hash touches storage.
func (c *TokenCodec) NewOpaqueToken() (raw, hash string, err error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate opaque token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, c.HashOpaqueToken(raw), nil
}

// HashOpaqueToken is the cheap deterministic digest used for exact-match
// lookup; never use it for passwords.
func (c *TokenCodec) HashOpaqueToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func (c *TokenCodec) SignAccess(userID string) (string, error) {
	return signClaims(userID, "access", c.accessSecret, c.accessTTL)
}

func (c *TokenCodec) SignRefresh(userID string) (string, error) {
	return signClaims(userID, "refresh", c.refreshSecret, c.refreshTTL)
}

func (c *TokenCodec) VerifyAccess(token string) (string, error) {
	return verifyClaims(token, "access", c.accessSecret)
}

func (c *TokenCodec) VerifyRefresh(token string) (string, error) {
	return verifyClaims(token, "refresh", c.refreshSecret)
}

func signClaims(userID, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	// The jti keeps two tokens minted within the same second distinct, which
	// rotation depends on.
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"typ": tokenType,
		"jti": uuid.NewString(),
	}
	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return encoded, nil
}

// verifyClaims folds malformed, expired, tampered and wrong-type tokens into
// the same error so callers cannot tell which check failed.
func verifyClaims(tokenStr, tokenType string, secret []byte) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != tokenType {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
