package auth

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// bcryptCost matches the work factor the service has always used for stored
// credentials; existing hashes verify regardless of cost.
const bcryptCost = 10

type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher bounds concurrent hash computations so a burst of registrations
// cannot starve unrelated requests of CPU.
func NewHasher() *Hasher {
	limit := int64(runtime.GOMAXPROCS(0))
	if limit < 1 {
		limit = 1
	}
	return &Hasher{cost: bcryptCost, sem: semaphore.NewWeighted(limit)}
}

func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.sem.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest is an
// ordinary mismatch.
func (h *Hasher) Verify(ctx context.Context, plaintext, digest string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
