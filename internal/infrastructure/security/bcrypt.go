package security

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/pkg/metrics"
)

// BcryptVerifier hashes and verifies secrets with bcrypt at a fixed cost.
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier returns a verifier using cost, clamped to the range bcrypt
// accepts. A zero cost selects bcrypt.DefaultCost.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptVerifier{cost: cost}
}

// Cost returns the configured work factor.
func (v *BcryptVerifier) Cost() int { return v.cost }

// Hash returns a salted bcrypt digest of secret.
func (v *BcryptVerifier) Hash(secret string) (string, error) {
	start := time.Now()
	h, err := bcrypt.GenerateFromPassword([]byte(secret), v.cost)
	metrics.PasswordHashDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("hash secret: %w", domain.ErrInvalidProfile)
		}
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(h), nil
}

// Verify reports whether secret matches digest. Malformed digests return false.
func (v *BcryptVerifier) Verify(secret, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
