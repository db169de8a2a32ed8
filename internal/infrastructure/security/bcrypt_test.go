package security

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

func TestBcryptVerifier_RoundTrip(t *testing.T) {
	v := NewBcryptVerifier(bcrypt.MinCost)

	for _, secret := range []string{"secret1", "", "pässwörd", strings.Repeat("x", 72)} {
		digest, err := v.Hash(secret)
		if err != nil {
			t.Fatalf("Hash(%q): %v", secret, err)
		}
		if digest == secret {
			t.Fatalf("digest equals plaintext")
		}
		if !v.Verify(secret, digest) {
			t.Fatalf("Verify(%q) = false for its own digest", secret)
		}
	}
}

func TestBcryptVerifier_Mismatch(t *testing.T) {
	v := NewBcryptVerifier(bcrypt.MinCost)
	digest, err := v.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if v.Verify("secret2", digest) {
		t.Fatalf("different secret verified")
	}
	if v.Verify("Secret1", digest) {
		t.Fatalf("secret comparison must be case-sensitive")
	}
}

func TestBcryptVerifier_Salted(t *testing.T) {
	v := NewBcryptVerifier(bcrypt.MinCost)
	a, _ := v.Hash("same")
	b, _ := v.Hash("same")
	if a == b {
		t.Fatalf("equal secrets produced equal digests")
	}
}

func TestBcryptVerifier_MalformedDigest(t *testing.T) {
	v := NewBcryptVerifier(bcrypt.MinCost)
	for _, digest := range []string{"", "not-a-hash", "$2a$", "$2a$99$abcdefghijklmnopqrstuv"} {
		if v.Verify("secret", digest) {
			t.Fatalf("Verify accepted malformed digest %q", digest)
		}
	}
}

func TestBcryptVerifier_TooLong(t *testing.T) {
	v := NewBcryptVerifier(bcrypt.MinCost)
	_, err := v.Hash(strings.Repeat("a", 73))
	if !errors.Is(err, domain.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestNewBcryptVerifier_CostClamp(t *testing.T) {
	if got := NewBcryptVerifier(0).Cost(); got != bcrypt.DefaultCost {
		t.Fatalf("zero cost: got %d", got)
	}
	if got := NewBcryptVerifier(1).Cost(); got != bcrypt.MinCost {
		t.Fatalf("low cost: got %d", got)
	}
	if got := NewBcryptVerifier(99).Cost(); got != bcrypt.MaxCost {
		t.Fatalf("high cost: got %d", got)
	}
}
