package ports

import "github.com/fieldreports/reports-api/internal/core/domain"

// CredentialVerifier hashes and checks secrets with a salted adaptive hash.
type CredentialVerifier interface {
	Hash(secret string) (string, error)
	// Verify reports whether secret matches digest. Malformed digests yield false.
	Verify(secret, digest string) bool
}

// TokenCodec issues and parses signed, time-bounded session tokens.
type TokenCodec interface {
	// Issue signs claims. IssuedAt and ExpiresAt are set by the codec.
	Issue(claims domain.TokenClaims) (string, error)
	// Parse verifies the signature and expiry before returning any claim.
	// Every failure is reported as domain.ErrInvalidToken.
	Parse(token string) (domain.TokenClaims, error)
}
