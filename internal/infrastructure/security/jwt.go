package security

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

const defaultTokenTTL = 24 * time.Hour

// SigningKey is the single swappable key material used to sign and verify
// tokens. Rotating keys means building a new JWTCodec with a new SigningKey.
type SigningKey struct {
	method jwt.SigningMethod
	sign   any
	verify any
}

// NewHMACKey returns an HS256 key backed by a shared secret.
func NewHMACKey(secret []byte) (SigningKey, error) {
	if len(secret) == 0 {
		return SigningKey{}, errors.New("hmac secret is empty")
	}
	return SigningKey{method: jwt.SigningMethodHS256, sign: secret, verify: secret}, nil
}

// NewEd25519Key returns an EdDSA key pair derived from a 32-byte seed.
func NewEd25519Key(seed []byte) (SigningKey, error) {
	if len(seed) != ed25519.SeedSize {
		return SigningKey{}, fmt.Errorf("ed25519 seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return SigningKey{
		method: jwt.SigningMethodEdDSA,
		sign:   priv,
		verify: priv.Public(),
	}, nil
}

// Algorithm returns the JWT "alg" value of the key.
func (k SigningKey) Algorithm() string {
	if k.method == nil {
		return ""
	}
	return k.method.Alg()
}

// TokenConfig controls token lifetime and issuer.
type TokenConfig struct {
	Issuer string
	TTL    time.Duration
	// Leeway tolerates clock skew between the issuing and the verifying
	// instance on exp, nbf and iat.
	Leeway time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// tokenClaims is the on-wire claim set.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// JWTCodec implements ports.TokenCodec with signed JWTs.
type JWTCodec struct {
	key    SigningKey
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
	log    zerolog.Logger
}

// NewJWTCodec builds a codec around key. A non-positive TTL falls back to 24h.
func NewJWTCodec(key SigningKey, cfg TokenConfig, log zerolog.Logger) (*JWTCodec, error) {
	if key.method == nil {
		return nil, errors.New("signing key is not initialised")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{key.Algorithm()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}

	return &JWTCodec{
		key:    key,
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
		parser: jwt.NewParser(opts...),
		log:    log,
	}, nil
}

// TTL returns the lifetime given to issued tokens.
func (c *JWTCodec) TTL() time.Duration { return c.ttl }

// Issue signs claims with an expiry of now+TTL.
func (c *JWTCodec) Issue(claims domain.TokenClaims) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("issue token: empty subject")
	}
	now := c.now()
	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   claims.Subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Email: claims.Email,
		Role:  string(claims.Role),
	}

	signed, err := jwt.NewWithClaims(c.key.method, tc).SignedString(c.key.sign)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns its claims. The signature, algorithm,
// issuer and expiry are checked by the parser before any claim is read.
func (c *JWTCodec) Parse(token string) (domain.TokenClaims, error) {
	var tc tokenClaims
	parsed, err := c.parser.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return c.key.verify, nil
	})
	if err != nil || !parsed.Valid {
		c.log.Debug().Str("reason", rejectReason(err)).Msg("token rejected")
		return domain.TokenClaims{}, domain.ErrInvalidToken
	}

	role, ok := domain.ParseRole(tc.Role)
	if tc.Subject == "" || !ok {
		c.log.Debug().Str("reason", "claims_invalid").Msg("token rejected")
		return domain.TokenClaims{}, domain.ErrInvalidToken
	}

	out := domain.TokenClaims{
		Subject: tc.Subject,
		Email:   tc.Email,
		Role:    role,
	}
	if tc.IssuedAt != nil {
		out.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		out.ExpiresAt = tc.ExpiresAt.Time
	}
	return out, nil
}

func rejectReason(err error) string {
	switch {
	case err == nil:
		return "invalid"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return "signature_invalid"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	default:
		return "claims_invalid"
	}
}
