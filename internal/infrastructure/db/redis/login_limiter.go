package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldreports/reports-api/internal/core/domain"
)

const defaultAttemptWindow = 15 * time.Minute

// countAttempt increments the counter and starts the window on the first
// attempt in a single round trip, so concurrent logins each see a distinct count.
var countAttempt = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// LoginLimiter throttles logins per email with a fixed window counter. Every
// attempt is counted; a successful login clears the counter.
// Key format: login:attempts:<normalized email>
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewLoginLimiter creates a LoginLimiter. maxAttempts <= 0 disables throttling
// and the client may then be nil.
func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	if window <= 0 {
		window = defaultAttemptWindow
	}
	return &LoginLimiter{client: client, maxAttempts: int64(maxAttempts), window: window}
}

func (l *LoginLimiter) enabled() bool {
	return l.maxAttempts > 0 && l.client != nil
}

// Allow counts an attempt for email and returns domain.ErrTooManyAttempts when
// it goes over the budget of the current window.
func (l *LoginLimiter) Allow(ctx context.Context, email string) error {
	if !l.enabled() {
		return nil
	}
	n, err := countAttempt.Run(ctx, l.client, []string{l.key(email)}, l.window.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("login limiter: %w", err)
	}
	if n > l.maxAttempts {
		return domain.ErrTooManyAttempts
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) error {
	if !l.enabled() {
		return nil
	}
	return l.client.Del(ctx, l.key(email)).Err()
}

func (l *LoginLimiter) key(email string) string {
	return "login:attempts:" + domain.NormalizeEmail(email)
}
