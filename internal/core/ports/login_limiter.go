package ports

import "context"

// LoginLimiter throttles repeated logins for one email.
type LoginLimiter interface {
	// Allow counts one login attempt and returns domain.ErrTooManyAttempts
	// once the email has used up its attempts for the current window.
	Allow(ctx context.Context, email string) error
	// Reset clears the count after a successful login.
	Reset(ctx context.Context, email string) error
}
