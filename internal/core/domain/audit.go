package domain

import "time"

// AuthEventKind names an auditable authentication outcome.
type AuthEventKind string

const (
	AuthEventRegistered   AuthEventKind = "registered"
	AuthEventLoginSuccess AuthEventKind = "login_succeeded"
	AuthEventLoginFailure AuthEventKind = "login_failed"
	AuthEventAccessDenied AuthEventKind = "access_denied"
	AuthEventUserUpdated  AuthEventKind = "user_updated"
)

// AuthEvent is an entry in the authentication audit trail.
type AuthEvent struct {
	Kind        AuthEventKind
	PrincipalID string // empty when the actor could not be identified
	TargetID    string // account changed by an administrator
	Email       string
	Operation   string // policy operation for access decisions
	Reason      string // public error kind, never the internal check that failed
	RemoteIP    string
	RequestID   string
	Timestamp   time.Time
}

// Key returns the value used to keep one actor's events in order.
func (e AuthEvent) Key() string {
	if e.PrincipalID != "" {
		return e.PrincipalID
	}
	if e.Email != "" {
		return e.Email
	}
	return e.RemoteIP
}
