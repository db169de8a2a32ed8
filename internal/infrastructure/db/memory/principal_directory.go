// Package memory provides an in-process PrincipalDirectory for tests and local
// development. State is lost when the process exits.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldreports/reports-api/internal/core/domain"
	"github.com/fieldreports/reports-api/internal/core/ports"
)

var _ ports.PrincipalDirectory = (*PrincipalDirectory)(nil)

type PrincipalDirectory struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Principal
	byEmail map[string]string
}

func NewPrincipalDirectory() *PrincipalDirectory {
	return &PrincipalDirectory{
		byID:    make(map[string]*domain.Principal),
		byEmail: make(map[string]string),
	}
}

func clonePrincipal(p *domain.Principal) *domain.Principal {
	c := *p
	return &c
}

func (d *PrincipalDirectory) FindByEmail(_ context.Context, email string) (*domain.Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	return clonePrincipal(d.byID[id]), nil
}

func (d *PrincipalDirectory) FindByID(_ context.Context, id string) (*domain.Principal, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.byID[id]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	return clonePrincipal(p), nil
}

func (d *PrincipalDirectory) Create(_ context.Context, p *domain.Principal) (*domain.Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	email := domain.NormalizeEmail(p.Email)
	if _, exists := d.byEmail[email]; exists {
		return nil, domain.ErrDuplicateIdentity
	}

	stored := clonePrincipal(p)
	stored.Email = email
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
		stored.UpdatedAt = stored.CreatedAt
	}
	d.byID[stored.ID] = stored
	d.byEmail[email] = stored.ID
	return clonePrincipal(stored), nil
}

// Update applies the non-nil fields of upd.
func (d *PrincipalDirectory) Update(ctx context.Context, id string, upd ports.PrincipalUpdate) (*domain.Principal, error) {
	err := d.update(id, func(p *domain.Principal) {
		if upd.FirstName != nil {
			p.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			p.LastName = *upd.LastName
		}
		if upd.Role != nil {
			p.Role = *upd.Role
		}
		if upd.IsActive != nil {
			p.IsActive = *upd.IsActive
		}
	})
	if err != nil {
		return nil, err
	}
	return d.FindByID(ctx, id)
}

// SetActive flips the active flag of a principal.
func (d *PrincipalDirectory) SetActive(id string, active bool) error {
	return d.update(id, func(p *domain.Principal) { p.IsActive = active })
}

// SetRole changes the role of a principal.
func (d *PrincipalDirectory) SetRole(id string, role domain.Role) error {
	return d.update(id, func(p *domain.Principal) { p.Role = role })
}

// Delete removes a principal.
func (d *PrincipalDirectory) Delete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.byID[id]
	if !ok {
		return domain.ErrPrincipalNotFound
	}
	delete(d.byEmail, p.Email)
	delete(d.byID, id)
	return nil
}

func (d *PrincipalDirectory) update(id string, fn func(*domain.Principal)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.byID[id]
	if !ok {
		return domain.ErrPrincipalNotFound
	}
	fn(p)
	p.UpdatedAt = time.Now().UTC()
	return nil
}
